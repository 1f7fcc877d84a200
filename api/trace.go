// api/trace.go
package api

import (
	"net/http"
	"sync"
	"time"
)

const redacted = "<redacted>"

// TraceEntry describes one outgoing request. Used for diagnostics only.
type TraceEntry struct {
	Time    time.Time
	Method  string
	URL     string
	Headers http.Header
}

// HasAuth reports whether the request carried an Authorization header.
func (e TraceEntry) HasAuth() bool {
	return e.Headers.Get("Authorization") != ""
}

// Trace keeps the most recent requests in a fixed-size ring.
type Trace struct {
	mu      sync.Mutex
	entries []TraceEntry
	next    int
	full    bool
}

func NewTrace(size int) *Trace {
	if size <= 0 {
		size = 20
	}
	return &Trace{entries: make([]TraceEntry, size)}
}

func (t *Trace) Record(req *http.Request) {
	headers := req.Header.Clone()
	if headers == nil {
		headers = http.Header{}
	}
	if headers.Get("Authorization") != "" {
		headers.Set("Authorization", "Bearer "+redacted)
	}
	entry := TraceEntry{
		Time:    time.Now(),
		Method:  req.Method,
		URL:     req.URL.String(),
		Headers: headers,
	}

	t.mu.Lock()
	t.entries[t.next] = entry
	t.next = (t.next + 1) % len(t.entries)
	if t.next == 0 {
		t.full = true
	}
	t.mu.Unlock()
}

// Recent returns the retained entries, oldest first.
func (t *Trace) Recent() []TraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.full {
		out := make([]TraceEntry, t.next)
		copy(out, t.entries[:t.next])
		return out
	}
	out := make([]TraceEntry, 0, len(t.entries))
	out = append(out, t.entries[t.next:]...)
	out = append(out, t.entries[:t.next]...)
	return out
}
