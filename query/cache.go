// query/cache.go
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/ViniZap4/lumi-notes/hub"
)

// ErrCancelled is returned by a fetch that was cancelled or superseded by a
// newer write to the same key. Its result never reaches the cache.
var ErrCancelled = errors.New("query cancelled")

const DefaultStaleTime = time.Minute

type entry struct {
	value     any
	has       bool
	stale     bool
	updatedAt time.Time
	// gen changes whenever the entry is written or cancelled outside a
	// fetch, so a fetch started earlier can tell it was superseded.
	gen    uint64
	cancel context.CancelFunc
}

// Cache holds query results by key with a staleness window. Values must be
// treated as immutable by callers; writers replace them wholesale.
type Cache struct {
	mu        sync.Mutex
	entries   map[string]*entry
	group     singleflight.Group
	staleTime time.Duration
	hub       *hub.Hub
	now       func() time.Time
	log       zerolog.Logger
}

func New(staleTime time.Duration, log zerolog.Logger) *Cache {
	if staleTime <= 0 {
		staleTime = DefaultStaleTime
	}
	h := hub.NewHub(log)
	go h.Run()
	return &Cache{
		entries:   make(map[string]*entry),
		staleTime: staleTime,
		hub:       h,
		now:       time.Now,
		log:       log.With().Str("component", "query").Logger(),
	}
}

// Close stops change notifications and cancels every in-flight fetch.
func (c *Cache) Close() {
	c.mu.Lock()
	for key := range c.entries {
		c.cancelLocked(key)
	}
	c.mu.Unlock()
	c.hub.Stop()
}

// Subscribe streams change events for every key.
func (c *Cache) Subscribe() <-chan hub.Event {
	return c.hub.Subscribe()
}

func (c *Cache) Unsubscribe(ch <-chan hub.Event) {
	c.hub.Unsubscribe(ch)
}

func (c *Cache) entry(key string) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	return e
}

// cancelLocked aborts the in-flight fetch of key and supersedes it.
func (c *Cache) cancelLocked(key string) {
	e := c.entry(key)
	e.gen++
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

// Cancel aborts and supersedes any in-flight fetch for key.
func (c *Cache) Cancel(key string) {
	c.mu.Lock()
	c.cancelLocked(key)
	c.mu.Unlock()
}

type FetchOptions struct {
	// Force skips the staleness check and always goes to the source.
	Force bool
}

// Fetch returns the cached value for key while it is fresh, and otherwise
// calls fn. Concurrent fetches of the same key share one call; a caller
// whose ctx ends stops waiting without failing the others.
func Fetch[T any](ctx context.Context, c *Cache, key string, opts FetchOptions, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	c.mu.Lock()
	e := c.entry(key)
	if v, ok := e.value.(T); ok && e.has && !opts.Force && !e.stale && c.now().Sub(e.updatedAt) < c.staleTime {
		c.mu.Unlock()
		return v, nil
	}
	gen := e.gen
	c.mu.Unlock()

	// The shared call outlives any single caller; only Cancel and newer
	// writes stop it.
	ch := c.group.DoChan(fmt.Sprintf("%s#%d", key, gen), func() (any, error) {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		defer cancel()

		c.mu.Lock()
		e := c.entry(key)
		if e.gen != gen {
			c.mu.Unlock()
			return nil, ErrCancelled
		}
		e.cancel = cancel
		c.mu.Unlock()

		v, err := fn(fctx)

		c.mu.Lock()
		e = c.entry(key)
		if e.gen != gen {
			c.mu.Unlock()
			c.log.Debug().Str("key", key).Msg("discarding superseded fetch")
			return nil, ErrCancelled
		}
		e.cancel = nil
		if err != nil {
			c.mu.Unlock()
			return nil, err
		}
		e.value, e.has, e.stale, e.updatedAt = v, true, false, c.now()
		c.mu.Unlock()

		c.hub.Broadcast(hub.EventUpdated, key)
		return v, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return zero, res.Err
	}
	v, ok := res.Val.(T)
	if !ok {
		return zero, fmt.Errorf("query %s: cached %T is not %T (shared=%v)", key, res.Val, zero, res.Shared)
	}
	return v, nil
}

// Get returns the cached value for key, fresh or not.
func Get[T any](c *Cache, key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	e, ok := c.entries[key]
	if !ok || !e.has {
		return zero, false
	}
	v, ok := e.value.(T)
	return v, ok
}

// Set stores v under key as fresh data and supersedes any in-flight fetch.
func (c *Cache) Set(key string, v any) {
	c.mu.Lock()
	c.cancelLocked(key)
	e := c.entry(key)
	e.value, e.has, e.stale, e.updatedAt = v, true, false, c.now()
	c.mu.Unlock()
	c.hub.Broadcast(hub.EventUpdated, key)
}

// Remove evicts key.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	if _, ok := c.entries[key]; !ok {
		c.mu.Unlock()
		return
	}
	c.cancelLocked(key)
	delete(c.entries, key)
	c.mu.Unlock()
	c.hub.Broadcast(hub.EventRemoved, key)
}

// Invalidate marks key stale so the next Fetch goes to the source.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok {
		e.stale = true
	}
	c.mu.Unlock()
	if ok {
		c.hub.Broadcast(hub.EventInvalidated, key)
	}
}

// InvalidatePrefix marks every key starting with prefix stale.
func (c *Cache) InvalidatePrefix(prefix string) {
	var keys []string
	c.mu.Lock()
	for key, e := range c.entries {
		if strings.HasPrefix(key, prefix) {
			e.stale = true
			keys = append(keys, key)
		}
	}
	c.mu.Unlock()
	for _, key := range keys {
		c.hub.Broadcast(hub.EventInvalidated, key)
	}
}

// IsStale reports whether key is missing, invalidated or past the window.
func (c *Cache) IsStale(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.has {
		return true
	}
	return e.stale || c.now().Sub(e.updatedAt) >= c.staleTime
}
