// api/client.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ViniZap4/lumi-notes/domain"
)

const defaultTimeout = 15 * time.Second

// TokenSource hands out the current access token without blocking on I/O.
type TokenSource interface {
	AccessToken() string
}

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	TraceSize int
}

// Client talks JSON to the notes API. Every request is signed with the
// bearer token from the TokenSource and recorded in the trace ring.
type Client struct {
	baseURL string
	http    *http.Client
	trace   *Trace
	log     zerolog.Logger
}

func New(cfg Config, tokens TokenSource, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	trace := NewTrace(cfg.TraceSize)
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
			Transport: &bearerTransport{
				base:   http.DefaultTransport,
				tokens: tokens,
				trace:  trace,
			},
		},
		trace: trace,
		log:   log.With().Str("component", "api").Logger(),
	}
}

// Recent returns the latest recorded requests, oldest first.
func (c *Client) Recent() []TraceEntry {
	return c.trace.Recent()
}

// HTTPError is returned for any non-2xx response.
type HTTPError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Status)
}

// Do sends body as JSON and decodes the (possibly {data: ...} enveloped)
// response into out. out may be nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("request done")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{
			Status:  resp.StatusCode,
			Message: errorMessage(resp.StatusCode, raw),
			Body:    raw,
		}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(Unwrap(raw), out); err != nil {
		return domain.Wrap(domain.KindParse, method+" "+path, "malformed response", err)
	}
	return nil
}

// Unwrap returns the payload of a {data: ...} envelope, or raw itself when
// the response is not enveloped.
func Unwrap(raw []byte) json.RawMessage {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return raw
	}
	data, ok := env["data"]
	if !ok || isNull(data) {
		return raw
	}
	return data
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func errorMessage(status int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) < 200 {
		return text
	}
	return http.StatusText(status)
}

type bearerTransport struct {
	base   http.RoundTripper
	tokens TokenSource
	trace  *Trace
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request.
	req = req.Clone(req.Context())
	if t.tokens != nil {
		if token := t.tokens.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	t.trace.Record(req)
	return t.base.RoundTrip(req)
}
