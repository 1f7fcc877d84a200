// session/cache.go
package session

import (
	"context"
	"sync"

	"github.com/ViniZap4/lumi-notes/domain"
)

// Provider gives synchronous access to the current session and takes the
// updates the auth manager makes to it.
type Provider interface {
	Get() domain.Session
	Set(domain.Session)
	Reset()
}

var _ Provider = (*Cache)(nil)

// Cache is the process-wide in-memory mirror of the persisted session.
// Hydrate it once at startup; the auth manager keeps it in step with every
// write and clears it on logout.
type Cache struct {
	store   *Store
	mu      sync.RWMutex
	current domain.Session
}

func NewCache(store *Store) *Cache {
	return &Cache{store: store}
}

// Get returns the cached session, or the zero session before hydration.
func (c *Cache) Get() domain.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return clone(c.current)
}

// Hydrate re-reads the persisted session and replaces the cached copy.
func (c *Cache) Hydrate(ctx context.Context) domain.Session {
	sess := c.store.Read(ctx)
	c.Set(sess)
	return sess
}

func (c *Cache) Set(sess domain.Session) {
	c.mu.Lock()
	c.current = clone(sess)
	c.mu.Unlock()
}

func (c *Cache) Reset() {
	c.Set(domain.Session{})
}

// AccessToken lets the cache sign outgoing requests.
func (c *Cache) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.AccessToken
}

func clone(s domain.Session) domain.Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
