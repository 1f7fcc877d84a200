// query/tx.go
package query

import "github.com/ViniZap4/lumi-notes/hub"

// Tx is an optimistic change to one cache key. Begin captures the value as
// it was when the mutation started; Rollback puts exactly that value back,
// whatever was written in between.
type Tx[T any] struct {
	cache *Cache
	key   string
	prev  T
	had   bool
}

// Begin cancels in-flight fetches of key, so a stale response cannot undo
// the change, then applies mutate to the cached value. Nothing is applied
// when key holds no value yet.
func Begin[T any](c *Cache, key string, mutate func(T) T) *Tx[T] {
	c.mu.Lock()
	c.cancelLocked(key)
	e := c.entry(key)
	prev, ok := e.value.(T)
	had := ok && e.has
	if had {
		e.value = mutate(prev)
		e.updatedAt = c.now()
	}
	c.mu.Unlock()

	if had {
		c.hub.Broadcast(hub.EventUpdated, key)
	}
	return &Tx[T]{cache: c, key: key, prev: prev, had: had}
}

// Snapshot returns the pre-mutation value.
func (tx *Tx[T]) Snapshot() (T, bool) {
	return tx.prev, tx.had
}

// Rollback restores the pre-mutation value.
func (tx *Tx[T]) Rollback() {
	if !tx.had {
		return
	}
	c := tx.cache
	c.mu.Lock()
	c.cancelLocked(tx.key)
	e := c.entry(tx.key)
	e.value, e.has, e.updatedAt = tx.prev, true, c.now()
	c.mu.Unlock()
	c.hub.Broadcast(hub.EventUpdated, tx.key)
}

// Settle runs after success or failure and marks the key for re-fetch.
func (tx *Tx[T]) Settle() {
	tx.cache.Invalidate(tx.key)
}
