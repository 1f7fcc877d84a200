// storage/memory.go
package storage

import (
	"context"
	"sync"
)

type memoryStore struct {
	items map[string]string
	mutex sync.RWMutex
}

// NewMemory builds an in-memory store. Contents are lost on exit.
func NewMemory() Store {
	return &memoryStore{items: make(map[string]string)}
}

func (s *memoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mutex.RLock()
	v, ok := s.items[key]
	s.mutex.RUnlock()
	return v, ok, nil
}

func (s *memoryStore) Set(_ context.Context, key, value string) error {
	s.mutex.Lock()
	s.items[key] = value
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) Remove(_ context.Context, key string) error {
	s.mutex.Lock()
	delete(s.items, key)
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) Close() error {
	return nil
}

type memoryKeychain struct {
	store *memoryStore
}

func NewMemoryKeychain() Keychain {
	return &memoryKeychain{store: &memoryStore{items: make(map[string]string)}}
}

func (k *memoryKeychain) Get(ctx context.Context, service string) (string, bool, error) {
	return k.store.Get(ctx, service)
}

func (k *memoryKeychain) Set(ctx context.Context, service, secret string) error {
	return k.store.Set(ctx, service, secret)
}

func (k *memoryKeychain) Reset(ctx context.Context, service string) error {
	return k.store.Remove(ctx, service)
}
