// storage/file.go
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

type fileStore struct {
	path  string
	mutex sync.Mutex
	items map[string]string
}

// NewFile opens (or lazily creates) a JSON document store at path.
func NewFile(path string) (Store, error) {
	if path == "" {
		return nil, fmt.Errorf("file store requires a path")
	}
	s := &fileStore{path: path, items: make(map[string]string)}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read store %s: %w", path, err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.items); err != nil {
			return nil, fmt.Errorf("parse store %s: %w", path, err)
		}
	}
	return s, nil
}

func (s *fileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *fileStore) Set(_ context.Context, key, value string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	prev, had := s.items[key]
	s.items[key] = value
	if err := s.flush(); err != nil {
		if had {
			s.items[key] = prev
		} else {
			delete(s.items, key)
		}
		return err
	}
	return nil
}

func (s *fileStore) Remove(_ context.Context, key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	prev, had := s.items[key]
	if !had {
		return nil
	}
	delete(s.items, key)
	if err := s.flush(); err != nil {
		s.items[key] = prev
		return err
	}
	return nil
}

func (s *fileStore) Close() error {
	return nil
}

// flush writes the whole document through a temp file and rename so a crash
// never leaves a truncated store behind. Caller holds the mutex.
func (s *fileStore) flush() error {
	data, err := json.MarshalIndent(s.items, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".store-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

var serviceName = regexp.MustCompile(`[^A-Za-z0-9._-]`)

type fileKeychain struct {
	dir string
}

// NewFileKeychain keeps one owner-only file per service under dir.
func NewFileKeychain(dir string) (Keychain, error) {
	if dir == "" {
		return nil, fmt.Errorf("file keychain requires a directory")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create keychain dir: %w", err)
	}
	return &fileKeychain{dir: dir}, nil
}

func (k *fileKeychain) file(service string) string {
	return filepath.Join(k.dir, serviceName.ReplaceAllString(service, "_"))
}

func (k *fileKeychain) Get(_ context.Context, service string) (string, bool, error) {
	data, err := os.ReadFile(k.file(service))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

func (k *fileKeychain) Set(_ context.Context, service, secret string) error {
	return os.WriteFile(k.file(service), []byte(secret), 0600)
}

func (k *fileKeychain) Reset(_ context.Context, service string) error {
	err := os.Remove(k.file(service))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
