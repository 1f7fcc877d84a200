// repo/memory.go
package repo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/ViniZap4/lumi-notes/domain"
)

type memory struct {
	mu     sync.RWMutex
	users  map[string]User
	emails map[string]string
	tokens map[string]Token
	notes  map[string]domain.Note
}

func NewMemory() Repository {
	return &memory{
		users:  make(map[string]User),
		emails: make(map[string]string),
		tokens: make(map[string]Token),
		notes:  make(map[string]domain.Note),
	}
}

func (m *memory) CreateUser(ctx context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	email := strings.ToLower(u.Email)
	if _, ok := m.emails[email]; ok {
		return ErrConflict
	}
	if _, ok := m.users[u.ID]; ok {
		return ErrConflict
	}
	m.users[u.ID] = u
	m.emails[email] = u.ID
	return nil
}

func (m *memory) UserByEmail(ctx context.Context, email string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.emails[strings.ToLower(email)]
	if !ok {
		return User{}, ErrNotFound
	}
	return m.users[id], nil
}

func (m *memory) UserByID(ctx context.Context, id string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *memory) SaveToken(ctx context.Context, t Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[t.Value] = t
	return nil
}

func (m *memory) Token(ctx context.Context, value string) (Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tokens[value]
	if !ok {
		return Token{}, ErrNotFound
	}
	return t, nil
}

func (m *memory) DeleteToken(ctx context.Context, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, value)
	return nil
}

func (m *memory) ConsumeRefreshToken(ctx context.Context, value string) (Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[value]
	if !ok || t.Kind != TokenRefresh {
		return Token{}, ErrNotFound
	}
	delete(m.tokens, value)
	for v, other := range m.tokens {
		if other.Pair == value {
			delete(m.tokens, v)
		}
	}
	return t, nil
}

func (m *memory) DeleteUserTokens(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for v, t := range m.tokens {
		if t.UserID == userID {
			delete(m.tokens, v)
		}
	}
	return nil
}

func (m *memory) ListNotes(ctx context.Context, owner string) ([]domain.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []domain.Note{}
	for _, n := range m.notes {
		if n.Owner == owner {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (m *memory) GetNote(ctx context.Context, owner, id string) (domain.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.notes[id]
	if !ok || n.Owner != owner {
		return domain.Note{}, ErrNotFound
	}
	return n, nil
}

func (m *memory) CreateNote(ctx context.Context, n domain.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[n.ID]; ok {
		return ErrConflict
	}
	m.notes[n.ID] = n
	return nil
}

func (m *memory) UpdateNote(ctx context.Context, n domain.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.notes[n.ID]
	if !ok || cur.Owner != n.Owner {
		return ErrNotFound
	}
	m.notes[n.ID] = n
	return nil
}

func (m *memory) DeleteNote(ctx context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok || n.Owner != owner {
		return ErrNotFound
	}
	delete(m.notes, id)
	return nil
}

func (m *memory) Close() error {
	return nil
}
