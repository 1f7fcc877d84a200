// repo/repo.go
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ViniZap4/lumi-notes/domain"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// Token is an opaque bearer or refresh token issued by the dev API.
type Token struct {
	Value     string
	UserID    string
	Kind      TokenKind
	ExpiresAt time.Time
	// Pair links an access token to the refresh token issued with it.
	Pair string
}

func (t Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Repository is the persistence the dev API runs on.
type Repository interface {
	CreateUser(ctx context.Context, u User) error
	UserByEmail(ctx context.Context, email string) (User, error)
	UserByID(ctx context.Context, id string) (User, error)

	SaveToken(ctx context.Context, t Token) error
	Token(ctx context.Context, value string) (Token, error)
	DeleteToken(ctx context.Context, value string) error
	// ConsumeRefreshToken deletes a refresh token together with the access
	// tokens paired to it and returns it. Of two concurrent calls with the
	// same value only one succeeds; the other gets ErrNotFound.
	ConsumeRefreshToken(ctx context.Context, value string) (Token, error)
	DeleteUserTokens(ctx context.Context, userID string) error

	// ListNotes returns the owner's notes, most recently updated first.
	ListNotes(ctx context.Context, owner string) ([]domain.Note, error)
	GetNote(ctx context.Context, owner, id string) (domain.Note, error)
	CreateNote(ctx context.Context, n domain.Note) error
	UpdateNote(ctx context.Context, n domain.Note) error
	DeleteNote(ctx context.Context, owner, id string) error

	Close() error
}

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Open returns the repository for driver, migrating the schema first for
// postgres.
func Open(ctx context.Context, driver, databaseURL string) (Repository, error) {
	switch driver {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverPostgres:
		if err := Migrate(databaseURL); err != nil {
			return nil, err
		}
		return NewPostgres(ctx, databaseURL)
	default:
		return nil, fmt.Errorf("unknown repository driver %q", driver)
	}
}
