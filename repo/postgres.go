// repo/postgres.go
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ViniZap4/lumi-notes/domain"
)

type pgRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (Repository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return &pgRepo{pool: pool}, nil
}

// pgError maps driver errors onto the repository sentinels.
func pgError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrConflict
	}
	return err
}

// ---------------- Users ----------------

func (p *pgRepo) CreateUser(ctx context.Context, u User) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO users (id, email, name, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt)
	return pgError(err)
}

func (p *pgRepo) scanUser(row pgx.Row) (User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt); err != nil {
		return User{}, pgError(err)
	}
	return u, nil
}

func (p *pgRepo) UserByEmail(ctx context.Context, email string) (User, error) {
	return p.scanUser(p.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE lower(email) = lower($1)`, email))
}

func (p *pgRepo) UserByID(ctx context.Context, id string) (User, error) {
	return p.scanUser(p.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE id = $1`, id))
}

// ---------------- Tokens ----------------

func (p *pgRepo) SaveToken(ctx context.Context, t Token) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO tokens (value, user_id, kind, expires_at, pair) VALUES ($1, $2, $3, $4, $5)`,
		t.Value, t.UserID, string(t.Kind), t.ExpiresAt, t.Pair)
	return pgError(err)
}

func (p *pgRepo) Token(ctx context.Context, value string) (Token, error) {
	var t Token
	var kind string
	err := p.pool.QueryRow(ctx,
		`SELECT value, user_id, kind, expires_at, pair FROM tokens WHERE value = $1`, value).
		Scan(&t.Value, &t.UserID, &kind, &t.ExpiresAt, &t.Pair)
	if err != nil {
		return Token{}, pgError(err)
	}
	t.Kind = TokenKind(kind)
	return t, nil
}

func (p *pgRepo) DeleteToken(ctx context.Context, value string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM tokens WHERE value = $1`, value)
	return pgError(err)
}

func (p *pgRepo) ConsumeRefreshToken(ctx context.Context, value string) (Token, error) {
	var t Token
	var kind string
	err := p.pool.QueryRow(ctx, `
		WITH consumed AS (
			DELETE FROM tokens WHERE value = $1 AND kind = $2
			RETURNING value, user_id, kind, expires_at, pair
		), paired AS (
			DELETE FROM tokens WHERE pair = $1
		)
		SELECT value, user_id, kind, expires_at, pair FROM consumed`,
		value, string(TokenRefresh)).
		Scan(&t.Value, &t.UserID, &kind, &t.ExpiresAt, &t.Pair)
	if err != nil {
		return Token{}, pgError(err)
	}
	t.Kind = TokenKind(kind)
	return t, nil
}

func (p *pgRepo) DeleteUserTokens(ctx context.Context, userID string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM tokens WHERE user_id = $1`, userID)
	return pgError(err)
}

// ---------------- Notes ----------------

const noteColumns = `id, owner_id, title, content, created_at, updated_at`

func scanNote(row pgx.Row) (domain.Note, error) {
	n := domain.Note{Tags: []string{}}
	if err := row.Scan(&n.ID, &n.Owner, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return domain.Note{}, err
	}
	return n, nil
}

func (p *pgRepo) ListNotes(ctx context.Context, owner string) ([]domain.Note, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE owner_id = $1 ORDER BY updated_at DESC`, owner)
	if err != nil {
		return nil, pgError(err)
	}
	defer rows.Close()

	notes := []domain.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (p *pgRepo) GetNote(ctx context.Context, owner, id string) (domain.Note, error) {
	n, err := scanNote(p.pool.QueryRow(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE owner_id = $1 AND id = $2`, owner, id))
	return n, pgError(err)
}

func (p *pgRepo) CreateNote(ctx context.Context, n domain.Note) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO notes (`+noteColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID, n.Owner, n.Title, n.Content, n.CreatedAt, n.UpdatedAt)
	return pgError(err)
}

func (p *pgRepo) UpdateNote(ctx context.Context, n domain.Note) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE notes SET title = $3, content = $4, updated_at = $5 WHERE owner_id = $1 AND id = $2`,
		n.Owner, n.ID, n.Title, n.Content, n.UpdatedAt)
	if err != nil {
		return pgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *pgRepo) DeleteNote(ctx context.Context, owner, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM notes WHERE owner_id = $1 AND id = $2`, owner, id)
	if err != nil {
		return pgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *pgRepo) Close() error {
	p.pool.Close()
	return nil
}
