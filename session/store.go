// session/store.go
package session

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"github.com/ViniZap4/lumi-notes/domain"
	"github.com/ViniZap4/lumi-notes/storage"
)

const (
	accessTokenKey = "auth:accessToken"
	userKey        = "auth:user"
	// refreshTokenService names the keychain entry and, without a keychain,
	// the plain key-value fallback.
	refreshTokenService = "auth:refreshToken"
)

// Store durably holds the session. The refresh token goes to the keychain
// when one is available and to the key-value store otherwise.
type Store struct {
	kv       storage.Store
	keychain storage.Keychain
	log      zerolog.Logger
}

func NewStore(kv storage.Store, keychain storage.Keychain, log zerolog.Logger) *Store {
	return &Store{
		kv:       kv,
		keychain: keychain,
		log:      log.With().Str("component", "session_store").Logger(),
	}
}

// Secure reports whether the refresh token is kept in a keychain.
func (s *Store) Secure() bool {
	return s.keychain != nil
}

// Read never fails. Unreadable fields are logged and treated as absent.
func (s *Store) Read(ctx context.Context) domain.Session {
	raw := s.readRaw(ctx)
	return domain.Session{
		User:         s.parseUser(raw.user),
		AccessToken:  raw.accessToken,
		RefreshToken: raw.refreshToken,
	}
}

// Write persists every field of sess. If any sub-write fails the previously
// stored values are put back and a storage error is returned.
func (s *Store) Write(ctx context.Context, sess domain.Session) error {
	next := rawSession{
		accessToken:  sess.AccessToken,
		refreshToken: sess.RefreshToken,
	}
	if sess.User != nil {
		data, err := json.Marshal(sess.User)
		if err != nil {
			return domain.Wrap(domain.KindStorage, "session.write", "encode user", err)
		}
		next.user = string(data)
	}

	prev := s.readRaw(ctx)
	if err := s.writeRaw(ctx, next); err != nil {
		if rerr := s.writeRaw(ctx, prev); rerr != nil {
			s.log.Error().Err(rerr).Msg("failed to restore previous session after partial write")
		}
		return domain.Wrap(domain.KindStorage, "session.write", "persist session", err)
	}
	return nil
}

// Clear removes all three fields. Every removal is attempted.
func (s *Store) Clear(ctx context.Context) error {
	err := errors.Join(
		s.kv.Remove(ctx, accessTokenKey),
		s.kv.Remove(ctx, userKey),
		s.removeRefreshToken(ctx),
	)
	if err != nil {
		return domain.Wrap(domain.KindStorage, "session.clear", "clear session", err)
	}
	return nil
}

type rawSession struct {
	accessToken  string
	user         string
	refreshToken string
}

func (s *Store) readRaw(ctx context.Context) rawSession {
	var raw rawSession
	raw.accessToken = s.get(ctx, accessTokenKey)
	raw.user = s.get(ctx, userKey)

	if s.keychain != nil {
		secret, ok, err := s.keychain.Get(ctx, refreshTokenService)
		if err != nil {
			s.log.Warn().Err(err).Msg("keychain read failed, treating refresh token as absent")
		} else if ok {
			raw.refreshToken = secret
		}
	} else {
		raw.refreshToken = s.get(ctx, refreshTokenService)
	}
	return raw
}

func (s *Store) get(ctx context.Context, key string) string {
	v, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("storage read failed, treating value as absent")
		return ""
	}
	if !ok {
		return ""
	}
	return v
}

func (s *Store) writeRaw(ctx context.Context, raw rawSession) error {
	if err := s.put(ctx, accessTokenKey, raw.accessToken); err != nil {
		return err
	}
	if err := s.put(ctx, userKey, raw.user); err != nil {
		return err
	}
	if s.keychain != nil {
		if raw.refreshToken == "" {
			return s.keychain.Reset(ctx, refreshTokenService)
		}
		return s.keychain.Set(ctx, refreshTokenService, raw.refreshToken)
	}
	return s.put(ctx, refreshTokenService, raw.refreshToken)
}

func (s *Store) put(ctx context.Context, key, value string) error {
	if value == "" {
		return s.kv.Remove(ctx, key)
	}
	return s.kv.Set(ctx, key, value)
}

func (s *Store) removeRefreshToken(ctx context.Context) error {
	if s.keychain != nil {
		return s.keychain.Reset(ctx, refreshTokenService)
	}
	return s.kv.Remove(ctx, refreshTokenService)
}

// parseUser recovers from malformed cached JSON by treating the user as absent.
func (s *Store) parseUser(raw string) *domain.User {
	if raw == "" {
		return nil
	}
	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		perr := domain.Wrap(domain.KindParse, "session.read", "malformed cached user", err)
		s.log.Warn().Err(perr).Msg("ignoring cached user")
		return nil
	}
	return &u
}
