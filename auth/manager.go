// auth/manager.go
package auth

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ViniZap4/lumi-notes/domain"
	"github.com/ViniZap4/lumi-notes/session"
)

// Manager runs login, register, logout and refresh against the remote auth
// endpoint and keeps the persisted session and the in-memory cache in step.
// Operations are serialized so two writes never interleave their cache
// updates.
type Manager struct {
	remote Remote
	store  *session.Store
	cache  session.Provider
	log    zerolog.Logger
	mu     sync.Mutex
}

func NewManager(remote Remote, store *session.Store, cache session.Provider, log zerolog.Logger) *Manager {
	return &Manager{
		remote: remote,
		store:  store,
		cache:  cache,
		log:    log.With().Str("component", "auth").Logger(),
	}
}

// Session returns the cached session.
func (m *Manager) Session() domain.Session {
	return m.cache.Get()
}

func (m *Manager) IsAuthenticated() bool {
	return m.cache.Get().IsAuthenticated()
}

// Login authenticates and persists the new session. Remote errors come back
// unchanged.
func (m *Manager) Login(ctx context.Context, email, password string) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tokens, err := m.remote.Login(ctx, email, password)
	if err != nil {
		m.log.Info().Err(err).Msg("login rejected")
		return domain.Session{}, err
	}
	return m.write(ctx, fromTokens(tokens))
}

func (m *Manager) Register(ctx context.Context, in RegisterInput) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tokens, err := m.remote.Register(ctx, in)
	if err != nil {
		m.log.Info().Err(err).Msg("registration rejected")
		return domain.Session{}, err
	}
	return m.write(ctx, fromTokens(tokens))
}

// Logout revokes the current refresh token if there is one and then clears
// the local session whatever the revoke call did. Only a local storage
// failure is returned.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.store.Read(ctx)
	if current.RefreshToken != "" {
		if err := m.remote.Logout(ctx, current.RefreshToken); err != nil {
			m.log.Warn().Err(err).Msg("remote logout failed, clearing local session anyway")
		}
	}
	return m.clear(ctx)
}

// LogoutAll revokes every session of the user server side, then clears the
// local session with the same settle semantics as Logout.
func (m *Manager) LogoutAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.remote.LogoutAll(ctx); err != nil {
		m.log.Warn().Err(err).Msg("remote logout-all failed, clearing local session anyway")
	}
	return m.clear(ctx)
}

// Refresh mints a new access token from the stored refresh token. Without a
// refresh token the session is cleared and no call is made. Any failure
// clears the whole session and is returned; there is no retry.
func (m *Manager) Refresh(ctx context.Context) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.store.Read(ctx)
	if current.RefreshToken == "" {
		m.log.Debug().Msg("no refresh token, clearing session")
		return domain.Session{}, m.clear(ctx)
	}

	tokens, err := m.remote.Refresh(ctx, current.RefreshToken)
	if err != nil {
		m.log.Info().Err(err).Msg("refresh failed, logging out")
		if cerr := m.clear(ctx); cerr != nil {
			m.log.Error().Err(cerr).Msg("failed to clear session after refresh failure")
		}
		return domain.Session{}, err
	}

	next := domain.Session{
		User:         current.User,
		AccessToken:  tokens.AccessToken,
		RefreshToken: current.RefreshToken,
	}
	if tokens.RefreshToken != "" {
		next.RefreshToken = tokens.RefreshToken
	}
	if next.User == nil {
		next.User = tokens.User
	}
	if next.User == nil {
		// an access token is never stored without its user
		m.log.Warn().Msg("refreshed session has no user, logging out")
		if cerr := m.clear(ctx); cerr != nil {
			m.log.Error().Err(cerr).Msg("failed to clear session")
		}
		return domain.Session{}, domain.New(domain.KindRemoteAuth, "auth.refresh", "no user for refreshed session")
	}
	sess, err := m.write(ctx, next)
	if err != nil {
		if cerr := m.clear(ctx); cerr != nil {
			m.log.Error().Err(cerr).Msg("failed to clear session after refresh write failure")
		}
		return domain.Session{}, err
	}
	return sess, nil
}

// write persists sess and only then updates the cache. Caller holds mu.
func (m *Manager) write(ctx context.Context, sess domain.Session) (domain.Session, error) {
	if err := m.store.Write(ctx, sess); err != nil {
		m.log.Error().Err(err).Msg("failed to persist session")
		return domain.Session{}, err
	}
	m.cache.Set(sess)
	return sess, nil
}

// clear resets the cache even when the storage clear fails, so no stale token
// stays usable in this process. Caller holds mu.
func (m *Manager) clear(ctx context.Context) error {
	err := m.store.Clear(ctx)
	m.cache.Reset()
	if err != nil {
		m.log.Error().Err(err).Msg("failed to clear persisted session")
	}
	return err
}

func fromTokens(t Tokens) domain.Session {
	return domain.Session{
		User:         t.User,
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
	}
}
