package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ViniZap4/lumi-notes/domain"
	"github.com/ViniZap4/lumi-notes/session"
	"github.com/ViniZap4/lumi-notes/storage"
)

type fakeRemote struct {
	mu          sync.Mutex
	loginErr    error
	refreshErr  error
	logoutErr   error
	refreshResp Tokens
	calls       []string
	revoked     []string
}

func (f *fakeRemote) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeRemote) Login(_ context.Context, email, _ string) (Tokens, error) {
	f.record("login")
	if f.loginErr != nil {
		return Tokens{}, f.loginErr
	}
	return Tokens{
		User:         &domain.User{ID: "u1", Email: email, Name: "Ada"},
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
	}, nil
}

func (f *fakeRemote) Register(_ context.Context, in RegisterInput) (Tokens, error) {
	f.record("register")
	return Tokens{
		User:        &domain.User{ID: "u2", Email: in.Email, Name: in.Name},
		AccessToken: "access-r",
	}, nil
}

func (f *fakeRemote) Refresh(_ context.Context, token string) (Tokens, error) {
	f.record("refresh:" + token)
	if f.refreshErr != nil {
		return Tokens{}, f.refreshErr
	}
	return f.refreshResp, nil
}

func (f *fakeRemote) Logout(_ context.Context, token string) error {
	f.record("logout")
	f.revoked = append(f.revoked, token)
	return f.logoutErr
}

func (f *fakeRemote) LogoutAll(context.Context) error {
	f.record("logout-all")
	return f.logoutErr
}

type fixture struct {
	remote  *fakeRemote
	store   *session.Store
	cache   *session.Cache
	manager *Manager
}

func newFixture() *fixture {
	remote := &fakeRemote{}
	store := session.NewStore(storage.NewMemory(), storage.NewMemoryKeychain(), zerolog.Nop())
	cache := session.NewCache(store)
	return &fixture{
		remote:  remote,
		store:   store,
		cache:   cache,
		manager: NewManager(remote, store, cache, zerolog.Nop()),
	}
}

func (f *fixture) login(t *testing.T) domain.Session {
	t.Helper()
	sess, err := f.manager.Login(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	return sess
}

func TestLoginPersistsAndCaches(t *testing.T) {
	f := newFixture()
	sess := f.login(t)

	assert.True(t, f.manager.IsAuthenticated())
	assert.True(t, f.cache.Get().Equal(sess), "cache must reflect the write before Login returns")
	assert.True(t, f.store.Read(context.Background()).Equal(sess))
	assert.Equal(t, "refresh-1", sess.RefreshToken)
}

type countingProvider struct {
	*session.Cache
	sets, resets int
}

func (p *countingProvider) Set(sess domain.Session) {
	p.sets++
	p.Cache.Set(sess)
}

func (p *countingProvider) Reset() {
	p.resets++
	p.Cache.Reset()
}

func TestManagerUsesInjectedProvider(t *testing.T) {
	remote := &fakeRemote{}
	store := session.NewStore(storage.NewMemory(), storage.NewMemoryKeychain(), zerolog.Nop())
	provider := &countingProvider{Cache: session.NewCache(store)}
	manager := NewManager(remote, store, provider, zerolog.Nop())

	sess, err := manager.Login(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, 1, provider.sets)
	assert.True(t, manager.Session().Equal(sess))

	require.NoError(t, manager.Logout(context.Background()))
	assert.Equal(t, 1, provider.resets)
	assert.False(t, manager.IsAuthenticated())
}

func TestLoginPropagatesRemoteError(t *testing.T) {
	f := newFixture()
	f.remote.loginErr = domain.Remote(domain.KindRemoteAuth, "auth.login", http.StatusUnauthorized, "invalid credentials")

	_, err := f.manager.Login(context.Background(), "ada@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, f.remote.loginErr, err)
	assert.True(t, domain.IsKind(err, domain.KindRemoteAuth))
	assert.Equal(t, http.StatusUnauthorized, domain.StatusOf(err))
	assert.False(t, f.manager.IsAuthenticated())
	assert.True(t, f.store.Read(context.Background()).IsZero())
}

func TestRegister(t *testing.T) {
	f := newFixture()
	sess, err := f.manager.Register(context.Background(), RegisterInput{Name: "Grace", Email: "grace@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "Grace", sess.User.Name)
	assert.Empty(t, sess.RefreshToken)
	assert.True(t, f.cache.Get().Equal(sess))
}

func TestLogoutClearsEvenWhenRevokeFails(t *testing.T) {
	f := newFixture()
	f.login(t)
	f.remote.logoutErr = errors.New("network unreachable")

	require.NoError(t, f.manager.Logout(context.Background()))
	assert.Equal(t, []string{"refresh-1"}, f.remote.revoked)
	assert.True(t, f.cache.Get().IsZero())
	assert.True(t, f.store.Read(context.Background()).IsZero())
}

func TestLogoutWithoutRefreshTokenSkipsRevoke(t *testing.T) {
	f := newFixture()
	_, err := f.manager.Register(context.Background(), RegisterInput{Email: "x@example.com"})
	require.NoError(t, err)

	require.NoError(t, f.manager.Logout(context.Background()))
	assert.Empty(t, f.remote.revoked)
	assert.True(t, f.cache.Get().IsZero())
}

func TestLogoutAllSettles(t *testing.T) {
	f := newFixture()
	f.login(t)
	f.remote.logoutErr = domain.Remote(domain.KindRemoteAuth, "auth.logout_all", 500, "boom")

	require.NoError(t, f.manager.LogoutAll(context.Background()))
	assert.Contains(t, f.remote.calls, "logout-all")
	assert.False(t, f.manager.IsAuthenticated())
	assert.True(t, f.store.Read(context.Background()).IsZero())
}

func TestRefreshWithoutRefreshTokenClearsWithoutNetwork(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	// access token and user present, refresh token absent
	require.NoError(t, f.store.Write(ctx, domain.Session{
		User:        &domain.User{ID: "u1"},
		AccessToken: "stale",
	}))
	f.cache.Hydrate(ctx)

	sess, err := f.manager.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, sess.IsZero())
	assert.Empty(t, f.remote.calls)
	assert.True(t, f.cache.Get().IsZero())
	assert.True(t, f.store.Read(ctx).IsZero())
}

func TestRefreshFailureClearsWholeSession(t *testing.T) {
	f := newFixture()
	f.login(t)
	f.remote.refreshErr = domain.Remote(domain.KindRemoteAuth, "auth.refresh", http.StatusUnauthorized, "expired")

	_, err := f.manager.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindRemoteAuth))
	assert.Equal(t, []string{"login", "refresh:refresh-1"}, f.remote.calls)

	got := f.store.Read(context.Background())
	assert.True(t, got.IsZero(), "no partially updated session: %+v", got)
	assert.True(t, f.cache.Get().IsZero())
}

func TestRefreshMergesTokensAndKeepsUser(t *testing.T) {
	f := newFixture()
	before := f.login(t)

	f.remote.refreshResp = Tokens{AccessToken: "access-2"}
	sess, err := f.manager.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-2", sess.AccessToken)
	assert.Equal(t, "refresh-1", sess.RefreshToken, "refresh token kept when not rotated")
	assert.Equal(t, *before.User, *sess.User)

	f.remote.refreshResp = Tokens{
		AccessToken:  "access-3",
		RefreshToken: "refresh-2",
		User:         &domain.User{ID: "other"},
	}
	sess, err = f.manager.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refresh-2", sess.RefreshToken)
	assert.Equal(t, "u1", sess.User.ID, "user identity comes from the prior session")
	assert.True(t, f.cache.Get().Equal(sess))
	assert.True(t, f.store.Read(context.Background()).Equal(sess))
}

func TestConcurrentWritesLeaveCacheMatchingStore(t *testing.T) {
	f := newFixture()
	f.login(t)
	f.remote.refreshResp = Tokens{AccessToken: "access-n"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.manager.Refresh(context.Background())
		}()
	}
	wg.Wait()

	assert.True(t, f.cache.Get().Equal(f.store.Read(context.Background())))
}
