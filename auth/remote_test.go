package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ViniZap4/lumi-notes/api"
	"github.com/ViniZap4/lumi-notes/domain"
)

func newRemote(t *testing.T, handler http.HandlerFunc) Remote {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewRemote(api.New(api.Config{BaseURL: srv.URL}, nil, zerolog.Nop()))
}

func TestRemoteLoginDecodesEnvelope(t *testing.T) {
	remote := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, loginPath, r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada@example.com", body["email"])
		w.Write([]byte(`{"data":{"user":{"id":"u1","email":"ada@example.com","name":"Ada"},
			"accessToken":"a","refreshToken":"r"}}`))
	})

	tokens, err := remote.Login(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", tokens.User.ID)
	assert.Equal(t, "a", tokens.AccessToken)
	assert.Equal(t, "r", tokens.RefreshToken)
}

func TestRemoteErrorsAreRemoteAuthErrors(t *testing.T) {
	remote := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"email already registered"}`))
	})

	_, err := remote.Register(context.Background(), RegisterInput{Email: "ada@example.com"})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindRemoteAuth))
	assert.Equal(t, http.StatusConflict, domain.StatusOf(err))
	assert.Contains(t, err.Error(), "email already registered")
}

func TestRemoteRejectsIncompleteLogin(t *testing.T) {
	remote := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"accessToken":"a"}`))
	})

	_, err := remote.Login(context.Background(), "ada@example.com", "pw")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindRemoteAuth))
}

func TestRemoteRefreshAndLogout(t *testing.T) {
	var paths []string
	remote := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case refreshPath:
			w.Write([]byte(`{"accessToken":"a2"}`))
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	})

	ctx := context.Background()
	tokens, err := remote.Refresh(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "a2", tokens.AccessToken)
	assert.Nil(t, tokens.User)

	require.NoError(t, remote.Logout(ctx, "r1"))
	require.NoError(t, remote.LogoutAll(ctx))
	assert.Equal(t, []string{refreshPath, logoutPath, logoutAllPath}, paths)
}
