// auth/remote.go
package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/ViniZap4/lumi-notes/api"
	"github.com/ViniZap4/lumi-notes/domain"
)

const (
	loginPath     = "/api/auth/login"
	registerPath  = "/api/auth/register"
	refreshPath   = "/api/auth/refresh"
	logoutPath    = "/api/auth/logout"
	logoutAllPath = "/api/auth/logout-all"
)

// Tokens is what the auth endpoints hand back. Refresh responses may omit
// the user and the rotated refresh token.
type Tokens struct {
	User         *domain.User `json:"user,omitempty"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken,omitempty"`
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Remote is the auth endpoint the manager talks to.
type Remote interface {
	Login(ctx context.Context, email, password string) (Tokens, error)
	Register(ctx context.Context, in RegisterInput) (Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (Tokens, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context) error
}

type httpRemote struct {
	client *api.Client
}

func NewRemote(client *api.Client) Remote {
	return &httpRemote{client: client}
}

func (r *httpRemote) Login(ctx context.Context, email, password string) (Tokens, error) {
	body := map[string]string{"email": email, "password": password}
	return r.issue(ctx, "auth.login", loginPath, body)
}

func (r *httpRemote) Register(ctx context.Context, in RegisterInput) (Tokens, error) {
	return r.issue(ctx, "auth.register", registerPath, in)
}

func (r *httpRemote) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	var out Tokens
	body := map[string]string{"refreshToken": refreshToken}
	if err := r.client.Do(ctx, http.MethodPost, refreshPath, body, &out); err != nil {
		return Tokens{}, authError("auth.refresh", err)
	}
	if out.AccessToken == "" {
		return Tokens{}, domain.Remote(domain.KindRemoteAuth, "auth.refresh", 0, "refresh response without access token")
	}
	return out, nil
}

func (r *httpRemote) Logout(ctx context.Context, refreshToken string) error {
	body := map[string]string{"refreshToken": refreshToken}
	if err := r.client.Do(ctx, http.MethodPost, logoutPath, body, nil); err != nil {
		return authError("auth.logout", err)
	}
	return nil
}

func (r *httpRemote) LogoutAll(ctx context.Context) error {
	if err := r.client.Do(ctx, http.MethodPost, logoutAllPath, nil, nil); err != nil {
		return authError("auth.logout_all", err)
	}
	return nil
}

// issue handles login and register, which must return a user together with
// the access token.
func (r *httpRemote) issue(ctx context.Context, op, path string, body any) (Tokens, error) {
	var out Tokens
	if err := r.client.Do(ctx, http.MethodPost, path, body, &out); err != nil {
		return Tokens{}, authError(op, err)
	}
	if out.User == nil || out.AccessToken == "" {
		return Tokens{}, domain.Remote(domain.KindRemoteAuth, op, 0, "incomplete auth response")
	}
	return out, nil
}

func authError(op string, err error) error {
	var httpErr *api.HTTPError
	if errors.As(err, &httpErr) {
		return domain.Remote(domain.KindRemoteAuth, op, httpErr.Status, httpErr.Message)
	}
	return domain.Wrap(domain.KindRemoteAuth, op, "request failed", err)
}
