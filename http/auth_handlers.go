// http/auth_handlers.go
package http

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ViniZap4/lumi-notes/repo"
)

const minPasswordLen = 8

type userView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type tokensView struct {
	User         userView `json:"user"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
}

var errBadCredentials = fiber.NewError(fiber.StatusUnauthorized, "invalid email or password")

func (s *Server) HandleRegister(c *fiber.Ctx) error {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	email := strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid email")
	}
	if len(req.Password) < minPasswordLen {
		return fiber.NewError(fiber.StatusBadRequest, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	user := repo.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.CreateUser(c.UserContext(), user); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return fiber.NewError(fiber.StatusConflict, "email already registered")
		}
		return err
	}
	s.log.Info().Str("user", user.ID).Msg("user registered")
	return s.issue(c.Status(fiber.StatusCreated), user)
}

func (s *Server) HandleLogin(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	user, err := s.repo.UserByEmail(c.UserContext(), strings.TrimSpace(req.Email))
	if errors.Is(err, repo.ErrNotFound) {
		return errBadCredentials
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return errBadCredentials
	}
	return s.issue(c, user)
}

// HandleRefresh trades a refresh token for a new pair. The presented token
// and the access token issued with it are revoked before the new pair is
// minted, so a token can be spent once.
func (s *Server) HandleRefresh(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return fiber.NewError(fiber.StatusBadRequest, "refreshToken is required")
	}

	ctx := c.UserContext()
	tok, err := s.repo.ConsumeRefreshToken(ctx, req.RefreshToken)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && tok.Expired(s.now())) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid refresh token")
	}
	if err != nil {
		return err
	}
	user, err := s.repo.UserByID(ctx, tok.UserID)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "unknown user")
	}
	return s.issue(c, user)
}

func (s *Server) HandleLogout(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = c.BodyParser(&req)

	ctx := c.UserContext()
	if req.RefreshToken != "" {
		if err := s.repo.DeleteToken(ctx, req.RefreshToken); err != nil {
			return err
		}
	}
	if value, ok := bearer(c.Get(fiber.HeaderAuthorization)); ok {
		if err := s.repo.DeleteToken(ctx, value); err != nil {
			return err
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) HandleLogoutAll(c *fiber.Ctx) error {
	user := currentUser(c)
	if err := s.repo.DeleteUserTokens(c.UserContext(), user.ID); err != nil {
		return err
	}
	s.log.Info().Str("user", user.ID).Msg("all sessions revoked")
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) issue(c *fiber.Ctx, user repo.User) error {
	now := s.now()
	refresh := repo.Token{Value: uuid.NewString(), UserID: user.ID, Kind: repo.TokenRefresh, ExpiresAt: now.Add(s.cfg.RefreshTTL)}
	access := repo.Token{Value: uuid.NewString(), UserID: user.ID, Kind: repo.TokenAccess, ExpiresAt: now.Add(s.cfg.AccessTTL), Pair: refresh.Value}
	for _, t := range []repo.Token{access, refresh} {
		if err := s.repo.SaveToken(c.UserContext(), t); err != nil {
			return err
		}
	}
	return c.JSON(fiber.Map{"data": tokensView{
		User:         userView{ID: user.ID, Email: user.Email, Name: user.Name},
		AccessToken:  access.Value,
		RefreshToken: refresh.Value,
	}})
}
