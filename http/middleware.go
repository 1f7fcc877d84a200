// http/middleware.go
package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ViniZap4/lumi-notes/repo"
)

const userLocal = "user"

// requireAuth accepts only live access tokens sent as
// "Authorization: Bearer <token>".
func (s *Server) requireAuth(c *fiber.Ctx) error {
	value, ok := bearer(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
	}

	tok, err := s.repo.Token(c.UserContext(), value)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && (tok.Kind != repo.TokenAccess || tok.Expired(s.now()))) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
	}
	if err != nil {
		return err
	}

	user, err := s.repo.UserByID(c.UserContext(), tok.UserID)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "unknown user")
	}
	c.Locals(userLocal, user)
	return c.Next()
}

func bearer(header string) (string, bool) {
	scheme, value, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(value) == "" {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func currentUser(c *fiber.Ctx) repo.User {
	u, _ := c.Locals(userLocal).(repo.User)
	return u
}
