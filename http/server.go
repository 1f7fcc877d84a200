// http/server.go
package http

import (
	"errors"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ViniZap4/lumi-notes/repo"
)

type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
}

// Server is the development notes API the client can be pointed at.
type Server struct {
	repo repo.Repository
	cfg  Config
	app  *fiber.App
	now  func() time.Time
	log  zerolog.Logger
}

func NewServer(r repo.Repository, cfg Config, log zerolog.Logger) *Server {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	s := &Server{
		repo: r,
		cfg:  cfg,
		now:  time.Now,
		log:  log.With().Str("component", "devapi").Logger(),
	}
	s.app = fiber.New(fiber.Config{
		AppName:               "lumi dev api",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Use(recover.New())
	s.app.Use(cors.New(cors.Config{
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))
	s.app.Use(s.requestLog)

	api := s.app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", s.HandleRegister)
	auth.Post("/login", s.HandleLogin)
	auth.Post("/refresh", s.HandleRefresh)
	auth.Post("/logout", s.HandleLogout)
	auth.Post("/logout-all", s.requireAuth, s.HandleLogoutAll)

	notes := api.Group("/notes", s.requireAuth)
	notes.Get("/", s.HandleNotes)
	notes.Post("/", s.HandleCreateNote)
	notes.Get("/:id", s.HandleGetNote)
	notes.Patch("/:id", s.HandleUpdateNote)
	notes.Delete("/:id", s.HandleDeleteNote)
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.log.Info().Str("addr", addr).Msg("dev api listening")
	return s.app.Listen(addr)
}

// Serve runs the API on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// handleError renders every failure as {"message": ...}, the shape the
// client reads error text from.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal error"
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code, msg = fe.Code, fe.Message
	case errors.Is(err, repo.ErrNotFound):
		code, msg = fiber.StatusNotFound, "not found"
	case errors.Is(err, repo.ErrConflict):
		code, msg = fiber.StatusConflict, "already exists"
	default:
		s.log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(code).JSON(fiber.Map{"message": msg})
}

func (s *Server) requestLog(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.log.Debug().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("took", time.Since(start)).
		Msg("request")
	return err
}
