// Package diag exposes a local, read-mostly HTTP surface for inspecting the
// wallet client's session state during development. It replaces the
// console-exposed debug hooks of earlier clients and is not part of the core
// session contract.
package diag

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/solpass/solpass/internal/health"
	"github.com/solpass/solpass/internal/session"
)

type Server struct {
	app      *fiber.App
	logger   *slog.Logger
	sessions *session.Store
	checker  health.Checker
}

func NewServer(sessions *session.Store, checker health.Checker, logger *slog.Logger) *Server {
	server := &Server{
		app:      fiber.New(),
		logger:   logger,
		sessions: sessions,
		checker:  checker,
	}

	server.app.Use(server.requestID)

	server.app.Get("/healthz", server.handleHealth)
	server.app.Get("/session", server.handleGetSession)
	server.app.Delete("/session", server.handleClearSession)
	server.app.Post("/session/extend", server.handleExtendSession)
	server.app.Get("/preferences", server.handleGetPreferences)

	return server
}

// Listen serves on the given port until Shutdown is called.
func (s *Server) Listen(port int) error {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	s.logger.Info("diagnostic server listening", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) requestID(c fiber.Ctx) error {
	id := uuid.NewString()
	c.Set("X-Request-Id", id)
	s.logger.Debug("diag request", "id", id, "method", c.Method(), "path", c.Path())
	return c.Next()
}

func (s *Server) handleHealth(c fiber.Ctx) error {
	status := s.checker.CheckHealth(c.Context())

	code := fiber.StatusOK
	if status.Status != "healthy" {
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(status)
}

func (s *Server) handleGetSession(c fiber.Ctx) error {
	record := s.sessions.GetSession(c.Context())
	if record == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no active session",
		})
	}

	return c.JSON(fiber.Map{
		"session":        record,
		"time_remaining": s.sessions.TimeRemaining(c.Context()).String(),
		"expiring_soon":  s.sessions.IsExpiringSoon(c.Context(), 0),
	})
}

func (s *Server) handleClearSession(c fiber.Ctx) error {
	keepPreferences := c.Query("keep_preferences") != "false"

	if !s.sessions.ClearAllSessionData(c.Context(), keepPreferences) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to clear session data",
		})
	}

	s.logger.Info("session data cleared via diag", "keep_preferences", keepPreferences)
	return c.JSON(fiber.Map{
		"cleared":          true,
		"keep_preferences": keepPreferences,
	})
}

func (s *Server) handleExtendSession(c fiber.Ctx) error {
	record := s.sessions.ExtendSession(c.Context(), 0)
	if record == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no active session to extend",
		})
	}

	return c.JSON(fiber.Map{
		"session":        record,
		"time_remaining": s.sessions.TimeRemaining(c.Context()).String(),
	})
}

func (s *Server) handleGetPreferences(c fiber.Ctx) error {
	return c.JSON(s.sessions.GetUserPreferences(c.Context()))
}
