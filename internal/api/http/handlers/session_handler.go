package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grant-service/internal/api/dto"
	"github.com/spec-kit/grant-service/internal/auth"
	"github.com/spec-kit/grant-service/internal/service"
	apperrors "github.com/spec-kit/grant-service/pkg/util/errorutil"
)

// SessionHandler switches the acting user.
type SessionHandler struct {
	sessions *service.SessionService
}

// NewSessionHandler constructs handler.
func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Login POST /session/login.
func (h *SessionHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	role, err := parseRole(req.Role)
	if err != nil {
		return err
	}
	session, err := h.sessions.LoginAs(c.UserContext(), role, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SessionResponse{
		User: dto.NewUserResponse(session.User),
		Auth: dto.AuthResponse{Token: session.Token.Token, ExpiresAt: session.Token.ExpiresAt},
	}})
}

// Logout POST /session/logout. The presented token stops working immediately.
func (h *SessionHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewInvalidActor()
	}
	if err := h.sessions.Logout(c.UserContext(), principal.TokenID, principal.ExpiresAt); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Me GET /session/me.
func (h *SessionHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewInvalidActor()
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(principal.User)})
}
