package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grant-service/internal/api/dto"
	"github.com/spec-kit/grant-service/internal/auth"
	"github.com/spec-kit/grant-service/internal/domain"
	"github.com/spec-kit/grant-service/internal/service"
	apperrors "github.com/spec-kit/grant-service/pkg/util/errorutil"
)

// UsersHandler manages workflow participants.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// List GET /users, optionally filtered by ?role=.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	var role *domain.Role
	if raw := c.Query("role"); raw != "" {
		parsed, err := parseRole(raw)
		if err != nil {
			return err
		}
		role = &parsed
	}
	users, err := h.users.List(c.UserContext(), role)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	user, err := h.users.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Create POST /users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	role, err := parseRole(req.Role)
	if err != nil {
		return err
	}
	user, err := h.users.Create(c.UserContext(), auth.ActorFromContext(c), service.UserCreateInput{Name: req.Name, Role: role})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Update PATCH /users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	patch := domain.UserPatch{Name: req.Name}
	if req.Role != nil {
		role, err := parseRole(*req.Role)
		if err != nil {
			return err
		}
		patch.Role = &role
	}
	user, err := h.users.Update(c.UserContext(), auth.ActorFromContext(c), c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Delete DELETE /users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	if err := h.users.Delete(c.UserContext(), auth.ActorFromContext(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseRole(raw string) (domain.Role, error) {
	role, ok := domain.ParseRole(raw)
	if !ok {
		return "", apperrors.NewValidationError("invalid role", map[string]any{"role": raw, "allowed": domain.Roles()})
	}
	return role, nil
}
