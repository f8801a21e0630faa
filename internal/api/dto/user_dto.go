package dto

import (
	"time"

	"github.com/spec-kit/grant-service/internal/domain"
)

// CreateUserRequest payload for new users.
type CreateUserRequest struct {
	Name string `json:"name" validate:"required,max=120"`
	Role string `json:"role" validate:"required"`
}

// UpdateUserRequest payload. Omitted fields are left unchanged.
type UpdateUserRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=120"`
	Role *string `json:"role"`
}

// UserResponse represents a participant.
type UserResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Role: u.Role, CreatedAt: u.CreatedAt}
}
