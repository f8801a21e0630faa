package dto

import "time"

// LoginRequest picks the acting user by role.
type LoginRequest struct {
	Role string `json:"role" validate:"required"`
	Name string `json:"name" validate:"max=120"`
}

// AuthResponse standard response for session endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionResponse is returned by login.
type SessionResponse struct {
	User UserResponse `json:"user"`
	Auth AuthResponse `json:"auth"`
}
