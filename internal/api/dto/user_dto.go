package dto

import (
	"time"

	"github.com/connecta/citizen-service/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateUserRequest payload.
type CreateUserRequest struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     domain.UserRole `json:"role"`
}

// UserResponse response.
type UserResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      domain.UserRole `json:"role"`
	RoleLabel string          `json:"role_label"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
}

// LoginResponse response.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// FromUser maps a domain user.
func FromUser(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		RoleLabel: u.Role.Label(),
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

// FromUsers maps a user list.
func FromUsers(users []domain.User) []UserResponse {
	result := make([]UserResponse, 0, len(users))
	for i := range users {
		result = append(result, FromUser(&users[i]))
	}
	return result
}
