package dto

import (
	"time"

	"github.com/spec-kit/content-gateway/internal/domain"
	"github.com/spec-kit/content-gateway/internal/policy"
)

// RegisterRequest payload for new accounts. Tier defaults to free.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Tier     string `json:"tier"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AccountResponse is the public view of an account.
type AccountResponse struct {
	ID    int64       `json:"id"`
	Email string      `json:"email"`
	Tier  policy.Tier `json:"tier"`
}

// NewAccountResponse maps the domain model.
func NewAccountResponse(account *domain.Account) AccountResponse {
	return AccountResponse{ID: account.ID, Email: account.Email, Tier: account.Tier}
}
