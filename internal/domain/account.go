package domain

import (
	"time"

	"github.com/spec-kit/content-gateway/internal/policy"
)

// Account is the domain model for registered viewers. Tier changes only
// through the administrative update path, never as a side effect of
// serving requests.
type Account struct {
	ID           int64
	Email        string
	PasswordHash string
	Tier         policy.Tier
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
