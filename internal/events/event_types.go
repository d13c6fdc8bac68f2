package events

import (
	"time"

	"github.com/spec-kit/content-gateway/internal/policy"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAccountRegistered EventType = "account_registered"
	EventAccessGranted     EventType = "access_granted"
	EventAccessDenied      EventType = "access_denied"
)

// Event represents a domain event emitted by services. Services publish
// these instead of writing audit records inline; the audit worker is
// the only subscriber with storage side effects.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// AccountRegisteredPayload payload.
type AccountRegisteredPayload struct {
	AccountID int64       `json:"account_id"`
	Email     string      `json:"email"`
	Tier      policy.Tier `json:"tier"`
}

// AccessGrantedPayload payload.
type AccessGrantedPayload struct {
	SubjectID  int64     `json:"subject_id"`
	ResourceID int64     `json:"resource_id"`
	AccessedAt time.Time `json:"accessed_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// AccessDeniedPayload payload.
type AccessDeniedPayload struct {
	SubjectID   int64       `json:"subject_id"`
	ResourceID  int64       `json:"resource_id"`
	SubjectTier policy.Tier `json:"subject_tier"`
	Required    policy.Tier `json:"required_tier"`
}
