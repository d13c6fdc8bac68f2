package dto

import (
	"time"

	"github.com/spec-kit/content-gateway/internal/domain"
	"github.com/spec-kit/content-gateway/internal/policy"
)

// ContentResponse is the public view of a catalog record. The resource
// key stays internal; clients reach the object only through a grant.
type ContentResponse struct {
	ID          int64              `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Tier        policy.Tier        `json:"tier"`
	Kind        domain.ContentKind `json:"kind"`
}

// NewContentResponse maps the domain model.
func NewContentResponse(content *domain.Content) ContentResponse {
	return ContentResponse{
		ID:          content.ID,
		Title:       content.Title,
		Description: content.Description,
		Tier:        content.Tier,
		Kind:        content.Kind,
	}
}

// AccessRequest tunes an access-grant request. All fields optional.
type AccessRequest struct {
	TTLSeconds int    `json:"ttl_seconds"`
	SourceIP   string `json:"source_ip"`
	NotBefore  int64  `json:"not_before"`
}

// AccessGrantResponse carries the scoped signed URL.
type AccessGrantResponse struct {
	URL              string    `json:"url"`
	ExpiresAt        time.Time `json:"expires_at"`
	ExpiresInSeconds int64     `json:"expires_in_seconds"`
}

// AccessLogResponse is one audit entry.
type AccessLogResponse struct {
	ResourceID int64     `json:"resource_id"`
	AccessedAt time.Time `json:"accessed_at"`
}
