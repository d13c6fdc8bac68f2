package domain

import (
	"time"

	"github.com/spec-kit/content-gateway/internal/policy"
)

// ContentKind distinguishes stored media types.
type ContentKind string

const (
	ContentKindVideo    ContentKind = "video"
	ContentKindImage    ContentKind = "image"
	ContentKindDocument ContentKind = "document"
)

// Content is a catalog record for one stored object. Tier is immutable
// once created; ResourceKey is the object path at the delivery layer
// (for example "premium/movies/feature.mp4").
type Content struct {
	ID          int64
	Title       string
	Description string
	ResourceKey string
	Tier        policy.Tier
	Kind        ContentKind
	CreatedAt   time.Time
}
