package edge

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/content-gateway/internal/policy"
)

// Headers stamped by the enrichment stage.
const (
	HeaderContentTier      = "X-Content-Tier"
	HeaderRequestID        = "X-Request-Id"
	HeaderRequestTimestamp = "X-Request-Timestamp"
	HeaderAccessMetadata   = "X-Access-Metadata"
)

// Placeholders substituted when no identity headers are present (the
// anonymous free path). The stage never fails for missing identity.
const (
	anonymousUserID = "anonymous"
	unknownEmail    = "unknown"
)

// AccessMetadata is the audit blob serialized onto the upstream request.
type AccessMetadata struct {
	UserID      string `json:"userId"`
	UserTier    string `json:"userTier"`
	ContentTier string `json:"contentTier"`
	Timestamp   string `json:"timestamp"`
}

// Enricher attaches audit context on cache miss. It trusts the
// gatekeeper's decision and mutates headers only; it never affects
// authorization and is safe to re-run.
type Enricher struct {
	seq atomic.Uint64

	now func() time.Time
}

// NewEnricher constructs the stage.
func NewEnricher() *Enricher {
	return &Enricher{now: time.Now}
}

// Stamp derives audit headers for one request. The content tier comes
// from the path prefix, deliberately not from the identity headers, so
// the audit trail stays accurate even if the viewer headers are absent.
func (e *Enricher) Stamp(c *fiber.Ctx) {
	userID := headerOr(c, HeaderUserID, anonymousUserID)
	userTier := headerOr(c, HeaderUserTier, string(policy.TierFree))

	contentTier := string(policy.TierFromPath(c.Path()))
	now := e.now().UTC()
	timestamp := now.Format(time.RFC3339)

	c.Request().Header.Set(HeaderContentTier, contentTier)
	c.Request().Header.Set(HeaderRequestTimestamp, timestamp)
	c.Request().Header.Set(HeaderRequestID,
		fmt.Sprintf("%s-%d-%d", userID, now.UnixMilli(), e.seq.Add(1)))

	meta := AccessMetadata{
		UserID:      userID,
		UserTier:    userTier,
		ContentTier: contentTier,
		Timestamp:   timestamp,
	}
	if blob, err := json.Marshal(meta); err == nil {
		c.Request().Header.Set(HeaderAccessMetadata, string(blob))
	}
}

func headerOr(c *fiber.Ctx, key, fallback string) string {
	if v := c.Get(key); v != "" {
		return v
	}
	return fallback
}
