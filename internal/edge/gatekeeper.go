// Package edge implements the per-request delivery path: tier gating
// before any cache lookup, then audit enrichment on cache miss. Both
// stages are pure per-request handlers with no shared mutable state and
// no outbound calls; token verification runs against secret material
// injected at startup.
package edge

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/content-gateway/internal/auth"
	"github.com/spec-kit/content-gateway/internal/observability"
	"github.com/spec-kit/content-gateway/internal/policy"
)

// Identity headers attached for downstream stages. Advisory context
// only; nothing downstream re-authorizes from them.
const (
	HeaderUserID    = "X-User-Id"
	HeaderUserTier  = "X-User-Tier"
	HeaderUserEmail = "X-User-Email"
)

// Gatekeeper decides allow/deny before the cache is consulted. A cached
// premium response must never reach an unauthenticated viewer, so this
// runs ahead of every other stage.
type Gatekeeper struct {
	tokens  *auth.TokenManager
	metrics *observability.Metrics
}

// NewGatekeeper constructs the middleware.
func NewGatekeeper(tokens *auth.TokenManager, metrics *observability.Metrics) *Gatekeeper {
	return &Gatekeeper{tokens: tokens, metrics: metrics}
}

// Handle runs the gate. Free resources pass through untouched. Premium
// resources require a verified premium token; any ambiguity denies.
func (g *Gatekeeper) Handle(c *fiber.Ctx) error {
	resourceTier := policy.TierFromPath(c.Path())
	if resourceTier == policy.TierFree {
		g.record(c, "allow_free")
		return c.Next()
	}

	// Execution budget exhausted before a decision: fail closed.
	if err := c.UserContext().Err(); err != nil {
		g.record(c, "deny_budget")
		return g.deny(c, http.StatusForbidden, "Forbidden", "authorization budget exceeded")
	}

	token := auth.BearerToken(c)
	if token == "" {
		g.record(c, "deny_no_token")
		return g.deny(c, http.StatusUnauthorized, "Authentication required",
			"please provide a valid token")
	}

	claims, err := g.tokens.Verify(token)
	if err != nil {
		g.record(c, "deny_bad_token")
		return g.deny(c, http.StatusUnauthorized, "Invalid token",
			"invalid or expired token")
	}

	if !policy.CanAccess(claims.Tier, resourceTier) {
		g.record(c, "deny_tier")
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.Status(http.StatusForbidden).JSON(fiber.Map{
			"error":        "Insufficient permissions",
			"message":      "this content requires " + string(resourceTier) + " tier",
			"userTier":     claims.Tier,
			"requiredTier": resourceTier,
		})
	}

	c.Request().Header.Set(HeaderUserID, formatID(claims.ID))
	c.Request().Header.Set(HeaderUserTier, string(claims.Tier))
	c.Request().Header.Set(HeaderUserEmail, claims.Email)

	g.record(c, "allow_premium")
	return c.Next()
}

func (g *Gatekeeper) deny(c *fiber.Ctx, status int, title, message string) error {
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Status(status).JSON(fiber.Map{
		"error":   title,
		"message": message,
	})
}

func (g *Gatekeeper) record(c *fiber.Ctx, decision string) {
	if g.metrics != nil {
		g.metrics.RecordDecision(c.Path(), decision)
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
