package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/content-gateway/pkg/util"
)

const principalKey = "auth_principal"

// AuthMiddleware validates bearer tokens on origin-API routes. The
// token is self-contained, so no account lookup happens here; handlers
// that need the persisted record load it themselves.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token := BearerToken(c)
	if token == "" {
		return apperrors.NewUnauthenticated("authentication required")
	}

	claims, err := m.tokens.Verify(token)
	if err != nil {
		return apperrors.NewUnauthenticated("invalid or expired token")
	}

	c.Locals(principalKey, claims)
	return c.Next()
}

// BearerToken extracts the raw token from the Authorization header or,
// as a fallback, the token query parameter. A non-Bearer Authorization
// scheme counts as no header at all, so the query fallback still applies.
func BearerToken(c *fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.Query("token")
}

// PrincipalFromContext retrieves the authenticated claims.
func PrincipalFromContext(c *fiber.Ctx) (*Claims, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	claims, ok := val.(*Claims)
	return claims, ok
}
