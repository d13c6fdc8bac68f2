package edge

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/content-gateway/internal/auth"
	"github.com/spec-kit/content-gateway/internal/domain"
	"github.com/spec-kit/content-gateway/internal/observability"
	"github.com/spec-kit/content-gateway/internal/policy"
)

const gateSecret = "edge-test-secret"

func gateApp(metrics *observability.Metrics) (*fiber.App, *auth.TokenManager) {
	tm := auth.NewTokenManager(gateSecret, time.Hour)
	gk := NewGatekeeper(tm, metrics)

	app := fiber.New()
	app.Use(gk.Handle)
	app.Get("/*", func(c *fiber.Ctx) error {
		// Echo the injected identity headers back for assertions.
		return c.JSON(fiber.Map{
			"userId":    c.Get(HeaderUserID),
			"userTier":  c.Get(HeaderUserTier),
			"userEmail": c.Get(HeaderUserEmail),
		})
	})
	return app, tm
}

func issueToken(t *testing.T, tm *auth.TokenManager, tier policy.Tier) string {
	t.Helper()
	token, _, err := tm.Issue(&domain.Account{ID: 7, Email: "viewer@example.com", Tier: tier})
	require.NoError(t, err)
	return token
}

func TestGatekeeper_FreeResourcePassesThrough(t *testing.T) {
	app, _ := gateApp(nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/free/intro.mp4", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Empty(t, body["userId"], "free path must not carry identity headers")
}

func TestGatekeeper_PremiumWithoutToken(t *testing.T) {
	app, _ := gateApp(nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/premium/feature.mp4", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "no-store", resp.Header.Get(fiber.HeaderCacheControl))
}

func TestGatekeeper_PremiumWithBadToken(t *testing.T) {
	app, _ := gateApp(nil)

	req := httptest.NewRequest(http.MethodGet, "/premium/feature.mp4", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer not.a.real.token")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGatekeeper_PremiumWithExpiredToken(t *testing.T) {
	app, _ := gateApp(nil)

	// Token signed with the shared secret but already expired.
	expired := auth.NewTokenManager(gateSecret, time.Nanosecond)
	token := issueToken(t, expired, policy.TierPremium)
	time.Sleep(10 * time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/premium/feature.mp4", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGatekeeper_PremiumWithFreeTier(t *testing.T) {
	app, tm := gateApp(nil)
	token := issueToken(t, tm, policy.TierFree)

	req := httptest.NewRequest(http.MethodGet, "/premium/feature.mp4", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Equal(t, "premium", body["requiredTier"])
	require.Equal(t, "free", body["userTier"])
}

func TestGatekeeper_PremiumAllowed(t *testing.T) {
	metrics := observability.NewMetrics()
	app, tm := gateApp(metrics)
	token := issueToken(t, tm, policy.TierPremium)

	req := httptest.NewRequest(http.MethodGet, "/premium/feature.mp4", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "7", body["userId"])
	require.Equal(t, "premium", body["userTier"])
	require.Equal(t, "viewer@example.com", body["userEmail"])

	require.Equal(t, int64(1), metrics.DecisionCount("/premium/feature.mp4", "allow_premium"))
}

func TestGatekeeper_QueryTokenFallback(t *testing.T) {
	app, tm := gateApp(nil)
	token := issueToken(t, tm, policy.TierPremium)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/premium/feature.mp4?token="+token, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

// The gatekeeper's HTTP outcome must match the policy function for
// every tier pairing; the origin-side enforcement point is held to the
// same function in the service tests.
func TestGatekeeper_MatchesPolicyForAllPairs(t *testing.T) {
	app, tm := gateApp(nil)

	paths := map[policy.Tier]string{
		policy.TierFree:    "/free/a.mp4",
		policy.TierPremium: "/premium/a.mp4",
	}

	for _, subject := range []policy.Tier{policy.TierFree, policy.TierPremium} {
		for _, resource := range []policy.Tier{policy.TierFree, policy.TierPremium} {
			token := issueToken(t, tm, subject)
			req := httptest.NewRequest(http.MethodGet, paths[resource], nil)
			req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)

			resp, err := app.Test(req)
			require.NoError(t, err)

			allowed := resp.StatusCode == http.StatusOK
			require.Equal(t, policy.CanAccess(subject, resource), allowed,
				"subject=%s resource=%s", subject, resource)
		}
	}
}
