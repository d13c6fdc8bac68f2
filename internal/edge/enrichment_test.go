package edge

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func enrichApp(enricher *Enricher) *fiber.App {
	app := fiber.New()
	app.Get("/*", func(c *fiber.Ctx) error {
		enricher.Stamp(c)
		return c.JSON(fiber.Map{
			"contentTier": c.Get(HeaderContentTier),
			"requestId":   c.Get(HeaderRequestID),
			"timestamp":   c.Get(HeaderRequestTimestamp),
			"metadata":    c.Get(HeaderAccessMetadata),
		})
	})
	return app
}

func stamped(t *testing.T, app *fiber.App, req *http.Request) map[string]string {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestEnricher_AnonymousDefaults(t *testing.T) {
	enricher := NewEnricher()
	fixed := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	enricher.now = func() time.Time { return fixed }

	app := enrichApp(enricher)
	body := stamped(t, app, httptest.NewRequest(http.MethodGet, "/free/intro.mp4", nil))

	require.Equal(t, "free", body["contentTier"])
	require.Equal(t, "2025-03-14T09:26:53Z", body["timestamp"])

	var meta AccessMetadata
	require.NoError(t, json.Unmarshal([]byte(body["metadata"]), &meta))
	require.Equal(t, "anonymous", meta.UserID)
	require.Equal(t, "free", meta.UserTier)
	require.Equal(t, "free", meta.ContentTier)
}

func TestEnricher_UsesIdentityHeaders(t *testing.T) {
	enricher := NewEnricher()
	app := enrichApp(enricher)

	req := httptest.NewRequest(http.MethodGet, "/premium/feature.mp4", nil)
	req.Header.Set(HeaderUserID, "7")
	req.Header.Set(HeaderUserTier, "premium")

	body := stamped(t, app, req)
	require.Equal(t, "premium", body["contentTier"])

	var meta AccessMetadata
	require.NoError(t, json.Unmarshal([]byte(body["metadata"]), &meta))
	require.Equal(t, "7", meta.UserID)
	require.Equal(t, "premium", meta.UserTier)
}

// Content tier must come from the path, never from the viewer headers.
func TestEnricher_ContentTierFromPathNotHeaders(t *testing.T) {
	enricher := NewEnricher()
	app := enrichApp(enricher)

	req := httptest.NewRequest(http.MethodGet, "/free/intro.mp4", nil)
	req.Header.Set(HeaderUserTier, "premium")

	body := stamped(t, app, req)
	require.Equal(t, "free", body["contentTier"])
}

func TestEnricher_RequestIDsMonotonic(t *testing.T) {
	enricher := NewEnricher()
	app := enrichApp(enricher)

	first := stamped(t, app, httptest.NewRequest(http.MethodGet, "/free/a", nil))
	second := stamped(t, app, httptest.NewRequest(http.MethodGet, "/free/b", nil))

	require.NotEmpty(t, first["requestId"])
	require.NotEqual(t, first["requestId"], second["requestId"])
}
