package edge

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/proxy"
	"go.uber.org/zap"
)

// DeliveryHandler serves content behind the gatekeeper: cache lookup
// first, then enrichment plus upstream fetch on miss.
type DeliveryHandler struct {
	cache    *Cache
	enricher *Enricher
	upstream string
	logger   *zap.Logger
}

// NewDeliveryHandler constructs the handler.
func NewDeliveryHandler(cache *Cache, enricher *Enricher, upstream string, logger *zap.Logger) *DeliveryHandler {
	return &DeliveryHandler{cache: cache, enricher: enricher, upstream: upstream, logger: logger}
}

// Handle runs after the gatekeeper's ALLOW.
func (h *DeliveryHandler) Handle(c *fiber.Ctx) error {
	path := c.Path()

	if cached, ok := h.cache.Get(c.UserContext(), path); ok {
		c.Set("X-Cache", "HIT")
		c.Set(fiber.HeaderContentType, cached.ContentType)
		return c.Status(cached.Status).Send(cached.Body)
	}

	// Cache miss: stamp audit context, then forward upstream.
	h.enricher.Stamp(c)

	if err := proxy.Do(c, h.upstream+c.OriginalURL()); err != nil {
		h.logger.Error("upstream fetch failed", zap.String("path", path), zap.Error(err))
		return fiber.NewError(http.StatusBadGateway, "upstream unavailable")
	}
	c.Set("X-Cache", "MISS")

	if c.Response().StatusCode() == http.StatusOK {
		body := make([]byte, len(c.Response().Body()))
		copy(body, c.Response().Body())
		h.cache.Set(c.UserContext(), path, &CachedResponse{
			Status:      http.StatusOK,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        body,
		})
	}
	return nil
}
