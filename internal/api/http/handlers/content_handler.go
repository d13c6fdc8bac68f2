package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/content-gateway/internal/api/dto"
	"github.com/spec-kit/content-gateway/internal/auth"
	"github.com/spec-kit/content-gateway/internal/service"
	"github.com/spec-kit/content-gateway/internal/signer"
	apperrors "github.com/spec-kit/content-gateway/pkg/util"
)

// ContentHandler exposes the catalog and the access-grant endpoint.
type ContentHandler struct {
	content *service.ContentService
}

// NewContentHandler constructs handler.
func NewContentHandler(contentService *service.ContentService) *ContentHandler {
	return &ContentHandler{content: contentService}
}

// List handles GET /content.
func (h *ContentHandler) List(c *fiber.Ctx) error {
	items, err := h.content.List(c.UserContext())
	if err != nil {
		return err
	}

	responses := make([]dto.ContentResponse, 0, len(items))
	for i := range items {
		responses = append(responses, dto.NewContentResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": responses})
}

// Get handles GET /content/:id.
func (h *ContentHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	content, err := h.content.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewContentResponse(content)})
}

// RequestAccess handles POST /content/:id/access. The middleware has
// already verified the token; the service re-derives the tier decision
// before any grant is minted.
func (h *ContentHandler) RequestAccess(c *fiber.Ctx) error {
	claims, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("authentication required")
	}

	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req dto.AccessRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}

	var opts *signer.Options
	if req.SourceIP != "" || req.NotBefore > 0 {
		opts = &signer.Options{SourceIP: req.SourceIP}
		if req.NotBefore > 0 {
			opts.NotBefore = time.Unix(req.NotBefore, 0)
		}
	}

	grant, err := h.content.RequestAccess(c.UserContext(), claims, id,
		time.Duration(req.TTLSeconds)*time.Second, opts)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.AccessGrantResponse{
			URL:              grant.URL,
			ExpiresAt:        grant.ExpiresAt,
			ExpiresInSeconds: int64(time.Until(grant.ExpiresAt).Seconds()),
		},
	})
}

// AccessHistory handles GET /content/access/history.
func (h *ContentHandler) AccessHistory(c *fiber.Ctx) error {
	claims, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("authentication required")
	}

	limit := c.QueryInt("limit", 50)
	entries, err := h.content.AccessHistory(c.UserContext(), claims.ID, limit)
	if err != nil {
		return err
	}

	responses := make([]dto.AccessLogResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.AccessLogResponse{
			ResourceID: entry.ResourceID,
			AccessedAt: entry.AccessedAt,
		})
	}
	return c.JSON(fiber.Map{"data": responses})
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid content id", nil)
	}
	return id, nil
}
