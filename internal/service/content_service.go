package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/content-gateway/internal/auth"
	"github.com/spec-kit/content-gateway/internal/domain"
	"github.com/spec-kit/content-gateway/internal/events"
	"github.com/spec-kit/content-gateway/internal/policy"
	"github.com/spec-kit/content-gateway/internal/repository"
	"github.com/spec-kit/content-gateway/internal/signer"
	apperrors "github.com/spec-kit/content-gateway/pkg/util"
)

const contentCacheTTL = 5 * time.Minute

// ContentService serves the catalog and converts an authorized request
// into a scoped delivery grant.
type ContentService struct {
	content    repository.ContentRepository
	logs       repository.AccessLogRepository
	cache      *redis.Client
	signer     *signer.Signer
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// ContentDependencies encapsulates requirements for the content service.
type ContentDependencies struct {
	ContentRepo   repository.ContentRepository
	AccessLogRepo repository.AccessLogRepository
	Cache         *redis.Client
	Signer        *signer.Signer
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
}

// NewContentService builds the service.
func NewContentService(deps ContentDependencies) *ContentService {
	return &ContentService{
		content:    deps.ContentRepo,
		logs:       deps.AccessLogRepo,
		cache:      deps.Cache,
		signer:     deps.Signer,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// List returns the full catalog, tiers included, so clients can render
// locked entries without another round trip.
func (s *ContentService) List(ctx context.Context) ([]domain.Content, error) {
	return s.content.List(ctx)
}

// Get returns one catalog record through a Redis read-through cache.
func (s *ContentService) Get(ctx context.Context, id int64) (*domain.Content, error) {
	if cached := s.cacheGet(ctx, id); cached != nil {
		return cached, nil
	}

	content, err := s.content.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("content", map[string]any{"id": id})
		}
		return nil, err
	}

	s.cacheSet(ctx, content)
	return content, nil
}

// RequestAccess re-derives the authorization decision on the origin
// side and, on success, mints a scoped grant for exactly the resource
// key that was authorized. ttl <= 0 selects the signer default.
func (s *ContentService) RequestAccess(ctx context.Context, claims *auth.Claims, contentID int64, ttl time.Duration, opts *signer.Options) (*signer.Grant, error) {
	content, err := s.Get(ctx, contentID)
	if err != nil {
		return nil, err
	}

	if !policy.CanAccess(claims.Tier, content.Tier) {
		s.publish(ctx, events.EventAccessDenied, events.AccessDeniedPayload{
			SubjectID:   claims.ID,
			ResourceID:  content.ID,
			SubjectTier: claims.Tier,
			Required:    content.Tier,
		})
		return nil, apperrors.NewForbidden("insufficient tier", map[string]any{
			"requiredTier": content.Tier,
			"userTier":     claims.Tier,
		})
	}

	grant, err := s.signer.Sign(content.ResourceKey, ttl, opts)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventAccessGranted, events.AccessGrantedPayload{
		SubjectID:  claims.ID,
		ResourceID: content.ID,
		AccessedAt: time.Now().UTC(),
		ExpiresAt:  grant.ExpiresAt,
	})
	return grant, nil
}

// AccessHistory returns the viewer's recent audit entries.
func (s *ContentService) AccessHistory(ctx context.Context, subjectID int64, limit int) ([]domain.AccessLogEntry, error) {
	return s.logs.ListBySubject(ctx, subjectID, limit)
}

func (s *ContentService) publish(ctx context.Context, eventType events.EventType, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}

func contentCacheKey(id int64) string {
	return fmt.Sprintf("content:id:%d", id)
}

func (s *ContentService) cacheGet(ctx context.Context, id int64) *domain.Content {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, contentCacheKey(id)).Bytes()
	if err != nil {
		return nil
	}
	var content domain.Content
	if err := json.Unmarshal(raw, &content); err != nil {
		return nil
	}
	return &content
}

func (s *ContentService) cacheSet(ctx context.Context, content *domain.Content) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, contentCacheKey(content.ID), raw, contentCacheTTL).Err(); err != nil && s.logger != nil {
		s.logger.Warn("content cache write failed", zap.Int64("id", content.ID), zap.Error(err))
	}
}
