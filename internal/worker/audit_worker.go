package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/content-gateway/internal/domain"
	"github.com/spec-kit/content-gateway/internal/events"
	"github.com/spec-kit/content-gateway/internal/repository"
)

// StartAuditWorker subscribes the access-log writer to the dispatcher.
// This is the only place audit events turn into storage writes; the
// request path publishes and forgets.
func StartAuditWorker(dispatcher events.Dispatcher, logs repository.AccessLogRepository, logger *zap.Logger) {
	if dispatcher == nil || logs == nil {
		return
	}

	dispatcher.Subscribe(events.EventAccessGranted, func(ctx context.Context, event events.Event) error {
		payload, ok := event.Payload.(events.AccessGrantedPayload)
		if !ok {
			logger.Warn("unexpected access_granted payload", zap.String("event_id", event.ID))
			return nil
		}
		entry := &domain.AccessLogEntry{
			SubjectID:  payload.SubjectID,
			ResourceID: payload.ResourceID,
			AccessedAt: payload.AccessedAt,
		}
		if err := logs.Append(ctx, entry); err != nil {
			logger.Error("access log append failed",
				zap.Int64("subject_id", payload.SubjectID),
				zap.Int64("resource_id", payload.ResourceID),
				zap.Error(err),
			)
		}
		return nil
	})

	dispatcher.Subscribe(events.EventAccountRegistered, func(_ context.Context, event events.Event) error {
		payload, ok := event.Payload.(events.AccountRegisteredPayload)
		if !ok {
			return nil
		}
		logger.Info("account registered",
			zap.Int64("account_id", payload.AccountID),
			zap.String("tier", string(payload.Tier)),
		)
		return nil
	})

	dispatcher.Subscribe(events.EventAccessDenied, func(_ context.Context, event events.Event) error {
		payload, ok := event.Payload.(events.AccessDeniedPayload)
		if !ok {
			return nil
		}
		logger.Info("access denied",
			zap.Int64("subject_id", payload.SubjectID),
			zap.Int64("resource_id", payload.ResourceID),
			zap.String("subject_tier", string(payload.SubjectTier)),
			zap.String("required_tier", string(payload.Required)),
		)
		return nil
	})
}
