package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/content-gateway/internal/domain"
	"github.com/spec-kit/content-gateway/internal/events"
	"github.com/spec-kit/content-gateway/internal/policy"
)

type recordingLogRepo struct {
	entries []domain.AccessLogEntry
}

func (r *recordingLogRepo) Append(_ context.Context, entry *domain.AccessLogEntry) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *recordingLogRepo) ListBySubject(_ context.Context, subjectID int64, _ int) ([]domain.AccessLogEntry, error) {
	out := make([]domain.AccessLogEntry, 0, len(r.entries))
	for _, e := range r.entries {
		if e.SubjectID == subjectID {
			out = append(out, e)
		}
	}
	return out, nil
}

func auditSetup() (events.Dispatcher, *recordingLogRepo, *observer.ObservedLogs) {
	core, observed := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	dispatcher := events.NewInMemoryDispatcher()
	logs := &recordingLogRepo{}
	StartAuditWorker(dispatcher, logs, logger)
	return dispatcher, logs, observed
}

func TestAuditWorker_PersistsGrantedEvents(t *testing.T) {
	dispatcher, logs, _ := auditSetup()

	accessedAt := time.Now().UTC()
	err := dispatcher.Publish(context.Background(), events.Event{
		ID:   "evt-1",
		Type: events.EventAccessGranted,
		Payload: events.AccessGrantedPayload{
			SubjectID:  7,
			ResourceID: 3,
			AccessedAt: accessedAt,
			ExpiresAt:  accessedAt.Add(15 * time.Minute),
		},
	})
	require.NoError(t, err)

	require.Len(t, logs.entries, 1)
	require.Equal(t, int64(7), logs.entries[0].SubjectID)
	require.Equal(t, int64(3), logs.entries[0].ResourceID)
	require.Equal(t, accessedAt, logs.entries[0].AccessedAt)
}

func TestAuditWorker_LogsRegistrations(t *testing.T) {
	dispatcher, logs, observed := auditSetup()

	err := dispatcher.Publish(context.Background(), events.Event{
		ID:   "evt-2",
		Type: events.EventAccountRegistered,
		Payload: events.AccountRegisteredPayload{
			AccountID: 42,
			Email:     "viewer@example.com",
			Tier:      policy.TierPremium,
		},
	})
	require.NoError(t, err)

	require.Empty(t, logs.entries)
	records := observed.FilterMessage("account registered").All()
	require.Len(t, records, 1)
	require.Equal(t, int64(42), records[0].ContextMap()["account_id"])
	require.Equal(t, "premium", records[0].ContextMap()["tier"])
}

func TestAuditWorker_LogsDenials(t *testing.T) {
	dispatcher, logs, observed := auditSetup()

	err := dispatcher.Publish(context.Background(), events.Event{
		ID:   "evt-3",
		Type: events.EventAccessDenied,
		Payload: events.AccessDeniedPayload{
			SubjectID:   7,
			ResourceID:  3,
			SubjectTier: policy.TierFree,
			Required:    policy.TierPremium,
		},
	})
	require.NoError(t, err)

	require.Empty(t, logs.entries)
	records := observed.FilterMessage("access denied").All()
	require.Len(t, records, 1)
	require.Equal(t, "free", records[0].ContextMap()["subject_tier"])
	require.Equal(t, "premium", records[0].ContextMap()["required_tier"])
}
