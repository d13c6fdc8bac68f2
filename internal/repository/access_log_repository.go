package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/content-gateway/internal/domain"
)

// AccessLogRepository appends audit entries. The table is append-only;
// there is deliberately no update or delete.
type AccessLogRepository interface {
	Append(ctx context.Context, entry *domain.AccessLogEntry) error
	ListBySubject(ctx context.Context, subjectID int64, limit int) ([]domain.AccessLogEntry, error)
}

type accessLogRepository struct {
	pool *pgxpool.Pool
}

// NewAccessLogRepository returns a Postgres-backed implementation.
func NewAccessLogRepository(pool *pgxpool.Pool) AccessLogRepository {
	return &accessLogRepository{pool: pool}
}

func (r *accessLogRepository) Append(ctx context.Context, entry *domain.AccessLogEntry) error {
	const query = `
        INSERT INTO access_logs (subject_id, resource_id, accessed_at)
        VALUES ($1, $2, $3)
        RETURNING id`

	return r.pool.QueryRow(ctx, query,
		entry.SubjectID,
		entry.ResourceID,
		entry.AccessedAt,
	).Scan(&entry.ID)
}

func (r *accessLogRepository) ListBySubject(ctx context.Context, subjectID int64, limit int) ([]domain.AccessLogEntry, error) {
	const query = `
        SELECT id, subject_id, resource_id, accessed_at
        FROM access_logs WHERE subject_id=$1
        ORDER BY accessed_at DESC LIMIT $2`

	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, query, subjectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AccessLogEntry
	for rows.Next() {
		var entry domain.AccessLogEntry
		if err := rows.Scan(&entry.ID, &entry.SubjectID, &entry.ResourceID, &entry.AccessedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
