package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/content-gateway/internal/domain"
)

// ContentRepository defines persistence access for the content catalog.
type ContentRepository interface {
	Create(ctx context.Context, content *domain.Content) error
	GetByID(ctx context.Context, id int64) (*domain.Content, error)
	List(ctx context.Context) ([]domain.Content, error)
}

type contentRepository struct {
	pool *pgxpool.Pool
}

// NewContentRepository returns a Postgres-backed implementation.
func NewContentRepository(pool *pgxpool.Pool) ContentRepository {
	return &contentRepository{pool: pool}
}

func (r *contentRepository) Create(ctx context.Context, content *domain.Content) error {
	const query = `
        INSERT INTO content (title, description, resource_key, tier, kind)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		content.Title,
		content.Description,
		content.ResourceKey,
		content.Tier,
		content.Kind,
	).Scan(&content.ID, &content.CreatedAt)
}

func (r *contentRepository) GetByID(ctx context.Context, id int64) (*domain.Content, error) {
	const query = `
        SELECT id, title, description, resource_key, tier, kind, created_at
        FROM content WHERE id=$1`

	var content domain.Content
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&content.ID,
		&content.Title,
		&content.Description,
		&content.ResourceKey,
		&content.Tier,
		&content.Kind,
		&content.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &content, nil
}

func (r *contentRepository) List(ctx context.Context) ([]domain.Content, error) {
	const query = `
        SELECT id, title, description, resource_key, tier, kind, created_at
        FROM content ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Content
	for rows.Next() {
		var content domain.Content
		if err := rows.Scan(
			&content.ID,
			&content.Title,
			&content.Description,
			&content.ResourceKey,
			&content.Tier,
			&content.Kind,
			&content.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, content)
	}
	return items, rows.Err()
}
