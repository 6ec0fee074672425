package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/aihubhq/aihub/internal/domain"
)

type tagRepository struct {
	db *sql.DB
}

// NewTagRepository creates a new PostgreSQL tag repository
func NewTagRepository(db *sql.DB) domain.TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) List(ctx context.Context, userID string) ([]*domain.Tag, error) {
	query, args, err := psql.
		Select("id", "user_id", "tag_name", "created_at").
		From("user_tags").
		Where("user_id = ?", userID).
		OrderBy("tag_name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	tags := []*domain.Tag{}
	for rows.Next() {
		tag, err := domain.ScanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return tags, nil
}

// Create inserts the tag or returns the existing row. The no-op update makes
// RETURNING yield the stored row on conflict.
func (r *tagRepository) Create(ctx context.Context, userID, name string) (*domain.Tag, error) {
	query, args, err := psql.
		Insert("user_tags").
		Columns("id", "user_id", "tag_name").
		Values(uuid.New().String(), userID, name).
		Suffix("ON CONFLICT (user_id, tag_name) DO UPDATE SET tag_name = EXCLUDED.tag_name RETURNING id, user_id, tag_name, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	tag, err := domain.ScanTag(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}
	return tag, nil
}

func (r *tagRepository) EnsureTags(ctx context.Context, userID string, names []string) error {
	names = domain.NormalizeTags(names)
	if len(names) == 0 {
		return nil
	}

	builder := psql.
		Insert("user_tags").
		Columns("id", "user_id", "tag_name").
		Suffix("ON CONFLICT (user_id, tag_name) DO NOTHING")
	for _, name := range names {
		builder = builder.Values(uuid.New().String(), userID, name)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to register tags: %w", err)
	}
	return nil
}
