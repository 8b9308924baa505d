package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Tag is the database model for a diagnosis case tag.
type Tag struct {
	ID              uuid.UUID `db:"id"`
	DiagnosisCaseID uuid.UUID `db:"diagnosis_case_id"`
	Tag             string    `db:"tag"`
	Source          *string   `db:"source"`
	CreatedAt       time.Time `db:"created_at"`
}

// AddTags inserts a batch of tags for a case with a shared source.
func (r *Repository) AddTags(ctx context.Context, caseID uuid.UUID, tags []string, source string) error {
	if len(tags) == 0 {
		return nil
	}

	query := `
		INSERT INTO diagnosis_tags (id, diagnosis_case_id, tag, source, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	now := time.Now().UTC()
	for _, tag := range tags {
		if _, err := r.pool.Exec(ctx, query, uuid.New(), caseID, tag, source, now); err != nil {
			return fmt.Errorf("failed to add diagnosis tag: %w", err)
		}
	}
	return nil
}

// ListTagsByCase fetches all tags for a case in creation order.
func (r *Repository) ListTagsByCase(ctx context.Context, caseID uuid.UUID) ([]Tag, error) {
	query := `
		SELECT id, diagnosis_case_id, tag, source, created_at
		FROM diagnosis_tags WHERE diagnosis_case_id = $1
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list diagnosis tags: %w", err)
	}
	defer rows.Close()

	tags := make([]Tag, 0)
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.DiagnosisCaseID, &t.Tag, &t.Source, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan diagnosis tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
