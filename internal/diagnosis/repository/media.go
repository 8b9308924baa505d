package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Media is the database model for a file attached to a diagnosis case.
// Rows are immutable once written.
type Media struct {
	ID              uuid.UUID  `db:"id"`
	DiagnosisCaseID uuid.UUID  `db:"diagnosis_case_id"`
	MediaType       string     `db:"media_type"`
	StoragePath     string     `db:"storage_path"`
	FileSizeBytes   *int64     `db:"file_size_bytes"`
	MimeType        *string    `db:"mime_type"`
	CapturedAt      *time.Time `db:"captured_at"`
	CreatedAt       time.Time  `db:"created_at"`
}

// CreateMedia inserts a media metadata row.
func (r *Repository) CreateMedia(ctx context.Context, m *Media) error {
	query := `
		INSERT INTO diagnosis_media (
			id, diagnosis_case_id, media_type, storage_path,
			file_size_bytes, mime_type, captured_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		m.ID, m.DiagnosisCaseID, m.MediaType, m.StoragePath,
		m.FileSizeBytes, m.MimeType, m.CapturedAt, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create diagnosis media: %w", err)
	}
	return nil
}

// ListMediaByCase fetches all media for a case in creation order.
func (r *Repository) ListMediaByCase(ctx context.Context, caseID uuid.UUID) ([]Media, error) {
	query := `
		SELECT id, diagnosis_case_id, media_type, storage_path,
			file_size_bytes, mime_type, captured_at, created_at
		FROM diagnosis_media WHERE diagnosis_case_id = $1
		ORDER BY created_at ASC`

	return r.scanMedia(ctx, query, caseID)
}

// ListMediaByType fetches a case's media filtered by media type (image/video).
func (r *Repository) ListMediaByType(ctx context.Context, caseID uuid.UUID, mediaType string) ([]Media, error) {
	query := `
		SELECT id, diagnosis_case_id, media_type, storage_path,
			file_size_bytes, mime_type, captured_at, created_at
		FROM diagnosis_media WHERE diagnosis_case_id = $1 AND media_type = $2
		ORDER BY created_at ASC`

	return r.scanMedia(ctx, query, caseID, mediaType)
}

func (r *Repository) scanMedia(ctx context.Context, query string, args ...interface{}) ([]Media, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list diagnosis media: %w", err)
	}
	defer rows.Close()

	media := make([]Media, 0)
	for rows.Next() {
		var m Media
		if err := rows.Scan(&m.ID, &m.DiagnosisCaseID, &m.MediaType, &m.StoragePath,
			&m.FileSizeBytes, &m.MimeType, &m.CapturedAt, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan diagnosis media: %w", err)
		}
		media = append(media, m)
	}
	return media, rows.Err()
}
