package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"agrovet_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AnalysisOutput is the database model for one analysis attempt's audit
// trail. raw_request and raw_response hold provider payloads verbatim.
type AnalysisOutput struct {
	ID              uuid.UUID       `db:"id"`
	DiagnosisCaseID uuid.UUID       `db:"diagnosis_case_id"`
	RawRequest      json.RawMessage `db:"raw_request"`
	RawResponse     json.RawMessage `db:"raw_response"`
	ModelID         string          `db:"model_id"`
	PromptVersion   string          `db:"prompt_version"`
	ContextVersion  *string         `db:"context_version"`
	LatencyMs       *int            `db:"latency_ms"`
	CreatedAt       time.Time       `db:"created_at"`
}

// OutputMeta is the API-safe projection of an analysis output.
// Raw payloads never leave the repository through this type.
type OutputMeta struct {
	ID            uuid.UUID `db:"id"`
	ModelID       string    `db:"model_id"`
	PromptVersion string    `db:"prompt_version"`
	LatencyMs     *int      `db:"latency_ms"`
	CreatedAt     time.Time `db:"created_at"`
}

const outputNotFoundMsg = "analysis output not found"

// CreateOutput inserts an analysis output row. This runs before any
// provider call, so a row exists even when the call never completes.
func (r *Repository) CreateOutput(ctx context.Context, o *AnalysisOutput) error {
	query := `
		INSERT INTO analysis_outputs (
			id, diagnosis_case_id, raw_request, raw_response,
			model_id, prompt_version, context_version, latency_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		o.ID, o.DiagnosisCaseID, o.RawRequest, o.RawResponse,
		o.ModelID, o.PromptVersion, o.ContextVersion, o.LatencyMs, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create analysis output: %w", err)
	}
	return nil
}

// GetOutput fetches an analysis output by ID, raw payloads included.
func (r *Repository) GetOutput(ctx context.Context, id uuid.UUID) (*AnalysisOutput, error) {
	query := `
		SELECT id, diagnosis_case_id, raw_request, raw_response,
			model_id, prompt_version, context_version, latency_ms, created_at
		FROM analysis_outputs WHERE id = $1`

	var o AnalysisOutput
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.DiagnosisCaseID, &o.RawRequest, &o.RawResponse,
		&o.ModelID, &o.PromptVersion, &o.ContextVersion, &o.LatencyMs, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(outputNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get analysis output: %w", err)
	}
	return &o, nil
}

// UpdateOutputResponse overwrites the raw_response of an existing output
// row in place. A nil latency leaves the stored latency untouched.
func (r *Repository) UpdateOutputResponse(ctx context.Context, id uuid.UUID, rawResponse json.RawMessage, latencyMs *int) error {
	query := `
		UPDATE analysis_outputs
		SET raw_response = $2, latency_ms = COALESCE($3, latency_ms)
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, rawResponse, latencyMs)
	if err != nil {
		return fmt.Errorf("failed to update analysis output: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(outputNotFoundMsg)
	}
	return nil
}

// GetLatestOutputMetaByCase fetches the newest output projection for a case.
// Returns nil without error when the case has no outputs yet.
func (r *Repository) GetLatestOutputMetaByCase(ctx context.Context, caseID uuid.UUID) (*OutputMeta, error) {
	query := `
		SELECT id, model_id, prompt_version, latency_ms, created_at
		FROM analysis_outputs WHERE diagnosis_case_id = $1
		ORDER BY created_at DESC LIMIT 1`

	var m OutputMeta
	err := r.pool.QueryRow(ctx, query, caseID).Scan(
		&m.ID, &m.ModelID, &m.PromptVersion, &m.LatencyMs, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest analysis output: %w", err)
	}
	return &m, nil
}

// ListOutputMetaByCase fetches output projections for a case, newest first.
func (r *Repository) ListOutputMetaByCase(ctx context.Context, caseID uuid.UUID) ([]OutputMeta, error) {
	query := `
		SELECT id, model_id, prompt_version, latency_ms, created_at
		FROM analysis_outputs WHERE diagnosis_case_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis outputs: %w", err)
	}
	defer rows.Close()

	metas := make([]OutputMeta, 0)
	for rows.Next() {
		var m OutputMeta
		if err := rows.Scan(&m.ID, &m.ModelID, &m.PromptVersion, &m.LatencyMs, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis output: %w", err)
		}
		metas = append(metas, m)
	}
	return metas, rows.Err()
}
