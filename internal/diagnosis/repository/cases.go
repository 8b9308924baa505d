// Package repository provides database access for the diagnosis bounded context.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agrovet_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Case is the database model for a diagnosis case.
type Case struct {
	ID               uuid.UUID  `db:"id"`
	FarmerID         uuid.UUID  `db:"farmer_id"`
	AnimalID         *uuid.UUID `db:"animal_id"`
	Status           string     `db:"status"`
	SymptomsReported *string    `db:"symptoms_reported"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        *time.Time `db:"updated_at"`
}

// CaseWithRelations bundles a case with its attached records.
type CaseWithRelations struct {
	Case     Case
	Media    []Media
	Tags     []Tag
	Outcomes []Outcome
	// Outputs carries analysis metadata only; raw payloads stay in the table.
	Outputs []OutputMeta
}

const caseNotFoundMsg = "diagnosis case not found"

// Repository provides database operations for diagnosis cases and their
// media, tags, outcomes and analysis outputs.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new diagnosis repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateCase inserts a new diagnosis case.
func (r *Repository) CreateCase(ctx context.Context, c *Case) error {
	query := `
		INSERT INTO diagnosis_cases (id, farmer_id, animal_id, status, symptoms_reported, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		c.ID, c.FarmerID, c.AnimalID, c.Status, c.SymptomsReported, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create diagnosis case: %w", err)
	}
	return nil
}

// GetCase fetches a diagnosis case by ID.
func (r *Repository) GetCase(ctx context.Context, id uuid.UUID) (*Case, error) {
	query := `
		SELECT id, farmer_id, animal_id, status, symptoms_reported, created_at, updated_at
		FROM diagnosis_cases WHERE id = $1`

	var c Case
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.FarmerID, &c.AnimalID, &c.Status,
		&c.SymptomsReported, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(caseNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get diagnosis case: %w", err)
	}
	return &c, nil
}

// ListCasesByFarmer fetches a farmer's cases, optionally filtered by status.
func (r *Repository) ListCasesByFarmer(ctx context.Context, farmerID uuid.UUID, status *string) ([]Case, error) {
	query := `
		SELECT id, farmer_id, animal_id, status, symptoms_reported, created_at, updated_at
		FROM diagnosis_cases
		WHERE farmer_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, farmerID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list diagnosis cases: %w", err)
	}
	defer rows.Close()

	cases := make([]Case, 0)
	for rows.Next() {
		var c Case
		if err := rows.Scan(&c.ID, &c.FarmerID, &c.AnimalID, &c.Status,
			&c.SymptomsReported, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan diagnosis case: %w", err)
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

// UpdateCaseStatus sets a case's status and bumps updated_at.
func (r *Repository) UpdateCaseStatus(ctx context.Context, id uuid.UUID, status string) (*Case, error) {
	query := `
		UPDATE diagnosis_cases SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, farmer_id, animal_id, status, symptoms_reported, created_at, updated_at`

	var c Case
	err := r.pool.QueryRow(ctx, query, id, status).Scan(
		&c.ID, &c.FarmerID, &c.AnimalID, &c.Status,
		&c.SymptomsReported, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(caseNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to update diagnosis case status: %w", err)
	}
	return &c, nil
}

// GetCaseWithRelations fetches a case and all of its attached records.
func (r *Repository) GetCaseWithRelations(ctx context.Context, id uuid.UUID) (*CaseWithRelations, error) {
	c, err := r.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}

	media, err := r.ListMediaByCase(ctx, id)
	if err != nil {
		return nil, err
	}
	tags, err := r.ListTagsByCase(ctx, id)
	if err != nil {
		return nil, err
	}
	outcomes, err := r.ListOutcomesByCase(ctx, id)
	if err != nil {
		return nil, err
	}
	outputs, err := r.ListOutputMetaByCase(ctx, id)
	if err != nil {
		return nil, err
	}

	return &CaseWithRelations{
		Case:     *c,
		Media:    media,
		Tags:     tags,
		Outcomes: outcomes,
		Outputs:  outputs,
	}, nil
}
