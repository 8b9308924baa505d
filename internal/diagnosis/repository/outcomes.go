package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Outcome is the database model for reported case outcomes and feedback.
type Outcome struct {
	ID               uuid.UUID  `db:"id"`
	DiagnosisCaseID  uuid.UUID  `db:"diagnosis_case_id"`
	Source           string     `db:"source"`
	FarmerFeedback   *string    `db:"farmer_feedback"`
	ActualDisease    *string    `db:"actual_disease"`
	TreatmentApplied *string    `db:"treatment_applied"`
	OutcomeStatus    *string    `db:"outcome_status"`
	OutcomeDate      *time.Time `db:"outcome_date"`
	ReportedAt       time.Time  `db:"reported_at"`
	CreatedAt        time.Time  `db:"created_at"`
}

// CreateOutcome inserts an outcome record for a case.
func (r *Repository) CreateOutcome(ctx context.Context, o *Outcome) error {
	query := `
		INSERT INTO diagnosis_outcomes (
			id, diagnosis_case_id, source, farmer_feedback, actual_disease,
			treatment_applied, outcome_status, outcome_date, reported_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		o.ID, o.DiagnosisCaseID, o.Source, o.FarmerFeedback, o.ActualDisease,
		o.TreatmentApplied, o.OutcomeStatus, o.OutcomeDate, o.ReportedAt, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create diagnosis outcome: %w", err)
	}
	return nil
}

// ListOutcomesByCase fetches all outcomes for a case.
func (r *Repository) ListOutcomesByCase(ctx context.Context, caseID uuid.UUID) ([]Outcome, error) {
	query := `
		SELECT id, diagnosis_case_id, source, farmer_feedback, actual_disease,
			treatment_applied, outcome_status, outcome_date, reported_at, created_at
		FROM diagnosis_outcomes WHERE diagnosis_case_id = $1
		ORDER BY reported_at DESC`

	return r.scanOutcomes(ctx, query, caseID)
}

// ListOutcomesBySource fetches a case's outcomes filtered by source.
func (r *Repository) ListOutcomesBySource(ctx context.Context, caseID uuid.UUID, source string) ([]Outcome, error) {
	query := `
		SELECT id, diagnosis_case_id, source, farmer_feedback, actual_disease,
			treatment_applied, outcome_status, outcome_date, reported_at, created_at
		FROM diagnosis_outcomes WHERE diagnosis_case_id = $1 AND source = $2
		ORDER BY reported_at DESC`

	return r.scanOutcomes(ctx, query, caseID, source)
}

func (r *Repository) scanOutcomes(ctx context.Context, query string, args ...interface{}) ([]Outcome, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list diagnosis outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := make([]Outcome, 0)
	for rows.Next() {
		var o Outcome
		if err := rows.Scan(&o.ID, &o.DiagnosisCaseID, &o.Source, &o.FarmerFeedback,
			&o.ActualDisease, &o.TreatmentApplied, &o.OutcomeStatus, &o.OutcomeDate,
			&o.ReportedAt, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan diagnosis outcome: %w", err)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}
