// Package transport defines request/response DTOs for the diagnosis module.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateCaseRequest opens a new diagnosis case.
type CreateCaseRequest struct {
	AnimalID         *uuid.UUID `json:"animalId"`
	SymptomsReported *string    `json:"symptomsReported"`
}

// ListCasesRequest filters the farmer's case listing.
type ListCasesRequest struct {
	Status *string `form:"status"`
}

// CaseResponse is the API shape of a diagnosis case.
type CaseResponse struct {
	ID               uuid.UUID  `json:"id"`
	FarmerID         uuid.UUID  `json:"farmerId"`
	AnimalID         *uuid.UUID `json:"animalId,omitempty"`
	Status           string     `json:"status"`
	SymptomsReported *string    `json:"symptomsReported,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        *time.Time `json:"updatedAt,omitempty"`
}

// MediaResponse is the API shape of an attached media file.
type MediaResponse struct {
	ID            uuid.UUID  `json:"id"`
	CaseID        uuid.UUID  `json:"caseId"`
	MediaType     string     `json:"mediaType"`
	StoragePath   string     `json:"storagePath"`
	FileSizeBytes *int64     `json:"fileSizeBytes,omitempty"`
	MimeType      *string    `json:"mimeType,omitempty"`
	CapturedAt    *time.Time `json:"capturedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// TagResponse is the API shape of a diagnosis tag.
type TagResponse struct {
	Tag    string `json:"tag"`
	Source string `json:"source"`
}

// CreateOutcomeRequest records feedback or an observed outcome for a case.
type CreateOutcomeRequest struct {
	Source           string     `json:"source" validate:"required"`
	FarmerFeedback   *string    `json:"farmerFeedback"`
	ActualDisease    *string    `json:"actualDisease" validate:"omitempty,max=255"`
	TreatmentApplied *string    `json:"treatmentApplied"`
	OutcomeStatus    *string    `json:"outcomeStatus" validate:"omitempty,max=50"`
	OutcomeDate      *time.Time `json:"outcomeDate"`
}

// OutcomeResponse is the API shape of a case outcome.
type OutcomeResponse struct {
	ID               uuid.UUID  `json:"id"`
	CaseID           uuid.UUID  `json:"caseId"`
	Source           string     `json:"source"`
	FarmerFeedback   *string    `json:"farmerFeedback,omitempty"`
	ActualDisease    *string    `json:"actualDisease,omitempty"`
	TreatmentApplied *string    `json:"treatmentApplied,omitempty"`
	OutcomeStatus    *string    `json:"outcomeStatus,omitempty"`
	OutcomeDate      *time.Time `json:"outcomeDate,omitempty"`
	ReportedAt       time.Time  `json:"reportedAt"`
}

// AnalysisMetaResponse is the API-safe projection of an analysis output.
type AnalysisMetaResponse struct {
	ID            uuid.UUID `json:"id"`
	ModelID       string    `json:"modelId"`
	PromptVersion string    `json:"promptVersion"`
	LatencyMs     *int      `json:"latencyMs,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// CaseDetailResponse is a case with its attached records.
type CaseDetailResponse struct {
	CaseResponse
	Media    []MediaResponse        `json:"media"`
	Tags     []TagResponse          `json:"tags"`
	Outcomes []OutcomeResponse      `json:"outcomes"`
	Analyses []AnalysisMetaResponse `json:"analyses"`
}
