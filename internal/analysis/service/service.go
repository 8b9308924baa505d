// Package service orchestrates AI analysis for diagnosis cases. It
// prepares the request, persists the audit row and hands execution off
// to the background worker. It never waits for, nor returns, raw
// provider output.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"agrovet_backend/internal/analysis/client"
	"agrovet_backend/internal/analysis/transport"
	"agrovet_backend/internal/diagnosis/domain"
	"agrovet_backend/internal/diagnosis/repository"
	"agrovet_backend/internal/scheduler"
	"agrovet_backend/platform/apperr"
	"agrovet_backend/platform/logger"

	"github.com/google/uuid"
)

// imageLimit caps how many images are sent to the model per analysis.
const imageLimit = 5

// CaseStore is the persistence surface the analysis trigger needs.
type CaseStore interface {
	GetCase(ctx context.Context, id uuid.UUID) (*repository.Case, error)
	ListMediaByCase(ctx context.Context, caseID uuid.UUID) ([]repository.Media, error)
	UpdateCaseStatus(ctx context.Context, id uuid.UUID, status string) (*repository.Case, error)
	CreateOutput(ctx context.Context, o *repository.AnalysisOutput) error
}

// Service prepares and triggers asynchronous case analysis.
type Service struct {
	repo      CaseStore
	scheduler scheduler.AnalysisScheduler
	modelID   string
	enabled   bool
	log       *logger.Logger
}

// New creates a new analysis service.
func New(repo CaseStore, sched scheduler.AnalysisScheduler, modelID string, enabled bool, log *logger.Logger) *Service {
	return &Service{repo: repo, scheduler: sched, modelID: modelID, enabled: enabled, log: log}
}

// StartAnalysis validates the case, persists the request audit row and
// enqueues the background task. The audit row is written before the
// provider is ever contacted, so an analysis attempt always leaves a
// trace even when the worker dies.
func (s *Service) StartAnalysis(ctx context.Context, farmerID, caseID uuid.UUID, req transport.AnalyzeRequest) (*transport.AnalyzeResponse, error) {
	if !s.enabled {
		return nil, apperr.Unavailable("AI analysis is not configured")
	}

	c, err := s.repo.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.FarmerID != farmerID {
		return nil, apperr.Forbidden("diagnosis case belongs to another farmer")
	}

	media, err := s.repo.ListMediaByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if len(media) == 0 {
		return nil, apperr.Validation("no media attached to diagnosis case")
	}

	imageRefs := make([]client.ImageRef, 0, imageLimit)
	for _, m := range media {
		if m.MediaType != "image" {
			continue
		}
		ref := client.ImageRef{Path: m.StoragePath}
		if m.MimeType != nil {
			ref.MimeType = *m.MimeType
		}
		imageRefs = append(imageRefs, ref)
		if len(imageRefs) == imageLimit {
			break
		}
	}
	if len(imageRefs) == 0 {
		return nil, apperr.Validation("no images attached to diagnosis case")
	}

	promptVersion := ""
	if req.PromptVersion != nil {
		promptVersion = *req.PromptVersion
	}
	analysisReq := client.BuildRequest(imageRefs, c.SymptomsReported, s.modelID, promptVersion, req.ContextVersion)
	rawRequest, err := json.Marshal(analysisReq)
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis request: %w", err)
	}

	output := &repository.AnalysisOutput{
		ID:              uuid.New(),
		DiagnosisCaseID: caseID,
		RawRequest:      rawRequest,
		RawResponse:     json.RawMessage("{}"),
		ModelID:         analysisReq.ModelID,
		PromptVersion:   analysisReq.PromptVersion,
		ContextVersion:  req.ContextVersion,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.repo.CreateOutput(ctx, output); err != nil {
		return nil, err
	}

	if _, err := s.repo.UpdateCaseStatus(ctx, caseID, domain.StatusAnalysisInProgress); err != nil {
		return nil, err
	}

	payload := scheduler.AnalysisExecutePayload{
		OutputID: output.ID.String(),
		CaseID:   caseID.String(),
	}
	if err := s.scheduler.EnqueueAnalysis(ctx, payload); err != nil {
		s.log.Error("failed to enqueue analysis", "caseId", caseID, "outputId", output.ID, "error", err)
		return nil, apperr.Unavailable("analysis queue is unavailable")
	}

	return &transport.AnalyzeResponse{
		OutputID:  output.ID,
		CaseID:    caseID,
		ModelID:   output.ModelID,
		Status:    "analysis_started",
		CreatedAt: output.CreatedAt,
	}, nil
}
