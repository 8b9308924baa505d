// Package service implements diagnosis case business logic.
package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"agrovet_backend/internal/adapters/storage"
	"agrovet_backend/internal/diagnosis/domain"
	"agrovet_backend/internal/diagnosis/repository"
	"agrovet_backend/internal/diagnosis/transport"
	farmersrepo "agrovet_backend/internal/farmers/repository"
	"agrovet_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/rwcarlsen/goexif/exif"
)

// validOutcomeSources are the accepted origins for outcome reports.
var validOutcomeSources = map[string]bool{
	"farmer":           true,
	"consultation_vet": true,
	"system":           true,
}

// CaseStore is the persistence surface the service needs.
type CaseStore interface {
	CreateCase(ctx context.Context, c *repository.Case) error
	GetCase(ctx context.Context, id uuid.UUID) (*repository.Case, error)
	ListCasesByFarmer(ctx context.Context, farmerID uuid.UUID, status *string) ([]repository.Case, error)
	UpdateCaseStatus(ctx context.Context, id uuid.UUID, status string) (*repository.Case, error)
	GetCaseWithRelations(ctx context.Context, id uuid.UUID) (*repository.CaseWithRelations, error)
	CreateMedia(ctx context.Context, m *repository.Media) error
	ListMediaByCase(ctx context.Context, caseID uuid.UUID) ([]repository.Media, error)
	ListMediaByType(ctx context.Context, caseID uuid.UUID, mediaType string) ([]repository.Media, error)
	CreateOutcome(ctx context.Context, o *repository.Outcome) error
	ListOutcomesByCase(ctx context.Context, caseID uuid.UUID) ([]repository.Outcome, error)
	ListOutcomesBySource(ctx context.Context, caseID uuid.UUID, source string) ([]repository.Outcome, error)
}

// FarmerReader resolves farmers and their animals.
type FarmerReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*farmersrepo.Farmer, error)
	GetAnimal(ctx context.Context, id uuid.UUID) (*farmersrepo.Animal, error)
}

// MediaStore uploads case media to object storage.
type MediaStore interface {
	UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)
	ValidateContentType(contentType string) error
	ValidateFileSize(sizeBytes int64) error
}

// Service coordinates diagnosis case operations.
type Service struct {
	repo    CaseStore
	farmers FarmerReader
	store   MediaStore
	bucket  string
}

// New creates a new diagnosis service.
func New(repo CaseStore, farmers FarmerReader, store MediaStore, bucket string) *Service {
	return &Service{repo: repo, farmers: farmers, store: store, bucket: bucket}
}

// CreateCase opens a new diagnosis case for a farmer. The animal, when
// given, must exist and belong to that farmer.
func (s *Service) CreateCase(ctx context.Context, farmerID uuid.UUID, req transport.CreateCaseRequest) (*transport.CaseResponse, error) {
	if _, err := s.farmers.GetByID(ctx, farmerID); err != nil {
		return nil, err
	}

	if req.AnimalID != nil {
		animal, err := s.farmers.GetAnimal(ctx, *req.AnimalID)
		if err != nil {
			return nil, err
		}
		if animal.FarmerID != farmerID {
			return nil, apperr.Validation("animal does not belong to this farmer")
		}
	}

	c := &repository.Case{
		ID:               uuid.New(),
		FarmerID:         farmerID,
		AnimalID:         req.AnimalID,
		Status:           domain.StatusCreated,
		SymptomsReported: req.SymptomsReported,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.repo.CreateCase(ctx, c); err != nil {
		return nil, err
	}

	resp := toCaseResponse(c)
	return &resp, nil
}

// ListCases returns the farmer's cases, optionally filtered by status.
func (s *Service) ListCases(ctx context.Context, farmerID uuid.UUID, status *string) ([]transport.CaseResponse, error) {
	if status != nil && !domain.IsValidStatus(*status) {
		return nil, apperr.Validation(fmt.Sprintf("invalid status %q, must be one of: %s", *status, domain.ValidStatusList()))
	}

	cases, err := s.repo.ListCasesByFarmer(ctx, farmerID, status)
	if err != nil {
		return nil, err
	}

	out := make([]transport.CaseResponse, 0, len(cases))
	for i := range cases {
		out = append(out, toCaseResponse(&cases[i]))
	}
	return out, nil
}

// GetCase returns a case with its media, tags, outcomes and analysis
// metadata. Only the owning farmer may read it.
func (s *Service) GetCase(ctx context.Context, farmerID, caseID uuid.UUID) (*transport.CaseDetailResponse, error) {
	rel, err := s.repo.GetCaseWithRelations(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if rel.Case.FarmerID != farmerID {
		return nil, apperr.Forbidden("diagnosis case belongs to another farmer")
	}

	detail := &transport.CaseDetailResponse{
		CaseResponse: toCaseResponse(&rel.Case),
		Media:        make([]transport.MediaResponse, 0, len(rel.Media)),
		Tags:         make([]transport.TagResponse, 0, len(rel.Tags)),
		Outcomes:     make([]transport.OutcomeResponse, 0, len(rel.Outcomes)),
		Analyses:     make([]transport.AnalysisMetaResponse, 0, len(rel.Outputs)),
	}
	for i := range rel.Media {
		detail.Media = append(detail.Media, toMediaResponse(&rel.Media[i]))
	}
	for _, t := range rel.Tags {
		source := ""
		if t.Source != nil {
			source = *t.Source
		}
		detail.Tags = append(detail.Tags, transport.TagResponse{Tag: t.Tag, Source: source})
	}
	for i := range rel.Outcomes {
		detail.Outcomes = append(detail.Outcomes, toOutcomeResponse(&rel.Outcomes[i]))
	}
	for _, o := range rel.Outputs {
		detail.Analyses = append(detail.Analyses, transport.AnalysisMetaResponse{
			ID:            o.ID,
			ModelID:       o.ModelID,
			PromptVersion: o.PromptVersion,
			LatencyMs:     o.LatencyMs,
			CreatedAt:     o.CreatedAt,
		})
	}
	return detail, nil
}

// UpdateStatus moves a case along its lifecycle. Transitions only move
// forward; re-setting the current status is a no-op that succeeds.
func (s *Service) UpdateStatus(ctx context.Context, farmerID, caseID uuid.UUID, status string) (*transport.CaseResponse, error) {
	if !domain.IsValidStatus(status) {
		return nil, apperr.Validation(fmt.Sprintf("invalid status %q, must be one of: %s", status, domain.ValidStatusList()))
	}

	c, err := s.repo.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.FarmerID != farmerID {
		return nil, apperr.Forbidden("diagnosis case belongs to another farmer")
	}
	if !domain.CanTransition(c.Status, status) {
		return nil, apperr.Validation(fmt.Sprintf("cannot move case from %q back to %q", c.Status, status))
	}

	updated, err := s.repo.UpdateCaseStatus(ctx, caseID, status)
	if err != nil {
		return nil, err
	}
	resp := toCaseResponse(updated)
	return &resp, nil
}

// UploadMedia validates, stores and records a media file for a case.
// capturedAt falls back to JPEG EXIF metadata when the client omits it.
func (s *Service) UploadMedia(ctx context.Context, farmerID, caseID uuid.UUID, fileName, contentType string, size int64, reader io.Reader, capturedAt *time.Time) (*transport.MediaResponse, error) {
	c, err := s.repo.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.FarmerID != farmerID {
		return nil, apperr.Forbidden("diagnosis case belongs to another farmer")
	}

	if err := s.store.ValidateContentType(contentType); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if err := s.store.ValidateFileSize(size); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	mediaType := "image"
	if storage.IsVideoContentType(contentType) {
		mediaType = "video"
	}

	data, err := io.ReadAll(io.LimitReader(reader, size))
	if err != nil {
		return nil, fmt.Errorf("failed to read media upload: %w", err)
	}

	if capturedAt == nil && normalizeContentType(contentType) == "image/jpeg" {
		if ts := extractExifCapturedAt(data); ts != nil {
			capturedAt = ts
		}
	}

	folder := fmt.Sprintf("%s/%s", farmerID, caseID)
	key, err := s.store.UploadFile(ctx, s.bucket, folder, fileName, contentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to upload media: %w", err)
	}

	mimeType := contentType
	m := &repository.Media{
		ID:              uuid.New(),
		DiagnosisCaseID: caseID,
		MediaType:       mediaType,
		StoragePath:     key,
		FileSizeBytes:   &size,
		MimeType:        &mimeType,
		CapturedAt:      capturedAt,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.repo.CreateMedia(ctx, m); err != nil {
		return nil, err
	}

	resp := toMediaResponse(m)
	return &resp, nil
}

// ListMedia returns a case's media for the owning farmer, optionally
// filtered by media type.
func (s *Service) ListMedia(ctx context.Context, farmerID, caseID uuid.UUID, mediaType *string) ([]transport.MediaResponse, error) {
	if mediaType != nil && *mediaType != "image" && *mediaType != "video" {
		return nil, apperr.Validation(fmt.Sprintf("invalid media type %q, must be image or video", *mediaType))
	}

	c, err := s.repo.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.FarmerID != farmerID {
		return nil, apperr.Forbidden("diagnosis case belongs to another farmer")
	}

	var media []repository.Media
	if mediaType != nil {
		media, err = s.repo.ListMediaByType(ctx, caseID, *mediaType)
	} else {
		media, err = s.repo.ListMediaByCase(ctx, caseID)
	}
	if err != nil {
		return nil, err
	}
	out := make([]transport.MediaResponse, 0, len(media))
	for i := range media {
		out = append(out, toMediaResponse(&media[i]))
	}
	return out, nil
}

// AddOutcome records an outcome report against a case.
func (s *Service) AddOutcome(ctx context.Context, farmerID, caseID uuid.UUID, req transport.CreateOutcomeRequest) (*transport.OutcomeResponse, error) {
	source := strings.ToLower(strings.TrimSpace(req.Source))
	if !validOutcomeSources[source] {
		return nil, apperr.Validation(fmt.Sprintf("invalid outcome source %q, must be one of: farmer, consultation_vet, system", req.Source))
	}

	c, err := s.repo.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.FarmerID != farmerID {
		return nil, apperr.Forbidden("diagnosis case belongs to another farmer")
	}

	now := time.Now().UTC()
	o := &repository.Outcome{
		ID:               uuid.New(),
		DiagnosisCaseID:  caseID,
		Source:           source,
		FarmerFeedback:   req.FarmerFeedback,
		ActualDisease:    req.ActualDisease,
		TreatmentApplied: req.TreatmentApplied,
		OutcomeStatus:    req.OutcomeStatus,
		OutcomeDate:      req.OutcomeDate,
		ReportedAt:       now,
		CreatedAt:        now,
	}
	if err := s.repo.CreateOutcome(ctx, o); err != nil {
		return nil, err
	}

	resp := toOutcomeResponse(o)
	return &resp, nil
}

// ListOutcomes returns a case's outcomes for the owning farmer,
// optionally filtered by source.
func (s *Service) ListOutcomes(ctx context.Context, farmerID, caseID uuid.UUID, source *string) ([]transport.OutcomeResponse, error) {
	if source != nil && !validOutcomeSources[strings.ToLower(strings.TrimSpace(*source))] {
		return nil, apperr.Validation(fmt.Sprintf("invalid outcome source %q, must be one of: farmer, consultation_vet, system", *source))
	}

	c, err := s.repo.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.FarmerID != farmerID {
		return nil, apperr.Forbidden("diagnosis case belongs to another farmer")
	}

	var outcomes []repository.Outcome
	if source != nil {
		outcomes, err = s.repo.ListOutcomesBySource(ctx, caseID, strings.ToLower(strings.TrimSpace(*source)))
	} else {
		outcomes, err = s.repo.ListOutcomesByCase(ctx, caseID)
	}
	if err != nil {
		return nil, err
	}
	out := make([]transport.OutcomeResponse, 0, len(outcomes))
	for i := range outcomes {
		out = append(out, toOutcomeResponse(&outcomes[i]))
	}
	return out, nil
}

// extractExifCapturedAt pulls the capture timestamp out of JPEG EXIF data.
// Missing or malformed EXIF is not an error.
func extractExifCapturedAt(data []byte) *time.Time {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	ts, err := x.DateTime()
	if err != nil {
		return nil
	}
	utc := ts.UTC()
	return &utc
}

func normalizeContentType(contentType string) string {
	normalized := strings.Split(contentType, ";")[0]
	return strings.TrimSpace(strings.ToLower(normalized))
}

func toCaseResponse(c *repository.Case) transport.CaseResponse {
	return transport.CaseResponse{
		ID:               c.ID,
		FarmerID:         c.FarmerID,
		AnimalID:         c.AnimalID,
		Status:           c.Status,
		SymptomsReported: c.SymptomsReported,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func toMediaResponse(m *repository.Media) transport.MediaResponse {
	return transport.MediaResponse{
		ID:            m.ID,
		CaseID:        m.DiagnosisCaseID,
		MediaType:     m.MediaType,
		StoragePath:   m.StoragePath,
		FileSizeBytes: m.FileSizeBytes,
		MimeType:      m.MimeType,
		CapturedAt:    m.CapturedAt,
		CreatedAt:     m.CreatedAt,
	}
}

func toOutcomeResponse(o *repository.Outcome) transport.OutcomeResponse {
	return transport.OutcomeResponse{
		ID:               o.ID,
		CaseID:           o.DiagnosisCaseID,
		Source:           o.Source,
		FarmerFeedback:   o.FarmerFeedback,
		ActualDisease:    o.ActualDisease,
		TreatmentApplied: o.TreatmentApplied,
		OutcomeStatus:    o.OutcomeStatus,
		OutcomeDate:      o.OutcomeDate,
		ReportedAt:       o.ReportedAt,
	}
}
