package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
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

type fakeCaseStore struct {
	cases      map[uuid.UUID]*repository.Case
	media      map[uuid.UUID][]repository.Media
	outputs    []*repository.AnalysisOutput
	caseStatus map[uuid.UUID]string
}

func newFakeCaseStore() *fakeCaseStore {
	return &fakeCaseStore{
		cases:      make(map[uuid.UUID]*repository.Case),
		media:      make(map[uuid.UUID][]repository.Media),
		caseStatus: make(map[uuid.UUID]string),
	}
}

func (f *fakeCaseStore) GetCase(_ context.Context, id uuid.UUID) (*repository.Case, error) {
	c, ok := f.cases[id]
	if !ok {
		return nil, apperr.NotFound("diagnosis case not found")
	}
	return c, nil
}

func (f *fakeCaseStore) ListMediaByCase(_ context.Context, caseID uuid.UUID) ([]repository.Media, error) {
	return f.media[caseID], nil
}

func (f *fakeCaseStore) UpdateCaseStatus(_ context.Context, id uuid.UUID, status string) (*repository.Case, error) {
	f.caseStatus[id] = status
	return &repository.Case{ID: id, Status: status}, nil
}

func (f *fakeCaseStore) CreateOutput(_ context.Context, o *repository.AnalysisOutput) error {
	f.outputs = append(f.outputs, o)
	return nil
}

type fakeScheduler struct {
	enqueued []scheduler.AnalysisExecutePayload
	fail     bool
}

func (f *fakeScheduler) EnqueueAnalysis(_ context.Context, payload scheduler.AnalysisExecutePayload) error {
	if f.fail {
		return errors.New("redis down")
	}
	f.enqueued = append(f.enqueued, payload)
	return nil
}

func imageMedia(caseID uuid.UUID, path string) repository.Media {
	mimeType := "image/jpeg"
	return repository.Media{
		ID:              uuid.New(),
		DiagnosisCaseID: caseID,
		MediaType:       "image",
		StoragePath:     path,
		MimeType:        &mimeType,
		CreatedAt:       time.Now().UTC(),
	}
}

func TestStartAnalysis(t *testing.T) {
	store := newFakeCaseStore()
	sched := &fakeScheduler{}
	svc := New(store, sched, "gemini-2.0-flash", true, logger.New("test"))

	farmerID, caseID := uuid.New(), uuid.New()
	symptoms := "bloated abdomen since morning"
	store.cases[caseID] = &repository.Case{
		ID: caseID, FarmerID: farmerID,
		Status: domain.StatusCreated, SymptomsReported: &symptoms,
	}
	store.media[caseID] = []repository.Media{imageMedia(caseID, "f/c/belly.jpg")}

	resp, err := svc.StartAnalysis(context.Background(), farmerID, caseID, transport.AnalyzeRequest{})
	if err != nil {
		t.Fatalf("StartAnalysis: %v", err)
	}
	if resp.Status != "analysis_started" {
		t.Errorf("status = %q", resp.Status)
	}
	if resp.ModelID != "gemini-2.0-flash" {
		t.Errorf("modelID = %q", resp.ModelID)
	}

	// Audit row was written before enqueue, with the prompt inside
	if len(store.outputs) != 1 {
		t.Fatalf("outputs = %d, want 1", len(store.outputs))
	}
	var req client.Request
	if err := json.Unmarshal(store.outputs[0].RawRequest, &req); err != nil {
		t.Fatalf("raw request not JSON: %v", err)
	}
	if len(req.ImageRefs) != 1 || req.ImageRefs[0].Path != "f/c/belly.jpg" {
		t.Errorf("imageRefs = %v", req.ImageRefs)
	}
	if req.ImageRefs[0].MimeType != "image/jpeg" {
		t.Errorf("mimeType = %q, want image/jpeg", req.ImageRefs[0].MimeType)
	}
	if req.PromptVersion != client.PromptVersion {
		t.Errorf("promptVersion = %q", req.PromptVersion)
	}

	if store.caseStatus[caseID] != domain.StatusAnalysisInProgress {
		t.Errorf("case status = %q, want %q", store.caseStatus[caseID], domain.StatusAnalysisInProgress)
	}
	if len(sched.enqueued) != 1 || sched.enqueued[0].OutputID != store.outputs[0].ID.String() {
		t.Errorf("enqueued = %v", sched.enqueued)
	}
}

func TestStartAnalysisPromptVersionOverride(t *testing.T) {
	store := newFakeCaseStore()
	svc := New(store, &fakeScheduler{}, "gemini-2.0-flash", true, logger.New("test"))

	farmerID, caseID := uuid.New(), uuid.New()
	store.cases[caseID] = &repository.Case{ID: caseID, FarmerID: farmerID, Status: domain.StatusCreated}
	store.media[caseID] = []repository.Media{imageMedia(caseID, "f/c/a.jpg")}

	pv := "v2-cattle"
	_, err := svc.StartAnalysis(context.Background(), farmerID, caseID, transport.AnalyzeRequest{PromptVersion: &pv})
	if err != nil {
		t.Fatalf("StartAnalysis: %v", err)
	}

	if got := store.outputs[0].PromptVersion; got != "v2-cattle" {
		t.Errorf("output promptVersion = %q, want v2-cattle", got)
	}
	var req client.Request
	if err := json.Unmarshal(store.outputs[0].RawRequest, &req); err != nil {
		t.Fatal(err)
	}
	if req.PromptVersion != "v2-cattle" {
		t.Errorf("request promptVersion = %q, want v2-cattle", req.PromptVersion)
	}
}

func TestStartAnalysisLimitsToFiveImages(t *testing.T) {
	store := newFakeCaseStore()
	svc := New(store, &fakeScheduler{}, "gemini-2.0-flash", true, logger.New("test"))

	farmerID, caseID := uuid.New(), uuid.New()
	store.cases[caseID] = &repository.Case{ID: caseID, FarmerID: farmerID, Status: domain.StatusCreated}
	for i := 0; i < 7; i++ {
		store.media[caseID] = append(store.media[caseID], imageMedia(caseID, uuid.NewString()))
	}

	if _, err := svc.StartAnalysis(context.Background(), farmerID, caseID, transport.AnalyzeRequest{}); err != nil {
		t.Fatalf("StartAnalysis: %v", err)
	}

	var req client.Request
	if err := json.Unmarshal(store.outputs[0].RawRequest, &req); err != nil {
		t.Fatal(err)
	}
	if len(req.ImageRefs) != 5 {
		t.Errorf("imageRefs = %d, want 5", len(req.ImageRefs))
	}
}

func TestStartAnalysisValidation(t *testing.T) {
	store := newFakeCaseStore()
	svc := New(store, &fakeScheduler{}, "gemini-2.0-flash", true, logger.New("test"))
	ctx := context.Background()

	farmerID, caseID := uuid.New(), uuid.New()
	store.cases[caseID] = &repository.Case{ID: caseID, FarmerID: farmerID, Status: domain.StatusCreated}

	// No media at all
	_, err := svc.StartAnalysis(ctx, farmerID, caseID, transport.AnalyzeRequest{})
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindValidation {
		t.Errorf("expected validation error without media, got %v", err)
	}

	// Video only, no images
	store.media[caseID] = []repository.Media{{
		ID: uuid.New(), DiagnosisCaseID: caseID, MediaType: "video", StoragePath: "f/c/gait.mp4",
	}}
	_, err = svc.StartAnalysis(ctx, farmerID, caseID, transport.AnalyzeRequest{})
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindValidation {
		t.Errorf("expected validation error without images, got %v", err)
	}

	// Non-owner
	store.media[caseID] = append(store.media[caseID], imageMedia(caseID, "f/c/a.jpg"))
	_, err = svc.StartAnalysis(ctx, uuid.New(), caseID, transport.AnalyzeRequest{})
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindForbidden {
		t.Errorf("expected forbidden for non-owner, got %v", err)
	}

	// Unknown case
	_, err = svc.StartAnalysis(ctx, farmerID, uuid.New(), transport.AnalyzeRequest{})
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindNotFound {
		t.Errorf("expected not found for unknown case, got %v", err)
	}
}

func TestStartAnalysisDisabled(t *testing.T) {
	svc := New(newFakeCaseStore(), &fakeScheduler{}, "gemini-2.0-flash", false, logger.New("test"))

	_, err := svc.StartAnalysis(context.Background(), uuid.New(), uuid.New(), transport.AnalyzeRequest{})
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindUnavailable {
		t.Errorf("expected unavailable when disabled, got %v", err)
	}
}

func TestStartAnalysisQueueFailure(t *testing.T) {
	store := newFakeCaseStore()
	svc := New(store, &fakeScheduler{fail: true}, "gemini-2.0-flash", true, logger.New("test"))

	farmerID, caseID := uuid.New(), uuid.New()
	store.cases[caseID] = &repository.Case{ID: caseID, FarmerID: farmerID, Status: domain.StatusCreated}
	store.media[caseID] = []repository.Media{imageMedia(caseID, "f/c/a.jpg")}

	_, err := svc.StartAnalysis(context.Background(), farmerID, caseID, transport.AnalyzeRequest{})
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindUnavailable {
		t.Errorf("expected unavailable on queue failure, got %v", err)
	}
}
