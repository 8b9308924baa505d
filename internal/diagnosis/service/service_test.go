package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"agrovet_backend/internal/diagnosis/domain"
	"agrovet_backend/internal/diagnosis/repository"
	"agrovet_backend/internal/diagnosis/transport"
	farmersrepo "agrovet_backend/internal/farmers/repository"
	"agrovet_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeCaseStore struct {
	cases    map[uuid.UUID]*repository.Case
	media    map[uuid.UUID][]repository.Media
	outcomes map[uuid.UUID][]repository.Outcome
}

func newFakeCaseStore() *fakeCaseStore {
	return &fakeCaseStore{
		cases:    make(map[uuid.UUID]*repository.Case),
		media:    make(map[uuid.UUID][]repository.Media),
		outcomes: make(map[uuid.UUID][]repository.Outcome),
	}
}

func (f *fakeCaseStore) CreateCase(_ context.Context, c *repository.Case) error {
	cp := *c
	f.cases[c.ID] = &cp
	return nil
}

func (f *fakeCaseStore) GetCase(_ context.Context, id uuid.UUID) (*repository.Case, error) {
	c, ok := f.cases[id]
	if !ok {
		return nil, apperr.NotFound("diagnosis case not found")
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCaseStore) ListCasesByFarmer(_ context.Context, farmerID uuid.UUID, status *string) ([]repository.Case, error) {
	out := make([]repository.Case, 0)
	for _, c := range f.cases {
		if c.FarmerID != farmerID {
			continue
		}
		if status != nil && c.Status != *status {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCaseStore) UpdateCaseStatus(_ context.Context, id uuid.UUID, status string) (*repository.Case, error) {
	c, ok := f.cases[id]
	if !ok {
		return nil, apperr.NotFound("diagnosis case not found")
	}
	c.Status = status
	now := time.Now().UTC()
	c.UpdatedAt = &now
	cp := *c
	return &cp, nil
}

func (f *fakeCaseStore) GetCaseWithRelations(ctx context.Context, id uuid.UUID) (*repository.CaseWithRelations, error) {
	c, err := f.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}
	return &repository.CaseWithRelations{
		Case:     *c,
		Media:    f.media[id],
		Tags:     nil,
		Outcomes: f.outcomes[id],
		Outputs:  nil,
	}, nil
}

func (f *fakeCaseStore) CreateMedia(_ context.Context, m *repository.Media) error {
	f.media[m.DiagnosisCaseID] = append(f.media[m.DiagnosisCaseID], *m)
	return nil
}

func (f *fakeCaseStore) ListMediaByCase(_ context.Context, caseID uuid.UUID) ([]repository.Media, error) {
	return f.media[caseID], nil
}

func (f *fakeCaseStore) ListMediaByType(_ context.Context, caseID uuid.UUID, mediaType string) ([]repository.Media, error) {
	out := make([]repository.Media, 0)
	for _, m := range f.media[caseID] {
		if m.MediaType == mediaType {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeCaseStore) CreateOutcome(_ context.Context, o *repository.Outcome) error {
	f.outcomes[o.DiagnosisCaseID] = append(f.outcomes[o.DiagnosisCaseID], *o)
	return nil
}

func (f *fakeCaseStore) ListOutcomesByCase(_ context.Context, caseID uuid.UUID) ([]repository.Outcome, error) {
	return f.outcomes[caseID], nil
}

func (f *fakeCaseStore) ListOutcomesBySource(_ context.Context, caseID uuid.UUID, source string) ([]repository.Outcome, error) {
	out := make([]repository.Outcome, 0)
	for _, o := range f.outcomes[caseID] {
		if o.Source == source {
			out = append(out, o)
		}
	}
	return out, nil
}

type fakeFarmerReader struct {
	farmers map[uuid.UUID]*farmersrepo.Farmer
	animals map[uuid.UUID]*farmersrepo.Animal
}

func (f *fakeFarmerReader) GetByID(_ context.Context, id uuid.UUID) (*farmersrepo.Farmer, error) {
	fm, ok := f.farmers[id]
	if !ok {
		return nil, apperr.NotFound("farmer not found")
	}
	return fm, nil
}

func (f *fakeFarmerReader) GetAnimal(_ context.Context, id uuid.UUID) (*farmersrepo.Animal, error) {
	a, ok := f.animals[id]
	if !ok {
		return nil, apperr.NotFound("animal not found")
	}
	return a, nil
}

type fakeMediaStore struct {
	uploaded    int
	lastFolder  string
	failContent bool
}

func (f *fakeMediaStore) UploadFile(_ context.Context, _, folder, fileName, _ string, reader io.Reader, _ int64) (string, error) {
	f.uploaded++
	f.lastFolder = folder
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return "", err
	}
	return folder + "/" + fileName, nil
}

func (f *fakeMediaStore) ValidateContentType(contentType string) error {
	if f.failContent {
		return errors.New("content type not allowed")
	}
	switch strings.Split(contentType, ";")[0] {
	case "image/jpeg", "image/png", "image/webp", "video/mp4", "video/webm", "video/quicktime":
		return nil
	}
	return errors.New("content type not allowed")
}

func (f *fakeMediaStore) ValidateFileSize(sizeBytes int64) error {
	if sizeBytes <= 0 || sizeBytes > 52428800 {
		return errors.New("file size out of bounds")
	}
	return nil
}

func newTestService() (*Service, *fakeCaseStore, *fakeFarmerReader, *fakeMediaStore, uuid.UUID) {
	store := newFakeCaseStore()
	farmerID := uuid.New()
	farmers := &fakeFarmerReader{
		farmers: map[uuid.UUID]*farmersrepo.Farmer{
			farmerID: {ID: farmerID, Name: "Wanjiku Farm"},
		},
		animals: make(map[uuid.UUID]*farmersrepo.Animal),
	}
	media := &fakeMediaStore{}
	return New(store, farmers, media, "diagnosis-media"), store, farmers, media, farmerID
}

func TestCreateCase(t *testing.T) {
	svc, _, farmers, _, farmerID := newTestService()
	ctx := context.Background()

	symptoms := "limping on front left leg"
	resp, err := svc.CreateCase(ctx, farmerID, transport.CreateCaseRequest{SymptomsReported: &symptoms})
	if err != nil {
		t.Fatalf("CreateCase: %v", err)
	}
	if resp.Status != domain.StatusCreated {
		t.Errorf("status = %q, want %q", resp.Status, domain.StatusCreated)
	}
	if resp.FarmerID != farmerID {
		t.Errorf("farmerID = %v, want %v", resp.FarmerID, farmerID)
	}

	// Unknown farmer
	if _, err := svc.CreateCase(ctx, uuid.New(), transport.CreateCaseRequest{}); err == nil {
		t.Error("expected error for unknown farmer")
	}

	// Animal owned by a different farmer
	otherFarmer := uuid.New()
	farmers.farmers[otherFarmer] = &farmersrepo.Farmer{ID: otherFarmer}
	animalID := uuid.New()
	farmers.animals[animalID] = &farmersrepo.Animal{ID: animalID, FarmerID: otherFarmer}
	_, err = svc.CreateCase(ctx, farmerID, transport.CreateCaseRequest{AnimalID: &animalID})
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindValidation {
		t.Errorf("expected validation error for foreign animal, got %v", err)
	}
}

func TestListCasesRejectsUnknownStatus(t *testing.T) {
	svc, _, _, _, farmerID := newTestService()

	bad := "resolved"
	_, err := svc.ListCases(context.Background(), farmerID, &bad)
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetCaseOwnership(t *testing.T) {
	svc, store, _, _, farmerID := newTestService()
	ctx := context.Background()

	caseID := uuid.New()
	store.cases[caseID] = &repository.Case{ID: caseID, FarmerID: farmerID, Status: domain.StatusCreated}

	if _, err := svc.GetCase(ctx, farmerID, caseID); err != nil {
		t.Fatalf("GetCase as owner: %v", err)
	}

	_, err := svc.GetCase(ctx, uuid.New(), caseID)
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindForbidden {
		t.Errorf("expected forbidden for non-owner, got %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	svc, store, _, _, farmerID := newTestService()
	ctx := context.Background()

	caseID := uuid.New()
	store.cases[caseID] = &repository.Case{ID: caseID, FarmerID: farmerID, Status: domain.StatusAnalyzed}

	// Forward transition
	resp, err := svc.UpdateStatus(ctx, farmerID, caseID, domain.StatusClosed)
	if err != nil {
		t.Fatalf("UpdateStatus forward: %v", err)
	}
	if resp.Status != domain.StatusClosed {
		t.Errorf("status = %q, want %q", resp.Status, domain.StatusClosed)
	}

	// Backwards transition is rejected
	_, err = svc.UpdateStatus(ctx, farmerID, caseID, domain.StatusCreated)
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindValidation {
		t.Errorf("expected validation error going backwards, got %v", err)
	}

	// Unknown status is rejected
	if _, err := svc.UpdateStatus(ctx, farmerID, caseID, "archived"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestUploadMedia(t *testing.T) {
	svc, store, _, media, farmerID := newTestService()
	ctx := context.Background()

	caseID := uuid.New()
	store.cases[caseID] = &repository.Case{ID: caseID, FarmerID: farmerID, Status: domain.StatusCreated}

	payload := []byte("not-a-real-jpeg-but-bytes-enough")
	resp, err := svc.UploadMedia(ctx, farmerID, caseID, "wound.jpg", "image/jpeg",
		int64(len(payload)), bytes.NewReader(payload), nil)
	if err != nil {
		t.Fatalf("UploadMedia: %v", err)
	}
	if resp.MediaType != "image" {
		t.Errorf("mediaType = %q, want image", resp.MediaType)
	}
	if media.uploaded != 1 {
		t.Errorf("uploaded = %d, want 1", media.uploaded)
	}
	wantFolder := farmerID.String() + "/" + caseID.String()
	if media.lastFolder != wantFolder {
		t.Errorf("folder = %q, want %q", media.lastFolder, wantFolder)
	}

	// Video content type derives media_type video
	resp, err = svc.UploadMedia(ctx, farmerID, caseID, "gait.mp4", "video/mp4",
		int64(len(payload)), bytes.NewReader(payload), nil)
	if err != nil {
		t.Fatalf("UploadMedia video: %v", err)
	}
	if resp.MediaType != "video" {
		t.Errorf("mediaType = %q, want video", resp.MediaType)
	}

	// Disallowed content type
	_, err = svc.UploadMedia(ctx, farmerID, caseID, "report.pdf", "application/pdf",
		int64(len(payload)), bytes.NewReader(payload), nil)
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindValidation {
		t.Errorf("expected validation error for pdf, got %v", err)
	}

	// Zero-byte upload
	if _, err := svc.UploadMedia(ctx, farmerID, caseID, "empty.jpg", "image/jpeg", 0, bytes.NewReader(nil), nil); err == nil {
		t.Error("expected error for empty file")
	}

	// Non-owner
	_, err = svc.UploadMedia(ctx, uuid.New(), caseID, "wound.jpg", "image/jpeg",
		int64(len(payload)), bytes.NewReader(payload), nil)
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindForbidden {
		t.Errorf("expected forbidden for non-owner, got %v", err)
	}
}

func TestAddOutcome(t *testing.T) {
	svc, store, _, _, farmerID := newTestService()
	ctx := context.Background()

	caseID := uuid.New()
	store.cases[caseID] = &repository.Case{ID: caseID, FarmerID: farmerID, Status: domain.StatusOrderPlaced}

	feedback := "swelling gone after three days"
	resp, err := svc.AddOutcome(ctx, farmerID, caseID, transport.CreateOutcomeRequest{
		Source:         "Farmer",
		FarmerFeedback: &feedback,
	})
	if err != nil {
		t.Fatalf("AddOutcome: %v", err)
	}
	if resp.Source != "farmer" {
		t.Errorf("source = %q, want normalized farmer", resp.Source)
	}

	// Invalid source
	_, err = svc.AddOutcome(ctx, farmerID, caseID, transport.CreateOutcomeRequest{Source: "neighbor"})
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindValidation {
		t.Errorf("expected validation error for bad source, got %v", err)
	}

	outcomes, err := svc.ListOutcomes(ctx, farmerID, caseID, nil)
	if err != nil {
		t.Fatalf("ListOutcomes: %v", err)
	}
	if len(outcomes) != 1 {
		t.Errorf("outcomes = %d, want 1", len(outcomes))
	}

	// Source filter
	vetSource := "consultation_vet"
	outcomes, err = svc.ListOutcomes(ctx, farmerID, caseID, &vetSource)
	if err != nil {
		t.Fatalf("ListOutcomes filtered: %v", err)
	}
	if len(outcomes) != 0 {
		t.Errorf("vet outcomes = %d, want 0", len(outcomes))
	}

	badSource := "neighbor"
	if _, err := svc.ListOutcomes(ctx, farmerID, caseID, &badSource); err == nil {
		t.Error("expected error for invalid source filter")
	}
}

func TestListMediaTypeFilter(t *testing.T) {
	svc, store, _, _, farmerID := newTestService()
	ctx := context.Background()

	caseID := uuid.New()
	store.cases[caseID] = &repository.Case{ID: caseID, FarmerID: farmerID, Status: domain.StatusCreated}
	store.media[caseID] = []repository.Media{
		{ID: uuid.New(), DiagnosisCaseID: caseID, MediaType: "image"},
		{ID: uuid.New(), DiagnosisCaseID: caseID, MediaType: "video"},
	}

	all, err := svc.ListMedia(ctx, farmerID, caseID, nil)
	if err != nil {
		t.Fatalf("ListMedia: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("media = %d, want 2", len(all))
	}

	imageType := "image"
	images, err := svc.ListMedia(ctx, farmerID, caseID, &imageType)
	if err != nil {
		t.Fatalf("ListMedia images: %v", err)
	}
	if len(images) != 1 || images[0].MediaType != "image" {
		t.Errorf("images = %v, want one image entry", images)
	}

	badType := "audio"
	if _, err := svc.ListMedia(ctx, farmerID, caseID, &badType); err == nil {
		t.Error("expected error for invalid media type filter")
	}
}
