package task

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"agrovet_backend/internal/analysis/client"
	"agrovet_backend/internal/diagnosis/domain"
	"agrovet_backend/internal/diagnosis/repository"
	"agrovet_backend/internal/scheduler"
	"agrovet_backend/platform/apperr"
	"agrovet_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeOutputStore struct {
	outputs    map[uuid.UUID]*repository.AnalysisOutput
	tags       map[uuid.UUID][]string
	tagSource  string
	caseStatus map[uuid.UUID]string
	responses  []json.RawMessage
	latencies  []*int
}

func newFakeOutputStore() *fakeOutputStore {
	return &fakeOutputStore{
		outputs:    make(map[uuid.UUID]*repository.AnalysisOutput),
		tags:       make(map[uuid.UUID][]string),
		caseStatus: make(map[uuid.UUID]string),
	}
}

func (f *fakeOutputStore) GetOutput(_ context.Context, id uuid.UUID) (*repository.AnalysisOutput, error) {
	o, ok := f.outputs[id]
	if !ok {
		return nil, apperr.NotFound("analysis output not found")
	}
	return o, nil
}

func (f *fakeOutputStore) UpdateOutputResponse(_ context.Context, id uuid.UUID, raw json.RawMessage, latencyMs *int) error {
	o, ok := f.outputs[id]
	if !ok {
		return apperr.NotFound("analysis output not found")
	}
	o.RawResponse = raw
	f.responses = append(f.responses, raw)
	f.latencies = append(f.latencies, latencyMs)
	return nil
}

func (f *fakeOutputStore) AddTags(_ context.Context, caseID uuid.UUID, tags []string, source string) error {
	f.tags[caseID] = append(f.tags[caseID], tags...)
	f.tagSource = source
	return nil
}

func (f *fakeOutputStore) UpdateCaseStatus(_ context.Context, id uuid.UUID, status string) (*repository.Case, error) {
	f.caseStatus[id] = status
	return &repository.Case{ID: id, Status: status}, nil
}

type fakeFetcher struct{}

func (fakeFetcher) DownloadFile(_ context.Context, _, _ string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader([]byte("image-bytes"))), nil
}

type scriptedClient struct {
	responses  []client.Response
	calls      int
	lastImages []client.Image
}

func (s *scriptedClient) Execute(_ context.Context, _ client.Request, images []client.Image) client.Response {
	s.lastImages = images
	resp := s.responses[s.calls]
	if s.calls < len(s.responses)-1 {
		s.calls++
	}
	return resp
}

func successResponse(t *testing.T) client.Response {
	t.Helper()
	raw, err := json.Marshal(map[string]string{
		"text": `{"observed_symptoms": ["fever"], "urgency_level": "high"}`,
	})
	if err != nil {
		t.Fatal(err)
	}
	return client.Response{RawResponse: raw, LatencyMs: 1200, Success: true}
}

func failureResponse() client.Response {
	return client.Response{
		RawResponse: json.RawMessage(`{"error": "rate limited", "error_type": "api_error"}`),
		LatencyMs:   300,
		Success:     false,
		Error:       "rate limited",
	}
}

func newTestExecutor(store *fakeOutputStore, c AnalysisClient) *Executor {
	exec := NewExecutor(store, fakeFetcher{}, "diagnosis-media", c, 5*time.Second, logger.New("test"))
	exec.sleep = func(time.Duration) {}
	return exec
}

func seedOutput(store *fakeOutputStore) (outputID, caseID uuid.UUID) {
	return seedOutputWithRefs(store, []client.ImageRef{{Path: "f/c/a.jpg", MimeType: "image/jpeg"}})
}

func seedOutputWithRefs(store *fakeOutputStore, refs []client.ImageRef) (outputID, caseID uuid.UUID) {
	outputID, caseID = uuid.New(), uuid.New()
	req := client.BuildRequest(refs, nil, "gemini-2.0-flash", "", nil)
	raw, _ := json.Marshal(req)
	store.outputs[outputID] = &repository.AnalysisOutput{
		ID:              outputID,
		DiagnosisCaseID: caseID,
		RawRequest:      raw,
		RawResponse:     json.RawMessage("{}"),
		ModelID:         req.ModelID,
		PromptVersion:   req.PromptVersion,
	}
	return outputID, caseID
}

func TestExecuteSuccess(t *testing.T) {
	store := newFakeOutputStore()
	outputID, caseID := seedOutput(store)

	exec := newTestExecutor(store, &scriptedClient{responses: []client.Response{successResponse(t)}})
	err := exec.Execute(context.Background(), scheduler.AnalysisExecutePayload{
		OutputID: outputID.String(),
		CaseID:   caseID.String(),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if store.caseStatus[caseID] != domain.StatusAnalyzed {
		t.Errorf("case status = %q, want %q", store.caseStatus[caseID], domain.StatusAnalyzed)
	}
	if store.tagSource != "gemini" {
		t.Errorf("tag source = %q, want gemini", store.tagSource)
	}
	tags := store.tags[caseID]
	if len(tags) != 2 || tags[0] != "fever" || tags[1] != "urgency:high" {
		t.Errorf("tags = %v", tags)
	}
	if len(store.latencies) != 1 || store.latencies[0] == nil || *store.latencies[0] != 1200 {
		t.Errorf("latencies = %v", store.latencies)
	}
}

func TestExecuteUsesStoredMimeTypes(t *testing.T) {
	store := newFakeOutputStore()
	outputID, caseID := seedOutputWithRefs(store, []client.ImageRef{
		{Path: "f/c/a.png", MimeType: "image/png"},
	})

	c := &scriptedClient{responses: []client.Response{successResponse(t)}}
	exec := newTestExecutor(store, c)
	err := exec.Execute(context.Background(), scheduler.AnalysisExecutePayload{
		OutputID: outputID.String(),
		CaseID:   caseID.String(),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(c.lastImages) != 1 || c.lastImages[0].MimeType != "image/png" {
		t.Errorf("images = %+v, want one image/png", c.lastImages)
	}
}

func TestExecuteRetriesThenSucceeds(t *testing.T) {
	store := newFakeOutputStore()
	outputID, caseID := seedOutput(store)

	c := &scriptedClient{responses: []client.Response{failureResponse(), successResponse(t)}}
	exec := NewExecutor(store, fakeFetcher{}, "diagnosis-media", c, 5*time.Second, logger.New("test"))
	var slept []time.Duration
	exec.sleep = func(d time.Duration) { slept = append(slept, d) }

	err := exec.Execute(context.Background(), scheduler.AnalysisExecutePayload{
		OutputID: outputID.String(),
		CaseID:   caseID.String(),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(slept) != 1 || slept[0] != 5*time.Second {
		t.Errorf("slept = %v, want one 5s delay", slept)
	}
	if store.caseStatus[caseID] != domain.StatusAnalyzed {
		t.Errorf("case status = %q", store.caseStatus[caseID])
	}
	// Both attempts' raw responses were persisted
	if len(store.responses) != 2 {
		t.Errorf("persisted responses = %d, want 2", len(store.responses))
	}
}

func TestExecuteExhaustsRetries(t *testing.T) {
	store := newFakeOutputStore()
	outputID, caseID := seedOutput(store)

	c := &scriptedClient{responses: []client.Response{failureResponse()}}
	exec := NewExecutor(store, fakeFetcher{}, "diagnosis-media", c, 2*time.Second, logger.New("test"))
	var slept []time.Duration
	exec.sleep = func(d time.Duration) { slept = append(slept, d) }

	err := exec.Execute(context.Background(), scheduler.AnalysisExecutePayload{
		OutputID: outputID.String(),
		CaseID:   caseID.String(),
	})
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}

	// Linear backoff: base*1, base*2
	if len(slept) != 2 || slept[0] != 2*time.Second || slept[1] != 4*time.Second {
		t.Errorf("slept = %v", slept)
	}

	var envelope struct {
		Error            string `json:"error"`
		RetriesExhausted bool   `json:"retries_exhausted"`
	}
	if err := json.Unmarshal(store.outputs[outputID].RawResponse, &envelope); err != nil {
		t.Fatalf("final raw response not JSON: %v", err)
	}
	if !envelope.RetriesExhausted || envelope.Error == "" {
		t.Errorf("final envelope = %+v", envelope)
	}

	// Case never advanced
	if status, ok := store.caseStatus[caseID]; ok {
		t.Errorf("case status advanced to %q", status)
	}
}

func TestExecuteRejectsBadPayload(t *testing.T) {
	store := newFakeOutputStore()
	exec := newTestExecutor(store, &scriptedClient{responses: []client.Response{failureResponse()}})

	err := exec.Execute(context.Background(), scheduler.AnalysisExecutePayload{
		OutputID: "not-a-uuid",
		CaseID:   uuid.New().String(),
	})
	if err == nil {
		t.Error("expected error for invalid output ID")
	}
}
