// Package task executes queued analysis work on the background worker.
// The executor is the sole writer of analysis results: it calls the
// provider, stores the raw response verbatim and advances the case.
package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"agrovet_backend/internal/analysis/client"
	"agrovet_backend/internal/diagnosis/domain"
	"agrovet_backend/internal/diagnosis/repository"
	"agrovet_backend/internal/scheduler"
	"agrovet_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const maxAttempts = 3

// OutputStore is the persistence surface the executor needs.
type OutputStore interface {
	GetOutput(ctx context.Context, id uuid.UUID) (*repository.AnalysisOutput, error)
	UpdateOutputResponse(ctx context.Context, id uuid.UUID, rawResponse json.RawMessage, latencyMs *int) error
	AddTags(ctx context.Context, caseID uuid.UUID, tags []string, source string) error
	UpdateCaseStatus(ctx context.Context, id uuid.UUID, status string) (*repository.Case, error)
}

// ImageFetcher downloads case images from object storage.
type ImageFetcher interface {
	DownloadFile(ctx context.Context, bucket, fileKey string) (io.ReadCloser, error)
}

// AnalysisClient performs one provider call.
type AnalysisClient interface {
	Execute(ctx context.Context, req client.Request, images []client.Image) client.Response
}

// Executor runs a prepared analysis to completion.
type Executor struct {
	repo      OutputStore
	store     ImageFetcher
	bucket    string
	client    AnalysisClient
	retryBase time.Duration
	log       *logger.Logger

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// NewExecutor creates an analysis executor.
func NewExecutor(repo OutputStore, store ImageFetcher, bucket string, c AnalysisClient, retryBase time.Duration, log *logger.Logger) *Executor {
	return &Executor{
		repo:      repo,
		store:     store,
		bucket:    bucket,
		client:    c,
		retryBase: retryBase,
		log:       log,
		sleep:     time.Sleep,
	}
}

// Execute runs up to three provider attempts with linearly growing
// delays. Every attempt's raw response is persisted verbatim; when all
// attempts fail the stored response is replaced by an error envelope
// and the task fails for good.
func (e *Executor) Execute(ctx context.Context, payload scheduler.AnalysisExecutePayload) error {
	outputID, err := uuid.Parse(payload.OutputID)
	if err != nil {
		return fmt.Errorf("invalid output ID %q: %w", payload.OutputID, err)
	}
	caseID, err := uuid.Parse(payload.CaseID)
	if err != nil {
		return fmt.Errorf("invalid case ID %q: %w", payload.CaseID, err)
	}

	output, err := e.repo.GetOutput(ctx, outputID)
	if err != nil {
		return err
	}

	var req client.Request
	if err := json.Unmarshal(output.RawRequest, &req); err != nil {
		return fmt.Errorf("failed to decode stored analysis request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		e.log.Info("analysis attempt",
			"outputId", outputID, "caseId", caseID,
			"attempt", attempt, "maxAttempts", maxAttempts)

		lastErr = e.runAttempt(ctx, outputID, caseID, req)
		if lastErr == nil {
			e.log.Info("analysis completed", "outputId", outputID, "caseId", caseID)
			return nil
		}

		e.log.Warn("analysis attempt failed",
			"outputId", outputID, "attempt", attempt, "error", lastErr)
		if attempt < maxAttempts {
			e.sleep(e.retryBase * time.Duration(attempt))
		}
	}

	envelope, _ := json.Marshal(map[string]any{
		"error":             lastErr.Error(),
		"retries_exhausted": true,
	})
	if updateErr := e.repo.UpdateOutputResponse(ctx, outputID, envelope, nil); updateErr != nil {
		e.log.Error("failed to record exhausted analysis", "outputId", outputID, "error", updateErr)
	}

	e.log.Error("analysis failed after all attempts",
		"outputId", outputID, "caseId", caseID, "error", lastErr)
	return fmt.Errorf("analysis failed after %d attempts: %w", maxAttempts, lastErr)
}

func (e *Executor) runAttempt(ctx context.Context, outputID, caseID uuid.UUID, req client.Request) error {
	images := e.fetchImages(ctx, req.ImageRefs)
	if len(images) == 0 {
		return errors.New("no images could be fetched from storage")
	}

	resp := e.client.Execute(ctx, req, images)

	latency := resp.LatencyMs
	if err := e.repo.UpdateOutputResponse(ctx, outputID, resp.RawResponse, &latency); err != nil {
		return err
	}

	if !resp.Success {
		if resp.Error != "" {
			return errors.New(resp.Error)
		}
		return errors.New("analysis call failed")
	}

	if tags := ExtractTags(resp.RawResponse); len(tags) > 0 {
		if err := e.repo.AddTags(ctx, caseID, tags, "gemini"); err != nil {
			return err
		}
	}

	_, err := e.repo.UpdateCaseStatus(ctx, caseID, domain.StatusAnalyzed)
	return err
}

// fetchImages downloads image bytes concurrently. Individual failures
// are logged and skipped so one missing object does not sink the run.
// Mime types come from the stored request, recorded at upload time.
func (e *Executor) fetchImages(ctx context.Context, refs []client.ImageRef) []client.Image {
	var (
		mu     sync.Mutex
		images = make([]client.Image, 0, len(refs))
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, ref := range refs {
		g.Go(func() error {
			reader, err := e.store.DownloadFile(gctx, e.bucket, ref.Path)
			if err != nil {
				e.log.Warn("failed to fetch image", "ref", ref.Path, "error", err)
				return nil
			}
			defer reader.Close()

			data, err := io.ReadAll(reader)
			if err != nil {
				e.log.Warn("failed to read image", "ref", ref.Path, "error", err)
				return nil
			}

			mimeType := ref.MimeType
			if mimeType == "" {
				mimeType = "image/jpeg"
			}

			mu.Lock()
			images = append(images, client.Image{MimeType: mimeType, Data: data})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return images
}
