package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agrovet_backend/internal/adapters/storage"
	"agrovet_backend/internal/analysis"
	"agrovet_backend/internal/catalog"
	"agrovet_backend/internal/diagnosis"
	"agrovet_backend/internal/farmers"
	apphttp "agrovet_backend/internal/http"
	"agrovet_backend/internal/http/router"
	"agrovet_backend/internal/orders"
	"agrovet_backend/internal/recommendation"
	"agrovet_backend/internal/retailers"
	"agrovet_backend/internal/scheduler"
	"agrovet_backend/platform/config"
	"agrovet_backend/platform/db"
	"agrovet_backend/platform/logger"
	"agrovet_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Shared validator instance for dependency injection
	val := validator.New()

	// Storage service for diagnosis media (MinIO)
	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	mediaBucket := cfg.GetMinioBucketDiagnosisMedia()
	if err := withRetry(ctx, log, "ensure diagnosis-media bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, mediaBucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", mediaBucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "diagnosisMediaBucket", mediaBucket)

	// Task queue client for handing analysis work to the background worker
	sched, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer sched.Close()

	if !cfg.IsGeminiEnabled() {
		log.Warn("GEMINI_API_KEY not configured; AI analysis disabled")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	farmersModule := farmers.NewModule(pool, val)
	diagnosisModule := diagnosis.NewModule(pool, farmersModule.Repository(), storageSvc, mediaBucket, val)
	analysisModule := analysis.NewModule(diagnosisModule.Repository(), sched,
		cfg.GetGeminiModel(), cfg.IsGeminiEnabled(), log)
	catalogModule := catalog.NewModule(pool, val)
	retailersModule := retailers.NewModule(pool, catalogModule.Repository(), val)
	recommendationModule := recommendation.NewModule(diagnosisModule.Repository(),
		farmersModule.Repository(), catalogModule.Repository(), retailersModule.Repository())
	ordersModule := orders.NewModule(pool, farmersModule.Repository(), retailersModule.Repository(),
		catalogModule.Repository(), diagnosisModule.Repository(), val)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: db.NewPoolAdapter(pool),
		Modules: []apphttp.Module{
			farmersModule,
			diagnosisModule,
			analysisModule,
			recommendationModule,
			catalogModule,
			retailersModule,
			ordersModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
