package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"aduanas_portal_backend/internal/adapters/storage"
	"aduanas_portal_backend/internal/aforo"
	"aduanas_portal_backend/internal/auth"
	"aduanas_portal_backend/internal/documents"
	"aduanas_portal_backend/internal/email"
	apphttp "aduanas_portal_backend/internal/http"
	"aduanas_portal_backend/internal/http/router"
	"aduanas_portal_backend/internal/notification"
	"aduanas_portal_backend/internal/reports"
	"aduanas_portal_backend/internal/scheduler"
	"aduanas_portal_backend/internal/validaciones"
	"aduanas_portal_backend/internal/worksheets"
	"aduanas_portal_backend/platform/config"
	"aduanas_portal_backend/platform/db"
	"aduanas_portal_backend/platform/events"
	"aduanas_portal_backend/platform/logger"
	"aduanas_portal_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

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

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	sender := initEmailSender(cfg, log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Object storage for case document attachments
	storageSvc, storageEnabled := initStorage(ctx, cfg, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events (not HTTP-facing)
	notification.NewModule(pool, eventBus, sender, log)

	authModule := auth.NewModule(pool, cfg, val, log)
	worksheetsModule := worksheets.NewModule(pool, val, log, eventBus)
	aforoModule := aforo.NewModule(pool, val, log, eventBus)
	validacionesModule := validaciones.NewModule(pool, val, log, eventBus)
	reportsModule := reports.NewModule(pool, aforoModule.Repository(), val)
	documentsModule := documents.NewModule(
		pool, aforoModule.Repository(),
		storageSvc, cfg.GetMinioBucketCaseDocuments(), storageEnabled,
		val, log,
	)

	// Dispatch pending notification outbox rows from the API process too, so
	// single-process deployments deliver without a separate scheduler.
	if cfg.GetRedisURL() != "" {
		dispatcher, err := scheduler.NewOutboxDispatcher(cfg, pool, log)
		if err != nil {
			log.Warn("outbox dispatcher disabled", "error", err)
		} else {
			defer func() { _ = dispatcher.Close() }()
			go dispatcher.Run(ctx)
		}
	} else {
		log.Warn("REDIS_URL not configured; notification dispatch disabled")
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			authModule,
			worksheetsModule,
			aforoModule,
			validacionesModule,
			documentsModule,
			reportsModule,
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

func initEmailSender(cfg *config.Config, log *logger.Logger) email.Sender {
	if !cfg.GetEmailEnabled() || cfg.GetSMTPHost() == "" {
		log.Warn("email disabled; notifications will be recorded but not delivered")
		return email.NoopSender{}
	}
	return email.NewSMTPSender(cfg)
}

func initStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (storage.Service, bool) {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MinIO not configured; document attachments disabled")
		return nil, false
	}

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}

	bucket := cfg.GetMinioBucketCaseDocuments()
	if err := withRetry(ctx, log, "ensure case-documents bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}

	log.Info("storage service initialized", "caseDocumentsBucket", bucket)
	return storageSvc, true
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
