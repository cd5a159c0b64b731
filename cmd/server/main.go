package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/recordclean/internal/config"
	"github.com/stemsi/recordclean/internal/database"
	"github.com/stemsi/recordclean/internal/handler"
	"github.com/stemsi/recordclean/internal/logger"
	"github.com/stemsi/recordclean/internal/model"
	"github.com/stemsi/recordclean/internal/repository"
	"github.com/stemsi/recordclean/internal/router"
	"github.com/stemsi/recordclean/internal/service"
	"github.com/stemsi/recordclean/internal/validator"
	"github.com/stemsi/recordclean/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("storage", cfg.StorageDriver).
		Int("workers", cfg.Workers).
		Msg("Starting record cleanup server")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to Record Store ───────────────────────────────────────
	backend, err := repository.OpenBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to record store")
	}
	defer backend.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	// Plans, the apply queue and run counters all live in redis.
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	if rdb == nil {
		log.Fatal().Msg("REDIS_URL is required by the server")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	lockRepo := repository.NewRecordLockRepository(rdb, cfg.LockTTL)
	planRepo := repository.NewPlanRepository(rdb, cfg.PlanTTL)
	runRepo := repository.NewRunRepository(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg)

	kinds := []model.Kind{model.KindAttendance, model.KindIat, model.KindCumulative}
	cleanups := make([]*service.CleanupService, 0, len(kinds))
	for _, kind := range kinds {
		svc, err := service.NewCleanupServiceFor(kind, cfg, backend.Records(cfg.Collection(kind)), lockRepo, log)
		if err != nil {
			log.Fatal().Err(err).Str("kind", string(kind)).Msg("Invalid cleanup configuration")
		}
		cleanups = append(cleanups, svc)
	}
	runService := service.NewRunService(planRepo, runRepo, log, cleanups...)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Cleanup: handler.NewCleanupHandler(runService, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	stores := func(collection string) service.RecordStore {
		return backend.Records(collection)
	}
	for range cfg.Workers {
		applyWorker := worker.NewApplyWorker(rdb, stores, lockRepo, runRepo, log)
		workers.Go(func() { applyWorker.Start(workerCtx) })
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop apply workers. A job already popped finishes its write first.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
