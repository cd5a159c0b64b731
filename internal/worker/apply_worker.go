package worker

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/recordclean/internal/config"
	"github.com/stemsi/recordclean/internal/model"
	"github.com/stemsi/recordclean/internal/service"
)

// RunRecorder counts finished jobs against their run.
type RunRecorder interface {
	Record(ctx context.Context, runID string, status model.OutcomeStatus) error
}

// ApplyWorker consumes cleanup_apply_queue and rewrites one record per job.
// A failed write is counted and dropped; it is never retried.
type ApplyWorker struct {
	rdb    *redis.Client
	stores func(collection string) service.RecordStore
	locker service.RecordLocker
	runs   RunRecorder
	log    zerolog.Logger
}

// NewApplyWorker creates a new ApplyWorker.
func NewApplyWorker(rdb *redis.Client, stores func(collection string) service.RecordStore, locker service.RecordLocker, runs RunRecorder, log zerolog.Logger) *ApplyWorker {
	return &ApplyWorker{
		rdb:    rdb,
		stores: stores,
		locker: locker,
		runs:   runs,
		log:    log.With().Str("component", "apply_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *ApplyWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *ApplyWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.CleanupApplyQueue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	// The job is already off the queue, so finish it even during shutdown.
	w.Handle(context.WithoutCancel(ctx), []byte(result[1]))
}

// Handle decodes and applies one queued job.
func (w *ApplyWorker) Handle(ctx context.Context, payload []byte) model.RecordOutcome {
	var job model.ApplyJob
	if err := model.UnmarshalPayload(payload, &job); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return model.RecordOutcome{Status: model.OutcomeFailed, Error: err.Error()}
	}

	outcome := service.ApplyRecord(ctx, w.stores(job.Collection), w.locker, model.PlannedRecord{
		RecordID:  job.RecordID,
		UserID:    job.UserID,
		Semesters: job.Semesters,
		Revision:  job.Revision,
	}, w.log)

	if err := w.runs.Record(ctx, job.RunID, outcome.Status); err != nil {
		w.log.Error().Err(err).Str("run_id", job.RunID).Msg("Failed to record outcome")
	}

	w.log.Debug().
		Str("run_id", job.RunID).
		Str("record_id", job.RecordID).
		Str("status", string(outcome.Status)).
		Msg("Job applied")

	return outcome
}
