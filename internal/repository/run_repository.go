package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/recordclean/internal/config"
	"github.com/stemsi/recordclean/internal/model"
)

const runTTL = 24 * time.Hour

// RunRepository queues apply jobs and keeps per-run counters in a redis hash.
type RunRepository struct {
	rdb *redis.Client
}

func NewRunRepository(rdb *redis.Client) *RunRepository {
	return &RunRepository{rdb: rdb}
}

// Start registers a run and pushes its jobs onto the apply queue atomically.
func (r *RunRepository) Start(ctx context.Context, runID, planID string, jobs []model.ApplyJob) error {
	payloads := make([]any, 0, len(jobs))
	for _, job := range jobs {
		data, err := model.MarshalPayload(job)
		if err != nil {
			return fmt.Errorf("encode job %s: %w", job.RecordID, err)
		}
		payloads = append(payloads, data)
	}

	key := config.CacheKey.RunKey(runID)
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "plan_id", planID, "queued", len(jobs))
		pipe.Expire(ctx, key, runTTL)
		if len(payloads) > 0 {
			pipe.RPush(ctx, config.WorkerKey.CleanupApplyQueue, payloads...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	return nil
}

// Record counts one finished job against its run.
func (r *RunRepository) Record(ctx context.Context, runID string, status model.OutcomeStatus) error {
	return r.rdb.HIncrBy(ctx, config.CacheKey.RunKey(runID), string(status), 1).Err()
}

func (r *RunRepository) Get(ctx context.Context, runID string) (*model.RunStatus, error) {
	fields, err := r.rdb.HGetAll(ctx, config.CacheKey.RunKey(runID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrRunNotFound
	}

	atoi := func(k string) int {
		n, _ := strconv.Atoi(fields[k])
		return n
	}
	return &model.RunStatus{
		RunID:     runID,
		PlanID:    fields["plan_id"],
		Queued:    atoi("queued"),
		Updated:   atoi(string(model.OutcomeUpdated)),
		Unchanged: atoi(string(model.OutcomeUnchanged)),
		Failed:    atoi(string(model.OutcomeFailed)),
		Locked:    atoi(string(model.OutcomeLocked)),
		Stale:     atoi(string(model.OutcomeStale)),
	}, nil
}
