package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/recordclean/internal/config"
	"github.com/stemsi/recordclean/internal/model"
)

// PlanRepository caches computed plans in redis until they are applied.
type PlanRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewPlanRepository(rdb *redis.Client, ttl time.Duration) *PlanRepository {
	return &PlanRepository{rdb: rdb, ttl: ttl}
}

func (r *PlanRepository) Save(ctx context.Context, plan *model.Plan) error {
	data, err := model.MarshalPayload(plan)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	return r.rdb.Set(ctx, config.CacheKey.PlanKey(plan.ID), data, r.ttl).Err()
}

func (r *PlanRepository) Get(ctx context.Context, planID string) (*model.Plan, error) {
	return r.load(r.rdb.Get(ctx, config.CacheKey.PlanKey(planID)))
}

// Take removes a plan and returns it in one GETDEL, so concurrent apply
// calls cannot both claim the same plan.
func (r *PlanRepository) Take(ctx context.Context, planID string) (*model.Plan, error) {
	return r.load(r.rdb.GetDel(ctx, config.CacheKey.PlanKey(planID)))
}

func (r *PlanRepository) load(cmd *redis.StringCmd) (*model.Plan, error) {
	data, err := cmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}

	var plan model.Plan
	if err := model.UnmarshalPayload(data, &plan); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	return &plan, nil
}
