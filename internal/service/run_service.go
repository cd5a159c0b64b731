package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/recordclean/internal/model"
)

// ErrPlanEmpty is returned when a plan with no planned records is queued.
var ErrPlanEmpty = errors.New("plan has no records to apply")

// PlanCache stores computed plans between the dry run and the apply call.
type PlanCache interface {
	Save(ctx context.Context, plan *model.Plan) error
	Get(ctx context.Context, planID string) (*model.Plan, error)
	// Take atomically removes and returns a plan.
	Take(ctx context.Context, planID string) (*model.Plan, error)
}

// RunQueue hands planned writes to the apply worker and tracks progress.
type RunQueue interface {
	Start(ctx context.Context, runID, planID string, jobs []model.ApplyJob) error
	Get(ctx context.Context, runID string) (*model.RunStatus, error)
}

// RunService is the two-phase API behind the HTTP surface: plans are
// computed and cached, then queued for the apply worker on confirmation.
type RunService struct {
	cleanups map[model.Kind]*CleanupService
	plans    PlanCache
	runs     RunQueue
	log      zerolog.Logger
}

func NewRunService(plans PlanCache, runs RunQueue, log zerolog.Logger, cleanups ...*CleanupService) *RunService {
	byKind := make(map[model.Kind]*CleanupService, len(cleanups))
	for _, c := range cleanups {
		byKind[c.Kind()] = c
	}
	return &RunService{
		cleanups: byKind,
		plans:    plans,
		runs:     runs,
		log:      log.With().Str("component", "run_service").Logger(),
	}
}

// CreatePlan computes a fresh plan for kind and caches it.
func (s *RunService) CreatePlan(ctx context.Context, kind model.Kind) (*model.Plan, error) {
	cleanup, ok := s.cleanups[kind]
	if !ok {
		return nil, ErrUnknownKind
	}

	plan, err := cleanup.Plan(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.plans.Save(ctx, plan); err != nil {
		return nil, fmt.Errorf("cache plan: %w", err)
	}
	return plan, nil
}

func (s *RunService) GetPlan(ctx context.Context, planID string) (*model.Plan, error) {
	return s.plans.Get(ctx, planID)
}

// QueuePlan claims a cached plan and enqueues every record of it. The plan
// is removed as it is claimed, so it is queued at most once; it is put back
// when nothing could be queued.
func (s *RunService) QueuePlan(ctx context.Context, planID string) (*model.RunStatus, error) {
	plan, err := s.plans.Take(ctx, planID)
	if err != nil {
		return nil, err
	}
	if len(plan.Records) == 0 {
		s.restore(ctx, plan)
		return nil, ErrPlanEmpty
	}

	runID := uuid.New().String()
	jobs := make([]model.ApplyJob, 0, len(plan.Records))
	for _, rec := range plan.Records {
		jobs = append(jobs, model.ApplyJob{
			RunID:      runID,
			Kind:       plan.Kind,
			Collection: plan.Collection,
			RecordID:   rec.RecordID,
			UserID:     rec.UserID,
			Semesters:  rec.Semesters,
			Revision:   rec.Revision,
		})
	}

	if err := s.runs.Start(ctx, runID, plan.ID, jobs); err != nil {
		s.restore(ctx, plan)
		return nil, err
	}

	s.log.Info().
		Str("run_id", runID).
		Str("plan_id", plan.ID).
		Int("queued", len(jobs)).
		Msg("Plan queued")

	return &model.RunStatus{RunID: runID, PlanID: plan.ID, Queued: len(jobs)}, nil
}

func (s *RunService) restore(ctx context.Context, plan *model.Plan) {
	if err := s.plans.Save(ctx, plan); err != nil {
		s.log.Warn().Err(err).Str("plan_id", plan.ID).Msg("Failed to restore plan")
	}
}

func (s *RunService) GetRun(ctx context.Context, runID string) (*model.RunStatus, error) {
	return s.runs.Get(ctx, runID)
}
