package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/recordclean/internal/config"
	"github.com/stemsi/recordclean/internal/dedupe"
	"github.com/stemsi/recordclean/internal/model"
	"github.com/stemsi/recordclean/internal/repository"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnknownKind  = errors.New("unknown record kind")
	ErrRecordLocked = errors.New("record is locked by another writer")
	ErrPlanMismatch = errors.New("plan was computed for a different collection or kind")
)

// RecordStore is the storage collaborator: enumerate a collection and
// replace the semesters of one record. ReplaceSemesters must only write
// while the stored semesters still match revision, returning
// repository.ErrStaleRecord otherwise.
type RecordStore interface {
	Name() string
	FetchAll(ctx context.Context) ([]model.Record, []model.SkippedRecord, error)
	ReplaceSemesters(ctx context.Context, id string, revision []byte, semesters []model.Semester) (bool, error)
}

// RecordLocker keeps two writers off the same record.
type RecordLocker interface {
	Acquire(ctx context.Context, collection, recordID string) (release func(), ok bool, err error)
}

// NopLocker always grants the lock. Used when redis is not configured and
// writes are sequential anyway.
type NopLocker struct{}

func (NopLocker) Acquire(context.Context, string, string) (func(), bool, error) {
	return func() {}, true, nil
}

// CleanupService computes and applies cleanup plans for one collection.
type CleanupService struct {
	kind    model.Kind
	store   RecordStore
	locker  RecordLocker
	cleaner *dedupe.Cleaner
	workers int
	log     zerolog.Logger
}

func NewCleanupService(kind model.Kind, store RecordStore, locker RecordLocker, opts dedupe.Options, workers int, log zerolog.Logger) *CleanupService {
	if locker == nil {
		locker = NopLocker{}
	}
	return &CleanupService{
		kind:    kind,
		store:   store,
		locker:  locker,
		cleaner: dedupe.NewCleaner(opts),
		workers: max(workers, 1),
		log: log.With().
			Str("component", "cleanup_service").
			Str("kind", string(kind)).
			Str("collection", store.Name()).
			Logger(),
	}
}

// NewCleanupServiceFor builds the service for kind over store using the
// configured worker count and subject tie-break.
func NewCleanupServiceFor(kind model.Kind, cfg *config.Config, store RecordStore, locker RecordLocker, log zerolog.Logger) (*CleanupService, error) {
	opts := dedupe.OptionsFor(kind)
	tie, err := dedupe.ParseTieBreak(cfg.SubjectTieBreak)
	if err != nil {
		return nil, err
	}
	opts.SubjectTieBreak = tie
	return NewCleanupService(kind, store, locker, opts, cfg.Workers, log), nil
}

func (s *CleanupService) Kind() model.Kind {
	return s.kind
}

// Plan reads every record and computes its cleaned form without writing
// anything. Only records that actually change are included.
func (s *CleanupService) Plan(ctx context.Context) (*model.Plan, error) {
	start := time.Now()

	records, skipped, err := s.store.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}

	plan := &model.Plan{
		ID:          uuid.New().String(),
		Kind:        s.kind,
		Collection:  s.store.Name(),
		GeneratedAt: time.Now().UTC(),
		Scanned:     len(records) + len(skipped),
		Skipped:     skipped,
		Records:     []model.PlannedRecord{},
	}

	for _, sk := range skipped {
		s.log.Warn().Str("record_id", sk.RecordID).Str("reason", sk.Reason).Msg("Skipping undecodable record")
	}

	for _, rec := range records {
		cleaned, report := s.cleaner.Clean(rec)
		if cleaned == nil || !report.Changed() {
			continue
		}
		plan.Records = append(plan.Records, model.PlannedRecord{
			RecordID:  rec.ID,
			UserID:    rec.UserID,
			Report:    report,
			Semesters: cleaned.Semesters,
			Revision:  rec.Revision,
		})
		plan.Total.Add(report)
	}

	s.log.Info().
		Str("plan_id", plan.ID).
		Int("scanned", plan.Scanned).
		Int("to_update", len(plan.Records)).
		Int("removed", plan.Total.Removed()).
		Dur("took", time.Since(start)).
		Msg("Plan computed")

	return plan, nil
}

// Apply writes every planned record. A failed write is recorded in its
// outcome and never stops the remaining records.
func (s *CleanupService) Apply(ctx context.Context, plan *model.Plan) (*model.ApplyResult, error) {
	if plan.Kind != s.kind || plan.Collection != s.store.Name() {
		return nil, ErrPlanMismatch
	}

	result := &model.ApplyResult{
		PlanID:   plan.ID,
		Outcomes: make([]model.RecordOutcome, len(plan.Records)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, rec := range plan.Records {
		g.Go(func() error {
			result.Outcomes[i] = ApplyRecord(gctx, s.store, s.locker, rec, s.log)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range result.Outcomes {
		result.Count(o)
	}

	s.log.Info().
		Str("plan_id", plan.ID).
		Int("updated", result.Updated).
		Int("unchanged", result.Unchanged).
		Int("failed", result.Failed).
		Int("locked", result.Locked).
		Int("stale", result.Stale).
		Msg("Plan applied")

	return result, ctx.Err()
}

// ApplyRecord writes one planned record under its lock. The write is
// conditional on the record still holding the revision the plan was
// computed from, so data stored after the dry run is never overwritten.
func ApplyRecord(ctx context.Context, store RecordStore, locker RecordLocker, rec model.PlannedRecord, log zerolog.Logger) model.RecordOutcome {
	out := model.RecordOutcome{RecordID: rec.RecordID, UserID: rec.UserID}
	fail := func(err error) model.RecordOutcome {
		log.Error().Err(err).Str("record_id", rec.RecordID).Str("user_id", rec.UserID).Msg("Record write failed")
		out.Status = model.OutcomeFailed
		out.Error = err.Error()
		return out
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	release, ok, err := locker.Acquire(ctx, store.Name(), rec.RecordID)
	if err != nil {
		return fail(err)
	}
	if !ok {
		log.Warn().Str("record_id", rec.RecordID).Msg("Record locked, skipping")
		out.Status = model.OutcomeLocked
		out.Error = ErrRecordLocked.Error()
		return out
	}
	defer release()

	modified, err := store.ReplaceSemesters(ctx, rec.RecordID, rec.Revision, rec.Semesters)
	if errors.Is(err, repository.ErrStaleRecord) {
		log.Warn().Str("record_id", rec.RecordID).Msg("Record changed since the plan was computed, skipping")
		out.Status = model.OutcomeStale
		out.Error = err.Error()
		return out
	}
	if err != nil {
		return fail(err)
	}
	if !modified {
		out.Status = model.OutcomeUnchanged
		return out
	}
	out.Status = model.OutcomeUpdated
	return out
}
