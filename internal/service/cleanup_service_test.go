package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/recordclean/internal/config"
	"github.com/stemsi/recordclean/internal/dedupe"
	"github.com/stemsi/recordclean/internal/model"
	"github.com/stemsi/recordclean/internal/repository"
)

func subj(code, name string, attended, total int) model.Subject {
	return model.Subject{
		SubjectCode:     code,
		SubjectName:     name,
		AttendedClasses: model.Int(attended),
		TotalClasses:    model.Int(total),
	}
}

func dirtyRecord(id string) model.Record {
	return model.Record{
		ID:       id,
		UserID:   "user-" + id,
		Revision: []byte("rev-" + id),
		Semesters: []model.Semester{
			{Semester: model.Int(1)},
			{Semester: model.Int(1), Months: []model.Month{
				{Month: model.Int(2), Subjects: []model.Subject{subj("A", "Alpha", 1, 2), subj("A", "Alpha", 2, 2)}},
			}},
		},
	}
}

func cleanRecord(id string) model.Record {
	return model.Record{
		ID: id,
		Semesters: []model.Semester{
			{Semester: model.Int(1), Months: []model.Month{
				{Month: model.Int(2), Subjects: []model.Subject{subj("A", "Alpha", 1, 2)}},
			}},
		},
	}
}

func newService(store *fakeStore, locker RecordLocker, workers int) *CleanupService {
	return NewCleanupService(model.KindAttendance, store, locker, dedupe.AttendanceOptions(), workers, zerolog.Nop())
}

func TestPlan_OnlyChangedRecords(t *testing.T) {
	store := newFakeStore(dirtyRecord("r1"), cleanRecord("r2"), model.Record{ID: "r3"}, dirtyRecord("r4"))
	store.skipped = []model.SkippedRecord{{RecordID: "bad", Reason: "decode"}}
	svc := newService(store, nil, 1)

	plan, err := svc.Plan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, plan.Scanned)
	assert.Equal(t, "attendances", plan.Collection)
	assert.Equal(t, model.KindAttendance, plan.Kind)
	require.Len(t, plan.Records, 2)
	assert.Equal(t, "r1", plan.Records[0].RecordID)
	assert.Equal(t, "user-r1", plan.Records[0].UserID)
	assert.Equal(t, "r4", plan.Records[1].RecordID)
	assert.Equal(t, 2, plan.Total.DuplicateSemesters)
	assert.Equal(t, 2, plan.Total.DuplicateSubjects)
	assert.Len(t, plan.Skipped, 1)
	assert.NotEmpty(t, plan.ID)
}

func TestPlan_NeverWrites(t *testing.T) {
	store := newFakeStore(dirtyRecord("r1"))
	svc := newService(store, nil, 1)

	_, err := svc.Plan(context.Background())
	require.NoError(t, err)

	assert.Empty(t, store.written())
}

func TestPlan_FetchError(t *testing.T) {
	store := newFakeStore()
	store.fetchErr = errors.New("connection refused")

	_, err := newService(store, nil, 1).Plan(context.Background())

	assert.ErrorContains(t, err, "connection refused")
}

func TestApply_ContinuesPastFailures(t *testing.T) {
	store := newFakeStore(dirtyRecord("r1"), dirtyRecord("r2"), dirtyRecord("r3"))
	store.failIDs["r2"] = errors.New("write conflict")
	svc := newService(store, nil, 1)

	plan, err := svc.Plan(context.Background())
	require.NoError(t, err)

	result, err := svc.Apply(context.Background(), plan)
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 3)
	assert.Equal(t, model.OutcomeUpdated, result.Outcomes[0].Status)
	assert.Equal(t, model.OutcomeFailed, result.Outcomes[1].Status)
	assert.Equal(t, "write conflict", result.Outcomes[1].Error)
	assert.Equal(t, model.OutcomeUpdated, result.Outcomes[2].Status)
	assert.Equal(t, 2, result.Updated)
	assert.Equal(t, 1, result.Failed)

	written := store.written()
	assert.Len(t, written, 2)
	assert.Len(t, written["r1"], 1)
}

func TestApply_ParallelKeepsPlanOrder(t *testing.T) {
	var records []model.Record
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		records = append(records, dirtyRecord(id))
	}
	store := newFakeStore(records...)
	svc := newService(store, nil, 4)

	plan, err := svc.Plan(context.Background())
	require.NoError(t, err)
	result, err := svc.Apply(context.Background(), plan)
	require.NoError(t, err)

	for i, o := range result.Outcomes {
		assert.Equal(t, plan.Records[i].RecordID, o.RecordID)
		assert.Equal(t, model.OutcomeUpdated, o.Status)
	}
	assert.Equal(t, 6, result.Updated)
}

func TestApply_LockedRecordIsSkipped(t *testing.T) {
	store := newFakeStore(dirtyRecord("r1"), dirtyRecord("r2"))
	locker := &fakeLocker{held: map[string]bool{"r1": true}}
	svc := newService(store, locker, 1)

	plan, err := svc.Plan(context.Background())
	require.NoError(t, err)
	result, err := svc.Apply(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, model.OutcomeLocked, result.Outcomes[0].Status)
	assert.Equal(t, model.OutcomeUpdated, result.Outcomes[1].Status)
	assert.Equal(t, []string{"r2"}, locker.released)
	assert.NotContains(t, store.written(), "r1")
}

func TestApply_RecordChangedAfterPlanIsNotOverwritten(t *testing.T) {
	store := newFakeStore(dirtyRecord("r1"), dirtyRecord("r2"))
	svc := newService(store, nil, 1)

	plan, err := svc.Plan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("rev-r1"), plan.Records[0].Revision)

	// A new month is uploaded to r1 between the dry run and the write.
	store.touch("r1")

	result, err := svc.Apply(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, model.OutcomeStale, result.Outcomes[0].Status)
	assert.Equal(t, repository.ErrStaleRecord.Error(), result.Outcomes[0].Error)
	assert.Equal(t, model.OutcomeUpdated, result.Outcomes[1].Status)
	assert.Equal(t, 1, result.Stale)
	assert.Equal(t, 1, result.Updated)
	assert.NotContains(t, store.written(), "r1")
}

func TestApply_SecondApplyIsUnchanged(t *testing.T) {
	store := newFakeStore(dirtyRecord("r1"))
	svc := newService(store, nil, 1)

	plan, err := svc.Plan(context.Background())
	require.NoError(t, err)
	_, err = svc.Apply(context.Background(), plan)
	require.NoError(t, err)

	result, err := svc.Apply(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Unchanged)
}

func TestApply_RejectsForeignPlan(t *testing.T) {
	svc := newService(newFakeStore(), nil, 1)

	_, err := svc.Apply(context.Background(), &model.Plan{Kind: model.KindIat, Collection: "attendances"})

	assert.ErrorIs(t, err, ErrPlanMismatch)
}

func TestApply_CancelledContextFailsRemaining(t *testing.T) {
	store := newFakeStore(dirtyRecord("r1"))
	svc := newService(store, nil, 1)
	plan, err := svc.Plan(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := svc.Apply(ctx, plan)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, result.Failed)
	assert.Empty(t, store.written())
}

func TestApplyRecord_LockError(t *testing.T) {
	store := newFakeStore()
	locker := &fakeLocker{err: errors.New("redis down")}

	out := ApplyRecord(context.Background(), store, locker, model.PlannedRecord{RecordID: "r1"}, zerolog.Nop())

	assert.Equal(t, model.OutcomeFailed, out.Status)
	assert.Equal(t, "redis down", out.Error)
}

func TestNewCleanupServiceFor(t *testing.T) {
	store := newFakeStore()

	svc, err := NewCleanupServiceFor(model.KindIat, &config.Config{Workers: 3, SubjectTieBreak: "last"}, store, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, model.KindIat, svc.Kind())
	assert.Equal(t, 3, svc.workers)
	assert.Equal(t, dedupe.LastSeen, svc.cleaner.Options().SemesterOrder)
	assert.Equal(t, dedupe.LastWins, svc.cleaner.Options().SubjectTieBreak)

	_, err = NewCleanupServiceFor(model.KindAttendance, &config.Config{SubjectTieBreak: "middle"}, store, nil, zerolog.Nop())
	assert.Error(t, err)
}
