package service

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"github.com/stemsi/recordclean/internal/model"
	"github.com/stemsi/recordclean/internal/repository"
)

type fakeStore struct {
	name     string
	records  []model.Record
	skipped  []model.SkippedRecord
	fetchErr error
	failIDs  map[string]error

	mu        sync.Mutex
	writes    map[string][]model.Semester
	revisions map[string][]byte
}

func newFakeStore(records ...model.Record) *fakeStore {
	revisions := make(map[string][]byte, len(records))
	for _, r := range records {
		revisions[r.ID] = r.Revision
	}
	return &fakeStore{
		name:      "attendances",
		records:   records,
		failIDs:   map[string]error{},
		writes:    map[string][]model.Semester{},
		revisions: revisions,
	}
}

// touch simulates another writer changing a record after it was read.
func (f *fakeStore) touch(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revisions[id] = append([]byte("changed:"), f.revisions[id]...)
}

func (f *fakeStore) Name() string { return f.name }

func (f *fakeStore) FetchAll(context.Context) ([]model.Record, []model.SkippedRecord, error) {
	if f.fetchErr != nil {
		return nil, nil, f.fetchErr
	}
	return f.records, f.skipped, nil
}

func (f *fakeStore) ReplaceSemesters(_ context.Context, id string, revision []byte, semesters []model.Semester) (bool, error) {
	if err := f.failIDs[id]; err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, done := f.writes[id]; done {
		return false, nil
	}
	if revision != nil && !bytes.Equal(revision, f.revisions[id]) {
		return false, repository.ErrStaleRecord
	}
	f.writes[id] = semesters
	f.revisions[id] = []byte("written")
	return true, nil
}

func (f *fakeStore) written() map[string][]model.Semester {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string][]model.Semester, len(f.writes))
	for k, v := range f.writes {
		out[k] = v
	}
	return out
}

type fakeLocker struct {
	held     map[string]bool
	err      error
	released []string
	mu       sync.Mutex
}

func (l *fakeLocker) Acquire(_ context.Context, _ string, id string) (func(), bool, error) {
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held[id] {
		return nil, false, nil
	}
	return func() {
		l.mu.Lock()
		l.released = append(l.released, id)
		l.mu.Unlock()
	}, true, nil
}

type fakePlanCache struct {
	mu    sync.Mutex
	plans map[string]*model.Plan
}

func (c *fakePlanCache) Save(_ context.Context, p *model.Plan) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plans[p.ID] = p
	return nil
}

func (c *fakePlanCache) Get(_ context.Context, id string) (*model.Plan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.plans[id]
	if !ok {
		return nil, errPlanMissing
	}
	return p, nil
}

func (c *fakePlanCache) Take(_ context.Context, id string) (*model.Plan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.plans[id]
	if !ok {
		return nil, errPlanMissing
	}
	delete(c.plans, id)
	return p, nil
}

var errPlanMissing = errors.New("plan missing")

type fakeRunQueue struct {
	mu       sync.Mutex
	jobs     []model.ApplyJob
	runs     map[string]*model.RunStatus
	startErr error
}

func (q *fakeRunQueue) Start(_ context.Context, runID, planID string, jobs []model.ApplyJob) error {
	if q.startErr != nil {
		return q.startErr
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, jobs...)
	q.runs[runID] = &model.RunStatus{RunID: runID, PlanID: planID, Queued: len(jobs)}
	return nil
}

func (q *fakeRunQueue) Get(_ context.Context, runID string) (*model.RunStatus, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	r, ok := q.runs[runID]
	if !ok {
		return nil, errors.New("run missing")
	}
	return r, nil
}
