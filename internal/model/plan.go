package model

import "time"

// Kind selects which cleaning pipeline runs over a collection.
type Kind string

const (
	KindAttendance Kind = "attendance"
	KindIat        Kind = "iat"
	KindCumulative Kind = "cumulative"
)

// ParseKind validates a kind name coming from a URL or CLI argument.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindAttendance, KindIat, KindCumulative:
		return k, true
	}
	return "", false
}

// PlannedRecord is a record that needs rewriting, with its cleaned semesters.
type PlannedRecord struct {
	RecordID  string       `json:"record_id"`
	UserID    string       `json:"user_id"`
	Report    ChangeReport `json:"report"`
	Semesters []Semester   `json:"semesters"`
	Revision  []byte       `json:"-" bson:"revision,omitempty"`
}

// Plan is the dry-run result over one collection. Computing a plan never
// writes; applying it is a separate step.
type Plan struct {
	ID          string          `json:"id"`
	Kind        Kind            `json:"kind"`
	Collection  string          `json:"collection"`
	GeneratedAt time.Time       `json:"generated_at"`
	Scanned     int             `json:"scanned"`
	Skipped     []SkippedRecord `json:"skipped,omitempty"`
	Records     []PlannedRecord `json:"records"`
	Total       ChangeReport    `json:"total"`
}

// SkippedRecord is a stored document that could not be decoded.
type SkippedRecord struct {
	RecordID string `json:"record_id"`
	Reason   string `json:"reason"`
}

// OutcomeStatus is the result of writing one planned record.
type OutcomeStatus string

const (
	OutcomeUpdated   OutcomeStatus = "updated"
	OutcomeUnchanged OutcomeStatus = "unchanged"
	OutcomeFailed    OutcomeStatus = "failed"
	OutcomeLocked    OutcomeStatus = "locked"
	// OutcomeStale means the record changed after the plan was computed and
	// was left as it is.
	OutcomeStale OutcomeStatus = "stale"
)

// RecordOutcome reports the write of a single record.
type RecordOutcome struct {
	RecordID string        `json:"record_id"`
	UserID   string        `json:"user_id"`
	Status   OutcomeStatus `json:"status"`
	Error    string        `json:"error,omitempty"`
}

// ApplyResult collects the outcomes of applying a plan, in plan order.
type ApplyResult struct {
	PlanID    string          `json:"plan_id"`
	Outcomes  []RecordOutcome `json:"outcomes"`
	Updated   int             `json:"updated"`
	Unchanged int             `json:"unchanged"`
	Failed    int             `json:"failed"`
	Locked    int             `json:"locked"`
	Stale     int             `json:"stale"`
}

// Count tallies an outcome into the result totals.
func (r *ApplyResult) Count(o RecordOutcome) {
	switch o.Status {
	case OutcomeUpdated:
		r.Updated++
	case OutcomeUnchanged:
		r.Unchanged++
	case OutcomeFailed:
		r.Failed++
	case OutcomeLocked:
		r.Locked++
	case OutcomeStale:
		r.Stale++
	}
}

// ApplyJob is one record write queued for the apply worker.
type ApplyJob struct {
	RunID      string     `json:"run_id"`
	Kind       Kind       `json:"kind"`
	Collection string     `json:"collection"`
	RecordID   string     `json:"record_id"`
	UserID     string     `json:"user_id"`
	Semesters  []Semester `json:"semesters"`
	Revision   []byte     `json:"-" bson:"revision,omitempty"`
}

// RunStatus holds the counters of a queued apply run.
type RunStatus struct {
	RunID     string `json:"run_id"`
	PlanID    string `json:"plan_id"`
	Queued    int    `json:"queued"`
	Updated   int    `json:"updated"`
	Unchanged int    `json:"unchanged"`
	Failed    int    `json:"failed"`
	Locked    int    `json:"locked"`
	Stale     int    `json:"stale"`
}

// ApplyPlanRequest is the payload for applying a cached plan.
type ApplyPlanRequest struct {
	Confirm bool `json:"confirm" binding:"confirmed"`
}
