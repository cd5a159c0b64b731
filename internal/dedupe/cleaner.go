package dedupe

import (
	"slices"

	"github.com/stemsi/recordclean/internal/model"
)

// Options selects the stages a Cleaner runs.
type Options struct {
	Semesters       bool
	Months          bool
	Subjects        bool
	DropCumulative  bool
	SemesterOrder   Order
	SubjectTieBreak TieBreak
}

// AttendanceOptions runs all three stages with the default tie-breaks.
func AttendanceOptions() Options {
	return Options{Semesters: true, Months: true, Subjects: true}
}

// IatOptions collapses semesters only. Assessment records keep surviving
// semesters at the position of their latest occurrence.
func IatOptions() Options {
	return Options{Semesters: true, SemesterOrder: LastSeen}
}

// CumulativeOptions only strips cumulative summary rows.
func CumulativeOptions() Options {
	return Options{DropCumulative: true}
}

// OptionsFor returns the stage set for a record kind.
func OptionsFor(kind model.Kind) Options {
	switch kind {
	case model.KindIat:
		return IatOptions()
	case model.KindCumulative:
		return CumulativeOptions()
	default:
		return AttendanceOptions()
	}
}

// Cleaner applies a fixed set of stages to records.
type Cleaner struct {
	opts Options
}

// NewCleaner returns a Cleaner for opts.
func NewCleaner(opts Options) *Cleaner {
	return &Cleaner{opts: opts}
}

// Options returns the stage set of the cleaner.
func (c *Cleaner) Options() Options {
	return c.opts
}

// CleanRecord runs the attendance pipeline with default options.
func CleanRecord(r model.Record) (*model.Record, model.ChangeReport) {
	return NewCleaner(AttendanceOptions()).Clean(r)
}

// Clean returns the rebuilt record and what was removed. A record without
// semesters yields nil and a zero report. The input is never modified.
func (c *Cleaner) Clean(r model.Record) (*model.Record, model.ChangeReport) {
	var report model.ChangeReport
	if len(r.Semesters) == 0 {
		return nil, report
	}
	report.SubjectsBefore = r.SubjectCount()

	semesters := slices.Clone(r.Semesters)
	if c.opts.Semesters {
		semesters, report.DuplicateSemesters = DedupeSemesters(semesters, c.opts.SemesterOrder)
	}
	if c.opts.Months || c.opts.Subjects || c.opts.DropCumulative {
		for i := range semesters {
			semesters[i] = c.cleanSemester(semesters[i], &report)
		}
	}

	out := r
	out.Semesters = semesters
	report.SubjectsAfter = out.SubjectCount()
	return &out, report
}

func (c *Cleaner) cleanSemester(s model.Semester, report *model.ChangeReport) model.Semester {
	months := slices.Clone(s.Months)
	if c.opts.Months {
		var dropped int
		months, dropped = DedupeMonths(months)
		report.DuplicateMonths += dropped
	}
	for i := range months {
		months[i] = c.cleanMonth(months[i], report)
	}
	s.Months = months
	return s
}

func (c *Cleaner) cleanMonth(m model.Month, report *model.ChangeReport) model.Month {
	subjects := m.Subjects
	if c.opts.DropCumulative {
		var dropped int
		subjects, dropped = RemoveCumulative(subjects)
		report.CumulativeSubjects += dropped
	}
	if c.opts.Subjects {
		var invalid, duplicates int
		subjects, invalid, duplicates = CleanSubjects(subjects, c.opts.SubjectTieBreak)
		report.InvalidSubjects += invalid
		report.DuplicateSubjects += duplicates
	}
	m.Subjects = subjects
	return m
}
