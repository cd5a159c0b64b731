package model

// ChangeReport counts what one cleaning pass removed from a record, or from
// a whole collection once reports are summed with Add.
type ChangeReport struct {
	DuplicateSemesters int `json:"duplicate_semesters"`
	DuplicateMonths    int `json:"duplicate_months"`
	DuplicateSubjects  int `json:"duplicate_subjects"`
	InvalidSubjects    int `json:"invalid_subjects"`
	CumulativeSubjects int `json:"cumulative_subjects"`
	SubjectsBefore     int `json:"subjects_before"`
	SubjectsAfter      int `json:"subjects_after"`
}

// Removed is the total number of entries dropped at any level.
func (r ChangeReport) Removed() int {
	return r.DuplicateSemesters + r.DuplicateMonths + r.DuplicateSubjects +
		r.InvalidSubjects + r.CumulativeSubjects
}

// Changed reports whether the pass removed anything. A record that did not
// change must not be written.
func (r ChangeReport) Changed() bool {
	return r.Removed() > 0
}

// Add accumulates o into r.
func (r *ChangeReport) Add(o ChangeReport) {
	r.DuplicateSemesters += o.DuplicateSemesters
	r.DuplicateMonths += o.DuplicateMonths
	r.DuplicateSubjects += o.DuplicateSubjects
	r.InvalidSubjects += o.InvalidSubjects
	r.CumulativeSubjects += o.CumulativeSubjects
	r.SubjectsBefore += o.SubjectsBefore
	r.SubjectsAfter += o.SubjectsAfter
}
