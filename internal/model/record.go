package model

import "encoding/json"

// Record is one user's attendance or assessment document.
// ID and UserID are rendered as strings regardless of how the store keys them.
type Record struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Semesters []Semester `json:"semesters"`
	// Revision is the semesters field exactly as the store returned it, in
	// the store's own encoding. A conditional write succeeds only while the
	// store still holds this value.
	Revision []byte `json:"-"`
}

// Semester groups the months of one academic semester.
type Semester struct {
	Semester Count   `json:"semester,omitzero" bson:"semester,omitempty"`
	Months   []Month `json:"months,omitempty" bson:"months,omitempty"`
	Extra    Extra   `json:"-" bson:",inline"`
}

// Month groups the subject entries uploaded for one calendar month.
type Month struct {
	Month    Count     `json:"month,omitzero" bson:"month,omitempty"`
	Subjects []Subject `json:"subjects,omitempty" bson:"subjects,omitempty"`
	Extra    Extra     `json:"-" bson:",inline"`
}

// Subject is a single attendance line. It has no identity beyond its fields.
type Subject struct {
	SubjectCode     string `json:"subjectCode,omitempty" bson:"subjectCode,omitempty"`
	SubjectName     string `json:"subjectName,omitempty" bson:"subjectName,omitempty"`
	AttendedClasses Count  `json:"attendedClasses,omitzero" bson:"attendedClasses,omitempty"`
	TotalClasses    Count  `json:"totalClasses,omitzero" bson:"totalClasses,omitempty"`
	Extra           Extra  `json:"-" bson:",inline"`
}

// SubjectCount returns the number of subject entries across all months.
func (r Record) SubjectCount() int {
	n := 0
	for _, s := range r.Semesters {
		for _, m := range s.Months {
			n += len(m.Subjects)
		}
	}
	return n
}

func (s *Semester) UnmarshalJSON(data []byte) error {
	type plain Semester
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraFields(data, "semester", "months")
	if err != nil {
		return err
	}
	p.Extra = extra
	*s = Semester(p)
	return nil
}

func (s Semester) MarshalJSON() ([]byte, error) {
	type plain Semester
	return marshalWithExtra(plain(s), s.Extra)
}

func (m *Month) UnmarshalJSON(data []byte) error {
	type plain Month
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraFields(data, "month", "subjects")
	if err != nil {
		return err
	}
	p.Extra = extra
	*m = Month(p)
	return nil
}

func (m Month) MarshalJSON() ([]byte, error) {
	type plain Month
	return marshalWithExtra(plain(m), m.Extra)
}

func (s *Subject) UnmarshalJSON(data []byte) error {
	type plain Subject
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraFields(data, "subjectCode", "subjectName", "attendedClasses", "totalClasses")
	if err != nil {
		return err
	}
	p.Extra = extra
	*s = Subject(p)
	return nil
}

func (s Subject) MarshalJSON() ([]byte, error) {
	type plain Subject
	return marshalWithExtra(plain(s), s.Extra)
}
