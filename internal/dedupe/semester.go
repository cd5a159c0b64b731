package dedupe

import "github.com/stemsi/recordclean/internal/model"

// DedupeSemesters keeps the latest entry for every semester number. Entries
// without a number share the absent key and collapse among themselves.
// Non-integer values such as "3" are keys of their own.
func DedupeSemesters(semesters []model.Semester, order Order) ([]model.Semester, int) {
	return keepLatest(semesters, func(s model.Semester) string { return s.Semester.Key() }, order)
}
