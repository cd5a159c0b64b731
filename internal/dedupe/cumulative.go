package dedupe

import (
	"strings"

	"github.com/stemsi/recordclean/internal/model"
)

const cumulativeName = "cumulative"

// IsCumulative reports whether a subject is the synthetic "Cumulative"
// summary row, compared case-insensitively and without trimming.
func IsCumulative(s model.Subject) bool {
	return strings.EqualFold(s.SubjectName, cumulativeName)
}

// RemoveCumulative drops every cumulative row regardless of its other fields.
func RemoveCumulative(subjects []model.Subject) ([]model.Subject, int) {
	if len(subjects) == 0 {
		return subjects, 0
	}

	kept := make([]model.Subject, 0, len(subjects))
	for _, s := range subjects {
		if IsCumulative(s) {
			continue
		}
		kept = append(kept, s)
	}
	return kept, len(subjects) - len(kept)
}
