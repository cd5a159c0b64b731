package dedupe

import "github.com/stemsi/recordclean/internal/model"

// DedupeMonths keeps the latest entry for every month number within one
// semester, emitted in first-seen order.
func DedupeMonths(months []model.Month) ([]model.Month, int) {
	return keepLatest(months, func(m model.Month) string { return m.Month.Key() }, FirstSeen)
}
