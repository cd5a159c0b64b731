package dedupe

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/stemsi/recordclean/internal/model"
)

// TieBreak decides which duplicate subject survives.
type TieBreak int

const (
	// FirstWins keeps the earliest valid occurrence. This is the observed
	// behaviour and the default, even though semesters and months keep the latest.
	FirstWins TieBreak = iota
	// LastWins keeps the latest occurrence at the first occurrence's position.
	LastWins
)

// IsInvalidSubject reports whether a subject entry is structurally unusable:
// a purely numeric name, a missing class count, zero total classes or an
// empty name. A count holding a non-integer value such as "No Data" is
// present, not missing.
func IsInvalidSubject(s model.Subject) bool {
	name := strings.TrimSpace(s.SubjectName)
	if name != "" && isDigits(name) {
		return true
	}
	if s.AttendedClasses.IsMissing() || s.TotalClasses.IsMissing() {
		return true
	}
	if s.TotalClasses.Valid && s.TotalClasses.N == 0 {
		return true
	}
	return name == ""
}

// SubjectKey is the trimmed subject code, falling back to the trimmed name.
func SubjectKey(s model.Subject) string {
	if code := strings.TrimSpace(s.SubjectCode); code != "" {
		return code
	}
	return strings.TrimSpace(s.SubjectName)
}

// CleanSubjects drops invalid entries, then collapses the remaining ones by
// SubjectKey. Invalid entries never take part in duplicate detection.
func CleanSubjects(subjects []model.Subject, tie TieBreak) (kept []model.Subject, invalid, duplicates int) {
	if len(subjects) == 0 {
		return subjects, 0, 0
	}

	valid := make([]model.Subject, 0, len(subjects))
	for _, s := range subjects {
		if IsInvalidSubject(s) {
			invalid++
			continue
		}
		valid = append(valid, s)
	}

	if tie == LastWins {
		kept, duplicates = keepLatest(valid, SubjectKey, FirstSeen)
		return kept, invalid, duplicates
	}

	seen := make(map[string]struct{}, len(valid))
	kept = make([]model.Subject, 0, len(valid))
	for _, s := range valid {
		key := SubjectKey(s)
		if _, dup := seen[key]; dup {
			duplicates++
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, s)
	}
	return kept, invalid, duplicates
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && !unicode.Is(digitLike, r) {
			return false
		}
	}
	return true
}

// digitLike holds the digit-valued runes outside Nd: superscripts,
// subscripts, circled and parenthesized digits.
var digitLike = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x00b2, Hi: 0x00b3, Stride: 1},
		{Lo: 0x00b9, Hi: 0x00b9, Stride: 1},
		{Lo: 0x1369, Hi: 0x1371, Stride: 1},
		{Lo: 0x19da, Hi: 0x19da, Stride: 1},
		{Lo: 0x2070, Hi: 0x2070, Stride: 1},
		{Lo: 0x2074, Hi: 0x2079, Stride: 1},
		{Lo: 0x2080, Hi: 0x2089, Stride: 1},
		{Lo: 0x2460, Hi: 0x2468, Stride: 1},
		{Lo: 0x2474, Hi: 0x247c, Stride: 1},
		{Lo: 0x2488, Hi: 0x2490, Stride: 1},
		{Lo: 0x24ea, Hi: 0x24ea, Stride: 1},
		{Lo: 0x24f5, Hi: 0x24fd, Stride: 1},
		{Lo: 0x24ff, Hi: 0x24ff, Stride: 1},
		{Lo: 0x2776, Hi: 0x277e, Stride: 1},
		{Lo: 0x2780, Hi: 0x2788, Stride: 1},
		{Lo: 0x278a, Hi: 0x2792, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x10a40, Hi: 0x10a43, Stride: 1},
		{Lo: 0x10e60, Hi: 0x10e68, Stride: 1},
		{Lo: 0x11052, Hi: 0x1105a, Stride: 1},
		{Lo: 0x1f100, Hi: 0x1f10a, Stride: 1},
	},
	LatinOffset: 2,
}

// ParseTieBreak maps "first"/"last" to a TieBreak.
func ParseTieBreak(s string) (TieBreak, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first":
		return FirstWins, nil
	case "last":
		return LastWins, nil
	}
	return FirstWins, fmt.Errorf("unknown subject tie-break %q (want first or last)", s)
}
