package dedupe

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/stemsi/recordclean/internal/model"
)

func TestIsInvalidSubject(t *testing.T) {
	tests := []struct {
		name    string
		subject model.Subject
		invalid bool
	}{
		{"numeric name", subject("", "101", 5, 10), true},
		{"numeric name with spaces", subject("", " 42 ", 5, 10), true},
		{"zero total", subject("", "Math", 0, 0), true},
		{"missing attended", model.Subject{SubjectName: "Math", TotalClasses: model.Int(10)}, true},
		{"missing total", model.Subject{SubjectName: "Math", AttendedClasses: model.Int(3)}, true},
		{"blank name", subject("CS101", "   ", 5, 10), true},
		{"empty name", subject("CS101", "", 5, 10), true},
		{"zero attended is fine", subject("", "Math", 0, 10), false},
		{"alphanumeric name", subject("", "Lab 2", 5, 10), false},
		{"valid", subject("CS101", "Data Structures", 8, 10), false},
		{"superscript digits", subject("", "²³", 5, 10), true},
		{"circled digits", subject("", "①②", 5, 10), true},
		{"vulgar fraction is not a digit", subject("", "½", 5, 10), false},
		{"null total", model.Subject{SubjectName: "Math", AttendedClasses: model.Int(3), TotalClasses: model.Count{Null: true}}, true},
		{"non-integer counts are present", model.Subject{
			SubjectName:     "Math",
			AttendedClasses: model.Count{Raw: "No Data"},
			TotalClasses:    model.Count{Raw: "No Data"},
		}, false},
		{"fractional total", model.Subject{SubjectName: "Math", AttendedClasses: model.Int(3), TotalClasses: model.Count{Raw: 7.5}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.invalid, IsInvalidSubject(tt.subject))
		})
	}
}

func TestSubjectKey(t *testing.T) {
	assert.Equal(t, "CS101", SubjectKey(subject(" CS101 ", "DS", 1, 1)))
	assert.Equal(t, "DS", SubjectKey(subject("  ", " DS ", 1, 1)))
}

func TestCleanSubjects_FirstWins(t *testing.T) {
	first := subject("CS101", "DS", 8, 10)
	second := subject("CS101", "DS", 9, 10)

	kept, invalid, duplicates := CleanSubjects([]model.Subject{first, second}, FirstWins)

	if diff := cmp.Diff([]model.Subject{first}, kept); diff != "" {
		t.Errorf("CleanSubjects() mismatch (-want +got):\n%s", diff)
	}
	assert.Zero(t, invalid)
	assert.Equal(t, 1, duplicates)
}

func TestCleanSubjects_LastWins(t *testing.T) {
	first := subject("CS101", "DS", 8, 10)
	other := subject("CS102", "OS", 5, 10)
	second := subject("CS101", "DS", 9, 10)

	kept, _, duplicates := CleanSubjects([]model.Subject{first, other, second}, LastWins)

	if diff := cmp.Diff([]model.Subject{second, other}, kept); diff != "" {
		t.Errorf("CleanSubjects() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, duplicates)
}

func TestCleanSubjects_NameFallbackKey(t *testing.T) {
	a := subject("", "Physics", 3, 4)
	b := subject("", " Physics ", 4, 4)
	c := subject("PH1", "Physics", 4, 4)

	kept, _, duplicates := CleanSubjects([]model.Subject{a, b, c}, FirstWins)

	assert.Equal(t, []model.Subject{a, c}, kept)
	assert.Equal(t, 1, duplicates)
}

func TestCleanSubjects_InvalidNeverCountsAsDuplicate(t *testing.T) {
	broken := subject("CS101", "DS", 0, 0)
	good := subject("CS101", "DS", 8, 10)

	kept, invalid, duplicates := CleanSubjects([]model.Subject{broken, good}, FirstWins)

	assert.Equal(t, []model.Subject{good}, kept)
	assert.Equal(t, 1, invalid)
	assert.Zero(t, duplicates)
}

func TestCleanSubjects_PreservesOrder(t *testing.T) {
	in := []model.Subject{
		subject("C", "Gamma", 1, 2),
		subject("A", "Alpha", 1, 2),
		subject("B", "Beta", 1, 2),
	}

	kept, _, _ := CleanSubjects(in, FirstWins)

	assert.Equal(t, in, kept)
}

func TestParseTieBreak(t *testing.T) {
	tie, err := ParseTieBreak("")
	assert.NoError(t, err)
	assert.Equal(t, FirstWins, tie)

	tie, err = ParseTieBreak(" LAST ")
	assert.NoError(t, err)
	assert.Equal(t, LastWins, tie)

	_, err = ParseTieBreak("middle")
	assert.Error(t, err)
}
