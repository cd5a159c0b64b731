package main

import "github.com/stemsi/recordclean/internal/model"

var names = []string{
	"Budi Santoso", "Siti Aminah", "Andi Pratama", "Rina Wati", "Joko Susilo",
	"Ayu Lestari", "Dodi Kusuma", "Eka Putri", "Fahri Hamzah", "Gita Savitri",
	"Hendra Gunawan", "Ika Sari", "Jamal Mirdad", "Kiki Fatmala", "Lukman Hakim",
	"Maya Septiana", "Nanda Pratama", "Oki Setiana", "Putri Dian", "Qori Maharani",
}

var catalogue = []struct{ code, name string }{
	{"MA101", "Matematika"},
	{"FI102", "Fisika"},
	{"KI103", "Kimia"},
	{"BI104", "Bahasa Indonesia"},
}

func subject(code, name string, attended, total int) model.Subject {
	return model.Subject{
		SubjectCode:     code,
		SubjectName:     name,
		AttendedClasses: model.Int(attended),
		TotalClasses:    model.Int(total),
	}
}

func month(n int, subjects ...model.Subject) model.Month {
	return model.Month{Month: model.Int(n), Subjects: subjects}
}

// attendanceFixture builds a record with every defect the cleaner handles:
// a re-uploaded semester, a re-uploaded month, repeated subjects, invalid
// rows and a cumulative summary row. i varies the attendance numbers.
func attendanceFixture(userID string, i int) model.Record {
	a, b := catalogue[i%len(catalogue)], catalogue[(i+1)%len(catalogue)]
	attended := 10 + i%5

	return model.Record{
		UserID: userID,
		Semesters: []model.Semester{
			{Semester: model.Int(1), Months: []model.Month{
				month(8, subject(a.code, a.name, attended, 16)),
			}},
			{Semester: model.Int(2), Months: []model.Month{
				month(1, subject(a.code, a.name, attended, 16), subject(b.code, b.name, 12, 16)),
			}},
			// Second upload of semester 1 supersedes the first.
			{Semester: model.Int(1), Months: []model.Month{
				month(8,
					subject(a.code, a.name, attended, 16),
					subject(b.code, b.name, 14, 16),
				),
				month(9,
					subject(a.code, a.name, attended+2, 18),
					subject(b.code, b.name, 15, 18),
				),
				// Re-uploaded September, with repeated and broken rows.
				month(9,
					subject(a.code, a.name, attended+1, 18),
					subject(a.code, a.name, attended+2, 18),
					subject(b.code, b.name, 15, 18),
					subject("", "12345", 3, 4),
					model.Subject{SubjectCode: b.code, SubjectName: b.name, AttendedClasses: model.Int(5)},
					subject("X1", "Praktikum", 0, 0),
					subject("", "   ", 1, 1),
					subject("", "Cumulative", 40, 50),
				),
			}},
		},
	}
}

// iatFixture builds an assessment record whose semesters carry subjects
// directly, with semester 1 uploaded twice.
func iatFixture(userID string, i int) model.Record {
	a := catalogue[i%len(catalogue)]
	scores := func(iat1, iat2 int) model.Extra {
		return model.Extra{"subjects": []any{map[string]any{
			"subjectCode": a.code,
			"subjectName": a.name,
			"iat1":        iat1,
			"iat2":        iat2,
			"avg":         float64(iat1+iat2) / 2,
		}}}
	}

	return model.Record{
		UserID: userID,
		Semesters: []model.Semester{
			{Semester: model.Int(1), Extra: scores(60+i%10, 70)},
			{Semester: model.Int(2), Extra: scores(75, 80)},
			{Semester: model.Int(1), Extra: scores(65+i%10, 72)},
		},
	}
}
