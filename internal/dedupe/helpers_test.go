package dedupe

import "github.com/stemsi/recordclean/internal/model"

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

func semester(n int, months ...model.Month) model.Semester {
	return model.Semester{Semester: model.Int(n), Months: months}
}

func tagged(n int, tag string) model.Semester {
	return model.Semester{Semester: model.Int(n), Extra: model.Extra{"tag": tag}}
}
