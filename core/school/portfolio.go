package school

// StudentPortfolio assembles the read-side aggregate for one student. Nothing
// here is persisted; the summaries are recomputed from the raw records.
func (s *Store) StudentPortfolio(studentID string) (Portfolio, error) {
	marks, err := s.MarksByStudent(studentID)
	if err != nil {
		return Portfolio{}, err
	}
	attendance, err := s.AttendanceByStudent(studentID, "", "")
	if err != nil {
		return Portfolio{}, err
	}
	certificates, err := s.CertificatesByStudent(studentID)
	if err != nil {
		return Portfolio{}, err
	}
	remarks, err := s.BehaviorRemarksByStudent(studentID)
	if err != nil {
		return Portfolio{}, err
	}

	var obtained, total float64
	for _, m := range marks {
		obtained += float64(m.MarksObtained)
		total += float64(m.TotalMarks)
	}
	average := Percentage(obtained, total)

	summary := AttendanceSummary{TotalDays: len(attendance)}
	for _, a := range attendance {
		switch a.Status {
		case AttendancePresent:
			summary.Present++
		case AttendanceAbsent:
			summary.Absent++
		case AttendanceLate:
			summary.Late++
		}
	}
	summary.Percentage = Percentage(float64(summary.Present+summary.Late), float64(summary.TotalDays))

	achievements := make([]string, 0, len(certificates))
	for _, c := range certificates {
		achievements = append(achievements, c.Title)
	}

	return Portfolio{
		StudentID: studentID,
		AcademicSummary: AcademicSummary{
			AverageMarks: average,
			OverallGrade: OverallGrade(average),
		},
		Attendance:      summary,
		Certificates:    certificates,
		Achievements:    achievements,
		BehaviorRemarks: remarks,
	}, nil
}
