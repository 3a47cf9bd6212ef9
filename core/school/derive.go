package school

import (
	"math"
	"time"
)

// Pure derivation functions. All of them are total: bad input degrades to the
// lowest tier (or zero) instead of failing, so callers never need to guard.

// GradeFromMarks maps a marks ratio to a letter grade.
// Canonical bands: >=90 A+, >=80 A, >=70 B, >=60 C, >=40 D, else F.
func GradeFromMarks(obtained, total int) string {
	if total <= 0 {
		return "F"
	}
	return OverallGrade(float64(obtained) / float64(total) * 100)
}

// OverallGrade maps a percentage to a letter grade using the same bands as
// GradeFromMarks.
func OverallGrade(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A+"
	case percentage >= 80:
		return "A"
	case percentage >= 70:
		return "B"
	case percentage >= 60:
		return "C"
	case percentage >= 40:
		return "D"
	}
	return "F"
}

// FeeStatusFor derives a fee status with precedence Paid > Overdue > Pending.
// An unparsable due date never reads as overdue.
func FeeStatusFor(amount, paidAmount int, dueDate string, now time.Time) string {
	if paidAmount >= amount {
		return FeePaid
	}
	if due, err := time.Parse(DateLayout, dueDate); err == nil && now.After(due) {
		return FeeOverdue
	}
	return FeePending
}

// AttendancePercentage returns round((present+late)/total*100); 0 when there
// are no records. Late counts as attended.
func AttendancePercentage(records []Attendance) int {
	if len(records) == 0 {
		return 0
	}
	var attended int
	for _, rec := range records {
		if rec.Status == AttendancePresent || rec.Status == AttendanceLate {
			attended++
		}
	}
	return int(math.Round(float64(attended) / float64(len(records)) * 100))
}

// Percentage returns obtained/total*100 rounded to one decimal; 0 when total is 0.
func Percentage(obtained, total float64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(obtained/total*100*10) / 10
}

// ClassPerformanceAverage is the mean percentage over a Marks subset,
// rounded to one decimal.
func ClassPerformanceAverage(marks []Marks) float64 {
	var obtained, total float64
	for _, m := range marks {
		obtained += float64(m.MarksObtained)
		total += float64(m.TotalMarks)
	}
	return Percentage(obtained, total)
}

// SubjectAverage is ClassPerformanceAverage restricted to one subject.
func SubjectAverage(marks []Marks, subject string) float64 {
	var subset []Marks
	for _, m := range marks {
		if m.Subject == subject {
			subset = append(subset, m)
		}
	}
	return ClassPerformanceAverage(subset)
}
