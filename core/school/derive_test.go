package school

import (
	"testing"
	"time"
)

func TestGradeFromMarks(t *testing.T) {
	tests := []struct {
		name            string
		obtained, total int
		want            string
	}{
		{"perfect score", 100, 100, "A+"},
		{"lower A+ bound", 90, 100, "A+"},
		{"just below A+", 89, 100, "A"},
		{"lower A bound", 80, 100, "A"},
		{"lower B bound", 70, 100, "B"},
		{"lower C bound", 60, 100, "C"},
		{"lower D bound", 40, 100, "D"},
		{"just below D", 39, 100, "F"},
		{"zero", 0, 100, "F"},
		{"scaled total", 45, 50, "A+"},
		{"zero total", 10, 0, "F"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GradeFromMarks(tt.obtained, tt.total); got != tt.want {
				t.Errorf("GradeFromMarks(%d, %d) = %q; want %q", tt.obtained, tt.total, got, tt.want)
			}
		})
	}
}

// grades must never improve as the score drops
func TestGradeFromMarksMonotonic(t *testing.T) {
	rank := map[string]int{"A+": 6, "A": 5, "B": 4, "C": 3, "D": 2, "F": 1}
	prev := rank[GradeFromMarks(100, 100)]
	for score := 99; score >= 0; score-- {
		cur := rank[GradeFromMarks(score, 100)]
		if cur > prev {
			t.Fatalf("grade improved when score dropped to %d", score)
		}
		prev = cur
	}
}

func TestFeeStatusFor(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name         string
		amount, paid int
		dueDate      string
		want         string
	}{
		{"unpaid before due", 5000, 0, "2025-06-30", FeePending},
		{"partially paid before due", 5000, 2500, "2025-06-30", FeePending},
		{"unpaid past due", 5000, 0, "2024-12-31", FeeOverdue},
		{"partially paid past due", 5000, 4999, "2024-12-31", FeeOverdue},
		{"fully paid", 5000, 5000, "2025-06-30", FeePaid},
		{"overpaid", 5000, 6000, "2025-06-30", FeePaid},
		{"fully paid past due stays paid", 5000, 5000, "2024-12-31", FeePaid},
		{"unparseable due date", 5000, 0, "soon", FeePending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FeeStatusFor(tt.amount, tt.paid, tt.dueDate, now); got != tt.want {
				t.Errorf("FeeStatusFor(%d, %d, %q) = %q; want %q", tt.amount, tt.paid, tt.dueDate, got, tt.want)
			}
		})
	}
}

func TestAttendancePercentage(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		want     int
	}{
		{"no records", nil, 0},
		{"all present", []string{AttendancePresent, AttendancePresent}, 100},
		{"late counts as attended", []string{AttendancePresent, AttendanceAbsent, AttendanceLate}, 67},
		{"all absent", []string{AttendanceAbsent, AttendanceAbsent}, 0},
		{"one third", []string{AttendancePresent, AttendanceAbsent, AttendanceAbsent}, 33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := make([]Attendance, len(tt.statuses))
			for i, st := range tt.statuses {
				recs[i] = Attendance{Status: st}
			}
			if got := AttendancePercentage(recs); got != tt.want {
				t.Errorf("AttendancePercentage(%v) = %d; want %d", tt.statuses, got, tt.want)
			}
		})
	}
}

func TestPercentage(t *testing.T) {
	if got := Percentage(2, 3); got != 66.7 {
		t.Errorf("Percentage(2, 3) = %v; want 66.7", got)
	}
	if got := Percentage(5, 0); got != 0 {
		t.Errorf("Percentage(5, 0) = %v; want 0", got)
	}
}

func TestSubjectAverage(t *testing.T) {
	marks := []Marks{
		{Subject: "Mathematics", MarksObtained: 80, TotalMarks: 100},
		{Subject: "Mathematics", MarksObtained: 90, TotalMarks: 100},
		{Subject: "Science", MarksObtained: 50, TotalMarks: 100},
	}
	if got := SubjectAverage(marks, "Mathematics"); got != 85.0 {
		t.Errorf("SubjectAverage() = %v; want 85", got)
	}
	if got := SubjectAverage(marks, "History"); got != 0 {
		t.Errorf("SubjectAverage() = %v; want 0 for unknown subject", got)
	}
}
