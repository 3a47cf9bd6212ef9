package school

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// seedPassword is the demo credential shared by every seed account.
const seedPassword = "password123"

// seedSnapshot builds the fixed first-use dataset. It is deterministic given
// `now` so repeated resets produce the same records.
func seedSnapshot(now time.Time) *snapshot {
	hash := mustHash(seedPassword)
	createdAt := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	data := &snapshot{
		Users: []User{
			{ID: "user-student-1", Name: "Rahul Sharma", Email: "rahul@student.edu", PasswordHash: hash, Role: RoleStudent, IsActive: true, CreatedAt: createdAt},
			{ID: "user-student-2", Name: "Priya Patel", Email: "priya@student.edu", PasswordHash: hash, Role: RoleStudent, IsActive: true, CreatedAt: createdAt},
			{ID: "user-parent-1", Name: "Mrs. Sharma", Email: "parent@email.com", PasswordHash: hash, Role: RoleParent, IsActive: true, CreatedAt: createdAt},
			{ID: "user-teacher-1", Name: "Dr. Priya Singh", Email: "priya@teacher.edu", PasswordHash: hash, Role: RoleTeacher, IsActive: true, CreatedAt: createdAt},
			{ID: "user-admin-1", Name: "Admin User", Email: "admin@school.edu", PasswordHash: hash, Role: RoleAdmin, IsActive: true, CreatedAt: createdAt},
		},
		Students: []Student{
			{ID: "student-1", UserID: "user-student-1", Name: "Rahul Sharma", Email: "rahul@student.edu", Class: "10", Section: "A", RollNumber: "101", DateOfBirth: "2008-05-15", ParentID: "parent-1", IsActive: true},
			{ID: "student-2", UserID: "user-student-2", Name: "Priya Patel", Email: "priya@student.edu", Class: "10", Section: "A", RollNumber: "102", DateOfBirth: "2008-07-20", ParentID: "parent-2", IsActive: true},
		},
		Parents: []Parent{
			{ID: "parent-1", UserID: "user-parent-1", Name: "Mrs. Sharma", Email: "parent@email.com", Phone: "+91-9876543210", ChildrenIDs: []string{"student-1"}},
		},
		Teachers: []Teacher{
			{ID: "teacher-1", UserID: "user-teacher-1", Name: "Dr. Priya Singh", Email: "priya@teacher.edu", Subject: "Mathematics", AssignedClasses: []string{"10-A", "10-B"}, Phone: "+91-9876543211"},
		},
		Admins: []Admin{
			{ID: "admin-1", UserID: "user-admin-1", Name: "Admin User", Email: "admin@school.edu"},
		},
		Fees: []Fee{
			{ID: "fee-1", StudentID: "student-1", Term: "Term 1", Amount: 25000, PaidAmount: 25000, DueDate: "2024-07-31", Status: FeePaid, LastUpdated: createdAt, UpdatedBy: "admin-1"},
			{ID: "fee-2", StudentID: "student-1", Term: "Term 2", Amount: 25000, PaidAmount: 15000, DueDate: "2025-01-31", Status: FeeStatusFor(25000, 15000, "2025-01-31", now), LastUpdated: createdAt, UpdatedBy: "admin-1"},
		},
		Notices: []Notice{
			{
				ID: "notice-1", Title: "Annual Sports Day",
				Content:        "Annual Sports Day will be held on 15th February. All students are requested to participate.",
				Category:       "Event", Priority: "High",
				TargetAudience: []string{RoleStudent, RoleParent},
				PostedBy:       "admin-1", PostedAt: now.Add(-2 * 24 * time.Hour),
				Classes:        []string{"10-A", "10-B"},
			},
			{
				ID: "notice-2", Title: "Mid-Term Examinations",
				Content:        "Mid-term examinations will begin from 1st March. The time table will be shared soon.",
				Category:       "Exam", Priority: "High",
				TargetAudience: []string{RoleStudent, RoleParent, RoleTeacher},
				PostedBy:       "admin-1", PostedAt: now.Add(-5 * 24 * time.Hour),
			},
		},
		Certificates: []Certificate{
			{
				ID: "cert-1", StudentID: "student-1",
				Title:       "Mathematics Olympiad - Gold Medal",
				Description: "Awarded for securing first position in State Mathematics Olympiad",
				Category:    "Academic", DateAwarded: "2024-12-15",
				UploadedBy:  "teacher-1", UploadedAt: createdAt,
				FileURL:     "/certificates/math-olympiad-2024.pdf",
			},
		},
	}
	data.Attendance = seedAttendance(data.Students, now)
	data.Marks = seedMarks(data.Students, now)
	return data
}

// seedAttendance covers the last six days per student with a fixed,
// mostly-Present pattern.
func seedAttendance(students []Student, now time.Time) []Attendance {
	pattern := []string{AttendancePresent, AttendancePresent, AttendanceLate, AttendancePresent, AttendanceAbsent, AttendancePresent}
	var recs []Attendance
	for _, st := range students {
		for i, status := range pattern {
			day := now.AddDate(0, 0, -i)
			recs = append(recs, Attendance{
				ID:        fmt.Sprintf("attendance-%s-%d", st.ID, i),
				StudentID: st.ID,
				Date:      day.Format(DateLayout),
				Status:    status,
				MarkedBy:  "teacher-1",
				MarkedAt:  day,
			})
		}
	}
	return recs
}

// seedMarks gives each student one Mid-Term score per subject, in the 70-100
// band like the demo dataset.
func seedMarks(students []Student, now time.Time) []Marks {
	subjects := []string{"Mathematics", "Science", "English", "Social Studies", "Hindi"}
	scores := []int{92, 85, 78, 88, 74}
	var recs []Marks
	for si, st := range students {
		for i, subject := range subjects {
			obtained := scores[(i+si)%len(scores)]
			recs = append(recs, Marks{
				ID:            fmt.Sprintf("marks-%s-%s", st.ID, subject),
				StudentID:     st.ID,
				Subject:       subject,
				ExamType:      "Mid-Term",
				Term:          "Term 1",
				MarksObtained: obtained,
				TotalMarks:    100,
				Grade:         GradeFromMarks(obtained, 100),
				EnteredBy:     "teacher-1",
				EnteredAt:     now,
			})
		}
	}
	return recs
}

func mustHash(pwd string) []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.MinCost)
	if err != nil {
		panic(err) // bcrypt only fails on oversized input; the seed password is fixed
	}
	return hash
}
