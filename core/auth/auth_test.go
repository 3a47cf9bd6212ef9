package auth

import (
	"testing"

	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/session"
	testutil "github.com/trezcool/shule/tests"
)

func newGuard(t *testing.T) (*Guard, *school.Store) {
	t.Helper()
	store, storage := testutil.NewStore(t)
	mgr := session.NewManager(testutil.NewConfig(), storage, store, nil, testutil.NewLogger())
	guard := NewGuard(store, mgr, testutil.NewLogger())
	t.Cleanup(func() { _ = guard.Logout() })
	return guard, store
}

func login(t *testing.T, guard *Guard, email string) {
	t.Helper()
	res, err := guard.Login(email, "password123")
	if err != nil {
		t.Fatalf("Login(%q) failed: %v", email, err)
	}
	if !res.Success {
		t.Fatalf("Login(%q) rejected: %s", email, res.Message)
	}
}

func TestLoginFailureStartsNoSession(t *testing.T) {
	guard, _ := newGuard(t)

	res, err := guard.Login("rahul@student.edu", "wrong")
	if err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
	if res.Success {
		t.Fatal("Login() succeeded with a wrong password")
	}
	if guard.HasPermission(school.AllRoles...) {
		t.Error("failed login still granted permissions")
	}
}

func TestHasPermission(t *testing.T) {
	guard, _ := newGuard(t)

	if guard.HasPermission(school.RoleAdmin) {
		t.Error("HasPermission() granted without a session")
	}

	login(t, guard, "priya@teacher.edu")
	if !guard.HasPermission(school.RoleTeacher) {
		t.Error("teacher denied the teacher role")
	}
	if !guard.HasPermission(school.RoleAdmin, school.RoleTeacher) {
		t.Error("teacher denied a role set containing teacher")
	}
	if guard.HasPermission(school.RoleAdmin, school.RoleParent) {
		t.Error("teacher granted roles they do not hold")
	}

	if err := guard.Logout(); err != nil {
		t.Fatalf("Logout() failed: %v", err)
	}
	if guard.HasPermission(school.RoleTeacher) {
		t.Error("HasPermission() granted after logout")
	}
}

func TestCanAccessEntity(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		entity   string
		entityID string
		want     bool
	}{
		{"admin reaches any student", "admin@school.edu", EntityStudent, "student-2", true},
		{"admin reaches unknown entity types", "admin@school.edu", "ledger", "x", true},

		{"student reads own records", "rahul@student.edu", EntityMarks, "student-1", true},
		{"student blocked from classmates", "rahul@student.edu", EntityMarks, "student-2", false},
		{"student blocked from unknown entity types", "rahul@student.edu", "ledger", "student-1", false},

		{"parent reads own child", "parent@email.com", EntityFee, "student-1", true},
		{"parent blocked from other children", "parent@email.com", EntityFee, "student-2", false},
		{"parent reads own parent record", "parent@email.com", EntityParent, "parent-1", true},
		{"parent blocked from other parents", "parent@email.com", EntityParent, "parent-2", false},
		{"student blocked from parent records", "rahul@student.edu", EntityParent, "parent-1", false},
		{"admin reaches parent records", "admin@school.edu", EntityParent, "parent-1", true},

		{"teacher reads own teacher record", "priya@teacher.edu", EntityTeacher, "teacher-1", true},
		{"teacher blocked from colleagues", "priya@teacher.edu", EntityTeacher, "teacher-2", false},
		{"parent blocked from teacher records", "parent@email.com", EntityTeacher, "teacher-1", false},

		{"teacher reads assigned class", "priya@teacher.edu", EntityAttendance, "student-1", true},
		{"teacher blocked from unknown student", "priya@teacher.edu", EntityAttendance, "student-missing", false},

		{"messages are open to any authenticated user", "rahul@student.edu", EntityMessage, "message-1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard, _ := newGuard(t)
			login(t, guard, tt.email)
			if got := guard.CanAccessEntity(tt.entity, tt.entityID); got != tt.want {
				t.Errorf("CanAccessEntity(%q, %q) = %v; want %v", tt.entity, tt.entityID, got, tt.want)
			}
		})
	}
}

func TestCanAccessEntityDeniesWithoutSession(t *testing.T) {
	guard, _ := newGuard(t)
	if guard.CanAccessEntity(EntityStudent, "student-1") {
		t.Error("CanAccessEntity() granted without a session")
	}
	if guard.CanAccessEntity(EntityMessage, "message-1") {
		t.Error("message access granted without a session")
	}
}

func TestTeacherDeniedOutsideAssignedClasses(t *testing.T) {
	guard, store := newGuard(t)

	usr, err := store.CreateUser(school.NewUser{
		Name: "Outsider", Email: "outsider@student.edu", Password: "password123",
		Role: school.RoleStudent, IsActive: true,
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	st, err := store.CreateStudent(school.NewStudent{
		UserID: usr.ID, Name: usr.Name, Email: usr.Email,
		Class: "8", Section: "C", RollNumber: "801",
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}

	login(t, guard, "priya@teacher.edu") // assigned 10-A and 10-B
	if guard.CanAccessEntity(EntityMarks, st.ID) {
		t.Error("teacher granted access outside assigned classes")
	}
}
