package school

import (
	"time"

	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/shule/core"
)

// Roles
const (
	RoleStudent = "student"
	RoleParent  = "parent"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

var AllRoles = []string{RoleStudent, RoleParent, RoleTeacher, RoleAdmin}

// Attendance statuses
const (
	AttendancePresent = "Present"
	AttendanceAbsent  = "Absent"
	AttendanceLate    = "Late"
)

// Fee statuses
const (
	FeePaid    = "Paid"
	FeePending = "Pending"
	FeeOverdue = "Overdue"
)

// Complaint statuses
const (
	ComplaintPending  = "Pending"
	ComplaintInReview = "In Review"
	ComplaintResolved = "Resolved"
)

// DateLayout is the wire format of day-grained fields (attendance dates,
// fee due dates, award dates).
const DateLayout = "2006-01-02"

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"passwordHash"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	LastLogin    null.Time `json:"lastLogin,omitempty"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

type Student struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Class       string `json:"class"`
	Section     string `json:"section"`
	RollNumber  string `json:"rollNumber"`
	DateOfBirth string `json:"dateOfBirth"`
	ParentID    string `json:"parentId"`
	IsActive    bool   `json:"isActive"`
}

// ClassSection returns the "class-section" pair teachers are assigned by.
func (s Student) ClassSection() string {
	return s.Class + "-" + s.Section
}

type Parent struct {
	ID          string   `json:"id"`
	UserID      string   `json:"userId"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	ChildrenIDs []string `json:"childrenIds"`
}

func (p Parent) HasChild(studentID string) bool {
	for _, id := range p.ChildrenIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

type Teacher struct {
	ID              string   `json:"id"`
	UserID          string   `json:"userId"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Subject         string   `json:"subject"`
	AssignedClasses []string `json:"assignedClasses"`
	Phone           string   `json:"phone"`
}

func (t Teacher) IsAssigned(classSection string) bool {
	for _, cs := range t.AssignedClasses {
		if cs == classSection {
			return true
		}
	}
	return false
}

type Admin struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

type Attendance struct {
	ID        string      `json:"id"`
	StudentID string      `json:"studentId"`
	Date      string      `json:"date"` // DateLayout
	Status    string      `json:"status"`
	MarkedBy  string      `json:"markedBy"` // teacher ID
	MarkedAt  time.Time   `json:"markedAt"`
	Remarks   null.String `json:"remarks,omitempty"`
}

type Marks struct {
	ID            string    `json:"id"`
	StudentID     string    `json:"studentId"`
	Subject       string    `json:"subject"`
	ExamType      string    `json:"examType"` // "Monthly Test", "Mid-Term", "Final"
	Term          string    `json:"term"`     // "Term 1", "Term 2"
	MarksObtained int       `json:"marksObtained"`
	TotalMarks    int       `json:"totalMarks"`
	Grade         string    `json:"grade"` // derived, never hand-edited
	EnteredBy     string    `json:"enteredBy"`
	EnteredAt     time.Time `json:"enteredAt"`
}

type Fee struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"studentId"`
	Term        string    `json:"term"`
	Amount      int       `json:"amount"`
	PaidAmount  int       `json:"paidAmount"`
	DueDate     string    `json:"dueDate"` // DateLayout
	Status      string    `json:"status"`  // derived
	LastUpdated time.Time `json:"lastUpdated"`
	UpdatedBy   string    `json:"updatedBy"` // admin ID
}

type Complaint struct {
	ID            string      `json:"id"`
	SubmittedBy   string      `json:"submittedBy"` // student or parent ID
	SubmitterRole string      `json:"submitterRole"`
	StudentID     string      `json:"studentId"`
	Subject       string      `json:"subject"`
	Description   string      `json:"description"`
	Category      string      `json:"category"`
	Status        string      `json:"status"`
	Priority      string      `json:"priority"`
	SubmittedAt   time.Time   `json:"submittedAt"`
	AssignedTo    null.String `json:"assignedTo,omitempty"` // teacher or admin ID
	ResolvedAt    null.Time   `json:"resolvedAt,omitempty"`
	Resolution    null.String `json:"resolution,omitempty"`
}

type BehaviorRemark struct {
	ID        string    `json:"id"`
	StudentID string    `json:"studentId"`
	TeacherID string    `json:"teacherId"`
	Date      string    `json:"date"`
	Type      string    `json:"type"`     // "Positive", "Negative", "Neutral"
	Category  string    `json:"category"` // "Discipline", "Participation", "Attitude"
	Remark    string    `json:"remark"`
	CreatedAt time.Time `json:"createdAt"`
}

type Notice struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Category       string    `json:"category"` // "Exam", "Holiday", "Event", "General"
	Priority       string    `json:"priority"`
	TargetAudience []string  `json:"targetAudience"`
	PostedBy       string    `json:"postedBy"`
	PostedAt       time.Time `json:"postedAt"`
	ExpiresAt      null.Time `json:"expiresAt,omitempty"`
	Classes        []string  `json:"classes,omitempty"` // if class-specific
}

func (n Notice) Targets(role string) bool {
	for _, r := range n.TargetAudience {
		if r == role {
			return true
		}
	}
	return false
}

type Certificate struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"studentId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"` // "Academic", "Sports", "Cultural", "Other"
	DateAwarded string    `json:"dateAwarded"`
	UploadedBy  string    `json:"uploadedBy"`
	UploadedAt  time.Time `json:"uploadedAt"`
	FileURL     string    `json:"fileUrl"`
}

type Message struct {
	ID        string    `json:"id"`
	FromID    string    `json:"fromId"`
	FromRole  string    `json:"fromRole"`
	ToID      string    `json:"toId"`
	ToRole    string    `json:"toRole"`
	StudentID string    `json:"studentId"` // context: which student is this about
	Subject   string    `json:"subject"`
	Content   string    `json:"content"`
	SentAt    time.Time `json:"sentAt"`
	ReadAt    null.Time `json:"readAt,omitempty"`
	IsRead    bool      `json:"isRead"`
}

// AuditLog entries are immutable: there is no update operation for this
// collection, anywhere.
type AuditLog struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	UserRole   string    `json:"userRole"`
	Action     string    `json:"action"` // "login_success", "attendance_marked", ...
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId,omitempty"`
	Details    string    `json:"details"`
	Timestamp  time.Time `json:"timestamp"`
	IPAddress  string    `json:"ipAddress,omitempty"`
}

type NotificationItem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Type      string    `json:"type"` // "exam", "fee", "holiday", "complaint", "message"
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	IsRead    bool      `json:"isRead"`
	Link      string    `json:"link,omitempty"`
}

// AuthResult is the outcome of an authentication attempt. Bad credentials and
// inactive accounts are ordinary outcomes, not errors.
type AuthResult struct {
	Success bool
	User    *User
	Message string
}

// Portfolio is a read-side aggregate; it is computed on demand and never persisted.
type Portfolio struct {
	StudentID       string            `json:"studentId"`
	AcademicSummary AcademicSummary   `json:"academicSummary"`
	Attendance      AttendanceSummary `json:"attendanceSummary"`
	Certificates    []Certificate     `json:"certificates"`
	Achievements    []string          `json:"achievements"`
	BehaviorRemarks []BehaviorRemark  `json:"behaviorRemarks"`
}

type AcademicSummary struct {
	AverageMarks float64 `json:"averageMarks"`
	OverallGrade string  `json:"overallGrade"`
}

type AttendanceSummary struct {
	TotalDays  int     `json:"totalDays"`
	Present    int     `json:"present"`
	Absent     int     `json:"absent"`
	Late       int     `json:"late"`
	Percentage float64 `json:"percentage"`
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,role"`
	IsActive bool   `json:"isActive"`
}

func (nu *NewUser) Validate() error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	return core.Validate.Struct(nu)
}

// UpdateUser defines what information may be provided to modify an existing
// User; unset fields are left untouched.
type UpdateUser struct {
	Name     null.String `json:"name"`
	Email    null.String `json:"email" validate:"omitempty,email"`
	IsActive null.Bool   `json:"isActive"`
	Password null.String `json:"password"`
}

func (uu *UpdateUser) Validate() error {
	if uu.Name.Valid {
		uu.Name.String = core.CleanString(uu.Name.String)
	}
	if uu.Email.Valid {
		uu.Email.String = core.CleanString(uu.Email.String, true /* lower */)
	}
	return core.Validate.Struct(uu)
}

type NewStudent struct {
	UserID      string `json:"userId" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Class       string `json:"class" validate:"required"`
	Section     string `json:"section" validate:"required"`
	RollNumber  string `json:"rollNumber" validate:"required"`
	DateOfBirth string `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	ParentID    string `json:"parentId"`
}

func (ns *NewStudent) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	return core.Validate.Struct(ns)
}

type UpdateStudent struct {
	Class      null.String `json:"class"`
	Section    null.String `json:"section"`
	RollNumber null.String `json:"rollNumber"`
	ParentID   null.String `json:"parentId"`
	IsActive   null.Bool   `json:"isActive"`
}

type NewTeacher struct {
	UserID          string   `json:"userId" validate:"required"`
	Name            string   `json:"name" validate:"required"`
	Email           string   `json:"email" validate:"required,email"`
	Subject         string   `json:"subject"`
	AssignedClasses []string `json:"assignedClasses" validate:"dive,classsection"`
	Phone           string   `json:"phone"`
}

func (nt *NewTeacher) Validate() error {
	nt.Name = core.CleanString(nt.Name)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	return core.Validate.Struct(nt)
}

type UpdateTeacher struct {
	Subject         null.String `json:"subject"`
	AssignedClasses []string    `json:"assignedClasses" validate:"omitempty,dive,classsection"`
	Phone           null.String `json:"phone"`
}

func (ut *UpdateTeacher) Validate() error { return core.Validate.Struct(ut) }

type NewAttendance struct {
	StudentID string      `json:"studentId" validate:"required"`
	Date      string      `json:"date" validate:"required,datetime=2006-01-02"`
	Status    string      `json:"status" validate:"required,oneof=Present Absent Late"`
	MarkedBy  string      `json:"markedBy" validate:"required"`
	Remarks   null.String `json:"remarks"`
}

func (na *NewAttendance) Validate() error { return core.Validate.Struct(na) }

type NewMarks struct {
	StudentID     string `json:"studentId" validate:"required"`
	Subject       string `json:"subject" validate:"required"`
	ExamType      string `json:"examType" validate:"required"`
	Term          string `json:"term" validate:"required"`
	MarksObtained int    `json:"marksObtained" validate:"min=0"`
	TotalMarks    int    `json:"totalMarks" validate:"gt=0"`
	EnteredBy     string `json:"enteredBy" validate:"required"`
}

func (nm *NewMarks) Validate() error { return core.Validate.Struct(nm) }

// UpdateMarks merges into an existing record; the grade is recomputed whenever
// either input changes.
type UpdateMarks struct {
	MarksObtained null.Int `json:"marksObtained"`
	TotalMarks    null.Int `json:"totalMarks"`
}

type NewFee struct {
	StudentID string `json:"studentId" validate:"required"`
	Term      string `json:"term" validate:"required"`
	Amount    int    `json:"amount" validate:"gt=0"`
	DueDate   string `json:"dueDate" validate:"required,datetime=2006-01-02"`
	UpdatedBy string `json:"updatedBy" validate:"required"`
}

func (nf *NewFee) Validate() error { return core.Validate.Struct(nf) }

type UpdateFee struct {
	PaidAmount null.Int    `json:"paidAmount"`
	UpdatedBy  null.String `json:"updatedBy"`
}

type NewComplaint struct {
	SubmittedBy   string `json:"submittedBy" validate:"required"`
	SubmitterRole string `json:"submitterRole" validate:"required,oneof=student parent"`
	StudentID     string `json:"studentId" validate:"required"`
	Subject       string `json:"subject" validate:"required"`
	Description   string `json:"description" validate:"required"`
	Category      string `json:"category"`
	Priority      string `json:"priority" validate:"omitempty,oneof=Low Medium High"`
}

func (nc *NewComplaint) Validate() error {
	nc.Subject = core.CleanString(nc.Subject)
	return core.Validate.Struct(nc)
}

type UpdateComplaint struct {
	Status     null.String `json:"status" validate:"omitempty,oneof=Pending 'In Review' Resolved"`
	AssignedTo null.String `json:"assignedTo"`
	Resolution null.String `json:"resolution"`
}

func (uc *UpdateComplaint) Validate() error { return core.Validate.Struct(uc) }

type NewBehaviorRemark struct {
	StudentID string `json:"studentId" validate:"required"`
	TeacherID string `json:"teacherId" validate:"required"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Type      string `json:"type" validate:"required,oneof=Positive Negative Neutral"`
	Category  string `json:"category"`
	Remark    string `json:"remark" validate:"required"`
}

func (nb *NewBehaviorRemark) Validate() error { return core.Validate.Struct(nb) }

type NewNotice struct {
	Title          string    `json:"title" validate:"required"`
	Content        string    `json:"content" validate:"required"`
	Category       string    `json:"category"`
	Priority       string    `json:"priority" validate:"omitempty,oneof=Low Medium High"`
	TargetAudience []string  `json:"targetAudience" validate:"required,min=1,dive,role"`
	PostedBy       string    `json:"postedBy" validate:"required"`
	ExpiresAt      null.Time `json:"expiresAt"`
	Classes        []string  `json:"classes" validate:"omitempty,dive,classsection"`
}

func (nn *NewNotice) Validate() error {
	nn.Title = core.CleanString(nn.Title)
	return core.Validate.Struct(nn)
}

type NewCertificate struct {
	StudentID   string `json:"studentId" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Category    string `json:"category" validate:"omitempty,oneof=Academic Sports Cultural Other"`
	DateAwarded string `json:"dateAwarded" validate:"required,datetime=2006-01-02"`
	UploadedBy  string `json:"uploadedBy" validate:"required"`
	FileURL     string `json:"fileUrl"`
}

func (nc *NewCertificate) Validate() error { return core.Validate.Struct(nc) }

type NewMessage struct {
	FromID    string `json:"fromId" validate:"required"`
	FromRole  string `json:"fromRole" validate:"required,role"`
	ToID      string `json:"toId" validate:"required"`
	ToRole    string `json:"toRole" validate:"required,role"`
	StudentID string `json:"studentId"`
	Subject   string `json:"subject"`
	Content   string `json:"content" validate:"required"`
}

func (nm *NewMessage) Validate() error { return core.Validate.Struct(nm) }

// NewAuditLog is the input of Store.RecordAudit; the id and timestamp are
// assigned at append time.
type NewAuditLog struct {
	UserID     string `json:"userId"`
	UserRole   string `json:"userRole"`
	Action     string `json:"action" validate:"required"`
	EntityType string `json:"entityType" validate:"required"`
	EntityID   string `json:"entityId"`
	Details    string `json:"details"`
	IPAddress  string `json:"ipAddress"`
}

func (nl *NewAuditLog) Validate() error { return core.Validate.Struct(nl) }
