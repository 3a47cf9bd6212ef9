package school

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrNotFound    = errors.New("record not found")
	ErrEmailExists = errors.New("a user with this email already exists")
)

// snapshot is the single persisted document holding every collection.
type snapshot struct {
	Users           []User             `json:"users"`
	Students        []Student          `json:"students"`
	Parents         []Parent           `json:"parents"`
	Teachers        []Teacher          `json:"teachers"`
	Admins          []Admin            `json:"admins"`
	Attendance      []Attendance       `json:"attendance"`
	Marks           []Marks            `json:"marks"`
	Fees            []Fee              `json:"fees"`
	Complaints      []Complaint        `json:"complaints"`
	BehaviorRemarks []BehaviorRemark   `json:"behaviorRemarks"`
	Notices         []Notice           `json:"notices"`
	Certificates    []Certificate      `json:"certificates"`
	Messages        []Message          `json:"messages"`
	AuditLogs       []AuditLog         `json:"auditLogs"`
	Notifications   []NotificationItem `json:"notifications"`
}

// Store provides durable, typed access to all collections over a keyed blob
// Storage port. Every write is a read-modify-write of the whole snapshot.
//
// The store is the sole legitimate writer of its data key. The mutex only
// serializes callers within this process; there is no cross-process conflict
// detection, so the store must not be reused where concurrent writers are
// possible.
type Store struct {
	cfg     *core.Config
	storage core.Storage
	log     core.Logger

	mu    sync.Mutex
	now   func() time.Time         // mockable
	newID func(kind string) string // mockable
}

func NewStore(cfg *core.Config, storage core.Storage, log core.Logger) *Store {
	return &Store{
		cfg:     cfg,
		storage: storage,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func(kind string) string { return kind + "-" + uuid.NewString() },
	}
}

// load returns the current snapshot, seeding it on first use.
func (s *Store) load() (*snapshot, error) {
	raw, ok, err := s.storage.Get(s.cfg.DataKey)
	if err != nil {
		return nil, errors.Wrap(err, "reading snapshot")
	}
	if !ok {
		data := seedSnapshot(s.now())
		if err = s.save(data); err != nil {
			return nil, err
		}
		s.log.Info("seeded initial snapshot")
		return data, nil
	}
	var data snapshot
	if err = json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, errors.Wrap(err, "decoding snapshot")
	}
	return &data, nil
}

func (s *Store) save(data *snapshot) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "encoding snapshot")
	}
	return errors.Wrap(s.storage.Set(s.cfg.DataKey, string(raw)), "writing snapshot")
}

// Initialize seeds the snapshot if the storage has none. It is idempotent and
// safe to call on every access.
func (s *Store) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.load()
	return err
}

// Reset discards the whole snapshot and reseeds it. This is the only
// destructive operation; entities are never individually deleted.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storage.Delete(s.cfg.DataKey); err != nil {
		return errors.Wrap(err, "deleting snapshot")
	}
	_, err := s.load()
	return err
}

// appendAudit appends an entry to the given snapshot; the caller persists it.
func (s *Store) appendAudit(data *snapshot, entry NewAuditLog) AuditLog {
	rec := AuditLog{
		ID:         s.newID("audit"),
		UserID:     entry.UserID,
		UserRole:   entry.UserRole,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Details:    entry.Details,
		IPAddress:  entry.IPAddress,
		Timestamp:  s.now(),
	}
	data.AuditLogs = append(data.AuditLogs, rec)
	return rec
}

// Authentication

// Authenticate checks credentials against the user collection. Unknown email,
// password mismatch and inactive accounts are ordinary failures carried in the
// result; the returned error is reserved for storage faults.
func (s *Store) Authenticate(email, password string) (AuthResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = core.CleanString(email, true /* lower */)
	data, err := s.load()
	if err != nil {
		return AuthResult{}, err
	}

	usr := findUser(data, func(u User) bool { return u.Email == email })
	if usr == nil || usr.CheckPassword(password) != nil {
		s.appendAudit(data, NewAuditLog{
			UserID:     "unknown",
			UserRole:   "unknown",
			Action:     "login_failed",
			EntityType: "User",
			Details:    "Failed login attempt for email: " + email,
		})
		if err = s.save(data); err != nil {
			return AuthResult{}, err
		}
		return AuthResult{Message: "Invalid credentials"}, nil
	}
	if !usr.IsActive {
		return AuthResult{Message: "Account inactive. Please contact administrator."}, nil
	}

	usr.LastLogin = null.TimeFrom(s.now())
	s.appendAudit(data, NewAuditLog{
		UserID:     usr.ID,
		UserRole:   usr.Role,
		Action:     "login_success",
		EntityType: "User",
		Details:    "User logged in successfully",
	})
	if err = s.save(data); err != nil {
		return AuthResult{}, err
	}
	out := *usr
	return AuthResult{Success: true, User: &out}, nil
}

// Users

func (s *Store) Users() ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	return data.Users, nil
}

func (s *Store) UserByID(id string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return User{}, err
	}
	if usr := findUser(data, func(u User) bool { return u.ID == id }); usr != nil {
		return *usr, nil
	}
	return User{}, ErrNotFound
}

func (s *Store) CreateUser(nu NewUser) (User, error) {
	if err := nu.Validate(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return User{}, err
	}
	if findUser(data, func(u User) bool { return u.Email == nu.Email }) != nil {
		return User{}, core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	}

	usr := User{
		ID:        s.newID("user"),
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      nu.Role,
		IsActive:  nu.IsActive,
		CreatedAt: s.now(),
	}
	if err = usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	data.Users = append(data.Users, usr)
	if err = s.save(data); err != nil {
		return User{}, err
	}
	return usr, nil
}

func (s *Store) UpdateUser(id string, uu UpdateUser) (User, error) {
	if err := uu.Validate(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return User{}, err
	}
	usr := findUser(data, func(u User) bool { return u.ID == id })
	if usr == nil {
		return User{}, ErrNotFound
	}

	// only merge set fields
	if uu.Name.Valid {
		usr.Name = uu.Name.String
	}
	if uu.Email.Valid {
		usr.Email = uu.Email.String
	}
	if uu.IsActive.Valid {
		usr.IsActive = uu.IsActive.Bool
	}
	if uu.Password.Valid {
		if err = usr.SetPassword(uu.Password.String); err != nil {
			return User{}, err
		}
	}
	if err = s.save(data); err != nil {
		return User{}, err
	}
	return *usr, nil
}

// Students

func (s *Store) Students() ([]Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	return data.Students, nil
}

func (s *Store) StudentByID(id string) (Student, error) {
	return s.findStudent(func(st Student) bool { return st.ID == id })
}

func (s *Store) StudentByUserID(userID string) (Student, error) {
	return s.findStudent(func(st Student) bool { return st.UserID == userID })
}

func (s *Store) findStudent(match func(Student) bool) (Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return Student{}, err
	}
	for _, st := range data.Students {
		if match(st) {
			return st, nil
		}
	}
	return Student{}, ErrNotFound
}

func (s *Store) CreateStudent(ns NewStudent) (Student, error) {
	if err := ns.Validate(); err != nil {
		return Student{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return Student{}, err
	}
	st := Student{
		ID:          s.newID("student"),
		UserID:      ns.UserID,
		Name:        ns.Name,
		Email:       ns.Email,
		Class:       ns.Class,
		Section:     ns.Section,
		RollNumber:  ns.RollNumber,
		DateOfBirth: ns.DateOfBirth,
		ParentID:    ns.ParentID,
		IsActive:    true,
	}
	data.Students = append(data.Students, st)
	if err = s.save(data); err != nil {
		return Student{}, err
	}
	return st, nil
}

func (s *Store) UpdateStudent(id string, us UpdateStudent) (Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return Student{}, err
	}
	var st *Student
	for i := range data.Students {
		if data.Students[i].ID == id {
			st = &data.Students[i]
			break
		}
	}
	if st == nil {
		return Student{}, ErrNotFound
	}
	if us.Class.Valid {
		st.Class = us.Class.String
	}
	if us.Section.Valid {
		st.Section = us.Section.String
	}
	if us.RollNumber.Valid {
		st.RollNumber = us.RollNumber.String
	}
	if us.ParentID.Valid {
		st.ParentID = us.ParentID.String
	}
	if us.IsActive.Valid {
		st.IsActive = us.IsActive.Bool
	}
	if err = s.save(data); err != nil {
		return Student{}, err
	}
	return *st, nil
}

// Parents

func (s *Store) Parents() ([]Parent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	return data.Parents, nil
}

func (s *Store) ParentByID(id string) (Parent, error) {
	return s.findParent(func(p Parent) bool { return p.ID == id })
}

func (s *Store) ParentByUserID(userID string) (Parent, error) {
	return s.findParent(func(p Parent) bool { return p.UserID == userID })
}

func (s *Store) findParent(match func(Parent) bool) (Parent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return Parent{}, err
	}
	for _, p := range data.Parents {
		if match(p) {
			return p, nil
		}
	}
	return Parent{}, ErrNotFound
}

// Teachers

func (s *Store) Teachers() ([]Teacher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	return data.Teachers, nil
}

func (s *Store) TeacherByID(id string) (Teacher, error) {
	return s.findTeacher(func(t Teacher) bool { return t.ID == id })
}

func (s *Store) TeacherByUserID(userID string) (Teacher, error) {
	return s.findTeacher(func(t Teacher) bool { return t.UserID == userID })
}

func (s *Store) findTeacher(match func(Teacher) bool) (Teacher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return Teacher{}, err
	}
	for _, t := range data.Teachers {
		if match(t) {
			return t, nil
		}
	}
	return Teacher{}, ErrNotFound
}

func (s *Store) CreateTeacher(nt NewTeacher) (Teacher, error) {
	if err := nt.Validate(); err != nil {
		return Teacher{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return Teacher{}, err
	}
	t := Teacher{
		ID:              s.newID("teacher"),
		UserID:          nt.UserID,
		Name:            nt.Name,
		Email:           nt.Email,
		Subject:         nt.Subject,
		AssignedClasses: nt.AssignedClasses,
		Phone:           nt.Phone,
	}
	data.Teachers = append(data.Teachers, t)
	if err = s.save(data); err != nil {
		return Teacher{}, err
	}
	return t, nil
}

func (s *Store) UpdateTeacher(id string, utc UpdateTeacher) (Teacher, error) {
	if err := utc.Validate(); err != nil {
		return Teacher{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return Teacher{}, err
	}
	var t *Teacher
	for i := range data.Teachers {
		if data.Teachers[i].ID == id {
			t = &data.Teachers[i]
			break
		}
	}
	if t == nil {
		return Teacher{}, ErrNotFound
	}
	if utc.Subject.Valid {
		t.Subject = utc.Subject.String
	}
	if utc.AssignedClasses != nil {
		t.AssignedClasses = utc.AssignedClasses
	}
	if utc.Phone.Valid {
		t.Phone = utc.Phone.String
	}
	if err = s.save(data); err != nil {
		return Teacher{}, err
	}
	return *t, nil
}

func findUser(data *snapshot, match func(User) bool) *User {
	for i := range data.Users {
		if match(data.Users[i]) {
			return &data.Users[i]
		}
	}
	return nil
}
