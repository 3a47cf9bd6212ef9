package session

import (
	"errors"
	"testing"
	"time"

	"github.com/trezcool/shule/core/school"
	inmemkv "github.com/trezcool/shule/storage/kv/inmem"
	testutil "github.com/trezcool/shule/tests"
)

type fakeAuditor struct {
	entries []school.NewAuditLog
}

func (f *fakeAuditor) RecordAudit(entry school.NewAuditLog) (school.AuditLog, error) {
	f.entries = append(f.entries, entry)
	return school.AuditLog{ID: "audit-1", Action: entry.Action}, nil
}

// faultStorage injects read failures over a live backend.
type faultStorage struct {
	*inmemkv.Storage
	failGet bool
}

func (f *faultStorage) Get(key string) (string, bool, error) {
	if f.failGet {
		return "", false, errors.New("i/o error")
	}
	return f.Storage.Get(key)
}

type fakeInput struct {
	subscribes int
	cancels    int
	fn         func()
}

func (f *fakeInput) Subscribe(events []string, fn func()) func() {
	f.subscribes++
	f.fn = fn
	return func() { f.cancels++ }
}

type fixture struct {
	mgr     *Manager
	storage *inmemkv.Storage
	audit   *fakeAuditor
	input   *fakeInput
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		storage: inmemkv.NewStorage(),
		audit:   &fakeAuditor{},
		input:   &fakeInput{},
		now:     time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC),
	}
	f.mgr = NewManager(testutil.NewConfig(), f.storage, f.audit, f.input, testutil.NewLogger())
	f.mgr.now = func() time.Time { return f.now }
	t.Cleanup(func() {
		if err := f.mgr.End(); err != nil {
			t.Errorf("End() failed: %v", err)
		}
	})
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) start(t *testing.T) {
	t.Helper()
	usr := school.User{ID: "user-teacher-1", Name: "Dr. Priya Singh", Role: school.RoleTeacher}
	if err := f.mgr.Start(usr); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
}

func TestStart(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	if got := f.mgr.State(); got != Active {
		t.Fatalf("State() = %v; want Active", got)
	}
	sess, ok := f.mgr.Current()
	if !ok {
		t.Fatal("Current() reported no session right after Start()")
	}
	if want := f.now.Add(20 * time.Minute); !sess.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v; want login + 20m = %v", sess.ExpiresAt, want)
	}
	if !sess.LoginTime.Equal(f.now) {
		t.Errorf("LoginTime = %v; want %v", sess.LoginTime, f.now)
	}

	for _, key := range []string{"sms_session", "sms_last_activity"} {
		if _, ok, _ := f.storage.Get(key); !ok {
			t.Errorf("key %q not persisted", key)
		}
	}
}

func TestExpiryOnRead(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	f.advance(21 * time.Minute)
	if _, ok := f.mgr.Current(); ok {
		t.Fatal("Current() returned a session past the absolute deadline")
	}
	if got := f.mgr.State(); got != Expired {
		t.Errorf("State() = %v; want Expired", got)
	}

	// expiry clears persisted state
	for _, key := range []string{"sms_session", "sms_last_activity"} {
		if _, ok, _ := f.storage.Get(key); ok {
			t.Errorf("key %q still present after expiry", key)
		}
	}
}

func TestTouchExtendsInactivityOnly(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	f.advance(10 * time.Minute)
	f.mgr.Touch()

	// 18 minutes since login, 8 since activity: still live
	f.advance(8 * time.Minute)
	if !f.mgr.IsAuthenticated() {
		t.Fatal("session expired despite recent activity")
	}

	// 21 minutes since login: the absolute deadline wins over activity
	f.mgr.Touch()
	f.advance(3 * time.Minute)
	if f.mgr.IsAuthenticated() {
		t.Error("Touch() extended the absolute deadline")
	}
}

func TestInactivityExpiresBeforeDeadline(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	// fresh payload, stale activity
	if err := f.storage.Set("sms_last_activity", f.now.Add(-21*time.Minute).Format(time.RFC3339)); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	f.mgr.mu.Lock()
	f.mgr.lastActivity = time.Time{}
	f.mgr.mu.Unlock()

	if f.mgr.IsAuthenticated() {
		t.Error("session survived 21 minutes of inactivity")
	}
	if got := f.mgr.State(); got != Expired {
		t.Errorf("State() = %v; want Expired", got)
	}
}

func TestRemainingTime(t *testing.T) {
	f := newFixture(t)

	if got := f.mgr.RemainingTime(); got != 0 {
		t.Errorf("RemainingTime() = %v with no session; want 0", got)
	}

	f.start(t)
	f.advance(5 * time.Minute)
	if got := f.mgr.RemainingTime(); got != 15*time.Minute {
		t.Errorf("RemainingTime() = %v; want 15m", got)
	}

	f.advance(30 * time.Minute)
	if got := f.mgr.RemainingTime(); got != 0 {
		t.Errorf("RemainingTime() = %v past expiry; want 0", got)
	}
}

// a transient read fault must not expire or clear a live session
func TestReadFaultDoesNotClearSession(t *testing.T) {
	storage := &faultStorage{Storage: inmemkv.NewStorage()}
	mgr := NewManager(testutil.NewConfig(), storage, &fakeAuditor{}, nil, testutil.NewLogger())
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	mgr.now = func() time.Time { return now }
	t.Cleanup(func() { _ = mgr.End() })

	if err := mgr.Start(school.User{ID: "user-admin-1", Role: school.RoleAdmin}); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	storage.failGet = true
	if _, ok := mgr.Current(); ok {
		t.Fatal("Current() returned a session during a storage fault")
	}
	if got := mgr.State(); got != Active {
		t.Errorf("State() = %v during a fault; want Active untouched", got)
	}
	if _, ok, _ := storage.Storage.Get("sms_session"); !ok {
		t.Fatal("fault triggered cleanup of the persisted session")
	}

	// a healthy read recovers
	storage.failGet = false
	if _, ok := mgr.Current(); !ok {
		t.Error("Current() did not recover after the fault cleared")
	}
}

func TestCorruptPayloadReadsAsNoSession(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	if err := f.storage.Set("sms_session", "{not json"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	if _, ok := f.mgr.Current(); ok {
		t.Fatal("Current() returned a session from a corrupt payload")
	}
	if got := f.mgr.State(); got != NoSession {
		t.Errorf("State() = %v; want NoSession", got)
	}
	if _, ok, _ := f.storage.Get("sms_session"); ok {
		t.Error("corrupt payload not cleaned up")
	}
}

func TestEndIsIdempotentAndAuditsOnce(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	if err := f.mgr.End(); err != nil {
		t.Fatalf("End() failed: %v", err)
	}
	if got := f.mgr.State(); got != NoSession {
		t.Errorf("State() = %v; want NoSession", got)
	}
	if err := f.mgr.End(); err != nil {
		t.Fatalf("second End() failed: %v", err)
	}

	var logouts int
	for _, e := range f.audit.entries {
		if e.Action == "logout" {
			logouts++
			if e.UserID != "user-teacher-1" || e.UserRole != school.RoleTeacher {
				t.Errorf("logout audited as %s/%s; want the session user", e.UserID, e.UserRole)
			}
		}
	}
	if logouts != 1 {
		t.Errorf("got %d logout audit entries; want exactly 1", logouts)
	}
}

func TestInputObserversSubscribedOnce(t *testing.T) {
	f := newFixture(t)

	f.start(t)
	f.start(t) // re-login while active must not double-subscribe
	if f.input.subscribes != 1 {
		t.Fatalf("got %d subscriptions after two starts; want 1", f.input.subscribes)
	}

	// the subscribed callback refreshes the inactivity window
	f.advance(10 * time.Minute)
	f.input.fn()
	if got := f.mgr.RemainingTime(); got != 20*time.Minute {
		t.Errorf("RemainingTime() = %v after activity; want the full window", got)
	}

	if err := f.mgr.End(); err != nil {
		t.Fatalf("End() failed: %v", err)
	}
	if f.input.cancels != 1 {
		t.Errorf("got %d cancels after End(); want 1", f.input.cancels)
	}

	f.start(t)
	if f.input.subscribes != 2 {
		t.Errorf("got %d subscriptions after a fresh login; want 2", f.input.subscribes)
	}
}

func TestCheckExpiryFiresTimeoutHandlers(t *testing.T) {
	f := newFixture(t)

	var fired int
	f.mgr.OnTimeout(func() { fired++ })

	f.start(t)
	if f.mgr.CheckExpiry() {
		t.Fatal("CheckExpiry() expired a fresh session")
	}
	if fired != 0 {
		t.Fatalf("timeout handler fired %d times before expiry", fired)
	}

	f.advance(21 * time.Minute)
	if !f.mgr.CheckExpiry() {
		t.Fatal("CheckExpiry() missed an expired session")
	}
	if fired != 1 {
		t.Errorf("timeout handler fired %d times; want 1", fired)
	}

	// the session is gone; a second check is a no-op
	if f.mgr.CheckExpiry() {
		t.Error("CheckExpiry() reported a second expiry")
	}
	if fired != 1 {
		t.Errorf("timeout handler fired %d times after cleanup; want 1", fired)
	}
}
