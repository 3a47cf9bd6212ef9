package school

import (
	"fmt"
	"testing"
	"time"

	"github.com/trezcool/shule/core"
)

var testNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

// fakeStorage is an in-memory Storage with optional fault injection.
type fakeStorage struct {
	data     map[string]string
	sets     int
	failFrom int // fail Set calls once sets >= failFrom; 0 disables
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{data: make(map[string]string)}
}

func (f *fakeStorage) Get(key string) (string, bool, error) {
	val, ok := f.data[key]
	return val, ok, nil
}

func (f *fakeStorage) Set(key, value string) error {
	f.sets++
	if f.failFrom > 0 && f.sets >= f.failFrom {
		return fmt.Errorf("storage full")
	}
	f.data[key] = value
	return nil
}

func (f *fakeStorage) Delete(key string) error {
	delete(f.data, key)
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func testConfig() *core.Config {
	return &core.Config{
		TestMode:         true,
		Env:              "test",
		DataKey:          "sms_data_v1",
		SessionKey:       "sms_session",
		ActivityKey:      "sms_last_activity",
		SessionTimeout:   20 * time.Minute,
		SessionTick:      time.Minute,
		NoticePreviewLen: 100,
	}
}

// newTestStore returns a seeded store with a fixed clock and sequential ids.
func newTestStore(t *testing.T) (*Store, *fakeStorage) {
	t.Helper()
	storage := newFakeStorage()
	store := NewStore(testConfig(), storage, nopLogger{})
	store.now = func() time.Time { return testNow }
	var seq int
	store.newID = func(kind string) string {
		seq++
		return fmt.Sprintf("%s-test-%d", kind, seq)
	}
	if err := store.Initialize(); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	return store, storage
}

func lastAudit(t *testing.T, store *Store, filter AuditFilter) AuditLog {
	t.Helper()
	logs, err := store.AuditLogs(filter)
	if err != nil {
		t.Fatalf("AuditLogs() failed: %v", err)
	}
	if len(logs) == 0 {
		t.Fatalf("AuditLogs(%+v): no entries", filter)
	}
	return logs[0]
}
