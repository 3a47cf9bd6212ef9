package school

import (
	"testing"
	"time"
)

func TestRecordAudit(t *testing.T) {
	store, _ := newTestStore(t)

	rec, err := store.RecordAudit(NewAuditLog{
		UserID: "admin-1", UserRole: RoleAdmin,
		Action: "export_started", EntityType: "Report",
		Details: "Term report export",
	})
	if err != nil {
		t.Fatalf("RecordAudit() failed: %v", err)
	}
	if rec.ID == "" || !rec.Timestamp.Equal(testNow) {
		t.Errorf("entry = %+v; want assigned id and timestamp", rec)
	}

	if _, err = store.RecordAudit(NewAuditLog{UserID: "admin-1"}); err == nil {
		t.Error("RecordAudit() accepted an entry without action")
	}
}

func TestAuditLogsFilterAndOrder(t *testing.T) {
	store, _ := newTestStore(t)

	var i int
	store.now = func() time.Time {
		i++
		return testNow.Add(time.Duration(i) * time.Second)
	}
	entries := []NewAuditLog{
		{UserID: "u1", UserRole: RoleAdmin, Action: "a", EntityType: "Fee"},
		{UserID: "u2", UserRole: RoleAdmin, Action: "b", EntityType: "Fee"},
		{UserID: "u1", UserRole: RoleAdmin, Action: "a", EntityType: "Notice"},
	}
	for _, e := range entries {
		if _, err := store.RecordAudit(e); err != nil {
			t.Fatalf("RecordAudit() failed: %v", err)
		}
	}

	logs, err := store.AuditLogs(AuditFilter{UserID: "u1"})
	if err != nil {
		t.Fatalf("AuditLogs() failed: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("got %d entries for u1; want 2", len(logs))
	}
	if logs[0].Timestamp.Before(logs[1].Timestamp) {
		t.Error("entries not sorted most recent first")
	}

	logs, err = store.AuditLogs(AuditFilter{UserID: "u1", EntityType: "Fee", Action: "a"})
	if err != nil {
		t.Fatalf("AuditLogs() failed: %v", err)
	}
	if len(logs) != 1 {
		t.Errorf("got %d entries for combined filter; want 1", len(logs))
	}
}
