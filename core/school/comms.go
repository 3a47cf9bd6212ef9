package school

import (
	"sort"
	"strings"

	"github.com/volatiletech/null/v8"
)

// Complaints

type ComplaintFilter struct {
	StudentID   string
	SubmittedBy string
	Status      string
}

// Complaints returns complaints matching the filter, most recent first.
func (s *Store) Complaints(filter ComplaintFilter) ([]Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	var recs []Complaint
	for _, c := range data.Complaints {
		if filter.StudentID != "" && c.StudentID != filter.StudentID {
			continue
		}
		if filter.SubmittedBy != "" && c.SubmittedBy != filter.SubmittedBy {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		recs = append(recs, c)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].SubmittedAt.After(recs[j].SubmittedAt) })
	return recs, nil
}

func (s *Store) CreateComplaint(nc NewComplaint) (Complaint, error) {
	if err := nc.Validate(); err != nil {
		return Complaint{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return Complaint{}, err
	}
	rec := Complaint{
		ID:            s.newID("complaint"),
		SubmittedBy:   nc.SubmittedBy,
		SubmitterRole: nc.SubmitterRole,
		StudentID:     nc.StudentID,
		Subject:       nc.Subject,
		Description:   nc.Description,
		Category:      nc.Category,
		Priority:      nc.Priority,
		Status:        ComplaintPending,
		SubmittedAt:   s.now(),
	}
	data.Complaints = append(data.Complaints, rec)

	s.appendAudit(data, NewAuditLog{
		UserID:     nc.SubmittedBy,
		UserRole:   nc.SubmitterRole,
		Action:     "complaint_submitted",
		EntityType: "Complaint",
		EntityID:   rec.ID,
		Details:    "Complaint submitted: " + nc.Subject,
	})
	if err = s.save(data); err != nil {
		return Complaint{}, err
	}
	return rec, nil
}

// UpdateComplaint merges set fields. resolvedAt is stamped exactly once, at
// the moment the status transitions to Resolved.
func (s *Store) UpdateComplaint(id string, uc UpdateComplaint) (Complaint, error) {
	if err := uc.Validate(); err != nil {
		return Complaint{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return Complaint{}, err
	}
	var rec *Complaint
	for i := range data.Complaints {
		if data.Complaints[i].ID == id {
			rec = &data.Complaints[i]
			break
		}
	}
	if rec == nil {
		return Complaint{}, ErrNotFound
	}
	if uc.Status.Valid {
		if uc.Status.String == ComplaintResolved && rec.Status != ComplaintResolved {
			rec.ResolvedAt = null.TimeFrom(s.now())
		}
		rec.Status = uc.Status.String
	}
	if uc.AssignedTo.Valid {
		rec.AssignedTo = uc.AssignedTo
	}
	if uc.Resolution.Valid {
		rec.Resolution = uc.Resolution
	}
	if err = s.save(data); err != nil {
		return Complaint{}, err
	}
	return *rec, nil
}

// Notices

// Notices returns unexpired notices, most recent first, optionally restricted
// to those targeting a role.
func (s *Store) Notices(targetRole string) ([]Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	now := s.now()
	var recs []Notice
	for _, n := range data.Notices {
		if targetRole != "" && !n.Targets(targetRole) {
			continue
		}
		if n.ExpiresAt.Valid && !n.ExpiresAt.Time.After(now) {
			continue
		}
		recs = append(recs, n)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].PostedAt.After(recs[j].PostedAt) })
	return recs, nil
}

// CreateNotice persists the notice, then fans out one NotificationItem per
// active user whose role is targeted. The fan-out persists item by item and is
// not rolled back on a mid-fan-out storage failure; already-created items stay.
func (s *Store) CreateNotice(nn NewNotice) (Notice, error) {
	if err := nn.Validate(); err != nil {
		return Notice{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return Notice{}, err
	}
	rec := Notice{
		ID:             s.newID("notice"),
		Title:          nn.Title,
		Content:        nn.Content,
		Category:       nn.Category,
		Priority:       nn.Priority,
		TargetAudience: nn.TargetAudience,
		PostedBy:       nn.PostedBy,
		PostedAt:       s.now(),
		ExpiresAt:      nn.ExpiresAt,
		Classes:        nn.Classes,
	}
	data.Notices = append(data.Notices, rec)
	s.appendAudit(data, NewAuditLog{
		UserID:     nn.PostedBy,
		UserRole:   RoleAdmin,
		Action:     "notice_posted",
		EntityType: "Notice",
		EntityID:   rec.ID,
		Details:    "Notice posted: " + nn.Title,
	})
	if err = s.save(data); err != nil {
		return Notice{}, err
	}
	if err = s.fanOutNotice(rec); err != nil {
		return Notice{}, err
	}
	return rec, nil
}

func (s *Store) fanOutNotice(n Notice) error {
	data, err := s.load()
	if err != nil {
		return err
	}
	preview := truncate(n.Content, s.cfg.NoticePreviewLen)
	for _, usr := range data.Users {
		if !usr.IsActive || !n.Targets(usr.Role) {
			continue
		}
		item := NotificationItem{
			UserID:  usr.ID,
			Type:    typeOf(n.Category),
			Title:   n.Title,
			Message: preview,
		}
		// one persisted write per recipient: a failure here leaves the
		// already-created items in place (at-most-once-per-recipient-attempted)
		if err = s.createNotification(item); err != nil {
			return err
		}
	}
	return nil
}

// createNotification appends one item in its own read-modify-write cycle.
// The caller must hold the store lock.
func (s *Store) createNotification(item NotificationItem) error {
	data, err := s.load()
	if err != nil {
		return err
	}
	item.ID = s.newID("notif")
	item.Timestamp = s.now()
	data.Notifications = append(data.Notifications, item)
	return s.save(data)
}

// truncate caps msg to a rune prefix followed by an ellipsis marker.
func truncate(msg string, max int) string {
	runes := []rune(msg)
	if len(runes) <= max {
		return msg
	}
	return string(runes[:max]) + "..."
}

func typeOf(category string) string {
	if category == "" {
		return "general"
	}
	return strings.ToLower(category)
}

// Messages

// MessagesFor returns all messages sent to or by the user, most recent first.
func (s *Store) MessagesFor(userID, role string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	var recs []Message
	for _, m := range data.Messages {
		if (m.FromID == userID && m.FromRole == role) || (m.ToID == userID && m.ToRole == role) {
			recs = append(recs, m)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].SentAt.After(recs[j].SentAt) })
	return recs, nil
}

// Conversation returns the two-way exchange between two users, oldest first.
func (s *Store) Conversation(userID1, role1, userID2, role2 string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	var recs []Message
	for _, m := range data.Messages {
		oneWay := m.FromID == userID1 && m.FromRole == role1 && m.ToID == userID2 && m.ToRole == role2
		otherWay := m.FromID == userID2 && m.FromRole == role2 && m.ToID == userID1 && m.ToRole == role1
		if oneWay || otherWay {
			recs = append(recs, m)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].SentAt.Before(recs[j].SentAt) })
	return recs, nil
}

// SendMessage persists the message, notifies the recipient and audits the send.
func (s *Store) SendMessage(nm NewMessage) (Message, error) {
	if err := nm.Validate(); err != nil {
		return Message{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return Message{}, err
	}
	rec := Message{
		ID:        s.newID("message"),
		FromID:    nm.FromID,
		FromRole:  nm.FromRole,
		ToID:      nm.ToID,
		ToRole:    nm.ToRole,
		StudentID: nm.StudentID,
		Subject:   nm.Subject,
		Content:   nm.Content,
		SentAt:    s.now(),
	}
	data.Messages = append(data.Messages, rec)
	s.appendAudit(data, NewAuditLog{
		UserID:     nm.FromID,
		UserRole:   nm.FromRole,
		Action:     "message_sent",
		EntityType: "Message",
		EntityID:   rec.ID,
		Details:    "Message sent to " + nm.ToRole,
	})
	if err = s.save(data); err != nil {
		return Message{}, err
	}

	// exactly one notification, for the recipient
	err = s.createNotification(NotificationItem{
		UserID:  nm.ToID,
		Type:    "message",
		Title:   "New Message",
		Message: "You have a new message from " + nm.FromRole,
	})
	if err != nil {
		return Message{}, err
	}
	return rec, nil
}

func (s *Store) MarkMessageRead(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return err
	}
	for i := range data.Messages {
		if data.Messages[i].ID == id {
			data.Messages[i].IsRead = true
			data.Messages[i].ReadAt = null.TimeFrom(s.now())
			return s.save(data)
		}
	}
	return ErrNotFound
}

// Notifications

// NotificationsFor returns the user's notifications, most recent first; the
// fan-out materialized them at write time so this is a plain filter.
func (s *Store) NotificationsFor(userID string) ([]NotificationItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	var recs []NotificationItem
	for _, n := range data.Notifications {
		if n.UserID == userID {
			recs = append(recs, n)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Timestamp.After(recs[j].Timestamp) })
	return recs, nil
}

func (s *Store) MarkNotificationRead(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return err
	}
	for i := range data.Notifications {
		if data.Notifications[i].ID == id {
			data.Notifications[i].IsRead = true
			return s.save(data)
		}
	}
	return ErrNotFound
}

func (s *Store) MarkAllNotificationsRead(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return err
	}
	for i := range data.Notifications {
		if data.Notifications[i].UserID == userID {
			data.Notifications[i].IsRead = true
		}
	}
	return s.save(data)
}
