package school

import "sort"

// The audit trail is append-only and immutable: entries are never mutated or
// removed, and there is deliberately no update operation for this collection.

type AuditFilter struct {
	UserID     string
	Action     string
	EntityType string
}

// RecordAudit appends one entry. It only fails on an underlying persistence
// failure, which is propagated, not swallowed.
func (s *Store) RecordAudit(entry NewAuditLog) (AuditLog, error) {
	if err := entry.Validate(); err != nil {
		return AuditLog{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return AuditLog{}, err
	}
	rec := s.appendAudit(data, entry)
	if err = s.save(data); err != nil {
		return AuditLog{}, err
	}
	return rec, nil
}

// AuditLogs returns entries matching the filter, most recent first.
func (s *Store) AuditLogs(filter AuditFilter) ([]AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	var recs []AuditLog
	for _, l := range data.AuditLogs {
		if filter.UserID != "" && l.UserID != filter.UserID {
			continue
		}
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		if filter.EntityType != "" && l.EntityType != filter.EntityType {
			continue
		}
		recs = append(recs, l)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Timestamp.After(recs[j].Timestamp) })
	return recs, nil
}
