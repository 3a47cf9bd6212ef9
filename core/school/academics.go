package school

import (
	"fmt"
	"sort"
)

// Attendance

// AttendanceByStudent returns a student's attendance, most recent first.
// from/to bound the date range when non-empty (inclusive, DateLayout).
func (s *Store) AttendanceByStudent(studentID, from, to string) ([]Attendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	var recs []Attendance
	for _, a := range data.Attendance {
		if a.StudentID != studentID {
			continue
		}
		if from != "" && a.Date < from {
			continue
		}
		if to != "" && a.Date > to {
			continue
		}
		recs = append(recs, a)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Date > recs[j].Date })
	return recs, nil
}

// AttendanceByDate returns all attendance for a day, optionally restricted to
// one "class-section".
func (s *Store) AttendanceByDate(date, classSection string) ([]Attendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	inClass := make(map[string]bool)
	if classSection != "" {
		for _, st := range data.Students {
			if st.ClassSection() == classSection {
				inClass[st.ID] = true
			}
		}
	}
	var recs []Attendance
	for _, a := range data.Attendance {
		if a.Date != date {
			continue
		}
		if classSection != "" && !inClass[a.StudentID] {
			continue
		}
		recs = append(recs, a)
	}
	return recs, nil
}

// MarkAttendance upserts the (studentID, date) record: marking the same day
// twice overwrites the status in place instead of duplicating.
func (s *Store) MarkAttendance(na NewAttendance) (Attendance, error) {
	if err := na.Validate(); err != nil {
		return Attendance{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return Attendance{}, err
	}

	rec := Attendance{
		ID:        s.newID("attendance"),
		StudentID: na.StudentID,
		Date:      na.Date,
		Status:    na.Status,
		MarkedBy:  na.MarkedBy,
		MarkedAt:  s.now(),
		Remarks:   na.Remarks,
	}
	updated := false
	for i := range data.Attendance {
		if data.Attendance[i].StudentID == na.StudentID && data.Attendance[i].Date == na.Date {
			rec.ID = data.Attendance[i].ID // keep the original id
			data.Attendance[i] = rec
			updated = true
			break
		}
	}
	if !updated {
		data.Attendance = append(data.Attendance, rec)
	}

	s.appendAudit(data, NewAuditLog{
		UserID:     na.MarkedBy,
		UserRole:   RoleTeacher,
		Action:     "attendance_marked",
		EntityType: "Attendance",
		EntityID:   rec.ID,
		Details:    fmt.Sprintf("Marked %s for student %s on %s", na.Status, na.StudentID, na.Date),
	})
	if err = s.save(data); err != nil {
		return Attendance{}, err
	}
	return rec, nil
}

// Marks

func (s *Store) MarksByStudent(studentID string) ([]Marks, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	var recs []Marks
	for _, m := range data.Marks {
		if m.StudentID == studentID {
			recs = append(recs, m)
		}
	}
	return recs, nil
}

func (s *Store) AllMarks() ([]Marks, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	return data.Marks, nil
}

// EnterMarks persists a new marks record with its derived grade.
func (s *Store) EnterMarks(nm NewMarks) (Marks, error) {
	if err := nm.Validate(); err != nil {
		return Marks{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return Marks{}, err
	}
	rec := Marks{
		ID:            s.newID("marks"),
		StudentID:     nm.StudentID,
		Subject:       nm.Subject,
		ExamType:      nm.ExamType,
		Term:          nm.Term,
		MarksObtained: nm.MarksObtained,
		TotalMarks:    nm.TotalMarks,
		Grade:         GradeFromMarks(nm.MarksObtained, nm.TotalMarks),
		EnteredBy:     nm.EnteredBy,
		EnteredAt:     s.now(),
	}
	data.Marks = append(data.Marks, rec)

	s.appendAudit(data, NewAuditLog{
		UserID:     nm.EnteredBy,
		UserRole:   RoleTeacher,
		Action:     "marks_entered",
		EntityType: "Marks",
		EntityID:   rec.ID,
		Details:    fmt.Sprintf("Entered marks for student %s: %d/%d", nm.StudentID, nm.MarksObtained, nm.TotalMarks),
	})
	if err = s.save(data); err != nil {
		return Marks{}, err
	}
	return rec, nil
}

// UpdateMarks merges set fields and recomputes the grade when either marks
// input changed.
func (s *Store) UpdateMarks(id string, um UpdateMarks) (Marks, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return Marks{}, err
	}
	var rec *Marks
	for i := range data.Marks {
		if data.Marks[i].ID == id {
			rec = &data.Marks[i]
			break
		}
	}
	if rec == nil {
		return Marks{}, ErrNotFound
	}
	if um.MarksObtained.Valid {
		rec.MarksObtained = um.MarksObtained.Int
	}
	if um.TotalMarks.Valid {
		rec.TotalMarks = um.TotalMarks.Int
	}
	if um.MarksObtained.Valid || um.TotalMarks.Valid {
		rec.Grade = GradeFromMarks(rec.MarksObtained, rec.TotalMarks)
	}
	if err = s.save(data); err != nil {
		return Marks{}, err
	}
	return *rec, nil
}

// Fees

func (s *Store) FeesByStudent(studentID string) ([]Fee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	var recs []Fee
	for _, f := range data.Fees {
		if f.StudentID == studentID {
			recs = append(recs, f)
		}
	}
	return recs, nil
}

func (s *Store) AllFees() ([]Fee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	return data.Fees, nil
}

func (s *Store) CreateFee(nf NewFee) (Fee, error) {
	if err := nf.Validate(); err != nil {
		return Fee{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return Fee{}, err
	}
	now := s.now()
	rec := Fee{
		ID:          s.newID("fee"),
		StudentID:   nf.StudentID,
		Term:        nf.Term,
		Amount:      nf.Amount,
		DueDate:     nf.DueDate,
		Status:      FeeStatusFor(nf.Amount, 0, nf.DueDate, now),
		LastUpdated: now,
		UpdatedBy:   nf.UpdatedBy,
	}
	data.Fees = append(data.Fees, rec)
	if err = s.save(data); err != nil {
		return Fee{}, err
	}
	return rec, nil
}

// UpdateFee merges set fields; the status is recomputed whenever paidAmount
// changes, with precedence Paid > Overdue > Pending.
func (s *Store) UpdateFee(id string, uf UpdateFee) (Fee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return Fee{}, err
	}
	var rec *Fee
	for i := range data.Fees {
		if data.Fees[i].ID == id {
			rec = &data.Fees[i]
			break
		}
	}
	if rec == nil {
		return Fee{}, ErrNotFound
	}
	now := s.now()
	if uf.PaidAmount.Valid {
		rec.PaidAmount = uf.PaidAmount.Int
		rec.Status = FeeStatusFor(rec.Amount, rec.PaidAmount, rec.DueDate, now)
	}
	if uf.UpdatedBy.Valid {
		rec.UpdatedBy = uf.UpdatedBy.String
	}
	rec.LastUpdated = now

	s.appendAudit(data, NewAuditLog{
		UserID:     rec.UpdatedBy,
		UserRole:   RoleAdmin,
		Action:     "fee_updated",
		EntityType: "Fee",
		EntityID:   rec.ID,
		Details:    fmt.Sprintf("Fee %s for student %s: paid %d/%d", rec.Status, rec.StudentID, rec.PaidAmount, rec.Amount),
	})
	if err = s.save(data); err != nil {
		return Fee{}, err
	}
	return *rec, nil
}

// Certificates

func (s *Store) CertificatesByStudent(studentID string) ([]Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	var recs []Certificate
	for _, c := range data.Certificates {
		if c.StudentID == studentID {
			recs = append(recs, c)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].DateAwarded > recs[j].DateAwarded })
	return recs, nil
}

func (s *Store) CreateCertificate(nc NewCertificate) (Certificate, error) {
	if err := nc.Validate(); err != nil {
		return Certificate{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return Certificate{}, err
	}
	rec := Certificate{
		ID:          s.newID("cert"),
		StudentID:   nc.StudentID,
		Title:       nc.Title,
		Description: nc.Description,
		Category:    nc.Category,
		DateAwarded: nc.DateAwarded,
		UploadedBy:  nc.UploadedBy,
		UploadedAt:  s.now(),
		FileURL:     nc.FileURL,
	}
	data.Certificates = append(data.Certificates, rec)
	if err = s.save(data); err != nil {
		return Certificate{}, err
	}
	return rec, nil
}

// Behavior remarks

func (s *Store) BehaviorRemarksByStudent(studentID string) ([]BehaviorRemark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	var recs []BehaviorRemark
	for _, b := range data.BehaviorRemarks {
		if b.StudentID == studentID {
			recs = append(recs, b)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Date > recs[j].Date })
	return recs, nil
}

func (s *Store) CreateBehaviorRemark(nb NewBehaviorRemark) (BehaviorRemark, error) {
	if err := nb.Validate(); err != nil {
		return BehaviorRemark{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return BehaviorRemark{}, err
	}
	rec := BehaviorRemark{
		ID:        s.newID("behavior"),
		StudentID: nb.StudentID,
		TeacherID: nb.TeacherID,
		Date:      nb.Date,
		Type:      nb.Type,
		Category:  nb.Category,
		Remark:    nb.Remark,
		CreatedAt: s.now(),
	}
	data.BehaviorRemarks = append(data.BehaviorRemarks, rec)
	if err = s.save(data); err != nil {
		return BehaviorRemark{}, err
	}
	return rec, nil
}
