package store

import (
	"database/sql"
	"time"

	"github.com/doubtdesk/doubtdesk/internal/model"
)

// CreateDoubt inserts a new doubt in Pending status.
func (s *Store) CreateDoubt(d model.Doubt) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO doubts (student_id, subject, doubt_text, status, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		d.StudentID, d.Subject, d.Text, model.StatusPending, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetDoubt returns a doubt with its student's name, or nil if not found.
func (s *Store) GetDoubt(id int64) (*model.Doubt, error) {
	var d model.Doubt
	err := s.db.QueryRow(
		`SELECT d.doubt_id, d.student_id, d.subject, d.doubt_text, d.status, d.created_at, s.name
		 FROM doubts d JOIN students s ON d.student_id = s.student_id
		 WHERE d.doubt_id = ?`, id,
	).Scan(&d.ID, &d.StudentID, &d.Subject, &d.Text, &d.Status, &d.CreatedAt, &d.StudentName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDoubts returns doubts newest first. A zero studentID means all
// students; an empty status means all statuses.
func (s *Store) ListDoubts(studentID int64, status model.DoubtStatus) ([]model.Doubt, error) {
	query := `SELECT d.doubt_id, d.student_id, d.subject, d.doubt_text, d.status, d.created_at, s.name
	          FROM doubts d JOIN students s ON d.student_id = s.student_id WHERE 1=1`
	var args []any
	if studentID != 0 {
		query += ` AND d.student_id = ?`
		args = append(args, studentID)
	}
	if status != "" {
		query += ` AND d.status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY d.created_at DESC, d.doubt_id DESC`
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var doubts []model.Doubt
	for rows.Next() {
		var d model.Doubt
		if err := rows.Scan(&d.ID, &d.StudentID, &d.Subject, &d.Text, &d.Status, &d.CreatedAt, &d.StudentName); err != nil {
			return nil, err
		}
		doubts = append(doubts, d)
	}
	return doubts, rows.Err()
}

// AddResponse inserts a teacher's reply and moves the doubt to newStatus
// in one transaction.
func (s *Store) AddResponse(r model.Response, newStatus model.DoubtStatus) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO responses (doubt_id, teacher_id, response_text, response_date)
		 VALUES (?, ?, ?, ?)`,
		r.DoubtID, r.TeacherID, r.Text, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err := tx.Exec(
		`UPDATE doubts SET status = ? WHERE doubt_id = ?`, newStatus, r.DoubtID,
	); err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

// ListResponses returns a doubt's responses newest first, with teacher names.
func (s *Store) ListResponses(doubtID int64) ([]model.Response, error) {
	rows, err := s.db.Query(
		`SELECT r.response_id, r.doubt_id, r.teacher_id, r.response_text, r.response_date, t.name
		 FROM responses r JOIN teachers t ON r.teacher_id = t.teacher_id
		 WHERE r.doubt_id = ?
		 ORDER BY r.response_date DESC, r.response_id DESC`, doubtID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var responses []model.Response
	for rows.Next() {
		var r model.Response
		if err := rows.Scan(&r.ID, &r.DoubtID, &r.TeacherID, &r.Text, &r.CreatedAt, &r.TeacherName); err != nil {
			return nil, err
		}
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

// GetDoubtDetail returns a doubt with all its responses, or nil if the
// doubt does not exist.
func (s *Store) GetDoubtDetail(doubtID int64) (*model.DoubtDetail, error) {
	d, err := s.GetDoubt(doubtID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, nil
	}
	responses, err := s.ListResponses(doubtID)
	if err != nil {
		return nil, err
	}
	return &model.DoubtDetail{Doubt: *d, Responses: responses}, nil
}
