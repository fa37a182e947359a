package store

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/doubtdesk/doubtdesk/internal/model"
)

// CreateStudent inserts a new student account.
func (s *Store) CreateStudent(st model.Student) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO students (name, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		st.Name, st.Email, st.PasswordHash, time.Now(),
	)
	if err != nil {
		slog.Error("failed to create student", "email", st.Email, "error", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	slog.Info("created student", "id", id, "email", st.Email)
	return id, nil
}

// GetStudentByEmail returns a student by email, or nil if not found.
func (s *Store) GetStudentByEmail(email string) (*model.Student, error) {
	var st model.Student
	err := s.db.QueryRow(
		`SELECT student_id, name, email, password_hash, created_at
		 FROM students WHERE email = ?`, email,
	).Scan(&st.ID, &st.Name, &st.Email, &st.PasswordHash, &st.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// GetStudent returns a student by ID, or nil if not found.
func (s *Store) GetStudent(id int64) (*model.Student, error) {
	var st model.Student
	err := s.db.QueryRow(
		`SELECT student_id, name, email, password_hash, created_at
		 FROM students WHERE student_id = ?`, id,
	).Scan(&st.ID, &st.Name, &st.Email, &st.PasswordHash, &st.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// ListStudents returns all students with their doubt counts.
func (s *Store) ListStudents() ([]model.Student, error) {
	rows, err := s.db.Query(
		`SELECT s.student_id, s.name, s.email, s.created_at,
		        (SELECT COUNT(*) FROM doubts d WHERE d.student_id = s.student_id) AS doubt_count
		 FROM students s ORDER BY s.student_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var students []model.Student
	for rows.Next() {
		var st model.Student
		if err := rows.Scan(&st.ID, &st.Name, &st.Email, &st.CreatedAt, &st.DoubtCount); err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, rows.Err()
}
