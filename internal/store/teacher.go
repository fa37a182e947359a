package store

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/doubtdesk/doubtdesk/internal/model"
)

// CreateTeacher inserts a new teacher account.
func (s *Store) CreateTeacher(tc model.Teacher) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO teachers (name, subject, email, password_hash, is_admin, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		tc.Name, tc.Subject, tc.Email, tc.PasswordHash, tc.IsAdmin, time.Now(),
	)
	if err != nil {
		slog.Error("failed to create teacher", "email", tc.Email, "error", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	slog.Info("created teacher", "id", id, "email", tc.Email, "admin", tc.IsAdmin)
	return id, nil
}

// GetTeacherByEmail returns a teacher by email, or nil if not found.
func (s *Store) GetTeacherByEmail(email string) (*model.Teacher, error) {
	var tc model.Teacher
	err := s.db.QueryRow(
		`SELECT teacher_id, name, subject, email, password_hash, is_admin, created_at
		 FROM teachers WHERE email = ?`, email,
	).Scan(&tc.ID, &tc.Name, &tc.Subject, &tc.Email, &tc.PasswordHash, &tc.IsAdmin, &tc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tc, nil
}

// GetTeacher returns a teacher by ID, or nil if not found.
func (s *Store) GetTeacher(id int64) (*model.Teacher, error) {
	var tc model.Teacher
	err := s.db.QueryRow(
		`SELECT teacher_id, name, subject, email, password_hash, is_admin, created_at
		 FROM teachers WHERE teacher_id = ?`, id,
	).Scan(&tc.ID, &tc.Name, &tc.Subject, &tc.Email, &tc.PasswordHash, &tc.IsAdmin, &tc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tc, nil
}

// ListTeachers returns all teachers, admins included.
func (s *Store) ListTeachers() ([]model.Teacher, error) {
	rows, err := s.db.Query(
		`SELECT teacher_id, name, subject, email, is_admin FROM teachers ORDER BY teacher_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var teachers []model.Teacher
	for rows.Next() {
		var tc model.Teacher
		if err := rows.Scan(&tc.ID, &tc.Name, &tc.Subject, &tc.Email, &tc.IsAdmin); err != nil {
			return nil, err
		}
		teachers = append(teachers, tc)
	}
	return teachers, rows.Err()
}

// DeleteTeacher removes a teacher along with their responses and open web
// sessions. Admin accounts are refused with ErrAdminProtected; a missing
// teacher is a no-op.
func (s *Store) DeleteTeacher(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var isAdmin bool
	err = tx.QueryRow(`SELECT is_admin FROM teachers WHERE teacher_id = ?`, id).Scan(&isAdmin)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}
	if isAdmin {
		return ErrAdminProtected
	}

	if _, err := tx.Exec(`DELETE FROM responses WHERE teacher_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM teachers WHERE teacher_id = ? AND is_admin = 0`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`DELETE FROM auth_sessions WHERE user_id = ? AND role = ?`, id, model.RoleTeacher,
	); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("deleted teacher", "id", id)
	return nil
}

// AdminCount returns the number of admin accounts.
func (s *Store) AdminCount() (int, error) {
	return s.count(`SELECT COUNT(*) FROM teachers WHERE is_admin = 1`)
}

// TeacherCount returns the number of teacher accounts, admins included.
func (s *Store) TeacherCount() (int, error) {
	return s.count(`SELECT COUNT(*) FROM teachers`)
}
