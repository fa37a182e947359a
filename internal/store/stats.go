package store

import (
	"math"

	"github.com/doubtdesk/doubtdesk/internal/model"
)

// StudentStats summarizes one student's doubts.
func (s *Store) StudentStats(studentID int64) (model.StudentStats, error) {
	var st model.StudentStats
	var err error
	if st.Total, err = s.count(`SELECT COUNT(*) FROM doubts WHERE student_id = ?`, studentID); err != nil {
		return st, err
	}
	if st.Pending, err = s.count(
		`SELECT COUNT(*) FROM doubts WHERE student_id = ? AND status = ?`, studentID, model.StatusPending,
	); err != nil {
		return st, err
	}
	st.Resolved, err = s.count(
		`SELECT COUNT(*) FROM doubts WHERE student_id = ? AND status = ?`, studentID, model.StatusResolved,
	)
	return st, err
}

// TeacherStats summarizes the shared doubt queue. A non-zero teacherID also
// fills the teacher's own response count.
func (s *Store) TeacherStats(teacherID int64) (model.TeacherStats, error) {
	var st model.TeacherStats
	var err error
	if st.Pending, err = s.count(`SELECT COUNT(*) FROM doubts WHERE status = ?`, model.StatusPending); err != nil {
		return st, err
	}
	if st.InProgress, err = s.count(`SELECT COUNT(*) FROM doubts WHERE status = ?`, model.StatusInProgress); err != nil {
		return st, err
	}
	if st.Resolved, err = s.count(`SELECT COUNT(*) FROM doubts WHERE status = ?`, model.StatusResolved); err != nil {
		return st, err
	}
	if teacherID != 0 {
		if st.MyResponses, err = s.count(`SELECT COUNT(*) FROM responses WHERE teacher_id = ?`, teacherID); err != nil {
			return st, err
		}
	}
	return st, nil
}

// AdminStats summarizes the whole installation.
func (s *Store) AdminStats() (model.AdminStats, error) {
	var st model.AdminStats
	var err error
	if st.Students, err = s.count(`SELECT COUNT(*) FROM students`); err != nil {
		return st, err
	}
	if st.Teachers, err = s.count(`SELECT COUNT(*) FROM teachers`); err != nil {
		return st, err
	}
	if st.TotalDoubts, err = s.count(`SELECT COUNT(*) FROM doubts`); err != nil {
		return st, err
	}
	if st.Resolved, err = s.count(`SELECT COUNT(*) FROM doubts WHERE status = ?`, model.StatusResolved); err != nil {
		return st, err
	}
	if st.Pending, err = s.count(`SELECT COUNT(*) FROM doubts WHERE status = ?`, model.StatusPending); err != nil {
		return st, err
	}
	if st.TotalDoubts > 0 {
		st.ResolutionPct = int(math.Round(float64(st.Resolved) / float64(st.TotalDoubts) * 100))
	}
	return st, nil
}
