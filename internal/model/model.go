package model

import (
	"context"
	"time"
)

// Role represents a user's access level.
type Role string

const (
	// RoleStudent is a student user role.
	RoleStudent Role = "student"
	// RoleTeacher is a teacher user role.
	RoleTeacher Role = "teacher"
	// RoleAdmin is an admin user role. Admins are rows in the teachers
	// table with the is_admin flag set.
	RoleAdmin Role = "admin"
)

// DoubtStatus represents the lifecycle state of a doubt.
type DoubtStatus string

const (
	StatusPending    DoubtStatus = "Pending"
	StatusInProgress DoubtStatus = "In Progress"
	StatusResolved   DoubtStatus = "Resolved"
)

// AllDoubtStatuses lists the valid statuses in lifecycle order.
var AllDoubtStatuses = []DoubtStatus{StatusPending, StatusInProgress, StatusResolved}

// ParseDoubtStatus maps a wire value to a DoubtStatus. The second return
// is false for anything outside the three known states.
func ParseDoubtStatus(s string) (DoubtStatus, bool) {
	switch DoubtStatus(s) {
	case StatusPending, StatusInProgress, StatusResolved:
		return DoubtStatus(s), true
	}
	return "", false
}

// Student represents a registered student account.
type Student struct {
	ID           int64     `json:"student_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	// DoubtCount is filled by the admin listing query.
	DoubtCount int `json:"doubt_count"`
}

// Teacher represents a teacher account. Admin accounts live in the same
// table with IsAdmin set.
type Teacher struct {
	ID           int64     `json:"teacher_id"`
	Name         string    `json:"name"`
	Subject      string    `json:"subject"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"-"`
}

// Role reports the effective role for this account.
func (t *Teacher) Role() Role {
	if t.IsAdmin {
		return RoleAdmin
	}
	return RoleTeacher
}

// Doubt represents a student's submitted question.
type Doubt struct {
	ID        int64       `json:"doubt_id"`
	StudentID int64       `json:"student_id"`
	Subject   string      `json:"subject"`
	Text      string      `json:"doubt_text"`
	Status    DoubtStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	// StudentName is filled by listing queries that join the students table.
	StudentName string `json:"student_name"`
}

// Response represents a teacher's reply to a doubt.
type Response struct {
	ID        int64     `json:"response_id"`
	DoubtID   int64     `json:"doubt_id"`
	TeacherID int64     `json:"teacher_id"`
	Text      string    `json:"response_text"`
	CreatedAt time.Time `json:"response_date"`
	// TeacherName is filled by queries that join the teachers table.
	TeacherName string `json:"teacher_name"`
}

// DoubtDetail bundles a doubt with its responses, newest first.
type DoubtDetail struct {
	Doubt     Doubt      `json:"doubt"`
	Responses []Response `json:"responses"`
}

// StudentStats summarizes one student's doubts.
type StudentStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Resolved int `json:"resolved"`
}

// TeacherStats summarizes the shared queue plus one teacher's contribution.
type TeacherStats struct {
	Pending     int `json:"pending"`
	InProgress  int `json:"in_progress"`
	Resolved    int `json:"resolved"`
	MyResponses int `json:"my_responses"`
}

// AdminStats summarizes the whole installation.
type AdminStats struct {
	Students    int `json:"students"`
	Teachers    int `json:"teachers"`
	TotalDoubts int `json:"total_doubts"`
	Resolved    int `json:"resolved"`
	Pending     int `json:"pending"`
	// ResolutionPct is resolved/total rounded to the nearest percent,
	// zero when there are no doubts.
	ResolutionPct int `json:"resolution_pct"`
}

// AuthSession represents a server-side authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	Role      Role
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Session is the signed-in identity carried through a request, or held by
// an API client between calls.
type Session struct {
	UserID int64
	Name   string
	Role   Role
}

type sessionCtxKey struct{}

// ContextWithSession stores the signed-in identity in the request context.
func ContextWithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, s)
}

// SessionFromContext retrieves the signed-in identity from context, or nil.
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionCtxKey{}).(*Session)
	return s
}

type csrfCtxKey struct{}

// ContextWithCSRFToken stores the CSRF token in context.
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfCtxKey{}, token)
}

// CSRFTokenFromContext retrieves the CSRF token from context.
func CSRFTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(csrfCtxKey{}).(string)
	return t
}

// WebConfig holds runtime web parameters set via CLI flags.
type WebConfig struct {
	SecureCookies bool // Set Secure flag on cookies (disable for local dev)
}
