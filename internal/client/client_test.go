package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/go-chi/chi/v5"
	"github.com/doubtdesk/doubtdesk/internal/handler"
	"github.com/doubtdesk/doubtdesk/internal/i18n"
	"github.com/doubtdesk/doubtdesk/internal/model"
	"github.com/doubtdesk/doubtdesk/internal/store"
)

// newTestServer runs the real handler stack so client calls go through
// full HTTP round trips.
func newTestServer(t *testing.T) (*Client, *store.Store) {
	t.Helper()
	if err := i18n.Init("en"); err != nil {
		t.Fatalf("init i18n: %v", err)
	}
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	h, err := handler.New(s, nil, model.WebConfig{})
	if err != nil {
		t.Fatalf("create handler: %v", err)
	}
	r := chi.NewRouter()
	h.Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return New(srv.URL, srv.Client()), s
}

func seedTeacher(t *testing.T, s *store.Store, name, email, password string, isAdmin bool) int64 {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	id, err := s.CreateTeacher(model.Teacher{
		Name:         name,
		Subject:      "Physics",
		Email:        email,
		PasswordHash: string(hash),
		IsAdmin:      isAdmin,
	})
	if err != nil {
		t.Fatalf("seed teacher: %v", err)
	}
	return id
}

func TestStudentRoundTrip(t *testing.T) {
	c, _ := newTestServer(t)
	ctx := context.Background()

	if err := c.Register(ctx, "Asha Verma", "asha@example.com", "pass1234", "pass1234"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if c.Session != nil {
		t.Error("register must not sign the account in")
	}

	sess, err := c.Login(ctx, "asha@example.com", "pass1234", "student")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.Name != "Asha Verma" || sess.Role != model.RoleStudent {
		t.Errorf("unexpected session: %+v", sess)
	}
	if c.Session != sess {
		t.Error("login should store the session on the client")
	}

	if err := c.SubmitDoubt(ctx, sess.UserID, "Physics", "Why is the sky blue during the day?"); err != nil {
		t.Fatalf("submit doubt: %v", err)
	}

	doubts, err := c.StudentDoubts(ctx, sess.UserID, "")
	if err != nil {
		t.Fatalf("list doubts: %v", err)
	}
	if len(doubts) != 1 || doubts[0].Status != model.StatusPending {
		t.Fatalf("unexpected doubts: %+v", doubts)
	}

	stats, err := c.StudentStats(ctx, sess.UserID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 1 || stats.Pending != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	c.Logout()
	if c.Session != nil {
		t.Error("logout should clear the session")
	}
}

func TestTeacherRoundTrip(t *testing.T) {
	c, s := newTestServer(t)
	ctx := context.Background()

	teacherID := seedTeacher(t, s, "Mr. Rao", "rao@example.com", "teachpass", false)
	if err := c.Register(ctx, "Asha", "asha@example.com", "pass1234", "pass1234"); err != nil {
		t.Fatalf("register: %v", err)
	}
	studentSess, err := c.Login(ctx, "asha@example.com", "pass1234", "student")
	if err != nil {
		t.Fatalf("student login: %v", err)
	}
	if err := c.SubmitDoubt(ctx, studentSess.UserID, "Physics", "How do tides work at the coast?"); err != nil {
		t.Fatalf("submit doubt: %v", err)
	}

	sess, err := c.Login(ctx, "rao@example.com", "teachpass", "teacher")
	if err != nil {
		t.Fatalf("teacher login: %v", err)
	}
	if sess.Role != model.RoleTeacher || sess.UserID != teacherID {
		t.Errorf("unexpected session: %+v", sess)
	}

	doubts, err := c.TeacherDoubts(ctx, model.StatusPending)
	if err != nil {
		t.Fatalf("teacher doubts: %v", err)
	}
	if len(doubts) != 1 {
		t.Fatalf("expected 1 pending doubt, got %d", len(doubts))
	}

	if err := c.Respond(ctx, doubts[0].ID, teacherID, "The moon pulls on the oceans.", model.StatusInProgress); err != nil {
		t.Fatalf("respond: %v", err)
	}

	detail, err := c.DoubtDetail(ctx, doubts[0].ID)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail.Doubt.Status != model.StatusInProgress {
		t.Errorf("expected In Progress, got %s", detail.Doubt.Status)
	}
	if len(detail.Responses) != 1 || detail.Responses[0].TeacherName != "Mr. Rao" {
		t.Errorf("unexpected responses: %+v", detail.Responses)
	}

	stats, err := c.TeacherStats(ctx, teacherID)
	if err != nil {
		t.Fatalf("teacher stats: %v", err)
	}
	if stats.MyResponses != 1 || stats.InProgress != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestAdminRoundTrip(t *testing.T) {
	c, s := newTestServer(t)
	ctx := context.Background()

	adminID := seedTeacher(t, s, "Root", "admin@example.com", "adminpass", true)
	sess, err := c.Login(ctx, "admin@example.com", "adminpass", "teacher")
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if sess.Role != model.RoleAdmin {
		t.Errorf("expected admin role, got %s", sess.Role)
	}

	if err := c.AddTeacher(ctx, "Ms. Iyer", "Chemistry", "iyer@example.com", "newpass"); err != nil {
		t.Fatalf("add teacher: %v", err)
	}

	teachers, err := c.Teachers(ctx)
	if err != nil {
		t.Fatalf("list teachers: %v", err)
	}
	if len(teachers) != 2 {
		t.Fatalf("expected 2 teachers, got %d", len(teachers))
	}

	stats, err := c.AdminStats(ctx)
	if err != nil {
		t.Fatalf("admin stats: %v", err)
	}
	if stats.Teachers != 2 || stats.Students != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	var victimID int64
	for _, teach := range teachers {
		if !teach.IsAdmin {
			victimID = teach.ID
		}
	}
	if err := c.DeleteTeacher(ctx, victimID); err != nil {
		t.Fatalf("delete teacher: %v", err)
	}

	err = c.DeleteTeacher(ctx, adminID)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusForbidden || apiErr.Message != "Cannot delete admin account" {
		t.Errorf("unexpected error: %+v", apiErr)
	}

	students, err := c.Students(ctx)
	if err != nil {
		t.Fatalf("list students: %v", err)
	}
	if len(students) != 0 {
		t.Errorf("expected no students, got %d", len(students))
	}
}

func TestValidationBlocksRequests(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, "should not be reached", http.StatusTeapot)
	}))
	defer srv.Close()
	c := New(srv.URL, srv.Client())
	ctx := context.Background()

	var vErr *model.ValidationError

	if _, err := c.Login(ctx, "", "", "student"); !errors.As(err, &vErr) {
		t.Errorf("empty login: expected validation error, got %v", err)
	}
	if err := c.Register(ctx, "Asha", "asha@example.com", "pass1234", "different"); !errors.As(err, &vErr) {
		t.Errorf("mismatched passwords: expected validation error, got %v", err)
	}
	if err := c.Register(ctx, "Asha", "not-an-email", "pass1234", "pass1234"); !errors.As(err, &vErr) {
		t.Errorf("bad email: expected validation error, got %v", err)
	}
	if err := c.SubmitDoubt(ctx, 1, "Math", "too short"); !errors.As(err, &vErr) {
		t.Errorf("short doubt: expected validation error, got %v", err)
	}
	if err := c.Respond(ctx, 1, 1, "   ", ""); !errors.As(err, &vErr) {
		t.Errorf("blank response: expected validation error, got %v", err)
	}
	if err := c.AddTeacher(ctx, "", "", "", ""); !errors.As(err, &vErr) {
		t.Errorf("empty teacher: expected validation error, got %v", err)
	}

	if requests != 0 {
		t.Errorf("validation failures must not reach the server, saw %d requests", requests)
	}
}

func TestServerErrorSurfacing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"database is locked"}`))
	}))
	defer srv.Close()
	c := New(srv.URL, srv.Client())

	_, err := c.AdminStats(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusInternalServerError || apiErr.Message != "database is locked" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestNonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()
	c := New(srv.URL, srv.Client())

	_, err := c.Teachers(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadGateway || apiErr.Message != http.StatusText(http.StatusBadGateway) {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestFailedLoginKeepsSession(t *testing.T) {
	c, s := newTestServer(t)
	ctx := context.Background()
	seedTeacher(t, s, "Mr. Rao", "rao@example.com", "teachpass", false)

	if _, err := c.Login(ctx, "rao@example.com", "teachpass", "teacher"); err != nil {
		t.Fatalf("login: %v", err)
	}
	before := c.Session

	if _, err := c.Login(ctx, "rao@example.com", "wrong", "teacher"); err == nil {
		t.Fatal("expected login failure")
	}
	if c.Session != before {
		t.Error("failed login must leave the session untouched")
	}
}
