// Package client is a typed Go client for the DoubtDesk JSON API. It
// validates input locally with the same rules as the web forms, so bad
// requests are rejected before any network call, and it keeps an
// in-memory session snapshot of the signed-in identity.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/doubtdesk/doubtdesk/internal/assist"
	"github.com/doubtdesk/doubtdesk/internal/model"
)

// APIError is a failure reported by the server, carrying its HTTP status
// and the message from the JSON error body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// Client talks to a DoubtDesk server. The zero value is not usable;
// construct it with New. Session is replaced by Login and cleared by
// Logout; it is not safe for concurrent use.
type Client struct {
	base    string
	http    *http.Client
	Session *model.Session
}

// New creates a client for the server at baseURL (scheme://host[:port],
// without the /api prefix). A nil httpClient falls back to
// http.DefaultClient, leaving timeouts to the platform.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/") + "/api",
		http: httpClient,
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return &APIError{Status: resp.StatusCode, Message: apiErr.Error}
		}
		return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// Login authenticates against the students table, or the teachers table
// when role is "teacher". On success the client's Session is replaced
// with the identity the server reports (admins come back as "admin").
func (c *Client) Login(ctx context.Context, email, password, role string) (*model.Session, error) {
	if err := model.ValidateLogin(email, password); err != nil {
		return nil, err
	}

	var resp struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Role string `json:"role"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, map[string]string{
		"email":    email,
		"password": password,
		"role":     role,
	}, &resp)
	if err != nil {
		return nil, err
	}

	c.Session = &model.Session{UserID: resp.ID, Name: resp.Name, Role: model.Role(resp.Role)}
	return c.Session, nil
}

// Logout clears the in-memory session. The API is stateless, so nothing
// is sent to the server.
func (c *Client) Logout() {
	c.Session = nil
}

// Register creates a student account. The account is not signed in
// afterwards; call Login with the new credentials.
func (c *Client) Register(ctx context.Context, name, email, password, confirm string) error {
	if err := model.ValidateRegistration(name, email, password, confirm); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/auth/register", nil, map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, nil)
}

// StudentDoubts lists a student's doubts, newest first. An empty status
// means all of them.
func (c *Client) StudentDoubts(ctx context.Context, studentID int64, status model.DoubtStatus) ([]model.Doubt, error) {
	q := url.Values{"student_id": {strconv.FormatInt(studentID, 10)}}
	if status != "" {
		q.Set("status", string(status))
	}
	var doubts []model.Doubt
	if err := c.do(ctx, http.MethodGet, "/student/doubts", q, nil, &doubts); err != nil {
		return nil, err
	}
	return doubts, nil
}

// StudentStats returns a student's doubt counters.
func (c *Client) StudentStats(ctx context.Context, studentID int64) (model.StudentStats, error) {
	q := url.Values{"student_id": {strconv.FormatInt(studentID, 10)}}
	var stats model.StudentStats
	err := c.do(ctx, http.MethodGet, "/student/stats", q, nil, &stats)
	return stats, err
}

// SubmitDoubt posts a new doubt for the student.
func (c *Client) SubmitDoubt(ctx context.Context, studentID int64, subject, text string) error {
	if err := model.ValidateDoubt(subject, text); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/doubt/add", nil, map[string]any{
		"student_id": studentID,
		"subject":    subject,
		"doubt_text": text,
	}, nil)
}

// TeacherDoubts lists every student's doubts, optionally filtered by
// status.
func (c *Client) TeacherDoubts(ctx context.Context, status model.DoubtStatus) ([]model.Doubt, error) {
	var q url.Values
	if status != "" {
		q = url.Values{"status": {string(status)}}
	}
	var doubts []model.Doubt
	if err := c.do(ctx, http.MethodGet, "/teacher/doubts", q, nil, &doubts); err != nil {
		return nil, err
	}
	return doubts, nil
}

// TeacherStats returns queue counters. With a zero teacherID the
// my_responses counter stays zero.
func (c *Client) TeacherStats(ctx context.Context, teacherID int64) (model.TeacherStats, error) {
	var q url.Values
	if teacherID != 0 {
		q = url.Values{"teacher_id": {strconv.FormatInt(teacherID, 10)}}
	}
	var stats model.TeacherStats
	err := c.do(ctx, http.MethodGet, "/teacher/stats", q, nil, &stats)
	return stats, err
}

// DoubtDetail fetches one doubt with its response thread, newest
// response first.
func (c *Client) DoubtDetail(ctx context.Context, doubtID int64) (*model.DoubtDetail, error) {
	q := url.Values{"doubt_id": {strconv.FormatInt(doubtID, 10)}}
	var detail model.DoubtDetail
	if err := c.do(ctx, http.MethodGet, "/doubt/details", q, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Respond posts a teacher's reply and moves the doubt to newStatus. An
// empty status resolves the doubt.
func (c *Client) Respond(ctx context.Context, doubtID, teacherID int64, text string, newStatus model.DoubtStatus) error {
	if err := model.ValidateResponse(text); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/doubt/respond", nil, map[string]any{
		"doubt_id":      doubtID,
		"teacher_id":    teacherID,
		"response_text": text,
		"status":        string(newStatus),
	}, nil)
}

// SuggestResponse asks the server's assistant for a drafted reply. The
// server answers 503 when no assistant is configured.
func (c *Client) SuggestResponse(ctx context.Context, doubtID int64) (*assist.Suggestion, error) {
	var sg assist.Suggestion
	err := c.do(ctx, http.MethodPost, "/doubt/suggest", nil, map[string]any{
		"doubt_id": doubtID,
	}, &sg)
	if err != nil {
		return nil, err
	}
	return &sg, nil
}

// AdminStats returns platform-wide counters.
func (c *Client) AdminStats(ctx context.Context) (model.AdminStats, error) {
	var stats model.AdminStats
	err := c.do(ctx, http.MethodGet, "/admin/stats", nil, nil, &stats)
	return stats, err
}

// Teachers lists all teacher accounts.
func (c *Client) Teachers(ctx context.Context) ([]model.Teacher, error) {
	var teachers []model.Teacher
	if err := c.do(ctx, http.MethodGet, "/admin/teachers", nil, nil, &teachers); err != nil {
		return nil, err
	}
	return teachers, nil
}

// Students lists all student accounts with their doubt counts.
func (c *Client) Students(ctx context.Context) ([]model.Student, error) {
	var students []model.Student
	if err := c.do(ctx, http.MethodGet, "/admin/students", nil, nil, &students); err != nil {
		return nil, err
	}
	return students, nil
}

// AddTeacher creates a teacher account.
func (c *Client) AddTeacher(ctx context.Context, name, subject, email, password string) error {
	if err := model.ValidateTeacher(name, subject, email, password); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/admin/teacher/add", nil, map[string]string{
		"name":     name,
		"subject":  subject,
		"email":    email,
		"password": password,
	}, nil)
}

// DeleteTeacher removes a teacher account. Admin accounts are refused
// with a 403.
func (c *Client) DeleteTeacher(ctx context.Context, teacherID int64) error {
	return c.do(ctx, http.MethodPost, "/admin/teacher/delete", nil, map[string]any{
		"teacher_id": teacherID,
	}, nil)
}
