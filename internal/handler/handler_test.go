package handler

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/go-chi/chi/v5"
	"github.com/doubtdesk/doubtdesk/internal/i18n"
	"github.com/doubtdesk/doubtdesk/internal/model"
	"github.com/doubtdesk/doubtdesk/internal/store"
)

func newTestApp(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	if err := i18n.Init("en"); err != nil {
		t.Fatalf("init i18n: %v", err)
	}
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	h, err := New(s, nil, model.WebConfig{})
	if err != nil {
		t.Fatalf("create handler: %v", err)
	}
	r := chi.NewRouter()
	h.Routes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, s
}

// newClient returns a cookie-keeping client that does not follow
// redirects, so tests can assert on Location headers.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(hash)
}

func seedStudentAccount(t *testing.T, s *store.Store, name, email, password string) int64 {
	t.Helper()
	id, err := s.CreateStudent(model.Student{Name: name, Email: email, PasswordHash: mustHash(t, password)})
	if err != nil {
		t.Fatalf("seed student: %v", err)
	}
	return id
}

func seedTeacherAccount(t *testing.T, s *store.Store, name, email, password string, isAdmin bool) int64 {
	t.Helper()
	id, err := s.CreateTeacher(model.Teacher{
		Name:         name,
		Subject:      "Physics",
		Email:        email,
		PasswordHash: mustHash(t, password),
		IsAdmin:      isAdmin,
	})
	if err != nil {
		t.Fatalf("seed teacher: %v", err)
	}
	return id
}

// currentCSRF reads the double-submit token from the cookie jar, fetching
// the login page first if the client has no token yet.
func currentCSRF(t *testing.T, client *http.Client, base string) string {
	t.Helper()
	u, err := url.Parse(base)
	if err != nil {
		t.Fatalf("parse base url: %v", err)
	}
	find := func() string {
		for _, c := range client.Jar.Cookies(u) {
			if c.Name == "csrf_token" {
				return c.Value
			}
		}
		return ""
	}
	if tok := find(); tok != "" {
		return tok
	}
	resp, err := client.Get(base + "/login")
	if err != nil {
		t.Fatalf("get login page: %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if tok := find(); tok != "" {
		return tok
	}
	t.Fatal("no csrf cookie issued")
	return ""
}

func postForm(t *testing.T, client *http.Client, base, path string, form url.Values) *http.Response {
	t.Helper()
	form.Set("csrf_token", currentCSRF(t, client, base))
	resp, err := client.PostForm(base+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func getPage(t *testing.T, client *http.Client, base, path string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Get(base + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp, readBody(t, resp)
}

func login(t *testing.T, client *http.Client, base, email, password, role string) {
	t.Helper()
	resp := postForm(t, client, base, "/auth/login", url.Values{
		"email":    {email},
		"password": {password},
		"role":     {role},
	})
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("login returned %d: %s", resp.StatusCode, body)
	}
}

func TestLoginFlow(t *testing.T) {
	srv, s := newTestApp(t)
	client := newClient(t)
	seedStudentAccount(t, s, "Asha Verma", "asha@example.com", "pass1234")

	resp := postForm(t, client, srv.URL, "/auth/login", url.Values{
		"email":    {"asha@example.com"},
		"password": {"pass1234"},
		"role":     {"student"},
	})
	readBody(t, resp)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/student" {
		t.Errorf("expected redirect to /student, got %q", loc)
	}

	resp, body := getPage(t, client, srv.URL, "/student")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard returned %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Welcome back, Asha Verma!") {
		t.Error("dashboard missing welcome line")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv, s := newTestApp(t)
	client := newClient(t)
	seedStudentAccount(t, s, "Asha", "asha@example.com", "pass1234")

	resp := postForm(t, client, srv.URL, "/auth/login", url.Values{
		"email":    {"asha@example.com"},
		"password": {"wrong"},
		"role":     {"student"},
	})
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Invalid email or password") {
		t.Error("missing credential error message")
	}

	resp = postForm(t, client, srv.URL, "/auth/login", url.Values{
		"email":    {""},
		"password": {""},
	})
	readBody(t, resp)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing fields, got %d", resp.StatusCode)
	}
}

func TestTeacherRoleLogin(t *testing.T) {
	srv, s := newTestApp(t)
	seedTeacherAccount(t, s, "Mr. Rao", "rao@example.com", "teachpass", false)
	seedTeacherAccount(t, s, "Root", "admin@example.com", "adminpass", true)

	client := newClient(t)
	resp := postForm(t, client, srv.URL, "/auth/login", url.Values{
		"email":    {"rao@example.com"},
		"password": {"teachpass"},
		"role":     {"teacher"},
	})
	readBody(t, resp)
	if loc := resp.Header.Get("Location"); loc != "/teacher" {
		t.Errorf("teacher should land on /teacher, got %q", loc)
	}

	adminClient := newClient(t)
	resp = postForm(t, adminClient, srv.URL, "/auth/login", url.Values{
		"email":    {"admin@example.com"},
		"password": {"adminpass"},
		"role":     {"teacher"},
	})
	readBody(t, resp)
	if loc := resp.Header.Get("Location"); loc != "/admin" {
		t.Errorf("admin should land on /admin, got %q", loc)
	}
}

func TestRegisterFlow(t *testing.T) {
	srv, _ := newTestApp(t)
	client := newClient(t)

	form := url.Values{
		"name":             {"Asha Verma"},
		"email":            {"asha@example.com"},
		"password":         {"pass1234"},
		"confirm_password": {"pass1234"},
	}
	resp := postForm(t, client, srv.URL, "/auth/register", form)
	readBody(t, resp)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); !strings.Contains(loc, "/login") {
		t.Errorf("expected redirect to login, got %q", loc)
	}

	login(t, client, srv.URL, "asha@example.com", "pass1234", "student")

	dup := newClient(t)
	resp = postForm(t, dup, srv.URL, "/auth/register", form)
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "An account with this email already exists") {
		t.Error("missing duplicate email message")
	}
}

func TestRegisterValidation(t *testing.T) {
	srv, _ := newTestApp(t)
	client := newClient(t)

	resp := postForm(t, client, srv.URL, "/auth/register", url.Values{
		"name":             {"Asha"},
		"email":            {"asha@example.com"},
		"password":         {"pass1234"},
		"confirm_password": {"different"},
	})
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Passwords do not match") {
		t.Error("missing mismatch message")
	}
	if !strings.Contains(body, `value="Asha"`) {
		t.Error("form should repopulate the name")
	}
}

func TestRequireAuthRedirects(t *testing.T) {
	srv, _ := newTestApp(t)
	client := newClient(t)

	for _, path := range []string{"/student", "/teacher", "/admin", "/doubts/1"} {
		resp, _ := getPage(t, client, srv.URL, path)
		if resp.StatusCode != http.StatusSeeOther {
			t.Errorf("GET %s without session: expected 303, got %d", path, resp.StatusCode)
		}
		if loc := resp.Header.Get("Location"); loc != "/login" {
			t.Errorf("GET %s: expected redirect to /login, got %q", path, loc)
		}
	}
}

func TestRoleGates(t *testing.T) {
	srv, s := newTestApp(t)
	seedStudentAccount(t, s, "Asha", "asha@example.com", "pass1234")
	seedTeacherAccount(t, s, "Mr. Rao", "rao@example.com", "teachpass", false)

	client := newClient(t)
	login(t, client, srv.URL, "asha@example.com", "pass1234", "student")
	for _, path := range []string{"/teacher", "/admin", "/admin/teachers"} {
		resp, _ := getPage(t, client, srv.URL, path)
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("student GET %s: expected 403, got %d", path, resp.StatusCode)
		}
	}

	teacher := newClient(t)
	login(t, teacher, srv.URL, "rao@example.com", "teachpass", "teacher")
	resp, _ := getPage(t, teacher, srv.URL, "/admin")
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("teacher GET /admin: expected 403, got %d", resp.StatusCode)
	}
	resp, _ = getPage(t, teacher, srv.URL, "/teacher/doubts")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("teacher GET /teacher/doubts: expected 200, got %d", resp.StatusCode)
	}
}

func TestCSRFRejected(t *testing.T) {
	srv, s := newTestApp(t)
	seedStudentAccount(t, s, "Asha", "asha@example.com", "pass1234")

	client := newClient(t)
	// Prime the CSRF cookie, then submit without the form field.
	currentCSRF(t, client, srv.URL)
	resp, err := client.PostForm(srv.URL+"/auth/login", url.Values{
		"email":    {"asha@example.com"},
		"password": {"pass1234"},
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 without csrf field, got %d", resp.StatusCode)
	}

	resp, err = client.PostForm(srv.URL+"/auth/login", url.Values{
		"email":      {"asha@example.com"},
		"password":   {"pass1234"},
		"csrf_token": {"forged-token"},
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for mismatched token, got %d", resp.StatusCode)
	}
}

func TestAskDoubtFlow(t *testing.T) {
	srv, s := newTestApp(t)
	seedStudentAccount(t, s, "Asha", "asha@example.com", "pass1234")
	client := newClient(t)
	login(t, client, srv.URL, "asha@example.com", "pass1234", "student")

	resp := postForm(t, client, srv.URL, "/student/ask", url.Values{
		"subject":    {"Physics"},
		"doubt_text": {"too short"},
	})
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for short doubt, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "at least 10 characters") {
		t.Error("missing length validation message")
	}
	if !strings.Contains(body, "too short") {
		t.Error("form should repopulate the doubt text")
	}

	resp = postForm(t, client, srv.URL, "/student/ask", url.Values{
		"subject":    {"Physics"},
		"doubt_text": {"Why does the sky look blue during the day?"},
	})
	readBody(t, resp)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}

	_, body = getPage(t, client, srv.URL, "/student/doubts")
	if !strings.Contains(body, "Why does the sky look blue") {
		t.Error("submitted doubt missing from list")
	}
	if !strings.Contains(body, "status-pending") {
		t.Error("new doubt should be pending")
	}
}

func TestStudentCannotViewOthersDoubt(t *testing.T) {
	srv, s := newTestApp(t)
	seedStudentAccount(t, s, "Asha", "asha@example.com", "pass1234")
	otherID := seedStudentAccount(t, s, "Ben", "ben@example.com", "pass1234")
	doubtID, err := s.CreateDoubt(model.Doubt{StudentID: otherID, Subject: "Biology", Text: "What is osmosis exactly?"})
	if err != nil {
		t.Fatalf("seed doubt: %v", err)
	}

	client := newClient(t)
	login(t, client, srv.URL, "asha@example.com", "pass1234", "student")

	resp, _ := getPage(t, client, srv.URL, "/doubts/"+itoa(doubtID))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 viewing another student's doubt, got %d", resp.StatusCode)
	}
}

func TestRespondFlow(t *testing.T) {
	srv, s := newTestApp(t)
	studentID := seedStudentAccount(t, s, "Asha", "asha@example.com", "pass1234")
	seedTeacherAccount(t, s, "Mr. Rao", "rao@example.com", "teachpass", false)
	doubtID, err := s.CreateDoubt(model.Doubt{StudentID: studentID, Subject: "Physics", Text: "How do tides work at the coast?"})
	if err != nil {
		t.Fatalf("seed doubt: %v", err)
	}

	client := newClient(t)
	login(t, client, srv.URL, "rao@example.com", "teachpass", "teacher")

	resp, body := getPage(t, client, srv.URL, "/doubts/"+itoa(doubtID))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("detail returned %d", resp.StatusCode)
	}
	if !strings.Contains(body, `name="response_text"`) {
		t.Fatal("teacher should see the response form")
	}

	resp = postForm(t, client, srv.URL, "/doubts/"+itoa(doubtID)+"/respond", url.Values{
		"response_text": {"The moon pulls on the oceans."},
		"status":        {"In Progress"},
	})
	readBody(t, resp)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}

	doubt, err := s.GetDoubt(doubtID)
	if err != nil || doubt == nil {
		t.Fatalf("get doubt: %v", err)
	}
	if doubt.Status != model.StatusInProgress {
		t.Errorf("expected In Progress, got %s", doubt.Status)
	}

	_, body = getPage(t, client, srv.URL, "/doubts/"+itoa(doubtID))
	if !strings.Contains(body, "The moon pulls on the oceans.") {
		t.Error("detail missing posted response")
	}
	if !strings.Contains(body, `name="response_text"`) {
		t.Error("form should stay visible while not resolved")
	}

	resp = postForm(t, client, srv.URL, "/doubts/"+itoa(doubtID)+"/respond", url.Values{
		"response_text": {"Does that make sense now?"},
	})
	readBody(t, resp)
	doubt, _ = s.GetDoubt(doubtID)
	if doubt.Status != model.StatusResolved {
		t.Errorf("status should default to Resolved, got %s", doubt.Status)
	}

	_, body = getPage(t, client, srv.URL, "/doubts/"+itoa(doubtID))
	if strings.Contains(body, `name="response_text"`) {
		t.Error("resolved doubt should not offer the response form")
	}
}

func TestAdminTeacherManagement(t *testing.T) {
	srv, s := newTestApp(t)
	seedTeacherAccount(t, s, "Root", "admin@example.com", "adminpass", true)
	victimID := seedTeacherAccount(t, s, "Mr. Rao", "rao@example.com", "teachpass", false)

	client := newClient(t)
	login(t, client, srv.URL, "admin@example.com", "adminpass", "teacher")

	resp := postForm(t, client, srv.URL, "/admin/teachers", url.Values{
		"name":     {"Ms. Iyer"},
		"subject":  {"Chemistry"},
		"email":    {"iyer@example.com"},
		"password": {"newpass"},
	})
	readBody(t, resp)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("add teacher: expected 303, got %d", resp.StatusCode)
	}

	resp = postForm(t, client, srv.URL, "/admin/teachers", url.Values{
		"name":     {"Again"},
		"subject":  {"Math"},
		"email":    {"iyer@example.com"},
		"password": {"newpass"},
	})
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate teacher: expected 409, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Email already exists") {
		t.Error("missing duplicate email message")
	}

	resp = postForm(t, client, srv.URL, "/admin/teachers/"+itoa(victimID)+"/delete", url.Values{})
	readBody(t, resp)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("delete teacher: expected 303, got %d", resp.StatusCode)
	}
	gone, err := s.GetTeacher(victimID)
	if err != nil {
		t.Fatalf("get teacher: %v", err)
	}
	if gone != nil {
		t.Error("teacher should be deleted")
	}

	admin, _ := s.GetTeacherByEmail("admin@example.com")
	resp = postForm(t, client, srv.URL, "/admin/teachers/"+itoa(admin.ID)+"/delete", url.Values{})
	body = readBody(t, resp)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("delete admin: expected 403, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Cannot delete admin account") {
		t.Error("missing admin protection message")
	}
}

func TestLogout(t *testing.T) {
	srv, s := newTestApp(t)
	seedStudentAccount(t, s, "Asha", "asha@example.com", "pass1234")
	client := newClient(t)
	login(t, client, srv.URL, "asha@example.com", "pass1234", "student")

	resp := postForm(t, client, srv.URL, "/auth/logout", url.Values{})
	readBody(t, resp)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("logout: expected 303, got %d", resp.StatusCode)
	}

	resp, _ = getPage(t, client, srv.URL, "/student")
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("expected redirect after logout, got %d", resp.StatusCode)
	}
}

func TestIndexByRole(t *testing.T) {
	srv, s := newTestApp(t)
	seedStudentAccount(t, s, "Asha", "asha@example.com", "pass1234")

	client := newClient(t)
	resp, body := getPage(t, client, srv.URL, "/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("landing returned %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Ask. Discuss. Resolve.") {
		t.Error("landing missing tagline")
	}

	login(t, client, srv.URL, "asha@example.com", "pass1234", "student")
	resp, _ = getPage(t, client, srv.URL, "/")
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("signed-in index: expected 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/student" {
		t.Errorf("expected redirect to /student, got %q", loc)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
