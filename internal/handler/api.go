package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/go-chi/chi/v5"
	"github.com/doubtdesk/doubtdesk/internal/model"
	"github.com/doubtdesk/doubtdesk/internal/store"
)

// The JSON API keeps the wire contract of the original server: the same
// paths, parameter names, status codes, and message strings, served in
// English regardless of the UI language. Clients are trusted with the
// IDs they send; the session-based web UI is the authenticated surface.

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func errorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func successJSON(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": msg})
}

// decodeJSON reads a JSON request body. An empty body decodes to the
// zero value, matching clients that POST without a payload.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		errorJSON(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	return true
}

// queryID parses a numeric query parameter. Non-numeric values map to
// zero, which matches no record.
func queryID(r *http.Request, name string) (int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, true
	}
	return id, true
}

func (h *Handler) apiRoutes(r chi.Router) {
	unknown := func(w http.ResponseWriter, r *http.Request) {
		errorJSON(w, http.StatusNotFound, "Unknown API endpoint")
	}
	r.NotFound(unknown)
	r.MethodNotAllowed(unknown)

	r.Post("/auth/login", h.apiLogin)
	r.Post("/auth/register", h.apiRegister)

	r.Get("/student/doubts", h.apiStudentDoubts)
	r.Get("/student/stats", h.apiStudentStats)

	r.Post("/doubt/add", h.apiAddDoubt)
	r.Post("/doubt/respond", h.apiRespond)
	r.Post("/doubt/suggest", h.apiSuggest)
	r.Get("/doubt/details", h.apiDoubtDetails)

	r.Get("/teacher/doubts", h.apiTeacherDoubts)
	r.Get("/teacher/stats", h.apiTeacherStats)

	r.Get("/admin/stats", h.apiAdminStats)
	r.Get("/admin/teachers", h.apiAdminTeachers)
	r.Get("/admin/students", h.apiAdminStudents)
	r.Post("/admin/teacher/add", h.apiAddTeacher)
	r.Post("/admin/teacher/delete", h.apiDeleteTeacher)
}

func (h *Handler) apiLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		errorJSON(w, http.StatusBadRequest, "Email and password required")
		return
	}

	var (
		id   int64
		name string
		hash string
		role string
	)
	if req.Role == "" || req.Role == "student" {
		st, err := h.store.GetStudentByEmail(email)
		if err != nil {
			errorJSON(w, http.StatusInternalServerError, err.Error())
			return
		}
		if st == nil {
			errorJSON(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		id, name, hash, role = st.ID, st.Name, st.PasswordHash, "student"
	} else {
		t, err := h.store.GetTeacherByEmail(email)
		if err != nil {
			errorJSON(w, http.StatusInternalServerError, err.Error())
			return
		}
		if t == nil {
			errorJSON(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		id, name, hash, role = t.ID, t.Name, t.PasswordHash, string(t.Role())
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		errorJSON(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"id":      id,
		"name":    name,
		"role":    role,
	})
}

func (h *Handler) apiRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" || email == "" || req.Password == "" {
		errorJSON(w, http.StatusBadRequest, "All fields are required")
		return
	}

	existing, err := h.store.GetStudentByEmail(email)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing != nil {
		errorJSON(w, http.StatusConflict, "An account with this email already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}

	if _, err := h.store.CreateStudent(model.Student{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}); err != nil {
		errorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}

	successJSON(w, "Account created successfully!")
}

func (h *Handler) apiStudentDoubts(w http.ResponseWriter, r *http.Request) {
	studentID, present := queryID(r, "student_id")
	if !present {
		errorJSON(w, http.StatusBadRequest, "student_id required")
		return
	}
	// Zero would list every student's doubts; force a miss instead.
	if studentID == 0 {
		studentID = -1
	}

	doubts, err := h.store.ListDoubts(studentID, statusFilter(r.URL.Query().Get("status")))
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	if doubts == nil {
		doubts = []model.Doubt{}
	}
	writeJSON(w, http.StatusOK, doubts)
}

func (h *Handler) apiStudentStats(w http.ResponseWriter, r *http.Request) {
	studentID, present := queryID(r, "student_id")
	if !present {
		errorJSON(w, http.StatusBadRequest, "student_id required")
		return
	}

	stats, err := h.store.StudentStats(studentID)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) apiTeacherDoubts(w http.ResponseWriter, r *http.Request) {
	doubts, err := h.store.ListDoubts(0, statusFilter(r.URL.Query().Get("status")))
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	if doubts == nil {
		doubts = []model.Doubt{}
	}
	writeJSON(w, http.StatusOK, doubts)
}

func (h *Handler) apiTeacherStats(w http.ResponseWriter, r *http.Request) {
	teacherID, _ := queryID(r, "teacher_id")

	stats, err := h.store.TeacherStats(teacherID)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) apiDoubtDetails(w http.ResponseWriter, r *http.Request) {
	doubtID, present := queryID(r, "doubt_id")
	if !present {
		errorJSON(w, http.StatusBadRequest, "doubt_id required")
		return
	}

	detail, err := h.store.GetDoubtDetail(doubtID)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	if detail == nil {
		errorJSON(w, http.StatusNotFound, "Doubt not found")
		return
	}
	if detail.Responses == nil {
		detail.Responses = []model.Response{}
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) apiAddDoubt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StudentID int64  `json:"student_id"`
		Subject   string `json:"subject"`
		DoubtText string `json:"doubt_text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	subject := strings.TrimSpace(req.Subject)
	text := strings.TrimSpace(req.DoubtText)
	if req.StudentID == 0 || subject == "" || text == "" {
		errorJSON(w, http.StatusBadRequest, "All fields are required")
		return
	}

	if _, err := h.store.CreateDoubt(model.Doubt{
		StudentID: req.StudentID,
		Subject:   subject,
		Text:      text,
	}); err != nil {
		errorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}

	successJSON(w, "Doubt submitted successfully!")
}

func (h *Handler) apiRespond(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DoubtID      int64  `json:"doubt_id"`
		TeacherID    int64  `json:"teacher_id"`
		ResponseText string `json:"response_text"`
		Status       string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	text := strings.TrimSpace(req.ResponseText)
	if req.DoubtID == 0 || req.TeacherID == 0 || text == "" {
		errorJSON(w, http.StatusBadRequest, "All fields are required")
		return
	}

	status := req.Status
	if status == "" {
		status = string(model.StatusResolved)
	}

	if _, err := h.store.AddResponse(model.Response{
		DoubtID:   req.DoubtID,
		TeacherID: req.TeacherID,
		Text:      text,
	}, model.DoubtStatus(status)); err != nil {
		errorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}

	successJSON(w, "Response submitted!")
}

func (h *Handler) apiSuggest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DoubtID int64 `json:"doubt_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.DoubtID == 0 {
		errorJSON(w, http.StatusBadRequest, "doubt_id required")
		return
	}

	if h.assist == nil {
		errorJSON(w, http.StatusServiceUnavailable, "Assistant not configured")
		return
	}

	detail, err := h.store.GetDoubtDetail(req.DoubtID)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	if detail == nil {
		errorJSON(w, http.StatusNotFound, "Doubt not found")
		return
	}

	suggestion, err := h.assist.DraftResponse(r.Context(), *detail)
	if err != nil {
		slog.Error("draft suggestion failed", "doubt_id", req.DoubtID, "error", err)
		errorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, suggestion)
}

func (h *Handler) apiAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.AdminStats()
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) apiAdminTeachers(w http.ResponseWriter, r *http.Request) {
	teachers, err := h.store.ListTeachers()
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	if teachers == nil {
		teachers = []model.Teacher{}
	}
	writeJSON(w, http.StatusOK, teachers)
}

func (h *Handler) apiAdminStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.store.ListStudents()
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	if students == nil {
		students = []model.Student{}
	}
	writeJSON(w, http.StatusOK, students)
}

func (h *Handler) apiAddTeacher(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Subject  string `json:"subject"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	subject := strings.TrimSpace(req.Subject)
	email := strings.TrimSpace(req.Email)
	if name == "" || subject == "" || email == "" || req.Password == "" {
		errorJSON(w, http.StatusBadRequest, "All fields are required")
		return
	}

	existing, err := h.store.GetTeacherByEmail(email)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing != nil {
		errorJSON(w, http.StatusConflict, "Email already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}

	if _, err := h.store.CreateTeacher(model.Teacher{
		Name:         name,
		Subject:      subject,
		Email:        email,
		PasswordHash: string(hash),
	}); err != nil {
		errorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}

	successJSON(w, "Teacher added!")
}

func (h *Handler) apiDeleteTeacher(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TeacherID int64 `json:"teacher_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.TeacherID == 0 {
		errorJSON(w, http.StatusBadRequest, "teacher_id required")
		return
	}

	if err := h.store.DeleteTeacher(req.TeacherID); err != nil {
		if errors.Is(err, store.ErrAdminProtected) {
			errorJSON(w, http.StatusForbidden, "Cannot delete admin account")
			return
		}
		errorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}

	successJSON(w, "Teacher deleted!")
}
