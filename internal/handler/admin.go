package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/go-chi/chi/v5"
	"github.com/doubtdesk/doubtdesk/internal/handler/views"
	appI18n "github.com/doubtdesk/doubtdesk/internal/i18n"
	"github.com/doubtdesk/doubtdesk/internal/model"
	"github.com/doubtdesk/doubtdesk/internal/store"
)

func (h *Handler) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.AdminStats()
	if err != nil {
		slog.Error("failed to load admin stats", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.AdminDashboard(stats, noticeFrom(r)).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleAdminTeachersPage(w http.ResponseWriter, r *http.Request) {
	teachers, err := h.store.ListTeachers()
	if err != nil {
		slog.Error("failed to list teachers", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.AdminTeachers(teachers, "", noticeFrom(r)).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleAddTeacher(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("name"))
	subject := strings.TrimSpace(r.FormValue("subject"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if verr := model.ValidateTeacher(name, subject, email, password); verr != nil {
		h.renderTeachersError(w, r, verr.(*model.ValidationError).MessageID, http.StatusBadRequest)
		return
	}

	existing, err := h.store.GetTeacherByEmail(email)
	if err != nil {
		slog.Error("failed to check teacher email", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if existing != nil {
		h.renderTeachersError(w, r, "ErrTeacherEmailExists", http.StatusConflict)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	_, err = h.store.CreateTeacher(model.Teacher{
		Name:         name,
		Subject:      subject,
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		slog.Error("failed to create teacher", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/teachers?notice=FlashTeacherAdded", http.StatusSeeOther)
}

func (h *Handler) handleDeleteTeacher(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "teacherID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid teacher ID", http.StatusBadRequest)
		return
	}

	if err := h.store.DeleteTeacher(id); err != nil {
		if errors.Is(err, store.ErrAdminProtected) {
			h.renderTeachersError(w, r, "ErrAdminDelete", http.StatusForbidden)
			return
		}
		slog.Error("failed to delete teacher", "id", id, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/teachers?notice=FlashTeacherDeleted", http.StatusSeeOther)
}

func (h *Handler) handleAdminStudentsPage(w http.ResponseWriter, r *http.Request) {
	students, err := h.store.ListStudents()
	if err != nil {
		slog.Error("failed to list students", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.AdminStudents(students).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

// renderTeachersError re-renders the teacher roster with an error banner.
func (h *Handler) renderTeachersError(w http.ResponseWriter, r *http.Request, msgID string, status int) {
	teachers, err := h.store.ListTeachers()
	if err != nil {
		slog.Error("failed to list teachers", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := views.AdminTeachers(teachers, appI18n.T(r.Context(), msgID), "").Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}
