package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/doubtdesk/doubtdesk/internal/assist"
	"github.com/doubtdesk/doubtdesk/internal/handler/views"
	appI18n "github.com/doubtdesk/doubtdesk/internal/i18n"
	"github.com/doubtdesk/doubtdesk/internal/model"
	"github.com/doubtdesk/doubtdesk/internal/store"
)

// recentLimit caps the doubt list shown on dashboards.
const recentLimit = 5

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store  *store.Store
	assist *assist.Client
	config model.WebConfig
}

// New creates a new Handler. assist may be nil when no drafting backend
// is configured.
func New(s *store.Store, a *assist.Client, cfg model.WebConfig) (*Handler, error) {
	return &Handler{store: s, assist: a, config: cfg}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Handle("/static/*", http.StripPrefix("/static/", views.Static()))
	r.Route("/api", h.apiRoutes)

	r.Group(func(r chi.Router) {
		r.Use(h.csrfMiddleware)

		r.Get("/", h.handleIndex)
		r.Get("/login", h.handleLoginPage)
		r.Post("/auth/login", h.handleLogin)
		r.Get("/register", h.handleRegisterPage)
		r.Post("/auth/register", h.handleRegister)
		r.Post("/auth/logout", h.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)

			r.Get("/doubts/{doubtID}", h.handleDoubtDetail)

			r.Group(func(r chi.Router) {
				r.Use(requireRole(model.RoleStudent))
				r.Get("/student", h.handleStudentDashboard)
				r.Get("/student/doubts", h.handleStudentDoubts)
				r.Get("/student/ask", h.handleAskPage)
				r.Post("/student/ask", h.handleAskSubmit)
			})

			r.Group(func(r chi.Router) {
				r.Use(requireRole(model.RoleTeacher, model.RoleAdmin))
				r.Get("/teacher", h.handleTeacherDashboard)
				r.Get("/teacher/doubts", h.handleTeacherDoubts)
				r.Post("/doubts/{doubtID}/respond", h.handleRespond)
				r.Post("/doubts/{doubtID}/suggest", h.handleSuggest)
			})

			r.Group(func(r chi.Router) {
				r.Use(requireRole(model.RoleAdmin))
				r.Get("/admin", h.handleAdminDashboard)
				r.Get("/admin/teachers", h.handleAdminTeachersPage)
				r.Post("/admin/teachers", h.handleAddTeacher)
				r.Post("/admin/teachers/{teacherID}/delete", h.handleDeleteTeacher)
				r.Get("/admin/students", h.handleAdminStudentsPage)
			})
		})
	})
}

func roleHome(role model.Role) string {
	switch role {
	case model.RoleTeacher:
		return "/teacher"
	case model.RoleAdmin:
		return "/admin"
	}
	return "/student"
}

// statusFilter maps the wire status value to a store filter. "All" and
// the empty string mean unfiltered; anything else is passed through so
// unknown values match nothing.
func statusFilter(raw string) model.DoubtStatus {
	if raw == "" || raw == "All" {
		return ""
	}
	return model.DoubtStatus(raw)
}

// noticeFrom resolves the flash message ID carried across a redirect.
func noticeFrom(r *http.Request) string {
	id := r.URL.Query().Get("notice")
	if id == "" {
		return ""
	}
	return appI18n.T(r.Context(), id)
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if sess := h.currentSession(r); sess != nil {
		http.Redirect(w, r, roleHome(sess.Role), http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.Landing().Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleStudentDashboard(w http.ResponseWriter, r *http.Request) {
	sess := model.SessionFromContext(r.Context())

	stats, err := h.store.StudentStats(sess.UserID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	doubts, err := h.store.ListDoubts(sess.UserID, "")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(doubts) > recentLimit {
		doubts = doubts[:recentLimit]
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.StudentDashboard(stats, doubts, noticeFrom(r)).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleStudentDoubts(w http.ResponseWriter, r *http.Request) {
	sess := model.SessionFromContext(r.Context())
	raw := r.URL.Query().Get("status")

	doubts, err := h.store.ListDoubts(sess.UserID, statusFilter(raw))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.StudentDoubts(doubts, raw, noticeFrom(r)).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleAskPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.AskDoubt("", views.AskForm{}).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleAskSubmit(w http.ResponseWriter, r *http.Request) {
	sess := model.SessionFromContext(r.Context())
	form := views.AskForm{
		Subject: r.FormValue("subject"),
		Text:    r.FormValue("doubt_text"),
	}

	if verr := model.ValidateDoubt(form.Subject, form.Text); verr != nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusBadRequest)
		if err := views.AskDoubt(appI18n.T(r.Context(), verr.(*model.ValidationError).MessageID), form).Render(r.Context(), w); err != nil {
			slog.Error("render error", "error", err)
		}
		return
	}

	_, err := h.store.CreateDoubt(model.Doubt{
		StudentID: sess.UserID,
		Subject:   strings.TrimSpace(form.Subject),
		Text:      strings.TrimSpace(form.Text),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/student?notice=FlashDoubtSubmitted", http.StatusSeeOther)
}

func (h *Handler) handleTeacherDashboard(w http.ResponseWriter, r *http.Request) {
	sess := model.SessionFromContext(r.Context())

	stats, err := h.store.TeacherStats(sess.UserID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	pending, err := h.store.ListDoubts(0, model.StatusPending)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(pending) > recentLimit {
		pending = pending[:recentLimit]
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.TeacherDashboard(stats, pending).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleTeacherDoubts(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("status")

	doubts, err := h.store.ListDoubts(0, statusFilter(raw))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.TeacherDoubts(doubts, raw, noticeFrom(r)).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleDoubtDetail(w http.ResponseWriter, r *http.Request) {
	doubtID, err := strconv.ParseInt(chi.URLParam(r, "doubtID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid doubt ID", http.StatusBadRequest)
		return
	}

	detail, err := h.store.GetDoubtDetail(doubtID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if detail == nil {
		http.Error(w, "doubt not found", http.StatusNotFound)
		return
	}

	sess := model.SessionFromContext(r.Context())
	if sess.Role == model.RoleStudent && detail.Doubt.StudentID != sess.UserID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	h.renderDetail(w, r, detail, views.DetailOptions{Notice: noticeFrom(r)}, http.StatusOK)
}

// renderDetail writes the doubt detail page, deriving the response form
// visibility from the viewer's role and the doubt status.
func (h *Handler) renderDetail(w http.ResponseWriter, r *http.Request, detail *model.DoubtDetail, opts views.DetailOptions, status int) {
	sess := model.SessionFromContext(r.Context())
	opts.CanRespond = sess.Role != model.RoleStudent && detail.Doubt.Status != model.StatusResolved
	opts.SuggestEnabled = opts.CanRespond && h.assist != nil

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := views.DoubtDetail(*detail, opts).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleRespond(w http.ResponseWriter, r *http.Request) {
	doubtID, err := strconv.ParseInt(chi.URLParam(r, "doubtID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid doubt ID", http.StatusBadRequest)
		return
	}

	detail, err := h.store.GetDoubtDetail(doubtID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if detail == nil {
		http.Error(w, "doubt not found", http.StatusNotFound)
		return
	}

	text := r.FormValue("response_text")
	if verr := model.ValidateResponse(text); verr != nil {
		h.renderDetail(w, r, detail, views.DetailOptions{
			Error: appI18n.T(r.Context(), verr.(*model.ValidationError).MessageID),
			Draft: text,
		}, http.StatusBadRequest)
		return
	}

	newStatus, ok := model.ParseDoubtStatus(r.FormValue("status"))
	if !ok {
		newStatus = model.StatusResolved
	}

	sess := model.SessionFromContext(r.Context())
	_, err = h.store.AddResponse(model.Response{
		DoubtID:   doubtID,
		TeacherID: sess.UserID,
		Text:      strings.TrimSpace(text),
	}, newStatus)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/doubts/%d?notice=FlashResponseSubmitted", doubtID), http.StatusSeeOther)
}

func (h *Handler) handleSuggest(w http.ResponseWriter, r *http.Request) {
	doubtID, err := strconv.ParseInt(chi.URLParam(r, "doubtID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid doubt ID", http.StatusBadRequest)
		return
	}

	detail, err := h.store.GetDoubtDetail(doubtID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if detail == nil {
		http.Error(w, "doubt not found", http.StatusNotFound)
		return
	}

	if h.assist == nil {
		http.Redirect(w, r, fmt.Sprintf("/doubts/%d", doubtID), http.StatusSeeOther)
		return
	}

	suggestion, err := h.assist.DraftResponse(r.Context(), *detail)
	if err != nil {
		slog.Error("draft suggestion failed", "doubt_id", doubtID, "error", err)
		h.renderDetail(w, r, detail, views.DetailOptions{
			Error: appI18n.T(r.Context(), "ErrServer"),
		}, http.StatusOK)
		return
	}

	h.renderDetail(w, r, detail, views.DetailOptions{
		Draft:  suggestion.Draft,
		Status: string(suggestion.SuggestedStatus),
	}, http.StatusOK)
}
