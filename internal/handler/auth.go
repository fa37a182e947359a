package handler

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/doubtdesk/doubtdesk/internal/handler/views"
	appI18n "github.com/doubtdesk/doubtdesk/internal/i18n"
	"github.com/doubtdesk/doubtdesk/internal/model"
)

const (
	sessionCookieName = "session"
	csrfCookieName    = "csrf_token"
)

func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func (h *Handler) setCSRFCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: false,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) csrfMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "GET" || r.Method == "HEAD" {
			token, err := generateCSRFToken()
			if err != nil {
				slog.Error("failed to generate CSRF token", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			h.setCSRFCookie(w, token)
			ctx := model.ContextWithCSRFToken(r.Context(), token)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		cookie, err := r.Cookie(csrfCookieName)
		if err != nil || cookie.Value == "" {
			slog.Warn("CSRF cookie missing")
			http.Error(w, "csrf token missing", http.StatusForbidden)
			return
		}

		formToken := r.FormValue("csrf_token")
		if formToken == "" {
			slog.Warn("CSRF form token missing")
			http.Error(w, "csrf token missing", http.StatusForbidden)
			return
		}

		if len(formToken) != len(cookie.Value) || subtle.ConstantTimeCompare([]byte(formToken), []byte(cookie.Value)) != 1 {
			slog.Warn("CSRF token mismatch")
			http.Error(w, "invalid csrf token", http.StatusForbidden)
			return
		}

		token, err := generateCSRFToken()
		if err != nil {
			slog.Error("failed to generate CSRF token", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		h.setCSRFCookie(w, token)

		ctx := model.ContextWithCSRFToken(r.Context(), token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// resolveSession loads the account behind an auth session. Returns nil
// when the account no longer exists.
func (h *Handler) resolveSession(authSess *model.AuthSession) (*model.Session, error) {
	if authSess.Role == model.RoleStudent {
		st, err := h.store.GetStudent(authSess.UserID)
		if err != nil || st == nil {
			return nil, err
		}
		return &model.Session{UserID: st.ID, Name: st.Name, Role: model.RoleStudent}, nil
	}
	t, err := h.store.GetTeacher(authSess.UserID)
	if err != nil || t == nil {
		return nil, err
	}
	return &model.Session{UserID: t.ID, Name: t.Name, Role: t.Role()}, nil
}

// currentSession resolves the session cookie without failing the request.
func (h *Handler) currentSession(r *http.Request) *model.Session {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	authSess, err := h.store.GetAuthSession(cookie.Value)
	if err != nil || authSess == nil {
		return nil
	}
	sess, err := h.resolveSession(authSess)
	if err != nil {
		return nil
	}
	return sess
}

// requireAuth is middleware that checks for a valid session cookie.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			h.redirectToLogin(w, r)
			return
		}

		authSess, err := h.store.GetAuthSession(cookie.Value)
		if err != nil {
			slog.Error("failed to get auth session", "error", err)
			h.redirectToLogin(w, r)
			return
		}
		if authSess == nil {
			h.redirectToLogin(w, r)
			return
		}

		sess, err := h.resolveSession(authSess)
		if err != nil {
			slog.Error("failed to resolve session account", "error", err)
			h.redirectToLogin(w, r)
			return
		}
		if sess == nil {
			h.redirectToLogin(w, r)
			return
		}

		ctx := model.ContextWithSession(r.Context(), sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole returns middleware that checks the session has one of the
// allowed roles.
func requireRole(allowed ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := model.SessionFromContext(r.Context())
			if sess == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			for _, role := range allowed {
				if sess.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "forbidden", http.StatusForbidden)
		})
	}
}

func (h *Handler) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if sess := h.currentSession(r); sess != nil {
		http.Redirect(w, r, roleHome(sess.Role), http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.Login("", noticeFrom(r)).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	role := r.FormValue("role")

	if verr := model.ValidateLogin(email, password); verr != nil {
		h.renderLoginError(w, r, verr.(*model.ValidationError).MessageID, http.StatusBadRequest)
		return
	}

	var (
		userID       int64
		passwordHash string
		sessRole     model.Role
	)
	if role == "" || role == string(model.RoleStudent) {
		st, err := h.store.GetStudentByEmail(email)
		if err != nil {
			slog.Error("failed to get student", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if st == nil {
			h.renderLoginError(w, r, "ErrInvalidCredentials", http.StatusUnauthorized)
			return
		}
		userID, passwordHash, sessRole = st.ID, st.PasswordHash, model.RoleStudent
	} else {
		t, err := h.store.GetTeacherByEmail(email)
		if err != nil {
			slog.Error("failed to get teacher", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if t == nil {
			h.renderLoginError(w, r, "ErrInvalidCredentials", http.StatusUnauthorized)
			return
		}
		userID, passwordHash, sessRole = t.ID, t.PasswordHash, t.Role()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
		h.renderLoginError(w, r, "ErrInvalidCredentials", http.StatusUnauthorized)
		return
	}

	token, err := h.store.CreateAuthSession(userID, sessRole)
	if err != nil {
		slog.Error("failed to create auth session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.config.SecureCookies,
	})
	http.Redirect(w, r, roleHome(sessRole), http.StatusSeeOther)
}

func (h *Handler) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if sess := h.currentSession(r); sess != nil {
		http.Redirect(w, r, roleHome(sess.Role), http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.Register("", views.RegisterForm{}).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	confirm := r.FormValue("confirm_password")
	form := views.RegisterForm{Name: name, Email: email}

	if verr := model.ValidateRegistration(name, email, password, confirm); verr != nil {
		h.renderRegisterError(w, r, verr.(*model.ValidationError).MessageID, form, http.StatusBadRequest)
		return
	}

	existing, err := h.store.GetStudentByEmail(email)
	if err != nil {
		slog.Error("failed to check student email", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if existing != nil {
		h.renderRegisterError(w, r, "ErrEmailExists", form, http.StatusConflict)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	_, err = h.store.CreateStudent(model.Student{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		slog.Error("failed to create student", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/login?notice=FlashAccountCreated", http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		_ = h.store.DeleteAuthSession(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
	})
	http.Redirect(w, r, "/login?notice=FlashLoggedOut", http.StatusSeeOther)
}

func (h *Handler) renderLoginError(w http.ResponseWriter, r *http.Request, msgID string, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := views.Login(appI18n.T(r.Context(), msgID), "").Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) renderRegisterError(w http.ResponseWriter, r *http.Request, msgID string, form views.RegisterForm, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := views.Register(appI18n.T(r.Context(), msgID), form).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}
