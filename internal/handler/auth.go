package handler

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mglynn/qrewards/internal/apperror"
	"github.com/mglynn/qrewards/internal/auth"
	"github.com/mglynn/qrewards/internal/middleware"
	"github.com/mglynn/qrewards/internal/model"
	"github.com/mglynn/qrewards/internal/store"
)

const sessionCookieMaxAge = 90 * 24 * 60 * 60 // seconds, matches store TTL

type AuthHandler struct {
	userStore    *store.UserStore
	sessionStore *store.SessionStore
	templates    *template.Template
	logger       *slog.Logger
}

func NewAuthHandler(us *store.UserStore, ss *store.SessionStore, tmpl *template.Template, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		userStore:    us,
		sessionStore: ss,
		templates:    tmpl,
		logger:       logger,
	}
}

func (h *AuthHandler) SignupPage(w http.ResponseWriter, r *http.Request) {
	render(w, h.templates, "signup.html", http.StatusOK, nil)
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if email == "" || password == "" {
		render(w, h.templates, "signup.html", http.StatusBadRequest, map[string]any{
			"Error": "Email and password are required",
		})
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	if _, err := h.userStore.Create(email, hash, model.RoleUser); err != nil {
		if errors.Is(err, apperror.ErrDuplicateEmail) {
			render(w, h.templates, "signup.html", http.StatusBadRequest, map[string]any{
				"Error": "User already exists",
			})
			return
		}
		h.logger.Error("create user", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// authenticate resolves the user for a credential pair. Unknown-email and
// wrong-password failures both come back as apperror.ErrInvalidCredentials,
// so the two are indistinguishable to the caller.
func (h *AuthHandler) authenticate(email, password string) (*model.User, error) {
	user, err := h.userStore.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, apperror.ErrInvalidCredentials
	}
	return user, nil
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	render(w, h.templates, "login.html", http.StatusOK, nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	user, err := h.authenticate(email, password)
	if errors.Is(err, apperror.ErrInvalidCredentials) {
		render(w, h.templates, "login.html", http.StatusUnauthorized, map[string]any{
			"Error": "Invalid email or password",
		})
		return
	}
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	sess, err := h.sessionStore.Create(user.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   sessionCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})

	if user.Role == model.RoleAdmin {
		http.Redirect(w, r, "/generate", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/scan", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if ac, ok := auth.FromContext(r.Context()); ok {
		if err := h.sessionStore.Delete(ac.SessionID); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
