package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/choreadmin/internal/auth"
	"github.com/dukerupert/choreadmin/internal/middleware"
	"github.com/dukerupert/choreadmin/internal/store"
)

// dummyHash keeps the cost of a failed login the same whether or not the
// email exists.
var dummyHash = sync.OnceValue(func() string {
	hash, _ := auth.HashPassword("choreadmin-dummy-password")
	return hash
})

const invalidCredentials = "Invalid email or password."

type AuthHandler struct {
	users        *store.UserStore
	sessions     *store.SessionStore
	sessionTTL   time.Duration
	secureCookie bool
	defaultNext  string
	appName      string
	logger       *slog.Logger
}

func NewAuthHandler(
	us *store.UserStore,
	ss *store.SessionStore,
	sessionTTL time.Duration,
	secureCookie bool,
	defaultNext string,
	appName string,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		users:        us,
		sessions:     ss,
		sessionTTL:   sessionTTL,
		secureCookie: secureCookie,
		defaultNext:  defaultNext,
		appName:      appName,
		logger:       logger,
	}
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, http.StatusOK, map[string]any{
		"Next": safeNext(r.URL.Query().Get("next"), h.defaultNext),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	password := r.FormValue("password")
	next := safeNext(r.FormValue("next"), h.defaultNext)

	fail := func(msg string) {
		h.renderLogin(w, http.StatusOK, map[string]any{
			"Next":  next,
			"Email": email,
			"Error": msg,
		})
	}

	if email == "" || password == "" {
		fail("Email and password are required.")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	hash := dummyHash()
	if user != nil {
		hash = user.PasswordHash
	}
	ok, err := auth.CheckPassword(hash, password)
	if err != nil {
		h.logger.Error("login compare", "error", err)
	}
	if user == nil || !ok {
		fail(invalidCredentials)
		return
	}
	if !user.IsActive() {
		fail("This account is disabled.")
		return
	}

	sess, err := h.sessions.Create(r.Context(), user.ID, h.sessionTTL)
	if err != nil {
		h.logger.Error("create session", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secureCookie || r.TLS != nil,
	})
	h.logger.Info("login", "user_id", user.ID)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if p := auth.FromContext(r.Context()); p.IsAuthenticated() && p.SessionID != 0 {
		if err := h.sessions.Delete(r.Context(), p.SessionID); err != nil {
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

func (h *AuthHandler) renderLogin(w http.ResponseWriter, status int, data map[string]any) {
	data["AppName"] = h.appName
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ExecuteTemplate(w, "login.html", data); err != nil {
		h.logger.Error("render login", "error", err)
	}
}

// safeNext only allows local absolute paths, so a crafted ?next= cannot send
// the user to another site.
func safeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return next
}
