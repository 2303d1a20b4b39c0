package middleware

import (
	"net/http"
	"net/url"

	"github.com/dukerupert/choreadmin/internal/auth"
	"github.com/dukerupert/choreadmin/internal/logging"
)

// RequireAccess consults gate for every request. Anonymous visitors are sent
// to loginURL with the original URL in ?next=; authenticated principals the
// gate refuses get 403.
func RequireAccess(gate *auth.Gate, loginURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := auth.FromContext(r.Context())

			switch gate.Decide(principal) {
			case auth.Allow:
				next.ServeHTTP(w, r)
			case auth.RedirectToLogin:
				redirectToLogin(w, r, loginURL)
			default:
				logging.FromContext(r.Context()).Warn("admin access denied",
					"user_id", auth.UserID(r.Context()),
					"path", r.URL.Path,
				)
				http.Error(w, "Forbidden", http.StatusForbidden)
			}
		})
	}
}

func redirectToLogin(w http.ResponseWriter, r *http.Request, loginURL string) {
	target := loginURL + "?next=" + url.QueryEscape(r.URL.RequestURI())
	http.Redirect(w, r, target, http.StatusSeeOther)
}
