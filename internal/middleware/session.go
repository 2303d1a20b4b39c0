package middleware

import (
	"net/http"

	"github.com/dukerupert/choreadmin/internal/auth"
	"github.com/dukerupert/choreadmin/internal/logging"
	"github.com/dukerupert/choreadmin/internal/store"
)

const SessionCookieName = "choreadmin_session"

// LoadSession resolves the session cookie into an auth.Principal on the
// request context. Every request gets a Principal; visitors without a valid
// session get an anonymous one. Access decisions are left to RequireAccess.
func LoadSession(sessionStore *store.SessionStore, userStore *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := &auth.Principal{}

			if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
				ctx := r.Context()
				sess, err := sessionStore.GetByToken(ctx, cookie.Value)
				if err != nil {
					logging.FromContext(ctx).Error("load session", "error", err)
				}
				if sess != nil {
					user, err := userStore.GetByID(ctx, sess.UserID)
					if err != nil {
						logging.FromContext(ctx).Error("load session user", "error", err)
					}
					if user != nil {
						principal = &auth.Principal{User: user, SessionID: sess.ID}
					}
				}
			}

			ctx := auth.WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
