package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/promptcard/internal/auth"
	"github.com/dukerupert/promptcard/internal/session"
)

// LoadSession resolves the session cookie on every request and attaches the
// identity to the request context. Requests without a valid session pass
// through anonymously.
func LoadSession(manager *session.Manager, codec *session.CookieCodec, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := codec.Read(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := manager.Resolve(r.Context(), token)
			if err != nil {
				logger.Error("resolve session", "error", err)
			}
			if err != nil || sess == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := auth.WithIdentity(r.Context(), auth.Identity{
				UserID:   sess.UserID,
				Username: sess.Username,
				Token:    sess.Token,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests: browsers are redirected to /login,
// JSON clients get 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := auth.Authorize(r.Context()); err != nil {
			redirectToLogin(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if WantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"authentication required"}` + "\n"))
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// WantsJSON reports whether the client sent or asked for JSON.
func WantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}
