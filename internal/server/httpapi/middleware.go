package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/avoronov/secretwall/internal/common"
	"github.com/avoronov/secretwall/internal/server/models"
)

// SessionCookieName is the cookie the opaque session token travels in.
const SessionCookieName = "secretwall_session"

type ctxKey string

const userKey ctxKey = "user"

// currentUserFrom returns the authenticated user placed in the context by
// requireAuth.
func currentUserFrom(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok
}

func sessionToken(r *http.Request) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// requireAuth is the route guard: it resolves the session cookie to a live
// user before the protected handler runs. An anonymous request is redirected
// to /login; a store failure is a server error, never a redirect.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		user, err := s.gateway.CurrentUser(r.Context(), token)
		if err != nil {
			if errors.Is(err, common.ErrSessionNotFound) {
				clearSessionCookie(w)
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			s.logger.Error(r.Context(), "session resolve failed", "error", err.Error())
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
