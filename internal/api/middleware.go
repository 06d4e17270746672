package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/queryhub-ai/queryhub/internal/core"
	"github.com/queryhub-ai/queryhub/internal/store"
)

// SessionCookieName carries the signed identity token.
const SessionCookieName = "queryhub_token"

const sessionCookieMaxAge = 7 * 24 * time.Hour

type contextKey string

const userContextKey contextKey = "user"

// AuthMiddleware resolves the session cookie into a *store.User and puts it
// on the request context. Requests without a valid cookie are rejected.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			writeError(w, fmt.Errorf("%w: missing session cookie", core.ErrUnauthorized))
			return
		}

		claims, err := h.tokens.Validate(cookie.Value)
		if err != nil {
			writeError(w, fmt.Errorf("%w: invalid session token", core.ErrUnauthorized))
			return
		}

		user, err := h.users.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, fmt.Errorf("resolving session user: %w", err))
			return
		}
		if user == nil {
			writeError(w, fmt.Errorf("%w: unknown user", core.ErrUnauthorized))
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminOnly gates a route on the user's role. The role predicate lives on
// the domain type, not in the transport layer.
func (h *Handler) AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r.Context())
		if user == nil || !user.IsAdmin() {
			writeError(w, fmt.Errorf("%w: admin role required", core.ErrForbidden))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userFrom(ctx context.Context) *store.User {
	user, _ := ctx.Value(userContextKey).(*store.User)
	return user
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionCookieMaxAge.Seconds()),
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
