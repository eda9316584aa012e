package httpx

import (
	"context"
	"net/http"

	"bookshelf/internal/access"
	"bookshelf/internal/platform/logging"
)

// AdminCookieName holds the signed admin session token.
const AdminCookieName = "admin_session"

// Authenticator turns a session token into a capability.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (access.Capability, error)
}

// AdminSessionMiddleware attaches the caller's capability to the request
// context. Requests without a valid cookie continue as anonymous.
func AdminSessionMiddleware(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(AdminCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			caller, err := authn.Authenticate(r.Context(), cookie.Value)
			if err != nil {
				logging.Ctx(r.Context()).Debug().Err(err).Msg("admin session rejected")
				next.ServeHTTP(w, r)
				return
			}

			ctx := access.WithCapability(r.Context(), caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose context lacks the admin capability.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !access.FromContext(r.Context()).IsAdmin() {
			JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
