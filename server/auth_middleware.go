package server

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/tmcfarlane/google-login-server/auth"
	"github.com/tmcfarlane/google-login-server/users"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const contextKeyUser contextKey = "user"

// UserFromContext returns the authenticated user injected by RequireAuth.
func UserFromContext(ctx context.Context) (*users.User, bool) {
	user, ok := ctx.Value(contextKeyUser).(*users.User)
	return user, ok
}

// RequireAuth guards a route behind an authenticated session. An
// unauthenticated request is redirected to the login entry point, never
// shown an error page; store failures surface as 500s.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			user, err := s.auth.Authenticate(r.Context(), sessionCookieValue(r))
			if err != nil {
				if auth.IsLoginRedirect(err) {
					http.Redirect(w, r, RouteGoogleLogin, http.StatusSeeOther)
					return
				}
				log.Error().Err(err).Msg("session store failure during authentication")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyUser, user)
			next(w, r.WithContext(ctx))
		}
	}
}
