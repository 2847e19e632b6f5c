package server

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/tmcfarlane/google-login-server/auth"
)

const contentTypeText = "text/plain; charset=utf-8"

// IndexHandler greets the user differently depending on whether they are
// logged in. It never requires authentication.
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentTypeText)

		user, err := s.auth.Authenticate(r.Context(), sessionCookieValue(r))
		if err != nil {
			if !errors.Is(err, auth.UnauthenticatedErr) {
				log.Error().Err(err).Msg("failed to resolve session on index page")
			}
			fmt.Fprint(w, "You're not logged in.\nVisit `/auth/google` to do so.")
			return
		}

		name := user.Name
		if name == "" {
			name = "Unknown"
		}
		fmt.Fprintf(w, "Hey %s! You're logged in!\nYou may now access `/protected`.\nLog out with `/logout`.", name)
	}
}

// ProtectedHandler is the example protected resource; RequireAuth has
// already resolved the user by the time it runs.
func (s *Server) ProtectedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, RouteGoogleLogin, http.StatusSeeOther)
			return
		}

		w.Header().Set("Content-Type", contentTypeText)
		fmt.Fprintf(w, "Welcome to the protected area :)\nHere's your info:\n%+v", *user)
	}
}

// LogoutHandler destroys the session and clears the cookie. Logout is
// idempotent: a stale or already-destroyed session id succeeds too.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.auth.Logout(r.Context(), sessionCookieValue(r)); err != nil {
			log.Error().Err(err).Msg("failed to destroy session on logout")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		s.clearSessionCookie(w, r)
		http.Redirect(w, r, RouteIndex, http.StatusSeeOther)
	}
}

// HealthzHandler reports process liveness and, when a health check is
// registered, connectivity to the backing store.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.healthCheck != nil {
			if err := s.healthCheck(); err != nil {
				log.Error().Err(err).Msg("health check failed")
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", contentTypeText)
		fmt.Fprint(w, "ok")
	}
}
