package server

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/tmcfarlane/google-login-server/auth"
	"github.com/tmcfarlane/google-login-server/oauth"
)

// GoogleLoginHandler begins the login flow: it mints the single-use
// secrets, stores them in a pending session, and redirects the
// user-agent to Google's authorization endpoint.
func (s *Server) GoogleLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redirect, err := s.auth.InitiateLogin(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("failed to initiate login")
			http.Error(w, "Failed to initiate login", http.StatusInternalServerError)
			return
		}

		s.setSessionCookie(w, r, redirect.SessionID)
		http.Redirect(w, r, redirect.AuthURL, http.StatusSeeOther)
	}
}

// OAuthCallbackHandler completes the login flow. Authentication-flow
// failures (missing cookie, unknown session, CSRF mismatch) degrade to a
// redirect back to the login entry point; provider-side failures are
// logged in full and the user gets a generic failure redirect; anything
// else is an infrastructure error.
func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if errParam := r.FormValue("error"); errParam != "" {
			log.Warn().
				Str("error", errParam).
				Str("error_description", r.FormValue("error_description")).
				Msg("authorization rejected by provider")
			http.Redirect(w, r, RouteIndex+"?error=login_failed", http.StatusSeeOther)
			return
		}

		req := auth.AuthRequest{
			Code:  r.FormValue("code"),
			State: r.FormValue("state"),
		}
		if req.Code == "" || req.State == "" {
			http.Error(w, "Missing code or state parameter", http.StatusBadRequest)
			return
		}

		result, err := s.auth.HandleCallback(r.Context(), req, sessionCookieValue(r))
		if err != nil {
			s.handleCallbackError(w, r, err)
			return
		}

		s.setSessionCookie(w, r, result.SessionID)
		http.Redirect(w, r, RouteIndex, http.StatusSeeOther)
	}
}

func (s *Server) handleCallbackError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case auth.IsLoginRedirect(err):
		log.Warn().Err(err).Msg("callback rejected, restarting login")
		http.Redirect(w, r, RouteGoogleLogin, http.StatusSeeOther)
	case errors.Is(err, oauth.TokenExchangeErr) || errors.Is(err, oauth.ProfileFetchErr):
		// Full provider error detail stays server-side.
		log.Error().Err(err).Msg("provider-side login failure")
		http.Redirect(w, r, RouteIndex+"?error=login_failed", http.StatusSeeOther)
	default:
		log.Error().Err(err).Msg("callback failed")
		http.Error(w, "Login failed", http.StatusInternalServerError)
	}
}
