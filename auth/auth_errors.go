package auth

import "github.com/pkg/errors"

var (
	// MissingSessionErr means the request carried no session cookie.
	MissingSessionErr = errors.New("session cookie not found")
	// SessionNotFoundErr means the cookie referenced a session that is
	// absent from the store or already expired.
	SessionNotFoundErr = errors.New("session not found")
	// CsrfMismatchErr means the callback's state parameter did not match
	// the pending session's CSRF token. The pending session is destroyed
	// before this is returned.
	CsrfMismatchErr = errors.New("csrf token mismatch")
	// CorruptSessionErr means a pending session was missing its CSRF
	// token or PKCE verifier. Unreachable through normal flows.
	CorruptSessionErr = errors.New("corrupt pending session")
	// UnauthenticatedErr is returned by Authenticate when no valid
	// authenticated session backs the request.
	UnauthenticatedErr = errors.New("not authenticated")
)

// IsLoginRedirect reports whether err is an authentication-flow failure
// that should degrade to a redirect to the login entry point rather than
// surface as an error page. Infrastructure failures (store unreachable)
// never match.
func IsLoginRedirect(err error) bool {
	return errors.Is(err, MissingSessionErr) ||
		errors.Is(err, SessionNotFoundErr) ||
		errors.Is(err, CsrfMismatchErr) ||
		errors.Is(err, UnauthenticatedErr)
}
