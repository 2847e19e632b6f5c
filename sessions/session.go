package sessions

import (
	"time"

	"github.com/tmcfarlane/google-login-server/users"
)

// PendingLogin holds the single-use secrets minted at login initiation.
// Both values are consumed exactly once at the provider callback.
type PendingLogin struct {
	CSRFToken    string `json:"csrf_token"`
	PKCEVerifier string `json:"pkce_verifier"`
}

// Data is the value stored against an opaque session id. A session is in
// exactly one of two phases: pending (Pending set, User nil) while a
// login is in flight, or authenticated (User set, Pending nil) after the
// callback promotes it. The constructors below are the only way sessions
// are built, which keeps mixed-phase records unrepresentable.
type Data struct {
	Pending   *PendingLogin `json:"pending,omitempty"`
	User      *users.User   `json:"user,omitempty"`
	ExpiresAt time.Time     `json:"expires_at,omitzero"` // zero means the store applies its default TTL
}

// NewPending builds a pending-phase session carrying the login secrets.
// No explicit expiry is set; the store's default TTL applies.
func NewPending(csrfToken, pkceVerifier string) Data {
	return Data{
		Pending: &PendingLogin{
			CSRFToken:    csrfToken,
			PKCEVerifier: pkceVerifier,
		},
	}
}

// NewAuthenticated builds an authenticated-phase session for the user.
func NewAuthenticated(user *users.User, expiresAt time.Time) Data {
	return Data{
		User:      user,
		ExpiresAt: expiresAt,
	}
}

// IsAuthenticated reports whether the session carries a user.
func (d Data) IsAuthenticated() bool {
	return d.User != nil
}

// Expired reports whether the session's expiry has passed. Stores do not
// purge expired entries on load; callers check this themselves.
func (d Data) Expired(now time.Time) bool {
	return !d.ExpiresAt.IsZero() && d.ExpiresAt.Before(now)
}
