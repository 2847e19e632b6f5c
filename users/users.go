package users

import (
	"time"

	"github.com/tmcfarlane/google-login-server/internal/utils"
	"github.com/tmcfarlane/google-login-server/oauth"
)

// User is the application's view of an authenticated person. It is built
// fresh from the provider profile on every successful login; the numeric
// ID is assigned by the persistence layer and is zero until the record
// has been stored.
type User struct {
	ID            int64      `json:"id,omitempty"`             // Assigned on insert, zero before
	Name          string     `json:"name,omitempty"`           // Display name from the provider
	Email         string     `json:"email"`                    // Required, from the provider
	EmailVerified *time.Time `json:"email_verified,omitempty"` // Set iff the provider reports the email as verified
	Image         string     `json:"image,omitempty"`          // Avatar URL
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// FromProfile constructs a User from a Google userinfo profile.
func FromProfile(profile *oauth.Profile, now time.Time) *User {
	user := &User{
		Name:      profile.Name,
		Email:     profile.Email,
		Image:     profile.Picture,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if profile.VerifiedEmail {
		user.EmailVerified = utils.Ptr(now)
	}
	return user
}
