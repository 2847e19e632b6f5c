package auth

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/tmcfarlane/google-login-server/oauth"
)

// Provider is the slice of the OAuth2 provider client the service needs:
// minting authorization URLs with fresh single-use secrets, exchanging
// authorization codes, and fetching the user's profile. *oauth.Provider
// satisfies it; tests substitute a fake.
type Provider interface {
	NewLoginURL() (*oauth.LoginURL, error)
	Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error)
	FetchProfile(ctx context.Context, token *oauth2.Token) (*oauth.Profile, error)
}

var _ Provider = (*oauth.Provider)(nil)
