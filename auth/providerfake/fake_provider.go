package fakeprovider

import (
	"context"
	"sync"

	"golang.org/x/oauth2"

	"github.com/tmcfarlane/google-login-server/auth"
	"github.com/tmcfarlane/google-login-server/oauth"
)

var _ auth.Provider = (*FakeProvider)(nil)

// FakeProvider is an in-memory auth.Provider for tests. It mints
// predictable-but-unique secrets, records the arguments of every
// Exchange and FetchProfile call, and can be told to fail either step.
type FakeProvider struct {
	lock sync.Mutex

	// Profile is returned by FetchProfile on success.
	Profile oauth.Profile
	// AccessToken is the token minted by Exchange on success.
	AccessToken string

	// ExchangeErr / ProfileErr, when set, fail the respective call.
	ExchangeErr error
	ProfileErr  error

	loginCount int

	// Call records.
	Logins        []oauth.LoginURL
	ExchangeCalls []ExchangeCall
	ProfileCalls  []string // access tokens presented to FetchProfile
}

type ExchangeCall struct {
	Code     string
	Verifier string
}

func New() *FakeProvider {
	return &FakeProvider{
		Profile: oauth.Profile{
			ID:            "google-user-1",
			Email:         "a@b.com",
			VerifiedEmail: true,
			Name:          "A B",
			Picture:       "https://example.com/avatar.png",
		},
		AccessToken: "fake-access-token",
	}
}

func (p *FakeProvider) NewLoginURL() (*oauth.LoginURL, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	state, err := oauth.NewStateToken()
	if err != nil {
		return nil, err
	}
	verifier := oauth2.GenerateVerifier()
	p.loginCount++

	login := oauth.LoginURL{
		URL:      "https://accounts.example.com/authorize?state=" + state,
		State:    state,
		Verifier: verifier,
	}
	p.Logins = append(p.Logins, login)
	return &login, nil
}

func (p *FakeProvider) Exchange(_ context.Context, code, verifier string) (*oauth2.Token, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.ExchangeCalls = append(p.ExchangeCalls, ExchangeCall{Code: code, Verifier: verifier})
	if p.ExchangeErr != nil {
		return nil, p.ExchangeErr
	}
	return &oauth2.Token{AccessToken: p.AccessToken, TokenType: "Bearer"}, nil
}

func (p *FakeProvider) FetchProfile(_ context.Context, token *oauth2.Token) (*oauth.Profile, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.ProfileCalls = append(p.ProfileCalls, token.AccessToken)
	if p.ProfileErr != nil {
		return nil, p.ProfileErr
	}
	profile := p.Profile
	return &profile, nil
}

// LastLogin returns the most recently minted login, or nil.
func (p *FakeProvider) LastLogin() *oauth.LoginURL {
	p.lock.Lock()
	defer p.lock.Unlock()

	if len(p.Logins) == 0 {
		return nil
	}
	login := p.Logins[len(p.Logins)-1]
	return &login
}
