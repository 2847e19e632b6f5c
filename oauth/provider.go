package oauth

import (
	"context"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var (
	TokenExchangeErr = errors.New("token exchange failed")
	ProfileFetchErr  = errors.New("profile fetch failed")
)

const defaultHTTPTimeout = 10 * time.Second

// Config holds the relying-party credentials and the provider endpoints.
// Endpoint fields left empty fall back to Google's published endpoints.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Issuer       string // when set, the ID token in the exchange response is verified against it
	Scopes       []string
	HTTPTimeout  time.Duration
}

// Provider encapsulates the two operations this service needs from
// Google: building authorization URLs and exchanging authorization codes.
// It is immutable after construction and safe for concurrent use.
type Provider struct {
	oauthConfig *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
	idVerifier  *oidc.IDTokenVerifier
}

// ProviderOption modifies a Provider during construction.
type ProviderOption func(*Provider)

// WithHTTPClient overrides the HTTP client used for the token exchange
// and the profile fetch (primarily for testing).
func WithHTTPClient(client *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = client
	}
}

// NewGoogle builds a Google OAuth2 provider. When cfg.Issuer is set the
// OIDC discovery document is fetched at startup and ID tokens returned by
// the exchange are verified before the flow is allowed to continue.
func NewGoogle(ctx context.Context, cfg Config, options ...ProviderOption) (*Provider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("[oauth.NewGoogle] client id and secret are required")
	}
	if cfg.RedirectURL == "" {
		return nil, errors.New("[oauth.NewGoogle] redirect URL is required")
	}

	endpoint := google.Endpoint
	if cfg.AuthURL != "" && cfg.TokenURL != "" {
		endpoint = oauth2.Endpoint{AuthURL: cfg.AuthURL, TokenURL: cfg.TokenURL}
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"email", "profile"}
	}

	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	p := &Provider{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
		userInfoURL: userInfoURL,
		httpClient:  &http.Client{Timeout: timeout},
	}

	if cfg.Issuer != "" {
		oidcProvider, err := oidc.NewProvider(oidc.ClientContext(ctx, p.httpClient), cfg.Issuer)
		if err != nil {
			return nil, errors.Wrap(err, "[oauth.NewGoogle] oidc discovery")
		}
		p.idVerifier = oidcProvider.Verifier(&oidc.Config{ClientID: cfg.ClientID})
	}

	for _, opt := range options {
		opt(p)
	}

	return p, nil
}

// LoginURL is the result of minting a new authorization request. State and
// Verifier are the single-use secrets the caller must persist until the
// provider calls back.
type LoginURL struct {
	URL      string
	State    string
	Verifier string
}

// NewLoginURL mints a fresh CSRF state token and PKCE verifier and builds
// the provider authorization URL embedding the state and the S256
// challenge derived from the verifier.
func (p *Provider) NewLoginURL() (*LoginURL, error) {
	state, err := NewStateToken()
	if err != nil {
		return nil, errors.Wrap(err, "[Provider.NewLoginURL] generating state")
	}
	verifier := oauth2.GenerateVerifier()

	url := p.oauthConfig.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))

	return &LoginURL{URL: url, State: state, Verifier: verifier}, nil
}

// Exchange swaps an authorization code for a token, presenting the PKCE
// verifier that produced the challenge sent with the authorization
// request. Codes are single-use; the exchange is never retried.
func (p *Provider) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.oauthConfig.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, errors.Wrapf(TokenExchangeErr, "exchanging authorization code: %v", err)
	}

	if p.idVerifier != nil {
		rawIDToken, ok := token.Extra("id_token").(string)
		if !ok {
			return nil, errors.Wrap(TokenExchangeErr, "no ID token in exchange response")
		}
		if _, err := p.idVerifier.Verify(ctx, rawIDToken); err != nil {
			return nil, errors.Wrapf(TokenExchangeErr, "verifying ID token: %v", err)
		}
	}

	return token, nil
}

// Profile is the user record returned by Google's userinfo endpoint.
type Profile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

// FetchProfile retrieves the user's profile from the userinfo endpoint
// using the access token obtained from Exchange.
func (p *Provider) FetchProfile(ctx context.Context, token *oauth2.Token) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, errors.Wrapf(ProfileFetchErr, "building request: %v", err)
	}
	token.SetAuthHeader(req)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(ProfileFetchErr, "requesting userinfo: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Wrapf(ProfileFetchErr, "userinfo returned status %d", resp.StatusCode)
	}

	var profile Profile
	if err := decodeJSON(resp.Body, &profile); err != nil {
		return nil, errors.Wrapf(ProfileFetchErr, "decoding userinfo response: %v", err)
	}
	if profile.Email == "" {
		return nil, errors.Wrap(ProfileFetchErr, "userinfo response missing email")
	}

	return &profile, nil
}
