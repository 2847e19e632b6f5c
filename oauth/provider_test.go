package oauth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/tmcfarlane/google-login-server/oauth"
)

func testConfig(tokenURL, userInfoURL string) oauth.Config {
	return oauth.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8000/api/auth/callback/google",
		AuthURL:      "https://accounts.example.com/o/oauth2/auth",
		TokenURL:     tokenURL,
		UserInfoURL:  userInfoURL,
	}
}

func TestNewGoogleRequiresCredentials(t *testing.T) {
	ctx := context.Background()

	_, err := oauth.NewGoogle(ctx, oauth.Config{RedirectURL: "http://localhost/cb"})
	require.Error(t, err)

	_, err = oauth.NewGoogle(ctx, oauth.Config{ClientID: "id", ClientSecret: "secret"})
	require.Error(t, err)
}

func TestNewLoginURLEmbedsStateAndChallenge(t *testing.T) {
	provider, err := oauth.NewGoogle(context.Background(), testConfig("https://t.example.com/token", ""))
	require.NoError(t, err)

	login, err := provider.NewLoginURL()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(login.State), 43)
	require.GreaterOrEqual(t, len(login.Verifier), 43)

	parsed, err := url.Parse(login.URL)
	require.NoError(t, err)
	require.Equal(t, "accounts.example.com", parsed.Host)

	query := parsed.Query()
	require.Equal(t, login.State, query.Get("state"))
	require.Equal(t, "S256", query.Get("code_challenge_method"))
	require.NotEmpty(t, query.Get("code_challenge"))
	require.NotEqual(t, login.Verifier, query.Get("code_challenge"))
	require.Equal(t, "client-id", query.Get("client_id"))
	require.Equal(t, "code", query.Get("response_type"))
}

func TestNewLoginURLSecretsAreUnique(t *testing.T) {
	provider, err := oauth.NewGoogle(context.Background(), testConfig("https://t.example.com/token", ""))
	require.NoError(t, err)

	const iterations = 10000
	states := make(map[string]struct{}, iterations)
	verifiers := make(map[string]struct{}, iterations)

	for range iterations {
		login, err := provider.NewLoginURL()
		require.NoError(t, err)
		states[login.State] = struct{}{}
		verifiers[login.Verifier] = struct{}{}
	}

	require.Len(t, states, iterations)
	require.Len(t, verifiers, iterations)
}

func TestExchangePresentsCodeAndVerifier(t *testing.T) {
	var gotCode, gotVerifier string

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotCode = r.FormValue("code")
		gotVerifier = r.FormValue("code_verifier")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "granted-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer tokenServer.Close()

	provider, err := oauth.NewGoogle(context.Background(), testConfig(tokenServer.URL, ""))
	require.NoError(t, err)

	token, err := provider.Exchange(context.Background(), "ABC123", "verifier-value")
	require.NoError(t, err)
	require.Equal(t, "granted-token", token.AccessToken)
	require.Equal(t, "ABC123", gotCode)
	require.Equal(t, "verifier-value", gotVerifier)
}

func TestExchangeFailureWrapsSentinel(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
	}))
	defer tokenServer.Close()

	provider, err := oauth.NewGoogle(context.Background(), testConfig(tokenServer.URL, ""))
	require.NoError(t, err)

	_, err = provider.Exchange(context.Background(), "expired-code", "verifier-value")
	require.Error(t, err)
	require.True(t, errors.Is(err, oauth.TokenExchangeErr))
}

func TestFetchProfile(t *testing.T) {
	userInfo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer granted-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":             "108346",
			"email":          "test@example.com",
			"verified_email": true,
			"name":           "Test User",
			"given_name":     "Test",
			"family_name":    "User",
			"picture":        "https://example.com/photo.jpg",
		})
	}))
	defer userInfo.Close()

	provider, err := oauth.NewGoogle(context.Background(), testConfig("https://t.example.com/token", userInfo.URL))
	require.NoError(t, err)

	profile, err := provider.FetchProfile(context.Background(), &oauth2.Token{AccessToken: "granted-token", TokenType: "Bearer"})
	require.NoError(t, err)
	require.Equal(t, "test@example.com", profile.Email)
	require.Equal(t, "Test User", profile.Name)
	require.True(t, profile.VerifiedEmail)
}

func TestFetchProfileErrors(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		userInfo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer userInfo.Close()

		provider, err := oauth.NewGoogle(context.Background(), testConfig("https://t.example.com/token", userInfo.URL))
		require.NoError(t, err)

		_, err = provider.FetchProfile(context.Background(), &oauth2.Token{AccessToken: "t", TokenType: "Bearer"})
		require.True(t, errors.Is(err, oauth.ProfileFetchErr))
	})

	t.Run("malformed body", func(t *testing.T) {
		userInfo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer userInfo.Close()

		provider, err := oauth.NewGoogle(context.Background(), testConfig("https://t.example.com/token", userInfo.URL))
		require.NoError(t, err)

		_, err = provider.FetchProfile(context.Background(), &oauth2.Token{AccessToken: "t", TokenType: "Bearer"})
		require.True(t, errors.Is(err, oauth.ProfileFetchErr))
	})

	t.Run("missing email", func(t *testing.T) {
		userInfo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"id": "108346", "name": "No Email"})
		}))
		defer userInfo.Close()

		provider, err := oauth.NewGoogle(context.Background(), testConfig("https://t.example.com/token", userInfo.URL))
		require.NoError(t, err)

		_, err = provider.FetchProfile(context.Background(), &oauth2.Token{AccessToken: "t", TokenType: "Bearer"})
		require.True(t, errors.Is(err, oauth.ProfileFetchErr))
	})
}

func TestNewStateTokenEntropy(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for range 10000 {
		token, err := oauth.NewStateToken()
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(token), 43)
		seen[token] = struct{}{}
	}
	require.Len(t, seen, 10000)
}
