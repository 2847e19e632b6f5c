package auth

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/tmcfarlane/google-login-server/oauth"
	"github.com/tmcfarlane/google-login-server/sessions"
	"github.com/tmcfarlane/google-login-server/users"
)

const defaultAuthenticatedTTL = 30 * 24 * time.Hour

// AuthRequest carries the query parameters Google sends to the callback
// endpoint.
type AuthRequest struct {
	Code  string
	State string
}

// LoginRedirect is the result of initiating a login: the provider
// authorization URL to redirect the user-agent to, and the id of the
// pending session the caller must hand out as the session cookie.
type LoginRedirect struct {
	AuthURL   string
	SessionID string
}

// CallbackResult is the outcome of a successful callback: the id of the
// freshly created authenticated session (always different from the
// pending session's id) and the logged-in user.
type CallbackResult struct {
	SessionID string
	User      *users.User
}

// Service drives the authorization-code-with-PKCE login flow and the
// session lifecycle built on top of it. It holds no mutable state of its
// own; all state lives in the session store, keyed by unguessable ids,
// so concurrent requests need no locking.
type Service struct {
	provider         Provider
	sessions         sessions.Store
	users            users.Repo // optional; nil disables user persistence
	authenticatedTTL time.Duration
	nowTime          func() time.Time // injectable for testing
}

// ServiceOption modifies the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithAuthenticatedTTL overrides the 30-day lifetime of authenticated
// sessions.
func WithAuthenticatedTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.authenticatedTTL = ttl
	}
}

// NewService initialises the login service. userRepo may be nil, in which
// case users are built fresh from the provider profile on every login and
// never persisted.
func NewService(provider Provider, sessionStore sessions.Store, userRepo users.Repo, options ...ServiceOption) (*Service, error) {
	if provider == nil {
		return nil, errors.New("[NewService] provider is required")
	}
	if sessionStore == nil {
		return nil, errors.New("[NewService] session store is required")
	}

	service := &Service{
		provider:         provider,
		sessions:         sessionStore,
		users:            userRepo,
		authenticatedTTL: defaultAuthenticatedTTL,
		nowTime:          time.Now,
	}

	for _, opt := range options {
		opt(service)
	}

	return service, nil
}

// InitiateLogin mints a CSRF token and PKCE verifier, persists them in a
// new pending session, and returns the authorization redirect. The
// pending session has no explicit expiry; the store's default TTL bounds
// how long the callback may take.
func (s *Service) InitiateLogin(ctx context.Context) (*LoginRedirect, error) {
	login, err := s.provider.NewLoginURL()
	if err != nil {
		return nil, errors.Wrap(err, "[Service.InitiateLogin] building authorization URL")
	}

	sessionID, err := s.sessions.Create(ctx, sessions.NewPending(login.State, login.Verifier))
	if err != nil {
		return nil, errors.Wrap(err, "[Service.InitiateLogin] storing pending session")
	}

	return &LoginRedirect{AuthURL: login.URL, SessionID: sessionID}, nil
}

// HandleCallback validates the provider callback and promotes the pending
// session into an authenticated one.
//
// Every attempt that reaches the pending session consumes it: the session
// is destroyed on CSRF mismatch, corrupt state, token-exchange failure,
// profile-fetch failure, and success alike. A callback can therefore
// never be replayed - the second attempt fails with SessionNotFoundErr.
func (s *Service) HandleCallback(ctx context.Context, req AuthRequest, sessionID string) (*CallbackResult, error) {
	if sessionID == "" {
		return nil, MissingSessionErr
	}

	data, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.HandleCallback] loading session")
	}
	if data == nil || data.Expired(s.nowTime()) {
		return nil, SessionNotFoundErr
	}

	if data.Pending == nil || data.Pending.CSRFToken == "" {
		return nil, s.consume(ctx, sessionID, CorruptSessionErr)
	}

	if subtle.ConstantTimeCompare([]byte(data.Pending.CSRFToken), []byte(req.State)) != 1 {
		return nil, s.consume(ctx, sessionID, CsrfMismatchErr)
	}

	verifier := data.Pending.PKCEVerifier
	if verifier == "" {
		return nil, s.consume(ctx, sessionID, CorruptSessionErr)
	}

	token, err := s.provider.Exchange(ctx, req.Code, verifier)
	if err != nil {
		return nil, s.consume(ctx, sessionID, err)
	}

	profile, err := s.provider.FetchProfile(ctx, token)
	if err != nil {
		return nil, s.consume(ctx, sessionID, err)
	}

	// Single-use: the pending session is gone before the authenticated
	// one exists, and the two never share a store entry.
	if err := s.sessions.Destroy(ctx, sessionID); err != nil {
		return nil, errors.Wrap(err, "[Service.HandleCallback] destroying pending session")
	}

	user, err := s.buildUser(ctx, profile)
	if err != nil {
		return nil, err
	}

	expiresAt := s.nowTime().Add(s.authenticatedTTL)
	newSessionID, err := s.sessions.Create(ctx, sessions.NewAuthenticated(user, expiresAt))
	if err != nil {
		return nil, errors.Wrap(err, "[Service.HandleCallback] storing authenticated session")
	}

	return &CallbackResult{SessionID: newSessionID, User: user}, nil
}

// Authenticate resolves a session cookie value into the logged-in user.
// All soft failures (no cookie, unknown or expired session, pending
// session) return UnauthenticatedErr; store failures propagate as-is so
// callers can distinguish infrastructure errors.
func (s *Service) Authenticate(ctx context.Context, sessionID string) (*users.User, error) {
	if sessionID == "" {
		return nil, UnauthenticatedErr
	}

	data, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Authenticate] loading session")
	}
	if data == nil {
		return nil, UnauthenticatedErr
	}

	if data.Expired(s.nowTime()) {
		if err := s.sessions.Destroy(ctx, sessionID); err != nil {
			return nil, errors.Wrap(err, "[Service.Authenticate] destroying expired session")
		}
		return nil, UnauthenticatedErr
	}

	if !data.IsAuthenticated() {
		return nil, UnauthenticatedErr
	}

	return data.User, nil
}

// Logout destroys the session behind the cookie value. It is idempotent:
// an absent cookie or already-destroyed session is not an error.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	data, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return errors.Wrap(err, "[Service.Logout] loading session")
	}
	if data == nil {
		return nil
	}

	if err := s.sessions.Destroy(ctx, sessionID); err != nil {
		return errors.Wrap(err, "[Service.Logout] destroying session")
	}
	return nil
}

// consume destroys the pending session and returns cause. A destroy
// failure takes precedence: if the single-use guarantee cannot be
// enforced the caller must see an infrastructure error, not a clean
// rejection.
func (s *Service) consume(ctx context.Context, sessionID string, cause error) error {
	if err := s.sessions.Destroy(ctx, sessionID); err != nil {
		log.Error().Err(err).Msg("failed to destroy consumed pending session")
		return errors.Wrap(err, "[Service.consume] destroying pending session")
	}
	return cause
}

func (s *Service) buildUser(ctx context.Context, profile *oauth.Profile) (*users.User, error) {
	user := users.FromProfile(profile, s.nowTime())
	if s.users == nil {
		return user, nil
	}

	stored, err := s.users.Upsert(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.buildUser] upserting user")
	}
	return stored, nil
}
