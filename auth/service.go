// Package auth implements the portal's session gateway: credential
// login, silent refresh and bearer-token introspection. Logout is
// cookie deletion and lives in the HTTP layer.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/lotterylot/portal/internal/errors"
	"github.com/lotterylot/portal/token"
	"github.com/lotterylot/portal/users"
	"github.com/rs/zerolog"
)

// Service issues and validates portal sessions.
type Service struct {
	users users.Repo
	codec *token.Codec
	log   zerolog.Logger
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(log zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = log
	}
}

// NewService initializes the session gateway with required dependencies.
func NewService(userRepo users.Repo, codec *token.Codec, options ...ServiceOption) (*Service, error) {
	if userRepo == nil {
		return nil, errors.Wrapf(errors.ErrInternal, "[NewService] users repo is required")
	}
	if codec == nil {
		return nil, errors.Wrapf(errors.ErrInternal, "[NewService] token codec is required")
	}

	service := &Service{
		users: userRepo,
		codec: codec,
		log:   zerolog.Nop(),
	}
	for _, opt := range options {
		opt(service)
	}
	return service, nil
}

// LoginResult carries both freshly minted tokens. The refresh token is
// only ever written into the httpOnly cookie; callers must not return
// it in a response body.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         *users.User
}

// Login verifies credentials against the user store and mints an
// access/refresh token pair.
//
// Failure modes: ErrValidation for missing fields, ErrInvalidCredentials
// for an unknown username or wrong password (indistinguishable), and
// ErrAccountDisabled for valid credentials on an inactive account.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errors.ErrValidation
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.ErrInvalidCredentials
		}
		return nil, errors.Wrapf(err, "[Login] get user %q", username)
	}

	if !user.IsActive {
		s.log.Warn().Str("username", username).Msg("login attempt on disabled account")
		return nil, errors.ErrAccountDisabled
	}

	if !users.CheckPassword(password, user.PasswordHash) {
		s.log.Warn().Str("username", username).Msg("login failed: bad password")
		return nil, errors.ErrInvalidCredentials
	}

	principal := token.Principal{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}

	accessToken, err := s.codec.EncodeAccess(principal)
	if err != nil {
		return nil, errors.Wrapf(err, "[Login] encode access token")
	}
	refreshToken, err := s.codec.EncodeRefresh(principal)
	if err != nil {
		return nil, errors.Wrapf(err, "[Login] encode refresh token")
	}

	s.log.Info().Str("username", username).Str("role", string(user.Role)).Msg("login")
	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// Refresh validates a refresh token taken from the cookie and mints a
// new access token carrying the same principal claims.
//
// Failure modes: ErrNoSession when no token is present, ErrSessionExpired
// when the token fails signature or expiry checks.
func (s *Service) Refresh(_ context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", errors.ErrNoSession
	}

	principal, err := s.codec.DecodeRefresh(refreshToken)
	if err != nil {
		s.log.Debug().Err(err).Msg("refresh denied")
		return "", err
	}

	accessToken, err := s.codec.EncodeAccess(*principal)
	if err != nil {
		return "", errors.Wrapf(err, "[Refresh] encode access token")
	}
	return accessToken, nil
}

// WhoAmI validates a bearer access token and returns the embedded
// principal. Any failure is ErrUnauthorized.
func (s *Service) WhoAmI(accessToken string) (*token.Principal, error) {
	return s.codec.DecodeAccess(accessToken)
}

// AuthorizeRole checks a principal against a required role. Returns
// ErrForbidden on a mismatch or a missing principal.
func (s *Service) AuthorizeRole(principal *token.Principal, role users.Role) error {
	if principal == nil || principal.Role != role {
		return errors.ErrForbidden
	}
	return nil
}

// RefreshCookieMaxAge returns the refresh token lifetime for the cookie
// Max-Age attribute.
func (s *Service) RefreshCookieMaxAge() time.Duration {
	return s.codec.RefreshExpiry()
}
