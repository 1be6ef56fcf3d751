// Package token encodes and verifies the portal's JWTs. Access and
// refresh tokens are signed with distinct key derivations so a leaked
// refresh token cannot be replayed as an access token and vice versa.
package token

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lotterylot/portal/internal/config"
	"github.com/lotterylot/portal/internal/errors"
	"github.com/lotterylot/portal/users"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Principal is the authenticated identity embedded in every token.
// Nothing mutable beyond these claims is embedded; role changes only
// propagate on the next login or refresh.
type Principal struct {
	UserID   string     `json:"userId"`
	Username string     `json:"username"`
	Role     users.Role `json:"role"`
}

// Codec creates and verifies access and refresh tokens.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewCodec derives the two signing secrets from the configured JWT
// secret. The refresh derivation matches the deployed token format, so
// rotating JWT_SECRET invalidates both token kinds together.
func NewCodec(cfg config.AuthConfig) *Codec {
	secret := cfg.GetJWTSecret()
	return &Codec{
		accessSecret:  []byte(secret),
		refreshSecret: []byte(secret + "_refresh"),
		accessExpiry:  cfg.GetAccessTokenExpiry(),
		refreshExpiry: cfg.GetRefreshTokenExpiry(),
	}
}

// EncodeAccess mints a short-lived access token for the principal.
func (c *Codec) EncodeAccess(principal Principal) (string, error) {
	return c.encode(principal, c.accessSecret, c.accessExpiry)
}

// EncodeRefresh mints a long-lived refresh token for the principal.
func (c *Codec) EncodeRefresh(principal Principal) (string, error) {
	return c.encode(principal, c.refreshSecret, c.refreshExpiry)
}

// DecodeAccess verifies an access token's signature and expiry and
// returns the embedded principal. Any failure is ErrUnauthorized.
func (c *Codec) DecodeAccess(raw string) (*Principal, error) {
	principal, err := c.decode(raw, c.accessSecret)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "[Codec DecodeAccess] %v", err)
	}
	return principal, nil
}

// DecodeRefresh verifies a refresh token. Any failure is ErrSessionExpired.
func (c *Codec) DecodeRefresh(raw string) (*Principal, error) {
	principal, err := c.decode(raw, c.refreshSecret)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrSessionExpired, "[Codec DecodeRefresh] %v", err)
	}
	return principal, nil
}

// AccessExpiry returns the configured access token lifetime.
func (c *Codec) AccessExpiry() time.Duration {
	return c.accessExpiry
}

// RefreshExpiry returns the configured refresh token lifetime.
func (c *Codec) RefreshExpiry() time.Duration {
	return c.refreshExpiry
}

func (c *Codec) encode(principal Principal, secret []byte, expiry time.Duration) (string, error) {
	now := NowTimeFunc()
	claims := jwtlib.MapClaims{
		"userId":   principal.UserID,             // Subject of every portal call
		"username": principal.Username,           // Denormalized for display
		"role":     string(principal.Role),       // admin or client
		"iat":      now.Unix(),                   // Issued At
		"exp":      now.Add(expiry).Unix(),       // Expiry
		"jti":      uuid.New().String(),          // Unique token ID
	}

	signedToken, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return signedToken, nil
}

func (c *Codec) decode(raw string, secret []byte) (*Principal, error) {
	parser := jwtlib.NewParser(
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(func() time.Time { return NowTimeFunc() }),
		jwtlib.WithExpirationRequired(),
	)

	parsed, err := parser.Parse(raw, func(t *jwtlib.Token) (any, error) {
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		if err == nil {
			err = fmt.Errorf("token not valid")
		}
		return nil, err
	}

	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, fmt.Errorf("error extracting claims from token")
	}

	userID, _ := claims["userId"].(string)
	username, _ := claims["username"].(string)
	roleClaim, _ := claims["role"].(string)

	role := users.Role(roleClaim)
	if userID == "" || !role.Valid() {
		return nil, fmt.Errorf("token missing principal claims")
	}

	return &Principal{
		UserID:   userID,
		Username: username,
		Role:     role,
	}, nil
}
