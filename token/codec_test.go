package token_test

import (
	"testing"
	"time"

	"github.com/lotterylot/portal/internal/errors"
	"github.com/lotterylot/portal/token"
	"github.com/lotterylot/portal/users"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "test-secret-1234"
	testUserID   = "user-1"
	testUsername = "shop@example.com"
)

// testAuthConfig satisfies config.AuthConfig with fixed values.
type testAuthConfig struct {
	secret        string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func (c testAuthConfig) GetJWTSecret() string                 { return c.secret }
func (c testAuthConfig) GetAccessTokenExpiry() time.Duration  { return c.accessExpiry }
func (c testAuthConfig) GetRefreshTokenExpiry() time.Duration { return c.refreshExpiry }
func (c testAuthConfig) GetBootstrapAdminUsername() string    { return "admin@example.com" }
func (c testAuthConfig) GetBootstrapAdminPassword() string    { return "" }

func newTestCodec() *token.Codec {
	return token.NewCodec(testAuthConfig{
		secret:        testSecret,
		accessExpiry:  5 * time.Minute,
		refreshExpiry: 7 * 24 * time.Hour,
	})
}

func testPrincipal() token.Principal {
	return token.Principal{
		UserID:   testUserID,
		Username: testUsername,
		Role:     users.RoleClient,
	}
}

// withFixedTime pins NowTimeFunc for the duration of a test.
func withFixedTime(t *testing.T, at time.Time) {
	t.Helper()
	original := token.NowTimeFunc
	token.NowTimeFunc = func() time.Time { return at }
	t.Cleanup(func() { token.NowTimeFunc = original })
}

// TestAccessToken_RoundTrip tests that a decoded access token carries the encoded principal
func TestAccessToken_RoundTrip(t *testing.T) {
	codec := newTestCodec()

	raw, err := codec.EncodeAccess(testPrincipal())
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	principal, err := codec.DecodeAccess(raw)
	require.NoError(t, err)
	require.Equal(t, testUserID, principal.UserID)
	require.Equal(t, testUsername, principal.Username)
	require.Equal(t, users.RoleClient, principal.Role)
}

// TestRefreshToken_RoundTrip tests refresh token encode/decode
func TestRefreshToken_RoundTrip(t *testing.T) {
	codec := newTestCodec()

	raw, err := codec.EncodeRefresh(testPrincipal())
	require.NoError(t, err)

	principal, err := codec.DecodeRefresh(raw)
	require.NoError(t, err)
	require.Equal(t, testPrincipal(), *principal)
}

// TestCrossSecretReplay tests that a refresh token is never accepted as an access token and vice versa
func TestCrossSecretReplay(t *testing.T) {
	codec := newTestCodec()

	accessToken, err := codec.EncodeAccess(testPrincipal())
	require.NoError(t, err)
	refreshToken, err := codec.EncodeRefresh(testPrincipal())
	require.NoError(t, err)

	_, err = codec.DecodeAccess(refreshToken)
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrUnauthorized))

	_, err = codec.DecodeRefresh(accessToken)
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrSessionExpired))
}

// TestAccessToken_Expiry tests that an access token expires after its configured lifetime
func TestAccessToken_Expiry(t *testing.T) {
	codec := newTestCodec()
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	withFixedTime(t, issuedAt)
	raw, err := codec.EncodeAccess(testPrincipal())
	require.NoError(t, err)

	// Still valid just before expiry
	token.NowTimeFunc = func() time.Time { return issuedAt.Add(4 * time.Minute) }
	_, err = codec.DecodeAccess(raw)
	require.NoError(t, err)

	// Expired just after
	token.NowTimeFunc = func() time.Time { return issuedAt.Add(6 * time.Minute) }
	_, err = codec.DecodeAccess(raw)
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrUnauthorized))
}

// TestRefreshToken_Expiry tests the seven day refresh lifetime
func TestRefreshToken_Expiry(t *testing.T) {
	codec := newTestCodec()
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	withFixedTime(t, issuedAt)
	raw, err := codec.EncodeRefresh(testPrincipal())
	require.NoError(t, err)

	token.NowTimeFunc = func() time.Time { return issuedAt.Add(6 * 24 * time.Hour) }
	_, err = codec.DecodeRefresh(raw)
	require.NoError(t, err)

	token.NowTimeFunc = func() time.Time { return issuedAt.Add(8 * 24 * time.Hour) }
	_, err = codec.DecodeRefresh(raw)
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrSessionExpired))
}

// TestDecode_TamperedToken tests signature validation
func TestDecode_TamperedToken(t *testing.T) {
	codec := newTestCodec()

	raw, err := codec.EncodeAccess(testPrincipal())
	require.NoError(t, err)

	tampered := raw[:len(raw)-4] + "aaaa"
	_, err = codec.DecodeAccess(tampered)
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrUnauthorized))
}

// TestDecode_WrongSecret tests that tokens from a different deployment are rejected
func TestDecode_WrongSecret(t *testing.T) {
	codec := newTestCodec()
	other := token.NewCodec(testAuthConfig{
		secret:        "another-secret",
		accessExpiry:  5 * time.Minute,
		refreshExpiry: 7 * 24 * time.Hour,
	})

	raw, err := other.EncodeAccess(testPrincipal())
	require.NoError(t, err)

	_, err = codec.DecodeAccess(raw)
	require.Error(t, err)
}

// TestDecode_Garbage tests decoding of non-JWT input
func TestDecode_Garbage(t *testing.T) {
	codec := newTestCodec()

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		_, err := codec.DecodeAccess(raw)
		require.Error(t, err, "input %q", raw)
	}
}

// TestDecode_MissingPrincipalClaims tests rejection of tokens without a user id or valid role
func TestDecode_MissingPrincipalClaims(t *testing.T) {
	codec := newTestCodec()

	raw, err := codec.EncodeAccess(token.Principal{Username: testUsername, Role: "superuser"})
	require.NoError(t, err)

	_, err = codec.DecodeAccess(raw)
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrUnauthorized))
}
