package config

import "time"

type AuthConfig interface {
	GetJWTSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetBootstrapAdminUsername() string
	GetBootstrapAdminPassword() string
}

type Auth struct{}

var _ AuthConfig = Auth{}

func (Auth) GetJWTSecret() string {
	return GetEnv("JWT_SECRET", "dev-only-secret")
}

// GetAccessTokenExpiry returns the access token lifetime. Short by
// design: the client is expected to refresh silently.
func (Auth) GetAccessTokenExpiry() time.Duration {
	return durationEnv("ACCESS_TOKEN_EXPIRY", 5*time.Minute)
}

func (Auth) GetRefreshTokenExpiry() time.Duration {
	return durationEnv("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour)
}

// GetBootstrapAdminUsername returns the username of the admin account
// seeded at startup when no such account exists.
func (Auth) GetBootstrapAdminUsername() string {
	return GetEnv("BOOTSTRAP_ADMIN_USERNAME", "admin@lotterylot.local")
}

func (Auth) GetBootstrapAdminPassword() string {
	return GetEnv("BOOTSTRAP_ADMIN_PASSWORD", "")
}

func durationEnv(envVar string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(GetEnv(envVar, ""))
	if err != nil {
		return defaultValue
	}
	return value
}
