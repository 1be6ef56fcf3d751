package users

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role represents the portal role carried in every token.
type Role string

const (
	RoleAdmin  Role = "admin"  // Can manage client accounts
	RoleClient Role = "client" // Can view lottery results
)

// Valid reports whether r is one of the known portal roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleClient
}

type User struct {
	ID           string    `json:"id,omitempty"`       // Unique identifier for the user
	Username     string    `json:"username,omitempty"` // Login name (email format for client accounts)
	PasswordHash string    `json:"-"`                  // Hashed version of the user's password - never serialize
	Role         Role      `json:"role,omitempty"`
	DisplayName  string    `json:"display_name,omitempty"` // Shown on exported result sheets
	LogoURL      string    `json:"logo_url,omitempty"`     // Client branding, set after logo upload
	IsActive     bool      `json:"is_active"`              // Disabled accounts cannot log in
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext password matches the stored hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
