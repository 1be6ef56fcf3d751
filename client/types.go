package client

import (
	"fmt"

	"github.com/lotterylot/portal/lottery"
	"github.com/lotterylot/portal/users"
)

// Wire shapes for the portal API.

type UserSummary struct {
	Username string     `json:"username"`
	Role     users.Role `json:"role"`
}

type UserProfile struct {
	UserID   string     `json:"userId"`
	Username string     `json:"username"`
	Role     users.Role `json:"role"`
}

type LoginResponse struct {
	Success     bool        `json:"success"`
	AccessToken string      `json:"accessToken"`
	User        UserSummary `json:"user"`
}

type RefreshResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"accessToken"`
}

type MeResponse struct {
	Success bool        `json:"success"`
	User    UserProfile `json:"user"`
}

type HistoryResponse struct {
	Success bool                `json:"success"`
	Data    lottery.HistoryPage `json:"data"`
}

// APIError is the normalized failure for any non-2xx response: the
// server-provided message when one exists, a generic fallback otherwise.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}
