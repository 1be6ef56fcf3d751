package server

import (
	"encoding/json"
	"net/http"

	"github.com/lotterylot/portal/internal/errors"
	"github.com/lotterylot/portal/users"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success     bool      `json:"success"`
	AccessToken string    `json:"accessToken"`
	User        loginUser `json:"user"`
}

type loginUser struct {
	Username string     `json:"username"`
	Role     users.Role `json:"role"`
}

// LoginHandler verifies credentials, sets the refresh cookie and
// returns the access token in the response body.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Username and password are required")
			return
		}

		result, err := s.auth.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, errors.ErrValidation):
				writeError(w, http.StatusBadRequest, "Username and password are required")
			case errors.Is(err, errors.ErrAccountDisabled):
				writeError(w, http.StatusForbidden, "Account is disabled")
			case errors.Is(err, errors.ErrInvalidCredentials):
				writeError(w, http.StatusUnauthorized, "Invalid credentials")
			default:
				s.log.Error().Err(err).Msg("login failed")
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}
			return
		}

		// Refresh token travels only in the httpOnly cookie.
		s.setRefreshCookie(w, result.RefreshToken)

		writeJSON(w, http.StatusOK, loginResponse{
			Success:     true,
			AccessToken: result.AccessToken,
			User: loginUser{
				Username: result.User.Username,
				Role:     result.User.Role,
			},
		})
	}
}

type refreshResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"accessToken"`
}

// RefreshHandler mints a new access token from the refresh cookie. The
// caller never sends the refresh token explicitly.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var refreshToken string
		if cookie, err := r.Cookie(RefreshCookieName); err == nil {
			refreshToken = cookie.Value
		}

		accessToken, err := s.auth.Refresh(r.Context(), refreshToken)
		if err != nil {
			switch {
			case errors.Is(err, errors.ErrNoSession):
				writeError(w, http.StatusUnauthorized, "No refresh token")
			case errors.Is(err, errors.ErrSessionExpired):
				writeError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
			default:
				s.log.Error().Err(err).Msg("refresh failed")
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}
			return
		}

		writeJSON(w, http.StatusOK, refreshResponse{Success: true, AccessToken: accessToken})
	}
}

// LogoutHandler deletes the refresh cookie. Idempotent: logging out
// with no active session is not an error.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.clearRefreshCookie(w)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
	}
}

type meResponse struct {
	Success bool   `json:"success"`
	User    meUser `json:"user"`
}

type meUser struct {
	UserID   string     `json:"userId"`
	Username string     `json:"username"`
	Role     users.Role `json:"role"`
}

// MeHandler returns the principal embedded in the presented bearer token.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := principalFrom(r.Context())
		if principal == nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		writeJSON(w, http.StatusOK, meResponse{
			Success: true,
			User: meUser{
				UserID:   principal.UserID,
				Username: principal.Username,
				Role:     principal.Role,
			},
		})
	}
}
