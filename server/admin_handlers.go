package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lotterylot/portal/internal/errors"
	"github.com/lotterylot/portal/users"
)

const (
	defaultAdminPageSize = 20
	maxAdminPageSize     = 100
)

type pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasMore    bool `json:"hasMore"`
}

type adminUsersListResponse struct {
	Success    bool          `json:"success"`
	Data       []*users.User `json:"data"`
	Pagination pagination    `json:"pagination"`
}

// AdminUsersListHandler returns a page of portal accounts. Admin only.
func (s *Server) AdminUsersListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := positiveQueryParam(r, "page", 1)
		limit := positiveQueryParam(r, "limit", defaultAdminPageSize)
		if limit > maxAdminPageSize {
			limit = maxAdminPageSize
		}

		items, total, err := s.users.List(r.Context(), (page-1)*limit, limit)
		if err != nil {
			s.log.Error().Err(err).Msg("admin user listing failed")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		totalPages := (total + limit - 1) / limit
		writeJSON(w, http.StatusOK, adminUsersListResponse{
			Success: true,
			Data:    items,
			Pagination: pagination{
				Page:       page,
				Limit:      limit,
				Total:      total,
				TotalPages: totalPages,
				HasMore:    page < totalPages,
			},
		})
	}
}

type createUserRequest struct {
	Username    string `json:"username" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6,max=72"`
	DisplayName string `json:"displayName" validate:"max=100"`
}

type createUserResponse struct {
	Success bool        `json:"success"`
	User    *users.User `json:"user"`
}

// AdminCreateUserHandler registers a new client account. Admin only.
func (s *Server) AdminCreateUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := s.validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "Username must be an email address and password 6-72 characters")
			return
		}

		hash, err := users.HashPassword(req.Password)
		if err != nil {
			s.log.Error().Err(err).Msg("password hashing failed")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		user := &users.User{
			ID:           uuid.New().String(),
			Username:     req.Username,
			PasswordHash: hash,
			Role:         users.RoleClient,
			DisplayName:  req.DisplayName,
			IsActive:     true,
			CreatedAt:    time.Now(),
		}
		if err := s.users.Create(r.Context(), user); err != nil {
			if errors.Is(err, errors.ErrAlreadyExists) {
				writeError(w, http.StatusConflict, "Username already exists")
				return
			}
			s.log.Error().Err(err).Msg("user creation failed")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		s.log.Info().Str("username", user.Username).Str("created_by", principalFrom(r.Context()).Username).Msg("client account created")
		writeJSON(w, http.StatusCreated, createUserResponse{Success: true, User: user})
	}
}

func positiveQueryParam(r *http.Request, name string, defaultValue int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 1 {
		return defaultValue
	}
	return parsed
}
