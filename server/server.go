// Package server exposes the portal's HTTP API: session endpoints,
// lottery result queries and the admin account surface.
package server

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lotterylot/portal/auth"
	"github.com/lotterylot/portal/internal/config"
	"github.com/lotterylot/portal/internal/errors"
	"github.com/lotterylot/portal/lottery"
	"github.com/lotterylot/portal/token"
	"github.com/lotterylot/portal/users"
	"github.com/rs/zerolog"
)

type Server struct {
	env      string // Environment (e.g. "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	auth     *auth.Service
	users    users.Repo
	lottery  *lottery.Service
	validate *validator.Validate
	log      zerolog.Logger
}

// Option defines a function type to modify the Server instance.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

func New(cfg config.Config, authService *auth.Service, userRepo users.Repo, lotteryService *lottery.Service, options ...Option) (*Server, error) {
	if authService == nil {
		return nil, errors.Wrapf(errors.ErrInternal, "[Server New] auth service is required")
	}
	if userRepo == nil {
		return nil, errors.Wrapf(errors.ErrInternal, "[Server New] users repo is required")
	}
	if lotteryService == nil {
		return nil, errors.Wrapf(errors.ErrInternal, "[Server New] lottery service is required")
	}

	s := &Server{
		env:      cfg.GetEnv(),
		mux:      http.NewServeMux(),
		config:   cfg,
		auth:     authService,
		users:    userRepo,
		lottery:  lotteryService,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		s.log.Debug().Str("route", route).Msg("registered")
	}
}

// EnsureAdminAccount seeds the bootstrap admin account on first start.
// A portal without an admin cannot create client accounts at all.
func (s *Server) EnsureAdminAccount(ctx context.Context) error {
	username := s.config.GetBootstrapAdminUsername()
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, errors.ErrNotFound) {
		return errors.Wrapf(err, "[EnsureAdminAccount] lookup %q", username)
	}

	password := s.config.GetBootstrapAdminPassword()
	if password == "" {
		s.log.Warn().Str("username", username).Msg("no bootstrap admin password set, skipping admin seed")
		return nil
	}

	hash, err := users.HashPassword(password)
	if err != nil {
		return errors.Wrapf(err, "[EnsureAdminAccount] hash password")
	}
	if err := s.users.Create(ctx, &users.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: hash,
		Role:         users.RoleAdmin,
		DisplayName:  "Administrator",
		IsActive:     true,
	}); err != nil {
		return errors.Wrapf(err, "[EnsureAdminAccount] create admin")
	}

	s.log.Info().Str("username", username).Msg("seeded bootstrap admin account")
	return nil
}

// principalFrom returns the authenticated principal injected by
// RequireAuth, or nil on unauthenticated routes.
func principalFrom(ctx context.Context) *token.Principal {
	principal, _ := ctx.Value(ContextKeyPrincipal).(*token.Principal)
	return principal
}
