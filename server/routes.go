package server

import (
	"net/http"

	"github.com/lotterylot/portal/users"
)

func (s *Server) initRoutes() {
	api := s.APIMiddleware()
	protected := append(s.APIMiddleware(), s.RequireAuth())
	admin := append(s.APIMiddleware(), s.RequireAuth(), s.RequireRole(users.RoleAdmin))

	// Session lifecycle
	s.RegisterRouteFunc("POST "+RouteAuth, ChainMiddleware(s.LoginHandler(), api...))
	s.RegisterRouteFunc("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), api...))
	s.RegisterRouteFunc("POST "+RouteRefresh, ChainMiddleware(s.RefreshHandler(), api...))
	s.RegisterRouteFunc("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), api...))
	s.RegisterRouteFunc("GET "+RouteMe, ChainMiddleware(s.MeHandler(), protected...))

	// Lottery results
	s.RegisterRouteFunc("GET "+RouteLotteryHistory, ChainMiddleware(s.HistoryHandler(), protected...))
	s.RegisterRouteFunc("GET "+RouteLotteryLatest, ChainMiddleware(s.LatestHandler(), protected...))
	s.RegisterRouteFunc("GET "+RouteLotteryDate, ChainMiddleware(s.DateHandler(), protected...))

	// Admin account management
	s.RegisterRouteFunc("GET "+RouteAdminUsers, ChainMiddleware(s.AdminUsersListHandler(), admin...))
	s.RegisterRouteFunc("POST "+RouteAdminUsers, ChainMiddleware(s.AdminCreateUserHandler(), admin...))

	// Browser preflights never match the method-specific routes above;
	// the CORS middleware answers them with 204.
	s.RegisterRouteFunc("OPTIONS /", ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, api...))

	s.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
}
