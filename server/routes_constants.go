package server

// Route paths. RouteAuth is kept as an alias of RouteAuthLogin for
// clients still posting credentials to the bare /auth path.
const (
	RouteAuth           = "/auth"
	RouteAuthLogin      = "/auth/login"
	RouteAuthLogout     = "/auth/logout"
	RouteRefresh        = "/refresh"
	RouteMe             = "/me"
	RouteLotteryHistory = "/lottery/history"
	RouteLotteryLatest  = "/lottery/latest"
	RouteLotteryDate    = "/lottery/date"
	RouteAdminUsers     = "/admin/users"
)
