package client

import (
	"context"
	"sync"

	"github.com/lotterylot/portal/users"
)

// GuardState is the route guard's lifecycle state. Protected content
// renders only in StateAuthorized.
type GuardState string

const (
	StateChecking     GuardState = "checking"
	StateAuthorized   GuardState = "authorized"
	StateUnauthorized GuardState = "unauthorized"
)

// Routes the guard redirects to.
const (
	LoginRoute          = "/login"
	DefaultRoleFallback = "/dashboard"
)

// Decision is the guard's verdict for a mount.
type Decision struct {
	State      GuardState
	User       *UserProfile // set when authorized
	RedirectTo string       // set when unauthorized
}

// Guard validates the current session once per mount and gates
// protected content on the result.
type Guard struct {
	pipeline     *Pipeline
	requiredRole users.Role
	fallback     string

	mu       sync.Mutex
	inFlight bool
	state    GuardState
	decision Decision
}

// GuardOption defines a function type to modify the Guard instance.
type GuardOption func(*Guard)

// WithRequiredRole restricts the guarded route to one role. A
// mismatched principal is redirected to the role fallback, not login.
func WithRequiredRole(role users.Role) GuardOption {
	return func(g *Guard) {
		g.requiredRole = role
	}
}

// WithRoleFallback overrides the redirect target for role mismatches.
func WithRoleFallback(route string) GuardOption {
	return func(g *Guard) {
		g.fallback = route
	}
}

func NewGuard(pipeline *Pipeline, options ...GuardOption) *Guard {
	g := &Guard{
		pipeline: pipeline,
		fallback: DefaultRoleFallback,
		state:    StateChecking,
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// State returns the guard's current state.
func (g *Guard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Check runs the session check at most once. Re-renders that call
// Check again while a check is in flight get StateChecking back
// instead of triggering a duplicate round trip; once a verdict exists
// it is returned unchanged. A cancelled ctx discards the verdict so a
// slow check never updates an unmounted caller.
func (g *Guard) Check(ctx context.Context) Decision {
	g.mu.Lock()
	if g.state != StateChecking {
		decision := g.decision
		g.mu.Unlock()
		return decision
	}
	if g.inFlight {
		g.mu.Unlock()
		return Decision{State: StateChecking}
	}
	g.inFlight = true
	g.mu.Unlock()

	decision := g.evaluate(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.inFlight = false
	if ctx.Err() != nil {
		// The caller went away while whoAmI was in flight.
		return Decision{State: StateChecking}
	}
	g.state = decision.State
	g.decision = decision
	return decision
}

func (g *Guard) evaluate(ctx context.Context) Decision {
	// No token: straight to login without a round trip known to fail.
	if g.pipeline.Tokens().Get() == "" {
		return Decision{State: StateUnauthorized, RedirectTo: LoginRoute}
	}

	var me MeResponse
	if err := g.pipeline.Get(ctx, MePath, &me); err != nil || !me.Success {
		return Decision{State: StateUnauthorized, RedirectTo: LoginRoute}
	}

	if g.requiredRole != "" && me.User.Role != g.requiredRole {
		return Decision{State: StateUnauthorized, RedirectTo: g.fallback}
	}

	return Decision{State: StateAuthorized, User: &me.User}
}
