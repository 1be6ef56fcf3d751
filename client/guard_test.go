package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/lotterylot/portal/client"
	"github.com/lotterylot/portal/users"
	"github.com/stretchr/testify/require"
)

// guardBackend scripts the /me and /refresh endpoints behind a guard.
type guardBackend struct {
	mux      *http.ServeMux
	meCalls  atomic.Int64
	meStatus atomic.Int64
	role     string
}

func newGuardBackend(role string) *guardBackend {
	b := &guardBackend{mux: http.NewServeMux(), role: role}
	b.meStatus.Store(http.StatusOK)

	b.mux.HandleFunc("GET "+client.MePath, func(w http.ResponseWriter, r *http.Request) {
		b.meCalls.Add(1)
		if status := int(b.meStatus.Load()); status != http.StatusOK {
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"user":    map[string]string{"userId": "user-1", "username": "shop@example.com", "role": b.role},
		})
	})
	b.mux.HandleFunc("POST "+client.RefreshPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "No refresh token"})
	})
	return b
}

func setupGuard(t *testing.T, backend *guardBackend, options ...client.GuardOption) (*client.Guard, *client.Pipeline) {
	t.Helper()

	srv := httptest.NewServer(backend.mux)
	t.Cleanup(srv.Close)

	pipeline, err := client.NewPipeline(srv.URL)
	require.NoError(t, err)
	return client.NewGuard(pipeline, options...), pipeline
}

// TestGuard_NoTokenRedirectsWithoutNetwork tests the fast path for anonymous visitors
func TestGuard_NoTokenRedirectsWithoutNetwork(t *testing.T) {
	backend := newGuardBackend("client")
	guard, _ := setupGuard(t, backend)

	decision := guard.Check(context.Background())

	require.Equal(t, client.StateUnauthorized, decision.State)
	require.Equal(t, client.LoginRoute, decision.RedirectTo)
	require.Equal(t, int64(0), backend.meCalls.Load(), "no round trip known to fail")
}

// TestGuard_Authorized tests a valid session passing the guard
func TestGuard_Authorized(t *testing.T) {
	backend := newGuardBackend("client")
	guard, pipeline := setupGuard(t, backend)
	pipeline.Tokens().Set("valid-token")

	decision := guard.Check(context.Background())

	require.Equal(t, client.StateAuthorized, decision.State)
	require.NotNil(t, decision.User)
	require.Equal(t, "user-1", decision.User.UserID)
	require.Equal(t, users.RoleClient, decision.User.Role)
	require.Empty(t, decision.RedirectTo)
	require.Equal(t, client.StateAuthorized, guard.State())
}

// TestGuard_InvalidSessionRedirectsToLogin tests a rejected token
func TestGuard_InvalidSessionRedirectsToLogin(t *testing.T) {
	backend := newGuardBackend("client")
	backend.meStatus.Store(http.StatusUnauthorized)
	guard, pipeline := setupGuard(t, backend)
	pipeline.Tokens().Set("stale-token")

	decision := guard.Check(context.Background())

	require.Equal(t, client.StateUnauthorized, decision.State)
	require.Equal(t, client.LoginRoute, decision.RedirectTo)
}

// TestGuard_RoleMismatchRedirectsToFallback tests an authenticated but under-privileged principal
func TestGuard_RoleMismatchRedirectsToFallback(t *testing.T) {
	backend := newGuardBackend("client")
	guard, pipeline := setupGuard(t, backend, client.WithRequiredRole(users.RoleAdmin))
	pipeline.Tokens().Set("valid-token")

	decision := guard.Check(context.Background())

	require.Equal(t, client.StateUnauthorized, decision.State)
	require.Equal(t, client.DefaultRoleFallback, decision.RedirectTo, "redirect home, not to login")
}

// TestGuard_RoleFallbackOverride tests a custom mismatch destination
func TestGuard_RoleFallbackOverride(t *testing.T) {
	backend := newGuardBackend("client")
	guard, pipeline := setupGuard(t, backend,
		client.WithRequiredRole(users.RoleAdmin),
		client.WithRoleFallback("/results"),
	)
	pipeline.Tokens().Set("valid-token")

	decision := guard.Check(context.Background())
	require.Equal(t, "/results", decision.RedirectTo)
}

// TestGuard_ChecksExactlyOnce tests that re-renders reuse the verdict
func TestGuard_ChecksExactlyOnce(t *testing.T) {
	backend := newGuardBackend("client")
	guard, pipeline := setupGuard(t, backend)
	pipeline.Tokens().Set("valid-token")

	first := guard.Check(context.Background())
	second := guard.Check(context.Background())
	third := guard.Check(context.Background())

	require.Equal(t, client.StateAuthorized, first.State)
	require.Equal(t, first, second)
	require.Equal(t, first, third)
	require.Equal(t, int64(1), backend.meCalls.Load(), "one session check per guard")
}

// TestGuard_CancelledCheckLeavesStateChecking tests that late results are dropped on unmount
func TestGuard_CancelledCheckLeavesStateChecking(t *testing.T) {
	backend := newGuardBackend("client")
	guard, pipeline := setupGuard(t, backend)
	pipeline.Tokens().Set("valid-token")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	decision := guard.Check(ctx)
	require.Equal(t, client.StateChecking, decision.State, "cancelled check publishes no verdict")
	require.Equal(t, client.StateChecking, guard.State())

	// A later mount with a live context still gets a real verdict
	decision = guard.Check(context.Background())
	require.Equal(t, client.StateAuthorized, decision.State)
}
