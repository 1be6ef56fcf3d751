package client_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/lotterylot/portal/client"
	"github.com/lotterylot/portal/lottery"
	"github.com/stretchr/testify/require"
)

// historyBackend serves a fixed dataset through the portal history contract.
type historyBackend struct {
	total   int
	calls   atomic.Int64
	failing atomic.Bool
}

func (b *historyBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.calls.Add(1)
	if b.failing.Load() {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Failed to fetch lottery history"})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	count := b.total - offset
	if count > limit {
		count = limit
	}
	if count < 0 {
		count = 0
	}

	items := make([]lottery.Result, count)
	for i := range items {
		items[i] = lottery.Result{
			DrawDate: fmt.Sprintf("2025-06-%02d", (offset+i)%28+1),
			DrawCode: fmt.Sprintf("AK-%d", 600+offset+i),
		}
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    lottery.HistoryPage{Total: b.total, Limit: limit, Offset: offset, Items: items},
	})
}

func setupFetcher(t *testing.T, backend *historyBackend, options ...client.FetcherOption) *client.HistoryFetcher {
	t.Helper()

	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	pipeline, err := client.NewPipeline(srv.URL)
	require.NoError(t, err)
	return client.NewHistoryFetcher(pipeline, options...)
}

// TestFetcher_LoadsAllPages tests cursor advancement across a 25 item feed
func TestFetcher_LoadsAllPages(t *testing.T) {
	backend := &historyBackend{total: 25}
	fetcher := setupFetcher(t, backend)

	// Page one: offset 0 -> 10
	require.NoError(t, fetcher.LoadMore(context.Background()))
	cursor := fetcher.Cursor()
	require.Equal(t, 10, cursor.Offset)
	require.Equal(t, 25, cursor.Total)
	require.True(t, cursor.HasMore)
	require.Len(t, fetcher.Items(), 10)

	// Page two: offset 10 -> 20
	require.NoError(t, fetcher.LoadMore(context.Background()))
	require.Equal(t, 20, fetcher.Cursor().Offset)
	require.True(t, fetcher.Cursor().HasMore)

	// Page three is short: offset advances by the 5 received, not by the limit
	require.NoError(t, fetcher.LoadMore(context.Background()))
	cursor = fetcher.Cursor()
	require.Equal(t, 25, cursor.Offset)
	require.False(t, cursor.HasMore)
	require.Len(t, fetcher.Items(), 25)

	// Exhausted: no further network call
	before := backend.calls.Load()
	require.NoError(t, fetcher.LoadMore(context.Background()))
	require.Equal(t, before, backend.calls.Load())
}

// TestFetcher_ItemKeys tests the derived display identity on accumulated items
func TestFetcher_ItemKeys(t *testing.T) {
	backend := &historyBackend{total: 3}
	fetcher := setupFetcher(t, backend, client.WithPageLimit(3))

	require.NoError(t, fetcher.LoadMore(context.Background()))

	items := fetcher.Items()
	require.Len(t, items, 3)
	for _, item := range items {
		require.Equal(t, item.DrawDate+"-"+item.DrawCode, item.ID)
	}
}

// TestFetcher_ErrorKeepsItems tests that a failed page load retains what is already shown
func TestFetcher_ErrorKeepsItems(t *testing.T) {
	backend := &historyBackend{total: 25}
	fetcher := setupFetcher(t, backend)

	require.NoError(t, fetcher.LoadMore(context.Background()))
	require.Len(t, fetcher.Items(), 10)

	backend.failing.Store(true)
	err := fetcher.LoadMore(context.Background())

	require.Error(t, err)
	require.Len(t, fetcher.Items(), 10, "loaded items survive the failure")

	cursor := fetcher.Cursor()
	require.Equal(t, 10, cursor.Offset, "offset does not advance on failure")
	require.False(t, cursor.HasMore, "the scroll stops asking after a failure")

	// Exhausted by the error: LoadMore is now a no-op
	before := backend.calls.Load()
	require.NoError(t, fetcher.LoadMore(context.Background()))
	require.Equal(t, before, backend.calls.Load())
}

// TestFetcher_Reset tests starting over from page zero
func TestFetcher_Reset(t *testing.T) {
	backend := &historyBackend{total: 25}
	fetcher := setupFetcher(t, backend)

	require.NoError(t, fetcher.LoadMore(context.Background()))
	require.NoError(t, fetcher.LoadMore(context.Background()))
	require.Len(t, fetcher.Items(), 20)

	require.NoError(t, fetcher.Reset(context.Background()))

	cursor := fetcher.Cursor()
	require.Equal(t, 10, cursor.Offset)
	require.True(t, cursor.HasMore)
	require.Len(t, fetcher.Items(), 10)
}

// TestFetcher_ResetRecoversFromError tests that Reset clears the error latch
func TestFetcher_ResetRecoversFromError(t *testing.T) {
	backend := &historyBackend{total: 5}
	fetcher := setupFetcher(t, backend)

	backend.failing.Store(true)
	require.Error(t, fetcher.LoadMore(context.Background()))
	require.False(t, fetcher.Cursor().HasMore)

	backend.failing.Store(false)
	require.NoError(t, fetcher.Reset(context.Background()))
	require.Len(t, fetcher.Items(), 5)
	require.False(t, fetcher.Cursor().HasMore)
}

// TestFetcher_EmptyFeed tests a provider with nothing published
func TestFetcher_EmptyFeed(t *testing.T) {
	backend := &historyBackend{total: 0}
	fetcher := setupFetcher(t, backend)

	require.NoError(t, fetcher.LoadMore(context.Background()))

	cursor := fetcher.Cursor()
	require.Equal(t, 0, cursor.Offset)
	require.False(t, cursor.HasMore)
	require.Empty(t, fetcher.Items())
}

// TestFetcher_ResetDiscardsInFlightPage tests that a page load completing
// after a reset cannot append to the fresh list or move its cursor
func TestFetcher_ResetDiscardsInFlightPage(t *testing.T) {
	dataset := &historyBackend{total: 25}
	started := make(chan struct{})
	release := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Stall the second page until the test releases it.
		if r.URL.Query().Get("offset") == "10" {
			select {
			case started <- struct{}{}:
			default:
			}
			<-release
		}
		dataset.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	pipeline, err := client.NewPipeline(srv.URL)
	require.NoError(t, err)
	fetcher := client.NewHistoryFetcher(pipeline)

	require.NoError(t, fetcher.LoadMore(context.Background()))
	require.Len(t, fetcher.Items(), 10)

	done := make(chan error, 1)
	go func() {
		done <- fetcher.LoadMore(context.Background())
	}()
	<-started

	// Reset while the offset=10 page is still outstanding.
	require.NoError(t, fetcher.Reset(context.Background()))
	require.Len(t, fetcher.Items(), 10)

	close(release)
	require.NoError(t, <-done)

	// The stale page vanished: list and cursor reflect the reset only.
	require.Len(t, fetcher.Items(), 10)
	cursor := fetcher.Cursor()
	require.Equal(t, 10, cursor.Offset)
	require.True(t, cursor.HasMore)

	// And the fetcher keeps working from where the reset left it.
	require.NoError(t, fetcher.LoadMore(context.Background()))
	require.Len(t, fetcher.Items(), 20)
	require.Equal(t, 20, fetcher.Cursor().Offset)
}

// TestFetcher_ItemsReturnsCopy tests that callers cannot mutate internal state
func TestFetcher_ItemsReturnsCopy(t *testing.T) {
	backend := &historyBackend{total: 2}
	fetcher := setupFetcher(t, backend, client.WithPageLimit(2))

	require.NoError(t, fetcher.LoadMore(context.Background()))

	items := fetcher.Items()
	items[0].ID = "mutated"
	require.NotEqual(t, "mutated", fetcher.Items()[0].ID)
}
