package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/lotterylot/portal/lottery"
)

// HistoryDefaultLimit is the page size used when none is configured.
const HistoryDefaultLimit = 10

// HistoryPath is the paginated result-history endpoint.
const HistoryPath = "/lottery/history"

// Cursor is the fetcher's pagination position. After every successful
// page load, hasMore is exactly offset < total.
type Cursor struct {
	Limit   int
	Offset  int
	Total   int
	HasMore bool
}

// ResultItem is one draw result with its derived display identity. The
// provider supplies no primary key, so the stable id is drawDate-drawCode.
type ResultItem struct {
	ID string
	lottery.Result
}

// HistoryFetcher accumulates draw results page by page for an
// infinite-scroll result grid. Loads are sequential: while one page is
// in flight further LoadMore calls are no-ops.
type HistoryFetcher struct {
	pipeline *Pipeline
	limit    int

	mu       sync.Mutex
	inFlight bool
	gen      int // bumped by Reset; stale page loads are discarded
	cursor   Cursor
	items    []ResultItem
}

// FetcherOption defines a function type to modify the HistoryFetcher instance.
type FetcherOption func(*HistoryFetcher)

// WithPageLimit overrides the page size.
func WithPageLimit(limit int) FetcherOption {
	return func(f *HistoryFetcher) {
		if limit > 0 {
			f.limit = limit
		}
	}
}

func NewHistoryFetcher(pipeline *Pipeline, options ...FetcherOption) *HistoryFetcher {
	f := &HistoryFetcher{
		pipeline: pipeline,
		limit:    HistoryDefaultLimit,
	}
	for _, opt := range options {
		opt(f)
	}
	f.cursor = Cursor{Limit: f.limit, HasMore: true}
	return f
}

// Items returns a copy of everything loaded so far, newest first as the
// server delivers it.
func (f *HistoryFetcher) Items() []ResultItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ResultItem, len(f.items))
	copy(out, f.items)
	return out
}

// Cursor returns the current pagination position.
func (f *HistoryFetcher) Cursor() Cursor {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cursor
}

// LoadMore fetches the next page and appends it. It is a no-op when a
// load is already in flight or the feed is exhausted. On error the
// already-loaded items stay visible and hasMore turns false so the
// scroll stops asking; Reset starts over.
func (f *HistoryFetcher) LoadMore(ctx context.Context) error {
	f.mu.Lock()
	if f.inFlight || !f.cursor.HasMore {
		f.mu.Unlock()
		return nil
	}
	f.inFlight = true
	gen := f.gen
	offset := f.cursor.Offset
	f.mu.Unlock()

	page, err := f.fetchPage(ctx, f.limit, offset)

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.gen {
		// Reset ran while this page was in flight; the result belongs
		// to a cursor that no longer exists.
		return nil
	}
	f.inFlight = false
	if err != nil {
		f.cursor.HasMore = false
		return err
	}

	for _, result := range page.Items {
		f.items = append(f.items, ResultItem{ID: result.Key(), Result: result})
	}
	// The offset advances by what actually arrived, not by the page
	// size, so a short page never skips rows.
	f.cursor.Offset = page.Offset + len(page.Items)
	f.cursor.Total = page.Total
	f.cursor.HasMore = f.cursor.Offset < page.Total
	return nil
}

// Reset discards everything loaded and fetches the first page again.
// A page load still in flight when Reset runs completes into the old
// generation and is dropped.
func (f *HistoryFetcher) Reset(ctx context.Context) error {
	f.mu.Lock()
	f.gen++
	f.items = nil
	f.cursor = Cursor{Limit: f.limit, HasMore: true}
	f.inFlight = false
	f.mu.Unlock()
	return f.LoadMore(ctx)
}

func (f *HistoryFetcher) fetchPage(ctx context.Context, limit, offset int) (*lottery.HistoryPage, error) {
	path := fmt.Sprintf("%s?limit=%d&offset=%d", HistoryPath, limit, offset)
	var resp HistoryResponse
	if err := f.pipeline.Get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
