package lottery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/lotterylot/portal/internal/config"
	"github.com/lotterylot/portal/internal/errors"
	"github.com/rs/zerolog"
)

// Provider is the HTTP client for the upstream lottery-data API. The
// upstream is consumed as a black box; its only contract here is the
// three endpoints below and the {total, limit, offset, items} page shape.
type Provider struct {
	baseURL string
	httpc   *http.Client
	log     zerolog.Logger
}

// ProviderOption defines a function type to modify the Provider instance.
type ProviderOption func(*Provider)

// WithProviderLogger sets the provider logger.
func WithProviderLogger(log zerolog.Logger) ProviderOption {
	return func(p *Provider) {
		p.log = log
	}
}

// WithHTTPClient overrides the underlying HTTP client (tests).
func WithHTTPClient(httpc *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpc = httpc
	}
}

// NewProvider creates an upstream client with the configured base URL
// and a bounded request timeout.
func NewProvider(cfg config.UpstreamConfig, options ...ProviderOption) *Provider {
	p := &Provider{
		baseURL: strings.TrimRight(cfg.GetLotteryAPIURL(), "/"),
		httpc:   &http.Client{Timeout: cfg.GetLotteryAPITimeout()},
		log:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Latest fetches the most recently published draw.
func (p *Provider) Latest(ctx context.Context) (*Result, error) {
	var result Result
	if err := p.getJSON(ctx, "/latest", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ByDate fetches the draw published on the given YYYY-MM-DD date.
// Returns ErrNotFound when no draw exists for that date.
func (p *Provider) ByDate(ctx context.Context, date string) (*Result, error) {
	var result Result
	if err := p.getJSON(ctx, fmt.Sprintf("/by-date?date=%s", date), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// History fetches one page of the draw history feed. Returns
// ErrNotFound when the requested window is beyond the published
// results; callers decide whether that is an empty page or an error.
func (p *Provider) History(ctx context.Context, limit, offset int) (*HistoryPage, error) {
	var page HistoryPage
	if err := p.getJSON(ctx, fmt.Sprintf("/history?limit=%d&offset=%d", limit, offset), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (p *Provider) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return errors.Wrapf(err, "[Provider] build request %s", path)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpc.Do(req)
	if err != nil {
		// Timeouts and transport errors are generic failures, never a 401.
		return errors.Wrapf(err, "[Provider] GET %s", path)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		p.log.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("upstream lottery API error")
		return errors.Wrapf(errors.ErrUpstream, "[Provider] GET %s: status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(errors.ErrUpstream, "[Provider] decode %s: %v", path, err)
	}
	return nil
}
