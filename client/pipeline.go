// Package client is the portal's Go client: an authenticated request
// pipeline with silent refresh, a route guard and an infinite-scroll
// fetcher for the result grid.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/lotterylot/portal/internal/errors"
	"github.com/rs/zerolog"
)

const defaultTimeout = 10 * time.Second

// Pipeline makes every protected call look like a plain request to its
// caller while hiding the refresh dance. A 401 on a non-auth endpoint
// triggers one silent refresh and one replay; a second 401 means the
// session is unrecoverable.
type Pipeline struct {
	baseURL          string
	httpc            *http.Client
	tokens           *TokenStore
	onSessionExpired func()
	log              zerolog.Logger
}

// PipelineOption defines a function type to modify the Pipeline instance.
type PipelineOption func(*Pipeline)

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) PipelineOption {
	return func(p *Pipeline) {
		p.httpc.Timeout = timeout
	}
}

// WithSessionExpiredHook registers the redirect-to-login hook invoked
// when a session turns out to be unrecoverable.
func WithSessionExpiredHook(hook func()) PipelineOption {
	return func(p *Pipeline) {
		p.onSessionExpired = hook
	}
}

// WithTokenStore shares an externally owned token store.
func WithTokenStore(tokens *TokenStore) PipelineOption {
	return func(p *Pipeline) {
		p.tokens = tokens
	}
}

// WithPipelineLogger sets the pipeline logger.
func WithPipelineLogger(log zerolog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.log = log
	}
}

// NewPipeline creates a pipeline against the portal base URL. The
// underlying client carries a cookie jar so the refresh cookie flows
// without the caller ever seeing it.
func NewPipeline(baseURL string, options ...PipelineOption) (*Pipeline, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrapf(err, "[NewPipeline] cookie jar")
	}

	p := &Pipeline{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: defaultTimeout, Jar: jar},
		tokens:  NewTokenStore(),
		log:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(p)
	}
	return p, nil
}

// Tokens returns the pipeline's token store.
func (p *Pipeline) Tokens() *TokenStore {
	return p.tokens
}

// request is an explicit descriptor for one logical call. The retry
// state travels here instead of being flagged onto a shared object.
type request struct {
	method  string
	path    string
	body    []byte
	attempt int // 0 on first send, 1 on the post-refresh replay
}

// Get issues an authenticated GET and decodes the response into out.
func (p *Pipeline) Get(ctx context.Context, path string, out any) error {
	return p.do(ctx, request{method: http.MethodGet, path: path}, out)
}

// Post issues an authenticated POST. The body is marshalled once so a
// replay after refresh is byte-identical.
func (p *Pipeline) Post(ctx context.Context, path string, body, out any) error {
	var raw []byte
	if body != nil {
		var err error
		if raw, err = json.Marshal(body); err != nil {
			return errors.Wrapf(err, "[Pipeline Post] marshal body")
		}
	}
	return p.do(ctx, request{method: http.MethodPost, path: path, body: raw}, out)
}

func (p *Pipeline) do(ctx context.Context, r request, out any) error {
	status, payload, err := p.send(ctx, r.method, r.path, r.body, p.tokens.Get())
	if err != nil {
		return err
	}

	if status >= 200 && status < 300 {
		if out == nil || len(payload) == 0 {
			return nil
		}
		if err := json.Unmarshal(payload, out); err != nil {
			return errors.Wrapf(err, "[Pipeline] decode %s", r.path)
		}
		return nil
	}

	if status == http.StatusUnauthorized {
		// Never run the refresh dance against the auth endpoints
		// themselves: a 401 there is terminal.
		if isAuthEndpoint(r.path) {
			return normalizeError(status, payload)
		}
		if r.attempt > 0 {
			p.expireSession()
			return normalizeError(status, payload)
		}

		accessToken, err := p.refresh(ctx)
		if err != nil {
			p.log.Debug().Err(err).Msg("refresh failed, session unrecoverable")
			p.expireSession()
			return err
		}
		p.tokens.Set(accessToken)

		r.attempt++
		return p.do(ctx, r, out)
	}

	return normalizeError(status, payload)
}

// refresh mints a new access token from the refresh cookie. It runs on
// the same client (for the jar) but bypasses the interceptor logic.
func (p *Pipeline) refresh(ctx context.Context) (string, error) {
	status, payload, err := p.send(ctx, http.MethodPost, RefreshPath, nil, "")
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", normalizeError(status, payload)
	}

	var resp RefreshResponse
	if err := json.Unmarshal(payload, &resp); err != nil || !resp.Success || resp.AccessToken == "" {
		return "", &APIError{Status: status, Message: "Failed to refresh token"}
	}
	return resp.AccessToken, nil
}

func (p *Pipeline) send(ctx context.Context, method, path string, body []byte, bearer string) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "[Pipeline] build %s %s", method, path)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := p.httpc.Do(req)
	if err != nil {
		// Transport errors and timeouts are generic failures, not 401s.
		return 0, nil, errors.Wrapf(err, "[Pipeline] %s %s", method, path)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "[Pipeline] read %s %s", method, path)
	}
	return resp.StatusCode, payload, nil
}

func (p *Pipeline) expireSession() {
	p.tokens.Clear()
	if p.onSessionExpired != nil {
		p.onSessionExpired()
	}
}

// Endpoint paths the pipeline knows about.
const (
	LoginPath   = "/auth/login"
	LogoutPath  = "/auth/logout"
	RefreshPath = "/refresh"
	MePath      = "/me"
)

func isAuthEndpoint(path string) bool {
	return strings.HasPrefix(path, LoginPath) ||
		strings.HasPrefix(path, LogoutPath) ||
		strings.HasPrefix(path, RefreshPath) ||
		path == "/auth"
}

// normalizeError extracts the server-provided message from an error
// body, falling back to a generic message.
func normalizeError(status int, payload []byte) error {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(payload, &body)

	message := body.Error
	if message == "" {
		message = body.Message
	}
	if message == "" {
		message = "Request failed"
	}
	return &APIError{Status: status, Message: message}
}

// Login authenticates and stores the returned access token. The
// refresh token lands in the cookie jar, invisible to the caller.
func (p *Pipeline) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	body := map[string]string{"username": username, "password": password}
	var resp LoginResponse
	if err := p.Post(ctx, LoginPath, body, &resp); err != nil {
		return nil, err
	}
	p.tokens.Set(resp.AccessToken)
	return &resp, nil
}

// Logout clears the server-side cookie and the local token. Idempotent.
func (p *Pipeline) Logout(ctx context.Context) error {
	err := p.Post(ctx, LogoutPath, nil, nil)
	p.tokens.Clear()
	return err
}
