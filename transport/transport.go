// Package transport implements the two HTTP clients every portal service is
// built on: a public client for unauthenticated endpoints and an
// authenticated client that attaches the stored bearer token and
// transparently replays requests after a single-flight token refresh.
//
// Both clients share one cookie jar so the HTTP-only refresh cookie set at
// login rides along on refresh calls.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/syntaxclub/go-portal/tokenstore"
)

const (
	// DefaultTimeout bounds every request issued through the clients.
	DefaultTimeout = 10 * time.Second

	// DefaultRefreshPath is the endpoint the authenticated client posts to
	// when a request comes back 401.
	DefaultRefreshPath = "/api/v1/auth/refresh"

	defaultUserAgent = "syntaxclub-go-portal/1.0"
)

// Clients bundles the public and authenticated clients. Both point at the
// same base URL and share one underlying http.Client.
type Clients struct {
	Public *Client
	Auth   *Client
}

// OnSessionExpired registers the hook fired when a token refresh fails and
// the session slot is cleared. The session layer uses it to drop to the
// anonymous state.
func (c *Clients) OnSessionExpired(fn func()) {
	if c.Auth != nil && c.Auth.refresher != nil {
		c.Auth.refresher.onExpired(fn)
	}
}

// Client issues requests against the portal API. The zero value is not
// usable; build instances through New.
type Client struct {
	base      string
	http      *http.Client
	userAgent string
	tokens    *tokenstore.Store
	refresher *refresher
}

type config struct {
	baseURL     string
	userAgent   string
	timeout     time.Duration
	refreshPath string
	httpClient  *http.Client
	tokens      *tokenstore.Store
}

// Option configures New.
type Option func(*config)

// WithBaseURL points the clients at an API origin.
func WithBaseURL(baseURL string) Option {
	return func(c *config) {
		c.baseURL = baseURL
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *config) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRefreshPath overrides the token refresh endpoint.
func WithRefreshPath(path string) Option {
	return func(c *config) {
		if path != "" {
			c.refreshPath = path
		}
	}
}

// WithHTTPClient injects the underlying http.Client. A cookie jar is
// installed when the injected client has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTokenStore wires the persisted token slot. Required.
func WithTokenStore(tokens *tokenstore.Store) Option {
	return func(c *config) {
		c.tokens = tokens
	}
}

// New builds the public/authenticated client pair.
func New(opts ...Option) (*Clients, error) {
	cfg := &config{
		userAgent:   defaultUserAgent,
		timeout:     DefaultTimeout,
		refreshPath: DefaultRefreshPath,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	if cfg.tokens == nil {
		return nil, errors.New("a token store is required", errors.CategoryBadInput).
			WithTextCode("token_store_required")
	}

	base, err := url.Parse(cfg.baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errors.New("a valid base URL is required", errors.CategoryBadInput).
			WithTextCode("base_url_invalid").
			WithMetadata(map[string]any{"base_url": cfg.baseURL})
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}
	if hc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create cookie jar")
		}
		hc.Jar = jar
	}

	baseURL := strings.TrimSuffix(base.String(), "/")

	public := &Client{
		base:      baseURL,
		http:      hc,
		userAgent: cfg.userAgent,
	}
	auth := &Client{
		base:      baseURL,
		http:      hc,
		userAgent: cfg.userAgent,
		tokens:    cfg.tokens,
	}
	auth.refresher = newRefresher(public, cfg.tokens, cfg.refreshPath)

	return &Clients{Public: public, Auth: auth}, nil
}

// BaseURL returns the origin the client targets.
func (c *Client) BaseURL() string {
	return c.base
}

// Do issues the request and decodes the response payload into out. When the
// response carries the {status, message, data} envelope, data is decoded;
// otherwise the whole body is. A 204 or empty body decodes as a positive
// acknowledgment. Pass a nil out to discard the payload.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	res, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	return decodePayload(res, out)
}

// DoBytes issues the request and returns the raw response body. Error
// responses are still mapped through the error taxonomy. List endpoints use
// this together with the paginate package, and exports use it for
// non-JSON payloads.
func (c *Client) DoBytes(ctx context.Context, req Request) ([]byte, error) {
	res, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.body, nil
}

type response struct {
	status int
	header http.Header
	body   []byte
}

// send performs the request, replaying it once after a successful token
// refresh when the first attempt comes back 401.
func (c *Client) send(ctx context.Context, req Request) (*response, error) {
	res, err := c.roundTrip(ctx, req)
	if err != nil {
		return nil, err
	}

	if res.status == http.StatusUnauthorized && c.refresher != nil && req.Path != c.refresher.path {
		token, refreshErr := c.refresher.refresh(ctx)
		if refreshErr != nil {
			return nil, refreshErr
		}

		res, err = c.roundTrip(ctx, req, withBearer(token))
		if err != nil {
			return nil, err
		}
	}

	if res.status >= http.StatusBadRequest {
		return nil, apiError(req, res.status, res.body)
	}
	return res, nil
}

type attemptOption func(*attempt)

type attempt struct {
	bearer string
}

// withBearer pins the retry to the token the refresh produced rather than
// re-reading the slot.
func withBearer(token string) attemptOption {
	return func(a *attempt) {
		a.bearer = token
	}
}

func (c *Client) roundTrip(ctx context.Context, req Request, opts ...attemptOption) (*response, error) {
	att := &attempt{}
	for _, opt := range opts {
		opt(att)
	}

	var (
		body        io.Reader
		contentType string
	)
	if req.Body != nil {
		var err error
		body, contentType, err = req.Body.build()
		if err != nil {
			return nil, err
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.endpoint(req.Path, req.Query), body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to build request")
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	bearer := att.bearer
	if bearer == "" && c.tokens != nil {
		if token, ok := c.tokens.AccessToken(ctx); ok {
			bearer = token
		}
	}
	if bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+bearer)
	}

	httpRes, err := c.http.Do(httpReq)
	if err != nil {
		return nil, transportError(req, err)
	}
	defer httpRes.Body.Close()

	payload, err := io.ReadAll(httpRes.Body)
	if err != nil {
		return nil, transportError(req, err)
	}

	return &response{
		status: httpRes.StatusCode,
		header: httpRes.Header,
		body:   payload,
	}, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	endpoint := c.base + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return endpoint
}

// envelope is the {status, message, data} wrapper most handlers answer
// with. Older handlers answer with the payload bare; decodePayload handles
// both.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodePayload(res *response, out any) error {
	if out == nil {
		return nil
	}

	body := bytes.TrimSpace(res.body)
	if res.status == http.StatusNoContent || len(body) == 0 {
		body = []byte(`{"success":true}`)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err == nil {
		if data := bytes.TrimSpace(env.Data); len(data) > 0 && !bytes.Equal(data, []byte("null")) {
			if err := json.Unmarshal(data, out); err != nil {
				return errors.Wrap(err, errors.CategoryInternal, "unexpected response payload").
					WithTextCode(TextCodeServerError)
			}
			return nil
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "unexpected response payload").
			WithTextCode(TextCodeServerError)
	}
	return nil
}
