package transport

import (
	"context"
	"sync"

	"github.com/goliatone/go-errors"

	"github.com/syntaxclub/go-portal/tokenstore"
)

type refreshResult struct {
	token string
	err   error
}

// refresher rotates the access token through the refresh endpoint. However
// many requests come back 401 at once, at most one refresh call is in
// flight; the rest queue up and are resolved in arrival order with the
// single outcome.
type refresher struct {
	public *Client
	tokens *tokenstore.Store
	path   string

	mu       sync.Mutex
	inflight bool
	waiters  []chan refreshResult
	expired  func()
}

func newRefresher(public *Client, tokens *tokenstore.Store, path string) *refresher {
	return &refresher{
		public: public,
		tokens: tokens,
		path:   path,
	}
}

// onExpired registers the session-expired hook.
func (r *refresher) onExpired(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expired = fn
}

// refresh returns the rotated access token. The caller that finds no
// refresh in flight starts one; everyone else joins the queue. A caller
// whose context ends while waiting detaches without disturbing the refresh
// or the other waiters.
func (r *refresher) refresh(ctx context.Context) (string, error) {
	r.mu.Lock()
	start := !r.inflight
	r.inflight = true

	ch := make(chan refreshResult, 1)
	r.waiters = append(r.waiters, ch)
	r.mu.Unlock()

	if start {
		// the exchange outlives any single caller; waiters other than the
		// one that started it still need the outcome
		go r.run(context.WithoutCancel(ctx))
	}

	select {
	case res := <-ch:
		return res.token, res.err
	case <-ctx.Done():
		return "", transportError(Request{Path: r.path}, ctx.Err())
	}
}

func (r *refresher) run(ctx context.Context) {
	token, err := r.exchange(ctx)

	r.mu.Lock()
	r.inflight = false
	waiters := r.waiters
	r.waiters = nil
	r.mu.Unlock()

	for _, ch := range waiters {
		ch <- refreshResult{token: token, err: err}
	}
}

// exchange performs the refresh call. The HTTP-only refresh cookie in the
// shared jar authenticates it; no bearer token is attached. Success stores
// the rotated token; any failure clears the slot and fires the
// session-expired hook.
func (r *refresher) exchange(ctx context.Context) (string, error) {
	var payload struct {
		AccessToken string `json:"accessToken"`
		Token       string `json:"token"`
	}

	req := Request{
		Method:   "POST",
		Path:     r.path,
		Fallback: "your session has expired",
	}
	if err := r.public.Do(ctx, req, &payload); err != nil {
		return "", r.fail(ctx, err)
	}

	token := payload.AccessToken
	if token == "" {
		token = payload.Token
	}
	if token == "" {
		return "", r.fail(ctx, errors.New("refresh response carried no access token", errors.CategoryAuth))
	}

	if err := r.tokens.SetToken(ctx, token); err != nil {
		return "", r.fail(ctx, err)
	}
	return token, nil
}

func (r *refresher) fail(ctx context.Context, cause error) error {
	_ = r.tokens.Clear(ctx)
	r.notifyExpired()

	if IsAuthExpired(cause) {
		return cause
	}
	return errors.Wrap(cause, errors.CategoryAuth, "session refresh failed").
		WithTextCode(TextCodeSessionExpired).
		WithCode(errors.CodeUnauthorized)
}

func (r *refresher) notifyExpired() {
	r.mu.Lock()
	fn := r.expired
	r.mu.Unlock()

	if fn != nil {
		fn()
	}
}
