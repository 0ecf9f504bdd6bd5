// Package query is a read-through cache for the portal services. Reads
// inside the freshness window are served from memory; stale reads are
// served immediately while a background revalidation refreshes them.
// Concurrent fetches for one key collapse into a single call.
package query

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/hashid/pkg/hashid"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is the freshness window for cached reads.
const DefaultTTL = 60 * time.Second

// revalidateTimeout bounds background refreshes, which run detached
// from the caller's context.
const revalidateTimeout = 30 * time.Second

// Key identifies one cached read by resource, optional id and optional
// list parameters.
type Key struct {
	Resource string
	ID       string
	Params   url.Values
}

// ListKey builds a key for a collection read.
func ListKey(resource string, params url.Values) Key {
	return Key{Resource: resource, Params: params}
}

// DetailKey builds a key for a single resource read.
func DetailKey(resource, id string) Key {
	return Key{Resource: resource, ID: id}
}

// canonical renders the deterministic text form of the key. Encode
// sorts parameters by name, so equal params always render equally.
func (k Key) canonical() string {
	var b strings.Builder
	b.WriteString(k.Resource)
	b.WriteByte('|')
	b.WriteString(k.ID)
	if len(k.Params) > 0 {
		b.WriteByte('|')
		b.WriteString(k.Params.Encode())
	}
	return b.String()
}

// hash derives the stable cache key from the canonical form.
func (k Key) hash() string {
	if id, err := hashid.NewUUID(k.canonical()); err == nil {
		return id.String()
	}
	return k.canonical()
}

// Notifier receives the user-facing outcome of mutations.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}

type entry struct {
	resource  string
	value     any
	fetchedAt time.Time
}

// Client is the cache. The zero value is not usable; build one with
// New.
type Client struct {
	ttl      time.Duration
	now      func() time.Time
	notifier Notifier

	mu      sync.Mutex
	entries map[string]entry
	group   singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithTTL overrides the freshness window.
func WithTTL(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithNotifier routes mutation outcomes to the given notifier.
func WithNotifier(n Notifier) Option {
	return func(c *Client) {
		if n != nil {
			c.notifier = n
		}
	}
}

// New returns an empty cache.
func New(opts ...Option) *Client {
	c := &Client{
		ttl:      DefaultTTL,
		now:      time.Now,
		notifier: nopNotifier{},
		entries:  map[string]entry{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the cached value for key or loads it with fetch.
// Fresh hits never call fetch. Stale hits return the cached value and
// refresh in the background. Misses load inline, retrying once on
// failure, with concurrent callers sharing one load.
func Fetch[T any](ctx context.Context, c *Client, key Key, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	k := key.hash()

	c.mu.Lock()
	e, ok := c.entries[k]
	age := c.now().Sub(e.fetchedAt)
	c.mu.Unlock()

	if ok {
		if cached, valid := e.value.(T); valid {
			if age < c.ttl {
				return cached, nil
			}
			revalidate(c, key, k, fetch)
			return cached, nil
		}
	}

	v, err, _ := c.group.Do(k, func() (any, error) {
		return fetchWithRetry(ctx, fetch)
	})
	if err != nil {
		return zero, err
	}

	value, valid := v.(T)
	if !valid {
		// another caller loaded this key with a different type; load
		// ours without caching over theirs
		return fetchWithRetry(ctx, fetch)
	}
	c.store(k, key.Resource, value)
	return value, nil
}

// Mutation is a write paired with the cache entries it invalidates and
// the toast messages it produces.
type Mutation[T any] struct {
	Run func(context.Context) (T, error)

	// Keys and Resources name the cache entries dropped on success.
	Keys      []Key
	Resources []string

	// SuccessText is shown on success when non-empty. On failure the
	// error text is shown, or ErrorText when set.
	SuccessText string
	ErrorText   string
}

// Mutate runs a write, invalidates the listed entries on success and
// notifies either way.
func Mutate[T any](ctx context.Context, c *Client, m Mutation[T]) (T, error) {
	value, err := m.Run(ctx)
	if err != nil {
		text := m.ErrorText
		if text == "" {
			text = err.Error()
		}
		c.notifier.Error(text)
		return value, err
	}

	for _, resource := range m.Resources {
		c.InvalidateResource(resource)
	}
	c.Invalidate(m.Keys...)

	if m.SuccessText != "" {
		c.notifier.Success(m.SuccessText)
	}
	return value, nil
}

// Invalidate drops the given keys.
func (c *Client) Invalidate(keys ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key.hash())
	}
}

// InvalidateResource drops every cached read of one resource.
func (c *Client) InvalidateResource(resource string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if e.resource == resource {
			delete(c.entries, k)
		}
	}
}

// Clear drops everything.
func (c *Client) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]entry{}
}

func (c *Client) store(hash, resource string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[hash] = entry{
		resource:  resource,
		value:     value,
		fetchedAt: c.now(),
	}
}

func revalidate[T any](c *Client, key Key, hash string, fetch func(context.Context) (T, error)) {
	go func() {
		v, err, _ := c.group.Do(hash, func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), revalidateTimeout)
			defer cancel()
			return fetchWithRetry(ctx, fetch)
		})
		if err != nil {
			// keep serving stale; the next read retries
			return
		}
		if value, ok := v.(T); ok {
			c.store(hash, key.Resource, value)
		}
	}()
}

// fetchWithRetry calls fetch, retrying exactly once on failure unless
// the context is already done.
func fetchWithRetry[T any](ctx context.Context, fetch func(context.Context) (T, error)) (T, error) {
	value, err := fetch(ctx)
	if err == nil {
		return value, nil
	}
	if ctx.Err() != nil {
		return value, err
	}
	return fetch(ctx)
}
