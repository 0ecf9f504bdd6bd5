// Package tokenstore owns the persisted access-token bundle. The refresh
// token never passes through here; it lives in an HTTP-only cookie managed
// by the server. Absence of the slot is the definition of a logged-out
// client.
package tokenstore

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/golang-jwt/jwt/v5"

	"github.com/syntaxclub/go-portal/storage"
)

// SlotKey is the storage slot the bundle serializes into.
const SlotKey = "auth.session"

// Bundle is the persisted record. Earlier revisions also carried a
// refreshToken field; refresh is cookie-bound now, so only the access token
// survives serialization.
type Bundle struct {
	AccessToken string `json:"accessToken"`
}

// Claims is the decoded JWT payload the client cares about. Tokens are
// decoded opaquely: no signature verification happens on the client.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
	UID  string `json:"uid,omitempty"`
}

// UserID prefers the uid claim and falls back to the registered subject.
func (c *Claims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject
}

// ExpiresAtTime returns the exp claim, or the zero time when absent.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	return time.Time{}
}

// Decode parses a token without verifying its signature. It returns nil for
// anything that is not a well-formed JWT; it never panics.
func Decode(token string) *Claims {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	return claims
}

// IsExpired reports whether the token is unusable at the given instant: it
// is malformed, carries no exp, or its exp is at or before now. Comparison
// is at second granularity, matching the claim encoding.
func IsExpired(token string, now time.Time) bool {
	claims := Decode(token)
	if claims == nil || claims.ExpiresAt == nil {
		return true
	}
	return claims.ExpiresAt.Unix() <= now.Unix()
}

// Store serializes the bundle into one storage slot.
type Store struct {
	storage storage.Storage
	key     string
	now     func() time.Time
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithSlotKey overrides the storage slot name.
func WithSlotKey(key string) StoreOption {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithClock injects a time source (useful for tests).
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore builds a Store on the given storage backend.
func NewStore(st storage.Storage, opts ...StoreOption) *Store {
	s := &Store{storage: st, key: SlotKey, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Set persists the bundle. The bundle is serialized in full before any
// write happens, so the slot is never left half-written.
func (s *Store) Set(ctx context.Context, bundle Bundle) error {
	if strings.TrimSpace(bundle.AccessToken) == "" {
		return errors.New("access token must not be empty", errors.CategoryBadInput).
			WithTextCode("token_empty").
			WithCode(errors.CodeBadRequest)
	}

	raw, err := json.Marshal(bundle)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to encode token bundle")
	}
	return s.storage.Set(ctx, s.key, string(raw))
}

// SetToken coerces a bare token string into a bundle and persists it.
func (s *Store) SetToken(ctx context.Context, token string) error {
	return s.Set(ctx, Bundle{AccessToken: token})
}

// Get returns the persisted bundle, or nil when the slot is empty. A legacy
// raw-string slot (the token persisted without JSON framing) round-trips as
// a bundle.
func (s *Store) Get(ctx context.Context) (*Bundle, error) {
	raw, err := s.storage.Get(ctx, s.key)
	if storage.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	bundle := &Bundle{}
	if err := json.Unmarshal([]byte(raw), bundle); err != nil {
		// legacy slots held the token itself
		return &Bundle{AccessToken: raw}, nil
	}
	if bundle.AccessToken == "" {
		return nil, nil
	}
	return bundle, nil
}

// AccessToken returns the stored token when one exists.
func (s *Store) AccessToken(ctx context.Context) (string, bool) {
	bundle, err := s.Get(ctx)
	if err != nil || bundle == nil {
		return "", false
	}
	return bundle.AccessToken, true
}

// Clear removes the slot. Clearing an empty slot is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	return s.storage.Delete(ctx, s.key)
}

// Valid reports whether the slot holds a token that decodes and has not
// expired.
func (s *Store) Valid(ctx context.Context) bool {
	token, ok := s.AccessToken(ctx)
	if !ok {
		return false
	}
	return !IsExpired(token, s.now())
}

// Claims decodes the stored token, or returns nil when the slot is empty or
// malformed.
func (s *Store) Claims(ctx context.Context) *Claims {
	token, ok := s.AccessToken(ctx)
	if !ok {
		return nil
	}
	return Decode(token)
}
