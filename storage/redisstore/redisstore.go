// Package redisstore backs storage.Storage with Redis for deployments that
// run the SDK server-side (bots, SSR tiers) and want the session slot shared
// across processes.
package redisstore

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"

	"github.com/syntaxclub/go-portal/storage"
)

// Store adapts a redis client to the storage.Storage contract. Keys are
// namespaced with a configurable prefix; a zero TTL keeps slots until
// deleted.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Option customizes a Store.
type Option func(*Store)

// WithPrefix namespaces every slot key. Defaults to "portal:".
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithTTL bounds slot lifetime. Zero (the default) disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// New wraps an existing redis client.
func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{client: client, prefix: "portal:"}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if err == redis.Nil {
		return "", storage.ErrKeyNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "redis storage read failed")
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "redis storage write failed")
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "redis storage delete failed")
	}
	return nil
}

var _ storage.Storage = (*Store)(nil)
