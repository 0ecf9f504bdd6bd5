// Package storage provides the durable key-value slots the SDK persists
// client state into: the session token bundle, the contact-form draft, and
// similar single-value affordances. Implementations must be safe for
// concurrent use.
package storage

import (
	"context"

	"github.com/goliatone/go-errors"
)

// ErrKeyNotFound is returned by Get when the slot has never been written
// or has been deleted.
var ErrKeyNotFound = errors.New("storage key not found", errors.CategoryNotFound).
	WithTextCode("storage_key_not_found").
	WithCode(errors.CodeNotFound)

// Storage is a minimal named-slot store. Values are opaque strings; callers
// own serialization. Delete on a missing key is a no-op.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// IsNotFound reports whether err indicates a missing slot.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrKeyNotFound) || errors.IsNotFound(err)
}
