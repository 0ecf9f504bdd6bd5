package portal

import (
	"errors"

	"github.com/syntaxclub/go-portal/transport"
)

// ErrNotAuthenticated is the error we return when an action needs a live
// session and there is none.
var ErrNotAuthenticated = errors.New("no authenticated session")

// ErrUnknownRole is the error for tokens whose role claim is not one we know
var ErrUnknownRole = errors.New("token carries an unknown role")

// IsSessionExpired will check for the expired-session error the token
// refresh flow emits.
func IsSessionExpired(err error) bool {
	return transport.IsAuthExpired(err)
}

// IsNotFound will check for a missing-resource error.
func IsNotFound(err error) bool {
	return transport.IsNotFound(err)
}

// IsValidationError will check for a rejected payload.
func IsValidationError(err error) bool {
	return transport.IsValidation(err)
}
