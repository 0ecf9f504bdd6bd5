package transport

import (
	"encoding/json"
	"net/http"

	"github.com/goliatone/go-errors"
)

// Text codes attached to mapped API errors. Callers branch on these rather
// than on HTTP status codes.
const (
	TextCodeSessionExpired   = "session_expired"
	TextCodeAccessDenied     = "access_denied"
	TextCodeNotFound         = "not_found"
	TextCodeConflict         = "conflict"
	TextCodeValidationFailed = "validation_failed"
	TextCodeRateLimited      = "rate_limited"
	TextCodeServerError      = "server_error"
	TextCodeTransportFailed  = "transport_failed"
	TextCodeRequestFailed    = "request_failed"
)

// errorBody covers the error payload spellings handlers use.
type errorBody struct {
	Message string         `json:"message"`
	Error   string         `json:"error"`
	Errors  map[string]any `json:"errors"`
}

func (b errorBody) message() string {
	if b.Message != "" {
		return b.Message
	}
	return b.Error
}

// apiError maps an HTTP failure to the client error taxonomy. Message
// precedence: server-provided message, then the request's fallback, then a
// generic per-status text.
func apiError(req Request, status int, body []byte) *errors.Error {
	var parsed errorBody
	_ = json.Unmarshal(body, &parsed)

	message := parsed.message()
	if message == "" {
		message = req.Fallback
	}

	meta := map[string]any{
		"status_code": status,
		"method":      req.Method,
		"path":        req.Path,
	}

	var err *errors.Error
	switch {
	case status == http.StatusUnauthorized:
		err = errors.New(orDefault(message, "your session has expired"), errors.CategoryAuth).
			WithTextCode(TextCodeSessionExpired).
			WithCode(errors.CodeUnauthorized)
	case status == http.StatusForbidden:
		err = errors.New(orDefault(message, "you do not have access to this resource"), errors.CategoryAuthz).
			WithTextCode(TextCodeAccessDenied).
			WithCode(errors.CodeForbidden)
	case status == http.StatusNotFound:
		err = errors.New(orDefault(message, "resource not found"), errors.CategoryNotFound).
			WithTextCode(TextCodeNotFound).
			WithCode(errors.CodeNotFound)
	case status == http.StatusConflict:
		err = errors.New(orDefault(message, "resource already exists"), errors.CategoryConflict).
			WithTextCode(TextCodeConflict).
			WithCode(errors.CodeConflict)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		err = errors.New(orDefault(message, "request validation failed"), errors.CategoryValidation).
			WithTextCode(TextCodeValidationFailed).
			WithCode(errors.CodeBadRequest)
		if len(parsed.Errors) > 0 {
			meta["fields"] = parsed.Errors
		}
	case status == http.StatusTooManyRequests:
		err = errors.New(orDefault(message, "too many requests, slow down"), errors.CategoryRateLimit).
			WithTextCode(TextCodeRateLimited).
			WithCode(http.StatusTooManyRequests)
	case status >= http.StatusInternalServerError:
		err = errors.New(orDefault(message, "something went wrong on the server"), errors.CategoryInternal).
			WithTextCode(TextCodeServerError).
			WithCode(errors.CodeInternal)
	default:
		err = errors.New(orDefault(message, "request failed"), errors.CategoryOperation).
			WithTextCode(TextCodeRequestFailed).
			WithCode(status)
	}

	return err.WithMetadata(meta)
}

// transportError wraps a failure that happened before any response arrived.
func transportError(req Request, cause error) *errors.Error {
	return errors.Wrap(cause, errors.CategoryOperation, orDefault(req.Fallback, "could not reach the server")).
		WithTextCode(TextCodeTransportFailed).
		WithMetadata(map[string]any{
			"method": req.Method,
			"path":   req.Path,
		})
}

func orDefault(message, fallback string) string {
	if message != "" {
		return message
	}
	return fallback
}

// IsAuthExpired reports whether err is the expired-session error the token
// refresh flow emits.
func IsAuthExpired(err error) bool {
	return hasTextCode(err, TextCodeSessionExpired)
}

// IsAccessDenied reports whether the server rejected the caller's role.
func IsAccessDenied(err error) bool {
	return hasTextCode(err, TextCodeAccessDenied)
}

// IsNotFound reports whether the server answered 404.
func IsNotFound(err error) bool {
	return hasTextCode(err, TextCodeNotFound)
}

// IsConflict reports whether the server answered 409.
func IsConflict(err error) bool {
	return hasTextCode(err, TextCodeConflict)
}

// IsValidation reports whether the server rejected the payload. Field-level
// messages, when present, ride in the error metadata under "fields".
func IsValidation(err error) bool {
	return hasTextCode(err, TextCodeValidationFailed)
}

// IsRateLimited reports whether the server throttled the request.
func IsRateLimited(err error) bool {
	return hasTextCode(err, TextCodeRateLimited)
}

// IsTransportFailure reports whether the request never produced a response.
func IsTransportFailure(err error) bool {
	return hasTextCode(err, TextCodeTransportFailed)
}

// ValidationFields extracts the field-level validation messages, when the
// server provided them.
func ValidationFields(err error) map[string]any {
	var rich *errors.Error
	if !errors.As(err, &rich) || rich.Metadata == nil {
		return nil
	}
	fields, ok := rich.Metadata["fields"].(map[string]any)
	if !ok {
		return nil
	}
	return fields
}

func hasTextCode(err error, code string) bool {
	var rich *errors.Error
	if !errors.As(err, &rich) {
		return false
	}
	return rich.TextCode == code
}
