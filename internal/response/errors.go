package response

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies failures into the four categories every caller handles.
type Kind string

const (
	// ─── Caught before any network call ────────────────────────────────
	KindValidation Kind = "VALIDATION_ERROR"

	// ─── Status-derived ────────────────────────────────────────────────
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindNotFound     Kind = "NOT_FOUND"

	// ─── Everything else: timeouts, 5xx, connectivity, success=false ───
	KindServer Kind = "SERVER_ERROR"
)

// Error is the uniform failure result surfaced by the gateway and the
// view controllers. Message is always human-readable.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindForStatus maps an HTTP status to a failure Kind.
func KindForStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusNotFound:
		return KindNotFound
	default:
		return KindServer
	}
}

// Validation builds a validation failure from a translated field map.
func Validation(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// Wrap normalizes any error into an *Error, keeping an existing one as is.
func Wrap(err error, fallback string) *Error {
	if err == nil {
		return nil
	}
	var re *Error
	if errors.As(err, &re) {
		return re
	}
	return &Error{Kind: KindServer, Message: fallback, Err: err}
}

// Prefixed returns a copy of err whose message is "prefix: message".
func Prefixed(prefix string, err error) *Error {
	re := Wrap(err, err.Error())
	out := *re
	out.Message = fmt.Sprintf("%s: %s", prefix, re.Message)
	return &out
}

// KindOf reports the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}

// IsNotFound reports whether err is a not-found failure.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsUnauthorized reports whether err is an authentication failure.
func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }

// IsValidation reports whether err was caught before any network call.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }
