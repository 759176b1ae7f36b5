// Package apperr defines the error taxonomy shared by the resolvers, the
// service layer and the transport. Errors are classified with
// cockroachdb/errors marks so that the kind survives wrapping.
package apperr

import (
	"context"

	"github.com/cockroachdb/errors"
)

// Sentinel kinds. Use the predicates below rather than comparing directly.
var (
	// ErrValidation marks malformed caller input. Never retried.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks an entity the upstream confirmed does not exist.
	// Never retried.
	ErrNotFound = errors.New("not found")

	// ErrUpstream marks a transient upstream failure: network errors,
	// unexpected status codes or response shapes. Retried, then surfaced.
	ErrUpstream = errors.New("upstream failure")
)

// Validation returns a new validation error.
func Validation(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrValidation)
}

// NotFound returns an error reporting that entity id does not exist.
func NotFound(entity string, id any) error {
	return errors.Mark(errors.Newf("%s %v not found", entity, id), ErrNotFound)
}

// Upstream wraps err as an upstream failure. A nil err produces a fresh
// upstream error carrying only the message.
func Upstream(err error, format string, args ...any) error {
	if err == nil {
		return errors.Mark(errors.Newf(format, args...), ErrUpstream)
	}
	return errors.Mark(errors.Wrapf(err, format, args...), ErrUpstream)
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsUpstream reports whether err is an upstream failure.
func IsUpstream(err error) bool { return errors.Is(err, ErrUpstream) }

// Retryable reports whether another attempt could succeed. Validation and
// not-found errors are final, as is cancellation of the caller's context.
// A per-attempt deadline is retryable.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if IsValidation(err) || IsNotFound(err) {
		return false
	}
	return !errors.Is(err, context.Canceled)
}

// Classify makes sure err carries one of the three kinds. Errors that
// already carry a kind are returned untouched; anything else is wrapped as
// an upstream failure.
func Classify(err error, format string, args ...any) error {
	if err == nil || IsValidation(err) || IsNotFound(err) || IsUpstream(err) {
		return err
	}
	return Upstream(err, format, args...)
}
