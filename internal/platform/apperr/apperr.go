// Package apperr defines the error kinds shared by services and the HTTP layer.
// Services return these (optionally wrapped); handlers map them to status codes with HTTPStatus.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized means the caller identity is missing, expired or invalid.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden means the identity is valid but lacks the required capability.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation means the input is malformed. Usually carried by a *FieldError.
	ErrValidation = errors.New("validation error")
	// ErrNotFound means a referenced device, note, maintenance record or user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable means the backing store or upstream source failed or timed out.
	ErrUnavailable = errors.New("unavailable")
	// ErrConflict means the operation collides with current state (e.g. a sync already running).
	ErrConflict = errors.New("conflict")
)

// FieldError is a validation failure bound to one input field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Unwrap makes errors.Is(err, ErrValidation) true for every FieldError.
func (e *FieldError) Unwrap() error { return ErrValidation }

// Validation returns a *FieldError for field.
func Validation(field, message string) error {
	return &FieldError{Field: field, Message: message}
}

// NotFound returns an error reading "<what> not found" that matches ErrNotFound.
func NotFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

// Forbidden returns an error matching ErrForbidden with a fixed denial reason.
func Forbidden(reason string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, reason)
}

// Conflict returns an error matching ErrConflict.
func Conflict(reason string) error {
	return fmt.Errorf("%w: %s", ErrConflict, reason)
}

// Unavailable wraps a storage or transport failure. Errors that already carry a kind are returned
// unchanged so a NotFound from a lower layer is not turned into a 503.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	if Kinded(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// Kinded reports whether err already matches one of the package kinds.
func Kinded(err error) bool {
	for _, k := range []error{ErrUnauthorized, ErrForbidden, ErrValidation, ErrNotFound, ErrUnavailable, ErrConflict} {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}

// HTTPStatus maps err to an HTTP status code. Unknown errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show to a client. Storage details are never exposed.
func PublicMessage(err error) string {
	switch HTTPStatus(err) {
	case http.StatusServiceUnavailable:
		return "service temporarily unavailable"
	case http.StatusInternalServerError:
		return "internal error"
	case http.StatusForbidden:
		return "you do not have permission to perform this action"
	default:
		return err.Error()
	}
}

// FieldOf returns the offending field of a validation error, or "".
func FieldOf(err error) string {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Field
	}
	return ""
}
