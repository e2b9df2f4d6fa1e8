package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("add_note required"), http.StatusForbidden},
		{"field validation", Validation("content", "must not be empty"), http.StatusUnprocessableEntity},
		{"not found", NotFound("device"), http.StatusNotFound},
		{"conflict", Conflict("sync already running"), http.StatusConflict},
		{"unavailable", Unavailable(errors.New("dial tcp: refused")), http.StatusServiceUnavailable},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HTTPStatus(tc.err); got != tc.want {
				t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestUnavailable_KeepsExistingKind(t *testing.T) {
	nf := NotFound("note")
	if got := Unavailable(nf); !errors.Is(got, ErrNotFound) || errors.Is(got, ErrUnavailable) {
		t.Errorf("Unavailable(NotFound) = %v, want the NotFound error unchanged", got)
	}
	if Unavailable(nil) != nil {
		t.Error("Unavailable(nil) should be nil")
	}
	raw := errors.New("connection reset")
	wrapped := Unavailable(raw)
	if !errors.Is(wrapped, ErrUnavailable) || !errors.Is(wrapped, raw) {
		t.Errorf("Unavailable(raw) = %v, want both ErrUnavailable and raw in chain", wrapped)
	}
}

func TestNotFoundMessage(t *testing.T) {
	if got := NotFound("device").Error(); got != "device not found" {
		t.Errorf("message = %q, want %q", got, "device not found")
	}
}

func TestFieldOf(t *testing.T) {
	err := fmt.Errorf("add note: %w", Validation("content", "must not be empty"))
	if got := FieldOf(err); got != "content" {
		t.Errorf("FieldOf = %q, want content", got)
	}
	if got := FieldOf(ErrForbidden); got != "" {
		t.Errorf("FieldOf(ErrForbidden) = %q, want empty", got)
	}
}

func TestPublicMessage_HidesStorageDetails(t *testing.T) {
	err := Unavailable(errors.New("pq: password authentication failed for user app"))
	if got := PublicMessage(err); got != "service temporarily unavailable" {
		t.Errorf("PublicMessage = %q", got)
	}
	if got := PublicMessage(Validation("description", "is required")); got != "description: is required" {
		t.Errorf("PublicMessage = %q", got)
	}
}
