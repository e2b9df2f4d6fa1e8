// Package httpjson writes JSON responses and maps service errors to HTTP status codes.
package httpjson

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"device-maintenance/backend/internal/platform/apperr"
)

// maxBodyBytes bounds request bodies read by Decode.
const maxBodyBytes = 1 << 20

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
	Field   string `json:"field,omitempty"`
}

// Write encodes v as JSON with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Str("component", "http").Msg("encode response")
	}
}

// Error writes err as an ErrorBody. Unexpected errors are logged; clients only see the public message.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("component", "http").Str("method", r.Method).Str("path", r.URL.Path).
			Int("status", status).Msg("request failed")
	}
	Write(w, status, ErrorBody{
		Message: apperr.PublicMessage(err),
		Status:  status,
		Field:   apperr.FieldOf(err),
	})
}

// Decode reads a JSON body into dst. Unknown fields are rejected.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("body", "request body is required")
		}
		return apperr.Validation("body", "request body must be valid JSON")
	}
	return nil
}

// QueryInt parses an optional integer query parameter. Empty returns def.
func QueryInt(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperr.Validation(name, "must be an integer")
	}
	return n, nil
}
