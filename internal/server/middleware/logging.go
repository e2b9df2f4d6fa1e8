package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// RequestLog writes one structured line per request.
func RequestLog(log zerolog.Logger) func(http.Handler) http.Handler {
	log = log.With().Str("component", "http").Logger()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := wrap(w)
			next.ServeHTTP(sw, r)

			status := sw.code()
			evt := log.Info()
			if status >= http.StatusInternalServerError {
				evt = log.Error()
			} else if status >= http.StatusBadRequest {
				evt = log.Warn()
			}
			requestID, _ := GetRequestID(r.Context())
			evt.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Dur("duration", time.Since(start)).
				Str("request_id", requestID).
				Str("client_ip", ClientIPFrom(r.Context())).
				Msg("request")
		})
	}
}
