package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"device-maintenance/backend/internal/audit"
)

type auditMetadata struct {
	Path      string            `json:"path"`
	Status    int               `json:"status"`
	RequestID string            `json:"request_id,omitempty"`
	Vars      map[string]string `json:"vars,omitempty"`
}

// Audit records one audit entry after each mutating request that succeeded.
// Action and resource come from the matched route template. Best-effort: failures never reach the client.
func Audit(logger audit.AuditLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logger == nil || !audit.IsMutating(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			sw := wrap(w)
			next.ServeHTTP(sw, r)
			if sw.code() >= http.StatusBadRequest {
				return
			}
			ar := audit.ParseRoute(r.Method, routeTemplate(r))
			username := ""
			if id, ok := IdentityFrom(r.Context()); ok {
				username = id.Username
			}
			requestID, _ := GetRequestID(r.Context())
			meta, _ := json.Marshal(auditMetadata{
				Path:      r.URL.Path,
				Status:    sw.code(),
				RequestID: requestID,
				Vars:      mux.Vars(r),
			})
			logger.LogEvent(r.Context(), username, ar.Action, ar.Resource, string(meta))
		})
	}
}

// routeTemplate returns the matched mux path template, or the raw path when no route matched.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}
