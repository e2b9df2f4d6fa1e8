package audit

import (
	"net/http"
	"strings"
)

// ActionResource holds action and resource derived from an HTTP method and route template.
type ActionResource struct {
	Action   string
	Resource string
}

// routeActions names the domain writes explicitly; key is "METHOD template".
var routeActions = map[string]ActionResource{
	"POST /devices/{id}/notes":            {Action: "note_added", Resource: "note"},
	"PUT /devices/{id}/notes/{noteId}":    {Action: "note_updated", Resource: "note"},
	"DELETE /devices/{id}/notes/{noteId}": {Action: "note_deleted", Resource: "note"},
	"POST /devices/{id}/maintenance":      {Action: "maintenance_recorded", Resource: "maintenance"},
	"PATCH /maintenance/{id}":             {Action: "maintenance_updated", Resource: "maintenance"},
	"DELETE /maintenance/{id}":            {Action: "maintenance_deleted", Resource: "maintenance"},
	"PATCH /users/{username}/access":      {Action: "user_access_updated", Resource: "user"},
	"POST /sync":                          {Action: "sync_started", Resource: "sync"},
}

// IsMutating reports whether method changes state.
func IsMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// ParseRoute returns action and resource for an HTTP method and mux path template
// (e.g. POST /devices/{id}/notes). Unlisted routes get a verb from the method and the
// resource from the first path segment with a trailing "s" removed.
func ParseRoute(method, template string) ActionResource {
	if ar, ok := routeActions[method+" "+template]; ok {
		return ar
	}
	return ActionResource{Action: methodToAction(method), Resource: templateToResource(template)}
}

func templateToResource(template string) string {
	seg := strings.Trim(template, "/")
	if i := strings.Index(seg, "/"); i >= 0 {
		seg = seg[:i]
	}
	if seg == "" || strings.HasPrefix(seg, "{") {
		return "unknown"
	}
	seg = strings.TrimSuffix(seg, ".csv")
	if len(seg) > 1 {
		seg = strings.TrimSuffix(seg, "s")
	}
	return strings.ReplaceAll(seg, "-", "_")
}

func methodToAction(method string) string {
	switch method {
	case http.MethodGet:
		return "get"
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return strings.ToLower(method)
	}
}
