package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"device-maintenance/backend/internal/maintenance/domain"
	"device-maintenance/backend/internal/maintenance/service"
	"device-maintenance/backend/internal/platform/apperr"
	"device-maintenance/backend/internal/platform/httpjson"
)

// Ledger is the notes and maintenance service.
type Ledger interface {
	AddNote(ctx context.Context, deviceID, content string) (*domain.Note, error)
	EditNote(ctx context.Context, deviceID, noteID, content string) (*domain.Note, error)
	DeleteNote(ctx context.Context, deviceID, noteID string) error
	ListNotes(ctx context.Context, deviceID string) ([]*domain.Note, error)
	AddMaintenance(ctx context.Context, deviceID string, in service.MaintenanceInput) (*domain.Record, error)
	UpdateMaintenance(ctx context.Context, recordID string, patch service.MaintenancePatch) (*domain.Record, error)
	DeleteMaintenance(ctx context.Context, recordID string) error
	ListMaintenance(ctx context.Context, deviceID string) ([]*domain.Record, error)
}

// Handler serves the note and maintenance endpoints.
type Handler struct {
	ledger Ledger
}

// NewHandler returns a maintenance Handler.
func NewHandler(ledger Ledger) *Handler {
	return &Handler{ledger: ledger}
}

// NoteView is a note as returned to clients.
type NoteView struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"device_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordView is a maintenance record as returned to clients.
type RecordView struct {
	ID              string     `json:"id"`
	DeviceID        string     `json:"device_id"`
	MaintenanceType string     `json:"maintenance_type"`
	TypeLabel       string     `json:"maintenance_type_label"`
	Description     string     `json:"description"`
	PerformedAt     time.Time  `json:"performed_at"`
	Technician      *string    `json:"technician"`
	NextDueDays     *int       `json:"next_due_days"`
	NextDue         *time.Time `json:"next_due"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type noteRequest struct {
	Content string `json:"content"`
}

// maintenanceRequest accepts "type" or the older "maintenance_type" for the kind.
type maintenanceRequest struct {
	Type            *string `json:"type"`
	MaintenanceType *string `json:"maintenance_type"`
	Description     *string `json:"description"`
	PerformedAt     *string `json:"performed_at"`
	NextDueDays     *int    `json:"next_due_days"`
}

func (m maintenanceRequest) kind() *string {
	if m.Type != nil {
		return m.Type
	}
	return m.MaintenanceType
}

// ListNotes handles GET /devices/{id}/notes.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.ledger.ListNotes(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	out := make([]NoteView, 0, len(notes))
	for _, n := range notes {
		out = append(out, noteView(n))
	}
	httpjson.Write(w, http.StatusOK, out)
}

// AddNote handles POST /devices/{id}/notes.
func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, r, err)
		return
	}
	n, err := h.ledger.AddNote(r.Context(), mux.Vars(r)["id"], req.Content)
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, noteView(n))
}

// EditNote handles PUT /devices/{id}/notes/{noteId}.
func (h *Handler) EditNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, r, err)
		return
	}
	vars := mux.Vars(r)
	n, err := h.ledger.EditNote(r.Context(), vars["id"], vars["noteId"], req.Content)
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, noteView(n))
}

// DeleteNote handles DELETE /devices/{id}/notes/{noteId}.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.ledger.DeleteNote(r.Context(), vars["id"], vars["noteId"]); err != nil {
		httpjson.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMaintenance handles GET /devices/{id}/maintenance.
func (h *Handler) ListMaintenance(w http.ResponseWriter, r *http.Request) {
	records, err := h.ledger.ListMaintenance(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	out := make([]RecordView, 0, len(records))
	for _, rec := range records {
		out = append(out, recordView(rec))
	}
	httpjson.Write(w, http.StatusOK, out)
}

// AddMaintenance handles POST /devices/{id}/maintenance.
func (h *Handler) AddMaintenance(w http.ResponseWriter, r *http.Request) {
	var req maintenanceRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, r, err)
		return
	}
	performedAt, err := parseTimestamp(req.PerformedAt)
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	in := service.MaintenanceInput{
		PerformedAt: performedAt,
		NextDueDays: req.NextDueDays,
	}
	if k := req.kind(); k != nil {
		in.Kind = *k
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	rec, err := h.ledger.AddMaintenance(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, recordView(rec))
}

// UpdateMaintenance handles PATCH /maintenance/{id}.
func (h *Handler) UpdateMaintenance(w http.ResponseWriter, r *http.Request) {
	var req maintenanceRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, r, err)
		return
	}
	performedAt, err := parseTimestamp(req.PerformedAt)
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	rec, err := h.ledger.UpdateMaintenance(r.Context(), mux.Vars(r)["id"], service.MaintenancePatch{
		Kind:        req.kind(),
		Description: req.Description,
		PerformedAt: performedAt,
		NextDueDays: req.NextDueDays,
	})
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, recordView(rec))
}

// DeleteMaintenance handles DELETE /maintenance/{id}.
func (h *Handler) DeleteMaintenance(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.DeleteMaintenance(r.Context(), mux.Vars(r)["id"]); err != nil {
		httpjson.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseTimestamp accepts RFC 3339 or a bare YYYY-MM-DD date (midnight UTC). Nil or blank stays nil.
func parseTimestamp(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly} {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return &t, nil
		}
	}
	return nil, apperr.Validation("performed_at", "must be an ISO 8601 date or timestamp")
}

func noteView(n *domain.Note) NoteView {
	return NoteView{
		ID:        n.ID,
		DeviceID:  n.DeviceID,
		Author:    n.Author,
		Content:   n.Content,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func recordView(r *domain.Record) RecordView {
	return RecordView{
		ID:              r.ID,
		DeviceID:        r.DeviceID,
		MaintenanceType: string(r.Kind.Name()),
		TypeLabel:       r.Kind.Label(),
		Description:     r.Description,
		PerformedAt:     r.PerformedAt,
		Technician:      r.Technician,
		NextDueDays:     domain.ScheduleDays(r.Kind),
		NextDue:         r.NextDue,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}
