package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/watchtowerx/wtx-backend/internal/events"
	"github.com/watchtowerx/wtx-backend/internal/metrics"
)

type EventHandler struct {
	Service *events.Service
	Metrics *metrics.Collector
}

func NewEventHandler(svc *events.Service, m *metrics.Collector) *EventHandler {
	return &EventHandler{Service: svc, Metrics: m}
}

// Helpers
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// POST /api/event
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req, err := events.ValidateCreate(payload)
	if err != nil {
		var verr *events.ValidationError
		if errors.As(err, &verr) {
			respondError(w, http.StatusBadRequest, verr.Message)
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	evt, err := h.Service.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, events.ErrSnapshotUpload) {
			log.Printf("Snapshot upload failed: %v", err)
			if h.Metrics != nil {
				h.Metrics.SnapshotUploads.WithLabelValues("failed").Inc()
			}
			respondError(w, http.StatusInternalServerError, "Snapshot upload failed")
			return
		}
		log.Printf("Event insert failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if h.Metrics != nil {
		h.Metrics.EventsCreated.WithLabelValues(evt.EventType).Inc()
		if req.SnapshotData != "" {
			h.Metrics.SnapshotUploads.WithLabelValues("ok").Inc()
		}
	}

	respondJSON(w, http.StatusCreated, map[string]any{"success": true, "event": evt})
}

// GET /api/events
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()

	q := events.ListQuery{
		CameraID: qs.Get("cameraId"),
		Location: qs.Get("location"),
		Sort:     qs.Get("sort"),
		Order:    qs.Get("order"),
	}

	if t := qs.Get("type"); t != "" {
		q.Types = splitSet(t)
	}
	if p := qs.Get("priority"); p != "" {
		for _, part := range splitSet(p) {
			if v, err := strconv.ParseInt(part, 10, 64); err == nil {
				q.Priorities = append(q.Priorities, v)
			}
		}
	}

	var err error
	if q.Start, err = parseBound(qs.Get("startDate")); err != nil {
		respondError(w, http.StatusBadRequest, "\"startDate\" must be a valid ISO-8601 date")
		return
	}
	if q.End, err = parseBound(qs.Get("endDate")); err != nil {
		respondError(w, http.StatusBadRequest, "\"endDate\" must be a valid ISO-8601 date")
		return
	}

	if l := qs.Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil {
			q.Limit = v
		}
	}
	if p := qs.Get("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			q.Page = v
		}
	}

	result, err := h.Service.List(r.Context(), q)
	if err != nil {
		log.Printf("Event list failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// DELETE /api/events?olderThan=<ISO date>
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var cutoff *time.Time

	if raw := r.URL.Query().Get("olderThan"); raw != "" {
		t, err := events.ParseTime(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "\"olderThan\" must be a valid ISO-8601 date")
			return
		}
		cutoff = &t
	}

	count, err := h.Service.DeleteOlderThan(r.Context(), cutoff)
	if err != nil {
		var verr *events.ValidationError
		if errors.As(err, &verr) {
			respondError(w, http.StatusBadRequest, verr.Message)
			return
		}
		log.Printf("Bulk delete failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if h.Metrics != nil {
		h.Metrics.EventsDeleted.Add(float64(count))
	}

	respondJSON(w, http.StatusOK, map[string]int64{"deletedCount": count})
}

// GET /api/events/export
func (h *EventHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="events.csv"`)

	if err := h.Service.ExportCSV(r.Context(), w); err != nil {
		// Headers may already be out; log and abandon the stream.
		log.Printf("CSV export failed: %v", err)
	}
}

// GET /api/events/export.json
func (h *EventHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := h.Service.ExportJSON(r.Context(), w); err != nil {
		log.Printf("JSON export failed: %v", err)
	}
}

// GET /api/events/raw — unfiltered full dump, no pagination. Heavy on large
// stores; operational escape hatch only.
func (h *EventHandler) Raw(w http.ResponseWriter, r *http.Request) {
	all, err := h.Service.All(r.Context())
	if err != nil {
		log.Printf("Raw dump failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch raw events")
		return
	}
	respondJSON(w, http.StatusOK, all)
}

func splitSet(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBound(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := events.ParseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
