package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/watchtowerx/wtx-backend/internal/metrics"
	"github.com/watchtowerx/wtx-backend/internal/notify"
)

type NotifyHandler struct {
	Dispatcher *notify.Dispatcher
	Metrics    *metrics.Collector
}

func NewNotifyHandler(d *notify.Dispatcher, m *metrics.Collector) *NotifyHandler {
	return &NotifyHandler{Dispatcher: d, Metrics: m}
}

// POST /api/notify
func (h *NotifyHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tokens        []string `json:"tokens"`
		Type          string   `json:"type"`
		Confidence    *float64 `json:"confidence"`
		Reason        string   `json:"reason"`
		OverrideTitle string   `json:"overrideTitle"`
		OverrideBody  string   `json:"overrideBody"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	outcome, err := h.Dispatcher.Dispatch(r.Context(), notify.DispatchRequest{
		Tokens:        req.Tokens,
		EventType:     req.Type,
		Confidence:    req.Confidence,
		Reason:        req.Reason,
		OverrideTitle: req.OverrideTitle,
		OverrideBody:  req.OverrideBody,
	})
	if err != nil {
		if errors.Is(err, notify.ErrNoTokens) {
			respondError(w, http.StatusBadRequest, "An array of tokens is required.")
			return
		}
		log.Printf("Notification dispatch failed: %v", err)
		if h.Metrics != nil {
			h.Metrics.Notifications.WithLabelValues("push", "failed").Inc()
		}
		respondJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}

	if outcome.Skipped {
		if h.Metrics != nil {
			h.Metrics.Notifications.WithLabelValues("push", "skipped").Inc()
		}
		respondJSON(w, http.StatusOK, map[string]any{"skipped": true, "message": outcome.Message})
		return
	}

	if h.Metrics != nil {
		h.Metrics.Notifications.WithLabelValues("push", "sent").Inc()
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "response": outcome.Result})
}
