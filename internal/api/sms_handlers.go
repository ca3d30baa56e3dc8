package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/watchtowerx/wtx-backend/internal/metrics"
	"github.com/watchtowerx/wtx-backend/internal/notify"
)

type SMSHandler struct {
	Sender  notify.SMSSender
	Metrics *metrics.Collector
}

func NewSMSHandler(s notify.SMSSender, m *metrics.Collector) *SMSHandler {
	return &SMSHandler{Sender: s, Metrics: m}
}

// POST /api/sms-event
func (h *SMSHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AlertType string `json:"alertType"`
		Location  string `json:"location"`
		Phone     string `json:"phone"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.AlertType == "" || req.Location == "" || req.Phone == "" {
		respondError(w, http.StatusBadRequest, "Missing alertType, location, or phone")
		return
	}

	message := notify.AlertSMSText(req.AlertType, req.Location)

	if err := h.Sender.Send(r.Context(), message, req.Phone); err != nil {
		log.Printf("SMS send failed: %v", err)
		if h.Metrics != nil {
			h.Metrics.Notifications.WithLabelValues("sms", "failed").Inc()
		}
		respondError(w, http.StatusInternalServerError, "Failed to send SMS")
		return
	}

	if h.Metrics != nil {
		h.Metrics.Notifications.WithLabelValues("sms", "sent").Inc()
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "SMS sent successfully"})
}
