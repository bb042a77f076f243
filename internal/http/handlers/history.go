package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/brightline-health/intake-ai-platform/internal/history"
	"github.com/brightline-health/intake-ai-platform/pkg/logging"
)

// HistoryHandler serves POST /intake/summaries, the flush the dialogue
// driver issues when a call session closes.
type HistoryHandler struct {
	recorder history.Recorder
	logger   *logging.Logger
}

// NewHistoryHandler creates the summary flush handler.
func NewHistoryHandler(recorder history.Recorder, logger *logging.Logger) *HistoryHandler {
	if recorder == nil {
		panic("handlers: recorder cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &HistoryHandler{recorder: recorder, logger: logger}
}

type flushSummaryRequest struct {
	UserID          string   `json:"user_id"`
	Issue           string   `json:"issue"`
	Symptoms        []string `json:"symptoms"`
	Recommendations []string `json:"recommendations"`
	AppointmentID   string   `json:"appointment_id"`
}

// Flush handles POST /intake/summaries. The summary is enqueued; a worker
// persists it, so the call teardown never waits on the store.
func (h *HistoryHandler) Flush(w http.ResponseWriter, r *http.Request) {
	var req flushSummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		http.Error(w, "missing user_id", http.StatusBadRequest)
		return
	}

	err := h.recorder.Record(r.Context(), history.Summary{
		UserID:          req.UserID,
		Issue:           req.Issue,
		Symptoms:        req.Symptoms,
		Recommendations: req.Recommendations,
		AppointmentID:   req.AppointmentID,
	})
	if err != nil {
		h.logger.Error("failed to enqueue summary", "error", err, "user_id", req.UserID)
		http.Error(w, "failed to record summary", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
