// Package handlers exposes the intake platform's HTTP surface: the
// symptom-check endpoint the dialogue driver calls mid-conversation, the
// appointments API, and the doctor portal login.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/brightline-health/intake-ai-platform/internal/symptoms"
	"github.com/brightline-health/intake-ai-platform/pkg/logging"
)

// SymptomMatcher is the matching service behind the symptom-check endpoint.
type SymptomMatcher interface {
	Match(ctx context.Context, reported []string, topN int) (symptoms.MatchOutcome, error)
}

// MatchObserver records match outcomes for monitoring.
type MatchObserver interface {
	ObserveMatch(outcome string, seconds float64)
}

// IntakeHandler serves POST /intake/symptom-check.
type IntakeHandler struct {
	matcher  SymptomMatcher
	observer MatchObserver
	timeout  time.Duration
	logger   *logging.Logger
}

// NewIntakeHandler creates the symptom-check handler. observer may be nil.
func NewIntakeHandler(matcher SymptomMatcher, observer MatchObserver, timeout time.Duration, logger *logging.Logger) *IntakeHandler {
	if matcher == nil {
		panic("handlers: matcher cannot be nil")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &IntakeHandler{matcher: matcher, observer: observer, timeout: timeout, logger: logger}
}

type symptomCheckRequest struct {
	Symptoms string `json:"symptoms"`
	TopN     int    `json:"top_n"`
}

type symptomCheckResponse struct {
	Issue             string   `json:"issue"`
	Recommendation    string   `json:"recommendation,omitempty"`
	SuggestedSymptoms []string `json:"suggested_symptoms,omitempty"`
}

// SymptomCheck handles POST /intake/symptom-check. Every failure mode maps
// to a speakable response; the dialogue driver never sees a raw error.
func (h *IntakeHandler) SymptomCheck(w http.ResponseWriter, r *http.Request) {
	var req symptomCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode symptom-check request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	started := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	outcome, err := h.matcher.Match(ctx, splitSymptoms(req.Symptoms), req.TopN)
	if err != nil {
		h.logger.Error("symptom match failed", "error", err)
		h.observe("error", started)
		writeJSON(w, http.StatusOK, symptomCheckResponse{
			Issue:          "unknown",
			Recommendation: symptoms.FallbackRecommendation,
		})
		return
	}

	switch result := outcome.(type) {
	case symptoms.Resolved:
		h.observe("resolved", started)
		writeJSON(w, http.StatusOK, symptomCheckResponse{
			Issue:          result.Candidate.Issue.Name,
			Recommendation: result.Recommendation,
		})
	case symptoms.Ambiguous:
		h.observe("ambiguous", started)
		writeJSON(w, http.StatusOK, symptomCheckResponse{
			Issue:             "ambiguous",
			SuggestedSymptoms: result.SuggestedSymptoms,
		})
	case symptoms.NoMatch:
		h.observe("no_match", started)
		writeJSON(w, http.StatusOK, symptomCheckResponse{
			Issue:          "unknown",
			Recommendation: result.Recommendation,
		})
	case symptoms.InvalidInput:
		h.observe("invalid_input", started)
		writeJSON(w, http.StatusOK, symptomCheckResponse{
			Issue:          "unknown",
			Recommendation: result.Prompt,
		})
	default:
		h.observe("error", started)
		writeJSON(w, http.StatusOK, symptomCheckResponse{
			Issue:          "unknown",
			Recommendation: symptoms.FallbackRecommendation,
		})
	}
}

func (h *IntakeHandler) observe(outcome string, started time.Time) {
	if h.observer != nil {
		h.observer.ObserveMatch(outcome, time.Since(started).Seconds())
	}
}

// splitSymptoms breaks the caller's free-text symptom description into
// individual symptoms on commas and the word "and".
func splitSymptoms(text string) []string {
	replaced := strings.NewReplacer(" and ", ",", ";", ",").Replace(strings.ToLower(text))
	parts := strings.Split(replaced, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
