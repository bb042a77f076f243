package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brightline-health/intake-ai-platform/internal/catalog"
	"github.com/brightline-health/intake-ai-platform/internal/symptoms"
)

type stubMatcher struct {
	outcome  symptoms.MatchOutcome
	err      error
	reported []string
	topN     int
}

func (s *stubMatcher) Match(ctx context.Context, reported []string, topN int) (symptoms.MatchOutcome, error) {
	s.reported = reported
	s.topN = topN
	if s.err != nil {
		return nil, s.err
	}
	return s.outcome, nil
}

func postSymptomCheck(t *testing.T, h *IntakeHandler, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/intake/symptom-check", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.SymptomCheck(rec, req)

	var payload map[string]any
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return rec, payload
}

func TestSymptomCheckResolved(t *testing.T) {
	matcher := &stubMatcher{outcome: symptoms.Resolved{
		Candidate: symptoms.Candidate{
			Issue: &catalog.HealthIssue{ID: "1", Name: "Covid"},
		},
		Recommendation: "Rest and isolate.",
	}}
	h := NewIntakeHandler(matcher, nil, 0, nil)

	rec, payload := postSymptomCheck(t, h, `{"symptoms":"fever, cough and tired","top_n":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if payload["issue"] != "Covid" {
		t.Fatalf("expected issue Covid, got %v", payload["issue"])
	}
	if payload["recommendation"] != "Rest and isolate." {
		t.Fatalf("unexpected recommendation %v", payload["recommendation"])
	}

	want := []string{"fever", "cough", "tired"}
	if len(matcher.reported) != len(want) {
		t.Fatalf("expected %v symptoms, got %v", want, matcher.reported)
	}
	for i, symptom := range want {
		if matcher.reported[i] != symptom {
			t.Fatalf("expected %v, got %v", want, matcher.reported)
		}
	}
	if matcher.topN != 3 {
		t.Fatalf("expected top_n passed through, got %d", matcher.topN)
	}
}

func TestSymptomCheckAmbiguous(t *testing.T) {
	matcher := &stubMatcher{outcome: symptoms.Ambiguous{
		SuggestedSymptoms: []string{"fever", "nausea"},
	}}
	h := NewIntakeHandler(matcher, nil, 0, nil)

	_, payload := postSymptomCheck(t, h, `{"symptoms":"headache"}`)
	if payload["issue"] != "ambiguous" {
		t.Fatalf("expected ambiguous issue, got %v", payload["issue"])
	}
	suggested, ok := payload["suggested_symptoms"].([]any)
	if !ok || len(suggested) != 2 {
		t.Fatalf("expected 2 suggested symptoms, got %v", payload["suggested_symptoms"])
	}
}

func TestSymptomCheckNoMatch(t *testing.T) {
	matcher := &stubMatcher{outcome: symptoms.NoMatch{Recommendation: symptoms.FallbackRecommendation}}
	h := NewIntakeHandler(matcher, nil, 0, nil)

	_, payload := postSymptomCheck(t, h, `{"symptoms":"glowing"}`)
	if payload["issue"] != "unknown" {
		t.Fatalf("expected unknown issue, got %v", payload["issue"])
	}
	if payload["recommendation"] != symptoms.FallbackRecommendation {
		t.Fatalf("unexpected recommendation %v", payload["recommendation"])
	}
}

func TestSymptomCheckInvalidInput(t *testing.T) {
	matcher := &stubMatcher{outcome: symptoms.InvalidInput{Prompt: symptoms.RestatePrompt}}
	h := NewIntakeHandler(matcher, nil, 0, nil)

	_, payload := postSymptomCheck(t, h, `{"symptoms":"   "}`)
	if payload["issue"] != "unknown" {
		t.Fatalf("expected unknown issue, got %v", payload["issue"])
	}
	if payload["recommendation"] != symptoms.RestatePrompt {
		t.Fatalf("expected restate prompt, got %v", payload["recommendation"])
	}
}

func TestSymptomCheckInternalFailureNeverSurfaces(t *testing.T) {
	matcher := &stubMatcher{err: errors.New("index exploded")}
	h := NewIntakeHandler(matcher, nil, 0, nil)

	rec, payload := postSymptomCheck(t, h, `{"symptoms":"fever"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("internal failures must not surface as 5xx, got %d", rec.Code)
	}
	if payload["issue"] != "unknown" {
		t.Fatalf("expected unknown issue, got %v", payload["issue"])
	}
	if body := rec.Body.String(); strings.Contains(body, "exploded") {
		t.Fatalf("raw error leaked into response: %s", body)
	}
}

func TestSymptomCheckBadBody(t *testing.T) {
	h := NewIntakeHandler(&stubMatcher{}, nil, 0, nil)
	rec, _ := postSymptomCheck(t, h, `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSplitSymptoms(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"fever, cough and tired", []string{"fever", "cough", "tired"}},
		{"Headache", []string{"headache"}},
		{"fever;chills", []string{"fever", "chills"}},
		{"  ,  ", nil},
	}
	for _, tc := range cases {
		got := splitSymptoms(tc.in)
		if len(got) != len(tc.want) {
			t.Fatalf("splitSymptoms(%q) = %v, want %v", tc.in, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("splitSymptoms(%q) = %v, want %v", tc.in, got, tc.want)
			}
		}
	}
}
