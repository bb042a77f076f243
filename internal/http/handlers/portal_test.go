package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brightline-health/intake-ai-platform/internal/patients"
)

type stubDirectory struct {
	doctors map[string]*patients.Person
}

func (s *stubDirectory) FindDoctorByEmail(ctx context.Context, email string) (*patients.Person, error) {
	if d, ok := s.doctors[email]; ok {
		return d, nil
	}
	return nil, patients.ErrNotFound
}

func TestPortalLogin(t *testing.T) {
	dir := &stubDirectory{doctors: map[string]*patients.Person{
		"dr@example.com": {ID: "d-1", Name: "Dr. Okafor", Kind: patients.KindDoctor},
	}}
	h := NewPortalHandler(dir, nil)

	req := httptest.NewRequest(http.MethodPost, "/portal/login",
		strings.NewReader(`{"email":"dr@example.com"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["doctor_id"] != "d-1" || resp["name"] != "Dr. Okafor" {
		t.Fatalf("unexpected response: %v", resp)
	}
}

func TestPortalLoginUnknownDoctor(t *testing.T) {
	h := NewPortalHandler(&stubDirectory{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/portal/login",
		strings.NewReader(`{"email":"nobody@example.com"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPortalLoginMissingEmail(t *testing.T) {
	h := NewPortalHandler(&stubDirectory{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/portal/login", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
