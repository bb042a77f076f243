package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/brightline-health/intake-ai-platform/internal/patients"
	"github.com/brightline-health/intake-ai-platform/pkg/logging"
)

// DoctorDirectory resolves doctors for the portal login.
type DoctorDirectory interface {
	FindDoctorByEmail(ctx context.Context, email string) (*patients.Person, error)
}

// PortalHandler serves POST /portal/login.
type PortalHandler struct {
	directory DoctorDirectory
	logger    *logging.Logger
}

// NewPortalHandler creates the portal handler.
func NewPortalHandler(directory DoctorDirectory, logger *logging.Logger) *PortalHandler {
	if directory == nil {
		panic("handlers: doctor directory cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PortalHandler{directory: directory, logger: logger}
}

type portalLoginRequest struct {
	Email string `json:"email"`
}

type portalLoginResponse struct {
	DoctorID string `json:"doctor_id"`
	Name     string `json:"name"`
}

// Login resolves a doctor by email. No credential check; the portal sits
// behind the clinic's network boundary.
func (h *PortalHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req portalLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		http.Error(w, "missing email", http.StatusBadRequest)
		return
	}

	doctor, err := h.directory.FindDoctorByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, patients.ErrNotFound) {
			http.Error(w, "doctor not found", http.StatusNotFound)
			return
		}
		h.logger.Error("doctor lookup failed", "error", err)
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, portalLoginResponse{DoctorID: doctor.ID, Name: doctor.Name})
}
