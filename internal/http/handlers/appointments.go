package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/brightline-health/intake-ai-platform/internal/scheduling"
	"github.com/brightline-health/intake-ai-platform/pkg/logging"
)

// BookingService is the scheduling surface the appointments API exposes.
type BookingService interface {
	Book(ctx context.Context, req scheduling.BookRequest) (scheduling.BookOutcome, error)
	Appointments(ctx context.Context, patientID string) ([]*scheduling.Appointment, error)
	Cancel(ctx context.Context, appointmentID string) error
}

// AppointmentsHandler serves the /appointments routes.
type AppointmentsHandler struct {
	scheduler BookingService
	logger    *logging.Logger
}

// NewAppointmentsHandler creates the appointments handler.
func NewAppointmentsHandler(scheduler BookingService, logger *logging.Logger) *AppointmentsHandler {
	if scheduler == nil {
		panic("handlers: scheduler cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AppointmentsHandler{scheduler: scheduler, logger: logger}
}

type bookRequest struct {
	DoctorID  string `json:"doctor_id"`
	PatientID string `json:"patient_id"`
	Issue     string `json:"issue"`
	StartTime string `json:"start_time"`
}

type bookResponse struct {
	Status        string `json:"status"`
	AppointmentID string `json:"appointment_id,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// Book handles POST /appointments.
func (h *AppointmentsHandler) Book(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode booking request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	outcome, err := h.scheduler.Book(r.Context(), scheduling.BookRequest{
		DoctorID:  req.DoctorID,
		PatientID: req.PatientID,
		Issue:     req.Issue,
		StartTime: req.StartTime,
	})
	if err != nil {
		h.logger.Error("booking failed", "error", err, "doctor_id", req.DoctorID)
		writeJSON(w, http.StatusServiceUnavailable, bookResponse{
			Status: "unavailable",
			Reason: "scheduling is temporarily unavailable, please try again",
		})
		return
	}

	switch result := outcome.(type) {
	case scheduling.Booked:
		writeJSON(w, http.StatusCreated, bookResponse{
			Status:        "confirmed",
			AppointmentID: result.Appointment.ID,
		})
	case scheduling.Conflict:
		writeJSON(w, http.StatusConflict, bookResponse{Status: "conflict"})
	case scheduling.InvalidRequest:
		writeJSON(w, http.StatusBadRequest, bookResponse{
			Status: "invalid",
			Reason: result.Reason,
		})
	default:
		h.logger.Error("unexpected booking outcome", "outcome", outcome)
		writeJSON(w, http.StatusInternalServerError, bookResponse{Status: "unavailable"})
	}
}

type listAppointmentsResponse struct {
	Appointments []appointmentView `json:"appointments"`
	Count        int               `json:"count"`
}

type appointmentView struct {
	ID        string `json:"id"`
	DoctorID  string `json:"doctor_id"`
	PatientID string `json:"patient_id"`
	Issue     string `json:"issue"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
}

// List handles GET /appointments?patient_id=.
func (h *AppointmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	patientID := r.URL.Query().Get("patient_id")
	if patientID == "" {
		http.Error(w, "missing patient_id", http.StatusBadRequest)
		return
	}

	appts, err := h.scheduler.Appointments(r.Context(), patientID)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err, "patient_id", patientID)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	views := make([]appointmentView, 0, len(appts))
	for _, appt := range appts {
		views = append(views, appointmentView{
			ID:        appt.ID,
			DoctorID:  appt.DoctorID,
			PatientID: appt.PatientID,
			Issue:     appt.Issue,
			StartTime: appt.StartTime.Format(time.RFC3339),
			EndTime:   appt.EndTime.Format(time.RFC3339),
			Status:    string(appt.Status),
		})
	}
	writeJSON(w, http.StatusOK, listAppointmentsResponse{Appointments: views, Count: len(views)})
}

// Cancel handles DELETE /appointments/{id}.
func (h *AppointmentsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "missing appointment id", http.StatusBadRequest)
		return
	}

	if err := h.scheduler.Cancel(r.Context(), id); err != nil {
		if errors.Is(err, scheduling.ErrAppointmentNotFound) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to cancel appointment", "error", err, "appointment_id", id)
		http.Error(w, "failed to cancel appointment", http.StatusInternalServerError)
		return
	}

	h.logger.Info("appointment cancelled", "appointment_id", id)
	w.WriteHeader(http.StatusNoContent)
}
