package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightline-health/intake-ai-platform/internal/scheduling"
)

type stubScheduler struct {
	outcome   scheduling.BookOutcome
	bookErr   error
	appts     []*scheduling.Appointment
	listErr   error
	cancelErr error
	cancelled []string
}

func (s *stubScheduler) Book(ctx context.Context, req scheduling.BookRequest) (scheduling.BookOutcome, error) {
	if s.bookErr != nil {
		return nil, s.bookErr
	}
	return s.outcome, nil
}

func (s *stubScheduler) Appointments(ctx context.Context, patientID string) ([]*scheduling.Appointment, error) {
	return s.appts, s.listErr
}

func (s *stubScheduler) Cancel(ctx context.Context, appointmentID string) error {
	s.cancelled = append(s.cancelled, appointmentID)
	return s.cancelErr
}

func TestBookConfirmed(t *testing.T) {
	sched := &stubScheduler{outcome: scheduling.Booked{
		Appointment: &scheduling.Appointment{ID: "appt-1"},
	}}
	h := NewAppointmentsHandler(sched, nil)

	req := httptest.NewRequest(http.MethodPost, "/appointments",
		strings.NewReader(`{"doctor_id":"d1","patient_id":"p1","issue":"Flu","start_time":"2025-10-24T16:30:00"}`))
	rec := httptest.NewRecorder()
	h.Book(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "confirmed", resp["status"])
	assert.Equal(t, "appt-1", resp["appointment_id"])
}

func TestBookConflict(t *testing.T) {
	sched := &stubScheduler{outcome: scheduling.Conflict{}}
	h := NewAppointmentsHandler(sched, nil)

	req := httptest.NewRequest(http.MethodPost, "/appointments",
		strings.NewReader(`{"doctor_id":"d1","patient_id":"p1","start_time":"2025-10-24T16:45:00"}`))
	rec := httptest.NewRecorder()
	h.Book(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "conflict", resp["status"])
}

func TestBookInvalidRequest(t *testing.T) {
	sched := &stubScheduler{outcome: scheduling.InvalidRequest{Reason: "unrecognized appointment time"}}
	h := NewAppointmentsHandler(sched, nil)

	req := httptest.NewRequest(http.MethodPost, "/appointments",
		strings.NewReader(`{"doctor_id":"d1","patient_id":"p1","start_time":"soonish"}`))
	rec := httptest.NewRecorder()
	h.Book(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookStoreFailure(t *testing.T) {
	sched := &stubScheduler{bookErr: errors.New("dynamo down")}
	h := NewAppointmentsHandler(sched, nil)

	req := httptest.NewRequest(http.MethodPost, "/appointments",
		strings.NewReader(`{"doctor_id":"d1","patient_id":"p1","start_time":"2025-10-24T16:30:00"}`))
	rec := httptest.NewRecorder()
	h.Book(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "dynamo")
}

func TestListAppointments(t *testing.T) {
	start := time.Date(2025, 10, 24, 23, 30, 0, 0, time.UTC)
	sched := &stubScheduler{appts: []*scheduling.Appointment{{
		ID:        "appt-1",
		DoctorID:  "d1",
		PatientID: "p1",
		Issue:     "Flu",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    scheduling.StatusConfirmed,
	}}}
	h := NewAppointmentsHandler(sched, nil)

	req := httptest.NewRequest(http.MethodGet, "/appointments?patient_id=p1", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp listAppointmentsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "2025-10-24T23:30:00Z", resp.Appointments[0].StartTime)
	assert.Equal(t, "confirmed", resp.Appointments[0].Status)
}

func TestListRequiresPatientID(t *testing.T) {
	h := NewAppointmentsHandler(&stubScheduler{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func cancelRequest(id string) *http.Request {
	req := httptest.NewRequest(http.MethodDelete, "/appointments/"+id, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestCancelAppointment(t *testing.T) {
	sched := &stubScheduler{}
	h := NewAppointmentsHandler(sched, nil)

	rec := httptest.NewRecorder()
	h.Cancel(rec, cancelRequest("appt-1"))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"appt-1"}, sched.cancelled)
}

func TestCancelNotFound(t *testing.T) {
	sched := &stubScheduler{cancelErr: scheduling.ErrAppointmentNotFound}
	h := NewAppointmentsHandler(sched, nil)

	rec := httptest.NewRecorder()
	h.Cancel(rec, cancelRequest("missing"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
