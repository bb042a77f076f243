package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/brightline-health/intake-ai-platform/pkg/logging"
)

var schedulingTracer = otel.Tracer("intake.internal.scheduling")

// ErrBookingTimeout indicates the caller-supplied deadline elapsed before the
// store answered.
var ErrBookingTimeout = errors.New("scheduling: booking timed out")

// Notifier is told about committed bookings. Implementations must not block
// the booking path on failure.
type Notifier interface {
	AppointmentBooked(ctx context.Context, appt *Appointment)
}

// BookingObserver records booking outcomes for monitoring.
type BookingObserver interface {
	ObserveBooking(outcome string, seconds float64)
}

// SchedulerOptions tune the scheduler. Zero values fall back to the clinic
// reference behavior (60-minute appointments, 55-minute buffer).
type SchedulerOptions struct {
	Duration time.Duration
	Buffer   time.Duration
	Location *time.Location
}

func (o SchedulerOptions) withDefaults() SchedulerOptions {
	if o.Duration <= 0 {
		o.Duration = 60 * time.Minute
	}
	if o.Buffer <= 0 {
		o.Buffer = 55 * time.Minute
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	return o
}

// Scheduler validates booking proposals and commits them through the
// calendar store. It is stateless; the store is the one shared mutable
// resource and serializes conflicting writes itself.
type Scheduler struct {
	store    CalendarStore
	opts     SchedulerOptions
	notifier Notifier
	observer BookingObserver
	logger   *logging.Logger
}

// NewScheduler builds a scheduler over the given store. notifier and
// observer may be nil.
func NewScheduler(store CalendarStore, opts SchedulerOptions, notifier Notifier, observer BookingObserver, logger *logging.Logger) *Scheduler {
	if store == nil {
		panic("scheduling: calendar store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Scheduler{
		store:    store,
		opts:     opts.withDefaults(),
		notifier: notifier,
		observer: observer,
		logger:   logger,
	}
}

// Book validates the proposal, normalizes its wall-clock time into the
// clinic timezone (and UTC for storage), and asks the store for an atomic
// conditional commit. Every domain result is a BookOutcome; the error return
// carries only dependency failures.
func (s *Scheduler) Book(ctx context.Context, req BookRequest) (BookOutcome, error) {
	ctx, span := schedulingTracer.Start(ctx, "scheduling.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("intake.doctor_id", req.DoctorID),
		attribute.String("intake.patient_id", req.PatientID),
	)
	started := time.Now()

	if strings.TrimSpace(req.DoctorID) == "" || strings.TrimSpace(req.PatientID) == "" {
		return s.observed(started, InvalidRequest{Reason: "doctor and patient are required"}), nil
	}

	start, err := ParseClinicTime(strings.TrimSpace(req.StartTime), s.opts.Location)
	if err != nil {
		return s.observed(started, InvalidRequest{Reason: "unrecognized appointment time"}), nil
	}
	if start.Second() != 0 || start.Nanosecond() != 0 || start.Minute()%5 != 0 {
		return s.observed(started, InvalidRequest{Reason: "appointments start on 5-minute boundaries"}), nil
	}

	appt := &Appointment{
		ID:        uuid.NewString(),
		DoctorID:  strings.TrimSpace(req.DoctorID),
		PatientID: strings.TrimSpace(req.PatientID),
		Issue:     strings.TrimSpace(req.Issue),
		StartTime: start.UTC(),
		EndTime:   start.Add(s.opts.Duration).UTC(),
		Status:    StatusConfirmed,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.PutAppointment(ctx, appt); err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			s.logger.Info("booking rejected: window conflict",
				"doctor_id", appt.DoctorID,
				"requested_start", appt.StartTime.Format(time.RFC3339),
			)
			return s.observed(started, Conflict{Existing: conflict.Existing}), nil
		}
		span.RecordError(err)
		s.observe("error", started)
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrBookingTimeout, ctx.Err())
		}
		return nil, err
	}

	s.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"doctor_id", appt.DoctorID,
		"patient_id", appt.PatientID,
		"start_time", appt.StartTime.Format(time.RFC3339),
	)
	if s.notifier != nil {
		s.notifier.AppointmentBooked(ctx, appt)
	}
	return s.observed(started, Booked{Appointment: appt}), nil
}

// Appointments lists a patient's bookings.
func (s *Scheduler) Appointments(ctx context.Context, patientID string) ([]*Appointment, error) {
	return s.store.ListByPatient(ctx, patientID)
}

// Cancel removes a booking through the administrative path.
func (s *Scheduler) Cancel(ctx context.Context, appointmentID string) error {
	if err := s.store.DeleteAppointment(ctx, appointmentID); err != nil {
		return err
	}
	s.logger.Info("appointment deleted", "appointment_id", appointmentID)
	return nil
}

func (s *Scheduler) observed(started time.Time, outcome BookOutcome) BookOutcome {
	switch outcome.(type) {
	case Booked:
		s.observe("confirmed", started)
	case Conflict:
		s.observe("conflict", started)
	case InvalidRequest:
		s.observe("invalid", started)
	}
	return outcome
}

func (s *Scheduler) observe(outcome string, started time.Time) {
	if s.observer != nil {
		s.observer.ObserveBooking(outcome, time.Since(started).Seconds())
	}
}
