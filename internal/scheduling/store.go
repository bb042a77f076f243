package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// slotGranularity is the calendar grid size.
const slotGranularity = 5 * time.Minute

// ErrAppointmentNotFound indicates the requested appointment does not exist.
var ErrAppointmentNotFound = errors.New("scheduling: appointment not found")

// ErrStoreUnavailable wraps calendar-store dependency failures.
var ErrStoreUnavailable = errors.New("scheduling: calendar store unavailable")

// ConflictError is returned by PutAppointment when the proposal's protected
// window collides with an existing booking.
type ConflictError struct {
	Existing Summary
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("scheduling: conflict with appointment %s (doctor %s)",
		e.Existing.AppointmentID, e.Existing.DoctorID)
}

// CalendarStore persists appointments. PutAppointment performs the conflict
// check and the insert as ONE atomic conditional write: two concurrent
// attempts for overlapping windows must never both succeed.
type CalendarStore interface {
	PutAppointment(ctx context.Context, appt *Appointment) error
	GetAppointment(ctx context.Context, id string) (*Appointment, error)
	ListByPatient(ctx context.Context, patientID string) ([]*Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
}

// lockSlots returns the grid instants covered by the appointment interval,
// half-open at the end.
func lockSlots(start, end time.Time) []time.Time {
	var out []time.Time
	for t := start.Truncate(slotGranularity); t.Before(end); t = t.Add(slotGranularity) {
		out = append(out, t)
	}
	return out
}

// windowSlots returns the grid instants of the protected conflict window
// around start, inclusive on both edges.
func windowSlots(start time.Time, buffer time.Duration) []time.Time {
	var out []time.Time
	first := start.Add(-buffer).Truncate(slotGranularity)
	last := start.Add(buffer)
	for t := first; !t.After(last); t = t.Add(slotGranularity) {
		out = append(out, t)
	}
	return out
}
