// Package scheduling books clinical appointments against a single doctor's
// calendar, enforcing a buffered conflict window and an atomic commit.
package scheduling

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Appointment is one committed booking. Times are stored normalized to UTC;
// EndTime is derived from the fixed appointment duration at creation and
// never edited afterwards.
type Appointment struct {
	ID        string
	DoctorID  string
	PatientID string
	Issue     string
	StartTime time.Time
	EndTime   time.Time
	Status    Status
	CreatedAt time.Time
}

// Summary is the caller-facing description of an existing booking, used when
// reporting a conflict.
type Summary struct {
	AppointmentID string
	DoctorID      string
	StartTime     time.Time
	EndTime       time.Time
}

// BookRequest is one proposed booking. StartTime is the raw wall-clock string
// from the dialogue layer; the scheduler normalizes it into the clinic
// timezone before any comparison.
type BookRequest struct {
	DoctorID  string
	PatientID string
	Issue     string
	StartTime string
}

// BookOutcome is the tagged result of a booking attempt: Booked, Conflict,
// or InvalidRequest. Dependency failures are returned as errors, not
// outcomes.
type BookOutcome interface {
	bookOutcome()
}

// Booked carries the committed appointment.
type Booked struct {
	Appointment *Appointment
}

// Conflict reports that the proposed window collides with an existing
// booking. No record was created.
type Conflict struct {
	Existing Summary
}

// InvalidRequest reports an unusable proposal (bad time string, misaligned
// slot, missing fields).
type InvalidRequest struct {
	Reason string
}

func (Booked) bookOutcome()         {}
func (Conflict) bookOutcome()       {}
func (InvalidRequest) bookOutcome() {}

func (c Conflict) String() string {
	return fmt.Sprintf("doctor %s already booked %s – %s",
		c.Existing.DoctorID,
		c.Existing.StartTime.Format(time.RFC3339),
		c.Existing.EndTime.Format(time.RFC3339))
}
