package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/brightline-health/intake-ai-platform/internal/patients"
	"github.com/brightline-health/intake-ai-platform/internal/scheduling"
	"github.com/brightline-health/intake-ai-platform/pkg/logging"
)

// directory resolves the patient contact details behind an appointment.
type directory interface {
	GetByID(ctx context.Context, id string) (*patients.Person, error)
}

// ConfirmationNotifier emails patients when their appointment is booked.
// Failures are logged and swallowed so a mail outage never fails a booking.
type ConfirmationNotifier struct {
	sender    EmailSender
	directory directory
	location  *time.Location
	logger    *logging.Logger
}

var _ scheduling.Notifier = (*ConfirmationNotifier)(nil)

// NewConfirmationNotifier wires a notifier over the given sender and
// patient directory.
func NewConfirmationNotifier(sender EmailSender, dir directory, location *time.Location, logger *logging.Logger) *ConfirmationNotifier {
	if sender == nil {
		panic("notify: email sender cannot be nil")
	}
	if dir == nil {
		panic("notify: patient directory cannot be nil")
	}
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ConfirmationNotifier{sender: sender, directory: dir, location: location, logger: logger}
}

// AppointmentBooked sends the confirmation email for a committed booking.
func (n *ConfirmationNotifier) AppointmentBooked(ctx context.Context, appt *scheduling.Appointment) {
	person, err := n.directory.GetByID(ctx, appt.PatientID)
	if err != nil {
		n.logger.Warn("skipping confirmation email: patient lookup failed",
			"error", err,
			"patient_id", appt.PatientID,
			"appointment_id", appt.ID,
		)
		return
	}
	if person.Email == "" {
		n.logger.Debug("skipping confirmation email: patient has no email",
			"patient_id", appt.PatientID,
		)
		return
	}

	msg := EmailMessage{
		To:      person.Email,
		ToName:  person.Name,
		Subject: "Your appointment is confirmed",
		Body:    ConfirmationBody(person.Name, appt, n.location),
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		n.logger.Warn("confirmation email failed",
			"error", err,
			"appointment_id", appt.ID,
		)
		return
	}
	n.logger.Info("confirmation email sent", "appointment_id", appt.ID, "to", person.Email)
}

// ConfirmationBody builds the plain-text confirmation message with the
// start time spelled out in the clinic's timezone.
func ConfirmationBody(name string, appt *scheduling.Appointment, loc *time.Location) string {
	when := scheduling.FormatNatural(appt.StartTime.In(loc))
	greeting := "Hello"
	if name != "" {
		greeting = fmt.Sprintf("Hello %s", name)
	}
	return fmt.Sprintf(
		"%s,\n\nYour appointment for %s is confirmed for %s.\n\nIf you need to reschedule, reply to this email or call the clinic.\n\nConfirmation ID: %s\n",
		greeting, appt.Issue, when, appt.ID,
	)
}
