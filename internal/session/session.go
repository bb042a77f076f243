// Package session tracks one voice call's intake progress from first
// reported symptom through booking. A session is owned by a single call
// handler goroutine; it is not safe for concurrent use.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/brightline-health/intake-ai-platform/internal/history"
	"github.com/brightline-health/intake-ai-platform/pkg/logging"
)

// State names one phase of the intake call.
type State string

const (
	StateIntake              State = "intake"
	StateMatching            State = "matching"
	StateAwaitingTimeConfirm State = "awaiting_time_confirmation"
	StateBooking             State = "booking"
	StateClosed              State = "closed"
)

// ErrInvalidTransition is returned when an operation is invoked from a
// state that does not allow it.
var ErrInvalidTransition = errors.New("session: invalid state transition")

// Session is the per-call mutable record the dialogue driver reads to
// decide what to say next.
type Session struct {
	ID              string
	UserID          string
	Issue           string
	Symptoms        []string
	Recommendations []string
	AppointmentID   string

	state    State
	recorder history.Recorder
	logger   *logging.Logger
}

// New starts a session in the intake state for the given caller.
func New(userID string, recorder history.Recorder, logger *logging.Logger) *Session {
	if recorder == nil {
		panic("session: recorder cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Session{
		ID:       uuid.NewString(),
		UserID:   userID,
		state:    StateIntake,
		recorder: recorder,
		logger:   logger,
	}
}

// State reports the current phase.
func (s *Session) State() State {
	return s.state
}

// ReportSymptoms adds newly reported symptoms. The first report moves the
// session from intake to matching; later reports enlarge the set while
// matching continues.
func (s *Session) ReportSymptoms(symptoms []string) error {
	if s.state != StateIntake && s.state != StateMatching {
		return s.transitionError("report symptoms")
	}
	added := 0
	for _, raw := range symptoms {
		symptom := strings.ToLower(strings.TrimSpace(raw))
		if symptom == "" || s.hasSymptom(symptom) {
			continue
		}
		s.Symptoms = append(s.Symptoms, symptom)
		added++
	}
	if len(s.Symptoms) == 0 {
		return fmt.Errorf("session: at least one symptom required to begin matching")
	}
	s.state = StateMatching
	s.logger.Debug("symptoms reported", "session_id", s.ID, "added", added, "total", len(s.Symptoms))
	return nil
}

// ResolveIssue records the matched issue and its advice and moves the
// session on to time confirmation.
func (s *Session) ResolveIssue(issue string, recommendations []string) error {
	if s.state != StateMatching {
		return s.transitionError("resolve issue")
	}
	if issue == "" {
		return fmt.Errorf("session: resolved issue cannot be empty")
	}
	s.Issue = issue
	s.Recommendations = append([]string(nil), recommendations...)
	s.state = StateAwaitingTimeConfirm
	return nil
}

// ConfirmTime marks the caller's acceptance of a concrete start time and
// enters the booking phase.
func (s *Session) ConfirmTime() error {
	if s.state != StateAwaitingTimeConfirm {
		return s.transitionError("confirm time")
	}
	s.state = StateBooking
	return nil
}

// BookingConflict returns the session to time confirmation so the caller
// can pick another slot.
func (s *Session) BookingConflict() error {
	if s.state != StateBooking {
		return s.transitionError("record booking conflict")
	}
	s.state = StateAwaitingTimeConfirm
	return nil
}

// BookingSucceeded records the booked appointment and closes the session,
// flushing its summary to conversation history.
func (s *Session) BookingSucceeded(ctx context.Context, appointmentID string) error {
	if s.state != StateBooking {
		return s.transitionError("record booking success")
	}
	s.AppointmentID = appointmentID
	return s.close(ctx)
}

// Decline closes the session without an appointment when the caller
// chooses not to book.
func (s *Session) Decline(ctx context.Context) error {
	if s.state != StateAwaitingTimeConfirm && s.state != StateBooking {
		return s.transitionError("decline booking")
	}
	return s.close(ctx)
}

// Abandon closes the session from any non-terminal state, for example when
// the caller hangs up mid-intake. The summary still flushes with whatever
// was gathered.
func (s *Session) Abandon(ctx context.Context) error {
	if s.state == StateClosed {
		return s.transitionError("abandon")
	}
	return s.close(ctx)
}

func (s *Session) close(ctx context.Context) error {
	s.state = StateClosed
	summary := history.Summary{
		UserID:          s.UserID,
		Issue:           s.Issue,
		Symptoms:        append([]string(nil), s.Symptoms...),
		Recommendations: append([]string(nil), s.Recommendations...),
		AppointmentID:   s.AppointmentID,
	}
	if err := s.recorder.Record(ctx, summary); err != nil {
		s.logger.Error("failed to flush session summary",
			"error", err,
			"session_id", s.ID,
			"user_id", s.UserID,
		)
		return fmt.Errorf("session: flush summary: %w", err)
	}
	s.logger.Info("session closed",
		"session_id", s.ID,
		"issue", s.Issue,
		"appointment_id", s.AppointmentID,
	)
	return nil
}

func (s *Session) hasSymptom(symptom string) bool {
	for _, existing := range s.Symptoms {
		if existing == symptom {
			return true
		}
	}
	return false
}

func (s *Session) transitionError(op string) error {
	return fmt.Errorf("session: cannot %s in state %q: %w", op, s.state, ErrInvalidTransition)
}
