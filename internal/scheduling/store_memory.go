package scheduling

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// MemoryCalendarStore keeps appointments in memory behind one mutex, giving
// the same conditional-insert semantics as the DynamoDB store. Used in tests
// and local development.
type MemoryCalendarStore struct {
	buffer time.Duration

	mu           sync.Mutex
	appointments map[string]*Appointment
}

// NewMemoryCalendarStore creates an empty in-memory store.
func NewMemoryCalendarStore(buffer time.Duration) *MemoryCalendarStore {
	if buffer <= 0 || buffer%slotGranularity != 0 {
		panic("scheduling: conflict buffer must be a positive multiple of the slot granularity")
	}
	return &MemoryCalendarStore{
		buffer:       buffer,
		appointments: make(map[string]*Appointment),
	}
}

// PutAppointment checks the protected window and inserts under one lock, so
// concurrent overlapping attempts cannot both succeed.
func (s *MemoryCalendarStore) PutAppointment(ctx context.Context, appt *Appointment) error {
	if appt == nil {
		return errors.New("scheduling: appointment cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	windowStart := appt.StartTime.Add(-s.buffer)
	windowEnd := appt.StartTime.Add(s.buffer)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.appointments[appt.ID]; exists {
		return errors.New("scheduling: appointment ID already exists")
	}
	for _, existing := range s.appointments {
		if existing.DoctorID != appt.DoctorID {
			continue
		}
		if !existing.StartTime.After(windowEnd) && existing.EndTime.After(windowStart) {
			return &ConflictError{Existing: Summary{
				AppointmentID: existing.ID,
				DoctorID:      existing.DoctorID,
				StartTime:     existing.StartTime,
				EndTime:       existing.EndTime,
			}}
		}
	}

	stored := *appt
	s.appointments[appt.ID] = &stored
	return nil
}

// GetAppointment fetches one appointment by ID.
func (s *MemoryCalendarStore) GetAppointment(ctx context.Context, id string) (*Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	copied := *appt
	return &copied, nil
}

// ListByPatient returns the patient's appointments ordered by start time.
func (s *MemoryCalendarStore) ListByPatient(ctx context.Context, patientID string) ([]*Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Appointment
	for _, appt := range s.appointments {
		if appt.PatientID != patientID {
			continue
		}
		copied := *appt
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

// DeleteAppointment removes the appointment, freeing its window.
func (s *MemoryCalendarStore) DeleteAppointment(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appointments[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(s.appointments, id)
	return nil
}
