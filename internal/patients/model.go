// Package patients stores the clinic's patient and doctor directory.
package patients

import (
	"errors"
	"strings"
	"time"
)

// Kind distinguishes directory entries.
type Kind string

const (
	KindPatient Kind = "patient"
	KindDoctor  Kind = "doctor"
)

// ErrNotFound indicates no directory entry matched the lookup.
var ErrNotFound = errors.New("patients: not found")

// Person is one directory entry, patient or doctor.
type Person struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateRequest carries the fields for a new directory entry.
type CreateRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	Kind  Kind   `json:"kind"`
}

// Validate checks required fields.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("patients: name is required")
	}
	if strings.TrimSpace(r.Phone) == "" && strings.TrimSpace(r.Email) == "" {
		return errors.New("patients: phone or email is required")
	}
	switch r.Kind {
	case KindPatient, KindDoctor:
		return nil
	default:
		return errors.New("patients: kind must be patient or doctor")
	}
}
