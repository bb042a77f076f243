// Package history persists end-of-call conversation summaries. Sessions
// enqueue a summary at close; a worker drains the queue into the store so a
// hung store never blocks call teardown.
package history

import "time"

// Summary is the flushed record of one completed call session.
type Summary struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Issue           string    `json:"issue"`
	Symptoms        []string  `json:"symptoms"`
	Recommendations []string  `json:"recommendations"`
	AppointmentID   string    `json:"appointment_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
