package models

import (
	"time"

	"github.com/google/uuid"
)

// Calendar outbox actions
const (
	CalendarActionCreate = "create"
	CalendarActionUpdate = "update"
	CalendarActionDelete = "delete"
)

// Calendar outbox entry statuses
const (
	CalendarStatusPending = "pending"
	CalendarStatusDone    = "done"
	CalendarStatusFailed  = "failed"
)

// CalendarOutboxEntry is a queued calendar-sync intent. Entries are written
// in the same transaction as the reservation change they mirror and drained
// by a background job; the external calendar is never authoritative.
type CalendarOutboxEntry struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	ReservaID     int64      `json:"reserva_id" db:"reserva_id"`
	Action        string     `json:"action" db:"action"`
	EventID       NullString `json:"event_id,omitempty" db:"event_id"`
	Summary       string     `json:"summary" db:"summary"`
	Description   string     `json:"description" db:"description"`
	StartAt       time.Time  `json:"start_at" db:"start_at"`
	EndAt         time.Time  `json:"end_at" db:"end_at"`
	Attempts      int        `json:"attempts" db:"attempts"`
	NextAttemptAt time.Time  `json:"next_attempt_at" db:"next_attempt_at"`
	Status        string     `json:"status" db:"status"`
	LastError     NullString `json:"last_error,omitempty" db:"last_error"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}
