package consultations

import (
	"errors"
	"time"

	"telemed-platform/internal/calls"
)

// Record is the per-call consultation history entry.
//
// Invariants:
// - Records are append-and-complete: a row is created when a call starts
//   and completed once when it ends. Never deleted.
// - clinic_id is required for tenancy isolation; listings always filter
//   on it.
// - Recording is best-effort; call flows never block on it.
//
// Storage (Postgres): table consultations, unique on room_id, partial
// completion via ended_at IS NULL.
type Record struct {
	ID       string `json:"id" db:"id"`
	ClinicID string `json:"clinic_id" db:"clinic_id"`
	RoomID   string `json:"room_id" db:"room_id"`

	Kind calls.Kind `json:"kind" db:"kind"`

	// Caller is always a staff member; the counterparty is usually a
	// patient but may be another staff member.
	CallerID         string `json:"caller_id" db:"caller_id"`
	CallerName       string `json:"caller_name" db:"caller_name"`
	CallerRole       string `json:"caller_role" db:"caller_role"`
	CounterpartyID   string `json:"counterparty_id" db:"counterparty_id"`
	CounterpartyName string `json:"counterparty_name" db:"counterparty_name"`
	CounterpartyRole string `json:"counterparty_role" db:"counterparty_role"`

	StartedAt       time.Time       `json:"started_at" db:"started_at"`
	EndedAt         *time.Time      `json:"ended_at,omitempty" db:"ended_at"`
	DurationSeconds int             `json:"duration_seconds" db:"duration_seconds"`
	EndReason       calls.EndReason `json:"end_reason,omitempty" db:"end_reason"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Completed reports whether the call this record describes has ended.
func (r Record) Completed() bool { return r.EndedAt != nil }

var (
	ErrInvalidRecord = errors.New("consultations: invalid record")
	ErrNotFound      = errors.New("consultations: record not found")
)
