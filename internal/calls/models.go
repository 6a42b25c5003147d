package calls

import (
	"errors"
	"time"

	"telemed-platform/internal/identity"
)

// Kind is the media profile of a call. Immutable for a session's lifetime.
// Video implies camera+mic grants; audio implies mic only.
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

func (k Kind) Valid() bool { return k == KindVideo || k == KindAudio }

// State is the lifecycle position of a session.
type State string

const (
	StatePending State = "pending"
	StateActive  State = "active"
	StateEnded   State = "ended"
	StateFailed  State = "failed"
)

// Terminal reports whether a session can never transition again.
func (s State) Terminal() bool { return s == StateEnded || s == StateFailed }

// EndReason records who ended a call and how.
type EndReason string

const (
	ReasonLocalHangup    EndReason = "local_hangup"
	ReasonRemoteEnded    EndReason = "remote_ended"
	ReasonRemoteDeclined EndReason = "remote_declined"
)

// remoteInitiated reasons must not re-emit call_ended on the channel,
// or two well-behaved clients would loop forever.
func (r EndReason) remoteInitiated() bool {
	return r == ReasonRemoteEnded || r == ReasonRemoteDeclined
}

// Credentials are the media-room join credentials issued by the
// provisioning service. Present if and only if the session is active.
type Credentials struct {
	Token     string `json:"token"`
	ServerURL string `json:"server_url"`
	E2EEKey   string `json:"e2ee_key,omitempty"`
}

// SessionView is the JSON-safe snapshot of a session handed to transports.
type SessionView struct {
	RoomID          string                   `json:"room_id"`
	ClinicID        string                   `json:"clinic_id"`
	Kind            Kind                     `json:"kind"`
	State           State                    `json:"state"`
	Caller          identity.ParticipantRef  `json:"caller"`
	Counterparty    identity.ParticipantRef  `json:"counterparty"`
	Credentials     *Credentials             `json:"credentials,omitempty"`
	StartedAt       *time.Time               `json:"started_at,omitempty"`
	ElapsedSeconds  int                      `json:"elapsed_seconds"`
	EndReason       EndReason                `json:"end_reason,omitempty"`
}

// CallInfo is the audit summary handed to the consultation recorder.
type CallInfo struct {
	RoomID          string
	ClinicID        string
	Kind            Kind
	Caller          identity.ParticipantRef
	Counterparty    identity.ParticipantRef
	StartedAt       time.Time
	DurationSeconds int
	EndReason       EndReason
}

var (
	ErrInvalidArgument = errors.New("calls: invalid argument")
	ErrNotFound        = errors.New("calls: session not found")

	// ErrKindBusy means the caller already has an active call of this
	// kind. Video and audio are independent slots.
	ErrKindBusy = errors.New("calls: a call of this kind is already active")
)
