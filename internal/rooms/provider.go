package rooms

import (
	"context"
	"errors"
	"fmt"
)

// Provider defines the provider-agnostic interface for the external
// room-provisioning service that allocates real-time media rooms and issues
// access credentials.
//
// Rules:
// - No provider HTTP calls outside this package.
// - Request/response types stay provider-agnostic; the response is treated
//   as opaque beyond presence/absence of credentials.
type Provider interface {
	Name() string
	HealthCheck(ctx context.Context) error

	CreateRoom(ctx context.Context, req CreateRoomRequest) (CreateRoomResult, error)

	// DeleteRoom tears down a room, typically one orphaned by a caller who
	// hung up while provisioning was still in flight. Best-effort.
	DeleteRoom(ctx context.Context, req DeleteRoomRequest) error
}

// RoomUser identifies one intended occupant of a room.
type RoomUser struct {
	Identifier  string `json:"identifier"`
	DisplayName string `json:"displayName"`
}

// CreateRoomRequest asks the provider for a room for exactly two logical
// participants. IsVideo implies camera+mic grants; audio implies mic only.
type CreateRoomRequest struct {
	RoomID       string     `json:"roomId"`
	FromUsername string     `json:"fromUsername"`
	ToUsers      []RoomUser `json:"toUsers"`
	IsVideo      bool       `json:"isVideo"`
	GroupName    string     `json:"groupName,omitempty"`
}

// CreateRoomResult carries the credentials for joining the room.
// RoomID may differ from the requested one when the provider assigns its
// own; callers must fall back to their locally generated identifier when
// the provider does not echo one back.
type CreateRoomResult struct {
	RoomID    string `json:"roomId"`
	Token     string `json:"token"`
	ServerURL string `json:"serverUrl"`
	E2EEKey   string `json:"e2eeKey,omitempty"`
}

type DeleteRoomRequest struct {
	RoomID string `json:"roomId"`
}

// ErrProvision is the sentinel for any provisioning failure.
var ErrProvision = errors.New("rooms: provisioning failed")

// ProvisionError wraps ErrProvision with the provider's message when one
// was available. Reason may be empty; surfaces as a generic failure then.
type ProvisionError struct {
	Reason string
}

func (e *ProvisionError) Error() string {
	if e.Reason == "" {
		return "rooms: provisioning failed"
	}
	return fmt.Sprintf("rooms: provisioning failed: %s", e.Reason)
}

func (e *ProvisionError) Unwrap() error { return ErrProvision }
