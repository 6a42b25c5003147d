package signaling

import "encoding/json"

// EventType enumerates the lifecycle events carried on the shared channel.
type EventType string

const (
	EventCallEnded    EventType = "call_ended"
	EventCallDeclined EventType = "call_declined"
	EventNewMessage   EventType = "new_message"
)

// Event is the wire shape for both inbound and outbound signaling traffic.
// RoomID is the sole correlation key for call lifecycle events; message
// events use ConversationID instead.
type Event struct {
	Type            EventType `json:"type"`
	RoomID          string    `json:"roomId,omitempty"`
	InitiatorUserID string    `json:"initiatorUserId,omitempty"`
	ParticipantIDs  []string  `json:"participantIds,omitempty"`

	ConversationID string          `json:"conversationId,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}
