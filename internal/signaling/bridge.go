package signaling

import (
	"context"
	"log/slog"
)

// CallEnder is the slice of the call controller the bridge needs: force a
// tracked session to its terminal state when the far end hung up or
// declined. Implementations return false when no local session matches the
// room identifier, which is expected for events belonging to other call
// pairs sharing the channel.
type CallEnder interface {
	EndRemote(ctx context.Context, roomID string, declined bool) bool
}

// MessageNotifier receives new_message events for the messaging refresh
// path. It applies its own matching rule (current conversation vs. global
// list refresh); the bridge does not interpret message payloads.
type MessageNotifier interface {
	NewMessage(ctx context.Context, conversationID string, ev Event)
}

// Bridge routes inbound channel events to their feature subscribers. It
// owns no state of its own beyond the subscriptions: matching runs against
// identifiers carried in each event.
type Bridge struct {
	ch  Channel
	log *slog.Logger
}

func NewBridge(ch Channel, log *slog.Logger) *Bridge {
	return &Bridge{ch: ch, log: log}
}

// RouteCalls subscribes the call lifecycle handler. Returns the
// unsubscribe function.
func (b *Bridge) RouteCalls(ender CallEnder) func() {
	return b.ch.Subscribe(func(ctx context.Context, ev Event) {
		switch ev.Type {
		case EventCallEnded, EventCallDeclined:
		default:
			return
		}
		if ev.RoomID == "" {
			b.log.Warn("call lifecycle event without roomId ignored", "type", string(ev.Type))
			return
		}

		declined := ev.Type == EventCallDeclined
		if !ender.EndRemote(ctx, ev.RoomID, declined) {
			// Expected for other call pairs on the shared channel.
			b.log.Debug("no local session for room", "room_id", ev.RoomID, "type", string(ev.Type))
		}
	})
}

// RouteMessages subscribes the messaging refresh handler. Independent of
// the call route; both run on the same shared channel.
func (b *Bridge) RouteMessages(n MessageNotifier) func() {
	return b.ch.Subscribe(func(ctx context.Context, ev Event) {
		if ev.Type != EventNewMessage {
			return
		}
		n.NewMessage(ctx, ev.ConversationID, ev)
	})
}
