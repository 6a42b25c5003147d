package signaling

import (
	"context"
	"testing"
)

type recordingEnder struct {
	rooms    []string
	declined []bool
	match    bool
}

func (r *recordingEnder) EndRemote(_ context.Context, roomID string, declined bool) bool {
	r.rooms = append(r.rooms, roomID)
	r.declined = append(r.declined, declined)
	return r.match
}

type recordingNotifier struct {
	conversations []string
}

func (r *recordingNotifier) NewMessage(_ context.Context, conversationID string, _ Event) {
	r.conversations = append(r.conversations, conversationID)
}

func TestBridge_RoutesCallEndedAndDeclined(t *testing.T) {
	ch := NewMemoryChannel()
	b := NewBridge(ch, discardLogger())

	ender := &recordingEnder{match: true}
	unsub := b.RouteCalls(ender)
	defer unsub()

	ctx := context.Background()
	ch.Inject(ctx, Event{Type: EventCallEnded, RoomID: "r1"})
	ch.Inject(ctx, Event{Type: EventCallDeclined, RoomID: "r2"})

	if len(ender.rooms) != 2 || ender.rooms[0] != "r1" || ender.rooms[1] != "r2" {
		t.Fatalf("unexpected rooms: %v", ender.rooms)
	}
	if ender.declined[0] || !ender.declined[1] {
		t.Fatalf("unexpected declined flags: %v", ender.declined)
	}
}

func TestBridge_IgnoresEventsWithoutRoomID(t *testing.T) {
	ch := NewMemoryChannel()
	b := NewBridge(ch, discardLogger())

	ender := &recordingEnder{}
	defer b.RouteCalls(ender)()

	ch.Inject(context.Background(), Event{Type: EventCallEnded})
	if len(ender.rooms) != 0 {
		t.Fatalf("expected no routing for empty roomId")
	}
}

func TestBridge_CallRouteIgnoresMessages(t *testing.T) {
	ch := NewMemoryChannel()
	b := NewBridge(ch, discardLogger())

	ender := &recordingEnder{}
	defer b.RouteCalls(ender)()

	ch.Inject(context.Background(), Event{Type: EventNewMessage, ConversationID: "c1"})
	if len(ender.rooms) != 0 {
		t.Fatalf("call route must not see message events")
	}
}

func TestBridge_MessageRouteIndependentOfCallRoute(t *testing.T) {
	ch := NewMemoryChannel()
	b := NewBridge(ch, discardLogger())

	ender := &recordingEnder{match: true}
	notifier := &recordingNotifier{}
	defer b.RouteCalls(ender)()
	defer b.RouteMessages(notifier)()

	ctx := context.Background()
	ch.Inject(ctx, Event{Type: EventNewMessage, ConversationID: "c9"})
	ch.Inject(ctx, Event{Type: EventCallEnded, RoomID: "r1"})

	if len(notifier.conversations) != 1 || notifier.conversations[0] != "c9" {
		t.Fatalf("unexpected conversations: %v", notifier.conversations)
	}
	if len(ender.rooms) != 1 || ender.rooms[0] != "r1" {
		t.Fatalf("unexpected rooms: %v", ender.rooms)
	}
}
