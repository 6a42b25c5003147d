package messaging

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"telemed-platform/internal/signaling"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifier_ForwardsToOtherParticipants(t *testing.T) {
	ch := signaling.NewMemoryChannel()
	n := NewNotifier(ch, testLogger())

	ev := signaling.Event{
		Type:            signaling.EventNewMessage,
		ConversationID:  "c1",
		InitiatorUserID: "1",
		ParticipantIDs:  []string{"1", "2", "3"},
	}
	n.NewMessage(context.Background(), "c1", ev)

	pub := ch.Published()
	if len(pub) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(pub))
	}
	if len(pub[0].To) != 2 || pub[0].To[0] != "2" || pub[0].To[1] != "3" {
		t.Fatalf("sender must be excluded, got %v", pub[0].To)
	}
}

func TestNotifier_TracksAndClearsUnread(t *testing.T) {
	ch := signaling.NewMemoryChannel()
	n := NewNotifier(ch, testLogger())

	ev := signaling.Event{
		Type:            signaling.EventNewMessage,
		ConversationID:  "c1",
		InitiatorUserID: "1",
		ParticipantIDs:  []string{"1", "2"},
	}
	n.NewMessage(context.Background(), "c1", ev)
	n.NewMessage(context.Background(), "c1", ev)

	if got := n.UnreadCounts("2")["c1"]; got != 2 {
		t.Fatalf("expected 2 unread, got %d", got)
	}
	if got := n.UnreadCounts("1"); len(got) != 0 {
		t.Fatalf("sender must not accrue unread, got %v", got)
	}

	n.MarkRead("2", "c1")
	if got := n.UnreadCounts("2"); len(got) != 0 {
		t.Fatalf("expected cleared counters, got %v", got)
	}
}

func TestNotifier_IgnoresMalformedEvents(t *testing.T) {
	ch := signaling.NewMemoryChannel()
	n := NewNotifier(ch, testLogger())

	n.NewMessage(context.Background(), "", signaling.Event{Type: signaling.EventNewMessage})
	n.NewMessage(context.Background(), "c1", signaling.Event{
		Type:            signaling.EventNewMessage,
		ConversationID:  "c1",
		InitiatorUserID: "1",
		ParticipantIDs:  []string{"1"},
	})

	if len(ch.Published()) != 0 {
		t.Fatalf("expected no publishes")
	}
}

func TestNotifier_RoutedThroughBridge(t *testing.T) {
	ch := signaling.NewMemoryChannel()
	n := NewNotifier(ch, testLogger())
	bridge := signaling.NewBridge(ch, testLogger())
	unsub := bridge.RouteMessages(n)
	defer unsub()

	ch.Inject(context.Background(), signaling.Event{
		Type:            signaling.EventNewMessage,
		ConversationID:  "c1",
		InitiatorUserID: "1",
		ParticipantIDs:  []string{"1", "2"},
	})
	// Call lifecycle events do not reach the notifier.
	ch.Inject(context.Background(), signaling.Event{
		Type:   signaling.EventCallEnded,
		RoomID: "r1",
	})

	if got := n.UnreadCounts("2")["c1"]; got != 1 {
		t.Fatalf("expected 1 unread via bridge, got %d", got)
	}
}
