package signaling

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// fakeConn is an in-memory Conn. Reads block on the inbound channel;
// writes are captured on the outbound channel.
type fakeConn struct {
	inbound  chan []byte
	outbound chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound:  make(chan []byte, 8),
		outbound: make(chan []byte, 8),
		closed:   make(chan struct{}),
	}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case data, ok := <-f.inbound:
		if !ok {
			return 0, nil, io.EOF
		}
		return 1, data, nil
	case <-f.closed:
		return 0, nil, io.EOF
	}
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	select {
	case f.outbound <- data:
		return nil
	case <-f.closed:
		return errors.New("closed")
	}
}

func (f *fakeConn) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startConn(t *testing.T, h *Hub, userID string) *fakeConn {
	t.Helper()
	conn := newFakeConn()
	done := make(chan struct{})
	go func() {
		h.HandleConn(context.Background(), userID, conn)
		close(done)
	}()
	t.Cleanup(func() {
		_ = conn.Close()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Errorf("HandleConn did not return")
		}
	})
	// Give HandleConn a moment to register the client.
	waitFor(t, func() bool {
		for _, u := range h.ConnectedUsers() {
			if u == userID {
				return true
			}
		}
		return false
	})
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within deadline")
}

func TestHub_PublishReachesAddressedUser(t *testing.T) {
	h := NewHub(discardLogger(), time.Second)
	conn := startConn(t, h, "u1")

	err := h.Publish(context.Background(), []string{"u1", "u-offline"}, Event{
		Type:   EventCallEnded,
		RoomID: "r1",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case data := <-conn.outbound:
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if ev.Type != EventCallEnded || ev.RoomID != "r1" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("no frame delivered")
	}
}

func TestHub_InboundFrameDispatchesToSubscribers(t *testing.T) {
	h := NewHub(discardLogger(), time.Second)

	got := make(chan Event, 1)
	unsub := h.Subscribe(func(_ context.Context, ev Event) {
		got <- ev
	})
	defer unsub()

	conn := startConn(t, h, "u2")
	frame, _ := json.Marshal(Event{Type: EventCallDeclined, RoomID: "r5"})
	conn.inbound <- frame

	select {
	case ev := <-got:
		if ev.Type != EventCallDeclined || ev.RoomID != "r5" {
			t.Fatalf("unexpected event: %+v", ev)
		}
		if ev.InitiatorUserID != "u2" {
			t.Fatalf("expected sender stamp, got %q", ev.InitiatorUserID)
		}
	case <-time.After(time.Second):
		t.Fatalf("event not dispatched")
	}
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	h := NewHub(discardLogger(), time.Second)

	var mu sync.Mutex
	count := 0
	unsub := h.Subscribe(func(_ context.Context, _ Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	unsub()

	conn := startConn(t, h, "u3")
	frame, _ := json.Marshal(Event{Type: EventNewMessage, ConversationID: "c1"})
	conn.inbound <- frame

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if count != 0 {
		t.Fatalf("expected no deliveries after unsubscribe, got %d", count)
	}
}

func TestHub_ContextCancelClosesConnection(t *testing.T) {
	h := NewHub(discardLogger(), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	conn := newFakeConn()
	done := make(chan struct{})
	go func() {
		h.HandleConn(ctx, "u5", conn)
		close(done)
	}()
	waitFor(t, func() bool { return len(h.ConnectedUsers()) == 1 })

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("HandleConn did not return after cancel")
	}
	if len(h.ConnectedUsers()) != 0 {
		t.Fatalf("expected no connected users after cancel")
	}
}

func TestHub_DisconnectRemovesUser(t *testing.T) {
	h := NewHub(discardLogger(), time.Second)
	conn := startConn(t, h, "u4")

	_ = conn.Close()
	waitFor(t, func() bool { return len(h.ConnectedUsers()) == 0 })
}
