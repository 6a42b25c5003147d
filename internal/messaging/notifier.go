package messaging

import (
	"context"
	"log/slog"
	"sync"

	"telemed-platform/internal/signaling"
)

// Notifier drives the message refresh path: when a new_message event
// arrives on the shared channel it forwards a refresh notice to the other
// conversation participants and tracks per-conversation unread counts for
// users who were not looking at the conversation.
//
// Message content never passes through this package; clients re-fetch the
// conversation on a refresh notice. The payload is forwarded opaquely.
type Notifier struct {
	ch  signaling.Channel
	log *slog.Logger

	mu     sync.Mutex
	unread map[string]map[string]int // userID -> conversationID -> count
}

func NewNotifier(ch signaling.Channel, log *slog.Logger) *Notifier {
	return &Notifier{
		ch:     ch,
		log:    log,
		unread: make(map[string]map[string]int),
	}
}

// NewMessage handles one inbound new_message event.
func (n *Notifier) NewMessage(ctx context.Context, conversationID string, ev signaling.Event) {
	if conversationID == "" {
		n.log.Warn("new_message without conversationId ignored")
		return
	}

	recipients := make([]string, 0, len(ev.ParticipantIDs))
	for _, id := range ev.ParticipantIDs {
		if id == "" || id == ev.InitiatorUserID {
			continue
		}
		recipients = append(recipients, id)
	}
	if len(recipients) == 0 {
		return
	}

	n.mu.Lock()
	for _, id := range recipients {
		if n.unread[id] == nil {
			n.unread[id] = make(map[string]int)
		}
		n.unread[id][conversationID]++
	}
	n.mu.Unlock()

	if err := n.ch.Publish(ctx, recipients, ev); err != nil {
		n.log.Warn("message refresh notice not delivered",
			"conversation_id", conversationID, "err", err)
	}
}

// UnreadCounts returns the user's per-conversation unread counters.
func (n *Notifier) UnreadCounts(userID string) map[string]int {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make(map[string]int, len(n.unread[userID]))
	for conv, c := range n.unread[userID] {
		out[conv] = c
	}
	return out
}

// MarkRead clears the user's unread counter for a conversation.
func (n *Notifier) MarkRead(userID, conversationID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if convs := n.unread[userID]; convs != nil {
		delete(convs, conversationID)
		if len(convs) == 0 {
			delete(n.unread, userID)
		}
	}
}

var _ signaling.MessageNotifier = (*Notifier)(nil)
