package calls

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"telemed-platform/internal/identity"
	"telemed-platform/internal/rooms"
	"telemed-platform/internal/signaling"
)

// SlotLimiter is the optional cluster-wide active-call cap. The controller
// always enforces the one-slot-per-kind rule locally; a limiter extends it
// across instances.
type SlotLimiter interface {
	Acquire(ctx context.Context, clinicID, userID string, kind Kind) (bool, error)
	Release(ctx context.Context, clinicID, userID string, kind Kind) error
}

// AuditSink receives best-effort consultation records. Implementations own
// their failure handling; the controller never waits on them and never
// fails a call over them.
type AuditSink interface {
	CallStarted(ctx context.Context, info CallInfo)
	CallEnded(ctx context.Context, info CallInfo)
}

// Config wires a Controller. Provider, Channel and Log are required.
type Config struct {
	Provider rooms.Provider
	Channel  signaling.Channel
	Audit    AuditSink   // optional
	Slots    SlotLimiter // optional
	Log      *slog.Logger

	// Clock and TimerInterval are injectable for deterministic tests.
	Clock         func() time.Time
	TimerInterval time.Duration

	// RoomMode prefixes generated room identifiers.
	RoomMode string
}

// Controller drives call sessions through their lifecycle and mediates
// between API intent and the external provisioning service.
type Controller struct {
	provider rooms.Provider
	channel  signaling.Channel
	audit    AuditSink
	slots    SlotLimiter
	log      *slog.Logger

	clock         func() time.Time
	timerInterval time.Duration
	roomMode      string

	mu     sync.Mutex
	byRoom map[string]*Session
	bySlot map[string]*Session
}

// terminalRetention bounds how long ended/failed sessions stay resolvable
// by room id (they must stay around so late duplicate teardown requests
// remain idempotent no-ops instead of not-found errors).
const terminalRetention = time.Hour

func NewController(cfg Config) (*Controller, error) {
	if cfg.Provider == nil {
		return nil, errors.New("calls: provider is required")
	}
	if cfg.Channel == nil {
		return nil, errors.New("calls: signaling channel is required")
	}
	if cfg.Log == nil {
		return nil, errors.New("calls: logger is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.TimerInterval <= 0 {
		cfg.TimerInterval = time.Second
	}
	if cfg.RoomMode == "" {
		cfg.RoomMode = "tele"
	}

	return &Controller{
		provider:      cfg.Provider,
		channel:       cfg.Channel,
		audit:         cfg.Audit,
		slots:         cfg.Slots,
		log:           cfg.Log,
		clock:         cfg.Clock,
		timerInterval: cfg.TimerInterval,
		roomMode:      cfg.RoomMode,
		byRoom:        make(map[string]*Session),
		bySlot:        make(map[string]*Session),
	}, nil
}

// StartCall resolves both identities, claims the caller's slot for this
// kind, requests a room from the provisioning service and drives the new
// session to active or failed.
//
// Identity resolution is a hard precondition: when either party is
// unresolvable no session is created and no network request is made.
func (c *Controller) StartCall(ctx context.Context, clinicID string, caller, counterparty identity.Entity, kind Kind) (*Session, error) {
	if clinicID == "" || !kind.Valid() {
		return nil, ErrInvalidArgument
	}

	callerRef, err := identity.ResolveRef(caller, "staff")
	if err != nil {
		return nil, err
	}
	counterpartyRef, err := identity.ResolveRef(counterparty, "patient")
	if err != nil {
		return nil, err
	}

	roomID := fmt.Sprintf("%s-%s-%s-%s-%d",
		c.roomMode, kind, callerRef.ID, counterpartyRef.ID, c.clock().UnixMilli())

	s := newSession(roomID, clinicID, kind, callerRef, counterpartyRef)
	slot := slotKey(callerRef.ID, kind)

	c.mu.Lock()
	c.pruneLocked()
	if cur, ok := c.bySlot[slot]; ok && !cur.State().Terminal() {
		c.mu.Unlock()
		return nil, ErrKindBusy
	}
	c.byRoom[roomID] = s
	c.bySlot[slot] = s
	c.mu.Unlock()

	if c.slots != nil {
		ok, serr := c.slots.Acquire(ctx, clinicID, callerRef.ID, kind)
		if serr != nil {
			// Degrade to local-only enforcement rather than blocking calls.
			c.log.Warn("slot acquire failed, local enforcement only", "err", serr)
		} else if !ok {
			c.forget(s, slot)
			return nil, ErrKindBusy
		}
	}

	res, perr := c.provider.CreateRoom(ctx, rooms.CreateRoomRequest{
		RoomID:       roomID,
		FromUsername: callerRef.ID,
		ToUsers: []rooms.RoomUser{
			{Identifier: counterpartyRef.ID, DisplayName: counterpartyRef.DisplayName},
		},
		IsVideo:   kind == KindVideo,
		GroupName: clinicID,
	})
	if perr != nil {
		if !c.failProvision(ctx, s, slot, clinicID, callerRef.ID, kind) {
			// Already ended by a racing hangup; the late failure is moot.
			return s, nil
		}
		return nil, perr
	}

	if !c.activate(s, res) {
		// A hangup won the race while provisioning was in flight. The
		// session is already ended; the remote room is an orphan now.
		orphan := res.RoomID
		if orphan == "" {
			orphan = roomID
		}
		c.detach(ctx, "orphan room teardown", func(dctx context.Context) error {
			return c.provider.DeleteRoom(dctx, rooms.DeleteRoomRequest{RoomID: orphan})
		})
		return s, nil
	}

	if c.audit != nil {
		info := c.infoFor(s)
		c.detach(ctx, "consultation record", func(dctx context.Context) error {
			c.audit.CallStarted(dctx, info)
			return nil
		})
	}
	return s, nil
}

// EndCall ends a tracked session. Idempotent: ending an already-terminal
// session is a no-op.
func (c *Controller) EndCall(ctx context.Context, roomID string, reason EndReason) error {
	s, ok := c.Get(roomID)
	if !ok {
		return ErrNotFound
	}
	c.end(ctx, s, reason)
	return nil
}

// EndRemote satisfies the signaling bridge: force the matching session to
// ended on an out-of-band termination event. Returns false when no tracked
// session carries the room identifier, which is expected for events
// belonging to other call pairs on the shared channel.
func (c *Controller) EndRemote(ctx context.Context, roomID string, declined bool) bool {
	s, ok := c.Get(roomID)
	if !ok {
		return false
	}
	reason := ReasonRemoteEnded
	if declined {
		reason = ReasonRemoteDeclined
	}
	c.end(ctx, s, reason)
	return true
}

// Get returns the session tracked under the room identifier.
func (c *Controller) Get(roomID string) (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.byRoom[roomID]
	return s, ok
}

// ActiveForUser lists the caller's non-terminal sessions, at most one per
// kind.
func (c *Controller) ActiveForUser(userID string) []SessionView {
	c.mu.Lock()
	sessions := make([]*Session, 0, 2)
	for _, kind := range []Kind{KindVideo, KindAudio} {
		if s, ok := c.bySlot[slotKey(userID, kind)]; ok {
			sessions = append(sessions, s)
		}
	}
	c.mu.Unlock()

	out := make([]SessionView, 0, len(sessions))
	for _, s := range sessions {
		if v := s.View(); !v.State.Terminal() {
			out = append(out, v)
		}
	}
	return out
}

/* ===================== internal transitions ===================== */

// activate applies a provisioning success. Returns false when the session
// already left pending (stale-response guard).
func (c *Controller) activate(s *Session, res rooms.CreateRoomResult) bool {
	s.mu.Lock()
	if !s.event(evProvisionOK) {
		s.mu.Unlock()
		return false
	}
	now := c.clock().UTC()
	s.startedAt = &now
	s.credentials = &Credentials{Token: res.Token, ServerURL: res.ServerURL, E2EEKey: res.E2EEKey}
	s.timer = StartDurationTimer(c.timerInterval)

	oldRoom := s.roomID
	if res.RoomID != "" && res.RoomID != s.roomID {
		s.roomID = res.RoomID
	}
	newRoom := s.roomID
	s.mu.Unlock()

	if newRoom != oldRoom {
		c.mu.Lock()
		delete(c.byRoom, oldRoom)
		c.byRoom[newRoom] = s
		c.mu.Unlock()
	}
	return true
}

// failProvision applies a provisioning failure. Returns false when the
// session had already been ended by a racing hangup.
//
// The slot frees immediately so a retry can start, but the session stays
// in byRoom until retention: a hangup against a just-failed room must be
// an idempotent no-op, not a not-found error.
func (c *Controller) failProvision(ctx context.Context, s *Session, slot, clinicID, userID string, kind Kind) bool {
	s.mu.Lock()
	failed := s.event(evProvisionFail)
	if failed {
		now := c.clock().UTC()
		s.endedAt = &now
	}
	s.mu.Unlock()

	if failed {
		c.mu.Lock()
		if c.bySlot[slot] == s {
			delete(c.bySlot, slot)
		}
		c.mu.Unlock()
		c.releaseSlot(ctx, clinicID, userID, kind)
	}
	return failed
}

// end drives a session to ended, stops its timer exactly once, clears
// credentials, frees the slot and emits the termination notice when the
// hangup was local.
func (c *Controller) end(ctx context.Context, s *Session, reason EndReason) {
	s.mu.Lock()
	if !s.event(evEnd) {
		s.mu.Unlock()
		return
	}
	s.endReason = reason
	if s.timer != nil {
		s.elapsed = s.timer.Stop()
	}
	s.credentials = nil
	now := c.clock().UTC()
	s.endedAt = &now

	roomID := s.roomID
	clinicID := s.clinicID
	kind := s.kind
	callerID := s.caller.ID
	counterpartyID := s.counterparty.ID
	s.mu.Unlock()

	c.mu.Lock()
	if c.bySlot[slotKey(callerID, kind)] == s {
		delete(c.bySlot, slotKey(callerID, kind))
	}
	c.mu.Unlock()
	c.releaseSlot(ctx, clinicID, callerID, kind)

	if !reason.remoteInitiated() {
		ev := signaling.Event{
			Type:            signaling.EventCallEnded,
			RoomID:          roomID,
			InitiatorUserID: callerID,
			ParticipantIDs:  []string{callerID, counterpartyID},
		}
		c.detach(ctx, "termination notice", func(dctx context.Context) error {
			return c.channel.Publish(dctx, []string{counterpartyID}, ev)
		})
	}

	if c.audit != nil {
		info := c.infoFor(s)
		c.detach(ctx, "consultation record", func(dctx context.Context) error {
			c.audit.CallEnded(dctx, info)
			return nil
		})
	}
}

// forget drops a session from both indexes, leaving the slot's entry only
// if it still points at this session.
func (c *Controller) forget(s *Session, slot string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byRoom, s.RoomID())
	if c.bySlot[slot] == s {
		delete(c.bySlot, slot)
	}
}

func (c *Controller) releaseSlot(ctx context.Context, clinicID, userID string, kind Kind) {
	if c.slots == nil {
		return
	}
	c.detach(ctx, "slot release", func(dctx context.Context) error {
		return c.slots.Release(dctx, clinicID, userID, kind)
	})
}

// pruneLocked drops terminal sessions past retention. Caller holds c.mu.
func (c *Controller) pruneLocked() {
	cutoff := c.clock().Add(-terminalRetention)
	for room, s := range c.byRoom {
		s.mu.Lock()
		expired := State(s.machine.Current()).Terminal() &&
			s.endedAt != nil && s.endedAt.Before(cutoff)
		s.mu.Unlock()
		if expired {
			delete(c.byRoom, room)
		}
	}
}

func (c *Controller) infoFor(s *Session) CallInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := CallInfo{
		RoomID:          s.roomID,
		ClinicID:        s.clinicID,
		Kind:            s.kind,
		Caller:          s.caller,
		Counterparty:    s.counterparty,
		DurationSeconds: s.elapsed,
		EndReason:       s.endReason,
	}
	if s.startedAt != nil {
		info.StartedAt = *s.startedAt
	}
	return info
}

// detach runs a best-effort side effect off the request path. Failures are
// logged and never surfaced; that is the contract for termination notices,
// consultation records, orphan teardown and slot release.
func (c *Controller) detach(ctx context.Context, what string, fn func(context.Context) error) {
	dctx := context.WithoutCancel(ctx)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				c.log.Error("detached task panicked", "task", what, "panic", p)
			}
		}()
		tctx, cancel := context.WithTimeout(dctx, 10*time.Second)
		defer cancel()
		if err := fn(tctx); err != nil {
			c.log.Warn("detached task failed", "task", what, "err", err)
		}
	}()
}

func slotKey(userID string, kind Kind) string {
	return userID + "/" + string(kind)
}
