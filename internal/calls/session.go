package calls

import (
	"context"
	"sync"
	"time"

	"telemed-platform/internal/identity"

	"github.com/looplab/fsm"
)

// fsm event names. The transition table is the single source of truth for
// the lifecycle: pending -> active | failed, {pending, active} -> ended.
const (
	evProvisionOK   = "provision_ok"
	evProvisionFail = "provision_fail"
	evEnd           = "end"
)

// Session is one call attempt. The room identifier is the sole correlation
// key for inbound signaling events and never changes once the session
// settles (the provider's echo, when present, is adopted exactly once at
// activation).
type Session struct {
	mu sync.Mutex

	roomID       string
	clinicID     string
	kind         Kind
	caller       identity.ParticipantRef
	counterparty identity.ParticipantRef

	credentials *Credentials
	startedAt   *time.Time
	endedAt     *time.Time
	elapsed     int
	endReason   EndReason

	machine *fsm.FSM
	timer   *DurationTimer
}

func newSession(roomID, clinicID string, kind Kind, caller, counterparty identity.ParticipantRef) *Session {
	return &Session{
		roomID:       roomID,
		clinicID:     clinicID,
		kind:         kind,
		caller:       caller,
		counterparty: counterparty,
		machine: fsm.NewFSM(
			string(StatePending),
			fsm.Events{
				{Name: evProvisionOK, Src: []string{string(StatePending)}, Dst: string(StateActive)},
				{Name: evProvisionFail, Src: []string{string(StatePending)}, Dst: string(StateFailed)},
				{Name: evEnd, Src: []string{string(StatePending), string(StateActive)}, Dst: string(StateEnded)},
			},
			fsm.Callbacks{},
		),
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State(s.machine.Current())
}

func (s *Session) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

func (s *Session) Kind() Kind { return s.kind }

// View snapshots the session for transports.
func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	elapsed := s.elapsed
	if s.timer != nil && State(s.machine.Current()) == StateActive {
		elapsed = s.timer.Elapsed()
	}

	v := SessionView{
		RoomID:         s.roomID,
		ClinicID:       s.clinicID,
		Kind:           s.kind,
		State:          State(s.machine.Current()),
		Caller:         s.caller,
		Counterparty:   s.counterparty,
		StartedAt:      s.startedAt,
		ElapsedSeconds: elapsed,
		EndReason:      s.endReason,
	}
	if s.credentials != nil {
		cred := *s.credentials
		v.Credentials = &cred
	}
	return v
}

// event drives the state machine. Caller must hold s.mu. Returns false
// when the transition is not legal from the current state.
func (s *Session) event(name string) bool {
	return s.machine.Event(context.Background(), name) == nil
}
