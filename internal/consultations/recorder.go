package consultations

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"telemed-platform/internal/calls"
)

// Recorder turns call lifecycle notifications into consultation history.
//
// Recording is best-effort: every failure is logged and swallowed. A lost
// history row must never surface as a call-flow error.
type Recorder struct {
	repo  Repository
	log   *slog.Logger
	clock func() time.Time
}

func NewRecorder(repo Repository, log *slog.Logger) *Recorder {
	return &Recorder{repo: repo, log: log, clock: time.Now}
}

func (r *Recorder) CallStarted(ctx context.Context, info calls.CallInfo) {
	rec := Record{
		ID:               uuid.NewString(),
		ClinicID:         info.ClinicID,
		RoomID:           info.RoomID,
		Kind:             info.Kind,
		CallerID:         info.Caller.ID,
		CallerName:       info.Caller.DisplayName,
		CallerRole:       info.Caller.Role,
		CounterpartyID:   info.Counterparty.ID,
		CounterpartyName: info.Counterparty.DisplayName,
		CounterpartyRole: info.Counterparty.Role,
		StartedAt:        info.StartedAt,
		CreatedAt:        r.clock().UTC(),
	}
	if err := r.repo.Create(ctx, rec); err != nil {
		r.log.Warn("consultation record not written",
			"room_id", info.RoomID, "clinic_id", info.ClinicID, "err", err)
	}
}

func (r *Recorder) CallEnded(ctx context.Context, info calls.CallInfo) {
	err := r.repo.Complete(ctx, info.ClinicID, info.RoomID, Completion{
		EndedAt:         r.clock().UTC(),
		DurationSeconds: info.DurationSeconds,
		EndReason:       info.EndReason,
	})
	if err != nil {
		// Calls that failed provisioning end without an open record; that
		// is a normal miss, everything else is worth a warning.
		r.log.Warn("consultation record not completed",
			"room_id", info.RoomID, "clinic_id", info.ClinicID, "err", err)
	}
}

var _ calls.AuditSink = (*Recorder)(nil)
