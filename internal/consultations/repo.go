package consultations

import (
	"context"
	"sort"
	"sync"
	"time"

	"telemed-platform/internal/calls"
)

// Completion carries the terminal facts applied to an open record.
type Completion struct {
	EndedAt         time.Time
	DurationSeconds int
	EndReason       calls.EndReason
}

// Repository is the persistence contract for consultation history.
type Repository interface {
	Create(ctx context.Context, rec Record) error
	Complete(ctx context.Context, clinicID, roomID string, c Completion) error
	ListByClinic(ctx context.Context, clinicID string, limit int) ([]Record, error)
	FindByRoom(ctx context.Context, clinicID, roomID string) (Record, error)
}

// MemoryRepo is an in-memory Repository for tests.
// It is not intended for production use.
type MemoryRepo struct {
	mu      sync.Mutex
	records []Record
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Create(ctx context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *MemoryRepo) Complete(ctx context.Context, clinicID, roomID string, c Completion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.records {
		rec := &r.records[i]
		if rec.ClinicID == clinicID && rec.RoomID == roomID && rec.EndedAt == nil {
			ended := c.EndedAt
			rec.EndedAt = &ended
			rec.DurationSeconds = c.DurationSeconds
			rec.EndReason = c.EndReason
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryRepo) ListByClinic(ctx context.Context, clinicID string, limit int) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, 0)
	for _, rec := range r.records {
		if rec.ClinicID == clinicID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) FindByRoom(ctx context.Context, clinicID, roomID string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ClinicID == clinicID && rec.RoomID == roomID {
			return rec, nil
		}
	}
	return Record{}, ErrNotFound
}

// Records returns a copy of everything stored so far.
func (r *MemoryRepo) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

var _ Repository = (*MemoryRepo)(nil)
