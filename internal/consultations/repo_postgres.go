package consultations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"telemed-platform/internal/calls"
	"telemed-platform/pkg/utils"
)

// PostgresRepo persists consultation history in Postgres via database/sql
// (pgx stdlib driver). Schema:
//
//	CREATE TABLE consultations (
//	    id                TEXT PRIMARY KEY,
//	    clinic_id         TEXT NOT NULL,
//	    room_id           TEXT NOT NULL,
//	    kind              TEXT NOT NULL,
//	    caller_id         TEXT NOT NULL,
//	    caller_name       TEXT NOT NULL,
//	    caller_role       TEXT NOT NULL,
//	    counterparty_id   TEXT NOT NULL,
//	    counterparty_name TEXT NOT NULL,
//	    counterparty_role TEXT NOT NULL,
//	    started_at        TIMESTAMPTZ NOT NULL,
//	    ended_at          TIMESTAMPTZ,
//	    duration_seconds  INT NOT NULL DEFAULT 0,
//	    end_reason        TEXT NOT NULL DEFAULT '',
//	    created_at        TIMESTAMPTZ NOT NULL
//	);
//	CREATE UNIQUE INDEX consultations_room_uq ON consultations (clinic_id, room_id);
//	CREATE INDEX consultations_clinic_started ON consultations (clinic_id, started_at DESC);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Create(ctx context.Context, rec Record) error {
	if rec.ID == "" || rec.ClinicID == "" || rec.RoomID == "" {
		return ErrInvalidRecord
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO consultations (
			id, clinic_id, room_id, kind,
			caller_id, caller_name, caller_role,
			counterparty_id, counterparty_name, counterparty_role,
			started_at, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (clinic_id, room_id) DO NOTHING`,
		rec.ID, rec.ClinicID, rec.RoomID, rec.Kind,
		rec.CallerID, rec.CallerName, rec.CallerRole,
		rec.CounterpartyID, rec.CounterpartyName, rec.CounterpartyRole,
		rec.StartedAt, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("consultations: create: %w", err)
	}
	return nil
}

// Complete closes the open record for the room. Runs in a transaction so
// the open-record check and the update observe the same row.
func (r *PostgresRepo) Complete(ctx context.Context, clinicID, roomID string, c Completion) error {
	return utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE consultations
			SET ended_at = $1, duration_seconds = $2, end_reason = $3
			WHERE clinic_id = $4 AND room_id = $5 AND ended_at IS NULL`,
			c.EndedAt, c.DurationSeconds, string(c.EndReason), clinicID, roomID,
		)
		if err != nil {
			return fmt.Errorf("consultations: complete: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("consultations: complete: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *PostgresRepo) ListByClinic(ctx context.Context, clinicID string, limit int) ([]Record, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, clinic_id, room_id, kind,
		       caller_id, caller_name, caller_role,
		       counterparty_id, counterparty_name, counterparty_role,
		       started_at, ended_at, duration_seconds, end_reason, created_at
		FROM consultations
		WHERE clinic_id = $1
		ORDER BY started_at DESC
		LIMIT $2`, clinicID, limit)
	if err != nil {
		return nil, fmt.Errorf("consultations: list: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) FindByRoom(ctx context.Context, clinicID, roomID string) (Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, clinic_id, room_id, kind,
		       caller_id, caller_name, caller_role,
		       counterparty_id, counterparty_name, counterparty_role,
		       started_at, ended_at, duration_seconds, end_reason, created_at
		FROM consultations
		WHERE clinic_id = $1 AND room_id = $2`, clinicID, roomID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var endedAt sql.NullTime
	var endReason string
	err := row.Scan(
		&rec.ID, &rec.ClinicID, &rec.RoomID, &rec.Kind,
		&rec.CallerID, &rec.CallerName, &rec.CallerRole,
		&rec.CounterpartyID, &rec.CounterpartyName, &rec.CounterpartyRole,
		&rec.StartedAt, &endedAt, &rec.DurationSeconds, &endReason, &rec.CreatedAt,
	)
	if err != nil {
		return Record{}, err
	}
	if endedAt.Valid {
		t := endedAt.Time
		rec.EndedAt = &t
	}
	rec.EndReason = calls.EndReason(endReason)
	return rec, nil
}
