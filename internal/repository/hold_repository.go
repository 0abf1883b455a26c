package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/utia/guesthouse-booking/internal/model"
)

// SessionRange is one active hold room/date-range pair together with
// the session that owns it.  The availability resolver uses the
// session to exclude a requester's own holds.
type SessionRange struct {
	HoldID    string
	SessionID string
	RoomID    uint64
	Start     time.Time
	End       time.Time
}

// HoldRepo provides data access to the holds and hold_rooms tables.
// Holds are ephemeral: rows past their expires_at are ignored by every
// query and removed by the periodic sweep.  All expiry comparisons are
// performed against UTC_TIMESTAMP() so application and database clocks
// never disagree.
type HoldRepo struct {
	db *sql.DB
}

// NewHoldRepo returns a new HoldRepo bound to the provided database.
func NewHoldRepo(db *sql.DB) *HoldRepo { return &HoldRepo{db: db} }

// DB exposes the underlying handle for transaction control.
func (r *HoldRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a hold and its room ranges within the provided
// transaction.
func (r *HoldRepo) CreateTx(ctx context.Context, tx *sql.Tx, h *model.Hold) error {
	const q = `INSERT INTO holds (id, session_id, expires_at) VALUES (?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q, h.ID, h.SessionID, h.ExpiresAt.UTC().Format("2006-01-02 15:04:05")); err != nil {
		return err
	}
	if len(h.Rooms) == 0 {
		return nil
	}
	rq := `INSERT INTO hold_rooms (hold_id, room_id, start_date, end_date) VALUES `
	args := make([]interface{}, 0, len(h.Rooms)*4)
	for i, hr := range h.Rooms {
		if i > 0 {
			rq += ","
		}
		rq += "(?, ?, ?, ?)"
		args = append(args, h.ID, hr.RoomID, hr.Start.UTC().Format(dateFormat), hr.End.UTC().Format(dateFormat))
	}
	_, err := tx.ExecContext(ctx, rq, args...)
	return err
}

// GetByID loads a hold with its rooms, ignoring expiry, or returns
// ErrNotFound.
func (r *HoldRepo) GetByID(ctx context.Context, id string) (*model.Hold, error) {
	const q = `SELECT id, session_id, expires_at, created_at FROM holds WHERE id = ?`
	var h model.Hold
	err := r.db.QueryRowContext(ctx, q, id).Scan(&h.ID, &h.SessionID, &h.ExpiresAt, &h.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `SELECT hold_id, room_id, start_date, end_date FROM hold_rooms WHERE hold_id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var hr model.HoldRoom
		if err := rows.Scan(&hr.HoldID, &hr.RoomID, &hr.Start, &hr.End); err != nil {
			return nil, err
		}
		h.Rooms = append(h.Rooms, hr)
	}
	return &h, rows.Err()
}

// DeleteByID removes a single hold.
func (r *HoldRepo) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM holds WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBySession removes every hold owned by the session.  Called
// after a successful commit so the session never blocks itself with
// stale holds.  Deleting nothing is not an error.
func (r *HoldRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM holds WHERE session_id = ?`, sessionID)
	return err
}

// DeleteOwnOverlapsTx removes the session's own hold_rooms rows that
// overlap any of the given room ranges, then drops holds left without
// rooms.  This implements the supersede rule: a new hold on a room the
// session already holds replaces the old one.
func (r *HoldRepo) DeleteOwnOverlapsTx(ctx context.Context, tx *sql.Tx, sessionID string, rooms []model.HoldRoom) error {
	for _, hr := range rooms {
		const q = `DELETE hr FROM hold_rooms hr
				   JOIN holds h ON h.id = hr.hold_id
				   WHERE h.session_id = ? AND hr.room_id = ?
					 AND hr.start_date < ? AND hr.end_date > ?`
		if _, err := tx.ExecContext(ctx, q, sessionID, hr.RoomID,
			hr.End.UTC().Format(dateFormat), hr.Start.UTC().Format(dateFormat)); err != nil {
			return err
		}
	}
	const cleanup = `DELETE FROM holds
					 WHERE session_id = ?
					   AND NOT EXISTS (SELECT 1 FROM hold_rooms hr WHERE hr.hold_id = holds.id)`
	_, err := tx.ExecContext(ctx, cleanup, sessionID)
	return err
}

// holdOverlapQuery selects active hold ranges overlapping a window for
// a set of rooms.
func holdOverlapQuery(roomIDs []uint64) (string, []interface{}) {
	placeholders := make([]string, len(roomIDs))
	args := make([]interface{}, 0, len(roomIDs)+2)
	for i, id := range roomIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}
	q := `SELECT h.id, h.session_id, hr.room_id, hr.start_date, hr.end_date
		  FROM hold_rooms hr
		  JOIN holds h ON h.id = hr.hold_id
		  WHERE hr.room_id IN (` + strings.Join(placeholders, ",") + `)
			AND hr.start_date < ? AND hr.end_date > ?
			AND h.expires_at > UTC_TIMESTAMP()`
	return q, args
}

// OverlappingTx returns every active hold range overlapping [from, to)
// for the given rooms, within the supplied transaction.
func (r *HoldRepo) OverlappingTx(ctx context.Context, tx *sql.Tx, roomIDs []uint64, from, to time.Time) ([]SessionRange, error) {
	if len(roomIDs) == 0 {
		return nil, nil
	}
	q, args := holdOverlapQuery(roomIDs)
	args = append(args, to.UTC().Format(dateFormat), from.UTC().Format(dateFormat))
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSessionRanges(rows)
}

// Overlapping is the lock-free variant used by availability display.
func (r *HoldRepo) Overlapping(ctx context.Context, roomIDs []uint64, from, to time.Time) ([]SessionRange, error) {
	if len(roomIDs) == 0 {
		return nil, nil
	}
	q, args := holdOverlapQuery(roomIDs)
	args = append(args, to.UTC().Format(dateFormat), from.UTC().Format(dateFormat))
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSessionRanges(rows)
}

func scanSessionRanges(rows *sql.Rows) ([]SessionRange, error) {
	var out []SessionRange
	for rows.Next() {
		var sr SessionRange
		if err := rows.Scan(&sr.HoldID, &sr.SessionID, &sr.RoomID, &sr.Start, &sr.End); err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

// ExpireBefore deletes every hold past its expiry and returns how many
// were removed.  The sweep is idempotent: concurrent sweeps and
// commits may interleave freely because deletes of already-deleted
// rows are no-ops.
func (r *HoldRepo) ExpireBefore(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM holds WHERE expires_at <= ?`, now.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
