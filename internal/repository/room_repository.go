package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/utia/guesthouse-booking/internal/model"
)

// RoomRepo provides data access to the rooms table.  The room catalog
// is read-mostly; mutations are admin-only and rare.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a new RoomRepo bound to the provided database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions
// that span multiple repositories.
func (r *RoomRepo) DB() *sql.DB { return r.db }

// List returns the room catalog ordered by name.  When activeOnly is
// set, rooms withdrawn from booking are omitted.
func (r *RoomRepo) List(ctx context.Context, activeOnly bool) ([]model.Room, error) {
	q := `SELECT id, name, size, beds, is_active, created_at, updated_at FROM rooms`
	if activeOnly {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Room
	for rows.Next() {
		var m model.Room
		if err := rows.Scan(&m.ID, &m.Name, &m.Size, &m.Beds, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetByID returns a single room or ErrNotFound.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	const q = `SELECT id, name, size, beds, is_active, created_at, updated_at FROM rooms WHERE id = ?`
	var m model.Room
	err := r.db.QueryRowContext(ctx, q, id).Scan(&m.ID, &m.Name, &m.Size, &m.Beds, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a room and populates the generated ID.
func (r *RoomRepo) Create(ctx context.Context, m *model.Room) error {
	const q = `INSERT INTO rooms (name, size, beds, is_active) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.Name, m.Size, m.Beds, m.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// Update rewrites the mutable columns of a room.
func (r *RoomRepo) Update(ctx context.Context, m *model.Room) error {
	const q = `UPDATE rooms SET name = ?, size = ?, beds = ?, is_active = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, m.Name, m.Size, m.Beds, m.IsActive, m.ID)
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

// Delete removes a room.  It returns ErrConflict when the room still
// has booking associations; historical data must not lose its room.
func (r *RoomRepo) Delete(ctx context.Context, id uint64) error {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM booking_rooms WHERE room_id = ?`, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// LockRoomsTx acquires row locks on the given rooms for the duration
// of the transaction (SELECT ... FOR UPDATE).  This serializes the
// check-then-insert sequence of concurrent commits touching the same
// rooms.  It returns the IDs actually found so callers can detect
// unknown rooms.
func (r *RoomRepo) LockRoomsTx(ctx context.Context, tx *sql.Tx, ids []uint64) ([]uint64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	q := `SELECT id FROM rooms WHERE id IN (` + strings.Join(placeholders, ",") + `) ORDER BY id FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var found []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found = append(found, id)
	}
	return found, rows.Err()
}
