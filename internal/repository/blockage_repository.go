package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/utia/guesthouse-booking/internal/model"
)

// BlockageRange is one blockage/room/date-range triple.  RoomID is nil
// when the blockage covers the whole property; callers expand it over
// the room set they are resolving.
type BlockageRange struct {
	BlockageID uint64
	RoomID     *uint64
	Start      time.Time
	End        time.Time
}

// BlockageRepo provides data access to admin blockages and their room
// associations.
type BlockageRepo struct {
	db *sql.DB
}

// NewBlockageRepo returns a new BlockageRepo bound to the database.
func NewBlockageRepo(db *sql.DB) *BlockageRepo { return &BlockageRepo{db: db} }

// Create inserts a blockage with its room subset.  An empty RoomIDs
// slice stores no association rows, which means every room.
func (r *BlockageRepo) Create(ctx context.Context, b *model.Blockage) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO blockages (start_date, end_date, reason) VALUES (?, ?, ?)`,
		b.Start.UTC().Format(dateFormat), b.End.UTC().Format(dateFormat), b.Reason)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	if len(b.RoomIDs) == 0 {
		return nil
	}
	q := `INSERT INTO blockage_rooms (blockage_id, room_id) VALUES `
	args := make([]interface{}, 0, len(b.RoomIDs)*2)
	for i, rid := range b.RoomIDs {
		if i > 0 {
			q += ","
		}
		q += "(?, ?)"
		args = append(args, b.ID, rid)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	return err
}

// Delete removes a blockage; blockage_rooms cascade.
func (r *BlockageRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blockages WHERE id = ?`, id)
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

// List returns all blockages with their room subsets, newest first.
func (r *BlockageRepo) List(ctx context.Context) ([]model.Blockage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, start_date, end_date, reason, created_at FROM blockages ORDER BY start_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Blockage
	index := make(map[uint64]int)
	for rows.Next() {
		var b model.Blockage
		if err := rows.Scan(&b.ID, &b.Start, &b.End, &b.Reason, &b.CreatedAt); err != nil {
			return nil, err
		}
		index[b.ID] = len(out)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}
	brows, err := r.db.QueryContext(ctx, `SELECT blockage_id, room_id FROM blockage_rooms`)
	if err != nil {
		return nil, err
	}
	defer brows.Close()
	for brows.Next() {
		var bid, rid uint64
		if err := brows.Scan(&bid, &rid); err != nil {
			return nil, err
		}
		if i, ok := index[bid]; ok {
			out[i].RoomIDs = append(out[i].RoomIDs, rid)
		}
	}
	return out, brows.Err()
}

// RangesByRooms returns every blockage range that overlaps [from, to)
// and applies to at least one of the given rooms.  Property-wide
// blockages (no association rows) are returned with a nil RoomID.
func (r *BlockageRepo) RangesByRooms(ctx context.Context, roomIDs []uint64, from, to time.Time) ([]BlockageRange, error) {
	if len(roomIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(roomIDs))
	args := []interface{}{to.UTC().Format(dateFormat), from.UTC().Format(dateFormat)}
	for i, id := range roomIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}
	q := `SELECT b.id, br.room_id, b.start_date, b.end_date
		  FROM blockages b
		  LEFT JOIN blockage_rooms br ON br.blockage_id = b.id
		  WHERE b.start_date < ? AND b.end_date > ?
			AND (br.room_id IS NULL OR br.room_id IN (` + strings.Join(placeholders, ",") + `))`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BlockageRange
	for rows.Next() {
		var br BlockageRange
		var roomID sql.NullInt64
		if err := rows.Scan(&br.BlockageID, &roomID, &br.Start, &br.End); err != nil {
			return nil, err
		}
		if roomID.Valid {
			rid := uint64(roomID.Int64)
			br.RoomID = &rid
		}
		out = append(out, br)
	}
	return out, rows.Err()
}

// RangesByRoomsTx is the transactional variant used inside the commit
// unit.
func (r *BlockageRepo) RangesByRoomsTx(ctx context.Context, tx *sql.Tx, roomIDs []uint64, from, to time.Time) ([]BlockageRange, error) {
	if len(roomIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(roomIDs))
	args := []interface{}{to.UTC().Format(dateFormat), from.UTC().Format(dateFormat)}
	for i, id := range roomIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}
	q := `SELECT b.id, br.room_id, b.start_date, b.end_date
		  FROM blockages b
		  LEFT JOIN blockage_rooms br ON br.blockage_id = b.id
		  WHERE b.start_date < ? AND b.end_date > ?
			AND (br.room_id IS NULL OR br.room_id IN (` + strings.Join(placeholders, ",") + `))`
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BlockageRange
	for rows.Next() {
		var br BlockageRange
		var roomID sql.NullInt64
		if err := rows.Scan(&br.BlockageID, &roomID, &br.Start, &br.End); err != nil {
			return nil, err
		}
		if roomID.Valid {
			rid := uint64(roomID.Int64)
			br.RoomID = &rid
		}
		out = append(out, br)
	}
	return out, rows.Err()
}
