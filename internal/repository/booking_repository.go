package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/utia/guesthouse-booking/internal/model"
)

// dateFormat is how DATE columns are written; with parseTime=true the
// driver scans them back into time.Time at UTC midnight.
const dateFormat = "2006-01-02"

// RoomRange is one committed room/date-range pair, the unit the
// conflict checker works over.
type RoomRange struct {
	BookingID uint64
	RoomID    uint64
	Start     time.Time
	End       time.Time
}

// BookingRepo provides CRUD operations for bookings, their per-room
// date ranges (booking_rooms) and their guest lists (guests).  All
// write paths that interact with availability run inside a caller
// supplied transaction so the conflict check and the insert form one
// atomic unit.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle for transaction control.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a booking with its room ranges and guests within
// the provided transaction.  It populates the generated ID and the
// database-assigned timestamps on the passed record.  The caller must
// commit or roll back.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (edit_token, group_id, is_bulk, total_price, paid, price_locked, contact_name, contact_email)
			   VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.EditToken, b.GroupID, b.IsBulk, b.TotalPrice, b.Paid, b.PriceLocked, b.ContactName, b.ContactEmail)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	if err := r.insertRoomsTx(ctx, tx, b.ID, b.Rooms); err != nil {
		return err
	}
	if err := r.insertGuestsTx(ctx, tx, b.ID, b.Guests); err != nil {
		return err
	}
	const sel = `SELECT created_at, updated_at FROM bookings WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, b.ID).Scan(&b.CreatedAt, &b.UpdatedAt)
}

func (r *BookingRepo) insertRoomsTx(ctx context.Context, tx *sql.Tx, bookingID uint64, rooms []model.BookingRoom) error {
	if len(rooms) == 0 {
		return nil
	}
	q := `INSERT INTO booking_rooms (booking_id, room_id, start_date, end_date) VALUES `
	args := make([]interface{}, 0, len(rooms)*4)
	for i, br := range rooms {
		if i > 0 {
			q += ","
		}
		q += "(?, ?, ?, ?)"
		args = append(args, bookingID, br.RoomID, br.Start.UTC().Format(dateFormat), br.End.UTC().Format(dateFormat))
	}
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

func (r *BookingRepo) insertGuestsTx(ctx context.Context, tx *sql.Tx, bookingID uint64, guests []model.Guest) error {
	if len(guests) == 0 {
		return nil
	}
	q := `INSERT INTO guests (booking_id, room_id, person_type, tier, name) VALUES `
	args := make([]interface{}, 0, len(guests)*5)
	for i, g := range guests {
		if i > 0 {
			q += ","
		}
		q += "(?, ?, ?, ?, ?)"
		args = append(args, bookingID, g.RoomID, g.Type, g.Tier, g.Name)
	}
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

// UpdateTx rewrites a booking's mutable columns and replaces its room
// ranges and guest list.  Replacement keeps the write path simple and
// the whole change sits inside one transaction anyway.
func (r *BookingRepo) UpdateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `UPDATE bookings SET total_price = ?, paid = ?, price_locked = ?, contact_name = ?, contact_email = ? WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, b.TotalPrice, b.Paid, b.PriceLocked, b.ContactName, b.ContactEmail, b.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	_ = n // zero affected rows is fine when only associations changed
	if _, err := tx.ExecContext(ctx, `DELETE FROM booking_rooms WHERE booking_id = ?`, b.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM guests WHERE booking_id = ?`, b.ID); err != nil {
		return err
	}
	if err := r.insertRoomsTx(ctx, tx, b.ID, b.Rooms); err != nil {
		return err
	}
	return r.insertGuestsTx(ctx, tx, b.ID, b.Guests)
}

// DeleteTx removes a booking; booking_rooms and guests cascade via
// foreign keys.
func (r *BookingRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
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

// GetByID loads a booking with its room ranges and guests, or
// ErrNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT id, edit_token, group_id, is_bulk, total_price, paid, price_locked, contact_name, contact_email, created_at, updated_at
			   FROM bookings WHERE id = ?`
	var b model.Booking
	var groupID sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&b.ID, &b.EditToken, &groupID, &b.IsBulk, &b.TotalPrice, &b.Paid, &b.PriceLocked,
		&b.ContactName, &b.ContactEmail, &b.CreatedAt, &b.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if groupID.Valid {
		g := groupID.String
		b.GroupID = &g
	}
	if b.Rooms, err = r.roomsFor(ctx, b.ID); err != nil {
		return nil, err
	}
	if b.Guests, err = r.guestsFor(ctx, b.ID); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepo) roomsFor(ctx context.Context, bookingID uint64) ([]model.BookingRoom, error) {
	const q = `SELECT booking_id, room_id, start_date, end_date FROM booking_rooms WHERE booking_id = ? ORDER BY room_id`
	rows, err := r.db.QueryContext(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.BookingRoom
	for rows.Next() {
		var br model.BookingRoom
		if err := rows.Scan(&br.BookingID, &br.RoomID, &br.Start, &br.End); err != nil {
			return nil, err
		}
		out = append(out, br)
	}
	return out, rows.Err()
}

func (r *BookingRepo) guestsFor(ctx context.Context, bookingID uint64) ([]model.Guest, error) {
	const q = `SELECT id, booking_id, room_id, person_type, tier, name FROM guests WHERE booking_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Guest
	for rows.Next() {
		var g model.Guest
		var roomID sql.NullInt64
		if err := rows.Scan(&g.ID, &g.BookingID, &roomID, &g.Type, &g.Tier, &g.Name); err != nil {
			return nil, err
		}
		if roomID.Valid {
			rid := uint64(roomID.Int64)
			g.RoomID = &rid
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// List returns all bookings newest first, without associations.  Used
// by the admin listing; details are loaded per booking on demand.
func (r *BookingRepo) List(ctx context.Context) ([]model.Booking, error) {
	const q = `SELECT id, edit_token, group_id, is_bulk, total_price, paid, price_locked, contact_name, contact_email, created_at, updated_at
			   FROM bookings ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Booking
	for rows.Next() {
		var b model.Booking
		var groupID sql.NullString
		if err := rows.Scan(&b.ID, &b.EditToken, &groupID, &b.IsBulk, &b.TotalPrice, &b.Paid, &b.PriceLocked,
			&b.ContactName, &b.ContactEmail, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		if groupID.Valid {
			g := groupID.String
			b.GroupID = &g
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// rangesQuery builds the overlap query against booking_rooms.  The
// overlap predicate mirrors the occupancy model: start < windowEnd AND
// end > windowStart, end exclusive.
func rangesQuery(roomIDs []uint64, excludeBookingID uint64) (string, []interface{}) {
	placeholders := make([]string, len(roomIDs))
	args := make([]interface{}, 0, len(roomIDs)+3)
	for i, id := range roomIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}
	q := `SELECT booking_id, room_id, start_date, end_date
		  FROM booking_rooms
		  WHERE room_id IN (` + strings.Join(placeholders, ",") + `)
			AND start_date < ? AND end_date > ?`
	if excludeBookingID != 0 {
		q += ` AND booking_id <> ?`
	}
	return q, args
}

// RangesByRoomsTx returns every committed room range overlapping the
// [from, to) window for the given rooms, read within the supplied
// transaction so the result is consistent with the row locks taken by
// LockRoomsTx.  excludeBookingID omits one booking's own ranges, which
// the edit path needs so a booking never conflicts with itself.
func (r *BookingRepo) RangesByRoomsTx(ctx context.Context, tx *sql.Tx, roomIDs []uint64, from, to time.Time, excludeBookingID uint64) ([]RoomRange, error) {
	if len(roomIDs) == 0 {
		return nil, nil
	}
	q, args := rangesQuery(roomIDs, excludeBookingID)
	args = append(args, to.UTC().Format(dateFormat), from.UTC().Format(dateFormat))
	if excludeBookingID != 0 {
		args = append(args, excludeBookingID)
	}
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRoomRanges(rows)
}

// RangesByRooms is the lock-free variant used by availability display.
func (r *BookingRepo) RangesByRooms(ctx context.Context, roomIDs []uint64, from, to time.Time) ([]RoomRange, error) {
	if len(roomIDs) == 0 {
		return nil, nil
	}
	q, args := rangesQuery(roomIDs, 0)
	args = append(args, to.UTC().Format(dateFormat), from.UTC().Format(dateFormat))
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRoomRanges(rows)
}

func scanRoomRanges(rows *sql.Rows) ([]RoomRange, error) {
	var out []RoomRange
	for rows.Next() {
		var rr RoomRange
		if err := rows.Scan(&rr.BookingID, &rr.RoomID, &rr.Start, &rr.End); err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}
