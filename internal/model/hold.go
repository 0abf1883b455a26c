package model

import "time"

// HoldRoom is one room/date-range pair inside a hold.
//
// Fields:
//  HoldID – owning hold.
//  RoomID – held room.
//  Start  – first held day (inclusive), UTC midnight.
//  End    – checkout day (exclusive), UTC midnight.
type HoldRoom struct {
	HoldID string    // hold_rooms.hold_id
	RoomID uint64    // hold_rooms.room_id
	Start  time.Time // hold_rooms.start_date
	End    time.Time // hold_rooms.end_date
}

// Hold is a session-scoped proposed booking created while a visitor is
// choosing dates on the calendar.  A hold blocks every session except
// its owner and expires automatically at ExpiresAt; a background sweep
// removes expired rows.  Holds are advisory: the commit path always
// re-validates availability inside the transaction and never trusts a
// hold alone.
//
// Fields:
//  ID        – opaque hold identifier (UUID).
//  SessionID – anonymous browser session that owns the hold.
//  Rooms     – per-room date ranges covered by the hold.
//  ExpiresAt – expiration timestamp.
//  CreatedAt – creation timestamp.
type Hold struct {
	ID        string     // holds.id
	SessionID string     // holds.session_id
	Rooms     []HoldRoom // hold_rooms rows
	ExpiresAt time.Time  // holds.expires_at
	CreatedAt time.Time  // holds.created_at
}
