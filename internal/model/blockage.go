package model

import "time"

// Blockage is an admin-created unavailability window independent of
// guest bookings, for example maintenance or a private event.  An empty
// RoomIDs slice blocks every room.  Blockages take precedence over both
// bookings and holds when deriving availability.
//
// Fields:
//  ID        – primary key identifier.
//  Start     – first blocked day (inclusive), UTC midnight.
//  End       – day the blockage ends (exclusive), UTC midnight.
//  RoomIDs   – blocked rooms; empty means the whole property.
//  Reason    – free-form note shown to administrators.
//  CreatedAt – creation timestamp.
type Blockage struct {
	ID        uint64    // blockages.id
	Start     time.Time // blockages.start_date
	End       time.Time // blockages.end_date
	RoomIDs   []uint64  // blockage_rooms rows (empty = all rooms)
	Reason    string    // blockages.reason
	CreatedAt time.Time // blockages.created_at
}
