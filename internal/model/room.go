package model

import "time"

// RoomSize classifies a room by its physical size.  The size class,
// together with the guest's price tier, selects the applicable row in
// the price table.
type RoomSize string

const (
	RoomSmall RoomSize = "small" // small room price class
	RoomLarge RoomSize = "large" // large room price class
)

// Room represents a rentable room in the guesthouse.  The catalog is
// static and read-mostly; only administrators may change it.  Beds
// bounds how many counted guests (adults and children, not toddlers)
// a standard booking may place in the room.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name shown on the calendar (e.g. "12").
//  Size      – size class used for pricing (small/large).
//  Beds      – number of beds; the capacity bound for standard bookings.
//  IsActive  – whether the room is offered for booking.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Room struct {
	ID        uint64    // rooms.id
	Name      string    // rooms.name
	Size      RoomSize  // rooms.size
	Beds      uint32    // rooms.beds
	IsActive  bool      // rooms.is_active
	CreatedAt time.Time // rooms.created_at
	UpdatedAt time.Time // rooms.updated_at
}
