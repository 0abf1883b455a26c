package model

import "time"

// PersonType distinguishes guests by age group.  Toddlers never count
// toward room capacity or price.
type PersonType string

const (
	PersonAdult   PersonType = "adult"
	PersonChild   PersonType = "child"
	PersonToddler PersonType = "toddler"
)

// Tier is the guest price class.  Institute guests pay the discounted
// rate, external guests the full rate.
type Tier string

const (
	TierUtia     Tier = "utia"     // discounted institute tier
	TierExternal Tier = "external" // full external tier
)

// Guest is one person attached to a booking.  For standard bookings a
// guest belongs to a specific room; for bulk bookings RoomID is nil and
// the guest belongs to the booking as a whole.
//
// Fields:
//  ID        – primary key identifier.
//  BookingID – owning booking.
//  RoomID    – room the guest is placed in (nil for bulk bookings).
//  Type      – adult, child or toddler.
//  Tier      – price tier applied to this guest.
//  Name      – optional display name.
type Guest struct {
	ID        uint64     // guests.id
	BookingID uint64     // guests.booking_id
	RoomID    *uint64    // guests.room_id (nullable)
	Type      PersonType // guests.person_type
	Tier      Tier       // guests.tier
	Name      string     // guests.name
}

// BookingRoom links a booking to one room together with that room's
// date range.  Start is the check-in day (inclusive) and End the
// checkout day (exclusive); the booking occupies the nights
// [Start, End-1] only, so a new stay may begin on the checkout day.
//
// Fields:
//  BookingID – owning booking.
//  RoomID    – reserved room.
//  Start     – check-in day (inclusive), UTC midnight.
//  End       – checkout day (exclusive), UTC midnight.
type BookingRoom struct {
	BookingID uint64    // booking_rooms.booking_id
	RoomID    uint64    // booking_rooms.room_id
	Start     time.Time // booking_rooms.start_date
	End       time.Time // booking_rooms.end_date
}

// Booking is a committed reservation for one or more rooms.  The edit
// token allows self-service modification and cancellation without a
// login; it must be unguessable.  Once Paid is set, non-admin edits and
// cancellations are rejected; once PriceLocked is set, edits never
// recompute the price.
//
// Fields:
//  ID           – primary key identifier.
//  EditToken    – unguessable token for self-service edit/cancel.
//  GroupID      – shared id for bookings created together as one basket.
//  IsBulk       – true when the booking covers the whole property.
//  Rooms        – per-room date ranges.
//  Guests       – the guest list.
//  TotalPrice   – total in whole currency units, computed at commit.
//  Paid         – payment received; freezes the booking for non-admins.
//  PriceLocked  – prevents price recomputation on subsequent edits.
//  ContactName  – name used on notifications.
//  ContactEmail – address notifications are sent to.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Booking struct {
	ID           uint64        // bookings.id
	EditToken    string        // bookings.edit_token
	GroupID      *string       // bookings.group_id (nullable)
	IsBulk       bool          // bookings.is_bulk
	Rooms        []BookingRoom // booking_rooms rows
	Guests       []Guest       // guests rows
	TotalPrice   int64         // bookings.total_price
	Paid         bool          // bookings.paid
	PriceLocked  bool          // bookings.price_locked
	ContactName  string        // bookings.contact_name
	ContactEmail string        // bookings.contact_email
	CreatedAt    time.Time     // bookings.created_at
	UpdatedAt    time.Time     // bookings.updated_at
}
