// Package queue defines message payloads exchanged over the message broker
// and the background consumer that processes them.
package queue

import (
	"time"

	"github.com/utia/guesthouse-booking/internal/model"
	"github.com/utia/guesthouse-booking/internal/occupancy"
)

// Event kinds published to the booking.events queue.
const (
	EventConfirmed = "confirmed"
	EventModified  = "modified"
	EventDeleted   = "deleted"
)

// EventRoom is one room's stay window within a booking event.
type EventRoom struct {
	RoomID uint64 `json:"room_id"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

// BookingEvent is published whenever a booking is confirmed, modified
// or deleted. It contains enough information for downstream consumers
// to log or notify without querying the primary database.
type BookingEvent struct {
	Kind         string      `json:"kind"`
	BookingID    uint64      `json:"booking_id"`
	IsBulk       bool        `json:"is_bulk"`
	Rooms        []EventRoom `json:"rooms"`
	Adults       int         `json:"adults"`
	Children     int         `json:"children"`
	Toddlers     int         `json:"toddlers"`
	TotalPrice   int64       `json:"total_price"`
	ContactName  string      `json:"contact_name"`
	ContactEmail string      `json:"contact_email"`
	Changes      []string    `json:"changes,omitempty"`
	OccurredAt   string      `json:"occurred_at"`
}

// NewBookingEvent flattens a booking into its event payload.
func NewBookingEvent(kind string, b *model.Booking, changes []string) BookingEvent {
	ev := BookingEvent{
		Kind:         kind,
		BookingID:    b.ID,
		IsBulk:       b.IsBulk,
		TotalPrice:   b.TotalPrice,
		ContactName:  b.ContactName,
		ContactEmail: b.ContactEmail,
		Changes:      changes,
		OccurredAt:   time.Now().UTC().Format(time.RFC3339),
	}
	for _, r := range b.Rooms {
		ev.Rooms = append(ev.Rooms, EventRoom{
			RoomID: r.RoomID,
			Start:  occupancy.FormatDay(r.Start),
			End:    occupancy.FormatDay(r.End),
		})
	}
	for _, g := range b.Guests {
		switch g.Type {
		case model.PersonAdult:
			ev.Adults++
		case model.PersonChild:
			ev.Children++
		case model.PersonToddler:
			ev.Toddlers++
		}
	}
	return ev
}
