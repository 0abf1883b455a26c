package service

import (
	"context"
	"time"

	"github.com/utia/guesthouse-booking/internal/availability"
	"github.com/utia/guesthouse-booking/internal/occupancy"
)

// RoomDay is one room's resolved status for one calendar day.
type RoomDay struct {
	Day    time.Time
	Status occupancy.DayStatus
}

// RoomCalendar is one room's day statuses over a window.
type RoomCalendar struct {
	RoomID uint64
	Days   []RoomDay
}

// AvailabilityService serves the display paths: the calendar and
// single-day lookups.  It reads without locks, so the answers are
// snapshots; only the commit transaction is authoritative.
type AvailabilityService struct {
	rooms     RoomStore
	bookings  BookingStore
	blockages BlockageStore
	holds     HoldStore
}

func NewAvailabilityService(rooms RoomStore, bookings BookingStore, blockages BlockageStore, holds HoldStore) *AvailabilityService {
	return &AvailabilityService{rooms: rooms, bookings: bookings, blockages: blockages, holds: holds}
}

// sources loads every occupying range touching the window for the
// given rooms and groups them per room.
func (s *AvailabilityService) sources(ctx context.Context, roomIDs []uint64, from, to time.Time) (map[uint64]availability.RoomSource, error) {
	booked, err := s.bookings.RangesByRooms(ctx, roomIDs, from, to)
	if err != nil {
		return nil, err
	}
	blocked, err := s.blockages.RangesByRooms(ctx, roomIDs, from, to)
	if err != nil {
		return nil, err
	}
	held, err := s.holds.Overlapping(ctx, roomIDs, from, to)
	if err != nil {
		return nil, err
	}
	return availability.BuildSources(roomIDs, blocked, booked, held), nil
}

// DayStatus resolves one room's status on one day.  Holds owned by
// excludeSession are treated as free so a guest's own pending
// selection never reads as taken.
func (s *AvailabilityService) DayStatus(ctx context.Context, roomID uint64, day time.Time, excludeSession string) (occupancy.DayStatus, error) {
	day = occupancy.Day(day)
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return occupancy.DayStatus{}, mapStoreErr(err, "room", roomID)
	}
	// Both adjacent nights feed the status, so the load window spans
	// one day either side.
	src, err := s.sources(ctx, []uint64{roomID}, day.AddDate(0, 0, -1), day.AddDate(0, 0, 1))
	if err != nil {
		return occupancy.DayStatus{}, err
	}
	return src[roomID].DayStatus(day, excludeSession), nil
}

// Calendar resolves day statuses for every active room over [from,
// to).  This backs the availability grid the booking UI renders.
func (s *AvailabilityService) Calendar(ctx context.Context, from, to time.Time, excludeSession string) ([]RoomCalendar, error) {
	from, to = occupancy.Day(from), occupancy.Day(to)
	if !to.After(from) {
		return nil, &ValidationError{Field: "range", Message: "empty calendar window"}
	}
	rooms, err := s.rooms.List(ctx, true)
	if err != nil {
		return nil, err
	}
	roomIDs := make([]uint64, 0, len(rooms))
	for _, r := range rooms {
		roomIDs = append(roomIDs, r.ID)
	}
	sources, err := s.sources(ctx, roomIDs, from.AddDate(0, 0, -1), to)
	if err != nil {
		return nil, err
	}
	out := make([]RoomCalendar, 0, len(rooms))
	for _, r := range rooms {
		cal := RoomCalendar{RoomID: r.ID}
		src := sources[r.ID]
		for day := from; day.Before(to); day = day.AddDate(0, 0, 1) {
			cal.Days = append(cal.Days, RoomDay{Day: day, Status: src.DayStatus(day, excludeSession)})
		}
		out = append(out, cal)
	}
	return out, nil
}
