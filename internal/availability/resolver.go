// Package availability combines committed bookings, admin blockages
// and other sessions' holds into per-room, per-day statuses.  The
// resolution itself is pure: repositories load the overlapping ranges
// and the resolver walks nights using the occupancy model.  Display
// paths read lock-free snapshots; the commit path runs the same
// resolution inside the booking transaction over rows read under row
// locks, which is the only place the answer is authoritative.
package availability

import (
	"time"

	"github.com/utia/guesthouse-booking/internal/occupancy"
	"github.com/utia/guesthouse-booking/internal/repository"
)

// HoldRange is an active hold range together with its owning session.
type HoldRange struct {
	SessionID string
	Range     occupancy.DateRange
}

// RoomSource holds everything that occupies nights in one room.
type RoomSource struct {
	Blockages []occupancy.DateRange
	Bookings  []occupancy.DateRange
	Holds     []HoldRange
}

// NightKind resolves what occupies the night starting on the given
// day.  Blockages take precedence over bookings, bookings over holds.
// Holds owned by excludeSession never occupy anything: a hold blocks
// every session except its owner.
func (s RoomSource) NightKind(night time.Time, excludeSession string) occupancy.NightKind {
	for _, r := range s.Blockages {
		if r.ContainsNight(night) {
			return occupancy.NightBlocked
		}
	}
	for _, r := range s.Bookings {
		if r.ContainsNight(night) {
			return occupancy.NightBooked
		}
	}
	for _, h := range s.Holds {
		if h.SessionID == excludeSession {
			continue
		}
		if h.Range.ContainsNight(night) {
			return occupancy.NightHeld
		}
	}
	return occupancy.NightFree
}

// DayStatus resolves a calendar day from its two adjacent nights, the
// night ending on the day and the night starting on it.
func (s RoomSource) DayStatus(day time.Time, excludeSession string) occupancy.DayStatus {
	day = occupancy.Day(day)
	before := s.NightKind(day.AddDate(0, 0, -1), excludeSession)
	after := s.NightKind(day, excludeSession)
	return occupancy.Combine(before, after)
}

// OccupyingRange returns the full range of whatever occupies the given
// night, with the same precedence as NightKind.  Callers report it on
// conflicts so the other side knows which dates to avoid.
func (s RoomSource) OccupyingRange(night time.Time, excludeSession string) (occupancy.DateRange, bool) {
	for _, r := range s.Blockages {
		if r.ContainsNight(night) {
			return r, true
		}
	}
	for _, r := range s.Bookings {
		if r.ContainsNight(night) {
			return r, true
		}
	}
	for _, h := range s.Holds {
		if h.SessionID == excludeSession {
			continue
		}
		if h.Range.ContainsNight(night) {
			return h.Range, true
		}
	}
	return occupancy.DateRange{}, false
}

// FirstConflict returns the first night in the requested range that is
// already occupied, or ok=false when every night is free.  This is the
// conflict checker the commit path aborts on: a single occupied night
// fails the whole attempt.
func (s RoomSource) FirstConflict(r occupancy.DateRange, excludeSession string) (time.Time, bool) {
	for night := r.Start; night.Before(r.End); night = night.AddDate(0, 0, 1) {
		if s.NightKind(night, excludeSession) != occupancy.NightFree {
			return night, true
		}
	}
	return time.Time{}, false
}

// BuildSources groups repository rows into per-room sources for the
// given rooms.  Property-wide blockages (nil RoomID) are expanded over
// every requested room.
func BuildSources(roomIDs []uint64, blockages []repository.BlockageRange, bookings []repository.RoomRange, holds []repository.SessionRange) map[uint64]RoomSource {
	sources := make(map[uint64]RoomSource, len(roomIDs))
	for _, id := range roomIDs {
		sources[id] = RoomSource{}
	}
	for _, b := range blockages {
		r := occupancy.DateRange{Start: occupancy.Day(b.Start), End: occupancy.Day(b.End)}
		if b.RoomID == nil {
			for id, src := range sources {
				src.Blockages = append(src.Blockages, r)
				sources[id] = src
			}
			continue
		}
		if src, ok := sources[*b.RoomID]; ok {
			src.Blockages = append(src.Blockages, r)
			sources[*b.RoomID] = src
		}
	}
	for _, b := range bookings {
		if src, ok := sources[b.RoomID]; ok {
			src.Bookings = append(src.Bookings, occupancy.DateRange{Start: occupancy.Day(b.Start), End: occupancy.Day(b.End)})
			sources[b.RoomID] = src
		}
	}
	for _, h := range holds {
		if src, ok := sources[h.RoomID]; ok {
			src.Holds = append(src.Holds, HoldRange{
				SessionID: h.SessionID,
				Range:     occupancy.DateRange{Start: occupancy.Day(h.Start), End: occupancy.Day(h.End)},
			})
			sources[h.RoomID] = src
		}
	}
	return sources
}
