// Package occupancy defines the night-based occupancy model shared by
// the availability resolver, the conflict checker and the hold store.
// A night is the interval between calendar day D and D+1 and is
// identified by its starting day D.  A stay with start S and end E
// (end exclusive) occupies the nights [S, E-1]; the checkout day E is
// free, so a new stay may begin in the same room on that day.
//
// Exactly one overlap formula exists in this codebase: two ranges
// overlap iff s1 < e2 && e1 > s2.  The strict inequalities are what
// permit back-to-back bookings.
package occupancy

import (
	"fmt"
	"time"
)

// dayFormat is the wire and storage format for calendar days.
const dayFormat = "2006-01-02"

// Day normalizes a timestamp to UTC midnight of its calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string into a UTC midnight timestamp.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(dayFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q: %w", s, err)
	}
	return t.UTC(), nil
}

// FormatDay renders a timestamp as its YYYY-MM-DD calendar day.
func FormatDay(t time.Time) string { return t.UTC().Format(dayFormat) }

// DateRange is a half-open [Start, End) range of calendar days, both
// at UTC midnight.  End is the checkout day and is not occupied.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewRange builds a validated range from two calendar days.
func NewRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: Day(start), End: Day(end)}
	if !r.IsValid() {
		return DateRange{}, fmt.Errorf("invalid range %s..%s", FormatDay(start), FormatDay(end))
	}
	return r, nil
}

// IsValid reports whether the range covers at least one night.
func (r DateRange) IsValid() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && r.Start.Before(r.End)
}

// Nights returns the number of occupied nights in the range.
func (r DateRange) Nights() int {
	if !r.IsValid() {
		return 0
	}
	return int(r.End.Sub(r.Start) / (24 * time.Hour))
}

// ContainsNight reports whether the range occupies the night starting
// on the given day.
func (r DateRange) ContainsNight(day time.Time) bool {
	day = Day(day)
	return !day.Before(r.Start) && day.Before(r.End)
}

// Overlaps reports whether two ranges share at least one night.  The
// strict comparisons make ranges that merely touch (one ending the day
// the other starts) non-overlapping.
func Overlaps(a, b DateRange) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

// NightKind classifies what occupies a single night in one room.  The
// order encodes precedence: blockages shadow bookings, bookings shadow
// holds.
type NightKind int

const (
	NightFree    NightKind = iota // nothing occupies the night
	NightHeld                     // only holds of other sessions
	NightBooked                   // a committed booking
	NightBlocked                  // an admin blockage
)

// Status is the per-day availability presented on the calendar.
type Status string

const (
	StatusAvailable Status = "available" // neither adjacent night occupied
	StatusEdge      Status = "edge"      // exactly one adjacent night occupied
	StatusOccupied  Status = "occupied"  // both nights committed or blocked
	StatusProposed  Status = "proposed"  // both nights held only
)

// DayStatus is the resolved state of one calendar day in one room.
// Mixed marks the two-toned case where one adjacent night is held and
// the other committed.
type DayStatus struct {
	Status Status `json:"status"`
	Mixed  bool   `json:"mixed,omitempty"`
}

// Combine derives the day status from the two adjacent nights: the
// night ending on the day and the night starting on it.
func Combine(before, after NightKind) DayStatus {
	switch {
	case before == NightFree && after == NightFree:
		return DayStatus{Status: StatusAvailable}
	case before == NightFree || after == NightFree:
		return DayStatus{Status: StatusEdge}
	case before == NightHeld && after == NightHeld:
		return DayStatus{Status: StatusProposed}
	case before == NightHeld || after == NightHeld:
		// One night held, the other committed or blocked.
		return DayStatus{Status: StatusEdge, Mixed: true}
	default:
		return DayStatus{Status: StatusOccupied}
	}
}
