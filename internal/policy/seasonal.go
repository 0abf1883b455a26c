// Package policy implements the seasonal date-gated access rules for
// the restricted ("Christmas") period.  The decision logic is pure;
// the per-address attempt limiter for access codes lives in limiter.go.
package policy

import (
	"time"

	"github.com/utia/guesthouse-booking/internal/model"
	"github.com/utia/guesthouse-booking/internal/occupancy"
)

// Violation codes returned by Evaluate.
const (
	CodeRequired  = "access_code_required"
	CodeInvalid   = "access_code_invalid"
	BulkClosed    = "bulk_booking_closed"
	RoomLimit     = "discounted_room_limit"
)

// Violation describes why the policy rejected a booking attempt.
type Violation struct {
	Code    string
	Message string
}

// Decision is the outcome of a successful policy evaluation.  Warning
// carries the non-blocking notice shown when a discounted-tier guest
// takes two rooms.
type Decision struct {
	Warning string
}

// Request carries the facts the policy decides on.
type Request struct {
	Range         occupancy.DateRange // earliest start to latest end of the attempt
	IsBulk        bool
	RoomCount     int
	HasDiscounted bool // any utia-tier guest present
	AccessCode    string
}

// OpenSeasonStart returns the day the open season of the restriction
// year begins.  The cutoff is the day before it.
func OpenSeasonStart(s *model.Settings) time.Time {
	month, dayOfMonth := s.OpenSeason()
	year := time.Now().UTC().Year()
	if s.Restriction != nil {
		year = s.Restriction.Year
	}
	return time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

// Cutoff returns the last day the restricted regime applies.
func Cutoff(s *model.Settings) time.Time {
	return OpenSeasonStart(s).AddDate(0, 0, -1)
}

// NeedsCode reports whether an attempt over the given range would have
// its access code validated: the range touches the restricted period
// and the cutoff has not passed.  Callers use this to apply the
// per-address attempt limit only where a code is actually checked.
func NeedsCode(s *model.Settings, rng occupancy.DateRange, now time.Time) bool {
	r := s.Restriction
	if r == nil {
		return false
	}
	if !occupancy.Overlaps(rng, occupancy.DateRange{Start: r.Start, End: r.End}) {
		return false
	}
	return now.Before(OpenSeasonStart(s))
}

// Evaluate applies the seasonal restriction to a booking attempt.  It
// returns a nil Violation when the attempt may proceed to the normal
// availability checks.
//
// Before the cutoff a valid access code is required for both standard
// and bulk bookings inside the restricted period; discounted-tier
// guests are capped at one room, with two rooms allowed under a
// warning and three or more rejected.  After the cutoff standard
// bookings need no code and bulk bookings are rejected outright.
func Evaluate(s *model.Settings, req Request, now time.Time) (Decision, *Violation) {
	r := s.Restriction
	if r == nil {
		return Decision{}, nil
	}
	period := occupancy.DateRange{Start: r.Start, End: r.End}
	if !occupancy.Overlaps(req.Range, period) {
		return Decision{}, nil
	}

	if !now.Before(OpenSeasonStart(s)) {
		// After the cutoff: open season.  Standard bookings are free of
		// the code requirement, the whole property can no longer be
		// taken as one reservation.
		if req.IsBulk {
			return Decision{}, &Violation{Code: BulkClosed, Message: "bulk bookings are closed for the restricted period"}
		}
		return Decision{}, nil
	}

	// Before the cutoff: every attempt needs a valid code.
	if req.AccessCode == "" {
		return Decision{}, &Violation{Code: CodeRequired, Message: "an access code is required for the restricted period"}
	}
	if !codeKnown(r.AccessCodes, req.AccessCode) {
		return Decision{}, &Violation{Code: CodeInvalid, Message: "unknown access code"}
	}
	if !req.IsBulk && req.HasDiscounted {
		switch {
		case req.RoomCount >= 3:
			return Decision{}, &Violation{Code: RoomLimit, Message: "discounted-tier guests may book at most two rooms in the restricted period"}
		case req.RoomCount == 2:
			return Decision{Warning: "a second room in the restricted period is intended for family-only occupancy"}, nil
		}
	}
	return Decision{}, nil
}

func codeKnown(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}
