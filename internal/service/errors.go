package service

import (
	"fmt"
	"time"

	"github.com/utia/guesthouse-booking/internal/occupancy"
)

// The booking engine reports failures as typed, structured errors so
// handlers can map them to responses and callers can react (re-query
// on conflict, fix input on validation) without parsing messages.
// Every error raised inside the atomic check-and-insert unit rolls the
// whole transaction back; partial writes cannot happen.

// ValidationError marks malformed or out-of-range input, rejected
// before any transaction is opened.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// ConflictError marks an availability conflict at commit or
// hold-creation time.  RoomID and Night name the offending room and
// the first conflicting night so the caller can re-query and retry.
// On hold conflicts Range carries the occupying reservation's full
// date range so the caller can see which dates to avoid.
type ConflictError struct {
	RoomID uint64
	Night  time.Time
	Range  *occupancy.DateRange
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: room %d, night %s", e.RoomID, occupancy.FormatDay(e.Night))
}

// ForbiddenError marks an edit or delete outside the allowed window,
// on a paid booking, or with an invalid edit token or admin context.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string { return "forbidden: " + e.Reason }

// PolicyError marks a seasonal-access violation: a missing or invalid
// code, a blocked bulk booking, an exceeded discounted-tier room
// count, or too many code attempts.
type PolicyError struct {
	Code    string
	Message string
}

func (e *PolicyError) Error() string { return "policy: " + e.Code + ": " + e.Message }

// NotFoundError marks an unknown booking, hold, room or blockage id.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string { return e.Resource + " " + e.ID + " not found" }
