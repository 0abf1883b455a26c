// Package repository defines error values that are reused across
// multiple repositories.  These sentinel values let higher layers such
// as the booking service distinguish failure scenarios without
// inspecting SQL errors: ErrNotFound maps to a missing row,
// ErrForbidden to an ownership mismatch discovered at the storage
// layer, and ErrConflict to dependent records blocking a write.
package repository

import "errors"

// ErrNotFound is returned when a booking, hold, room or blockage with
// the requested identifier does not exist.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by someone else, for example cancelling another
// session's hold.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot proceed because of
// conflicting state, such as deleting a room that still has future
// bookings.
var ErrConflict = errors.New("conflict")
