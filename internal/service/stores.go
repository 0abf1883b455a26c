package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/utia/guesthouse-booking/internal/model"
	"github.com/utia/guesthouse-booking/internal/repository"
)

// The service layer talks to storage through narrow interfaces so the
// decision logic can be exercised against in-memory fakes.  The
// repository types satisfy them directly.

// RoomStore reads the room catalog and takes the per-room row locks
// that serialize concurrent commits.
type RoomStore interface {
	List(ctx context.Context, activeOnly bool) ([]model.Room, error)
	GetByID(ctx context.Context, id uint64) (*model.Room, error)
	LockRoomsTx(ctx context.Context, tx *sql.Tx, ids []uint64) ([]uint64, error)
}

// BookingStore persists bookings and answers overlap queries.
type BookingStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error
	UpdateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error
	DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	List(ctx context.Context) ([]model.Booking, error)
	RangesByRoomsTx(ctx context.Context, tx *sql.Tx, roomIDs []uint64, from, to time.Time, excludeBookingID uint64) ([]repository.RoomRange, error)
	RangesByRooms(ctx context.Context, roomIDs []uint64, from, to time.Time) ([]repository.RoomRange, error)
}

// BlockageStore answers blockage overlap queries.
type BlockageStore interface {
	RangesByRoomsTx(ctx context.Context, tx *sql.Tx, roomIDs []uint64, from, to time.Time) ([]repository.BlockageRange, error)
	RangesByRooms(ctx context.Context, roomIDs []uint64, from, to time.Time) ([]repository.BlockageRange, error)
}

// HoldStore persists session-scoped holds.
type HoldStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, h *model.Hold) error
	GetByID(ctx context.Context, id string) (*model.Hold, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteBySession(ctx context.Context, sessionID string) error
	DeleteOwnOverlapsTx(ctx context.Context, tx *sql.Tx, sessionID string, rooms []model.HoldRoom) error
	OverlappingTx(ctx context.Context, tx *sql.Tx, roomIDs []uint64, from, to time.Time) ([]repository.SessionRange, error)
	Overlapping(ctx context.Context, roomIDs []uint64, from, to time.Time) ([]repository.SessionRange, error)
	ExpireBefore(ctx context.Context, now time.Time) (int64, error)
}

// SettingsStore loads the validated settings record.
type SettingsStore interface {
	Get(ctx context.Context) (*model.Settings, error)
}

// Notifier dispatches booking notifications after commit.  All calls
// are fire-and-forget: implementations log failures and never return
// them into the request path.
type Notifier interface {
	BookingConfirmed(ctx context.Context, b *model.Booking)
	BookingModified(ctx context.Context, b *model.Booking, changes []string)
	BookingDeleted(ctx context.Context, b *model.Booking)
}

// CodeGate bounds access-code validation attempts per client address.
// policy.CodeLimiter implements it; tests substitute fakes.
type CodeGate interface {
	Allow(ctx context.Context, addr string) bool
	Reset(ctx context.Context, addr string)
}
