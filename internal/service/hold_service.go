package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/utia/guesthouse-booking/internal/availability"
	"github.com/utia/guesthouse-booking/internal/model"
	"github.com/utia/guesthouse-booking/internal/occupancy"
	"github.com/utia/guesthouse-booking/internal/repository"
)

// HoldRequest asks for a temporary reservation of room nights on
// behalf of one browsing session.
type HoldRequest struct {
	SessionID string
	Rooms     map[uint64]occupancy.DateRange
}

// HoldService manages session-scoped holds.  A new hold supersedes the
// session's earlier holds on any overlapping room nights, so clicking
// through dates never makes a session conflict with itself.
type HoldService struct {
	db    *sql.DB
	rooms RoomStore
	holds HoldStore

	ttl time.Duration
	now func() time.Time
}

func NewHoldService(db *sql.DB, rooms RoomStore, holds HoldStore, ttl time.Duration) *HoldService {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &HoldService{
		db:    db,
		rooms: rooms,
		holds: holds,
		ttl:   ttl,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// CreateHold places a hold after checking the requested nights against
// bookings, blockages and other sessions' holds.  The check and the
// insert run in one transaction under the same room locks the commit
// path takes.
func (s *HoldService) CreateHold(ctx context.Context, req HoldRequest, bookings BookingStore, blockages BlockageStore) (*model.Hold, error) {
	if req.SessionID == "" {
		return nil, &ValidationError{Field: "session_id", Message: "required"}
	}
	if len(req.Rooms) == 0 {
		return nil, &ValidationError{Field: "rooms", Message: "at least one room is required"}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	hold, err := s.buildHoldTx(ctx, tx, req, bookings, blockages)
	if err != nil {
		return nil, err
	}
	if err := s.holds.CreateTx(ctx, tx, hold); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return hold, nil
}

// buildHoldTx validates the requested rooms, locks them, supersedes
// the session's own overlapping holds and runs the conflict check,
// returning the hold ready to insert.
func (s *HoldService) buildHoldTx(ctx context.Context, tx *sql.Tx, req HoldRequest, bookings BookingStore, blockages BlockageStore) (*model.Hold, error) {
	roomIDs := make([]uint64, 0, len(req.Rooms))
	var window occupancy.DateRange
	for roomID, r := range req.Rooms {
		if !r.IsValid() {
			return nil, &ValidationError{Field: "rooms", Message: "date range must cover at least one night with start before end"}
		}
		room, err := s.rooms.GetByID(ctx, roomID)
		if err != nil {
			return nil, mapStoreErr(err, "room", roomID)
		}
		if !room.IsActive {
			return nil, &ValidationError{Field: "rooms", Message: "room " + room.Name + " is not bookable"}
		}
		roomIDs = append(roomIDs, roomID)
		if window.Start.IsZero() || r.Start.Before(window.Start) {
			window.Start = r.Start
		}
		if r.End.After(window.End) {
			window.End = r.End
		}
	}
	sort.Slice(roomIDs, func(i, j int) bool { return roomIDs[i] < roomIDs[j] })

	hold := &model.Hold{
		ID:        uuid.NewString(),
		SessionID: req.SessionID,
		ExpiresAt: s.now().Add(s.ttl),
	}
	for _, roomID := range roomIDs {
		r := req.Rooms[roomID]
		hold.Rooms = append(hold.Rooms, model.HoldRoom{HoldID: hold.ID, RoomID: roomID, Start: r.Start, End: r.End})
	}

	if _, err := s.rooms.LockRoomsTx(ctx, tx, roomIDs); err != nil {
		return nil, err
	}
	// Supersede first so the session's own earlier holds on these
	// nights never count as conflicts.
	if err := s.holds.DeleteOwnOverlapsTx(ctx, tx, req.SessionID, hold.Rooms); err != nil {
		return nil, err
	}
	booked, err := bookings.RangesByRoomsTx(ctx, tx, roomIDs, window.Start, window.End, 0)
	if err != nil {
		return nil, err
	}
	blocked, err := blockages.RangesByRoomsTx(ctx, tx, roomIDs, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	held, err := s.holds.OverlappingTx(ctx, tx, roomIDs, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	sources := availability.BuildSources(roomIDs, blocked, booked, held)
	for _, roomID := range roomIDs {
		r := req.Rooms[roomID]
		if night, conflict := sources[roomID].FirstConflict(r, req.SessionID); conflict {
			ce := &ConflictError{RoomID: roomID, Night: night}
			if occ, ok := sources[roomID].OccupyingRange(night, req.SessionID); ok {
				ce.Range = &occ
			}
			return nil, ce
		}
	}
	return hold, nil
}

// CancelHold releases a hold.  Only the owning session may cancel it.
func (s *HoldService) CancelHold(ctx context.Context, id, sessionID string) error {
	hold, err := s.holds.GetByID(ctx, id)
	if err != nil {
		return mapHoldErr(err, id)
	}
	if hold.SessionID != sessionID {
		return &ForbiddenError{Reason: "the hold belongs to another session"}
	}
	return s.holds.DeleteByID(ctx, id)
}

// ExpireHolds deletes every hold whose TTL has lapsed and returns how
// many were removed.
func (s *HoldService) ExpireHolds(ctx context.Context) (int64, error) {
	return s.holds.ExpireBefore(ctx, s.now())
}

func mapHoldErr(err error, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Resource: "hold", ID: id}
	}
	return err
}
