package service

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"log"
	"sort"
	"strconv"
	"time"

	"github.com/utia/guesthouse-booking/internal/availability"
	"github.com/utia/guesthouse-booking/internal/model"
	"github.com/utia/guesthouse-booking/internal/occupancy"
	"github.com/utia/guesthouse-booking/internal/policy"
	"github.com/utia/guesthouse-booking/internal/pricing"
	"github.com/utia/guesthouse-booking/internal/repository"
	"github.com/utia/guesthouse-booking/internal/utils"
)

// editCutoffDays is how many days before the stay start non-admin
// edits and cancellations close.
const editCutoffDays = 3

// GuestSpec describes one guest in a booking request.
type GuestSpec struct {
	Type model.PersonType
	Tier model.Tier
	Name string
}

// RoomSelection is the requested date range and guest composition for
// one room of a standard booking.
type RoomSelection struct {
	Range  occupancy.DateRange
	Guests []GuestSpec
}

// CommitRequest is a fully-parsed booking attempt.  For standard
// bookings Rooms maps each requested room to its range and guests; for
// bulk bookings BulkRange and BulkGuests apply to every room in the
// property and Rooms must be empty.
type CommitRequest struct {
	SessionID    string
	ClientAddr   string
	IsBulk       bool
	Rooms        map[uint64]RoomSelection
	BulkRange    occupancy.DateRange
	BulkGuests   []GuestSpec
	AccessCode   string
	GroupID      *string
	ContactName  string
	ContactEmail string
}

// CommitResult carries the created booking plus the non-blocking
// policy warning, if any.
type CommitResult struct {
	Booking *model.Booking
	Warning string
}

// UpdateRequest carries a booking edit.  Nil fields are left
// unchanged.  Rooms replaces the per-room ranges and guests; for
// non-admin callers the key set must equal the booking's current room
// set because the room set itself is immutable for them.  SessionID
// is the editing guest's browsing session, so that their own active
// holds never block the edit.
type UpdateRequest struct {
	SessionID    string
	Rooms        map[uint64]RoomSelection
	BulkRange    *occupancy.DateRange
	BulkGuests   []GuestSpec
	ContactName  *string
	ContactEmail *string
	Paid         *bool // admin only
	PriceLocked  *bool // admin only
}

// BookingService is the transaction coordinator: it validates booking
// attempts, applies the seasonal policy, runs the conflict check and
// the insert inside one transaction, prices the stay and dispatches
// notifications after commit.
type BookingService struct {
	db        *sql.DB
	rooms     RoomStore
	bookings  BookingStore
	blockages BlockageStore
	holds     HoldStore
	settings  SettingsStore
	notifier  Notifier
	codes     CodeGate
	now       func() time.Time
}

// NewBookingService wires the coordinator.  notifier and codes may be
// nil, which disables notifications and attempt limiting.
func NewBookingService(db *sql.DB, rooms RoomStore, bookings BookingStore, blockages BlockageStore, holds HoldStore, settings SettingsStore, notifier Notifier, codes CodeGate) *BookingService {
	if rooms == nil || bookings == nil || blockages == nil || holds == nil || settings == nil {
		panic("nil store passed to NewBookingService")
	}
	return &BookingService{
		db:        db,
		rooms:     rooms,
		bookings:  bookings,
		blockages: blockages,
		holds:     holds,
		settings:  settings,
		notifier:  notifier,
		codes:     codes,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CommitBooking runs the full commit pipeline: structural validation,
// seasonal policy, then one atomic check-and-insert unit, then price
// and tokens, then post-commit notification and hold cleanup.  Any
// error before commit leaves the store untouched.
func (s *BookingService) CommitBooking(ctx context.Context, req CommitRequest) (*CommitResult, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	sel, err := s.resolveSelections(ctx, req, settings)
	if err != nil {
		return nil, err
	}
	warning, err := s.applyPolicy(ctx, req, settings, sel)
	if err != nil {
		return nil, err
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

	booking, err := s.commitTx(ctx, tx, req, settings, sel)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	s.afterCommit(booking, req.SessionID, "", nil)
	return &CommitResult{Booking: booking, Warning: warning}, nil
}

// selection is the normalized form of a commit request: explicit room
// ranges ordered by room id plus the overall window.
type selection struct {
	roomIDs  []uint64
	rooms    map[uint64]RoomSelection
	catalog  map[uint64]model.Room
	window   occupancy.DateRange
	guests   []GuestSpec // all guests across rooms (or bulk guests)
}

// resolveSelections validates the structural constraints of a request
// and expands bulk attempts over the whole catalog.
func (s *BookingService) resolveSelections(ctx context.Context, req CommitRequest, settings *model.Settings) (*selection, error) {
	if req.ContactEmail == "" {
		return nil, &ValidationError{Field: "contact_email", Message: "required"}
	}
	if req.IsBulk {
		return s.resolveBulk(ctx, req, settings)
	}
	if len(req.Rooms) == 0 {
		return nil, &ValidationError{Field: "rooms", Message: "at least one room is required"}
	}
	sel := &selection{rooms: make(map[uint64]RoomSelection, len(req.Rooms)), catalog: make(map[uint64]model.Room)}
	var beds uint32
	for roomID, rs := range req.Rooms {
		if !rs.Range.IsValid() {
			return nil, &ValidationError{Field: "rooms", Message: "date range must cover at least one night with start before end"}
		}
		room, err := s.rooms.GetByID(ctx, roomID)
		if err != nil {
			return nil, mapStoreErr(err, "room", roomID)
		}
		if !room.IsActive {
			return nil, &ValidationError{Field: "rooms", Message: "room " + room.Name + " is not bookable"}
		}
		beds += room.Beds
		sel.roomIDs = append(sel.roomIDs, roomID)
		sel.rooms[roomID] = rs
		sel.catalog[roomID] = *room
		sel.guests = append(sel.guests, rs.Guests...)
	}
	sort.Slice(sel.roomIDs, func(i, j int) bool { return sel.roomIDs[i] < sel.roomIDs[j] })
	counted := countedGuests(sel.guests)
	if counted == 0 {
		return nil, &ValidationError{Field: "guests", Message: "at least one adult or child is required"}
	}
	if counted > int(beds) {
		return nil, &ValidationError{Field: "guests", Message: "guest count exceeds the selected rooms' beds"}
	}
	sel.window = overallWindow(sel.rooms)
	return sel, nil
}

func (s *BookingService) resolveBulk(ctx context.Context, req CommitRequest, settings *model.Settings) (*selection, error) {
	if len(req.Rooms) != 0 {
		return nil, &ValidationError{Field: "rooms", Message: "bulk bookings cover every room; do not select rooms"}
	}
	if !req.BulkRange.IsValid() {
		return nil, &ValidationError{Field: "range", Message: "date range must cover at least one night with start before end"}
	}
	counted := countedGuests(req.BulkGuests)
	if counted == 0 {
		return nil, &ValidationError{Field: "guests", Message: "at least one adult or child is required"}
	}
	if counted < settings.BulkMinGuests {
		return nil, &ValidationError{Field: "guests", Message: "bulk bookings require a larger group"}
	}
	if counted > settings.BulkCapacity {
		return nil, &ValidationError{Field: "guests", Message: "guest count exceeds the property capacity"}
	}
	catalog, err := s.rooms.List(ctx, true)
	if err != nil {
		return nil, err
	}
	if len(catalog) == 0 {
		return nil, &ValidationError{Field: "rooms", Message: "no bookable rooms configured"}
	}
	sel := &selection{rooms: make(map[uint64]RoomSelection, len(catalog)), catalog: make(map[uint64]model.Room, len(catalog))}
	for _, room := range catalog {
		sel.roomIDs = append(sel.roomIDs, room.ID)
		sel.rooms[room.ID] = RoomSelection{Range: req.BulkRange}
		sel.catalog[room.ID] = room
	}
	sort.Slice(sel.roomIDs, func(i, j int) bool { return sel.roomIDs[i] < sel.roomIDs[j] })
	sel.guests = req.BulkGuests
	sel.window = req.BulkRange
	return sel, nil
}

// applyPolicy runs the seasonal access policy, with the per-address
// attempt limit wrapped around code validation.
func (s *BookingService) applyPolicy(ctx context.Context, req CommitRequest, settings *model.Settings, sel *selection) (string, error) {
	checksCode := policy.NeedsCode(settings, sel.window, s.now()) && req.AccessCode != ""
	if checksCode && s.codes != nil && !s.codes.Allow(ctx, req.ClientAddr) {
		return "", &PolicyError{Code: "too_many_attempts", Message: "too many access code attempts, try again later"}
	}
	dec, v := policy.Evaluate(settings, policy.Request{
		Range:         sel.window,
		IsBulk:        req.IsBulk,
		RoomCount:     len(req.Rooms),
		HasDiscounted: hasDiscounted(sel.guests),
		AccessCode:    req.AccessCode,
	}, s.now())
	if v != nil {
		return "", &PolicyError{Code: v.Code, Message: v.Message}
	}
	if checksCode && s.codes != nil {
		s.codes.Reset(ctx, req.ClientAddr)
	}
	return dec.Warning, nil
}

// commitTx is the atomic unit: lock the rooms, re-resolve availability
// for every requested night excluding the requester's own session,
// price the stay, and insert.  Any error aborts the transaction held
// by the caller.
func (s *BookingService) commitTx(ctx context.Context, tx *sql.Tx, req CommitRequest, settings *model.Settings, sel *selection) (*model.Booking, error) {
	locked, err := s.rooms.LockRoomsTx(ctx, tx, sel.roomIDs)
	if err != nil {
		return nil, err
	}
	if len(locked) != len(sel.roomIDs) {
		return nil, &ValidationError{Field: "rooms", Message: "unknown room in selection"}
	}
	if err := s.checkConflictsTx(ctx, tx, sel, req.SessionID, 0); err != nil {
		return nil, err
	}
	total, err := s.price(settings, req.IsBulk, sel)
	if err != nil {
		return nil, &ValidationError{Field: "guests", Message: err.Error()}
	}
	token, err := utils.NewEditToken()
	if err != nil {
		return nil, err
	}
	booking := &model.Booking{
		EditToken:    token,
		GroupID:      req.GroupID,
		IsBulk:       req.IsBulk,
		TotalPrice:   total,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
	}
	for _, roomID := range sel.roomIDs {
		rs := sel.rooms[roomID]
		booking.Rooms = append(booking.Rooms, model.BookingRoom{
			RoomID: roomID,
			Start:  rs.Range.Start,
			End:    rs.Range.End,
		})
		if !req.IsBulk {
			rid := roomID
			for _, g := range rs.Guests {
				booking.Guests = append(booking.Guests, model.Guest{RoomID: &rid, Type: g.Type, Tier: g.Tier, Name: g.Name})
			}
		}
	}
	if req.IsBulk {
		for _, g := range req.BulkGuests {
			booking.Guests = append(booking.Guests, model.Guest{Type: g.Type, Tier: g.Tier, Name: g.Name})
		}
	}
	if err := s.bookings.CreateTx(ctx, tx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// checkConflictsTx resolves availability for every requested night
// inside the transaction.  excludeBookingID skips one booking's own
// ranges on the edit path.
func (s *BookingService) checkConflictsTx(ctx context.Context, tx *sql.Tx, sel *selection, sessionID string, excludeBookingID uint64) error {
	booked, err := s.bookings.RangesByRoomsTx(ctx, tx, sel.roomIDs, sel.window.Start, sel.window.End, excludeBookingID)
	if err != nil {
		return err
	}
	blocked, err := s.blockages.RangesByRoomsTx(ctx, tx, sel.roomIDs, sel.window.Start, sel.window.End)
	if err != nil {
		return err
	}
	held, err := s.holds.OverlappingTx(ctx, tx, sel.roomIDs, sel.window.Start, sel.window.End)
	if err != nil {
		return err
	}
	sources := availability.BuildSources(sel.roomIDs, blocked, booked, held)
	for _, roomID := range sel.roomIDs {
		rs := sel.rooms[roomID]
		if night, conflict := sources[roomID].FirstConflict(rs.Range, sessionID); conflict {
			return &ConflictError{RoomID: roomID, Night: night}
		}
	}
	return nil
}

func (s *BookingService) price(settings *model.Settings, isBulk bool, sel *selection) (int64, error) {
	if isBulk {
		return pricing.BulkTotal(settings.BulkPrices, sel.window.Nights(), toModelGuests(sel.guests))
	}
	stays := make([]pricing.RoomStay, 0, len(sel.roomIDs))
	for _, roomID := range sel.roomIDs {
		rs := sel.rooms[roomID]
		stays = append(stays, pricing.RoomStay{
			Size:   sel.catalog[roomID].Size,
			Nights: rs.Range.Nights(),
			Guests: toModelGuests(rs.Guests),
		})
	}
	return pricing.StandardTotal(settings.Prices, stays)
}

// afterCommit dispatches the notification and removes the committing
// session's holds.  Both run outside the transaction so their latency
// or failure never affects the caller's response; failures are logged
// only.
func (s *BookingService) afterCommit(b *model.Booking, sessionID, event string, changes []string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if sessionID != "" {
			if err := s.holds.DeleteBySession(ctx, sessionID); err != nil {
				log.Printf("booking %d: hold cleanup failed: %v", b.ID, err)
			}
		}
		if s.notifier == nil {
			return
		}
		switch event {
		case "modified":
			s.notifier.BookingModified(ctx, b, changes)
		case "deleted":
			s.notifier.BookingDeleted(ctx, b)
		default:
			s.notifier.BookingConfirmed(ctx, b)
		}
	}()
}

// pendingUpdate is a merged edit ready to commit: the booking with its
// scalar fields already applied, the normalized selection, and which
// aspects of the stay changed.
type pendingUpdate struct {
	booking  *model.Booking
	sel      *selection
	settings *model.Settings
	changes  []string
	dates    bool
	rooms    bool
	guests   bool
}

// UpdateBooking edits a booking.  The conflict check runs only when
// dates or rooms actually change, so edits to unrelated fields cannot
// fail on availability.  Non-admin callers are bound by the edit
// token, the payment freeze, the three day window and the immutable
// room set.
func (s *BookingService) UpdateBooking(ctx context.Context, id uint64, req UpdateRequest, auth AuthContext) (*model.Booking, error) {
	p, err := s.prepareUpdate(ctx, id, req, auth)
	if err != nil {
		return nil, err
	}
	if len(p.changes) == 0 {
		return p.booking, nil
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

	if err := s.updateTx(ctx, tx, p, req.SessionID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	s.afterCommit(p.booking, "", "modified", p.changes)
	return p.booking, nil
}

// prepareUpdate loads and authorizes the booking, merges the requested
// changes and normalizes the result.  Everything here runs before any
// transaction is opened.
func (s *BookingService) prepareUpdate(ctx context.Context, id uint64, req UpdateRequest, auth AuthContext) (*pendingUpdate, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "booking", id)
	}
	if err := s.authorize(booking, auth); err != nil {
		return nil, err
	}
	if !auth.Privileged() && (req.Paid != nil || req.PriceLocked != nil) {
		return nil, &ForbiddenError{Reason: "payment flags are admin-only"}
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	p := &pendingUpdate{booking: booking, settings: settings}
	if req.ContactName != nil && *req.ContactName != booking.ContactName {
		booking.ContactName = *req.ContactName
		p.changes = append(p.changes, "contact")
	}
	if req.ContactEmail != nil && *req.ContactEmail != booking.ContactEmail {
		booking.ContactEmail = *req.ContactEmail
		p.changes = append(p.changes, "contact")
	}
	if req.Paid != nil && *req.Paid != booking.Paid {
		booking.Paid = *req.Paid
		p.changes = append(p.changes, "paid")
	}
	if req.PriceLocked != nil && *req.PriceLocked != booking.PriceLocked {
		booking.PriceLocked = *req.PriceLocked
		p.changes = append(p.changes, "price_locked")
	}

	p.sel, err = s.selectionForUpdate(ctx, booking, req, auth, settings, &p.dates, &p.rooms, &p.guests)
	if err != nil {
		return nil, err
	}
	if p.rooms {
		p.changes = append(p.changes, "rooms")
	}
	if p.dates {
		p.changes = append(p.changes, "dates")
	}
	if p.guests {
		p.changes = append(p.changes, "guests")
	}
	return p, nil
}

// updateTx is the atomic unit of the edit path: re-lock and re-check
// the rooms when dates or rooms changed, reprice unless locked, and
// write the merged booking.  The conflict check excludes the booking's
// own ranges and the editing session's holds.
func (s *BookingService) updateTx(ctx context.Context, tx *sql.Tx, p *pendingUpdate, sessionID string) error {
	if p.dates || p.rooms {
		locked, err := s.rooms.LockRoomsTx(ctx, tx, p.sel.roomIDs)
		if err != nil {
			return err
		}
		if len(locked) != len(p.sel.roomIDs) {
			return &ValidationError{Field: "rooms", Message: "unknown room in selection"}
		}
		if err := s.checkConflictsTx(ctx, tx, p.sel, sessionID, p.booking.ID); err != nil {
			return err
		}
	}
	if (p.dates || p.rooms || p.guests) && !p.booking.PriceLocked {
		total, err := s.price(p.settings, p.booking.IsBulk, p.sel)
		if err != nil {
			return &ValidationError{Field: "guests", Message: err.Error()}
		}
		if total != p.booking.TotalPrice {
			p.booking.TotalPrice = total
			p.changes = append(p.changes, "price")
		}
	}
	applySelection(p.booking, p.sel)
	return s.bookings.UpdateTx(ctx, tx, p.booking)
}

// selectionForUpdate merges the requested room/date/guest changes onto
// the booking's current state and normalizes it like a fresh commit.
func (s *BookingService) selectionForUpdate(ctx context.Context, booking *model.Booking, req UpdateRequest, auth AuthContext, settings *model.Settings, datesChanged, roomsChanged, guestsChanged *bool) (*selection, error) {
	if booking.IsBulk {
		return s.bulkSelectionForUpdate(ctx, booking, req, settings, datesChanged, guestsChanged)
	}

	current := make(map[uint64]RoomSelection, len(booking.Rooms))
	for _, br := range booking.Rooms {
		rs := RoomSelection{Range: occupancy.DateRange{Start: br.Start, End: br.End}}
		for _, g := range booking.Guests {
			if g.RoomID != nil && *g.RoomID == br.RoomID {
				rs.Guests = append(rs.Guests, GuestSpec{Type: g.Type, Tier: g.Tier, Name: g.Name})
			}
		}
		current[br.RoomID] = rs
	}

	merged := current
	if req.Rooms != nil {
		if !auth.Privileged() {
			if len(req.Rooms) != len(current) {
				return nil, &ForbiddenError{Reason: "the room set cannot be changed"}
			}
			for roomID := range req.Rooms {
				if _, ok := current[roomID]; !ok {
					return nil, &ForbiddenError{Reason: "the room set cannot be changed"}
				}
			}
		}
		for roomID, rs := range req.Rooms {
			old, existed := current[roomID]
			if !existed {
				*roomsChanged = true
			} else {
				if !old.Range.Start.Equal(rs.Range.Start) || !old.Range.End.Equal(rs.Range.End) {
					*datesChanged = true
				}
				if len(old.Guests) != len(rs.Guests) {
					*guestsChanged = true
				} else {
					for i := range old.Guests {
						if old.Guests[i] != rs.Guests[i] {
							*guestsChanged = true
							break
						}
					}
				}
			}
		}
		if auth.Privileged() && len(req.Rooms) != len(current) {
			*roomsChanged = true
		}
		merged = req.Rooms
	}

	commitReq := CommitRequest{Rooms: merged, ContactEmail: booking.ContactEmail}
	return s.resolveSelections(ctx, commitReq, settings)
}

// bulkSelectionForUpdate rebuilds a bulk booking's selection from its
// stored rooms.  The room set of a bulk booking is fixed at creation:
// rooms added to the catalog later never join an existing booking, and
// edits re-check availability over exactly the rooms the booking
// holds.
func (s *BookingService) bulkSelectionForUpdate(ctx context.Context, booking *model.Booking, req UpdateRequest, settings *model.Settings, datesChanged, guestsChanged *bool) (*selection, error) {
	rng := occupancy.DateRange{Start: booking.Rooms[0].Start, End: booking.Rooms[0].End}
	if req.BulkRange != nil && (!req.BulkRange.Start.Equal(rng.Start) || !req.BulkRange.End.Equal(rng.End)) {
		if !req.BulkRange.IsValid() {
			return nil, &ValidationError{Field: "range", Message: "date range must cover at least one night with start before end"}
		}
		rng = *req.BulkRange
		*datesChanged = true
	}
	guests := bookingGuestSpecs(booking)
	if req.BulkGuests != nil {
		guests = req.BulkGuests
		*guestsChanged = true
	}
	counted := countedGuests(guests)
	if counted == 0 {
		return nil, &ValidationError{Field: "guests", Message: "at least one adult or child is required"}
	}
	if counted < settings.BulkMinGuests {
		return nil, &ValidationError{Field: "guests", Message: "bulk bookings require a larger group"}
	}
	if counted > settings.BulkCapacity {
		return nil, &ValidationError{Field: "guests", Message: "guest count exceeds the property capacity"}
	}

	sel := &selection{rooms: make(map[uint64]RoomSelection, len(booking.Rooms)), catalog: make(map[uint64]model.Room, len(booking.Rooms))}
	for _, br := range booking.Rooms {
		room, err := s.rooms.GetByID(ctx, br.RoomID)
		if err != nil {
			return nil, mapStoreErr(err, "room", br.RoomID)
		}
		sel.roomIDs = append(sel.roomIDs, br.RoomID)
		sel.rooms[br.RoomID] = RoomSelection{Range: rng}
		sel.catalog[br.RoomID] = *room
	}
	sort.Slice(sel.roomIDs, func(i, j int) bool { return sel.roomIDs[i] < sel.roomIDs[j] })
	sel.guests = guests
	sel.window = rng
	return sel, nil
}

// DeleteBooking removes a booking.  Anonymous callers must present the
// edit token and are bound by the payment freeze and the edit window.
func (s *BookingService) DeleteBooking(ctx context.Context, id uint64, auth AuthContext) error {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return mapStoreErr(err, "booking", id)
	}
	if err := s.authorize(booking, auth); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := s.bookings.DeleteTx(ctx, tx, id); err != nil {
		return mapStoreErr(err, "booking", id)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	s.afterCommit(booking, "", "deleted", nil)
	return nil
}

// authorize enforces who may touch a booking.  Admins and service
// callers pass unconditionally; anonymous callers need the edit token
// and are rejected on paid bookings or within the edit window.
func (s *BookingService) authorize(booking *model.Booking, auth AuthContext) error {
	if auth.Privileged() {
		return nil
	}
	if auth.EditToken == "" ||
		subtle.ConstantTimeCompare([]byte(auth.EditToken), []byte(booking.EditToken)) != 1 {
		return &ForbiddenError{Reason: "invalid edit token"}
	}
	if booking.Paid {
		return &ForbiddenError{Reason: "the booking is paid; contact the administrator"}
	}
	earliest := earliestStart(booking)
	if !s.now().Before(earliest.AddDate(0, 0, -editCutoffDays)) {
		return &ForbiddenError{Reason: "the booking can no longer be changed this close to the stay"}
	}
	return nil
}

// GetBooking loads a booking for display.  Anonymous callers must
// present the edit token.
func (s *BookingService) GetBooking(ctx context.Context, id uint64, auth AuthContext) (*model.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "booking", id)
	}
	if !auth.Privileged() {
		if auth.EditToken == "" ||
			subtle.ConstantTimeCompare([]byte(auth.EditToken), []byte(booking.EditToken)) != 1 {
			return nil, &ForbiddenError{Reason: "invalid edit token"}
		}
	}
	return booking, nil
}

// ListBookings returns every booking for the admin overview.
func (s *BookingService) ListBookings(ctx context.Context) ([]model.Booking, error) {
	return s.bookings.List(ctx)
}

// CalculatePrice prices a request without committing anything.  Used
// by the quote endpoint so the UI can show totals while the guest is
// still choosing.
func (s *BookingService) CalculatePrice(ctx context.Context, req CommitRequest) (int64, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return 0, err
	}
	sel, err := s.resolveSelections(ctx, req, settings)
	if err != nil {
		return 0, err
	}
	total, err := s.price(settings, req.IsBulk, sel)
	if err != nil {
		return 0, &ValidationError{Field: "guests", Message: err.Error()}
	}
	return total, nil
}

// ----- helpers -----

func countedGuests(guests []GuestSpec) int {
	n := 0
	for _, g := range guests {
		if g.Type != model.PersonToddler {
			n++
		}
	}
	return n
}

func hasDiscounted(guests []GuestSpec) bool {
	for _, g := range guests {
		if g.Tier == model.TierUtia {
			return true
		}
	}
	return false
}

func toModelGuests(specs []GuestSpec) []model.Guest {
	out := make([]model.Guest, 0, len(specs))
	for _, g := range specs {
		out = append(out, model.Guest{Type: g.Type, Tier: g.Tier, Name: g.Name})
	}
	return out
}

func bookingGuestSpecs(b *model.Booking) []GuestSpec {
	out := make([]GuestSpec, 0, len(b.Guests))
	for _, g := range b.Guests {
		out = append(out, GuestSpec{Type: g.Type, Tier: g.Tier, Name: g.Name})
	}
	return out
}

func overallWindow(rooms map[uint64]RoomSelection) occupancy.DateRange {
	var w occupancy.DateRange
	for _, rs := range rooms {
		if w.Start.IsZero() || rs.Range.Start.Before(w.Start) {
			w.Start = rs.Range.Start
		}
		if rs.Range.End.After(w.End) {
			w.End = rs.Range.End
		}
	}
	return w
}

func earliestStart(b *model.Booking) time.Time {
	var earliest time.Time
	for _, br := range b.Rooms {
		if earliest.IsZero() || br.Start.Before(earliest) {
			earliest = br.Start
		}
	}
	return earliest
}

func applySelection(b *model.Booking, sel *selection) {
	b.Rooms = b.Rooms[:0]
	keepBulkGuests := b.IsBulk
	var guests []model.Guest
	for _, roomID := range sel.roomIDs {
		rs := sel.rooms[roomID]
		b.Rooms = append(b.Rooms, model.BookingRoom{BookingID: b.ID, RoomID: roomID, Start: rs.Range.Start, End: rs.Range.End})
		if !keepBulkGuests {
			rid := roomID
			for _, g := range rs.Guests {
				guests = append(guests, model.Guest{BookingID: b.ID, RoomID: &rid, Type: g.Type, Tier: g.Tier, Name: g.Name})
			}
		}
	}
	if keepBulkGuests {
		for _, g := range sel.guests {
			guests = append(guests, model.Guest{BookingID: b.ID, Type: g.Type, Tier: g.Tier, Name: g.Name})
		}
	}
	b.Guests = guests
}

func mapStoreErr(err error, resource string, id uint64) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Resource: resource, ID: strconv.FormatUint(id, 10)}
	}
	return err
}
