package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/utia/guesthouse-booking/internal/model"
	"github.com/utia/guesthouse-booking/internal/occupancy"
	"github.com/utia/guesthouse-booking/internal/repository"
)

// ----- in-memory fakes -----

type fakeRooms struct {
	rooms map[uint64]model.Room
}

func (f *fakeRooms) List(ctx context.Context, activeOnly bool) ([]model.Room, error) {
	var out []model.Room
	for _, r := range f.rooms {
		if activeOnly && !r.IsActive {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRooms) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	r, ok := f.rooms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (f *fakeRooms) LockRoomsTx(ctx context.Context, tx *sql.Tx, ids []uint64) ([]uint64, error) {
	var found []uint64
	for _, id := range ids {
		if _, ok := f.rooms[id]; ok {
			found = append(found, id)
		}
	}
	return found, nil
}

type fakeBookings struct {
	ranges  []repository.RoomRange
	byID    map[uint64]*model.Booking
	created []*model.Booking
	updated []*model.Booking
	deleted []uint64
	nextID  uint64
}

func (f *fakeBookings) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	f.nextID++
	b.ID = f.nextID
	f.created = append(f.created, b)
	return nil
}

func (f *fakeBookings) UpdateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	f.updated = append(f.updated, b)
	return nil
}

func (f *fakeBookings) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBookings) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	b, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return b, nil
}

func (f *fakeBookings) List(ctx context.Context) ([]model.Booking, error) { return nil, nil }

func (f *fakeBookings) RangesByRoomsTx(ctx context.Context, tx *sql.Tx, roomIDs []uint64, from, to time.Time, excludeBookingID uint64) ([]repository.RoomRange, error) {
	var out []repository.RoomRange
	for _, r := range f.ranges {
		if r.BookingID == excludeBookingID && excludeBookingID != 0 {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeBookings) RangesByRooms(ctx context.Context, roomIDs []uint64, from, to time.Time) ([]repository.RoomRange, error) {
	return f.RangesByRoomsTx(ctx, nil, roomIDs, from, to, 0)
}

type fakeBlockages struct {
	ranges []repository.BlockageRange
}

func (f *fakeBlockages) RangesByRoomsTx(ctx context.Context, tx *sql.Tx, roomIDs []uint64, from, to time.Time) ([]repository.BlockageRange, error) {
	return f.ranges, nil
}

func (f *fakeBlockages) RangesByRooms(ctx context.Context, roomIDs []uint64, from, to time.Time) ([]repository.BlockageRange, error) {
	return f.ranges, nil
}

type fakeHolds struct {
	ranges          []repository.SessionRange
	byID            map[string]*model.Hold
	createdHolds    []*model.Hold
	deletedIDs      []string
	deletedSessions []string
	superseded      []string
	expired         int64
}

func (f *fakeHolds) CreateTx(ctx context.Context, tx *sql.Tx, h *model.Hold) error {
	f.createdHolds = append(f.createdHolds, h)
	return nil
}

func (f *fakeHolds) GetByID(ctx context.Context, id string) (*model.Hold, error) {
	h, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return h, nil
}

func (f *fakeHolds) DeleteByID(ctx context.Context, id string) error {
	f.deletedIDs = append(f.deletedIDs, id)
	return nil
}

func (f *fakeHolds) DeleteBySession(ctx context.Context, sessionID string) error {
	f.deletedSessions = append(f.deletedSessions, sessionID)
	return nil
}

func (f *fakeHolds) DeleteOwnOverlapsTx(ctx context.Context, tx *sql.Tx, sessionID string, rooms []model.HoldRoom) error {
	f.superseded = append(f.superseded, sessionID)
	kept := f.ranges[:0]
	for _, r := range f.ranges {
		own := r.SessionID == sessionID
		overlaps := false
		for _, hr := range rooms {
			if hr.RoomID == r.RoomID && r.Start.Before(hr.End) && r.End.After(hr.Start) {
				overlaps = true
				break
			}
		}
		if own && overlaps {
			continue
		}
		kept = append(kept, r)
	}
	f.ranges = kept
	return nil
}

func (f *fakeHolds) OverlappingTx(ctx context.Context, tx *sql.Tx, roomIDs []uint64, from, to time.Time) ([]repository.SessionRange, error) {
	return f.ranges, nil
}

func (f *fakeHolds) Overlapping(ctx context.Context, roomIDs []uint64, from, to time.Time) ([]repository.SessionRange, error) {
	return f.ranges, nil
}

func (f *fakeHolds) ExpireBefore(ctx context.Context, now time.Time) (int64, error) {
	return f.expired, nil
}

type fakeSettings struct {
	settings *model.Settings
}

func (f *fakeSettings) Get(ctx context.Context) (*model.Settings, error) {
	return f.settings, nil
}

type fakeCodes struct {
	allow  bool
	resets int
}

func (f *fakeCodes) Allow(ctx context.Context, addr string) bool { return f.allow }
func (f *fakeCodes) Reset(ctx context.Context, addr string)      { f.resets++ }

// ----- fixtures -----

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := occupancy.ParseDay(s)
	if err != nil {
		t.Fatalf("bad day %q: %v", s, err)
	}
	return d
}

func rng(t *testing.T, start, end string) occupancy.DateRange {
	t.Helper()
	return occupancy.DateRange{Start: day(t, start), End: day(t, end)}
}

func testSettings() *model.Settings {
	return &model.Settings{
		Prices: model.PriceTable{
			model.TierUtia: {
				model.RoomSmall: {Base: 300, ExtraAdult: 150, Child: 100},
				model.RoomLarge: {Base: 400, ExtraAdult: 150, Child: 100},
			},
			model.TierExternal: {
				model.RoomSmall: {Base: 600, ExtraAdult: 300, Child: 200},
				model.RoomLarge: {Base: 800, ExtraAdult: 300, Child: 200},
			},
		},
		BulkPrices: model.BulkPriceTable{
			Base: 2000,
			PerTier: map[model.Tier]model.BulkRates{
				model.TierUtia:     {Adult: 100, Child: 50},
				model.TierExternal: {Adult: 200, Child: 100},
			},
		},
		BulkCapacity:  20,
		BulkMinGuests: 8,
	}
}

type fixture struct {
	svc       *BookingService
	rooms     *fakeRooms
	bookings  *fakeBookings
	blockages *fakeBlockages
	holds     *fakeHolds
	codes     *fakeCodes
	settings  *model.Settings
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		rooms: &fakeRooms{rooms: map[uint64]model.Room{
			1: {ID: 1, Name: "1", Size: model.RoomSmall, Beds: 2, IsActive: true},
			2: {ID: 2, Name: "2", Size: model.RoomLarge, Beds: 3, IsActive: true},
			3: {ID: 3, Name: "3", Size: model.RoomSmall, Beds: 2, IsActive: false},
		}},
		bookings:  &fakeBookings{byID: map[uint64]*model.Booking{}},
		blockages: &fakeBlockages{},
		holds:     &fakeHolds{byID: map[string]*model.Hold{}},
		codes:     &fakeCodes{allow: true},
		settings:  testSettings(),
	}
	f.svc = NewBookingService(nil, f.rooms, f.bookings, f.blockages, f.holds, &fakeSettings{settings: f.settings}, nil, f.codes)
	f.svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func adults(n int, tier model.Tier) []GuestSpec {
	out := make([]GuestSpec, n)
	for i := range out {
		out[i] = GuestSpec{Type: model.PersonAdult, Tier: tier}
	}
	return out
}

func standardRequest(t *testing.T) CommitRequest {
	return CommitRequest{
		SessionID:    "sess-1",
		ContactName:  "Test Guest",
		ContactEmail: "guest@example.com",
		Rooms: map[uint64]RoomSelection{
			1: {Range: rng(t, "2025-07-10", "2025-07-12"), Guests: adults(2, model.TierExternal)},
		},
	}
}

// commit runs the pipeline the way CommitBooking does, without a real
// database transaction; the fakes ignore the tx handle.
func (f *fixture) commit(t *testing.T, req CommitRequest) (*model.Booking, string, error) {
	t.Helper()
	ctx := context.Background()
	sel, err := f.svc.resolveSelections(ctx, req, f.settings)
	if err != nil {
		return nil, "", err
	}
	warning, err := f.svc.applyPolicy(ctx, req, f.settings, sel)
	if err != nil {
		return nil, "", err
	}
	b, err := f.svc.commitTx(ctx, nil, req, f.settings, sel)
	return b, warning, err
}

// ----- commit pipeline -----

func TestCommitStandardBooking(t *testing.T) {
	f := newFixture(t)
	b, _, err := f.commit(t, standardRequest(t))
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	// small external room, two adults, two nights: (600+300)*2
	if b.TotalPrice != 1800 {
		t.Errorf("total = %d, want 1800", b.TotalPrice)
	}
	if b.EditToken == "" {
		t.Error("edit token not set")
	}
	if len(b.Rooms) != 1 || b.Rooms[0].RoomID != 1 {
		t.Fatalf("rooms = %+v", b.Rooms)
	}
	if len(b.Guests) != 2 || b.Guests[0].RoomID == nil || *b.Guests[0].RoomID != 1 {
		t.Fatalf("guests = %+v", b.Guests)
	}
	if len(f.bookings.created) != 1 {
		t.Fatalf("created %d bookings", len(f.bookings.created))
	}
}

func TestCommitConflictsWithExistingBooking(t *testing.T) {
	f := newFixture(t)
	f.bookings.ranges = []repository.RoomRange{
		{BookingID: 9, RoomID: 1, Start: day(t, "2025-07-11"), End: day(t, "2025-07-13")},
	}
	_, _, err := f.commit(t, standardRequest(t))
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
	if conflict.RoomID != 1 || !conflict.Night.Equal(day(t, "2025-07-11")) {
		t.Errorf("conflict = %+v", conflict)
	}
}

func TestCommitBackToBackStays(t *testing.T) {
	f := newFixture(t)
	// Existing stay ends the day the new one starts; they share a
	// turnover day but no night.
	f.bookings.ranges = []repository.RoomRange{
		{BookingID: 9, RoomID: 1, Start: day(t, "2025-07-08"), End: day(t, "2025-07-10")},
	}
	if _, _, err := f.commit(t, standardRequest(t)); err != nil {
		t.Fatalf("back-to-back stay rejected: %v", err)
	}
}

func TestCommitIgnoresOwnSessionHold(t *testing.T) {
	f := newFixture(t)
	f.holds.ranges = []repository.SessionRange{
		{HoldID: "h1", SessionID: "sess-1", RoomID: 1, Start: day(t, "2025-07-10"), End: day(t, "2025-07-12")},
	}
	if _, _, err := f.commit(t, standardRequest(t)); err != nil {
		t.Fatalf("own hold blocked the commit: %v", err)
	}

	f.holds.ranges[0].SessionID = "sess-other"
	_, _, err := f.commit(t, standardRequest(t))
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("foreign hold not detected: %v", err)
	}
}

func TestCommitBlockedRoom(t *testing.T) {
	f := newFixture(t)
	f.blockages.ranges = []repository.BlockageRange{
		{BlockageID: 1, RoomID: nil, Start: day(t, "2025-07-01"), End: day(t, "2025-08-01")},
	}
	_, _, err := f.commit(t, standardRequest(t))
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
}

func TestCommitValidation(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name   string
		mutate func(*CommitRequest)
	}{
		{"missing email", func(r *CommitRequest) { r.ContactEmail = "" }},
		{"no rooms", func(r *CommitRequest) { r.Rooms = nil }},
		{"empty range", func(r *CommitRequest) {
			r.Rooms = map[uint64]RoomSelection{1: {Range: rng(t, "2025-07-10", "2025-07-10"), Guests: adults(1, model.TierUtia)}}
		}},
		{"inactive room", func(r *CommitRequest) {
			r.Rooms = map[uint64]RoomSelection{3: {Range: rng(t, "2025-07-10", "2025-07-12"), Guests: adults(1, model.TierUtia)}}
		}},
		{"toddlers only", func(r *CommitRequest) {
			r.Rooms = map[uint64]RoomSelection{1: {
				Range:  rng(t, "2025-07-10", "2025-07-12"),
				Guests: []GuestSpec{{Type: model.PersonToddler, Tier: model.TierUtia}},
			}}
		}},
		{"over capacity", func(r *CommitRequest) {
			r.Rooms = map[uint64]RoomSelection{1: {Range: rng(t, "2025-07-10", "2025-07-12"), Guests: adults(3, model.TierUtia)}}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := standardRequest(t)
			tc.mutate(&req)
			_, _, err := f.commit(t, req)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestCommitUnknownRoom(t *testing.T) {
	f := newFixture(t)
	req := standardRequest(t)
	req.Rooms = map[uint64]RoomSelection{42: {Range: rng(t, "2025-07-10", "2025-07-12"), Guests: adults(1, model.TierUtia)}}
	_, _, err := f.commit(t, req)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}

// ----- bulk -----

func bulkRequest(t *testing.T, guests []GuestSpec) CommitRequest {
	return CommitRequest{
		SessionID:    "sess-1",
		IsBulk:       true,
		BulkRange:    rng(t, "2025-07-10", "2025-07-13"),
		BulkGuests:   guests,
		ContactName:  "Group Lead",
		ContactEmail: "lead@example.com",
	}
}

func TestCommitBulkBooking(t *testing.T) {
	f := newFixture(t)
	b, _, err := f.commit(t, bulkRequest(t, adults(10, model.TierExternal)))
	if err != nil {
		t.Fatalf("bulk commit failed: %v", err)
	}
	if !b.IsBulk {
		t.Error("IsBulk not set")
	}
	// (2000 + 10*200) * 3 nights
	if b.TotalPrice != 12000 {
		t.Errorf("total = %d, want 12000", b.TotalPrice)
	}
	// covers every active room
	if len(b.Rooms) != 2 {
		t.Fatalf("rooms = %+v", b.Rooms)
	}
	for _, g := range b.Guests {
		if g.RoomID != nil {
			t.Errorf("bulk guest bound to room %d", *g.RoomID)
		}
	}
}

func TestCommitBulkBounds(t *testing.T) {
	f := newFixture(t)
	if _, _, err := f.commit(t, bulkRequest(t, adults(3, model.TierUtia))); err == nil {
		t.Error("group below the bulk minimum accepted")
	}
	if _, _, err := f.commit(t, bulkRequest(t, adults(25, model.TierUtia))); err == nil {
		t.Error("group above the property capacity accepted")
	}
	req := bulkRequest(t, adults(10, model.TierUtia))
	req.Rooms = map[uint64]RoomSelection{1: {Range: rng(t, "2025-07-10", "2025-07-12")}}
	if _, _, err := f.commit(t, req); err == nil {
		t.Error("bulk request with explicit rooms accepted")
	}
}

func TestCommitBulkConflictsWithAnyRoom(t *testing.T) {
	f := newFixture(t)
	f.bookings.ranges = []repository.RoomRange{
		{BookingID: 9, RoomID: 2, Start: day(t, "2025-07-12"), End: day(t, "2025-07-14")},
	}
	_, _, err := f.commit(t, bulkRequest(t, adults(10, model.TierExternal)))
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
	if conflict.RoomID != 2 {
		t.Errorf("conflict room = %d, want 2", conflict.RoomID)
	}
}

// ----- seasonal policy wiring -----

func restrictedSettings() *model.Settings {
	s := testSettings()
	s.Restriction = &model.RestrictionPeriod{
		Start:       time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
		Year:        2025,
		AccessCodes: []string{"winter25"},
	}
	return s
}

func restrictedRequest(t *testing.T, code string) CommitRequest {
	req := standardRequest(t)
	req.Rooms = map[uint64]RoomSelection{
		1: {Range: rng(t, "2025-12-23", "2025-12-27"), Guests: adults(2, model.TierExternal)},
	}
	req.AccessCode = code
	req.ClientAddr = "10.0.0.1"
	return req
}

func TestCommitRestrictedPeriodCode(t *testing.T) {
	f := newFixture(t)
	f.settings = restrictedSettings()
	f.svc.settings = &fakeSettings{settings: f.settings}

	_, _, err := f.commit(t, restrictedRequest(t, ""))
	var perr *PolicyError
	if !errors.As(err, &perr) || perr.Code != "access_code_required" {
		t.Fatalf("err = %v, want access_code_required", err)
	}

	if _, _, err := f.commit(t, restrictedRequest(t, "winter25")); err != nil {
		t.Fatalf("valid code rejected: %v", err)
	}
	if f.codes.resets != 1 {
		t.Errorf("limiter resets = %d, want 1", f.codes.resets)
	}
}

func TestCommitCodeAttemptLimit(t *testing.T) {
	f := newFixture(t)
	f.settings = restrictedSettings()
	f.svc.settings = &fakeSettings{settings: f.settings}
	f.codes.allow = false

	_, _, err := f.commit(t, restrictedRequest(t, "wrong"))
	var perr *PolicyError
	if !errors.As(err, &perr) || perr.Code != "too_many_attempts" {
		t.Fatalf("err = %v, want too_many_attempts", err)
	}
}

// ----- quotes -----

func TestCalculatePrice(t *testing.T) {
	f := newFixture(t)
	total, err := f.svc.CalculatePrice(context.Background(), standardRequest(t))
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if total != 1800 {
		t.Errorf("total = %d, want 1800", total)
	}
	if len(f.bookings.created) != 0 {
		t.Error("quote created a booking")
	}
}

// ----- edit and delete authorization -----

func storedBooking(t *testing.T, f *fixture) *model.Booking {
	t.Helper()
	rid := uint64(1)
	b := &model.Booking{
		ID:           7,
		EditToken:    "token-7",
		TotalPrice:   1800,
		ContactName:  "Test Guest",
		ContactEmail: "guest@example.com",
		Rooms: []model.BookingRoom{
			{BookingID: 7, RoomID: 1, Start: day(t, "2025-07-10"), End: day(t, "2025-07-12")},
		},
		Guests: []model.Guest{
			{BookingID: 7, RoomID: &rid, Type: model.PersonAdult, Tier: model.TierExternal},
			{BookingID: 7, RoomID: &rid, Type: model.PersonAdult, Tier: model.TierExternal},
		},
	}
	f.bookings.byID[7] = b
	return b
}

func TestAuthorize(t *testing.T) {
	f := newFixture(t)
	b := storedBooking(t, f)

	if err := f.svc.authorize(b, Admin(1)); err != nil {
		t.Errorf("admin rejected: %v", err)
	}
	if err := f.svc.authorize(b, ServiceKey()); err != nil {
		t.Errorf("service key rejected: %v", err)
	}
	if err := f.svc.authorize(b, Anonymous("token-7")); err != nil {
		t.Errorf("valid token rejected: %v", err)
	}

	var forbidden *ForbiddenError
	if err := f.svc.authorize(b, Anonymous("wrong")); !errors.As(err, &forbidden) {
		t.Errorf("wrong token: err = %v", err)
	}
	if err := f.svc.authorize(b, Anonymous("")); !errors.As(err, &forbidden) {
		t.Errorf("missing token: err = %v", err)
	}

	b.Paid = true
	if err := f.svc.authorize(b, Anonymous("token-7")); !errors.As(err, &forbidden) {
		t.Errorf("paid booking editable: err = %v", err)
	}
	if err := f.svc.authorize(b, Admin(1)); err != nil {
		t.Errorf("paid booking blocked for admin: %v", err)
	}
	b.Paid = false

	// Exactly three days out is already closed.
	f.svc.now = func() time.Time { return time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC) }
	if err := f.svc.authorize(b, Anonymous("token-7")); !errors.As(err, &forbidden) {
		t.Errorf("edit window not enforced: err = %v", err)
	}
	f.svc.now = func() time.Time { return time.Date(2025, 7, 6, 23, 0, 0, 0, time.UTC) }
	if err := f.svc.authorize(b, Anonymous("token-7")); err != nil {
		t.Errorf("edit just before the window rejected: %v", err)
	}
}

func TestUpdateBookingRoomSetImmutable(t *testing.T) {
	f := newFixture(t)
	storedBooking(t, f)

	req := UpdateRequest{Rooms: map[uint64]RoomSelection{
		2: {Range: rng(t, "2025-07-10", "2025-07-12"), Guests: adults(2, model.TierExternal)},
	}}
	_, err := f.svc.UpdateBooking(context.Background(), 7, req, Anonymous("token-7"))
	var forbidden *ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("err = %v, want ForbiddenError", err)
	}
}

func TestUpdateBookingPaymentFlagsAdminOnly(t *testing.T) {
	f := newFixture(t)
	storedBooking(t, f)

	paid := true
	_, err := f.svc.UpdateBooking(context.Background(), 7, UpdateRequest{Paid: &paid}, Anonymous("token-7"))
	var forbidden *ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("err = %v, want ForbiddenError", err)
	}
}

func TestUpdateBookingNoChanges(t *testing.T) {
	f := newFixture(t)
	b := storedBooking(t, f)

	got, err := f.svc.UpdateBooking(context.Background(), 7, UpdateRequest{}, Anonymous("token-7"))
	if err != nil {
		t.Fatalf("no-op update failed: %v", err)
	}
	if got.ID != b.ID {
		t.Errorf("got booking %d", got.ID)
	}
	if len(f.bookings.updated) != 0 {
		t.Error("no-op update wrote to the store")
	}
}

// applyUpdate runs the edit pipeline the way UpdateBooking does,
// without a real database transaction; the fakes ignore the tx handle.
func (f *fixture) applyUpdate(t *testing.T, id uint64, req UpdateRequest, auth AuthContext) (*model.Booking, []string, error) {
	t.Helper()
	ctx := context.Background()
	p, err := f.svc.prepareUpdate(ctx, id, req, auth)
	if err != nil {
		return nil, nil, err
	}
	if len(p.changes) == 0 {
		return p.booking, nil, nil
	}
	if err := f.svc.updateTx(ctx, nil, p, req.SessionID); err != nil {
		return nil, nil, err
	}
	return p.booking, p.changes, nil
}

func storedBulkBooking(t *testing.T, f *fixture) *model.Booking {
	t.Helper()
	b := &model.Booking{
		ID:           9,
		EditToken:    "token-9",
		IsBulk:       true,
		TotalPrice:   12000,
		ContactName:  "Institute Group",
		ContactEmail: "group@example.com",
		Rooms: []model.BookingRoom{
			{BookingID: 9, RoomID: 1, Start: day(t, "2025-07-10"), End: day(t, "2025-07-13")},
			{BookingID: 9, RoomID: 2, Start: day(t, "2025-07-10"), End: day(t, "2025-07-13")},
		},
	}
	for _, g := range adults(10, model.TierExternal) {
		b.Guests = append(b.Guests, model.Guest{BookingID: 9, Type: g.Type, Tier: g.Tier})
	}
	f.bookings.byID[9] = b
	return b
}

func TestUpdateBulkKeepsStoredRoomSet(t *testing.T) {
	f := newFixture(t)
	storedBulkBooking(t, f)
	// a room added to the catalog after the booking was made, already
	// taken by another guest on the same nights
	f.rooms.rooms[4] = model.Room{ID: 4, Name: "4", Size: model.RoomSmall, Beds: 2, IsActive: true}
	f.bookings.ranges = []repository.RoomRange{
		{BookingID: 50, RoomID: 4, Start: day(t, "2025-07-10"), End: day(t, "2025-07-13")},
	}

	name := "New Contact"
	got, _, err := f.applyUpdate(t, 9, UpdateRequest{ContactName: &name}, Anonymous("token-9"))
	if err != nil {
		t.Fatalf("contact-only update failed: %v", err)
	}
	if len(got.Rooms) != 2 {
		t.Fatalf("rooms = %+v, want the stored pair", got.Rooms)
	}
	for _, r := range got.Rooms {
		if r.RoomID == 4 {
			t.Fatal("bulk booking expanded onto a room added after creation")
		}
	}
}

func TestUpdateBulkDateChangeChecksStoredRooms(t *testing.T) {
	f := newFixture(t)
	storedBulkBooking(t, f)
	f.bookings.ranges = []repository.RoomRange{
		{BookingID: 50, RoomID: 2, Start: day(t, "2025-07-20"), End: day(t, "2025-07-22")},
	}

	r := rng(t, "2025-07-20", "2025-07-22")
	_, _, err := f.applyUpdate(t, 9, UpdateRequest{BulkRange: &r}, Anonymous("token-9"))
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
	if conflict.RoomID != 2 || !conflict.Night.Equal(day(t, "2025-07-20")) {
		t.Errorf("conflict = %+v", conflict)
	}
}

func TestUpdateBookingOwnHoldDoesNotBlock(t *testing.T) {
	newReq := func(session string) UpdateRequest {
		return UpdateRequest{
			SessionID: session,
			Rooms: map[uint64]RoomSelection{
				1: {Range: rng(t, "2025-07-20", "2025-07-22"), Guests: adults(2, model.TierExternal)},
			},
		}
	}
	heldBySess1 := func(f *fixture) {
		f.holds.ranges = []repository.SessionRange{
			{HoldID: "h1", SessionID: "sess-1", RoomID: 1, Start: day(t, "2025-07-20"), End: day(t, "2025-07-22")},
		}
	}

	t.Run("owner moves onto held dates", func(t *testing.T) {
		f := newFixture(t)
		storedBooking(t, f)
		heldBySess1(f)
		if _, _, err := f.applyUpdate(t, 7, newReq("sess-1"), Anonymous("token-7")); err != nil {
			t.Fatalf("guest's own hold blocked the edit: %v", err)
		}
	})

	t.Run("foreign session still blocked", func(t *testing.T) {
		f := newFixture(t)
		storedBooking(t, f)
		heldBySess1(f)
		_, _, err := f.applyUpdate(t, 7, newReq("sess-2"), Anonymous("token-7"))
		var conflict *ConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("err = %v, want ConflictError", err)
		}
	})
}

func TestGetBookingRequiresToken(t *testing.T) {
	f := newFixture(t)
	storedBooking(t, f)

	if _, err := f.svc.GetBooking(context.Background(), 7, Anonymous("token-7")); err != nil {
		t.Fatalf("valid token rejected: %v", err)
	}
	var forbidden *ForbiddenError
	if _, err := f.svc.GetBooking(context.Background(), 7, Anonymous("nope")); !errors.As(err, &forbidden) {
		t.Fatalf("err = %v, want ForbiddenError", err)
	}
	var nf *NotFoundError
	if _, err := f.svc.GetBooking(context.Background(), 99, Admin(1)); !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}
