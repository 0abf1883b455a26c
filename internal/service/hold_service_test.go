package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/utia/guesthouse-booking/internal/model"
	"github.com/utia/guesthouse-booking/internal/occupancy"
	"github.com/utia/guesthouse-booking/internal/repository"
)

type holdFixture struct {
	svc       *HoldService
	rooms     *fakeRooms
	bookings  *fakeBookings
	blockages *fakeBlockages
	holds     *fakeHolds
}

func newHoldFixture(t *testing.T) *holdFixture {
	t.Helper()
	f := &holdFixture{
		rooms: &fakeRooms{rooms: map[uint64]model.Room{
			1: {ID: 1, Name: "1", Size: model.RoomSmall, Beds: 2, IsActive: true},
			2: {ID: 2, Name: "2", Size: model.RoomLarge, Beds: 3, IsActive: true},
		}},
		bookings:  &fakeBookings{},
		blockages: &fakeBlockages{},
		holds:     &fakeHolds{byID: map[string]*model.Hold{}},
	}
	f.svc = NewHoldService(nil, f.rooms, f.holds, 15*time.Minute)
	f.svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

// create mirrors CreateHold up to the insert without a database
// transaction; the fakes ignore the tx handle.
func (f *holdFixture) create(t *testing.T, req HoldRequest) (*model.Hold, error) {
	t.Helper()
	// CreateHold opens a transaction on the nil handle only after the
	// input checks pass, so validation failures surface directly.
	if req.SessionID == "" || len(req.Rooms) == 0 {
		return f.svc.CreateHold(context.Background(), req, f.bookings, f.blockages)
	}
	ctx := context.Background()
	hold, err := f.buildAndCheck(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := f.holds.CreateTx(ctx, nil, hold); err != nil {
		return nil, err
	}
	return hold, nil
}

func (f *holdFixture) buildAndCheck(ctx context.Context, req HoldRequest) (*model.Hold, error) {
	return f.svc.buildHoldTx(ctx, nil, req, f.bookings, f.blockages)
}

func TestCreateHold(t *testing.T) {
	f := newHoldFixture(t)
	hold, err := f.create(t, HoldRequest{
		SessionID: "sess-1",
		Rooms:     map[uint64]occupancy.DateRange{1: rng(t, "2025-07-10", "2025-07-12")},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if hold.ID == "" {
		t.Error("hold id not set")
	}
	want := time.Date(2025, 6, 1, 12, 15, 0, 0, time.UTC)
	if !hold.ExpiresAt.Equal(want) {
		t.Errorf("expires at %v, want %v", hold.ExpiresAt, want)
	}
	if len(f.holds.createdHolds) != 1 {
		t.Fatalf("created %d holds", len(f.holds.createdHolds))
	}
}

func TestCreateHoldSupersedesOwnSession(t *testing.T) {
	f := newHoldFixture(t)
	f.holds.ranges = []repository.SessionRange{
		{HoldID: "old", SessionID: "sess-1", RoomID: 1, Start: day(t, "2025-07-09"), End: day(t, "2025-07-11")},
	}
	_, err := f.create(t, HoldRequest{
		SessionID: "sess-1",
		Rooms:     map[uint64]occupancy.DateRange{1: rng(t, "2025-07-10", "2025-07-12")},
	})
	if err != nil {
		t.Fatalf("overlapping own hold rejected: %v", err)
	}
	if len(f.holds.superseded) != 1 {
		t.Error("supersede not invoked")
	}
	if len(f.holds.ranges) != 0 {
		t.Errorf("own overlapping hold survived: %+v", f.holds.ranges)
	}
}

func TestCreateHoldConflictsWithForeignHold(t *testing.T) {
	f := newHoldFixture(t)
	f.holds.ranges = []repository.SessionRange{
		{HoldID: "other", SessionID: "sess-2", RoomID: 1, Start: day(t, "2025-07-11"), End: day(t, "2025-07-13")},
	}
	_, err := f.create(t, HoldRequest{
		SessionID: "sess-1",
		Rooms:     map[uint64]occupancy.DateRange{1: rng(t, "2025-07-10", "2025-07-12")},
	})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
	if conflict.RoomID != 1 || !conflict.Night.Equal(day(t, "2025-07-11")) {
		t.Errorf("conflict = %+v", conflict)
	}
	// the reported range is the other session's hold, so the caller
	// knows which dates to steer around
	if conflict.Range == nil {
		t.Fatal("conflict range not reported")
	}
	if !conflict.Range.Start.Equal(day(t, "2025-07-11")) || !conflict.Range.End.Equal(day(t, "2025-07-13")) {
		t.Errorf("conflict range = %s..%s, want the occupying hold's range",
			occupancy.FormatDay(conflict.Range.Start), occupancy.FormatDay(conflict.Range.End))
	}
}

func TestCreateHoldConflictsWithBooking(t *testing.T) {
	f := newHoldFixture(t)
	f.bookings.ranges = []repository.RoomRange{
		{BookingID: 9, RoomID: 1, Start: day(t, "2025-07-11"), End: day(t, "2025-07-13")},
	}
	_, err := f.create(t, HoldRequest{
		SessionID: "sess-1",
		Rooms:     map[uint64]occupancy.DateRange{1: rng(t, "2025-07-10", "2025-07-12")},
	})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
}

func TestCreateHoldValidation(t *testing.T) {
	f := newHoldFixture(t)
	cases := []struct {
		name string
		req  HoldRequest
	}{
		{"missing session", HoldRequest{Rooms: map[uint64]occupancy.DateRange{1: rng(t, "2025-07-10", "2025-07-12")}}},
		{"no rooms", HoldRequest{SessionID: "sess-1"}},
		{"empty range", HoldRequest{SessionID: "sess-1", Rooms: map[uint64]occupancy.DateRange{1: rng(t, "2025-07-10", "2025-07-10")}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.create(t, tc.req)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestCancelHold(t *testing.T) {
	f := newHoldFixture(t)
	f.holds.byID["h1"] = &model.Hold{ID: "h1", SessionID: "sess-1"}

	if err := f.svc.CancelHold(context.Background(), "h1", "sess-2"); err == nil {
		t.Error("foreign session cancelled the hold")
	}
	if err := f.svc.CancelHold(context.Background(), "h1", "sess-1"); err != nil {
		t.Fatalf("owner cancel failed: %v", err)
	}
	if len(f.holds.deletedIDs) != 1 || f.holds.deletedIDs[0] != "h1" {
		t.Errorf("deleted = %v", f.holds.deletedIDs)
	}

	var nf *NotFoundError
	if err := f.svc.CancelHold(context.Background(), "missing", "sess-1"); !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}
