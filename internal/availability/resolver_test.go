package availability

import (
	"testing"
	"time"

	"github.com/utia/guesthouse-booking/internal/occupancy"
	"github.com/utia/guesthouse-booking/internal/repository"
)

func day(s string) time.Time {
	t, err := occupancy.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func rng(start, end string) occupancy.DateRange {
	return occupancy.DateRange{Start: day(start), End: day(end)}
}

func TestDayStatusAroundBooking(t *testing.T) {
	src := RoomSource{Bookings: []occupancy.DateRange{rng("2025-06-10", "2025-06-12")}}
	cases := []struct {
		day  string
		want occupancy.DayStatus
	}{
		{"2025-06-09", occupancy.DayStatus{Status: occupancy.StatusAvailable}},
		{"2025-06-10", occupancy.DayStatus{Status: occupancy.StatusEdge}}, // check-in day
		{"2025-06-11", occupancy.DayStatus{Status: occupancy.StatusOccupied}},
		{"2025-06-12", occupancy.DayStatus{Status: occupancy.StatusEdge}}, // checkout day
		{"2025-06-13", occupancy.DayStatus{Status: occupancy.StatusAvailable}},
	}
	for _, tc := range cases {
		if got := src.DayStatus(day(tc.day), ""); got != tc.want {
			t.Errorf("DayStatus(%s) = %+v, want %+v", tc.day, got, tc.want)
		}
	}
}

func TestDayStatusHoldExcludesOwner(t *testing.T) {
	src := RoomSource{Holds: []HoldRange{{SessionID: "session-a", Range: rng("2025-07-01", "2025-07-03")}}}

	// The owning session sees its own hold as free space.
	if got := src.DayStatus(day("2025-07-02"), "session-a"); got.Status != occupancy.StatusAvailable {
		t.Errorf("owner sees %+v, want available", got)
	}
	// Everyone else sees the day as proposed.
	if got := src.DayStatus(day("2025-07-02"), "session-b"); got.Status != occupancy.StatusProposed {
		t.Errorf("other session sees %+v, want proposed", got)
	}
	if got := src.DayStatus(day("2025-07-02"), ""); got.Status != occupancy.StatusProposed {
		t.Errorf("anonymous sees %+v, want proposed", got)
	}
}

func TestDayStatusMixedEdge(t *testing.T) {
	src := RoomSource{
		Bookings: []occupancy.DateRange{rng("2025-06-08", "2025-06-10")},
		Holds:    []HoldRange{{SessionID: "s", Range: rng("2025-06-10", "2025-06-12")}},
	}
	got := src.DayStatus(day("2025-06-10"), "")
	want := occupancy.DayStatus{Status: occupancy.StatusEdge, Mixed: true}
	if got != want {
		t.Errorf("DayStatus = %+v, want %+v", got, want)
	}
}

func TestBlockagePrecedence(t *testing.T) {
	src := RoomSource{
		Blockages: []occupancy.DateRange{rng("2025-06-10", "2025-06-12")},
		Holds:     []HoldRange{{SessionID: "s", Range: rng("2025-06-10", "2025-06-12")}},
	}
	if got := src.NightKind(day("2025-06-10"), ""); got != occupancy.NightBlocked {
		t.Errorf("NightKind = %v, want blocked", got)
	}
	// A blockage blocks even the hold owner.
	if got := src.DayStatus(day("2025-06-11"), "s"); got.Status != occupancy.StatusOccupied {
		t.Errorf("DayStatus for hold owner = %+v, want occupied", got)
	}
}

func TestFirstConflict(t *testing.T) {
	src := RoomSource{Bookings: []occupancy.DateRange{rng("2025-06-10", "2025-06-12")}}

	// Back-to-back stay ending on the existing check-in day is clean.
	if night, ok := src.FirstConflict(rng("2025-06-08", "2025-06-10"), ""); ok {
		t.Errorf("unexpected conflict at %s", occupancy.FormatDay(night))
	}
	// Starting on the checkout day is clean too.
	if night, ok := src.FirstConflict(rng("2025-06-12", "2025-06-14"), ""); ok {
		t.Errorf("unexpected conflict at %s", occupancy.FormatDay(night))
	}
	// One shared night conflicts and reports the exact night.
	night, ok := src.FirstConflict(rng("2025-06-11", "2025-06-14"), "")
	if !ok {
		t.Fatal("expected a conflict")
	}
	if got := occupancy.FormatDay(night); got != "2025-06-11" {
		t.Errorf("conflict night = %s, want 2025-06-11", got)
	}
}

func TestFirstConflictIgnoresOwnHold(t *testing.T) {
	src := RoomSource{Holds: []HoldRange{{SessionID: "mine", Range: rng("2025-07-01", "2025-07-05")}}}
	if _, ok := src.FirstConflict(rng("2025-07-01", "2025-07-05"), "mine"); ok {
		t.Error("own hold must not conflict with its session's commit")
	}
	if _, ok := src.FirstConflict(rng("2025-07-01", "2025-07-05"), "other"); !ok {
		t.Error("foreign hold must conflict")
	}
}

func TestBuildSources(t *testing.T) {
	roomA, roomB := uint64(1), uint64(2)
	blockages := []repository.BlockageRange{
		{BlockageID: 1, RoomID: nil, Start: day("2025-08-01"), End: day("2025-08-03")},  // whole property
		{BlockageID: 2, RoomID: &roomA, Start: day("2025-08-10"), End: day("2025-08-12")},
	}
	bookings := []repository.RoomRange{
		{BookingID: 7, RoomID: roomB, Start: day("2025-08-05"), End: day("2025-08-07")},
	}
	holds := []repository.SessionRange{
		{HoldID: "h1", SessionID: "s1", RoomID: roomA, Start: day("2025-08-20"), End: day("2025-08-22")},
	}
	sources := BuildSources([]uint64{roomA, roomB}, blockages, bookings, holds)

	if len(sources[roomA].Blockages) != 2 {
		t.Errorf("room A blockages = %d, want 2 (property-wide expanded)", len(sources[roomA].Blockages))
	}
	if len(sources[roomB].Blockages) != 1 {
		t.Errorf("room B blockages = %d, want 1", len(sources[roomB].Blockages))
	}
	if len(sources[roomB].Bookings) != 1 || len(sources[roomA].Bookings) != 0 {
		t.Error("bookings grouped to the wrong rooms")
	}
	if len(sources[roomA].Holds) != 1 || sources[roomA].Holds[0].SessionID != "s1" {
		t.Error("holds grouped to the wrong rooms")
	}
}
