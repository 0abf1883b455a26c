package model

import (
	"fmt"
	"time"
)

// RoomRates holds the nightly rates for one tier/size combination.
// Base covers the first priced guest in the room; every further adult
// adds ExtraAdult and every child adds Child.  All amounts are whole
// currency units.
type RoomRates struct {
	Base       int64 `json:"base"`        // covers the first priced guest
	ExtraAdult int64 `json:"extra_adult"` // each additional adult
	Child      int64 `json:"child"`       // each child
}

// PriceTable maps tier and room size to the standard per-room rates.
type PriceTable map[Tier]map[RoomSize]RoomRates

// BulkRates holds the per-person nightly rates of one tier for bulk
// (whole-property) bookings.
type BulkRates struct {
	Adult int64 `json:"adult"` // per adult and night
	Child int64 `json:"child"` // per child and night
}

// BulkPriceTable prices a bulk booking: a flat nightly base for the
// property plus per-person surcharges by tier.
type BulkPriceTable struct {
	Base    int64               `json:"base"`     // flat nightly base
	PerTier map[Tier]BulkRates  `json:"per_tier"` // per-person surcharges
}

// RestrictionPeriod is the seasonal ("Christmas") window during which
// bookings are gated by access codes until a cutoff date.  The cutoff
// is the day before the open season of the period's year starts; after
// it, standard bookings need no code and bulk bookings are rejected.
//
// Fields:
//  Start       – first restricted day (inclusive), UTC midnight.
//  End         – day the restriction ends (exclusive), UTC midnight.
//  Year        – year the cutoff date is derived from.
//  AccessCodes – admin-configured codes accepted before the cutoff.
type RestrictionPeriod struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Year        int       `json:"year"`
	AccessCodes []string  `json:"access_codes"`
}

// Settings is the validated configuration record persisted in the
// settings table as a JSON blob.  It is loaded once per request path
// that needs it and schema-checked both at load and on admin update.
type Settings struct {
	Prices        PriceTable         `json:"prices"`
	BulkPrices    BulkPriceTable     `json:"bulk_prices"`
	Restriction   *RestrictionPeriod `json:"restriction,omitempty"`
	BulkCapacity  int                `json:"bulk_capacity"`   // property-wide guest bound
	BulkMinGuests int                `json:"bulk_min_guests"` // minimum guests for bulk
	// Open season start for the restriction year; the cutoff is the
	// day before.  Defaults to October 1 when zero.
	OpenSeasonMonth time.Month `json:"open_season_month"`
	OpenSeasonDay   int        `json:"open_season_day"`
}

// Validate performs the numeric-range checks enforced at load and on
// every admin update.  Rates must be non-negative, both tiers and both
// room sizes must be present, and the bulk bounds must be coherent.
func (s *Settings) Validate() error {
	for _, tier := range []Tier{TierUtia, TierExternal} {
		sizes, ok := s.Prices[tier]
		if !ok {
			return fmt.Errorf("settings: missing price rates for tier %q", tier)
		}
		for _, size := range []RoomSize{RoomSmall, RoomLarge} {
			r, ok := sizes[size]
			if !ok {
				return fmt.Errorf("settings: missing price rates for tier %q size %q", tier, size)
			}
			if r.Base < 0 || r.ExtraAdult < 0 || r.Child < 0 {
				return fmt.Errorf("settings: negative rate for tier %q size %q", tier, size)
			}
		}
		br, ok := s.BulkPrices.PerTier[tier]
		if !ok {
			return fmt.Errorf("settings: missing bulk rates for tier %q", tier)
		}
		if br.Adult < 0 || br.Child < 0 {
			return fmt.Errorf("settings: negative bulk rate for tier %q", tier)
		}
	}
	if s.BulkPrices.Base < 0 {
		return fmt.Errorf("settings: negative bulk base rate")
	}
	if s.BulkCapacity <= 0 {
		return fmt.Errorf("settings: bulk capacity must be positive")
	}
	if s.BulkMinGuests <= 0 || s.BulkMinGuests > s.BulkCapacity {
		return fmt.Errorf("settings: bulk minimum guests must be within 1..%d", s.BulkCapacity)
	}
	if r := s.Restriction; r != nil {
		if !r.Start.Before(r.End) {
			return fmt.Errorf("settings: restriction period start must precede end")
		}
		if r.Year < r.Start.Year()-1 || r.Year > r.End.Year() {
			return fmt.Errorf("settings: restriction year %d does not match period", r.Year)
		}
	}
	if s.OpenSeasonDay < 0 || s.OpenSeasonDay > 31 {
		return fmt.Errorf("settings: invalid open season day %d", s.OpenSeasonDay)
	}
	return nil
}

// OpenSeason returns the configured open-season start, falling back to
// October 1 when unset.
func (s *Settings) OpenSeason() (time.Month, int) {
	if s.OpenSeasonMonth == 0 || s.OpenSeasonDay == 0 {
		return time.October, 1
	}
	return s.OpenSeasonMonth, s.OpenSeasonDay
}
