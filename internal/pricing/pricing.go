// Package pricing computes booking totals.  All functions are pure:
// they take the validated price tables from settings plus the guest
// composition and return a non-negative total in whole currency units.
// Toddlers are free and excluded from every calculation.  Because a
// single room or bulk booking may legitimately mix tiers, every price
// is computed per guest instance, never by applying one aggregate tier
// to everyone.
package pricing

import (
	"errors"
	"fmt"

	"github.com/utia/guesthouse-booking/internal/model"
)

// ErrNoPricedGuest is returned when a stay contains no adult or child.
var ErrNoPricedGuest = errors.New("pricing: no priced guest in stay")

// RoomStay is the pricing input for one room of a standard booking.
type RoomStay struct {
	Size   model.RoomSize
	Nights int
	Guests []model.Guest
}

// rates looks up the table row for one tier/size pair.
func rates(table model.PriceTable, tier model.Tier, size model.RoomSize) (model.RoomRates, error) {
	sizes, ok := table[tier]
	if !ok {
		return model.RoomRates{}, fmt.Errorf("pricing: no rates for tier %q", tier)
	}
	r, ok := sizes[size]
	if !ok {
		return model.RoomRates{}, fmt.Errorf("pricing: no rates for tier %q size %q", tier, size)
	}
	return r, nil
}

// RoomTotal prices one room: the base rate of the first priced guest's
// tier covers that guest, every further adult adds the extra-adult
// surcharge of their own tier and every child adds the child surcharge
// of their own tier; the nightly sum is multiplied by the room's night
// count.  Adults are covered by the base before children.
func RoomTotal(table model.PriceTable, stay RoomStay) (int64, error) {
	if stay.Nights <= 0 {
		return 0, fmt.Errorf("pricing: non-positive night count %d", stay.Nights)
	}
	var adults, children []model.Guest
	for _, g := range stay.Guests {
		switch g.Type {
		case model.PersonAdult:
			adults = append(adults, g)
		case model.PersonChild:
			children = append(children, g)
		}
		// toddlers fall through: never priced
	}
	if len(adults)+len(children) == 0 {
		return 0, ErrNoPricedGuest
	}

	var nightly int64
	if len(adults) > 0 {
		r, err := rates(table, adults[0].Tier, stay.Size)
		if err != nil {
			return 0, err
		}
		nightly += r.Base
		for _, g := range adults[1:] {
			r, err := rates(table, g.Tier, stay.Size)
			if err != nil {
				return 0, err
			}
			nightly += r.ExtraAdult
		}
		for _, g := range children {
			r, err := rates(table, g.Tier, stay.Size)
			if err != nil {
				return 0, err
			}
			nightly += r.Child
		}
	} else {
		// Children only: the base covers the first child.
		r, err := rates(table, children[0].Tier, stay.Size)
		if err != nil {
			return 0, err
		}
		nightly += r.Base
		for _, g := range children[1:] {
			r, err := rates(table, g.Tier, stay.Size)
			if err != nil {
				return 0, err
			}
			nightly += r.Child
		}
	}
	return nightly * int64(stay.Nights), nil
}

// StandardTotal prices a standard multi-room booking by summing the
// per-room totals.  Rooms may have differing night counts when their
// date ranges differ.
func StandardTotal(table model.PriceTable, stays []RoomStay) (int64, error) {
	var total int64
	for _, stay := range stays {
		t, err := RoomTotal(table, stay)
		if err != nil {
			return 0, err
		}
		total += t
	}
	return total, nil
}

// BulkTotal prices a whole-property booking: the flat nightly base
// plus per-tier adult and child surcharges for every priced guest,
// multiplied by the night count.  Mixed tiers are summed per tier
// rather than applying one tier to everyone.
func BulkTotal(table model.BulkPriceTable, nights int, guests []model.Guest) (int64, error) {
	if nights <= 0 {
		return 0, fmt.Errorf("pricing: non-positive night count %d", nights)
	}
	nightly := table.Base
	priced := 0
	for _, g := range guests {
		if g.Type == model.PersonToddler {
			continue
		}
		r, ok := table.PerTier[g.Tier]
		if !ok {
			return 0, fmt.Errorf("pricing: no bulk rates for tier %q", g.Tier)
		}
		switch g.Type {
		case model.PersonAdult:
			nightly += r.Adult
		case model.PersonChild:
			nightly += r.Child
		}
		priced++
	}
	if priced == 0 {
		return 0, ErrNoPricedGuest
	}
	return nightly * int64(nights), nil
}
