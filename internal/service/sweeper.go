package service

import (
	"context"
	"log"
	"time"
)

// RunHoldSweeper periodically deletes expired holds until the context
// is cancelled.  Expiry comparisons also happen in every hold query,
// so the sweeper only reclaims storage; a missed tick never lets an
// expired hold block a booking.
func RunHoldSweeper(ctx context.Context, holds *HoldService, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := holds.ExpireHolds(ctx)
			if err != nil {
				log.Printf("hold sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("hold sweep removed %d expired holds", n)
			}
		}
	}
}
