package policy

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// CodeLimiter bounds access-code validation attempts per client
// address over a rolling window, backed by Redis.  A valid attempt
// resets the counter.  When constructed with a nil client the limiter
// degrades to allowing everything, mirroring how rate limiting is
// disabled elsewhere when Redis is unreachable.
type CodeLimiter struct {
	rdb    *redis.Client
	max    int
	window time.Duration
	prefix string
}

// NewCodeLimiter returns a limiter allowing max attempts per window.
func NewCodeLimiter(rdb *redis.Client, max int, window time.Duration) *CodeLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = 10 * time.Minute
	}
	return &CodeLimiter{rdb: rdb, max: max, window: window, prefix: "codelimit"}
}

// Allow records one attempt for the address and reports whether it is
// still within the bound.  Redis errors fail open so a cache outage
// never blocks bookings.
func (l *CodeLimiter) Allow(ctx context.Context, addr string) bool {
	if l == nil || l.rdb == nil {
		return true
	}
	key := l.prefix + ":" + addr
	n, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return true
	}
	if n == 1 {
		_ = l.rdb.Expire(ctx, key, l.window).Err()
	}
	return n <= int64(l.max)
}

// Reset clears the attempt counter for the address.  Called after a
// valid code so honest users never accumulate failures.
func (l *CodeLimiter) Reset(ctx context.Context, addr string) {
	if l == nil || l.rdb == nil {
		return
	}
	_ = l.rdb.Del(ctx, l.prefix+":"+addr).Err()
}
