package throttle

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle hands out one token bucket per key.
type Throttle struct {
	lock     sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*entry
	now      func() time.Time
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type NewThrottleOptions struct {
	// PerSecond is the sustained number of events allowed per key. Zero disables throttling.
	PerSecond float64
	Burst     int
	// Now overrides the clock, for tests.
	Now func() time.Time
}

func NewThrottle(opts NewThrottleOptions) *Throttle {
	limit := rate.Limit(opts.PerSecond)
	if opts.PerSecond <= 0 {
		limit = rate.Inf
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Throttle{
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*entry),
		now:      now,
	}
}

// Allow reports whether key may perform one more event now.
func (t *Throttle) Allow(key string) bool {
	t.lock.Lock()
	defer t.lock.Unlock()

	now := t.now()
	e, ok := t.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Prune forgets keys not seen for longer than idle and returns how many were removed.
func (t *Throttle) Prune(idle time.Duration) int {
	t.lock.Lock()
	defer t.lock.Unlock()

	cutoff := t.now().Add(-idle)
	removed := 0
	for key, e := range t.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(t.limiters, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (t *Throttle) Len() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return len(t.limiters)
}
