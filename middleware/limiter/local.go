package limiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	localMaxKeys = 10000
	localIdleTTL = 10 * time.Minute
)

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Local is an in-process token bucket per key.
type Local struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	entries map[string]*localEntry
	now     func() time.Time
}

// NewLocal allows perMinute requests per key per minute with bursts of
// the same size.
func NewLocal(perMinute int) *Local {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &Local{
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   perMinute,
		entries: make(map[string]*localEntry),
		now:     time.Now,
	}
}

// Allow implements Limiter.
func (l *Local) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok {
		if len(l.entries) >= localMaxKeys {
			l.evictLocked(now)
		}
		e = &localEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1), nil
}

func (l *Local) evictLocked(now time.Time) {
	for k, e := range l.entries {
		if now.Sub(e.lastSeen) > localIdleTTL {
			delete(l.entries, k)
		}
	}
}

// Len returns the number of tracked keys.
func (l *Local) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
