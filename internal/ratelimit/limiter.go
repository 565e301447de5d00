package ratelimit

import (
	"sync"
	"time"
)

// Config holds the thresholds for one event category. Each category
// ("join", "message", ...) gets its own Limiter instance.
type Config struct {
	Max           int           `mapstructure:"max"`
	Window        time.Duration `mapstructure:"window"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// Result reports the outcome of a limit check plus the budget information
// clients need for backoff messaging.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type entry struct {
	count     int
	expiresAt time.Time
}

// Limiter is a fixed-window per-connection request counter. On first
// observation of a connection, or once its window has elapsed, the counter
// resets to 1 with a fresh expiry; otherwise it increments and compares to
// the configured maximum. The counter is never decremented mid-window.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	cfg     Config

	done     chan struct{}
	stopOnce sync.Once

	now func() time.Time // swapped in tests
}

// New creates a Limiter and starts its background sweeper.
func New(cfg Config) *Limiter {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * cfg.Window
	}
	l := &Limiter{
		entries: make(map[string]*entry),
		cfg:     cfg,
		done:    make(chan struct{}),
		now:     time.Now,
	}
	go l.sweepLoop()
	return l
}

// Check records one request for the connection and reports whether it is
// within budget. A request arriving exactly at window expiry counts as the
// start of a new window.
func (l *Limiter) Check(connID string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[connID]
	if !ok || !now.Before(e.expiresAt) {
		l.entries[connID] = &entry{count: 1, expiresAt: now.Add(l.cfg.Window)}
		return Result{Allowed: true, Remaining: l.cfg.Max - 1, RetryAfter: l.cfg.Window}
	}

	e.count++
	if e.count > l.cfg.Max {
		return Result{Allowed: false, Remaining: 0, RetryAfter: e.expiresAt.Sub(now)}
	}
	return Result{Allowed: true, Remaining: l.cfg.Max - e.count, RetryAfter: e.expiresAt.Sub(now)}
}

// Release drops the connection's counter. Called on disconnect so the map
// does not grow without bound under connection churn.
func (l *Limiter) Release(connID string) {
	l.mu.Lock()
	delete(l.entries, connID)
	l.mu.Unlock()
}

// Stop terminates the background sweeper.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

func (l *Limiter) sweepLoop() {
	ticker := time.NewTicker(l.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.done:
			return
		}
	}
}

// sweep removes expired entries. It holds the lock only long enough to
// walk the map once, so it cannot stall event handling.
func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for id, e := range l.entries {
		if !now.Before(e.expiresAt) {
			delete(l.entries, id)
		}
	}
}
