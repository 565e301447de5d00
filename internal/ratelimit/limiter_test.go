package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, max int, window time.Duration) (*Limiter, *time.Time) {
	t.Helper()
	l := New(Config{Max: max, Window: window, SweepInterval: time.Hour})
	t.Cleanup(l.Stop)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestCheck_AllowsUpToMax(t *testing.T) {
	l, _ := newTestLimiter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		res := l.Check("conn-1")
		require.True(t, res.Allowed, "request %d", i+1)
		require.Equal(t, 2-i, res.Remaining)
	}

	res := l.Check("conn-1")
	require.False(t, res.Allowed)
	require.Equal(t, 0, res.Remaining)
	require.Equal(t, time.Minute, res.RetryAfter)
}

func TestCheck_WindowExpiryResets(t *testing.T) {
	l, now := newTestLimiter(t, 2, time.Minute)

	require.True(t, l.Check("conn-1").Allowed)
	require.True(t, l.Check("conn-1").Allowed)
	require.False(t, l.Check("conn-1").Allowed)

	// Exactly at expiry a new window starts.
	*now = now.Add(time.Minute)
	res := l.Check("conn-1")
	require.True(t, res.Allowed)
	require.Equal(t, 1, res.Remaining)
}

func TestCheck_ConnectionsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(t, 1, time.Minute)

	require.True(t, l.Check("conn-1").Allowed)
	require.False(t, l.Check("conn-1").Allowed)

	require.True(t, l.Check("conn-2").Allowed, "another connection must have its own budget")
}

func TestCheck_RetryAfterCountsDown(t *testing.T) {
	l, now := newTestLimiter(t, 1, time.Minute)

	require.True(t, l.Check("conn-1").Allowed)

	*now = now.Add(40 * time.Second)
	res := l.Check("conn-1")
	require.False(t, res.Allowed)
	require.Equal(t, 20*time.Second, res.RetryAfter)
}

func TestRelease_DropsCounter(t *testing.T) {
	l, _ := newTestLimiter(t, 1, time.Minute)

	require.True(t, l.Check("conn-1").Allowed)
	require.False(t, l.Check("conn-1").Allowed)

	l.Release("conn-1")
	require.True(t, l.Check("conn-1").Allowed, "released connection starts fresh")
}

func TestSweep_RemovesOnlyExpiredEntries(t *testing.T) {
	l, now := newTestLimiter(t, 5, time.Minute)

	l.Check("old")
	*now = now.Add(30 * time.Second)
	l.Check("fresh")

	*now = now.Add(30 * time.Second) // "old" is exactly at expiry now
	l.sweep()

	l.mu.Lock()
	_, oldKept := l.entries["old"]
	_, freshKept := l.entries["fresh"]
	l.mu.Unlock()

	require.False(t, oldKept)
	require.True(t, freshKept)
}

func TestStop_Idempotent(t *testing.T) {
	l := New(Config{Max: 1, Window: time.Minute})
	l.Stop()
	l.Stop() // must not panic
}
