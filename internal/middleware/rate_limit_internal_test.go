package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (l *RateLimiter) size() int {
	n := 0
	l.clients.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	l := NewRateLimiter(10, 5)
	l.now = func() time.Time { return clock }
	l.lastSweep.Store(clock.UnixNano())

	l.limiter("10.0.0.1")
	l.limiter("10.0.0.2")
	require.Equal(t, 2, l.size())

	clock = clock.Add(defaultIdleTimeout / 2)
	l.limiter("10.0.0.2")

	clock = clock.Add(defaultIdleTimeout/2 + time.Second)
	l.limiter("10.0.0.3")

	assert.Equal(t, 2, l.size())
	_, ok := l.clients.Load("10.0.0.1")
	assert.False(t, ok, "idle client should be evicted")
	_, ok = l.clients.Load("10.0.0.2")
	assert.True(t, ok)
}

func TestRateLimiter_KeepsDrainedClientUntilRefilled(t *testing.T) {
	// 2 tokens at 0.001 rps refill in 2000s, longer than the default idle timeout
	l := NewRateLimiter(0.001, 2)
	assert.Equal(t, 2000*time.Second, l.idle)

	l = NewRateLimiter(100, 10)
	assert.Equal(t, defaultIdleTimeout, l.idle)
}
