package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClientLimiter_EvictsIdleClients(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewClientLimiter(1, 1, time.Minute)
	l.now = func() time.Time { return now }
	l.lastSweep = now

	assert.True(t, l.Allow("192.0.2.1"))
	assert.False(t, l.Allow("192.0.2.1"))

	now = now.Add(30 * time.Second)
	assert.True(t, l.Allow("198.51.100.7"))
	assert.Equal(t, 2, l.Len())

	// First client has been idle past the TTL; the second has not.
	now = now.Add(45 * time.Second)
	assert.True(t, l.Allow("203.0.113.9"))
	assert.Equal(t, 2, l.Len())

	l.mu.Lock()
	_, kept := l.visitors["198.51.100.7"]
	_, evicted := l.visitors["192.0.2.1"]
	l.mu.Unlock()
	assert.True(t, kept)
	assert.False(t, evicted)
}
