package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_PerKeyBurst(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	l := NewLimiter(5, 3)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("u1"), "attempt %d", i+1)
	}
	assert.False(t, l.Allow("u1"))
	assert.True(t, l.Allow("u2"), "keys do not share a bucket")

	// 5 per minute refills one attempt every 12 seconds.
	now = now.Add(13 * time.Second)
	assert.True(t, l.Allow("u1"))
	assert.False(t, l.Allow("u1"))
}

func TestLimiter_Sweep(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	l := NewLimiter(5, 1)
	l.now = func() time.Time { return now }

	l.Allow("u1")
	now = now.Add(time.Hour)
	l.Allow("u2")

	assert.Equal(t, 1, l.Sweep())
	assert.Len(t, l.entries, 1)
}
