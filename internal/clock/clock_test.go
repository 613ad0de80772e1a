package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFake(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	f := NewFake(start)
	assert.Equal(t, start, f.Now())

	f.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute), f.Now())

	f.Set(start)
	assert.Equal(t, start, f.Now())
}

func TestStartOfDay(t *testing.T) {
	ts := time.Date(2025, 6, 3, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), StartOfDay(ts))
}
