package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystemClockIsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, NewSystemClock().Now().Location())
}

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	c := NewFakeClock(start)

	assert.True(t, c.Now().Equal(start))

	c.Advance(24 * time.Hour)
	assert.True(t, c.Now().Equal(start.Add(24*time.Hour)))
}

func TestFakeClockNormalizesToUTC(t *testing.T) {
	paris := time.FixedZone("CET", 3600)
	c := NewFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, paris))

	assert.Equal(t, time.UTC, c.Now().Location())
	assert.Equal(t, 8, c.Now().Hour())
}
