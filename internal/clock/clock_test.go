package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayKey_SameJSTDay(t *testing.T) {
	// 23:30 JST and 00:10 JST next hour block, both before JST midnight.
	early := time.Date(2025, 12, 11, 14, 30, 0, 0, time.UTC) // 23:30 JST Dec 11
	late := time.Date(2025, 12, 11, 14, 55, 0, 0, time.UTC)  // 23:55 JST Dec 11

	assert.Equal(t, "2025-12-11", DayKey(early))
	assert.Equal(t, DayKey(early), DayKey(late))
}

func TestDayKey_RollsAtJSTMidnight(t *testing.T) {
	before := time.Date(2025, 12, 11, 14, 59, 0, 0, time.UTC) // 23:59 JST Dec 11
	after := time.Date(2025, 12, 11, 15, 10, 0, 0, time.UTC)  // 00:10 JST Dec 12

	assert.Equal(t, "2025-12-11", DayKey(before))
	assert.Equal(t, "2025-12-12", DayKey(after))
}

func TestDayKey_IgnoresServerZone(t *testing.T) {
	// The same instant expressed in a different zone maps to the same key.
	ny := time.FixedZone("EST", -5*60*60)
	instant := time.Date(2025, 12, 11, 14, 30, 0, 0, time.UTC)

	assert.Equal(t, DayKey(instant), DayKey(instant.In(ny)))
}

func TestFakeClock_Advance(t *testing.T) {
	c := NewFakeClock(time.Date(2025, 12, 11, 0, 0, 0, 0, time.UTC))
	c.Advance(24 * time.Hour)
	assert.Equal(t, "2025-12-12", DayKey(c.Now()))
}

func TestFakeClock_Set(t *testing.T) {
	c := NewFakeClock(time.Date(2025, 12, 11, 0, 0, 0, 0, time.UTC))
	jst := time.FixedZone("JST", 9*60*60)
	c.Set(time.Date(2026, 1, 1, 0, 30, 0, 0, jst))

	assert.Equal(t, "2026-01-01", DayKey(c.Now()))
	assert.Equal(t, time.UTC, c.Now().Location())
}
