package video

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecord_ShortID(t *testing.T) {
	r := &Record{Identifier: "a1b2c3d4-0000-1111-2222-333344445555"}
	assert.Equal(t, "#a1b2c3d4", r.ShortID())

	r = &Record{Identifier: "nodash"}
	assert.Equal(t, "#nodash", r.ShortID())
}

func TestDurationToUnits(t *testing.T) {
	assert.InDelta(t, 62.5, DurationToUnits(1, 2, 30), 1e-9)
	// Seconds round up.
	assert.InDelta(t, 1.0+1.0/60, DurationToUnits(0, 1, 0.2), 1e-9)
	assert.Equal(t, 0.0, DurationToUnits(0, 0, 0))
}

func TestFormatPublished(t *testing.T) {
	ts := time.Date(2024, 3, 7, 9, 5, 4, 0, time.Local)

	date, clock := FormatPublished(ts)
	assert.Equal(t, "2024-03-07", date)
	assert.Equal(t, "9.5.4", clock)
}
