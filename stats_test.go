package framevk

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrameStats(t *testing.T) {
	var buf bytes.Buffer
	s := NewFrameStats(true, NewLogger(&buf))
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Tick()
	now = now.Add(400 * time.Millisecond)
	s.Tick()
	assert.Equal(t, uint64(2), s.Frames)
	assert.Zero(t, s.FPS)
	assert.Empty(t, buf.String())

	now = now.Add(600 * time.Millisecond)
	s.Tick()
	assert.InDelta(t, 3.0, s.FPS, 1e-9)
	assert.Contains(t, buf.String(), "3.0 fps (3 frames)")

	now = now.Add(2 * time.Second)
	s.Tick()
	assert.InDelta(t, 0.5, s.FPS, 1e-9)
	assert.Equal(t, uint64(4), s.Frames)
}

func TestFrameStatsQuiet(t *testing.T) {
	var buf bytes.Buffer
	s := NewFrameStats(false, NewLogger(&buf))
	now := time.Now()
	s.now = func() time.Time { return now }
	s.Tick()
	now = now.Add(time.Second)
	s.Tick()
	assert.InDelta(t, 2.0, s.FPS, 1e-9)
	assert.Empty(t, buf.String())
}
