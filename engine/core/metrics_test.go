package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrameStatsAverage(t *testing.T) {
	fs := NewFrameStats()
	for i := 0; i < int(AVG_COUNT); i++ {
		fs.Update(10 * time.Millisecond)
	}
	assert.InDelta(t, 10.0, fs.FrameTime(), 1e-9)
	assert.Equal(t, uint64(AVG_COUNT), fs.Total())
}

func TestFrameStatsFPS(t *testing.T) {
	fs := NewFrameStats()

	refreshed := false
	// 101 frames of 10ms crosses the one second mark on the last one.
	for i := 0; i < 101; i++ {
		refreshed = fs.Update(10 * time.Millisecond)
	}
	assert.True(t, refreshed)
	assert.Equal(t, 101.0, fs.FPS())
}
