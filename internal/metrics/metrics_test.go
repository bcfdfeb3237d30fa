package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrySnapshot(t *testing.T) {
	r := NewRegistry()
	r.Count("relay", "event")
	r.Count("relay", "event")
	r.Outcome("router", "route", "managed-surface")
	r.Outcome("router", "route", "os-handler")
	r.Outcome("router", "route", "managed-surface")
	r.Duration("surface", "load", 10*time.Millisecond)
	r.Duration("surface", "load", 30*time.Millisecond)

	snap := r.Snapshot()
	require.Len(t, snap, 3)

	assert.Equal(t, "relay/event", snap[0].Path)
	assert.Equal(t, KindCounter, snap[0].Kind)
	assert.Equal(t, int64(2), snap[0].Count)

	assert.Equal(t, "router/route", snap[1].Path)
	assert.Equal(t, int64(3), snap[1].Count)
	assert.Equal(t, map[string]int64{"managed-surface": 2, "os-handler": 1}, snap[1].Outcomes)

	load := snap[2]
	assert.Equal(t, KindTiming, load.Kind)
	assert.Equal(t, int64(2), load.Count)
	assert.InDelta(t, 20.0, load.AvgMs, 0.001)
	assert.InDelta(t, 10.0, load.MinMs, 0.001)
	assert.InDelta(t, 30.0, load.MaxMs, 0.001)

	r.Reset()
	assert.Empty(t, r.Snapshot())
}

func TestTimingRingBuffer(t *testing.T) {
	var tm timing
	for i := 1; i <= maxSamples+10; i++ {
		tm.record(time.Duration(i) * time.Millisecond)
	}
	assert.Len(t, tm.samples, maxSamples)
	assert.Equal(t, int64(maxSamples+10), tm.count)
	assert.Equal(t, time.Millisecond, tm.min)
	assert.Equal(t, time.Duration(maxSamples+10)*time.Millisecond, tm.max)
	assert.Greater(t, tm.percentile(0.95), 900*time.Millisecond)
}

func TestGlobalHelpers(t *testing.T) {
	Global().Reset()
	MetricCount("a", "b")
	MetricOutcome("a", "c", "ok")
	MetricSince("a", "d", time.Now().Add(-time.Millisecond))
	assert.Len(t, Global().Snapshot(), 3)
}
