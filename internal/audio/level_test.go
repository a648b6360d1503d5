package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeasureLevel(t *testing.T) {
	samples := make([]float64, 1000)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*float64(i)/100)
	}

	lvl := MeasureLevel(samples, 0.999)
	assert.InDelta(t, 0.5/math.Sqrt2, lvl.RMS, 1e-3)
	assert.InDelta(t, 0.5, lvl.Peak, 1e-3)
	assert.Zero(t, lvl.Clipped)

	lvl = MeasureLevel([]float32{1, -1, 0.2}, 0.999)
	assert.Equal(t, 2, lvl.Clipped)

	assert.Equal(t, Level{}, MeasureLevel[float64](nil, 1))
}

func TestLevelMonitorLostAndRestored(t *testing.T) {
	m := NewLevelMonitor(LevelConfig{SilenceThreshold: 0.01, ClipThreshold: 1, SilentCaptures: 2})
	silent := make([]float64, 100)
	loud := []float64{0.5, -0.5, 0.5, -0.5}

	_, lost, _ := m.Process(silent)
	assert.False(t, lost)
	_, lost, _ = m.Process(silent)
	assert.True(t, lost)
	assert.True(t, m.IsLost())

	_, lost, _ = m.Process(silent)
	assert.False(t, lost, "lost is reported once")

	_, _, restored := m.Process(loud)
	assert.True(t, restored)
	assert.False(t, m.IsLost())

	m.Reset()
	_, lost, _ = m.Process(silent)
	assert.False(t, lost)
}
