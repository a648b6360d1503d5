package audio

import (
	"math"
)

// LevelConfig holds the thresholds used to judge a captured channel
type LevelConfig struct {
	// SilenceThreshold is the RMS below which a channel is considered dead,
	// typically an unplugged antenna or a muted input
	SilenceThreshold float64

	// ClipThreshold is the absolute sample value treated as clipping
	ClipThreshold float64

	// SilentCaptures is the number of consecutive silent captures before the
	// signal is reported lost
	SilentCaptures int
}

// DefaultLevelConfig returns a default level configuration
func DefaultLevelConfig() LevelConfig {
	return LevelConfig{
		SilenceThreshold: 1e-5,
		ClipThreshold:    0.999,
		SilentCaptures:   3,
	}
}

// Level summarizes the amplitude of one channel
type Level struct {
	RMS     float64
	Peak    float64
	Clipped int
}

// MeasureLevel computes the RMS, peak and clipped sample count of a series
func MeasureLevel[T Sample](samples []T, clipThreshold float64) Level {
	var lvl Level
	if len(samples) == 0 {
		return lvl
	}

	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
		a := math.Abs(v)
		if a > lvl.Peak {
			lvl.Peak = a
		}
		if a >= clipThreshold {
			lvl.Clipped++
		}
	}
	lvl.RMS = math.Sqrt(sum / float64(len(samples)))
	return lvl
}

// LevelMonitor tracks one channel across captures and reports when the signal
// disappears or comes back
type LevelMonitor struct {
	config      LevelConfig
	silentCount int
	lost        bool
}

// NewLevelMonitor creates a new level monitor
func NewLevelMonitor(config LevelConfig) *LevelMonitor {
	return &LevelMonitor{config: config}
}

// Process measures one capture.
// Returns: (level, signalLost, signalRestored)
func (m *LevelMonitor) Process(samples []float64) (Level, bool, bool) {
	lvl := MeasureLevel(samples, m.config.ClipThreshold)
	lost, restored := m.Observe(lvl)
	return lvl, lost, restored
}

// Observe updates the state with an already measured level.
// Returns: (signalLost, signalRestored)
func (m *LevelMonitor) Observe(lvl Level) (bool, bool) {
	lost := false
	restored := false
	if lvl.RMS < m.config.SilenceThreshold {
		m.silentCount++
		if !m.lost && m.silentCount >= m.config.SilentCaptures {
			m.lost = true
			lost = true
		}
	} else {
		m.silentCount = 0
		if m.lost {
			m.lost = false
			restored = true
		}
	}
	return lost, restored
}

// IsLost returns whether the signal is currently considered lost
func (m *LevelMonitor) IsLost() bool {
	return m.lost
}

// Reset resets the monitor state
func (m *LevelMonitor) Reset() {
	m.silentCount = 0
	m.lost = false
}
