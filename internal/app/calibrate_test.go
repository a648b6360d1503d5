package app

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmett/supersid/internal/audio"
	"github.com/emmett/supersid/internal/output"
)

func newCalibrationMonitor(t *testing.T, count int, freqs ...float64) (*Monitor, *audio.Recorder[float64], *bytes.Buffer) {
	t.Helper()
	cfg := testConfig()
	rec, err := audio.NewRecorder[float64](&toneDriver{freqs: freqs}, cfg.DeviceConfig(), cfg.SoundCard.Channels)
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })

	var out bytes.Buffer
	m := NewMonitor(MonitorConfig{Config: cfg, Count: count})
	m.console = output.NewConsoleOutput(output.ConsoleConfig{Writer: &out})
	return m, rec, &out
}

func TestCalibrateLoopShowsLevel(t *testing.T) {
	m, rec, out := newCalibrationMonitor(t, 2, 24000)

	require.NoError(t, m.CalibrateLoop(context.Background(), rec, 1))

	// 0.3 amplitude sine: RMS 0.212, -13.5 dBFS
	assert.Equal(t, 2, strings.Count(out.String(), "ch1: ["))
	assert.Contains(t, out.String(), "-13.5 dBFS")
}

func TestCalibrateLoopReportsSilence(t *testing.T) {
	m, rec, out := newCalibrationMonitor(t, 3, 24000)

	require.NoError(t, m.CalibrateLoop(context.Background(), rec, 2))
	assert.Contains(t, out.String(), "[*] ch2: no signal")
}

func TestCalibrateLoopChannelOutOfRange(t *testing.T) {
	m, rec, _ := newCalibrationMonitor(t, 1, 24000)

	err := m.CalibrateLoop(context.Background(), rec, 3)
	require.Error(t, err)
}

func TestCalibrateLoopStopsOnCancel(t *testing.T) {
	m, rec, out := newCalibrationMonitor(t, 0, 24000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, m.CalibrateLoop(ctx, rec, 1))
	assert.NotContains(t, out.String(), "ch1: [")
}
