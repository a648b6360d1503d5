package app

import (
	"context"
	"fmt"

	"github.com/emmett/supersid/internal/audio"
	"github.com/emmett/supersid/internal/output"
	"github.com/emmett/supersid/internal/sampler"
)

// CalibrationCaptureMs is the capture length of one level reading
const CalibrationCaptureMs = 200

// Calibrate shows the live input level of one channel until Ctrl+C or Count readings
func (m *Monitor) Calibrate(channel int) error {
	cfg := m.config.Config
	if err := cfg.Validate(); err != nil {
		return err
	}
	if channel < 1 || channel > cfg.SoundCard.Channels {
		return fmt.Errorf("channel %d out of range 1..%d", channel, cfg.SoundCard.Channels)
	}

	m.console = output.DefaultConsoleOutput()

	rec, closeRec, err := openRecorder(cfg)
	if err != nil {
		return err
	}
	defer closeRec()

	m.console.Info(fmt.Sprintf("Showing the level of channel %d on %q. Press Ctrl+C to stop.", channel, cfg.SoundCard.Device))

	ctx, cancel := m.interruptContext("Stopping calibration...")
	defer cancel()

	return m.CalibrateLoop(ctx, rec, channel)
}

// CalibrateLoop reads short captures and redraws the level bar of one channel
func (m *Monitor) CalibrateLoop(ctx context.Context, src sampler.Source, channel int) error {
	if m.console == nil {
		m.console = output.DefaultConsoleOutput()
	}
	lm := audio.NewLevelMonitor(m.config.Config.LevelConfig())
	defer m.console.Clear()

	for n := 1; m.config.Count == 0 || n <= m.config.Count; n++ {
		if ctx.Err() != nil {
			return nil
		}

		data, err := src.Record(CalibrationCaptureMs)
		if err != nil {
			return err
		}
		if channel > len(data) {
			return fmt.Errorf("channel %d not captured, got %d channels", channel, len(data))
		}

		lvl, _, _ := lm.Process(data[channel-1].Samples)
		m.console.Clear()
		switch {
		case lm.IsLost():
			m.console.Status(fmt.Sprintf("ch%d: no signal", channel))
		case lvl.Clipped > 0:
			m.console.Status(fmt.Sprintf("ch%d: %d clipped samples, reduce the input gain", channel, lvl.Clipped))
		default:
			m.console.WriteLevel(channel, lvl.RMS)
		}
	}
	return nil
}
