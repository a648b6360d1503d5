package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/golang/glog"

	"github.com/emmett/supersid/internal/audio"
	"github.com/emmett/supersid/internal/config"
	"github.com/emmett/supersid/internal/output"
	"github.com/emmett/supersid/internal/plot"
	"github.com/emmett/supersid/internal/sampler"
	"github.com/emmett/supersid/internal/spectral"
	"github.com/emmett/supersid/internal/supersid"
)

// MaxConsecutiveFailures is the number of failed captures in a row that stops the monitor
const MaxConsecutiveFailures = 5

// MonitorConfig holds configuration for a monitoring run
type MonitorConfig struct {
	Config *config.Config

	// Count limits the number of captures, zero runs until interrupted
	Count int
}

// Monitor periodically captures, analyses and reports station levels
type Monitor struct {
	config  MonitorConfig
	console *output.ConsoleOutput
}

// NewMonitor creates a new Monitor instance
func NewMonitor(config MonitorConfig) *Monitor {
	return &Monitor{config: config}
}

// Run opens the sound card and monitors until Ctrl+C or Count captures
func (m *Monitor) Run() error {
	cfg := m.config.Config
	if err := cfg.Validate(); err != nil {
		return err
	}
	registry, err := cfg.Registry()
	if err != nil {
		return err
	}

	// Determine output writer
	writer := io.Writer(os.Stdout)
	if cfg.Output.File != "" {
		outFile, err := os.Create(cfg.Output.File)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer outFile.Close()
		writer = outFile
	}

	// Status messages go to stderr unless the measurements are console lines
	m.console = output.DefaultConsoleOutput()
	if cfg.Output.Format != "console" {
		m.console = output.NewConsoleOutput(output.ConsoleConfig{
			ShowTimestamp: true,
			Writer:        os.Stderr,
		})
	}

	formatter, err := output.New(cfg.Output.Format, writer, m.console)
	if err != nil {
		return err
	}
	defer formatter.Close()

	rec, closeRec, err := openRecorder(cfg)
	if err != nil {
		return err
	}
	defer closeRec()

	smp := sampler.New(rec, spectral.Welch{}, sampler.Config{
		DurationMs:    cfg.Analysis.DurationMs,
		SegmentCount:  cfg.Analysis.SegmentCount,
		ClipThreshold: cfg.Level.ClipThreshold,
	})

	params := rec.Params()
	m.console.Info(fmt.Sprintf("Monitor %s listening on %q (%s, %s, %d channels, period %d)",
		cfg.MonitorID, cfg.SoundCard.Device, params.SamplingRate, params.Format, params.Channels, params.PeriodSize))
	m.console.Info(fmt.Sprintf("Tracking %d stations with %d segments. Press Ctrl+C to stop.",
		registry.Len(), smp.Segments(params.SamplingRate.Value())))

	ctx, cancel := m.interruptContext("Stopping after the current capture...")
	defer cancel()

	return m.Loop(ctx, smp, registry, formatter)
}

// openRecorder opens the configured sound card for capture
func openRecorder(cfg *config.Config) (*audio.Recorder[float64], func(), error) {
	driver, err := audio.NewMalgoDriver()
	if err != nil {
		return nil, nil, err
	}

	rec, err := audio.NewRecorder[float64](driver, cfg.DeviceConfig(), cfg.SoundCard.Channels)
	if err != nil {
		driver.Close()
		return nil, nil, fmt.Errorf("failed to open sound card: %w", err)
	}
	return rec, func() {
		rec.Close()
		driver.Close()
	}, nil
}

// interruptContext returns a context cancelled on Ctrl+C or SIGTERM
func (m *Monitor) interruptContext(msg string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			m.console.Info(msg)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Loop runs captures until the context is cancelled or Count captures are done.
// Each capture is bounded, cancellation is checked between captures.
func (m *Monitor) Loop(ctx context.Context, smp *sampler.Sampler, registry *supersid.Registry, formatter output.Formatter) error {
	cfg := m.config.Config
	if m.console == nil {
		m.console = output.DefaultConsoleOutput()
	}

	history := supersid.NewHistory(cfg.Analysis.History)
	levels := make(map[int]*audio.LevelMonitor)
	failures := 0
	captures := 0

	defer func() {
		for _, s := range history.Summaries() {
			formatter.WriteEvent("summary", fmt.Sprintf("%s: %d captures, mean %.1f dB, stddev %.1f dB, range %.1f..%.1f dB",
				s.Callsign, s.Count, s.MeanDB, s.StdDevDB, s.MinDB, s.MaxDB))
		}
		formatter.Flush()
		m.console.Info(fmt.Sprintf("Monitoring stopped after %d captures", captures))
	}()

	for index := 1; m.config.Count == 0 || index <= m.config.Count; index++ {
		if ctx.Err() != nil {
			return nil
		}

		started := time.Now()
		capture, err := smp.Sample()
		if err != nil {
			if errors.Is(err, audio.ErrConfiguration) || errors.Is(err, audio.ErrClosed) {
				return err
			}
			failures++
			glog.Warningf("Capture %d failed (%d in a row): %v", index, failures, err)
			formatter.WriteEvent("capture_error", err.Error())
			if failures >= MaxConsecutiveFailures {
				return fmt.Errorf("giving up after %d failed captures: %w", failures, err)
			}
			continue
		}
		failures = 0
		captures++

		report, err := BuildReport(cfg.MonitorID, index, capture, registry.Stations())
		if err != nil {
			return err
		}

		for _, ch := range report.Channels {
			m.checkChannel(ch, levels, formatter)
			history.Add(ch.Readings)
			if err := formatter.WriteMeasurement(ch.Measurement); err != nil {
				return fmt.Errorf("failed to write measurement: %w", err)
			}
			if cfg.Output.PlotDir != "" {
				m.writePlot(cfg.Output.PlotDir, report, ch, registry)
			}
		}

		if m.config.Count != 0 && index == m.config.Count {
			break
		}

		wait := cfg.Analysis.Interval - time.Since(started)
		if wait <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
	return nil
}

func (m *Monitor) checkChannel(ch ChannelReport, levels map[int]*audio.LevelMonitor, formatter output.Formatter) {
	meas := ch.Measurement
	lm, ok := levels[meas.Channel]
	if !ok {
		lm = audio.NewLevelMonitor(m.config.Config.LevelConfig())
		levels[meas.Channel] = lm
	}

	cfg := m.config.Config.LevelConfig()
	lost, restored := lm.Observe(audio.Level{RMS: meas.RMS, Clipped: meas.Clipped})
	if lost {
		glog.Warningf("Channel %d: no signal for %d captures", meas.Channel, cfg.SilentCaptures)
		formatter.WriteEvent("signal_lost", fmt.Sprintf("channel %d", meas.Channel))
	}
	if restored {
		glog.Infof("Channel %d: signal restored", meas.Channel)
		formatter.WriteEvent("signal_restored", fmt.Sprintf("channel %d", meas.Channel))
	}
	if meas.Clipped > 0 {
		glog.Warningf("Channel %d: %d clipped samples, reduce the input gain", meas.Channel, meas.Clipped)
	}
	if meas.SeemsOff {
		glog.V(1).Infof("Channel %d: spectrum looks degenerate (all match: %v)", meas.Channel, meas.AllMatch)
	}
}

func (m *Monitor) writePlot(dir string, r *Report, ch ChannelReport, registry *supersid.Registry) {
	name := fmt.Sprintf("%s_%s_%d_ch%d.png", r.MonitorID, r.Start.UTC().Format("20060102T150405Z"),
		ch.Measurement.Index, ch.Measurement.Channel)
	opts := plot.DefaultOptions()
	opts.Title = fmt.Sprintf("%s ch%d %s", r.MonitorID, ch.Measurement.Channel, r.Start.UTC().Format(time.RFC3339))
	if err := plot.WriteFile(filepath.Join(dir, name), ch.Density, registry.Stations(), opts); err != nil {
		glog.Warningf("Failed to write plot: %v", err)
	}
}
