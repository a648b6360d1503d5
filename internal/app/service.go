package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/emmett/supersid/internal/audio"
	"github.com/emmett/supersid/internal/config"
	"github.com/emmett/supersid/internal/sampler"
	"github.com/emmett/supersid/internal/spectral"
	"github.com/emmett/supersid/internal/supersid"
)

// MaxRequestDurationMs bounds a capture requested over a server transport
const MaxRequestDurationMs = 60000

// Measurer runs a single measurement on request
type Measurer interface {
	Measure(ctx context.Context, durationMs int) (*Report, error)
	Stations() []supersid.StationConfig
	Devices() ([]audio.DeviceInfo, error)
}

// DeviceLister enumerates sound card devices
type DeviceLister interface {
	ListDevices() ([]audio.DeviceInfo, error)
}

// MeasurementService opens the sound card for each request. Requests are
// serialised since the device can only be held by one session.
type MeasurementService struct {
	cfg       *config.Config
	driver    audio.Driver
	estimator spectral.Estimator
	registry  *supersid.Registry

	mu    sync.Mutex
	count int
}

// NewMeasurementService validates the configuration and builds the service
func NewMeasurementService(cfg *config.Config, driver audio.Driver, estimator spectral.Estimator) (*MeasurementService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	return &MeasurementService{
		cfg:       cfg,
		driver:    driver,
		estimator: estimator,
		registry:  registry,
	}, nil
}

// Measure records durationMs (the configured duration if zero) and analyses it
func (s *MeasurementService) Measure(ctx context.Context, durationMs int) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if durationMs == 0 {
		durationMs = s.cfg.Analysis.DurationMs
	}

	rec, err := audio.NewRecorder[float64](s.driver, s.cfg.DeviceConfig(), s.cfg.SoundCard.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to open sound card: %w", err)
	}
	defer rec.Close()

	smp := sampler.New(rec, s.estimator, sampler.Config{
		DurationMs:    durationMs,
		SegmentCount:  s.cfg.Analysis.SegmentCount,
		ClipThreshold: s.cfg.Level.ClipThreshold,
	})
	capture, err := smp.Sample()
	if err != nil {
		return nil, err
	}

	s.count++
	glog.V(1).Infof("Measurement %d took %s", s.count, capture.End.Sub(capture.Start))
	return BuildReport(s.cfg.MonitorID, s.count, capture, s.registry.Stations())
}

// Stations returns the configured stations
func (s *MeasurementService) Stations() []supersid.StationConfig {
	return s.registry.Stations()
}

// Devices lists the sound card devices when the driver can enumerate them
func (s *MeasurementService) Devices() ([]audio.DeviceInfo, error) {
	lister, ok := s.driver.(DeviceLister)
	if !ok {
		return nil, fmt.Errorf("driver cannot list devices")
	}
	return lister.ListDevices()
}
