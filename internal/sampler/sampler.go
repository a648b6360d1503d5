// Package sampler records one capture and analyses every channel of it.
package sampler

import (
	"fmt"
	"time"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/emmett/supersid/internal/audio"
	"github.com/emmett/supersid/internal/spectral"
)

// SegmentDivisor reduces the recommended segment count for one-second captures
const SegmentDivisor = 16

// Source produces multi-channel captures, satisfied by *audio.Recorder[float64]
type Source interface {
	Record(durationMs int) ([]audio.ChannelData[float64], error)
	Params() audio.HWParams
}

// Spectrum is the analysed form of one captured channel
type Spectrum struct {
	Channel int
	Density *spectral.Density[float64]
	Level   audio.Level
}

// Capture is the result of one Sample call
type Capture struct {
	Start    time.Time
	End      time.Time
	Spectra  []Spectrum
	Channels []audio.ChannelData[float64]
}

// Config holds sampler settings
type Config struct {
	DurationMs int

	// SegmentCount of zero uses RecommendedSegments(rate)/SegmentDivisor
	SegmentCount  int
	ClipThreshold float64

	// KeepSamples retains the raw channels in the Capture
	KeepSamples bool
}

// Sampler ties a capture source to a spectral estimator
type Sampler struct {
	source    Source
	estimator spectral.Estimator
	config    Config
}

// New creates a new sampler
func New(source Source, estimator spectral.Estimator, config Config) *Sampler {
	if config.ClipThreshold == 0 {
		config.ClipThreshold = audio.DefaultLevelConfig().ClipThreshold
	}
	return &Sampler{source: source, estimator: estimator, config: config}
}

// Segments returns the segment count used for the given rate
func (s *Sampler) Segments(rate int) int {
	if s.config.SegmentCount > 0 {
		return s.config.SegmentCount
	}
	return max(1, spectral.RecommendedSegments(rate)/SegmentDivisor)
}

// Sample records one capture and analyses the channels in parallel
func (s *Sampler) Sample() (*Capture, error) {
	channels, err := s.source.Record(s.config.DurationMs)
	if err != nil {
		return nil, fmt.Errorf("failed to record: %w", err)
	}

	rate := s.source.Params().SamplingRate.Value()
	segments := s.Segments(rate)
	glog.V(1).Infof("Captured %d channels of %d ms at %d Hz, %d segments", len(channels), s.config.DurationMs, rate, segments)

	spectra := make([]Spectrum, len(channels))
	var g errgroup.Group
	for i, ch := range channels {
		g.Go(func() error {
			d, err := spectral.Analyze(s.estimator, ch.Samples, float64(rate), segments)
			if err != nil {
				return fmt.Errorf("failed to analyze channel %d: %w", ch.Channel, err)
			}
			spectra[i] = Spectrum{
				Channel: ch.Channel,
				Density: d,
				Level:   audio.MeasureLevel(ch.Samples, s.config.ClipThreshold),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c := &Capture{Spectra: spectra}
	if len(channels) > 0 {
		c.Start = channels[0].Start
		c.End = channels[0].End
	}
	if s.config.KeepSamples {
		c.Channels = channels
	}
	return c, nil
}
