// Package spectral turns captured channels into power spectral density estimates
// and derives the statistics used to judge a capture.
package spectral

import (
	"errors"
	"fmt"
	"math"
)

// Common errors
var (
	ErrNoSamples           = errors.New("no samples to analyze")
	ErrInvalidSegmentCount = errors.New("segment count must be at least 1")
)

// Measurement is the set of numeric types a density can be expressed in
type Measurement interface {
	~float32 | ~float64
}

// Sample is one bin of a power spectral density
type Sample[T Measurement] struct {
	Frequency T
	Power     T
}

// DB returns the power in decibels
func (s Sample[T]) DB() T {
	return T(10 * math.Log10(float64(s.Power)))
}

// Density is the PSD of one channel together with its summary statistics.
// It is built by Analyze and never modified afterwards.
type Density[T Measurement] struct {
	Samples []Sample[T]

	// Peak is the first bin holding the maximum power
	Peak *Sample[T]

	// NoiseFloor is the mean linear power over all bins
	NoiseFloor T

	// FreqStep is the bin spacing, zero for single-bin spectra
	FreqStep T

	SamplingRate T
	SegmentCount int

	// SeemsOff flags a spectrum that probably carries no real signal: the
	// peak sits in the first bin or every bin has the same power
	SeemsOff bool

	// AllMatch is set when every power is bit-identical to the first one
	AllMatch bool
}

// NoiseFloorDB returns the noise floor in decibels
func (d *Density[T]) NoiseFloorDB() T {
	return T(10 * math.Log10(float64(d.NoiseFloor)))
}

// Bin returns the sample at index i
func (d *Density[T]) Bin(i int) (Sample[T], bool) {
	if i < 0 || i >= len(d.Samples) {
		return Sample[T]{}, false
	}
	return d.Samples[i], true
}

// Point is one (frequency, power) pair returned by an Estimator
type Point struct {
	Frequency float64
	Power     float64
}

// Estimator computes a one-sided PSD ordered by ascending frequency
type Estimator interface {
	Estimate(signal []float64, samplingRate float64, segmentCount int) ([]Point, error)
}

// Analyze estimates the PSD of samples and derives the peak, noise floor, bin
// spacing and degeneracy flags in a single pass over the estimate
func Analyze[T Measurement](est Estimator, samples []T, samplingRate T, segmentCount int) (*Density[T], error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	if segmentCount < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSegmentCount, segmentCount)
	}

	signal := make([]float64, len(samples))
	for i, s := range samples {
		signal[i] = float64(s)
	}

	points, err := est.Estimate(signal, float64(samplingRate), segmentCount)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate spectrum: %w", err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: estimator returned an empty spectrum", ErrNoSamples)
	}

	d := &Density[T]{
		Samples:      make([]Sample[T], len(points)),
		SamplingRate: samplingRate,
		SegmentCount: segmentCount,
		AllMatch:     true,
	}

	first := points[0]
	peak := 0
	var sum float64
	for i, p := range points {
		d.Samples[i] = Sample[T]{Frequency: T(p.Frequency), Power: T(p.Power)}
		sum += p.Power
		if p.Power > points[peak].Power {
			peak = i
		}
		if p.Power != first.Power {
			d.AllMatch = false
		}
		if i == 1 {
			d.FreqStep = T(p.Frequency - first.Frequency)
		}
	}

	d.Peak = &d.Samples[peak]
	d.NoiseFloor = T(sum / float64(len(points)))
	d.SeemsOff = segmentCount >= 2 && (peak == 0 || d.AllMatch)
	return d, nil
}

// RecommendedSegments returns the segment count that keeps the bin width constant
// across sampling rates: 1024 up to 48 kHz, scaled linearly above
func RecommendedSegments(samplingRate int) int {
	if samplingRate <= 48000 {
		return 1024
	}
	return 1024 * samplingRate / 48000
}
