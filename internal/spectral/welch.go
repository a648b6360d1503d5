package spectral

import (
	"fmt"

	dsp "github.com/mjibson/go-dsp/spectral"
	"github.com/mjibson/go-dsp/window"
)

// Welch estimates the PSD by averaging windowed periodograms of half-overlapping
// segments. The segment length is chosen so that the signal splits into
// segmentCount segments.
type Welch struct {
	// Window defaults to Hann
	Window func(int) []float64
}

// Estimate implements Estimator
func (w Welch) Estimate(signal []float64, samplingRate float64, segmentCount int) ([]Point, error) {
	if len(signal) == 0 {
		return nil, ErrNoSamples
	}
	if segmentCount < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSegmentCount, segmentCount)
	}

	nfft, overlap := SegmentLength(len(signal), segmentCount)
	win := w.Window
	if win == nil {
		win = window.Hann
	}
	// Hann is all zeros below three points
	if nfft < 3 {
		win = window.Rectangular
	}

	pxx, freqs := dsp.Pwelch(signal, samplingRate, &dsp.PwelchOptions{
		NFFT:     nfft,
		Noverlap: overlap,
		Window:   win,
		Pad:      nfft,
	})

	points := make([]Point, len(pxx))
	for i := range pxx {
		points[i] = Point{Frequency: freqs[i], Power: pxx[i]}
	}
	return points, nil
}

// SegmentLength returns the even segment length and overlap that split n samples
// into segmentCount half-overlapping segments
func SegmentLength(n, segmentCount int) (length, overlap int) {
	if segmentCount <= 1 {
		return n, 0
	}
	length = 2 * n / (segmentCount + 1)
	if length > 1 {
		length -= length % 2
	}
	length = max(1, min(length, n))
	return length, length / 2
}
