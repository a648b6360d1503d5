package plot

import (
	"bytes"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmett/supersid/internal/spectral"
	"github.com/emmett/supersid/internal/supersid"
)

type peakEstimator struct{}

func (peakEstimator) Estimate(signal []float64, rate float64, segments int) ([]spectral.Point, error) {
	points := make([]spectral.Point, 481)
	for i := range points {
		points[i] = spectral.Point{Frequency: float64(i) * 100, Power: 2e-6}
	}
	points[240].Power = 1
	points[0].Power = 0
	return points, nil
}

func density(t *testing.T) *spectral.Density[float64] {
	t.Helper()
	d, err := spectral.Analyze(peakEstimator{}, []float64{1}, 96000.0, 8)
	require.NoError(t, err)
	return d
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	stations := []supersid.StationConfig{{Callsign: "NAA", Color: "r", Frequency: 24000}, {Callsign: "FAR", Color: "b", Frequency: 90000}}
	require.NoError(t, Write(&buf, density(t), stations, Options{Width: 400, Height: 300, Title: "test"}))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plots", "ch1.png")
	require.NoError(t, WriteFile(path, density(t), nil, DefaultOptions()))
}

func TestRenderErrors(t *testing.T) {
	_, err := Render(&spectral.Density[float64]{}, nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrEmptySpectrum)

	_, err = Render(density(t), nil, Options{Width: 10, Height: 10})
	assert.Error(t, err)
}

func TestDBRange(t *testing.T) {
	lo, hi := dbRange(density(t), Options{})
	assert.Equal(t, -60.0, lo)
	assert.Equal(t, 0.0, hi)

	lo, hi = dbRange(density(t), Options{MinDB: -120, MaxDB: -20})
	assert.Equal(t, -120.0, lo)
	assert.Equal(t, -20.0, hi)
}

func TestParseColor(t *testing.T) {
	assert.Equal(t, color.RGBA{0x12, 0x34, 0x56, 255}, ParseColor("#123456"))
	assert.Equal(t, color.RGBA{200, 30, 30, 255}, ParseColor("R"))
	assert.Equal(t, axisColor, ParseColor("?"))
}
