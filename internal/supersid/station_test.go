package supersid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStationBin(t *testing.T) {
	tests := []struct {
		freq int
		step float64
		want int
	}{
		{24000, 100, 240},
		{24050, 100, 241},
		{24049, 100, 240},
		{19800, 46.875, 422},
		{0, 100, 0},
	}

	for _, tt := range tests {
		s := StationConfig{Callsign: "NAA", Frequency: tt.freq}
		got, err := s.Bin(tt.step)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "frequency %d step %v", tt.freq, tt.step)

		again, _ := s.Bin(tt.step)
		assert.Equal(t, got, again)
	}
}

func TestStationBinMonotonic(t *testing.T) {
	prev := -1
	for f := 20000; f <= 25000; f += 7 {
		bin, err := StationConfig{Frequency: f}.Bin(64.5)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, bin, prev)
		prev = bin
	}
}

func TestStationBinRejectsInvalidStep(t *testing.T) {
	for _, step := range []float64{0, -100, math.NaN(), math.Inf(1)} {
		_, err := StationConfig{Frequency: 24000}.Bin(step)
		assert.ErrorIs(t, err, ErrInvalidFreqStep)
	}
}

func TestRegistry(t *testing.T) {
	r, err := NewRegistry([]StationConfig{
		{Callsign: "NAA", Color: "r", Frequency: 24000},
		{Callsign: "DHO", Color: "b", Frequency: 23400},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	s, err := r.Get("dho")
	require.NoError(t, err)
	assert.Equal(t, 23400, s.Frequency)

	_, err = r.Get("NWC")
	assert.ErrorIs(t, err, ErrStationNotFound)

	bins, err := r.Bins(100)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"NAA": 240, "DHO": 234}, bins)

	stations := r.Stations()
	stations[0].Frequency = 1
	again, _ := r.Get("NAA")
	assert.Equal(t, 24000, again.Frequency)
}

func TestRegistryValidation(t *testing.T) {
	_, err := NewRegistry([]StationConfig{{Callsign: "NAA", Frequency: 24000}, {Callsign: "naa", Frequency: 24100}})
	assert.ErrorIs(t, err, ErrDuplicateStation)

	_, err = NewRegistry([]StationConfig{{Callsign: " ", Frequency: 24000}})
	assert.ErrorIs(t, err, ErrInvalidStation)

	_, err = NewRegistry([]StationConfig{{Callsign: "NAA", Frequency: -1}})
	assert.ErrorIs(t, err, ErrInvalidStation)
}
