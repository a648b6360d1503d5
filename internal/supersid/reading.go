package supersid

import (
	"fmt"
	"math"

	"github.com/emmett/supersid/internal/spectral"
)

// Reading is the spectrum value observed at one station's bin
type Reading struct {
	Station StationConfig `json:"station"`
	Bin     int           `json:"bin"`

	// BinFrequency is the centre frequency of the bin
	BinFrequency float64 `json:"bin_frequency"`

	Power   float64 `json:"power"`
	PowerDB float64 `json:"power_db"`

	// AboveNoiseDB is the bin power relative to the noise floor
	AboveNoiseDB float64 `json:"above_noise_db"`

	// InRange is false when the station lies beyond the Nyquist frequency
	InRange bool `json:"in_range"`
}

// Lookup reads the bin of every station from a density
func Lookup[T spectral.Measurement](d *spectral.Density[T], stations []StationConfig) ([]Reading, error) {
	step := float64(d.FreqStep)
	noiseDB := float64(d.NoiseFloorDB())

	readings := make([]Reading, 0, len(stations))
	for _, s := range stations {
		bin, err := s.Bin(step)
		if err != nil {
			return nil, fmt.Errorf("failed to map %s: %w", s.Callsign, err)
		}

		r := Reading{Station: s, Bin: bin}
		if sample, ok := d.Bin(bin); ok {
			r.InRange = true
			r.BinFrequency = float64(sample.Frequency)
			r.Power = float64(sample.Power)
			r.PowerDB = float64(sample.DB())
			r.AboveNoiseDB = r.PowerDB - noiseDB
		} else {
			r.BinFrequency = float64(bin) * step
			r.PowerDB = math.Inf(-1)
			r.AboveNoiseDB = math.Inf(-1)
		}
		readings = append(readings, r)
	}
	return readings, nil
}
