package app

import (
	"fmt"
	"time"

	"github.com/emmett/supersid/internal/output"
	"github.com/emmett/supersid/internal/sampler"
	"github.com/emmett/supersid/internal/spectral"
	"github.com/emmett/supersid/internal/supersid"
)

// ChannelReport is one analysed channel of a capture
type ChannelReport struct {
	Measurement output.Measurement
	Readings    []supersid.Reading
	Density     *spectral.Density[float64]
}

// Report is the analysed form of one capture
type Report struct {
	MonitorID string
	Start     time.Time
	End       time.Time
	Channels  []ChannelReport
}

// BuildReport looks up every station in every channel of a capture
func BuildReport(monitorID string, index int, c *sampler.Capture, stations []supersid.StationConfig) (*Report, error) {
	r := &Report{
		MonitorID: monitorID,
		Start:     c.Start,
		End:       c.End,
		Channels:  make([]ChannelReport, 0, len(c.Spectra)),
	}

	for _, sp := range c.Spectra {
		d := sp.Density
		var readings []supersid.Reading
		if d.FreqStep > 0 {
			var err error
			readings, err = supersid.Lookup(d, stations)
			if err != nil {
				return nil, fmt.Errorf("failed to look up stations on channel %d: %w", sp.Channel, err)
			}
		}

		m := output.Measurement{
			Index:         index,
			MonitorID:     monitorID,
			Channel:       sp.Channel,
			Timestamp:     c.Start,
			DurationMs:    c.End.Sub(c.Start).Milliseconds(),
			PeakFrequency: d.Peak.Frequency,
			PeakDB:        output.Finite(d.Peak.DB()),
			NoiseFloorDB:  output.Finite(d.NoiseFloorDB()),
			FreqStep:      d.FreqStep,
			SeemsOff:      d.SeemsOff,
			AllMatch:      d.AllMatch,
			RMS:           sp.Level.RMS,
			Clipped:       sp.Level.Clipped,
			Stations:      output.StationLevels(readings),
		}
		r.Channels = append(r.Channels, ChannelReport{Measurement: m, Readings: readings, Density: d})
	}
	return r, nil
}
