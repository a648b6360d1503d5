// Package supersid maps monitored VLF transmitters onto spectrum bins.
package supersid

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Common errors
var (
	ErrInvalidFreqStep  = errors.New("frequency step must be positive")
	ErrInvalidStation   = errors.New("invalid station")
	ErrDuplicateStation = errors.New("duplicate station callsign")
	ErrStationNotFound  = errors.New("station not found")
)

// StationConfig describes one monitored transmitter
type StationConfig struct {
	Callsign  string `yaml:"callsign" json:"callsign"`
	Color     string `yaml:"color" json:"color"`
	Frequency int    `yaml:"frequency" json:"frequency"`
}

// Bin returns the index of the spectrum bin nearest to the station frequency.
// A remainder of exactly half a bin rounds up.
func (s StationConfig) Bin(freqStep float64) (int, error) {
	if !(freqStep > 0) || math.IsInf(freqStep, 1) {
		return 0, fmt.Errorf("%w: got %v", ErrInvalidFreqStep, freqStep)
	}
	freq := float64(s.Frequency)
	bin := int(math.Floor(freq / freqStep))
	if math.Mod(freq, freqStep) >= freqStep/2 {
		bin++
	}
	return bin, nil
}

// Validate checks the station fields
func (s StationConfig) Validate() error {
	if strings.TrimSpace(s.Callsign) == "" {
		return fmt.Errorf("%w: empty callsign", ErrInvalidStation)
	}
	if s.Frequency <= 0 {
		return fmt.Errorf("%w: %s frequency must be positive, got %d", ErrInvalidStation, s.Callsign, s.Frequency)
	}
	return nil
}

func (s StationConfig) String() string {
	return fmt.Sprintf("%s (%d Hz)", s.Callsign, s.Frequency)
}

// Registry holds the monitored stations in configuration order
type Registry struct {
	stations []StationConfig
	index    map[string]int
}

// NewRegistry validates the stations and rejects duplicate callsigns
func NewRegistry(stations []StationConfig) (*Registry, error) {
	r := &Registry{
		stations: make([]StationConfig, 0, len(stations)),
		index:    make(map[string]int, len(stations)),
	}
	for _, s := range stations {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		key := strings.ToUpper(s.Callsign)
		if _, ok := r.index[key]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateStation, s.Callsign)
		}
		r.index[key] = len(r.stations)
		r.stations = append(r.stations, s)
	}
	return r, nil
}

// Stations returns a copy of the stations
func (r *Registry) Stations() []StationConfig {
	out := make([]StationConfig, len(r.stations))
	copy(out, r.stations)
	return out
}

// Len returns the number of stations
func (r *Registry) Len() int {
	return len(r.stations)
}

// Get finds a station by callsign, ignoring case
func (r *Registry) Get(callsign string) (StationConfig, error) {
	i, ok := r.index[strings.ToUpper(callsign)]
	if !ok {
		return StationConfig{}, fmt.Errorf("%w: %s", ErrStationNotFound, callsign)
	}
	return r.stations[i], nil
}

// Bins maps every callsign to its bin for the given frequency step
func (r *Registry) Bins(freqStep float64) (map[string]int, error) {
	bins := make(map[string]int, len(r.stations))
	for _, s := range r.stations {
		bin, err := s.Bin(freqStep)
		if err != nil {
			return nil, err
		}
		bins[s.Callsign] = bin
	}
	return bins, nil
}
