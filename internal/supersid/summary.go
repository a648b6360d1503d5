package supersid

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes one station's power over a series of captures
type Summary struct {
	Callsign string  `json:"callsign"`
	Count    int     `json:"count"`
	MeanDB   float64 `json:"mean_db"`
	StdDevDB float64 `json:"stddev_db"`
	MinDB    float64 `json:"min_db"`
	MaxDB    float64 `json:"max_db"`
}

// History accumulates readings per station
type History struct {
	order  []string
	series map[string][]float64
	limit  int
}

// NewHistory keeps at most limit readings per station, zero keeps all
func NewHistory(limit int) *History {
	return &History{series: make(map[string][]float64), limit: limit}
}

// Add appends the in-range readings of one capture
func (h *History) Add(readings []Reading) {
	for _, r := range readings {
		if !r.InRange || math.IsInf(r.PowerDB, 0) {
			continue
		}
		name := r.Station.Callsign
		s, ok := h.series[name]
		if !ok {
			h.order = append(h.order, name)
		}
		s = append(s, r.PowerDB)
		if h.limit > 0 && len(s) > h.limit {
			s = s[len(s)-h.limit:]
		}
		h.series[name] = s
	}
}

// Summaries returns one summary per station in first-seen order
func (h *History) Summaries() []Summary {
	out := make([]Summary, 0, len(h.order))
	for _, name := range h.order {
		out = append(out, Summarize(name, h.series[name]))
	}
	return out
}

// Summarize computes the statistics of a dB series
func Summarize(callsign string, values []float64) Summary {
	s := Summary{Callsign: callsign, Count: len(values)}
	if len(values) == 0 {
		return s
	}
	s.MinDB = floats.Min(values)
	s.MaxDB = floats.Max(values)
	if len(values) == 1 {
		s.MeanDB = values[0]
		return s
	}
	s.MeanDB, s.StdDevDB = stat.MeanStdDev(values, nil)
	return s
}
