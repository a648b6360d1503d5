package output

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/emmett/supersid/internal/supersid"
)

// StationLevel is one station reading as written to the output
type StationLevel struct {
	Callsign     string   `json:"callsign"`
	Frequency    int      `json:"frequency"`
	Bin          int      `json:"bin"`
	BinFrequency float64  `json:"bin_frequency"`
	PowerDB      *float64 `json:"power_db,omitempty"`
	AboveNoiseDB *float64 `json:"above_noise_db,omitempty"`
	InRange      bool     `json:"in_range"`
}

// Measurement is the per-channel result of one capture
type Measurement struct {
	Index         int            `json:"index"`
	MonitorID     string         `json:"monitor_id,omitempty"`
	Channel       int            `json:"channel"`
	Timestamp     time.Time      `json:"timestamp"`
	DurationMs    int64          `json:"duration_ms"`
	PeakFrequency float64        `json:"peak_frequency"`
	PeakDB        *float64       `json:"peak_db,omitempty"`
	NoiseFloorDB  *float64       `json:"noise_floor_db,omitempty"`
	FreqStep      float64        `json:"freq_step"`
	SeemsOff      bool           `json:"seems_off"`
	AllMatch      bool           `json:"all_match"`
	RMS           float64        `json:"rms"`
	Clipped       int            `json:"clipped,omitempty"`
	Stations      []StationLevel `json:"stations"`
}

// Event represents a system event
type Event struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Finite returns nil for infinite or NaN values, which JSON cannot carry
func Finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// StationLevels converts station readings for output
func StationLevels(readings []supersid.Reading) []StationLevel {
	out := make([]StationLevel, len(readings))
	for i, r := range readings {
		out[i] = StationLevel{
			Callsign:     r.Station.Callsign,
			Frequency:    r.Station.Frequency,
			Bin:          r.Bin,
			BinFrequency: r.BinFrequency,
			InRange:      r.InRange,
		}
		if r.InRange {
			out[i].PowerDB = Finite(r.PowerDB)
			out[i].AboveNoiseDB = Finite(r.AboveNoiseDB)
		}
	}
	return out
}

// Formatter is the interface for output formatters
type Formatter interface {
	// WriteMeasurement writes the result for one channel
	WriteMeasurement(m Measurement) error

	// WriteEvent writes a system event (e.g., signal lost)
	WriteEvent(eventType, message string) error

	// Flush ensures all buffered output is written
	Flush() error

	// Close closes the formatter and releases resources
	Close() error
}

// New returns the formatter for the given output format
func New(format string, writer io.Writer, console *ConsoleOutput) (Formatter, error) {
	switch format {
	case "console", "":
		return &ConsoleFormatter{console: console}, nil
	case "json":
		return NewJSONFormatter(writer), nil
	case "text":
		return NewPlainTextFormatter(writer), nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}

// ConsoleFormatter writes measurements through a ConsoleOutput
type ConsoleFormatter struct {
	console *ConsoleOutput
}

// WriteMeasurement writes one console line
func (c *ConsoleFormatter) WriteMeasurement(m Measurement) error {
	return c.console.WriteMeasurement(m)
}

// WriteEvent writes an informational line
func (c *ConsoleFormatter) WriteEvent(eventType, message string) error {
	c.console.Info(fmt.Sprintf("%s: %s", eventType, message))
	return nil
}

// Flush is a no-op
func (c *ConsoleFormatter) Flush() error {
	return nil
}

// Close is a no-op
func (c *ConsoleFormatter) Close() error {
	return nil
}

// JSONFormatter outputs one JSON document per measurement
type JSONFormatter struct {
	writer  io.Writer
	encoder *json.Encoder
	count   int
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(writer io.Writer) *JSONFormatter {
	return &JSONFormatter{
		writer:  writer,
		encoder: json.NewEncoder(writer),
	}
}

// WriteMeasurement writes a measurement in JSON format
func (j *JSONFormatter) WriteMeasurement(m Measurement) error {
	j.count++
	return j.encoder.Encode(m)
}

// WriteEvent writes a system event
func (j *JSONFormatter) WriteEvent(eventType, message string) error {
	event := Event{
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now(),
	}
	return j.encoder.Encode(event)
}

// Flush ensures all buffered output is written
func (j *JSONFormatter) Flush() error {
	// JSON encoder writes immediately, nothing to flush
	return nil
}

// Close closes the formatter
func (j *JSONFormatter) Close() error {
	return nil
}

// Count returns the number of measurements written
func (j *JSONFormatter) Count() int {
	return j.count
}

// PlainTextFormatter outputs tab separated lines, one per channel and station
type PlainTextFormatter struct {
	writer io.Writer
}

// NewPlainTextFormatter creates a new plain text formatter
func NewPlainTextFormatter(writer io.Writer) *PlainTextFormatter {
	return &PlainTextFormatter{
		writer: writer,
	}
}

// WriteMeasurement writes timestamp, channel, callsign, bin and power in dB
func (p *PlainTextFormatter) WriteMeasurement(m Measurement) error {
	var b strings.Builder
	timestamp := m.Timestamp.UTC().Format(time.RFC3339)
	for _, s := range m.Stations {
		fmt.Fprintf(&b, "%s\t%d\t%s\t%d\t%s\n", timestamp, m.Channel, s.Callsign, s.Bin, formatDB(s.PowerDB))
	}
	if len(m.Stations) == 0 {
		fmt.Fprintf(&b, "%s\t%d\tpeak\t%.0f\t%s\n", timestamp, m.Channel, m.PeakFrequency, formatDB(m.PeakDB))
	}
	_, err := io.WriteString(p.writer, b.String())
	return err
}

// WriteEvent writes a system event
func (p *PlainTextFormatter) WriteEvent(eventType, message string) error {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	text := fmt.Sprintf("# %s [%s] %s\n", timestamp, eventType, message)
	_, err := p.writer.Write([]byte(text))
	return err
}

// Flush ensures all buffered output is written
func (p *PlainTextFormatter) Flush() error {
	return nil
}

// Close closes the formatter
func (p *PlainTextFormatter) Close() error {
	return nil
}
