package output

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"sync"
	"time"
)

// ConsoleOutput writes status lines for an interactive terminal
type ConsoleOutput struct {
	mu            sync.Mutex
	writer        io.Writer
	errWriter     io.Writer
	showTimestamp bool
	showMetadata  bool
}

// ConsoleConfig configures console output behavior
type ConsoleConfig struct {
	// ShowTimestamp prefixes each line with a timestamp
	ShowTimestamp bool

	// ShowMetadata adds the noise floor and bin spacing to measurement lines
	ShowMetadata bool

	// Writer is the output destination (default: os.Stdout)
	Writer io.Writer

	// ErrWriter receives error lines (default: os.Stderr)
	ErrWriter io.Writer
}

// NewConsoleOutput creates a new console output handler
func NewConsoleOutput(config ConsoleConfig) *ConsoleOutput {
	writer := config.Writer
	if writer == nil {
		writer = os.Stdout
	}
	errWriter := config.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}

	return &ConsoleOutput{
		writer:        writer,
		errWriter:     errWriter,
		showTimestamp: config.ShowTimestamp,
		showMetadata:  config.ShowMetadata,
	}
}

// DefaultConsoleOutput creates a console output with default settings
func DefaultConsoleOutput() *ConsoleOutput {
	return NewConsoleOutput(ConsoleConfig{
		ShowTimestamp: true,
		ShowMetadata:  false,
		Writer:        os.Stdout,
	})
}

// Write writes one line
func (c *ConsoleOutput) Write(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if c.showTimestamp {
		timestamp := time.Now().Format("15:04:05")
		_, err = fmt.Fprintf(c.writer, "[%s] %s\n", timestamp, text)
	} else {
		_, err = fmt.Fprintf(c.writer, "%s\n", text)
	}
	return err
}

// WriteMeasurement writes one line per channel with the station levels
func (c *ConsoleOutput) WriteMeasurement(m Measurement) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	timestamp := ""
	if c.showTimestamp {
		timestamp = fmt.Sprintf("[%s] ", m.Timestamp.Format("15:04:05"))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%sch%d peak %.0f Hz %s dB", timestamp, m.Channel, m.PeakFrequency, formatDB(m.PeakDB))
	for _, s := range m.Stations {
		if !s.InRange {
			fmt.Fprintf(&b, " | %s n/a", s.Callsign)
			continue
		}
		fmt.Fprintf(&b, " | %s %s dB", s.Callsign, formatDB(s.PowerDB))
	}
	if m.SeemsOff {
		b.WriteString(" (suspect)")
	}
	if c.showMetadata {
		fmt.Fprintf(&b, " (noise %s dB, step %.2f Hz)", formatDB(m.NoiseFloorDB), m.FreqStep)
	}

	_, err := fmt.Fprintln(c.writer, b.String())
	return err
}

// WriteLevel writes the capture level in dBFS as a bar (for input calibration)
func (c *ConsoleOutput) WriteLevel(channel int, rms float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dbfs := 20 * math.Log10(rms)
	// -60 dBFS .. 0 dBFS over 50 chars
	barLength := 0
	if dbfs > -60 {
		barLength = min(50, int((dbfs+60)/60*50))
	}

	_, err := fmt.Fprintf(c.writer, "\rch%d: [%-50s] %6.1f dBFS", channel, strings.Repeat("=", barLength), dbfs)
	return err
}

// Clear clears the current line
func (c *ConsoleOutput) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := fmt.Fprintf(c.writer, "\r%80s\r", " ")
	return err
}

// Info writes an informational message
func (c *ConsoleOutput) Info(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.writer, "[INFO] %s\n", msg)
}

// Error writes an error message to stderr
func (c *ConsoleOutput) Error(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.errWriter, "[ERROR] %s\n", msg)
}

// Status writes a status message (typically overwritten)
func (c *ConsoleOutput) Status(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.writer, "\r[*] %s", msg)
}

func formatDB(v *float64) string {
	if v == nil {
		return "-inf"
	}
	return fmt.Sprintf("%.1f", *v)
}
