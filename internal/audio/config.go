package audio

import (
	"errors"
	"fmt"
)

// BufferPeriods is the ring size requested from the hardware, in periods
const BufferPeriods = 8

// Direction of a session
type Direction int

const (
	DirectionCapture Direction = iota
	DirectionPlayback
)

func (d Direction) String() string {
	if d == DirectionPlayback {
		return "playback"
	}
	return "capture"
}

// Common errors
var (
	// Configuration errors, surfaced while building a session
	ErrConfiguration     = errors.New("audio configuration rejected")
	ErrUnsupportedFormat = errors.New("unsupported sample format")
	ErrUnsupportedRate   = errors.New("unsupported sampling rate")

	// I/O errors, fatal to the current Record or Play call
	ErrIO      = errors.New("audio i/o failed")
	ErrOverrun = errors.New("capture buffer overrun")
	ErrClosed  = errors.New("audio device closed")

	// Usage errors
	ErrChannelMismatch = errors.New("channel count mismatch")
	ErrInvalidDuration = errors.New("duration must be positive")

	ErrLinkUnsupported = errors.New("devices cannot be linked")
)

// DeviceConfig describes one physical sound card setup
type DeviceConfig struct {
	// DeviceID selects the device by id or name, empty means the default device
	DeviceID string

	Format       Format
	SamplingRate SamplingRate

	// PeriodSize is the number of frames per hardware transfer
	PeriodSize int
}

// DefaultDeviceConfig returns a 16-bit 48 kHz setup on the default device
func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		DeviceID:     "",
		Format:       B16,
		SamplingRate: Hz48000,
		PeriodSize:   1024,
	}
}

// Validate checks the invariants of the configuration
func (c DeviceConfig) Validate() error {
	if !c.Format.Valid() {
		return fmt.Errorf("%w: %w: %s", ErrConfiguration, ErrUnsupportedFormat, c.Format)
	}
	if !c.SamplingRate.Valid() {
		return fmt.Errorf("%w: %w: %d Hz", ErrConfiguration, ErrUnsupportedRate, int(c.SamplingRate))
	}
	if c.PeriodSize <= 0 {
		return fmt.Errorf("%w: period size must be positive, got %d", ErrConfiguration, c.PeriodSize)
	}
	return nil
}

// HWParams is the parameter set negotiated with a Handle
type HWParams struct {
	Channels     int
	Format       Format
	SamplingRate SamplingRate
	PeriodSize   int
	BufferSize   int
}

// FrameBytes returns the size of one interleaved frame
func (p HWParams) FrameBytes() int {
	return p.Channels * p.Format.Bytes()
}

func (c DeviceConfig) hwParams(channels int) HWParams {
	return HWParams{
		Channels:     channels,
		Format:       c.Format,
		SamplingRate: c.SamplingRate,
		PeriodSize:   c.PeriodSize,
		BufferSize:   c.PeriodSize * BufferPeriods,
	}
}
