package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gen2brain/malgo"
)

// Sample is the set of floating point types a captured channel can hold
type Sample interface {
	~float32 | ~float64
}

// Format is the PCM sample format negotiated with the sound card
type Format int

const (
	B16 Format = iota
	B24
	B32
)

// Bytes returns the width of one sample in bytes
func (f Format) Bytes() int {
	switch f {
	case B16:
		return 2
	case B24:
		return 3
	case B32:
		return 4
	default:
		return 0
	}
}

// Bits returns the width of one sample in bits
func (f Format) Bits() int {
	return f.Bytes() * 8
}

// Valid reports whether f is one of the supported formats
func (f Format) Valid() bool {
	return f.Bytes() != 0
}

// fullScale is the magnitude that maps to 1.0 in linear sample space
func (f Format) fullScale() float64 {
	return float64(int64(1) << (f.Bits() - 1))
}

// Decode converts one little-endian signed sample to a linear value in [-1, 1)
func (f Format) Decode(b []byte) float64 {
	var v int32
	switch f {
	case B16:
		v = int32(int16(binary.LittleEndian.Uint16(b)))
	case B24:
		v = int32(uint32(b[0])|uint32(b[1])<<8|uint32(b[2])<<16) << 8 >> 8
	case B32:
		v = int32(binary.LittleEndian.Uint32(b))
	}
	return float64(v) / f.fullScale()
}

// Encode writes a linear value as one little-endian signed sample, clipping at full scale
func (f Format) Encode(v float64, b []byte) {
	scale := f.fullScale()
	s := math.Round(v * scale)
	if s > scale-1 {
		s = scale - 1
	}
	if s < -scale {
		s = -scale
	}
	n := int32(s)
	switch f {
	case B16:
		binary.LittleEndian.PutUint16(b, uint16(int16(n)))
	case B24:
		b[0] = byte(n)
		b[1] = byte(n >> 8)
		b[2] = byte(n >> 16)
	case B32:
		binary.LittleEndian.PutUint32(b, uint32(n))
	}
}

func (f Format) malgoFormat() malgo.FormatType {
	switch f {
	case B16:
		return malgo.FormatS16
	case B24:
		return malgo.FormatS24
	case B32:
		return malgo.FormatS32
	default:
		return malgo.FormatUnknown
	}
}

// String returns the config label of the format
func (f Format) String() string {
	switch f {
	case B16:
		return "B16"
	case B24:
		return "B24"
	case B32:
		return "B32"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat accepts "B16", "s16", "16" and the like
func ParseFormat(s string) (Format, error) {
	label := strings.ToUpper(strings.TrimSpace(s))
	if strings.HasPrefix(label, "B") || strings.HasPrefix(label, "S") {
		label = label[1:]
	}
	switch label {
	case "16":
		return B16, nil
	case "24":
		return B24, nil
	case "32":
		return B32, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// SamplingRate is one of the nominal sound card rates
type SamplingRate int

const (
	Hz44100  SamplingRate = 44100
	Hz48000  SamplingRate = 48000
	Hz96000  SamplingRate = 96000
	Hz192000 SamplingRate = 192000
)

// SamplingRates lists the supported rates in ascending order
var SamplingRates = []SamplingRate{Hz44100, Hz48000, Hz96000, Hz192000}

// Value returns the rate in Hz
func (r SamplingRate) Value() int {
	return int(r)
}

// Valid reports whether r is one of the supported rates
func (r SamplingRate) Valid() bool {
	for _, rate := range SamplingRates {
		if r == rate {
			return true
		}
	}
	return false
}

// String returns the rate label, e.g. "48000 Hz"
func (r SamplingRate) String() string {
	return strconv.Itoa(int(r)) + " Hz"
}

// ParseSamplingRate rejects anything that is not a supported rate
func ParseSamplingRate(hz int) (SamplingRate, error) {
	r := SamplingRate(hz)
	if !r.Valid() {
		return 0, fmt.Errorf("%w: %d Hz", ErrUnsupportedRate, hz)
	}
	return r, nil
}
