package audio

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML accepts the labels understood by ParseFormat
func (f *Format) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseFormat(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*f = parsed
	return nil
}

// MarshalYAML writes the format label
func (f Format) MarshalYAML() (interface{}, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFormat, int(f))
	}
	return f.String(), nil
}

// UnmarshalYAML accepts a rate in Hz and rejects unsupported ones
func (r *SamplingRate) UnmarshalYAML(value *yaml.Node) error {
	var hz int
	if err := value.Decode(&hz); err != nil {
		return fmt.Errorf("line %d: sampling rate must be an integer: %w", value.Line, err)
	}
	parsed, err := ParseSamplingRate(hz)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*r = parsed
	return nil
}

// MarshalYAML writes the rate in Hz
func (r SamplingRate) MarshalYAML() (interface{}, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d Hz", ErrUnsupportedRate, int(r))
	}
	return int(r), nil
}
