package audio

import (
	"fmt"
	"math"
	"time"
)

// ChannelData holds the de-interleaved samples of one channel
type ChannelData[T Sample] struct {
	// Channel is 1-based
	Channel int
	Samples []T

	// Start and End bracket the capture, End is zero for data built for playback
	Start time.Time
	End   time.Time
}

// Duration returns the wall clock span of the capture
func (c ChannelData[T]) Duration() time.Duration {
	if c.End.IsZero() {
		return 0
	}
	return c.End.Sub(c.Start)
}

// openSession acquires and configures a handle, releasing it on any failure
func openSession(drv Driver, cfg DeviceConfig, channels int, dir Direction) (Handle, HWParams, error) {
	if err := cfg.Validate(); err != nil {
		return nil, HWParams{}, err
	}
	if channels < 1 {
		return nil, HWParams{}, fmt.Errorf("%w: channel count must be positive, got %d", ErrConfiguration, channels)
	}

	handle, err := drv.Open(cfg.DeviceID, dir)
	if err != nil {
		return nil, HWParams{}, fmt.Errorf("%w: failed to open %s device %q: %w", ErrConfiguration, dir, cfg.DeviceID, err)
	}

	requested := cfg.hwParams(channels)
	accepted, err := handle.Negotiate(requested)
	if err != nil {
		_ = handle.Close()
		return nil, HWParams{}, fmt.Errorf("%w: failed to negotiate hardware parameters: %w", ErrConfiguration, err)
	}

	switch {
	case accepted.Channels != requested.Channels:
		err = fmt.Errorf("%w: device accepted %d channels, requested %d", ErrConfiguration, accepted.Channels, requested.Channels)
	case accepted.Format != requested.Format:
		err = fmt.Errorf("%w: device accepted format %s, requested %s", ErrConfiguration, accepted.Format, requested.Format)
	case accepted.SamplingRate != requested.SamplingRate:
		err = fmt.Errorf("%w: device accepted rate %s, requested %s", ErrConfiguration, accepted.SamplingRate, requested.SamplingRate)
	case accepted.PeriodSize <= 0 || accepted.BufferSize < accepted.PeriodSize:
		err = fmt.Errorf("%w: device accepted period/buffer size %d/%d", ErrConfiguration, accepted.PeriodSize, accepted.BufferSize)
	}
	if err != nil {
		_ = handle.Close()
		return nil, HWParams{}, err
	}
	return handle, accepted, nil
}

// Recorder captures fixed-length multi-channel recordings
type Recorder[T Sample] struct {
	config DeviceConfig
	handle Handle
	params HWParams
	buf    []byte
}

// NewRecorder opens the configured capture device for the given channel count
func NewRecorder[T Sample](drv Driver, config DeviceConfig, channels int) (*Recorder[T], error) {
	handle, params, err := openSession(drv, config, channels, DirectionCapture)
	if err != nil {
		return nil, err
	}
	return &Recorder[T]{
		config: config,
		handle: handle,
		params: params,
		buf:    make([]byte, params.PeriodSize*params.FrameBytes()),
	}, nil
}

// Record captures durationMs of audio and returns one series per channel, each
// exactly rate*durationMs/1000 samples long
func (r *Recorder[T]) Record(durationMs int) ([]ChannelData[T], error) {
	if r.handle == nil {
		return nil, ErrClosed
	}
	if durationMs <= 0 {
		return nil, fmt.Errorf("%w: got %d ms", ErrInvalidDuration, durationMs)
	}
	rate := r.params.SamplingRate.Value()
	if durationMs > math.MaxInt/rate {
		return nil, fmt.Errorf("%w: %d ms overflows the frame count at %d Hz", ErrInvalidDuration, durationMs, rate)
	}

	target := rate * durationMs / 1000
	// preallocate at most a minute, longer captures grow on append
	capacity := min(target, rate*60) + r.params.PeriodSize
	channels := r.params.Channels
	out := make([]ChannelData[T], channels)
	for ch := range out {
		out[ch] = ChannelData[T]{
			Channel: ch + 1,
			Samples: make([]T, 0, capacity),
		}
	}

	if err := r.handle.Start(); err != nil {
		return nil, fmt.Errorf("%w: failed to start capture: %w", ErrIO, err)
	}

	frameBytes := r.params.FrameBytes()
	sampleBytes := r.params.Format.Bytes()
	maxFrames := len(r.buf) / frameBytes

	start := time.Now()
	for frames := 0; frames < target; {
		n, err := r.handle.Read(r.buf)
		if err != nil {
			_ = r.handle.Stop()
			return nil, fmt.Errorf("%w: failed to read after %d of %d frames: %w", ErrIO, frames, target, err)
		}
		n = min(n, maxFrames)
		for f := 0; f < n; f++ {
			frame := r.buf[f*frameBytes:]
			for ch := 0; ch < channels; ch++ {
				v := r.params.Format.Decode(frame[ch*sampleBytes:])
				out[ch].Samples = append(out[ch].Samples, T(v))
			}
		}
		frames += n
	}
	end := time.Now()

	if err := r.handle.Stop(); err != nil {
		return nil, fmt.Errorf("%w: failed to stop capture: %w", ErrIO, err)
	}

	for ch := range out {
		out[ch].Samples = out[ch].Samples[:target]
		out[ch].Start = start
		out[ch].End = end
	}
	return out, nil
}

// Config returns the device configuration the recorder was built from
func (r *Recorder[T]) Config() DeviceConfig {
	return r.config
}

// Params returns the negotiated hardware parameters
func (r *Recorder[T]) Params() HWParams {
	return r.params
}

// Handle exposes the device handle for linking
func (r *Recorder[T]) Handle() Handle {
	return r.handle
}

// Close releases the device, calling it again is a no-op
func (r *Recorder[T]) Close() error {
	if r.handle == nil {
		return nil
	}
	err := r.handle.Close()
	r.handle = nil
	if err != nil {
		return fmt.Errorf("failed to close capture device: %w", err)
	}
	return nil
}

// Player writes multi-channel series to a playback device
type Player[T Sample] struct {
	config DeviceConfig
	handle Handle
	params HWParams
	buf    []byte
}

// NewPlayer opens the configured playback device for the given channel count
func NewPlayer[T Sample](drv Driver, config DeviceConfig, channels int) (*Player[T], error) {
	handle, params, err := openSession(drv, config, channels, DirectionPlayback)
	if err != nil {
		return nil, err
	}
	return &Player[T]{
		config: config,
		handle: handle,
		params: params,
		buf:    make([]byte, params.BufferSize*params.FrameBytes()),
	}, nil
}

// Play interleaves the channels and queues them for playback. Channels of uneven
// length are played up to the shortest one. Play returns once every frame has been
// queued, use WaitForFinish to wait for the device.
func (p *Player[T]) Play(channels []ChannelData[T]) error {
	if p.handle == nil {
		return ErrClosed
	}
	if len(channels) != p.params.Channels {
		return fmt.Errorf("%w: got %d channels, device configured for %d", ErrChannelMismatch, len(channels), p.params.Channels)
	}

	total := len(channels[0].Samples)
	for _, c := range channels[1:] {
		total = min(total, len(c.Samples))
	}

	frameBytes := p.params.FrameBytes()
	sampleBytes := p.params.Format.Bytes()
	started := false

	for offset := 0; offset < total; {
		n := min(p.params.BufferSize, total-offset)
		for f := 0; f < n; f++ {
			frame := p.buf[f*frameBytes:]
			for ch, c := range channels {
				p.params.Format.Encode(float64(c.Samples[offset+f]), frame[ch*sampleBytes:])
			}
		}

		for written := 0; written < n; {
			w, err := p.handle.Write(p.buf[written*frameBytes : n*frameBytes])
			if err != nil {
				return fmt.Errorf("%w: failed to write after %d of %d frames: %w", ErrIO, offset+written, total, err)
			}
			if w == 0 {
				return fmt.Errorf("%w: device accepted no frames after %d of %d", ErrIO, offset+written, total)
			}
			written += w
			if !started {
				if err := p.handle.Start(); err != nil {
					return fmt.Errorf("%w: failed to start playback: %w", ErrIO, err)
				}
				started = true
			}
		}
		offset += n
	}
	return nil
}

// WaitForFinish blocks until the queued frames have been played and stops the device
func (p *Player[T]) WaitForFinish() error {
	if p.handle == nil {
		return ErrClosed
	}
	if err := p.handle.Drain(); err != nil {
		return fmt.Errorf("%w: failed to drain playback: %w", ErrIO, err)
	}
	if err := p.handle.Stop(); err != nil {
		return fmt.Errorf("%w: failed to stop playback: %w", ErrIO, err)
	}
	return nil
}

// Params returns the negotiated hardware parameters
func (p *Player[T]) Params() HWParams {
	return p.params
}

// Handle exposes the device handle for linking
func (p *Player[T]) Handle() Handle {
	return p.handle
}

// Close releases the device, calling it again is a no-op
func (p *Player[T]) Close() error {
	if p.handle == nil {
		return nil
	}
	err := p.handle.Close()
	p.handle = nil
	if err != nil {
		return fmt.Errorf("failed to close playback device: %w", err)
	}
	return nil
}
