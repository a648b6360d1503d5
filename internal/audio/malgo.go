package audio

import (
	"fmt"
	"sync"
	"time"
	"unsafe"

	"github.com/gen2brain/malgo"
)

// MalgoDriver implements Driver on top of miniaudio
type MalgoDriver struct {
	ctx *malgo.AllocatedContext
}

// NewMalgoDriver initializes a miniaudio context, an empty backend list selects the
// platform default
func NewMalgoDriver(backends ...malgo.Backend) (*MalgoDriver, error) {
	ctx, err := malgo.InitContext(backends, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	return &MalgoDriver{ctx: ctx}, nil
}

// Close releases the miniaudio context
func (d *MalgoDriver) Close() error {
	if d.ctx == nil {
		return nil
	}
	err := d.ctx.Uninit()
	d.ctx.Free()
	d.ctx = nil
	if err != nil {
		return fmt.Errorf("failed to uninitialize malgo context: %w", err)
	}
	return nil
}

// Open looks up the device and returns an unconfigured handle. An empty id or
// "default" selects the system default device.
func (d *MalgoDriver) Open(deviceID string, dir Direction) (Handle, error) {
	if d.ctx == nil {
		return nil, fmt.Errorf("failed to open device: %w", ErrClosed)
	}

	h := &malgoHandle{driver: d, dir: dir}
	if deviceID == "" || deviceID == "default" {
		return h, nil
	}

	infos, err := d.ctx.Devices(dir.malgoType())
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate %s devices: %w", dir, err)
	}
	for i := range infos {
		if matchesDevice(infos[i], deviceID) {
			h.info = infos[i]
			h.hasID = true
			return h, nil
		}
	}
	return nil, fmt.Errorf("%s device not found: %s: %w", dir, deviceID, ErrConfiguration)
}

func (dir Direction) malgoType() malgo.DeviceType {
	if dir == DirectionPlayback {
		return malgo.Playback
	}
	return malgo.Capture
}

// malgoHandle bridges the miniaudio data callback to blocking reads and writes
// through a ring buffer sized to the negotiated buffer
type malgoHandle struct {
	driver *MalgoDriver
	dir    Direction
	info   malgo.DeviceInfo
	hasID  bool

	device *malgo.Device
	ring   *RingBuffer
	params HWParams

	mu      sync.Mutex
	started bool
	peer    *malgoHandle
}

// Negotiate initializes the miniaudio device. Rate, channels and format are read
// back from the device. miniaudio does not report the period and buffer sizes it
// settled on, so those are echoed as requested and the ring is sized from them.
func (h *malgoHandle) Negotiate(params HWParams) (HWParams, error) {
	if h.driver.ctx == nil {
		return HWParams{}, ErrClosed
	}
	if params.PeriodSize <= 0 || params.BufferSize < params.PeriodSize {
		return HWParams{}, fmt.Errorf("invalid period/buffer size %d/%d: %w",
			params.PeriodSize, params.BufferSize, ErrConfiguration)
	}
	if h.device != nil {
		h.device.Uninit()
		h.device = nil
	}

	cfg := malgo.DefaultDeviceConfig(h.dir.malgoType())
	cfg.SampleRate = uint32(params.SamplingRate.Value())
	cfg.PeriodSizeInFrames = uint32(params.PeriodSize)
	cfg.Periods = uint32(params.BufferSize / params.PeriodSize)
	cfg.Alsa.NoMMap = 1

	var devicePtr unsafe.Pointer
	if h.hasID {
		devicePtr = h.info.ID.Pointer()
	}
	if h.dir == DirectionPlayback {
		cfg.Playback.Format = params.Format.malgoFormat()
		cfg.Playback.Channels = uint32(params.Channels)
		cfg.Playback.DeviceID = devicePtr
	} else {
		cfg.Capture.Format = params.Format.malgoFormat()
		cfg.Capture.Channels = uint32(params.Channels)
		cfg.Capture.DeviceID = devicePtr
	}

	callbacks := malgo.DeviceCallbacks{Data: h.onData}
	device, err := malgo.InitDevice(h.driver.ctx.Context, cfg, callbacks)
	if err != nil {
		return HWParams{}, fmt.Errorf("failed to initialize device: %w", err)
	}
	h.device = device

	accepted := params
	accepted.SamplingRate = SamplingRate(device.SampleRate())
	if h.dir == DirectionPlayback {
		accepted.Channels = int(device.PlaybackChannels())
		accepted.Format = formatFromMalgo(device.PlaybackFormat())
	} else {
		accepted.Channels = int(device.CaptureChannels())
		accepted.Format = formatFromMalgo(device.CaptureFormat())
	}
	if accepted.Channels > 0 && accepted.Format.Valid() {
		h.ring = NewRingBuffer(accepted.BufferSize * accepted.FrameBytes())
	}
	h.params = accepted
	return accepted, nil
}

// onData runs on the miniaudio thread and must not block
func (h *malgoHandle) onData(output, input []byte, frames uint32) {
	ring := h.ring
	if ring == nil {
		return
	}
	if h.dir == DirectionCapture {
		_, _ = ring.Write(input)
		return
	}
	n := ring.Read(output)
	clear(output[n:])
}

func (h *malgoHandle) Start() error {
	if err := h.start(); err != nil {
		return err
	}
	h.mu.Lock()
	peer := h.peer
	h.mu.Unlock()
	if peer != nil {
		if err := peer.start(); err != nil {
			return fmt.Errorf("failed to start linked device: %w", err)
		}
	}
	return nil
}

func (h *malgoHandle) start() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.device == nil {
		return fmt.Errorf("device not configured: %w", ErrConfiguration)
	}
	if h.started {
		return nil
	}
	if h.dir == DirectionCapture {
		h.ring.Reset()
	}
	if err := h.device.Start(); err != nil {
		return fmt.Errorf("failed to start device: %w", err)
	}
	h.started = true
	return nil
}

func (h *malgoHandle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.device == nil || !h.started {
		return nil
	}
	h.started = false
	if err := h.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop device: %w", err)
	}
	h.ring.Reset()
	return nil
}

func (h *malgoHandle) Drain() error {
	if h.ring == nil {
		return fmt.Errorf("device not configured: %w", ErrConfiguration)
	}
	if err := h.ring.WaitEmpty(); err != nil {
		return err
	}
	// The last callback may still hold up to one buffer inside miniaudio.
	time.Sleep(time.Duration(h.params.BufferSize) * time.Second / time.Duration(h.params.SamplingRate.Value()))
	return nil
}

func (h *malgoHandle) Read(buf []byte) (int, error) {
	if h.ring == nil {
		return 0, fmt.Errorf("device not configured: %w", ErrConfiguration)
	}
	fb := h.params.FrameBytes()
	n, err := h.ring.ReadBlocking(buf[:len(buf)-len(buf)%fb], fb)
	return n / fb, err
}

func (h *malgoHandle) Write(buf []byte) (int, error) {
	if h.ring == nil {
		return 0, fmt.Errorf("device not configured: %w", ErrConfiguration)
	}
	fb := h.params.FrameBytes()
	n, err := h.ring.WriteBlocking(buf[:len(buf)-len(buf)%fb], fb)
	return n / fb, err
}

func (h *malgoHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ring != nil {
		h.ring.Close()
	}
	if h.device != nil {
		if h.started {
			_ = h.device.Stop()
			h.started = false
		}
		h.device.Uninit()
		h.device = nil
	}
	h.peer = nil
	return nil
}

func formatFromMalgo(f malgo.FormatType) Format {
	switch f {
	case malgo.FormatS16:
		return B16
	case malgo.FormatS24:
		return B24
	case malgo.FormatS32:
		return B32
	default:
		return Format(-1)
	}
}
