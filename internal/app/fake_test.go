package app

import (
	"math"

	"github.com/emmett/supersid/internal/audio"
)

// toneDriver is an audio.Driver whose capture handle plays a sine per channel
type toneDriver struct {
	freqs   []float64
	devices []audio.DeviceInfo
	opened  int
}

func (d *toneDriver) Open(deviceID string, dir audio.Direction) (audio.Handle, error) {
	d.opened++
	return &toneHandle{freqs: d.freqs}, nil
}

func (d *toneDriver) ListDevices() ([]audio.DeviceInfo, error) {
	return d.devices, nil
}

type toneHandle struct {
	freqs  []float64
	params audio.HWParams
	frame  int
	closed bool
}

func (h *toneHandle) Negotiate(p audio.HWParams) (audio.HWParams, error) {
	h.params = p
	return p, nil
}

func (h *toneHandle) Start() error { return nil }
func (h *toneHandle) Stop() error  { return nil }
func (h *toneHandle) Drain() error { return nil }
func (h *toneHandle) Close() error { h.closed = true; return nil }

func (h *toneHandle) Read(buf []byte) (int, error) {
	fb := h.params.FrameBytes()
	sb := h.params.Format.Bytes()
	rate := float64(h.params.SamplingRate.Value())
	n := len(buf) / fb
	for f := 0; f < n; f++ {
		for ch := 0; ch < h.params.Channels; ch++ {
			v := 0.0
			if ch < len(h.freqs) {
				v = 0.3 * math.Sin(2*math.Pi*h.freqs[ch]*float64(h.frame)/rate)
			}
			h.params.Format.Encode(v, buf[f*fb+ch*sb:])
		}
		h.frame++
	}
	return n, nil
}

func (h *toneHandle) Write(buf []byte) (int, error) {
	return len(buf) / h.params.FrameBytes(), nil
}
