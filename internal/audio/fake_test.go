package audio

import (
	"errors"
)

// fakeDriver hands out a single scripted handle
type fakeDriver struct {
	handle  *fakeHandle
	openErr error
	opened  []string
}

func (d *fakeDriver) Open(deviceID string, dir Direction) (Handle, error) {
	d.opened = append(d.opened, deviceID)
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.handle.dir = dir
	return d.handle, nil
}

// fakeHandle produces a ramp on capture and records every write on playback
type fakeHandle struct {
	dir          Direction
	accept       func(HWParams) HWParams
	negotiateErr error
	params       HWParams

	framesPerRead int
	failRead      int // 1-based read that fails, 0 never
	reads         int
	produced      int

	writeLimit  int
	stallWrites bool
	written     []byte
	writeSizes []int

	started, stopped, drained, closed int
}

var errDevice = errors.New("device unplugged")

func (h *fakeHandle) Negotiate(p HWParams) (HWParams, error) {
	if h.negotiateErr != nil {
		return HWParams{}, h.negotiateErr
	}
	if h.accept != nil {
		p = h.accept(p)
	}
	h.params = p
	return p, nil
}

func (h *fakeHandle) Start() error { h.started++; return nil }
func (h *fakeHandle) Stop() error  { h.stopped++; return nil }
func (h *fakeHandle) Drain() error { h.drained++; return nil }
func (h *fakeHandle) Close() error { h.closed++; return nil }

// rampValue is the value of channel ch at frame k
func rampValue(k, ch int) float64 {
	v := float64(k%1000) / 2000
	if ch%2 == 1 {
		return -v
	}
	return v
}

func (h *fakeHandle) Read(buf []byte) (int, error) {
	h.reads++
	if h.failRead > 0 && h.reads == h.failRead {
		return 0, errDevice
	}
	fb := h.params.FrameBytes()
	n := len(buf) / fb
	if h.framesPerRead > 0 {
		n = min(n, h.framesPerRead)
	}
	sb := h.params.Format.Bytes()
	for f := 0; f < n; f++ {
		for ch := 0; ch < h.params.Channels; ch++ {
			h.params.Format.Encode(rampValue(h.produced, ch), buf[f*fb+ch*sb:])
		}
		h.produced++
	}
	return n, nil
}

func (h *fakeHandle) Write(buf []byte) (int, error) {
	fb := h.params.FrameBytes()
	n := len(buf) / fb
	if h.writeLimit > 0 {
		n = min(n, h.writeLimit)
	}
	if h.stallWrites {
		n = 0
	}
	h.writeSizes = append(h.writeSizes, len(buf)/fb)
	h.written = append(h.written, buf[:n*fb]...)
	return n, nil
}
