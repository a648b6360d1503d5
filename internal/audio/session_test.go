package audio

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(rate SamplingRate) DeviceConfig {
	cfg := DefaultDeviceConfig()
	cfg.DeviceID = "hw:1,0"
	cfg.SamplingRate = rate
	return cfg
}

func TestRecordReturnsExactFrameCount(t *testing.T) {
	tests := []struct {
		name       string
		rate       SamplingRate
		durationMs int
		want       int
	}{
		{"one period at 48k", Hz48000, 10, 480},
		{"one second at 192k", Hz192000, 1000, 192000},
		{"odd rate truncates", Hz44100, 21, 926},
		{"single millisecond", Hz44100, 1, 44},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &fakeHandle{}
			rec, err := NewRecorder[float64](&fakeDriver{handle: h}, testConfig(tt.rate), 2)
			require.NoError(t, err)

			data, err := rec.Record(tt.durationMs)
			require.NoError(t, err)
			require.Len(t, data, 2)
			for i, ch := range data {
				assert.Equal(t, i+1, ch.Channel)
				assert.Len(t, ch.Samples, tt.want)
				assert.False(t, ch.End.Before(ch.Start))
			}
			assert.Equal(t, 1, h.started)
			assert.Equal(t, 1, h.stopped)
		})
	}
}

func TestRecordDeinterleavesShortReads(t *testing.T) {
	h := &fakeHandle{framesPerRead: 100}
	rec, err := NewRecorder[float32](&fakeDriver{handle: h}, testConfig(Hz48000), 2)
	require.NoError(t, err)

	data, err := rec.Record(50)
	require.NoError(t, err)
	require.Len(t, data[0].Samples, 2400)
	assert.Equal(t, 24, h.reads)

	for k := 0; k < 2400; k += 97 {
		assert.InDelta(t, rampValue(k, 0), float64(data[0].Samples[k]), 1e-4, "frame %d", k)
		assert.InDelta(t, rampValue(k, 1), float64(data[1].Samples[k]), 1e-4, "frame %d", k)
	}
}

func TestRecordReadErrorDiscardsData(t *testing.T) {
	h := &fakeHandle{framesPerRead: 256, failRead: 3}
	rec, err := NewRecorder[float64](&fakeDriver{handle: h}, testConfig(Hz48000), 1)
	require.NoError(t, err)

	data, err := rec.Record(1000)
	assert.Nil(t, data)
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, errDevice)
	assert.Equal(t, 1, h.stopped)
}

func TestRecordRejectsNonPositiveDuration(t *testing.T) {
	h := &fakeHandle{}
	rec, err := NewRecorder[float64](&fakeDriver{handle: h}, testConfig(Hz48000), 1)
	require.NoError(t, err)

	for _, ms := range []int{0, -5} {
		_, err := rec.Record(ms)
		assert.ErrorIs(t, err, ErrInvalidDuration)
	}
	assert.Zero(t, h.reads)
}

func TestRecordRejectsOverflowingDuration(t *testing.T) {
	h := &fakeHandle{}
	rec, err := NewRecorder[float64](&fakeDriver{handle: h}, testConfig(Hz192000), 1)
	require.NoError(t, err)

	for _, ms := range []int{math.MaxInt / 1000, math.MaxInt/192000 + 1, math.MaxInt} {
		_, err := rec.Record(ms)
		assert.ErrorIs(t, err, ErrInvalidDuration, ms)
	}
	assert.Zero(t, h.started)
	assert.Zero(t, h.reads)
}

func TestNewRecorderRejectsNegotiationMismatch(t *testing.T) {
	tests := []struct {
		name   string
		accept func(HWParams) HWParams
	}{
		{"channels", func(p HWParams) HWParams { p.Channels = 1; return p }},
		{"format", func(p HWParams) HWParams { p.Format = B24; return p }},
		{"rate", func(p HWParams) HWParams { p.SamplingRate = Hz44100; return p }},
		{"period", func(p HWParams) HWParams { p.PeriodSize = 0; return p }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &fakeHandle{accept: tt.accept}
			rec, err := NewRecorder[float64](&fakeDriver{handle: h}, testConfig(Hz96000), 2)
			assert.Nil(t, rec)
			assert.ErrorIs(t, err, ErrConfiguration)
			assert.Equal(t, 1, h.closed)
		})
	}
}

func TestNewRecorderAdoptsAcceptedBufferSize(t *testing.T) {
	h := &fakeHandle{accept: func(p HWParams) HWParams {
		p.PeriodSize = 512
		p.BufferSize = 2048
		return p
	}}
	rec, err := NewRecorder[float64](&fakeDriver{handle: h}, testConfig(Hz48000), 2)
	require.NoError(t, err)
	assert.Equal(t, 512, rec.Params().PeriodSize)
	assert.Equal(t, 2048, rec.Params().BufferSize)
	assert.Len(t, rec.buf, 512*4)
}

func TestNewRecorderFailures(t *testing.T) {
	t.Run("invalid config never opens", func(t *testing.T) {
		drv := &fakeDriver{handle: &fakeHandle{}}
		cfg := testConfig(Hz48000)
		cfg.PeriodSize = 0
		_, err := NewRecorder[float64](drv, cfg, 1)
		assert.ErrorIs(t, err, ErrConfiguration)
		assert.Empty(t, drv.opened)
	})

	t.Run("open error", func(t *testing.T) {
		drv := &fakeDriver{openErr: errDevice}
		_, err := NewRecorder[float64](drv, testConfig(Hz48000), 1)
		assert.ErrorIs(t, err, ErrConfiguration)
		assert.ErrorIs(t, err, errDevice)
	})

	t.Run("negotiate error closes", func(t *testing.T) {
		h := &fakeHandle{negotiateErr: errDevice}
		_, err := NewRecorder[float64](&fakeDriver{handle: h}, testConfig(Hz48000), 1)
		assert.ErrorIs(t, err, ErrConfiguration)
		assert.Equal(t, 1, h.closed)
	})

	t.Run("zero channels", func(t *testing.T) {
		drv := &fakeDriver{handle: &fakeHandle{}}
		_, err := NewRecorder[float64](drv, testConfig(Hz48000), 0)
		assert.ErrorIs(t, err, ErrConfiguration)
		assert.Empty(t, drv.opened)
	})
}

func TestCloseIsIdempotent(t *testing.T) {
	h := &fakeHandle{}
	rec, err := NewRecorder[float64](&fakeDriver{handle: h}, testConfig(Hz48000), 1)
	require.NoError(t, err)

	require.NoError(t, rec.Close())
	require.NoError(t, rec.Close())
	assert.Equal(t, 1, h.closed)

	_, err = rec.Record(10)
	assert.ErrorIs(t, err, ErrClosed)
}

func playData(lengths ...int) []ChannelData[float64] {
	out := make([]ChannelData[float64], len(lengths))
	for ch, n := range lengths {
		out[ch].Channel = ch + 1
		out[ch].Samples = make([]float64, n)
		for k := range out[ch].Samples {
			out[ch].Samples[k] = rampValue(k, ch)
		}
	}
	return out
}

func TestPlayChannelMismatchWritesNothing(t *testing.T) {
	h := &fakeHandle{}
	p, err := NewPlayer[float64](&fakeDriver{handle: h}, testConfig(Hz48000), 2)
	require.NoError(t, err)

	err = p.Play(playData(100))
	assert.ErrorIs(t, err, ErrChannelMismatch)
	assert.Empty(t, h.writeSizes)
	assert.Zero(t, h.started)
}

func TestPlayAccumulatesPartialWrites(t *testing.T) {
	h := &fakeHandle{writeLimit: 300}
	p, err := NewPlayer[float64](&fakeDriver{handle: h}, testConfig(Hz48000), 2)
	require.NoError(t, err)

	require.NoError(t, p.Play(playData(20000, 19000)))

	fb := p.Params().FrameBytes()
	require.Len(t, h.written, 19000*fb)
	for _, n := range h.writeSizes {
		assert.LessOrEqual(t, n, p.Params().BufferSize)
	}
	for k := 0; k < 19000; k += 331 {
		frame := h.written[k*fb:]
		assert.InDelta(t, rampValue(k, 0), B16.Decode(frame), 1e-4)
		assert.InDelta(t, rampValue(k, 1), B16.Decode(frame[2:]), 1e-4)
	}
	assert.Equal(t, 1, h.started)
}

func TestPlayFailsWhenDeviceAcceptsNoFrames(t *testing.T) {
	h := &fakeHandle{stallWrites: true}
	p, err := NewPlayer[float64](&fakeDriver{handle: h}, testConfig(Hz48000), 1)
	require.NoError(t, err)

	err = p.Play(playData(1000))
	assert.ErrorIs(t, err, ErrIO)
	assert.Len(t, h.writeSizes, 1)
	assert.Zero(t, h.started)
}

func TestWaitForFinishDrainsAndStops(t *testing.T) {
	h := &fakeHandle{}
	p, err := NewPlayer[float64](&fakeDriver{handle: h}, testConfig(Hz48000), 1)
	require.NoError(t, err)

	require.NoError(t, p.Play(playData(4800)))
	require.NoError(t, p.WaitForFinish())
	assert.Equal(t, 1, h.drained)
	assert.Equal(t, 1, h.stopped)
}

func TestLinkRequiresMiniaudioHandles(t *testing.T) {
	rec, err := NewRecorder[float64](&fakeDriver{handle: &fakeHandle{}}, testConfig(Hz48000), 1)
	require.NoError(t, err)
	p, err := NewPlayer[float64](&fakeDriver{handle: &fakeHandle{}}, testConfig(Hz48000), 1)
	require.NoError(t, err)

	err = Link(rec, p)
	assert.True(t, errors.Is(err, ErrLinkUnsupported))
}

// linkable wraps a bare handle
type linkable struct{ h Handle }

func (l linkable) Handle() Handle { return l.h }

func TestLinkRejections(t *testing.T) {
	d1, d2 := &MalgoDriver{}, &MalgoDriver{}
	at48 := HWParams{SamplingRate: Hz48000}
	at96 := HWParams{SamplingRate: Hz96000}
	rec := &malgoHandle{driver: d1, dir: DirectionCapture, params: at48}

	tests := []struct {
		name  string
		other *malgoHandle
	}{
		{"same handle", rec},
		{"different contexts", &malgoHandle{driver: d2, dir: DirectionPlayback, params: at48}},
		{"rate mismatch", &malgoHandle{driver: d1, dir: DirectionPlayback, params: at96}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Link(linkable{rec}, linkable{tt.other})
			assert.ErrorIs(t, err, ErrLinkUnsupported)
			assert.Nil(t, rec.peer)
			assert.Nil(t, tt.other.peer)
		})
	}
}

func TestLinkSetsPeers(t *testing.T) {
	d := &MalgoDriver{}
	params := HWParams{SamplingRate: Hz48000}
	rec := &malgoHandle{driver: d, dir: DirectionCapture, params: params}
	play := &malgoHandle{driver: d, dir: DirectionPlayback, params: params}

	require.NoError(t, Link(linkable{rec}, linkable{play}))
	assert.Same(t, play, rec.peer)
	assert.Same(t, rec, play.peer)
}
