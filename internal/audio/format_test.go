package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, 2, B16.Bytes())
	assert.Equal(t, 3, B24.Bytes())
	assert.Equal(t, 4, B32.Bytes())
	assert.Equal(t, 0, Format(7).Bytes())
	assert.False(t, Format(7).Valid())
}

func TestFormatEncodeDecode(t *testing.T) {
	for _, f := range []Format{B16, B24, B32} {
		t.Run(f.String(), func(t *testing.T) {
			buf := make([]byte, f.Bytes())
			for _, v := range []float64{0, 0.5, -0.5, -1, 0.123456} {
				f.Encode(v, buf)
				assert.InDelta(t, v, f.Decode(buf), 1/f.fullScale())
			}

			f.Encode(1.5, buf)
			assert.InDelta(t, 1, f.Decode(buf), 2/f.fullScale())
			f.Encode(-3, buf)
			assert.Equal(t, -1.0, f.Decode(buf))
		})
	}
}

func TestDecodeNegative24Bit(t *testing.T) {
	assert.Equal(t, -1.0, B24.Decode([]byte{0x00, 0x00, 0x80}))
	assert.InDelta(t, -1.0/8388608, B24.Decode([]byte{0xff, 0xff, 0xff}), 1e-12)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"B16": B16, "s24": B24, "32": B32, " b32 ": B32} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"B8", "SSB16", "BBS32", "BS24", "B", ""} {
		_, err := ParseFormat(in)
		assert.ErrorIs(t, err, ErrUnsupportedFormat, in)
	}
}

func TestParseSamplingRate(t *testing.T) {
	for _, r := range SamplingRates {
		got, err := ParseSamplingRate(r.Value())
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}
	_, err := ParseSamplingRate(22050)
	assert.ErrorIs(t, err, ErrUnsupportedRate)
}

func TestDeviceConfigYAML(t *testing.T) {
	type card struct {
		Format       Format       `yaml:"format"`
		SamplingRate SamplingRate `yaml:"sampling_rate"`
	}

	var c card
	require.NoError(t, yaml.Unmarshal([]byte("format: S24\nsampling_rate: 96000\n"), &c))
	assert.Equal(t, B24, c.Format)
	assert.Equal(t, Hz96000, c.SamplingRate)

	out, err := yaml.Marshal(c)
	require.NoError(t, err)
	assert.Equal(t, "format: B24\nsampling_rate: 96000\n", string(out))

	err = yaml.Unmarshal([]byte("sampling_rate: 22050\n"), &c)
	assert.ErrorIs(t, err, ErrUnsupportedRate)
	err = yaml.Unmarshal([]byte("format: float\n"), &c)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDeviceConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultDeviceConfig().Validate())

	cfg := DefaultDeviceConfig()
	cfg.SamplingRate = 8000
	assert.ErrorIs(t, cfg.Validate(), ErrUnsupportedRate)
	assert.ErrorIs(t, cfg.Validate(), ErrConfiguration)

	cfg = DefaultDeviceConfig()
	cfg.Format = Format(9)
	assert.ErrorIs(t, cfg.Validate(), ErrUnsupportedFormat)
}
