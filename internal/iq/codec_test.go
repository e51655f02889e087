package iq

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"pgregory.net/rapid"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "i16", want: FixedPoint16},
		{in: "CS16", want: FixedPoint16},
		{in: "f32", want: Float32},
		{in: " cf32 ", want: Float32},
		{in: "u8", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatWidthAndName(t *testing.T) {
	assert.Equal(t, 4, FixedPoint16.Width())
	assert.Equal(t, 8, Float32.Width())
	assert.Equal(t, "i16", FixedPoint16.String())
	assert.Equal(t, "f32", Float32.String())
	assert.Equal(t, "Format(7)", Format(7).String())
	assert.Zero(t, Format(9).Width())
}

func TestFormatUnmarshalYAML(t *testing.T) {
	var cfg struct {
		In  Format `yaml:"in"`
		Out Format `yaml:"out"`
	}

	require.NoError(t, yaml.Unmarshal([]byte("in: f32\nout: i16\n"), &cfg))
	assert.Equal(t, Float32, cfg.In)
	assert.Equal(t, FixedPoint16, cfg.Out)

	err := yaml.Unmarshal([]byte("in: u8\n"), &cfg)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestDecodeFixedPoint16(t *testing.T) {
	src := []byte{0x00, 0x40, 0x00, 0xc0, 0xff, 0x7f, 0x00, 0x80}

	got, err := FixedPoint16.Decode(nil, src)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, complex64(complex(0.5, -0.5)), got[0])
	assert.Equal(t, float32(32767.0/32768.0), real(got[1]))
	assert.Equal(t, float32(-1), imag(got[1]))
}

func TestDecodeFloat32(t *testing.T) {
	src := make([]byte, 8)
	binary.LittleEndian.PutUint32(src, math.Float32bits(0.25))
	binary.LittleEndian.PutUint32(src[4:], math.Float32bits(-3))

	got, err := Float32.Decode(nil, src)
	require.NoError(t, err)
	assert.Equal(t, []complex64{complex(0.25, -3)}, got)
}

func TestEncodeFixedPoint16(t *testing.T) {
	tests := []struct {
		name string
		in   complex64
		want []byte
	}{
		{name: "zero", in: 0, want: []byte{0, 0, 0, 0}},
		{name: "full scale", in: complex(1, -1), want: []byte{0xff, 0x7f, 0x01, 0x80}},
		{name: "truncates toward zero", in: complex(0.00004, -0.00004), want: []byte{0x01, 0x00, 0xff, 0xff}},
		// 1.5 * 32767 = 49150.5 -> 49150 -> wraps to -16386
		{name: "wraps on overflow", in: complex(1.5, 0), want: []byte{0xfe, 0xbf, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FixedPoint16.Encode(nil, []complex64{tt.in})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeMalformedChunk(t *testing.T) {
	tests := []struct {
		format Format
		size   int
	}{
		{FixedPoint16, 3},
		{FixedPoint16, 4099},
		{Float32, 4},
		{Float32, 12},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			got, err := tt.format.Decode(nil, make([]byte, tt.size))
			assert.ErrorIs(t, err, ErrMalformedChunk)
			assert.Empty(t, got)
		})
	}
}

func TestCodecReusesBuffers(t *testing.T) {
	c, err := NewCodec(FixedPoint16)
	require.NoError(t, err)
	assert.Equal(t, FixedPoint16, c.Format())

	samples := make([]complex64, 0, 16)
	out, err := c.Decode(samples, make([]byte, 32))
	require.NoError(t, err)
	assert.Len(t, out, 8)
	assert.Equal(t, &samples[:1][0], &out[0])

	out, err = c.Decode(out, make([]byte, 8))
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestNewCodecUnknownFormat(t *testing.T) {
	_, err := NewCodec(Format(42))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFixedPoint16RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		values := rapid.SliceOfN(rapid.Int16(), 2, 512).Draw(t, "values")
		if len(values)%2 != 0 {
			values = values[:len(values)-1]
		}

		src := make([]byte, 2*len(values))
		for i, v := range values {
			binary.LittleEndian.PutUint16(src[2*i:], uint16(v))
		}

		samples, err := FixedPoint16.Decode(nil, src)
		require.NoError(t, err)
		out, err := FixedPoint16.Encode(nil, samples)
		require.NoError(t, err)
		require.Len(t, out, len(src))

		for i, v := range values {
			got := int16(binary.LittleEndian.Uint16(out[2*i:]))
			diff := int(v) - int(got)
			if diff < 0 {
				diff = -diff
			}
			assert.LessOrEqual(t, diff, 1, "component %d: %d became %d", i, v, got)
		}
	})
}

func TestFloat32RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 256).Draw(t, "n")
		re := rapid.SliceOfN(rapid.Float32Range(-1e6, 1e6), n, n).Draw(t, "re")
		im := rapid.SliceOfN(rapid.Float32Range(-1e6, 1e6), n, n).Draw(t, "im")

		samples := make([]complex64, n)
		for i := range samples {
			samples[i] = complex(re[i], im[i])
		}

		encoded, err := Float32.Encode(nil, samples)
		require.NoError(t, err)
		require.Len(t, encoded, 8*n)

		decoded, err := Float32.Decode(nil, encoded)
		require.NoError(t, err)
		assert.Equal(t, samples, decoded)

		again, err := Float32.Encode(nil, decoded)
		require.NoError(t, err)
		assert.Equal(t, encoded, again)
	})
}
