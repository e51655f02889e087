package iq

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/tphakala/simd/f32"
)

const (
	fixedPoint16Width = 4
	float32Width      = 8

	// decodeScale maps int16 full scale onto [-1, 1)
	decodeScale = 1.0 / 32768.0

	// encodeScale maps [-1, 1] onto int16 full scale
	encodeScale = 32767.0
)

type codec struct {
	name   string
	width  int
	decode func(c *Codec, dst []complex64, src []byte)
	encode func(c *Codec, dst []byte, src []complex64)
}

// Decoder and encoder of one format live in the same entry and are selected by the format tag.
var codecs = [...]codec{
	FixedPoint16: {
		name:   "i16",
		width:  fixedPoint16Width,
		decode: decodeFixedPoint16,
		encode: encodeFixedPoint16,
	},
	Float32: {
		name:   "f32",
		width:  float32Width,
		decode: decodeFloat32,
		encode: encodeFloat32,
	},
}

// Codec decodes and encodes chunks of a single format. It keeps a scratch buffer between calls
// and must not be shared between goroutines.
type Codec struct {
	format  Format
	scratch []float32
}

// NewCodec returns a codec for the given format
func NewCodec(f Format) (*Codec, error) {
	if int(f) >= len(codecs) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, uint8(f))
	}
	return &Codec{format: f}, nil
}

// Format returns the wire format handled by the codec
func (c *Codec) Format() Format {
	return c.format
}

// Decode converts src into complex samples, reusing dst when it has enough capacity.
// A chunk that does not hold a whole number of samples is rejected with ErrMalformedChunk
// and nothing is decoded.
func (c *Codec) Decode(dst []complex64, src []byte) ([]complex64, error) {
	width := codecs[c.format].width
	if len(src)%width != 0 {
		return dst[:0], fmt.Errorf("%w: %d bytes of %s (%d bytes per sample)", ErrMalformedChunk, len(src), c.format, width)
	}

	dst = resize(dst, len(src)/width)
	codecs[c.format].decode(c, dst, src)

	return dst, nil
}

// Encode converts samples into wire bytes, reusing dst when it has enough capacity.
//
// FixedPoint16 truncates toward zero and wraps on overflow: a component beyond ±1.0
// comes out with the opposite sign instead of being clamped.
func (c *Codec) Encode(dst []byte, src []complex64) []byte {
	dst = resize(dst, len(src)*codecs[c.format].width)
	codecs[c.format].encode(c, dst, src)

	return dst
}

// Decode is a convenience wrapper allocating a one-off Codec
func (f Format) Decode(dst []complex64, src []byte) ([]complex64, error) {
	c, err := NewCodec(f)
	if err != nil {
		return nil, err
	}
	return c.Decode(dst, src)
}

// Encode is a convenience wrapper allocating a one-off Codec
func (f Format) Encode(dst []byte, src []complex64) ([]byte, error) {
	c, err := NewCodec(f)
	if err != nil {
		return nil, err
	}
	return c.Encode(dst, src), nil
}

func (c *Codec) floats(n int) []float32 {
	c.scratch = resize(c.scratch, n)
	return c.scratch
}

func decodeFixedPoint16(c *Codec, dst []complex64, src []byte) {
	components := c.floats(2 * len(dst))
	for i := range components {
		components[i] = float32(int16(binary.LittleEndian.Uint16(src[2*i:])))
	}

	f32.Scale(components, components, decodeScale)

	for i := range dst {
		dst[i] = complex(components[2*i], components[2*i+1])
	}
}

func encodeFixedPoint16(c *Codec, dst []byte, src []complex64) {
	components := c.floats(2 * len(src))
	for i, s := range src {
		components[2*i] = real(s)
		components[2*i+1] = imag(s)
	}

	f32.Scale(components, components, encodeScale)

	for i, v := range components {
		// float -> int64 truncates toward zero, int64 -> int16 keeps the low 16 bits
		binary.LittleEndian.PutUint16(dst[2*i:], uint16(int16(int64(v))))
	}
}

func decodeFloat32(_ *Codec, dst []complex64, src []byte) {
	for i := range dst {
		re := math.Float32frombits(binary.LittleEndian.Uint32(src[8*i:]))
		im := math.Float32frombits(binary.LittleEndian.Uint32(src[8*i+4:]))
		dst[i] = complex(re, im)
	}
}

func encodeFloat32(_ *Codec, dst []byte, src []complex64) {
	for i, s := range src {
		binary.LittleEndian.PutUint32(dst[8*i:], math.Float32bits(real(s)))
		binary.LittleEndian.PutUint32(dst[8*i+4:], math.Float32bits(imag(s)))
	}
}

func resize[T any](buf []T, n int) []T {
	if cap(buf) < n {
		return make([]T, n)
	}
	return buf[:n]
}
