// Package iq converts between the interleaved IQ wire formats and complex64 sample buffers.
package iq

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// FixedPoint16 is signed 16-bit little-endian I then Q, 4 bytes per sample
	FixedPoint16 Format = iota

	// Float32 is IEEE-754 32-bit little-endian I then Q, 8 bytes per sample
	Float32
)

var (
	// ErrMalformedChunk is returned when a byte chunk does not hold a whole number of samples
	ErrMalformedChunk = errors.New("chunk length is not a multiple of the sample width")

	// ErrUnknownFormat is returned when a format name is not recognised
	ErrUnknownFormat = errors.New("unknown sample format")
)

// Format identifies the wire encoding of a sample stream. It is fixed for the lifetime of a stream.
type Format uint8

// ParseFormat accepts the short names used on the command line ("i16", "f32") as well as the
// receiver style names ("cs16", "cf32").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "i16", "cs16", "s16":
		return FixedPoint16, nil
	case "f32", "cf32":
		return Float32, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Width returns the number of bytes one complex sample occupies on the wire.
// It is 0 for an unknown tag.
func (f Format) Width() int {
	if int(f) >= len(codecs) {
		return 0
	}
	return codecs[f].width
}

func (f Format) String() string {
	if int(f) >= len(codecs) {
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
	return codecs[f].name
}

// Set implements pflag.Value
func (f *Format) Set(s string) error {
	v, err := ParseFormat(s)
	if err != nil {
		return err
	}

	*f = v
	return nil
}

// Type implements pflag.Value
func (f *Format) Type() string {
	return "format"
}

func (f *Format) UnmarshalText(text []byte) error {
	return f.Set(string(text))
}

func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Format) UnmarshalYAML(value *yaml.Node) error {
	if err := f.Set(value.Value); err != nil {
		return fmt.Errorf("iq.Format: line %d: %w", value.Line, err)
	}
	return nil
}

func (f Format) MarshalYAML() (interface{}, error) {
	return f.String(), nil
}
