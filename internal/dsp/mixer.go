// Package dsp implements the numerically controlled oscillator used to frequency shift IQ samples.
package dsp

import "math"

const (
	// ResetThreshold is the index from which the mixer looks for a zero phase crossing to restart
	// the index at 0. Keeping the index small keeps f*n exactly representable in float64.
	ResetThreshold uint64 = 1 << 20

	// MaxIndex forces the index back to 0 when no zero phase crossing was found, which only
	// happens for shifts that are not a rational fraction of the sample rate.
	MaxIndex uint64 = 1 << 32
)

// Rotation returns e^(-i*2*pi*(shiftHz/sampleRate)*index), the factor applied to sample index.
//
// The angle is reduced modulo a full turn before evaluation: (shiftHz*index) mod sampleRate is
// the fractional number of cycles scaled by the sample rate.
func Rotation(index uint64, shiftHz float64, sampleRate uint32) complex64 {
	fs := float64(sampleRate)
	phase := -2 * math.Pi * math.Mod(shiftHz*float64(index), fs) / fs

	sin, cos := math.Sincos(phase)
	return complex(float32(cos), float32(sin))
}

// Shift multiplies every sample of src by the rotation of its running index, starting at index,
// and writes the result into dst. dst may alias src. It returns the shifted samples and the index
// of the sample following the last one, which must be passed to the next call to keep the phase
// continuous across chunks.
func Shift(dst, src []complex64, index uint64, shiftHz float64, sampleRate uint32) ([]complex64, uint64) {
	if cap(dst) < len(src) {
		dst = make([]complex64, len(src))
	}
	dst = dst[:len(src)]

	if shiftHz == 0 {
		copy(dst, src)
		for range src {
			index = Next(index, 0, sampleRate)
		}
		return dst, index
	}

	for i, s := range src {
		dst[i] = s * Rotation(index, shiftHz, sampleRate)
		index = Next(index, shiftHz, sampleRate)
	}

	return dst, index
}

// Next returns the index following index. Past ResetThreshold it returns 0 instead whenever the
// next index falls on a zero phase crossing, so the rotation sequence is unchanged by the reset.
func Next(index uint64, shiftHz float64, sampleRate uint32) uint64 {
	index++
	if index < ResetThreshold {
		return index
	}
	if index >= MaxIndex || math.Mod(shiftHz*float64(index), float64(sampleRate)) == 0 {
		return 0
	}

	return index
}
