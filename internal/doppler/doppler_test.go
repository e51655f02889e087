package doppler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestFrequency(t *testing.T) {
	assert.InDelta(t, -10932.56, Frequency(7.5, 437_000_000), 0.01)
	assert.InDelta(t, 10932.56, Frequency(-7.5, 437_000_000), 0.01)
	assert.Zero(t, Frequency(0, 437_000_000))
}

func TestFrequencyIsLinear(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rate := rapid.Float64Range(-8, 8).Draw(t, "rangeRate")
		carrier := rapid.Float64Range(1e6, 10e9).Draw(t, "carrier")

		assert.InDelta(t, 2*Frequency(rate, carrier), Frequency(2*rate, carrier), 1e-6)
		assert.InDelta(t, -Frequency(rate, carrier), Frequency(-rate, carrier), 1e-9)
	})
}

func TestConst(t *testing.T) {
	var d Driver = Const(-1250.5)

	for _, processed := range []uint64{0, 1, 1 << 40} {
		shift, err := d.Shift(processed)
		assert.NoError(t, err)
		assert.Equal(t, -1250.5, shift)
	}
}
