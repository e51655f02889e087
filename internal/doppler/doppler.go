// Package doppler supplies the frequency shift applied to each chunk of samples, either constant
// or derived from the predicted Doppler shift of a satellite.
package doppler

// SpeedOfLight in m/s
const SpeedOfLight = 299_792_458.0

// Driver returns the shift in Hz to apply to the next chunk. processed is the number of samples
// processed before that chunk.
type Driver interface {
	Shift(processed uint64) (float64, error)
}

// Const is a Driver returning the same shift for every chunk
type Const float64

func (c Const) Shift(uint64) (float64, error) {
	return float64(c), nil
}

// Frequency returns the Doppler shift in Hz of a carrier seen from an observer the transmitter
// moves away from at rangeRateKmS. A receding transmitter (positive range rate) is received
// below its carrier.
func Frequency(rangeRateKmS, carrierHz float64) float64 {
	return -(rangeRateKmS * 1000 / SpeedOfLight) * carrierHz
}
