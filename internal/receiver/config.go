package receiver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roman-kulish/iq-doppler/internal/iq"
)

const (
	// Runtime is the default receiver binary
	Runtime = "rx_sdr"

	FrequencyMin = 1_000
	FrequencyMax = 12_000_000_000

	SampleRateMin = 8_000
	SampleRateMax = 64_000_000
)

// wireFormats maps sample formats onto rx_sdr -F values
var wireFormats = map[iq.Format]string{
	iq.FixedPoint16: "CS16",
	iq.Float32:      "CF32",
}

// Usage example, see `rx_sdr -h`:

/*
	receiverConfig := receiver.Config{
		Frequency:  437_800_000, // 437.8 MHz
		SampleRate: 2_048_000,   // 2.048 Msps
		DeviceArgs: "driver=rtlsdr",
	}
	// Executes: rx_sdr -f 437800000 -s 2048000 -F CS16 -d driver=rtlsdr -
*/

// Config is the `rx_sdr` tool configuration
type Config struct {
	Runtime string `yaml:"runtime" json:"runtime"` // binary name or path (default: rx_sdr)

	// Required
	Frequency  int64  `yaml:"frequency" json:"frequency"`   // -f center frequency (Hz)
	SampleRate uint32 `yaml:"sampleRate" json:"sampleRate"` // -s sample rate (Hz)

	// Optional
	DeviceArgs string   `yaml:"deviceArgs" json:"deviceArgs"` // -d SoapySDR device arguments
	Channel    int      `yaml:"channel" json:"channel"`       // -c channel (default: 0)
	Antenna    string   `yaml:"antenna" json:"antenna"`       // -a antenna
	Gain       *float64 `yaml:"gain" json:"gain"`             // -g gain in dB (default: automatic)
	PPMError   int      `yaml:"ppmError" json:"ppmError"`     // -p ppm error (default: 0)
}

func (c *Config) Validate() error {
	if c.Frequency < FrequencyMin || c.Frequency > FrequencyMax {
		return NewConfigError(fmt.Sprintf("receiver.Config: frequency must be between %d and %d Hz: %d given", FrequencyMin, FrequencyMax, c.Frequency))
	}
	if c.SampleRate < SampleRateMin || c.SampleRate > SampleRateMax {
		return NewConfigError(fmt.Sprintf("receiver.Config: sample rate must be between %d and %d Hz: %d given", SampleRateMin, SampleRateMax, c.SampleRate))
	}
	if c.Channel < 0 {
		return NewConfigError(fmt.Sprintf("receiver.Config: channel must not be negative: %d given", c.Channel))
	}
	if c.Gain != nil && *c.Gain < 0 {
		return NewConfigError(fmt.Sprintf("receiver.Config: gain must not be negative: %f given", *c.Gain))
	}

	return nil
}

// Args returns the command line arguments for `rx_sdr` streaming samples in format to stdout
func (c *Config) Args(format iq.Format) ([]string, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	wireFormat, ok := wireFormats[format]
	if !ok {
		return nil, NewConfigError(fmt.Sprintf("receiver.Config: unsupported sample format: %s", format))
	}

	args := []string{
		"-f", strconv.FormatInt(c.Frequency, 10),
		"-s", strconv.FormatUint(uint64(c.SampleRate), 10),
		"-F", wireFormat,
	}

	if c.DeviceArgs != "" {
		args = append(args, "-d", c.DeviceArgs)
	}

	if c.Channel > 0 {
		args = append(args, "-c", strconv.Itoa(c.Channel))
	}

	if c.Antenna != "" {
		args = append(args, "-a", c.Antenna)
	}

	if c.Gain != nil {
		args = append(args, "-g", strconv.FormatFloat(*c.Gain, 'f', -1, 64))
	}

	if c.PPMError != 0 {
		args = append(args, "-p", strconv.Itoa(c.PPMError))
	}

	args = append(args, "-") // Always dump to stdout

	return args, nil
}

func (c *Config) runtime() string {
	if c.Runtime == "" {
		return Runtime
	}
	return c.Runtime
}

// CommandLine returns the command executed for format
func (c *Config) CommandLine(format iq.Format) string {
	args, err := c.Args(format)
	if err != nil {
		return fmt.Sprintf("receiver.Config: failed to build args: %s", err)
	}
	return fmt.Sprintf("%s %s", c.runtime(), strings.Join(args, " "))
}
