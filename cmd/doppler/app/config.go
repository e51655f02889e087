package app

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/iq-doppler/internal/iq"
	"github.com/roman-kulish/iq-doppler/internal/orbit"
	"github.com/roman-kulish/iq-doppler/internal/receiver"
)

const (
	ModeConst Mode = "const"
	ModeTrack Mode = "track"

	// DefaultShiftLogPattern is the strftime pattern of shift log file names
	DefaultShiftLogPattern = "doppler_%Y%m%d_%H%M%S.sqlite"

	defaultMaxBatchSize = 100
	defaultLogLevel     = "info"
	stdio               = "-"
)

var validModes = map[Mode]struct{}{
	ModeConst: {},
	ModeTrack: {},
}

// Mode selects the shift driver
type Mode string

func (m Mode) String() string {
	return string(m)
}

// Config represents the main application configuration
type Config struct {
	Mode       Mode       `yaml:"mode" json:"mode"`
	SampleRate uint32     `yaml:"sampleRate" json:"sampleRate"`
	InFormat   iq.Format  `yaml:"inFormat" json:"inFormat"`
	OutFormat  *iq.Format `yaml:"outFormat" json:"outFormat"` // defaults to InFormat
	Input      string     `yaml:"input" json:"input"`         // file path, "-" or empty for stdin
	Output     string     `yaml:"output" json:"output"`       // file path, "-" or empty for stdout

	Const    ConstConfig      `yaml:"const" json:"const"`
	Track    TrackConfig      `yaml:"track" json:"track"`
	Receiver *receiver.Config `yaml:"receiver" json:"receiver"`
	Storage  StorageConfig    `yaml:"storage" json:"storage"`
	Settings Settings         `yaml:"settings" json:"-"`
}

// ConstConfig represents constant shift settings
type ConstConfig struct {
	Shift float64 `yaml:"shift" json:"shift"` // Hz
}

// TrackConfig represents satellite tracking settings
type TrackConfig struct {
	TLEFile   string          `yaml:"tleFile" json:"tleFile"`
	Satellite string          `yaml:"satellite" json:"satellite"`
	Location  *orbit.Location `yaml:"location" json:"location"`
	Frequency float64         `yaml:"frequency" json:"frequency"` // carrier Hz
	Offset    float64         `yaml:"offset" json:"offset"`       // Hz added to the Doppler shift
	StartTime *StartTime      `yaml:"time" json:"time"`           // replay start, real time when nil

	UpdateInterval TimeDuration `yaml:"updateInterval" json:"updateInterval"`
	ReportInterval TimeDuration `yaml:"reportInterval" json:"reportInterval"`
}

// StorageConfig represents shift log settings. The log is disabled when neither Path nor
// Directory is set.
type StorageConfig struct {
	Path         string `yaml:"path" json:"-"`
	Directory    string `yaml:"directory" json:"-"`
	FilePattern  string `yaml:"filePattern" json:"-"` // strftime pattern used with Directory
	MaxBatchSize int    `yaml:"maxBatchSize" json:"-"`
}

// Enabled reports whether observations are logged
func (s StorageConfig) Enabled() bool {
	return s.Path != "" || s.Directory != ""
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// NewConfig returns a configuration with defaults
func NewConfig() *Config {
	return &Config{
		InFormat: iq.FixedPoint16,
		Storage: StorageConfig{
			FilePattern:  DefaultShiftLogPattern,
			MaxBatchSize: defaultMaxBatchSize,
		},
		Settings: Settings{
			LogLevel: defaultLogLevel,
		},
	}
}

// LoadConfig reads a YAML configuration file over the defaults
func LoadConfig(path string) (*Config, error) {
	c := NewConfig()

	f, err := os.Open(path)
	if err != nil {
		return nil, NewConfigError(fmt.Sprintf("could not open file %s", path), err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err = decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, NewConfigError(fmt.Sprintf("parsing %s", path), err)
	}

	return c, nil
}

// Validate checks the configuration and fills in derived defaults
func (c *Config) Validate() error {
	if _, ok := validModes[c.Mode]; !ok {
		return NewConfigError(fmt.Sprintf("app.Config: mode must be %q or %q: %q given", ModeConst, ModeTrack, c.Mode), nil)
	}
	if c.SampleRate == 0 {
		return NewConfigError("app.Config: sample rate is required", nil)
	}
	if c.OutFormat == nil {
		out := c.InFormat
		c.OutFormat = &out
	}

	var err error
	switch c.Mode {
	case ModeConst:
		err = c.Const.Validate()
	case ModeTrack:
		err = c.Track.Validate()
	}
	if err != nil {
		return err
	}

	if c.Receiver != nil {
		if c.Input != "" && c.Input != stdio {
			return NewConfigError("app.Config: input file and receiver are mutually exclusive", nil)
		}
		if c.Receiver.SampleRate == 0 {
			c.Receiver.SampleRate = c.SampleRate
		}
		if c.Receiver.SampleRate != c.SampleRate {
			return NewConfigError(fmt.Sprintf("app.Config: receiver sample rate %d differs from sample rate %d", c.Receiver.SampleRate, c.SampleRate), nil)
		}
		if err = c.Receiver.Validate(); err != nil {
			return NewConfigError("app.Config: invalid receiver", err)
		}
	}

	if c.Storage.MaxBatchSize <= 0 {
		return NewConfigError(fmt.Sprintf("app.Config: max batch size must be positive: %d given", c.Storage.MaxBatchSize), nil)
	}
	if _, err = log.ParseLevel(c.Settings.LogLevel); err != nil {
		return NewConfigError("app.Config: invalid log level", err)
	}

	return nil
}

func (c *ConstConfig) Validate() error {
	if math.IsNaN(c.Shift) || math.IsInf(c.Shift, 0) {
		return NewConfigError(fmt.Sprintf("app.ConstConfig: shift must be finite: %f given", c.Shift), nil)
	}
	return nil
}

func (c *TrackConfig) Validate() error {
	switch {
	case c.TLEFile == "":
		return NewConfigError("app.TrackConfig: TLE file is required", nil)
	case c.Satellite == "":
		return NewConfigError("app.TrackConfig: satellite name is required", nil)
	case c.Location == nil:
		return NewConfigError("app.TrackConfig: observer location is required", nil)
	case c.Frequency <= 0:
		return NewConfigError(fmt.Sprintf("app.TrackConfig: carrier frequency must be positive: %f given", c.Frequency), nil)
	case math.IsNaN(c.Offset) || math.IsInf(c.Offset, 0):
		return NewConfigError("app.TrackConfig: offset must be finite", nil)
	}

	if err := c.UpdateInterval.Validate(); err != nil {
		return NewConfigError("app.TrackConfig: invalid update interval", err)
	}
	if err := c.Location.Validate(); err != nil {
		return NewConfigError("app.TrackConfig: invalid location", err)
	}

	return nil
}

// ShiftLogPath returns the shift log database path, expanding the file pattern at now when
// only a directory is configured.
func (s StorageConfig) ShiftLogPath(now time.Time) (string, error) {
	if s.Path != "" {
		return s.Path, nil
	}

	pattern := s.FilePattern
	if pattern == "" {
		pattern = DefaultShiftLogPattern
	}

	name, err := strftime.Format(pattern, now.UTC())
	if err != nil {
		return "", fmt.Errorf("formatting shift log file name: %w", err)
	}

	return filepath.Join(s.Directory, name), nil
}

// cliFlags holds flag values until they are applied over the file configuration
type cliFlags struct {
	configPath string

	sampleRate uint32
	inFormat   iq.Format
	outFormat  iq.Format
	input      string
	output     string

	shift float64

	tleFile        string
	tleName        string
	location       orbit.Location
	startTime      StartTime
	frequency      float64
	offset         float64
	updateInterval time.Duration
	reportInterval time.Duration

	rxFrequency int64
	rxArgs      string
	rxGain      float64

	shiftLog    string
	shiftLogDir string
	logLevel    string
}

func newFlagSet(mode Mode, f *cliFlags, output io.Writer) *pflag.FlagSet {
	name := "doppler"
	if mode != "" {
		name += " " + mode.String()
	}

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(output)
	fs.SortFlags = false
	fs.Usage = func() {
		_, _ = fmt.Fprintf(output, "Usage of %s:\n", name)
		fs.PrintDefaults()
	}

	fs.StringVarP(&f.configPath, "config", "c", "", "Path to a YAML configuration file")
	fs.Uint32VarP(&f.sampleRate, "samplerate", "s", 0, "IQ data sample rate")
	fs.VarP(&f.inFormat, "intype", "i", "IQ data input type [i16, f32]")
	fs.VarP(&f.outFormat, "outtype", "o", "IQ data output type [i16, f32] (default: input type)")
	fs.StringVar(&f.input, "input", stdio, "Input file, - for stdin")
	fs.StringVar(&f.output, "output", stdio, "Output file, - for stdout")

	if mode == "" || mode == ModeConst {
		fs.Float64Var(&f.shift, "shift", 0, "Frequency shift in Hz")
	}

	if mode == "" || mode == ModeTrack {
		fs.StringVar(&f.tleFile, "tlefile", "", "TLE file: eg. http://www.celestrak.com/NORAD/elements/cubesat.txt")
		fs.StringVar(&f.tleName, "tlename", "", "TLE name in TLE file: eg. ESTCUBE 1")
		fs.Var(&f.location, "location", "Observer location: eg. lat=58.64560,lon=23.15163,alt=8")
		fs.Var(&f.startTime, "time", "Observation start time in UTC Y-m-dTH:M:S: eg. 2015-05-13T14:28:48. If not specified current time is used")
		fs.Float64Var(&f.frequency, "frequency", 0, "Satellite transmitter frequency in Hz")
		fs.Float64Var(&f.offset, "offset", 0, "Constant frequency shift in Hz. Can be used to compensate constant offset")
		fs.DurationVar(&f.updateInterval, "update-interval", 0, "Minimum stream time between orbit predictions (default: every chunk)")
		fs.DurationVar(&f.reportInterval, "report-interval", 0, "Status report interval (default: 5s in replay, 1s in real time)")
	}

	fs.Int64Var(&f.rxFrequency, "rx-frequency", 0, "Read samples from rx_sdr tuned to this frequency in Hz")
	fs.StringVar(&f.rxArgs, "rx-args", "", "rx_sdr SoapySDR device arguments: eg. driver=rtlsdr")
	fs.Float64Var(&f.rxGain, "rx-gain", 0, "rx_sdr gain in dB (default: automatic)")

	fs.StringVar(&f.shiftLog, "log", "", "Log observations and shifts to this sqlite database")
	fs.StringVar(&f.shiftLogDir, "log-dir", "", "Log observations and shifts to a new sqlite database in this directory")
	fs.StringVar(&f.logLevel, "log-level", defaultLogLevel, "Log level [debug, info, warn, error]")

	return fs
}

// NewConfigFromCLI parses `doppler [const|track] [flags]`. A configuration file given with
// --config is loaded first and explicitly set flags override its values.
func NewConfigFromCLI(args []string, output io.Writer) (*Config, error) {
	var mode Mode
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		mode = Mode(args[0])
		args = args[1:]

		if _, ok := validModes[mode]; !ok {
			return nil, NewConfigError(fmt.Sprintf("unknown mode %q, expected %q or %q", mode, ModeConst, ModeTrack), nil)
		}
	}

	var f cliFlags
	fs := newFlagSet(mode, &f, output)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, err
		}
		return nil, NewConfigError("parsing flags", err)
	}
	if fs.NArg() > 0 {
		return nil, NewConfigError(fmt.Sprintf("unexpected arguments: %s", strings.Join(fs.Args(), " ")), nil)
	}

	c := NewConfig()
	if f.configPath != "" {
		var err error
		if c, err = LoadConfig(f.configPath); err != nil {
			return nil, err
		}
	}

	if mode != "" {
		c.Mode = mode
	}

	f.apply(c, fs)

	if err := c.Validate(); err != nil {
		fs.Usage()
		return nil, err
	}

	return c, nil
}

func (f *cliFlags) apply(c *Config, fs *pflag.FlagSet) {
	fs.Visit(func(flag *pflag.Flag) {
		switch flag.Name {
		case "samplerate":
			c.SampleRate = f.sampleRate
		case "intype":
			c.InFormat = f.inFormat
		case "outtype":
			out := f.outFormat
			c.OutFormat = &out
		case "input":
			c.Input = f.input
		case "output":
			c.Output = f.output
		case "shift":
			c.Const.Shift = f.shift
		case "tlefile":
			c.Track.TLEFile = f.tleFile
		case "tlename":
			c.Track.Satellite = f.tleName
		case "location":
			loc := f.location
			c.Track.Location = &loc
		case "time":
			start := f.startTime
			c.Track.StartTime = &start
		case "frequency":
			c.Track.Frequency = f.frequency
		case "offset":
			c.Track.Offset = f.offset
		case "update-interval":
			c.Track.UpdateInterval = TimeDuration(f.updateInterval)
		case "report-interval":
			c.Track.ReportInterval = TimeDuration(f.reportInterval)
		case "rx-frequency", "rx-args", "rx-gain":
			if c.Receiver == nil {
				c.Receiver = &receiver.Config{}
			}
			switch flag.Name {
			case "rx-frequency":
				c.Receiver.Frequency = f.rxFrequency
			case "rx-args":
				c.Receiver.DeviceArgs = f.rxArgs
			case "rx-gain":
				gain := f.rxGain
				c.Receiver.Gain = &gain
			}
		case "log":
			c.Storage.Path = f.shiftLog
		case "log-dir":
			c.Storage.Directory = f.shiftLogDir
		case "log-level":
			c.Settings.LogLevel = f.logLevel
		}
	})
}
