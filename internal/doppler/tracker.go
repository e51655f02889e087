package doppler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/iq-doppler/internal/orbit"
)

const (
	// ReplayReportInterval is the default status report interval in replay mode
	ReplayReportInterval = 5 * time.Second

	// RealTimeReportInterval is the default status report interval in real time mode
	RealTimeReportInterval = time.Second
)

var (
	// ErrObservation is returned when the orbit predictor fails
	ErrObservation = errors.New("satellite observation failed")

	// ErrRecord is returned when an observation cannot be recorded
	ErrRecord = errors.New("recording observation failed")
)

// Observer predicts the satellite position relative to the ground station
type Observer interface {
	Observe(t time.Time) (orbit.Observation, error)
}

// Record is a single observation and the shift derived from it
type Record struct {
	orbit.Observation

	Processed uint64 // samples processed before the observation was taken
	DopplerHz float64
	ShiftHz   float64
}

// Recorder receives every observation the tracker makes
type Recorder interface {
	Record(r Record) error
}

// TrackerConfig describes the signal being tracked
type TrackerConfig struct {
	CarrierHz  float64
	OffsetHz   float64
	SampleRate uint32

	// Start enables replay mode: stream time is Start plus the duration of the processed samples.
	// The zero value selects real time mode, where the clock is read for every chunk.
	Start time.Time

	// UpdateInterval is the minimum stream time between two observations, 0 observes every chunk
	UpdateInterval time.Duration

	// ReportInterval is the time between two status log lines, 0 selects the mode default
	// and a negative value disables reporting
	ReportInterval time.Duration
}

func (c TrackerConfig) Validate() error {
	if c.CarrierHz <= 0 {
		return fmt.Errorf("doppler.TrackerConfig: carrier frequency must be positive: %f", c.CarrierHz)
	}
	if c.SampleRate == 0 {
		return errors.New("doppler.TrackerConfig: sample rate must be positive")
	}
	if c.UpdateInterval < 0 {
		return fmt.Errorf("doppler.TrackerConfig: update interval must not be negative: %s", c.UpdateInterval)
	}
	return nil
}

// Replay reports whether stream time is derived from the sample count
func (c TrackerConfig) Replay() bool {
	return !c.Start.IsZero()
}

// WithLogger sets the logger for the tracker
func WithLogger(logger *slog.Logger) func(t *Tracker) {
	return func(t *Tracker) {
		t.logger = logger.With(slog.String("component", "tracker"))
	}
}

// WithClock replaces time.Now as the real time clock
func WithClock(clock func() time.Time) func(t *Tracker) {
	return func(t *Tracker) {
		t.clock = clock
	}
}

// WithRecorder sets the recorder receiving every observation
func WithRecorder(r Recorder) func(t *Tracker) {
	return func(t *Tracker) {
		t.recorder = r
	}
}

// Tracker is the Driver of track mode: the shift follows the Doppler shift of a satellite
type Tracker struct {
	config   TrackerConfig
	observer Observer
	clock    func() time.Time
	recorder Recorder
	logger   *slog.Logger

	shift      float64
	last       Record
	lastUpdate time.Time
	lastReport time.Time
	reported   bool
}

// NewTracker creates a tracker and takes its first observation, so a predictor that cannot
// serve the configured satellite fails here instead of after the first chunk.
func NewTracker(observer Observer, config TrackerConfig, options ...func(t *Tracker)) (*Tracker, error) {
	if observer == nil {
		return nil, errors.New("doppler.Tracker: observer is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	t := Tracker{
		config:   config,
		observer: observer,
		clock:    time.Now,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
	}

	for _, option := range options {
		option(&t)
	}

	if t.config.ReportInterval == 0 {
		t.config.ReportInterval = RealTimeReportInterval
		if config.Replay() {
			t.config.ReportInterval = ReplayReportInterval
		}
	}

	if err := t.update(t.now(0), 0); err != nil {
		return nil, err
	}

	return &t, nil
}

// Attach sets the recorder after construction and hands it the observation taken by
// NewTracker, so a recorder can be created once the satellite is known to be observable.
func (t *Tracker) Attach(r Recorder) error {
	t.recorder = r
	if err := r.Record(t.last); err != nil {
		return fmt.Errorf("%w: %w", ErrRecord, err)
	}
	return nil
}

// Shift implements Driver
func (t *Tracker) Shift(processed uint64) (float64, error) {
	// already observed at this sample count, always the case for the first chunk
	if processed == t.last.Processed && (processed == 0 || t.config.Replay()) {
		return t.shift, nil
	}

	now := t.now(processed)

	if t.config.UpdateInterval == 0 || now.Sub(t.lastUpdate) >= t.config.UpdateInterval {
		if err := t.update(now, processed); err != nil {
			return 0, err
		}
	}

	return t.shift, nil
}

// Time returns the stream time after processed samples
func (t *Tracker) Time(processed uint64) time.Time {
	return t.now(processed)
}

func (t *Tracker) now(processed uint64) time.Time {
	if !t.config.Replay() {
		return t.clock().UTC()
	}

	rate := uint64(t.config.SampleRate)
	whole := time.Duration(processed/rate) * time.Second
	frac := time.Duration(processed%rate) * time.Second / time.Duration(rate)

	return t.config.Start.Add(whole + frac)
}

func (t *Tracker) update(now time.Time, processed uint64) error {
	obs, err := t.observer.Observe(now)
	if err != nil {
		return fmt.Errorf("%w: at %s: %w", ErrObservation, now.Format(time.RFC3339Nano), err)
	}

	dopplerHz := Frequency(obs.RangeRateKmS, t.config.CarrierHz)
	t.shift = dopplerHz + t.config.OffsetHz
	t.lastUpdate = now
	t.last = Record{
		Observation: obs,
		Processed:   processed,
		DopplerHz:   dopplerHz,
		ShiftHz:     t.shift,
	}

	if t.recorder != nil {
		if err = t.recorder.Record(t.last); err != nil {
			return fmt.Errorf("%w: %w", ErrRecord, err)
		}
	}

	if t.config.ReportInterval > 0 && (!t.reported || now.Sub(t.lastReport) >= t.config.ReportInterval) {
		t.report(obs, dopplerHz)
		t.lastReport = now
		t.reported = true
	}

	return nil
}

func (t *Tracker) report(obs orbit.Observation, dopplerHz float64) {
	t.logger.Info("tracking",
		slog.Time("time", obs.Time),
		slog.String("az", fmt.Sprintf("%.2f", obs.AzimuthDeg)),
		slog.String("el", fmt.Sprintf("%.2f", obs.ElevationDeg)),
		slog.String("range", humanize.SIWithDigits(obs.RangeKm*1000, 2, "m")),
		slog.String("rangeRate", humanize.SIWithDigits(obs.RangeRateKmS*1000, 2, "m/s")),
		slog.String("doppler", humanize.SIWithDigits(dopplerHz, 3, "Hz")),
		slog.Bool("visible", obs.Visible()),
	)
}
