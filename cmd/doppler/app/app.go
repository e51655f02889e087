package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/iq-doppler/internal/doppler"
	"github.com/roman-kulish/iq-doppler/internal/orbit"
	"github.com/roman-kulish/iq-doppler/internal/receiver"
	"github.com/roman-kulish/iq-doppler/internal/storage"
	"github.com/roman-kulish/iq-doppler/internal/stream"
)

// Run corrects the configured stream until its input ends or ctx is done. Everything that
// can fail on configuration is resolved before the first sample is read.
func Run(ctx context.Context, config *Config, logger *slog.Logger) (err error) {
	logger.Info("starting",
		slog.String("mode", config.Mode.String()),
		slog.String("sampleRate", humanize.SIWithDigits(float64(config.SampleRate), 3, "S/s")),
		slog.String("in", config.InFormat.String()),
		slog.String("out", config.OutFormat.String()),
	)

	var sat *orbit.Satellite
	if config.Mode == ModeTrack {
		if sat, err = resolveSatellite(&config.Track, logger); err != nil {
			return err
		}
	}

	driver, err := createDriver(config, sat, logger)
	if err != nil {
		return err
	}

	if config.Storage.Enabled() {
		var (
			store    *storage.SqliteStore
			recorder *shiftLog
		)
		if store, err = createStorage(&config.Storage, logger); err != nil {
			return NewConfigError("creating shift log", err)
		}
		defer func() {
			err = errors.Join(err, store.Close())
		}()

		if recorder, err = createShiftLog(ctx, store, config, logger); err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, recorder.Close())
		}()

		if tracker, ok := driver.(*doppler.Tracker); ok {
			if err = tracker.Attach(recorder); err != nil {
				return err
			}
		}
	}

	input, err := openInput(ctx, config, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, input.Close())
	}()

	output, err := openOutput(config.Output)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, output.Close())
	}()

	loop, err := stream.NewLoop(input, output, stream.Config{
		InFormat:   config.InFormat,
		OutFormat:  *config.OutFormat,
		SampleRate: config.SampleRate,
	}, driver, stream.WithLogger(logger))
	if err != nil {
		return NewConfigError("creating stream", err)
	}

	_, err = loop.Run(ctx, stream.State{})
	return err
}

func resolveSatellite(config *TrackConfig, logger *slog.Logger) (*orbit.Satellite, error) {
	tle, err := orbit.FindTLE(config.Satellite, config.TLEFile)
	if err != nil {
		return nil, NewConfigError("loading TLE", err)
	}

	sat, err := orbit.Resolve(tle, *config.Location)
	if err != nil {
		return nil, NewConfigError(fmt.Sprintf("resolving %s", tle.Name), err)
	}

	logger.Info("satellite resolved",
		slog.String("name", tle.Name),
		slog.String("catalog", tle.CatalogNumber()),
		slog.String("observer", config.Location.String()),
		slog.String("mgrs", config.Location.MGRS()),
		slog.String("carrier", humanize.SIWithDigits(config.Frequency, 6, "Hz")),
	)

	return sat, nil
}

func createStorage(config *StorageConfig, logger *slog.Logger) (*storage.SqliteStore, error) {
	if config.Path == "" {
		stat, err := os.Stat(config.Directory)
		if err != nil {
			return nil, fmt.Errorf("shift log directory '%s': %w", config.Directory, err)
		}
		if !stat.IsDir() {
			return nil, fmt.Errorf("invalid shift log directory '%s'", config.Directory)
		}
	}

	dbPath, err := config.ShiftLogPath(time.Now())
	if err != nil {
		return nil, err
	}

	logger.Info("logging shifts", slog.String("path", dbPath))

	return storage.NewSqliteStore(dbPath), nil
}

func createShiftLog(ctx context.Context, store storage.Store, config *Config, logger *slog.Logger) (*shiftLog, error) {
	startTime := time.Now()
	label := fmt.Sprintf("%g Hz", config.Const.Shift)

	if config.Mode == ModeTrack {
		label = config.Track.Satellite
		if config.Track.StartTime != nil {
			startTime = config.Track.StartTime.Time
		}
	}

	sessionID, err := store.CreateSession(ctx, startTime, config.Mode.String(), label, config)
	if err != nil {
		return nil, NewConfigError("creating shift log session", err)
	}

	logger.Debug("shift log session created", slog.Int64("session", sessionID))

	return newShiftLog(ctx, store, sessionID, config.Storage.MaxBatchSize, logger), nil
}

// createDriver returns the shift driver. In track mode the tracker observes the satellite once,
// so a satellite that cannot be observed fails before the shift log is created.
func createDriver(config *Config, sat *orbit.Satellite, logger *slog.Logger) (doppler.Driver, error) {
	if config.Mode == ModeConst {
		return doppler.Const(config.Const.Shift), nil
	}

	tc := doppler.TrackerConfig{
		CarrierHz:      config.Track.Frequency,
		OffsetHz:       config.Track.Offset,
		SampleRate:     config.SampleRate,
		UpdateInterval: time.Duration(config.Track.UpdateInterval),
		ReportInterval: time.Duration(config.Track.ReportInterval),
	}
	if config.Track.StartTime != nil {
		tc.Start = config.Track.StartTime.Time
	}

	tracker, err := doppler.NewTracker(sat, tc, doppler.WithLogger(logger))
	if err != nil {
		return nil, NewConfigError("starting tracker", err)
	}

	return tracker, nil
}

func openInput(ctx context.Context, config *Config, logger *slog.Logger) (io.ReadCloser, error) {
	if config.Receiver != nil {
		src, err := receiver.Open(ctx, *config.Receiver, config.InFormat, receiver.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("%w: opening receiver: %w", stream.ErrIO, err)
		}
		return src, nil
	}

	if config.Input == "" || config.Input == stdio {
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(config.Input)
	if err != nil {
		return nil, fmt.Errorf("%w: opening input: %w", stream.ErrIO, err)
	}
	return f, nil
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == stdio {
		return nopWriteCloser{os.Stdout}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: creating output: %w", stream.ErrIO, err)
	}
	return f, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}
