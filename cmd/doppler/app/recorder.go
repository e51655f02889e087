package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roman-kulish/iq-doppler/internal/doppler"
	"github.com/roman-kulish/iq-doppler/internal/storage"
)

const flushTimeout = 10 * time.Second

var _ doppler.Recorder = (*shiftLog)(nil)

// shiftLog buffers tracker records and stores them in batches of maxBatchSize observations
type shiftLog struct {
	ctx       context.Context
	store     storage.Store
	sessionID int64

	maxBatchSize int
	batch        []storage.Observation
	stored       int

	logger *slog.Logger
}

func newShiftLog(ctx context.Context, store storage.Store, sessionID int64, maxBatchSize int, logger *slog.Logger) *shiftLog {
	return &shiftLog{
		ctx:          ctx,
		store:        store,
		sessionID:    sessionID,
		maxBatchSize: maxBatchSize,
		batch:        make([]storage.Observation, 0, maxBatchSize),
		logger:       logger.With(slog.String("component", "shiftlog")),
	}
}

// Record implements doppler.Recorder
func (l *shiftLog) Record(r doppler.Record) error {
	l.batch = append(l.batch, storage.Observation{
		SessionID:    l.sessionID,
		Timestamp:    r.Time,
		SampleIndex:  r.Processed,
		AzimuthDeg:   r.AzimuthDeg,
		ElevationDeg: r.ElevationDeg,
		RangeKm:      r.RangeKm,
		RangeRateKmS: r.RangeRateKmS,
		DopplerHz:    r.DopplerHz,
		ShiftHz:      r.ShiftHz,
	})

	if len(l.batch) < l.maxBatchSize {
		return nil
	}
	return l.flush(l.ctx)
}

// Close stores the remaining records. It ignores the cancellation of the run so an
// interrupted stream still logs what it observed.
func (l *shiftLog) Close() error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(l.ctx), flushTimeout)
	defer cancel()

	if err := l.flush(ctx); err != nil {
		return err
	}

	l.logger.Debug("shift log closed", slog.Int("observations", l.stored))
	return nil
}

func (l *shiftLog) flush(ctx context.Context) error {
	if len(l.batch) == 0 {
		return nil
	}

	if err := l.store.StoreObservations(ctx, l.sessionID, l.batch); err != nil {
		return fmt.Errorf("storing %d observations: %w", len(l.batch), err)
	}

	l.stored += len(l.batch)
	l.logger.Debug("observations stored", slog.Int("count", len(l.batch)))
	l.batch = l.batch[:0]

	return nil
}
