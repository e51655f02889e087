package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoData indicates that the requested session does not exist
var ErrNoData = errors.New("no data available")

// ObservationReader provides an iterator-based interface for reading the observations of
// a session with optional time and elevation filtering.
type ObservationReader interface {
	// Session returns the session this reader is accessing
	Session() *Session

	// Next advances the iterator and returns true if there is another observation to read,
	// false when the iteration is complete or if an error occurred.
	Next(context.Context) bool

	// Current returns the current observation
	Current() *Observation

	// Error returns any error that occurred during iteration
	Error() error

	// Close releases any resources associated with the reader
	Close() error
}

// ReaderOption configures an observation reader
type ReaderOption func(*SqliteObservationReader)

// WithStartTime excludes observations before t
func WithStartTime(t time.Time) ReaderOption {
	return func(r *SqliteObservationReader) {
		t = t.UTC()
		r.startTime = &t
	}
}

// WithEndTime excludes observations after t
func WithEndTime(t time.Time) ReaderOption {
	return func(r *SqliteObservationReader) {
		t = t.UTC()
		r.endTime = &t
	}
}

// WithTimeRange is WithStartTime and WithEndTime together
func WithTimeRange(startTime, endTime time.Time) ReaderOption {
	return func(r *SqliteObservationReader) {
		WithStartTime(startTime)(r)
		WithEndTime(endTime)(r)
	}
}

// WithMinElevation excludes observations with the satellite lower than deg above the horizon
func WithMinElevation(deg float64) ReaderOption {
	return func(r *SqliteObservationReader) {
		r.minElevation = &deg
	}
}

var _ ObservationReader = (*SqliteObservationReader)(nil)

// SqliteObservationReader implements ObservationReader for SQLite database backend.
type SqliteObservationReader struct {
	db *sql.DB

	sessionID int64
	session   *Session

	startTime    *time.Time
	endTime      *time.Time
	minElevation *float64

	current *Observation
	rows    *sql.Rows
	err     error
}

func newSqliteObservationReader(ctx context.Context, db *sql.DB, sessionID int64, opts ...ReaderOption) (*SqliteObservationReader, error) {
	r := &SqliteObservationReader{
		db:        db,
		sessionID: sessionID,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.init(ctx); err != nil {
		return nil, fmt.Errorf("initializing reader: %w", err)
	}
	return r, nil
}

func (r *SqliteObservationReader) init(ctx context.Context) error {
	if r.db == nil {
		return errors.New("database connection required")
	}
	if r.sessionID <= 0 {
		return errors.New("session ID required")
	}

	steps := []struct {
		msg string
		fn  func(context.Context) error
	}{
		{msg: "validating filters", fn: r.validateFilters},
		{msg: "loading session", fn: r.loadSession},
		{msg: "initializing query", fn: r.initQuery},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.msg, err)
		}
	}
	return nil
}

func (r *SqliteObservationReader) validateFilters(context.Context) error {
	if r.startTime != nil && r.endTime != nil && r.startTime.After(*r.endTime) {
		return fmt.Errorf("start time %s is after end time %s", r.startTime, r.endTime)
	}
	return nil
}

func (r *SqliteObservationReader) loadSession(ctx context.Context) (err error) {
	stmt, err := r.db.PrepareContext(ctx, selectSessionSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	if r.session, err = scanSession(stmt.QueryRowContext(ctx, r.sessionID)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("session %d: %w", r.sessionID, ErrNoData)
		}
		return fmt.Errorf("querying session: %w", err)
	}
	return nil
}

func (r *SqliteObservationReader) initQuery(ctx context.Context) (err error) {
	var sb strings.Builder
	sb.WriteString(selectObservationsSQL)
	args := []any{r.sessionID}

	if r.startTime != nil {
		sb.WriteString(" AND timestamp >= ?")
		args = append(args, *r.startTime)
	}
	if r.endTime != nil {
		sb.WriteString(" AND timestamp <= ?")
		args = append(args, *r.endTime)
	}
	if r.minElevation != nil {
		sb.WriteString(" AND elevation >= ?")
		args = append(args, *r.minElevation)
	}
	sb.WriteString(" ORDER BY timestamp, id")

	r.rows, err = r.db.QueryContext(ctx, sb.String(), args...)
	return err
}

func (r *SqliteObservationReader) Session() *Session {
	return r.session
}

func (r *SqliteObservationReader) Next(ctx context.Context) bool {
	if r.err != nil || r.rows == nil {
		return false
	}

	if err := ctx.Err(); err != nil {
		r.err = err
		return false
	}

	if !r.rows.Next() {
		return false
	}

	var (
		o     Observation
		index int64
	)
	r.err = r.rows.Scan(
		&o.ID,
		&o.SessionID,
		&o.Timestamp,
		&index,
		&o.AzimuthDeg,
		&o.ElevationDeg,
		&o.RangeKm,
		&o.RangeRateKmS,
		&o.DopplerHz,
		&o.ShiftHz,
	)
	if r.err != nil {
		r.err = fmt.Errorf("scanning observation: %w", r.err)
		return false
	}

	o.Timestamp = o.Timestamp.UTC()
	o.SampleIndex = uint64(index)
	r.current = &o

	return true
}

func (r *SqliteObservationReader) Current() *Observation {
	return r.current
}

func (r *SqliteObservationReader) Error() error {
	if r.err != nil {
		return r.err
	}
	if r.rows != nil {
		return r.rows.Err()
	}
	return nil
}

func (r *SqliteObservationReader) Close() error {
	if r.rows != nil {
		err := r.rows.Close()
		r.current = nil
		r.rows = nil
		return err
	}
	return nil
}
