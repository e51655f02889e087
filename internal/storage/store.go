package storage

import (
	"context"
	"time"
)

// Store persists the shift log: one session per run and the observations made during it.
type Store interface {
	// CreateSession starts a new session and returns its identifier.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - startTime: Stream time of the first sample
	//   - mode: Correction mode ("const" or "track")
	//   - label: Free form label, the satellite name in track mode
	//   - config: Optional configuration. Can be string, []byte, or JSON-serializable object
	CreateSession(ctx context.Context, startTime time.Time, mode, label string, config any) (sessionID int64, err error)

	// Session returns a session by its ID
	Session(ctx context.Context, id int64) (session *Session, err error)

	// Sessions returns all sessions ordered by start time
	Sessions(ctx context.Context) (sessions []*Session, err error)

	// StoreObservations saves observations of a session in a single transaction
	StoreObservations(ctx context.Context, sessionID int64, observations []Observation) error

	// Close releases all database connections. It is safe to call Close multiple times.
	Close() error
}
