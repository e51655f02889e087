package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && !errors.Is(cErr, sql.ErrTxDone) && *err == nil {
		*err = cErr
	}
}

func toConfigData(config any) (configData sql.NullString, err error) {
	if config == nil {
		return
	}

	switch c := config.(type) {
	case string:
		configData.String = c

	case []byte:
		configData.String = string(c)

	default:
		var p []byte
		if p, err = json.Marshal(config); err != nil {
			err = fmt.Errorf("marshaling config: %w", err)
			return
		}
		configData.String = string(p)
	}

	configData.Valid = true
	return
}

func toSampleIndex(n uint64) (int64, error) {
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("sample index %d out of range", n)
	}
	return int64(n), nil
}

type sessionScanner interface {
	Scan(dest ...any) error
}

func scanSession(row sessionScanner) (*Session, error) {
	var (
		sess   Session
		config sql.NullString
	)
	if err := row.Scan(&sess.ID, &sess.StartTime, &sess.Mode, &sess.Label, &config); err != nil {
		return nil, err
	}
	if config.Valid {
		sess.Config = &config.String
	}
	sess.StartTime = sess.StartTime.UTC()

	return &sess, nil
}
