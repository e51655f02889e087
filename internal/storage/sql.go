package storage

import (
	_ "embed"
)

const (
	insertSessionSQL = `
INSERT INTO sessions (start_time,
                      mode,
                      label,
                      config)
VALUES (?, ?, ?, ?)`

	selectSessionSQL = `
SELECT id,
       start_time,
       mode,
       label,
       config
FROM sessions
WHERE id = ?`

	selectSessionsSQL = `
SELECT id,
       start_time,
       mode,
       label,
       config
FROM sessions
ORDER BY start_time, id`

	insertObservationSQL = `
INSERT INTO observations (session_id,
                          timestamp,
                          sample_index,
                          azimuth,
                          elevation,
                          range_km,
                          range_rate,
                          doppler_hz,
                          shift_hz)
VALUES `

	observationValuesPlaceholder = "(?, ?, ?, ?, ?, ?, ?, ?, ?)"

	selectObservationsSQL = `
SELECT id,
       session_id,
       timestamp,
       sample_index,
       azimuth,
       elevation,
       range_km,
       range_rate,
       doppler_hz,
       shift_hz
FROM observations
WHERE session_id = ?`

	initIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_observations_session_time ON observations (session_id, timestamp);`
)

//go:embed schema.sql
var initSchemaSQL string
