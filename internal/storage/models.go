package storage

import (
	"time"
)

// Session is one run of the corrector
type Session struct {
	ID        int64
	StartTime time.Time
	Mode      string
	Label     string  // satellite name in track mode
	Config    *string // JSON encoded configuration
}

// Observation is a logged satellite observation and the shift applied from it
type Observation struct {
	ID           int64
	SessionID    int64
	Timestamp    time.Time
	SampleIndex  uint64 // samples processed when the observation was taken
	AzimuthDeg   float64
	ElevationDeg float64
	RangeKm      float64
	RangeRateKmS float64
	DopplerHz    float64
	ShiftHz      float64
}
