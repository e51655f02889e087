package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionStart = time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *SqliteStore {
	t.Helper()

	store := NewSqliteStore(filepath.Join(t.TempDir(), "shifts.sqlite"))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func observationsAt(n int, step time.Duration) []Observation {
	out := make([]Observation, n)
	for i := range out {
		out[i] = Observation{
			Timestamp:    sessionStart.Add(time.Duration(i) * step),
			SampleIndex:  uint64(i) * 48_000,
			AzimuthDeg:   float64(i),
			ElevationDeg: float64(i) - 5,
			RangeKm:      2000 - float64(i),
			RangeRateKmS: -7 + float64(i)/100,
			DopplerHz:    10_000 - float64(i),
			ShiftHz:      10_500 - float64(i),
		}
	}
	return out
}

func TestSqliteStoreSessions(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	constID, err := store.CreateSession(ctx, sessionStart, "const", "", map[string]any{"shift": 1500})
	require.NoError(t, err)
	trackID, err := store.CreateSession(ctx, sessionStart.Add(time.Hour), "track", "ISS (ZARYA)", nil)
	require.NoError(t, err)

	sess, err := store.Session(ctx, trackID)
	require.NoError(t, err)
	assert.Equal(t, "track", sess.Mode)
	assert.Equal(t, "ISS (ZARYA)", sess.Label)
	assert.True(t, sessionStart.Add(time.Hour).Equal(sess.StartTime))
	assert.Nil(t, sess.Config)

	sessions, err := store.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, constID, sessions[0].ID)
	require.NotNil(t, sessions[0].Config)
	assert.JSONEq(t, `{"shift":1500}`, *sessions[0].Config)

	_, err = store.Session(ctx, 42)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestSqliteStoreObservations(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.CreateSession(ctx, sessionStart, "track", "ISS", nil)
	require.NoError(t, err)

	// more rows than a single insert statement holds
	want := observationsAt(maxRowsPerInsert+20, time.Second)
	require.NoError(t, store.StoreObservations(ctx, id, want))
	require.NoError(t, store.StoreObservations(ctx, id, nil))

	reader, err := store.ReadObservations(ctx, id)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, "ISS", reader.Session().Label)

	var got []Observation
	for reader.Next(ctx) {
		got = append(got, *reader.Current())
	}
	require.NoError(t, reader.Error())
	require.Len(t, got, len(want))

	for i := range want {
		assert.Equal(t, id, got[i].SessionID)
		assert.True(t, want[i].Timestamp.Equal(got[i].Timestamp), "row %d", i)
		assert.Equal(t, want[i].SampleIndex, got[i].SampleIndex)
		assert.Equal(t, want[i].ElevationDeg, got[i].ElevationDeg)
		assert.Equal(t, want[i].ShiftHz, got[i].ShiftHz)
	}
}

func TestSqliteObservationReaderFilters(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.CreateSession(ctx, sessionStart, "track", "ISS", nil)
	require.NoError(t, err)
	require.NoError(t, store.StoreObservations(ctx, id, observationsAt(20, 500*time.Millisecond)))

	count := func(opts ...ReaderOption) int {
		reader, err := store.ReadObservations(ctx, id, opts...)
		require.NoError(t, err)
		defer reader.Close()

		n := 0
		for reader.Next(ctx) {
			n++
		}
		require.NoError(t, reader.Error())
		return n
	}

	assert.Equal(t, 20, count())
	assert.Equal(t, 10, count(WithStartTime(sessionStart.Add(5*time.Second))))
	assert.Equal(t, 3, count(WithEndTime(sessionStart.Add(time.Second))))
	assert.Equal(t, 5, count(WithTimeRange(sessionStart.Add(1500*time.Millisecond), sessionStart.Add(3500*time.Millisecond))))
	assert.Equal(t, 15, count(WithMinElevation(0)))

	_, err = store.ReadObservations(ctx, id, WithTimeRange(sessionStart.Add(time.Hour), sessionStart))
	assert.Error(t, err)

	_, err = store.ReadObservations(ctx, id+1)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestSqliteStoreCloseTwice(t *testing.T) {
	store := NewSqliteStore(filepath.Join(t.TempDir(), "shifts.sqlite"))

	_, err := store.CreateSession(context.Background(), sessionStart, "const", "", "shift=0")
	require.NoError(t, err)

	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
