package orbit

import (
	"math"
	"testing"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issSatellite(t *testing.T) *Satellite {
	t.Helper()

	loc, err := ParseLocation("lat=58.64560,lon=23.15163,alt=8")
	require.NoError(t, err)

	sat, err := Resolve(TLE{Name: "ISS (ZARYA)", Line1: issLine1, Line2: issLine2}, loc)
	require.NoError(t, err)
	return sat
}

// epoch of the ISS element set: 2008 day 264.51782528
var issEpoch = time.Date(2008, time.September, 20, 12, 25, 40, 0, time.UTC)

func TestResolveRejectsInvalidInput(t *testing.T) {
	loc, err := NewLocation(0, 0, 0)
	require.NoError(t, err)

	_, err = Resolve(TLE{Name: "ISS", Line1: issLine1, Line2: issLine1}, loc)
	assert.ErrorIs(t, err, ErrInvalidTLE)

	_, err = Resolve(TLE{Name: "ISS", Line1: issLine1, Line2: issLine2}, Location{AltitudeM: 1e9})
	assert.ErrorIs(t, err, ErrInvalidLocation)
}

func TestObserve(t *testing.T) {
	sat := issSatellite(t)
	assert.Equal(t, "ISS (ZARYA)", sat.Name())

	for _, offset := range []time.Duration{0, 7 * time.Minute, 33*time.Minute + 250*time.Millisecond} {
		obs, err := sat.Observe(issEpoch.Add(offset))
		require.NoError(t, err)

		assert.True(t, obs.Time.Equal(issEpoch.Add(offset)))
		assert.GreaterOrEqual(t, obs.AzimuthDeg, 0.0)
		assert.Less(t, obs.AzimuthDeg, 360.0)
		assert.GreaterOrEqual(t, obs.ElevationDeg, -90.0)
		assert.LessOrEqual(t, obs.ElevationDeg, 90.0)
		assert.Greater(t, obs.RangeKm, 300.0)
		assert.Less(t, obs.RangeKm, 13_500.0)
		assert.Less(t, math.Abs(obs.RangeRateKmS), 8.0)
		assert.Greater(t, obs.AltitudeKm, 300.0)
		assert.Less(t, obs.AltitudeKm, 450.0)
		assert.InDelta(t, 7.7, obs.VelocityKmS, 0.3)
		assert.LessOrEqual(t, math.Abs(obs.LatitudeDeg), 52.0)
	}
}

func TestObserveRangeRateMatchesRangeDerivative(t *testing.T) {
	sat := issSatellite(t)

	for _, offset := range []time.Duration{0, 10 * time.Minute, 47 * time.Minute} {
		at := issEpoch.Add(offset)

		before, err := sat.Observe(at.Add(-time.Second))
		require.NoError(t, err)
		now, err := sat.Observe(at)
		require.NoError(t, err)
		after, err := sat.Observe(at.Add(time.Second))
		require.NoError(t, err)

		derivative := (after.RangeKm - before.RangeKm) / 2
		assert.InDelta(t, derivative, now.RangeRateKmS, 0.01, "offset %s", offset)
	}
}

func TestObserveInterpolatesBetweenSeconds(t *testing.T) {
	sat := issSatellite(t)

	a, err := sat.Observe(issEpoch)
	require.NoError(t, err)
	mid, err := sat.Observe(issEpoch.Add(500 * time.Millisecond))
	require.NoError(t, err)
	b, err := sat.Observe(issEpoch.Add(time.Second))
	require.NoError(t, err)

	assert.InDelta(t, (a.RangeKm+b.RangeKm)/2, mid.RangeKm, 0.01)
}

func TestRangeAndRate(t *testing.T) {
	obs := satellite.Vector3{X: 6378}
	still := satellite.Vector3{}

	// straight overhead and moving away
	rng, rate := rangeAndRate(satellite.Vector3{X: 6878}, satellite.Vector3{X: 2}, obs, still)
	assert.InDelta(t, 500, rng, 1e-9)
	assert.InDelta(t, 2, rate, 1e-12)

	// crossing perpendicular to the line of sight
	_, rate = rangeAndRate(satellite.Vector3{X: 6878}, satellite.Vector3{Y: 7.5}, obs, still)
	assert.InDelta(t, 0, rate, 1e-12)

	// observer velocity counts against the satellite velocity
	_, rate = rangeAndRate(satellite.Vector3{X: 6878}, satellite.Vector3{X: 1}, obs, satellite.Vector3{X: 1})
	assert.InDelta(t, 0, rate, 1e-12)
}
