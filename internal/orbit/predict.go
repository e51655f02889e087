// Package orbit locates satellites in TLE files and predicts where they are seen from a ground
// observer using SGP4.
package orbit

import (
	"errors"
	"fmt"
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

const (
	gravityModel = "wgs84"

	// earthRotation is the sidereal rotation rate of the Earth in rad/s
	earthRotation = 7.292115e-5

	secondsPerDay = 86400.0
)

// ErrPropagation is returned when SGP4 cannot produce a state vector for the requested time,
// typically for a decayed orbit or a time far from the element set epoch.
var ErrPropagation = errors.New("orbit propagation failed")

// Observation is the state of a satellite as seen from the observer at a single instant
type Observation struct {
	Time         time.Time
	AzimuthDeg   float64
	ElevationDeg float64
	RangeKm      float64
	RangeRateKmS float64 // positive when receding

	// Sub-satellite point
	LatitudeDeg  float64
	LongitudeDeg float64
	AltitudeKm   float64
	VelocityKmS  float64
}

// Visible reports whether the satellite is above the observer's horizon
func (o Observation) Visible() bool {
	return o.ElevationDeg > 0
}

// Satellite is an element set resolved for a fixed observer
type Satellite struct {
	tle      TLE
	sat      satellite.Satellite
	observer Location
	obsCoord satellite.LatLong
	obsAltKm float64
}

// Resolve prepares the satellite described by tle for observations from loc
func Resolve(tle TLE, loc Location) (s *Satellite, err error) {
	if err = tle.Validate(); err != nil {
		return nil, err
	}
	if err = loc.Validate(); err != nil {
		return nil, err
	}

	// The element parser panics on fields it cannot read
	defer func() {
		if r := recover(); r != nil {
			s, err = nil, fmt.Errorf("%w: %s: %v", ErrInvalidTLE, tle.Name, r)
		}
	}()

	s = &Satellite{
		tle:      tle,
		sat:      satellite.TLEToSat(tle.Line1, tle.Line2, gravityModel),
		observer: loc,
		obsCoord: satellite.LatLong{
			Latitude:  loc.LatLng.Lat.Radians(),
			Longitude: loc.LatLng.Lng.Radians(),
		},
		obsAltKm: loc.AltitudeM / 1000,
	}

	return s, nil
}

// Name returns the satellite name of the element set
func (s *Satellite) Name() string {
	return s.tle.Name
}

// Observer returns the ground location observations are made from
func (s *Satellite) Observer() Location {
	return s.observer
}

// Observe returns the look angles, range and range rate of the satellite at t.
//
// SGP4 is evaluated on whole UTC seconds; state vectors between two seconds are linearly
// interpolated.
func (s *Satellite) Observe(t time.Time) (Observation, error) {
	t = t.UTC()
	base := t.Truncate(time.Second)
	frac := t.Sub(base).Seconds()

	pos0, vel0, err := s.propagate(base)
	if err != nil {
		return Observation{}, err
	}
	pos1, vel1, err := s.propagate(base.Add(time.Second))
	if err != nil {
		return Observation{}, err
	}

	pos := lerp(pos0, pos1, frac)
	vel := lerp(vel0, vel1, frac)
	jday := julianDay(base) + frac/secondsPerDay

	obsPos := satellite.LLAToECI(s.obsCoord, s.obsAltKm, jday)
	obsVel := satellite.Vector3{X: -earthRotation * obsPos.Y, Y: earthRotation * obsPos.X}
	rng, rate := rangeAndRate(pos, vel, obsPos, obsVel)

	look := satellite.ECIToLookAngles(pos, s.obsCoord, s.obsAltKm, jday)
	altitude, velocity, subPoint := satellite.ECIToLLA(pos, satellite.ThetaG_JD(jday))
	subPoint = satellite.LatLongDeg(subPoint)

	return Observation{
		Time:         t,
		AzimuthDeg:   degrees(look.Az),
		ElevationDeg: degrees(look.El),
		RangeKm:      rng,
		RangeRateKmS: rate,
		LatitudeDeg:  subPoint.Latitude,
		LongitudeDeg: subPoint.Longitude,
		AltitudeKm:   altitude,
		VelocityKmS:  velocity,
	}, nil
}

func (s *Satellite) propagate(t time.Time) (pos, vel satellite.Vector3, err error) {
	pos, vel = satellite.Propagate(s.sat, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())

	if !finite(pos) || !finite(vel) || norm(pos) == 0 {
		return pos, vel, fmt.Errorf("%w: %s at %s", ErrPropagation, s.tle.Name, t.Format(time.RFC3339))
	}

	return pos, vel, nil
}

// rangeAndRate returns the observer to satellite distance and its time derivative,
// which is the relative velocity projected on the line of sight.
func rangeAndRate(satPos, satVel, obsPos, obsVel satellite.Vector3) (rng, rate float64) {
	dr := sub(satPos, obsPos)
	dv := sub(satVel, obsVel)

	rng = norm(dr)
	if rng == 0 {
		return 0, 0
	}
	return rng, dot(dr, dv) / rng
}

func julianDay(t time.Time) float64 {
	return satellite.JDay(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
}

func lerp(a, b satellite.Vector3, f float64) satellite.Vector3 {
	return satellite.Vector3{
		X: a.X + (b.X-a.X)*f,
		Y: a.Y + (b.Y-a.Y)*f,
		Z: a.Z + (b.Z-a.Z)*f,
	}
}

func sub(a, b satellite.Vector3) satellite.Vector3 {
	return satellite.Vector3{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}

func dot(a, b satellite.Vector3) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func norm(v satellite.Vector3) float64 {
	return math.Sqrt(dot(v, v))
}

func finite(v satellite.Vector3) bool {
	for _, c := range [...]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
