package orbit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang/geo/s2"
	"github.com/tzneal/coordconv"
	"gopkg.in/yaml.v3"
)

// ErrInvalidLocation is returned for a malformed or out of range observer location
var ErrInvalidLocation = errors.New("invalid location")

// Location is a ground observer position on the WGS-84 ellipsoid
type Location struct {
	LatLng    s2.LatLng
	AltitudeM float64 // metres above the ellipsoid
}

// NewLocation returns a location from degrees and metres
func NewLocation(latDeg, lonDeg, altM float64) (Location, error) {
	l := Location{
		LatLng:    s2.LatLngFromDegrees(latDeg, lonDeg),
		AltitudeM: altM,
	}
	if err := l.Validate(); err != nil {
		return Location{}, err
	}
	return l, nil
}

// ParseLocation parses "lat=58.64560,lon=23.15163,alt=8" (degrees, degrees, metres).
// Keys may appear in any order; alt is optional and defaults to 0.
func ParseLocation(s string) (Location, error) {
	var (
		lat, lon, alt float64
		seen          = map[string]bool{}
	)

	for _, field := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(field), "=")
		if !ok {
			return Location{}, fmt.Errorf("%w: %q: expected key=value, got %q", ErrInvalidLocation, s, field)
		}

		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return Location{}, fmt.Errorf("%w: %q: %s: %w", ErrInvalidLocation, s, key, err)
		}

		key = strings.ToLower(strings.TrimSpace(key))
		switch key {
		case "lat":
			lat = v
		case "lon":
			lon = v
		case "alt":
			alt = v
		default:
			return Location{}, fmt.Errorf("%w: %q: unknown key %q", ErrInvalidLocation, s, key)
		}
		seen[key] = true
	}

	if !seen["lat"] || !seen["lon"] {
		return Location{}, fmt.Errorf("%w: %q: lat and lon are required", ErrInvalidLocation, s)
	}

	return NewLocation(lat, lon, alt)
}

func (l Location) Validate() error {
	lat, lon := l.LatLng.Lat.Degrees(), l.LatLng.Lng.Degrees()

	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90: %f given", ErrInvalidLocation, lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180: %f given", ErrInvalidLocation, lon)
	}
	if l.AltitudeM < -500 || l.AltitudeM > 100_000 {
		return fmt.Errorf("%w: altitude must be between -500 and 100000 m: %f given", ErrInvalidLocation, l.AltitudeM)
	}

	return nil
}

// MGRS returns the 1 m precision Military Grid Reference of the location, or an empty string
// where MGRS is undefined (polar regions).
func (l Location) MGRS() string {
	coord, err := coordconv.DefaultMGRSConverter.ConvertFromGeodetic(l.LatLng, 5)
	if err != nil {
		return ""
	}
	return fmt.Sprint(coord)
}

func (l Location) String() string {
	return fmt.Sprintf("lat=%.5f,lon=%.5f,alt=%g", l.LatLng.Lat.Degrees(), l.LatLng.Lng.Degrees(), l.AltitudeM)
}

// Set implements pflag.Value
func (l *Location) Set(s string) error {
	v, err := ParseLocation(s)
	if err != nil {
		return err
	}

	*l = v
	return nil
}

// Type implements pflag.Value
func (l *Location) Type() string {
	return "location"
}

func (l *Location) UnmarshalYAML(value *yaml.Node) error {
	if err := l.Set(value.Value); err != nil {
		return fmt.Errorf("orbit.Location: line %d: %w", value.Line, err)
	}
	return nil
}

func (l Location) MarshalYAML() (interface{}, error) {
	return l.String(), nil
}
