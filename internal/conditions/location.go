// Package conditions derives sky-observing conditions for a location and
// moment: moon phase, light pollution, a 0-100 observing score and the
// bright bodies above the horizon.
package conditions

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/litescript/ls-nightsky/internal/astro"
)

// ErrInvalidLocation is returned when latitude or longitude is out of range.
var ErrInvalidLocation = errors.New("invalid location")

// Location is an observing site in geodetic degrees.
type Location struct {
	Name      string  `json:"name,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DefaultLocation is Bahrain.
var DefaultLocation = Location{Name: "Bahrain", Latitude: 26.0, Longitude: 50.0}

// Validate checks latitude is in [-90, 90] and longitude in [-180, 180].
func (l Location) Validate() error {
	if math.IsNaN(l.Latitude) || l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v outside [-90, 90]", ErrInvalidLocation, l.Latitude)
	}
	if math.IsNaN(l.Longitude) || l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v outside [-180, 180]", ErrInvalidLocation, l.Longitude)
	}
	return nil
}

// Observer converts the location for the geometry layer.
func (l Location) Observer() astro.Observer {
	return astro.Observer{LatDeg: l.Latitude, LonDeg: l.Longitude, Name: l.Name}
}

// String formats the location the way the report header shows it.
func (l Location) String() string {
	ns, ew := "N", "E"
	if l.Latitude < 0 {
		ns = "S"
	}
	if l.Longitude < 0 {
		ew = "W"
	}
	s := fmt.Sprintf("%.2f°%s, %.2f°%s", math.Abs(l.Latitude), ns, math.Abs(l.Longitude), ew)
	if l.Name != "" {
		s = l.Name + " (" + s + ")"
	}
	return s
}

// ParseLocation reads "lat, lon" or "lat lon" in decimal degrees and
// validates the result.
func ParseLocation(s string) (Location, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) != 2 {
		return Location{}, fmt.Errorf("%w: want \"latitude, longitude\", got %q", ErrInvalidLocation, s)
	}
	lat, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Location{}, fmt.Errorf("%w: latitude %q is not a number", ErrInvalidLocation, fields[0])
	}
	lon, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Location{}, fmt.Errorf("%w: longitude %q is not a number", ErrInvalidLocation, fields[1])
	}
	loc := Location{Latitude: lat, Longitude: lon}
	if err := loc.Validate(); err != nil {
		return Location{}, err
	}
	return loc, nil
}
