package conditions

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/litescript/ls-nightsky/internal/astro"
	"github.com/litescript/ls-nightsky/internal/ephem"
)

// ErrGeometryUnavailable matches every GeometryError.
var ErrGeometryUnavailable = errors.New("geometry unavailable")

// GeometryError reports that the source could not produce a body's
// geometry.
type GeometryError struct {
	Body ephem.Body
	Err  error
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("geometry unavailable for %s: %v", e.Body, e.Err)
}

// Unwrap returns the source error.
func (e *GeometryError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrGeometryUnavailable) hold.
func (e *GeometryError) Is(target error) bool { return target == ErrGeometryUnavailable }

// Warning is a non-fatal per-body failure collected during a query.
type Warning struct {
	Body ephem.Body
	Err  error
}

func (w Warning) String() string {
	return w.Err.Error()
}

// MarshalJSON encodes the error as its message.
func (w Warning) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Body  ephem.Body `json:"body"`
		Error string     `json:"error"`
	}{w.Body, w.String()})
}

// PlanetObservation is a planet's geometry at one instant.
type PlanetObservation struct {
	Name       ephem.Body `json:"name"`
	Magnitude  float64    `json:"magnitude"`
	Phase      float64    `json:"phase"` // illuminated percent, 0 when unsupplied
	DistanceAU float64    `json:"distance_au"`
	Elongation float64    `json:"elongation"` // degrees east of the Sun, 0 when unsupplied
	Altitude   float64    `json:"altitude"`
	Azimuth    float64    `json:"azimuth"`
}

// PlanetReport holds the visible planets and the planets that failed.
type PlanetReport struct {
	Planets  []PlanetObservation `json:"planets"`
	Warnings []Warning           `json:"warnings,omitempty"`
}

// MoonState describes the Moon at one instant.
type MoonState struct {
	Time         time.Time `json:"time"`
	Fraction     float64   `json:"fraction"`
	Phase        MoonPhase `json:"phase"`
	Illumination float64   `json:"illumination"` // percent, one decimal
	Altitude     float64   `json:"altitude"`
	Azimuth      float64   `json:"azimuth"`
	DistanceAU   float64   `json:"distance_au"`
	Elongation   float64   `json:"elongation"`
	Waxing       bool      `json:"waxing"`

	// Zero when the Moon does not rise or set within the search window.
	NextRise time.Time `json:"next_rise,omitzero"`
	NextSet  time.Time `json:"next_set,omitzero"`
}

// ObservingConditions is the composite observing verdict.
type ObservingConditions struct {
	Time             time.Time      `json:"time"`
	Score            float64        `json:"score"`
	Condition        Condition      `json:"condition"`
	Description      string         `json:"description"`
	MoonIllumination float64        `json:"moon_illumination"`
	MoonPhase        MoonPhase      `json:"moon_phase"`
	MoonAltitude     float64        `json:"moon_altitude"`
	LightPollution   LightPollution `json:"light_pollution"`
	SunAltitude      float64        `json:"sun_altitude"`
	Twilight         Twilight       `json:"twilight"`
	Recommendation   string         `json:"recommendation"`
	Penalties        Penalties      `json:"penalties"`
}

// Report is every query's result for one location and instant.
type Report struct {
	Location   Location            `json:"location"`
	Time       time.Time           `json:"time"`
	Generation uint64              `json:"generation"`
	Source     string              `json:"source"`
	Conditions ObservingConditions `json:"conditions"`
	Moon       MoonState           `json:"moon"`
	Planets    PlanetReport        `json:"planets"`
	Stars      []StarObservation   `json:"stars"`
	Night      Night               `json:"night"`
}

// StarObservation is a catalog star with its position at query time.
type StarObservation struct {
	astro.Star
	Altitude float64 `json:"altitude"`
	Azimuth  float64 `json:"azimuth"`
}
