// Package ephem provides body geometry for the Sun, Moon and planets as seen
// by a ground observer, from several interchangeable sources.
package ephem

import (
	"context"
	"errors"
	"time"

	"github.com/litescript/ls-nightsky/internal/astro"
)

// Errors shared by all sources.
var (
	ErrUnsupportedBody = errors.New("unsupported body")
	ErrNoData          = errors.New("no ephemeris data")
)

// EventSearchWindow bounds the search for the next rise or set.
const EventSearchWindow = 26 * time.Hour

// Geometry is the position and appearance of a body at one instant.
type Geometry struct {
	Body  Body
	Time  time.Time
	Coord astro.SkyCoord // apparent RA/Dec of date plus topocentric Az/El

	Magnitude float64

	// Illumination is the illuminated fraction of the disk (0-1).
	Illumination    float64
	HasIllumination bool

	// Elongation is measured east of the Sun in [0, 360).
	Elongation    float64
	HasElongation bool

	DistanceAU float64
}

// Event selects a rise or a set.
type Event int

const (
	EventRise Event = iota
	EventSet
)

// String returns the event name.
func (e Event) String() string {
	if e == EventSet {
		return "set"
	}
	return "rise"
}

// Source defines the interface for body geometry providers.
type Source interface {
	// Name returns the source name for display/logging.
	Name() string

	// Compute returns the geometry of body for the observer at t.
	Compute(ctx context.Context, body Body, obs astro.Observer, t time.Time) (Geometry, error)

	// NextEvent returns the first rise or set of body after t within
	// EventSearchWindow. ok is false when there is none (circumpolar or
	// never rising), which is not an error.
	NextEvent(ctx context.Context, body Body, obs astro.Observer, t time.Time, ev Event) (time.Time, bool, error)
}

// Mode represents which ephemeris source to use.
type Mode int

const (
	ModeMeeus    Mode = iota // VSOP87 or mean-element planets plus full lunar/solar theory (default)
	ModeBuiltin              // Low-precision Sun and Moon only, no data files
	ModeHorizons             // JPL Horizons over HTTP
	ModeAuto                 // Meeus, falling back to Horizons per body
)

// Modes lists the accepted mode names.
var Modes = []string{"meeus", "builtin", "horizons", "auto"}

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeMeeus:
		return "meeus"
	case ModeBuiltin:
		return "builtin"
	case ModeHorizons:
		return "horizons"
	case ModeAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode string. Unknown values select ModeAuto.
func ParseMode(s string) Mode {
	switch s {
	case "meeus":
		return ModeMeeus
	case "builtin":
		return ModeBuiltin
	case "horizons":
		return ModeHorizons
	default:
		return ModeAuto
	}
}

// riseAltitude is the altitude of a body's centre at rise/set.
func riseAltitude(body Body, distanceAU float64) float64 {
	switch body {
	case Sun:
		return astro.SunRiseAltitude
	case Moon:
		return astro.MoonRiseAltitudeFor(distanceAU * astro.KmPerAU)
	default:
		return astro.PlanetRiseAltitude
	}
}

// searchEvent finds the next rise or set by bracketing and bisecting the
// altitude returned by alt. Sources whose geometry is cheap to evaluate
// locally share this.
func searchEvent(body Body, alt func(time.Time) (float64, float64), t time.Time, ev Event) (time.Time, bool) {
	_, dist := alt(t)
	target := riseAltitude(body, dist)

	f := func(ts time.Time) float64 {
		el, _ := alt(ts)
		return el
	}
	dir := astro.CrossingUp
	if ev == EventSet {
		dir = astro.CrossingDown
	}
	return astro.FindCrossing(f, t, t.Add(EventSearchWindow), target, dir,
		astro.DefaultCrossingSteps, astro.DefaultCrossingTol)
}

// Options configures the sources built by New.
type Options struct {
	VSOP87Path  string
	HorizonsURL string
	Timeout     time.Duration
}

// New builds the source for mode.
func New(mode Mode, opts Options) Source {
	switch mode {
	case ModeMeeus:
		return NewMeeusSource(opts.VSOP87Path)
	case ModeBuiltin:
		return NewBuiltinSource()
	case ModeHorizons:
		return NewHorizonsSource(opts.HorizonsURL, opts.Timeout)
	default:
		return NewFallbackSource(
			NewMeeusSource(opts.VSOP87Path),
			NewHorizonsSource(opts.HorizonsURL, opts.Timeout),
		)
	}
}
