package conditions

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/litescript/ls-nightsky/internal/astro"
	"github.com/litescript/ls-nightsky/internal/ephem"
	"github.com/litescript/ls-nightsky/internal/logging"
)

// Engine answers observing queries for one location. It is not safe for
// concurrent use: serialize SetLocation against queries, or hand a
// Snapshot to the goroutine running them.
type Engine struct {
	src       ephem.Source
	loc       Location
	gen       uint64
	planets   []ephem.Body
	estimator *Estimator
	catalog   astro.StarCatalog
	now       func() time.Time
	log       *logging.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used when a query passes the zero time.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithPlanets sets the ordered list of planets queried.
func WithPlanets(bodies []ephem.Body) Option {
	return func(e *Engine) {
		e.planets = append([]ephem.Body(nil), bodies...)
	}
}

// WithEstimator sets the light pollution estimator. nil keeps the default.
func WithEstimator(est *Estimator) Option {
	return func(e *Engine) {
		if est != nil {
			e.estimator = est
		}
	}
}

// WithCatalog sets the star catalog.
func WithCatalog(c astro.StarCatalog) Option {
	return func(e *Engine) { e.catalog = c }
}

// WithLogger sets the logger for per-body diagnostics.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// NewEngine creates an engine reading geometry from src.
func NewEngine(src ephem.Source, loc Location, opts ...Option) (*Engine, error) {
	if src == nil {
		return nil, errors.New("conditions: nil geometry source")
	}
	if err := loc.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		src:       src,
		loc:       loc,
		planets:   append([]ephem.Body(nil), ephem.DefaultPlanets...),
		estimator: DefaultEstimator(),
		catalog:   astro.DefaultStarCatalog(),
		now:       time.Now,
		log:       logging.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Location returns the current location.
func (e *Engine) Location() Location { return e.loc }

// Generation increments each time the location changes. Results computed
// under an older generation are stale.
func (e *Engine) Generation() uint64 { return e.gen }

// SourceName returns the geometry source name.
func (e *Engine) SourceName() string { return e.src.Name() }

// Planets returns the planets queried, in order.
func (e *Engine) Planets() []ephem.Body {
	return append([]ephem.Body(nil), e.planets...)
}

// SetLocation moves the engine to lat, lon and clears the location name.
// Out-of-range values return ErrInvalidLocation and change nothing.
func (e *Engine) SetLocation(lat, lon float64) error {
	return e.SetNamedLocation(Location{Latitude: lat, Longitude: lon})
}

// SetNamedLocation is SetLocation with a display name.
func (e *Engine) SetNamedLocation(loc Location) error {
	if err := loc.Validate(); err != nil {
		return err
	}
	e.loc = loc
	e.gen++
	e.log.Debug("location set to %s (generation %d)", loc, e.gen)
	return nil
}

// Snapshot returns an independent copy of the engine. Changing the
// location of either copy does not affect the other.
func (e *Engine) Snapshot() *Engine {
	c := *e
	c.planets = append([]ephem.Body(nil), e.planets...)
	c.catalog = astro.StarCatalog{Stars: append([]astro.Star(nil), e.catalog.Stars...)}
	return &c
}

// resolveTime maps the zero time to now. All calculations run in UTC.
func (e *Engine) resolveTime(t time.Time) time.Time {
	if t.IsZero() {
		t = e.now()
	}
	return t.UTC()
}

func (e *Engine) geometry(ctx context.Context, body ephem.Body, t time.Time) (ephem.Geometry, error) {
	g, err := e.src.Compute(ctx, body, e.loc.Observer(), t)
	if err != nil {
		return ephem.Geometry{}, &GeometryError{Body: body, Err: err}
	}
	return g, nil
}

// nextEvent returns the zero time when the event is absent or the source
// fails. Only cancellation is reported.
func (e *Engine) nextEvent(ctx context.Context, body ephem.Body, t time.Time, ev ephem.Event) (time.Time, error) {
	when, ok, err := e.src.NextEvent(ctx, body, e.loc.Observer(), t, ev)
	if err != nil {
		if ctx.Err() != nil {
			return time.Time{}, ctx.Err()
		}
		e.log.Debug("%s %s unavailable: %v", body, ev, err)
		return time.Time{}, nil
	}
	if !ok {
		return time.Time{}, nil
	}
	return when, nil
}

// MoonState describes the Moon at t. The zero time means now.
func (e *Engine) MoonState(ctx context.Context, t time.Time) (MoonState, error) {
	ms, _, err := e.moonWithEvents(ctx, e.resolveTime(t))
	return ms, err
}

func (e *Engine) moonWithEvents(ctx context.Context, t time.Time) (MoonState, ephem.Geometry, error) {
	ms, sun, err := e.moonAndSun(ctx, t)
	if err != nil {
		return MoonState{}, ephem.Geometry{}, err
	}
	if ms.NextRise, err = e.nextEvent(ctx, ephem.Moon, t, ephem.EventRise); err != nil {
		return MoonState{}, ephem.Geometry{}, err
	}
	if ms.NextSet, err = e.nextEvent(ctx, ephem.Moon, t, ephem.EventSet); err != nil {
		return MoonState{}, ephem.Geometry{}, err
	}
	return ms, sun, nil
}

// moonAndSun computes the Moon's state without rise/set, and the Sun's
// geometry. Both bodies are required.
func (e *Engine) moonAndSun(ctx context.Context, t time.Time) (MoonState, ephem.Geometry, error) {
	moon, err := e.geometry(ctx, ephem.Moon, t)
	if err != nil {
		return MoonState{}, ephem.Geometry{}, err
	}
	sun, err := e.geometry(ctx, ephem.Sun, t)
	if err != nil {
		return MoonState{}, ephem.Geometry{}, err
	}

	elong := moon.Elongation
	if !moon.HasElongation {
		elong = astro.EastElongationFromRA(moon.Coord.RAdeg, moon.Coord.DecDeg, sun.Coord.RAdeg, sun.Coord.DecDeg)
	}
	frac := moon.Illumination
	if !moon.HasIllumination {
		frac = (1 - math.Cos(elong*math.Pi/180)) / 2
	}
	frac = math.Max(0, math.Min(1, frac))
	pct := frac * 100

	return MoonState{
		Time:         t,
		Fraction:     frac,
		Phase:        ClassifyPhase(pct, elong),
		Illumination: round1(pct),
		Altitude:     moon.Coord.ElDeg,
		Azimuth:      moon.Coord.AzDeg,
		DistanceAU:   moon.DistanceAU,
		Elongation:   elong,
		Waxing:       Waxing(elong),
	}, sun, nil
}

// VisiblePlanets returns the configured planets above the horizon at t,
// brightest first. A planet whose geometry fails is reported as a Warning
// and skipped; only cancellation fails the query.
func (e *Engine) VisiblePlanets(ctx context.Context, t time.Time) (PlanetReport, error) {
	t = e.resolveTime(t)

	var (
		all      []PlanetObservation
		warnings []Warning
	)
	for _, body := range e.planets {
		g, err := e.geometry(ctx, body, t)
		if err == nil && (math.IsNaN(g.Magnitude) || math.IsInf(g.Magnitude, 0)) {
			err = &GeometryError{Body: body, Err: fmt.Errorf("%w: magnitude not supplied", ephem.ErrNoData)}
		}
		if err != nil {
			if ctx.Err() != nil {
				return PlanetReport{}, ctx.Err()
			}
			e.log.Warn("skipping %s: %v", body, err)
			warnings = append(warnings, Warning{Body: body, Err: err})
			continue
		}

		obs := PlanetObservation{
			Name:       body,
			Magnitude:  g.Magnitude,
			DistanceAU: g.DistanceAU,
			Altitude:   g.Coord.ElDeg,
			Azimuth:    g.Coord.AzDeg,
		}
		if g.HasIllumination {
			obs.Phase = g.Illumination * 100
		}
		if g.HasElongation {
			obs.Elongation = g.Elongation
		}
		all = append(all, obs)
	}

	return PlanetReport{Planets: RankPlanets(all), Warnings: warnings}, nil
}

// VisibleStars returns the catalog stars no fainter than maxMag that are
// above the horizon at t, brightest first.
func (e *Engine) VisibleStars(ctx context.Context, t time.Time, maxMag float64) ([]astro.Star, error) {
	obs, err := e.visibleStars(ctx, t, maxMag)
	if err != nil {
		return nil, err
	}
	stars := make([]astro.Star, len(obs))
	for i, o := range obs {
		stars[i] = o.Star
	}
	return stars, nil
}

func (e *Engine) visibleStars(ctx context.Context, t time.Time, maxMag float64) ([]StarObservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t = e.resolveTime(t)
	observer := e.loc.Observer()

	// Keyed by the whole entry: a custom catalog may repeat a name.
	coords := make(map[astro.Star]astro.SkyCoord, len(e.catalog.Stars))
	altitudeOf := func(s astro.Star) float64 {
		c := s.Horizontal(observer, t)
		coords[s] = c
		return c.ElDeg
	}

	visible := FilterStars(e.catalog.Stars, altitudeOf, maxMag)
	out := make([]StarObservation, len(visible))
	for i, s := range visible {
		c := coords[s]
		out[i] = StarObservation{Star: s, Altitude: c.ElDeg, Azimuth: c.AzDeg}
	}
	return out, nil
}

// ObservingConditions scores the sky at t.
func (e *Engine) ObservingConditions(ctx context.Context, t time.Time) (ObservingConditions, error) {
	t = e.resolveTime(t)
	moon, sun, err := e.moonAndSun(ctx, t)
	if err != nil {
		return ObservingConditions{}, err
	}
	return e.score(t, moon, sun)
}

func (e *Engine) score(t time.Time, moon MoonState, sun ephem.Geometry) (ObservingConditions, error) {
	lp := e.estimator.Estimate(e.loc)
	s, err := ComputeScore(ScoreInput{
		MoonIllumination: moon.Illumination,
		MoonAltitude:     moon.Altitude,
		LightPollution:   lp,
		SunAltitude:      sun.Coord.ElDeg,
	})
	if err != nil {
		return ObservingConditions{}, err
	}

	return ObservingConditions{
		Time:             t,
		Score:            s.Value,
		Condition:        s.Condition,
		Description:      s.Condition.Description(),
		MoonIllumination: moon.Illumination,
		MoonPhase:        moon.Phase,
		MoonAltitude:     round1(moon.Altitude),
		LightPollution:   lp,
		SunAltitude:      round1(sun.Coord.ElDeg),
		Twilight:         s.Twilight,
		Recommendation:   s.Recommendation,
		Penalties:        s.Penalties,
	}, nil
}

// Report runs every query for one instant. Planet failures are carried as
// warnings; Moon or Sun failures fail the report.
func (e *Engine) Report(ctx context.Context, t time.Time, maxMag float64) (Report, error) {
	t = e.resolveTime(t)

	moon, sun, err := e.moonWithEvents(ctx, t)
	if err != nil {
		return Report{}, err
	}
	cond, err := e.score(t, moon, sun)
	if err != nil {
		return Report{}, err
	}
	planets, err := e.VisiblePlanets(ctx, t)
	if err != nil {
		return Report{}, err
	}
	stars, err := e.visibleStars(ctx, t, maxMag)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Location:   e.loc,
		Time:       t,
		Generation: e.gen,
		Source:     e.src.Name(),
		Conditions: cond,
		Moon:       moon,
		Planets:    planets,
		Stars:      stars,
		Night:      e.Tonight(t),
	}, nil
}
