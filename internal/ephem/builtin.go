package ephem

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/litescript/ls-nightsky/internal/astro"
)

// BuiltinSource computes the Sun and Moon from the short series in package
// astro. It needs no data files or network and does not support planets.
type BuiltinSource struct{}

// NewBuiltinSource creates a builtin source.
func NewBuiltinSource() *BuiltinSource {
	return &BuiltinSource{}
}

// Name implements Source.
func (s *BuiltinSource) Name() string {
	return "builtin"
}

// Compute implements Source.
func (s *BuiltinSource) Compute(ctx context.Context, body Body, obs astro.Observer, t time.Time) (Geometry, error) {
	if err := ctx.Err(); err != nil {
		return Geometry{}, err
	}
	t = t.UTC()

	switch body {
	case Sun:
		ra, dec := astro.SunPosition(t)
		_, dist := astro.SunEcliptic(t)
		return Geometry{
			Body:       Sun,
			Time:       t,
			Coord:      astro.HorizontalAt(ra, dec, obs, t),
			Magnitude:  SunMagnitude,
			DistanceAU: dist,
		}, nil

	case Moon:
		m := astro.MoonAt(t)
		ra, dec := astro.Topocentric(m.RAdeg, m.DecDeg, m.DistanceKm, obs, t)
		frac, elong := astro.MoonIllumination(t)
		phaseAngle := math.Acos(2*frac-1) * 180 / math.Pi
		return Geometry{
			Body:            Moon,
			Time:            t,
			Coord:           astro.HorizontalAt(ra, dec, obs, t),
			Magnitude:       moonMagnitude(phaseAngle),
			Illumination:    frac,
			HasIllumination: true,
			Elongation:      elong,
			HasElongation:   true,
			DistanceAU:      m.DistanceKm / astro.KmPerAU,
		}, nil
	}

	return Geometry{}, fmt.Errorf("%w: %s (builtin source covers Sun and Moon only)", ErrUnsupportedBody, body)
}

// NextEvent implements Source.
func (s *BuiltinSource) NextEvent(ctx context.Context, body Body, obs astro.Observer, t time.Time, ev Event) (time.Time, bool, error) {
	if _, err := s.Compute(ctx, body, obs, t); err != nil {
		return time.Time{}, false, err
	}

	alt := func(ts time.Time) (float64, float64) {
		g, _ := s.Compute(context.Background(), body, obs, ts)
		return g.Coord.ElDeg, g.DistanceAU
	}
	when, ok := searchEvent(body, alt, t.UTC(), ev)
	return when, ok, nil
}
