package ephem

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/elliptic"
	"github.com/soniakeys/meeus/v3/illum"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/moonposition"
	pp "github.com/soniakeys/meeus/v3/planetposition"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"

	"github.com/litescript/ls-nightsky/internal/astro"
)

// SunMagnitude is the apparent visual magnitude of the Sun.
const SunMagnitude = -26.74

// vsopIndex maps planets to planetposition body numbers.
var vsopIndex = map[Body]int{
	Mercury: pp.Mercury,
	Venus:   pp.Venus,
	Mars:    pp.Mars,
	Jupiter: pp.Jupiter,
	Saturn:  pp.Saturn,
	Uranus:  pp.Uranus,
	Neptune: pp.Neptune,
}

// MeeusSource computes geometry with the algorithms of Meeus' Astronomical
// Algorithms. The Sun and Moon need no data files. Planets use VSOP87 files
// loaded lazily from VSOP87Path (or the VSOP87 environment variable when the
// path is empty) and mean orbital elements when those files are missing.
type MeeusSource struct {
	VSOP87Path string

	mu      sync.Mutex
	planets map[int]*pp.V87Planet
}

// NewMeeusSource creates a Meeus source reading VSOP87 files from path.
func NewMeeusSource(path string) *MeeusSource {
	return &MeeusSource{
		VSOP87Path: path,
		planets:    make(map[int]*pp.V87Planet),
	}
}

// Name implements Source.
func (s *MeeusSource) Name() string {
	return "meeus"
}

// Compute implements Source.
func (s *MeeusSource) Compute(ctx context.Context, body Body, obs astro.Observer, t time.Time) (Geometry, error) {
	if err := ctx.Err(); err != nil {
		return Geometry{}, err
	}
	t = t.UTC()

	switch body {
	case Sun:
		return s.sun(obs, t), nil
	case Moon:
		return s.moon(obs, t), nil
	}

	idx, ok := vsopIndex[body]
	if !ok {
		return Geometry{}, fmt.Errorf("%w: %s", ErrUnsupportedBody, body)
	}
	return s.planet(body, idx, obs, t)
}

// NextEvent implements Source.
func (s *MeeusSource) NextEvent(ctx context.Context, body Body, obs astro.Observer, t time.Time, ev Event) (time.Time, bool, error) {
	if _, err := s.Compute(ctx, body, obs, t); err != nil {
		return time.Time{}, false, err
	}

	alt := func(ts time.Time) (float64, float64) {
		g, err := s.Compute(context.Background(), body, obs, ts)
		if err != nil {
			return math.NaN(), 0
		}
		return g.Coord.ElDeg, g.DistanceAU
	}
	when, ok := searchEvent(body, alt, t.UTC(), ev)
	return when, ok, nil
}

func (s *MeeusSource) sun(obs astro.Observer, t time.Time) Geometry {
	jde := julian.TimeToJD(t)
	T := base.J2000Century(jde)

	ra, dec := solar.ApparentEquatorial(jde)

	return Geometry{
		Body:       Sun,
		Time:       t,
		Coord:      astro.HorizontalAt(raDeg(ra), dec.Deg(), obs, t),
		Magnitude:  SunMagnitude,
		DistanceAU: solar.Radius(T),
	}
}

func (s *MeeusSource) moon(obs astro.Observer, t time.Time) Geometry {
	jde := julian.TimeToJD(t)
	T := base.J2000Century(jde)

	lon, lat, distKm := moonposition.Position(jde)
	ra, dec := equatorialOfDate(lon, lat, jde)
	topoRA, topoDec := astro.Topocentric(raDeg(ra), dec.Deg(), distKm, obs, t)

	sunLon := solar.ApparentLongitude(T)
	sunDistKm := solar.Radius(T) * astro.KmPerAU

	// Geocentric elongation, then the phase angle seen from the Moon.
	cosPsi := math.Cos(lat.Rad()) * math.Cos(lon.Rad()-sunLon.Rad())
	psi := math.Acos(math.Max(-1, math.Min(1, cosPsi)))
	i := unit.Angle(math.Atan2(sunDistKm*math.Sin(psi), distKm-sunDistKm*math.Cos(psi)))

	return Geometry{
		Body:            Moon,
		Time:            t,
		Coord:           astro.HorizontalAt(topoRA, topoDec, obs, t),
		Magnitude:       moonMagnitude(i.Deg()),
		Illumination:    base.Illuminated(i),
		HasIllumination: true,
		Elongation:      astro.Elongation(lon.Deg(), sunLon.Deg()),
		HasElongation:   true,
		DistanceAU:      distKm / astro.KmPerAU,
	}
}

// planet uses the VSOP87 series when they load and falls back to mean
// orbital elements otherwise.
func (s *MeeusSource) planet(body Body, idx int, obs astro.Observer, t time.Time) (Geometry, error) {
	jde := julian.TimeToJD(t)

	earth, err := s.load(pp.Earth)
	var p *pp.V87Planet
	if err == nil {
		p, err = s.load(idx)
	}
	if err != nil {
		return meanElementsGeometry(body, obs, t, err)
	}

	sg := sight(p.Position, earth.Position, jde)
	ra, dec := elliptic.Position(p, earth, jde)
	return sg.geometry(body, obs, t, ra, dec), nil
}

// load returns the VSOP87 series for a planet, reading it on first use.
// Failed loads are not cached so a corrected path takes effect.
func (s *MeeusSource) load(idx int) (*pp.V87Planet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.planets[idx]; ok {
		return p, nil
	}

	var (
		p   *pp.V87Planet
		err error
	)
	if s.VSOP87Path != "" {
		p, err = pp.LoadPlanetPath(idx, s.VSOP87Path)
	} else {
		p, err = pp.LoadPlanet(idx)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: loading VSOP87 series: %v", ErrNoData, err)
	}
	s.planets[idx] = p
	return p, nil
}

// planetMagnitude returns the apparent visual magnitude. Saturn's ring tilt
// is not modelled, so its value is the ring-edge-on estimate.
func planetMagnitude(body Body, r, delta float64, i unit.Angle) float64 {
	switch body {
	case Mercury:
		return illum.Mercury(r, delta, i)
	case Venus:
		return illum.Venus(r, delta, i)
	case Mars:
		return illum.Mars(r, delta, i)
	case Jupiter:
		return illum.Jupiter(r, delta)
	case Saturn:
		return illum.Saturn(r, delta, 0, 0)
	case Uranus:
		return illum.Uranus(r, delta)
	case Neptune:
		return illum.Neptune(r, delta)
	default:
		return math.NaN()
	}
}

// moonMagnitude approximates the Moon's visual magnitude from its phase
// angle in degrees.
func moonMagnitude(phaseAngleDeg float64) float64 {
	a := math.Abs(phaseAngleDeg)
	return -12.73 + 0.026*a + 4e-9*math.Pow(a, 4)
}

func raDeg(ra unit.RA) float64 {
	return unit.Angle(ra).Deg()
}
