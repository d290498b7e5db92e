package ephem

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/coord"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/kepler"
	"github.com/soniakeys/meeus/v3/nutation"
	pe "github.com/soniakeys/meeus/v3/planetelements"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"

	"github.com/litescript/ls-nightsky/internal/astro"
)

// elementsIndex maps planets to planetelements numbers.
var elementsIndex = map[Body]int{
	Mercury: pe.Mercury,
	Venus:   pe.Venus,
	Mars:    pe.Mars,
	Jupiter: pe.Jupiter,
	Saturn:  pe.Saturn,
	Uranus:  pe.Uranus,
	Neptune: pe.Neptune,
}

// helioFunc returns heliocentric ecliptic longitude, latitude and radius
// (AU) referred to the equinox of date.
type helioFunc func(jde float64) (L, B unit.Angle, r float64)

// meanElementsGeometry computes a planet from its mean orbital elements.
// Positions are good to a fraction of a degree, enough for naming what is
// up tonight. loadErr is returned for bodies without elements.
func meanElementsGeometry(body Body, obs astro.Observer, t time.Time, loadErr error) (Geometry, error) {
	idx, ok := elementsIndex[body]
	if !ok {
		return Geometry{}, loadErr
	}
	jde := julian.TimeToJD(t)
	planet := func(jde float64) (unit.Angle, unit.Angle, float64) {
		return meanHeliocentric(idx, jde)
	}
	sg := sight(planet, earthHeliocentric, jde)
	ra, dec := equatorialOfDate(sg.lon, sg.lat, jde)
	return sg.geometry(body, obs, t, ra, dec), nil
}

// meanHeliocentric solves Kepler's equation for the mean elements of
// planet idx at jde.
func meanHeliocentric(idx int, jde float64) (L, B unit.Angle, r float64) {
	var el pe.Elements
	pe.Mean(idx, jde, &el)

	E := kepler.Kepler3(el.Ecc, el.Lon-el.Peri)
	nu := kepler.True(E, el.Ecc)
	r = kepler.Radius(E, el.Ecc, el.Axis)

	// Argument of latitude.
	u := nu + el.Peri - el.Node
	su, cu := u.Sincos()
	sn, cn := el.Node.Sincos()
	si, ci := el.Inc.Sincos()
	x := r * (cn*cu - sn*su*ci)
	y := r * (sn*cu + cn*su*ci)
	z := r * su * si
	return unit.Angle(math.Atan2(y, x)).Mod1(), unit.Angle(math.Atan2(z, math.Hypot(x, y))), r
}

// earthHeliocentric is the Sun's true geometric position turned around.
func earthHeliocentric(jde float64) (L, B unit.Angle, r float64) {
	T := base.J2000Century(jde)
	s, _ := solar.True(T)
	return (s + math.Pi).Mod1(), 0, solar.Radius(T)
}

// sighting is a planet's geocentric position and the distances its
// appearance depends on.
type sighting struct {
	lon, lat unit.Angle // geocentric ecliptic, equinox of date
	sunLon   unit.Angle // geocentric longitude of the Sun
	delta    float64    // Earth to planet, AU
	r        float64    // Sun to planet, AU
	earthR   float64    // Sun to Earth, AU
}

// sight combines heliocentric planet and Earth positions, correcting the
// planet for light time.
func sight(planet, earth helioFunc, jde float64) sighting {
	L0, B0, R0 := earth(jde)
	sB0, cB0 := B0.Sincos()
	sL0, cL0 := L0.Sincos()

	vec := func(jd float64) (float64, float64, float64, float64) {
		L, B, r := planet(jd)
		sB, cB := B.Sincos()
		sL, cL := L.Sincos()
		return r*cB*cL - R0*cB0*cL0, r*cB*sL - R0*cB0*sL0, r*sB - R0*sB0, r
	}
	x, y, z, _ := vec(jde)
	x, y, z, r := vec(jde - base.LightTime(math.Sqrt(x*x+y*y+z*z)))

	return sighting{
		lon:    unit.Angle(math.Atan2(y, x)).Mod1(),
		lat:    unit.Angle(math.Atan2(z, math.Hypot(x, y))),
		sunLon: (L0 + math.Pi).Mod1(),
		delta:  math.Sqrt(x*x + y*y + z*z),
		r:      r,
		earthR: R0,
	}
}

// phaseAngle is the Sun-planet-Earth angle.
func (sg sighting) phaseAngle() unit.Angle {
	cosI := (sg.r*sg.r + sg.delta*sg.delta - sg.earthR*sg.earthR) / (2 * sg.r * sg.delta)
	return unit.Angle(math.Acos(math.Max(-1, math.Min(1, cosI))))
}

func (sg sighting) geometry(body Body, obs astro.Observer, t time.Time, ra unit.RA, dec unit.Angle) Geometry {
	i := sg.phaseAngle()
	return Geometry{
		Body:            body,
		Time:            t,
		Coord:           astro.HorizontalAt(raDeg(ra), dec.Deg(), obs, t),
		Magnitude:       planetMagnitude(body, sg.r, sg.delta, i),
		Illumination:    base.Illuminated(i),
		HasIllumination: true,
		Elongation:      astro.Elongation(sg.lon.Deg(), sg.sunLon.Deg()),
		HasElongation:   true,
		DistanceAU:      sg.delta,
	}
}

// equatorialOfDate converts mean ecliptic coordinates of date to apparent
// RA/Dec, applying nutation.
func equatorialOfDate(lon, lat unit.Angle, jde float64) (unit.RA, unit.Angle) {
	dPsi, dEps := nutation.Nutation(jde)
	sEps, cEps := (nutation.MeanObliquity(jde) + dEps).Sincos()
	return coord.EclToEq(lon+dPsi, lat, sEps, cEps)
}
