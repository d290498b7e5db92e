package astro

import (
	"math"
	"time"
)

// MeanMoonDistanceKm is the average Earth-Moon distance.
const MeanMoonDistanceKm = 384400.0

// MoonPosition is the geocentric position of the Moon.
type MoonPosition struct {
	RAdeg      float64
	DecDeg     float64
	LonDeg     float64 // ecliptic longitude
	LatDeg     float64 // ecliptic latitude
	DistanceKm float64
}

// MoonAt returns an approximate geocentric position of the Moon using the
// dominant periodic terms of the lunar theory. Good to a few tenths of a
// degree, enough for horizon and phase work but not for occultations.
func MoonAt(t time.Time) MoonPosition {
	d := daysSinceJ2000(t)

	// Fundamental arguments in degrees.
	Lprime := normalizeAngle360(218.3164477 + 13.17639648*d) // mean longitude
	M := normalizeAngle360(357.5291092 + 0.98560028*d)       // Sun mean anomaly
	Mm := normalizeAngle360(134.9633964 + 13.06499295*d)     // Moon mean anomaly
	D := normalizeAngle360(297.8501921 + 12.19074912*d)      // mean elongation
	F := normalizeAngle360(93.2720950 + 13.22935024*d)       // argument of latitude

	Mr := degToRad(M)
	Mmr := degToRad(Mm)
	Dr := degToRad(D)
	Fr := degToRad(F)

	lon := Lprime +
		6.289*math.Sin(Mmr) +
		1.274*math.Sin(2*Dr-Mmr) +
		0.658*math.Sin(2*Dr) +
		0.214*math.Sin(2*Mmr) -
		0.186*math.Sin(Mr) -
		0.114*math.Sin(2*Fr)

	lat := 5.128*math.Sin(Fr) +
		0.280*math.Sin(Mmr+Fr) +
		0.277*math.Sin(Mmr-Fr) +
		0.173*math.Sin(2*Dr-Fr)

	dist := 385000.56 -
		20905.0*math.Cos(Mmr) -
		3699.0*math.Cos(2*Dr-Mmr) -
		2956.0*math.Cos(2*Dr) -
		570.0*math.Cos(2*Mmr) -
		246.0*math.Cos(2*Dr+Mmr)

	eps := 23.439291 - 0.0000137*d
	ra, dec := EclipticToEquatorial(lon, lat, eps)

	return MoonPosition{
		RAdeg:      ra,
		DecDeg:     dec,
		LonDeg:     normalizeAngle360(lon),
		LatDeg:     lat,
		DistanceKm: dist,
	}
}

// MoonIllumination returns the illuminated fraction of the lunar disk (0-1)
// and the Moon's elongation east of the Sun in degrees [0, 360).
func MoonIllumination(t time.Time) (fraction, elongation float64) {
	moon := MoonAt(t)
	sunRA, sunDec := SunPosition(t)
	sunLon, _ := SunEcliptic(t)

	psi := AngularSeparation(sunRA, sunDec, moon.RAdeg, moon.DecDeg)
	fraction = (1 - math.Cos(degToRad(psi))) / 2

	return clamp(fraction, 0, 1), Elongation(moon.LonDeg, sunLon)
}

// MoonRiseAltitudeFor returns the altitude of the Moon's centre at rise or
// set. A nearer Moon has a larger disk, so its centre sits lower.
func MoonRiseAltitudeFor(distanceKm float64) float64 {
	if distanceKm <= 0 {
		return MoonRiseAltitude
	}
	frac := (distanceKm - MeanMoonDistanceKm) / MeanMoonDistanceKm
	return MoonRiseAltitude - 0.6*frac
}
