package astro

import (
	"math"
	"time"
)

// Standard altitudes of the centre of a body at the moment it rises or sets,
// including refraction and, for the Sun and Moon, semi-diameter. The Moon
// value applies to topocentric altitudes.
const (
	SunRiseAltitude    = -0.8333
	MoonRiseAltitude   = -0.8300
	PlanetRiseAltitude = -0.5667
)

// solarTerms holds the intermediate values of the low-precision solar series.
type solarTerms struct {
	apparentLon float64 // apparent ecliptic longitude, degrees
	obliquity   float64 // corrected obliquity, degrees
	distanceAU  float64
}

func computeSolarTerms(t time.Time) solarTerms {
	T := julianCenturies(t)

	// Mean longitude and mean anomaly (degrees)
	L0 := normalizeAngle360(280.46646 + 36000.76983*T + 0.0003032*T*T)
	M := normalizeAngle360(357.52911 + 35999.05029*T - 0.0001537*T*T)
	Mrad := degToRad(M)

	// Eccentricity of Earth's orbit
	e := 0.016708634 - 0.000042037*T - 0.0000001267*T*T

	// Equation of centre (degrees)
	C := (1.914602 - 0.004817*T - 0.000014*T*T) * math.Sin(Mrad)
	C += (0.019993 - 0.000101*T) * math.Sin(2*Mrad)
	C += 0.000289 * math.Sin(3*Mrad)

	trueLon := L0 + C
	trueAnomaly := degToRad(M + C)

	R := 1.000001018 * (1 - e*e) / (1 + e*math.Cos(trueAnomaly))

	// Aberration and nutation in longitude
	omega := 125.04 - 1934.136*T
	appLon := trueLon - 0.00569 - 0.00478*math.Sin(degToRad(omega))

	eps0 := 23.439291 - 0.0130042*T - 0.00000016*T*T + 0.000000504*T*T*T
	eps := eps0 + 0.00256*math.Cos(degToRad(omega))

	return solarTerms{
		apparentLon: normalizeAngle360(appLon),
		obliquity:   eps,
		distanceAU:  R,
	}
}

// SunPosition calculates the apparent equatorial coordinates of the Sun.
// Uses a simplified solar ephemeris based on the Astronomical Almanac.
// Accuracy: ~0.01 degrees, plenty for twilight classification.
func SunPosition(t time.Time) (raDeg, decDeg float64) {
	s := computeSolarTerms(t)
	return EclipticToEquatorial(s.apparentLon, 0, s.obliquity)
}

// SunEcliptic returns the Sun's apparent ecliptic longitude in degrees and
// its distance from the Earth in AU.
func SunEcliptic(t time.Time) (lonDeg, distanceAU float64) {
	s := computeSolarTerms(t)
	return s.apparentLon, s.distanceAU
}

// EclipticToEquatorial converts ecliptic longitude/latitude to RA/Dec for
// the given obliquity. All angles in degrees.
func EclipticToEquatorial(lonDeg, latDeg, obliquityDeg float64) (raDeg, decDeg float64) {
	lon := degToRad(lonDeg)
	lat := degToRad(latDeg)
	eps := degToRad(obliquityDeg)

	ra := math.Atan2(math.Sin(lon)*math.Cos(eps)-math.Tan(lat)*math.Sin(eps), math.Cos(lon))
	dec := math.Asin(clamp(math.Sin(lat)*math.Cos(eps)+math.Cos(lat)*math.Sin(eps)*math.Sin(lon), -1, 1))

	return normalizeAngle360(radToDeg(ra)), radToDeg(dec)
}

// Elongation returns how far east of the Sun a body lies, measured along
// the ecliptic, in [0, 360). Values below 180 mean the body trails the Sun
// across the sky (evening object, waxing Moon).
func Elongation(bodyLonDeg, sunLonDeg float64) float64 {
	return normalizeAngle360(bodyLonDeg - sunLonDeg)
}

// EastElongationFromRA is the equatorial counterpart of Elongation, used when
// only RA/Dec are known. The separation comes from the great circle and the
// side of the Sun from the sign of the RA difference.
func EastElongationFromRA(raDeg, decDeg, sunRADeg, sunDecDeg float64) float64 {
	sep := AngularSeparation(sunRADeg, sunDecDeg, raDeg, decDeg)
	if normalizeAngle360(raDeg-sunRADeg) < 180 {
		return sep
	}
	return normalizeAngle360(360 - sep)
}

// AngularSeparation calculates the angular separation between two points on the celestial sphere.
// All coordinates in degrees. Returns separation in degrees.
func AngularSeparation(ra1, dec1, ra2, dec2 float64) float64 {
	ra1Rad := degToRad(ra1)
	dec1Rad := degToRad(dec1)
	ra2Rad := degToRad(ra2)
	dec2Rad := degToRad(dec2)

	// Haversine formula
	dRA := ra2Rad - ra1Rad
	dDec := dec2Rad - dec1Rad

	a := math.Sin(dDec/2)*math.Sin(dDec/2) +
		math.Cos(dec1Rad)*math.Cos(dec2Rad)*math.Sin(dRA/2)*math.Sin(dRA/2)

	c := 2 * math.Asin(math.Sqrt(clamp(a, 0, 1)))

	return radToDeg(c)
}

// SunSeparationTier categorizes how close a planet sits to the Sun, which
// decides whether it can be picked out of the twilight glow.
type SunSeparationTier int

const (
	SunSepSafe    SunSeparationTier = iota // >= 20 degrees
	SunSepCaution                          // 10-20 degrees
	SunSepWarning                          // < 10 degrees
)

// GetSunSeparationTier returns the tier for a given separation angle.
func GetSunSeparationTier(sepDeg float64) SunSeparationTier {
	switch {
	case sepDeg < 10:
		return SunSepWarning
	case sepDeg < 20:
		return SunSepCaution
	default:
		return SunSepSafe
	}
}

// normalizeAngle360 normalizes an angle to 0-360 degrees.
func normalizeAngle360(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}
