// Package astro provides the sky math shared by every ephemeris source:
// frame conversions, low-precision Sun and Moon series, horizon crossing
// search and the bright-star catalog.
package astro

import (
	"math"
	"time"
)

// EarthRadiusKm is the equatorial radius used for parallax corrections.
const EarthRadiusKm = 6378.14

// KmPerAU converts kilometres to astronomical units.
const KmPerAU = 149597870.7

// SkyCoord represents celestial coordinates with both equatorial (RA/Dec)
// and horizontal (Az/El) components.
type SkyCoord struct {
	// Equatorial coordinates (apparent, of date)
	RAdeg  float64 // Right Ascension in degrees (0-360)
	DecDeg float64 // Declination in degrees (-90 to +90)

	// Horizontal coordinates (observer-relative)
	AzDeg float64 // Azimuth in degrees (0=N, 90=E, 180=S, 270=W)
	ElDeg float64 // Elevation/Altitude in degrees (0=horizon, 90=zenith)
}

// RAHours returns the right ascension in hours (0-24).
func (c SkyCoord) RAHours() float64 {
	return c.RAdeg / 15
}

// Observer represents a ground-based observer location.
type Observer struct {
	LatDeg float64 // Latitude in degrees (north positive)
	LonDeg float64 // Longitude in degrees (east positive)
	Name   string  // Optional name for the site
}

// EquatorialToHorizontal converts equatorial coordinates (RA/Dec) to horizontal
// coordinates (Az/El) for a given observer and time.
//
// The function preserves the input RA/Dec values and populates Az/El.
// Uses standard astronomical conventions:
//   - Azimuth: 0° = North, 90° = East, 180° = South, 270° = West
//   - Elevation: 0° = horizon, 90° = zenith
func EquatorialToHorizontal(eq SkyCoord, obs Observer, t time.Time) SkyCoord {
	lat := degToRad(obs.LatDeg)
	ra := degToRad(eq.RAdeg)
	dec := degToRad(eq.DecDeg)

	lstRad := degToRad(localSiderealTime(t, obs.LonDeg))

	// Hour Angle = LST - RA
	ha := lstRad - ra

	sinAlt := math.Sin(dec)*math.Sin(lat) + math.Cos(dec)*math.Cos(lat)*math.Cos(ha)
	alt := math.Asin(clamp(sinAlt, -1, 1))

	// At the poles every direction is south (or north); pick the hour
	// angle so azimuth stays continuous.
	var az float64
	if math.Abs(math.Cos(alt)*math.Cos(lat)) < 1e-12 {
		az = math.Pi + ha
	} else {
		cosAz := (math.Sin(dec) - math.Sin(alt)*math.Sin(lat)) / (math.Cos(alt) * math.Cos(lat))
		az = math.Acos(clamp(cosAz, -1, 1))

		// Positive hour angle means the body is west of the meridian.
		if math.Sin(ha) > 0 {
			az = 2*math.Pi - az
		}
	}

	return SkyCoord{
		RAdeg:  eq.RAdeg,
		DecDeg: eq.DecDeg,
		AzDeg:  normalizeAngle360(radToDeg(az)),
		ElDeg:  radToDeg(alt),
	}
}

// HorizontalAt builds a full SkyCoord from RA/Dec in degrees.
func HorizontalAt(raDeg, decDeg float64, obs Observer, t time.Time) SkyCoord {
	return EquatorialToHorizontal(SkyCoord{RAdeg: raDeg, DecDeg: decDeg}, obs, t)
}

// Topocentric shifts a geocentric RA/Dec to the observer's position on the
// Earth's surface. Only the Moon is close enough for this to matter.
// distanceKm is the geocentric distance of the body.
func Topocentric(raDeg, decDeg, distanceKm float64, obs Observer, t time.Time) (float64, float64) {
	if distanceKm <= EarthRadiusKm {
		return raDeg, decDeg
	}
	parallax := math.Asin(EarthRadiusKm / distanceKm)

	latRad := degToRad(obs.LatDeg)
	raRad := degToRad(raDeg)
	decRad := degToRad(decDeg)

	lstRad := degToRad(localSiderealTime(t, obs.LonDeg))
	ha := wrapPi(lstRad - raRad)

	// Sea-level observer on a slightly flattened Earth.
	rhoSinLat := 0.99664719 * math.Sin(latRad)
	rhoCosLat := math.Cos(latRad)

	sinPar := math.Sin(parallax)
	cosDec := math.Cos(decRad)

	dRA := math.Atan2(-rhoCosLat*sinPar*math.Sin(ha), cosDec-rhoCosLat*sinPar*math.Cos(ha))
	decTopo := math.Atan2(
		(math.Sin(decRad)-rhoSinLat*sinPar)*math.Cos(dRA),
		cosDec-rhoCosLat*sinPar*math.Cos(ha),
	)

	return normalizeAngle360(radToDeg(raRad + dRA)), radToDeg(decTopo)
}

// localSiderealTime calculates the Local Sidereal Time in degrees
// for a given UTC time and observer longitude.
func localSiderealTime(t time.Time, lonDeg float64) float64 {
	return normalizeAngle360(greenwichMeanSiderealTime(t) + lonDeg)
}

// greenwichMeanSiderealTime calculates GMST in degrees for a given UTC time.
// Uses the IAU 1982 formula based on Julian Date.
func greenwichMeanSiderealTime(t time.Time) float64 {
	jd := JulianDate(t)

	// Julian centuries since J2000.0
	T := (jd - 2451545.0) / 36525.0

	gmst := 280.46061837 +
		360.98564736629*(jd-2451545.0) +
		0.000387933*T*T -
		T*T*T/38710000.0

	return normalizeAngle360(gmst)
}

// JulianDate calculates the Julian Date for a given time.
func JulianDate(t time.Time) float64 {
	t = t.UTC()

	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day())

	h := float64(t.Hour())
	min := float64(t.Minute())
	sec := float64(t.Second())
	ns := float64(t.Nanosecond())

	dayFrac := (h + min/60 + sec/3600 + ns/3600e9) / 24.0

	// January/February count as months 13/14 of the previous year
	if m <= 2 {
		y--
		m += 12
	}

	// Gregorian calendar correction
	A := math.Floor(y / 100)
	B := 2 - A + math.Floor(A/4)

	return math.Floor(365.25*(y+4716)) +
		math.Floor(30.6001*(m+1)) +
		d + dayFrac + B - 1524.5
}

// daysSinceJ2000 returns fractional days from J2000.0.
func daysSinceJ2000(t time.Time) float64 {
	return JulianDate(t) - 2451545.0
}

// julianCenturies returns Julian centuries from J2000.0.
func julianCenturies(t time.Time) float64 {
	return daysSinceJ2000(t) / 36525.0
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func radToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// wrapPi folds an angle in radians into (-pi, pi].
func wrapPi(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
