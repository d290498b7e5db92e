package astro

import (
	"math"
	"testing"
	"time"
)

func TestJulianDate(t *testing.T) {
	tests := []struct {
		name     string
		time     time.Time
		expected float64
		tol      float64
	}{
		{
			name:     "J2000 epoch",
			time:     time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
			expected: 2451545.0,
			tol:      0.0001,
		},
		{
			name:     "Unix epoch",
			time:     time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
			expected: 2440587.5,
			tol:      0.0001,
		},
		{
			name:     "2024-01-01 00:00 UTC",
			time:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			expected: 2460310.5,
			tol:      0.0001,
		},
		{
			name:     "non-UTC input is converted",
			time:     time.Date(2000, 1, 1, 15, 0, 0, 0, time.FixedZone("AST", 3*3600)),
			expected: 2451545.0,
			tol:      0.0001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := JulianDate(tt.time)
			if math.Abs(got-tt.expected) > tt.tol {
				t.Errorf("JulianDate() = %v, want %v (±%v)", got, tt.expected, tt.tol)
			}
		})
	}
}

func TestGreenwichMeanSiderealTime(t *testing.T) {
	t2000 := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	gmst := greenwichMeanSiderealTime(t2000)

	if math.Abs(gmst-280.46) > 0.1 {
		t.Errorf("GMST at J2000 = %v, want ~280.46", gmst)
	}
	if gmst < 0 || gmst >= 360 {
		t.Errorf("GMST out of range: %v", gmst)
	}
}

func TestLocalSiderealTime(t *testing.T) {
	testTime := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	gmst := greenwichMeanSiderealTime(testTime)
	lst0 := localSiderealTime(testTime, 0)
	if math.Abs(lst0-gmst) > 0.001 {
		t.Errorf("LST at lon=0 should equal GMST: got %v, want %v", lst0, gmst)
	}

	lst90 := localSiderealTime(testTime, 90)
	expected90 := math.Mod(gmst+90, 360)
	if math.Abs(lst90-expected90) > 0.001 {
		t.Errorf("LST at lon=90 = %v, want %v", lst90, expected90)
	}

	for lon := -180.0; lon <= 180; lon += 30 {
		lst := localSiderealTime(testTime, lon)
		if lst < 0 || lst >= 360 {
			t.Errorf("LST at lon=%v out of range: %v", lon, lst)
		}
	}
}

func TestEquatorialToHorizontal_Polaris(t *testing.T) {
	polaris := SkyCoord{RAdeg: 37.95, DecDeg: 89.26}
	observer := Observer{LatDeg: 26.0, LonDeg: 50.0}

	testTime := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	result := EquatorialToHorizontal(polaris, observer, testTime)

	if math.Abs(result.ElDeg-observer.LatDeg) > 1.5 {
		t.Errorf("Polaris elevation = %v°, expected ~%v° (latitude)", result.ElDeg, observer.LatDeg)
	}
	if result.RAdeg != polaris.RAdeg || result.DecDeg != polaris.DecDeg {
		t.Error("RA/Dec should be preserved after transformation")
	}
}

func TestEquatorialToHorizontal_ZenithStar(t *testing.T) {
	observer := Observer{LatDeg: 35.0, LonDeg: -117.0}
	testTime := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	lst := localSiderealTime(testTime, observer.LonDeg)

	result := HorizontalAt(lst, observer.LatDeg, observer, testTime)
	if math.Abs(result.ElDeg-90) > 1 {
		t.Errorf("zenith star elevation = %v°, expected ~90°", result.ElDeg)
	}
}

func TestEquatorialToHorizontal_SouthernStarFromNorthPole(t *testing.T) {
	observer := Observer{LatDeg: 89.9, LonDeg: 0}
	testTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Canopus never rises near the north pole.
	result := HorizontalAt(95.988, -52.696, observer, testTime)
	if result.ElDeg > 0 {
		t.Errorf("Canopus elevation from the pole = %v°, want below horizon", result.ElDeg)
	}
}

func TestEquatorialToHorizontal_AzimuthRange(t *testing.T) {
	observer := Observer{LatDeg: 40.7128, LonDeg: -74.0060}
	testTime := time.Date(2024, 3, 20, 3, 0, 0, 0, time.UTC)

	for ra := 0.0; ra < 360; ra += 15 {
		for dec := -80.0; dec <= 80; dec += 20 {
			c := HorizontalAt(ra, dec, observer, testTime)
			if c.AzDeg < 0 || c.AzDeg >= 360 {
				t.Fatalf("azimuth out of range for ra=%v dec=%v: %v", ra, dec, c.AzDeg)
			}
			if c.ElDeg < -90 || c.ElDeg > 90 {
				t.Fatalf("elevation out of range for ra=%v dec=%v: %v", ra, dec, c.ElDeg)
			}
		}
	}
}

func TestSkyCoordRAHours(t *testing.T) {
	c := SkyCoord{RAdeg: 101.2875}
	if got := c.RAHours(); math.Abs(got-6.7525) > 1e-9 {
		t.Errorf("RAHours() = %v, want 6.7525", got)
	}
}

func TestTopocentric(t *testing.T) {
	testTime := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	observer := Observer{LatDeg: 40.0, LonDeg: 0}

	// Body on the meridian: parallax only lowers the declination.
	lst := localSiderealTime(testTime, observer.LonDeg)
	ra, dec := Topocentric(lst, 10, 384400, observer, testTime)
	if math.Abs(ra-lst) > 0.01 {
		t.Errorf("topocentric RA = %v, want ~%v", ra, lst)
	}
	if dec >= 10 || dec < 9 {
		t.Errorf("topocentric Dec = %v, want slightly below 10", dec)
	}

	// Distant bodies are unaffected.
	ra, dec = Topocentric(lst, 10, 1e12, observer, testTime)
	if math.Abs(ra-lst) > 1e-6 || math.Abs(dec-10) > 1e-6 {
		t.Errorf("distant body moved: ra=%v dec=%v", ra, dec)
	}
}

func TestDegRadRoundTrip(t *testing.T) {
	for _, deg := range []float64{0, 45, 90, 180, 270, 360, -90} {
		if got := radToDeg(degToRad(deg)); math.Abs(got-deg) > 1e-9 {
			t.Errorf("radToDeg(degToRad(%v)) = %v", deg, got)
		}
	}
}
