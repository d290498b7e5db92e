package astro

import (
	"math"
	"testing"
	"time"
)

func TestSunPosition(t *testing.T) {
	tests := []struct {
		name       string
		time       time.Time
		wantRAMin  float64
		wantRAMax  float64
		wantDecMin float64
		wantDecMax float64
	}{
		{
			name:       "March equinox 2024",
			time:       time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC),
			wantRAMin:  359,
			wantRAMax:  2,
			wantDecMin: -1,
			wantDecMax: 1,
		},
		{
			name:       "June solstice 2024",
			time:       time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC),
			wantRAMin:  88,
			wantRAMax:  92,
			wantDecMin: 23,
			wantDecMax: 24,
		},
		{
			name:       "September equinox 2024",
			time:       time.Date(2024, 9, 22, 12, 0, 0, 0, time.UTC),
			wantRAMin:  178,
			wantRAMax:  182,
			wantDecMin: -1,
			wantDecMax: 1,
		},
		{
			name:       "December solstice 2024",
			time:       time.Date(2024, 12, 21, 12, 0, 0, 0, time.UTC),
			wantRAMin:  268,
			wantRAMax:  272,
			wantDecMin: -24,
			wantDecMax: -23,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotRA, gotDec := SunPosition(tt.time)

			var raOK bool
			if tt.wantRAMin > tt.wantRAMax {
				raOK = gotRA >= tt.wantRAMin || gotRA <= tt.wantRAMax
			} else {
				raOK = gotRA >= tt.wantRAMin && gotRA <= tt.wantRAMax
			}
			if !raOK {
				t.Errorf("SunPosition() RA = %.2f°, want between %.2f° and %.2f°",
					gotRA, tt.wantRAMin, tt.wantRAMax)
			}
			if gotDec < tt.wantDecMin || gotDec > tt.wantDecMax {
				t.Errorf("SunPosition() Dec = %.2f°, want between %.2f° and %.2f°",
					gotDec, tt.wantDecMin, tt.wantDecMax)
			}
		})
	}
}

func TestSunEcliptic(t *testing.T) {
	tests := []struct {
		name    string
		time    time.Time
		wantLon float64
		wantR   float64
	}{
		{"near perihelion", time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), 282.4, 0.9833},
		{"near aphelion", time.Date(2024, 7, 5, 0, 0, 0, 0, time.UTC), 103.2, 1.0167},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lon, r := SunEcliptic(tt.time)
			if math.Abs(lon-tt.wantLon) > 1.0 {
				t.Errorf("SunEcliptic() lon = %.2f, want ~%.2f", lon, tt.wantLon)
			}
			if math.Abs(r-tt.wantR) > 0.001 {
				t.Errorf("SunEcliptic() R = %.4f, want ~%.4f", r, tt.wantR)
			}
		})
	}
}

func TestEclipticToEquatorial(t *testing.T) {
	const eps = 23.44
	tests := []struct {
		name            string
		lon, lat        float64
		wantRA, wantDec float64
	}{
		{"vernal point", 0, 0, 0, 0},
		{"summer solstice point", 90, 0, 90, eps},
		{"autumn point", 180, 0, 180, 0},
		{"ecliptic north pole", 0, 90, 270, 90 - eps},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ra, dec := EclipticToEquatorial(tt.lon, tt.lat, eps)
			if math.Abs(ra-tt.wantRA) > 0.01 && math.Abs(ra-tt.wantRA) < 359.99 {
				t.Errorf("RA = %.3f, want %.3f", ra, tt.wantRA)
			}
			if math.Abs(dec-tt.wantDec) > 0.01 {
				t.Errorf("Dec = %.3f, want %.3f", dec, tt.wantDec)
			}
		})
	}
}

func TestElongation(t *testing.T) {
	tests := []struct {
		body, sun float64
		want      float64
	}{
		{100, 10, 90},
		{10, 100, 270},
		{5, 355, 10},
		{180, 0, 180},
		{42, 42, 0},
	}

	for _, tt := range tests {
		got := Elongation(tt.body, tt.sun)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Elongation(%v, %v) = %v, want %v", tt.body, tt.sun, got, tt.want)
		}
	}
}

func TestEastElongationFromRA(t *testing.T) {
	east := EastElongationFromRA(40, 0, 0, 0)
	if math.Abs(east-40) > 0.001 {
		t.Errorf("body east of the Sun: got %v, want 40", east)
	}
	west := EastElongationFromRA(320, 0, 0, 0)
	if math.Abs(west-320) > 0.001 {
		t.Errorf("body west of the Sun: got %v, want 320", west)
	}
}

func TestAngularSeparation(t *testing.T) {
	tests := []struct {
		name      string
		ra1, dec1 float64
		ra2, dec2 float64
		wantSep   float64
		tol       float64
	}{
		{"same point", 100, 30, 100, 30, 0, 0.001},
		{"quarter of the equator", 0, 0, 90, 0, 90, 0.001},
		{"opposite on the equator", 0, 0, 180, 0, 180, 0.001},
		{"pole to equator", 0, 90, 0, 0, 90, 0.001},
		{"pole to pole", 0, 90, 0, -90, 180, 0.001},
		{"one degree of RA at dec 30", 100, 30, 101, 30, 0.866, 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AngularSeparation(tt.ra1, tt.dec1, tt.ra2, tt.dec2)
			if math.Abs(got-tt.wantSep) > tt.tol {
				t.Errorf("AngularSeparation() = %.4f°, want %.4f° (±%.4f)", got, tt.wantSep, tt.tol)
			}
		})
	}
}

func TestGetSunSeparationTier(t *testing.T) {
	tests := []struct {
		sepDeg float64
		want   SunSeparationTier
	}{
		{5, SunSepWarning},
		{9.9, SunSepWarning},
		{10, SunSepCaution},
		{19.9, SunSepCaution},
		{20, SunSepSafe},
		{180, SunSepSafe},
	}

	for _, tt := range tests {
		if got := GetSunSeparationTier(tt.sepDeg); got != tt.want {
			t.Errorf("GetSunSeparationTier(%.1f) = %v, want %v", tt.sepDeg, got, tt.want)
		}
	}
}
