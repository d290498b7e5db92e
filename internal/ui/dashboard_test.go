package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/litescript/ls-nightsky/internal/astro"
	"github.com/litescript/ls-nightsky/internal/conditions"
	"github.com/litescript/ls-nightsky/internal/ephem"
	"github.com/litescript/ls-nightsky/internal/state"
	"github.com/litescript/ls-nightsky/internal/tz"
)

var fixtureTime = time.Date(2024, 3, 10, 21, 0, 0, 0, time.UTC)

func fixtureReport() *conditions.Report {
	return &conditions.Report{
		Location: conditions.DefaultLocation,
		Time:     fixtureTime,
		Source:   "builtin",
		Conditions: conditions.ObservingConditions{
			Score:          72.5,
			Condition:      conditions.VeryGood,
			Recommendation: conditions.VeryGood.Recommendation(),
			MoonPhase:      conditions.WaxingCrescent,
			SunAltitude:    -30,
			Twilight:       conditions.AstronomicalNight,
			LightPollution: conditions.LightPollutionMedium,
		},
		Moon: conditions.MoonState{
			Phase:        conditions.WaxingCrescent,
			Illumination: 3.2,
			Altitude:     30,
			Azimuth:      180,
			Waxing:       true,
		},
		Planets: conditions.PlanetReport{
			Planets: []conditions.PlanetObservation{
				{Name: ephem.Jupiter, Magnitude: -2.1, DistanceAU: 5.2, Altitude: 40, Azimuth: 90},
			},
		},
		Stars: []conditions.StarObservation{
			{Star: astro.Star{Name: "Sirius", Constellation: "Canis Major", Mag: -1.46}, Altitude: 45, Azimuth: 200},
			{Star: astro.Star{Name: "Pollux", Constellation: "Gemini", Mag: 1.14}, Altitude: 60, Azimuth: 120},
		},
	}
}

func fixtureZone(t *testing.T) tz.Info {
	t.Helper()
	zone, err := tz.Describe("Asia/Bahrain", fixtureTime)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	return zone
}

func TestRenderScoreBar(t *testing.T) {
	tests := []struct {
		name       string
		score      float64
		width      int
		wantFilled int
	}{
		{"empty", 0, 10, 0},
		{"full", 100, 10, 10},
		{"half", 50, 10, 5},
		{"quarter", 25, 8, 2},
		{"over 100", 150, 10, 10},
		{"negative", -10, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := renderScoreBar(tt.score, tt.width)

			if !strings.HasPrefix(bar, "[") || !strings.HasSuffix(bar, "]") {
				t.Errorf("bar should have brackets, got %q", bar)
			}
			if got := strings.Count(bar, "█"); got != tt.wantFilled {
				t.Errorf("filled count = %d, want %d", got, tt.wantFilled)
			}
			if got := strings.Count(bar, "░"); got != tt.width-tt.wantFilled {
				t.Errorf("empty count = %d, want %d", got, tt.width-tt.wantFilled)
			}
		})
	}
}

func TestScoreColor(t *testing.T) {
	low, mid, high := scoreColor(0), scoreColor(50), scoreColor(100)
	for _, c := range []string{low, mid, high} {
		if len(c) != 7 || c[0] != '#' {
			t.Errorf("scoreColor returned %q, want #rrggbb", c)
		}
	}
	if low == high || low == mid || mid == high {
		t.Errorf("gradient stops not distinct: %s %s %s", low, mid, high)
	}
	if scoreColor(-20) != low {
		t.Errorf("scoreColor(-20) = %s, want clamped %s", scoreColor(-20), low)
	}
	if scoreColor(180) != high {
		t.Errorf("scoreColor(180) = %s, want clamped %s", scoreColor(180), high)
	}
}

func TestGradientAt(t *testing.T) {
	if got := gradientAt(titleStops, 0); got != titleStops[0] {
		t.Errorf("gradientAt(0) = %v, want first stop", got)
	}
	if got := gradientAt(titleStops, 1); got != titleStops[len(titleStops)-1] {
		t.Errorf("gradientAt(1) = %v, want last stop", got)
	}
}

func TestDashboardView(t *testing.T) {
	zone := fixtureZone(t)
	m := NewDashboardModel().SetSize(100, 30)

	if got := m.View(); !strings.Contains(got, "Waiting for data") {
		t.Errorf("empty dashboard = %q, want waiting message", got)
	}

	snap := state.Snapshot{
		Report: fixtureReport(),
		Events: []state.Event{
			{Type: state.EventPlanetRose, Timestamp: fixtureTime, Body: ephem.Jupiter},
		},
	}
	out := m.UpdateData(snap, zone).View()

	for _, want := range []string{
		"Bahrain",
		"Asia/Bahrain",
		"72.5/100 Very Good",
		"Waxing Crescent",
		"Jupiter",
		"Sirius, Pollux (2 visible)",
		"Jupiter rose above the horizon",
		"the Sun does not set and rise today",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dashboard missing %q\n%s", want, out)
		}
	}
}

func TestRenderPlanetsPanel(t *testing.T) {
	r := *fixtureReport()
	r.Planets.Planets = append(r.Planets.Planets, conditions.PlanetObservation{
		Name: ephem.Venus, Magnitude: -3.9, DistanceAU: 1.1, Altitude: 8, Azimuth: 250, Elongation: 15, Phase: 90,
	})
	out := renderPlanetsPanel(r)

	for _, want := range []string{
		"Altitude 40.0° (mid, E)",
		"Altitude 8.0° (low, W), close to the Sun",
		"azimuth 90.0° (E)",
		"azimuth 250.0° (W), elongation 15.0°, 90% lit",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("planets panel missing %q\n%s", want, out)
		}
	}
}
