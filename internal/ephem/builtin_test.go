package ephem

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/litescript/ls-nightsky/internal/astro"
)

var bahrain = astro.Observer{LatDeg: 26.0, LonDeg: 50.0, Name: "Bahrain"}

func TestBuiltinSource_Sun(t *testing.T) {
	src := NewBuiltinSource()

	// Local noon in Bahrain is around 08:40 UTC; midnight around 20:40 UTC.
	noon, err := src.Compute(context.Background(), Sun, bahrain, time.Date(2024, 6, 21, 8, 40, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Compute(Sun) error: %v", err)
	}
	if noon.Coord.ElDeg < 80 {
		t.Errorf("solstice noon altitude = %.2f, want > 80", noon.Coord.ElDeg)
	}
	if math.Abs(noon.DistanceAU-1.016) > 0.002 {
		t.Errorf("Sun distance = %.4f AU, want ~1.016", noon.DistanceAU)
	}
	if noon.HasIllumination || noon.HasElongation {
		t.Error("Sun geometry should carry no phase or elongation")
	}

	night, err := src.Compute(context.Background(), Sun, bahrain, time.Date(2024, 6, 21, 20, 40, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Compute(Sun) error: %v", err)
	}
	if night.Coord.ElDeg > -18 {
		t.Errorf("midnight altitude = %.2f, want below -18", night.Coord.ElDeg)
	}
}

func TestBuiltinSource_Moon(t *testing.T) {
	src := NewBuiltinSource()
	full := time.Date(2024, 1, 25, 17, 54, 0, 0, time.UTC)

	g, err := src.Compute(context.Background(), Moon, bahrain, full)
	if err != nil {
		t.Fatalf("Compute(Moon) error: %v", err)
	}
	if !g.HasIllumination || g.Illumination < 0.97 {
		t.Errorf("full moon illumination = %.3f (has=%v)", g.Illumination, g.HasIllumination)
	}
	if !g.HasElongation || math.Abs(g.Elongation-180) > 8 {
		t.Errorf("full moon elongation = %.2f", g.Elongation)
	}
	if g.DistanceAU < 0.0023 || g.DistanceAU > 0.0028 {
		t.Errorf("Moon distance = %.5f AU out of range", g.DistanceAU)
	}
	if g.Magnitude > -12 {
		t.Errorf("full moon magnitude = %.2f, want brighter than -12", g.Magnitude)
	}
}

func TestBuiltinSource_PlanetUnsupported(t *testing.T) {
	src := NewBuiltinSource()
	_, err := src.Compute(context.Background(), Jupiter, bahrain, time.Now())
	if !errors.Is(err, ErrUnsupportedBody) {
		t.Errorf("Compute(Jupiter) error = %v, want ErrUnsupportedBody", err)
	}
	_, _, err = src.NextEvent(context.Background(), Jupiter, bahrain, time.Now(), EventRise)
	if !errors.Is(err, ErrUnsupportedBody) {
		t.Errorf("NextEvent(Jupiter) error = %v, want ErrUnsupportedBody", err)
	}
}

func TestBuiltinSource_SunRiseSet(t *testing.T) {
	src := NewBuiltinSource()
	start := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

	// Equinox sunrise in Bahrain is about 02:40 UTC, sunset about 14:50 UTC.
	rise, ok, err := src.NextEvent(context.Background(), Sun, bahrain, start, EventRise)
	if err != nil || !ok {
		t.Fatalf("NextEvent(rise) = %v, %v, %v", rise, ok, err)
	}
	if rise.Hour() != 2 {
		t.Errorf("sunrise = %v, want around 02:40 UTC", rise)
	}

	set, ok, err := src.NextEvent(context.Background(), Sun, bahrain, start, EventSet)
	if err != nil || !ok {
		t.Fatalf("NextEvent(set) = %v, %v, %v", set, ok, err)
	}
	if set.Hour() != 14 {
		t.Errorf("sunset = %v, want around 14:50 UTC", set)
	}
}

func TestBuiltinSource_MidnightSun(t *testing.T) {
	src := NewBuiltinSource()
	svalbard := astro.Observer{LatDeg: 78.2, LonDeg: 15.6}
	start := time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC)

	_, ok, err := src.NextEvent(context.Background(), Sun, svalbard, start, EventSet)
	if err != nil {
		t.Fatalf("NextEvent() error: %v", err)
	}
	if ok {
		t.Error("the Sun should not set at 78°N on the June solstice")
	}
}

func TestBuiltinSource_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBuiltinSource().Compute(ctx, Sun, bahrain, time.Now())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Compute() with cancelled context error = %v", err)
	}
}
