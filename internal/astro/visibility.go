package astro

import (
	"math"
	"time"
)

// Horizon is the altitude a body must exceed to count as visible.
// The test is strict: a body exactly on the horizon is not visible.
const Horizon = 0.0

// AboveHorizon reports whether an altitude is strictly above the horizon.
func AboveHorizon(elDeg float64) bool {
	return elDeg > Horizon
}

// AltitudeFunc returns a topocentric altitude in degrees at time t.
type AltitudeFunc func(t time.Time) float64

// Crossing is the direction of a horizon crossing.
type Crossing int

const (
	CrossingUp   Crossing = iota // rise
	CrossingDown                 // set
)

// Default search parameters for FindCrossing.
const (
	DefaultCrossingSteps = 54
	DefaultCrossingTol   = 30 * time.Second
)

// FindCrossing searches [start, end] for the first time f crosses target in
// the given direction. It brackets the event by sampling at steps evenly
// spaced points and then bisects down to tol. ok is false when no crossing
// of that direction happens inside the window.
func FindCrossing(f AltitudeFunc, start, end time.Time, target float64, dir Crossing, steps int, tol time.Duration) (time.Time, bool) {
	if !start.Before(end) {
		return time.Time{}, false
	}
	if steps < 2 {
		steps = 2
	}
	interval := end.Sub(start) / time.Duration(steps-1)

	prevT := start
	prevAlt := f(prevT) - target
	for i := 1; i < steps; i++ {
		t := start.Add(time.Duration(i) * interval)
		if i == steps-1 {
			t = end
		}
		alt := f(t) - target
		if hasCrossing(prevAlt, alt, dir) {
			return bisectCrossing(f, prevT, t, prevAlt, target, dir, tol), true
		}
		prevT, prevAlt = t, alt
	}
	return time.Time{}, false
}

func hasCrossing(a1, a2 float64, dir Crossing) bool {
	if dir == CrossingUp {
		return a1 < 0 && a2 >= 0
	}
	return a1 > 0 && a2 <= 0
}

func bisectCrossing(f AltitudeFunc, a, b time.Time, altA, target float64, dir Crossing, tol time.Duration) time.Time {
	for b.Sub(a) > tol {
		mid := a.Add(b.Sub(a) / 2)
		altM := f(mid) - target
		if hasCrossing(altA, altM, dir) {
			b = mid
		} else {
			a, altA = mid, altM
		}
	}
	return a.Add(b.Sub(a) / 2).UTC()
}

// ElevationSample is a tabulated altitude, as returned by remote ephemeris
// services that sample a body's track at fixed steps.
type ElevationSample struct {
	Time  time.Time
	ElDeg float64
}

// CrossingFromSamples finds the first crossing of target in the given
// direction within chronologically ordered samples, interpolating linearly
// between the bracketing pair.
func CrossingFromSamples(samples []ElevationSample, target float64, dir Crossing) (time.Time, bool) {
	for i := 1; i < len(samples); i++ {
		prev, curr := samples[i-1], samples[i]
		if hasCrossing(prev.ElDeg-target, curr.ElDeg-target, dir) {
			return interpolateCrossing(prev.Time, curr.Time, prev.ElDeg, curr.ElDeg, target).UTC(), true
		}
	}
	return time.Time{}, false
}

// interpolateCrossing finds the time when elevation crosses a threshold.
func interpolateCrossing(t1, t2 time.Time, el1, el2, threshold float64) time.Time {
	if math.Abs(el2-el1) < 0.0001 {
		return t1
	}

	fraction := clamp((threshold-el1)/(el2-el1), 0, 1)

	dt := t2.Sub(t1)
	return t1.Add(time.Duration(float64(dt) * fraction))
}

// ElevationTier categorizes elevation for display.
type ElevationTier int

const (
	ElevationNone   ElevationTier = iota // Below horizon
	ElevationLow                         // 0-15 degrees
	ElevationMedium                      // 15-45 degrees
	ElevationHigh                        // 45+ degrees
)

// String returns a short label for the tier.
func (t ElevationTier) String() string {
	switch t {
	case ElevationLow:
		return "low"
	case ElevationMedium:
		return "mid"
	case ElevationHigh:
		return "high"
	default:
		return "down"
	}
}

// GetElevationTier returns the tier for a given elevation.
func GetElevationTier(elDeg float64) ElevationTier {
	switch {
	case elDeg <= 0:
		return ElevationNone
	case elDeg < 15:
		return ElevationLow
	case elDeg < 45:
		return ElevationMedium
	default:
		return ElevationHigh
	}
}

// CompassPoint returns the 8-wind compass label for an azimuth.
func CompassPoint(azDeg float64) string {
	points := [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}
	idx := int(math.Floor(normalizeAngle360(azDeg)/45+0.5)) % len(points)
	return points[idx]
}
