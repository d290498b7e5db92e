package conditions

import (
	"sort"

	"github.com/litescript/ls-nightsky/internal/astro"
)

// DefaultMaxStarMagnitude is the faintest star listed by default.
const DefaultMaxStarMagnitude = 2.0

// FilterStars keeps the stars no fainter than maxMag that are strictly
// above the horizon, brightest first. Stars of equal magnitude keep their
// catalog order. The input slice is not modified.
func FilterStars(stars []astro.Star, altitudeOf func(astro.Star) float64, maxMag float64) []astro.Star {
	var out []astro.Star
	for _, s := range stars {
		if s.Mag > maxMag {
			continue
		}
		if !astro.AboveHorizon(altitudeOf(s)) {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Mag < out[j].Mag
	})
	return out
}

// RankPlanets keeps the planets strictly above the horizon, brightest first.
// The input slice is not modified.
func RankPlanets(planets []PlanetObservation) []PlanetObservation {
	var out []PlanetObservation
	for _, p := range planets {
		if astro.AboveHorizon(p.Altitude) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Magnitude < out[j].Magnitude
	})
	return out
}
