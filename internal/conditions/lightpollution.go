package conditions

import (
	"fmt"
	"math"
	"strings"
)

// LightPollution is a coarse sky-brightness tier.
type LightPollution int

const (
	LightPollutionUnknown LightPollution = iota
	LightPollutionVeryLow
	LightPollutionLow
	LightPollutionMedium
	LightPollutionHigh
	LightPollutionVeryHigh
)

// String returns the tier name.
func (lp LightPollution) String() string {
	switch lp {
	case LightPollutionVeryLow:
		return "Very Low"
	case LightPollutionLow:
		return "Low"
	case LightPollutionMedium:
		return "Medium"
	case LightPollutionHigh:
		return "High"
	case LightPollutionVeryHigh:
		return "Very High"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (lp LightPollution) MarshalText() ([]byte, error) {
	return []byte(lp.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (lp *LightPollution) UnmarshalText(b []byte) error {
	v, err := ParseLightPollution(string(b))
	if err != nil {
		return err
	}
	*lp = v
	return nil
}

// ParseLightPollution parses a tier name. Case, spaces, dashes and
// underscores are ignored, so "very_high" and "Very High" are equal.
func ParseLightPollution(s string) (LightPollution, error) {
	key := strings.ToLower(s)
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	switch key {
	case "verylow":
		return LightPollutionVeryLow, nil
	case "low":
		return LightPollutionLow, nil
	case "medium":
		return LightPollutionMedium, nil
	case "high":
		return LightPollutionHigh, nil
	case "veryhigh":
		return LightPollutionVeryHigh, nil
	case "unknown", "":
		return LightPollutionUnknown, nil
	}
	return LightPollutionUnknown, fmt.Errorf("unknown light pollution tier %q", s)
}

// Penalty returns the score penalty for the tier.
func (lp LightPollution) Penalty() float64 {
	switch lp {
	case LightPollutionVeryLow:
		return 0
	case LightPollutionLow:
		return 5
	case LightPollutionMedium:
		return 15
	case LightPollutionHigh:
		return 30
	case LightPollutionVeryHigh:
		return 45
	default:
		return 20
	}
}

// Site is a known location with a fixed tier.
type Site struct {
	Name      string         `json:"name"`
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Tier      LightPollution `json:"tier"`
}

// DefaultSites lists the major cities with a known tier.
var DefaultSites = []Site{
	{Name: "Bahrain", Latitude: 26.0, Longitude: 50.0, Tier: LightPollutionMedium},
	{Name: "New York", Latitude: 40.7128, Longitude: -74.0060, Tier: LightPollutionVeryHigh},
	{Name: "Los Angeles", Latitude: 34.0522, Longitude: -118.2437, Tier: LightPollutionVeryHigh},
	{Name: "Chicago", Latitude: 41.8781, Longitude: -87.6298, Tier: LightPollutionVeryHigh},
	{Name: "Houston", Latitude: 29.7604, Longitude: -95.3698, Tier: LightPollutionHigh},
	{Name: "Phoenix", Latitude: 33.4484, Longitude: -112.0740, Tier: LightPollutionHigh},
	{Name: "Denver", Latitude: 39.7392, Longitude: -104.9903, Tier: LightPollutionHigh},
	{Name: "Seattle", Latitude: 47.6062, Longitude: -122.3321, Tier: LightPollutionHigh},
	{Name: "Miami", Latitude: 25.7617, Longitude: -80.1918, Tier: LightPollutionHigh},
}

// Default estimator thresholds.
const (
	DefaultMatchRadiusDeg   = 0.5
	DefaultTropicalLatitude = 30.0
	DefaultPolarLatitude    = 60.0
)

// Estimator guesses light pollution from a site table, falling back to
// latitude bands. The thresholds are heuristics, not measured data.
type Estimator struct {
	Sites            []Site
	MatchRadiusDeg   float64
	TropicalLatitude float64
	PolarLatitude    float64
}

// DefaultEstimator returns an estimator over DefaultSites.
func DefaultEstimator() *Estimator {
	sites := make([]Site, len(DefaultSites))
	copy(sites, DefaultSites)
	return &Estimator{
		Sites:            sites,
		MatchRadiusDeg:   DefaultMatchRadiusDeg,
		TropicalLatitude: DefaultTropicalLatitude,
		PolarLatitude:    DefaultPolarLatitude,
	}
}

// Estimate returns the tier of the first site within MatchRadiusDeg on both
// axes, or the latitude band: below TropicalLatitude Medium, below
// PolarLatitude Low, otherwise Very Low.
func (e *Estimator) Estimate(loc Location) LightPollution {
	if site, ok := e.Match(loc); ok {
		return site.Tier
	}

	lat := math.Abs(loc.Latitude)
	switch {
	case lat < e.TropicalLatitude:
		return LightPollutionMedium
	case lat < e.PolarLatitude:
		return LightPollutionLow
	default:
		return LightPollutionVeryLow
	}
}

// Match returns the first site within the match radius of loc.
func (e *Estimator) Match(loc Location) (Site, bool) {
	for _, s := range e.Sites {
		if math.Abs(loc.Latitude-s.Latitude) < e.MatchRadiusDeg &&
			math.Abs(loc.Longitude-s.Longitude) < e.MatchRadiusDeg {
			return s, true
		}
	}
	return Site{}, false
}
