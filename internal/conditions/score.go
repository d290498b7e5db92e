package conditions

import (
	"errors"
	"fmt"
	"math"
)

// ErrNonFiniteInput is returned when a score input is NaN or infinite.
var ErrNonFiniteInput = errors.New("non-finite score input")

// Condition is the label attached to an observing score.
type Condition int

const (
	VeryPoor Condition = iota
	Poor
	Fair
	Good
	VeryGood
	Excellent
)

type conditionText struct {
	name, description, recommendation string
}

var conditionTexts = [...]conditionText{
	VeryPoor: {"Very Poor", "Very Poor - Heavy interference, not recommended",
		"Only lunar observation and very bright planets visible"},
	Poor: {"Poor", "Poor - Significant interference",
		"Only bright planets and lunar observation recommended"},
	Fair: {"Fair", "Fair - Moderate interference from light/moon",
		"Best for planets, bright stars, and lunar observation"},
	Good: {"Good", "Good - Decent conditions with some interference",
		"Good for planets, bright star clusters, and double stars"},
	VeryGood: {"Very Good", "Very Good - Good visibility with minor interference",
		"Great for deep sky objects and faint star clusters"},
	Excellent: {"Excellent", "Excellent - Dark sky, minimal interference",
		"Perfect for deep sky objects, galaxies, and nebulae"},
}

func (c Condition) text() conditionText {
	if c < 0 || int(c) >= len(conditionTexts) {
		return conditionText{"Unknown", "Unknown", ""}
	}
	return conditionTexts[c]
}

// String returns the short label, e.g. "Very Good".
func (c Condition) String() string { return c.text().name }

// Description returns the long label, e.g. "Excellent - Dark sky, minimal
// interference".
func (c Condition) Description() string { return c.text().description }

// Recommendation returns what the sky is good for.
func (c Condition) Recommendation() string { return c.text().recommendation }

// MarshalText implements encoding.TextMarshaler.
func (c Condition) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ClassifyScore labels a 0-100 score.
func ClassifyScore(score float64) Condition {
	switch {
	case score >= 80:
		return Excellent
	case score >= 65:
		return VeryGood
	case score >= 50:
		return Good
	case score >= 35:
		return Fair
	case score >= 20:
		return Poor
	default:
		return VeryPoor
	}
}

// Twilight is the sky state set by the Sun's altitude.
type Twilight int

const (
	AstronomicalNight Twilight = iota // Sun below -18°
	NauticalTwilight                  // [-18°, -12°)
	CivilTwilight                     // [-12°, -6°)
	BrightTwilight                    // [-6°, 0°)
	Daylight                          // 0° and above
)

// String returns the band name.
func (tw Twilight) String() string {
	switch tw {
	case AstronomicalNight:
		return "astronomical night"
	case NauticalTwilight:
		return "nautical twilight"
	case CivilTwilight:
		return "civil twilight"
	case BrightTwilight:
		return "bright twilight"
	case Daylight:
		return "daylight"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (tw Twilight) MarshalText() ([]byte, error) {
	return []byte(tw.String()), nil
}

// TwilightBand classifies the Sun's altitude in degrees.
func TwilightBand(sunAltDeg float64) Twilight {
	switch {
	case sunAltDeg < -18:
		return AstronomicalNight
	case sunAltDeg < -12:
		return NauticalTwilight
	case sunAltDeg < -6:
		return CivilTwilight
	case sunAltDeg < 0:
		return BrightTwilight
	default:
		return Daylight
	}
}

// Penalty returns the score penalty for the band.
func (tw Twilight) Penalty() float64 {
	switch tw {
	case AstronomicalNight:
		return 0
	case NauticalTwilight:
		return 5
	case CivilTwilight:
		return 15
	case BrightTwilight:
		return 25
	default:
		return 50
	}
}

// ScoreInput is everything the observing score depends on.
type ScoreInput struct {
	MoonIllumination float64 // percent, 0-100
	MoonAltitude     float64 // degrees
	LightPollution   LightPollution
	SunAltitude      float64 // degrees
}

// Penalties breaks a score down into the points each factor removed.
type Penalties struct {
	MoonBrightness float64 `json:"moon_brightness"`
	MoonAltitude   float64 `json:"moon_altitude"`
	LightPollution float64 `json:"light_pollution"`
	Twilight       float64 `json:"twilight"`
}

// Total sums the penalties.
func (p Penalties) Total() float64 {
	return p.MoonBrightness + p.MoonAltitude + p.LightPollution + p.Twilight
}

// Score is a computed observing score.
type Score struct {
	Value          float64   `json:"value"`
	Condition      Condition `json:"condition"`
	Twilight       Twilight  `json:"twilight"`
	Recommendation string    `json:"recommendation"`
	Penalties      Penalties `json:"penalties"`
}

// ComputeScore subtracts the moon, light pollution and twilight penalties
// from 100, floors the result at 0 and rounds it to one decimal. The label
// is taken from the rounded value.
func ComputeScore(in ScoreInput) (Score, error) {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"moon illumination", in.MoonIllumination},
		{"moon altitude", in.MoonAltitude},
		{"sun altitude", in.SunAltitude},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return Score{}, fmt.Errorf("%w: %s is %v", ErrNonFiniteInput, f.name, f.v)
		}
	}

	tw := TwilightBand(in.SunAltitude)
	p := Penalties{
		MoonBrightness: in.MoonIllumination / 100 * 50,
		LightPollution: in.LightPollution.Penalty(),
		Twilight:       tw.Penalty(),
	}
	if in.MoonAltitude >= 0 {
		p.MoonAltitude = in.MoonAltitude / 90 * 20
	}

	value := round1(math.Min(100, math.Max(0, 100-p.Total())))
	c := ClassifyScore(value)
	return Score{
		Value:          value,
		Condition:      c,
		Twilight:       tw,
		Recommendation: c.Recommendation(),
		Penalties:      p,
	}, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
