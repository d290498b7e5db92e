package conditions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// MaxTimelineSamples caps the number of samples Timeline computes.
const MaxTimelineSamples = 500

// DefaultTimelineStep is the sampling step of TonightTimeline.
const DefaultTimelineStep = 30 * time.Minute

// polarFallbackWindow is the window sampled when the Sun neither sets nor
// rises.
const polarFallbackWindow = 12 * time.Hour

// Night is the span between sunset and the following sunrise. Both times
// are zero during polar day or polar night.
type Night struct {
	Sunset  time.Time `json:"sunset,omitzero"`
	Sunrise time.Time `json:"sunrise,omitzero"`
}

// Defined reports whether the Sun sets and rises.
func (n Night) Defined() bool {
	return !n.Sunset.IsZero() && !n.Sunrise.IsZero()
}

// Duration returns the length of the night, zero if undefined.
func (n Night) Duration() time.Duration {
	if !n.Defined() {
		return 0
	}
	return n.Sunrise.Sub(n.Sunset)
}

// Contains reports whether t falls within the night.
func (n Night) Contains(t time.Time) bool {
	return n.Defined() && !t.Before(n.Sunset) && t.Before(n.Sunrise)
}

// Tonight returns the night containing t, or the next one if t is during
// the day. The zero time means now.
func (e *Engine) Tonight(t time.Time) Night {
	t = e.resolveTime(t)
	lat, lon := e.loc.Latitude, e.loc.Longitude

	// Calendar day at the observer's mean solar time.
	local := t.Add(time.Duration(lon / 15 * float64(time.Hour)))
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

	sunTimes := func(d time.Time) (rise, set time.Time) {
		return sunrise.SunriseSunset(lat, lon, d.Year(), d.Month(), d.Day())
	}

	riseToday, setToday := sunTimes(day)
	if !riseToday.IsZero() && t.Before(riseToday) {
		_, setYesterday := sunTimes(day.AddDate(0, 0, -1))
		if !setYesterday.IsZero() {
			return Night{Sunset: setYesterday, Sunrise: riseToday}
		}
	}

	riseTomorrow, _ := sunTimes(day.AddDate(0, 0, 1))
	if setToday.IsZero() || riseTomorrow.IsZero() {
		return Night{}
	}
	return Night{Sunset: setToday, Sunrise: riseTomorrow}
}

// TimelineSample is the observing score at one instant.
type TimelineSample struct {
	Time         time.Time `json:"time"`
	Score        float64   `json:"score"`
	Condition    Condition `json:"condition"`
	Twilight     Twilight  `json:"twilight"`
	SunAltitude  float64   `json:"sun_altitude"`
	MoonAltitude float64   `json:"moon_altitude"`
}

// ErrInvalidWindow is returned by Timeline for an empty or oversized window.
var ErrInvalidWindow = errors.New("invalid timeline window")

// Timeline scores the sky every step from start to end inclusive.
func (e *Engine) Timeline(ctx context.Context, start, end time.Time, step time.Duration) ([]TimelineSample, error) {
	if step <= 0 {
		return nil, fmt.Errorf("%w: step %v", ErrInvalidWindow, step)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end %v not after start %v", ErrInvalidWindow, end, start)
	}
	n := int(end.Sub(start)/step) + 1
	if n > MaxTimelineSamples {
		return nil, fmt.Errorf("%w: %d samples exceeds %d", ErrInvalidWindow, n, MaxTimelineSamples)
	}

	samples := make([]TimelineSample, 0, n)
	for ts := start.UTC(); !ts.After(end); ts = ts.Add(step) {
		c, err := e.ObservingConditions(ctx, ts)
		if err != nil {
			return nil, err
		}
		samples = append(samples, TimelineSample{
			Time:         c.Time,
			Score:        c.Score,
			Condition:    c.Condition,
			Twilight:     c.Twilight,
			SunAltitude:  c.SunAltitude,
			MoonAltitude: c.MoonAltitude,
		})
	}
	return samples, nil
}

// TonightTimeline samples Tonight(t). Without a sunset, the next twelve
// hours from t are sampled instead.
func (e *Engine) TonightTimeline(ctx context.Context, t time.Time, step time.Duration) (Night, []TimelineSample, error) {
	t = e.resolveTime(t)
	if step <= 0 {
		step = DefaultTimelineStep
	}

	night := e.Tonight(t)
	start, end := night.Sunset, night.Sunrise
	if !night.Defined() {
		start, end = t, t.Add(polarFallbackWindow)
	}

	samples, err := e.Timeline(ctx, start, end, step)
	return night, samples, err
}

// Best returns the highest-scoring sample, the earliest on ties.
func Best(samples []TimelineSample) (TimelineSample, bool) {
	if len(samples) == 0 {
		return TimelineSample{}, false
	}
	best := samples[0]
	for _, s := range samples[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	return best, true
}
