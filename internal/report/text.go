// Package report renders engine results for terminals and files: the text
// report, the JSON export, the ASCII sky chart and the timeline chart.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/litescript/ls-nightsky/internal/astro"
	"github.com/litescript/ls-nightsky/internal/conditions"
	"github.com/litescript/ls-nightsky/internal/tz"
)

const (
	reportWidth  = 60
	sectionWidth = 30

	// ReportStarLimit is how many stars the full report lists.
	ReportStarLimit = 5
)

func rule(w io.Writer, ch string, n int) {
	fmt.Fprintln(w, strings.Repeat(ch, n))
}

func section(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	rule(w, "-", sectionWidth)
}

// FormatClock formats an optional time in the zone, "-" when zero.
func FormatClock(t time.Time, zone tz.Info) string {
	if t.IsZero() {
		return "-"
	}
	return zone.Local(t).Format("2006-01-02 15:04 MST")
}

// WriteReport writes the full stargazing report.
func WriteReport(w io.Writer, r conditions.Report, zone tz.Info) {
	rule(w, "=", reportWidth)
	fmt.Fprintln(w, "STARGAZING REPORT")
	rule(w, "=", reportWidth)
	fmt.Fprintf(w, "Location: %s\n", r.Location)
	fmt.Fprintf(w, "Timezone: %s (%s)\n", zone.Name, zone.UTCOffset)
	fmt.Fprintf(w, "Local Time: %s\n", zone.LocalTime)
	fmt.Fprintf(w, "UTC Time: %s\n", zone.UTCTime)
	fmt.Fprintf(w, "Ephemeris: %s\n", r.Source)
	fmt.Fprintln(w)

	WriteConditions(w, r.Conditions)
	fmt.Fprintln(w)

	WriteMoon(w, r.Moon, zone)
	fmt.Fprintln(w)

	WritePlanets(w, r.Planets)
	fmt.Fprintln(w)

	if len(r.Stars) > 0 {
		WriteStars(w, r.Stars, ReportStarLimit)
		fmt.Fprintln(w)
	}

	WriteNight(w, r.Night, zone)
	fmt.Fprintln(w)

	rule(w, "=", reportWidth)
	fmt.Fprintln(w, "Happy stargazing!")
	rule(w, "=", reportWidth)
}

// WriteConditions writes the observing conditions section.
func WriteConditions(w io.Writer, c conditions.ObservingConditions) {
	section(w, "OBSERVING CONDITIONS")
	fmt.Fprintf(w, "Overall Score: %.1f/100\n", c.Score)
	fmt.Fprintf(w, "Conditions: %s\n", c.Description)
	fmt.Fprintf(w, "Moon Phase: %s (%.1f%% illuminated)\n", c.MoonPhase, c.MoonIllumination)
	fmt.Fprintf(w, "Moon Altitude: %.1f°\n", c.MoonAltitude)
	fmt.Fprintf(w, "Sun Altitude: %.1f° (%s)\n", c.SunAltitude, c.Twilight)
	fmt.Fprintf(w, "Light Pollution: %s\n", c.LightPollution)
	fmt.Fprintf(w, "Recommendation: %s\n", c.Recommendation)
}

// WriteMoon writes the moon section. Rise and set lines are omitted when
// the Moon has no such event in the search window.
func WriteMoon(w io.Writer, m conditions.MoonState, zone tz.Info) {
	section(w, "MOON INFORMATION")
	fmt.Fprintf(w, "Phase: %s\n", m.Phase)
	fmt.Fprintf(w, "Illumination: %.1f%%\n", m.Illumination)
	fmt.Fprintf(w, "Altitude: %.1f°\n", m.Altitude)
	fmt.Fprintf(w, "Azimuth: %.1f°\n", m.Azimuth)
	fmt.Fprintf(w, "Distance: %.0f km\n", m.DistanceAU*astro.KmPerAU)
	if !m.NextRise.IsZero() {
		fmt.Fprintf(w, "Next Rise: %s\n", FormatClock(m.NextRise, zone))
	}
	if !m.NextSet.IsZero() {
		fmt.Fprintf(w, "Next Set: %s\n", FormatClock(m.NextSet, zone))
	}
}

// WritePlanets writes the visible planets and any planets that failed.
func WritePlanets(w io.Writer, p conditions.PlanetReport) {
	section(w, "VISIBLE PLANETS")
	if len(p.Planets) == 0 {
		fmt.Fprintln(w, "No planets currently visible above horizon")
	}
	for _, pl := range p.Planets {
		fmt.Fprintf(w, "%s: Magnitude %.1f, Distance %.2f AU, Altitude %.1f° (%s, %s)",
			pl.Name, pl.Magnitude, pl.DistanceAU, pl.Altitude,
			astro.GetElevationTier(pl.Altitude), astro.CompassPoint(pl.Azimuth))
		if note := sunGlare(pl.Elongation); note != "" {
			fmt.Fprintf(w, ", %s", note)
		}
		fmt.Fprintln(w)
	}
	for _, warn := range p.Warnings {
		fmt.Fprintf(w, "(skipped %s: %v)\n", warn.Body, warn.Err)
	}
}

// sunGlare notes a planet too close to the Sun to pick out easily. An
// elongation of 0 means the source did not supply one.
func sunGlare(elongation float64) string {
	if elongation == 0 {
		return ""
	}
	switch astro.GetSunSeparationTier(math.Min(elongation, 360-elongation)) {
	case astro.SunSepWarning:
		return "lost in the Sun's glare"
	case astro.SunSepCaution:
		return "close to the Sun"
	default:
		return ""
	}
}

// WriteStars writes up to limit stars; limit <= 0 writes all. When the
// list is cut short the total is shown in the title.
func WriteStars(w io.Writer, stars []conditions.StarObservation, limit int) {
	title := "BRIGHTEST VISIBLE STARS"
	if limit > 0 && len(stars) > limit {
		title = fmt.Sprintf("BRIGHTEST VISIBLE STARS (%d of %d)", limit, len(stars))
		stars = stars[:limit]
	}
	section(w, title)
	if len(stars) == 0 {
		fmt.Fprintln(w, "No bright stars currently visible")
	}
	for _, s := range stars {
		fmt.Fprintf(w, "%s (%s): Magnitude %.2f\n", s.Name, s.Constellation, s.Mag)
	}
}

// WriteNight writes tonight's sunset and sunrise.
func WriteNight(w io.Writer, n conditions.Night, zone tz.Info) {
	section(w, "TONIGHT")
	if !n.Defined() {
		fmt.Fprintln(w, "The Sun does not set and rise today")
		return
	}
	d := n.Duration().Round(time.Minute)
	fmt.Fprintf(w, "Sunset: %s\n", FormatClock(n.Sunset, zone))
	fmt.Fprintf(w, "Sunrise: %s\n", FormatClock(n.Sunrise, zone))
	fmt.Fprintf(w, "Night Length: %dh%02dm\n", int(d.Hours()), int(d.Minutes())%60)
}

// WriteTimeline writes one line per sample with a bar proportional to the
// score, marking the best sample.
func WriteTimeline(w io.Writer, night conditions.Night, samples []conditions.TimelineSample, zone tz.Info) {
	section(w, "TONIGHT'S TIMELINE")
	if night.Defined() {
		fmt.Fprintf(w, "Sunset %s, Sunrise %s\n", FormatClock(night.Sunset, zone), FormatClock(night.Sunrise, zone))
	}
	if len(samples) == 0 {
		fmt.Fprintln(w, "No samples")
		return
	}

	best, _ := conditions.Best(samples)
	for _, s := range samples {
		marker := " "
		if s.Time.Equal(best.Time) {
			marker = "*"
		}
		bar := strings.Repeat("#", int(s.Score/5))
		fmt.Fprintf(w, "%s %s %5.1f %-10s %-20s %s\n",
			marker, zone.Local(s.Time).Format("15:04"), s.Score, s.Condition, s.Twilight, bar)
	}
	fmt.Fprintf(w, "\nBest: %s (%.1f, %s)\n", FormatClock(best.Time, zone), best.Score, best.Condition)
}
