package ui

import (
	"fmt"
	"strings"

	"github.com/litescript/ls-nightsky/internal/astro"
	"github.com/litescript/ls-nightsky/internal/conditions"
	"github.com/litescript/ls-nightsky/internal/report"
	"github.com/litescript/ls-nightsky/internal/tz"
)

// stylePanel renders plain report text with titled sections: the line
// above each dashed rule becomes a title and the rule is dropped.
func stylePanel(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	var b strings.Builder
	for i, line := range lines {
		if strings.HasPrefix(line, "---") {
			continue
		}
		if i+1 < len(lines) && strings.HasPrefix(lines[i+1], "---") {
			b.WriteString(titleStyle.Render("  " + line))
		} else if k, v, ok := strings.Cut(line, ": "); ok && !strings.HasPrefix(line, "(") {
			b.WriteString("  " + labelStyle.Render(k+":") + " " + rowStyle.Render(v))
		} else {
			b.WriteString("  " + rowStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderMoonPanel(r conditions.Report, zone tz.Info) string {
	var b strings.Builder
	report.WriteMoon(&b, r.Moon, zone)
	fmt.Fprintf(&b, "Elongation: %.1f° (%s)\n", r.Moon.Elongation, waxingLabel(r.Moon.Waxing))
	return stylePanel(b.String())
}

func waxingLabel(waxing bool) string {
	if waxing {
		return "waxing"
	}
	return "waning"
}

func renderPlanetsPanel(r conditions.Report) string {
	var b strings.Builder
	report.WritePlanets(&b, r.Planets)
	for _, p := range r.Planets.Planets {
		fmt.Fprintf(&b, "%s position: azimuth %.1f° (%s)", p.Name, p.Azimuth, astro.CompassPoint(p.Azimuth))
		if p.Elongation != 0 || p.Phase != 0 {
			fmt.Fprintf(&b, ", elongation %.1f°, %.0f%% lit", p.Elongation, p.Phase)
		}
		b.WriteString("\n")
	}
	text := stylePanel(b.String())
	for _, w := range r.Planets.Warnings {
		text = strings.Replace(text, rowStyle.Render(fmt.Sprintf("(skipped %s: %v)", w.Body, w.Err)),
			errorStyle.Render(fmt.Sprintf("(skipped %s: %v)", w.Body, w.Err)), 1)
	}
	return text
}

// renderStarsPanel lists as many stars as fit in maxRows.
func renderStarsPanel(r conditions.Report, maxRows int) string {
	if maxRows < 5 {
		maxRows = 5
	}
	var b strings.Builder
	report.WriteStars(&b, r.Stars, maxRows)
	return stylePanel(b.String())
}

func renderConditionsPanel(r conditions.Report, zone tz.Info, trend float64) string {
	var b strings.Builder
	report.WriteConditions(&b, r.Conditions)
	p := r.Conditions.Penalties
	fmt.Fprintf(&b, "Penalties: moon %.1f + %.1f, light %.1f, twilight %.1f\n",
		p.MoonBrightness, p.MoonAltitude, p.LightPollution, p.Twilight)
	if trend != 0 {
		fmt.Fprintf(&b, "Trend: %+.1f points/hour\n", trend)
	}
	b.WriteString("\n")
	report.WriteNight(&b, r.Night, zone)
	return stylePanel(b.String())
}
