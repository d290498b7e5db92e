package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/litescript/ls-nightsky/internal/report"
	"github.com/litescript/ls-nightsky/internal/state"
	"github.com/litescript/ls-nightsky/internal/tz"
)

// Styles shared by every view
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("60"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// Score gradient stops, poor to excellent.
var (
	scoreLow  = colorful.Color{R: 0.80, G: 0.26, B: 0.26}
	scoreMid  = colorful.Color{R: 0.86, G: 0.65, B: 0.13}
	scoreHigh = colorful.Color{R: 0.18, G: 0.72, B: 0.45}
)

// Title gradient stops: blue, purple, pink.
var titleStops = []colorful.Color{
	{R: 0.23, G: 0.51, B: 0.96},
	{R: 0.55, G: 0.36, B: 0.96},
	{R: 0.93, G: 0.28, B: 0.60},
}

const recentEventCount = 5

// DashboardModel is the overview tab: the headline numbers of the latest
// report and the recent sky events.
type DashboardModel struct {
	width    int
	height   int
	snapshot state.Snapshot
	zone     tz.Info
}

// NewDashboardModel creates a new dashboard model.
func NewDashboardModel() DashboardModel {
	return DashboardModel{}
}

// SetSize updates the viewport size.
func (m DashboardModel) SetSize(width, height int) DashboardModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData updates the model with new data.
func (m DashboardModel) UpdateData(snapshot state.Snapshot, zone tz.Info) DashboardModel {
	m.snapshot = snapshot
	m.zone = zone
	return m
}

// View renders the dashboard.
func (m DashboardModel) View() string {
	r := m.snapshot.Report
	if r == nil {
		if m.snapshot.LastError != nil {
			return errorStyle.Render("  Error: " + m.snapshot.LastError.Error())
		}
		return dimStyle.Render("  Waiting for data...")
	}

	var b strings.Builder
	field := func(label, value string) {
		fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render(fmt.Sprintf("%-16s", label+":")), rowStyle.Render(value))
	}

	b.WriteString(titleStyle.Render("  Tonight's Sky"))
	b.WriteString("\n")
	field("Location", r.Location.String())
	field("Timezone", fmt.Sprintf("%s (UTC%s)", m.zone.Name, m.zone.UTCOffset))
	field("Local Time", m.zone.LocalTime)
	b.WriteString("\n")

	c := r.Conditions
	fmt.Fprintf(&b, "  %s %s %s\n",
		labelStyle.Render(fmt.Sprintf("%-16s", "Score:")),
		renderScoreBar(c.Score, 20),
		lipgloss.NewStyle().Foreground(lipgloss.Color(scoreColor(c.Score))).Bold(true).
			Render(fmt.Sprintf("%.1f/100 %s", c.Score, c.Condition)))
	field("Recommendation", c.Recommendation)
	field("Moon", fmt.Sprintf("%s, %.1f%% illuminated, altitude %.1f°", r.Moon.Phase, r.Moon.Illumination, r.Moon.Altitude))
	field("Sky", fmt.Sprintf("Sun %.1f° (%s), light pollution %s", c.SunAltitude, c.Twilight, c.LightPollution))

	planets := make([]string, len(r.Planets.Planets))
	for i, p := range r.Planets.Planets {
		planets[i] = string(p.Name)
	}
	if len(planets) == 0 {
		field("Planets", "none above the horizon")
	} else {
		field("Planets", strings.Join(planets, ", "))
	}

	stars := make([]string, 0, report.ReportStarLimit)
	for i, s := range r.Stars {
		if i == report.ReportStarLimit {
			break
		}
		stars = append(stars, s.Name)
	}
	field("Brightest Stars", fmt.Sprintf("%s (%d visible)", strings.Join(stars, ", "), len(r.Stars)))

	if r.Night.Defined() {
		field("Night", fmt.Sprintf("%s to %s", report.FormatClock(r.Night.Sunset, m.zone), report.FormatClock(r.Night.Sunrise, m.zone)))
	} else {
		field("Night", "the Sun does not set and rise today")
	}

	b.WriteString("\n")
	b.WriteString(m.renderEvents())
	return b.String()
}

func (m DashboardModel) renderEvents() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("  Recent Events"))
	b.WriteString("\n")

	events := m.snapshot.Events
	if len(events) == 0 {
		b.WriteString(dimStyle.Render("  No changes yet"))
		b.WriteString("\n")
		return b.String()
	}
	if len(events) > recentEventCount {
		events = events[len(events)-recentEventCount:]
	}
	for i := len(events) - 1; i >= 0; i-- {
		b.WriteString("  ")
		b.WriteString(dimStyle.Render(report.FormatClock(events[i].Timestamp, m.zone)))
		b.WriteString(" ")
		b.WriteString(rowStyle.Render(events[i].String()))
		b.WriteString("\n")
	}
	return b.String()
}

// scoreColor returns a hex colour for a 0-100 score on a red, amber,
// green gradient.
func scoreColor(score float64) string {
	t := math.Max(0, math.Min(100, score)) / 100
	var c colorful.Color
	if t < 0.5 {
		c = scoreLow.BlendLab(scoreMid, t*2)
	} else {
		c = scoreMid.BlendLab(scoreHigh, (t-0.5)*2)
	}
	return c.Clamped().Hex()
}

func renderScoreBar(score float64, width int) string {
	filled := int(score / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	style := lipgloss.NewStyle().Foreground(lipgloss.Color(scoreColor(score)))
	return "[" + style.Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", width-filled)) + "]"
}

// renderGradientText colours text along the title gradient.
func renderGradientText(text string) string {
	runes := []rune(text)
	var b strings.Builder
	for i, r := range runes {
		c := gradientAt(titleStops, float64(i)/float64(max(len(runes)-1, 1)))
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Render(string(r)))
	}
	return b.String()
}

// gradientAt samples evenly spaced stops at t in [0, 1].
func gradientAt(stops []colorful.Color, t float64) colorful.Color {
	if len(stops) == 1 || t <= 0 {
		return stops[0]
	}
	if t >= 1 {
		return stops[len(stops)-1]
	}
	seg := t * float64(len(stops)-1)
	i := int(seg)
	return stops[i].BlendLab(stops[i+1], seg-float64(i)).Clamped()
}
