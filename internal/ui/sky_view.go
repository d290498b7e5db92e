package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-nightsky/internal/conditions"
	"github.com/litescript/ls-nightsky/internal/report"
	"github.com/litescript/ls-nightsky/internal/state"
)

const (
	// Glyphs by body class
	glyphStarBright = '✶' // brighter than mag 1
	glyphStar       = '·'
	glyphPlanet     = '●'
	glyphMoon       = '◯'
	glyphHorizon    = '─'

	// Colours by body class
	colorStarBright = "255" // bright white
	colorStar       = "244" // dim gray
	colorPlanet     = "#d0c8ff"
	colorMoon       = "229" // pale gold
	colorHorizon    = "60"  // muted purple
	colorCardinal   = "252"
	colorLabel      = "#9D4EDD"
)

var (
	kindGlyphs = map[report.Kind]rune{
		report.KindHorizon:    glyphHorizon,
		report.KindStar:       glyphStar,
		report.KindBrightStar: glyphStarBright,
		report.KindPlanet:     glyphPlanet,
		report.KindMoon:       glyphMoon,
	}

	kindColors = map[report.Kind]lipgloss.Color{
		report.KindEmpty:      "236",
		report.KindHorizon:    colorHorizon,
		report.KindCardinal:   colorCardinal,
		report.KindStar:       colorStar,
		report.KindBrightStar: colorStarBright,
		report.KindPlanet:     colorPlanet,
		report.KindMoon:       colorMoon,
		report.KindLabel:      colorLabel,
	}
)

// SkyViewModel renders the whole sky above the horizon with the report's
// stars, planets and Moon.
type SkyViewModel struct {
	width  int
	height int

	report     *conditions.Report
	hideLabels bool
}

// NewSkyViewModel creates a new sky view model.
func NewSkyViewModel() SkyViewModel {
	return SkyViewModel{}
}

// SetSize updates the viewport size.
func (m SkyViewModel) SetSize(width, height int) SkyViewModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData updates with new data snapshot.
func (m SkyViewModel) UpdateData(snapshot state.Snapshot) SkyViewModel {
	m.report = snapshot.Report
	return m
}

// Update handles key presses.
func (m SkyViewModel) Update(msg tea.KeyMsg) SkyViewModel {
	if msg.String() == "t" {
		m.hideLabels = !m.hideLabels
	}
	return m
}

// View renders the sky view.
func (m SkyViewModel) View() string {
	if m.width < 20 || m.height < 6 {
		return "Sky view requires larger terminal"
	}
	if m.report == nil {
		return dimStyle.Render("  Waiting for data...")
	}

	// Reserve lines for header and status
	grid := report.Plot(report.Markers(*m.report), m.width, m.height-3)

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderGrid(grid))
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	return b.String()
}

func (m SkyViewModel) renderHeader() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("135")).Render("Sky View")
	legend := fmt.Sprintf("%s Moon  %s planet  %s bright star  %s star",
		string(glyphMoon), string(glyphPlanet), string(glyphStarBright), string(glyphStar))
	labels := "Labels: on"
	if m.hideLabels {
		labels = "Labels: off"
	}
	return title + " | " + dimStyle.Render(legend) + " | " + dimStyle.Render(labels)
}

// renderGrid styles runs of same-class cells together.
func (m SkyViewModel) renderGrid(g report.Grid) string {
	var b strings.Builder
	for y, row := range g.Cells {
		var run []rune
		runKind := report.KindEmpty
		flush := func() {
			if len(run) > 0 {
				b.WriteString(lipgloss.NewStyle().Foreground(kindColors[runKind]).Render(string(run)))
				run = run[:0]
			}
		}
		for _, c := range row {
			r, kind := m.cellRune(c)
			if kind != runKind {
				flush()
				runKind = kind
			}
			run = append(run, r)
		}
		flush()
		if y < len(g.Cells)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (m SkyViewModel) cellRune(c report.Cell) (rune, report.Kind) {
	if c.Kind == report.KindLabel && m.hideLabels {
		return ' ', report.KindEmpty
	}
	if g, ok := kindGlyphs[c.Kind]; ok {
		return g, c.Kind
	}
	return c.Rune, c.Kind
}

func (m SkyViewModel) renderStatus() string {
	r := m.report
	moon := "Moon below horizon"
	if r.Moon.Altitude > 0 {
		moon = fmt.Sprintf("Moon Az:%.0f° El:%.0f° %s", r.Moon.Azimuth, r.Moon.Altitude, r.Moon.Phase)
	}
	line := fmt.Sprintf(">>> %s | %d stars | %d planets | %s",
		r.Location, len(r.Stars), len(r.Planets.Planets), moon)
	return lipgloss.NewStyle().Foreground(lipgloss.Color(colorMoon)).Render(line)
}

// Init returns nil cmd
func (m SkyViewModel) Init() tea.Cmd {
	return nil
}
