package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litescript/ls-nightsky/internal/report"
	"github.com/litescript/ls-nightsky/internal/state"
)

func TestSkyView_TooSmall(t *testing.T) {
	m := NewSkyViewModel().SetSize(10, 5)
	if got := m.View(); got != "Sky view requires larger terminal" {
		t.Errorf("View() = %q", got)
	}
}

func TestSkyView_Waiting(t *testing.T) {
	m := NewSkyViewModel().SetSize(72, 20)
	if got := m.View(); !strings.Contains(got, "Waiting for data") {
		t.Errorf("View() = %q, want waiting message", got)
	}
}

func TestSkyView_Glyphs(t *testing.T) {
	r := fixtureReport()
	m := NewSkyViewModel().SetSize(72, 20).UpdateData(state.Snapshot{Report: r})
	grid := m.renderGrid(report.Plot(report.Markers(*r), 72, 17))

	for _, want := range []string{
		string(glyphMoon),
		string(glyphPlanet),
		string(glyphStarBright), // Sirius
		string(glyphStar),       // Pollux
		string(glyphHorizon),
		"Ju", // planet label
	} {
		if !strings.Contains(grid, want) {
			t.Errorf("sky grid missing %q\n%s", want, grid)
		}
	}
	if out := m.View(); !strings.Contains(out, "2 stars | 1 planets") {
		t.Errorf("status line missing counts\n%s", out)
	}
}

func TestSkyView_ToggleLabels(t *testing.T) {
	m := NewSkyViewModel().SetSize(72, 20).UpdateData(state.Snapshot{Report: fixtureReport()})
	m = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})

	if !m.hideLabels {
		t.Fatal("t should hide labels")
	}
	if out := m.View(); strings.Contains(out, "Ju") {
		t.Errorf("labels still drawn with labels off\n%s", out)
	}
}

func TestCellRune(t *testing.T) {
	m := SkyViewModel{}
	tests := []struct {
		cell     report.Cell
		wantRune rune
	}{
		{report.Cell{Rune: '*', Kind: report.KindBrightStar}, glyphStarBright},
		{report.Cell{Rune: '+', Kind: report.KindStar}, glyphStar},
		{report.Cell{Rune: 'o', Kind: report.KindPlanet}, glyphPlanet},
		{report.Cell{Rune: '@', Kind: report.KindMoon}, glyphMoon},
		{report.Cell{Rune: 'N', Kind: report.KindCardinal}, 'N'},
		{report.Cell{Rune: 'V', Kind: report.KindLabel}, 'V'},
	}

	for _, tt := range tests {
		if got, _ := m.cellRune(tt.cell); got != tt.wantRune {
			t.Errorf("cellRune(%+v) = %q, want %q", tt.cell, got, tt.wantRune)
		}
	}
}
