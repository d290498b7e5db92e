// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-nightsky/internal/conditions"
	"github.com/litescript/ls-nightsky/internal/logging"
	"github.com/litescript/ls-nightsky/internal/metrics"
	"github.com/litescript/ls-nightsky/internal/state"
	"github.com/litescript/ls-nightsky/internal/tz"
	"github.com/litescript/ls-nightsky/internal/version"
)

// ViewMode represents the current UI view.
type ViewMode int

const (
	ViewOverview ViewMode = iota
	ViewMoon
	ViewPlanets
	ViewStars
	ViewConditions
	ViewSky
	viewCount
)

var viewNames = [...]string{
	ViewOverview:   "Overview",
	ViewMoon:       "Moon",
	ViewPlanets:    "Planets",
	ViewStars:      "Stars",
	ViewConditions: "Conditions",
	ViewSky:        "Sky",
}

func (v ViewMode) String() string {
	if v < 0 || v >= viewCount {
		return "Unknown"
	}
	return viewNames[v]
}

// queryTimeout bounds one background report. Horizons lookups for every
// planet dominate it.
const queryTimeout = 2 * time.Minute

// Msg types for Bubble Tea
type (
	// TickMsg triggers a periodic report refresh.
	TickMsg time.Time

	// AnimTickMsg triggers fast animation updates.
	AnimTickMsg time.Time

	// ReportMsg carries the result of a background report query. The
	// Generation is the engine generation the query ran under.
	ReportMsg struct {
		Generation uint64
		Report     *conditions.Report
		Zone       tz.Info
		Duration   time.Duration
		Err        error
	}
)

// Options wires the model to the rest of the application.
type Options struct {
	Engine       *conditions.Engine
	State        *state.Manager
	Zones        tz.Resolver
	MaxMagnitude float64
	// At pins every query to one instant. The zero time follows the clock.
	At      time.Time
	Metrics *metrics.Metrics
	Log     *logging.Logger
}

// Model is the root Bubble Tea model.
type Model struct {
	// Dependencies
	engine  *conditions.Engine
	state   *state.Manager
	zones   tz.Resolver
	maxMag  float64
	at      time.Time
	metrics *metrics.Metrics
	log     *logging.Logger

	// UI state
	viewMode ViewMode
	width    int
	height   int
	ready    bool
	animTick int
	pending  bool

	// Location editing
	editing  bool
	input    string
	inputErr error

	// Sub-models
	dashboard DashboardModel
	skyView   SkyViewModel

	// Data snapshot (updated on ReportMsg)
	snapshot state.Snapshot
	zone     tz.Info
}

// New creates a new root UI model.
func New(opts Options) Model {
	log := opts.Log
	if log == nil {
		log = logging.Discard()
	}
	zones := opts.Zones
	if zones == nil {
		zones = tz.Fixed(tz.UTC)
	}
	return Model{
		engine:    opts.Engine,
		state:     opts.State,
		zones:     zones,
		maxMag:    opts.MaxMagnitude,
		at:        opts.At,
		metrics:   opts.Metrics,
		log:       log,
		viewMode:  ViewOverview,
		dashboard: NewDashboardModel(),
		skyView:   NewSkyViewModel(),
		snapshot:  opts.State.Snapshot(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.refreshCmd(),
		tickCmd(m.state.RefreshInterval()),
		animTickCmd(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.updateLocationInput(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "1", "2", "3", "4", "5", "6":
			m.viewMode = ViewMode(msg.String()[0] - '1')
		case "tab":
			m.viewMode = (m.viewMode + 1) % viewCount
		case "shift+tab":
			m.viewMode = (m.viewMode + viewCount - 1) % viewCount
		case "l":
			m.editing = true
			m.input = ""
			m.inputErr = nil
		case "r":
			m.pending = true
			cmds = append(cmds, m.refreshCmd())
		default:
			if m.viewMode == ViewSky {
				m.skyView = m.skyView.Update(msg)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		// Title and tabs take 4 lines, footer 2-3
		contentHeight := msg.Height - 8
		m.dashboard = m.dashboard.SetSize(msg.Width, contentHeight)
		m.skyView = m.skyView.SetSize(msg.Width, contentHeight)

	case TickMsg:
		cmds = append(cmds, tickCmd(m.state.RefreshInterval()))
		if !m.pending {
			m.pending = true
			cmds = append(cmds, m.refreshCmd())
		}

	case AnimTickMsg:
		cmds = append(cmds, animTickCmd())
		m.animTick++

	case ReportMsg:
		m = m.applyReport(msg)
	}

	return m, tea.Batch(cmds...)
}

// applyReport records a finished query. Results computed for a location
// that has since changed are dropped.
func (m Model) applyReport(msg ReportMsg) Model {
	if msg.Generation != m.engine.Generation() {
		m.log.Debug("discarding report for generation %d (current %d)", msg.Generation, m.engine.Generation())
		return m
	}
	m.pending = false
	if msg.Err != nil {
		m.log.Warn("report failed: %v", msg.Err)
		m.state.Update(nil, msg.Duration, msg.Err)
	} else if m.state.Update(msg.Report, msg.Duration, nil) {
		m.zone = msg.Zone
	}
	m.snapshot = m.state.Snapshot()
	m.dashboard = m.dashboard.UpdateData(m.snapshot, m.zone)
	m.skyView = m.skyView.UpdateData(m.snapshot)
	return m
}

func (m Model) updateLocationInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.editing = false
		m.inputErr = nil
	case tea.KeyEnter:
		loc, err := conditions.ParseLocation(m.input)
		if err == nil {
			err = m.engine.SetLocation(loc.Latitude, loc.Longitude)
		}
		if err != nil {
			m.inputErr = err
			return m, nil
		}
		m.log.Info("location changed to %s", m.engine.Location())
		m.editing = false
		m.inputErr = nil
		m.pending = true
		return m, m.refreshCmd()
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	}
	return m, nil
}

// refreshCmd queries a snapshot of the engine off the UI goroutine. The
// engine itself is only touched here, on the UI goroutine.
func (m Model) refreshCmd() tea.Cmd {
	eng := m.engine.Snapshot()
	gen := eng.Generation()
	zones, maxMag, at, mets := m.zones, m.maxMag, m.at, m.metrics

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		defer cancel()

		start := time.Now()
		r, err := eng.Report(ctx, at, maxMag)
		msg := ReportMsg{Generation: gen, Duration: time.Since(start), Err: err}
		if mets != nil {
			mets.IncQuery("report", err)
		}
		if err != nil {
			return msg
		}
		if mets != nil {
			mets.ObserveReport(r)
		}
		loc := eng.Location()
		msg.Report = &r
		msg.Zone = tz.Lookup(zones, loc.Latitude, loc.Longitude, r.Time)
		return msg
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var content string
	r := m.snapshot.Report
	switch {
	case r == nil && m.viewMode != ViewOverview:
		content = dimStyle.Render("  Waiting for data...")
	case m.viewMode == ViewOverview:
		content = m.dashboard.View()
	case m.viewMode == ViewMoon:
		content = renderMoonPanel(*r, m.zone)
	case m.viewMode == ViewPlanets:
		content = renderPlanetsPanel(*r)
	case m.viewMode == ViewStars:
		content = renderStarsPanel(*r, m.height-10)
	case m.viewMode == ViewConditions:
		content = renderConditionsPanel(*r, m.zone, m.state.ScoreTrend())
	case m.viewMode == ViewSky:
		content = m.skyView.View()
	}

	return m.renderHeader() + "\n" + content + "\n" + m.renderFooter()
}

func (m Model) renderHeader() string {
	var b strings.Builder
	b.WriteString("\n  ")
	b.WriteString(renderGradientText("✦ L S · N I G H T S K Y ✦"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("   v%s · %s", version.Version, m.engine.SourceName())))
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderTabs() string {
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)

	var parts []string
	for i := ViewMode(0); i < viewCount; i++ {
		tab := fmt.Sprintf("[%d] %s", i+1, i)
		if i == m.viewMode {
			parts = append(parts, activeStyle.Render("▶ "+tab))
		} else {
			parts = append(parts, dimStyle.Render("  "+tab))
		}
	}
	return "  " + strings.Join(parts, "  ")
}

func (m Model) renderFooter() string {
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))

	spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spinner := spinnerFrames[m.animTick%len(spinnerFrames)]

	var status string
	switch {
	case m.snapshot.LastError != nil:
		status = errorStyle.Render("ERROR: " + m.snapshot.LastError.Error())
	case m.snapshot.Report != nil:
		status = dimStyle.Render(fmt.Sprintf("updated %s (%s)",
			m.snapshot.LastUpdate.Format("15:04:05"),
			m.snapshot.QueryDuration.Round(time.Millisecond)))
		if m.pending {
			status = accentStyle.Render(spinner) + " " + status
		}
	default:
		status = accentStyle.Render(spinner) + " " + dimStyle.Render("Computing sky...")
	}

	help := dimStyle.Render("1-6/tab: view | l: location | r: refresh | q: quit")
	if m.viewMode == ViewSky {
		help = dimStyle.Render("t: labels | l: location | r: refresh | q: quit")
	}
	footer := "  " + status + "  " + dimStyle.Render("|") + "  " + help

	if m.editing {
		prompt := accentStyle.Render("Location (lat, lon): ") + m.input + "█"
		footer += "\n  " + prompt + dimStyle.Render("  enter: apply | esc: cancel")
		if m.inputErr != nil {
			footer += "\n  " + errorStyle.Render(m.inputErr.Error())
		}
	}
	return footer
}

// ViewMode returns the active view.
func (m Model) ViewMode() ViewMode { return m.viewMode }

// Editing reports whether the location prompt is open.
func (m Model) Editing() bool { return m.editing }

func tickCmd(interval time.Duration) tea.Cmd {
	if interval <= 0 {
		interval = time.Minute
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func animTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return AnimTickMsg(t)
	})
}
