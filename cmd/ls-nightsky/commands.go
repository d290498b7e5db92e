package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/litescript/ls-nightsky/internal/api"
	"github.com/litescript/ls-nightsky/internal/conditions"
	"github.com/litescript/ls-nightsky/internal/report"
	"github.com/litescript/ls-nightsky/internal/state"
	"github.com/litescript/ls-nightsky/internal/ui"
	"github.com/litescript/ls-nightsky/internal/version"
)

const (
	skyChartWidth  = 61
	skyChartHeight = 15

	minWatch = 10 * time.Second
)

type tuiCommand struct {
	command
}

func (cmd *tuiCommand) Execute([]string) error {
	a, err := cmd.cli.setup(true)
	if err != nil {
		return err
	}
	defer a.Close()

	stateCfg := state.DefaultConfig()
	stateCfg.RefreshInterval = a.cfg.Refresh.Std()
	model := ui.New(ui.Options{
		Engine:       a.engine,
		State:        state.NewManager(stateCfg),
		Zones:        a.zones,
		MaxMagnitude: a.cfg.Stars.MaxMagnitude,
		At:           a.at,
		Metrics:      a.metrics,
		Log:          a.log,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}

type reportCommand struct {
	command
	JSON     bool          `long:"json" description:"Write the report as JSON"`
	Output   string        `short:"o" long:"output" description:"Write JSON to FILE instead of stdout" value-name:"FILE"`
	Timeline bool          `long:"timeline" description:"Include tonight's timeline in the JSON"`
	Sky      bool          `long:"sky" description:"Append an ASCII sky chart"`
	Watch    time.Duration `long:"watch" description:"Repeat every interval and list sky changes (e.g. 5m)" value-name:"INTERVAL"`
}

func (cmd *reportCommand) Execute([]string) error {
	a, err := cmd.cli.setup(false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if cmd.Watch <= 0 {
		_, err := cmd.once(ctx, a, a.now())
		return err
	}
	return cmd.watch(ctx, a)
}

func (cmd *reportCommand) once(ctx context.Context, a *app, t time.Time) (conditions.Report, error) {
	out := cmd.cli.stdout
	r, err := a.engine.Report(ctx, t, a.cfg.Stars.MaxMagnitude)
	if err != nil {
		return r, err
	}
	for _, w := range r.Planets.Warnings {
		a.log.Warn("planet skipped: %v", w)
	}
	zone := a.zone(r.Time)

	if cmd.JSON {
		exp := report.NewExport(r, zone, time.Now())
		if cmd.Timeline {
			_, samples, err := a.engine.TonightTimeline(ctx, r.Time, conditions.DefaultTimelineStep)
			if err != nil {
				return r, err
			}
			exp.WithTimeline(samples)
		}
		return r, writeExport(exp, cmd.Output, out)
	}

	report.WriteReport(out, r, zone)
	if cmd.Sky {
		fmt.Fprintln(out)
		report.WriteSkyChart(out, r, skyChartWidth, skyChartHeight)
	}
	return r, nil
}

func writeExport(exp *report.Export, path string, stdout io.Writer) error {
	if path == "" || path == "-" {
		if err := exp.WriteJSON(stdout); err != nil {
			return fmt.Errorf("write JSON to stdout: %w", err)
		}
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()
	if err := exp.WriteJSON(f); err != nil {
		return fmt.Errorf("write JSON to file: %w", err)
	}
	return nil
}

// watch repeats the report at the interval and prints the sky changes
// between consecutive reports. Failed reports are logged and retried on the
// next tick.
func (cmd *reportCommand) watch(ctx context.Context, a *app) error {
	interval := cmd.Watch
	if interval < minWatch {
		interval = minWatch
	}
	stateCfg := state.DefaultConfig()
	stateCfg.RefreshInterval = interval
	mgr := state.NewManager(stateCfg)

	tick := func() {
		start := time.Now()
		r, err := cmd.once(ctx, a, time.Now())
		if err != nil {
			mgr.Update(nil, time.Since(start), err)
			fmt.Fprintf(cmd.cli.stderr, "Error: %v\n", err)
			return
		}
		mgr.Update(&r, time.Since(start), nil)
		writeEvents(cmd.cli.stdout, mgr.Snapshot().Events, r.Time)
	}

	tick()
	ticker := time.NewTicker(mgr.RefreshInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fmt.Fprintln(cmd.cli.stdout)
			tick()
		}
	}
}

// writeEvents prints the events raised by the report at t.
func writeEvents(w io.Writer, events []state.Event, t time.Time) {
	var changed []state.Event
	for _, e := range events {
		if e.Timestamp.Equal(t) {
			changed = append(changed, e)
		}
	}
	if len(changed) == 0 {
		return
	}
	fmt.Fprintln(w, "\nSKY CHANGES")
	for _, e := range changed {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

type moonCommand struct {
	command
}

func (cmd *moonCommand) Execute([]string) error {
	a, err := cmd.cli.setup(false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()
	m, err := a.engine.MoonState(ctx, a.now())
	if err != nil {
		return err
	}
	report.WriteMoon(cmd.cli.stdout, m, a.zone(m.Time))
	return nil
}

type planetsCommand struct {
	command
}

func (cmd *planetsCommand) Execute([]string) error {
	a, err := cmd.cli.setup(false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()
	p, err := a.engine.VisiblePlanets(ctx, a.now())
	if err != nil {
		return err
	}
	report.WritePlanets(cmd.cli.stdout, p)
	return nil
}

type starsCommand struct {
	command
	MaxMag *float64 `long:"max-mag" description:"Faintest magnitude to list (default from config)" value-name:"MAG"`
	Limit  int      `short:"n" long:"limit" description:"List at most N stars (0 lists all)" value-name:"N"`
}

func (cmd *starsCommand) Execute([]string) error {
	if cmd.Limit < 0 {
		return errors.New("--limit must not be negative")
	}
	a, err := cmd.cli.setup(false)
	if err != nil {
		return err
	}
	defer a.Close()

	maxMag := a.cfg.Stars.MaxMagnitude
	if cmd.MaxMag != nil {
		maxMag = *cmd.MaxMag
	}

	ctx, cancel := signalContext()
	defer cancel()
	stars, err := a.engine.VisibleStars(ctx, a.now(), maxMag)
	if err != nil {
		return err
	}
	obs := make([]conditions.StarObservation, len(stars))
	for i, s := range stars {
		obs[i] = conditions.StarObservation{Star: s}
	}
	report.WriteStars(cmd.cli.stdout, obs, cmd.Limit)
	return nil
}

type conditionsCommand struct {
	command
}

func (cmd *conditionsCommand) Execute([]string) error {
	a, err := cmd.cli.setup(false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()
	c, err := a.engine.ObservingConditions(ctx, a.now())
	if err != nil {
		return err
	}
	report.WriteConditions(cmd.cli.stdout, c)
	return nil
}

type timelineCommand struct {
	command
	Step time.Duration `long:"step" description:"Sampling interval" default:"30m" value-name:"DURATION"`
	PNG  string        `long:"png" description:"Also write the timeline chart to FILE" value-name:"FILE"`
}

func (cmd *timelineCommand) Execute([]string) error {
	a, err := cmd.cli.setup(false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()
	t := a.now()
	night, samples, err := a.engine.TonightTimeline(ctx, t, cmd.Step)
	if err != nil {
		return err
	}
	zone := a.zone(t)
	report.WriteTimeline(cmd.cli.stdout, night, samples, zone)

	if cmd.PNG != "" {
		if err := report.SaveTimelineChart(cmd.PNG, samples, zone.Location()); err != nil {
			return fmt.Errorf("timeline chart: %w", err)
		}
		fmt.Fprintf(cmd.cli.stdout, "\nChart written to %s\n", cmd.PNG)
	}
	return nil
}

type menuCommand struct {
	command
}

func (cmd *menuCommand) Execute([]string) error {
	a, err := cmd.cli.setup(false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()
	return runMenu(ctx, a, cmd.cli.stdin, cmd.cli.stdout)
}

type serveCommand struct {
	command
	Addr string `long:"addr" description:"Listen address (default from config)" value-name:"HOST:PORT"`
}

func (cmd *serveCommand) Execute([]string) error {
	a, err := cmd.cli.setup(false)
	if err != nil {
		return err
	}
	defer a.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := a.metrics.Register(reg); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	srv := api.NewServer(api.Config{
		Engine:       a.engine,
		Zones:        a.zones,
		MaxMagnitude: a.cfg.Stars.MaxMagnitude,
		Metrics:      a.metrics,
		Gatherer:     reg,
		Log:          a.log,
		QueryTimeout: api.DefaultQueryTimeout,
	})

	addr := cmd.Addr
	if addr == "" {
		addr = a.cfg.Server.Addr
	}
	server := &http.Server{
		Addr:         addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: api.DefaultQueryTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := signalContext()
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("serving %s for %s on http://%s", a.engine.SourceName(), a.engine.Location(), addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down server...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	a.log.Info("server stopped")
	return nil
}

type configCommand struct {
	command
}

func (cmd *configCommand) Execute([]string) error {
	cfg, err := cmd.cli.loadConfig()
	if err != nil {
		return err
	}
	if cfg.Path != "" {
		fmt.Fprintf(cmd.cli.stdout, "# loaded from %s\n", cfg.Path)
	}
	return cfg.Dump(cmd.cli.stdout)
}

type versionCommand struct {
	command
}

func (cmd *versionCommand) Execute([]string) error {
	fmt.Fprintf(cmd.cli.stdout, "ls-nightsky %s\n", version.Version)
	return nil
}
