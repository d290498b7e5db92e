// Command ls-nightsky reports sky observing conditions: moon phase, visible
// planets and stars, and a 0-100 observing score, in the terminal, as a
// dashboard, or over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"golang.org/x/term"

	"github.com/litescript/ls-nightsky/internal/conditions"
	"github.com/litescript/ls-nightsky/internal/config"
	"github.com/litescript/ls-nightsky/internal/ephem"
	"github.com/litescript/ls-nightsky/internal/logging"
	"github.com/litescript/ls-nightsky/internal/metrics"
	"github.com/litescript/ls-nightsky/internal/tz"
)

// GlobalOptions apply to every command.
type GlobalOptions struct {
	Lat       *float64 `long:"lat" description:"Observer latitude in degrees (north positive)" value-name:"DEG"`
	Lon       *float64 `long:"lon" description:"Observer longitude in degrees (east positive)" value-name:"DEG"`
	Time      string   `long:"time" description:"Query instant, RFC3339 (default now)" value-name:"TIME"`
	Config    string   `short:"c" long:"config" description:"Configuration file" value-name:"FILE"`
	Ephemeris string   `long:"ephemeris" description:"Ephemeris source" choice:"meeus" choice:"builtin" choice:"horizons" choice:"auto"`
	LogLevel  string   `long:"log-level" description:"Log level" choice:"debug" choice:"info" choice:"warn" choice:"error"`
	LogFile   string   `long:"log-file" description:"Write logs to FILE" value-name:"FILE"`
	LogJSON   bool     `long:"log-json" description:"Write logs as JSON lines"`
}

type options struct {
	GlobalOptions `group:"Global Options"`

	TUI        tuiCommand        `command:"tui" description:"Interactive dashboard"`
	Report     reportCommand     `command:"report" description:"Full stargazing report"`
	Moon       moonCommand       `command:"moon" description:"Moon phase and position"`
	Planets    planetsCommand    `command:"planets" description:"Planets above the horizon"`
	Stars      starsCommand      `command:"stars" description:"Bright stars above the horizon"`
	Conditions conditionsCommand `command:"conditions" description:"Observing score and recommendation"`
	Timeline   timelineCommand   `command:"timeline" description:"Observing score through tonight"`
	Menu       menuCommand       `command:"menu" description:"Interactive numbered menu"`
	Serve      serveCommand      `command:"serve" description:"Serve the queries as JSON over HTTP"`
	ConfigCmd  configCommand     `command:"config" description:"Print the effective configuration"`
	Version    versionCommand    `command:"version" description:"Print the version"`
}

// cli carries the parsed options and process streams to the commands.
type cli struct {
	opts   options
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// zones overrides the timezone resolver; nil uses tzf.
	zones      tz.Resolver
	// isTerminal reports whether stdout is an interactive terminal.
	isTerminal func() bool
}

// command is embedded by every subcommand to reach the shared cli.
type command struct {
	cli *cli
}

func main() {
	c := &cli{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		isTerminal: func() bool {
			return term.IsTerminal(int(os.Stdout.Fd()))
		},
	}
	os.Exit(c.run(os.Args[1:]))
}

func (c *cli) parser() *flags.Parser {
	o := &c.opts
	o.TUI.cli = c
	o.Report.cli = c
	o.Moon.cli = c
	o.Planets.cli = c
	o.Stars.cli = c
	o.Conditions.cli = c
	o.Timeline.cli = c
	o.Menu.cli = c
	o.Serve.cli = c
	o.ConfigCmd.cli = c
	o.Version.cli = c

	p := flags.NewParser(o, flags.HelpFlag|flags.PassDoubleDash)
	p.SubcommandsOptional = true
	return p
}

// run parses args, executes the chosen command and returns the exit code.
func (c *cli) run(args []string) int {
	p := c.parser()
	rest, err := p.ParseArgs(args)
	if err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			fmt.Fprintln(c.stdout, ferr.Message)
			return 0
		}
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return 1
	}

	// No command: dashboard on a terminal, text report otherwise.
	if p.Active == nil {
		if len(rest) > 0 {
			fmt.Fprintf(c.stderr, "Error: unknown command %q\n", rest[0])
			return 1
		}
		if c.isTerminal != nil && c.isTerminal() {
			err = c.opts.TUI.Execute(nil)
		} else {
			err = c.opts.Report.Execute(nil)
		}
		if err != nil {
			fmt.Fprintf(c.stderr, "Error: %v\n", err)
			return 1
		}
	}
	return 0
}

// app is the wired engine and its collaborators for one command run.
type app struct {
	cfg     *config.Config
	log     *logging.Logger
	metrics *metrics.Metrics
	engine  *conditions.Engine
	zones   tz.Resolver
	at      time.Time

	closeLog func()
}

// setup loads the configuration, applies the global flags and builds the
// engine. tui sends logs to --log-file or nowhere.
func (c *cli) setup(tui bool) (*app, error) {
	g := c.opts.GlobalOptions

	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}

	var at time.Time
	if g.Time != "" {
		t, err := time.Parse(time.RFC3339, g.Time)
		if err != nil {
			return nil, fmt.Errorf("--time %q is not RFC3339", g.Time)
		}
		at = t
	}

	log, closeLog, err := newLogger(cfg.Log, cfg.LogLevel(), tui, c.stderr)
	if err != nil {
		return nil, err
	}

	m := metrics.NewMetrics()
	src := ephem.Instrument(ephem.New(cfg.EphemerisMode(), cfg.EphemerisOptions()), m)
	eng, err := conditions.NewEngine(src, cfg.EngineLocation(),
		conditions.WithPlanets(cfg.PlanetBodies()),
		conditions.WithEstimator(cfg.Estimator()),
		conditions.WithLogger(log),
	)
	if err != nil {
		closeLog()
		return nil, err
	}

	zones := c.zones
	if zones == nil {
		r := tz.NewTZFResolver()
		if err := r.Err(); err != nil {
			log.Warn("timezone lookup unavailable, using UTC: %v", err)
		}
		zones = r
	}

	log.Debug("engine ready: %s via %s", eng.Location(), eng.SourceName())
	return &app{
		cfg:      cfg,
		log:      log,
		metrics:  m,
		engine:   eng,
		zones:    zones,
		at:       at,
		closeLog: closeLog,
	}, nil
}

func (a *app) Close() {
	if a.closeLog != nil {
		a.closeLog()
	}
}

// now is the query instant: --time, or the current time.
func (a *app) now() time.Time {
	if a.at.IsZero() {
		return time.Now()
	}
	return a.at
}

// zone describes the timezone at the engine's location at t.
func (a *app) zone(t time.Time) tz.Info {
	loc := a.engine.Location()
	return tz.Lookup(a.zones, loc.Latitude, loc.Longitude, t)
}

// loadConfig reads the configuration and layers the global flags over it.
func (c *cli) loadConfig() (*config.Config, error) {
	g := c.opts.GlobalOptions
	cfg, errs := config.Load(g.Config)
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	applyFlags(cfg, g)
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

// applyFlags layers the global flags over the loaded configuration.
func applyFlags(cfg *config.Config, g GlobalOptions) {
	if g.Lat != nil || g.Lon != nil {
		lat, lon := cfg.Location.Latitude, cfg.Location.Longitude
		if g.Lat != nil {
			lat = *g.Lat
		}
		if g.Lon != nil {
			lon = *g.Lon
		}
		cfg.SetLocation(lat, lon)
	}
	if g.Ephemeris != "" {
		cfg.Ephemeris.Mode = g.Ephemeris
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if g.LogFile != "" {
		cfg.Log.File = g.LogFile
	}
	if g.LogJSON {
		cfg.Log.JSON = true
	}
}

func newLogger(lc config.LogConfig, level logging.Level, tui bool, stderr io.Writer) (*logging.Logger, func(), error) {
	noop := func() {}
	if lc.File != "" {
		f, err := os.OpenFile(lc.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, noop, fmt.Errorf("open log file: %w", err)
		}
		var log *logging.Logger
		if lc.JSON {
			log = logging.NewJSON(level, f)
		} else {
			log = logging.New(level)
			log.SetOutput(f)
		}
		return log, func() { f.Close() }, nil
	}
	if tui {
		return logging.Discard(), noop, nil
	}
	if lc.JSON {
		return logging.NewJSON(level, stderr), noop, nil
	}
	log := logging.New(level)
	log.SetOutput(stderr)
	return log, noop, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
