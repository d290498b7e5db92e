// Package config loads ls-nightsky settings from an optional YAML file and
// environment overrides. Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/litescript/ls-nightsky/internal/conditions"
	"github.com/litescript/ls-nightsky/internal/ephem"
	"github.com/litescript/ls-nightsky/internal/logging"
)

// Environment variables read by Load.
const (
	EnvHome        = "NIGHTSKY_HOME"
	EnvLatitude    = "NIGHTSKY_LAT"
	EnvLongitude   = "NIGHTSKY_LON"
	EnvEphemeris   = "NIGHTSKY_EPHEMERIS"
	EnvVSOP87      = "VSOP87"
	EnvHorizonsURL = "NIGHTSKY_HORIZONS_URL"
	EnvLogLevel    = "NIGHTSKY_LOG_LEVEL"
	EnvAddr        = "NIGHTSKY_ADDR"
)

// Defaults for values not set anywhere.
const (
	DefaultMode     = "meeus"
	DefaultAddr     = "127.0.0.1:8765"
	DefaultLogLevel = "info"
	DefaultRefresh  = time.Minute
	FileName        = "config.yaml"
)

// Validation errors.
var (
	ErrInvalidMode      = errors.New("ephemeris.mode must be one of meeus, builtin, horizons, auto")
	ErrInvalidMagnitude = errors.New("stars.max_magnitude must be finite")
	ErrInvalidRadius    = errors.New("light_pollution.match_radius_deg must be positive")
	ErrInvalidBands     = errors.New("light_pollution.tropical_latitude must be below polar_latitude")
	ErrInvalidLogLevel  = errors.New("log.level must be one of debug, info, warn, error")
	ErrInvalidDuration  = errors.New("durations must not be negative")
	ErrInvalidURL       = errors.New("ephemeris.horizons_url must be an absolute http(s) URL")
)

// Duration is a time.Duration written to YAML as "30s" rather than
// nanoseconds.
type Duration time.Duration

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// LocationConfig is the observing site.
type LocationConfig struct {
	Name      string  `koanf:"name" yaml:"name,omitempty"`
	Latitude  float64 `koanf:"latitude" yaml:"latitude"`
	Longitude float64 `koanf:"longitude" yaml:"longitude"`
}

// EphemerisConfig selects and configures the geometry source.
type EphemerisConfig struct {
	Mode        string   `koanf:"mode" yaml:"mode"`
	VSOP87Path  string   `koanf:"vsop87_path" yaml:"vsop87_path,omitempty"`
	HorizonsURL string   `koanf:"horizons_url" yaml:"horizons_url"`
	Timeout     Duration `koanf:"-" yaml:"timeout"`
}

// StarsConfig controls the star query.
type StarsConfig struct {
	MaxMagnitude float64 `koanf:"max_magnitude" yaml:"max_magnitude"`
}

// SiteConfig is a light pollution site as written in the file.
type SiteConfig struct {
	Name      string  `koanf:"name" yaml:"name"`
	Latitude  float64 `koanf:"latitude" yaml:"latitude"`
	Longitude float64 `koanf:"longitude" yaml:"longitude"`
	Tier      string  `koanf:"tier" yaml:"tier"`
}

// LightPollutionConfig holds the estimator table and thresholds.
type LightPollutionConfig struct {
	MatchRadiusDeg   float64      `koanf:"match_radius_deg" yaml:"match_radius_deg"`
	TropicalLatitude float64      `koanf:"tropical_latitude" yaml:"tropical_latitude"`
	PolarLatitude    float64      `koanf:"polar_latitude" yaml:"polar_latitude"`
	Sites            []SiteConfig `koanf:"sites" yaml:"sites"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `koanf:"level" yaml:"level"`
	File  string `koanf:"file" yaml:"file,omitempty"`
	JSON  bool   `koanf:"json" yaml:"json"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr string `koanf:"addr" yaml:"addr"`
}

// Config is the effective configuration.
type Config struct {
	Location       LocationConfig       `koanf:"location" yaml:"location"`
	Ephemeris      EphemerisConfig      `koanf:"ephemeris" yaml:"ephemeris"`
	Stars          StarsConfig          `koanf:"stars" yaml:"stars"`
	Planets        []string             `koanf:"planets" yaml:"planets"`
	LightPollution LightPollutionConfig `koanf:"light_pollution" yaml:"light_pollution"`
	Log            LogConfig            `koanf:"log" yaml:"log"`
	Server         ServerConfig         `koanf:"server" yaml:"server"`
	Refresh        Duration             `koanf:"-" yaml:"refresh"`

	// Path is the file the configuration was read from, if any.
	Path string `koanf:"-" yaml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	planets := make([]string, len(ephem.DefaultPlanets))
	for i, p := range ephem.DefaultPlanets {
		planets[i] = string(p)
	}
	sites := make([]SiteConfig, len(conditions.DefaultSites))
	for i, s := range conditions.DefaultSites {
		sites[i] = SiteConfig{Name: s.Name, Latitude: s.Latitude, Longitude: s.Longitude, Tier: s.Tier.String()}
	}

	return &Config{
		Location: LocationConfig{
			Name:      conditions.DefaultLocation.Name,
			Latitude:  conditions.DefaultLocation.Latitude,
			Longitude: conditions.DefaultLocation.Longitude,
		},
		Ephemeris: EphemerisConfig{
			Mode:        DefaultMode,
			HorizonsURL: ephem.HorizonsAPIURL,
			Timeout:     Duration(ephem.RequestTimeout),
		},
		Stars:   StarsConfig{MaxMagnitude: conditions.DefaultMaxStarMagnitude},
		Planets: planets,
		LightPollution: LightPollutionConfig{
			MatchRadiusDeg:   conditions.DefaultMatchRadiusDeg,
			TropicalLatitude: conditions.DefaultTropicalLatitude,
			PolarLatitude:    conditions.DefaultPolarLatitude,
			Sites:            sites,
		},
		Log:     LogConfig{Level: DefaultLogLevel},
		Server:  ServerConfig{Addr: DefaultAddr},
		Refresh: Duration(DefaultRefresh),
	}
}

// DefaultPath returns $NIGHTSKY_HOME/config.yaml, or the file under the
// user's configuration directory.
func DefaultPath() string {
	if home := os.Getenv(EnvHome); home != "" {
		return filepath.Join(home, FileName)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ls-nightsky", FileName)
}

// Load reads the configuration. An explicit path must exist; with an empty
// path the default location is tried and silently skipped when missing.
// Environment variables take precedence over file values. The returned
// slice holds load and validation errors (empty if valid).
func Load(path string) (*Config, []error) {
	cfg := Default()
	k := koanf.New(".")

	if path == "" {
		if p := DefaultPath(); p != "" {
			if _, err := os.Stat(p); err == nil {
				path = p
			}
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", path, err)}
		}
		// Lists from the file replace the defaults instead of merging into them.
		if k.Exists("planets") {
			cfg.Planets = nil
		}
		if k.Exists("light_pollution.sites") {
			cfg.LightPollution.Sites = nil
		}
		if k.Exists("location") && !k.Exists("location.name") {
			cfg.Location.Name = ""
		}
		if err := k.Unmarshal("", cfg); err != nil {
			return nil, []error{fmt.Errorf("failed to decode config file %s: %w", path, err)}
		}
		cfg.Path = path
	}

	if k.Exists("ephemeris.timeout") {
		cfg.Ephemeris.Timeout = Duration(k.Duration("ephemeris.timeout"))
	}
	if k.Exists("refresh") {
		cfg.Refresh = Duration(k.Duration("refresh"))
	}

	loadErrs := applyEnv(cfg)
	errs := cfg.Validate()
	return cfg, append(loadErrs, errs...)
}

func applyEnv(cfg *Config) []error {
	var errs []error
	if v, err := getEnvFloat(EnvLatitude); err != nil {
		errs = append(errs, err)
	} else if v != nil {
		cfg.Location.Latitude = *v
		cfg.Location.Name = ""
	}
	if v, err := getEnvFloat(EnvLongitude); err != nil {
		errs = append(errs, err)
	} else if v != nil {
		cfg.Location.Longitude = *v
		cfg.Location.Name = ""
	}
	setFromEnv(&cfg.Ephemeris.Mode, EnvEphemeris)
	setFromEnv(&cfg.Ephemeris.VSOP87Path, EnvVSOP87)
	setFromEnv(&cfg.Ephemeris.HorizonsURL, EnvHorizonsURL)
	setFromEnv(&cfg.Log.Level, EnvLogLevel)
	setFromEnv(&cfg.Server.Addr, EnvAddr)
	return errs
}

func setFromEnv(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func getEnvFloat(key string) (*float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return &f, nil
}

// Validate checks every setting and returns all problems found.
func (c *Config) Validate() []error {
	var errs []error

	if err := c.EngineLocation().Validate(); err != nil {
		errs = append(errs, err)
	}

	valid := false
	for _, m := range ephem.Modes {
		if c.Ephemeris.Mode == m {
			valid = true
		}
	}
	if !valid {
		errs = append(errs, fmt.Errorf("%w: got %q", ErrInvalidMode, c.Ephemeris.Mode))
	}
	if u, err := url.Parse(c.Ephemeris.HorizonsURL); err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Errorf("%w: got %q", ErrInvalidURL, c.Ephemeris.HorizonsURL))
	}
	if c.Ephemeris.Timeout < 0 || c.Refresh < 0 {
		errs = append(errs, ErrInvalidDuration)
	}

	if math.IsNaN(c.Stars.MaxMagnitude) || math.IsInf(c.Stars.MaxMagnitude, 0) {
		errs = append(errs, ErrInvalidMagnitude)
	}

	for _, p := range c.Planets {
		if _, err := ephem.ParseBody(p); err != nil {
			errs = append(errs, fmt.Errorf("planets: %w", err))
		}
	}

	lp := c.LightPollution
	if !(lp.MatchRadiusDeg > 0) {
		errs = append(errs, ErrInvalidRadius)
	}
	if !(lp.TropicalLatitude < lp.PolarLatitude) {
		errs = append(errs, ErrInvalidBands)
	}
	for i, s := range lp.Sites {
		if _, err := conditions.ParseLightPollution(s.Tier); err != nil {
			errs = append(errs, fmt.Errorf("light_pollution.sites[%d] (%s): %w", i, s.Name, err))
		}
		loc := conditions.Location{Latitude: s.Latitude, Longitude: s.Longitude}
		if err := loc.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("light_pollution.sites[%d] (%s): %w", i, s.Name, err))
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("%w: got %q", ErrInvalidLogLevel, c.Log.Level))
	}

	return errs
}

// EngineLocation returns the configured location.
func (c *Config) EngineLocation() conditions.Location {
	return conditions.Location{
		Name:      c.Location.Name,
		Latitude:  c.Location.Latitude,
		Longitude: c.Location.Longitude,
	}
}

// SetLocation overrides the configured coordinates and clears the name.
func (c *Config) SetLocation(lat, lon float64) {
	c.Location = LocationConfig{Latitude: lat, Longitude: lon}
}

// Estimator builds the light pollution estimator. Sites with an unknown
// tier are skipped; Validate reports them.
func (c *Config) Estimator() *conditions.Estimator {
	lp := c.LightPollution
	est := &conditions.Estimator{
		MatchRadiusDeg:   lp.MatchRadiusDeg,
		TropicalLatitude: lp.TropicalLatitude,
		PolarLatitude:    lp.PolarLatitude,
	}
	for _, s := range lp.Sites {
		tier, err := conditions.ParseLightPollution(s.Tier)
		if err != nil {
			continue
		}
		est.Sites = append(est.Sites, conditions.Site{Name: s.Name, Latitude: s.Latitude, Longitude: s.Longitude, Tier: tier})
	}
	return est
}

// PlanetBodies returns the configured planet list in order.
func (c *Config) PlanetBodies() []ephem.Body {
	return ephem.BodyList(c.Planets)
}

// EphemerisMode returns the configured source mode.
func (c *Config) EphemerisMode() ephem.Mode {
	return ephem.ParseMode(c.Ephemeris.Mode)
}

// EphemerisOptions returns the options for ephem.New.
func (c *Config) EphemerisOptions() ephem.Options {
	return ephem.Options{
		VSOP87Path:  c.Ephemeris.VSOP87Path,
		HorizonsURL: c.Ephemeris.HorizonsURL,
		Timeout:     c.Ephemeris.Timeout.Std(),
	}
}

// LogLevel returns the configured log level.
func (c *Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Log.Level)
}

// Dump writes the configuration as YAML.
func (c *Config) Dump(w io.Writer) error {
	enc := yamlv3.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return enc.Close()
}
