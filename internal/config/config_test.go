package config

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	yamlv3 "gopkg.in/yaml.v3"

	"github.com/litescript/ls-nightsky/internal/conditions"
	"github.com/litescript/ls-nightsky/internal/ephem"
	"github.com/litescript/ls-nightsky/internal/logging"
)

// isolate points NIGHTSKY_HOME at an empty directory and clears the
// override variables for the duration of the test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(EnvHome, home)
	for _, key := range []string{EnvLatitude, EnvLongitude, EnvEphemeris, EnvVSOP87, EnvHorizonsURL, EnvLogLevel, EnvAddr} {
		t.Setenv(key, "")
	}
	return home
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, errs := Load("")
	if len(errs) != 0 {
		t.Fatalf("Load() errors: %v", errs)
	}
	if cfg.Path != "" {
		t.Errorf("Path = %q, want empty without a file", cfg.Path)
	}
	if cfg.EngineLocation() != conditions.DefaultLocation {
		t.Errorf("location = %+v, want Bahrain", cfg.EngineLocation())
	}
	if cfg.EphemerisMode() != ephem.ModeMeeus || cfg.Stars.MaxMagnitude != 2.0 {
		t.Errorf("mode %v, max magnitude %v", cfg.EphemerisMode(), cfg.Stars.MaxMagnitude)
	}
	if got := cfg.PlanetBodies(); len(got) != 7 || got[0] != ephem.Mercury || got[6] != ephem.Neptune {
		t.Errorf("planets = %v", got)
	}
	if cfg.Refresh.Std() != time.Minute || cfg.Ephemeris.Timeout.Std() != ephem.RequestTimeout {
		t.Errorf("durations = %v, %v", cfg.Refresh.Std(), cfg.Ephemeris.Timeout.Std())
	}

	est := cfg.Estimator()
	if len(est.Sites) != len(conditions.DefaultSites) {
		t.Errorf("estimator has %d sites", len(est.Sites))
	}
	if got := est.Estimate(conditions.Location{Latitude: 40.7, Longitude: -74.0}); got != conditions.LightPollutionVeryHigh {
		t.Errorf("New York estimate = %v", got)
	}
}

func TestLoad_File(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, `
location:
  latitude: 40.5
  longitude: -105.1
ephemeris:
  mode: builtin
  timeout: 5s
stars:
  max_magnitude: 1.5
planets: [venus, Jupiter]
light_pollution:
  match_radius_deg: 1
  sites:
    - name: Observatory
      latitude: 40
      longitude: -105
      tier: very_low
log:
  level: debug
refresh: 2m
`)

	cfg, errs := Load("")
	if len(errs) != 0 {
		t.Fatalf("Load() errors: %v", errs)
	}
	if cfg.Path == "" {
		t.Error("Path should name the default file")
	}
	if cfg.Location.Name != "" || cfg.Location.Latitude != 40.5 || cfg.Location.Longitude != -105.1 {
		t.Errorf("location = %+v", cfg.Location)
	}
	if cfg.EphemerisMode() != ephem.ModeBuiltin || cfg.Ephemeris.Timeout.Std() != 5*time.Second {
		t.Errorf("ephemeris = %+v", cfg.Ephemeris)
	}
	if cfg.Refresh.Std() != 2*time.Minute {
		t.Errorf("refresh = %v", cfg.Refresh.Std())
	}
	if got := cfg.PlanetBodies(); len(got) != 2 || got[0] != ephem.Venus || got[1] != ephem.Jupiter {
		t.Errorf("planets = %v", got)
	}
	if cfg.LogLevel() != logging.LevelDebug {
		t.Errorf("log level = %v", cfg.LogLevel())
	}

	est := cfg.Estimator()
	if len(est.Sites) != 1 {
		t.Fatalf("sites = %+v, want only the file's site", est.Sites)
	}
	// Bands keep their defaults when the file leaves them out.
	if est.TropicalLatitude != 30 || est.PolarLatitude != 60 {
		t.Errorf("bands = %v/%v", est.TropicalLatitude, est.PolarLatitude)
	}
	if got := est.Estimate(cfg.EngineLocation()); got != conditions.LightPollutionVeryLow {
		t.Errorf("estimate = %v, want Very Low", got)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	home := isolate(t)
	path := writeConfig(t, home, "ephemeris:\n  mode: builtin\nserver:\n  addr: :9000\n")

	t.Setenv(EnvLatitude, "-33.87")
	t.Setenv(EnvLongitude, "151.21")
	t.Setenv(EnvEphemeris, "horizons")
	t.Setenv(EnvAddr, ":9999")
	t.Setenv(EnvVSOP87, "/data/vsop87")

	cfg, errs := Load(path)
	if len(errs) != 0 {
		t.Fatalf("Load() errors: %v", errs)
	}
	if cfg.Location.Latitude != -33.87 || cfg.Location.Longitude != 151.21 || cfg.Location.Name != "" {
		t.Errorf("location = %+v", cfg.Location)
	}
	if cfg.Ephemeris.Mode != "horizons" || cfg.Server.Addr != ":9999" || cfg.Ephemeris.VSOP87Path != "/data/vsop87" {
		t.Errorf("overrides not applied: %+v %+v", cfg.Ephemeris, cfg.Server)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing explicit file", func(t *testing.T) {
		isolate(t)
		cfg, errs := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		if cfg != nil || len(errs) != 1 {
			t.Errorf("Load() = %v, %v", cfg, errs)
		}
	})

	t.Run("bad env number", func(t *testing.T) {
		isolate(t)
		t.Setenv(EnvLatitude, "north")
		_, errs := Load("")
		if len(errs) != 1 || !strings.Contains(errs[0].Error(), EnvLatitude) {
			t.Errorf("errs = %v", errs)
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		home := isolate(t)
		writeConfig(t, home, `
location: {latitude: 95, longitude: 10}
ephemeris: {mode: telescope, horizons_url: "ftp://example.com"}
planets: [Mars, Pluto]
light_pollution:
  match_radius_deg: 0
  tropical_latitude: 70
  sites:
    - {name: Nowhere, latitude: 0, longitude: 0, tier: blinding}
log: {level: loud}
`)
		_, errs := Load("")
		wants := []error{ErrInvalidMode, ErrInvalidURL, ErrInvalidRadius, ErrInvalidBands, ErrInvalidLogLevel,
			conditions.ErrInvalidLocation, ephem.ErrUnsupportedBody}
		for _, want := range wants {
			found := false
			for _, err := range errs {
				if errors.Is(err, want) {
					found = true
				}
			}
			if !found {
				t.Errorf("missing %v in %v", want, errs)
			}
		}
		if len(errs) != 8 {
			t.Errorf("got %d errors, want 8: %v", len(errs), errs)
		}
	})
}

func TestConfig_SetLocation(t *testing.T) {
	cfg := Default()
	cfg.SetLocation(10, 20)
	if got := cfg.EngineLocation(); got.Name != "" || got.Latitude != 10 || got.Longitude != 20 {
		t.Errorf("EngineLocation() = %+v", got)
	}
}

func TestConfig_Dump(t *testing.T) {
	var buf bytes.Buffer
	if err := Default().Dump(&buf); err != nil {
		t.Fatalf("Dump() error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"refresh: 1m0s", "timeout: 30s", "mode: meeus", "tier: Very High"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}

	// The dump is a valid configuration file.
	var round struct {
		Location LocationConfig `yaml:"location"`
		Planets  []string       `yaml:"planets"`
	}
	if err := yamlv3.Unmarshal(buf.Bytes(), &round); err != nil {
		t.Fatalf("dump is not YAML: %v", err)
	}
	if round.Location.Name != "Bahrain" || len(round.Planets) != 7 {
		t.Errorf("decoded dump = %+v", round)
	}
}

func TestDefaultConfig_ListsPlanetsWithoutDataFiles(t *testing.T) {
	isolate(t)
	cfg, errs := Load("")
	if len(errs) > 0 {
		t.Fatalf("Load() errors: %v", errs)
	}

	src := ephem.New(cfg.EphemerisMode(), cfg.EphemerisOptions())
	eng, err := conditions.NewEngine(src, cfg.EngineLocation(), conditions.WithPlanets(cfg.PlanetBodies()))
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}

	rep, err := eng.VisiblePlanets(context.Background(), time.Date(2024, 1, 18, 20, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("VisiblePlanets() error: %v", err)
	}
	if len(rep.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", rep.Warnings)
	}
	found := false
	for _, p := range rep.Planets {
		if p.Name == ephem.Jupiter {
			found = true
		}
	}
	if !found {
		t.Errorf("planets = %+v, want Jupiter in the evening sky", rep.Planets)
	}
}
