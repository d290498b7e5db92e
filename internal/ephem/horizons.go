package ephem

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/litescript/ls-nightsky/internal/astro"
)

const (
	// HorizonsAPIURL is the JPL Horizons JSON API endpoint.
	HorizonsAPIURL = "https://ssd.jpl.nasa.gov/api/horizons.api"

	// RequestTimeout is the default HTTP request timeout.
	RequestTimeout = 30 * time.Second

	// EventStep is the table step used when searching for rise/set.
	EventStep = 10 * time.Minute
)

// HorizonsSource queries JPL Horizons for observer tables. Each call is a
// single request; there is no cache and no retry.
type HorizonsSource struct {
	client  *resty.Client
	baseURL string
}

// NewHorizonsSource creates a Horizons client. Empty baseURL selects the
// public endpoint and a zero timeout selects RequestTimeout.
func NewHorizonsSource(baseURL string, timeout time.Duration) *HorizonsSource {
	if baseURL == "" {
		baseURL = HorizonsAPIURL
	}
	if timeout <= 0 {
		timeout = RequestTimeout
	}
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Accept", "application/json")

	return &HorizonsSource{client: client, baseURL: baseURL}
}

// Name implements Source.
func (s *HorizonsSource) Name() string {
	return "horizons"
}

// Compute implements Source.
func (s *HorizonsSource) Compute(ctx context.Context, body Body, obs astro.Observer, t time.Time) (Geometry, error) {
	rows, err := s.query(ctx, body, obs, t, t.Add(time.Minute), time.Minute)
	if err != nil {
		return Geometry{}, err
	}
	g := rows[0]
	g.Time = t.UTC()
	return g, nil
}

// NextEvent implements Source. The body's track is tabulated across the
// search window and the crossing interpolated between table rows.
func (s *HorizonsSource) NextEvent(ctx context.Context, body Body, obs astro.Observer, t time.Time, ev Event) (time.Time, bool, error) {
	rows, err := s.query(ctx, body, obs, t, t.Add(EventSearchWindow), EventStep)
	if err != nil {
		return time.Time{}, false, err
	}

	samples := make([]astro.ElevationSample, len(rows))
	for i, r := range rows {
		samples[i] = astro.ElevationSample{Time: r.Time, ElDeg: r.Coord.ElDeg}
	}

	dir := astro.CrossingUp
	if ev == EventSet {
		dir = astro.CrossingDown
	}
	when, ok := astro.CrossingFromSamples(samples, riseAltitude(body, rows[0].DistanceAU), dir)
	return when, ok, nil
}

// query makes a request to the Horizons API and parses the observer table.
func (s *HorizonsSource) query(ctx context.Context, body Body, obs astro.Observer, start, end time.Time, step time.Duration) ([]Geometry, error) {
	info, ok := body.Info()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBody, body)
	}

	// Values must be quoted with single quotes.
	params := map[string]string{
		"format":      "json",
		"COMMAND":     fmt.Sprintf("'%d'", info.NAIFID),
		"OBJ_DATA":    "NO",
		"MAKE_EPHEM":  "YES",
		"EPHEM_TYPE":  "OBSERVER",
		"CENTER":      "'coord@399'",
		"COORD_TYPE":  "GEODETIC",
		"SITE_COORD":  fmt.Sprintf("'%.4f,%.4f,0'", obs.LonDeg, obs.LatDeg),
		"START_TIME":  fmt.Sprintf("'%s'", formatHorizonsTime(start)),
		"STOP_TIME":   fmt.Sprintf("'%s'", formatHorizonsTime(end)),
		"STEP_SIZE":   fmt.Sprintf("'%s'", formatStepSize(step)),
		"QUANTITIES":  "'2,4,9,10,20,23'",
		"ANG_FORMAT":  "DEG",
		"CSV_FORMAT":  "YES",
		"APPARENT":    "REFRACTED",
		"TIME_DIGITS": "MINUTES",
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("horizons request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("horizons returned status %d: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}

	return parseHorizonsResponse(body, resp.Body())
}

// horizonsResponse represents the JSON API response.
type horizonsResponse struct {
	Signature struct {
		Version string `json:"version"`
		Source  string `json:"source"`
	} `json:"signature"`
	Result string `json:"result"`
	Error  string `json:"error"`
}

// parseHorizonsResponse parses the Horizons JSON response.
func parseHorizonsResponse(body Body, raw []byte) ([]Geometry, error) {
	var resp horizonsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: horizons: %s", ErrNoData, strings.TrimSpace(resp.Error))
	}

	rows, err := parseObserverTable(body, resp.Result)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty table for %s", ErrNoData, body)
	}
	return rows, nil
}

// tableColumns holds the index of each quantity in a CSV row, -1 if absent.
type tableColumns struct {
	date, ra, dec, az, el, mag, illu, delta, sot, side int
}

// parseColumns maps header names to positions. Horizons pads names with
// underscores whose count varies between quantities, so match on prefixes.
func parseColumns(header string) tableColumns {
	cols := tableColumns{-1, -1, -1, -1, -1, -1, -1, -1, -1, -1}
	for i, name := range strings.Split(header, ",") {
		name = strings.TrimSpace(name)
		switch {
		case strings.HasPrefix(name, "Date"):
			cols.date = i
		case strings.HasPrefix(name, "R.A."):
			cols.ra = i
		case strings.HasPrefix(name, "DEC"):
			cols.dec = i
		case strings.HasPrefix(name, "Azi"):
			cols.az = i
		case strings.HasPrefix(name, "Elev"):
			cols.el = i
		case name == "APmag" || name == "T-mag":
			cols.mag = i
		case strings.HasPrefix(name, "Illu"):
			cols.illu = i
		case name == "delta":
			cols.delta = i
		case name == "S-O-T":
			cols.sot = i
		case name == "/r":
			cols.side = i
		}
	}
	return cols
}

// parseObserverTable extracts rows from the text between $$SOE and $$EOE,
// using the CSV header that precedes the table.
func parseObserverTable(body Body, result string) ([]Geometry, error) {
	soeIdx := strings.Index(result, "$$SOE")
	eoeIdx := strings.Index(result, "$$EOE")
	if soeIdx == -1 || eoeIdx == -1 || soeIdx >= eoeIdx {
		return nil, fmt.Errorf("%w: could not find ephemeris data markers", ErrNoData)
	}

	var header string
	for _, line := range strings.Split(result[:soeIdx], "\n") {
		if strings.Contains(line, "Date__(UT)") {
			header = line
		}
	}
	cols := parseColumns(header)
	if cols.date < 0 || cols.az < 0 || cols.el < 0 {
		return nil, fmt.Errorf("%w: observer table header missing Az/El columns", ErrNoData)
	}

	var rows []Geometry
	for _, line := range strings.Split(result[soeIdx+5:eoeIdx], "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		g, err := parseObserverRow(body, cols, strings.Split(line, ","))
		if err != nil {
			continue // Skip unparseable lines
		}
		rows = append(rows, g)
	}
	return rows, nil
}

func parseObserverRow(body Body, cols tableColumns, fields []string) (Geometry, error) {
	field := func(i int) (float64, bool) {
		if i < 0 || i >= len(fields) {
			return 0, false
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}

	if cols.date >= len(fields) {
		return Geometry{}, fmt.Errorf("short row")
	}
	t, err := parseHorizonsDateTime(strings.TrimSpace(fields[cols.date]))
	if err != nil {
		return Geometry{}, err
	}

	az, okAz := field(cols.az)
	el, okEl := field(cols.el)
	if !okAz || !okEl {
		return Geometry{}, fmt.Errorf("could not find Az/El values")
	}

	g := Geometry{Body: body, Time: t, Magnitude: math.NaN()}
	g.Coord.AzDeg = az
	g.Coord.ElDeg = el
	if ra, ok := field(cols.ra); ok {
		g.Coord.RAdeg = ra
	}
	if dec, ok := field(cols.dec); ok {
		g.Coord.DecDeg = dec
	}
	if mag, ok := field(cols.mag); ok {
		g.Magnitude = mag
	}
	if d, ok := field(cols.delta); ok {
		g.DistanceAU = d
	}
	if body != Sun {
		if illu, ok := field(cols.illu); ok {
			g.Illumination = illu / 100
			g.HasIllumination = true
		}
		if sot, ok := field(cols.sot); ok && cols.side >= 0 && cols.side < len(fields) {
			// /T: the body trails the Sun (east of it); /L: it leads.
			if strings.TrimSpace(fields[cols.side]) == "/L" {
				sot = 360 - sot
			}
			g.Elongation = math.Mod(sot, 360)
			g.HasElongation = true
		}
	}
	return g, nil
}

// parseHorizonsDateTime parses Horizons date format like "2025-Dec-05 00:00".
func parseHorizonsDateTime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-Jan-02 15:04", "2006-Jan-02 15:04:05", "2006-Jan-02 15:04:05.000"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}

// formatHorizonsTime formats a time for Horizons API.
func formatHorizonsTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}

// formatStepSize formats a duration as a Horizons step size.
func formatStepSize(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	if minutes >= 60 && minutes%60 == 0 {
		return fmt.Sprintf("%d h", minutes/60)
	}
	return fmt.Sprintf("%d m", minutes)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
