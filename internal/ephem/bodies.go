package ephem

import (
	"fmt"
	"strings"
)

// Body names a solar-system body the sources can compute.
type Body string

const (
	Sun     Body = "Sun"
	Moon    Body = "Moon"
	Mercury Body = "Mercury"
	Venus   Body = "Venus"
	Mars    Body = "Mars"
	Jupiter Body = "Jupiter"
	Saturn  Body = "Saturn"
	Uranus  Body = "Uranus"
	Neptune Body = "Neptune"
)

// BodyInfo maps a body to the identifiers used by the different sources.
type BodyInfo struct {
	Body   Body
	NAIFID int // JPL Horizons command / NAIF SPICE ID
	Planet bool
}

// Bodies is the canonical list of supported bodies.
// Sourced from https://naif.jpl.nasa.gov/pub/naif/toolkit_docs/C/req/naif_ids.html
var Bodies = []BodyInfo{
	{Body: Sun, NAIFID: 10},
	{Body: Moon, NAIFID: 301},
	{Body: Mercury, NAIFID: 199, Planet: true},
	{Body: Venus, NAIFID: 299, Planet: true},
	{Body: Mars, NAIFID: 499, Planet: true},
	{Body: Jupiter, NAIFID: 599, Planet: true},
	{Body: Saturn, NAIFID: 699, Planet: true},
	{Body: Uranus, NAIFID: 799, Planet: true},
	{Body: Neptune, NAIFID: 899, Planet: true},
}

// DefaultPlanets is the ordered planet list queried for visibility.
var DefaultPlanets = []Body{Mercury, Venus, Mars, Jupiter, Saturn, Uranus, Neptune}

var bodiesByName map[string]BodyInfo

func init() {
	bodiesByName = make(map[string]BodyInfo, len(Bodies))
	for _, b := range Bodies {
		bodiesByName[strings.ToLower(string(b.Body))] = b
	}
}

// Info returns the identifiers for b.
func (b Body) Info() (BodyInfo, bool) {
	info, ok := bodiesByName[strings.ToLower(string(b))]
	return info, ok
}

// IsPlanet reports whether b is one of the supported planets.
func (b Body) IsPlanet() bool {
	info, ok := b.Info()
	return ok && info.Planet
}

// ParseBody resolves a body name case-insensitively.
func ParseBody(s string) (Body, error) {
	info, ok := bodiesByName[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedBody, s)
	}
	return info.Body, nil
}

// BodyList converts configured names to bodies, keeping their order.
// Known names are canonicalised; unknown ones are kept verbatim so the
// sources can report them as unsupported at query time.
func BodyList(names []string) []Body {
	out := make([]Body, 0, len(names))
	for _, n := range names {
		if b, err := ParseBody(n); err == nil {
			out = append(out, b)
			continue
		}
		out = append(out, Body(strings.TrimSpace(n)))
	}
	return out
}
