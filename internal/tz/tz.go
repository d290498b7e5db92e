// Package tz resolves the IANA time zone of a location and describes the
// local clock there.
package tz

import (
	"fmt"
	"sync"
	"time"
	_ "time/tzdata" // zone database for hosts without /usr/share/zoneinfo

	"github.com/ringsaturn/tzf"
)

// UTC is the zone name used when no zone can be resolved.
const UTC = "UTC"

// Resolver maps coordinates to an IANA zone name.
type Resolver interface {
	// Resolve returns the zone name for the coordinates and false if none is
	// known.
	Resolve(lat, lon float64) (string, bool)
}

// TZFResolver resolves zones from the polygon data bundled with tzf.
// The finder is loaded on first use.
type TZFResolver struct {
	once   sync.Once
	finder tzf.F
	err    error
}

// NewTZFResolver returns a resolver backed by tzf's default finder.
func NewTZFResolver() *TZFResolver {
	return &TZFResolver{}
}

func (r *TZFResolver) load() {
	r.once.Do(func() {
		r.finder, r.err = tzf.NewDefaultFinder()
	})
}

// Err reports whether the zone data failed to load.
func (r *TZFResolver) Err() error {
	r.load()
	return r.err
}

// Resolve implements Resolver.
func (r *TZFResolver) Resolve(lat, lon float64) (string, bool) {
	r.load()
	if r.err != nil {
		return "", false
	}
	name := r.finder.GetTimezoneName(lon, lat)
	if name == "" {
		return "", false
	}
	return name, true
}

// Fixed resolves every location to the same zone. It is used for tests and
// for the --tz override.
type Fixed string

// Resolve implements Resolver.
func (f Fixed) Resolve(float64, float64) (string, bool) {
	if f == "" {
		return "", false
	}
	return string(f), true
}

// Info describes the local clock of a zone at one instant.
type Info struct {
	Name         string `json:"timezone_name"`
	Abbreviation string `json:"timezone_abbreviation"`
	UTCOffset    string `json:"utc_offset"`
	LocalTime    string `json:"local_time"`
	UTCTime      string `json:"utc_time"`
	IsDST        bool   `json:"is_dst"`

	loc *time.Location
}

// Location returns the loaded zone.
func (i Info) Location() *time.Location {
	if i.loc == nil {
		return time.UTC
	}
	return i.loc
}

// Local converts t to the zone's local time.
func (i Info) Local(t time.Time) time.Time {
	return t.In(i.Location())
}

// Describe loads the named zone and formats t in it. An empty name means UTC.
func Describe(name string, t time.Time) (Info, error) {
	if name == "" {
		name = UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Info{}, fmt.Errorf("loading zone %q: %w", name, err)
	}

	local := t.In(loc)
	return Info{
		Name:         name,
		Abbreviation: local.Format("MST"),
		UTCOffset:    local.Format("-0700"),
		LocalTime:    local.Format("2006-01-02 15:04:05 MST"),
		UTCTime:      t.UTC().Format("2006-01-02 15:04:05") + " UTC",
		IsDST:        local.IsDST(),
		loc:          loc,
	}, nil
}

// Lookup resolves the zone for a location and describes it at t, falling
// back to UTC when the resolver knows nothing or the zone cannot be loaded.
func Lookup(r Resolver, lat, lon float64, t time.Time) Info {
	name := UTC
	if r != nil {
		if n, ok := r.Resolve(lat, lon); ok {
			name = n
		}
	}
	info, err := Describe(name, t)
	if err != nil {
		info, _ = Describe(UTC, t)
	}
	return info
}
