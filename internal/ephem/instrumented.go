package ephem

import (
	"context"
	"time"

	"github.com/litescript/ls-nightsky/internal/astro"
)

// Recorder receives one observation per source call.
type Recorder interface {
	ObserveEphemeris(source, body, op string, d time.Duration, err error)
}

// InstrumentedSource reports the latency and outcome of every call made to
// the wrapped source.
type InstrumentedSource struct {
	Source
	rec Recorder
}

// Instrument wraps src so that calls are reported to rec. A nil recorder
// returns src unchanged.
func Instrument(src Source, rec Recorder) Source {
	if rec == nil {
		return src
	}
	return &InstrumentedSource{Source: src, rec: rec}
}

// Compute implements Source.
func (s *InstrumentedSource) Compute(ctx context.Context, body Body, obs astro.Observer, t time.Time) (Geometry, error) {
	start := time.Now()
	g, err := s.Source.Compute(ctx, body, obs, t)
	s.rec.ObserveEphemeris(s.Source.Name(), string(body), "compute", time.Since(start), err)
	return g, err
}

// NextEvent implements Source.
func (s *InstrumentedSource) NextEvent(ctx context.Context, body Body, obs astro.Observer, t time.Time, ev Event) (time.Time, bool, error) {
	start := time.Now()
	when, ok, err := s.Source.NextEvent(ctx, body, obs, t, ev)
	s.rec.ObserveEphemeris(s.Source.Name(), string(body), ev.String(), time.Since(start), err)
	return when, ok, err
}
