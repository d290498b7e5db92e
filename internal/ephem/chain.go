package ephem

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/litescript/ls-nightsky/internal/astro"
)

// FallbackSource tries each source in order and returns the first success.
// It backs ModeAuto: local computation first, the network only for bodies
// the local source cannot handle.
type FallbackSource struct {
	Sources []Source
}

// NewFallbackSource creates a source that falls through srcs in order.
func NewFallbackSource(srcs ...Source) *FallbackSource {
	return &FallbackSource{Sources: srcs}
}

// Name implements Source.
func (f *FallbackSource) Name() string {
	names := make([]string, len(f.Sources))
	for i, s := range f.Sources {
		names[i] = s.Name()
	}
	return strings.Join(names, "+")
}

// Compute implements Source.
func (f *FallbackSource) Compute(ctx context.Context, body Body, obs astro.Observer, t time.Time) (Geometry, error) {
	var errs []error
	for _, s := range f.Sources {
		g, err := s.Compute(ctx, body, obs, t)
		if err == nil {
			return g, nil
		}
		if ctx.Err() != nil {
			return Geometry{}, ctx.Err()
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
	}
	return Geometry{}, joinSourceErrors(body, errs)
}

// NextEvent implements Source.
func (f *FallbackSource) NextEvent(ctx context.Context, body Body, obs astro.Observer, t time.Time, ev Event) (time.Time, bool, error) {
	var errs []error
	for _, s := range f.Sources {
		when, ok, err := s.NextEvent(ctx, body, obs, t, ev)
		if err == nil {
			return when, ok, nil
		}
		if ctx.Err() != nil {
			return time.Time{}, false, ctx.Err()
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
	}
	return time.Time{}, false, joinSourceErrors(body, errs)
}

func joinSourceErrors(body Body, errs []error) error {
	if len(errs) == 0 {
		return fmt.Errorf("%w: no sources configured for %s", ErrNoData, body)
	}
	return errors.Join(errs...)
}
