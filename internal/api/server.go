package api

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/litescript/ls-nightsky/internal/conditions"
	"github.com/litescript/ls-nightsky/internal/logging"
	"github.com/litescript/ls-nightsky/internal/metrics"
	"github.com/litescript/ls-nightsky/internal/report"
	"github.com/litescript/ls-nightsky/internal/tz"
	"github.com/litescript/ls-nightsky/internal/version"
)

// DefaultQueryTimeout bounds a single request's ephemeris work.
const DefaultQueryTimeout = 90 * time.Second

// Config wires a Server.
type Config struct {
	Engine       *conditions.Engine
	Zones        tz.Resolver
	MaxMagnitude float64
	Metrics      *metrics.Metrics
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer     prometheus.Gatherer
	Log          *logging.Logger
	QueryTimeout time.Duration
}

// Server answers observing queries for the engine's location, or for the
// lat/lon given on the request.
type Server struct {
	mu      sync.Mutex // guards engine
	engine  *conditions.Engine
	zones   tz.Resolver
	maxMag  float64
	metrics *metrics.Metrics
	gather  prometheus.Gatherer
	log     *logging.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewServer creates a server.
func NewServer(cfg Config) *Server {
	log := cfg.Log
	if log == nil {
		log = logging.Discard()
	}
	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	zones := cfg.Zones
	if zones == nil {
		zones = tz.Fixed(tz.UTC)
	}
	return &Server{
		engine:  cfg.Engine,
		zones:   zones,
		maxMag:  cfg.MaxMagnitude,
		metrics: cfg.Metrics,
		gather:  cfg.Gatherer,
		log:     log,
		timeout: timeout,
		now:     time.Now,
	}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/report", s.handleReport)
	mux.HandleFunc("GET /v1/moon", s.handleMoon)
	mux.HandleFunc("GET /v1/planets", s.handlePlanets)
	mux.HandleFunc("GET /v1/stars", s.handleStars)
	mux.HandleFunc("GET /v1/conditions", s.handleConditions)
	mux.HandleFunc("GET /v1/timeline", s.handleTimeline)
	if s.gather != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gather, promhttp.HandlerOpts{}))
	}
	return s.logRequests(mux)
}

// SetLocation moves the default location used when a request has no
// lat/lon.
func (s *Server) SetLocation(lat, lon float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.SetLocation(lat, lon)
}

// query holds the parsed common parameters.
type query struct {
	engine *conditions.Engine
	at     time.Time
}

// parseQuery reads lat, lon and time. The returned engine is a private
// copy, moved to lat/lon when both are given.
func (s *Server) parseQuery(r *http.Request) (query, error) {
	s.mu.Lock()
	eng := s.engine.Snapshot()
	s.mu.Unlock()

	q := query{engine: eng}
	v := r.URL.Query()

	latStr, lonStr := v.Get("lat"), v.Get("lon")
	if (latStr == "") != (lonStr == "") {
		return q, fmt.Errorf("%w: lat and lon must be given together", errValidation)
	}
	if latStr != "" {
		lat, err := parseFloat("lat", latStr)
		if err != nil {
			return q, err
		}
		lon, err := parseFloat("lon", lonStr)
		if err != nil {
			return q, err
		}
		if err := eng.SetLocation(lat, lon); err != nil {
			return q, err
		}
	}

	if ts := v.Get("time"); ts != "" {
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return q, fmt.Errorf("%w: time %q is not RFC3339", errValidation, ts)
		}
		q.at = t
	} else {
		q.at = s.now()
	}
	return q, nil
}

func parseFloat(name, s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s %q is not a number", errValidation, name, s)
	}
	return f, nil
}

func (s *Server) maxMagnitude(r *http.Request) (float64, error) {
	v := r.URL.Query().Get("max_mag")
	if v == "" {
		return s.maxMag, nil
	}
	return parseFloat("max_mag", v)
}

func (s *Server) zone(eng *conditions.Engine, t time.Time) tz.Info {
	loc := eng.Location()
	return tz.Lookup(s.zones, loc.Latitude, loc.Longitude, t)
}

// run parses the request, runs fn under the query timeout and writes its
// result or error.
func (s *Server) run(w http.ResponseWriter, r *http.Request, name string, fn func(ctx context.Context, q query) (any, error)) {
	q, err := s.parseQuery(r)
	if err == nil {
		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()
		var out any
		out, err = fn(ctx, q)
		if err == nil {
			s.incQuery(name, nil)
			writeJSON(w, s.log, http.StatusOK, out)
			return
		}
	}
	s.incQuery(name, err)
	writeError(w, s.log, err)
}

func (s *Server) incQuery(name string, err error) {
	if s.metrics != nil {
		s.metrics.IncQuery(name, err)
	}
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status   string              `json:"status"`
	Version  string              `json:"version"`
	Source   string              `json:"source"`
	Location conditions.Location `json:"location"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := HealthResponse{
		Status:   "ok",
		Version:  version.Version,
		Source:   s.engine.SourceName(),
		Location: s.engine.Location(),
	}
	s.mu.Unlock()
	writeJSON(w, s.log, http.StatusOK, resp)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, "report", func(ctx context.Context, q query) (any, error) {
		maxMag, err := s.maxMagnitude(r)
		if err != nil {
			return nil, err
		}
		rep, err := q.engine.Report(ctx, q.at, maxMag)
		if err != nil {
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.ObserveReport(rep)
		}
		return report.NewExport(rep, s.zone(q.engine, rep.Time), s.now()), nil
	})
}

func (s *Server) handleMoon(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, "moon", func(ctx context.Context, q query) (any, error) {
		return q.engine.MoonState(ctx, q.at)
	})
}

func (s *Server) handlePlanets(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, "planets", func(ctx context.Context, q query) (any, error) {
		return q.engine.VisiblePlanets(ctx, q.at)
	})
}

// StarsResponse is the body of /v1/stars.
type StarsResponse struct {
	MaxMagnitude float64     `json:"max_magnitude"`
	Total        int         `json:"total"`
	Stars        []StarEntry `json:"stars"`
}

// StarEntry is one visible star.
type StarEntry struct {
	Name          string  `json:"name"`
	Constellation string  `json:"constellation"`
	Magnitude     float64 `json:"magnitude"`
}

func (s *Server) handleStars(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, "stars", func(ctx context.Context, q query) (any, error) {
		maxMag, err := s.maxMagnitude(r)
		if err != nil {
			return nil, err
		}
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			limit, err = strconv.Atoi(v)
			if err != nil || limit < 0 {
				return nil, fmt.Errorf("%w: limit %q", errValidation, v)
			}
		}

		stars, err := q.engine.VisibleStars(ctx, q.at, maxMag)
		if err != nil {
			return nil, err
		}
		resp := StarsResponse{MaxMagnitude: maxMag, Total: len(stars), Stars: []StarEntry{}}
		if limit > 0 && len(stars) > limit {
			stars = stars[:limit]
		}
		for _, st := range stars {
			resp.Stars = append(resp.Stars, StarEntry{Name: st.Name, Constellation: st.Constellation, Magnitude: st.Mag})
		}
		return resp, nil
	})
}

func (s *Server) handleConditions(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, "conditions", func(ctx context.Context, q query) (any, error) {
		return q.engine.ObservingConditions(ctx, q.at)
	})
}

// TimelineResponse is the body of /v1/timeline.
type TimelineResponse struct {
	Night   conditions.Night            `json:"night"`
	Samples []conditions.TimelineSample `json:"samples"`
	Best    *conditions.TimelineSample  `json:"best,omitempty"`
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, "timeline", func(ctx context.Context, q query) (any, error) {
		step := conditions.DefaultTimelineStep
		if v := r.URL.Query().Get("step"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d <= 0 {
				return nil, fmt.Errorf("%w: step %q", errValidation, v)
			}
			step = d
		}
		night, samples, err := q.engine.TonightTimeline(ctx, q.at, step)
		if err != nil {
			return nil, err
		}
		resp := TimelineResponse{Night: night, Samples: samples}
		if best, ok := conditions.Best(samples); ok {
			resp.Best = &best
		}
		return resp, nil
	})
}

// statusRecorder captures the status code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Microsecond))
	})
}
