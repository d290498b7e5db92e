// Package metrics provides Prometheus metrics for ephemeris calls and
// observing condition queries.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/litescript/ls-nightsky/internal/conditions"
	"github.com/litescript/ls-nightsky/internal/ephem"
)

// Metric names.
const (
	MetricEphemerisRequestsTotal   = "nightsky_ephemeris_requests_total"
	MetricEphemerisRequestDuration = "nightsky_ephemeris_request_duration_seconds"
	MetricQueriesTotal             = "nightsky_queries_total"
	MetricPlanetWarningsTotal      = "nightsky_planet_warnings_total"
	MetricObservingScore           = "nightsky_observing_score"
	MetricMoonIllumination         = "nightsky_moon_illumination_percent"
	MetricVisiblePlanets           = "nightsky_visible_planets"
	MetricVisibleStars             = "nightsky_visible_stars"
)

// Status label values.
const (
	StatusSuccess     = "success"
	StatusFailure     = "failure"
	StatusUnsupported = "unsupported"
	StatusNoData      = "no_data"
)

// Metrics contains the Prometheus collectors. All methods are safe for
// concurrent use.
type Metrics struct {
	ephemerisTotal    *prometheus.CounterVec
	ephemerisDuration *prometheus.HistogramVec
	queriesTotal      *prometheus.CounterVec
	planetWarnings    *prometheus.CounterVec
	score             prometheus.Gauge
	moonIllumination  prometheus.Gauge
	visiblePlanets    prometheus.Gauge
	visibleStars      prometheus.Gauge
}

// NewMetrics creates the collectors. They are not registered; call Register.
func NewMetrics() *Metrics {
	return &Metrics{
		ephemerisTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricEphemerisRequestsTotal,
				Help: "Ephemeris source calls by source, body, operation and status",
			},
			[]string{"source", "body", "op", "status"},
		),
		ephemerisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricEphemerisRequestDuration,
				Help:    "Ephemeris source call latency in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"source", "op"},
		),
		queriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricQueriesTotal,
				Help: "Engine queries by kind and status",
			},
			[]string{"query", "status"},
		),
		planetWarnings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricPlanetWarningsTotal,
				Help: "Planets skipped because their geometry was unavailable",
			},
			[]string{"body"},
		),
		score: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricObservingScore,
			Help: "Most recent observing score (0-100)",
		}),
		moonIllumination: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricMoonIllumination,
			Help: "Most recent moon illumination in percent",
		}),
		visiblePlanets: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricVisiblePlanets,
			Help: "Planets above the horizon in the most recent report",
		}),
		visibleStars: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricVisibleStars,
			Help: "Catalog stars visible in the most recent report",
		}),
	}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ephemerisTotal,
		m.ephemerisDuration,
		m.queriesTotal,
		m.planetWarnings,
		m.score,
		m.moonIllumination,
		m.visiblePlanets,
		m.visibleStars,
	}
}

// ObserveEphemeris implements ephem.Recorder.
func (m *Metrics) ObserveEphemeris(source, body, op string, d time.Duration, err error) {
	m.ephemerisTotal.WithLabelValues(source, body, op, ephemerisStatus(err)).Inc()
	m.ephemerisDuration.WithLabelValues(source, op).Observe(d.Seconds())
}

func ephemerisStatus(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ephem.ErrUnsupportedBody):
		return StatusUnsupported
	case errors.Is(err, ephem.ErrNoData):
		return StatusNoData
	default:
		return StatusFailure
	}
}

// IncQuery counts one engine query.
func (m *Metrics) IncQuery(query string, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	m.queriesTotal.WithLabelValues(query, status).Inc()
}

// ObserveReport updates the gauges from a completed report.
func (m *Metrics) ObserveReport(r conditions.Report) {
	m.score.Set(r.Conditions.Score)
	m.moonIllumination.Set(r.Moon.Illumination)
	m.visiblePlanets.Set(float64(len(r.Planets.Planets)))
	m.visibleStars.Set(float64(len(r.Stars)))
	for _, w := range r.Planets.Warnings {
		m.planetWarnings.WithLabelValues(string(w.Body)).Inc()
	}
}
