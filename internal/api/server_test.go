package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/litescript/ls-nightsky/internal/astro"
	"github.com/litescript/ls-nightsky/internal/conditions"
	"github.com/litescript/ls-nightsky/internal/ephem"
	"github.com/litescript/ls-nightsky/internal/metrics"
	"github.com/litescript/ls-nightsky/internal/tz"
	"github.com/litescript/ls-nightsky/internal/version"
)

const queryTime = "2024-03-10T21:00:00Z"

// failingSource has no geometry for any body.
type failingSource struct{}

func (failingSource) Name() string { return "failing" }

func (failingSource) Compute(context.Context, ephem.Body, astro.Observer, time.Time) (ephem.Geometry, error) {
	return ephem.Geometry{}, errors.New("upstream down")
}

func (failingSource) NextEvent(context.Context, ephem.Body, astro.Observer, time.Time, ephem.Event) (time.Time, bool, error) {
	return time.Time{}, false, errors.New("upstream down")
}

func newTestServer(t *testing.T, src ephem.Source) (*httptest.Server, *prometheus.Registry) {
	t.Helper()
	eng, err := conditions.NewEngine(src, conditions.DefaultLocation)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}
	s := NewServer(Config{
		Engine:       eng,
		Zones:        tz.Fixed("Asia/Bahrain"),
		MaxMagnitude: 2.0,
		Metrics:      m,
		Gatherer:     reg,
	})
	ts := httptest.NewServer(s.Routes())
	t.Cleanup(ts.Close)
	return ts, reg
}

func get(t *testing.T, ts *httptest.Server, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return resp, body
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, ephem.NewBuiltinSource())

	resp, body := get(t, ts, "/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var h HealthResponse
	if err := json.Unmarshal(body, &h); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if h.Status != "ok" || h.Version != version.Version || h.Source != "builtin" {
		t.Errorf("health = %+v", h)
	}
	if h.Location != conditions.DefaultLocation {
		t.Errorf("location = %+v, want default", h.Location)
	}
}

func TestReport(t *testing.T) {
	ts, _ := newTestServer(t, ephem.NewBuiltinSource())

	resp, body := get(t, ts, "/v1/report?time="+queryTime)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}

	var out struct {
		ID       string `json:"id"`
		Timezone struct {
			Name string `json:"timezone_name"`
		} `json:"timezone"`
		Report struct {
			Time       time.Time `json:"time"`
			Source     string    `json:"source"`
			Conditions struct {
				Score float64 `json:"score"`
			} `json:"conditions"`
		} `json:"report"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ID == "" {
		t.Error("missing export id")
	}
	if out.Timezone.Name != "Asia/Bahrain" {
		t.Errorf("timezone = %q", out.Timezone.Name)
	}
	want, _ := time.Parse(time.RFC3339, queryTime)
	if !out.Report.Time.Equal(want) {
		t.Errorf("report time = %v, want %v", out.Report.Time, want)
	}
	if out.Report.Conditions.Score < 0 || out.Report.Conditions.Score > 100 {
		t.Errorf("score = %v out of range", out.Report.Conditions.Score)
	}
}

func TestQueryEndpoints(t *testing.T) {
	ts, _ := newTestServer(t, ephem.NewBuiltinSource())

	tests := []struct {
		path     string
		wantKeys []string
	}{
		{"/v1/moon?time=" + queryTime, []string{"phase", "illumination", "altitude"}},
		{"/v1/planets?time=" + queryTime, []string{"planets"}},
		{"/v1/conditions?time=" + queryTime + "&lat=40&lon=-105", []string{"score", "condition", "recommendation"}},
		{"/v1/timeline?time=" + queryTime + "&step=1h", []string{"night", "samples", "best"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := get(t, ts, tt.path)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, body %s", resp.StatusCode, body)
			}
			var m map[string]any
			if err := json.Unmarshal(body, &m); err != nil {
				t.Fatalf("decode: %v", err)
			}
			for _, k := range tt.wantKeys {
				if _, ok := m[k]; !ok {
					t.Errorf("response missing %q: %s", k, body)
				}
			}
		})
	}
}

func TestStars(t *testing.T) {
	ts, _ := newTestServer(t, ephem.NewBuiltinSource())

	resp, body := get(t, ts, "/v1/stars?time="+queryTime+"&max_mag=1.5&limit=3")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}
	var out StarsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.MaxMagnitude != 1.5 {
		t.Errorf("max_magnitude = %v", out.MaxMagnitude)
	}
	if len(out.Stars) > 3 || len(out.Stars) > out.Total {
		t.Errorf("got %d stars of %d, limit 3", len(out.Stars), out.Total)
	}
	for i, s := range out.Stars {
		if s.Magnitude > 1.5 {
			t.Errorf("%s magnitude %v above limit", s.Name, s.Magnitude)
		}
		if i > 0 && s.Magnitude < out.Stars[i-1].Magnitude {
			t.Errorf("stars not brightest first at %d", i)
		}
	}
}

func TestValidationErrors(t *testing.T) {
	ts, _ := newTestServer(t, ephem.NewBuiltinSource())

	tests := []string{
		"/v1/moon?lat=10",
		"/v1/moon?lat=95&lon=0",
		"/v1/moon?lat=abc&lon=0",
		"/v1/moon?time=yesterday",
		"/v1/stars?max_mag=bright",
		"/v1/stars?limit=-1",
		"/v1/timeline?step=-30m",
	}

	for _, path := range tests {
		t.Run(path, func(t *testing.T) {
			resp, body := get(t, ts, path)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (%s)", resp.StatusCode, body)
			}
			var e ErrorResponse
			if err := json.Unmarshal(body, &e); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if e.Error.Code != ErrCodeValidation || e.Error.Message == "" {
				t.Errorf("error = %+v", e.Error)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer(t, ephem.NewBuiltinSource())

	resp, err := http.Post(ts.URL+"/v1/report", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestGeometryFailure(t *testing.T) {
	ts, _ := newTestServer(t, failingSource{})

	resp, body := get(t, ts, "/v1/conditions?time="+queryTime)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502 (%s)", resp.StatusCode, body)
	}
	var e ErrorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e.Error.Code != ErrCodeGeometry {
		t.Errorf("code = %q, want %q", e.Error.Code, ErrCodeGeometry)
	}
}

func TestRequestLocationDoesNotMoveServer(t *testing.T) {
	ts, _ := newTestServer(t, ephem.NewBuiltinSource())

	if resp, body := get(t, ts, "/v1/moon?lat=-33.9&lon=151.2&time="+queryTime); resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}

	_, body := get(t, ts, "/healthz")
	var h HealthResponse
	if err := json.Unmarshal(body, &h); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if h.Location != conditions.DefaultLocation {
		t.Errorf("server location moved to %+v", h.Location)
	}
}

func TestServer_SetLocation(t *testing.T) {
	eng, err := conditions.NewEngine(ephem.NewBuiltinSource(), conditions.DefaultLocation)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	s := NewServer(Config{Engine: eng})
	ts := httptest.NewServer(s.Routes())
	defer ts.Close()

	if err := s.SetLocation(91, 0); !errors.Is(err, conditions.ErrInvalidLocation) {
		t.Errorf("SetLocation(91, 0) = %v, want ErrInvalidLocation", err)
	}
	if err := s.SetLocation(-33.9, 151.2); err != nil {
		t.Fatalf("SetLocation: %v", err)
	}

	_, body := get(t, ts, "/healthz")
	var h HealthResponse
	if err := json.Unmarshal(body, &h); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if h.Location.Latitude != -33.9 || h.Location.Longitude != 151.2 {
		t.Errorf("location = %+v, want -33.9, 151.2", h.Location)
	}
	if resp, _ := get(t, ts, "/metrics"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("/metrics status = %d without a gatherer, want 404", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, ephem.NewBuiltinSource())

	get(t, ts, "/v1/moon?time="+queryTime)
	get(t, ts, "/v1/moon?lat=99&lon=0")

	resp, body := get(t, ts, "/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	for _, want := range []string{
		`nightsky_queries_total{query="moon",status="success"} 1`,
		`nightsky_queries_total{query="moon",status="failure"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{conditions.ErrInvalidLocation, http.StatusBadRequest, ErrCodeValidation},
		{conditions.ErrInvalidWindow, http.StatusBadRequest, ErrCodeValidation},
		{&conditions.GeometryError{Body: ephem.Moon, Err: ephem.ErrNoData}, http.StatusBadGateway, ErrCodeGeometry},
		{context.DeadlineExceeded, http.StatusServiceUnavailable, ErrCodeUnavailable},
		{errors.New("boom"), http.StatusInternalServerError, ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, code := classify(tt.err)
			if status != tt.wantStatus || code != tt.wantCode {
				t.Errorf("classify = %d %q, want %d %q", status, code, tt.wantStatus, tt.wantCode)
			}
		})
	}
}
