package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/litescript/ls-nightsky/internal/conditions"
)

// ErrTooFewSamples is returned when a timeline cannot be drawn as a line.
var ErrTooFewSamples = errors.New("timeline chart needs at least two samples")

// conditionBands are drawn as horizontal guides on the score axis.
var conditionBands = []struct {
	score float64
	name  string
	color drawing.Color
}{
	{80, "Excellent", drawing.Color{R: 46, G: 139, B: 87, A: 180}},
	{50, "Good", drawing.Color{R: 218, G: 165, B: 32, A: 180}},
	{20, "Poor", drawing.Color{R: 205, G: 92, B: 92, A: 180}},
}

// WriteTimelineChart renders the score timeline as a PNG. Times on the
// x axis are shown in loc.
func WriteTimelineChart(w io.Writer, samples []conditions.TimelineSample, loc *time.Location) error {
	if len(samples) < 2 {
		return ErrTooFewSamples
	}
	if loc == nil {
		loc = time.UTC
	}

	xValues := make([]time.Time, len(samples))
	scores := make([]float64, len(samples))
	moonAlt := make([]float64, len(samples))
	for i, s := range samples {
		xValues[i] = s.Time
		scores[i] = s.Score
		moonAlt[i] = s.MoonAltitude
	}

	graph := chart.Chart{
		Title: fmt.Sprintf("Observing Score %s", samples[0].Time.In(loc).Format("2006-01-02")),
		TitleStyle: chart.Style{
			FontSize:  16,
			FontColor: drawing.ColorBlack,
		},
		Background: chart.Style{
			Padding: chart.Box{
				Top:    40,
				Left:   70,
				Right:  70,
				Bottom: 60,
			},
		},
		Height: 400,
		Width:  800,
		XAxis: chart.XAxis{
			Name: fmt.Sprintf("Time (%s)", loc),
			NameStyle: chart.Style{
				FontSize: 12,
			},
			Style: chart.Style{
				FontSize: 9,
			},
			ValueFormatter: func(v interface{}) string {
				switch t := v.(type) {
				case time.Time:
					return t.In(loc).Format("15:04")
				case float64:
					return time.Unix(0, int64(t)).In(loc).Format("15:04")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			Name: "Score",
			NameStyle: chart.Style{
				FontSize: 12,
			},
			Style: chart.Style{
				FontSize: 10,
			},
			Range: &chart.ContinuousRange{
				Min: 0,
				Max: 100,
			},
		},
		YAxisSecondary: chart.YAxis{
			Name: "Moon Altitude (°)",
			NameStyle: chart.Style{
				FontSize: 12,
			},
			Style: chart.Style{
				FontSize: 10,
			},
			Range: &chart.ContinuousRange{
				Min: -90,
				Max: 90,
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:  "Score",
				YAxis: chart.YAxisPrimary,
				Style: chart.Style{
					StrokeColor: drawing.Color{R: 51, G: 102, B: 204, A: 255},
					StrokeWidth: 3,
					DotColor:    drawing.Color{R: 51, G: 102, B: 204, A: 255},
					DotWidth:    4,
				},
				XValues: xValues,
				YValues: scores,
			},
			chart.TimeSeries{
				Name:  "Moon Altitude",
				YAxis: chart.YAxisSecondary,
				Style: chart.Style{
					StrokeColor:     drawing.Color{R: 128, G: 128, B: 128, A: 255},
					StrokeWidth:     2,
					StrokeDashArray: []float64{5.0, 5.0},
				},
				XValues: xValues,
				YValues: moonAlt,
			},
		},
	}

	first, last := xValues[0], xValues[len(xValues)-1]
	for _, band := range conditionBands {
		graph.Series = append(graph.Series, chart.TimeSeries{
			Name: band.name,
			Style: chart.Style{
				StrokeColor:     band.color,
				StrokeWidth:     1,
				StrokeDashArray: []float64{2.0, 4.0},
			},
			XValues: []time.Time{first, last},
			YValues: []float64{band.score, band.score},
		})
	}

	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render timeline chart: %w", err)
	}
	return nil
}

// SaveTimelineChart writes the PNG to path.
func SaveTimelineChart(path string, samples []conditions.TimelineSample, loc *time.Location) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create timeline chart file: %w", err)
	}
	if err := WriteTimelineChart(f, samples, loc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
