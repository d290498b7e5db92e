package report

import (
	"io"
	"math"
	"sort"
	"strings"

	"github.com/litescript/ls-nightsky/internal/conditions"
)

// Kind is the class of a plotted body.
type Kind int

const (
	KindEmpty Kind = iota
	KindHorizon
	KindCardinal
	KindStar
	KindBrightStar
	KindPlanet
	KindMoon
	KindLabel
)

// ASCII glyphs used by the plain chart.
var kindGlyphs = map[Kind]rune{
	KindEmpty:      ' ',
	KindHorizon:    '-',
	KindStar:       '+',
	KindBrightStar: '*',
	KindPlanet:     'o',
	KindMoon:       '@',
}

// brightStarMag separates '*' from '+'.
const brightStarMag = 1.0

// Marker is a body to plot at a horizontal position.
type Marker struct {
	Label string
	Kind  Kind
	Az    float64
	El    float64
	Mag   float64
}

// Markers collects the bodies above the horizon in a report: stars, then
// planets, then the Moon, so the Moon is drawn last.
func Markers(r conditions.Report) []Marker {
	var out []Marker
	for _, s := range r.Stars {
		kind := KindStar
		if s.Mag < brightStarMag {
			kind = KindBrightStar
		}
		out = append(out, Marker{Label: s.Name, Kind: kind, Az: s.Azimuth, El: s.Altitude, Mag: s.Mag})
	}
	for _, p := range r.Planets.Planets {
		out = append(out, Marker{Label: string(p.Name), Kind: KindPlanet, Az: p.Azimuth, El: p.Altitude, Mag: p.Magnitude})
	}
	if r.Moon.Altitude > 0 {
		out = append(out, Marker{Label: "Moon", Kind: KindMoon, Az: r.Moon.Azimuth, El: r.Moon.Altitude, Mag: -12})
	}
	return out
}

// Cell is one character of a sky grid.
type Cell struct {
	Rune rune
	Kind Kind
}

// Grid is a rectangular projection of the whole sky: azimuth 0-360 across,
// altitude 90 at the top down to the horizon on the last row.
type Grid struct {
	Width  int
	Height int
	Cells  [][]Cell
}

// Project maps a horizontal position to grid coordinates. ok is false for
// bodies at or below the horizon.
func Project(az, el float64, width, height int) (x, y int, ok bool) {
	if el <= 0 || el > 90 || width <= 0 || height < 2 {
		return 0, 0, false
	}
	az = math.Mod(az, 360)
	if az < 0 {
		az += 360
	}
	horizonY := height - 1
	x = int(az / 360 * float64(width))
	y = int((90 - el) / 90 * float64(horizonY))
	if x >= width {
		x = width - 1
	}
	if y >= horizonY {
		y = horizonY - 1
	}
	return x, y, true
}

// Plot draws markers on a width x height grid. Planet and Moon labels are
// written to the right of their glyph where the cells are free.
func Plot(markers []Marker, width, height int) Grid {
	g := Grid{Width: width, Height: height, Cells: make([][]Cell, height)}
	for y := range g.Cells {
		g.Cells[y] = make([]Cell, width)
		for x := range g.Cells[y] {
			g.Cells[y][x] = Cell{Rune: ' ', Kind: KindEmpty}
		}
	}
	if width <= 0 || height < 2 {
		return g
	}

	horizonY := height - 1
	for x := 0; x < width; x++ {
		g.Cells[horizonY][x] = Cell{Rune: kindGlyphs[KindHorizon], Kind: KindHorizon}
	}
	for _, c := range []struct {
		label rune
		az    float64
	}{{'N', 0}, {'E', 90}, {'S', 180}, {'W', 270}} {
		x := int(c.az / 360 * float64(width))
		g.Cells[horizonY][x] = Cell{Rune: c.label, Kind: KindCardinal}
	}

	// Fainter first, so brighter bodies overwrite on collisions.
	sorted := make([]Marker, len(markers))
	copy(sorted, markers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return drawOrder(sorted[i]) < drawOrder(sorted[j])
	})

	type labelled struct {
		x, y  int
		label string
	}
	var labels []labelled
	for _, m := range sorted {
		x, y, ok := Project(m.Az, m.El, width, height)
		if !ok {
			continue
		}
		g.Cells[y][x] = Cell{Rune: kindGlyphs[m.Kind], Kind: m.Kind}
		if m.Kind == KindPlanet || m.Kind == KindMoon {
			labels = append(labels, labelled{x, y, shortLabel(m.Label)})
		}
	}

	for _, l := range labels {
		start := l.x + 1
		if start+len(l.label) > width {
			continue
		}
		free := true
		for i := range l.label {
			if g.Cells[l.y][start+i].Kind != KindEmpty {
				free = false
				break
			}
		}
		if !free {
			continue
		}
		for i, r := range l.label {
			g.Cells[l.y][start+i] = Cell{Rune: r, Kind: KindLabel}
		}
	}
	return g
}

func drawOrder(m Marker) float64 {
	switch m.Kind {
	case KindMoon:
		return 2000
	case KindPlanet:
		return 1000 - m.Mag
	default:
		return -m.Mag
	}
}

func shortLabel(name string) string {
	if len(name) <= 2 {
		return name
	}
	return name[:2]
}

// String renders the grid as plain text.
func (g Grid) String() string {
	var b strings.Builder
	for y, row := range g.Cells {
		for _, c := range row {
			b.WriteRune(c.Rune)
		}
		if y < len(g.Cells)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// WriteSkyChart writes an ASCII chart of the report's visible bodies with
// a legend.
func WriteSkyChart(w io.Writer, r conditions.Report, width, height int) {
	section(w, "SKY CHART")
	io.WriteString(w, Plot(Markers(r), width, height).String())
	io.WriteString(w, "\n@ Moon  o planet  * star brighter than mag 1  + star\n")
}
