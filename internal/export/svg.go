// Package export renders stored trajectories as standalone SVG charts.
package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/reactorsim/internal/trajectory"
)

// Axis selects the quantity drawn on one axis of a chart.
type Axis struct {
	Name  string
	Value func(trajectory.Sample) float64
	Log   bool
}

var (
	TimeAxis        = Axis{Name: "t [s]", Value: func(s trajectory.Sample) float64 { return s.Time }}
	VolumeAxis      = Axis{Name: "V [m3]", Value: func(s trajectory.Sample) float64 { return s.Volume }}
	PressureAxis    = Axis{Name: "p [Pa]", Value: func(s trajectory.Sample) float64 { return s.Pressure }, Log: true}
	TemperatureAxis = Axis{Name: "T [K]", Value: func(s trajectory.Sample) float64 { return s.Temperature }}
	TrackedAxis     = Axis{Name: "tracked fraction", Value: func(s trajectory.Sample) float64 { return s.Tracked }}
)

// Chart is the layout of one SVG.
type Chart struct {
	Width, Height int
	Stroke        string
	Background    string
}

func DefaultChart() Chart {
	return Chart{Width: 640, Height: 480, Stroke: "#00ff00", Background: "#0a0a0a"}
}

const margin = 48

// WriteSVG draws y against x for every sample as one path. Samples with a
// non-positive value on a log axis are skipped.
func (c Chart) WriteSVG(w io.Writer, samples []trajectory.Sample, x, y Axis) error {
	type point struct{ X, Y float64 }
	tr := func(a Axis, v float64) (float64, bool) {
		if a.Log {
			if !(v > 0) {
				return 0, false
			}
			return math.Log10(v), true
		}
		return v, true
	}

	points := make([]point, 0, len(samples))
	for _, s := range samples {
		px, okx := tr(x, x.Value(s))
		py, oky := tr(y, y.Value(s))
		if okx && oky {
			points = append(points, point{px, py})
		}
	}
	if len(points) < 2 {
		return fmt.Errorf("export: need at least 2 plottable samples, have %d", len(points))
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}

	plotW := float64(c.Width - 2*margin)
	plotH := float64(c.Height - 2*margin)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<g stroke="#808080" fill="none"><rect x="%d" y="%d" width="%.0f" height="%.0f"/></g>
`, c.Width, c.Height, c.Width, c.Height, c.Background, margin, margin, plotW, plotH)

	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, c.Stroke)
	for i, p := range points {
		px := margin + (p.X-minX)/rangeX*plotW
		py := margin + plotH - (p.Y-minY)/rangeY*plotH
		if i == 0 {
			fmt.Fprintf(&sb, "M%.1f,%.1f", px, py)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", px, py)
		}
	}
	sb.WriteString("\"/>\n")

	label := func(a Axis, lo, hi float64) string {
		if a.Log {
			return fmt.Sprintf("%s  %.3g .. %.3g (log)", a.Name, math.Pow(10, lo), math.Pow(10, hi))
		}
		return fmt.Sprintf("%s  %.3g .. %.3g", a.Name, lo, hi)
	}
	fmt.Fprintf(&sb, `<g fill="#c0c0c0" font-family="monospace" font-size="12">
<text x="%d" y="%d">%s</text>
<text x="%d" y="%d">%s</text>
</g>
</svg>
`, margin, c.Height-margin/3, label(x, minX, maxX), margin, margin*2/3, label(y, minY, maxY))

	_, err := io.WriteString(w, sb.String())
	return err
}

// Axes maps the names accepted on the command line to axes.
var Axes = map[string]Axis{
	"time":        TimeAxis,
	"volume":      VolumeAxis,
	"pressure":    PressureAxis,
	"temperature": TemperatureAxis,
	"tracked":     TrackedAxis,
}
