package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/reactorsim/internal/trajectory"
)

// Fields that PlotTrajectory can draw.
var Fields = []string{"pressure", "temperature", "volume", "tracked"}

func field(s trajectory.Sample, name string) (float64, error) {
	switch name {
	case "pressure":
		return s.Pressure, nil
	case "temperature":
		return s.Temperature, nil
	case "volume":
		return s.Volume, nil
	case "tracked":
		return s.Tracked, nil
	}
	return 0, fmt.Errorf("unknown field %q (want one of %s)", name, strings.Join(Fields, ", "))
}

// PlotTrajectory renders one sample field against sample index.
func PlotTrajectory(samples []trajectory.Sample, name string, width, height int) (string, error) {
	if len(samples) == 0 {
		return "", fmt.Errorf("no samples to plot")
	}
	data := make([]float64, len(samples))
	for i, s := range samples {
		v, err := field(s, name)
		if err != nil {
			return "", err
		}
		data[i] = v
	}
	caption := fmt.Sprintf("%s, t = %.4g .. %.4g s", name, samples[0].Time, samples[len(samples)-1].Time)
	return asciigraph.Plot(data,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Caption(caption),
	), nil
}
