package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/scmodel/internal/analysis"
)

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.White,
	asciigraph.Green,
	asciigraph.DeepSkyBlue,
	asciigraph.DarkOrange,
	asciigraph.HotPink,
	asciigraph.Gold,
}

// log10Series maps values to log10, carrying the previous finite value over
// non-positive samples so every series keeps the same length.
func log10Series(values []float64) ([]float64, bool) {
	out := make([]float64, len(values))
	last := math.NaN()
	for i, v := range values {
		if v > 0 {
			last = math.Log10(v)
		}
		out[i] = last
	}
	first := math.NaN()
	for _, v := range out {
		if !math.IsNaN(v) {
			first = v
			break
		}
	}
	if math.IsNaN(first) {
		return nil, false
	}
	for i := range out {
		if math.IsNaN(out[i]) {
			out[i] = first
		}
	}
	return out, true
}

// PlotProfile charts log10 density against log radius for the total and
// every component with a positive sample.
func PlotProfile(p *analysis.Profile, names []string, width, height int) string {
	if p == nil || len(p.Radii) < 2 {
		return ""
	}

	var data [][]float64
	var colors []asciigraph.AnsiColor
	var legend []string
	add := func(label string, values []float64) {
		s, ok := log10Series(values)
		if !ok {
			return
		}
		data = append(data, s)
		colors = append(colors, seriesColors[len(legend)%len(seriesColors)])
		legend = append(legend, label)
	}

	add("total", p.Total)
	for i, comp := range p.Components {
		label := fmt.Sprintf("component %d", i)
		if i < len(names) {
			label = names[i]
		}
		add(label, comp)
	}
	if len(data) == 0 {
		return ""
	}

	caption := fmt.Sprintf("log10 rho, r from %.3g to %.3g (log)", p.Radii[0], p.Radii[len(p.Radii)-1])
	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(legend...),
		asciigraph.Caption(caption),
	)
}

// PlotPotential charts the potential and circular velocity profiles.
func PlotPotential(p *analysis.Profile, width, height int) string {
	if p == nil || len(p.Radii) < 2 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(asciigraph.Plot(p.Potential,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("potential"),
	))
	sb.WriteString("\n\n")
	sb.WriteString(asciigraph.Plot(p.CircularVelocity,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("circular velocity"),
	))
	return sb.String()
}

// PlotConvergence charts log10 of the per-iteration potential change.
func PlotConvergence(changes []float64, width, height int) string {
	s, ok := log10Series(changes)
	if !ok {
		return ""
	}
	if len(s) == 1 {
		s = append(s, s[0])
	}
	return asciigraph.Plot(s,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("log10 potential change per iteration"),
	)
}
