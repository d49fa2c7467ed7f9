package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/scmodel/internal/analysis"
)

var palette = []string{"#00ff00", "#00bfff", "#ff8c00", "#ff1493", "#ffd700", "#9370db"}

const pad = 40

type series struct {
	label string
	color string
	x, y  []float64
}

// ProfileToSVG draws the total and per-component densities against radius
// on log-log axes. Non-positive samples are left out.
func ProfileToSVG(p *analysis.Profile, names []string, width, height int) string {
	if p == nil || len(p.Radii) < 2 {
		return ""
	}
	all := []series{{label: "total", color: "#ffffff", x: p.Radii, y: p.Total}}
	for i, comp := range p.Components {
		label := fmt.Sprintf("component %d", i)
		if i < len(names) {
			label = names[i]
		}
		all = append(all, series{label: label, color: palette[i%len(palette)], x: p.Radii, y: comp})
	}
	return plot(all, width, height, "log r", "log rho")
}

// ConvergenceToSVG draws the per-iteration potential change on a log axis.
func ConvergenceToSVG(changes []float64, width, height int) string {
	if len(changes) < 2 {
		return ""
	}
	x := make([]float64, len(changes))
	for i := range x {
		x[i] = float64(i + 1)
	}
	s := series{label: "change", color: palette[0], x: x, y: changes}
	return plotWith([]series{s}, width, height, "iteration", "log change", false)
}

func plot(all []series, width, height int, xlabel, ylabel string) string {
	return plotWith(all, width, height, xlabel, ylabel, true)
}

func plotWith(all []series, width, height int, xlabel, ylabel string, logX bool) string {
	tx := func(v float64) float64 {
		if logX {
			return math.Log10(v)
		}
		return v
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, s := range all {
		for k := range s.x {
			if !(s.y[k] > 0) || (logX && !(s.x[k] > 0)) {
				continue
			}
			x, y := tx(s.x[k]), math.Log10(s.y[k])
			minX, maxX = math.Min(minX, x), math.Max(maxX, x)
			minY, maxY = math.Min(minY, y), math.Max(maxY, y)
		}
	}
	if math.IsInf(minX, 0) || math.IsInf(minY, 0) {
		return ""
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	w := float64(width - 2*pad)
	h := float64(height - 2*pad)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g stroke="#444" stroke-width="1">
<line x1="%d" y1="%d" x2="%d" y2="%d"/>
<line x1="%d" y1="%d" x2="%d" y2="%d"/>
</g>
<g fill="#aaa" font-family="monospace" font-size="11">
<text x="%d" y="%d">%s [%.2g, %.2g]</text>
<text x="4" y="14">%s [%.2g, %.2g]</text>
</g>
`, width, height, width, height,
		pad, height-pad, width-pad, height-pad,
		pad, pad, pad, height-pad,
		pad, height-8, xlabel, minX, maxX,
		ylabel, minY, maxY))

	for i, s := range all {
		var path strings.Builder
		for k := range s.x {
			if !(s.y[k] > 0) || (logX && !(s.x[k] > 0)) {
				continue
			}
			x := pad + (tx(s.x[k])-minX)/rangeX*w
			y := float64(pad) + h - (math.Log10(s.y[k])-minY)/rangeY*h
			if path.Len() == 0 {
				path.WriteString(fmt.Sprintf("M%.1f,%.1f", x, y))
			} else {
				path.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		if path.Len() == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="%s"/>
<text x="%d" y="%d" fill="%s" font-family="monospace" font-size="11">%s</text>
`, s.color, path.String(), width-pad-100, pad+14*(i+1), s.color, s.label))
	}

	sb.WriteString("</svg>")
	return sb.String()
}
