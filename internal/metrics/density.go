package metrics

import (
	"github.com/san-kum/scmodel/internal/galaxy"
	"github.com/san-kum/scmodel/internal/scm"
)

// ProbeDensity is the density of the total potential at a fixed point.
type ProbeDensity struct {
	name  string
	x     galaxy.Vec3
	value float64
}

func NewProbeDensity(x galaxy.Vec3) *ProbeDensity {
	return &ProbeDensity{name: "probe_density", x: x}
}

func (p *ProbeDensity) Name() string { return p.name }

func (p *ProbeDensity) Observe(s scm.Snapshot) {
	if s.Potential != nil {
		p.value = s.Potential.Density(p.x)
	}
}

func (p *ProbeDensity) Value() float64 { return p.value }
func (p *ProbeDensity) Reset()         { p.value = 0 }
