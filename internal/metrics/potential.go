package metrics

import (
	"math"

	"github.com/san-kum/scmodel/internal/scm"
)

// PotentialChange is the maximum relative change of the potential at a set
// of radii between consecutive snapshots. Until two snapshots have been
// seen its value is 1.
type PotentialChange struct {
	name     string
	radii    []float64
	prev     []float64
	change   float64
	history  []float64
	observed int
}

func NewPotentialChange(radii []float64) *PotentialChange {
	return &PotentialChange{
		name:   "potential_change",
		radii:  radii,
		change: 1,
	}
}

func (p *PotentialChange) Name() string { return p.name }

func (p *PotentialChange) Observe(s scm.Snapshot) {
	if s.Potential == nil {
		return
	}
	cur := make([]float64, len(p.radii))
	for i, r := range p.radii {
		cur[i] = s.Potential.Value(diagonal(r))
	}

	if p.prev != nil {
		maxChange := 0.0
		for i := range cur {
			d := math.Abs(cur[i] - p.prev[i])
			if p.prev[i] != 0 {
				d /= math.Abs(p.prev[i])
			}
			maxChange = math.Max(maxChange, d)
		}
		p.change = maxChange
		p.history = append(p.history, maxChange)
	}
	p.prev = cur
	p.observed++
}

func (p *PotentialChange) Value() float64 { return p.change }

// History returns the change recorded for every snapshot after the first.
func (p *PotentialChange) History() []float64 {
	out := make([]float64, len(p.history))
	copy(out, p.history)
	return out
}

// Ready reports whether at least two snapshots were compared.
func (p *PotentialChange) Ready() bool { return p.observed > 1 }

func (p *PotentialChange) Reset() {
	p.prev = nil
	p.change = 1
	p.history = nil
	p.observed = 0
}

// CentralPotential is the potential at a small radius r.
type CentralPotential struct {
	name  string
	r     float64
	value float64
}

func NewCentralPotential(r float64) *CentralPotential {
	return &CentralPotential{name: "central_potential", r: r}
}

func (c *CentralPotential) Name() string { return c.name }

func (c *CentralPotential) Observe(s scm.Snapshot) {
	if s.Potential != nil {
		c.value = s.Potential.Value(diagonal(c.r))
	}
}

func (c *CentralPotential) Value() float64 { return c.value }
func (c *CentralPotential) Reset()         { c.value = 0 }
