// Package metrics tracks per-iteration quantities of a self-consistent model.
//
// Metrics observe the scm.Snapshot produced after every iteration. Attach a
// set of them to a model with Observer:
//
//	change := metrics.NewPotentialChange(analysis.LogSpace(0.01, 100, 20))
//	model.AddObserver(metrics.Observer(change, metrics.NewCentralPotential(1e-3)))
package metrics

import (
	"math"

	"github.com/san-kum/scmodel/internal/galaxy"
	"github.com/san-kum/scmodel/internal/scm"
)

type Metric interface {
	Name() string
	Observe(s scm.Snapshot)
	Value() float64
	Reset()
}

// Observer feeds every snapshot to ms in order.
func Observer(ms ...Metric) scm.Observer {
	return scm.ObserverFunc(func(s scm.Snapshot) {
		for _, m := range ms {
			m.Observe(s)
		}
	})
}

// Values collects the current value of each metric by name.
func Values(ms ...Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}

// diagonal places r on the (1,1,1) direction, where P2 vanishes.
func diagonal(r float64) galaxy.Vec3 {
	c := r / math.Sqrt(3)
	return galaxy.Vec3{c, c, c}
}
