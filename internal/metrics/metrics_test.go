package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/scmodel/internal/galaxy"
	"github.com/san-kum/scmodel/internal/reference"
	"github.com/san-kum/scmodel/internal/scm"
)

func plummer(t *testing.T, mass, b float64) *reference.Plummer {
	t.Helper()
	p, err := reference.NewPlummer(mass, b)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPotentialChange(t *testing.T) {
	m := NewPotentialChange([]float64{0.1, 1, 10})

	if m.Value() != 1 || m.Ready() {
		t.Fatalf("fresh metric: value=%g ready=%v", m.Value(), m.Ready())
	}

	m.Observe(scm.Snapshot{Potential: plummer(t, 1, 1)})
	if m.Ready() {
		t.Error("one snapshot should not be ready")
	}

	m.Observe(scm.Snapshot{Potential: plummer(t, 1.1, 1)})
	if math.Abs(m.Value()-0.1) > 1e-12 {
		t.Errorf("expected change 0.1 for 10%% mass increase, got %g", m.Value())
	}

	m.Observe(scm.Snapshot{Potential: plummer(t, 1.1, 1)})
	if m.Value() != 0 {
		t.Errorf("expected zero change for identical potentials, got %g", m.Value())
	}
	if got := m.History(); len(got) != 2 {
		t.Errorf("expected 2 history entries, got %v", got)
	}

	m.Reset()
	if m.Value() != 1 || m.Ready() || len(m.History()) != 0 {
		t.Error("reset did not clear state")
	}
}

func TestPotentialChangeSkipsEmptySnapshot(t *testing.T) {
	m := NewPotentialChange([]float64{1})
	m.Observe(scm.Snapshot{})
	if m.Ready() || m.Value() != 1 {
		t.Error("snapshot without potential should be ignored")
	}
}

func TestCentralPotential(t *testing.T) {
	p := plummer(t, 2, 1)
	m := NewCentralPotential(1e-4)
	m.Observe(scm.Snapshot{Potential: p})

	if math.Abs(m.Value()+2) > 1e-6 {
		t.Errorf("expected central potential -2, got %g", m.Value())
	}
	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestProbeDensityAndObserver(t *testing.T) {
	p := plummer(t, 1, 1)
	x := galaxy.Vec3{1, 0.5, 0.3}
	probe := NewProbeDensity(x)
	change := NewPotentialChange([]float64{1})

	obs := Observer(probe, change)
	obs.OnIteration(scm.Snapshot{Iteration: 1, Potential: p})

	if probe.Value() != p.Density(x) {
		t.Errorf("probe density %g, want %g", probe.Value(), p.Density(x))
	}

	vals := Values(probe, change)
	if len(vals) != 2 || vals["probe_density"] != probe.Value() || vals["potential_change"] != 1 {
		t.Errorf("unexpected values: %v", vals)
	}
}
