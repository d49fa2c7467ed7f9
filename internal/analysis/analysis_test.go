package analysis

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/san-kum/scmodel/internal/reference"
	"github.com/san-kum/scmodel/internal/scm"
)

func TestLogSpace(t *testing.T) {
	got := LogSpace(0.01, 100, 5)
	want := []float64{0.01, 0.1, 1, 10, 100}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(1e-12, 0)); diff != "" {
		t.Errorf("LogSpace mismatch (-want +got):\n%s", diff)
	}

	if got := LogSpace(1, 10, 1); len(got) != 1 || got[0] != 1 {
		t.Errorf("single point: got %v", got)
	}
	if LogSpace(0, 10, 5) != nil || LogSpace(1, 10, 0) != nil {
		t.Error("invalid input should return nil")
	}
}

func TestSampleProfile(t *testing.T) {
	halo, err := reference.NewPlummer(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	bulge, err := reference.NewPlummer(0.5, 0.2)
	if err != nil {
		t.Fatal(err)
	}
	comps := []scm.Component{
		scm.NewStaticDensity(halo, false),
		scm.NewStaticPotential(bulge),
		scm.NewDFComponent(nil, nil, scm.ComponentConfig{}),
	}
	radii := LogSpace(0.1, 10, 7)

	p := SampleProfile(halo, comps, radii)

	if len(p.Components) != 3 {
		t.Fatalf("expected 3 component rows, got %d", len(p.Components))
	}
	for k, r := range radii {
		x := along(r)
		if p.Potential[k] != halo.Value(x) {
			t.Errorf("potential at r=%g: %g vs %g", r, p.Potential[k], halo.Value(x))
		}
		if p.Components[0][k] != halo.Density(x) || p.Components[1][k] != bulge.Density(x) {
			t.Errorf("component density mismatch at r=%g", r)
		}
		if p.Components[2][k] != 0 {
			t.Errorf("DF component without density should sample zero, got %g", p.Components[2][k])
		}

		// Plummer: vc^2 = M r^2 / (r^2 + b^2)^(3/2)
		vc := math.Sqrt(r * r / math.Pow(r*r+1, 1.5))
		if math.Abs(p.CircularVelocity[k]-vc) > 1e-6*vc {
			t.Errorf("vc at r=%g: %g vs %g", r, p.CircularVelocity[k], vc)
		}
	}

	radii[0] = -1
	if p.Radii[0] == -1 {
		t.Error("profile should copy radii")
	}
}

func TestConvergenceRate(t *testing.T) {
	changes := []float64{1, 0.5, 0.25, 0.125, 0.0625}
	factor, ok := ConvergenceRate(changes)
	if !ok || math.Abs(factor-0.5) > 1e-12 {
		t.Errorf("expected factor 0.5, got %g (ok=%v)", factor, ok)
	}

	factor, ok = ConvergenceRate([]float64{0, 0.1, math.Inf(1), 0.01})
	if !ok || math.Abs(factor-math.Pow(0.1, 0.5)) > 1e-12 {
		t.Errorf("skipping bad entries: got %g (ok=%v)", factor, ok)
	}

	if _, ok := ConvergenceRate([]float64{0.3}); ok {
		t.Error("single entry should not be ok")
	}
}

func TestIterationsToReach(t *testing.T) {
	tests := []struct {
		last, tol, factor float64
		want              int
	}{
		{1e-3, 1e-2, 0.5, 0},
		{1, 1e-3, 0.3, 6},
		{1, 1e-3, 0.5, 10},
		{1, 1e-3, 1.2, -1},
		{1, 1e-3, 0, -1},
	}
	for _, tt := range tests {
		if got := IterationsToReach(tt.last, tt.tol, tt.factor); got != tt.want {
			t.Errorf("IterationsToReach(%g, %g, %g) = %d, want %d", tt.last, tt.tol, tt.factor, got, tt.want)
		}
	}
}
