package scm_test

import (
	"errors"

	"github.com/san-kum/scmodel/internal/galaxy"
	"github.com/san-kum/scmodel/internal/scm"
)

// fakeDensity is a constant density.
type fakeDensity struct {
	name  string
	value float64
}

func (d *fakeDensity) Density(galaxy.Vec3) float64 { return d.value }

type fakePotential struct {
	name  string
	value float64
	parts []galaxy.Potential
	src   galaxy.Density
}

func (p *fakePotential) Value(galaxy.Vec3) float64 { return p.value }
func (p *fakePotential) Density(x galaxy.Vec3) float64 {
	if p.src != nil {
		return p.src.Density(x)
	}
	return 0
}

type fakeActionFinder struct {
	pot galaxy.Potential
}

func (a *fakeActionFinder) Actions(galaxy.PosVel) (galaxy.Actions, error) {
	return galaxy.Actions{}, nil
}

type fakeDF struct {
	value float64
	err   error
}

func (f *fakeDF) Value(galaxy.Actions) float64 { return f.value }

// fakeModel reports the DF value scaled by the potential depth as density.
type fakeModel struct {
	pot galaxy.Potential
	df  galaxy.DistributionFunction
	af  galaxy.ActionFinder
	err error
}

func (m *fakeModel) Moments(x galaxy.Vec3, _ galaxy.MomentOptions) (galaxy.Moments, error) {
	if m.err != nil {
		return galaxy.Moments{}, m.err
	}
	if f, ok := m.df.(*fakeDF); ok && f.err != nil {
		return galaxy.Moments{}, f.err
	}
	return galaxy.Moments{Density: m.df.Value(galaxy.Actions{}) * -m.pot.Value(x)}, nil
}

func (m *fakeModel) TotalMass() (float64, error) { return 0, nil }

type modelCall struct {
	pot galaxy.Potential
	af  galaxy.ActionFinder
}

// fakeBackend records every factory call.
type fakeBackend struct {
	combinedDensities   [][]galaxy.Density
	combinedPotentials  [][]galaxy.Potential
	multipoleInputs     []galaxy.Density
	multipoleExpansions []galaxy.SphericalExpansion
	cylSplineInputs     []galaxy.Density
	cylExpansions       []galaxy.CylindricalExpansion
	sphHarmExpansions   []galaxy.SphericalExpansion
	aziHarmExpansions   []galaxy.CylindricalExpansion
	modelCalls          []modelCall
	actionFinderFor     []galaxy.Potential

	momentsErr   error
	multipoleErr error
	afErr        error
}

var errBackend = errors.New("fake backend failure")

func (b *fakeBackend) CombinePotentials(parts ...galaxy.Potential) (galaxy.Potential, error) {
	b.combinedPotentials = append(b.combinedPotentials, parts)
	sum := 0.0
	for _, p := range parts {
		sum += p.Value(galaxy.Vec3{})
	}
	return &fakePotential{name: "composite", value: sum, parts: parts}, nil
}

func (b *fakeBackend) CombineDensities(parts ...galaxy.Density) (galaxy.Density, error) {
	b.combinedDensities = append(b.combinedDensities, parts)
	sum := 0.0
	for _, d := range parts {
		sum += d.Density(galaxy.Vec3{})
	}
	return &fakeDensity{name: "composite", value: sum}, nil
}

func (b *fakeBackend) NewSphericalHarmonicDensity(fn galaxy.Density, exp galaxy.SphericalExpansion) (galaxy.Density, error) {
	b.sphHarmExpansions = append(b.sphHarmExpansions, exp)
	return &fakeDensity{name: "sphharm", value: fn.Density(galaxy.Vec3{1, 0, 0})}, nil
}

func (b *fakeBackend) NewAzimuthalHarmonicDensity(fn galaxy.Density, exp galaxy.CylindricalExpansion) (galaxy.Density, error) {
	b.aziHarmExpansions = append(b.aziHarmExpansions, exp)
	return &fakeDensity{name: "aziharm", value: fn.Density(galaxy.Vec3{1, 0, 0})}, nil
}

func (b *fakeBackend) NewMultipole(dens galaxy.Density, exp galaxy.SphericalExpansion) (galaxy.Potential, error) {
	if b.multipoleErr != nil {
		return nil, b.multipoleErr
	}
	b.multipoleInputs = append(b.multipoleInputs, dens)
	b.multipoleExpansions = append(b.multipoleExpansions, exp)
	return &fakePotential{name: "multipole", value: -dens.Density(galaxy.Vec3{}), src: dens}, nil
}

func (b *fakeBackend) NewCylSpline(dens galaxy.Density, exp galaxy.CylindricalExpansion) (galaxy.Potential, error) {
	b.cylSplineInputs = append(b.cylSplineInputs, dens)
	b.cylExpansions = append(b.cylExpansions, exp)
	return &fakePotential{name: "cylspline", value: -dens.Density(galaxy.Vec3{}), src: dens}, nil
}

func (b *fakeBackend) NewGalaxyModel(pot galaxy.Potential, df galaxy.DistributionFunction, af galaxy.ActionFinder) (galaxy.GalaxyModel, error) {
	b.modelCalls = append(b.modelCalls, modelCall{pot: pot, af: af})
	return &fakeModel{pot: pot, df: df, af: af, err: b.momentsErr}, nil
}

func (b *fakeBackend) NewActionFinder(pot galaxy.Potential) (galaxy.ActionFinder, error) {
	if b.afErr != nil {
		return nil, b.afErr
	}
	b.actionFinderFor = append(b.actionFinderFor, pot)
	return &fakeActionFinder{pot: pot}, nil
}

// recorder collects observer callbacks.
type recorder struct {
	snapshots []int
	progress  [][3]int
}

func (r *recorder) OnIteration(s scm.Snapshot) { r.snapshots = append(r.snapshots, s.Iteration) }

func (r *recorder) OnComponentUpdated(iteration, index, total int) {
	r.progress = append(r.progress, [3]int{iteration, index, total})
}
