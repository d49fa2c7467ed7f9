package reference

import (
	"fmt"
	"math"
	"runtime"

	"github.com/san-kum/scmodel/internal/galaxy"
)

// minAzimuthNodes is the smallest azimuth rule whose samples are isotropic in
// the tangential plane. With two nodes every sample lies on one axis.
const minAzimuthNodes = 4

type Options struct {
	VelocityNodes int
	AngleNodes    int
	AzimuthNodes  int
	OrbitNodes    int
	Workers       int
	CylSplineLMax int
	MassGrid      galaxy.SphericalGrid
}

func DefaultOptions() Options {
	return Options{
		VelocityNodes: 16,
		AngleNodes:    8,
		AzimuthNodes:  8,
		OrbitNodes:    16,
		Workers:       runtime.GOMAXPROCS(0),
		CylSplineLMax: 12,
		MassGrid:      galaxy.SphericalGrid{RMin: 1e-3, RMax: 1e3, SizeRadial: 64},
	}
}

// Backend implements galaxy.Backend. It is safe for concurrent use; all
// tables are built once in New.
type Backend struct {
	opts         Options
	speedNodes   []float64
	speedWeights []float64
	angleNodes   []float64
	angleWeights []float64
	orbitNodes   []float64
	orbitWeights []float64
}

var _ galaxy.Backend = (*Backend)(nil)

// New creates a backend; zero fields of opts take their defaults.
func New(opts Options) *Backend {
	def := DefaultOptions()
	if opts.VelocityNodes <= 0 {
		opts.VelocityNodes = def.VelocityNodes
	}
	if opts.AngleNodes <= 0 {
		opts.AngleNodes = def.AngleNodes
	}
	if opts.AzimuthNodes <= 0 {
		opts.AzimuthNodes = def.AzimuthNodes
	} else if opts.AzimuthNodes < minAzimuthNodes {
		opts.AzimuthNodes = minAzimuthNodes
	}
	if opts.OrbitNodes <= 0 {
		opts.OrbitNodes = def.OrbitNodes
	}
	if opts.Workers <= 0 {
		opts.Workers = def.Workers
	}
	if opts.CylSplineLMax <= 0 {
		opts.CylSplineLMax = def.CylSplineLMax
	}
	if opts.MassGrid.SizeRadial == 0 {
		opts.MassGrid = def.MassGrid
	}

	b := &Backend{opts: opts}
	b.speedNodes, b.speedWeights = gaussLegendre(opts.VelocityNodes)
	b.angleNodes, b.angleWeights = gaussLegendre(opts.AngleNodes)
	b.orbitNodes, b.orbitWeights = gaussLegendre(opts.OrbitNodes)
	return b
}

func (b *Backend) Options() Options { return b.opts }

func (b *Backend) CombinePotentials(parts ...galaxy.Potential) (galaxy.Potential, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("combine potentials: %w", galaxy.ErrEmptyComposite)
	}
	for i, p := range parts {
		if p == nil {
			return nil, galaxy.Configf("potentials", "part %d is nil", i)
		}
	}
	return append(compositePotential(nil), parts...), nil
}

func (b *Backend) CombineDensities(parts ...galaxy.Density) (galaxy.Density, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("combine densities: %w", galaxy.ErrEmptyComposite)
	}
	for i, d := range parts {
		if d == nil {
			return nil, galaxy.Configf("densities", "part %d is nil", i)
		}
	}
	return append(compositeDensity(nil), parts...), nil
}

func (b *Backend) NewSphericalHarmonicDensity(fn galaxy.Density, exp galaxy.SphericalExpansion) (galaxy.Density, error) {
	if fn == nil {
		return nil, galaxy.Configf("density", "is nil")
	}
	return b.fitSphHarm(fn, exp.Grid)
}

func (b *Backend) NewAzimuthalHarmonicDensity(fn galaxy.Density, exp galaxy.CylindricalExpansion) (galaxy.Density, error) {
	if fn == nil {
		return nil, galaxy.Configf("density", "is nil")
	}
	return b.fitAziHarm(fn, exp.Grid)
}

func (b *Backend) NewMultipole(dens galaxy.Density, exp galaxy.SphericalExpansion) (galaxy.Potential, error) {
	if dens == nil {
		return nil, galaxy.Configf("density", "is nil")
	}
	fit, err := b.fitSphHarm(dens, exp.Grid)
	if err != nil {
		return nil, err
	}
	return newMultipole(fit), nil
}

// NewCylSpline approximates the cylindrical expansion by a multipole of
// order CylSplineLMax on a spherical grid that spans the (R, z) grid.
func (b *Backend) NewCylSpline(dens galaxy.Density, exp galaxy.CylindricalExpansion) (galaxy.Potential, error) {
	if dens == nil {
		return nil, galaxy.Configf("density", "is nil")
	}
	g := exp.Grid
	if err := g.Validate(); err != nil {
		return nil, err
	}
	sph := galaxy.SphericalGrid{
		RMin:       math.Min(g.RMin, g.ZMin),
		RMax:       math.Hypot(g.RMax, g.ZMax),
		SizeRadial: g.SizeRadial + g.SizeVertical,
		LMax:       b.opts.CylSplineLMax,
	}
	return b.NewMultipole(dens, galaxy.SphericalExpansion{Grid: sph, MMax: exp.MMax, Symmetry: exp.Symmetry})
}

func (b *Backend) NewGalaxyModel(pot galaxy.Potential, df galaxy.DistributionFunction, af galaxy.ActionFinder) (galaxy.GalaxyModel, error) {
	if pot == nil {
		return nil, galaxy.Configf("potential", "is nil")
	}
	if df == nil {
		return nil, galaxy.Configf("df", "is nil")
	}
	if af == nil {
		var err error
		if af, err = b.NewActionFinder(pot); err != nil {
			return nil, err
		}
	}
	return &galaxyModel{pot: pot, df: df, af: af, b: b}, nil
}

func (b *Backend) NewActionFinder(pot galaxy.Potential) (galaxy.ActionFinder, error) {
	if pot == nil {
		return nil, galaxy.Configf("potential", "is nil")
	}
	return &sphericalActionFinder{pot: pot, nodes: b.orbitNodes, weight: b.orbitWeights}, nil
}
