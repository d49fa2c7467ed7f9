package scm

import (
	"sync"

	"github.com/san-kum/scmodel/internal/galaxy"
)

// Component is one constituent of a model. It contributes either a density
// or a static potential to the total.
//
// The variants are DFComponent, StaticDensity and StaticPotential; the
// interface is sealed.
type Component interface {
	Density() galaxy.Density
	Potential() galaxy.Potential
	DiskLike() bool
	Update(pot galaxy.Potential, af galaxy.ActionFinder) error

	// refit returns the density the component would hold after an update
	// against pot and af without storing it. commit stores it.
	refit(pot galaxy.Potential, af galaxy.ActionFinder) (galaxy.Density, error)
	commit(d galaxy.Density)
}

// ComponentConfig holds the grid used to represent a DF-driven density.
// Spherical applies to non-disk-like components, Cylindrical to disk-like
// ones.
type ComponentConfig struct {
	DiskLike    bool
	Spherical   galaxy.SphericalGrid
	Cylindrical galaxy.CylindricalGrid
}

// DFComponent recomputes its density from a distribution function on every
// update. It never contributes a potential directly.
type DFComponent struct {
	backend galaxy.Backend
	df      galaxy.DistributionFunction
	cfg     ComponentConfig
	density galaxy.Density
}

func NewDFComponent(b galaxy.Backend, df galaxy.DistributionFunction, cfg ComponentConfig) *DFComponent {
	return &DFComponent{backend: b, df: df, cfg: cfg}
}

func (c *DFComponent) Density() galaxy.Density         { return c.density }
func (c *DFComponent) Potential() galaxy.Potential     { return nil }
func (c *DFComponent) DiskLike() bool                  { return c.cfg.DiskLike }
func (c *DFComponent) DF() galaxy.DistributionFunction { return c.df }
func (c *DFComponent) Config() ComponentConfig         { return c.cfg }
func (c *DFComponent) commit(d galaxy.Density)         { c.density = d }

// Update replaces the density with an expansion of the DF's zeroth moment in
// the given potential. The stored density is left untouched on error.
func (c *DFComponent) Update(pot galaxy.Potential, af galaxy.ActionFinder) error {
	dens, err := c.refit(pot, af)
	if err != nil {
		return err
	}
	c.commit(dens)
	return nil
}

func (c *DFComponent) refit(pot galaxy.Potential, af galaxy.ActionFinder) (galaxy.Density, error) {
	gm, err := c.backend.NewGalaxyModel(pot, c.df, af)
	if err != nil {
		return nil, err
	}

	// backends may evaluate the functor concurrently
	var (
		mu       sync.Mutex
		firstErr error
	)
	fn := galaxy.DensityFunc(func(x galaxy.Vec3) float64 {
		m, err := gm.Moments(x, galaxy.MomentOptions{})
		if err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			return 0
		}
		return m.Density
	})

	var dens galaxy.Density
	if c.cfg.DiskLike {
		dens, err = c.backend.NewAzimuthalHarmonicDensity(fn, galaxy.CylindricalExpansion{
			Grid:     c.cfg.Cylindrical,
			MMax:     0,
			Symmetry: galaxy.Axisymmetric,
		})
	} else {
		dens, err = c.backend.NewSphericalHarmonicDensity(fn, galaxy.SphericalExpansion{
			Grid:     c.cfg.Spherical,
			MMax:     0,
			Symmetry: galaxy.Axisymmetric,
		})
	}
	if err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return dens, nil
}

// StaticDensity contributes a fixed density that is folded into the
// Multipole or CylSpline expansion of its group.
type StaticDensity struct {
	density  galaxy.Density
	diskLike bool
}

func NewStaticDensity(d galaxy.Density, diskLike bool) *StaticDensity {
	return &StaticDensity{density: d, diskLike: diskLike}
}

func (c *StaticDensity) Density() galaxy.Density                            { return c.density }
func (c *StaticDensity) Potential() galaxy.Potential                        { return nil }
func (c *StaticDensity) DiskLike() bool                                     { return c.diskLike }
func (c *StaticDensity) Update(galaxy.Potential, galaxy.ActionFinder) error { return nil }
func (c *StaticDensity) commit(galaxy.Density)                              {}

func (c *StaticDensity) refit(galaxy.Potential, galaxy.ActionFinder) (galaxy.Density, error) {
	return c.density, nil
}

// StaticPotential contributes a fixed potential to the total.
type StaticPotential struct {
	potential galaxy.Potential
}

func NewStaticPotential(p galaxy.Potential) *StaticPotential {
	return &StaticPotential{potential: p}
}

func (c *StaticPotential) Density() galaxy.Density                            { return nil }
func (c *StaticPotential) Potential() galaxy.Potential                        { return c.potential }
func (c *StaticPotential) DiskLike() bool                                     { return false }
func (c *StaticPotential) Update(galaxy.Potential, galaxy.ActionFinder) error { return nil }
func (c *StaticPotential) commit(galaxy.Density)                              {}

func (c *StaticPotential) refit(galaxy.Potential, galaxy.ActionFinder) (galaxy.Density, error) {
	return nil, nil
}
