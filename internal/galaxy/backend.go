package galaxy

// PotentialFactory builds potentials from sub-potentials or from densities.
type PotentialFactory interface {
	CombinePotentials(parts ...Potential) (Potential, error)
	NewMultipole(dens Density, exp SphericalExpansion) (Potential, error)
	NewCylSpline(dens Density, exp CylindricalExpansion) (Potential, error)
}

// DensityFactory builds densities from sub-densities or fits an expansion
// to an arbitrary density functor.
type DensityFactory interface {
	CombineDensities(parts ...Density) (Density, error)
	NewSphericalHarmonicDensity(fn Density, exp SphericalExpansion) (Density, error)
	NewAzimuthalHarmonicDensity(fn Density, exp CylindricalExpansion) (Density, error)
}

type ModelFactory interface {
	NewGalaxyModel(pot Potential, df DistributionFunction, af ActionFinder) (GalaxyModel, error)
}

type ActionFinderFactory interface {
	NewActionFinder(pot Potential) (ActionFinder, error)
}

// Backend is the full numerical library surface used by the iteration.
type Backend interface {
	PotentialFactory
	DensityFactory
	ModelFactory
	ActionFinderFactory
}
