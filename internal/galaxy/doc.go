// Package galaxy defines the boundary between the self-consistent iteration
// and the numerical library that does the actual work.
//
// The orchestration in package scm only ever talks to the interfaces declared
// here, so any numerical backend can be substituted without touching it:
//
//   - [Density]: mass density at a point
//   - [Potential]: gravitational potential (and its source density) at a point
//   - [DistributionFunction]: phase-space density as a function of [Actions]
//   - [ActionFinder]: maps a phase-space point to its actions
//   - [GalaxyModel]: moments of a DF in a given potential
//   - [Backend]: factories for all of the above
//
// # Example
//
//	b := reference.New(reference.DefaultOptions())
//	dens, _ := b.NewSphericalHarmonicDensity(galaxy.DensityFunc(rho), galaxy.SphericalExpansion{
//	    Grid: galaxy.SphericalGrid{RMin: 0.01, RMax: 100, SizeRadial: 21},
//	})
//	pot, _ := b.NewMultipole(dens, galaxy.SphericalExpansion{Grid: grid})
//	af, _ := b.NewActionFinder(pot)
//
// All quantities are in dimensionless N-body units (G = 1).
package galaxy
