// Package reference provides a pure-Go numerical backend for the
// self-consistent iteration.
//
// The backend implements [galaxy.Backend] with deliberately simple numerics:
//
//   - [Plummer] and [Spheroid]: analytic density profiles
//   - spherical-harmonic densities: Legendre projection on a log radial grid
//   - azimuthal-harmonic densities: bilinear (R, z) tables
//   - Multipole potentials: radial Poisson integrals per even harmonic
//   - CylSpline potentials: approximated by a high-order multipole that spans
//     the cylindrical grid
//   - action finder: spherical approximation (Jr from the radial action
//     integral, Jz = L - |Lz|, Jphi = Lz)
//   - [DoublePowerLaw] and [Exponential] distribution functions
//
// It is meant for tests, demos and small models. Accuracy is at the level of
// a few parts in a thousand for smooth spherical profiles.
//
// # Determinism
//
// Grid fitting evaluates density functors in parallel, but every node writes
// its own slot and all reductions run in a fixed order, so identical inputs
// give bitwise identical outputs regardless of worker count.
package reference
