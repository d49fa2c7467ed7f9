// Package analysis provides profile sampling and convergence diagnostics for
// self-consistent models.
//
//   - [LogSpace]: logarithmically spaced radii
//   - [SampleProfile]: potential, circular velocity and per-component density
//     along a ray
//   - [ConvergenceRate]: geometric contraction factor of successive changes
//
// # Convergence
//
// The iteration typically contracts geometrically; a factor well below one
// means few further iterations are needed:
//
//	factor, ok := analysis.ConvergenceRate(change.History())
//	if ok && factor < 0.5 {
//	    // converging quickly
//	}
package analysis
