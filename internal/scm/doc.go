// Package scm runs the self-consistent iteration of multi-component galaxy
// models.
//
// A [Model] owns an ordered list of components, the current total potential
// and the action finder derived from it. Each call to [Model.Iterate]
// recomputes the density of every DF-driven component in the previous
// iteration's potential, folds all densities and static potentials into a
// new total potential, and rebuilds the action finder:
//
//	m := scm.New(backend, scm.Config{Spherical: grid})
//	m.AddComponent(scm.NewDFComponent(backend, halo, scm.ComponentConfig{Spherical: haloGrid}))
//	m.AddComponent(scm.NewStaticPotential(baryons))
//	m.SetPotential(initial)
//	err := m.Run(ctx, 5)
//
// There is no convergence test; callers decide how many iterations to run.
//
// # Thread Safety
//
// Model instances are NOT thread-safe. Iterate and UpdatePotential must not
// be called concurrently, and observers run on the iterating goroutine.
package scm
