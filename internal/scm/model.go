package scm

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/san-kum/scmodel/internal/galaxy"
	"github.com/san-kum/scmodel/internal/logging"
)

// Config holds the grids of the aggregate potential expansions: Spherical
// for the Multipole built from non-disk densities, Cylindrical for the
// CylSpline built from disk-like ones.
type Config struct {
	Spherical   galaxy.SphericalGrid
	Cylindrical galaxy.CylindricalGrid
}

type Option func(*Model)

func WithLogger(l *log.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// Model aggregates components and drives the self-consistent iteration.
type Model struct {
	backend    galaxy.Backend
	cfg        Config
	components []Component
	potential  galaxy.Potential
	af         galaxy.ActionFinder
	iteration  int
	observers  []Observer
	logger     *log.Logger
}

func New(b galaxy.Backend, cfg Config, opts ...Option) *Model {
	m := &Model{
		backend:    b,
		cfg:        cfg,
		components: make([]Component, 0),
		observers:  make([]Observer, 0),
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Model) AddComponent(c Component)          { m.components = append(m.components, c) }
func (m *Model) AddObserver(o Observer)            { m.observers = append(m.observers, o) }
func (m *Model) Config() Config                    { return m.cfg }
func (m *Model) Iteration() int                    { return m.iteration }
func (m *Model) Potential() galaxy.Potential       { return m.potential }
func (m *Model) ActionFinder() galaxy.ActionFinder { return m.af }

// Components returns the components in stored order.
func (m *Model) Components() []Component {
	out := make([]Component, len(m.components))
	copy(out, m.components)
	return out
}

// SetPotential seeds the total potential. The action finder is dropped and
// rebuilt lazily by the next Iterate.
func (m *Model) SetPotential(p galaxy.Potential) {
	m.potential = p
	m.af = nil
}

// Iterate performs one self-consistent step. Every component is updated
// against the potential and action finder of the previous step, after which
// the aggregate potential is rebuilt. The new densities, potential and action
// finder are committed together, so a failed step never leaves components
// ahead of the potential.
func (m *Model) Iterate(ctx context.Context) error {
	if len(m.components) == 0 {
		return galaxy.Configf("components", "model has no components")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// The bootstrap potential and a missing action finder depend only on
	// committed state, so they are kept even if the step fails later.
	if m.potential == nil {
		if err := m.UpdatePotential(ctx); err != nil {
			return err
		}
	} else if m.af == nil {
		m.logger.Debug("building action finder")
		af, err := m.backend.NewActionFinder(m.potential)
		if err != nil {
			return err
		}
		m.af = af
	}

	pot, af := m.potential, m.af
	total := len(m.components)
	dens := make([]galaxy.Density, total)
	for i, c := range m.components {
		m.logger.Info("computing density", "iteration", m.iteration+1, "component", i)
		d, err := c.refit(pot, af)
		if err != nil {
			return err
		}
		dens[i] = d
		for _, o := range m.observers {
			if po, ok := o.(ProgressObserver); ok {
				po.OnComponentUpdated(m.iteration+1, i, total)
			}
		}
	}

	newPot, newAF, err := m.rebuild(dens)
	if err != nil {
		return err
	}
	for i, c := range m.components {
		c.commit(dens[i])
	}
	m.potential, m.af = newPot, newAF

	m.iteration++
	snap := m.snapshot()
	for _, o := range m.observers {
		o.OnIteration(snap)
	}
	return nil
}

// UpdatePotential rebuilds the total potential from the current component
// contributions and derives a new action finder from it. Nothing is
// committed unless both succeed.
func (m *Model) UpdatePotential(ctx context.Context) error {
	pot, af, err := m.rebuild(m.densities())
	if err != nil {
		return err
	}
	m.potential, m.af = pot, af
	return nil
}

func (m *Model) densities() []galaxy.Density {
	out := make([]galaxy.Density, len(m.components))
	for i, c := range m.components {
		out[i] = c.Density()
	}
	return out
}

// rebuild builds the total potential and its action finder with dens[i]
// standing in for the density of component i.
func (m *Model) rebuild(dens []galaxy.Density) (galaxy.Potential, galaxy.ActionFinder, error) {
	m.logger.Debug("updating potential")

	var sph, disk []galaxy.Density
	var parts []galaxy.Potential
	for i, c := range m.components {
		if d := dens[i]; d != nil {
			if c.DiskLike() {
				disk = append(disk, d)
			} else {
				sph = append(sph, d)
			}
		} else if p := c.Potential(); p != nil {
			parts = append(parts, p)
		}
	}

	var synth []galaxy.Potential
	if len(sph) > 0 {
		d, err := m.backend.CombineDensities(sph...)
		if err != nil {
			return nil, nil, err
		}
		pot, err := m.backend.NewMultipole(d, galaxy.SphericalExpansion{
			Grid:     m.cfg.Spherical,
			MMax:     0,
			Symmetry: galaxy.Axisymmetric,
		})
		if err != nil {
			return nil, nil, err
		}
		synth = append(synth, pot)
	}
	if len(disk) > 0 {
		d, err := m.backend.CombineDensities(disk...)
		if err != nil {
			return nil, nil, err
		}
		pot, err := m.backend.NewCylSpline(d, galaxy.CylindricalExpansion{
			Grid:     m.cfg.Cylindrical,
			MMax:     0,
			Symmetry: galaxy.Axisymmetric,
		})
		if err != nil {
			return nil, nil, err
		}
		synth = append(synth, pot)
	}

	all := append(synth, parts...)
	if len(all) == 0 {
		return nil, nil, galaxy.Configf("components", "no component supplies a density or potential; set an initial potential")
	}
	total, err := m.backend.CombinePotentials(all...)
	if err != nil {
		return nil, nil, err
	}

	m.logger.Debug("updating action finder")
	af, err := m.backend.NewActionFinder(total)
	if err != nil {
		return nil, nil, err
	}
	return total, af, nil
}

// Run calls Iterate n times, stopping at the first error or when ctx is
// cancelled between iterations.
func (m *Model) Run(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.Iterate(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (m *Model) snapshot() Snapshot {
	return Snapshot{
		Iteration:    m.iteration,
		Potential:    m.potential,
		ActionFinder: m.af,
		Components:   m.Components(),
	}
}
