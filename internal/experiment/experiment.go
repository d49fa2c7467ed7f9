package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/san-kum/scmodel/internal/analysis"
	"github.com/san-kum/scmodel/internal/config"
	"github.com/san-kum/scmodel/internal/galaxy"
	"github.com/san-kum/scmodel/internal/logging"
	"github.com/san-kum/scmodel/internal/metrics"
	"github.com/san-kum/scmodel/internal/scm"
)

const (
	profilePoints = 50
	changePoints  = 20
	centralRadius = 1e-3
)

// IterationRecord summarises one completed iteration.
type IterationRecord struct {
	Iteration        int           `json:"iteration"`
	Change           float64       `json:"change"`
	CentralPotential float64       `json:"central_potential"`
	ProbeDensity     float64       `json:"probe_density"`
	Elapsed          time.Duration `json:"elapsed"`
}

// ProbeMoments are the moments of the probe component at the probe point in
// the final potential.
type ProbeMoments struct {
	Point      [3]float64 `json:"point"`
	Density    float64    `json:"density"`
	Velocity   [3]float64 `json:"velocity"`
	Dispersion [6]float64 `json:"dispersion"`
}

type Result struct {
	Name       string             `json:"name"`
	Components []string           `json:"components"`
	Iterations int                `json:"iterations"`
	Converged  bool               `json:"converged"`
	History    []IterationRecord  `json:"history"`
	Metrics    map[string]float64 `json:"metrics"`
	Masses     map[string]float64 `json:"masses,omitempty"`
	Probe      *ProbeMoments      `json:"probe,omitempty"`
	Profile    *analysis.Profile  `json:"-"`
	Elapsed    time.Duration      `json:"elapsed"`
}

type Experiment struct {
	cfg       *config.Config
	backend   galaxy.Backend
	registry  *Registry
	model     *scm.Model
	comps     []scm.Component
	names     []string
	observers []scm.Observer

	change  *metrics.PotentialChange
	central *metrics.CentralPotential
	density *metrics.ProbeDensity
}

// New returns an experiment for cfg. Setup and Run log through the logger
// attached to their context with logging.WithLogger.
func New(cfg *config.Config, b galaxy.Backend) *Experiment {
	return &Experiment{
		cfg:      cfg,
		backend:  b,
		registry: NewRegistry(),
	}
}

// AddObserver registers o on the model built by Setup.
func (e *Experiment) AddObserver(o scm.Observer) {
	e.observers = append(e.observers, o)
	if e.model != nil {
		e.model.AddObserver(o)
	}
}

// Setup builds the model, its components and the initial potential.
func (e *Experiment) Setup(ctx context.Context) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	model := scm.New(e.backend, scm.Config{
		Spherical:   e.cfg.Spherical.Galaxy(),
		Cylindrical: e.cfg.Cylindrical.Galaxy(),
	}, scm.WithLogger(logging.FromContext(ctx)))

	comps := make([]scm.Component, len(e.cfg.Components))
	names := make([]string, len(e.cfg.Components))
	for i, cc := range e.cfg.Components {
		c, err := e.buildComponent(cc)
		if err != nil {
			return fmt.Errorf("component %d: %w", i, err)
		}
		comps[i] = c
		names[i] = cc.Name
		if names[i] == "" {
			names[i] = fmt.Sprintf("component_%d", i)
		}
	}

	for i := range comps {
		if e.cfg.ReverseOrder {
			model.AddComponent(comps[len(comps)-1-i])
		} else {
			model.AddComponent(comps[i])
		}
	}

	if e.cfg.InitialPotential != nil {
		pot, err := e.registry.GetPotential(*e.cfg.InitialPotential, e.backend, e.cfg.Spherical.Galaxy())
		if err != nil {
			return fmt.Errorf("initial potential: %w", err)
		}
		model.SetPotential(pot)
	}

	e.change = metrics.NewPotentialChange(analysis.LogSpace(e.cfg.Spherical.RMin, e.cfg.Spherical.RMax, changePoints))
	e.central = metrics.NewCentralPotential(centralRadius)
	e.density = metrics.NewProbeDensity(e.probePoint())
	model.AddObserver(metrics.Observer(e.change, e.central, e.density))
	for _, o := range e.observers {
		model.AddObserver(o)
	}

	e.model, e.comps, e.names = model, comps, names
	return nil
}

func (e *Experiment) buildComponent(cc config.ComponentConfig) (scm.Component, error) {
	switch {
	case cc.DF != nil:
		df, err := e.registry.GetDF(*cc.DF)
		if err != nil {
			return nil, err
		}
		return scm.NewDFComponent(e.backend, df, scm.ComponentConfig{
			DiskLike:    cc.DiskLike,
			Spherical:   cc.SphericalOr(e.cfg.Spherical).Galaxy(),
			Cylindrical: cc.CylindricalOr(e.cfg.Cylindrical).Galaxy(),
		}), nil
	case cc.Density != nil:
		d, err := e.registry.GetDensity(*cc.Density)
		if err != nil {
			return nil, err
		}
		return scm.NewStaticDensity(d, cc.DiskLike), nil
	default:
		p, err := e.registry.GetPotential(*cc.Potential, e.backend, cc.SphericalOr(e.cfg.Spherical).Galaxy())
		if err != nil {
			return nil, err
		}
		return scm.NewStaticPotential(p), nil
	}
}

// Model returns the model built by Setup, or nil.
func (e *Experiment) Model() *scm.Model { return e.model }

// Change returns the potential change metric attached by Setup, or nil.
func (e *Experiment) Change() *metrics.PotentialChange { return e.change }

func (e *Experiment) probePoint() galaxy.Vec3 {
	if len(e.cfg.Probe) == 3 {
		return galaxy.Vec3{e.cfg.Probe[0], e.cfg.Probe[1], e.cfg.Probe[2]}
	}
	return galaxy.Vec3{1, 0.5, 0.3}
}

// Run iterates the model up to the configured count, stopping early once
// the potential change drops below a positive tolerance. On error the
// partial result is returned alongside it.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.model == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	logger := logging.FromContext(ctx)
	runTimer := logging.StartTimer(logger)
	result := &Result{
		Name:       e.cfg.Name,
		Components: append([]string(nil), e.names...),
		History:    make([]IterationRecord, 0, e.cfg.Iterations),
		Metrics:    make(map[string]float64),
	}

	if pot := e.model.Potential(); pot != nil {
		e.change.Observe(scm.Snapshot{Potential: pot})
	}

	logger.Info("starting iterations", "model", e.cfg.Name, "components", len(e.comps), "iterations", e.cfg.Iterations)
	for i := 0; i < e.cfg.Iterations; i++ {
		timer := logging.StartTimer(logger)
		if err := e.model.Iterate(ctx); err != nil {
			result.Elapsed = runTimer.Elapsed()
			return result, err
		}
		rec := IterationRecord{
			Iteration:        e.model.Iteration(),
			Change:           e.change.Value(),
			CentralPotential: e.central.Value(),
			ProbeDensity:     e.density.Value(),
		}
		rec.Elapsed = timer.Done("iteration complete", "iteration", rec.Iteration, "change", rec.Change, "phi0", rec.CentralPotential)
		result.History = append(result.History, rec)
		result.Iterations = rec.Iteration

		if e.cfg.Tolerance > 0 && e.change.Ready() && e.change.Value() < e.cfg.Tolerance {
			result.Converged = true
			logger.Info("converged", "iteration", rec.Iteration, "tolerance", e.cfg.Tolerance)
			break
		}
	}

	for k, v := range metrics.Values(e.change, e.central, e.density) {
		result.Metrics[k] = v
	}
	if factor, ok := analysis.ConvergenceRate(e.change.History()); ok {
		result.Metrics["convergence_factor"] = factor
	}

	if pot := e.model.Potential(); pot != nil {
		probe, err := e.probeMoments(logger)
		if err != nil {
			result.Elapsed = runTimer.Elapsed()
			return result, err
		}
		result.Probe = probe

		masses, err := e.masses()
		if err != nil {
			result.Elapsed = runTimer.Elapsed()
			return result, err
		}
		result.Masses = masses

		g := e.cfg.Spherical
		result.Profile = analysis.SampleProfile(pot, e.comps, analysis.LogSpace(g.RMin, g.RMax, profilePoints))
	}

	result.Elapsed = runTimer.Done("run complete", "model", e.cfg.Name, "iterations", result.Iterations)
	return result, nil
}

// probeMoments evaluates the probe component at the probe point. DF
// components report full moments in the current potential; others only
// their density.
func (e *Experiment) probeMoments(logger *log.Logger) (*ProbeMoments, error) {
	x := e.probePoint()
	out := &ProbeMoments{Point: x}
	switch c := e.comps[e.cfg.ProbeComponent].(type) {
	case *scm.DFComponent:
		gm, err := e.backend.NewGalaxyModel(e.model.Potential(), c.DF(), e.model.ActionFinder())
		if err != nil {
			return nil, err
		}
		m, err := gm.Moments(x, galaxy.MomentOptions{Velocity: true, Dispersion: true})
		if err != nil {
			return nil, err
		}
		out.Density, out.Velocity, out.Dispersion = m.Density, m.Velocity, m.Vel2
	default:
		if d := c.Density(); d != nil {
			out.Density = d.Density(x)
		} else if p := c.Potential(); p != nil {
			out.Density = p.Density(x)
		}
	}
	logger.Info("probe moments", "x", x, "density", out.Density)
	return out, nil
}

// masses integrates the DF of every DF component over the final potential.
func (e *Experiment) masses() (map[string]float64, error) {
	out := make(map[string]float64)
	for i, comp := range e.comps {
		c, ok := comp.(*scm.DFComponent)
		if !ok {
			continue
		}
		gm, err := e.backend.NewGalaxyModel(e.model.Potential(), c.DF(), e.model.ActionFinder())
		if err != nil {
			return nil, err
		}
		m, err := gm.TotalMass()
		if err != nil {
			return nil, err
		}
		out[e.names[i]] = m
	}
	return out, nil
}
