package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/scmodel/internal/config"
	"github.com/san-kum/scmodel/internal/galaxy"
	"github.com/san-kum/scmodel/internal/reference"
)

// params reads named values from a profile and rejects keys nobody asked
// for.
type params struct {
	kind   string
	values map[string]float64
	used   map[string]bool
}

func newParams(kind string, values map[string]float64) *params {
	return &params{kind: kind, values: values, used: make(map[string]bool)}
}

func (p *params) get(name string, def float64) float64 {
	p.used[name] = true
	if v, ok := p.values[name]; ok {
		return v
	}
	return def
}

func (p *params) check() error {
	for name := range p.values {
		if !p.used[name] {
			return galaxy.Configf(p.kind, "unknown parameter %q", name)
		}
	}
	return nil
}

type (
	densityFactory   func(*params) (galaxy.Density, error)
	potentialFactory func(*params) (galaxy.Potential, error)
	dfFactory        func(*params) (galaxy.DistributionFunction, error)
)

// Registry maps profile type names to constructors.
type Registry struct {
	densities  map[string]densityFactory
	potentials map[string]potentialFactory
	dfs        map[string]dfFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		densities:  make(map[string]densityFactory),
		potentials: make(map[string]potentialFactory),
		dfs:        make(map[string]dfFactory),
	}

	r.densities["plummer"] = func(p *params) (galaxy.Density, error) {
		return reference.NewPlummer(p.get("mass", 1), p.get("scale_radius", 1))
	}
	r.densities["spheroid"] = func(p *params) (galaxy.Density, error) {
		return reference.NewSpheroid(reference.SpheroidParams{
			Mass:              p.get("mass", 1),
			ScaleRadius:       p.get("scale_radius", 1),
			Gamma:             p.get("gamma", 1),
			Beta:              p.get("beta", 4),
			Alpha:             p.get("alpha", 1),
			OuterCutoffRadius: p.get("outer_cutoff_radius", 0),
			CutoffStrength:    p.get("cutoff_strength", 2),
		})
	}
	r.densities["nfw"] = func(p *params) (galaxy.Density, error) {
		return reference.NewSpheroid(reference.SpheroidParams{
			Mass:              p.get("mass", 1),
			ScaleRadius:       p.get("scale_radius", 1),
			Gamma:             1,
			Beta:              3,
			Alpha:             1,
			OuterCutoffRadius: p.get("outer_cutoff_radius", 0),
			CutoffStrength:    p.get("cutoff_strength", 2),
		})
	}
	r.densities["hernquist"] = func(p *params) (galaxy.Density, error) {
		return reference.NewSpheroid(reference.SpheroidParams{
			Mass:        p.get("mass", 1),
			ScaleRadius: p.get("scale_radius", 1),
			Gamma:       1,
			Beta:        4,
			Alpha:       1,
		})
	}

	r.potentials["plummer"] = func(p *params) (galaxy.Potential, error) {
		return reference.NewPlummer(p.get("mass", 1), p.get("scale_radius", 1))
	}

	r.dfs["doublepowerlaw"] = func(p *params) (galaxy.DistributionFunction, error) {
		return reference.NewDoublePowerLaw(reference.DoublePowerLawParams{
			Norm:           p.get("norm", 1),
			J0:             p.get("j0", 1),
			SlopeIn:        p.get("slope_in", 1.5),
			SlopeOut:       p.get("slope_out", 6),
			CoefJrIn:       p.get("coef_jr_in", 1),
			CoefJzIn:       p.get("coef_jz_in", 1),
			CoefJrOut:      p.get("coef_jr_out", 1),
			CoefJzOut:      p.get("coef_jz_out", 1),
			JCutoff:        p.get("j_cutoff", 0),
			CutoffStrength: p.get("cutoff_strength", 2),
		})
	}
	r.dfs["exponential"] = func(p *params) (galaxy.DistributionFunction, error) {
		return reference.NewExponential(p.get("norm", 1), p.get("j0", 1))
	}

	return r
}

func (r *Registry) GetDensity(prof config.Profile) (galaxy.Density, error) {
	fn, ok := r.densities[prof.Type]
	if !ok {
		return nil, fmt.Errorf("unknown density: %s", prof.Type)
	}
	p := newParams(prof.Type, prof.Params)
	d, err := fn(p)
	if err != nil {
		return nil, err
	}
	return d, p.check()
}

// GetPotential returns an analytic potential when one is registered, and
// otherwise expands the registered density of that name into a multipole on
// grid.
func (r *Registry) GetPotential(prof config.Profile, b galaxy.Backend, grid galaxy.SphericalGrid) (galaxy.Potential, error) {
	if fn, ok := r.potentials[prof.Type]; ok {
		p := newParams(prof.Type, prof.Params)
		pot, err := fn(p)
		if err != nil {
			return nil, err
		}
		return pot, p.check()
	}
	if _, ok := r.densities[prof.Type]; !ok {
		return nil, fmt.Errorf("unknown potential: %s", prof.Type)
	}
	dens, err := r.GetDensity(prof)
	if err != nil {
		return nil, err
	}
	return b.NewMultipole(dens, galaxy.SphericalExpansion{Grid: grid, Symmetry: galaxy.Axisymmetric})
}

func (r *Registry) GetDF(prof config.Profile) (galaxy.DistributionFunction, error) {
	fn, ok := r.dfs[prof.Type]
	if !ok {
		return nil, fmt.Errorf("unknown distribution function: %s", prof.Type)
	}
	p := newParams(prof.Type, prof.Params)
	df, err := fn(p)
	if err != nil {
		return nil, err
	}
	return df, p.check()
}

func (r *Registry) ListDensities() []string { return sortedKeys(r.densities) }
func (r *Registry) ListDFs() []string       { return sortedKeys(r.dfs) }

// ListPotentials includes every density type, since those are expanded.
func (r *Registry) ListPotentials() []string {
	seen := make(map[string]bool)
	for k := range r.potentials {
		seen[k] = true
	}
	for k := range r.densities {
		seen[k] = true
	}
	return sortedKeys(seen)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewBackend builds the reference backend from cfg. workers overrides
// cfg.Workers when positive.
func NewBackend(cfg config.BackendConfig, workers int) *reference.Backend {
	if workers <= 0 {
		workers = cfg.Workers
	}
	return reference.New(reference.Options{
		VelocityNodes: cfg.VelocityNodes,
		AngleNodes:    cfg.AngleNodes,
		AzimuthNodes:  cfg.AzimuthNodes,
		OrbitNodes:    cfg.OrbitNodes,
		Workers:       workers,
		CylSplineLMax: cfg.CylSplineLMax,
	})
}
