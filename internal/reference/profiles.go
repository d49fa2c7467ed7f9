package reference

import (
	"math"

	"github.com/san-kum/scmodel/internal/galaxy"
)

// Plummer is the analytic Plummer sphere. It serves both as a density and as
// a potential.
type Plummer struct {
	Mass        float64
	ScaleRadius float64
}

func NewPlummer(mass, scaleRadius float64) (*Plummer, error) {
	if !(mass > 0) {
		return nil, galaxy.Configf("mass", "must be positive, got %g", mass)
	}
	if !(scaleRadius > 0) {
		return nil, galaxy.Configf("scale_radius", "must be positive, got %g", scaleRadius)
	}
	return &Plummer{Mass: mass, ScaleRadius: scaleRadius}, nil
}

func (p *Plummer) Value(x galaxy.Vec3) float64 {
	r2 := x.Dot(x)
	return -p.Mass / math.Sqrt(r2+p.ScaleRadius*p.ScaleRadius)
}

func (p *Plummer) Density(x galaxy.Vec3) float64 {
	b := p.ScaleRadius
	u := 1 + x.Dot(x)/(b*b)
	return 3 * p.Mass / (4 * math.Pi * b * b * b) / (u * u * math.Sqrt(u))
}

// SpheroidParams describe a double power-law density
//
//	rho(r) = rho0 (r/a)^-gamma [1 + (r/a)^alpha]^((gamma-beta)/alpha) exp[-(r/rcut)^xi]
//
// normalised to the given total mass.
type SpheroidParams struct {
	Mass              float64
	ScaleRadius       float64
	Gamma             float64
	Beta              float64
	Alpha             float64
	OuterCutoffRadius float64
	CutoffStrength    float64
}

type Spheroid struct {
	params SpheroidParams
	rho0   float64
}

func NewSpheroid(p SpheroidParams) (*Spheroid, error) {
	if p.Alpha == 0 {
		p.Alpha = 1
	}
	if p.CutoffStrength == 0 {
		p.CutoffStrength = 2
	}
	switch {
	case !(p.Mass > 0):
		return nil, galaxy.Configf("mass", "must be positive, got %g", p.Mass)
	case !(p.ScaleRadius > 0):
		return nil, galaxy.Configf("scale_radius", "must be positive, got %g", p.ScaleRadius)
	case p.Gamma < 0 || p.Gamma >= 3:
		return nil, galaxy.Configf("gamma", "must be in [0, 3), got %g", p.Gamma)
	case p.Alpha < 0:
		return nil, galaxy.Configf("alpha", "must be positive, got %g", p.Alpha)
	case p.OuterCutoffRadius < 0:
		return nil, galaxy.Configf("outer_cutoff_radius", "must be non-negative, got %g", p.OuterCutoffRadius)
	case p.OuterCutoffRadius == 0 && p.Beta <= 3:
		return nil, galaxy.Configf("beta", "total mass diverges for beta=%g without an outer cutoff", p.Beta)
	}

	s := &Spheroid{params: p, rho0: 1}
	s.rho0 = p.Mass / s.unnormalisedMass()
	return s, nil
}

func (s *Spheroid) Params() SpheroidParams { return s.params }

func (s *Spheroid) Density(x galaxy.Vec3) float64 {
	return s.rho0 * s.shape(x.Norm())
}

func (s *Spheroid) shape(r float64) float64 {
	p := s.params
	u := r / p.ScaleRadius
	rho := math.Pow(u, -p.Gamma) * math.Pow(1+math.Pow(u, p.Alpha), (p.Gamma-p.Beta)/p.Alpha)
	if p.OuterCutoffRadius > 0 {
		rho *= math.Exp(-math.Pow(r/p.OuterCutoffRadius, p.CutoffStrength))
	}
	return rho
}

func (s *Spheroid) unnormalisedMass() float64 {
	p := s.params
	rLo := 1e-6 * p.ScaleRadius
	rHi := 1e4 * p.ScaleRadius
	if p.OuterCutoffRadius > 0 {
		rHi = math.Min(rHi, 50*p.OuterCutoffRadius)
	}

	inner := 4 * math.Pi * s.shape(rLo) * rLo * rLo * rLo / (3 - p.Gamma)
	outer := simpson(func(lnr float64) float64 {
		r := math.Exp(lnr)
		return 4 * math.Pi * r * r * r * s.shape(r)
	}, math.Log(rLo), math.Log(rHi), 4000)
	return inner + outer
}
