package reference

import (
	"math"

	"github.com/san-kum/scmodel/internal/galaxy"
)

// DoublePowerLawParams follow the action-based double power-law family:
//
//	f(J) = norm/(2pi J0)^3 (1 + J0/h(J))^slopeIn (1 + g(J)/J0)^-slopeOut exp[-(g/Jcut)^zeta]
//
// with h and g linear combinations of the actions.
type DoublePowerLawParams struct {
	Norm           float64
	J0             float64
	SlopeIn        float64
	SlopeOut       float64
	CoefJrIn       float64
	CoefJzIn       float64
	CoefJrOut      float64
	CoefJzOut      float64
	JCutoff        float64
	CutoffStrength float64
}

type DoublePowerLaw struct {
	p      DoublePowerLawParams
	prefac float64
}

func NewDoublePowerLaw(p DoublePowerLawParams) (*DoublePowerLaw, error) {
	if p.CoefJrIn == 0 {
		p.CoefJrIn = 1
	}
	if p.CoefJzIn == 0 {
		p.CoefJzIn = 1
	}
	if p.CoefJrOut == 0 {
		p.CoefJrOut = 1
	}
	if p.CoefJzOut == 0 {
		p.CoefJzOut = 1
	}
	if p.CutoffStrength == 0 {
		p.CutoffStrength = 2
	}
	switch {
	case !(p.Norm > 0):
		return nil, galaxy.Configf("norm", "must be positive, got %g", p.Norm)
	case !(p.J0 > 0):
		return nil, galaxy.Configf("j0", "must be positive, got %g", p.J0)
	case p.SlopeIn >= 3:
		return nil, galaxy.Configf("slope_in", "must be below 3, got %g", p.SlopeIn)
	case p.SlopeOut <= 3 && p.JCutoff == 0:
		return nil, galaxy.Configf("slope_out", "must exceed 3 without a cutoff, got %g", p.SlopeOut)
	case p.CoefJrIn < 0 || p.CoefJzIn < 0 || p.CoefJrIn+p.CoefJzIn > 3:
		return nil, galaxy.Configf("coef_in", "coefficients must be non-negative and sum to at most 3")
	case p.CoefJrOut < 0 || p.CoefJzOut < 0 || p.CoefJrOut+p.CoefJzOut > 3:
		return nil, galaxy.Configf("coef_out", "coefficients must be non-negative and sum to at most 3")
	case p.JCutoff < 0:
		return nil, galaxy.Configf("j_cutoff", "must be non-negative, got %g", p.JCutoff)
	}
	return &DoublePowerLaw{p: p, prefac: p.Norm / math.Pow(2*math.Pi*p.J0, 3)}, nil
}

func (d *DoublePowerLaw) Params() DoublePowerLawParams { return d.p }

func (d *DoublePowerLaw) Value(j galaxy.Actions) float64 {
	p := d.p
	jphi := math.Abs(j.Jphi)
	h := p.CoefJrIn*j.Jr + p.CoefJzIn*j.Jz + (3-p.CoefJrIn-p.CoefJzIn)*jphi
	g := p.CoefJrOut*j.Jr + p.CoefJzOut*j.Jz + (3-p.CoefJrOut-p.CoefJzOut)*jphi
	if !(h > 0) {
		return 0
	}
	f := d.prefac * math.Pow(1+p.J0/h, p.SlopeIn) * math.Pow(1+g/p.J0, -p.SlopeOut)
	if p.JCutoff > 0 {
		f *= math.Exp(-math.Pow(g/p.JCutoff, p.CutoffStrength))
	}
	return f
}

// Exponential is f(J) = norm/(2pi J0)^3 exp[-(Jr + Jz + |Jphi|)/J0].
type Exponential struct {
	Norm float64
	J0   float64
}

func NewExponential(norm, j0 float64) (*Exponential, error) {
	if !(norm > 0) {
		return nil, galaxy.Configf("norm", "must be positive, got %g", norm)
	}
	if !(j0 > 0) {
		return nil, galaxy.Configf("j0", "must be positive, got %g", j0)
	}
	return &Exponential{Norm: norm, J0: j0}, nil
}

func (e *Exponential) Value(j galaxy.Actions) float64 {
	sum := j.Jr + j.Jz + math.Abs(j.Jphi)
	return e.Norm / math.Pow(2*math.Pi*e.J0, 3) * math.Exp(-sum/e.J0)
}
