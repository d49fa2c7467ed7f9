package reference

import (
	"math"

	"github.com/san-kum/scmodel/internal/galaxy"
)

const bisectionSteps = 50

// cosAverage is the 2-point Gauss-Legendre node in cos(theta); sampling a
// reflection-symmetric potential there averages its l <= 3 harmonics exactly.
var cosAverage = 1 / math.Sqrt(3)

// sphericalActionFinder treats the potential as spherical. Jr comes from the
// radial action integral between peri- and apocentre; the remaining actions
// follow from the angular momentum.
type sphericalActionFinder struct {
	pot    galaxy.Potential
	nodes  []float64
	weight []float64
}

func (af *sphericalActionFinder) phi(r float64) float64 {
	return sphericalValue(af.pot, r)
}

func sphericalValue(pot galaxy.Potential, r float64) float64 {
	s := math.Sqrt(1 - cosAverage*cosAverage)
	return pot.Value(galaxy.Vec3{r * s, 0, r * cosAverage})
}

func (af *sphericalActionFinder) Actions(xv galaxy.PosVel) (galaxy.Actions, error) {
	x, v := xv.Pos(), xv.Vel()
	if !x.IsValid() || !v.IsValid() {
		return galaxy.Actions{}, galaxy.ErrInvalidPoint
	}

	r := x.Norm()
	if r == 0 {
		r = 1e-12
	}
	E := 0.5*v.Dot(v) + af.phi(r)
	if E >= 0 {
		return galaxy.Actions{}, galaxy.ErrUnboundOrbit
	}
	L := x.Cross(v)
	Ltot := L.Norm()

	jr, err := af.radialAction(E, Ltot, r)
	if err != nil {
		return galaxy.Actions{}, err
	}
	return galaxy.Actions{Jr: jr, Jz: Ltot - math.Abs(L[2]), Jphi: L[2]}, nil
}

func (af *sphericalActionFinder) p2(E, L, r float64) float64 {
	return 2*(E-af.phi(r)) - L*L/(r*r)
}

func (af *sphericalActionFinder) radialAction(E, L, r0 float64) (float64, error) {
	if af.p2(E, L, r0) < 0 {
		// r0 sits on a turning point up to roundoff
		switch {
		case af.p2(E, L, r0*(1-1e-7)) >= 0:
			r0 *= 1 - 1e-7
		case af.p2(E, L, r0*(1+1e-7)) >= 0:
			r0 *= 1 + 1e-7
		default:
			return 0, nil
		}
	}

	peri := 0.0
	if L > 0 {
		lo := r0
		for i := 0; af.p2(E, L, lo) >= 0; i++ {
			if i > 200 {
				return 0, galaxy.ErrInvalidPoint
			}
			lo /= 2
		}
		peri = af.bisect(E, L, lo, r0)
	}

	hi := r0
	for i := 0; af.p2(E, L, hi) >= 0; i++ {
		if i > 200 {
			return 0, galaxy.ErrUnboundOrbit
		}
		hi *= 2
	}
	apo := af.bisect(E, L, hi, r0)

	mid := 0.5 * (apo + peri)
	half := 0.5 * (apo - peri)
	sum := 0.0
	for k, t := range af.nodes {
		angle := t * math.Pi / 2
		r := mid + half*math.Sin(angle)
		if r <= 0 {
			continue
		}
		if p := af.p2(E, L, r); p > 0 {
			sum += af.weight[k] * math.Cos(angle) * math.Sqrt(p)
		}
	}
	return sum * half / 2, nil
}

// bisect finds the turning point between out (forbidden) and in (allowed).
func (af *sphericalActionFinder) bisect(E, L, out, in float64) float64 {
	for i := 0; i < bisectionSteps; i++ {
		mid := 0.5 * (out + in)
		if af.p2(E, L, mid) >= 0 {
			in = mid
		} else {
			out = mid
		}
	}
	return 0.5 * (out + in)
}
