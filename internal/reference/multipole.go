package reference

import (
	"math"

	"github.com/san-kum/scmodel/internal/galaxy"
)

const segmentIntervals = 8

// multipole solves Poisson's equation per even harmonic l:
//
//	Phi_l(r) = -4pi/(2l+1) [ r^-(l+1) Pin_l(r) + r^l Pout_l(r) ]
//	Pin_l(r)  = int_0^r rho_l r'^(l+2) dr'
//	Pout_l(r) = int_r^inf rho_l r'^(1-l) dr'
//
// Pin and Pout are tabulated at grid nodes and interpolated with cubic
// Hermite polynomials in ln r using their exact derivatives.
type multipole struct {
	dens    *sphHarmDensity
	rhoL    [][]float64
	pin     [][]float64
	pout    [][]float64
	sIn     []float64
	sOut    float64
	tailOut bool
}

func newMultipole(dens *sphHarmDensity) *multipole {
	nl := dens.lmax/2 + 1
	nr := len(dens.radii)
	m := &multipole{
		dens: dens,
		rhoL: make([][]float64, nl),
		pin:  make([][]float64, nl),
		pout: make([][]float64, nl),
		sIn:  make([]float64, nl),
		sOut: dens.slopeOut,
	}
	positive := dens.logRho0 != nil
	m.tailOut = positive && m.sOut+2 < 0

	for il := 0; il < nl; il++ {
		l := float64(2 * il)
		rl := make([]float64, nr)
		for i, r := range dens.radii {
			rl[i] = dens.coef(il, r)
		}
		m.rhoL[il] = rl
		m.sIn[il] = math.Max(dens.slopeIn, -(l+3)+0.05)

		pin := make([]float64, nr)
		if positive {
			pin[0] = powerIntegral(rl[0], dens.radii[0], m.sIn[il], l+2, 0, dens.radii[0])
		}
		for i := 0; i < nr-1; i++ {
			pin[i+1] = pin[i] + simpson(func(lnr float64) float64 {
				r := math.Exp(lnr)
				return dens.coef(il, r) * math.Pow(r, l+3)
			}, dens.logr[i], dens.logr[i+1], segmentIntervals)
		}

		pout := make([]float64, nr)
		if m.tailOut {
			pout[nr-1] = -rl[nr-1] * math.Pow(dens.radii[nr-1], 2-l) / (m.sOut + 2 - l)
		}
		for i := nr - 2; i >= 0; i-- {
			pout[i] = pout[i+1] + simpson(func(lnr float64) float64 {
				r := math.Exp(lnr)
				return dens.coef(il, r) * math.Pow(r, 2-l)
			}, dens.logr[i], dens.logr[i+1], segmentIntervals)
		}
		m.pin[il] = pin
		m.pout[il] = pout
	}
	return m
}

func (m *multipole) harmonic(il int, r float64) float64 {
	l := float64(2 * il)
	radii := m.dens.radii
	n := len(radii)
	rl := m.rhoL[il]
	var pin, pout float64

	switch {
	case r < radii[0]:
		if m.dens.logRho0 != nil {
			s := m.sIn[il]
			pin = powerIntegral(rl[0], radii[0], s, l+2, 0, r)
			pout = m.pout[il][0] + powerIntegral(rl[0], radii[0], s, 1-l, r, radii[0])
		} else {
			pout = m.pout[il][0]
		}
	case r > radii[n-1]:
		pin = m.pin[il][n-1]
		if m.tailOut {
			s := m.sOut
			pin += powerIntegral(rl[n-1], radii[n-1], s, l+2, radii[n-1], r)
			p := s + 2 - l
			pout = -rl[n-1] * math.Pow(radii[n-1], 2-l) * math.Pow(r/radii[n-1], p) / p
		}
	default:
		i, t := m.dens.segment(math.Log(r))
		h := m.dens.logr[i+1] - m.dens.logr[i]
		r0, r1 := radii[i], radii[i+1]
		pin = hermite(t, m.pin[il][i], m.pin[il][i+1],
			h*rl[i]*math.Pow(r0, l+3), h*rl[i+1]*math.Pow(r1, l+3))
		pout = hermite(t, m.pout[il][i], m.pout[il][i+1],
			-h*rl[i]*math.Pow(r0, 2-l), -h*rl[i+1]*math.Pow(r1, 2-l))
	}

	return -4 * math.Pi / (2*l + 1) * (pin*math.Pow(r, -(l+1)) + pout*math.Pow(r, l))
}

func (m *multipole) Value(x galaxy.Vec3) float64 {
	r := x.Norm()
	if r == 0 {
		r = m.dens.radii[0] * 1e-8
		return m.harmonic(0, r)
	}
	phi := m.harmonic(0, r)
	if len(m.rhoL) == 1 {
		return phi
	}
	p := make([]float64, m.dens.lmax+1)
	legendre(x[2]/r, p)
	for il := 1; il < len(m.rhoL); il++ {
		phi += m.harmonic(il, r) * p[2*il]
	}
	return phi
}

func (m *multipole) Density(x galaxy.Vec3) float64 {
	return m.dens.Density(x)
}
