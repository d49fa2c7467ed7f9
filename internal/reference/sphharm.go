package reference

import (
	"math"
	"sort"

	"github.com/san-kum/scmodel/internal/galaxy"
)

// sphHarmDensity stores even Legendre coefficients rho_l(r) of an
// axisymmetric density on a log radial grid. The monopole is interpolated
// log-log when it is positive everywhere; higher harmonics are stored as
// ratios to the monopole.
type sphHarmDensity struct {
	radii    []float64
	logr     []float64
	rho0     []float64 // monopole at nodes
	logRho0  []float64 // nil unless rho0 > 0 everywhere
	ratios   [][]float64
	lmax     int
	slopeIn  float64
	slopeOut float64
}

// fitSphHarm projects fn onto even Legendre harmonics at every grid node.
func (b *Backend) fitSphHarm(fn galaxy.Density, grid galaxy.SphericalGrid) (*sphHarmDensity, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	radii := grid.Radii()
	nr := len(radii)
	lmax := grid.LMax - grid.LMax%2
	nl := lmax/2 + 1
	nodes, weights := gaussLegendre(lmax + 2)
	nt := len(nodes)

	samples := make([]float64, nr*nt)
	err := parallelFor(nr*nt, b.opts.Workers, func(k int) error {
		r := radii[k/nt]
		c := nodes[k%nt]
		s := math.Sqrt(1 - c*c)
		v := fn.Density(galaxy.Vec3{r * s, 0, r * c})
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return galaxy.ErrInvalidPoint
		}
		samples[k] = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	coefs := make([][]float64, nl)
	for il := range coefs {
		coefs[il] = make([]float64, nr)
	}
	p := make([]float64, lmax+1)
	for it, c := range nodes {
		legendre(c, p)
		for ir := 0; ir < nr; ir++ {
			v := samples[ir*nt+it] * weights[it]
			for il := 0; il < nl; il++ {
				l := 2 * il
				coefs[il][ir] += 0.5 * float64(2*l+1) * v * p[l]
			}
		}
	}

	return newSphHarmDensity(radii, coefs, lmax), nil
}

func newSphHarmDensity(radii []float64, coefs [][]float64, lmax int) *sphHarmDensity {
	nr := len(radii)
	d := &sphHarmDensity{
		radii: radii,
		logr:  make([]float64, nr),
		rho0:  coefs[0],
		lmax:  lmax,
	}
	for i, r := range radii {
		d.logr[i] = math.Log(r)
	}

	positive := true
	for _, v := range d.rho0 {
		if !(v > 0) {
			positive = false
			break
		}
	}
	if positive {
		d.logRho0 = make([]float64, nr)
		for i, v := range d.rho0 {
			d.logRho0[i] = math.Log(v)
		}
		d.slopeIn = (d.logRho0[1] - d.logRho0[0]) / (d.logr[1] - d.logr[0])
		d.slopeOut = (d.logRho0[nr-1] - d.logRho0[nr-2]) / (d.logr[nr-1] - d.logr[nr-2])
	}

	d.ratios = make([][]float64, len(coefs)-1)
	for il := 1; il < len(coefs); il++ {
		q := make([]float64, nr)
		for i := range q {
			if d.rho0[i] != 0 {
				q[i] = coefs[il][i] / d.rho0[i]
			}
		}
		d.ratios[il-1] = q
	}
	return d
}

// segment locates lnr in the grid and returns the lower node and the
// fractional position inside the segment.
func (d *sphHarmDensity) segment(lnr float64) (int, float64) {
	n := len(d.logr)
	i := sort.SearchFloat64s(d.logr, lnr) - 1
	if i < 0 {
		i = 0
	}
	if i > n-2 {
		i = n - 2
	}
	return i, (lnr - d.logr[i]) / (d.logr[i+1] - d.logr[i])
}

// monopole returns rho_0(r) including power-law extrapolation.
func (d *sphHarmDensity) monopole(r float64) float64 {
	n := len(d.radii)
	if r < d.radii[0] || r > d.radii[n-1] {
		if d.logRho0 == nil {
			return 0
		}
		if r < d.radii[0] {
			return d.rho0[0] * math.Pow(r/d.radii[0], d.slopeIn)
		}
		return d.rho0[n-1] * math.Pow(r/d.radii[n-1], d.slopeOut)
	}
	i, t := d.segment(math.Log(r))
	if d.logRho0 != nil {
		return math.Exp(d.logRho0[i] + t*(d.logRho0[i+1]-d.logRho0[i]))
	}
	return d.rho0[i] + t*(d.rho0[i+1]-d.rho0[i])
}

// coef returns rho_l(r) for the il-th even harmonic.
func (d *sphHarmDensity) coef(il int, r float64) float64 {
	m := d.monopole(r)
	if il == 0 || m == 0 {
		if il == 0 {
			return m
		}
		return 0
	}
	q := d.ratios[il-1]
	n := len(q)
	switch {
	case r <= d.radii[0]:
		return m * q[0]
	case r >= d.radii[n-1]:
		return m * q[n-1]
	}
	i, t := d.segment(math.Log(r))
	return m * (q[i] + t*(q[i+1]-q[i]))
}

func (d *sphHarmDensity) Density(x galaxy.Vec3) float64 {
	r := x.Norm()
	if r == 0 {
		r = d.radii[0] * 1e-8
		return d.monopole(r)
	}
	rho := d.monopole(r)
	if d.lmax == 0 || rho == 0 {
		return rho
	}
	p := make([]float64, d.lmax+1)
	legendre(x[2]/r, p)
	for il := 1; il <= d.lmax/2; il++ {
		rho += d.coef(il, r) * p[2*il]
	}
	return rho
}
