package reference

import (
	"math"
	"sort"

	"github.com/san-kum/scmodel/internal/galaxy"
)

// aziHarmDensity is the m=0 term of an azimuthal-harmonic expansion: a
// bilinear table over (R, |z|), zero outside the grid.
type aziHarmDensity struct {
	rNodes []float64
	zNodes []float64
	values []float64 // row-major, len(rNodes) x len(zNodes)
}

func (b *Backend) fitAziHarm(fn galaxy.Density, grid galaxy.CylindricalGrid) (*aziHarmDensity, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	d := &aziHarmDensity{
		rNodes: grid.RNodes(),
		zNodes: grid.ZNodes(),
	}
	nz := len(d.zNodes)
	d.values = make([]float64, len(d.rNodes)*nz)

	err := parallelFor(len(d.values), b.opts.Workers, func(k int) error {
		v := fn.Density(galaxy.Vec3{d.rNodes[k/nz], 0, d.zNodes[k%nz]})
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return galaxy.ErrInvalidPoint
		}
		d.values[k] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func bracket(nodes []float64, v float64) (int, float64) {
	i := sort.SearchFloat64s(nodes, v) - 1
	if i < 0 {
		i = 0
	}
	if i > len(nodes)-2 {
		i = len(nodes) - 2
	}
	return i, (v - nodes[i]) / (nodes[i+1] - nodes[i])
}

func (d *aziHarmDensity) Density(x galaxy.Vec3) float64 {
	R := math.Hypot(x[0], x[1])
	z := math.Abs(x[2])
	if R > d.rNodes[len(d.rNodes)-1] || z > d.zNodes[len(d.zNodes)-1] {
		return 0
	}

	nz := len(d.zNodes)
	i, tr := bracket(d.rNodes, R)
	j, tz := bracket(d.zNodes, z)
	v00 := d.values[i*nz+j]
	v01 := d.values[i*nz+j+1]
	v10 := d.values[(i+1)*nz+j]
	v11 := d.values[(i+1)*nz+j+1]
	return (1-tr)*((1-tz)*v00+tz*v01) + tr*((1-tz)*v10+tz*v11)
}
