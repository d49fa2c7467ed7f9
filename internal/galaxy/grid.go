package galaxy

import "math"

type Symmetry int

const (
	Axisymmetric Symmetry = iota
	Spherical
)

func (s Symmetry) String() string {
	switch s {
	case Spherical:
		return "s"
	default:
		return "a"
	}
}

// SphericalGrid configures a log-spaced radial grid with angular truncation
// order LMax.
type SphericalGrid struct {
	RMin       float64
	RMax       float64
	SizeRadial int
	LMax       int
}

func (g SphericalGrid) Validate() error {
	if !(g.RMin > 0) || math.IsInf(g.RMin, 0) {
		return Configf("rmin", "must be positive, got %g", g.RMin)
	}
	if !(g.RMax > g.RMin) || math.IsInf(g.RMax, 0) {
		return Configf("rmax", "must exceed rmin (%g), got %g", g.RMin, g.RMax)
	}
	if g.SizeRadial < 3 {
		return Configf("size_radial", "need at least 3 nodes, got %d", g.SizeRadial)
	}
	if g.LMax < 0 {
		return Configf("lmax", "must be non-negative, got %d", g.LMax)
	}
	return nil
}

// Radii returns the log-spaced grid nodes.
func (g SphericalGrid) Radii() []float64 {
	r := make([]float64, g.SizeRadial)
	ratio := math.Log(g.RMax / g.RMin)
	for i := range r {
		r[i] = g.RMin * math.Exp(ratio*float64(i)/float64(g.SizeRadial-1))
	}
	r[len(r)-1] = g.RMax
	return r
}

// CylindricalGrid configures the (R, z) grid of disk-like expansions. The
// first node in each direction is zero; the rest are log-spaced.
type CylindricalGrid struct {
	RMin         float64
	RMax         float64
	SizeRadial   int
	ZMin         float64
	ZMax         float64
	SizeVertical int
}

func (g CylindricalGrid) Validate() error {
	if !(g.RMin > 0) {
		return Configf("rmin_cyl", "must be positive, got %g", g.RMin)
	}
	if !(g.RMax > g.RMin) || math.IsInf(g.RMax, 0) {
		return Configf("rmax_cyl", "must exceed rmin_cyl (%g), got %g", g.RMin, g.RMax)
	}
	if g.SizeRadial < 3 {
		return Configf("size_radial_cyl", "need at least 3 nodes, got %d", g.SizeRadial)
	}
	if !(g.ZMin > 0) {
		return Configf("zmin_cyl", "must be positive, got %g", g.ZMin)
	}
	if !(g.ZMax > g.ZMin) || math.IsInf(g.ZMax, 0) {
		return Configf("zmax_cyl", "must exceed zmin_cyl (%g), got %g", g.ZMin, g.ZMax)
	}
	if g.SizeVertical < 3 {
		return Configf("size_vertical_cyl", "need at least 3 nodes, got %d", g.SizeVertical)
	}
	return nil
}

func (g CylindricalGrid) RNodes() []float64 {
	return zeroLogNodes(g.RMin, g.RMax, g.SizeRadial)
}

func (g CylindricalGrid) ZNodes() []float64 {
	return zeroLogNodes(g.ZMin, g.ZMax, g.SizeVertical)
}

func zeroLogNodes(min, max float64, n int) []float64 {
	nodes := make([]float64, n)
	ratio := math.Log(max / min)
	for i := 1; i < n; i++ {
		nodes[i] = min * math.Exp(ratio*float64(i-1)/float64(n-2))
	}
	nodes[n-1] = max
	return nodes
}

// SphericalExpansion parameterises Multipole potentials and spherical-harmonic
// densities.
type SphericalExpansion struct {
	Grid     SphericalGrid
	MMax     int
	Symmetry Symmetry
}

// CylindricalExpansion parameterises CylSpline potentials and
// azimuthal-harmonic densities.
type CylindricalExpansion struct {
	Grid     CylindricalGrid
	MMax     int
	Symmetry Symmetry
}
