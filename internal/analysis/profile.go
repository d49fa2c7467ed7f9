package analysis

import (
	"math"

	"github.com/san-kum/scmodel/internal/galaxy"
	"github.com/san-kum/scmodel/internal/scm"
)

// Profile holds quantities sampled along the (1,1,1) direction, where the
// quadrupole term of an axisymmetric expansion vanishes.
type Profile struct {
	Radii            []float64 `json:"radii"`
	Potential        []float64 `json:"potential"`
	CircularVelocity []float64 `json:"circular_velocity"`
	Total            []float64 `json:"total"`
	// Components[i][k] is the density of component i at Radii[k]. Static
	// potentials contribute their own density.
	Components [][]float64 `json:"components"`
}

// LogSpace returns n points spaced evenly in log between min and max.
func LogSpace(min, max float64, n int) []float64 {
	if n <= 0 || min <= 0 || max <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{min}
	}
	out := make([]float64, n)
	lmin, lmax := math.Log(min), math.Log(max)
	step := (lmax - lmin) / float64(n-1)
	for i := range out {
		out[i] = math.Exp(lmin + step*float64(i))
	}
	out[0], out[n-1] = min, max
	return out
}

func along(r float64) galaxy.Vec3 {
	c := r / math.Sqrt(3)
	return galaxy.Vec3{c, c, c}
}

// SampleProfile evaluates pot and each component's density at radii.
func SampleProfile(pot galaxy.Potential, comps []scm.Component, radii []float64) *Profile {
	n := len(radii)
	p := &Profile{
		Radii:            append([]float64(nil), radii...),
		Potential:        make([]float64, n),
		CircularVelocity: make([]float64, n),
		Total:            make([]float64, n),
		Components:       make([][]float64, len(comps)),
	}

	for k, r := range radii {
		x := along(r)
		p.Potential[k] = pot.Value(x)
		p.Total[k] = pot.Density(x)
		p.CircularVelocity[k] = circularVelocity(pot, r)
	}

	for i, c := range comps {
		row := make([]float64, n)
		var d galaxy.Density
		if dens := c.Density(); dens != nil {
			d = dens
		} else if pp := c.Potential(); pp != nil {
			d = pp
		}
		if d != nil {
			for k, r := range radii {
				row[k] = d.Density(along(r))
			}
		}
		p.Components[i] = row
	}
	return p
}

// circularVelocity is sqrt(r dPhi/dr) from a central difference in the
// equatorial plane.
func circularVelocity(pot galaxy.Potential, r float64) float64 {
	h := 1e-4 * r
	d := (pot.Value(galaxy.Vec3{r + h, 0, 0}) - pot.Value(galaxy.Vec3{r - h, 0, 0})) / (2 * h)
	if d <= 0 {
		return 0
	}
	return math.Sqrt(r * d)
}
