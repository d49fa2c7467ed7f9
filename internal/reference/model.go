package reference

import (
	"errors"
	"math"

	"github.com/san-kum/scmodel/internal/galaxy"
)

// galaxyModel integrates a DF over velocity space: Gauss-Legendre in speed
// up to the local escape speed and in cos(eta) (eta is the angle to the
// radial direction), uniform in the azimuth psi around it.
type galaxyModel struct {
	pot galaxy.Potential
	df  galaxy.DistributionFunction
	af  galaxy.ActionFinder
	b   *Backend
}

func (m *galaxyModel) Moments(x galaxy.Vec3, opts galaxy.MomentOptions) (galaxy.Moments, error) {
	if !x.IsValid() {
		return galaxy.Moments{}, galaxy.ErrInvalidPoint
	}
	phi := m.pot.Value(x)
	if !(phi < 0) {
		return galaxy.Moments{}, nil
	}
	vesc := math.Sqrt(-2 * phi)

	rhat, e1, e2 := basis(x)
	vNodes, vWeights := m.b.speedNodes, m.b.speedWeights
	cNodes, cWeights := m.b.angleNodes, m.b.angleWeights
	npsi := m.b.opts.AzimuthNodes
	dpsi := 2 * math.Pi / float64(npsi)

	var dens float64
	var mom1 galaxy.Vec3
	var mom2 [6]float64

	for iv, tv := range vNodes {
		v := 0.5 * vesc * (1 + tv)
		wv := 0.5 * vesc * vWeights[iv] * v * v
		for ic, c := range cNodes {
			s := math.Sqrt(1 - c*c)
			wc := wv * cWeights[ic] * dpsi
			for k := 0; k < npsi; k++ {
				psi := dpsi * (float64(k) + 0.5)
				tang := e1.Scale(math.Cos(psi)).Add(e2.Scale(math.Sin(psi)))
				vel := rhat.Scale(c * v).Add(tang.Scale(s * v))

				j, err := m.af.Actions(galaxy.NewPosVel(x, vel))
				if errors.Is(err, galaxy.ErrUnboundOrbit) {
					continue
				}
				if err != nil {
					return galaxy.Moments{}, err
				}
				w := wc * m.df.Value(j)
				dens += w
				if opts.Velocity {
					mom1 = mom1.Add(vel.Scale(w))
				}
				if opts.Dispersion {
					mom2[0] += w * vel[0] * vel[0]
					mom2[1] += w * vel[1] * vel[1]
					mom2[2] += w * vel[2] * vel[2]
					mom2[3] += w * vel[0] * vel[1]
					mom2[4] += w * vel[0] * vel[2]
					mom2[5] += w * vel[1] * vel[2]
				}
			}
		}
	}

	out := galaxy.Moments{Density: dens}
	if dens > 0 {
		if opts.Velocity {
			out.Velocity = mom1.Scale(1 / dens)
		}
		if opts.Dispersion {
			for i := range mom2 {
				out.Vel2[i] = mom2[i] / dens
			}
		}
	}
	return out, nil
}

// TotalMass integrates the density over the backend's mass grid, sampling
// each shell at cos(theta) = 1/sqrt(3).
func (m *galaxyModel) TotalMass() (float64, error) {
	grid := m.b.opts.MassGrid
	radii := grid.Radii()
	s := math.Sqrt(1 - cosAverage*cosAverage)

	rho := make([]float64, len(radii))
	err := parallelFor(len(radii), m.b.opts.Workers, func(i int) error {
		r := radii[i]
		mom, err := m.Moments(galaxy.Vec3{r * s, 0, r * cosAverage}, galaxy.MomentOptions{})
		if err != nil {
			return err
		}
		rho[i] = mom.Density
		return nil
	})
	if err != nil {
		return 0, err
	}

	// trapezoid in ln r
	mass := 0.0
	for i := 0; i+1 < len(radii); i++ {
		h := math.Log(radii[i+1] / radii[i])
		f0 := 4 * math.Pi * rho[i] * radii[i] * radii[i] * radii[i]
		f1 := 4 * math.Pi * rho[i+1] * radii[i+1] * radii[i+1] * radii[i+1]
		mass += 0.5 * h * (f0 + f1)
	}
	return mass, nil
}

// basis returns the radial unit vector at x and two unit vectors spanning
// the tangential plane.
func basis(x galaxy.Vec3) (rhat, e1, e2 galaxy.Vec3) {
	r := x.Norm()
	if r == 0 {
		return galaxy.Vec3{0, 0, 1}, galaxy.Vec3{1, 0, 0}, galaxy.Vec3{0, 1, 0}
	}
	rhat = x.Scale(1 / r)
	ref := galaxy.Vec3{0, 0, 1}
	if math.Abs(rhat[2]) > 0.9 {
		ref = galaxy.Vec3{1, 0, 0}
	}
	e1 = ref.Cross(rhat)
	e1 = e1.Scale(1 / e1.Norm())
	e2 = rhat.Cross(e1)
	return rhat, e1, e2
}
