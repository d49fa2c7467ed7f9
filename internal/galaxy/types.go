package galaxy

import "math"

type Vec3 [3]float64

func (v Vec3) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

func (v Vec3) Scale(f float64) Vec3 {
	return Vec3{v[0] * f, v[1] * f, v[2] * f}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v[0]*o[0] + v[1]*o[1] + v[2]*o[2]
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v[1]*o[2] - v[2]*o[1],
		v[2]*o[0] - v[0]*o[2],
		v[0]*o[1] - v[1]*o[0],
	}
}

func (v Vec3) IsValid() bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// PosVel is a phase-space point: position followed by velocity.
type PosVel [6]float64

func NewPosVel(x, v Vec3) PosVel {
	return PosVel{x[0], x[1], x[2], v[0], v[1], v[2]}
}

func (p PosVel) Pos() Vec3 { return Vec3{p[0], p[1], p[2]} }
func (p PosVel) Vel() Vec3 { return Vec3{p[3], p[4], p[5]} }

// Actions are the radial, vertical and azimuthal actions of an orbit.
type Actions struct {
	Jr   float64
	Jz   float64
	Jphi float64
}

type Density interface {
	Density(x Vec3) float64
}

// DensityFunc adapts an ordinary function to the Density interface.
type DensityFunc func(x Vec3) float64

func (f DensityFunc) Density(x Vec3) float64 { return f(x) }

type Potential interface {
	Value(x Vec3) float64
	Density(x Vec3) float64
}

type DistributionFunction interface {
	Value(j Actions) float64
}

type ActionFinder interface {
	Actions(xv PosVel) (Actions, error)
}

// MomentOptions selects which velocity moments are computed besides density.
type MomentOptions struct {
	Velocity   bool
	Dispersion bool
}

// Moments of a DF at a point. Vel2 holds <vx vx>, <vy vy>, <vz vz>,
// <vx vy>, <vx vz>, <vy vz>.
type Moments struct {
	Density  float64
	Velocity Vec3
	Vel2     [6]float64
}

type GalaxyModel interface {
	Moments(x Vec3, opts MomentOptions) (Moments, error)
	TotalMass() (float64, error)
}
