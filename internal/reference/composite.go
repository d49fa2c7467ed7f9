package reference

import "github.com/san-kum/scmodel/internal/galaxy"

type compositeDensity []galaxy.Density

func (c compositeDensity) Density(x galaxy.Vec3) float64 {
	sum := 0.0
	for _, d := range c {
		sum += d.Density(x)
	}
	return sum
}

type compositePotential []galaxy.Potential

func (c compositePotential) Value(x galaxy.Vec3) float64 {
	sum := 0.0
	for _, p := range c {
		sum += p.Value(x)
	}
	return sum
}

func (c compositePotential) Density(x galaxy.Vec3) float64 {
	sum := 0.0
	for _, p := range c {
		sum += p.Density(x)
	}
	return sum
}
