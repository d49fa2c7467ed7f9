package reference

import "math"

// gaussLegendre returns n nodes and weights on [-1, 1].
func gaussLegendre(n int) (x, w []float64) {
	x = make([]float64, n)
	w = make([]float64, n)
	for i := 0; i < (n+1)/2; i++ {
		z := math.Cos(math.Pi * (float64(i) + 0.75) / (float64(n) + 0.5))
		var pp float64
		for iter := 0; iter < 100; iter++ {
			p1, p2 := 1.0, 0.0
			for j := 1; j <= n; j++ {
				p3 := p2
				p2 = p1
				p1 = ((2*float64(j)-1)*z*p2 - (float64(j)-1)*p3) / float64(j)
			}
			pp = float64(n) * (z*p1 - p2) / (z*z - 1)
			z1 := z
			z = z1 - p1/pp
			if math.Abs(z-z1) < 1e-15 {
				break
			}
		}
		if n%2 == 1 && i == n/2 {
			z = 0
		}
		x[i] = -z
		x[n-1-i] = z
		w[i] = 2 / ((1 - z*z) * pp * pp)
		w[n-1-i] = w[i]
	}
	return x, w
}

// legendre fills p[l] = P_l(x) for l = 0..len(p)-1.
func legendre(x float64, p []float64) {
	if len(p) == 0 {
		return
	}
	p[0] = 1
	if len(p) == 1 {
		return
	}
	p[1] = x
	for l := 2; l < len(p); l++ {
		p[l] = ((2*float64(l)-1)*x*p[l-1] - (float64(l)-1)*p[l-2]) / float64(l)
	}
}

// simpson integrates f over [a, b] with n (even) intervals.
func simpson(f func(float64) float64, a, b float64, n int) float64 {
	if n%2 == 1 {
		n++
	}
	h := (b - a) / float64(n)
	sum := f(a) + f(b)
	for i := 1; i < n; i++ {
		c := 2.0
		if i%2 == 1 {
			c = 4.0
		}
		sum += c * f(a+float64(i)*h)
	}
	return sum * h / 3
}

// powerIntegral returns the integral over [r1, r2] of rho(r) r^k dr for the
// power law rho(r) = rhoA (r/rA)^s.
func powerIntegral(rhoA, rA, s, k, r1, r2 float64) float64 {
	p := s + k + 1
	prim := func(u float64) float64 {
		if math.Abs(p) < 1e-10 {
			return math.Log(u)
		}
		return math.Pow(u, p) / p
	}
	u1 := r1 / rA
	var f1 float64
	if u1 > 0 || math.Abs(p) < 1e-10 {
		f1 = prim(u1)
	}
	return rhoA * math.Pow(rA, k+1) * (prim(r2/rA) - f1)
}

// hermite evaluates the cubic Hermite interpolant on [0, 1] with values
// y0, y1 and derivatives d0, d1 (already scaled by the interval length).
func hermite(t, y0, y1, d0, d1 float64) float64 {
	t2 := t * t
	t3 := t2 * t
	return (2*t3-3*t2+1)*y0 + (t3-2*t2+t)*d0 + (-2*t3+3*t2)*y1 + (t3-t2)*d1
}
