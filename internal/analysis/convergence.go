package analysis

import "math"

// ConvergenceRate fits ln(change) against iteration number and returns the
// per-iteration contraction factor exp(slope). Non-positive entries are
// skipped; ok is false when fewer than two remain.
func ConvergenceRate(changes []float64) (factor float64, ok bool) {
	var n, sx, sy, sxx, sxy float64
	for i, c := range changes {
		if !(c > 0) || math.IsInf(c, 0) {
			continue
		}
		x, y := float64(i), math.Log(c)
		n++
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	if n < 2 {
		return 0, false
	}
	denom := n*sxx - sx*sx
	if denom == 0 {
		return 0, false
	}
	slope := (n*sxy - sx*sy) / denom
	return math.Exp(slope), true
}

// IterationsToReach estimates how many further iterations reduce last below
// tol at the given contraction factor. It returns -1 when factor >= 1.
func IterationsToReach(last, tol, factor float64) int {
	if last <= tol {
		return 0
	}
	if !(factor > 0) || factor >= 1 {
		return -1
	}
	return int(math.Ceil(math.Log(tol/last) / math.Log(factor)))
}
