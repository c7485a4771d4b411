// Package bounded provides derivative-free scalar minimization over a
// closed interval, used by the theta-square cut optimizer.
package bounded

import (
	"errors"
	"math"
)

// ErrInvalidInterval is returned when the search interval is empty or
// contains non-finite bounds.
var ErrInvalidInterval = errors.New("bounded: invalid search interval")

// ErrNoConvergence is returned when the minimizer exhausts its iteration
// budget without bracketing the minimum to tolerance.
var ErrNoConvergence = errors.New("bounded: minimizer did not converge")

const (
	maxIter = 500
	xatol   = 1e-8

	// golden is (3 - sqrt(5))/2, the golden-section step fraction.
	golden = 0.3819660112501051
)

// Minimize finds a local minimum of f on [lo, hi] using Brent's method
// (golden-section search with successive parabolic interpolation). It
// returns the abscissa and the function value at the minimum.
func Minimize(f func(float64) float64, lo, hi float64) (float64, float64, error) {
	if !(lo < hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) ||
		math.IsNaN(lo) || math.IsNaN(hi) {
		return 0, 0, ErrInvalidInterval
	}

	a, b := lo, hi

	x := a + golden*(b-a)
	w, v := x, x
	fx := f(x)
	fw, fv := fx, fx

	// d is the last step, e the one before it (parabolic-fit guard).
	var d, e float64

	for range maxIter {
		m := 0.5 * (a + b)
		tol1 := xatol*math.Abs(x) + xatol/3
		tol2 := 2 * tol1

		if math.Abs(x-m) <= tol2-0.5*(b-a) {
			return x, fx, nil
		}

		useGolden := true

		if math.Abs(e) > tol1 {
			// Fit a parabola through (v,fv), (w,fw), (x,fx).
			r := (x - w) * (fx - fv)
			q := (x - v) * (fx - fw)
			p := (x-v)*q - (x-w)*r
			q = 2 * (q - r)

			if q > 0 {
				p = -p
			}
			q = math.Abs(q)

			eOld := e
			e = d

			if math.Abs(p) < math.Abs(0.5*q*eOld) && p > q*(a-x) && p < q*(b-x) {
				d = p / q
				u := x + d

				// Keep the probe away from the bounds.
				if u-a < tol2 || b-u < tol2 {
					d = tol1
					if x >= m {
						d = -tol1
					}
				}
				useGolden = false
			}
		}

		if useGolden {
			if x < m {
				e = b - x
			} else {
				e = a - x
			}
			d = golden * e
		}

		var u float64
		if math.Abs(d) >= tol1 {
			u = x + d
		} else if d > 0 {
			u = x + tol1
		} else {
			u = x - tol1
		}

		fu := f(u)

		if fu <= fx {
			if u < x {
				b = x
			} else {
				a = x
			}
			v, fv = w, fw
			w, fw = x, fx
			x, fx = u, fu
		} else {
			if u < x {
				a = u
			} else {
				b = u
			}
			if fu <= fw || w == x {
				v, fv = w, fw
				w, fw = u, fu
			} else if fu <= fv || v == x || v == w {
				v, fv = u, fu
			}
		}
	}

	return 0, 0, ErrNoConvergence
}
