package estimator

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Native fits interpolants in-process with gonum.
type Native struct{}

// Poly solves the Vandermonde system for the interpolating polynomial and
// evaluates it at at.
func (Native) Poly(xs, ys []float64, at float64) (float64, error) {
	n := len(xs)
	if n == 0 || n != len(ys) {
		return 0, errors.New("poly: need matching non-empty samples")
	}
	a := mat.NewDense(n, n, nil)
	for i, x := range xs {
		for j := 0; j < n; j++ {
			a.Set(i, j, math.Pow(x, float64(j)))
		}
	}
	var coef mat.VecDense
	if err := coef.SolveVec(a, mat.NewVecDense(n, append([]float64(nil), ys...))); err != nil {
		return 0, fmt.Errorf("poly: %w", err)
	}
	var v float64
	for j := n - 1; j >= 0; j-- {
		v = v*at + coef.AtVec(j)
	}
	return v, nil
}

// Spline builds the not-a-knot cubic spline through the points and
// extrapolates its last piece to at. Points must be strictly increasing
// in x and number at least four.
func (Native) Spline(xs, ys []float64, at float64) (float64, error) {
	n := len(xs) - 1
	if n < 3 || len(ys) != len(xs) {
		return 0, errors.New("spline: need at least four points")
	}
	h := make([]float64, n)
	for i := range h {
		h[i] = xs[i+1] - xs[i]
		if h[i] <= 0 {
			return 0, errors.New("spline: x must be strictly increasing")
		}
	}

	// Unknowns are the second derivatives m[0..n].
	a := mat.NewDense(n+1, n+1, nil)
	b := mat.NewVecDense(n+1, nil)
	a.Set(0, 0, h[1])
	a.Set(0, 1, -(h[0] + h[1]))
	a.Set(0, 2, h[0])
	for i := 1; i < n; i++ {
		a.Set(i, i-1, h[i-1])
		a.Set(i, i, 2*(h[i-1]+h[i]))
		a.Set(i, i+1, h[i])
		b.SetVec(i, 6*((ys[i+1]-ys[i])/h[i]-(ys[i]-ys[i-1])/h[i-1]))
	}
	a.Set(n, n-2, h[n-1])
	a.Set(n, n-1, -(h[n-2] + h[n-1]))
	a.Set(n, n, h[n-2])

	var m mat.VecDense
	if err := m.SolveVec(a, b); err != nil {
		return 0, fmt.Errorf("spline: %w", err)
	}

	lo, hi := xs[n-1], xs[n]
	hl := h[n-1]
	ml, mh := m.AtVec(n-1), m.AtVec(n)
	left, right := hi-at, at-lo
	return ml*left*left*left/(6*hl) + mh*right*right*right/(6*hl) +
		(ys[n-1]/hl-ml*hl/6)*left + (ys[n]/hl-mh*hl/6)*right, nil
}
