// Package estimator extrapolates the cost of the next run of a campaign
// from the costs observed so far.
//
// Costs are samples of a monotonic curve at positions 1, 2, 3, ... with an
// implicit zero at position 0. Up to three samples are extrapolated with
// the quadratic through the trailing three points; four or more with a
// not-a-knot cubic spline through every point. The exponential mode runs
// the same procedure on log(cost+1) and maps the result back.
package estimator

import (
	"fmt"
	"math"
)

// Growth is the declared shape of a campaign's cost curve.
type Growth string

const (
	Linear      Growth = "linear"
	Exponential Growth = "exponential"
)

// ParseGrowth validates a growth name. The empty name is Exponential.
func ParseGrowth(s string) (Growth, error) {
	switch Growth(s) {
	case "", Exponential:
		return Exponential, nil
	case Linear:
		return Linear, nil
	default:
		return "", fmt.Errorf("unknown growth %q", s)
	}
}

// SplineThreshold is the number of observed samples from which the
// spline path is used.
const SplineThreshold = 4

// Fitter evaluates interpolants through (xs, ys) at a position beyond the
// last sample.
type Fitter interface {
	// Poly fits the polynomial of degree len(xs)-1 through the points.
	Poly(xs, ys []float64, at float64) (float64, error)
	// Spline fits a not-a-knot cubic spline through the points.
	Spline(xs, ys []float64, at float64) (float64, error)
}

// Estimator predicts the next cost of a campaign.
type Estimator struct {
	fit    Fitter
	growth Growth
}

// New returns an Estimator using fit. A nil fit selects Native.
func New(fit Fitter, growth Growth) *Estimator {
	if fit == nil {
		fit = Native{}
	}
	if growth == "" {
		growth = Exponential
	}
	return &Estimator{fit: fit, growth: growth}
}

// Growth returns the curve shape the estimator assumes.
func (e *Estimator) Growth() Growth { return e.growth }

// Next returns the estimated cost of run len(costs)+1. With no samples
// the estimate is zero.
func (e *Estimator) Next(costs []float64) (float64, error) {
	if len(costs) == 0 {
		return 0, nil
	}
	if e.growth == Linear {
		return e.next(costs)
	}
	logs := make([]float64, len(costs))
	for i, c := range costs {
		logs[i] = math.Log1p(math.Max(c, 0))
	}
	v, err := e.next(logs)
	if err != nil {
		return 0, err
	}
	return math.Expm1(v), nil
}

func (e *Estimator) next(costs []float64) (float64, error) {
	n := len(costs)
	xs := make([]float64, n+1)
	ys := make([]float64, n+1)
	for i := 1; i <= n; i++ {
		xs[i] = float64(i)
		ys[i] = costs[i-1]
	}
	at := float64(n + 1)
	if n >= SplineThreshold {
		return e.fit.Spline(xs, ys, at)
	}
	lo := max(0, len(xs)-3)
	return e.fit.Poly(xs[lo:], ys[lo:], at)
}
