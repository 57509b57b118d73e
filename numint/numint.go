// Package numint integrates real functions of one variable over finite
// intervals. It drives fixed-order Gauss-Legendre panels adaptively:
// each panel is estimated with a 7 point and a 15 point rule, and
// panels where the two disagree are bisected until the estimates meet
// the tolerance or the depth limit is hit. Agreement is only trusted
// after a minimum number of bisections, so an integrand whose support
// is far narrower than the starting interval still lands on quadrature
// nodes before its integral can be accepted. Nodes are strictly
// interior, so integrands may be singular at the interval endpoints.
package numint

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/integrate/quad"
)

// ErrConverge reports an integral estimate that failed to reach the
// requested tolerance, typically because the integrand diverges or is
// not finite on the interval.
var ErrConverge = errors.New("numint: integral does not converge")

const (
	defaultTol      = 1.49e-8
	defaultMaxDepth = 48
	defaultMinDepth = 10
)

// Options configure Adaptive.
type Options struct {
	absTol   float64
	relTol   float64
	maxDepth int
	minDepth int
}

// NewOptions returns the default integration options.
func NewOptions() Options {
	return Options{
		absTol:   defaultTol,
		relTol:   defaultTol,
		maxDepth: defaultMaxDepth,
		minDepth: defaultMinDepth,
	}
}

// AbsTol sets the absolute tolerance on the integral estimate.
func (opt Options) AbsTol(tol float64) Options {
	opt.absTol = tol
	return opt
}

// RelTol sets the tolerance relative to the magnitude of the estimate.
func (opt Options) RelTol(tol float64) Options {
	opt.relTol = tol
	return opt
}

// MaxDepth sets the bisection depth limit.
func (opt Options) MaxDepth(depth int) Options {
	opt.maxDepth = depth
	return opt
}

// MinDepth sets the number of bisections performed before agreement
// between the two rules is trusted.
func (opt Options) MinDepth(depth int) Options {
	opt.minDepth = depth
	return opt
}

// Adaptive estimates the integral of f over [a, b].
func Adaptive(f func(float64) float64, a, b float64, options ...Options) (float64, error) {
	opt := NewOptions()
	if len(options) > 0 {
		opt = options[0]
	}
	if b <= a {
		return 0, errors.Errorf("invalid interval [%g, %g]", a, b)
	}
	v, err := adapt(f, a, b, opt.absTol, opt.relTol, opt.maxDepth, opt.minDepth)
	if err != nil {
		return 0, errors.Wrap(err, "")
	}
	return v, nil
}

func adapt(f func(float64) float64, a, b, absTol, relTol float64, depth, force int) (float64, error) {
	// Both rules can miss an integrand whose support falls between
	// their nodes, so agreement counts only after the forced splits.
	if force <= 0 {
		coarse := quad.Fixed(f, a, b, 7, nil, 0)
		fine := quad.Fixed(f, a, b, 15, nil, 0)
		if math.IsNaN(fine) || math.IsInf(fine, 0) {
			return 0, errors.Wrapf(ErrConverge, "non-finite panel on [%g, %g]", a, b)
		}
		if math.Abs(fine-coarse) <= absTol+relTol*math.Abs(fine) {
			return fine, nil
		}
	}
	if depth == 0 {
		return 0, errors.Wrapf(ErrConverge, "tolerance not met on [%g, %g]", a, b)
	}
	mid := a + (b-a)/2
	if mid <= a || mid >= b {
		return 0, errors.Wrapf(ErrConverge, "interval [%g, %g] cannot be split", a, b)
	}
	// Each half gets half the absolute tolerance, keeping the summed
	// panel errors within the caller's tolerance.
	left, err := adapt(f, a, mid, absTol/2, relTol, depth-1, force-1)
	if err != nil {
		return 0, errors.Wrap(err, "")
	}
	right, err := adapt(f, mid, b, absTol/2, relTol, depth-1, force-1)
	if err != nil {
		return 0, errors.Wrap(err, "")
	}
	return left + right, nil
}
