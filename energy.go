package quvario

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/integrate/quad"

	"github.com/Starryblack/quVario/numint"
	"github.com/Starryblack/quVario/sym"
)

var (
	// ErrDiverges reports a trial function whose integrals are still
	// growing at the cutoff radius, so the finite interval cannot stand
	// in for the half line.
	ErrDiverges = errors.New("quvario: trial function does not decay before the cutoff")
	// ErrZeroNorm reports a trial function whose norm integral
	// vanishes, leaving the energy undefined.
	ErrZeroNorm = errors.New("quvario: trial function has zero norm")
)

const minNorm = 0x1p-1022 // Smallest positive normal float64.

// Options configure the evaluation and optimization of an energy
// functional.
type Options struct {
	param    string
	cutoff   float64
	absTol   float64
	relTol   float64
	maxDepth int
	tailTol  float64
	guess    float64
}

// NewOptions returns the default options: parameter symbol a, cutoff
// radius 1000, quadrature tolerances 1.49e-8, and initial guess 0.1.
func NewOptions() Options {
	return Options{
		param:    "a",
		cutoff:   1000,
		absTol:   1.49e-8,
		relTol:   1.49e-8,
		maxDepth: 48,
		tailTol:  1e-8,
		guess:    0.1,
	}
}

// Param sets the name of the variational parameter symbol.
func (opt Options) Param(name string) Options {
	opt.param = name
	return opt
}

// Cutoff sets the radius standing in for infinity in the radial
// integrals.
func (opt Options) Cutoff(radius float64) Options {
	opt.cutoff = radius
	return opt
}

// Tolerances sets the absolute and relative quadrature tolerances.
func (opt Options) Tolerances(absTol, relTol float64) Options {
	opt.absTol = absTol
	opt.relTol = relTol
	return opt
}

// MaxDepth sets the quadrature bisection depth limit.
func (opt Options) MaxDepth(depth int) Options {
	opt.maxDepth = depth
	return opt
}

// TailTol sets how large the integral beyond the cutoff may be,
// relative to the integral itself, before the trial function is
// rejected as non-decaying.
func (opt Options) TailTol(tol float64) Options {
	opt.tailTol = tol
	return opt
}

// Guess sets the starting value of the variational parameter.
func (opt Options) Guess(guess float64) Options {
	opt.guess = guess
	return opt
}

// Functional evaluates the variational energy of one trial function
// as a function of its parameter. Both integrands are compiled once at
// construction.
type Functional struct {
	expect sym.Func2
	norm   sym.Func2
	opt    Options
}

// NewFunctional builds the energy functional of psi under h. The trial
// function may reference the radial symbol and the parameter symbol
// and nothing else.
func NewFunctional(h Hamiltonian, psi sym.Expr, options ...Options) (*Functional, error) {
	opt := NewOptions()
	if len(options) > 0 {
		opt = options[0]
	}
	if opt.param == h.Coord.Radial {
		return nil, errors.Errorf("parameter symbol %q equals the radial symbol", opt.param)
	}
	eInt, nInt, err := h.Integrands(psi)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	expect, err := sym.Compile(eInt, h.Coord.Radial, opt.param)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	norm, err := sym.Compile(nInt, h.Coord.Radial, opt.param)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return &Functional{expect: expect, norm: norm, opt: opt}, nil
}

// integrate evaluates one radial integrand over [0, cutoff], then
// checks a single fixed panel beyond the cutoff. A tail that is not
// negligible next to the integral means the integrand has not decayed
// and the finite interval misrepresents the half line.
func (fn *Functional) integrate(f func(float64) float64) (float64, error) {
	opt := numint.NewOptions().
		AbsTol(fn.opt.absTol).
		RelTol(fn.opt.relTol).
		MaxDepth(fn.opt.maxDepth)
	v, err := numint.Adaptive(f, 0, fn.opt.cutoff, opt)
	if err != nil {
		return 0, errors.Wrap(err, "")
	}
	tail := quad.Fixed(f, fn.opt.cutoff, 2*fn.opt.cutoff, 15, nil, 0)
	if math.IsNaN(tail) || math.Abs(tail) > fn.opt.tailTol*math.Max(1, math.Abs(v)) {
		return 0, errors.Wrapf(ErrDiverges, "tail integral %g beyond cutoff %g", tail, fn.opt.cutoff)
	}
	return v, nil
}

// ExpectationIntegral returns the unnormalized expectation integral of
// the Hamiltonian at the given parameter value.
func (fn *Functional) ExpectationIntegral(param float64) (float64, error) {
	v, err := fn.integrate(func(r float64) float64 { return fn.expect(r, param) })
	if err != nil {
		return 0, errors.Wrap(err, "")
	}
	return v, nil
}

// NormalizationIntegral returns the squared normalization constant,
// the reciprocal of the norm integral, at the given parameter value.
func (fn *Functional) NormalizationIntegral(param float64) (float64, error) {
	v, err := fn.integrate(func(r float64) float64 { return fn.norm(r, param) })
	if err != nil {
		return 0, errors.Wrap(err, "")
	}
	if math.Abs(v) < minNorm {
		return 0, errors.Wrapf(ErrZeroNorm, "norm integral %g", v)
	}
	return 1 / v, nil
}

// Value returns the normalized energy at the given parameter value.
func (fn *Functional) Value(param float64) (float64, error) {
	norm, err := fn.NormalizationIntegral(param)
	if err != nil {
		return 0, errors.Wrap(err, "")
	}
	expect, err := fn.ExpectationIntegral(param)
	if err != nil {
		return 0, errors.Wrap(err, "")
	}
	return norm * expect, nil
}
