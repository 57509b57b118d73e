package quvario

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/optimize"
)

// badValue stands in for the energy at parameter values where the
// integrals cannot be evaluated, steering the simplex back to the
// valid region.
const badValue = 1e10

// Minimize runs a derivative-free simplex search from guess and
// returns the approximate minimizer of objective together with the
// value there.
func Minimize(objective func(float64) float64, guess float64) (x, value float64, err error) {
	problem := optimize.Problem{
		Func: func(xs []float64) float64 { return objective(xs[0]) },
	}
	result, err := optimize.Minimize(problem, []float64{guess}, nil, &optimize.NelderMead{})
	if err != nil {
		return 0, 0, errors.Wrap(err, "")
	}
	if err := result.Status.Err(); err != nil {
		return 0, 0, errors.Wrap(err, "")
	}
	return result.X[0], result.F, nil
}

// Minimize finds the parameter value that minimizes the energy,
// starting the simplex from the configured guess. The functional must
// be evaluable at the guess; parameter values probed later that render
// the integrals invalid score badValue instead of aborting the search.
func (fn *Functional) Minimize() (param, energy float64, err error) {
	if _, err := fn.Value(fn.opt.guess); err != nil {
		return 0, 0, errors.Wrap(err, "")
	}
	objective := func(x float64) float64 {
		v, err := fn.Value(x)
		if err != nil || math.IsNaN(v) {
			return badValue
		}
		return v
	}
	param, energy, err = Minimize(objective, fn.opt.guess)
	if err != nil {
		return 0, 0, errors.Wrap(err, "")
	}
	return param, energy, nil
}
