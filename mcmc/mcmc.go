// Package mcmc estimates expectation values over electronic
// configurations with Metropolis-Hastings sampling. Chains displace
// one electron at a time, and independent walkers supply the spread
// that the standard error of the estimate is computed from.
package mcmc

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Density is an unnormalized probability density over configuration
// space. The coordinate vector holds three components per electron.
type Density func(x []float64, param float64) float64

// Observable maps a configuration to the quantity being averaged.
type Observable func(x []float64, param float64) float64

// stepScale bounds both the initial coordinates and the trial moves,
// in Bohr radii.
const stepScale = 3.0

// MetropolisHastings runs one sampling chain of the density. Each step
// proposes a uniform displacement of a single randomly chosen electron
// and accepts it with the usual ratio rule. It returns the
// configuration after every step and the fraction of rejected moves.
// The dimension count is three coordinates per electron.
func MetropolisHastings(p Density, iters int, param float64, dims int, rng *rand.Rand) ([][]float64, float64, error) {
	if iters <= 0 {
		return nil, 0, errors.Errorf("iterations %d", iters)
	}
	if dims <= 0 || dims%3 != 0 {
		return nil, 0, errors.Errorf("dimensions %d", dims)
	}
	electrons := dims / 3
	uniform := distuv.Uniform{Min: -stepScale, Max: stepScale, Src: rng}

	x := make([]float64, dims)
	for i := range x {
		x[i] = uniform.Rand()
	}
	cur := p(x, param)

	samples := make([][]float64, 0, iters)
	next := make([]float64, dims)
	rejected := 0
	for i := 0; i < iters; i++ {
		copy(next, x)
		e := rng.Intn(electrons)
		for j := 3 * e; j < 3*e+3; j++ {
			next[j] += uniform.Rand() / float64(electrons)
		}
		if v := p(next, param); v > cur*rng.Float64() {
			copy(x, next)
			cur = v
		} else {
			rejected++
		}
		state := make([]float64, dims)
		copy(state, x)
		samples = append(samples, state)
	}
	return samples, float64(rejected) / float64(iters), nil
}

// Result summarizes a Monte Carlo integration.
type Result struct {
	// Mean is the estimate of the expectation value.
	Mean float64
	// StdErr is the standard error of Mean across walkers.
	StdErr float64
	// RejectRatio is the fraction of rejected moves, averaged over
	// walkers.
	RejectRatio float64
	// Samples holds the observable at every recorded configuration,
	// walker by walker.
	Samples []float64
}

// Integrate estimates the expectation of q under the normalized
// density p by running the given number of independent walkers, each
// a Metropolis-Hastings chain of iters steps. The standard error is
// the spread of the per-walker means.
func Integrate(p Density, q Observable, iters, walkers int, param float64, dims int, rng *rand.Rand) (Result, error) {
	if walkers <= 0 {
		return Result{}, errors.Errorf("walkers %d", walkers)
	}
	means := make([]float64, walkers)
	all := make([]float64, 0, iters*walkers)
	rejects := 0.0
	for w := 0; w < walkers; w++ {
		chain, rejectRatio, err := MetropolisHastings(p, iters, param, dims, rng)
		if err != nil {
			return Result{}, errors.Wrap(err, "")
		}
		values := make([]float64, len(chain))
		for i, x := range chain {
			values[i] = q(x, param)
		}
		means[w] = stat.Mean(values, nil)
		all = append(all, values...)
		rejects += rejectRatio
	}
	std := stat.PopStdDev(means, nil)
	return Result{
		Mean:        stat.Mean(means, nil),
		StdErr:      stat.StdErr(std, float64(walkers)),
		RejectRatio: rejects / float64(walkers),
		Samples:     all,
	}, nil
}
