package quvario

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/Starryblack/quVario/sym"
)

// Trial is one candidate wavefunction read from a trial function file.
type Trial struct {
	Source string
	Expr   sym.Expr
}

// Result is the outcome of optimizing one trial function.
type Result struct {
	Source string
	Param  float64
	Energy float64
}

// ReadTrials parses trial functions, one expression per line. Every
// line must parse, blank lines included; the first line that fails
// fails the whole read.
func ReadTrials(r io.Reader) ([]Trial, error) {
	var trials []Trial
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		src := strings.TrimSpace(sc.Text())
		e, err := sym.Parse(src)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		trials = append(trials, Trial{Source: src, Expr: e})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return trials, nil
}

// LoadTrials reads trial functions from a file.
func LoadTrials(path string) ([]Trial, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer f.Close()
	trials, err := ReadTrials(f)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return trials, nil
}

// MinimizeAll optimizes every trial function in order under the same
// Hamiltonian and options. The first trial that cannot be evaluated
// aborts the run.
func MinimizeAll(h Hamiltonian, trials []Trial, options ...Options) ([]Result, error) {
	opt := NewOptions()
	if len(options) > 0 {
		opt = options[0]
	}
	results := make([]Result, 0, len(trials))
	for _, trial := range trials {
		fn, err := NewFunctional(h, trial.Expr, opt)
		if err != nil {
			return nil, errors.Wrapf(err, "psi = %s", trial.Source)
		}
		param, energy, err := fn.Minimize()
		if err != nil {
			return nil, errors.Wrapf(err, "psi = %s", trial.Source)
		}
		results = append(results, Result{Source: trial.Source, Param: param, Energy: energy})
	}
	return results, nil
}

// Best returns the result with the lowest energy bound.
func Best(results []Result) (Result, error) {
	if len(results) == 0 {
		return Result{}, errors.New("quvario: no results")
	}
	best := results[0]
	for _, res := range results[1:] {
		if res.Energy < best.Energy {
			best = res
		}
	}
	return best, nil
}
