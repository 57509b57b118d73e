package sym

import (
	"math"

	"github.com/pkg/errors"
)

// Func2 is a compiled expression of two variables.
type Func2 func(x, y float64) float64

// Compile turns e into a plain numeric function of the two named
// symbols. Every symbol in e must be one of the two names, and every
// applied function must be known to the package; anything else fails
// with ErrCompile. The returned closure carries no interpreter state
// and is safe for concurrent use.
func Compile(e Expr, x, y string) (Func2, error) {
	switch v := e.(type) {
	case *Num:
		c := v.Float64()
		return func(_, _ float64) float64 { return c }, nil

	case *Sym:
		switch v.name {
		case x:
			return func(x, _ float64) float64 { return x }, nil
		case y:
			return func(_, y float64) float64 { return y }, nil
		}
		return nil, errors.Wrapf(ErrCompile, "unbound symbol %q", v.name)

	case *Add:
		fs, err := compileAll(v.terms, x, y)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		return func(x, y float64) float64 {
			sum := 0.0
			for _, f := range fs {
				sum += f(x, y)
			}
			return sum
		}, nil

	case *Mul:
		fs, err := compileAll(v.factors, x, y)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		return func(x, y float64) float64 {
			prod := 1.0
			for _, f := range fs {
				prod *= f(x, y)
			}
			return prod
		}, nil

	case *Pow:
		return compilePow(v, x, y)

	case *Call:
		fn, ok := functions[v.fn]
		if !ok {
			return nil, errors.Wrapf(ErrCompile, "unknown function %q", v.fn)
		}
		arg, err := Compile(v.arg, x, y)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		eval := fn.eval
		return func(x, y float64) float64 { return eval(arg(x, y)) }, nil
	}
	return nil, errors.Wrapf(ErrCompile, "unsupported expression %s", e)
}

func compileAll(es []Expr, x, y string) ([]Func2, error) {
	fs := make([]Func2, len(es))
	for i, e := range es {
		f, err := Compile(e, x, y)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		fs[i] = f
	}
	return fs, nil
}

func compilePow(p *Pow, x, y string) (Func2, error) {
	base, err := Compile(p.base, x, y)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if n, ok := p.exp.(*Num); ok {
		if n.IsInteger() && n.val.Num().IsInt64() {
			switch k := n.val.Num().Int64(); k {
			case 2:
				return func(x, y float64) float64 { b := base(x, y); return b * b }, nil
			case -1:
				return func(x, y float64) float64 { return 1 / base(x, y) }, nil
			case -2:
				return func(x, y float64) float64 { b := base(x, y); return 1 / (b * b) }, nil
			default:
				c := float64(k)
				return func(x, y float64) float64 { return math.Pow(base(x, y), c) }, nil
			}
		}
		c := n.Float64()
		return func(x, y float64) float64 { return math.Pow(base(x, y), c) }, nil
	}
	exp, err := Compile(p.exp, x, y)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return func(x, y float64) float64 { return math.Pow(base(x, y), exp(x, y)) }, nil
}
