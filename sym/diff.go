package sym

import "github.com/pkg/errors"

// Diff returns the derivative of e with respect to the named symbol.
// It fails when e applies an unknown function, or one with no
// closed-form derivative such as sign.
func Diff(e Expr, name string) (Expr, error) {
	switch v := e.(type) {
	case *Num:
		return N(0), nil

	case *Sym:
		if v.name == name {
			return N(1), nil
		}
		return N(0), nil

	case *Add:
		terms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			d, err := Diff(t, name)
			if err != nil {
				return nil, errors.Wrap(err, "")
			}
			terms[i] = d
		}
		return AddOf(terms...), nil

	case *Mul:
		terms := make([]Expr, 0, len(v.factors))
		for i := range v.factors {
			d, err := Diff(v.factors[i], name)
			if err != nil {
				return nil, errors.Wrap(err, "")
			}
			rest := make([]Expr, 0, len(v.factors))
			rest = append(rest, d)
			for j, f := range v.factors {
				if j != i {
					rest = append(rest, f)
				}
			}
			terms = append(terms, MulOf(rest...))
		}
		return AddOf(terms...), nil

	case *Pow:
		return diffPow(v, name)

	case *Call:
		fn, ok := functions[v.fn]
		if !ok {
			return nil, errors.Wrapf(ErrDerivative, "unknown function %q", v.fn)
		}
		if fn.diff == nil {
			return nil, errors.Wrapf(ErrDerivative, "function %q has no derivative", v.fn)
		}
		inner, err := Diff(v.arg, name)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		return MulOf(fn.diff(v.arg), inner), nil
	}
	return nil, errors.Wrapf(ErrDerivative, "unsupported expression %s", e)
}

func diffPow(p *Pow, name string) (Expr, error) {
	db, err := Diff(p.base, name)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	de, err := Diff(p.exp, name)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	expConst := de.Equal(N(0))
	baseConst := db.Equal(N(0))
	switch {
	case expConst && baseConst:
		return N(0), nil
	case expConst:
		// d(b**n) = n * b**(n-1) * db
		return MulOf(p.exp, PowOf(p.base, AddOf(p.exp, N(-1))), db), nil
	case baseConst:
		// d(c**e) = c**e * ln(c) * de
		return MulOf(PowOf(p.base, p.exp), Ln(p.base), de), nil
	}
	// General case: b**e * (de*ln(b) + e*db/b).
	return MulOf(
		PowOf(p.base, p.exp),
		AddOf(
			MulOf(de, Ln(p.base)),
			MulOf(p.exp, db, PowOf(p.base, N(-1))),
		),
	), nil
}
