// Package sym implements the small symbolic algebra needed to apply
// differential operators to closed-form trial wavefunctions: expression
// trees with simplification, differentiation, and compilation to plain
// numeric functions.
package sym

import (
	"math"
	"math/big"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrParse reports text that is not a valid expression.
	ErrParse = errors.New("sym: invalid expression")
	// ErrDerivative reports an expression with no closed-form derivative.
	ErrDerivative = errors.New("sym: expression is not differentiable")
	// ErrCompile reports an expression that cannot be turned into a
	// numeric function.
	ErrCompile = errors.New("sym: expression cannot be compiled")
)

// Expr is a symbolic expression tree. Expressions are immutable; all
// operations return new trees.
type Expr interface {
	// Simplify returns a canonical form: flattened sums and products,
	// folded constants, collected like factors.
	Simplify() Expr
	// Sub substitutes value for every occurrence of the named symbol.
	Sub(name string, value Expr) Expr
	// Equal reports structural equality.
	Equal(other Expr) bool
	String() string
}

// ============================================================
// Num: exact rational constants
// ============================================================

type Num struct{ val *big.Rat }

// N returns the integer constant n.
func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }

// F returns the fraction p/q.
func F(p, q int64) *Num { return &Num{val: big.NewRat(p, q)} }

// NFloat returns the exact rational value of f.
func NFloat(f float64) *Num { return &Num{val: new(big.Rat).SetFloat64(f)} }

func (n *Num) Simplify() Expr { return n }

func (n *Num) Sub(string, Expr) Expr { return n }

// Float64 returns the nearest floating point value.
func (n *Num) Float64() float64 { f, _ := n.val.Float64(); return f }

// IsZero reports whether the constant is exactly zero.
func (n *Num) IsZero() bool { return n.val.Sign() == 0 }

// IsOne reports whether the constant is exactly one.
func (n *Num) IsOne() bool { return n.val.Cmp(ratOne) == 0 }

// IsInteger reports whether the constant is a whole number.
func (n *Num) IsInteger() bool { return n.val.IsInt() }

func (n *Num) Equal(other Expr) bool {
	o, ok := other.(*Num)
	return ok && n.val.Cmp(o.val) == 0
}

func (n *Num) String() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.RatString()
}

var ratOne = new(big.Rat).SetInt64(1)

func numAdd(a, b *Num) *Num { return &Num{val: new(big.Rat).Add(a.val, b.val)} }
func numMul(a, b *Num) *Num { return &Num{val: new(big.Rat).Mul(a.val, b.val)} }

// numPow raises a to an integer power exactly. ok is false when the
// result is undefined (zero base, negative exponent).
func numPow(a *Num, exp *big.Int) (*Num, bool) {
	neg := exp.Sign() < 0
	e := new(big.Int).Abs(exp)
	p := new(big.Int).Exp(a.val.Num(), e, nil)
	q := new(big.Int).Exp(a.val.Denom(), e, nil)
	if neg {
		if a.val.Sign() == 0 {
			return nil, false
		}
		p, q = q, p
	}
	if q.Sign() == 0 {
		return nil, false
	}
	return &Num{val: new(big.Rat).SetFrac(p, q)}, true
}

// ============================================================
// Sym: free symbols
// ============================================================

type Sym struct{ name string }

// S returns the symbol with the given name.
func S(name string) *Sym { return &Sym{name: name} }

func (s *Sym) Simplify() Expr { return s }
func (s *Sym) String() string { return s.name }
func (s *Sym) Name() string   { return s.name }

func (s *Sym) Sub(name string, value Expr) Expr {
	if s.name == name {
		return value
	}
	return s
}

func (s *Sym) Equal(other Expr) bool {
	o, ok := other.(*Sym)
	return ok && s.name == o.name
}

// ============================================================
// Add: sums of terms
// ============================================================

type Add struct{ terms []Expr }

// AddOf returns the simplified sum of terms.
func AddOf(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

// Neg returns the simplified negation of e.
func Neg(e Expr) Expr { return MulOf(N(-1), e) }

func (a *Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		s := t.Simplify()
		if inner, ok := s.(*Add); ok {
			flat = append(flat, inner.terms...)
		} else {
			flat = append(flat, s)
		}
	}

	// Collect like terms by their non-numeric part, keeping first-seen
	// order so simplification is deterministic.
	constant := N(0)
	coeffs := map[string]*Num{}
	rests := map[string]Expr{}
	order := []string{}
	for _, t := range flat {
		coeff, rest := splitCoeff(t)
		if rest == nil {
			constant = numAdd(constant, coeff)
			continue
		}
		key := rest.String()
		if _, seen := coeffs[key]; !seen {
			order = append(order, key)
			coeffs[key] = N(0)
			rests[key] = rest
		}
		coeffs[key] = numAdd(coeffs[key], coeff)
	}

	result := make([]Expr, 0, len(order)+1)
	for _, key := range order {
		coeff := coeffs[key]
		switch {
		case coeff.IsZero():
		case coeff.IsOne():
			result = append(result, rests[key])
		default:
			result = append(result, MulOf(coeff, rests[key]))
		}
	}
	if !constant.IsZero() {
		result = append(result, constant)
	}

	switch len(result) {
	case 0:
		return N(0)
	case 1:
		return result[0]
	}
	return &Add{terms: result}
}

// splitCoeff factors a term into its numeric coefficient and the rest.
// A pure number has a nil rest.
func splitCoeff(e Expr) (*Num, Expr) {
	switch v := e.(type) {
	case *Num:
		return v, nil
	case *Mul:
		if first, ok := v.factors[0].(*Num); ok {
			if len(v.factors) == 2 {
				return first, v.factors[1]
			}
			return first, &Mul{factors: v.factors[1:]}
		}
	}
	return N(1), e
}

func (a *Add) String() string {
	if len(a.terms) == 0 {
		return "0"
	}
	var b strings.Builder
	b.WriteString(a.terms[0].String())
	for _, t := range a.terms[1:] {
		s := t.String()
		if strings.HasPrefix(s, "-") {
			b.WriteString(" - ")
			b.WriteString(s[1:])
		} else {
			b.WriteString(" + ")
			b.WriteString(s)
		}
	}
	return b.String()
}

func (a *Add) Sub(name string, value Expr) Expr {
	terms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		terms[i] = t.Sub(name, value)
	}
	return AddOf(terms...)
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	if !ok || len(a.terms) != len(o.terms) {
		return false
	}
	for i := range a.terms {
		if !a.terms[i].Equal(o.terms[i]) {
			return false
		}
	}
	return true
}

// Terms returns the summands.
func (a *Add) Terms() []Expr { return a.terms }

// ============================================================
// Mul: products of factors
// ============================================================

type Mul struct{ factors []Expr }

// MulOf returns the simplified product of factors.
func MulOf(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

func (m *Mul) Simplify() Expr {
	flat := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		s := f.Simplify()
		if inner, ok := s.(*Mul); ok {
			flat = append(flat, inner.factors...)
		} else {
			flat = append(flat, s)
		}
	}

	// Fold numbers into a single coefficient and collect repeated bases
	// into powers, so that volume factors cancel inverse powers exactly.
	coeff := N(1)
	exps := map[string][]Expr{}
	bases := map[string]Expr{}
	order := []string{}
	for _, f := range flat {
		if v, ok := f.(*Num); ok {
			coeff = numMul(coeff, v)
			continue
		}
		base, exp := powParts(f)
		key := base.String()
		if _, seen := bases[key]; !seen {
			order = append(order, key)
			bases[key] = base
		}
		exps[key] = append(exps[key], exp)
	}
	if coeff.IsZero() {
		return N(0)
	}

	others := make([]Expr, 0, len(order))
	for _, key := range order {
		p := PowOf(bases[key], AddOf(exps[key]...))
		if v, ok := p.(*Num); ok {
			coeff = numMul(coeff, v)
			continue
		}
		others = append(others, p)
	}
	sort.Slice(others, func(i, j int) bool { return others[i].String() < others[j].String() })

	switch {
	case len(others) == 0:
		return coeff
	case coeff.IsOne() && len(others) == 1:
		return others[0]
	case coeff.IsOne():
		return &Mul{factors: others}
	}
	return &Mul{factors: append([]Expr{coeff}, others...)}
}

// powParts views an expression as base^exponent.
func powParts(e Expr) (base, exp Expr) {
	if p, ok := e.(*Pow); ok {
		return p.base, p.exp
	}
	return e, N(1)
}

func (m *Mul) String() string {
	if len(m.factors) == 0 {
		return "1"
	}
	parts := make([]string, len(m.factors))
	for i, f := range m.factors {
		s := f.String()
		if _, isAdd := f.(*Add); isAdd {
			s = "(" + s + ")"
		}
		parts[i] = s
	}
	return strings.Join(parts, "*")
}

func (m *Mul) Sub(name string, value Expr) Expr {
	factors := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		factors[i] = f.Sub(name, value)
	}
	return MulOf(factors...)
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	if !ok || len(m.factors) != len(o.factors) {
		return false
	}
	for i := range m.factors {
		if !m.factors[i].Equal(o.factors[i]) {
			return false
		}
	}
	return true
}

// Factors returns the multiplicands.
func (m *Mul) Factors() []Expr { return m.factors }

// ============================================================
// Pow: bases raised to exponents
// ============================================================

type Pow struct{ base, exp Expr }

// PowOf returns the simplified power base**exp.
func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()

	if e, ok := exp.(*Num); ok {
		if e.IsZero() {
			return N(1)
		}
		if e.IsOne() {
			return base
		}
		if b, ok := base.(*Num); ok {
			if b.IsOne() {
				return N(1)
			}
			if e.IsInteger() {
				if v, ok := numPow(b, e.val.Num()); ok {
					return v
				}
			}
			if b.IsZero() && e.val.Sign() > 0 {
				return N(0)
			}
		}
		// (b**m)**n folds for integer m, n.
		if inner, ok := base.(*Pow); ok && e.IsInteger() {
			if m, ok := inner.exp.(*Num); ok && m.IsInteger() {
				return PowOf(inner.base, numMul(m, e))
			}
		}
	}
	if b, ok := base.(*Num); ok && b.IsOne() {
		return N(1)
	}
	return &Pow{base: base, exp: exp}
}

func (p *Pow) String() string {
	base := p.base.String()
	switch b := p.base.(type) {
	case *Add, *Mul, *Pow, *Call:
		base = "(" + base + ")"
	case *Num:
		if !b.IsInteger() || strings.HasPrefix(base, "-") {
			base = "(" + base + ")"
		}
	}
	exp := p.exp.String()
	switch e := p.exp.(type) {
	case *Num:
		if !e.IsInteger() || strings.HasPrefix(exp, "-") {
			exp = "(" + exp + ")"
		}
	case *Sym:
	default:
		exp = "(" + exp + ")"
	}
	return base + "**" + exp
}

func (p *Pow) Sub(name string, value Expr) Expr {
	return PowOf(p.base.Sub(name, value), p.exp.Sub(name, value))
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

// Base returns the base of the power.
func (p *Pow) Base() Expr { return p.base }

// Exponent returns the exponent of the power.
func (p *Pow) Exponent() Expr { return p.exp }

// ============================================================
// Call: named single argument functions
// ============================================================

type Call struct {
	fn  string
	arg Expr
}

// Apply returns the simplified application of the named function. The
// name need not be known to the package; unknown functions survive
// symbolically and fail only at differentiation or compilation. A
// sqrt call is normalized to the power form so that the power rules
// cover it.
func Apply(fn string, arg Expr) Expr {
	if fn == "sqrt" {
		return Sqrt(arg)
	}
	return (&Call{fn: fn, arg: arg}).Simplify()
}

// Exp returns e raised to arg.
func Exp(arg Expr) Expr { return Apply("exp", arg) }

// Ln returns the natural logarithm of arg.
func Ln(arg Expr) Expr { return Apply("ln", arg) }

// Sin returns the sine of arg.
func Sin(arg Expr) Expr { return Apply("sin", arg) }

// Cos returns the cosine of arg.
func Cos(arg Expr) Expr { return Apply("cos", arg) }

// Tan returns the tangent of arg.
func Tan(arg Expr) Expr { return Apply("tan", arg) }

// Sqrt returns the square root of arg as arg**(1/2).
func Sqrt(arg Expr) Expr { return PowOf(arg, F(1, 2)) }

// Abs returns the absolute value of arg.
func Abs(arg Expr) Expr { return Apply("abs", arg) }

// Sign returns the sign of arg.
func Sign(arg Expr) Expr { return Apply("sign", arg) }

func (c *Call) Simplify() Expr {
	arg := c.arg.Simplify()
	if n, ok := arg.(*Num); ok {
		if v, ok := foldCall(c.fn, n); ok {
			return v
		}
	}
	return &Call{fn: c.fn, arg: arg}
}

// foldCall evaluates the few function-of-constant cases that stay exact
// in rational arithmetic.
func foldCall(fn string, n *Num) (Expr, bool) {
	switch fn {
	case "exp":
		if n.IsZero() {
			return N(1), true
		}
	case "ln", "log":
		if n.IsOne() {
			return N(0), true
		}
	case "sin", "tan":
		if n.IsZero() {
			return N(0), true
		}
	case "cos":
		if n.IsZero() {
			return N(1), true
		}
	case "abs":
		return &Num{val: new(big.Rat).Abs(n.val)}, true
	case "sign":
		return N(int64(n.val.Sign())), true
	}
	return nil, false
}

func (c *Call) String() string { return c.fn + "(" + c.arg.String() + ")" }

func (c *Call) Sub(name string, value Expr) Expr {
	return Apply(c.fn, c.arg.Sub(name, value))
}

func (c *Call) Equal(other Expr) bool {
	o, ok := other.(*Call)
	return ok && c.fn == o.fn && c.arg.Equal(o.arg)
}

// FuncName returns the name of the applied function.
func (c *Call) FuncName() string { return c.fn }

// Arg returns the function argument.
func (c *Call) Arg() Expr { return c.arg }

// ============================================================
// Function registry
// ============================================================

// function couples a numeric implementation with the derivative of the
// function with respect to its argument. A nil derivative marks a
// function with no closed-form derivative.
type function struct {
	eval func(float64) float64
	diff func(arg Expr) Expr
}

var functions = map[string]function{
	"exp": {eval: math.Exp, diff: func(u Expr) Expr { return Exp(u) }},
	"ln":  {eval: math.Log, diff: func(u Expr) Expr { return PowOf(u, N(-1)) }},
	"log": {eval: math.Log, diff: func(u Expr) Expr { return PowOf(u, N(-1)) }},
	"sin": {eval: math.Sin, diff: func(u Expr) Expr { return Cos(u) }},
	"cos": {eval: math.Cos, diff: func(u Expr) Expr { return Neg(Sin(u)) }},
	"tan": {eval: math.Tan, diff: func(u Expr) Expr { return AddOf(N(1), PowOf(Tan(u), N(2))) }},
	"abs": {eval: math.Abs, diff: func(u Expr) Expr { return Sign(u) }},
	// sign is flat almost everywhere but has no derivative at zero,
	// which rules out its use under the Laplacian.
	"sign": {eval: signOf},
}

func signOf(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// FreeSymbols returns the sorted names of the free symbols in e.
func FreeSymbols(e Expr) []string {
	seen := map[string]bool{}
	collectSymbols(e, seen)
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func collectSymbols(e Expr, seen map[string]bool) {
	switch v := e.(type) {
	case *Sym:
		seen[v.name] = true
	case *Add:
		for _, t := range v.terms {
			collectSymbols(t, seen)
		}
	case *Mul:
		for _, f := range v.factors {
			collectSymbols(f, seen)
		}
	case *Pow:
		collectSymbols(v.base, seen)
		collectSymbols(v.exp, seen)
	case *Call:
		collectSymbols(v.arg, seen)
	}
}
