package quvario_test

import (
	"errors"
	"flag"
	"log"
	"math"
	"strings"
	"testing"

	"github.com/Starryblack/quVario"
	"github.com/Starryblack/quVario/sym"
)

func TestMain(m *testing.M) {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	m.Run()
}

// functional builds the energy functional of the given trial function
// under the hydrogen Hamiltonian.
func functional(t *testing.T, src string, options ...quvario.Options) *quvario.Functional {
	t.Helper()
	psi, err := sym.Parse(src)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	fn, err := quvario.NewFunctional(quvario.NewHamiltonian("r"), psi, options...)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	return fn
}

// TestMinimize checks trial functions whose optimal parameter and
// energy are known in closed form.
func TestMinimize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		psi        string
		wantParam  float64
		wantEnergy float64
	}{
		// The exact ground state: E = a*a/2 - a, minimal at a = 1.
		{
			name:       "exponential",
			psi:        "exp(-a*r)",
			wantParam:  1,
			wantEnergy: -0.5,
		},
		// E = 3*a/2 - 2*sqrt(2*a/pi), minimal at a = 8/(9*pi).
		{
			name:       "gaussian",
			psi:        "exp(-a*r**2)",
			wantParam:  8 / (9 * math.Pi),
			wantEnergy: -4 / (3 * math.Pi),
		},
		// E = (3*a*a - 9*a)/14, minimal at a = 3/2.
		{
			name:       "linear times exponential",
			psi:        "(1 + a*r)*exp(-a*r)",
			wantParam:  1.5,
			wantEnergy: -27.0 / 56.0,
		},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			fn := functional(t, test.psi)
			param, energy, err := fn.Minimize()
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if math.Abs(param-test.wantParam) > 1e-3 {
				t.Fatalf("parameter %v, want %v", param, test.wantParam)
			}
			if math.Abs(energy-test.wantEnergy) > 1e-3 {
				t.Fatalf("energy %v, want %v", energy, test.wantEnergy)
			}
			if energy < -0.5-1e-6 {
				t.Fatalf("energy %v below the hydrogen ground state", energy)
			}
		})
	}
}

// TestScaleInvariance checks that the normalization cancels a constant
// prefactor of the trial function.
func TestScaleInvariance(t *testing.T) {
	t.Parallel()
	plain := functional(t, "exp(-a*r)")
	scaled := functional(t, "3*exp(-a*r)")

	p1, e1, err := plain.Minimize()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	p2, e2, err := scaled.Minimize()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if math.Abs(e1-e2) > 1e-6 {
		t.Fatalf("energies %v and %v differ", e1, e2)
	}
	if math.Abs(p1-p2) > 1e-3 {
		t.Fatalf("parameters %v and %v differ", p1, p2)
	}
}

// TestDeterminism checks that repeated runs reproduce results exactly.
func TestDeterminism(t *testing.T) {
	t.Parallel()
	p1, e1, err := functional(t, "exp(-a*r**2)").Minimize()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	p2, e2, err := functional(t, "exp(-a*r**2)").Minimize()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if p1 != p2 || e1 != e2 {
		t.Fatalf("runs differ: (%v, %v) vs (%v, %v)", p1, e1, p2, e2)
	}
}

func TestNonDecayingTrialFunction(t *testing.T) {
	t.Parallel()
	fn := functional(t, "1")
	if _, _, err := fn.Minimize(); !errors.Is(err, quvario.ErrDiverges) {
		t.Fatalf("got %+v, want ErrDiverges", err)
	}
}

func TestGrowingTrialFunction(t *testing.T) {
	t.Parallel()
	fn := functional(t, "exp(a*r)")
	if _, _, err := fn.Minimize(); !errors.Is(err, quvario.ErrDiverges) {
		t.Fatalf("got %+v, want ErrDiverges", err)
	}
}

func TestZeroTrialFunction(t *testing.T) {
	t.Parallel()
	fn := functional(t, "0")
	if _, _, err := fn.Minimize(); !errors.Is(err, quvario.ErrZeroNorm) {
		t.Fatalf("got %+v, want ErrZeroNorm", err)
	}
}

func TestNonSmoothTrialFunction(t *testing.T) {
	t.Parallel()
	psi, err := sym.Parse("abs(r)*exp(-a*r)")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	_, err = quvario.NewFunctional(quvario.NewHamiltonian("r"), psi)
	if !errors.Is(err, sym.ErrDerivative) {
		t.Fatalf("got %+v, want ErrDerivative", err)
	}
}

func TestUnknownFunction(t *testing.T) {
	t.Parallel()
	psi, err := sym.Parse("foo(r)*exp(-a*r)")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	_, err = quvario.NewFunctional(quvario.NewHamiltonian("r"), psi)
	if !errors.Is(err, sym.ErrDerivative) {
		t.Fatalf("got %+v, want ErrDerivative", err)
	}
}

func TestUnboundSymbol(t *testing.T) {
	t.Parallel()
	psi, err := sym.Parse("exp(-b*r)")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	_, err = quvario.NewFunctional(quvario.NewHamiltonian("r"), psi)
	if !errors.Is(err, sym.ErrCompile) {
		t.Fatalf("got %+v, want ErrCompile", err)
	}
}

// TestParamOption renames the variational parameter symbol.
func TestParamOption(t *testing.T) {
	t.Parallel()
	fn := functional(t, "exp(-b*r)", quvario.NewOptions().Param("b"))
	param, energy, err := fn.Minimize()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if math.Abs(param-1) > 1e-3 || math.Abs(energy+0.5) > 1e-3 {
		t.Fatalf("got (%v, %v), want (1, -0.5)", param, energy)
	}
}

// TestChargeOption checks helium-like scaling: for charge Z the
// exponential trial function gives E = a*a/2 - Z*a, minimal at a = Z
// with energy -Z*Z/2.
func TestChargeOption(t *testing.T) {
	t.Parallel()
	psi, err := sym.Parse("exp(-a*r)")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	h := quvario.NewHamiltonian("r")
	h.Charge = 2
	fn, err := quvario.NewFunctional(h, psi)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	param, energy, err := fn.Minimize()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if math.Abs(param-2) > 1e-3 {
		t.Fatalf("parameter %v, want 2", param)
	}
	if math.Abs(energy+2) > 1e-3 {
		t.Fatalf("energy %v, want -2", energy)
	}
}

// TestCutoffOption checks that a tighter cutoff still covers a
// fast-decaying trial function. The guess moves up with the cutoff:
// at a = 0.1 the tail beyond radius 50 would rightly be rejected.
func TestCutoffOption(t *testing.T) {
	t.Parallel()
	fn := functional(t, "exp(-a*r)", quvario.NewOptions().Cutoff(50).Guess(0.5))
	param, energy, err := fn.Minimize()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if math.Abs(param-1) > 1e-3 || math.Abs(energy+0.5) > 1e-3 {
		t.Fatalf("got (%v, %v), want (1, -0.5)", param, energy)
	}
}

func TestValue(t *testing.T) {
	t.Parallel()
	fn := functional(t, "exp(-a*r)")
	// E(a) = a*a/2 - a. The larger parameter values squeeze the
	// integrands into a sliver of the integration interval.
	for _, a := range []float64{0.5, 1, 2, 2.5, 3, 5} {
		got, err := fn.Value(a)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		want := a*a/2 - a
		if math.Abs(got-want) > 1e-5 {
			t.Fatalf("E(%v) = %v, want %v", a, got, want)
		}
	}
}

func TestReadTrials(t *testing.T) {
	t.Parallel()
	in := "exp(-a*r)\nexp(-a*r**2)\n"
	trials, err := quvario.ReadTrials(strings.NewReader(in))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if len(trials) != 2 {
		t.Fatalf("got %d trials, want 2", len(trials))
	}
	if trials[0].Source != "exp(-a*r)" || trials[1].Source != "exp(-a*r**2)" {
		t.Fatalf("unexpected sources %q and %q", trials[0].Source, trials[1].Source)
	}
}

func TestReadTrialsFailFast(t *testing.T) {
	t.Parallel()
	for _, in := range []string{
		"exp(-a*r)\n)))\nexp(-a*r**2)\n",
		"exp(-a*r)\n\nexp(-a*r**2)\n",
	} {
		_, err := quvario.ReadTrials(strings.NewReader(in))
		if !errors.Is(err, sym.ErrParse) {
			t.Fatalf("ReadTrials(%q) = %+v, want ErrParse", in, err)
		}
	}
}

// TestMinimizeAll runs the whole pipeline over a candidate file and
// picks the lowest bound.
func TestMinimizeAll(t *testing.T) {
	t.Parallel()
	trials, err := quvario.LoadTrials("testdata/trialfuncs.txt")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if len(trials) != 3 {
		t.Fatalf("got %d trials, want 3", len(trials))
	}
	results, err := quvario.MinimizeAll(quvario.NewHamiltonian("r"), trials)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if len(results) != len(trials) {
		t.Fatalf("got %d results, want %d", len(results), len(trials))
	}
	for i := range results {
		if results[i].Source != trials[i].Source {
			t.Fatalf("result %d is %q, want %q", i, results[i].Source, trials[i].Source)
		}
	}
	best, err := quvario.Best(results)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if best.Source != "exp(-a*r)" {
		t.Fatalf("best trial %q, want the exact ground state", best.Source)
	}
	if math.Abs(best.Energy+0.5) > 1e-3 {
		t.Fatalf("best energy %v, want -0.5", best.Energy)
	}
}

func TestMinimizeAllFailFast(t *testing.T) {
	t.Parallel()
	trials, err := quvario.ReadTrials(strings.NewReader("exp(-a*r)\n1\n"))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	_, err = quvario.MinimizeAll(quvario.NewHamiltonian("r"), trials)
	if !errors.Is(err, quvario.ErrDiverges) {
		t.Fatalf("got %+v, want ErrDiverges", err)
	}
}

func TestBestEmpty(t *testing.T) {
	t.Parallel()
	if _, err := quvario.Best(nil); err == nil {
		t.Fatal("expected error for empty results")
	}
}
