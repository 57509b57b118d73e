package numint_test

import (
	"errors"
	"math"
	"testing"

	"github.com/Starryblack/quVario/numint"
)

func TestAdaptive(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		f    func(float64) float64
		a, b float64
		want float64
	}{
		{
			name: "parabola",
			f:    func(x float64) float64 { return x * x },
			a:    0, b: 3,
			want: 9,
		},
		{
			name: "sine over half period",
			f:    math.Sin,
			a:    0, b: math.Pi,
			want: 2,
		},
		{
			name: "exponential",
			f:    math.Exp,
			a:    0, b: 1,
			want: math.E - 1,
		},
		{
			name: "damped ramp",
			f:    func(x float64) float64 { return x * math.Exp(-x) },
			a:    0, b: 30,
			want: 1 - 31*math.Exp(-30),
		},
		{
			name: "gaussian tail",
			f:    func(x float64) float64 { return math.Exp(-x * x) },
			a:    0, b: 10,
			want: math.Sqrt(math.Pi) / 2,
		},
		{
			name: "square root",
			f:    math.Sqrt,
			a:    0, b: 1,
			want: 2.0 / 3.0,
		},
		{
			name: "arctangent kernel",
			f:    func(x float64) float64 { return 1 / (1 + x*x) },
			a:    0, b: 1,
			want: math.Pi / 4,
		},
		{
			name: "wide smooth decay",
			f:    func(x float64) float64 { return x * x * math.Exp(-x) },
			a:    0, b: 1000,
			want: 2,
		},
		{
			// All the mass sits below x = 1, under the lowest node of
			// a single panel spanning the interval.
			name: "narrow support on wide interval",
			f:    func(x float64) float64 { return x * x * math.Exp(-10*x) },
			a:    0, b: 1000,
			want: 2e-3,
		},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			got, err := numint.Adaptive(test.f, test.a, test.b)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if math.Abs(got-test.want) > 1e-6 {
				t.Fatalf("got %v, want %v", got, test.want)
			}
		})
	}
}

func TestAdaptiveDivergent(t *testing.T) {
	t.Parallel()
	_, err := numint.Adaptive(func(x float64) float64 { return 1 / x }, 0, 1)
	if !errors.Is(err, numint.ErrConverge) {
		t.Fatalf("got %+v, want ErrConverge", err)
	}
}

func TestAdaptiveNaN(t *testing.T) {
	t.Parallel()
	_, err := numint.Adaptive(func(x float64) float64 { return math.NaN() }, 0, 1)
	if !errors.Is(err, numint.ErrConverge) {
		t.Fatalf("got %+v, want ErrConverge", err)
	}
}

func TestAdaptiveInvalidInterval(t *testing.T) {
	t.Parallel()
	if _, err := numint.Adaptive(math.Sin, 1, 0); err == nil {
		t.Fatal("expected error for inverted interval")
	}
	if _, err := numint.Adaptive(math.Sin, 2, 2); err == nil {
		t.Fatal("expected error for empty interval")
	}
}

func TestAdaptiveMaxDepth(t *testing.T) {
	t.Parallel()
	opt := numint.NewOptions().MaxDepth(2)
	_, err := numint.Adaptive(math.Sqrt, 0, 1, opt)
	if !errors.Is(err, numint.ErrConverge) {
		t.Fatalf("got %+v, want ErrConverge", err)
	}
}

func TestAdaptiveLooseTolerance(t *testing.T) {
	t.Parallel()
	opt := numint.NewOptions().AbsTol(1e-3).RelTol(1e-3)
	got, err := numint.Adaptive(math.Sin, 0, math.Pi, opt)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if math.Abs(got-2) > 1e-2 {
		t.Fatalf("got %v, want 2", got)
	}
}
