package bounded

import (
	"errors"
	"math"
	"testing"
)

func TestMinimizeQuadratic(t *testing.T) {
	f := func(x float64) float64 { return (x - 0.3) * (x - 0.3) }

	x, fx, err := Minimize(f, 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(x-0.3) > 1e-6 {
		t.Fatalf("minimum at %v, want 0.3", x)
	}

	if fx > 1e-10 {
		t.Fatalf("f(min) = %v, want ~0", fx)
	}
}

func TestMinimizeBoundaryMinimum(t *testing.T) {
	// Monotone increasing on the interval: minimum pinned at the lower bound.
	f := func(x float64) float64 { return x }

	x, _, err := Minimize(f, 2, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(x-2) > 1e-4 {
		t.Fatalf("minimum at %v, want lower bound 2", x)
	}
}

func TestMinimizeCosine(t *testing.T) {
	x, _, err := Minimize(math.Cos, 2, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(x-math.Pi) > 1e-6 {
		t.Fatalf("minimum at %v, want pi", x)
	}
}

func TestMinimizeInvalidInterval(t *testing.T) {
	for _, tc := range []struct{ lo, hi float64 }{
		{1, 1},
		{2, 1},
		{math.NaN(), 1},
		{0, math.Inf(1)},
	} {
		_, _, err := Minimize(func(x float64) float64 { return x }, tc.lo, tc.hi)
		if !errors.Is(err, ErrInvalidInterval) {
			t.Fatalf("interval [%v,%v]: got %v, want ErrInvalidInterval", tc.lo, tc.hi, err)
		}
	}
}
