package binning

import (
	"errors"
	"math"
	"testing"

	"github.com/mblnk/spectra/internal/testutil"
)

func TestNewAxisValidation(t *testing.T) {
	cases := []struct {
		name   string
		edges  []float64
		labels []int
	}{
		{"too few edges", []float64{1}, nil},
		{"not increasing", []float64{1, 3, 2}, nil},
		{"duplicate edge", []float64{1, 1, 2}, nil},
		{"nan edge", []float64{1, math.NaN(), 3}, nil},
		{"label mismatch", []float64{1, 2, 3}, []int{0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewAxis(tc.edges, tc.labels)
			if !errors.Is(err, ErrAxis) {
				t.Fatalf("got %v, want ErrAxis", err)
			}
		})
	}
}

func TestNewAxisDefaultLabels(t *testing.T) {
	a, err := NewAxis([]float64{1, 2, 4, 8}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if a.NBins() != 3 {
		t.Fatalf("NBins = %d, want 3", a.NBins())
	}

	for i, l := range a.Labels {
		if l != i {
			t.Fatalf("label %d = %d", i, l)
		}
	}
}

func TestDefaultAxes(t *testing.T) {
	e := DefaultEnergyAxis()
	if len(e.Edges) != 9 || e.Edges[0] != 200 || math.Abs(e.Edges[8]-50000) > 1e-6 {
		t.Fatalf("energy axis edges: %v", e.Edges)
	}

	z := DefaultZenithAxis()
	if len(z.Edges) != 15 || z.Edges[0] != 0 || z.Edges[14] != 60 {
		t.Fatalf("zenith axis edges: %v", z.Edges)
	}
}

func TestFindBin(t *testing.T) {
	a, _ := NewAxis([]float64{0, 10, 20, 30}, nil)

	cases := []struct {
		v    float64
		want int
	}{
		{-1, -1},
		{0, 0},
		{5, 0},
		{10, 1},
		{19.999, 1},
		{20, 2},
		{30, 2}, // final upper edge is inclusive
		{30.001, -1},
		{math.NaN(), -1},
	}

	for _, tc := range cases {
		if got := a.FindBin(tc.v); got != tc.want {
			t.Fatalf("FindBin(%v) = %d, want %d", tc.v, got, tc.want)
		}
	}
}

func TestLogCenters(t *testing.T) {
	a, _ := NewAxis([]float64{100, 10000}, nil)

	got := a.LogCenters()
	testutil.RequireSliceNearlyEqual(t, got, []float64{1000}, 1e-9)
}

func TestHalfWidthsCoverBin(t *testing.T) {
	a := DefaultEnergyAxis()
	low, high := a.HalfWidths()
	widths := a.Widths()

	sum := make([]float64, len(widths))
	for i := range sum {
		sum[i] = low[i] + high[i]
	}
	testutil.RequireSliceNearlyEqual(t, sum, widths, 1e-6)

	for i := range low {
		if low[i] <= 0 || high[i] <= 0 {
			t.Fatalf("bin %d: non-positive half-width (%v, %v)", i, low[i], high[i])
		}
	}
}
