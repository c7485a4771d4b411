// Package binning defines the energy and zenith axes of the analysis and
// the significance-driven optimization of the energy bin edges.
//
// An Axis is an ordered set of strictly increasing edge values paired with
// integer bin labels; bin membership follows histogram convention (lower
// edge inclusive, upper edge exclusive, final upper edge inclusive).
package binning

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// ErrAxis is returned for malformed axes: fewer than two edges,
// non-increasing or non-finite edge values, or label/edge count mismatch.
var ErrAxis = errors.New("binning: invalid axis")

// Default axis extents.
const (
	defaultEnergyMin  = 200.0   // GeV
	defaultEnergyMax  = 50000.0 // GeV
	defaultEnergyBins = 8

	defaultZenithMin  = 0.0  // degrees
	defaultZenithMax  = 60.0 // degrees
	defaultZenithBins = 14
)

// Axis pairs strictly increasing bin edges with integer bin labels.
// Invariant: len(Labels) == len(Edges)-1.
type Axis struct {
	Edges  []float64
	Labels []int
}

// NewAxis validates edges and labels and returns the axis. A nil labels
// slice yields the plain 0..N-1 labeling.
func NewAxis(edges []float64, labels []int) (Axis, error) {
	if len(edges) < 2 {
		return Axis{}, fmt.Errorf("%w: need at least 2 edges, have %d", ErrAxis, len(edges))
	}
	for i, e := range edges {
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return Axis{}, fmt.Errorf("%w: non-finite edge at index %d", ErrAxis, i)
		}
		if i > 0 && !(e > edges[i-1]) {
			return Axis{}, fmt.Errorf("%w: edges not strictly increasing at index %d", ErrAxis, i)
		}
	}
	if labels == nil {
		labels = make([]int, len(edges)-1)
		for i := range labels {
			labels[i] = i
		}
	}
	if len(labels) != len(edges)-1 {
		return Axis{}, fmt.Errorf("%w: %d labels for %d edges", ErrAxis, len(labels), len(edges))
	}
	return Axis{Edges: edges, Labels: labels}, nil
}

// DefaultEnergyAxis returns the standard logarithmic energy binning,
// 9 edges from 200 GeV to 50 TeV.
func DefaultEnergyAxis() Axis {
	edges := floats.LogSpan(make([]float64, defaultEnergyBins+1), defaultEnergyMin, defaultEnergyMax)
	a, _ := NewAxis(edges, nil)
	return a
}

// DefaultZenithAxis returns the standard linear zenith binning,
// 15 edges from 0 to 60 degrees.
func DefaultZenithAxis() Axis {
	edges := floats.Span(make([]float64, defaultZenithBins+1), defaultZenithMin, defaultZenithMax)
	a, _ := NewAxis(edges, nil)
	return a
}

// NBins returns the number of bins.
func (a Axis) NBins() int { return len(a.Labels) }

// Validate re-checks the axis invariants on a possibly mutated axis.
func (a Axis) Validate() error {
	_, err := NewAxis(a.Edges, a.Labels)
	return err
}

// FindBin returns the bin index containing v, or -1 if v lies outside the
// axis range. The lower edge of each bin is inclusive; the upper edge is
// exclusive except for the final bin, which includes its upper edge.
func (a Axis) FindBin(v float64) int {
	n := len(a.Edges)
	if math.IsNaN(v) || v < a.Edges[0] || v > a.Edges[n-1] {
		return -1
	}
	if v == a.Edges[n-1] {
		return n - 2
	}
	// SearchFloat64s returns the first i with Edges[i] >= v.
	i := sort.SearchFloat64s(a.Edges, v)
	if i < n && a.Edges[i] == v {
		return i
	}
	return i - 1
}

// LogCenters returns the base-10 log-midpoint of each bin, the
// appropriate notion of center for logarithmically spaced bins.
func (a Axis) LogCenters() []float64 {
	out := make([]float64, a.NBins())
	for i := range out {
		out[i] = math.Pow(10, (math.Log10(a.Edges[i])+math.Log10(a.Edges[i+1]))/2)
	}
	return out
}

// Widths returns the linear width of each bin.
func (a Axis) Widths() []float64 {
	out := make([]float64, a.NBins())
	for i := range out {
		out[i] = a.Edges[i+1] - a.Edges[i]
	}
	return out
}

// HalfWidths returns the asymmetric half-widths of each bin around its
// log center: (center - lowEdge, highEdge - center).
func (a Axis) HalfWidths() (low, high []float64) {
	centers := a.LogCenters()
	low = make([]float64, len(centers))
	high = make([]float64, len(centers))
	for i, c := range centers {
		low[i] = c - a.Edges[i]
		high[i] = a.Edges[i+1] - c
	}
	return low, high
}
