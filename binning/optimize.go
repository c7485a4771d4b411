package binning

import (
	"errors"
	"math"
	"sort"

	"github.com/mblnk/spectra/stats/lima"
)

// ErrNoEvents is returned when the energy-binning optimizer is invoked
// without any signal events.
var ErrNoEvents = errors.New("binning: no signal events to optimize on")

const (
	// sigmaPerBin is the per-bin significance a candidate bin must reach
	// before it may be closed.
	sigmaPerBin = 3.0

	// minRelSpan is the minimum relative energy span of a closed bin.
	minRelSpan = 0.5

	// seedUpperEdge caps the binning from above.
	seedUpperEdge = 50000.0
)

// OptimizeEnergy derives an adaptive energy binning from signal and
// background event energies that already pass the theta-square cut.
//
// Walking the signal events from the highest energy downwards, the
// current bin grows until its Li&Ma significance reaches sigmaPerBin AND
// its relative energy span exceeds minRelSpan; the last event
// unconditionally closes the final bin, so the walk always terminates and
// the lowest-energy event always lands inside the final bin. Bin edges
// are derived from signal energies only; background events enter a
// candidate bin purely by falling into the same numeric energy span.
//
// The returned axis has ascending edges and plain 0..N-1 labels. The
// second return value holds the significance of each closed bin in
// closing order.
func OptimizeEnergy(onEnergies, offEnergies []float64, alpha float64) (Axis, []float64, error) {
	if len(onEnergies) == 0 {
		return Axis{}, nil, ErrNoEvents
	}

	onDesc := append([]float64(nil), onEnergies...)
	sort.Sort(sort.Reverse(sort.Float64Slice(onDesc)))

	offAsc := append([]float64(nil), offEnergies...)
	sort.Float64s(offAsc)

	n := len(onDesc)
	edges := []float64{seedUpperEdge}
	sigmas := []float64{}
	binStart := 0

	for i := range n {
		high := i
		// The window's lowest-energy member; on the first iteration the
		// empty window wraps to the overall lowest event, mirroring the
		// reference analysis (the close condition cannot fire there).
		idx := high - 1
		if idx < 0 {
			idx = n - 1
		}

		last := i == n-1
		if last {
			high = n
			idx = n - 1
		}

		nOn := high - binStart
		eWinHigh := onDesc[binStart] // highest energy in the window
		eWinLow := onDesc[idx]       // lowest energy in the window

		nOff := countInRange(offAsc, eWinLow, eWinHigh)
		sigma := lima.Significance(float64(nOn), float64(nOff), alpha)
		span := math.Abs(eWinLow-eWinHigh) / eWinHigh

		if (sigma >= sigmaPerBin && span > minRelSpan) || last {
			binStart = high
			edge := math.Floor(eWinLow) + 1
			if last {
				// The final edge must sit at or below the lowest event so
				// the forced bin actually contains it.
				edge = math.Floor(eWinLow)
			}
			edges = append(edges, edge)
			sigmas = append(sigmas, sigma)
		}
	}

	sort.Float64s(edges)
	edges = dedupe(edges)

	axis, err := NewAxis(edges, nil)
	if err != nil {
		return Axis{}, nil, err
	}
	return axis, sigmas, nil
}

// countInRange counts entries of the ascending slice within [lo, hi],
// both ends inclusive.
func countInRange(asc []float64, lo, hi float64) int {
	i := sort.SearchFloat64s(asc, lo)
	j := sort.Search(len(asc), func(k int) bool { return asc[k] > hi })
	if j < i {
		return 0
	}
	return j - i
}

func dedupe(sorted []float64) []float64 {
	out := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}
