// Package histogram provides the dense 2D (zenith x energy) count
// histograms of the spectral analysis and the on/off accumulator that
// fills them from a cut event table.
package histogram

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"

	"github.com/mblnk/spectra/binning"
)

// ErrShape is returned when an array shape disagrees with the configured
// binning axes. Shape mismatches are never silently broadcast or
// truncated.
var ErrShape = errors.New("histogram: shape mismatch")

// Hist2D is a dense histogram indexed as Counts[zenithBin][energyBin].
// Its shape always equals (zenith bins, energy bins) of its axes.
type Hist2D struct {
	ZenithAxis binning.Axis
	EnergyAxis binning.Axis
	Counts     [][]float64
}

// New allocates a zeroed histogram over the given axes.
func New(zdAxis, eAxis binning.Axis) (*Hist2D, error) {
	if err := zdAxis.Validate(); err != nil {
		return nil, err
	}
	if err := eAxis.Validate(); err != nil {
		return nil, err
	}

	counts := make([][]float64, zdAxis.NBins())
	for i := range counts {
		counts[i] = make([]float64, eAxis.NBins())
	}
	return &Hist2D{ZenithAxis: zdAxis, EnergyAxis: eAxis, Counts: counts}, nil
}

// FromCounts wraps an existing count matrix, rejecting any shape that
// disagrees with the axes.
func FromCounts(counts [][]float64, zdAxis, eAxis binning.Axis) (*Hist2D, error) {
	if err := zdAxis.Validate(); err != nil {
		return nil, err
	}
	if err := eAxis.Validate(); err != nil {
		return nil, err
	}
	if len(counts) != zdAxis.NBins() {
		return nil, fmt.Errorf("%w: %d rows for %d zenith bins", ErrShape, len(counts), zdAxis.NBins())
	}
	for i, row := range counts {
		if len(row) != eAxis.NBins() {
			return nil, fmt.Errorf("%w: row %d has %d columns for %d energy bins",
				ErrShape, i, len(row), eAxis.NBins())
		}
	}
	return &Hist2D{ZenithAxis: zdAxis, EnergyAxis: eAxis, Counts: counts}, nil
}

// NZenith returns the number of zenith bins.
func (h *Hist2D) NZenith() int { return h.ZenithAxis.NBins() }

// NEnergy returns the number of energy bins.
func (h *Hist2D) NEnergy() int { return h.EnergyAxis.NBins() }

// Fill adds weight w at (zd, energy) and reports whether the point fell
// inside the axis ranges.
func (h *Hist2D) Fill(zd, energy, w float64) bool {
	iz := h.ZenithAxis.FindBin(zd)
	ie := h.EnergyAxis.FindBin(energy)
	if iz < 0 || ie < 0 {
		return false
	}
	h.Counts[iz][ie] += w
	return true
}

// Add accumulates other into h in place. The shapes must match.
func (h *Hist2D) Add(other *Hist2D) error {
	if other.NZenith() != h.NZenith() || other.NEnergy() != h.NEnergy() {
		return fmt.Errorf("%w: (%d,%d) += (%d,%d)",
			ErrShape, h.NZenith(), h.NEnergy(), other.NZenith(), other.NEnergy())
	}
	for i := range h.Counts {
		vecmath.AddBlockInPlace(h.Counts[i], other.Counts[i])
	}
	return nil
}

// ScaledAdd accumulates c*other into h in place. The shapes must match.
func (h *Hist2D) ScaledAdd(c float64, other *Hist2D) error {
	if other.NZenith() != h.NZenith() || other.NEnergy() != h.NEnergy() {
		return fmt.Errorf("%w: (%d,%d) += (%d,%d)",
			ErrShape, h.NZenith(), h.NEnergy(), other.NZenith(), other.NEnergy())
	}
	scaled := make([]float64, h.NEnergy())
	for i := range h.Counts {
		vecmath.ScaleBlock(scaled, other.Counts[i], c)
		vecmath.AddBlockInPlace(h.Counts[i], scaled)
	}
	return nil
}

// MarginalEnergy sums the histogram over zenith, yielding the 1D energy
// marginal.
func (h *Hist2D) MarginalEnergy() []float64 {
	out := make([]float64, h.NEnergy())
	for _, row := range h.Counts {
		vecmath.AddBlockInPlace(out, row)
	}
	return out
}

// Total returns the sum over all bins.
func (h *Hist2D) Total() float64 {
	sum := 0.0
	for _, row := range h.Counts {
		sum += floats.Sum(row)
	}
	return sum
}
