// Package flux assembles the differential energy spectrum from the
// accumulated on/off histograms, the per-zenith-bin live time and the
// Monte-Carlo effective area.
//
// Numeric degeneracies (zero exposure, empty effective-area cells,
// non-positive flux under the log transform) propagate as masked values
// and stay visible downstream; they are never silently rendered as zero.
package flux

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"

	"github.com/mblnk/spectra/binning"
	"github.com/mblnk/spectra/histogram"
	"github.com/mblnk/spectra/internal/masked"
)

// ErrAlphaMismatch is returned when the configured background
// normalization disagrees with the factor baked into the flux error
// formula. The error term scales the off counts by alpha^2 = 1/25; any
// other alpha would bias the result.
var ErrAlphaMismatch = errors.New("flux: alpha must be 0.2 to match the error normalization")

// errorAlpha is the background normalization assumed by the flux error
// term sqrt(on + off/25).
const errorAlpha = 0.2

// Result is the assembled differential spectrum: one entry per energy
// bin, all derived deterministically from the binning axis and the
// histogram/exposure inputs.
type Result struct {
	Energy        []float64 // bin centers, base-10 log-midpoints, GeV
	EnergyErrLow  []float64 // center - lower edge
	EnergyErrHigh []float64 // upper edge - center

	Flux        masked.Vector // dN/dE per keV-scaled bin width
	FluxErrLow  masked.Vector // log-symmetric lower error
	FluxErrHigh masked.Vector // log-symmetric upper error

	// ScaledAeff is the effective area weighted per zenith bin by its
	// on-time fraction; summing it over zenith gives the single
	// exposure-weighted area curve used for the flux.
	ScaledAeff masked.Matrix
}

// Assemble combines histograms, on-time and effective area into the
// differential spectrum. All inputs must already be populated and share
// the binning axes; the aggregate layer is responsible for triggering
// missing stages.
func Assemble(hist *histogram.Result, onTimePerZd []float64, area *histogram.Hist2D, eAxis binning.Axis, alpha float64) (*Result, error) {
	if math.Abs(alpha-errorAlpha) > 1e-9 {
		return nil, fmt.Errorf("%w: have %v", ErrAlphaMismatch, alpha)
	}
	nE := eAxis.NBins()
	if len(hist.On) != nE || len(hist.Off) != nE || len(hist.Excess) != nE {
		return nil, fmt.Errorf("%w: on/off/excess lengths %d/%d/%d for %d energy bins",
			histogram.ErrShape, len(hist.On), len(hist.Off), len(hist.Excess), nE)
	}
	if area.NEnergy() != nE {
		return nil, fmt.Errorf("%w: effective area has %d energy bins, axis %d",
			histogram.ErrShape, area.NEnergy(), nE)
	}
	if len(onTimePerZd) != area.NZenith() {
		return nil, fmt.Errorf("%w: %d on-time bins for %d zenith bins",
			histogram.ErrShape, len(onTimePerZd), area.NZenith())
	}

	res := &Result{Energy: eAxis.LogCenters()}
	res.EnergyErrLow, res.EnergyErrHigh = eAxis.HalfWidths()

	totalOnTime := floats.Sum(onTimePerZd)

	// Weight each zenith row of the effective area by that bin's share
	// of the total live time. Zero total exposure masks everything.
	invTotal := masked.Invalid()
	if totalOnTime > 0 {
		invTotal = 1 / totalOnTime
	}

	res.ScaledAeff = make(masked.Matrix, area.NZenith())
	aeffCurve := make([]float64, nE)
	for i, row := range area.Counts {
		scaled := make([]float64, nE)
		vecmath.ScaleBlock(scaled, row, onTimePerZd[i]*invTotal)
		res.ScaledAeff[i] = scaled
		vecmath.AddBlockInPlace(aeffCurve, scaled)
	}

	fluxLin := masked.Scale(masked.Div(hist.Excess, aeffCurve), invTotal)

	errCounts := make([]float64, nE)
	for i := range errCounts {
		errCounts[i] = math.Sqrt(hist.On[i] + hist.Off[i]/25)
	}
	errLin := masked.Scale(masked.Div(errCounts, aeffCurve), invTotal)

	// Per unit energy, bin width in keV-scaled units.
	widthsK := masked.Scale(eAxis.Widths(), 1e-3)
	res.Flux = masked.Div(fluxLin, widthsK)
	fluxErr := masked.Div(errLin, widthsK)

	res.FluxErrLow, res.FluxErrHigh = SymmetricLog10Errors(res.Flux, fluxErr)
	return res, nil
}

// SymmetricLog10Errors converts a symmetric linear error into asymmetric
// error bars that appear symmetric on a log-log plot:
//
//	e    = err / (value*ln10)
//	low  = value - 10^(log10(value) - e)
//	high = 10^(log10(value) + e) - value
//
// Entries with masked or non-positive values, or whose transformed edges
// are non-finite, are masked in both outputs.
func SymmetricLog10Errors(value, err []float64) (low, high masked.Vector) {
	if len(value) != len(err) {
		panic("flux: SymmetricLog10Errors length mismatch")
	}
	n := len(value)

	logv := masked.Log10(value)
	e := masked.Div(err, masked.Scale(value, math.Ln10))

	loExp := make([]float64, n)
	hiExp := make([]float64, n)
	vecmath.AddBlock(hiExp, logv, e)
	vecmath.AddBlock(loExp, logv, masked.Scale(e, -1))

	loEdge := masked.Pow10(loExp)
	hiEdge := masked.Pow10(hiExp)

	low = make(masked.Vector, n)
	high = make(masked.Vector, n)
	for i := range value {
		if !masked.Valid(loEdge[i]) || !masked.Valid(hiEdge[i]) {
			low[i] = masked.Invalid()
			high[i] = masked.Invalid()
			continue
		}
		low[i] = value[i] - loEdge[i]
		high[i] = hiEdge[i] - value[i]
	}
	return low, high
}
