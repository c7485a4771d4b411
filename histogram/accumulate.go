package histogram

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"

	"github.com/mblnk/spectra/binning"
	"github.com/mblnk/spectra/events"
	"github.com/mblnk/spectra/stats/lima"
)

// Fixed internal binning of the theta-square marginal histograms. The
// range covers the full cut search interval with margin.
const (
	ThetaSqBins = 40
	ThetaSqMax  = 0.3
)

// Result holds every histogram-level product of one accumulation pass:
// the 2D zenith histograms, the 1D energy marginals with excess and
// per-bin significance, the theta-square marginals and the bin-summed
// totals.
type Result struct {
	OnZenith  *Hist2D
	OffZenith *Hist2D

	// 1D energy marginals (sum over zenith).
	On  []float64
	Off []float64

	// Excess = on - alpha*off, error = sqrt(on + alpha^2*off). Negative
	// excess (undersubtracted background) is a valid outcome.
	Excess    []float64
	ExcessErr []float64

	// Per-bin Li&Ma significance at the accumulation alpha.
	Significance []float64

	// Theta-square marginals over the fixed internal binning, filled
	// from all events regardless of the cut.
	ThetaEdges []float64
	ThetaOn    []float64
	ThetaOff   []float64

	// Bin-summed totals.
	NOn                 float64
	NOff                float64
	NExcess             float64
	NExcessErr          float64
	OverallSignificance float64

	Alpha float64
}

// Accumulate fills on/off histograms from the event table. Events with
// ThetaSq below cut enter the 2D (zenith x energy) histograms; the
// theta-square marginals see every event. All derived quantities (energy
// marginals, excess, per-bin and overall significance) are computed in
// the same pass.
func Accumulate(tab events.Table, cut float64, zdAxis, eAxis binning.Axis, alpha float64) (*Result, error) {
	if alpha <= 0 {
		return nil, fmt.Errorf("histogram: alpha must be positive, have %v", alpha)
	}

	on2d, err := New(zdAxis, eAxis)
	if err != nil {
		return nil, err
	}
	off2d, err := New(zdAxis, eAxis)
	if err != nil {
		return nil, err
	}

	thetaEdges := floats.Span(make([]float64, ThetaSqBins+1), 0, ThetaSqMax)
	thetaOn := make([]float64, ThetaSqBins)
	thetaOff := make([]float64, ThetaSqBins)
	thetaWidth := ThetaSqMax / ThetaSqBins

	for _, r := range tab {
		if r.ThetaSq >= 0 && r.ThetaSq <= ThetaSqMax {
			i := int(r.ThetaSq / thetaWidth)
			if i == ThetaSqBins {
				i--
			}
			if r.DataType == events.DataTypeOn {
				thetaOn[i]++
			} else {
				thetaOff[i]++
			}
		}

		if r.ThetaSq >= cut {
			continue
		}
		if r.DataType == events.DataTypeOn {
			on2d.Fill(r.Zd, r.Energy, 1)
		} else {
			off2d.Fill(r.Zd, r.Energy, 1)
		}
	}

	res := &Result{
		OnZenith:   on2d,
		OffZenith:  off2d,
		On:         on2d.MarginalEnergy(),
		Off:        off2d.MarginalEnergy(),
		ThetaEdges: thetaEdges,
		ThetaOn:    thetaOn,
		ThetaOff:   thetaOff,
		Alpha:      alpha,
	}

	nBins := eAxis.NBins()
	res.Excess = make([]float64, nBins)
	res.ExcessErr = make([]float64, nBins)

	scaledOff := make([]float64, nBins)
	vecmath.ScaleBlock(scaledOff, res.Off, -alpha)
	vecmath.AddBlock(res.Excess, res.On, scaledOff)

	for i := range res.ExcessErr {
		res.ExcessErr[i] = math.Sqrt(res.On[i] + alpha*alpha*res.Off[i])
	}

	res.Significance = lima.SignificanceSlice(res.On, res.Off, alpha)

	res.NOn = floats.Sum(res.On)
	res.NOff = floats.Sum(res.Off)
	res.NExcess = res.NOn - alpha*res.NOff
	res.NExcessErr = math.Sqrt(res.NOn + alpha*alpha*res.NOff)
	res.OverallSignificance = lima.Significance(res.NOn, res.NOff, alpha)

	return res, nil
}
