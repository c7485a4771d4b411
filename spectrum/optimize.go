package spectrum

import (
	"sort"

	"go.uber.org/zap"

	"github.com/mblnk/spectra/binning"
	"github.com/mblnk/spectra/events"
	"github.com/mblnk/spectra/internal/bounded"
	"github.com/mblnk/spectra/stats/lima"
)

// Search interval of the theta-square cut, deg^2.
const (
	thetaSearchLow  = 0.01
	thetaSearchHigh = 0.1
)

// OptimizeThetaCut finds the theta-square cut maximizing the overall
// Li&Ma significance by bounded minimization of 100 - significance over
// the search interval. The optimal cut becomes the active configuration
// value. A non-convergent minimizer is a hard failure.
func (s *Spectrum) OptimizeThetaCut() (float64, error) {
	tab, err := s.ReadEvents()
	if err != nil {
		return 0, err
	}

	on, off := tab.SplitOnOff()
	onTheta := thetas(on)
	offTheta := thetas(off)
	sort.Float64s(onTheta)
	sort.Float64s(offTheta)

	objective := func(cut float64) float64 {
		nOn := sort.SearchFloat64s(onTheta, cut)
		nOff := sort.SearchFloat64s(offTheta, cut)
		return 100 - lima.Significance(float64(nOn), float64(nOff), s.Alpha)
	}

	cut, obj, err := bounded.Minimize(objective, thetaSearchLow, thetaSearchHigh)
	if err != nil {
		return 0, err
	}

	s.ThetaSquareCut = cut
	s.log.Info("optimized theta-square cut",
		zap.Float64("cut", cut),
		zap.Float64("significance", 100-obj))
	return cut, nil
}

// OptimizeEnergyBinning derives an adaptive energy binning from the
// events passing the active theta-square cut and installs it as the new
// energy axis with plain 0..N-1 labels.
func (s *Spectrum) OptimizeEnergyBinning() error {
	tab, err := s.ReadEvents()
	if err != nil {
		return err
	}

	on, off := tab.SelectThetaSq(s.ThetaSquareCut).SplitOnOff()

	axis, sigmas, err := binning.OptimizeEnergy(on.Energies(), off.Energies(), s.Alpha)
	if err != nil {
		return err
	}

	s.EnergyAxis = axis
	s.log.Info("optimized energy binning",
		zap.Int("bins", axis.NBins()),
		zap.Float64s("edges", axis.Edges),
		zap.Float64s("bin_significances", sigmas))
	return nil
}

func thetas(tab events.Table) []float64 {
	out := make([]float64, len(tab))
	for i, r := range tab {
		out[i] = r.ThetaSq
	}
	return out
}
