// Package aeff estimates the detector's effective collection area from
// Monte-Carlo simulation files. For each (zenith, energy) cell the
// effective area is the simulated impact area scaled by the fraction of
// thrown showers that survive the analysis chain and the theta-square
// cut. Files are independent, so reading and counting can fan out over
// worker goroutines.
package aeff

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/mblnk/spectra/binning"
	"github.com/mblnk/spectra/histogram"
	"github.com/mblnk/spectra/internal/masked"
)

// ErrNoFiles is returned when no Monte-Carlo source files are given.
var ErrNoFiles = errors.New("aeff: no simulation files")

// ImpactRadius is the maximum simulated impact distance in meters.
const ImpactRadius = 270.0

// SimEvent is one thrown Monte-Carlo shower after the analysis chain.
type SimEvent struct {
	Energy   float64 // true energy, GeV
	Zd       float64 // degrees
	ThetaSq  float64 // deg^2, only meaningful when Survived
	Survived bool    // reconstructed and passed the event selection
	Weight   float64 // spectral reweighting factor; 0 means unweighted
}

// SimReader supplies the thrown-shower table of one simulation file.
type SimReader interface {
	Read(path string) ([]SimEvent, error)
}

// Options configures an effective-area estimation.
type Options struct {
	// UseCorrections applies the per-event reweighting factors to the
	// detected counts.
	UseCorrections bool

	// NWorkers bounds the number of files processed concurrently when
	// Parallel is set. Zero means one worker per file.
	NWorkers int

	// Parallel enables concurrent per-file processing. The merged result
	// is independent of the setting.
	Parallel bool
}

// EffectiveArea estimates the 2D (zenith x energy) effective-area table
// from the given simulation files. Cells without any thrown showers are
// masked (NaN), not zeroed: an empty cell carries no area information.
func EffectiveArea(files []string, r SimReader, zdAxis, eAxis binning.Axis, thetaSqCut float64, opts Options) (*histogram.Hist2D, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if err := zdAxis.Validate(); err != nil {
		return nil, err
	}
	if err := eAxis.Validate(); err != nil {
		return nil, err
	}

	type pair struct {
		thrown   *histogram.Hist2D
		detected *histogram.Hist2D
	}

	count := func(path string) (pair, error) {
		thrown, err := histogram.New(zdAxis, eAxis)
		if err != nil {
			return pair{}, err
		}
		detected, err := histogram.New(zdAxis, eAxis)
		if err != nil {
			return pair{}, err
		}

		evs, err := r.Read(path)
		if err != nil {
			return pair{}, fmt.Errorf("aeff: %s: %w", path, err)
		}
		for _, ev := range evs {
			thrown.Fill(ev.Zd, ev.Energy, 1)
			if !ev.Survived || ev.ThetaSq >= thetaSqCut {
				continue
			}
			w := 1.0
			if opts.UseCorrections && ev.Weight > 0 {
				w = ev.Weight
			}
			detected.Fill(ev.Zd, ev.Energy, w)
		}
		return pair{thrown: thrown, detected: detected}, nil
	}

	results := make([]pair, len(files))

	if opts.Parallel && len(files) > 1 {
		var g errgroup.Group
		if opts.NWorkers > 0 {
			g.SetLimit(opts.NWorkers)
		}
		for i, path := range files {
			g.Go(func() error {
				p, err := count(path)
				if err != nil {
					return err
				}
				results[i] = p
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, path := range files {
			p, err := count(path)
			if err != nil {
				return nil, err
			}
			results[i] = p
		}
	}

	thrown := results[0].thrown
	detected := results[0].detected
	for _, p := range results[1:] {
		if err := thrown.Add(p.thrown); err != nil {
			return nil, err
		}
		if err := detected.Add(p.detected); err != nil {
			return nil, err
		}
	}

	area, err := histogram.New(zdAxis, eAxis)
	if err != nil {
		return nil, err
	}
	simArea := math.Pi * ImpactRadius * ImpactRadius
	for i := range area.Counts {
		for j := range area.Counts[i] {
			n := thrown.Counts[i][j]
			if n == 0 {
				area.Counts[i][j] = masked.Invalid()
				continue
			}
			area.Counts[i][j] = simArea * detected.Counts[i][j] / n
		}
	}
	return area, nil
}
