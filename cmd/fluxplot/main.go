// Command fluxplot renders a result snapshot produced by the spectrum
// command: the differential energy spectrum on log-log axes with the
// log-symmetric error bars, and the theta-square on/off histograms.
//
// Usage:
//
//	fluxplot [flags] <snapshot.json>
//
// Examples:
//
//	fluxplot crab_spectrum.json
//	fluxplot -flux crab_sed.png -theta crab_theta.png crab_spectrum.json
package main

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"os"

	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/mblnk/spectra/internal/masked"
	"github.com/mblnk/spectra/spectrum"
)

func main() {
	fluxOut := flag.String("flux", "flux.png", "differential-spectrum output image")
	thetaOut := flag.String("theta", "theta.png", "theta-square histogram output image")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: fluxplot [flags] <snapshot.json>\n\n")
		fmt.Fprintf(os.Stderr, "Renders a spectral result snapshot as plots.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	s := spectrum.New()
	if err := s.Load(flag.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, "fluxplot:", err)
		os.Exit(1)
	}

	if err := plotFlux(s, *fluxOut); err != nil {
		fmt.Fprintln(os.Stderr, "fluxplot:", err)
		os.Exit(1)
	}
	if err := plotThetaSq(s, *thetaOut); err != nil {
		fmt.Fprintln(os.Stderr, "fluxplot:", err)
		os.Exit(1)
	}
}

// fluxSeries adapts the unmasked spectrum points to the plotter
// interfaces, including the asymmetric vertical error bars.
type fluxSeries struct {
	e, f   []float64
	lo, hi []float64
}

func (s fluxSeries) Len() int { return len(s.e) }

func (s fluxSeries) XY(i int) (float64, float64) { return s.e[i], s.f[i] }

func (s fluxSeries) YError(i int) (float64, float64) { return s.lo[i], s.hi[i] }

func plotFlux(s *spectrum.Spectrum, path string) error {
	if s.DifferentialSpectrum == nil {
		return errors.New("snapshot has no differential spectrum")
	}

	var series fluxSeries
	for i, f := range s.DifferentialSpectrum {
		if !masked.Valid(f) || f <= 0 {
			continue
		}
		series.e = append(series.e, s.EnergyCenter[i])
		series.f = append(series.f, f)
		series.lo = append(series.lo, s.DifferentialSpectrumErr[0][i])
		series.hi = append(series.hi, s.DifferentialSpectrumErr[1][i])
	}
	if series.Len() == 0 {
		return errors.New("no unmasked spectrum points to plot")
	}

	p := plot.New()
	p.Title.Text = "Differential energy spectrum"
	p.X.Label.Text = "E (GeV)"
	p.Y.Label.Text = "dN/dE (1/(GeV s m^2))"
	p.X.Scale = plot.LogScale{}
	p.Y.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	scatter, err := plotter.NewScatter(series)
	if err != nil {
		return err
	}
	bars, err := plotter.NewYErrorBars(series)
	if err != nil {
		return err
	}
	p.Add(scatter, bars, plotter.NewGrid())

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

func plotThetaSq(s *spectrum.Spectrum, path string) error {
	if s.OnThetaSquareHisto == nil || len(s.ThetaSquareBinning) < 2 {
		return errors.New("snapshot has no theta-square histograms")
	}

	edges := s.ThetaSquareBinning
	nBins := len(edges) - 1
	lo, hi := edges[0], edges[nBins]

	fill := func(counts []float64) *hbook.H1D {
		h := hbook.NewH1D(nBins, lo, hi)
		for i, c := range counts {
			center := (edges[i] + edges[i+1]) / 2
			h.Fill(center, c)
		}
		return h
	}

	p := hplot.New()
	p.Title.Text = "Theta-square distribution"
	p.X.Label.Text = "theta^2 (deg^2)"
	p.Y.Label.Text = "counts"

	on := hplot.NewH1D(fill(s.OnThetaSquareHisto))
	on.LineStyle.Color = color.RGBA{B: 255, A: 255}
	off := hplot.NewH1D(fill(s.OffThetaSquareHisto))
	off.LineStyle.Color = color.RGBA{R: 255, A: 255}

	p.Add(on, off, hplot.NewGrid())
	p.Legend.Add("on", on)
	p.Legend.Add("off", off)

	// Mark the active signal-region cut.
	yMax := 0.0
	for _, c := range s.OnThetaSquareHisto {
		if masked.Valid(c) && c > yMax {
			yMax = c
		}
	}
	cut, err := plotter.NewLine(plotter.XYs{
		{X: s.ThetaSquareCut, Y: 0},
		{X: s.ThetaSquareCut, Y: yMax},
	})
	if err != nil {
		return err
	}
	cut.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(cut)
	p.Legend.Add("cut", cut)

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
