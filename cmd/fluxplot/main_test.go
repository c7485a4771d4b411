package main

import (
	"path/filepath"
	"testing"

	"github.com/mblnk/spectra/internal/masked"
	"github.com/mblnk/spectra/spectrum"
)

func TestPlotThetaSqRejectsMissingHistograms(t *testing.T) {
	out := filepath.Join(t.TempDir(), "theta.png")

	if err := plotThetaSq(spectrum.New(), out); err == nil {
		t.Fatal("expected an error for a snapshot without theta-square data")
	}

	// A present-but-empty binning carries no bins either.
	s := spectrum.New()
	s.OnThetaSquareHisto = masked.Vector{}
	s.OffThetaSquareHisto = masked.Vector{}
	s.ThetaSquareBinning = masked.Vector{}
	if err := plotThetaSq(s, out); err == nil {
		t.Fatal("expected an error for an empty theta-square binning")
	}
}

func TestPlotFluxRejectsMissingSpectrum(t *testing.T) {
	out := filepath.Join(t.TempDir(), "flux.png")

	if err := plotFlux(spectrum.New(), out); err == nil {
		t.Fatal("expected an error for a snapshot without a spectrum")
	}

	s := spectrum.New()
	s.DifferentialSpectrum = masked.Vector{masked.Invalid()}
	s.EnergyCenter = masked.Vector{1000}
	s.DifferentialSpectrumErr = masked.Matrix{{masked.Invalid()}, {masked.Invalid()}}
	if err := plotFlux(s, out); err == nil {
		t.Fatal("expected an error when every point is masked")
	}
}
