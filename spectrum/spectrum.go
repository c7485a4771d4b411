// Package spectrum owns the full spectral-reconstruction pipeline: it
// holds the analysis configuration, runs the stages in dependency order
// (event selection, optimization, histogram accumulation, exposure,
// flux assembly) and persists the complete result set as a closed-schema
// JSON snapshot.
//
// A Spectrum instance owns its data exclusively and is not safe for
// concurrent mutation.
package spectrum

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/mblnk/spectra/binning"
	"github.com/mblnk/spectra/events"
	"github.com/mblnk/spectra/exposure/aeff"
	"github.com/mblnk/spectra/exposure/ontime"
	"github.com/mblnk/spectra/flux"
	"github.com/mblnk/spectra/histogram"
	"github.com/mblnk/spectra/internal/masked"
)

// ErrMissingInput is returned when a stage is invoked without its
// required inputs and no collaborator path exists to derive them.
var ErrMissingInput = errors.New("spectrum: missing required input")

// Spectrum is the analysis aggregate. Configuration fields are plain
// values; result fields start nil and are filled in as stages run, so
// "not yet computed" stays distinguishable from "computed as zero".
type Spectrum struct {
	// Configuration.
	UseCorrectionFactors bool
	ThetaSquareCut       float64
	Alpha                float64
	EnergyAxis           binning.Axis
	ZenithAxis           binning.Axis

	// Source references.
	DataFile   string       // analysed data event list
	MCDataFile string       // analysed Monte-Carlo event list
	MCFiles    []string     // raw simulation files for the effective area
	Runs       []ontime.Run // observation run list

	// Collaborators and execution knobs.
	reader    events.Reader
	simReader aeff.SimReader
	log       *zap.Logger
	nChunks   int
	nWorkers  int
	parallel  bool

	// Exposure results.
	OnTimePerZd masked.Vector
	TotalOnTime *float64

	// Histogram results.
	OnHistoZenith       masked.Matrix
	OffHistoZenith      masked.Matrix
	OnHisto             masked.Vector
	OffHisto            masked.Vector
	SignificanceHisto   masked.Vector
	ExcessHisto         masked.Vector
	ExcessHistoErr      masked.Vector
	NOnEvents           *float64
	NOffEvents          *float64
	NExcessEvents       *float64
	NExcessEventsErr    *float64
	OverallSignificance *float64
	ThetaSquareBinning  masked.Vector
	OnThetaSquareHisto  masked.Vector
	OffThetaSquareHisto masked.Vector

	// Effective-area results.
	EffectiveArea       masked.Matrix
	ScaledEffectiveArea masked.Matrix

	// Spectrum results.
	EnergyCenter            masked.Vector
	EnergyError             masked.Matrix // rows: lower, upper half-widths
	DifferentialSpectrum    masked.Vector
	DifferentialSpectrumErr masked.Matrix // rows: lower, upper log-symmetric errors

	// Summary statistics, filled by FillStats.
	Stats map[string]float64
}

// New constructs a Spectrum with the standard defaults (theta-square cut
// 0.085, alpha 0.2, log-spaced energy axis, linear zenith axis) modified
// by the given options.
func New(opts ...Option) *Spectrum {
	s := &Spectrum{
		ThetaSquareCut: 0.085,
		Alpha:          0.2,
		EnergyAxis:     binning.DefaultEnergyAxis(),
		ZenithAxis:     binning.DefaultZenithAxis(),
		reader:         events.CSVReader{},
		simReader:      aeff.CSVSimReader{},
		log:            zap.NewNop(),
		nChunks:        8,
		parallel:       true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// ReadEvents reads the analysed data event list and assigns the derived
// energy estimate to every record.
func (s *Spectrum) ReadEvents() (events.Table, error) {
	if s.DataFile == "" {
		return nil, fmt.Errorf("%w: no data event list configured", ErrMissingInput)
	}
	tab, err := s.reader.Read(s.DataFile, events.SpectralFields)
	if err != nil {
		return nil, err
	}
	tab.AssignEnergies()
	s.log.Debug("read event list",
		zap.String("file", s.DataFile),
		zap.Int("events", len(tab)))
	return tab, nil
}

// AccumulateHistograms fills the on/off histograms over the configured
// axes and derives the excess, per-bin and overall significance.
func (s *Spectrum) AccumulateHistograms() error {
	tab, err := s.ReadEvents()
	if err != nil {
		return err
	}

	res, err := histogram.Accumulate(tab, s.ThetaSquareCut, s.ZenithAxis, s.EnergyAxis, s.Alpha)
	if err != nil {
		return err
	}

	s.OnHistoZenith = masked.Matrix(res.OnZenith.Counts)
	s.OffHistoZenith = masked.Matrix(res.OffZenith.Counts)
	s.OnHisto = masked.Vector(res.On)
	s.OffHisto = masked.Vector(res.Off)
	s.ExcessHisto = masked.Vector(res.Excess)
	s.ExcessHistoErr = masked.Vector(res.ExcessErr)
	s.SignificanceHisto = masked.Vector(res.Significance)
	s.ThetaSquareBinning = masked.Vector(res.ThetaEdges)
	s.OnThetaSquareHisto = masked.Vector(res.ThetaOn)
	s.OffThetaSquareHisto = masked.Vector(res.ThetaOff)
	s.NOnEvents = ptr(res.NOn)
	s.NOffEvents = ptr(res.NOff)
	s.NExcessEvents = ptr(res.NExcess)
	s.NExcessEventsErr = ptr(res.NExcessErr)
	s.OverallSignificance = ptr(res.OverallSignificance)

	s.log.Info("accumulated histograms",
		zap.Float64("n_on", res.NOn),
		zap.Float64("n_off", res.NOff),
		zap.Float64("significance", res.OverallSignificance))
	return nil
}

// ComputeOnTime accumulates the live time per zenith bin from the run
// list.
func (s *Spectrum) ComputeOnTime() error {
	if len(s.Runs) == 0 {
		return fmt.Errorf("%w: no run list configured", ErrMissingInput)
	}

	perZd, err := ontime.PerZenith(s.Runs, s.ZenithAxis, s.nChunks, s.parallel)
	if err != nil {
		return err
	}

	s.OnTimePerZd = masked.Vector(perZd)
	s.TotalOnTime = ptr(ontime.Total(perZd))

	s.log.Info("computed on-time",
		zap.Float64("total_hours", *s.TotalOnTime/3600))
	return nil
}

// ComputeEffectiveArea estimates the effective-area table from the
// configured Monte-Carlo files.
func (s *Spectrum) ComputeEffectiveArea() error {
	if len(s.MCFiles) == 0 {
		return fmt.Errorf("%w: no simulation files configured", ErrMissingInput)
	}

	area, err := aeff.EffectiveArea(s.MCFiles, s.simReader, s.ZenithAxis, s.EnergyAxis,
		s.ThetaSquareCut, aeff.Options{
			UseCorrections: s.UseCorrectionFactors,
			NWorkers:       s.nWorkers,
			Parallel:       s.parallel,
		})
	if err != nil {
		return err
	}

	s.EffectiveArea = masked.Matrix(area.Counts)

	s.log.Info("computed effective area",
		zap.Int("files", len(s.MCFiles)),
		zap.Bool("corrections", s.UseCorrectionFactors))
	return nil
}

// ComputeFlux assembles the differential spectrum, first running any
// upstream stage whose result is still missing. Results already present
// on the aggregate are reused, not recomputed.
func (s *Spectrum) ComputeFlux() error {
	if s.OnTimePerZd == nil {
		s.log.Warn("on-time missing, computing it first")
		if err := s.ComputeOnTime(); err != nil {
			return err
		}
	}
	if s.OnHisto == nil {
		s.log.Warn("histograms missing, accumulating them first")
		if err := s.AccumulateHistograms(); err != nil {
			return err
		}
	}
	if s.EffectiveArea == nil {
		s.log.Warn("effective area missing, computing it first")
		if err := s.ComputeEffectiveArea(); err != nil {
			return err
		}
	}

	area, err := histogram.FromCounts(s.EffectiveArea, s.ZenithAxis, s.EnergyAxis)
	if err != nil {
		return err
	}
	hist := &histogram.Result{
		On:     s.OnHisto,
		Off:    s.OffHisto,
		Excess: s.ExcessHisto,
		Alpha:  s.Alpha,
	}

	res, err := flux.Assemble(hist, s.OnTimePerZd, area, s.EnergyAxis, s.Alpha)
	if err != nil {
		return err
	}

	s.EnergyCenter = masked.Vector(res.Energy)
	s.EnergyError = masked.Matrix{res.EnergyErrLow, res.EnergyErrHigh}
	s.DifferentialSpectrum = res.Flux
	s.DifferentialSpectrumErr = masked.Matrix{res.FluxErrLow, res.FluxErrHigh}
	s.ScaledEffectiveArea = res.ScaledAeff

	s.log.Info("assembled differential spectrum",
		zap.Int("bins", len(res.Flux)),
		zap.Bool("masked_bins", res.Flux.AnyMasked()))
	return nil
}

// FillStats refreshes the summary statistics map from the accumulated
// totals. Stages that have not run yet contribute nothing.
func (s *Spectrum) FillStats() map[string]float64 {
	stats := map[string]float64{}
	if s.NOnEvents != nil {
		stats["n_on"] = *s.NOnEvents
	}
	if s.NOffEvents != nil {
		stats["n_off"] = s.Alpha * *s.NOffEvents
	}
	if s.NExcessEvents != nil {
		stats["n_excess"] = *s.NExcessEvents
	}
	if s.TotalOnTime != nil {
		stats["on_time_hours"] = *s.TotalOnTime / 3600
	}
	if s.OverallSignificance != nil {
		stats["significance"] = *s.OverallSignificance
	}
	s.Stats = stats
	return stats
}

// TotalLiveTime returns the summed live time, recomputing it from the
// per-bin array if needed.
func (s *Spectrum) TotalLiveTime() float64 {
	if s.TotalOnTime != nil {
		return *s.TotalOnTime
	}
	if s.OnTimePerZd == nil {
		return 0
	}
	return floats.Sum(s.OnTimePerZd)
}

func ptr(v float64) *float64 { return &v }
