package spectrum

import (
	"go.uber.org/zap"

	"github.com/mblnk/spectra/binning"
	"github.com/mblnk/spectra/events"
	"github.com/mblnk/spectra/exposure/aeff"
	"github.com/mblnk/spectra/exposure/ontime"
)

// Option mutates a Spectrum at construction time.
type Option func(*Spectrum)

// WithThetaSquareCut sets the angular signal-region cut in deg^2.
func WithThetaSquareCut(cut float64) Option {
	return func(s *Spectrum) {
		if cut > 0 {
			s.ThetaSquareCut = cut
		}
	}
}

// WithAlpha sets the background normalization factor.
func WithAlpha(alpha float64) Option {
	return func(s *Spectrum) {
		if alpha > 0 {
			s.Alpha = alpha
		}
	}
}

// WithCorrectionFactors toggles Monte-Carlo correction factors in the
// effective-area estimation.
func WithCorrectionFactors(use bool) Option {
	return func(s *Spectrum) { s.UseCorrectionFactors = use }
}

// WithEnergyAxis sets the energy binning.
func WithEnergyAxis(a binning.Axis) Option {
	return func(s *Spectrum) { s.EnergyAxis = a }
}

// WithZenithAxis sets the zenith binning.
func WithZenithAxis(a binning.Axis) Option {
	return func(s *Spectrum) { s.ZenithAxis = a }
}

// WithDataFile sets the analysed data event list.
func WithDataFile(path string) Option {
	return func(s *Spectrum) { s.DataFile = path }
}

// WithMCDataFile sets the analysed Monte-Carlo event list.
func WithMCDataFile(path string) Option {
	return func(s *Spectrum) { s.MCDataFile = path }
}

// WithMCFiles sets the raw simulation files for the effective area.
func WithMCFiles(paths []string) Option {
	return func(s *Spectrum) { s.MCFiles = paths }
}

// WithRuns sets the observation run list.
func WithRuns(runs []ontime.Run) Option {
	return func(s *Spectrum) { s.Runs = runs }
}

// WithReader replaces the event-list reader.
func WithReader(r events.Reader) Option {
	return func(s *Spectrum) {
		if r != nil {
			s.reader = r
		}
	}
}

// WithSimReader replaces the simulation-file reader.
func WithSimReader(r aeff.SimReader) Option {
	return func(s *Spectrum) {
		if r != nil {
			s.simReader = r
		}
	}
}

// WithLogger attaches a structured logger. The default is a no-op.
func WithLogger(log *zap.Logger) Option {
	return func(s *Spectrum) {
		if log != nil {
			s.log = log
		}
	}
}

// WithChunks sets the on-time accumulation chunk count.
func WithChunks(n int) Option {
	return func(s *Spectrum) {
		if n > 0 {
			s.nChunks = n
		}
	}
}

// WithWorkers bounds the effective-area worker count.
func WithWorkers(n int) Option {
	return func(s *Spectrum) {
		if n > 0 {
			s.nWorkers = n
		}
	}
}

// WithParallel toggles internal parallelism of the exposure
// collaborators. The pipeline itself stays single-threaded either way.
func WithParallel(parallel bool) Option {
	return func(s *Spectrum) { s.parallel = parallel }
}

// SetEnergyBinning replaces the energy axis. A nil labels slice resets
// the labels to 0..N-1.
func (s *Spectrum) SetEnergyBinning(edges []float64, labels []int) error {
	a, err := binning.NewAxis(edges, labels)
	if err != nil {
		return err
	}
	s.EnergyAxis = a
	return nil
}

// SetZenithBinning replaces the zenith axis. A nil labels slice resets
// the labels to 0..N-1.
func (s *Spectrum) SetZenithBinning(edges []float64, labels []int) error {
	a, err := binning.NewAxis(edges, labels)
	if err != nil {
		return err
	}
	s.ZenithAxis = a
	return nil
}

// SetThetaSquareCut sets the angular signal-region cut.
func (s *Spectrum) SetThetaSquareCut(cut float64) { s.ThetaSquareCut = cut }

// SetAlpha sets the background normalization factor.
func (s *Spectrum) SetAlpha(alpha float64) { s.Alpha = alpha }

// SetCorrectionFactors toggles Monte-Carlo correction factors.
func (s *Spectrum) SetCorrectionFactors(use bool) { s.UseCorrectionFactors = use }

// SetDataFile sets the analysed data event list.
func (s *Spectrum) SetDataFile(path string) { s.DataFile = path }

// SetMCDataFile sets the analysed Monte-Carlo event list.
func (s *Spectrum) SetMCDataFile(path string) { s.MCDataFile = path }

// SetMCFiles sets the raw simulation files.
func (s *Spectrum) SetMCFiles(paths []string) { s.MCFiles = paths }

// SetRuns sets the observation run list.
func (s *Spectrum) SetRuns(runs []ontime.Run) { s.Runs = runs }
