package spectrum

import (
	"errors"
	"math"
	"testing"

	"github.com/mblnk/spectra/binning"
	"github.com/mblnk/spectra/events"
	"github.com/mblnk/spectra/exposure/aeff"
	"github.com/mblnk/spectra/exposure/ontime"
	"github.com/mblnk/spectra/histogram"
	"github.com/mblnk/spectra/internal/masked"
)

// stubReader serves a fixed event table. Copies on every read so the
// caller's energy assignment cannot leak back into the fixture.
type stubReader struct {
	tab events.Table
	err error
}

func (r stubReader) Read(path string, fields []string) (events.Table, error) {
	if r.err != nil {
		return nil, r.err
	}
	return append(events.Table(nil), r.tab...), nil
}

type stubSimReader struct {
	evs []aeff.SimEvent
	err error
}

func (r stubSimReader) Read(path string) ([]aeff.SimEvent, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.evs, nil
}

// leakageFor places an event at exactly the wanted energy: with zero
// image size the energy estimate reduces to 13000*leakage.
func leakageFor(energy float64) float64 { return energy / 13000 }

func singleCellSpectrum(t *testing.T) *Spectrum {
	t.Helper()

	zd, err := binning.NewAxis([]float64{0, 60}, nil)
	if err != nil {
		t.Fatal(err)
	}
	e, err := binning.NewAxis([]float64{200, 50000}, nil)
	if err != nil {
		t.Fatal(err)
	}

	tab := events.Table{
		{DataType: events.DataTypeOn, Zd: 20, Leakage: leakageFor(1000), ThetaSq: 0.01},
		{DataType: events.DataTypeOn, Zd: 20, Leakage: leakageFor(2000), ThetaSq: 0.01},
		{DataType: events.DataTypeOff, Zd: 20, Leakage: leakageFor(1500), ThetaSq: 0.02},
	}

	sim := make([]aeff.SimEvent, 0, 10)
	for i := range 10 {
		sim = append(sim, aeff.SimEvent{
			Energy:   1000,
			Zd:       20,
			ThetaSq:  0.01,
			Survived: i < 5,
		})
	}

	return New(
		WithZenithAxis(zd),
		WithEnergyAxis(e),
		WithDataFile("events.csv"),
		WithMCFiles([]string{"ceres.csv"}),
		WithRuns([]ontime.Run{{Zd: 20, OnTime: 3600}}),
		WithReader(stubReader{tab: tab}),
		WithSimReader(stubSimReader{evs: sim}),
	)
}

func TestComputeFluxTriggersUpstreamStages(t *testing.T) {
	s := singleCellSpectrum(t)

	if err := s.ComputeFlux(); err != nil {
		t.Fatal(err)
	}

	if s.OnTimePerZd == nil || s.OnHisto == nil || s.EffectiveArea == nil {
		t.Fatal("upstream stage results not populated")
	}

	// Excess 2 - 0.2 = 1.8; area pi*270^2 * 5/10; total on-time 3600 s;
	// width (50000-200)/1000 in keV-scaled units.
	area := math.Pi * 270 * 270 * 0.5
	want := 1.8 / area / 3600 / ((50000 - 200) / 1000)
	if len(s.DifferentialSpectrum) != 1 {
		t.Fatalf("flux has %d bins, want 1", len(s.DifferentialSpectrum))
	}
	if got := s.DifferentialSpectrum[0]; math.Abs(got-want) > want*1e-12 {
		t.Fatalf("flux = %v, want %v", got, want)
	}
}

func TestComputeFluxReusesExistingResults(t *testing.T) {
	s := singleCellSpectrum(t)
	if err := s.ComputeFlux(); err != nil {
		t.Fatal(err)
	}

	// Break every collaborator. With the upstream results already in
	// place no stage may run again.
	s.reader = stubReader{err: errors.New("reader must not run")}
	s.simReader = stubSimReader{err: errors.New("sim reader must not run")}
	s.Runs = nil

	if err := s.ComputeFlux(); err != nil {
		t.Fatalf("recomputed an already present stage: %v", err)
	}
}

func TestComputeFluxRejectsPartialHistograms(t *testing.T) {
	s := singleCellSpectrum(t)
	if err := s.ComputeFlux(); err != nil {
		t.Fatal(err)
	}

	// Every snapshot field is independently nullable, so a loaded
	// aggregate can carry on_histo without off_histo. The flux stage
	// must surface the shape mismatch instead of faulting.
	s.OffHisto = nil
	s.DifferentialSpectrum = nil

	if err := s.ComputeFlux(); !errors.Is(err, histogram.ErrShape) {
		t.Fatalf("got %v, want ErrShape", err)
	}
}

func TestStagesRejectMissingInputs(t *testing.T) {
	cases := []struct {
		name string
		run  func(*Spectrum) error
	}{
		{"no data file", func(s *Spectrum) error { _, err := s.ReadEvents(); return err }},
		{"no run list", func(s *Spectrum) error { return s.ComputeOnTime() }},
		{"no simulation files", func(s *Spectrum) error { return s.ComputeEffectiveArea() }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.run(New()); !errors.Is(err, ErrMissingInput) {
				t.Fatalf("got %v, want ErrMissingInput", err)
			}
		})
	}
}

func TestFillStats(t *testing.T) {
	s := singleCellSpectrum(t)
	if err := s.ComputeFlux(); err != nil {
		t.Fatal(err)
	}

	stats := s.FillStats()

	if stats["n_on"] != 2 {
		t.Fatalf("n_on = %v, want 2", stats["n_on"])
	}
	if math.Abs(stats["n_off"]-0.2) > 1e-12 {
		t.Fatalf("n_off = %v, want 0.2", stats["n_off"])
	}
	if math.Abs(stats["n_excess"]-1.8) > 1e-12 {
		t.Fatalf("n_excess = %v, want 1.8", stats["n_excess"])
	}
	if stats["on_time_hours"] != 1 {
		t.Fatalf("on_time_hours = %v, want 1", stats["on_time_hours"])
	}
	if stats["significance"] <= 0 {
		t.Fatalf("significance = %v, want positive", stats["significance"])
	}
}

func TestFillStatsBeforeAnyStage(t *testing.T) {
	stats := New().FillStats()
	if len(stats) != 0 {
		t.Fatalf("stats before any stage = %v, want empty", stats)
	}
}

func TestOptimizeThetaCut(t *testing.T) {
	// Step landscape: a small off population below the search interval,
	// the signal at 0.02 and a large off population at 0.095. The
	// significance is maximal for any cut between the two off groups.
	var tab events.Table
	for range 2 {
		tab = append(tab, events.Record{DataType: events.DataTypeOff, ThetaSq: 0.005})
	}
	for range 10 {
		tab = append(tab, events.Record{DataType: events.DataTypeOn, ThetaSq: 0.02})
	}
	for range 20 {
		tab = append(tab, events.Record{DataType: events.DataTypeOff, ThetaSq: 0.095})
	}

	s := New(WithDataFile("events.csv"), WithReader(stubReader{tab: tab}))

	cut, err := s.OptimizeThetaCut()
	if err != nil {
		t.Fatal(err)
	}
	if !(cut > 0.02 && cut <= 0.095) {
		t.Fatalf("cut = %v, want inside (0.02, 0.095]", cut)
	}
	if s.ThetaSquareCut != cut {
		t.Fatalf("active cut %v not updated to %v", s.ThetaSquareCut, cut)
	}
}

func TestOptimizeThetaCutNeedsEvents(t *testing.T) {
	s := New()
	if _, err := s.OptimizeThetaCut(); !errors.Is(err, ErrMissingInput) {
		t.Fatalf("got %v, want ErrMissingInput", err)
	}
}

func TestOptimizeEnergyBinning(t *testing.T) {
	tab := events.Table{
		{DataType: events.DataTypeOn, Leakage: leakageFor(5000), ThetaSq: 0.01},
		{DataType: events.DataTypeOn, Leakage: leakageFor(2000), ThetaSq: 0.01},
		{DataType: events.DataTypeOn, Leakage: leakageFor(1000), ThetaSq: 0.01},
		{DataType: events.DataTypeOff, Leakage: leakageFor(1500), ThetaSq: 0.02},
	}
	s := New(WithDataFile("events.csv"), WithReader(stubReader{tab: tab}))

	if err := s.OptimizeEnergyBinning(); err != nil {
		t.Fatal(err)
	}

	// Three signal events can never reach the per-bin significance
	// threshold, so the forced final close yields a single bin from the
	// floored lowest event energy up to the seed edge.
	if got := s.EnergyAxis.NBins(); got != 1 {
		t.Fatalf("bins = %d, want 1", got)
	}
	if s.EnergyAxis.Edges[0] != 1000 || s.EnergyAxis.Edges[1] != 50000 {
		t.Fatalf("edges = %v, want [1000 50000]", s.EnergyAxis.Edges)
	}
}

func TestTotalLiveTimeFallsBackToPerBinSum(t *testing.T) {
	s := New()
	if s.TotalLiveTime() != 0 {
		t.Fatal("live time without any on-time result must be 0")
	}

	s.OnTimePerZd = masked.Vector{100, 200, 300}
	if got := s.TotalLiveTime(); got != 600 {
		t.Fatalf("live time = %v, want 600", got)
	}

	s.TotalOnTime = ptr(1234)
	if got := s.TotalLiveTime(); got != 1234 {
		t.Fatalf("live time = %v, want the stored total 1234", got)
	}
}
