package spectrum

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mblnk/spectra/binning"
	"github.com/mblnk/spectra/exposure/ontime"
	"github.com/mblnk/spectra/internal/masked"
)

// ErrUnknownField is returned when a snapshot contains a field outside
// the declared schema. The whole load is rejected; nothing is partially
// populated.
var ErrUnknownField = errors.New("spectrum: unknown snapshot field")

// snapshot is the closed persistence schema: a flat JSON object with one
// key per declared field. Nil pointers serialize as null, so "not yet
// computed" survives the round trip; masked array entries serialize as
// null per element and are restored as masked, never as zero.
type snapshot struct {
	UseCorrectionFactors *bool               `json:"use_correction_factors"`
	ThetaSquare          *float64            `json:"theta_square"`
	Alpha                *float64            `json:"alpha"`
	ListOfCeresFiles     *[]string           `json:"list_of_ceres_files"`
	GanymedFileMC        *string             `json:"ganymed_file_mc"`
	RunListStar          *masked.Matrix      `json:"run_list_star"` // rows: [zd, on_time]
	EnergyBinning        *masked.Vector      `json:"energy_binning"`
	ZenithBinning        *masked.Vector      `json:"zenith_binning"`
	EnergyLabels         *[]int              `json:"energy_labels"`
	ZenithLabels         *[]int              `json:"zenith_labels"`
	GanymedFileData      *string             `json:"ganymed_file_data"`
	EnergyCenter         *masked.Vector      `json:"energy_center"`
	EnergyError          *masked.Matrix      `json:"energy_error"`
	OnTimePerZd          *masked.Vector      `json:"on_time_per_zd"`
	TotalOnTime          *float64            `json:"total_on_time"`
	OnHistoZenith        *masked.Matrix      `json:"on_histo_zenith"`
	OffHistoZenith       *masked.Matrix      `json:"off_histo_zenith"`
	OnHisto              *masked.Vector      `json:"on_histo"`
	OffHisto             *masked.Vector      `json:"off_histo"`
	SignificanceHisto    *masked.Vector      `json:"significance_histo"`
	ExcessHisto          *masked.Vector      `json:"excess_histo"`
	ExcessHistoErr       *masked.Vector      `json:"excess_histo_err"`
	NOnEvents            *float64            `json:"n_on_events"`
	NOffEvents           *float64            `json:"n_off_events"`
	NExcessEvents        *float64            `json:"n_excess_events"`
	NExcessEventsErr     *float64            `json:"n_excess_events_err"`
	OverallSignificance  *float64            `json:"overall_significance"`
	ThetaSquareBinning   *masked.Vector      `json:"theta_square_binning"`
	OnThetaSquareHisto   *masked.Vector      `json:"on_theta_square_histo"`
	OffThetaSquareHisto  *masked.Vector      `json:"off_theta_square_histo"`
	EffectiveArea        *masked.Matrix      `json:"effective_area"`
	ScaledEffectiveArea  *masked.Matrix      `json:"scaled_effective_area"`
	DifferentialSpectrum *masked.Vector      `json:"differential_spectrum"`
	DifferentialSpecErr  *masked.Matrix      `json:"differential_spectrum_err"`
	Stats                *map[string]float64 `json:"stats"`
}

// snapshotFields is the declared field-name set, derived from the schema
// struct tags so the two can never drift apart.
var snapshotFields = func() map[string]struct{} {
	out := map[string]struct{}{}
	t := reflect.TypeOf(snapshot{})
	for i := range t.NumField() {
		tag := t.Field(i).Tag.Get("json")
		name, _, _ := strings.Cut(tag, ",")
		out[name] = struct{}{}
	}
	return out
}()

// Save writes the aggregate's configuration and results as a flat JSON
// snapshot.
func (s *Spectrum) Save(path string) error {
	data, err := json.Marshal(s.toSnapshot())
	if err != nil {
		return fmt.Errorf("spectrum: save %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("spectrum: save %s: %w", path, err)
	}
	return nil
}

// Load restores a snapshot into the aggregate. Any field name outside
// the declared schema rejects the whole load.
func (s *Spectrum) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("spectrum: load %s: %w", path, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("spectrum: load %s: %w", path, err)
	}
	for key := range raw {
		if _, ok := snapshotFields[key]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownField, key)
		}
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("spectrum: load %s: %w", path, err)
	}
	return s.fromSnapshot(&snap)
}

func (s *Spectrum) toSnapshot() *snapshot {
	snap := &snapshot{
		UseCorrectionFactors: &s.UseCorrectionFactors,
		ThetaSquare:          &s.ThetaSquareCut,
		Alpha:                &s.Alpha,
		TotalOnTime:          s.TotalOnTime,
		NOnEvents:            s.NOnEvents,
		NOffEvents:           s.NOffEvents,
		NExcessEvents:        s.NExcessEvents,
		NExcessEventsErr:     s.NExcessEventsErr,
		OverallSignificance:  s.OverallSignificance,
	}

	if s.DataFile != "" {
		snap.GanymedFileData = &s.DataFile
	}
	if s.MCDataFile != "" {
		snap.GanymedFileMC = &s.MCDataFile
	}
	if s.MCFiles != nil {
		snap.ListOfCeresFiles = &s.MCFiles
	}
	if s.Runs != nil {
		rows := make(masked.Matrix, len(s.Runs))
		for i, r := range s.Runs {
			rows[i] = []float64{r.Zd, r.OnTime}
		}
		snap.RunListStar = &rows
	}

	eb := masked.Vector(s.EnergyAxis.Edges)
	zb := masked.Vector(s.ZenithAxis.Edges)
	snap.EnergyBinning = &eb
	snap.ZenithBinning = &zb
	snap.EnergyLabels = &s.EnergyAxis.Labels
	snap.ZenithLabels = &s.ZenithAxis.Labels

	setVec := func(dst **masked.Vector, v masked.Vector) {
		if v != nil {
			*dst = &v
		}
	}
	setMat := func(dst **masked.Matrix, m masked.Matrix) {
		if m != nil {
			*dst = &m
		}
	}

	setVec(&snap.EnergyCenter, s.EnergyCenter)
	setMat(&snap.EnergyError, s.EnergyError)
	setVec(&snap.OnTimePerZd, s.OnTimePerZd)
	setMat(&snap.OnHistoZenith, s.OnHistoZenith)
	setMat(&snap.OffHistoZenith, s.OffHistoZenith)
	setVec(&snap.OnHisto, s.OnHisto)
	setVec(&snap.OffHisto, s.OffHisto)
	setVec(&snap.SignificanceHisto, s.SignificanceHisto)
	setVec(&snap.ExcessHisto, s.ExcessHisto)
	setVec(&snap.ExcessHistoErr, s.ExcessHistoErr)
	setVec(&snap.ThetaSquareBinning, s.ThetaSquareBinning)
	setVec(&snap.OnThetaSquareHisto, s.OnThetaSquareHisto)
	setVec(&snap.OffThetaSquareHisto, s.OffThetaSquareHisto)
	setMat(&snap.EffectiveArea, s.EffectiveArea)
	setMat(&snap.ScaledEffectiveArea, s.ScaledEffectiveArea)
	setVec(&snap.DifferentialSpectrum, s.DifferentialSpectrum)
	setMat(&snap.DifferentialSpecErr, s.DifferentialSpectrumErr)

	if s.Stats != nil {
		snap.Stats = &s.Stats
	}
	return snap
}

func (s *Spectrum) fromSnapshot(snap *snapshot) error {
	if snap.UseCorrectionFactors != nil {
		s.UseCorrectionFactors = *snap.UseCorrectionFactors
	}
	if snap.ThetaSquare != nil {
		s.ThetaSquareCut = *snap.ThetaSquare
	}
	if snap.Alpha != nil {
		s.Alpha = *snap.Alpha
	}
	if snap.GanymedFileData != nil {
		s.DataFile = *snap.GanymedFileData
	}
	if snap.GanymedFileMC != nil {
		s.MCDataFile = *snap.GanymedFileMC
	}
	if snap.ListOfCeresFiles != nil {
		s.MCFiles = *snap.ListOfCeresFiles
	}
	if snap.RunListStar != nil {
		runs := make([]ontime.Run, len(*snap.RunListStar))
		for i, row := range *snap.RunListStar {
			if len(row) != 2 {
				return fmt.Errorf("spectrum: run_list_star row %d has %d columns, want 2", i, len(row))
			}
			runs[i] = ontime.Run{Zd: row[0], OnTime: row[1]}
		}
		s.Runs = runs
	}

	if snap.EnergyBinning != nil {
		var labels []int
		if snap.EnergyLabels != nil {
			labels = *snap.EnergyLabels
		}
		axis, err := binning.NewAxis(*snap.EnergyBinning, labels)
		if err != nil {
			return err
		}
		s.EnergyAxis = axis
	}
	if snap.ZenithBinning != nil {
		var labels []int
		if snap.ZenithLabels != nil {
			labels = *snap.ZenithLabels
		}
		axis, err := binning.NewAxis(*snap.ZenithBinning, labels)
		if err != nil {
			return err
		}
		s.ZenithAxis = axis
	}

	vec := func(p *masked.Vector) masked.Vector {
		if p == nil {
			return nil
		}
		return *p
	}
	mat := func(p *masked.Matrix) masked.Matrix {
		if p == nil {
			return nil
		}
		return *p
	}

	s.EnergyCenter = vec(snap.EnergyCenter)
	s.EnergyError = mat(snap.EnergyError)
	s.OnTimePerZd = vec(snap.OnTimePerZd)
	s.TotalOnTime = snap.TotalOnTime
	s.OnHistoZenith = mat(snap.OnHistoZenith)
	s.OffHistoZenith = mat(snap.OffHistoZenith)
	s.OnHisto = vec(snap.OnHisto)
	s.OffHisto = vec(snap.OffHisto)
	s.SignificanceHisto = vec(snap.SignificanceHisto)
	s.ExcessHisto = vec(snap.ExcessHisto)
	s.ExcessHistoErr = vec(snap.ExcessHistoErr)
	s.NOnEvents = snap.NOnEvents
	s.NOffEvents = snap.NOffEvents
	s.NExcessEvents = snap.NExcessEvents
	s.NExcessEventsErr = snap.NExcessEventsErr
	s.OverallSignificance = snap.OverallSignificance
	s.ThetaSquareBinning = vec(snap.ThetaSquareBinning)
	s.OnThetaSquareHisto = vec(snap.OnThetaSquareHisto)
	s.OffThetaSquareHisto = vec(snap.OffThetaSquareHisto)
	s.EffectiveArea = mat(snap.EffectiveArea)
	s.ScaledEffectiveArea = mat(snap.ScaledEffectiveArea)
	s.DifferentialSpectrum = vec(snap.DifferentialSpectrum)
	s.DifferentialSpectrumErr = mat(snap.DifferentialSpecErr)

	if snap.Stats != nil {
		s.Stats = *snap.Stats
	}
	return nil
}
