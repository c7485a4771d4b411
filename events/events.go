// Package events defines the calibrated event-list model the spectral
// pipeline consumes: one record per reconstructed air shower, carrying the
// on/off data-type flag, pointing zenith distance, image size, leakage and
// the squared angular distance to the assumed source position.
//
// Reading the native telescope file formats is an external concern; this
// package only fixes the record shape, the [Reader] boundary and the
// empirical energy estimate derived from size and leakage.
package events

import (
	"math"
	"sort"
)

// Data-type flag values. On-events are recorded with the telescope
// pointing at the source, off-events at the background control regions.
const (
	DataTypeOff = 0
	DataTypeOn  = 1
)

// Canonical field names understood by [Reader] implementations.
const (
	FieldDataType = "data_type"
	FieldFileID   = "file_id"
	FieldZd       = "zd"
	FieldSize     = "size"
	FieldLeakage  = "leakage"
	FieldThetaSq  = "theta_sq"
	FieldMJD      = "mjd"
	FieldMilliSec = "millisec"
	FieldNanoSec  = "nanosec"
)

// SpectralFields is the field set the spectral pipeline requires. The
// timing fields feed only the on-time bookkeeping, not the spectral math.
var SpectralFields = []string{
	FieldDataType, FieldZd, FieldFileID,
	FieldMJD, FieldMilliSec, FieldNanoSec,
	FieldSize, FieldThetaSq, FieldLeakage,
}

// Record is one observed or simulated shower. Immutable once read, except
// for the derived Energy field filled in by [Table.AssignEnergies].
type Record struct {
	DataType int     // DataTypeOn or DataTypeOff
	FileID   int     // originating run
	Zd       float64 // pointing zenith distance, degrees
	Size     float64 // Hillas size, photoelectrons
	Leakage  float64 // signal fraction in the outer camera pixels
	ThetaSq  float64 // squared angular offset from the source, deg^2
	MJD      float64
	MilliSec float64
	NanoSec  float64
	Energy   float64 // estimated energy, GeV
}

// EstimateEnergy converts image size, pointing zenith distance and leakage
// into an energy estimate using the fixed empirical formula
//
//	E = (29.65*size)^(0.77 / cos(zd*1.35*pi/360)) + 13000*leakage
//
// with zd in degrees and E in GeV.
func EstimateEnergy(size, zd, leakage float64) float64 {
	exponent := 0.77 / math.Cos(zd*1.35*math.Pi/360)
	return math.Pow(29.65*size, exponent) + leakage*13000
}

// Table is an event list.
type Table []Record

// AssignEnergies fills the derived Energy field of every record from its
// size, zenith distance and leakage.
func (t Table) AssignEnergies() {
	for i := range t {
		t[i].Energy = EstimateEnergy(t[i].Size, t[i].Zd, t[i].Leakage)
	}
}

// SelectThetaSq returns the sub-table of events with ThetaSq strictly
// below cut.
func (t Table) SelectThetaSq(cut float64) Table {
	out := make(Table, 0, len(t))
	for _, r := range t {
		if r.ThetaSq < cut {
			out = append(out, r)
		}
	}
	return out
}

// SplitOnOff partitions the table into the signal-flagged and
// background-flagged sub-tables, preserving order.
func (t Table) SplitOnOff() (on, off Table) {
	for _, r := range t {
		if r.DataType == DataTypeOn {
			on = append(on, r)
		} else {
			off = append(off, r)
		}
	}
	return on, off
}

// SortByEnergyDesc sorts the table in place by descending estimated
// energy.
func (t Table) SortByEnergyDesc() {
	sort.Slice(t, func(i, j int) bool { return t[i].Energy > t[j].Energy })
}

// Energies returns the estimated energies in table order.
func (t Table) Energies() []float64 {
	out := make([]float64, len(t))
	for i, r := range t {
		out[i] = r.Energy
	}
	return out
}

// CountOnOff returns the number of signal- and background-flagged events.
func (t Table) CountOnOff() (nOn, nOff int) {
	for _, r := range t {
		if r.DataType == DataTypeOn {
			nOn++
		} else {
			nOff++
		}
	}
	return nOn, nOff
}

// Reader supplies an event table from a source file. Implementations must
// fail if any requested field is absent from the source.
type Reader interface {
	Read(path string, fields []string) (Table, error)
}
