// Package ontime accumulates live observation time per zenith-distance
// bin from a run list. The accumulation is independent per run, so it can
// optionally fan out over worker goroutines; the caller receives one
// ordered per-bin array either way.
package ontime

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/mblnk/spectra/binning"
)

// ErrNoRuns is returned when the run list is empty.
var ErrNoRuns = errors.New("ontime: empty run list")

// Run is one observation run: its mean pointing zenith distance and its
// effective live time.
type Run struct {
	Zd     float64 // degrees
	OnTime float64 // seconds
}

// PerZenith sums the live time of all runs into the bins of zdAxis and
// returns one value per zenith bin, in label order. Runs pointing outside
// the axis range are dropped. With parallel set, the run list is split
// into nChunks independent pieces accumulated concurrently; the merged
// result is identical to the serial one.
func PerZenith(runs []Run, zdAxis binning.Axis, nChunks int, parallel bool) ([]float64, error) {
	if len(runs) == 0 {
		return nil, ErrNoRuns
	}
	if err := zdAxis.Validate(); err != nil {
		return nil, err
	}
	for i, r := range runs {
		if r.OnTime < 0 {
			return nil, fmt.Errorf("ontime: run %d has negative on-time %v", i, r.OnTime)
		}
	}
	if nChunks < 1 {
		nChunks = 1
	}
	if nChunks > len(runs) {
		nChunks = len(runs)
	}

	accumulate := func(chunk []Run, dst []float64) {
		for _, r := range chunk {
			if i := zdAxis.FindBin(r.Zd); i >= 0 {
				dst[i] += r.OnTime
			}
		}
	}

	nBins := zdAxis.NBins()

	if !parallel || nChunks == 1 {
		out := make([]float64, nBins)
		accumulate(runs, out)
		return out, nil
	}

	partial := make([][]float64, nChunks)
	var g errgroup.Group

	size := (len(runs) + nChunks - 1) / nChunks
	for c := range nChunks {
		lo := c * size
		hi := min(lo+size, len(runs))
		partial[c] = make([]float64, nBins)
		chunk := runs[lo:hi]
		dst := partial[c]
		g.Go(func() error {
			accumulate(chunk, dst)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]float64, nBins)
	for _, p := range partial {
		floats.Add(out, p)
	}
	return out, nil
}

// Total returns the summed live time of a per-zenith-bin array.
func Total(perZd []float64) float64 { return floats.Sum(perZd) }

// LoadRuns reads a run list from a header-indexed CSV file with columns
// "zd" and "on_time".
func LoadRuns(path string) ([]Run, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ontime: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("ontime: read header of %s: %w", path, err)
	}

	zdCol, timeCol := -1, -1
	for i, name := range header {
		switch name {
		case "zd":
			zdCol = i
		case "on_time":
			timeCol = i
		}
	}
	if zdCol < 0 || timeCol < 0 {
		return nil, fmt.Errorf("ontime: %s: need columns \"zd\" and \"on_time\"", path)
	}

	var runs []Run
	for line := 2; ; line++ {
		row, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("ontime: %s line %d: %w", path, line, err)
		}

		zd, err := strconv.ParseFloat(row[zdCol], 64)
		if err != nil {
			return nil, fmt.Errorf("ontime: %s line %d: %w", path, line, err)
		}
		t, err := strconv.ParseFloat(row[timeCol], 64)
		if err != nil {
			return nil, fmt.Errorf("ontime: %s line %d: %w", path, line, err)
		}
		runs = append(runs, Run{Zd: zd, OnTime: t})
	}

	return runs, nil
}
