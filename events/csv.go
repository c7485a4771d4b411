package events

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// CSVReader reads event tables from header-indexed CSV files. It is the
// thin file adapter used by the command-line driver; production event
// lists in native telescope formats are converted upstream.
type CSVReader struct{}

// Read parses the CSV file at path. The header row names the columns
// using the canonical field names; every requested field must be present.
func (CSVReader) Read(path string, fields []string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("events: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("events: read header of %s: %w", path, err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, want := range fields {
		if _, ok := col[want]; !ok {
			return nil, fmt.Errorf("events: %s: missing required field %q", path, want)
		}
	}

	get := func(row []string, field string) (float64, error) {
		i, ok := col[field]
		if !ok {
			return 0, nil
		}
		v, err := strconv.ParseFloat(row[i], 64)
		if err != nil {
			return 0, fmt.Errorf("events: %s: field %q: %w", path, field, err)
		}
		return v, nil
	}

	var tab Table
	for line := 2; ; line++ {
		row, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return tab, fmt.Errorf("events: %s line %d: %w", path, line, err)
		}

		var rec Record
		var v float64

		if v, err = get(row, FieldDataType); err != nil {
			return nil, err
		}
		rec.DataType = int(v)

		if v, err = get(row, FieldFileID); err != nil {
			return nil, err
		}
		rec.FileID = int(v)

		if rec.Zd, err = get(row, FieldZd); err != nil {
			return nil, err
		}
		if rec.Size, err = get(row, FieldSize); err != nil {
			return nil, err
		}
		if rec.Leakage, err = get(row, FieldLeakage); err != nil {
			return nil, err
		}
		if rec.ThetaSq, err = get(row, FieldThetaSq); err != nil {
			return nil, err
		}
		if rec.MJD, err = get(row, FieldMJD); err != nil {
			return nil, err
		}
		if rec.MilliSec, err = get(row, FieldMilliSec); err != nil {
			return nil, err
		}
		if rec.NanoSec, err = get(row, FieldNanoSec); err != nil {
			return nil, err
		}

		tab = append(tab, rec)
	}

	return tab, nil
}
