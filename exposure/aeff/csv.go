package aeff

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// CSVSimReader reads simulation tables from header-indexed CSV files with
// columns "energy", "zd", "theta_sq", "survived" and optionally "weight".
// It is the thin adapter used by the command-line driver.
type CSVSimReader struct{}

// Read parses the CSV file at path.
func (CSVSimReader) Read(path string) ([]SimEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := map[string]int{}
	for i, name := range header {
		col[name] = i
	}
	for _, want := range []string{"energy", "zd", "theta_sq", "survived"} {
		if _, ok := col[want]; !ok {
			return nil, fmt.Errorf("missing required column %q", want)
		}
	}
	weightCol, hasWeight := col["weight"]

	var evs []SimEvent
	for line := 2; ; line++ {
		row, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		parse := func(i int) (float64, error) {
			v, err := strconv.ParseFloat(row[i], 64)
			if err != nil {
				return 0, fmt.Errorf("line %d: %w", line, err)
			}
			return v, nil
		}

		var ev SimEvent
		if ev.Energy, err = parse(col["energy"]); err != nil {
			return nil, err
		}
		if ev.Zd, err = parse(col["zd"]); err != nil {
			return nil, err
		}
		if ev.ThetaSq, err = parse(col["theta_sq"]); err != nil {
			return nil, err
		}
		surv, err := parse(col["survived"])
		if err != nil {
			return nil, err
		}
		ev.Survived = surv != 0
		if hasWeight {
			if ev.Weight, err = parse(weightCol); err != nil {
				return nil, err
			}
		}
		evs = append(evs, ev)
	}

	return evs, nil
}
