package events

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestEstimateEnergy(t *testing.T) {
	// At zd=0 the exponent is exactly 0.77.
	size, leakage := 100.0, 0.01
	want := math.Pow(29.65*size, 0.77) + leakage*13000

	got := EstimateEnergy(size, 0, leakage)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestEstimateEnergyGrowsWithZenith(t *testing.T) {
	// cos shrinks with zd, the exponent grows, and for sizes large enough
	// that 29.65*size > 1 the estimate grows with it.
	e0 := EstimateEnergy(500, 0, 0)
	e40 := EstimateEnergy(500, 40, 0)
	if e40 <= e0 {
		t.Fatalf("expected higher estimate at zd=40: %v <= %v", e40, e0)
	}
}

func TestSelectThetaSq(t *testing.T) {
	tab := Table{
		{DataType: DataTypeOn, ThetaSq: 0.01},
		{DataType: DataTypeOn, ThetaSq: 0.02},
		{DataType: DataTypeOn, ThetaSq: 0.09},
		{DataType: DataTypeOff, ThetaSq: 0.03},
		{DataType: DataTypeOff, ThetaSq: 0.2},
	}

	sel := tab.SelectThetaSq(0.085)
	nOn, nOff := sel.CountOnOff()
	if nOn != 2 || nOff != 1 {
		t.Fatalf("cut 0.085: got on=%d off=%d, want on=2 off=1", nOn, nOff)
	}
}

func TestSplitOnOffPreservesOrder(t *testing.T) {
	tab := Table{
		{DataType: DataTypeOn, Energy: 1},
		{DataType: DataTypeOff, Energy: 2},
		{DataType: DataTypeOn, Energy: 3},
	}

	on, off := tab.SplitOnOff()
	if len(on) != 2 || len(off) != 1 {
		t.Fatalf("split: on=%d off=%d", len(on), len(off))
	}
	if on[0].Energy != 1 || on[1].Energy != 3 || off[0].Energy != 2 {
		t.Fatalf("order not preserved: %v %v", on, off)
	}
}

func TestSortByEnergyDesc(t *testing.T) {
	tab := Table{{Energy: 2}, {Energy: 9}, {Energy: 5}}
	tab.SortByEnergyDesc()

	for i := 1; i < len(tab); i++ {
		if tab[i].Energy > tab[i-1].Energy {
			t.Fatalf("not descending at %d: %v", i, tab.Energies())
		}
	}
}

func TestCSVReader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.csv")

	content := "data_type,zd,size,theta_sq,leakage,file_id,mjd,millisec,nanosec\n" +
		"1,20.5,350,0.01,0.02,42,58000,123,456\n" +
		"0,21.0,120,0.2,0,42,58000,124,457\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	tab, err := CSVReader{}.Read(path, SpectralFields)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if len(tab) != 2 {
		t.Fatalf("got %d records, want 2", len(tab))
	}

	r := tab[0]
	if r.DataType != DataTypeOn || r.Zd != 20.5 || r.Size != 350 ||
		r.ThetaSq != 0.01 || r.Leakage != 0.02 || r.FileID != 42 {
		t.Fatalf("record mismatch: %+v", r)
	}
}

func TestCSVReaderMissingField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.csv")

	if err := os.WriteFile(path, []byte("data_type,zd\n1,20\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := CSVReader{}.Read(path, SpectralFields)
	if err == nil {
		t.Fatal("expected error for missing required field")
	}
}
