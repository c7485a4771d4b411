// Package lima implements the Li & Ma significance statistic for on/off
// counting measurements (Li & Ma 1983, eq. 17).
package lima

import "math"

// Significance returns the detection significance for nOn on-source counts
// and nOff off-source counts, with alpha the on/off exposure ratio.
//
// The degenerate cases follow the convention used throughout the analysis
// chain: an empty measurement (nOn == nOff == 0) and a negative excess
// (nOn < alpha*nOff) both yield exactly 0, never NaN.
func Significance(nOn, nOff, alpha float64) float64 {
	if nOn <= 0 && nOff <= 0 {
		return 0
	}
	if alpha <= 0 {
		return 0
	}
	if nOn < alpha*nOff {
		return 0
	}

	sum := nOn + nOff

	var t1, t2 float64
	if nOn > 0 {
		t1 = nOn * math.Log((1+alpha)/alpha*(nOn/sum))
	}
	if nOff > 0 {
		t2 = nOff * math.Log((1+alpha)*(nOff/sum))
	}

	ts := 2 * (t1 + t2)
	if ts <= 0 || math.IsNaN(ts) {
		return 0
	}

	return math.Sqrt(ts)
}

// SignificanceSlice evaluates [Significance] elementwise over paired
// on/off count slices. Panics if the lengths differ.
func SignificanceSlice(nOn, nOff []float64, alpha float64) []float64 {
	if len(nOn) != len(nOff) {
		panic("lima: on/off length mismatch")
	}
	out := make([]float64, len(nOn))
	for i := range nOn {
		out[i] = Significance(nOn[i], nOff[i], alpha)
	}
	return out
}
