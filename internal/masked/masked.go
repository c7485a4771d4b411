// Package masked provides NaN-masked numeric vectors and matrices.
//
// A masked entry marks a numerically degenerate result (division by zero,
// logarithm of a non-positive value) that must stay visible downstream
// instead of collapsing to zero. NaN is the in-memory mask marker; on JSON
// serialization masked entries become null and round-trip back to NaN.
package masked

import (
	"encoding/json"
	"math"
)

// Invalid returns the mask marker.
func Invalid() float64 { return math.NaN() }

// Valid reports whether x carries a usable value (finite, unmasked).
func Valid(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// Vector is a float slice whose NaN/Inf entries serialize as JSON null.
type Vector []float64

// MarshalJSON renders masked entries as null and finite entries as plain
// numbers.
func (v Vector) MarshalJSON() ([]byte, error) {
	out := make([]*float64, len(v))
	for i, x := range v {
		if Valid(x) {
			val := x
			out[i] = &val
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores null entries as masked values, never as zero.
func (v *Vector) UnmarshalJSON(data []byte) error {
	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Vector, len(raw))
	for i, p := range raw {
		if p == nil {
			out[i] = math.NaN()
		} else {
			out[i] = *p
		}
	}
	*v = out
	return nil
}

// AnyMasked reports whether at least one entry is masked.
func (v Vector) AnyMasked() bool {
	for _, x := range v {
		if !Valid(x) {
			return true
		}
	}
	return false
}

// Matrix is a dense row-major float matrix with the same null semantics
// per entry as [Vector].
type Matrix [][]float64

// MarshalJSON renders the matrix as nested sequences with null for masked
// entries.
func (m Matrix) MarshalJSON() ([]byte, error) {
	rows := make([]Vector, len(m))
	for i := range m {
		rows[i] = Vector(m[i])
	}
	return json.Marshal(rows)
}

// UnmarshalJSON restores nested sequences, mapping null back to masked.
func (m *Matrix) UnmarshalJSON(data []byte) error {
	var rows []Vector
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	out := make(Matrix, len(rows))
	for i := range rows {
		out[i] = []float64(rows[i])
	}
	*m = out
	return nil
}

// Div returns a/b elementwise. Any invalid operand or zero divisor masks
// the result entry. Panics if the lengths differ.
func Div(a, b []float64) Vector {
	if len(a) != len(b) {
		panic("masked: Div length mismatch")
	}
	out := make(Vector, len(a))
	for i := range a {
		if !Valid(a[i]) || !Valid(b[i]) || b[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = a[i] / b[i]
	}
	return out
}

// Scale returns c*v elementwise, keeping masked entries masked.
func Scale(v []float64, c float64) Vector {
	out := make(Vector, len(v))
	for i, x := range v {
		if !Valid(x) {
			out[i] = math.NaN()
			continue
		}
		out[i] = c * x
	}
	return out
}

// Log10 returns log10(v) elementwise; non-positive or invalid entries are
// masked.
func Log10(v []float64) Vector {
	out := make(Vector, len(v))
	for i, x := range v {
		if !Valid(x) || x <= 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = math.Log10(x)
	}
	return out
}

// Pow10 returns 10^v elementwise, keeping masked entries masked.
func Pow10(v []float64) Vector {
	out := make(Vector, len(v))
	for i, x := range v {
		if !Valid(x) {
			out[i] = math.NaN()
			continue
		}
		out[i] = math.Pow(10, x)
	}
	return out
}
