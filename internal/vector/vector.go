// Package vector holds the fixed-dimension embedding container used by every
// stored and compared vector in the system.
package vector

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch is returned when two vectors of different length are compared.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Vector is an immutable embedding. Its length is fixed when it is built,
// either by Fit (which reconciles a raw service vector to a target dimension)
// or by Wrap (which keeps a stored vector's own length).
type Vector struct {
	values []float32
}

// Fit reconciles raw to exactly dim components: longer vectors are truncated,
// shorter ones are padded with zeros. raw is never aliased.
func Fit(raw []float32, dim int) Vector {
	if dim < 0 {
		dim = 0
	}
	out := make([]float32, dim)
	copy(out, raw)
	return Vector{values: out}
}

// Wrap copies raw into a Vector without changing its length.
func Wrap(raw []float32) Vector {
	out := make([]float32, len(raw))
	copy(out, raw)
	return Vector{values: out}
}

// WrapDim is Wrap for callers that know the expected dimension. It fails with
// ErrDimensionMismatch when raw has any other length.
func WrapDim(raw []float32, dim int) (Vector, error) {
	if len(raw) != dim {
		return Vector{}, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(raw), dim)
	}
	return Wrap(raw), nil
}

// Dim returns the number of components.
func (v Vector) Dim() int {
	return len(v.values)
}

// IsZero reports whether v carries no components at all.
func (v Vector) IsZero() bool {
	return len(v.values) == 0
}

// Values returns a copy of the components.
func (v Vector) Values() []float32 {
	out := make([]float32, len(v.values))
	copy(out, v.values)
	return out
}

// At returns the i-th component.
func (v Vector) At(i int) float32 {
	return v.values[i]
}

// Norm returns the euclidean length of v.
func (v Vector) Norm() float64 {
	var sum float64
	for _, x := range v.values {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Unit returns v scaled to length 1. A zero-norm vector is returned unchanged.
func (v Vector) Unit() Vector {
	n := v.Norm()
	if n == 0 {
		return v
	}
	out := make([]float32, len(v.values))
	for i, x := range v.values {
		out[i] = float32(float64(x) / n)
	}
	return Vector{values: out}
}

// CosineSimilarity returns dot(a,b) / (|a| * |b|). It is 0 when either norm
// is 0 and fails with ErrDimensionMismatch when the lengths differ.
func CosineSimilarity(a, b Vector) (float64, error) {
	if a.Dim() != b.Dim() {
		return 0, ErrDimensionMismatch
	}
	return Cosine(a.values, b.values), nil
}

// Cosine is the slice form of CosineSimilarity. Only the common prefix of a
// and b is considered.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
