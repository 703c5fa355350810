// Package search provides pure numeric similarity scoring and ranking over
// embedding vectors, plus the result types returned to callers.
package search

import (
	"fmt"
	"math"
)

// DimensionError indicates two vectors of unequal length were compared.
// Comparing across dimensionalities is a contract violation that is always
// surfaced, never coerced into a score.
type DimensionError struct {
	lenA int
	lenB int
}

// NewDimensionError creates a DimensionError.
func NewDimensionError(lenA, lenB int) *DimensionError {
	return &DimensionError{lenA: lenA, lenB: lenB}
}

// Error implements the error interface.
func (e *DimensionError) Error() string {
	return fmt.Sprintf("dimension mismatch: %d vs %d", e.lenA, e.lenB)
}

// Lengths returns the two vector lengths.
func (e *DimensionError) Lengths() (int, int) { return e.lenA, e.lenB }

// Cosine computes the cosine similarity between two equal-length vectors.
// Returns a value between -1 (opposite) and 1 (identical). When either
// vector has zero magnitude the ratio is undefined and 0 is returned; a
// length mismatch returns a DimensionError.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, NewDimensionError(len(a), len(b))
	}

	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}

	if magA == 0 || magB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(magA) * math.Sqrt(magB)), nil
}
