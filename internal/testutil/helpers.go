// Package testutil provides reusable test helper functions for the tuner tests.
package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Default tolerances for various test scenarios.
const (
	// DefaultTolerance is for exact analytical identities.
	DefaultTolerance = 1e-9

	// BandwidthTolerance is for the Q/Hz/octave conversion round trips,
	// which accumulate a few floating-point operations.
	BandwidthTolerance = 1e-6
)

// AssertNoNaNOrInf verifies that no elements in the slice are NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float64) bool {
	t.Helper()
	for i, v := range s {
		if math.IsNaN(v) {
			return assert.Fail(t, "found NaN", "s[%d] is NaN", i)
		}
		if math.IsInf(v, 0) {
			return assert.Fail(t, "found Inf", "s[%d] is Inf", i)
		}
	}
	return true
}

// AssertAllInRange verifies that all elements are within [minVal, maxVal].
func AssertAllInRange(t *testing.T, s []float64, minVal, maxVal float64) bool {
	t.Helper()
	for i, v := range s {
		if v < minVal || v > maxVal {
			return assert.Fail(t, "value out of range",
				"s[%d]=%f is outside range [%f, %f]", i, v, minVal, maxVal)
		}
	}
	return true
}

// Sine generates n samples of a unit-amplitude sine wave at freq Hz.
// Used as a known-spectrum input for filter and detection tests.
func Sine(n int, freq, sampleRate float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
	}
	return s
}

// RMS returns the root mean square level of a signal.
func RMS(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(s)))
}
