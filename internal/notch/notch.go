// Package notch designs and applies the IIR notch filter used to carve the
// identified tinnitus frequency out of recorded audio.
//
// The filter is the standard audio-cookbook second-order notch: unity gain
// everywhere except a narrow band around the center frequency, with the
// band width given either as a quality factor or as a half-width in Hz
// (converted through Q = f/h, the same bandwidth model the tuner uses).
// Application is zero-phase: the signal is filtered forward and backward,
// so the notch adds no phase distortion to the program material.
package notch

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

// Design constraints.
const (
	// minQ guards against a notch so wide it behaves like a band kill.
	minQ = 0.1

	// maxQ guards against a notch narrower than the filter's numeric
	// precision supports.
	maxQ = 1000.0

	// padFactor scales the reflection padding used by FiltFilt, in
	// multiples of the filter order.
	padFactor = 3
)

// Common errors returned by the notch package.
var (
	// ErrInvalidDesign indicates unusable design parameters.
	ErrInvalidDesign = errors.New("invalid notch design")
)

// Coefficients holds normalized biquad coefficients (a0 == 1).
type Coefficients struct {
	B0, B1, B2 float64 // numerator
	A1, A2     float64 // denominator, a0 normalized out
}

// Design computes notch coefficients for the given center frequency and
// quality factor at a sample rate. The center frequency must lie strictly
// below the Nyquist frequency.
func Design(centerHz, q, sampleRate float64) (Coefficients, error) {
	if sampleRate <= 0 {
		return Coefficients{}, fmt.Errorf("%w: sample rate %v", ErrInvalidDesign, sampleRate)
	}
	nyquist := sampleRate / 2
	if centerHz <= 0 || centerHz >= nyquist {
		return Coefficients{}, fmt.Errorf("%w: center %v Hz outside (0, %v)",
			ErrInvalidDesign, centerHz, nyquist)
	}
	if q < minQ || q > maxQ {
		return Coefficients{}, fmt.Errorf("%w: Q %v outside [%v, %v]",
			ErrInvalidDesign, q, minQ, maxQ)
	}

	w0 := 2 * math.Pi * centerHz / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	cosw0 := math.Cos(w0)

	a0 := 1 + alpha
	return Coefficients{
		B0: 1 / a0,
		B1: -2 * cosw0 / a0,
		B2: 1 / a0,
		A1: -2 * cosw0 / a0,
		A2: (1 - alpha) / a0,
	}, nil
}

// DesignHzRange is Design with the bandwidth given as a half-width in Hz
// instead of a quality factor.
func DesignHzRange(centerHz, hzRange, sampleRate float64) (Coefficients, error) {
	if hzRange <= 0 {
		return Coefficients{}, fmt.Errorf("%w: half-width %v Hz", ErrInvalidDesign, hzRange)
	}
	return Design(centerHz, centerHz/hzRange, sampleRate)
}

// Biquad is a single second-order section with direct form II transposed
// state. One instance filters one channel.
type Biquad struct {
	coef   Coefficients
	z1, z2 float64
}

// NewBiquad returns a filter section with the given coefficients.
func NewBiquad(coef Coefficients) *Biquad {
	return &Biquad{coef: coef}
}

// Process filters src into dst in place when they alias. It returns the
// number of samples written, which is always len(src); dst must be at
// least that long.
func (f *Biquad) Process(dst, src []float64) int {
	c := f.coef
	z1, z2 := f.z1, f.z2
	for i, x := range src {
		y := c.B0*x + z1
		z1 = c.B1*x - c.A1*y + z2
		z2 = c.B2*x - c.A2*y
		dst[i] = y
	}
	f.z1, f.z2 = z1, z2
	return len(src)
}

// Reset clears the filter state.
func (f *Biquad) Reset() {
	f.z1, f.z2 = 0, 0
}

// Response returns the magnitude of the filter's frequency response at
// each of the given frequencies in Hz.
func Response(coef Coefficients, freqs []float64, sampleRate float64) []float64 {
	mags := make([]float64, len(freqs))
	for i, f := range freqs {
		w := 2 * math.Pi * f / sampleRate
		z1 := complex(math.Cos(-w), math.Sin(-w))
		z2 := z1 * z1
		num := complex(coef.B0, 0) + complex(coef.B1, 0)*z1 + complex(coef.B2, 0)*z2
		den := complex(1, 0) + complex(coef.A1, 0)*z1 + complex(coef.A2, 0)*z2
		mags[i] = cmplx.Abs(num / den)
	}
	return mags
}

// FiltFilt applies the filter forward and backward for zero phase shift.
// The signal edges are extended by odd reflection before filtering to
// suppress startup transients, matching common scientific-computing
// practice. The input is not modified; the filtered copy is returned.
func FiltFilt(coef Coefficients, src []float64) []float64 {
	if len(src) == 0 {
		return nil
	}

	padLen := padFactor * biquadOrder
	if padLen >= len(src) {
		padLen = len(src) - 1
	}

	// Odd reflection: pad[i] = 2*edge - src[edge ∓ i].
	ext := make([]float64, len(src)+2*padLen)
	for i := range padLen {
		ext[i] = 2*src[0] - src[padLen-i]
	}
	copy(ext[padLen:], src)
	for i := range padLen {
		ext[padLen+len(src)+i] = 2*src[len(src)-1] - src[len(src)-2-i]
	}

	f := NewBiquad(coef)
	f.Process(ext, ext)

	reverse(ext)
	f.Reset()
	f.Process(ext, ext)
	reverse(ext)

	out := make([]float64, len(src))
	copy(out, ext[padLen:padLen+len(src)])
	return out
}

// biquadOrder is the filter order of one second-order section.
const biquadOrder = 2

func reverse(s []float64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
