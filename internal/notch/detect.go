package notch

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Peak detection constants.
const (
	// minDetectSamples is the shortest signal worth transforming; below
	// this the bin spacing is too coarse to place a notch.
	minDetectSamples = 1024
)

// ErrDetect indicates peak detection could not run on the given signal.
var ErrDetect = fmt.Errorf("%w: signal unsuitable for peak detection", ErrInvalidDesign)

// DetectPeak returns the dominant frequency of a signal within [loHz, hiHz],
// in Hz. It is used to suggest a notch center from a recording of the
// patient's matched tone. The signal is DC-removed and Hann-windowed before
// the transform; the peak bin is refined by parabolic interpolation so the
// result does not snap to the FFT bin grid.
func DetectPeak(samples []float64, sampleRate float64, loHz, hiHz float64) (float64, error) {
	n := len(samples)
	if n < minDetectSamples {
		return 0, fmt.Errorf("%w: need at least %d samples, got %d", ErrDetect, minDetectSamples, n)
	}
	if sampleRate <= 0 || loHz < 0 || hiHz <= loHz {
		return 0, fmt.Errorf("%w: rate=%v window=[%v, %v]", ErrDetect, sampleRate, loHz, hiHz)
	}

	// Remove DC so a loud offset cannot win the peak search.
	mean := f64.Sum(samples) / float64(n)

	windowed := make([]float64, n)
	for i, v := range samples {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
		windowed[i] = (v - mean) * w
	}

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, windowed)

	loBin := int(math.Ceil(loHz / sampleRate * float64(n)))
	hiBin := int(math.Floor(hiHz / sampleRate * float64(n)))
	if hiBin >= len(coeffs) {
		hiBin = len(coeffs) - 1
	}
	if loBin < 1 {
		loBin = 1
	}
	if loBin > hiBin {
		return 0, fmt.Errorf("%w: window [%v, %v] Hz resolves to no bins", ErrDetect, loHz, hiHz)
	}

	peak := loBin
	peakMag := 0.0
	for i := loBin; i <= hiBin; i++ {
		if m := cmplx.Abs(coeffs[i]); m > peakMag {
			peakMag = m
			peak = i
		}
	}
	if peakMag == 0 {
		return 0, fmt.Errorf("%w: silent signal", ErrDetect)
	}

	// Parabolic interpolation over log magnitudes of the three bins
	// around the peak.
	delta := 0.0
	if peak > loBin && peak < hiBin {
		a := math.Log(cmplx.Abs(coeffs[peak-1]) + math.SmallestNonzeroFloat64)
		b := math.Log(peakMag)
		c := math.Log(cmplx.Abs(coeffs[peak+1]) + math.SmallestNonzeroFloat64)
		if denom := a - 2*b + c; denom != 0 {
			delta = 0.5 * (a - c) / denom
		}
	}

	return (float64(peak) + delta) * sampleRate / float64(n), nil
}
