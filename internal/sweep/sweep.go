// Package sweep implements the logarithmic frequency sweep synthesizer.
//
// The synthesizer is a pure function from (elapsed time, parameter snapshot)
// to one output sample. It has no internal state, so the same inputs always
// produce bit-identical output. This is what makes the real-time render path
// trivially safe: the audio goroutine only ever reads an immutable Snapshot
// and a monotonically increasing sample clock.
package sweep

import (
	"errors"
	"math"
)

// Audible band limits in Hz. Sweep bounds are clamped to this range.
const (
	MinFrequency = 20.0
	MaxFrequency = 20000.0
)

// Sweep timing.
const (
	// CyclePeriod is the duration of one full sweep across the band, in seconds.
	CyclePeriod = 2.0
)

// Synthesis amplitude constants.
const (
	// BaseAmplitude is the nominal tone amplitude before loudness weighting.
	BaseAmplitude = 0.3

	// Loudness weighting curve breakpoints and slopes.
	weightFloor    = 0.1    // weight outside the audible band, and lower clamp
	weightCeil     = 2.0    // upper clamp on the weighting curve
	lowShelfEnd    = 1000.0 // below this, low frequencies are boosted
	lowShelfGain   = 0.8    // maximum boost at the bottom of the band
	highShelfStart = 4000.0 // above this, high frequencies are attenuated
	highShelfSpan  = 16000.0
	highShelfCut   = 0.6

	// Notch cue parameters. Two phase-inverted partials straddle the swept
	// tone; their level scales with the quality factor.
	notchQThreshold  = 1.0  // no cue at or below this Q
	notchQNormalizer = 100.0
	notchMaxDepth    = 0.2
	notchLowerRatio  = 0.95
	notchUpperRatio  = 1.05
)

// ErrSynthesis reports a non-finite sample produced by a degenerate
// parameter combination. Render converts the whole block to silence when
// this happens; the error never escapes the real-time path as a panic.
var ErrSynthesis = errors.New("synthesis produced non-finite output")

// Snapshot is an immutable view of the tuner parameters, published by the
// control goroutine and read by the audio goroutine. All four fields are
// mutually consistent at publication time.
type Snapshot struct {
	// Frequency is the sweep center frequency in Hz.
	Frequency float64

	// Q is the quality factor view of the bandwidth (Frequency / HzRange).
	Q float64

	// HzRange is the sweep half-width in Hz.
	HzRange float64

	// OctaveRange is the sweep half-width in octaves.
	OctaveRange float64
}

// Bounds returns the clamped sweep band [lower, upper] for a snapshot.
// Both ends are limited to the audible band. When the band collapses
// (lower >= upper) the synthesizer emits a constant tone at the center
// frequency instead of sweeping.
func Bounds(s Snapshot) (lower, upper float64) {
	lower = clamp(s.Frequency-s.HzRange, MinFrequency, MaxFrequency)
	upper = clamp(s.Frequency+s.HzRange, MinFrequency, MaxFrequency)
	return lower, upper
}

// FrequencyAt returns the instantaneous sweep frequency at elapsed time t.
// The sweep moves logarithmically from the lower to the upper band edge
// over CyclePeriod seconds, then jumps back.
func FrequencyAt(t float64, s Snapshot) float64 {
	lower, upper := Bounds(s)
	if lower >= upper {
		return s.Frequency
	}

	phase := math.Mod(t, CyclePeriod) / CyclePeriod
	logLower := math.Log10(lower)
	logUpper := math.Log10(upper)
	return math.Pow(10, logLower+phase*(logUpper-logLower))
}

// Weight returns the equal-loudness amplitude correction for a frequency.
// It is a piecewise linear approximation of the inverse A-weighting curve:
// low frequencies are boosted, the 1-4 kHz reference band is unity, and
// high frequencies are attenuated. The result is clamped to
// [weightFloor, weightCeil]; frequencies outside the audible band get the
// floor value.
func Weight(freq float64) float64 {
	if freq < MinFrequency || freq > MaxFrequency {
		return weightFloor
	}

	var w float64
	switch {
	case freq < lowShelfEnd:
		w = 1.0 + (lowShelfEnd-freq)/lowShelfEnd*lowShelfGain
	case freq < highShelfStart:
		w = 1.0
	default:
		w = 1.0 - (freq-highShelfStart)/highShelfSpan*highShelfCut
	}

	return clamp(w, weightFloor, weightCeil)
}

// Sample computes one output sample at elapsed time t seconds.
//
// The output is the loudness-weighted swept sine plus, for Q above
// notchQThreshold, two phase-inverted partials just below and above the
// swept frequency. The partials produce a perceptual notch by destructive
// interference; they are a cue, not a subtractive filter. The sum is
// clamped to [-1, 1] before it reaches the device.
func Sample(t float64, s Snapshot) float64 {
	cur := FrequencyAt(t, s)
	amp := BaseAmplitude * Weight(cur)

	out := amp * math.Sin(2*math.Pi*cur*t)

	if s.Q > notchQThreshold {
		qn := math.Min(s.Q/notchQNormalizer, 1.0)
		depth := qn * notchMaxDepth
		out += depth * amp * math.Sin(2*math.Pi*cur*notchLowerRatio*t+math.Pi)
		out += depth * amp * math.Sin(2*math.Pi*cur*notchUpperRatio*t+math.Pi)
	}

	return clamp(out, -1.0, 1.0)
}

// Render fills dst with consecutive samples starting at frame startFrame.
// Frame i is computed at t = (startFrame + i) / sampleRate, so a parameter
// change only ever takes effect on a block boundary.
//
// Render performs no heap allocation and takes no locks; it is safe to call
// from a real-time audio goroutine. If any sample in the block comes out
// non-finite, the whole block is replaced with silence and ErrSynthesis is
// returned so the caller can log the fault.
func Render(dst []float64, startFrame int64, sampleRate int, s Snapshot) error {
	rate := float64(sampleRate)
	for i := range dst {
		t := float64(startFrame+int64(i)) / rate
		dst[i] = Sample(t, s)
	}

	for _, v := range dst {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			for i := range dst {
				dst[i] = 0
			}
			return ErrSynthesis
		}
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
