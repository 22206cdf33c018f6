package notch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-tinnitus-tuner/internal/testutil"
)

const (
	testSampleRate = 44100.0
	testSignalLen  = 44100 // one second
)

// TestDesign_Validation covers the design error paths.
func TestDesign_Validation(t *testing.T) {
	tests := []struct {
		name   string
		center float64
		q      float64
		rate   float64
	}{
		{"zero_rate", 1000, 30, 0},
		{"center_at_nyquist", 22050, 30, testSampleRate},
		{"center_above_nyquist", 30000, 30, testSampleRate},
		{"negative_center", -100, 30, testSampleRate},
		{"q_too_low", 1000, 0.01, testSampleRate},
		{"q_too_high", 1000, 5000, testSampleRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Design(tt.center, tt.q, tt.rate)
			assert.ErrorIs(t, err, ErrInvalidDesign)
		})
	}
}

// TestDesign_ResponseShape verifies the defining notch properties: a deep
// null at the center frequency, near-unity gain away from it, and -3 dB
// points consistent with the requested Q.
func TestDesign_ResponseShape(t *testing.T) {
	const (
		center = 4000.0
		q      = 30.0
	)
	coef, err := Design(center, q, testSampleRate)
	require.NoError(t, err)

	mags := Response(coef, []float64{center, 100, 1000, 10000, 20000}, testSampleRate)
	assert.Less(t, mags[0], 1e-6, "center must be nulled")
	for _, m := range mags[1:] {
		assert.InDelta(t, 1.0, m, 0.05, "gain far from the notch should be ~1")
	}

	// Half-power points at center ± center/(2Q).
	bw := center / q
	edges := Response(coef, []float64{center - bw/2, center + bw/2}, testSampleRate)
	for _, m := range edges {
		assert.InDelta(t, math.Sqrt(0.5), m, 0.05)
	}
}

// TestDesignHzRange_MatchesQ verifies the half-width formulation is the
// same filter as Q = f/h.
func TestDesignHzRange_MatchesQ(t *testing.T) {
	byQ, err := Design(3000, 30, testSampleRate)
	require.NoError(t, err)
	byH, err := DesignHzRange(3000, 100, testSampleRate)
	require.NoError(t, err)
	assert.Equal(t, byQ, byH)

	_, err = DesignHzRange(3000, 0, testSampleRate)
	assert.ErrorIs(t, err, ErrInvalidDesign)
}

// TestFiltFilt_RemovesNotchedTone verifies end-to-end attenuation: a sine
// at the notch center nearly vanishes, one far away passes untouched.
func TestFiltFilt_RemovesNotchedTone(t *testing.T) {
	coef, err := Design(4000, 30, testSampleRate)
	require.NoError(t, err)

	atCenter := testutil.Sine(testSignalLen, 4000, testSampleRate)
	out := FiltFilt(coef, atCenter)
	require.Len(t, out, len(atCenter))
	testutil.AssertNoNaNOrInf(t, out)
	assert.Less(t, testutil.RMS(out), 0.01*testutil.RMS(atCenter),
		"tone at the notch center should be removed")

	farAway := testutil.Sine(testSignalLen, 440, testSampleRate)
	out = FiltFilt(coef, farAway)
	assert.InDelta(t, testutil.RMS(farAway), testutil.RMS(out), 0.01*testutil.RMS(farAway),
		"tone far from the notch should pass unchanged")
}

// TestFiltFilt_ZeroPhase verifies the forward-backward pass leaves a
// passband tone phase-aligned with the input.
func TestFiltFilt_ZeroPhase(t *testing.T) {
	coef, err := Design(8000, 30, testSampleRate)
	require.NoError(t, err)

	in := testutil.Sine(testSignalLen, 1000, testSampleRate)
	out := FiltFilt(coef, in)

	// Compare away from the edges where the reflection padding settles.
	var dot, ref float64
	for i := 1000; i < testSignalLen-1000; i++ {
		dot += in[i] * out[i]
		ref += in[i] * in[i]
	}
	assert.InDelta(t, 1.0, dot/ref, 0.01, "normalized correlation at zero lag")
}

// TestFiltFilt_Degenerate covers empty and very short inputs.
func TestFiltFilt_Degenerate(t *testing.T) {
	coef, err := Design(1000, 10, testSampleRate)
	require.NoError(t, err)

	assert.Nil(t, FiltFilt(coef, nil))

	short := []float64{0.5, -0.5, 0.25}
	out := FiltFilt(coef, short)
	require.Len(t, out, len(short))
	testutil.AssertNoNaNOrInf(t, out)
}

// TestBiquad_ProcessInPlace verifies in-place operation and state carry
// across chunked calls.
func TestBiquad_ProcessInPlace(t *testing.T) {
	coef, err := Design(2000, 20, testSampleRate)
	require.NoError(t, err)

	sig := testutil.Sine(2048, 500, testSampleRate)

	whole := make([]float64, len(sig))
	NewBiquad(coef).Process(whole, sig)

	chunked := append([]float64(nil), sig...)
	f := NewBiquad(coef)
	half := len(chunked) / 2
	f.Process(chunked[:half], chunked[:half])
	f.Process(chunked[half:], chunked[half:])

	for i := range whole {
		require.InDeltaf(t, whole[i], chunked[i], 1e-12, "sample %d", i)
	}
}

// TestDetectPeak verifies spectral peak detection against known tones.
func TestDetectPeak(t *testing.T) {
	tests := []struct {
		name string
		freq float64
	}{
		{"mid_band", 4000},
		{"speech_band", 1000},
		{"high_band", 12000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := testutil.Sine(testSignalLen, tt.freq, testSampleRate)
			got, err := DetectPeak(sig, testSampleRate, 20, 20000)
			require.NoError(t, err)
			assert.InDelta(t, tt.freq, got, 1.0)
		})
	}
}

// TestDetectPeak_Errors covers the detection error paths.
func TestDetectPeak_Errors(t *testing.T) {
	_, err := DetectPeak(make([]float64, 16), testSampleRate, 20, 20000)
	assert.ErrorIs(t, err, ErrDetect)

	sig := testutil.Sine(testSignalLen, 1000, testSampleRate)
	_, err = DetectPeak(sig, testSampleRate, 5000, 4000)
	assert.ErrorIs(t, err, ErrDetect)

	_, err = DetectPeak(make([]float64, testSignalLen), testSampleRate, 20, 20000)
	assert.ErrorIs(t, err, ErrDetect, "silence has no peak")
}

// TestDetectPeak_IgnoresOutOfWindowEnergy verifies the search window: a
// louder tone outside [lo, hi] must not win.
func TestDetectPeak_IgnoresOutOfWindowEnergy(t *testing.T) {
	loud := testutil.Sine(testSignalLen, 100, testSampleRate)
	quiet := testutil.Sine(testSignalLen, 6000, testSampleRate)
	mixed := make([]float64, testSignalLen)
	for i := range mixed {
		mixed[i] = loud[i] + 0.1*quiet[i]
	}

	got, err := DetectPeak(mixed, testSampleRate, 2000, 20000)
	require.NoError(t, err)
	assert.InDelta(t, 6000.0, got, 1.0)
}

// BenchmarkFiltFilt measures zero-phase filtering of one second of audio.
func BenchmarkFiltFilt(b *testing.B) {
	coef, err := Design(4000, 30, testSampleRate)
	if err != nil {
		b.Fatal(err)
	}
	sig := testutil.Sine(testSignalLen, 440, testSampleRate)

	b.ReportAllocs()
	for b.Loop() {
		FiltFilt(coef, sig)
	}
}
