// Command analyze-sweep renders the frequency sweep offline and reports
// what was actually synthesized: band edges, levels, and the spectral
// peak. It is the sanity check for the audio path on machines without a
// sound card.
//
// Usage:
//
//	analyze-sweep -freq 4000 -q 30
//	analyze-sweep -freq 1000 -range 200 -seconds 4
package main

import (
	"flag"
	"fmt"
	"log"
	"math"

	"github.com/tphakala/simd/f64"

	tuner "github.com/tphakala/go-tinnitus-tuner"
	"github.com/tphakala/go-tinnitus-tuner/internal/notch"
	"github.com/tphakala/go-tinnitus-tuner/internal/sweep"
)

const (
	defaultSeconds = 2.0 // one full sweep cycle
	sampleRate     = 44100
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	freq := flag.Float64("freq", tuner.DefaultFrequency, "Sweep center frequency in Hz")
	q := flag.Float64("q", tuner.DefaultQ, "Quality factor")
	hzRange := flag.Float64("range", 0, "Band half-width in Hz (overrides -q when set)")
	seconds := flag.Float64("seconds", defaultSeconds, "Duration to render")
	flag.Parse()

	params := tuner.NewParams()
	params.SetFrequency(*freq)
	if *hzRange > 0 {
		params.SetHzRange(*hzRange)
	} else {
		params.SetQ(*q)
	}
	snap := params.Snapshot()

	n := int(*seconds * sampleRate)
	buf := make([]float64, n)
	if err := sweep.Render(buf, 0, sampleRate, snap); err != nil {
		return fmt.Errorf("rendering sweep: %w", err)
	}

	lower, upper := sweep.Bounds(snap)
	fmt.Printf("Parameters: f=%.1f Hz  Q=%.2f  ±%.1f Hz  ±%.3f oct\n",
		snap.Frequency, snap.Q, snap.HzRange, snap.OctaveRange)
	fmt.Printf("Band:       %.1f - %.1f Hz (log sweep, %.1fs cycle)\n",
		lower, upper, sweep.CyclePeriod)

	peakAmp := 0.0
	for _, v := range buf {
		if a := math.Abs(v); a > peakAmp {
			peakAmp = a
		}
	}
	rms := math.Sqrt(f64.DotProductUnsafe(buf, buf) / float64(n))
	fmt.Printf("Level:      peak %.3f  RMS %.3f\n", peakAmp, rms)

	spectralPeak, err := notch.DetectPeak(buf, sampleRate, sweep.MinFrequency, sweep.MaxFrequency)
	if err != nil {
		return fmt.Errorf("analyzing spectrum: %w", err)
	}
	fmt.Printf("Spectrum:   peak at %.1f Hz\n", spectralPeak)

	if spectralPeak < lower || spectralPeak > upper {
		fmt.Printf("Warning: spectral peak outside the sweep band\n")
	}
	return nil
}
