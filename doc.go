// Package tuner implements a real-time tone sweep for locating a tinnitus
// frequency by ear.
//
// A tunable tone sweeps logarithmically across a band centered on an
// adjustable frequency. The band width is one logical quantity exposed
// through three synchronized views: quality factor Q, half-width in Hz, and
// half-width in octaves. An equal-loudness correction keeps the perceived
// level roughly constant across the band, and at high Q two phase-inverted
// partials add a destructive-interference notch cue around the swept tone.
//
// # Quick Start
//
//	engine, err := tuner.New(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	engine.SetFrequency(4000)
//	engine.SetQ(30)
//	if err := engine.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	time.Sleep(10 * time.Second)
//	engine.Stop()
//
// # Parameter Model
//
// [Params] stores the center frequency and the Hz half-width; the Q and
// octave views are derived on demand, so the three representations can
// never disagree. Every setter clamps its input to the valid domain and
// atomically publishes an immutable [Snapshot] for the audio goroutine;
// there are no rejected edits and no feedback between setters.
//
// Conversions: HzRange = f/Q, OctaveRange = log2(1 + HzRange/f),
// HzRange = f·(2^OctaveRange − 1).
//
// # Real-Time Contract
//
// The audio path is pull-based: the output device asks the engine for
// sample blocks. Per block the engine loads the latest snapshot once (so
// edits land on block boundaries), renders into a pre-allocated buffer
// with zero heap allocation, and takes no locks shared with the control
// goroutine. Non-finite output from a degenerate parameter combination is
// replaced with one silent block and logged, never propagated.
//
// [Engine.Stop] is synchronous: it returns only after the device confirms
// that no further render callbacks will occur.
//
// # Backends
//
// By default the engine plays through the platform audio device using
// github.com/ebitengine/oto/v3 (mono, 44100 Hz, 32-bit float). A headless
// backend drives the identical render path without hardware, for tests and
// for the offline analysis tools under cmd.
//
// # Offline Tools
//
// The internal/notch package and cmd/notch-wav apply a zero-phase IIR
// notch filter at the identified frequency to WAV files, and can suggest a
// notch frequency by spectral peak detection. cmd/analyze-sweep renders
// the sweep offline and reports its measured band and levels.
package tuner
