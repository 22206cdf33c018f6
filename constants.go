package tuner

import "github.com/tphakala/go-tinnitus-tuner/internal/sweep"

// Center frequency domain in Hz, re-exported from the synthesis package.
const (
	MinFrequency = sweep.MinFrequency
	MaxFrequency = sweep.MaxFrequency
)

// Control surface domains. Out-of-domain inputs are clamped, never
// rejected: the control surface stays always-valid.
const (
	// Quality factor domain. The lower bound keeps the derived Hz
	// half-width finite.
	minQuality = 0.01
	maxQuality = 100.0

	// Hz half-width domain.
	minHzRange = 0.01
	maxHzRange = 500.0

	// Octave half-width domain.
	minOctaveRange = 0.0
	maxOctaveRange = 1.0
)

// Defaults, matching a typical tinnitus search starting point.
const (
	DefaultFrequency = 1000.0
	DefaultQ         = 30.0
)

// fallbackQ is the quality factor view reported when the half-width is
// zero and the ratio f/h is undefined.
const fallbackQ = 1.0
