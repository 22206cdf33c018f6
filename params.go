package tuner

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/tphakala/go-tinnitus-tuner/internal/sweep"
)

// Snapshot is the immutable parameter view handed to the audio goroutine
// and to displays. All four fields are mutually consistent at publication.
type Snapshot = sweep.Snapshot

// Params holds the sweep center frequency and bandwidth. The bandwidth is
// one logical quantity with three equivalent views: quality factor Q,
// half-width in Hz, and half-width in octaves.
//
// Internally only the two independent fields are stored, the center
// frequency and the Hz half-width; Q and the octave view are computed at
// publication time, so the three views cannot fall out of sync and no
// setter ever feeds back into another.
//
// Setters clamp out-of-domain values instead of returning errors, and each
// publishes a fresh Snapshot through an atomic pointer swap. Readers never
// block and never observe a torn mix of two updates.
type Params struct {
	mu      sync.Mutex // serializes setters; never touched by readers
	freq    float64
	hzRange float64

	snap atomic.Pointer[Snapshot]
}

// NewParams returns a parameter model at the default center frequency and
// quality factor.
func NewParams() *Params {
	p := &Params{
		freq:    DefaultFrequency,
		hzRange: DefaultFrequency / DefaultQ,
	}
	p.publish()
	return p
}

// SetFrequency sets the sweep center frequency in Hz, clamped to
// [MinFrequency, MaxFrequency].
//
// The Hz half-width is left untouched, so the effective Q drifts as the
// frequency moves.
func (p *Params) SetFrequency(f float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.freq = clamp(f, MinFrequency, MaxFrequency)
	p.publish()
}

// SetQ sets the bandwidth via the quality factor, clamped to (0, 100].
// The Hz half-width becomes f/Q; the octave view follows from it.
func (p *Params) SetQ(q float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	q = clamp(q, minQuality, maxQuality)
	p.hzRange = p.freq / q
	p.publish()
}

// SetHzRange sets the bandwidth via the half-width in Hz, clamped to
// (0, 500]. The Q and octave views follow from it.
func (p *Params) SetHzRange(h float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.hzRange = clamp(h, minHzRange, maxHzRange)
	p.publish()
}

// SetOctaveRange sets the bandwidth via the half-width in octaves, clamped
// to [0, 1]. The Hz half-width becomes f·(2^o − 1); at o = 0 the band
// collapses and the Q view falls back to 1.0.
func (p *Params) SetOctaveRange(o float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	o = clamp(o, minOctaveRange, maxOctaveRange)
	p.hzRange = p.freq * (math.Exp2(o) - 1)
	p.publish()
}

// Snapshot returns the most recently published parameter view. It is safe
// to call from any goroutine and never blocks.
func (p *Params) Snapshot() Snapshot {
	return *p.snap.Load()
}

// publish derives the dependent views and swaps in a new snapshot.
// Callers other than NewParams hold p.mu.
func (p *Params) publish() {
	q := fallbackQ
	if p.hzRange > 0 {
		q = p.freq / p.hzRange
	}
	s := &Snapshot{
		Frequency:   p.freq,
		Q:           q,
		HzRange:     p.hzRange,
		OctaveRange: math.Log2(1 + p.hzRange/p.freq),
	}
	p.snap.Store(s)
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
