package tuner

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/go-tinnitus-tuner/internal/testutil"
)

// assertConsistent checks the bandwidth identities that must hold in every
// published snapshot: HzRange = f/Q and OctaveRange = log2(1 + HzRange/f).
func assertConsistent(t *testing.T, s Snapshot) {
	t.Helper()
	if s.HzRange > 0 {
		assert.InDelta(t, s.Frequency/s.Q, s.HzRange, testutil.BandwidthTolerance,
			"HzRange != f/Q in snapshot %+v", s)
	} else {
		assert.Equal(t, 1.0, s.Q, "Q fallback at zero width")
	}
	assert.InDelta(t, math.Log2(1+s.HzRange/s.Frequency), s.OctaveRange,
		testutil.BandwidthTolerance, "octave view inconsistent in snapshot %+v", s)
}

// TestSetQ_DerivesViews covers the documented scenario: f=1000, Q=30 gives
// a half-width of about 33.33 Hz and 0.0472 octaves.
func TestSetQ_DerivesViews(t *testing.T) {
	p := NewParams()
	p.SetFrequency(1000)
	p.SetQ(30)

	s := p.Snapshot()
	assert.InDelta(t, 33.3333, s.HzRange, 1e-3)
	assert.InDelta(t, 0.0472, s.OctaveRange, 1e-4)
	assertConsistent(t, s)
}

// TestSetQ_Identities verifies HzRange = f/Q across the domain.
func TestSetQ_Identities(t *testing.T) {
	tests := []struct {
		name string
		freq float64
		q    float64
	}{
		{"low_freq_low_q", 100, 1},
		{"mid_freq_mid_q", 1000, 30},
		{"high_freq_high_q", 12000, 100},
		{"bottom_of_band", 20, 5},
		{"top_of_band", 20000, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParams()
			p.SetFrequency(tt.freq)
			p.SetQ(tt.q)

			s := p.Snapshot()
			assert.InDelta(t, tt.freq/tt.q, s.HzRange, testutil.BandwidthTolerance)
			assert.InDelta(t, math.Log2(1+s.HzRange/tt.freq), s.OctaveRange,
				testutil.BandwidthTolerance)
			assertConsistent(t, s)
		})
	}
}

// TestSetHzRange_DerivesQ verifies Q = f/h and the Q round trip: setting Q,
// reading the Hz view back and setting it again reproduces the original Q.
func TestSetHzRange_DerivesQ(t *testing.T) {
	p := NewParams()
	p.SetFrequency(2000)

	p.SetHzRange(40)
	assert.InDelta(t, 50.0, p.Snapshot().Q, testutil.BandwidthTolerance)

	p.SetQ(25)
	h := p.Snapshot().HzRange
	p.SetHzRange(h)
	assert.InDelta(t, 25.0, p.Snapshot().Q, testutil.BandwidthTolerance)
	assertConsistent(t, p.Snapshot())
}

// TestOctaveRoundTrip verifies hz -> octaves -> hz is the identity across
// the Hz domain.
func TestOctaveRoundTrip(t *testing.T) {
	p := NewParams()
	p.SetFrequency(1000)

	for _, h := range []float64{0.5, 1, 10, 33.3, 100, 250, 500} {
		p.SetHzRange(h)
		o := p.Snapshot().OctaveRange
		p.SetOctaveRange(o)
		assert.InDeltaf(t, h, p.Snapshot().HzRange, testutil.BandwidthTolerance,
			"round trip through octaves for h=%v", h)
	}
}

// TestSetOctaveRange_ZeroCollapsesBand verifies the Q fallback when the
// octave view is zero: the band collapses and Q reads 1.0.
func TestSetOctaveRange_ZeroCollapsesBand(t *testing.T) {
	p := NewParams()
	p.SetOctaveRange(0)

	s := p.Snapshot()
	assert.Zero(t, s.HzRange)
	assert.Equal(t, 1.0, s.Q)
	assert.Zero(t, s.OctaveRange)
}

// TestSetFrequency_FreezesHzRange pins the frequency-only update policy:
// the Hz half-width stays fixed and the effective Q drifts with f.
func TestSetFrequency_FreezesHzRange(t *testing.T) {
	p := NewParams()
	p.SetFrequency(1000)
	p.SetQ(30) // h = 33.33

	p.SetFrequency(4000)

	s := p.Snapshot()
	assert.InDelta(t, 33.3333, s.HzRange, 1e-3, "half-width must not move with f")
	assert.InDelta(t, 4000/33.3333, s.Q, 1e-2, "Q view drifts to f/h")
	assertConsistent(t, s)
}

// TestClamping verifies the always-valid control surface: out-of-domain
// inputs are clamped, never rejected.
func TestClamping(t *testing.T) {
	p := NewParams()

	p.SetFrequency(5)
	assert.Equal(t, 20.0, p.Snapshot().Frequency)

	p.SetFrequency(90000)
	assert.Equal(t, 20000.0, p.Snapshot().Frequency)

	p.SetQ(-3)
	assertConsistent(t, p.Snapshot())
	assert.Positive(t, p.Snapshot().HzRange)

	p.SetQ(1e6)
	assert.InDelta(t, 20000.0/100.0, p.Snapshot().HzRange, testutil.BandwidthTolerance)

	p.SetHzRange(1e9)
	assert.Equal(t, 500.0, p.Snapshot().HzRange)

	p.SetOctaveRange(4)
	assert.InDelta(t, 1.0, p.Snapshot().OctaveRange, testutil.BandwidthTolerance)

	p.SetOctaveRange(-1)
	assert.Zero(t, p.Snapshot().OctaveRange)
}

// TestSnapshot_NeverTorn hammers the setters from several goroutines while
// a reader checks that every observed snapshot is internally consistent.
// A torn mix of two updates would break the f/Q/h identities.
func TestSnapshot_NeverTorn(t *testing.T) {
	p := NewParams()

	const (
		writers    = 4
		iterations = 2000
	)

	var writersWG, readerWG sync.WaitGroup
	stop := make(chan struct{})

	for w := range writers {
		writersWG.Add(1)
		go func(seed int) {
			defer writersWG.Done()
			for i := range iterations {
				switch (seed + i) % 4 {
				case 0:
					p.SetFrequency(20 + float64((seed*i)%19980))
				case 1:
					p.SetQ(1 + float64(i%99))
				case 2:
					p.SetHzRange(1 + float64(i%499))
				case 3:
					p.SetOctaveRange(float64(i%100) / 100)
				}
			}
		}(w)
	}

	readerWG.Add(1)
	go func() {
		defer readerWG.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			s := p.Snapshot()
			if s.HzRange > 0 {
				if !assert.InDelta(t, s.Frequency/s.Q, s.HzRange, testutil.BandwidthTolerance) {
					return
				}
			}
			if !assert.InDelta(t, math.Log2(1+s.HzRange/s.Frequency), s.OctaveRange,
				testutil.BandwidthTolerance) {
				return
			}
		}
	}()

	writersWG.Wait()
	close(stop)
	readerWG.Wait()
}
