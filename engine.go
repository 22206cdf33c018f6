package tuner

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/tphakala/go-tinnitus-tuner/internal/device"
	"github.com/tphakala/go-tinnitus-tuner/internal/sweep"
)

// Common errors returned by the engine.
var (
	// ErrInvalidConfig indicates invalid configuration parameters.
	ErrInvalidConfig = errors.New("invalid tuner configuration")

	// ErrDevice indicates the output device could not be opened or closed.
	ErrDevice = errors.New("audio device failure")
)

// PlaybackState enumerates the engine lifecycle states.
type PlaybackState int

const (
	// Stopped means no device session is open and no audio is produced.
	Stopped PlaybackState = iota

	// Playing means a device session is open and the sweep is audible.
	Playing
)

// String returns the state name.
func (s PlaybackState) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	default:
		return fmt.Sprintf("PlaybackState(%d)", int(s))
	}
}

// Config holds engine configuration.
type Config struct {
	// SampleRate is the output rate in Hz. Zero selects the default
	// 44100 Hz. Must match Output's rate when both are set.
	SampleRate int

	// Output is the audio backend. Nil selects the platform device via
	// oto. Tests pass a headless backend here.
	Output device.Output

	// Logger receives one line per muted block when a degenerate
	// parameter combination produces non-finite samples. Nil selects
	// log.Default().
	Logger *log.Logger
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.SampleRate < 0 {
		return fmt.Errorf("%w: sample rate must be non-negative", ErrInvalidConfig)
	}
	if c.Output != nil && c.SampleRate != 0 && c.Output.SampleRate() != c.SampleRate {
		return fmt.Errorf("%w: sample rate %d does not match output device rate %d",
			ErrInvalidConfig, c.SampleRate, c.Output.SampleRate())
	}
	return nil
}

// Engine owns the playback lifecycle: it connects the parameter model to
// an output device and renders the sweep in the device's pull callback.
//
// Two goroutines touch an Engine. The control goroutine calls the setters,
// Start and Stop; the device's audio goroutine calls only ReadBlock on the
// internal source, which reads the latest parameter snapshot through an
// atomic load. No lock is ever shared between the two paths.
type Engine struct {
	params *Params
	out    device.Output
	src    *renderSource

	mu            sync.Mutex // guards state transitions, control side only
	state         PlaybackState
	lastDeviceErr error
}

// New creates an engine. A nil config selects all defaults: platform
// audio device, 44100 Hz, standard logger.
func New(config *Config) (*Engine, error) {
	if config == nil {
		config = &Config{}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	out := config.Output
	if out == nil {
		out = device.NewOto(config.SampleRate)
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}

	params := NewParams()
	return &Engine{
		params: params,
		out:    out,
		src: &renderSource{
			params:     params,
			sampleRate: out.SampleRate(),
			logger:     logger,
			buf:        make([]float64, renderScratchLen),
		},
	}, nil
}

// Params returns the engine's parameter model.
func (e *Engine) Params() *Params {
	return e.params
}

// SetFrequency forwards to the parameter model. See Params.SetFrequency.
func (e *Engine) SetFrequency(f float64) { e.params.SetFrequency(f) }

// SetQ forwards to the parameter model. See Params.SetQ.
func (e *Engine) SetQ(q float64) { e.params.SetQ(q) }

// SetHzRange forwards to the parameter model. See Params.SetHzRange.
func (e *Engine) SetHzRange(h float64) { e.params.SetHzRange(h) }

// SetOctaveRange forwards to the parameter model. See Params.SetOctaveRange.
func (e *Engine) SetOctaveRange(o float64) { e.params.SetOctaveRange(o) }

// Snapshot returns the current parameter view.
func (e *Engine) Snapshot() Snapshot {
	return e.params.Snapshot()
}

// Start opens the output device and begins the sweep from the bottom of
// the band: the sweep clock restarts at zero on every Stopped-to-Playing
// transition. Start while Playing is a no-op. On device failure the
// engine stays Stopped with nothing allocated, and the wrapped ErrDevice
// is both returned and retained for LastDeviceErr.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Playing {
		return nil
	}

	e.src.reset()
	e.src.playing.Store(true)

	if err := e.out.Start(e.src); err != nil {
		e.src.playing.Store(false)
		e.lastDeviceErr = fmt.Errorf("%w: %v", ErrDevice, err)
		return e.lastDeviceErr
	}

	e.state = Playing
	return nil
}

// Stop halts playback synchronously. When it returns, no further render
// callbacks will occur and the device resource is released; Stopped is a
// hard guarantee, not a request. Stop while Stopped is a no-op.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Stopped {
		return nil
	}

	// Mute first so any read racing the device teardown emits silence.
	e.src.playing.Store(false)

	err := e.out.Stop()
	e.state = Stopped
	if err != nil {
		e.lastDeviceErr = fmt.Errorf("%w: %v", ErrDevice, err)
		return e.lastDeviceErr
	}
	return nil
}

// State returns the current playback state.
func (e *Engine) State() PlaybackState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// LastDeviceErr returns the most recent device failure, or nil.
func (e *Engine) LastDeviceErr() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastDeviceErr
}

// renderScratchLen is the initial render scratch capacity in samples. The
// scratch grows at most once, on the first read larger than this.
const renderScratchLen = 4096

// renderSource adapts the sweep synthesizer to the device pull interface.
// ReadBlock runs on the audio goroutine; everything it touches is either
// goroutine-local (frame counter, scratch buffer) or lock-free (playing
// flag, parameter snapshot).
type renderSource struct {
	params     *Params
	sampleRate int
	logger     *log.Logger

	playing atomic.Bool

	// frame is the sweep clock in samples. Written by the audio
	// goroutine during playback and by reset while the device is stopped;
	// the device's synchronous stop guarantees the two never overlap.
	frame int64

	buf []float64
}

// reset rewinds the sweep clock. Called from the control goroutine only
// while no device session is active.
func (r *renderSource) reset() {
	r.frame = 0
}

// ReadBlock renders the next block of the sweep. The snapshot is loaded
// once per block, so parameter edits take effect on block boundaries and
// never mid-sample. A block that comes out non-finite is replaced with
// silence and logged; the fault never crosses the callback boundary.
func (r *renderSource) ReadBlock(dst []float32) {
	if !r.playing.Load() {
		for i := range dst {
			dst[i] = 0
		}
		return
	}

	if len(r.buf) < len(dst) {
		r.buf = make([]float64, len(dst))
	}
	block := r.buf[:len(dst)]

	snap := r.params.Snapshot()
	if err := sweep.Render(block, r.frame, r.sampleRate, snap); err != nil {
		r.logger.Printf("tuner: muted one block: %v (f=%g Hz, range=%g Hz)",
			err, snap.Frequency, snap.HzRange)
	}

	for i, v := range block {
		dst[i] = float32(v)
	}
	r.frame += int64(len(dst))
}
