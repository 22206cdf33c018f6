// Package device abstracts the audio output backend behind a small pull
// interface, so the engine and its tests do not depend on audio hardware.
//
// Two backends are provided: Oto, which plays through the default platform
// device via github.com/ebitengine/oto/v3, and Headless, which drives the
// same pull path from a plain goroutine for tests and CI machines without
// a sound card.
package device

// Stream format shared by all backends. The tuner emits mono float32
// samples at CD rate; backends must not resample or rechannel.
const (
	DefaultSampleRate = 44100
	ChannelCount      = 1
	BytesPerSample    = 4 // 32-bit float
)

// Source supplies sample blocks to an output backend. ReadBlock is invoked
// from the backend's audio goroutine and must complete in bounded time:
// no blocking waits, no locks shared with the control path, no heap
// allocation in steady state.
type Source interface {
	// ReadBlock fills dst with the next len(dst) mono samples.
	ReadBlock(dst []float32)
}

// Output is a lifecycle handle for one playback session. Implementations
// are driven from a control goroutine; Start and Stop are not required to
// be goroutine-safe against each other.
type Output interface {
	// Start begins pulling samples from src. It returns an error if the
	// underlying device cannot be opened; in that case no resources are
	// retained and no ReadBlock call will ever be made.
	Start(src Source) error

	// Stop halts playback synchronously: when it returns, no further
	// ReadBlock invocations will occur and the device resource is
	// released. Stop on a stopped output is a no-op.
	Stop() error

	// SampleRate returns the output sample rate in Hz.
	SampleRate() int
}
