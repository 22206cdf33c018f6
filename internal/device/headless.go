package device

import (
	"sync"
	"time"
)

const (
	// headlessBlockSize is the default pull size in samples (~11.6 ms at
	// 44.1 kHz, comparable to a real device period).
	headlessBlockSize = 512
)

// Headless drives a Source from a plain goroutine instead of a sound card.
// It exists for tests, CI, and the offline analysis tools: the pull path is
// identical to the real backend, only the pacing and the destination differ.
type Headless struct {
	sampleRate int
	blockSize  int
	realtime   bool

	// Sink, when non-nil, receives every rendered block. The slice is
	// reused between calls; the sink must copy what it keeps.
	Sink func(block []float32)

	mu   sync.Mutex
	quit chan struct{}
	done sync.WaitGroup
}

// NewHeadless returns a headless output. Pass 0 to use the defaults for
// either argument. When realtime is true the pull loop paces itself to the
// sample rate; otherwise it free-runs, which tests use to collect seconds
// of audio in milliseconds.
func NewHeadless(sampleRate, blockSize int, realtime bool) *Headless {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if blockSize <= 0 {
		blockSize = headlessBlockSize
	}
	return &Headless{
		sampleRate: sampleRate,
		blockSize:  blockSize,
		realtime:   realtime,
	}
}

// Start launches the pull loop. It never fails: there is no device to open.
func (h *Headless) Start(src Source) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.quit != nil {
		return nil
	}

	quit := make(chan struct{})
	h.quit = quit
	h.done.Add(1)

	blockDur := time.Duration(float64(h.blockSize) / float64(h.sampleRate) * float64(time.Second))

	go func() {
		defer h.done.Done()
		block := make([]float32, h.blockSize)
		for {
			select {
			case <-quit:
				return
			default:
			}

			src.ReadBlock(block)
			if h.Sink != nil {
				h.Sink(block)
			}
			if h.realtime {
				time.Sleep(blockDur)
			}
		}
	}()
	return nil
}

// Stop signals the pull loop and waits for it to exit, matching the
// synchronous-stop contract of the real backend.
func (h *Headless) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.quit == nil {
		return nil
	}
	close(h.quit)
	h.done.Wait()
	h.quit = nil
	return nil
}

// SampleRate returns the output sample rate in Hz.
func (h *Headless) SampleRate() int {
	return h.sampleRate
}
