package device

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

const (
	// otoBufferLen is the requested device buffer duration. Short enough
	// that parameter changes feel immediate, long enough to survive
	// scheduler hiccups on a non-realtime kernel.
	otoBufferLen = 50 * time.Millisecond

	// readScratchLen is the initial per-player scratch capacity in
	// samples. Oto read sizes depend on the platform mixer; the scratch
	// grows once on the first oversized read and is stable after that.
	readScratchLen = 4096
)

// The oto context is process-global: oto.NewContext may only be called
// once, so every Oto output shares it.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

func sharedContext(sampleRate int) (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: ChannelCount,
			Format:       oto.FormatFloat32LE,
			BufferSize:   otoBufferLen,
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			otoErr = err
			return
		}
		<-ready
		otoCtx = ctx
	})
	return otoCtx, otoErr
}

// Oto plays audio through the default platform device using oto/v3.
// The zero value is not usable; call NewOto.
type Oto struct {
	sampleRate int

	mu     sync.Mutex
	player *oto.Player
}

// NewOto returns an oto-backed output at the given sample rate. Pass 0 for
// DefaultSampleRate. The device itself is not opened until Start.
func NewOto(sampleRate int) *Oto {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Oto{sampleRate: sampleRate}
}

// Start opens the shared device context and begins playback. Oto pulls
// sample bytes from an io.Reader on its own goroutine; pcmReader adapts
// that to the Source block interface.
func (o *Oto) Start(src Source) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil {
		return nil
	}

	ctx, err := sharedContext(o.sampleRate)
	if err != nil {
		return fmt.Errorf("opening audio device: %w", err)
	}

	o.player = ctx.NewPlayer(&pcmReader{
		src:     src,
		scratch: make([]float32, readScratchLen),
	})
	o.player.Play()
	return nil
}

// Stop closes the player. oto's Player.Close blocks until its read loop has
// finished, which gives the caller the no-further-callbacks guarantee.
func (o *Oto) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player == nil {
		return nil
	}
	err := o.player.Close()
	o.player = nil
	if err != nil {
		return fmt.Errorf("closing audio device: %w", err)
	}
	return nil
}

// SampleRate returns the output sample rate in Hz.
func (o *Oto) SampleRate() int {
	return o.sampleRate
}

// pcmReader converts Source blocks to the little-endian float32 byte
// stream oto consumes. It is only ever called from oto's audio goroutine,
// so the scratch buffer needs no synchronization.
type pcmReader struct {
	src     Source
	scratch []float32
}

func (r *pcmReader) Read(p []byte) (int, error) {
	n := len(p) / BytesPerSample
	if n == 0 {
		return 0, nil
	}

	if len(r.scratch) < n {
		r.scratch = make([]float32, n)
	}
	samples := r.scratch[:n]
	r.src.ReadBlock(samples)

	for i, s := range samples {
		bits := math.Float32bits(s)
		p[i*BytesPerSample+0] = byte(bits)
		p[i*BytesPerSample+1] = byte(bits >> 8)
		p[i*BytesPerSample+2] = byte(bits >> 16)
		p[i*BytesPerSample+3] = byte(bits >> 24)
	}
	return n * BytesPerSample, nil
}
