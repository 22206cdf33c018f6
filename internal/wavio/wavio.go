// Package wavio reads and writes WAV files as planar float64 channels,
// which is the format the notch pipeline filters in. Only integer PCM at
// 16, 24 or 32 bits is supported; LIST/INFO metadata is carried through
// untouched so tagging survives a filter pass.
package wavio

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/tphakala/simd/f64"
)

// Supported PCM sample formats.
const (
	bitDepth16 = 16
	bitDepth24 = 24
	bitDepth32 = 32

	maxInt16 = 32767.0
	maxInt24 = 8388607.0
	maxInt32 = 2147483647.0

	// wavFormatPCM is the WAV audio format tag for integer PCM.
	wavFormatPCM = 1
)

// Common errors returned by the package.
var (
	// ErrInvalidFile indicates the input is not a decodable WAV file.
	ErrInvalidFile = errors.New("invalid WAV file")

	// ErrUnsupportedFormat indicates a bit depth outside 16/24/32.
	ErrUnsupportedFormat = errors.New("unsupported WAV format")
)

// File is decoded WAV audio: one float64 slice per channel, samples
// normalized to [-1, 1].
type File struct {
	SampleRate int
	BitDepth   int
	Channels   [][]float64
	Metadata   *wav.Metadata
}

// Frames returns the per-channel sample count.
func (f *File) Frames() int {
	if len(f.Channels) == 0 {
		return 0
	}
	return len(f.Channels[0])
}

// Read decodes a WAV file into planar float64 channels.
func Read(path string) (*File, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer func() { _ = in.Close() }()

	dec := wav.NewDecoder(in)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFile, path)
	}

	bitDepth := int(dec.BitDepth)
	scale, err := fullScale(bitDepth)
	if err != nil {
		return nil, err
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, fmt.Errorf("%w: no channels", ErrInvalidFile)
	}
	frames := len(buf.Data) / channels

	f := &File{
		SampleRate: buf.Format.SampleRate,
		BitDepth:   bitDepth,
		Channels:   make([][]float64, channels),
		Metadata:   readMetadata(path),
	}

	// Deinterleave to planar, then normalize each channel to [-1, 1].
	for ch := range channels {
		plane := make([]float64, frames)
		for i := range frames {
			plane[i] = float64(buf.Data[i*channels+ch])
		}
		f64.Scale(plane, plane, 1/scale)
		f.Channels[ch] = plane
	}
	return f, nil
}

// readMetadata scans the file for a LIST/INFO chunk with a fresh decoder,
// independent of PCM decoding so chunk order does not matter.
func readMetadata(path string) *wav.Metadata {
	in, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer func() { _ = in.Close() }()

	dec := wav.NewDecoder(in)
	dec.ReadMetadata()
	if dec.Err() != nil {
		return nil
	}
	return dec.Metadata
}

// Write encodes planar float64 channels to a WAV file. Samples are clipped
// to full scale; metadata, when present, is written back out.
func Write(path string, f *File) error {
	if len(f.Channels) == 0 {
		return fmt.Errorf("%w: no channels to write", ErrUnsupportedFormat)
	}
	scale, err := fullScale(f.BitDepth)
	if err != nil {
		return err
	}

	frames := f.Frames()
	for ch, plane := range f.Channels {
		if len(plane) != frames {
			return fmt.Errorf("%w: channel %d has %d frames, want %d",
				ErrUnsupportedFormat, ch, len(plane), frames)
		}
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = out.Close() }()

	channels := len(f.Channels)
	data := make([]int, frames*channels)
	for ch, plane := range f.Channels {
		for i, v := range plane {
			data[i*channels+ch] = quantize(v, scale)
		}
	}

	enc := wav.NewEncoder(out, f.SampleRate, f.BitDepth, channels, wavFormatPCM)
	enc.Metadata = f.Metadata
	if err := enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: f.SampleRate},
		Data:           data,
		SourceBitDepth: f.BitDepth,
	}); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize WAV file: %w", err)
	}
	return nil
}

// fullScale returns the positive full-scale value for a PCM bit depth.
func fullScale(bitDepth int) (float64, error) {
	switch bitDepth {
	case bitDepth16:
		return maxInt16, nil
	case bitDepth24:
		return maxInt24, nil
	case bitDepth32:
		return maxInt32, nil
	default:
		return 0, fmt.Errorf("%w: %d-bit PCM", ErrUnsupportedFormat, bitDepth)
	}
}

// quantize converts a normalized sample to an integer code with clipping.
func quantize(v, scale float64) int {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int(math.Round(v * scale))
}
