// Package sample holds the lock-free sample-buffer handoff between the
// control thread (producer) and the audio thread (consumer).
//
// A Buffer is producer-immutable after it is handed to an Engine: the
// producer must not mutate the backing slice once Publish has been
// called. This differs from the teacher's dsp/buffer.Buffer, which
// supports in-place Grow/Resize — those operations have no analogue here
// since the engine never grows or resizes a live buffer (spec.md §3).
package sample

import "fmt"

// Buffer is an immutable, finite sample buffer with an associated channel
// count. Data is interleaved when Channels > 1.
type Buffer struct {
	Data     []float32
	Channels int
	Length   int // frames per channel
}

// New validates and constructs a Buffer. data must contain exactly
// length*channels samples.
func New(data []float32, channels, length int) (*Buffer, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("sample: channels must be > 0: %d", channels)
	}
	if length < 0 {
		return nil, fmt.Errorf("sample: length must be >= 0: %d", length)
	}
	if len(data) != channels*length {
		return nil, fmt.Errorf("sample: data length %d does not match channels*length %d",
			len(data), channels*length)
	}

	return &Buffer{Data: data, Channels: channels, Length: length}, nil
}

// At returns the sample at frame for the given channel. Out-of-range
// frame or channel returns 0 rather than panicking, matching the grain
// DSP's "treat out-of-bounds as silence" rule (spec.md §4.7).
func (b *Buffer) At(channel, frame int) float32 {
	if b == nil || frame < 0 || frame >= b.Length || channel < 0 || channel >= b.Channels {
		return 0
	}

	return b.Data[frame*b.Channels+channel]
}
