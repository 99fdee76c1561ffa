package stream

import (
	"fmt"

	"github.com/cwbudde/neurotone/dsp/buffer"
	"github.com/cwbudde/neurotone/sensor"
)

// Window is an immutable multi-channel slice of consecutive samples.
type Window struct {
	data [][]float64
}

// NewWindow copies m into a Window.
func NewWindow(m sensor.Matrix) Window {
	data := make([][]float64, len(m))
	for i, row := range m {
		data[i] = append([]float64(nil), row...)
	}
	return Window{data: data}
}

// Channels returns the number of channels.
func (w Window) Channels() int { return len(w.data) }

// Samples returns the number of samples per channel.
func (w Window) Samples() int {
	if len(w.data) == 0 {
		return 0
	}
	return len(w.data[0])
}

// At returns the sample at (channel, index).
func (w Window) At(channel, index int) float64 { return w.data[channel][index] }

// Channel returns a copy of one channel's samples.
func (w Window) Channel(i int) []float64 {
	return append([]float64(nil), w.data[i]...)
}

// Matrix returns a deep copy of the window contents.
func (w Window) Matrix() sensor.Matrix {
	m := make(sensor.Matrix, len(w.data))
	for i, row := range w.data {
		m[i] = append([]float64(nil), row...)
	}
	return m
}

// ChannelBuffer accumulates multi-channel samples along the time axis.
// The channel count is fixed at construction. It is not safe for
// concurrent use.
type ChannelBuffer struct {
	channels []*buffer.Buffer
}

// NewChannelBuffer returns an empty buffer for the given channel count.
func NewChannelBuffer(channels int) *ChannelBuffer {
	b := &ChannelBuffer{channels: make([]*buffer.Buffer, max(channels, 0))}
	for i := range b.channels {
		b.channels[i] = buffer.New(0)
	}
	return b
}

// Channels returns the fixed channel count.
func (b *ChannelBuffer) Channels() int { return len(b.channels) }

// Len returns the number of accumulated samples per channel.
func (b *ChannelBuffer) Len() int {
	if len(b.channels) == 0 {
		return 0
	}
	return b.channels[0].Len()
}

// Append concatenates m along the sample axis. The chunk must have exactly
// Channels() rows of equal length, otherwise nothing is appended and
// ErrChannelMismatch is returned.
func (b *ChannelBuffer) Append(m sensor.Matrix) error {
	if len(m) != len(b.channels) {
		return fmt.Errorf("%w: got %d channels, want %d", ErrChannelMismatch, len(m), len(b.channels))
	}

	n := m.Samples()
	for i, row := range m {
		if len(row) != n {
			return fmt.Errorf("%w: row %d has %d samples, want %d", ErrChannelMismatch, i, len(row), n)
		}
	}

	for i, row := range m {
		b.channels[i].Append(row...)
	}
	return nil
}

// Extract copies the first size samples into a Window and then evicts the
// oldest stride samples. It returns false, leaving the buffer untouched,
// while fewer than size samples are buffered.
func (b *ChannelBuffer) Extract(size, stride int) (Window, bool) {
	if size <= 0 || b.Len() < size {
		return Window{}, false
	}

	data := make([][]float64, len(b.channels))
	for i, ch := range b.channels {
		data[i] = ch.Head(size)
		ch.DropFront(stride)
	}
	return Window{data: data}, true
}

// Reset discards all buffered samples.
func (b *ChannelBuffer) Reset() {
	for _, ch := range b.channels {
		ch.Resize(0)
	}
}
