// Package sensor defines the contract for multi-channel physiological
// sample sources (EEG boards, recordings, simulators) and the transient
// versus fatal error classification used by every consumer.
//
// A Source is driven through a fixed lifecycle:
//
//	Prepare -> BeginStream -> Pull... -> EndStream -> Release
//
// Pull never blocks; it returns whatever samples accumulated since the
// previous call, which may be none.
package sensor

import "strconv"

// Matrix holds samples in channel-major order: m[channel][sample].
// All rows have the same length.
type Matrix [][]float64

// NewMatrix returns a zero-filled matrix of the given shape.
func NewMatrix(channels, samples int) Matrix {
	m := make(Matrix, channels)
	for i := range m {
		m[i] = make([]float64, samples)
	}
	return m
}

// Channels returns the number of rows.
func (m Matrix) Channels() int { return len(m) }

// Samples returns the number of columns, or 0 for an empty matrix.
func (m Matrix) Samples() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Rows returns a matrix holding only the listed rows, in order. Rows are
// shared, not copied.
func (m Matrix) Rows(idx []int) Matrix {
	out := make(Matrix, len(idx))
	for i, r := range idx {
		out[i] = m[r]
	}
	return out
}

// Source is a hardware or simulated sample producer.
type Source interface {
	// Prepare acquires the device. Errors are fatal.
	Prepare() error
	// BeginStream starts acquisition. Errors are fatal.
	BeginStream() error
	// Pull returns up to maxSamples pending samples per channel; maxSamples
	// <= 0 drains everything available. An empty matrix means no data yet.
	// Errors are transient unless wrapped with Fatal.
	Pull(maxSamples int) (Matrix, error)
	// EndStream stops acquisition.
	EndStream() error
	// Release frees the device.
	Release() error

	SampleRate() float64
	ChannelCount() int
}

// ChannelNamer is implemented by sources that label their channels
// (for example with 10-20 electrode names).
type ChannelNamer interface {
	ChannelNames() []string
}

// EEGChannelSelector is implemented by sources whose rows include non-EEG
// data (timestamps, accelerometer) and that can report which rows are EEG.
type EEGChannelSelector interface {
	EEGChannels() []int
}

// ChannelNames returns the source's channel labels, or "0".."n-1" when the
// source does not name its channels.
func ChannelNames(src Source) []string {
	if n, ok := src.(ChannelNamer); ok {
		if names := n.ChannelNames(); len(names) == src.ChannelCount() {
			return append([]string(nil), names...)
		}
	}

	names := make([]string, src.ChannelCount())
	for i := range names {
		names[i] = strconv.Itoa(i)
	}
	return names
}

// EEGChannels returns the EEG row indices of src, or all rows when the
// source does not distinguish them.
func EEGChannels(src Source) []int {
	if s, ok := src.(EEGChannelSelector); ok {
		if idx := s.EEGChannels(); len(idx) > 0 {
			return append([]int(nil), idx...)
		}
	}

	idx := make([]int, src.ChannelCount())
	for i := range idx {
		idx[i] = i
	}
	return idx
}
