package board

import (
	"fmt"
	"math"
	"time"

	"github.com/cwbudde/neurotone/dsp/buffer"
	"github.com/cwbudde/neurotone/sensor"
	"github.com/cwbudde/neurotone/stream"
)

// SnapshotCapacity returns the number of samples per channel needed to
// hold window at sampleRate: ceil(rate * seconds) + 1.
func SnapshotCapacity(sampleRate float64, window time.Duration) int {
	return int(math.Ceil(sampleRate*window.Seconds())) + 1
}

// RollingSnapshot keeps the most recent Capacity samples of every channel.
// It starts zero-filled, so Len always equals Capacity. It is not safe for
// concurrent use; Reader guards it with a mutex.
type RollingSnapshot struct {
	rows     []*buffer.Buffer
	capacity int
}

// NewRollingSnapshot returns a zero-filled snapshot.
func NewRollingSnapshot(channels, capacity int) *RollingSnapshot {
	capacity = max(capacity, 1)
	s := &RollingSnapshot{
		rows:     make([]*buffer.Buffer, max(channels, 0)),
		capacity: capacity,
	}
	for i := range s.rows {
		s.rows[i] = buffer.New(capacity)
	}
	return s
}

// Channels returns the channel count.
func (s *RollingSnapshot) Channels() int { return len(s.rows) }

// Capacity returns the fixed per-channel length.
func (s *RollingSnapshot) Capacity() int { return s.capacity }

// Len returns the current per-channel length, which never exceeds Capacity.
func (s *RollingSnapshot) Len() int {
	if len(s.rows) == 0 {
		return 0
	}
	return s.rows[0].Len()
}

// Append adds m to the tail of every channel and evicts the oldest samples
// so the length stays at Capacity.
func (s *RollingSnapshot) Append(m sensor.Matrix) error {
	if m.Channels() != len(s.rows) {
		return fmt.Errorf("%w: got %d channels, want %d", stream.ErrChannelMismatch, m.Channels(), len(s.rows))
	}

	n := m.Samples()
	for i, row := range m {
		if len(row) != n {
			return fmt.Errorf("%w: row %d has %d samples, want %d", stream.ErrChannelMismatch, i, len(row), n)
		}
	}

	skip := max(n-s.capacity, 0)
	for i, row := range m {
		s.rows[i].Append(row[skip:]...)
		s.rows[i].KeepLast(s.capacity)
	}
	return nil
}

// Copy returns a deep copy of the snapshot contents.
func (s *RollingSnapshot) Copy() sensor.Matrix {
	out := make(sensor.Matrix, len(s.rows))
	for i, r := range s.rows {
		out[i] = append([]float64(nil), r.Samples()...)
	}
	return out
}

// Reset zero-fills every channel.
func (s *RollingSnapshot) Reset() {
	for _, r := range s.rows {
		r.Resize(s.capacity)
		r.Zero()
	}
}
