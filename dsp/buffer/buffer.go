package buffer

// Buffer wraps a float64 slice with append/evict semantics.
// DSP functions accept raw []float64; use Samples() to bridge.
type Buffer struct {
	samples []float64
}

// New returns a zero-filled Buffer of the given length.
func New(length int) *Buffer {
	if length < 0 {
		length = 0
	}
	return &Buffer{samples: make([]float64, length)}
}

// FromSlice wraps s without copying.
func FromSlice(s []float64) *Buffer {
	return &Buffer{samples: s}
}

// Samples returns the underlying slice. The slice is only valid until the
// next mutating call.
func (b *Buffer) Samples() []float64 {
	return b.samples
}

// Len returns the current number of samples.
func (b *Buffer) Len() int {
	return len(b.samples)
}

// Append adds samples to the tail.
func (b *Buffer) Append(s ...float64) {
	b.samples = append(b.samples, s...)
}

// Resize sets the length to n, reusing existing capacity when possible.
// New elements beyond the previous length are zeroed.
func (b *Buffer) Resize(n int) {
	if n < 0 {
		n = 0
	}
	oldLen := len(b.samples)
	if n <= cap(b.samples) {
		b.samples = b.samples[:n]
	} else {
		s := make([]float64, n)
		copy(s, b.samples)
		b.samples = s
	}
	for i := oldLen; i < n; i++ {
		b.samples[i] = 0
	}
}

// DropFront evicts the oldest n samples. Remaining samples are moved to the
// start of the backing array so that repeated append/evict cycles do not
// grow memory without bound. n larger than Len empties the buffer.
func (b *Buffer) DropFront(n int) {
	if n <= 0 {
		return
	}
	if n >= len(b.samples) {
		b.samples = b.samples[:0]
		return
	}
	kept := copy(b.samples, b.samples[n:])
	b.samples = b.samples[:kept]
}

// KeepLast retains only the newest n samples.
func (b *Buffer) KeepLast(n int) {
	if n < 0 {
		n = 0
	}
	b.DropFront(len(b.samples) - n)
}

// Head returns a copy of the first n samples (fewer if the buffer is shorter).
func (b *Buffer) Head(n int) []float64 {
	n = min(max(n, 0), len(b.samples))
	out := make([]float64, n)
	copy(out, b.samples[:n])
	return out
}

// Zero sets all samples to 0.
func (b *Buffer) Zero() {
	for i := range b.samples {
		b.samples[i] = 0
	}
}

// Copy returns a deep copy of the buffer.
func (b *Buffer) Copy() *Buffer {
	s := make([]float64, len(b.samples))
	copy(s, b.samples)
	return &Buffer{samples: s}
}
