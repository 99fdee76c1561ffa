// Package playback replays a recorded multi-channel WAV file as a sensor
// source, releasing samples at the recording's own rate.
package playback

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/neurotone/sensor"
)

var (
	// ErrEndOfRecording is returned, wrapped as fatal, once a non-looping
	// recording has been fully delivered.
	ErrEndOfRecording = errors.New("playback: end of recording")
	// ErrInvalidFile is returned for files that are not PCM WAV.
	ErrInvalidFile = errors.New("playback: invalid WAV file")
	// ErrNotStreaming is returned by Pull outside BeginStream/EndStream.
	ErrNotStreaming = errors.New("playback: not streaming")
)

var _ sensor.ChannelNamer = (*Source)(nil)

// Source replays a decoded recording.
type Source struct {
	data  sensor.Matrix
	rate  float64
	names []string

	loop   bool
	scale  float64
	now    func() time.Time
	logger *slog.Logger

	mu        sync.Mutex
	streaming bool
	start     time.Time
	pos       int64
}

// Option configures a Source.
type Option func(*Source)

// WithLoop restarts the recording from the beginning when it ends.
func WithLoop(loop bool) Option {
	return func(s *Source) { s.loop = loop }
}

// WithScale multiplies every normalized sample, for example to convert
// full scale to microvolts.
func WithScale(k float64) Option {
	return func(s *Source) {
		if k != 0 {
			s.scale = k
		}
	}
}

// WithChannelNames labels the recorded channels. Names are ignored unless
// there is one per channel.
func WithChannelNames(names ...string) Option {
	return func(s *Source) { s.names = append([]string(nil), names...) }
}

// WithClock replaces time.Now for pacing.
func WithClock(now func() time.Time) Option {
	return func(s *Source) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the source logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Source) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open decodes the WAV file at path.
func Open(path string, opts ...Option) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("playback: open recording: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFile, path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("playback: decode %s: %w", path, err)
	}
	return NewFromBuffer(buf, int(dec.BitDepth), opts...)
}

// NewFromBuffer builds a source from interleaved integer PCM of the given
// bit depth.
func NewFromBuffer(buf *audio.IntBuffer, bitDepth int, opts ...Option) (*Source, error) {
	if buf == nil || buf.Format == nil {
		return nil, fmt.Errorf("%w: missing format", ErrInvalidFile)
	}

	channels, rate := buf.Format.NumChannels, buf.Format.SampleRate
	if channels <= 0 || rate <= 0 {
		return nil, fmt.Errorf("%w: %d channels at %d Hz", ErrInvalidFile, channels, rate)
	}

	divisor, err := fullScale(bitDepth)
	if err != nil {
		return nil, err
	}

	s := &Source{
		rate:   float64(rate),
		scale:  1,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	frames := len(buf.Data) / channels
	if frames == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrInvalidFile)
	}

	s.data = sensor.NewMatrix(channels, frames)
	for i := range frames {
		for ch := range channels {
			s.data[ch][i] = float64(buf.Data[i*channels+ch]) / divisor * s.scale
		}
	}
	if len(s.names) != channels {
		s.names = nil
	}
	return s, nil
}

func fullScale(bitDepth int) (float64, error) {
	switch bitDepth {
	case 16:
		return 1 << 15, nil
	case 24:
		return 1 << 23, nil
	case 32:
		return 1 << 31, nil
	default:
		return 0, fmt.Errorf("%w: unsupported bit depth %d", ErrInvalidFile, bitDepth)
	}
}

func (s *Source) SampleRate() float64 { return s.rate }
func (s *Source) ChannelCount() int   { return len(s.data) }

// ChannelNames returns the configured labels, or nil.
func (s *Source) ChannelNames() []string {
	return append([]string(nil), s.names...)
}

// Duration returns the length of one pass through the recording.
func (s *Source) Duration() time.Duration {
	return time.Duration(float64(s.data.Samples()) / s.rate * float64(time.Second))
}

// Prepare is a no-op; the recording is decoded up front.
func (s *Source) Prepare() error { return nil }

// BeginStream rewinds the recording and starts the playback clock.
func (s *Source) BeginStream() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.streaming = true
	s.start = s.now()
	s.pos = 0
	s.logger.Debug("playback started", "channels", len(s.data), "rate", s.rate, "duration", s.Duration())
	return nil
}

// Pull returns the samples that became due since the previous call.
func (s *Source) Pull(maxSamples int) (sensor.Matrix, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.streaming {
		return nil, sensor.Fatal(ErrNotStreaming)
	}

	total := int64(s.data.Samples())
	if !s.loop && s.pos >= total {
		return nil, sensor.Fatal(ErrEndOfRecording)
	}

	due := int64(s.now().Sub(s.start).Seconds() * s.rate)
	if !s.loop {
		due = min(due, total)
	}

	n := max(due-s.pos, 0)
	if maxSamples > 0 {
		n = min(n, int64(maxSamples))
	}

	out := sensor.NewMatrix(len(s.data), int(n))
	for i := range n {
		idx := (s.pos + i) % total
		for ch := range out {
			out[ch][i] = s.data[ch][idx]
		}
	}
	s.pos += n
	return out, nil
}

// EndStream stops playback.
func (s *Source) EndStream() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streaming = false
	return nil
}

// Release is a no-op; the decoded recording stays usable.
func (s *Source) Release() error { return nil }
