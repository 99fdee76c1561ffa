package synth

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/cwbudde/neurotone/dsp/core"
	"github.com/cwbudde/neurotone/tone"
)

const (
	// DefaultSampleRate is the output rate in Hz.
	DefaultSampleRate = 44100
	// DefaultGain scales the sum of all voices before clipping.
	DefaultGain = 0.25
	// DefaultSmoothing is the amplitude glide time constant.
	DefaultSmoothing = 20 * time.Millisecond

	bytesPerSample = 4
)

var _ tone.Sink = (*Synth)(nil)

type oscillator struct {
	freq   float64
	phase  float64
	amp    float64
	target float64
}

// Synth mixes one oscillator per claimed voice. It implements tone.Sink
// and io.Reader. All methods are safe for concurrent use.
type Synth struct {
	rate     int
	waveform Waveform
	gain     float64
	glide    float64
	logger   *slog.Logger

	mu     sync.Mutex
	voices map[tone.VoiceID]*oscillator
	frames uint64
}

// Option configures a Synth.
type Option func(*Synth)

// WithSampleRate sets the output sample rate.
func WithSampleRate(hz int) Option {
	return func(s *Synth) {
		if hz > 0 {
			s.rate = hz
		}
	}
}

// WithWaveform sets the oscillator shape for every voice.
func WithWaveform(w Waveform) Option {
	return func(s *Synth) { s.waveform = w }
}

// WithGain sets the master gain.
func WithGain(g float64) Option {
	return func(s *Synth) {
		if g >= 0 {
			s.gain = g
		}
	}
}

// WithLogger sets the synth logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Synth) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a silent synth.
func New(opts ...Option) *Synth {
	s := &Synth{
		rate:     DefaultSampleRate,
		waveform: Sine,
		gain:     DefaultGain,
		logger:   slog.Default(),
		voices:   make(map[tone.VoiceID]*oscillator),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.glide = 1 - math.Exp(-1/(DefaultSmoothing.Seconds()*float64(s.rate)))
	return s
}

// SampleRate returns the output rate.
func (s *Synth) SampleRate() int { return s.rate }

// Waveform returns the oscillator shape.
func (s *Synth) Waveform() Waveform { return s.waveform }

// ClaimVoice adds a silent oscillator tuned to note.
func (s *Synth) ClaimVoice(note uint8) (tone.VoiceID, error) {
	if note > tone.MaxControl {
		return 0, fmt.Errorf("synth: note %d out of range", note)
	}

	freq := NoteFrequency(note)
	if freq >= float64(s.rate)/2 {
		return 0, fmt.Errorf("synth: note %d (%.1f Hz) above Nyquist", note, freq)
	}

	id := tone.NewVoiceID()
	s.mu.Lock()
	s.voices[id] = &oscillator{freq: freq}
	s.mu.Unlock()

	s.logger.Debug("synth voice claimed", "voice", id, "note", note, "freq", freq)
	return id, nil
}

// SetControl sets the target amplitude of a voice to value/127.
func (s *Synth) SetControl(id tone.VoiceID, value uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	osc, ok := s.voices[id]
	if !ok {
		return fmt.Errorf("%w: %d", tone.ErrUnknownVoice, id)
	}
	osc.target = float64(min(value, tone.MaxControl)) / tone.MaxControl
	return nil
}

// ReleaseVoice removes the oscillator.
func (s *Synth) ReleaseVoice(id tone.VoiceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.voices[id]; !ok {
		return fmt.Errorf("%w: %d", tone.ErrUnknownVoice, id)
	}
	delete(s.voices, id)
	return nil
}

// Voices returns the number of active oscillators.
func (s *Synth) Voices() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.voices)
}

// Render fills dst with mixed mono samples in [-1, 1].
func (s *Synth) Render(dst []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(dst)
	for _, osc := range s.voices {
		step := osc.freq / float64(s.rate)
		for i := range dst {
			osc.amp += (osc.target - osc.amp) * s.glide
			dst[i] += osc.amp * s.waveform.At(osc.phase)
			osc.phase += step
			if osc.phase >= 1 {
				osc.phase -= math.Floor(osc.phase)
			}
		}
	}

	for i, v := range dst {
		dst[i] = core.Clamp(v*s.gain, -1, 1)
	}
	s.frames += uint64(len(dst))
}

// Read implements io.Reader with mono float32 little-endian samples. It
// never returns io.EOF.
func (s *Synth) Read(p []byte) (int, error) {
	n := len(p) / bytesPerSample
	if n == 0 {
		return 0, nil
	}

	buf := make([]float64, n)
	s.Render(buf)
	for i, v := range buf {
		binary.LittleEndian.PutUint32(p[i*bytesPerSample:], math.Float32bits(float32(v)))
	}
	return n * bytesPerSample, nil
}

// Frames returns the number of samples rendered so far.
func (s *Synth) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}
