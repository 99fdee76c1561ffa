// Package synthetic provides an in-process EEG board that emits one
// amplitude-modulated test tone per channel plus seeded noise. A generator
// goroutine renders samples in real time into a byte ring buffer that Pull
// drains, so the source behaves like a hardware board with its own clock.
package synthetic

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smallnest/ringbuffer"

	"github.com/cwbudde/neurotone/sensor"
)

const (
	// DefaultSampleRate matches common consumer EEG boards.
	DefaultSampleRate = 250.0
	// DefaultTick is the generator cadence.
	DefaultTick = 10 * time.Millisecond
	// DefaultBuffer is how much signal the ring holds before dropping frames.
	DefaultBuffer = 5 * time.Second
	// DefaultAmplitude is the tone amplitude in microvolts.
	DefaultAmplitude = 20.0
	// DefaultNoise is the noise amplitude in microvolts.
	DefaultNoise = 5.0

	bytesPerValue = 4
	toneSpacingHz = 5.0
	modulationHz  = 0.1
)

var (
	// ErrNotPrepared is returned by BeginStream before Prepare.
	ErrNotPrepared = errors.New("synthetic: board not prepared")
	// ErrNotStreaming is returned by Pull outside BeginStream/EndStream.
	ErrNotStreaming = errors.New("synthetic: board not streaming")
)

var defaultNames = []string{
	"Fz", "C3", "Cz", "C4", "Pz", "PO7", "Oz", "PO8",
	"F5", "F7", "F3", "F1", "F2", "F4", "F6", "F8",
}

var _ sensor.ChannelNamer = (*Source)(nil)

// Source is a simulated EEG board.
type Source struct {
	rate      float64
	names     []string
	tick      time.Duration
	buffer    time.Duration
	amplitude float64
	noise     float64
	seed      int64
	logger    *slog.Logger

	freqs []float64

	mu        sync.Mutex
	ring      *ringbuffer.RingBuffer
	rng       *rand.Rand
	produced  int64
	prepared  bool
	streaming bool
	stop      chan struct{}
	done      chan struct{}
	frame     []byte

	overruns atomic.Uint64
}

// Option configures a Source.
type Option func(*Source)

// WithSampleRate sets the board sample rate in Hz.
func WithSampleRate(hz float64) Option {
	return func(s *Source) {
		if hz > 0 {
			s.rate = hz
		}
	}
}

// WithChannels limits the board to the first n default channels, or
// extends it with numbered channels past the sixteenth.
func WithChannels(n int) Option {
	return func(s *Source) {
		if n <= 0 {
			return
		}
		names := make([]string, n)
		for i := range names {
			if i < len(defaultNames) {
				names[i] = defaultNames[i]
			} else {
				names[i] = fmt.Sprintf("X%d", i+1)
			}
		}
		s.names = names
	}
}

// WithTick sets the generator cadence.
func WithTick(d time.Duration) Option {
	return func(s *Source) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithBuffer sets the ring capacity as a duration of signal.
func WithBuffer(d time.Duration) Option {
	return func(s *Source) {
		if d > 0 {
			s.buffer = d
		}
	}
}

// WithAmplitude sets the tone and noise amplitudes in microvolts.
func WithAmplitude(tone, noise float64) Option {
	return func(s *Source) {
		if tone >= 0 {
			s.amplitude = tone
		}
		if noise >= 0 {
			s.noise = noise
		}
	}
}

// WithSeed sets the noise seed.
func WithSeed(seed int64) Option {
	return func(s *Source) { s.seed = seed }
}

// WithLogger sets the board logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Source) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns an idle synthetic board.
func New(opts ...Option) *Source {
	s := &Source{
		rate:      DefaultSampleRate,
		names:     defaultNames,
		tick:      DefaultTick,
		buffer:    DefaultBuffer,
		amplitude: DefaultAmplitude,
		noise:     DefaultNoise,
		seed:      1,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.names = append([]string(nil), s.names...)
	s.freqs = make([]float64, len(s.names))
	limit := 0.45 * s.rate
	for i := range s.freqs {
		f := toneSpacingHz * float64(i+1)
		if f >= limit {
			f = 1 + math.Mod(f, limit-1)
		}
		s.freqs[i] = f
	}
	return s
}

func (s *Source) SampleRate() float64 { return s.rate }
func (s *Source) ChannelCount() int   { return len(s.names) }

// ChannelNames returns the 10-20 electrode labels of the board.
func (s *Source) ChannelNames() []string {
	return append([]string(nil), s.names...)
}

// ToneFrequency returns the test tone frequency of channel ch.
func (s *Source) ToneFrequency(ch int) float64 { return s.freqs[ch] }

// Overruns returns the number of frames dropped because the ring was full.
func (s *Source) Overruns() uint64 { return s.overruns.Load() }

func (s *Source) frameBytes() int { return len(s.names) * bytesPerValue }

// Prepare allocates the ring buffer. Calling it again is a no-op.
func (s *Source) Prepare() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.prepared {
		return nil
	}

	frames := max(int(math.Ceil(s.buffer.Seconds()*s.rate)), 1)
	s.ring = ringbuffer.New(frames * s.frameBytes())
	s.frame = make([]byte, s.frameBytes())
	s.rng = rand.New(rand.NewSource(s.seed))
	s.produced = 0
	s.prepared = true
	s.logger.Debug("synthetic board prepared", "channels", len(s.names), "rate", s.rate, "frames", frames)
	return nil
}

// BeginStream starts the generator goroutine.
func (s *Source) BeginStream() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.prepared {
		return ErrNotPrepared
	}
	if s.streaming {
		return nil
	}

	s.streaming = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.generate(s.stop, s.done, s.produced)
	return nil
}

// Pull drains up to maxSamples whole frames from the ring.
func (s *Source) Pull(maxSamples int) (sensor.Matrix, error) {
	s.mu.Lock()
	streaming, ring := s.streaming, s.ring
	s.mu.Unlock()

	if !streaming {
		return nil, sensor.Fatal(ErrNotStreaming)
	}

	fb := s.frameBytes()
	n := ring.Length() / fb
	if maxSamples > 0 {
		n = min(n, maxSamples)
	}
	if n == 0 {
		return sensor.NewMatrix(len(s.names), 0), nil
	}

	raw := make([]byte, n*fb)
	got, err := ring.Read(raw)
	if err != nil {
		return nil, sensor.Transient(fmt.Errorf("synthetic: read ring: %w", err))
	}

	n = got / fb
	m := sensor.NewMatrix(len(s.names), n)
	for i := range n {
		for ch := range m {
			off := i*fb + ch*bytesPerValue
			m[ch][i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[off:])))
		}
	}
	return m, nil
}

// EndStream stops and joins the generator. Buffered frames are discarded.
func (s *Source) EndStream() error {
	s.mu.Lock()
	if !s.streaming {
		s.mu.Unlock()
		return nil
	}
	s.streaming = false
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done

	s.mu.Lock()
	s.ring.Reset()
	s.mu.Unlock()

	if n := s.overruns.Load(); n > 0 {
		s.logger.Warn("synthetic board dropped frames", "frames", n)
	}
	return nil
}

// Release ends the stream if needed and frees the ring.
func (s *Source) Release() error {
	if err := s.EndStream(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ring = nil
	s.prepared = false
	return nil
}

func (s *Source) generate(stop <-chan struct{}, done chan<- struct{}, base int64) {
	defer close(done)

	start := time.Now()
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			due := base + int64(now.Sub(start).Seconds()*s.rate)
			s.produce(due)
		}
	}
}

// produce renders frames until the sample counter reaches due.
func (s *Source) produce(due int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fb := s.frameBytes()
	for ; s.produced < due; s.produced++ {
		t := float64(s.produced) / s.rate
		for ch, f := range s.freqs {
			v := s.sample(ch, f, t)
			binary.LittleEndian.PutUint32(s.frame[ch*bytesPerValue:], math.Float32bits(float32(v)))
		}

		if s.ring.Free() < fb {
			s.overruns.Add(1)
			continue
		}
		if _, err := s.ring.Write(s.frame); err != nil {
			s.overruns.Add(1)
		}
	}
}

func (s *Source) sample(ch int, freq, t float64) float64 {
	phase := float64(ch) * math.Pi / 8
	envelope := 1 + 0.5*math.Sin(2*math.Pi*modulationHz*t+phase)
	return s.amplitude*envelope*math.Sin(2*math.Pi*freq*t) + s.noise*s.rng.NormFloat64()
}
