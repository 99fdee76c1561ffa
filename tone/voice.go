package tone

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/neurotone/analysis"
	"github.com/cwbudde/neurotone/board"
)

var (
	// ErrNotStarted is returned by Voice operations that need a running
	// voice.
	ErrNotStarted = errors.New("tone: voice not started")

	// ErrUnknownChannel is returned when a voice names a channel its
	// source does not provide.
	ErrUnknownChannel = errors.New("tone: unknown channel")

	errVoiceStopped = errors.New("tone: voice already stopped")
)

// PowerSource publishes power readings. *board.Reader implements it.
type PowerSource interface {
	PowerReading() (*board.PowerReading, error)
	ChannelNames() []string
	Bands() []analysis.Band
}

// Channel selects a source channel by name or by index.
type Channel struct {
	name  string
	index int
	named bool
}

// ChannelName selects a channel by label, for example "Pz".
func ChannelName(name string) Channel { return Channel{name: name, named: true} }

// ChannelIndex selects a channel by its index in the source's channel list.
func ChannelIndex(i int) Channel { return Channel{index: i} }

// ParseChannel treats s as an index when it is a non-negative integer and
// as a name otherwise.
func ParseChannel(s string) Channel {
	if i, err := strconv.Atoi(s); err == nil && i >= 0 {
		return ChannelIndex(i)
	}
	return ChannelName(s)
}

func (c Channel) String() string {
	if c.named {
		return c.name
	}
	return strconv.Itoa(c.index)
}

func (c Channel) resolve(names []string) (int, string, error) {
	if c.named {
		if i := slices.Index(names, c.name); i >= 0 {
			return i, c.name, nil
		}
		return 0, "", fmt.Errorf("%w: %q", ErrUnknownChannel, c.name)
	}
	if c.index < 0 || c.index >= len(names) {
		return 0, "", fmt.Errorf("%w: index %d of %d", ErrUnknownChannel, c.index, len(names))
	}
	return c.index, names[c.index], nil
}

// Voice drives one sink voice from one (band, channel) power series.
type Voice struct {
	src     PowerSource
	sink    Sink
	band    analysis.Band
	channel int
	name    string
	note    uint8
	cfg     config

	// mu serializes Start and Stop.
	mu      sync.Mutex
	id      VoiceID
	claimed bool
	stop    chan struct{}
	done    chan struct{}

	released atomic.Bool

	errMu    sync.Mutex
	err      error
	reported bool

	// norm and last are owned by the loop goroutine while it runs.
	norm Normalizer
	last int
}

// NewVoice binds band on channel of src to a new voice playing note on
// sink. Unknown bands and channels are rejected here rather than at first
// use.
func NewVoice(src PowerSource, sink Sink, band analysis.Band, ch Channel, note uint8, opts ...Option) (*Voice, error) {
	if src == nil || sink == nil {
		return nil, errors.New("tone: nil source or sink")
	}

	cfg := config{
		interval: DefaultInterval,
		rng:      DefaultControlRange,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if err := cfg.rng.Validate(); err != nil {
		return nil, err
	}
	if cfg.interval <= 0 {
		return nil, fmt.Errorf("tone: interval %v must be positive", cfg.interval)
	}
	if !slices.Contains(src.Bands(), band) {
		return nil, fmt.Errorf("%w: %v is not analyzed by the source", analysis.ErrUnknownBand, band)
	}

	idx, name, err := ch.resolve(src.ChannelNames())
	if err != nil {
		return nil, err
	}
	if note > MaxControl {
		return nil, fmt.Errorf("tone: note %d out of range", note)
	}

	return &Voice{
		src:     src,
		sink:    sink,
		band:    band,
		channel: idx,
		name:    name,
		note:    note,
		cfg:     cfg,
		last:    -1,
	}, nil
}

// Band returns the band the voice follows.
func (v *Voice) Band() analysis.Band { return v.band }

// Channel returns the resolved channel name.
func (v *Voice) Channel() string { return v.name }

// Note returns the note the voice plays.
func (v *Voice) Note() uint8 { return v.note }

// ID returns the claimed sink voice, or ErrNotStarted.
func (v *Voice) ID() (VoiceID, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.claimed {
		return 0, ErrNotStarted
	}
	return v.id, nil
}

// Running reports whether the voice goroutine is active.
func (v *Voice) Running() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.done == nil {
		return false
	}
	select {
	case <-v.done:
		return false
	default:
		return true
	}
}

// Start claims a sink voice and starts the polling goroutine. It returns v
// so calls can be chained. Starting a running voice is a no-op; a stopped
// voice cannot be restarted.
func (v *Voice) Start() (*Voice, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.claimed {
		if v.released.Load() {
			return v, errVoiceStopped
		}
		return v, nil
	}

	id, err := v.sink.ClaimVoice(v.note)
	if err != nil {
		return v, fmt.Errorf("tone: claim voice: %w", err)
	}

	v.id = id
	v.claimed = true
	v.stop = make(chan struct{})
	v.done = make(chan struct{})
	go v.run(id, v.stop, v.done)

	v.cfg.logger.Debug("voice started",
		"voice", id,
		"band", v.band,
		"channel", v.name,
		"note", v.note,
	)
	return v, nil
}

// Stop ends the polling goroutine, waits for it and releases the sink
// voice. After Stop returns the voice never touches the sink again. It is
// safe to call more than once. The first call after the loop failed on a
// source error returns that error.
func (v *Voice) Stop() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.claimed {
		return nil
	}

	select {
	case <-v.done:
	default:
		close(v.stop)
		<-v.done
	}

	errs := []error{v.release()}

	v.errMu.Lock()
	if v.err != nil && !v.reported {
		v.reported = true
		errs = append(errs, v.err)
	}
	v.errMu.Unlock()

	return errors.Join(errs...)
}

// Err returns the error that ended the loop, if any.
func (v *Voice) Err() error {
	v.errMu.Lock()
	defer v.errMu.Unlock()
	return v.err
}

// release frees the sink voice exactly once.
func (v *Voice) release() error {
	if !v.released.CompareAndSwap(false, true) {
		return nil
	}
	if err := v.sink.ReleaseVoice(v.id); err != nil {
		return fmt.Errorf("tone: release voice %d: %w", v.id, err)
	}
	v.cfg.logger.Debug("voice released", "voice", v.id)
	return nil
}

func (v *Voice) run(id VoiceID, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(v.cfg.interval)
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return
		case <-timer.C:
		}

		if !v.step(id) {
			return
		}
		timer.Reset(v.cfg.interval)
	}
}

// step runs one iteration and reports whether the loop should continue.
func (v *Voice) step(id VoiceID) bool {
	reading, err := v.src.PowerReading()
	if errors.Is(err, board.ErrNotStarted) {
		return true
	}
	if err != nil {
		v.cfg.logger.Error("voice stopped on source error", "voice", id, "err", err)

		v.errMu.Lock()
		v.err = err
		v.errMu.Unlock()

		if err := v.release(); err != nil {
			v.cfg.logger.Warn("release after failure", "voice", id, "err", err)
		}
		return false
	}

	power, ok := reading.Power(v.channel, v.band)
	if !ok {
		return true
	}

	ratio := v.norm.Observe(power)
	ctrl := v.cfg.rng.Map(ratio)
	pushed := false
	if int(ctrl) != v.last {
		if err := v.sink.SetControl(id, ctrl); err != nil {
			v.cfg.logger.Warn("set control failed", "voice", id, "value", ctrl, "err", err)
		} else {
			v.last = int(ctrl)
			pushed = true
		}
	}

	if v.cfg.observer != nil {
		v.cfg.observer(Observation{
			Power:   power,
			Max:     v.norm.Max(),
			Ratio:   ratio,
			Control: ctrl,
			Pushed:  pushed,
		})
	}
	return true
}
