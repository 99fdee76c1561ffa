package board

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/neurotone/analysis"
	"github.com/cwbudde/neurotone/sensor"
	"github.com/cwbudde/neurotone/stream"
)

// Stats counts acquisition loop activity since the reader was created.
type Stats struct {
	Pulls    uint64
	Samples  uint64
	Retries  uint64
	Analyses uint64
}

// Reader polls a sensor source in the background and publishes power
// readings. All methods are safe for concurrent use.
type Reader struct {
	src      sensor.Source
	params   Params
	analyzer analysis.Analyzer
	bands    []analysis.Band
	rows     []int
	names    []string
	rate     float64
	logger   *slog.Logger

	// lifecycle serializes StartReading and StopReading.
	lifecycle sync.Mutex
	stop      chan struct{}
	done      chan struct{}

	state atomic.Int32

	errMu    sync.Mutex
	fatal    error
	reported bool

	// snapMu guards snap and gen. It is held only for appends and copies.
	snapMu sync.Mutex
	snap   *RollingSnapshot
	gen    uint64

	// analyzeMu serializes analysis so no generation is analyzed twice.
	analyzeMu sync.Mutex
	dirty     atomic.Bool
	cache     atomic.Pointer[PowerReading]

	pulls    atomic.Uint64
	samples  atomic.Uint64
	retries  atomic.Uint64
	analyses atomic.Uint64
}

// NewReader returns a stopped reader over src.
func NewReader(src sensor.Source, opts ...Option) (*Reader, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil source", ErrInvalidParams)
	}

	cfg := config{
		params:   DefaultParams(),
		analyzer: analysis.BandpassRMS{},
		bands:    analysis.Bands(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if err := cfg.params.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.bands) == 0 {
		return nil, fmt.Errorf("%w: no bands", ErrInvalidParams)
	}
	for _, b := range cfg.bands {
		if !b.Valid() {
			return nil, fmt.Errorf("%w: %v", analysis.ErrUnknownBand, b)
		}
	}

	rate := src.SampleRate()
	if !(rate > 0) {
		return nil, fmt.Errorf("%w: sample rate %v", ErrInvalidParams, rate)
	}

	rows := cfg.channels
	if rows == nil {
		rows = sensor.EEGChannels(src)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no channels", ErrInvalidParams)
	}

	allNames := sensor.ChannelNames(src)
	names := make([]string, len(rows))
	for i, row := range rows {
		if row < 0 || row >= src.ChannelCount() {
			return nil, fmt.Errorf("%w: channel %d out of range [0, %d)", ErrInvalidParams, row, src.ChannelCount())
		}
		names[i] = allNames[row]
	}

	return &Reader{
		src:      src,
		params:   cfg.params,
		analyzer: cfg.analyzer,
		bands:    cfg.bands,
		rows:     rows,
		names:    names,
		rate:     rate,
		logger:   cfg.logger,
		snap:     NewRollingSnapshot(len(rows), SnapshotCapacity(rate, cfg.params.Window)),
	}, nil
}

// State returns the current lifecycle state.
func (r *Reader) State() State { return State(r.state.Load()) }

// Params returns the acquisition parameters.
func (r *Reader) Params() Params { return r.params }

// SampleRate returns the source sample rate.
func (r *Reader) SampleRate() float64 { return r.rate }

// ChannelNames returns the names of the analyzed channels in index order.
func (r *Reader) ChannelNames() []string { return append([]string(nil), r.names...) }

// Bands returns the analyzed bands.
func (r *Reader) Bands() []analysis.Band { return append([]analysis.Band(nil), r.bands...) }

// Capacity returns the rolling snapshot length in samples.
func (r *Reader) Capacity() int { return r.snap.Capacity() }

// Stats returns loop counters.
func (r *Reader) Stats() Stats {
	return Stats{
		Pulls:    r.pulls.Load(),
		Samples:  r.samples.Load(),
		Retries:  r.retries.Load(),
		Analyses: r.analyses.Load(),
	}
}

// Snapshot returns a copy of the rolling snapshot.
func (r *Reader) Snapshot() sensor.Matrix {
	r.snapMu.Lock()
	defer r.snapMu.Unlock()
	return r.snap.Copy()
}

// Err returns the fatal error that stopped the loop, if any.
func (r *Reader) Err() error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	return r.fatal
}

// StartReading prepares the source, starts the stream and launches the
// polling goroutine. It is a no-op while already reading. Prepare and
// BeginStream failures are returned after releasing the source.
func (r *Reader) StartReading() error {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	if r.State() == Reading {
		return nil
	}
	r.reap()

	if err := r.src.Prepare(); err != nil {
		return errors.Join(fmt.Errorf("board: prepare source: %w", err), r.src.Release())
	}
	if err := r.src.BeginStream(); err != nil {
		return errors.Join(fmt.Errorf("board: begin stream: %w", err), r.src.Release())
	}

	r.errMu.Lock()
	r.fatal = nil
	r.reported = false
	r.errMu.Unlock()

	r.snapMu.Lock()
	r.snap.Reset()
	r.gen = 0
	r.snapMu.Unlock()

	r.dirty.Store(false)
	r.cache.Store(zeroReading(r.names, r.bands))

	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	r.state.Store(int32(Reading))
	go r.run(r.stop, r.done)

	r.logger.Info("reader started",
		"rate", r.rate,
		"channels", len(r.rows),
		"capacity", r.snap.Capacity(),
		"poll", r.params.Poll,
	)
	return nil
}

// StopReading signals the polling goroutine, waits for it to exit and for
// the source to be released. It is a no-op when already stopped. If the
// loop ended with a fatal error, the first call after the failure returns
// it.
func (r *Reader) StopReading() error {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	if r.stop != nil {
		select {
		case <-r.done:
		default:
			close(r.stop)
			<-r.done
			r.logger.Info("reader stopped", "pulls", r.pulls.Load())
		}
		r.stop, r.done = nil, nil
	}

	r.errMu.Lock()
	defer r.errMu.Unlock()
	if r.fatal != nil && !r.reported {
		r.reported = true
		return r.fatal
	}
	return nil
}

// reap clears a goroutine that already exited on its own. Callers hold
// lifecycle.
func (r *Reader) reap() {
	if r.stop == nil {
		return
	}
	<-r.done
	r.stop, r.done = nil, nil
}

// PowerReading returns the most recent reading. Analysis runs only when new
// samples arrived since the previous call; otherwise the cached reading is
// returned as is.
func (r *Reader) PowerReading() (*PowerReading, error) {
	if err := r.Err(); err != nil {
		return nil, err
	}

	cached := r.cache.Load()
	if cached == nil {
		return nil, ErrNotStarted
	}
	if !r.dirty.CompareAndSwap(true, false) {
		return cached, nil
	}

	r.analyzeMu.Lock()
	defer r.analyzeMu.Unlock()

	r.snapMu.Lock()
	gen := r.gen
	cur := r.cache.Load()
	if cur.generation >= gen {
		r.snapMu.Unlock()
		return cur, nil
	}
	data := r.snap.Copy()
	r.snapMu.Unlock()

	fresh := r.analyze(data, gen)
	if !r.cache.CompareAndSwap(cur, fresh) {
		// A restart replaced the cache while analyzing.
		return r.cache.Load(), nil
	}
	return fresh, nil
}

func (r *Reader) analyze(data [][]float64, gen uint64) *PowerReading {
	r.analyses.Add(1)

	values := make([][]float64, len(data))
	for ch, samples := range data {
		values[ch] = make([]float64, len(r.bands))
		for bi, band := range r.bands {
			lo, hi := band.Range()
			values[ch][bi] = r.analyzer.BandPower(samples, r.rate, lo, hi)
		}
	}

	reading := NewPowerReading(r.names, r.bands, values)
	reading.generation = gen
	return reading
}

func (r *Reader) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(r.params.Poll)
	defer timer.Stop()

	total := r.src.ChannelCount()
	for {
		select {
		case <-stop:
			r.shutdown()
			return
		case <-timer.C:
		}

		m, err := r.src.Pull(0)
		r.pulls.Add(1)
		if err == nil && m.Samples() > 0 && m.Channels() != total {
			err = sensor.Fatal(fmt.Errorf("%w: source returned %d rows, want %d",
				stream.ErrChannelMismatch, m.Channels(), total))
		}

		if err != nil {
			if sensor.IsFatal(err) {
				r.fail(err)
				return
			}
			n := r.retries.Add(1)
			r.logger.Warn("transient source error, retrying", "err", err, "retry", n)
			timer.Reset(r.params.Poll)
			continue
		}

		if n := m.Samples(); n > 0 {
			r.snapMu.Lock()
			err = r.snap.Append(m.Rows(r.rows))
			if err == nil {
				r.gen++
				r.dirty.Store(true)
			}
			r.snapMu.Unlock()

			if err != nil {
				r.fail(sensor.Fatal(err))
				return
			}
			r.samples.Add(uint64(n))
		}

		timer.Reset(r.params.Poll)
	}
}

func (r *Reader) fail(err error) {
	r.logger.Error("reader stopped on fatal source error", "err", err)

	r.errMu.Lock()
	r.fatal = err
	r.reported = false
	r.errMu.Unlock()

	r.shutdown()
}

// shutdown ends the stream and releases the source. Errors are logged only.
func (r *Reader) shutdown() {
	if err := r.src.EndStream(); err != nil {
		r.logger.Warn("end stream failed", "err", err)
	}
	if err := r.src.Release(); err != nil {
		r.logger.Warn("release failed", "err", err)
	}
	r.state.Store(int32(Stopped))
}
