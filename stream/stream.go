package stream

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/cwbudde/neurotone/sensor"
)

// PullFunc produces the next chunk of samples. An empty chunk means no data
// is ready yet. Errors are transient unless marked with sensor.Fatal.
type PullFunc func(ctx context.Context) (sensor.Matrix, error)

// WindowStream is an infinite, non-rewindable sequence of overlapping
// windows drawn from a PullFunc. It runs no goroutines; all work happens
// inside Next. It is not safe for concurrent use.
type WindowStream struct {
	pull    PullFunc
	buf     *ChannelBuffer
	window  int
	overlap int
	stride  int
	rate    float64
	names   []string

	cfg     config
	logger  *slog.Logger
	retries int
	emitted int
	err     error

	closeOnce sync.Once
	closeErr  error
	closer    func() error
}

// New returns a stream over pull producing windows of cfg at sampleRate for
// the given channel count.
func New(pull PullFunc, channels int, sampleRate float64, cfg WindowConfig, opts ...Option) (*WindowStream, error) {
	if pull == nil {
		return nil, errors.New("stream: nil pull function")
	}
	if channels <= 0 {
		return nil, fmt.Errorf("%w: %d channels", ErrChannelMismatch, channels)
	}

	window, overlap, err := cfg.ToSamples(sampleRate)
	if err != nil {
		return nil, err
	}

	o := applyOptions(opts)
	return &WindowStream{
		pull:    pull,
		buf:     NewChannelBuffer(channels),
		window:  window,
		overlap: overlap,
		stride:  window - overlap,
		rate:    sampleRate,
		cfg:     o,
		logger:  o.logger,
	}, nil
}

// WindowSamples returns the window length in samples.
func (s *WindowStream) WindowSamples() int { return s.window }

// OverlapSamples returns the number of samples shared by consecutive windows.
func (s *WindowStream) OverlapSamples() int { return s.overlap }

// Stride returns the number of samples evicted after each window.
func (s *WindowStream) Stride() int { return s.stride }

// SampleRate returns the sample rate windows were sized for.
func (s *WindowStream) SampleRate() float64 { return s.rate }

// Channels returns the number of channels per window.
func (s *WindowStream) Channels() int { return s.buf.Channels() }

// ChannelNames returns the labels of the streamed channels, if known.
func (s *WindowStream) ChannelNames() []string {
	return append([]string(nil), s.names...)
}

// Emitted returns the number of windows returned so far.
func (s *WindowStream) Emitted() int { return s.emitted }

// Retries returns the number of transient errors absorbed so far.
func (s *WindowStream) Retries() int { return s.retries }

// Err returns the fatal error that ended the stream, if any.
func (s *WindowStream) Err() error { return s.err }

// Next blocks until the next window is available, ctx is done, or the
// source fails fatally. Transient errors are logged and retried without
// limit. After a fatal error every call returns that error.
func (s *WindowStream) Next(ctx context.Context) (Window, error) {
	for {
		if s.err != nil {
			return Window{}, s.err
		}

		if w, ok := s.buf.Extract(s.window, s.stride); ok {
			s.emitted++
			return w, nil
		}

		if err := ctx.Err(); err != nil {
			return Window{}, err
		}

		chunk, err := s.pull(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Window{}, ctxErr
			}

			if sensor.IsFatal(err) {
				s.err = err
				s.logger.Error("window stream stopped", "err", err, "windows", s.emitted)
				return Window{}, err
			}

			s.retries++
			s.logger.Warn("transient source error, retrying", "err", err, "retry", s.retries)
			if err := sleep(ctx, s.cfg.retryDelay); err != nil {
				return Window{}, err
			}
			continue
		}

		if chunk.Samples() == 0 {
			if err := sleep(ctx, s.cfg.idleDelay); err != nil {
				return Window{}, err
			}
			continue
		}

		if err := s.buf.Append(chunk); err != nil {
			s.err = sensor.Fatal(err)
			s.logger.Error("window stream stopped", "err", err)
			return Window{}, s.err
		}
	}
}

// All returns an iterator over the stream's windows. Iteration ends after
// the first error, which is yielded together with a zero Window.
func (s *WindowStream) All(ctx context.Context) iter.Seq2[Window, error] {
	return func(yield func(Window, error) bool) {
		for {
			w, err := s.Next(ctx)
			if err != nil {
				yield(Window{}, err)
				return
			}
			if !yield(w, nil) {
				return
			}
		}
	}
}

// Close ends and releases the underlying source when the stream was created
// with Open. It is safe to call more than once.
func (s *WindowStream) Close() error {
	s.closeOnce.Do(func() {
		if s.closer != nil {
			s.closeErr = s.closer()
		}
		s.buf.Reset()
		s.logger.Info("stopping window streaming", "windows", s.emitted)
	})
	return s.closeErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
