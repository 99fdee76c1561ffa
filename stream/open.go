package stream

import (
	"context"
	"errors"
	"fmt"

	"github.com/cwbudde/neurotone/sensor"
)

// Open prepares and starts src and returns a stream over its EEG channels.
// The returned stream owns src: Close ends the stream and releases the
// device. If startup fails, src is released before Open returns.
func Open(ctx context.Context, src sensor.Source, cfg WindowConfig, opts ...Option) (*WindowStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := src.Prepare(); err != nil {
		return nil, errors.Join(fmt.Errorf("stream: prepare source: %w", err), src.Release())
	}
	if err := src.BeginStream(); err != nil {
		return nil, errors.Join(fmt.Errorf("stream: begin stream: %w", err), src.Release())
	}

	total := src.ChannelCount()
	eeg := sensor.EEGChannels(src)
	allNames := sensor.ChannelNames(src)
	names := make([]string, len(eeg))
	for i, row := range eeg {
		if row < 0 || row >= total {
			return nil, errors.Join(
				fmt.Errorf("%w: EEG channel %d out of range [0, %d)", ErrChannelMismatch, row, total),
				src.EndStream(), src.Release())
		}
		names[i] = allNames[row]
	}

	o := applyOptions(opts)
	pull := func(context.Context) (sensor.Matrix, error) {
		m, err := src.Pull(o.pullSize)
		if err != nil {
			return nil, err
		}
		if m.Samples() == 0 {
			return nil, nil
		}
		if m.Channels() != total {
			return nil, sensor.Fatal(fmt.Errorf("%w: source returned %d rows, want %d", ErrChannelMismatch, m.Channels(), total))
		}
		return m.Rows(eeg), nil
	}

	s, err := New(pull, len(eeg), src.SampleRate(), cfg, opts...)
	if err != nil {
		return nil, errors.Join(err, src.EndStream(), src.Release())
	}

	s.names = names
	s.closer = func() error {
		return errors.Join(src.EndStream(), src.Release())
	}
	s.logger.Info("window stream started",
		"rate", src.SampleRate(),
		"channels", len(eeg),
		"window", s.window,
		"overlap", s.overlap,
	)
	return s, nil
}
