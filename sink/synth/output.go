package synth

import (
	"fmt"

	"github.com/hajimehoshi/oto/v2"
)

// Output plays a Synth on the default audio device.
type Output struct {
	player oto.Player
}

// Play opens the audio device at the synth's rate and starts playback.
// Only one Output can exist per process.
func Play(s *Synth) (*Output, error) {
	ctx, ready, err := oto.NewContext(s.SampleRate(), 1, oto.FormatFloat32LE)
	if err != nil {
		return nil, fmt.Errorf("synth: open audio device: %w", err)
	}
	<-ready

	p := ctx.NewPlayer(s)
	p.Play()
	s.logger.Info("audio output started", "rate", s.SampleRate(), "waveform", s.Waveform())
	return &Output{player: p}, nil
}

// Err returns a playback error reported by the device, if any.
func (o *Output) Err() error { return o.player.Err() }

// Close stops playback.
func (o *Output) Close() error {
	return o.player.Close()
}
