// Package midi renders tone voices on a MIDI output port. Each voice gets
// its own MIDI channel, sounds one held note and follows its control value
// through the channel volume controller (CC 7).
package midi

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/cwbudde/neurotone/tone"
)

const (
	// VolumeController is the MIDI channel volume controller number.
	VolumeController = 7

	// percussionChannel is reserved for drums in General MIDI.
	percussionChannel = 9

	numChannels = 16
)

// ErrNoFreeChannel is returned when every melodic MIDI channel is in use.
var ErrNoFreeChannel = errors.New("midi: no free channel")

var _ tone.Sink = (*Sink)(nil)

// Sender writes one MIDI message.
type Sender func(msg gomidi.Message) error

type voice struct {
	channel uint8
	note    uint8
}

// Sink is a tone.Sink over a MIDI output. It is safe for concurrent use.
type Sink struct {
	send     Sender
	program  uint8
	velocity uint8
	logger   *slog.Logger
	closer   func() error

	mu     sync.Mutex
	voices map[tone.VoiceID]voice
	used   [numChannels]bool
}

// Option configures a Sink.
type Option func(*Sink)

// WithProgram selects the General MIDI program (instrument) sent when a
// voice is claimed. The default is 0, acoustic grand piano.
func WithProgram(p uint8) Option {
	return func(s *Sink) { s.program = p & 0x7f }
}

// WithVelocity sets the note-on velocity. The default is 64.
func WithVelocity(v uint8) Option {
	return func(s *Sink) { s.velocity = v & 0x7f }
}

// WithLogger sets the sink logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sink) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewWithSender returns a sink writing through send.
func NewWithSender(send Sender, opts ...Option) *Sink {
	s := &Sink{
		send:     send,
		velocity: 64,
		logger:   slog.Default(),
		voices:   make(map[tone.VoiceID]voice),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Open connects to the output port named (or numbered) port. A driver must
// be registered, typically by importing
// gitlab.com/gomidi/midi/v2/drivers/rtmididrv.
func Open(port string, opts ...Option) (*Sink, error) {
	out, err := findOutPort(port)
	if err != nil {
		return nil, err
	}

	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("midi: open %q: %w", out.String(), err)
	}

	s := NewWithSender(send, opts...)
	s.closer = out.Close
	s.logger.Info("MIDI output connected", "port", out.String())
	return s, nil
}

func findOutPort(port string) (drivers.Out, error) {
	if n, err := strconv.Atoi(port); err == nil {
		out, err := gomidi.OutPort(n)
		if err != nil {
			return nil, fmt.Errorf("midi: output port %d: %w", n, err)
		}
		return out, nil
	}

	out, err := gomidi.FindOutPort(port)
	if err != nil {
		return nil, fmt.Errorf("midi: output port %q: %w", port, err)
	}
	return out, nil
}

// OutPorts lists the names of the available output ports.
func OutPorts() []string {
	var names []string
	for _, out := range gomidi.GetOutPorts() {
		names = append(names, out.String())
	}
	return names
}

// ClaimVoice takes the lowest free melodic channel, selects the program
// and starts note.
func (s *Sink) ClaimVoice(note uint8) (tone.VoiceID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.freeChannel()
	if !ok {
		return 0, ErrNoFreeChannel
	}

	note &= 0x7f
	if err := s.send(gomidi.ProgramChange(ch, s.program)); err != nil {
		return 0, fmt.Errorf("midi: program change: %w", err)
	}
	if err := s.send(gomidi.NoteOn(ch, note, s.velocity)); err != nil {
		return 0, fmt.Errorf("midi: note on: %w", err)
	}

	id := tone.NewVoiceID()
	s.used[ch] = true
	s.voices[id] = voice{channel: ch, note: note}
	s.logger.Debug("MIDI voice claimed", "voice", id, "channel", ch, "note", note)
	return id, nil
}

// SetControl sends the value as channel volume.
func (s *Sink) SetControl(id tone.VoiceID, value uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.voices[id]
	if !ok {
		return fmt.Errorf("%w: %d", tone.ErrUnknownVoice, id)
	}
	return s.send(gomidi.ControlChange(v.channel, VolumeController, min(value, tone.MaxControl)))
}

// ReleaseVoice stops the note and frees the channel.
func (s *Sink) ReleaseVoice(id tone.VoiceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.voices[id]
	if !ok {
		return fmt.Errorf("%w: %d", tone.ErrUnknownVoice, id)
	}

	delete(s.voices, id)
	s.used[v.channel] = false
	s.logger.Debug("MIDI voice released", "voice", id, "channel", v.channel)
	return s.send(gomidi.NoteOff(v.channel, v.note))
}

// Voices returns the number of claimed voices.
func (s *Sink) Voices() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.voices)
}

// Close silences remaining voices and closes the port.
func (s *Sink) Close() error {
	s.mu.Lock()
	var errs []error
	for id, v := range s.voices {
		errs = append(errs, s.send(gomidi.NoteOff(v.channel, v.note)))
		delete(s.voices, id)
		s.used[v.channel] = false
	}
	s.mu.Unlock()

	if s.closer != nil {
		errs = append(errs, s.closer())
	}
	return errors.Join(errs...)
}

func (s *Sink) freeChannel() (uint8, bool) {
	for ch := range uint8(numChannels) {
		if ch != percussionChannel && !s.used[ch] {
			return ch, true
		}
	}
	return 0, false
}
