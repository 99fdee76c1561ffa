package tone

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
)

// VoiceID identifies a claimed sink voice. IDs are process-wide, strictly
// increasing and never reused.
type VoiceID uint64

var lastVoiceID atomic.Uint64

// NewVoiceID returns the next process-wide voice ID.
func NewVoiceID() VoiceID {
	return VoiceID(lastVoiceID.Add(1))
}

// ErrUnknownVoice is returned by sinks for IDs they did not issue or that
// were already released.
var ErrUnknownVoice = errors.New("tone: unknown voice")

// Sink renders voices. Control values are in [0, 127].
type Sink interface {
	// ClaimVoice starts a voice sounding note and returns its identity.
	ClaimVoice(note uint8) (VoiceID, error)
	// SetControl sets the loudness control of a voice.
	SetControl(id VoiceID, value uint8) error
	// ReleaseVoice silences the voice and frees its resources.
	ReleaseVoice(id VoiceID) error
}

// LogSink is a Sink that only logs. It is useful without audio hardware.
type LogSink struct {
	logger *slog.Logger

	mu     sync.Mutex
	voices map[VoiceID]uint8
}

// NewLogSink returns a sink logging to l, or slog.Default when l is nil.
func NewLogSink(l *slog.Logger) *LogSink {
	if l == nil {
		l = slog.Default()
	}
	return &LogSink{logger: l, voices: make(map[VoiceID]uint8)}
}

// ClaimVoice records note under a fresh ID and logs "voice on".
func (s *LogSink) ClaimVoice(note uint8) (VoiceID, error) {
	id := NewVoiceID()

	s.mu.Lock()
	s.voices[id] = note
	s.mu.Unlock()

	s.logger.Info("voice on", "voice", id, "note", note)
	return id, nil
}

// SetControl logs value for the voice. It returns ErrUnknownVoice for IDs
// not claimed from s or already released.
func (s *LogSink) SetControl(id VoiceID, value uint8) error {
	s.mu.Lock()
	note, ok := s.voices[id]
	s.mu.Unlock()
	if !ok {
		return ErrUnknownVoice
	}

	s.logger.Info("control", "voice", id, "note", note, "value", value)
	return nil
}

// ReleaseVoice forgets the voice and logs "voice off". Releasing an
// unknown or already released ID returns ErrUnknownVoice.
func (s *LogSink) ReleaseVoice(id VoiceID) error {
	s.mu.Lock()
	_, ok := s.voices[id]
	delete(s.voices, id)
	s.mu.Unlock()
	if !ok {
		return ErrUnknownVoice
	}

	s.logger.Info("voice off", "voice", id)
	return nil
}
