package testutil

import (
	"sync"
	"sync/atomic"

	"github.com/cwbudde/neurotone/sensor"
)

// Step is one scripted Pull result.
type Step struct {
	Data sensor.Matrix
	Err  error
}

// ScriptedSource is a sensor.Source that replays a fixed list of Pull
// results and then falls back to Next (or empty chunks when Next is nil).
// Lifecycle calls are counted so tests can assert on them.
type ScriptedSource struct {
	Rate       float64
	Channels   int
	Names      []string
	PrepareErr error

	// Next produces the result of pull number n (0-based, counted across
	// the whole script) once Steps are exhausted.
	Next func(n int) (sensor.Matrix, error)

	mu    sync.Mutex
	steps []Step
	pulls int

	Prepared  atomic.Int32
	Begun     atomic.Int32
	Ended     atomic.Int32
	Released  atomic.Int32
	PullCalls atomic.Int32
}

// NewScriptedSource returns a source with the given shape and script.
func NewScriptedSource(rate float64, channels int, steps ...Step) *ScriptedSource {
	return &ScriptedSource{Rate: rate, Channels: channels, steps: steps}
}

func (s *ScriptedSource) Prepare() error {
	s.Prepared.Add(1)
	return s.PrepareErr
}

func (s *ScriptedSource) BeginStream() error {
	s.Begun.Add(1)
	return nil
}

func (s *ScriptedSource) Pull(int) (sensor.Matrix, error) {
	s.PullCalls.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.pulls
	s.pulls++
	if n < len(s.steps) {
		return s.steps[n].Data, s.steps[n].Err
	}
	if s.Next != nil {
		return s.Next(n)
	}
	return sensor.NewMatrix(s.Channels, 0), nil
}

func (s *ScriptedSource) EndStream() error {
	s.Ended.Add(1)
	return nil
}

func (s *ScriptedSource) Release() error {
	s.Released.Add(1)
	return nil
}

func (s *ScriptedSource) SampleRate() float64 { return s.Rate }

func (s *ScriptedSource) ChannelCount() int { return s.Channels }

func (s *ScriptedSource) ChannelNames() []string { return s.Names }
