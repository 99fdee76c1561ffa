package board

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidParams is returned for reader parameters that cannot work.
	ErrInvalidParams = errors.New("board: invalid reader parameters")

	// ErrNotStarted is returned by PowerReading before the first
	// StartReading.
	ErrNotStarted = errors.New("board: reader not started")
)

const (
	// DefaultWindow is the analysis window held in the rolling snapshot.
	DefaultWindow = 500 * time.Millisecond
	// DefaultPoll is the interval between source pulls.
	DefaultPoll = 50 * time.Millisecond
)

// Params configures the acquisition loop.
type Params struct {
	// Window is the duration of history kept for analysis.
	Window time.Duration
	// Poll is the sleep between pulls. Zero pulls back to back.
	Poll time.Duration
}

// DefaultParams returns a 500 ms window polled every 50 ms.
func DefaultParams() Params {
	return Params{Window: DefaultWindow, Poll: DefaultPoll}
}

// Validate checks Window > 0, Poll >= 0 and Poll < Window.
func (p Params) Validate() error {
	switch {
	case p.Window <= 0:
		return fmt.Errorf("%w: window %v must be positive", ErrInvalidParams, p.Window)
	case p.Poll < 0:
		return fmt.Errorf("%w: poll %v must not be negative", ErrInvalidParams, p.Poll)
	case p.Poll >= p.Window:
		return fmt.Errorf("%w: poll %v must be less than window %v", ErrInvalidParams, p.Poll, p.Window)
	}
	return nil
}

// State is the reader lifecycle state.
type State int32

const (
	Stopped State = iota
	Reading
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Reading:
		return "reading"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}
