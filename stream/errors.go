package stream

import (
	"errors"
	"fmt"
)

// ErrConfig is the parent of all window configuration errors.
var ErrConfig = errors.New("stream: invalid window configuration")

var (
	// ErrInvalidWindow reports a non-positive window length.
	ErrInvalidWindow = fmt.Errorf("%w: window must be positive", ErrConfig)

	// ErrInvalidOverlap reports a negative overlap or one not shorter than the window.
	ErrInvalidOverlap = fmt.Errorf("%w: overlap must be in [0, window)", ErrConfig)

	// ErrOverlapExceedsWindow reports an overlap that reaches the window
	// length once both are converted to samples.
	ErrOverlapExceedsWindow = fmt.Errorf("%w: overlap samples must be less than window samples", ErrConfig)

	// ErrInvalidSampleRate reports a non-positive or non-finite sample rate.
	ErrInvalidSampleRate = fmt.Errorf("%w: sample rate must be positive", ErrConfig)
)

// ErrChannelMismatch reports a chunk whose channel count (or row lengths)
// does not match the buffer it is appended to.
var ErrChannelMismatch = errors.New("stream: channel count mismatch")
