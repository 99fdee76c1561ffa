package tone

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/neurotone/dsp/core"
)

// MaxControl is the largest control value a sink accepts.
const MaxControl = 127

// Notes is the C major pentatonic scale starting at middle C, as MIDI note
// numbers.
var Notes = [...]uint8{60, 62, 64, 67, 69, 72, 74, 76}

// ErrInvalidRange is returned for control ranges outside [0, 127] or with
// Low above High.
var ErrInvalidRange = errors.New("tone: invalid control range")

// ControlRange is the span of control values a normalized ratio maps into.
type ControlRange struct {
	Low  uint8
	High uint8
}

// DefaultControlRange keeps voices in the upper half of the volume range.
var DefaultControlRange = ControlRange{Low: 64, High: MaxControl}

// Validate checks Low <= High <= MaxControl.
func (r ControlRange) Validate() error {
	if r.Low > r.High || r.High > MaxControl {
		return fmt.Errorf("%w: [%d, %d]", ErrInvalidRange, r.Low, r.High)
	}
	return nil
}

// Map converts a ratio in [0, 1] into the range. The range is split into
// High-Low+1 equal steps, so 0 maps to Low and 1 maps to High. Ratios
// outside [0, 1] and NaN are clamped.
func (r ControlRange) Map(ratio float64) uint8 {
	ratio = core.Clamp(ratio, 0, 1)
	span := float64(int(r.High) - int(r.Low) + 1)
	v := int(r.Low) + int(ratio*span)
	return uint8(core.ClampInt(v, int(r.Low), int(r.High)))
}

// RatioToControl maps a ratio in [0, 1] onto the full [0, 127] control
// range, clipping values outside it.
func RatioToControl(ratio float64) uint8 {
	if math.IsNaN(ratio) {
		return 0
	}
	return uint8(core.Clamp(ratio*MaxControl, 0, MaxControl))
}

// Normalizer tracks the running maximum of a power series. The maximum is
// seeded by the first observation and never decreases.
type Normalizer struct {
	max    float64
	seeded bool
}

// Observe records v and returns v divided by the running maximum, clamped
// to [0, 1]. NaN observations are ignored and yield 0. While the maximum is
// not positive the ratio is 0.
func (n *Normalizer) Observe(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}

	if !n.seeded || v > n.max {
		n.max = v
		n.seeded = true
	}
	if n.max <= 0 {
		return 0
	}
	return core.Clamp(v/n.max, 0, 1)
}

// Max returns the running maximum, or 0 before the first observation.
func (n *Normalizer) Max() float64 { return n.max }
