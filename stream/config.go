package stream

import (
	"fmt"
	"math"
)

// WindowConfig describes window and overlap lengths in milliseconds.
// The zero value is not valid; use NewWindowConfig.
type WindowConfig struct {
	windowMS  float64
	overlapMS float64
}

// NewWindowConfig validates and returns a window configuration.
func NewWindowConfig(windowMS, overlapMS float64) (WindowConfig, error) {
	if !(windowMS > 0) || math.IsInf(windowMS, 0) {
		return WindowConfig{}, fmt.Errorf("%w: window_ms=%v", ErrInvalidWindow, windowMS)
	}
	if !(overlapMS >= 0) || overlapMS >= windowMS {
		return WindowConfig{}, fmt.Errorf("%w: overlap_ms=%v window_ms=%v", ErrInvalidOverlap, overlapMS, windowMS)
	}

	return WindowConfig{windowMS: windowMS, overlapMS: overlapMS}, nil
}

// WindowMS returns the window length in milliseconds.
func (c WindowConfig) WindowMS() float64 { return c.windowMS }

// OverlapMS returns the overlap length in milliseconds.
func (c WindowConfig) OverlapMS() float64 { return c.overlapMS }

// ToSamples converts the configuration to (window, overlap) sample counts at
// sampleRate. Fractional samples are truncated, so 550 ms at 250 Hz is 137
// samples.
func (c WindowConfig) ToSamples(sampleRate float64) (window, overlap int, err error) {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return 0, 0, fmt.Errorf("%w: %v", ErrInvalidSampleRate, sampleRate)
	}
	if c.windowMS <= 0 {
		return 0, 0, fmt.Errorf("%w: window_ms=%v", ErrInvalidWindow, c.windowMS)
	}

	window = int(sampleRate * c.windowMS / 1000)
	overlap = int(sampleRate * c.overlapMS / 1000)
	if overlap >= window {
		return 0, 0, fmt.Errorf("%w: %d >= %d at %v Hz", ErrOverlapExceedsWindow, overlap, window, sampleRate)
	}

	return window, overlap, nil
}

// String implements fmt.Stringer.
func (c WindowConfig) String() string {
	return fmt.Sprintf("window=%gms overlap=%gms", c.windowMS, c.overlapMS)
}
