package synth

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Waveform selects an oscillator shape.
type Waveform int

const (
	Sine Waveform = iota
	Square
	Sawtooth
	Triangle
)

// ErrUnknownWaveform is returned by ParseWaveform for unsupported names.
var ErrUnknownWaveform = errors.New("synth: unknown waveform")

var waveformNames = [...]string{
	Sine:     "sine",
	Square:   "square",
	Sawtooth: "sawtooth",
	Triangle: "triangle",
}

func (w Waveform) String() string {
	if w < Sine || w > Triangle {
		return fmt.Sprintf("Waveform(%d)", int(w))
	}
	return waveformNames[w]
}

// ParseWaveform resolves a case-insensitive waveform name.
func ParseWaveform(name string) (Waveform, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for w, n := range waveformNames {
		if n == name {
			return Waveform(w), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownWaveform, name)
}

// At returns the waveform value in [-1, 1] at phase, measured in cycles.
// Only the fractional part of phase matters.
func (w Waveform) At(phase float64) float64 {
	frac := phase - math.Floor(phase)
	switch w {
	case Square:
		if frac < 0.5 {
			return 1
		}
		return -1
	case Sawtooth:
		return 2 * (phase - math.Floor(phase+0.5))
	case Triangle:
		return 2*math.Abs(2*(phase-math.Floor(phase+0.5))) - 1
	default:
		return math.Sin(2 * math.Pi * frac)
	}
}
