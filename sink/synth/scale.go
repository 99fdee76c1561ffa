package synth

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Scale is a closed set of musical scales built on A.
type Scale int

const (
	Pentatonic Scale = iota
	Major
	Minor
	Chromatic
)

// ErrUnknownScale is returned by ParseScale for unsupported names.
var ErrUnknownScale = errors.New("synth: unknown scale")

// DefaultBaseA is the reference A used for scale frequencies.
const DefaultBaseA = 425.0

var scales = [...]struct {
	name      string
	semitones []int
}{
	Pentatonic: {"pentatonic", []int{0, 3, 5, 7, 10}},
	Major:      {"major", []int{0, 2, 4, 5, 7, 9, 11}},
	Minor:      {"minor", []int{0, 2, 3, 5, 7, 8, 10}},
	Chromatic:  {"chromatic", []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}},
}

func (s Scale) String() string {
	if s < Pentatonic || s > Chromatic {
		return fmt.Sprintf("Scale(%d)", int(s))
	}
	return scales[s].name
}

// ParseScale resolves a case-insensitive scale name.
func ParseScale(name string) (Scale, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, info := range scales {
		if info.name == name {
			return Scale(s), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScale, name)
}

// Frequency returns the equal-tempered frequency semitones away from baseA.
func Frequency(baseA float64, semitones int) float64 {
	return baseA * math.Pow(2, float64(semitones)/12)
}

// ScaleFrequencies returns the frequencies of one octave of s, built on
// baseA shifted by octaveShift octaves.
func ScaleFrequencies(s Scale, baseA float64, octaveShift int) ([]float64, error) {
	if s < Pentatonic || s > Chromatic {
		return nil, fmt.Errorf("%w: %v", ErrUnknownScale, s)
	}

	base := baseA * math.Pow(2, float64(octaveShift))
	out := make([]float64, len(scales[s].semitones))
	for i, st := range scales[s].semitones {
		out[i] = Frequency(base, st)
	}
	return out, nil
}

// NoteFrequency returns the frequency of a MIDI note with A4 (69) at 440 Hz.
func NoteFrequency(note uint8) float64 {
	return Frequency(440, int(note)-69)
}
