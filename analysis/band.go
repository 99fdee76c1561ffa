package analysis

import (
	"errors"
	"fmt"
	"strings"
)

// Band is one of the classic EEG frequency bands.
type Band int

const (
	Delta Band = iota
	Theta
	Alpha
	Beta
	Gamma
	All
)

// ErrUnknownBand is returned by ParseBand for names outside the known set.
var ErrUnknownBand = errors.New("analysis: unknown band")

var bandInfo = [...]struct {
	name string
	low  float64
	high float64
}{
	Delta: {"delta", 0.5, 4},
	Theta: {"theta", 4, 8},
	Alpha: {"alpha", 8, 13},
	Beta:  {"beta", 13, 30},
	Gamma: {"gamma", 30, 100},
	All:   {"all", 0.5, 100},
}

// Bands returns every band in declaration order.
func Bands() []Band {
	return []Band{Delta, Theta, Alpha, Beta, Gamma, All}
}

// Valid reports whether b is a known band.
func (b Band) Valid() bool {
	return b >= Delta && b <= All
}

// Range returns the band edges in Hz.
func (b Band) Range() (lowHz, highHz float64) {
	if !b.Valid() {
		return 0, 0
	}
	return bandInfo[b].low, bandInfo[b].high
}

// String returns the lower-case band name.
func (b Band) String() string {
	if !b.Valid() {
		return fmt.Sprintf("Band(%d)", int(b))
	}
	return bandInfo[b].name
}

// ParseBand resolves a case-insensitive band name such as "Alpha".
func ParseBand(name string) (Band, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, b := range Bands() {
		if bandInfo[b].name == name {
			return b, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBand, name)
}

// clipBand limits [low, high] to (0, nyquist). ok is false when nothing of
// the band is left.
func clipBand(lowHz, highHz, sampleRate float64) (lo, hi float64, ok bool) {
	nyquist := sampleRate / 2
	lo = max(lowHz, 0)
	hi = min(highHz, nyquist*0.99)
	return lo, hi, hi > lo
}
