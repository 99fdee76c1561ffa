// Package window generates tapering windows applied to analysis segments
// before spectral estimation.
package window

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeHamming
	TypeBlackman
)

var typeNames = map[Type]string{
	TypeRectangular: "rectangular",
	TypeHann:        "hann",
	TypeHamming:     "hamming",
	TypeBlackman:    "blackman",
}

// ErrUnknownType is returned by ParseType for names outside the known set.
var ErrUnknownType = errors.New("window: unknown type")

// String returns the lower-case window name.
func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType resolves a window name such as "hann".
func ParseType(name string) (Type, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// Option configures window generation.
type Option func(*config)

type config struct {
	periodic bool
}

// WithPeriodic configures periodic form (FFT framing) instead of symmetric form.
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

// Generate returns size coefficients of the given window.
// Unknown types produce a rectangular window.
func Generate(t Type, size int, opts ...Option) []float64 {
	if size <= 0 {
		return nil
	}

	var cfg config
	for _, o := range opts {
		o(&cfg)
	}

	out := make([]float64, size)
	if size == 1 {
		out[0] = 1
		return out
	}

	denom := float64(size - 1)
	if cfg.periodic {
		denom = float64(size)
	}

	for i := range out {
		x := 2 * math.Pi * float64(i) / denom
		switch t {
		case TypeHann:
			out[i] = 0.5 - 0.5*math.Cos(x)
		case TypeHamming:
			out[i] = 0.54 - 0.46*math.Cos(x)
		case TypeBlackman:
			out[i] = 0.42 - 0.5*math.Cos(x) + 0.08*math.Cos(2*x)
		default:
			out[i] = 1
		}
	}

	return out
}

// Apply multiplies buf in place by coeffs, as returned by Generate. Only
// the first min(len(buf), len(coeffs)) samples are touched.
func Apply(buf, coeffs []float64) {
	n := min(len(buf), len(coeffs))
	if n == 0 {
		return
	}
	vecmath.MulBlockInPlace(buf[:n], coeffs[:n])
}

// PowerGain returns sum(w[n]^2), the normalization used for power
// spectral density estimates.
func PowerGain(coeffs []float64) float64 {
	sum := 0.0
	for _, c := range coeffs {
		sum += c * c
	}
	return sum
}
