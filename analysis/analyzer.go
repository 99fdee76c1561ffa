package analysis

import (
	"math"

	"github.com/cwbudde/neurotone/dsp/core"
	"github.com/cwbudde/neurotone/dsp/filter/biquad"
	"github.com/cwbudde/neurotone/dsp/filter/design"
)

// Analyzer computes a non-negative power scalar for the [lowHz, highHz]
// band of samples taken at sampleRate. Implementations must be safe for
// concurrent use and must not modify samples.
type Analyzer interface {
	BandPower(samples []float64, sampleRate, lowHz, highHz float64) float64
}

// AnalyzerFunc adapts a plain function to Analyzer.
type AnalyzerFunc func(samples []float64, sampleRate, lowHz, highHz float64) float64

// BandPower calls f.
func (f AnalyzerFunc) BandPower(samples []float64, sampleRate, lowHz, highHz float64) float64 {
	return f(samples, sampleRate, lowHz, highHz)
}

// BandPowerOf is a convenience wrapper that evaluates a for a named band.
func BandPowerOf(a Analyzer, samples []float64, sampleRate float64, b Band) float64 {
	lo, hi := b.Range()
	return a.BandPower(samples, sampleRate, lo, hi)
}

const defaultOrder = 4

// BandpassRMS measures band power as the RMS amplitude of the detrended,
// Butterworth band-pass filtered signal. The zero value uses order 4 and
// a single forward pass.
type BandpassRMS struct {
	// Order of each Butterworth stage. Zero means 4.
	Order int
	// ZeroPhase filters forward and backward, doubling the attenuation.
	ZeroPhase bool
}

// filter designs the band-pass cascade for [lowHz, highHz]. ok is false
// when the band is outside (0, Nyquist) or the design is unusable.
func (a BandpassRMS) filter(lowHz, highHz, sampleRate float64) (*biquad.Chain, bool) {
	if !(sampleRate > 0) {
		return nil, false
	}

	lo, hi, ok := clipBand(lowHz, highHz, sampleRate)
	if !ok {
		return nil, false
	}

	order := a.Order
	if order <= 0 {
		order = defaultOrder
	}

	coeffs, err := design.ButterworthBandpass(lo, hi, order, sampleRate)
	if err != nil {
		return nil, false
	}

	chain := biquad.NewChain(coeffs)
	if !chain.Stable() {
		return nil, false
	}
	return chain, true
}

// BandPower implements Analyzer. Bands that fall outside (0, Nyquist)
// report zero power. The high edge is clipped just below Nyquist.
func (a BandpassRMS) BandPower(samples []float64, sampleRate, lowHz, highHz float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	chain, ok := a.filter(lowHz, highHz, sampleRate)
	if !ok {
		return 0
	}

	filtered := append([]float64(nil), samples...)
	core.RemoveMean(filtered)
	if a.ZeroPhase {
		chain.FilterZeroPhase(filtered)
	} else {
		chain.Filter(filtered)
	}

	return core.RMS(filtered)
}

// GainDB returns the gain in dB that BandPower applies at freqHz for the
// [lowHz, highHz] band. Zero-phase filtering counts twice. Bands that
// BandPower rejects report -Inf.
func (a BandpassRMS) GainDB(lowHz, highHz, sampleRate, freqHz float64) float64 {
	chain, ok := a.filter(lowHz, highHz, sampleRate)
	if !ok {
		return math.Inf(-1)
	}

	g := chain.MagnitudeDB(freqHz, sampleRate)
	if a.ZeroPhase {
		g *= 2
	}
	return g
}
