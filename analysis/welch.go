package analysis

import (
	"errors"
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
	"github.com/cwbudde/neurotone/dsp/buffer"
	"github.com/cwbudde/neurotone/dsp/core"
	"github.com/cwbudde/neurotone/dsp/spectrum"
	"github.com/cwbudde/neurotone/dsp/window"
)

// MinSegment is the smallest Welch segment length. Shorter inputs are
// zero-padded to this length.
const MinSegment = 64

// ErrEmptyInput is returned by PSD for an empty sample slice.
var ErrEmptyInput = errors.New("analysis: empty input")

var scratch = buffer.NewPool()

// PSD is a one-sided power spectral density estimate.
type PSD struct {
	// Freqs holds the center frequency of each bin in Hz.
	Freqs []float64
	// Power holds the density of each bin in units^2/Hz.
	Power []float64
	// SegmentSize is the FFT length used per segment.
	SegmentSize int
	// Segments is the number of averaged periodograms.
	Segments int
	// SampleRate is the rate the estimate was computed for.
	SampleRate float64
}

// BinWidth returns the spacing between bins in Hz.
func (p PSD) BinWidth() float64 {
	if len(p.Freqs) < 2 {
		return 0
	}
	return p.Freqs[1] - p.Freqs[0]
}

// Welch estimates band power by integrating a Welch power spectral density.
// The zero value uses a Hann window.
type Welch struct {
	// Window tapers each segment. The zero value is rectangular, so
	// NewWelch should be preferred.
	Window window.Type
}

// NewWelch returns a Hann-windowed Welch analyzer.
func NewWelch() Welch {
	return Welch{Window: window.TypeHann}
}

// SegmentSize returns the segment length used for n samples: the largest
// power of two not exceeding n, but at least MinSegment.
func SegmentSize(n int) int {
	nfft := MinSegment
	for nfft*2 <= n {
		nfft *= 2
	}
	return nfft
}

// PSD computes the one-sided Welch estimate of samples with 50% overlapping
// segments. The input is detrended first and is not modified.
func (w Welch) PSD(samples []float64, sampleRate float64) (PSD, error) {
	if len(samples) == 0 {
		return PSD{}, ErrEmptyInput
	}
	if !(sampleRate > 0) {
		return PSD{}, fmt.Errorf("analysis: invalid sample rate %v", sampleRate)
	}

	nfft := SegmentSize(len(samples))
	step := nfft - nfft/2
	bins := nfft/2 + 1

	data := scratch.Get(max(len(samples), nfft))
	defer scratch.Put(data)
	x := data.Samples()
	copy(x, samples)
	core.RemoveMean(x[:len(samples)])

	plan, err := algofft.NewPlan64(nfft)
	if err != nil {
		return PSD{}, fmt.Errorf("analysis: fft plan: %w", err)
	}

	coeffs := window.Generate(w.Window, nfft, window.WithPeriodic())
	in := make([]complex128, nfft)
	out := make([]complex128, nfft)

	acc := scratch.Get(bins)
	defer scratch.Put(acc)
	seg := scratch.Get(bins)
	defer scratch.Put(seg)
	frame := scratch.Get(nfft)
	defer scratch.Put(frame)

	segments := 0
	for start := 0; start+nfft <= len(x); start += step {
		f := frame.Samples()
		copy(f, x[start:start+nfft])
		window.Apply(f, coeffs)
		for i, v := range f {
			in[i] = complex(v, 0)
		}
		if err := plan.Forward(out, in); err != nil {
			return PSD{}, fmt.Errorf("analysis: fft: %w", err)
		}
		spectrum.PowerInto(seg.Samples(), out[:bins])
		vecmath.AddBlockInPlace(acc.Samples(), seg.Samples())
		segments++
	}

	psd := PSD{
		Freqs:       make([]float64, bins),
		Power:       make([]float64, bins),
		SegmentSize: nfft,
		Segments:    segments,
		SampleRate:  sampleRate,
	}

	scale := 1 / (sampleRate * window.PowerGain(coeffs) * float64(segments))
	vecmath.ScaleBlock(psd.Power, acc.Samples(), scale)

	// One-sided: fold negative frequencies into every bin except DC and
	// Nyquist.
	for k := 1; k < bins-1; k++ {
		psd.Power[k] *= 2
	}

	df := spectrum.BinWidth(nfft, sampleRate)
	for k := range psd.Freqs {
		psd.Freqs[k] = float64(k) * df
	}

	return psd, nil
}

// BandPower implements Analyzer by summing the PSD bins inside the band
// and multiplying by the bin width.
func (w Welch) BandPower(samples []float64, sampleRate, lowHz, highHz float64) float64 {
	lo, hi, ok := clipBand(lowHz, highHz, sampleRate)
	if !ok {
		return 0
	}

	psd, err := w.PSD(samples, sampleRate)
	if err != nil {
		return 0
	}

	return psd.Integrate(lo, hi)
}

// Integrate returns the power contained in [lowHz, highHz].
func (p PSD) Integrate(lowHz, highHz float64) float64 {
	first, last, ok := spectrum.BinRange(lowHz, highHz, p.SegmentSize, p.SampleRate)
	if !ok {
		return 0
	}

	sum := 0.0
	for _, v := range p.Power[first : last+1] {
		sum += v
	}
	return sum * p.BinWidth()
}
