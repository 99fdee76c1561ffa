package spectrum

import (
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/neurotone/dsp/buffer"
)

// split holds the real and imaginary planes handed to vecmath.Power.
var split = buffer.NewPool()

// Power returns |X[k]|^2 for each complex spectrum bin.
func Power(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	PowerInto(out, in)
	return out
}

// PowerInto writes |X[k]|^2 for each bin of in into dst.
// dst must be at least as long as in.
func PowerInto(dst []float64, in []complex128) {
	if len(in) == 0 {
		return
	}

	n := len(in)
	planes := split.Get(2 * n)
	defer split.Put(planes)

	re, im := planes.Samples()[:n], planes.Samples()[n:]
	for i, c := range in {
		re[i], im[i] = real(c), imag(c)
	}
	vecmath.Power(dst[:n], re, im)
}

// BinWidth returns the frequency spacing in Hz of an fftSize-point transform.
func BinWidth(fftSize int, sampleRate float64) float64 {
	if fftSize <= 0 {
		return 0
	}
	return sampleRate / float64(fftSize)
}

// BinRange returns the inclusive one-sided bin range [first, last] whose
// center frequencies fall within [lowHz, highHz]. ok is false when the band
// contains no bin.
func BinRange(lowHz, highHz float64, fftSize int, sampleRate float64) (first, last int, ok bool) {
	df := BinWidth(fftSize, sampleRate)
	if df <= 0 || lowHz > highHz {
		return 0, 0, false
	}

	maxBin := fftSize / 2
	first = int(math.Ceil(lowHz / df))
	last = int(math.Floor(highHz / df))
	first = max(first, 0)
	last = min(last, maxBin)

	if first > last {
		return 0, 0, false
	}
	return first, last, true
}
