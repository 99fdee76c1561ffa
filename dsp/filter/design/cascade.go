package design

import (
	"fmt"
	"math"

	"github.com/cwbudde/neurotone/dsp/filter/biquad"
)

// ButterworthLP designs a lowpass Butterworth cascade.
//
// For odd orders, the final section is first-order (B2=A2=0).
func ButterworthLP(freq float64, order int, sampleRate float64) []biquad.Coefficients {
	if order <= 0 {
		return nil
	}
	if _, ok := normalizedW0(freq, sampleRate); !ok {
		return nil
	}

	sections := make([]biquad.Coefficients, 0, (order+1)/2)
	for i := order/2 - 1; i >= 0; i-- {
		sections = append(sections, Lowpass(freq, butterworthQ(order, i), sampleRate))
	}
	if order%2 != 0 {
		k := math.Tan(math.Pi * freq / sampleRate)
		norm := 1 / (1 + k)
		sections = append(sections, biquad.Coefficients{B0: k * norm, B1: k * norm, A1: (k - 1) * norm})
	}
	return sections
}

// ButterworthHP designs a highpass Butterworth cascade.
//
// For odd orders, the final section is first-order (B2=A2=0).
func ButterworthHP(freq float64, order int, sampleRate float64) []biquad.Coefficients {
	if order <= 0 {
		return nil
	}
	if _, ok := normalizedW0(freq, sampleRate); !ok {
		return nil
	}

	sections := make([]biquad.Coefficients, 0, (order+1)/2)
	for i := order/2 - 1; i >= 0; i-- {
		sections = append(sections, Highpass(freq, butterworthQ(order, i), sampleRate))
	}
	if order%2 != 0 {
		k := math.Tan(math.Pi * freq / sampleRate)
		norm := 1 / (1 + k)
		sections = append(sections, biquad.Coefficients{B0: norm, B1: -norm, A1: (k - 1) * norm})
	}
	return sections
}

// ButterworthBandpass designs a band-pass cascade for [lowHz, highHz] made of
// a highpass at lowHz followed by a lowpass at highHz, each of the given order.
//
// An edge at or below 0 Hz drops the highpass stage and an edge at or above
// Nyquist drops the lowpass stage, so a band may degrade to a one-sided
// filter (or to no sections at all for a band covering the whole spectrum).
func ButterworthBandpass(lowHz, highHz float64, order int, sampleRate float64) ([]biquad.Coefficients, error) {
	if sampleRate <= 0 || order <= 0 {
		return nil, fmt.Errorf("%w: sampleRate=%v order=%d", ErrInvalidParams, sampleRate, order)
	}
	if math.IsNaN(lowHz) || math.IsNaN(highHz) || lowHz >= highHz {
		return nil, fmt.Errorf("%w: band [%v, %v] Hz", ErrInvalidParams, lowHz, highHz)
	}

	nyquist := sampleRate / 2
	if lowHz >= nyquist {
		return nil, fmt.Errorf("%w: band [%v, %v] Hz starts above Nyquist %v", ErrInvalidParams, lowHz, highHz, nyquist)
	}

	var sections []biquad.Coefficients
	if lowHz > 0 {
		sections = append(sections, ButterworthHP(lowHz, order, sampleRate)...)
	}
	if highHz < nyquist {
		sections = append(sections, ButterworthLP(highHz, order, sampleRate)...)
	}

	return sections, nil
}

func butterworthQ(order, index int) float64 {
	theta := math.Pi * float64(2*index+1) / (2 * float64(order))
	s := math.Sin(theta)
	if s == 0 {
		return defaultQ
	}
	return 1 / (2 * s)
}
