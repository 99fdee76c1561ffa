// Package testutil holds deterministic signals, tolerance assertions and a
// scripted sensor source shared by package tests.
package testutil

import (
	"math"
	"math/rand"

	"github.com/cwbudde/neurotone/sensor"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Counter returns a matrix whose sample values encode their absolute
// position: m[ch][i] = ch*1e6 + start + i. Windows cut from a stream of
// Counter chunks can be checked for continuity and overlap exactly.
func Counter(channels, start, length int) sensor.Matrix {
	m := sensor.NewMatrix(channels, length)
	for ch := range m {
		for i := range m[ch] {
			m[ch][i] = float64(ch*1_000_000 + start + i)
		}
	}
	return m
}
