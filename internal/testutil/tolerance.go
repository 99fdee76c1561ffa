package testutil

import (
	"math"
	"testing"

	"github.com/cwbudde/neurotone/sensor"
)

// RequireSliceNearlyEqual fails tb unless got and want have the same length
// and every pair differs by at most eps.
func RequireSliceNearlyEqual(tb testing.TB, got, want []float64, eps float64) {
	tb.Helper()
	if len(got) != len(want) {
		tb.Fatalf("length %d, want %d", len(got), len(want))
	}

	bad, first := 0, -1
	for i := range got {
		if math.Abs(got[i]-want[i]) > eps {
			if first < 0 {
				first = i
			}
			bad++
		}
	}
	if bad > 0 {
		tb.Fatalf("%d of %d samples off by more than %v; first at %d: got %v, want %v",
			bad, len(got), eps, first, got[first], want[first])
	}
}

// RequireMatrixNearlyEqual applies RequireSliceNearlyEqual row by row.
func RequireMatrixNearlyEqual(tb testing.TB, got, want sensor.Matrix, eps float64) {
	tb.Helper()
	if got.Channels() != want.Channels() {
		tb.Fatalf("%d channels, want %d", got.Channels(), want.Channels())
	}
	for ch := range got {
		RequireSliceNearlyEqual(tb, got[ch], want[ch], eps)
	}
}

// RequireFinite fails tb on the first NaN or Inf.
func RequireFinite(tb testing.TB, data []float64) {
	tb.Helper()
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			tb.Fatalf("sample %d is %v", i, v)
		}
	}
}
