package core

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name      string
		v, lo, hi float64
		want      float64
	}{
		{"inside", 0.5, 0, 1, 0.5},
		{"below", -2, 0, 1, 0},
		{"above", 3, 0, 1, 1},
		{"swapped bounds", 3, 1, 0, 1},
		{"nan", math.NaN(), 0, 1, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Clamp(tc.v, tc.lo, tc.hi); got != tc.want {
				t.Fatalf("Clamp(%v, %v, %v) = %v, want %v", tc.v, tc.lo, tc.hi, got, tc.want)
			}
		})
	}
}

func TestClampInt(t *testing.T) {
	if got := ClampInt(128, 0, 127); got != 127 {
		t.Fatalf("ClampInt = %d, want 127", got)
	}
	if got := ClampInt(-1, 127, 0); got != 0 {
		t.Fatalf("ClampInt = %d, want 0", got)
	}
}

func TestNearlyEqual(t *testing.T) {
	if !NearlyEqual(1, 1+1e-13, 0) {
		t.Fatal("expected values within default epsilon to be equal")
	}
	if NearlyEqual(1, 1.1, 1e-6) {
		t.Fatal("expected distinct values to differ")
	}
}

func TestMeanRMSAndRemoveMean(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	if got := Mean(x); got != 2.5 {
		t.Fatalf("Mean = %v, want 2.5", got)
	}
	if got := RMS([]float64{3, -3, 3, -3}); got != 3 {
		t.Fatalf("RMS = %v, want 3", got)
	}

	RemoveMean(x)
	if got := Mean(x); math.Abs(got) > 1e-15 {
		t.Fatalf("mean after RemoveMean = %v, want 0", got)
	}
	if Mean(nil) != 0 || RMS(nil) != 0 {
		t.Fatal("empty input must yield 0")
	}
}
