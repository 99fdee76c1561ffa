package biquad

import (
	"math"
	"testing"
)

// onePole is y[n] = 0.5*x[n] + 0.5*y[n-1].
var onePole = Coefficients{B0: 0.5, A1: -0.5}

func TestRunImpulseResponse(t *testing.T) {
	buf := make([]float64, 6)
	buf[0] = 1
	onePole.Run(buf)

	for n, got := range buf {
		want := math.Pow(0.5, float64(n+1))
		if math.Abs(got-want) > 1e-15 {
			t.Fatalf("h[%d] = %v, want %v", n, got, want)
		}
	}
}

func TestRunStartsFromRest(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{1, 2, 3}
	onePole.Run(a)
	onePole.Run(b)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("index %d: %v != %v", i, a[i], b[i])
		}
	}
}

func TestChainCascadesSetsInOrder(t *testing.T) {
	half := []Coefficients{{B0: 0.5}}
	c := NewChain(half, half, []Coefficients{{B0: 4}})
	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}

	buf := []float64{1, 2}
	c.Filter(buf)
	if buf[0] != 1 || buf[1] != 2 {
		t.Fatalf("Filter = %v", buf)
	}
	if db := c.MagnitudeDB(100, 1000); math.Abs(db) > 1e-12 {
		t.Fatalf("MagnitudeDB = %v, want 0", db)
	}
}

func TestFilterZeroPhaseIsSymmetric(t *testing.T) {
	const n, mid = 201, 100
	buf := make([]float64, n)
	buf[mid] = 1

	NewChain([]Coefficients{onePole}).FilterZeroPhase(buf)

	peak := 0
	for i := range buf {
		if buf[i] > buf[peak] {
			peak = i
		}
	}
	if peak != mid {
		t.Fatalf("peak at %d, want %d", peak, mid)
	}
	for k := 1; k < 50; k++ {
		if d := math.Abs(buf[mid-k] - buf[mid+k]); d > 1e-12 {
			t.Fatalf("asymmetry at offset %d: %v", k, d)
		}
	}
}

func TestStable(t *testing.T) {
	tests := []struct {
		c    Coefficients
		want bool
	}{
		{onePole, true},
		{Coefficients{B0: 1, A1: -1.9, A2: 0.95}, true},
		{Coefficients{B0: 1, A1: -2.1, A2: 1.1}, false},
		{Coefficients{B0: 1, A2: -1}, false},
	}
	for _, tt := range tests {
		if got := tt.c.Stable(); got != tt.want {
			t.Errorf("%+v.Stable() = %v, want %v", tt.c, got, tt.want)
		}
	}

	if NewChain([]Coefficients{tests[0].c, tests[2].c}).Stable() {
		t.Fatal("chain with an unstable section reported stable")
	}
}
