package window

import (
	"errors"
	"math"
	"testing"
)

func TestGenerateShapes(t *testing.T) {
	for _, typ := range []Type{TypeRectangular, TypeHann, TypeHamming, TypeBlackman} {
		t.Run(typ.String(), func(t *testing.T) {
			w := Generate(typ, 65)
			if len(w) != 65 {
				t.Fatalf("len=%d, want 65", len(w))
			}
			if math.Abs(w[32]-1) > 1e-12 {
				t.Fatalf("center = %v, want 1", w[32])
			}
			for i := range w {
				if math.Abs(w[i]-w[len(w)-1-i]) > 1e-12 {
					t.Fatalf("not symmetric at %d", i)
				}
			}
		})
	}
}

func TestGenerateHannEndpoints(t *testing.T) {
	w := Generate(TypeHann, 16)
	if math.Abs(w[0]) > 1e-15 || math.Abs(w[15]) > 1e-15 {
		t.Fatalf("symmetric Hann endpoints = %v, %v, want 0", w[0], w[15])
	}

	p := Generate(TypeHann, 16, WithPeriodic())
	if math.Abs(p[8]-1) > 1e-12 {
		t.Fatalf("periodic Hann peak = %v, want 1 at N/2", p[8])
	}
}

func TestGenerateDegenerateSizes(t *testing.T) {
	if Generate(TypeHann, 0) != nil {
		t.Fatal("size 0 must yield nil")
	}
	if w := Generate(TypeHann, 1); len(w) != 1 || w[0] != 1 {
		t.Fatalf("size 1 = %v, want [1]", w)
	}
}

func TestApplyAndPowerGain(t *testing.T) {
	buf := []float64{2, 2, 2, 2}
	Apply(buf, Generate(TypeRectangular, 4))
	for _, v := range buf {
		if v != 2 {
			t.Fatalf("rectangular window altered samples: %v", buf)
		}
	}

	buf = []float64{1, 1, 1, 1, 1}
	Apply(buf, Generate(TypeHann, 3))
	want := []float64{0, 1, 0, 1, 1}
	for i := range want {
		if math.Abs(buf[i]-want[i]) > 1e-12 {
			t.Fatalf("Hann(3) applied to a longer buffer: got %v want %v", buf, want)
		}
	}

	if got := PowerGain(Generate(TypeRectangular, 8)); got != 8 {
		t.Fatalf("PowerGain = %v, want 8", got)
	}
}

func TestParseType(t *testing.T) {
	typ, err := ParseType(" Hann ")
	if err != nil || typ != TypeHann {
		t.Fatalf("ParseType = %v, %v", typ, err)
	}
	if _, err := ParseType("kaiser"); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("err = %v, want ErrUnknownType", err)
	}
}
