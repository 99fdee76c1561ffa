package sensor

import (
	"errors"
	"io"
	"slices"
	"testing"
)

type namedSource struct {
	names []string
	eeg   []int
}

func (namedSource) Prepare() error { return nil }
func (namedSource) BeginStream() error { return nil }
func (namedSource) Pull(int) (Matrix, error) { return nil, nil }
func (namedSource) EndStream() error { return nil }
func (namedSource) Release() error { return nil }
func (namedSource) SampleRate() float64 { return 250 }
func (s namedSource) ChannelCount() int { return 3 }
func (s namedSource) ChannelNames() []string { return s.names }
func (s namedSource) EEGChannels() []int { return s.eeg }

func TestMatrixShape(t *testing.T) {
	m := NewMatrix(3, 5)
	if m.Channels() != 3 || m.Samples() != 5 {
		t.Fatalf("shape = %dx%d, want 3x5", m.Channels(), m.Samples())
	}
	if (Matrix{}).Samples() != 0 {
		t.Fatal("empty matrix must report 0 samples")
	}

	m[2][0] = 7
	sub := m.Rows([]int{2, 0})
	if sub.Channels() != 2 || sub[0][0] != 7 {
		t.Fatalf("Rows returned %v", sub)
	}
}

func TestChannelNamesFallback(t *testing.T) {
	src := namedSource{}
	if got, want := ChannelNames(src), []string{"0", "1", "2"}; !slices.Equal(got, want) {
		t.Fatalf("ChannelNames = %v, want %v", got, want)
	}

	src.names = []string{"Fz", "Cz", "Pz"}
	if got := ChannelNames(src); !slices.Equal(got, src.names) {
		t.Fatalf("ChannelNames = %v, want %v", got, src.names)
	}
}

func TestEEGChannels(t *testing.T) {
	if got, want := EEGChannels(namedSource{}), []int{0, 1, 2}; !slices.Equal(got, want) {
		t.Fatalf("EEGChannels = %v, want %v", got, want)
	}
	if got, want := EEGChannels(namedSource{eeg: []int{1, 2}}), []int{1, 2}; !slices.Equal(got, want) {
		t.Fatalf("EEGChannels = %v, want %v", got, want)
	}
}

func TestErrorClassification(t *testing.T) {
	fatal := Fatal(io.ErrUnexpectedEOF)
	if !IsFatal(fatal) || IsTransient(fatal) {
		t.Fatal("Fatal error misclassified")
	}
	if !errors.Is(fatal, io.ErrUnexpectedEOF) {
		t.Fatal("Fatal must keep the cause in the chain")
	}

	transient := Transient(io.ErrShortBuffer)
	if IsFatal(transient) || !IsTransient(transient) || !errors.Is(transient, ErrTransient) {
		t.Fatal("Transient error misclassified")
	}

	if !IsTransient(errors.New("unmarked")) {
		t.Fatal("unmarked errors default to transient")
	}
	if IsTransient(nil) || Fatal(nil) != nil || Transient(nil) != nil {
		t.Fatal("nil handling broken")
	}
}
