package board

import (
	"slices"

	"github.com/cwbudde/neurotone/analysis"
)

// PowerReading maps (channel, band) to a non-negative power value. A
// reading is immutable once published; newer readings replace it rather
// than modify it.
type PowerReading struct {
	names      []string
	bands      []analysis.Band
	values     [][]float64
	generation uint64
}

// NewPowerReading builds a reading from values[channel][band], indexed in
// the order of names and bands. Missing values read as zero.
func NewPowerReading(names []string, bands []analysis.Band, values [][]float64) *PowerReading {
	r := &PowerReading{
		names:  slices.Clone(names),
		bands:  slices.Clone(bands),
		values: make([][]float64, len(names)),
	}
	for ch := range r.values {
		r.values[ch] = make([]float64, len(bands))
		if ch < len(values) {
			copy(r.values[ch], values[ch])
		}
	}
	return r
}

func zeroReading(names []string, bands []analysis.Band) *PowerReading {
	return NewPowerReading(names, bands, nil)
}

// Power returns the power of band on the channel at index ch.
func (r *PowerReading) Power(ch int, band analysis.Band) (float64, bool) {
	if ch < 0 || ch >= len(r.values) {
		return 0, false
	}
	bi := slices.Index(r.bands, band)
	if bi < 0 {
		return 0, false
	}
	return r.values[ch][bi], true
}

// ByName returns the power of band on the named channel.
func (r *PowerReading) ByName(channel string, band analysis.Band) (float64, bool) {
	return r.Power(slices.Index(r.names, channel), band)
}

// Channels returns the channel names in index order.
func (r *PowerReading) Channels() []string { return slices.Clone(r.names) }

// Bands returns the analyzed bands.
func (r *PowerReading) Bands() []analysis.Band { return slices.Clone(r.bands) }

// Generation identifies the snapshot the reading was computed from. It
// increases with every append to the snapshot and is zero before any data
// arrived.
func (r *PowerReading) Generation() uint64 { return r.generation }
