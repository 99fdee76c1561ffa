package stream

import "github.com/cwbudde/neurotone/analysis"

// ProcessWindow returns, for every channel of w, the alpha power relative
// to the broadband reference power.
func ProcessWindow(w Window, sampleRate float64, a analysis.Analyzer) []float64 {
	out := make([]float64, w.Channels())
	for ch := range out {
		out[ch] = analysis.RelativePower(a, w.data[ch], sampleRate, analysis.Alpha)
	}
	return out
}
