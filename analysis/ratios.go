package analysis

// ratioGuard keeps ratios finite when the denominator band is silent.
const ratioGuard = 1e-10

// BroadbandLowHz and BroadbandHighHz bound the reference band used for
// relative power.
const (
	BroadbandLowHz  = 1.0
	BroadbandHighHz = 40.0
)

// Ratios holds the common EEG band power ratios.
type Ratios struct {
	AlphaTheta float64
	ThetaBeta  float64
	AlphaBeta  float64
	AlphaDelta float64
}

// BandPowers evaluates a over the five classic bands (All excluded).
func BandPowers(a Analyzer, samples []float64, sampleRate float64) map[Band]float64 {
	out := make(map[Band]float64, 5)
	for _, b := range []Band{Delta, Theta, Alpha, Beta, Gamma} {
		out[b] = BandPowerOf(a, samples, sampleRate, b)
	}
	return out
}

// ComputeRatios returns the alpha/theta, theta/beta, alpha/beta and
// alpha/delta ratios of samples.
func ComputeRatios(a Analyzer, samples []float64, sampleRate float64) Ratios {
	p := BandPowers(a, samples, sampleRate)
	return Ratios{
		AlphaTheta: p[Alpha] / (p[Theta] + ratioGuard),
		ThetaBeta:  p[Theta] / (p[Beta] + ratioGuard),
		AlphaBeta:  p[Alpha] / (p[Beta] + ratioGuard),
		AlphaDelta: p[Alpha] / (p[Delta] + ratioGuard),
	}
}

// RelativePower returns the power of band b divided by the power of the
// broadband reference [BroadbandLowHz, BroadbandHighHz].
func RelativePower(a Analyzer, samples []float64, sampleRate float64, b Band) float64 {
	p := BandPowerOf(a, samples, sampleRate, b)
	total := a.BandPower(samples, sampleRate, BroadbandLowHz, BroadbandHighHz)
	return p / (total + ratioGuard)
}
