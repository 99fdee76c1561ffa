package analysis

import "slices"

// Features summarizes a power spectral density.
type Features struct {
	PeakFrequency float64
	MeanPower     float64
	MedianPower   float64
	PeakPower     float64
	PowerVariance float64
	PSD           PSD
}

// SpectralFeatures computes summary statistics of the Welch PSD of samples.
func SpectralFeatures(w Welch, samples []float64, sampleRate float64) (Features, error) {
	psd, err := w.PSD(samples, sampleRate)
	if err != nil {
		return Features{}, err
	}

	p := psd.Power
	f := Features{PSD: psd}

	peak := 0
	sum := 0.0
	for i, v := range p {
		sum += v
		if v > p[peak] {
			peak = i
		}
	}

	n := float64(len(p))
	f.PeakFrequency = psd.Freqs[peak]
	f.PeakPower = p[peak]
	f.MeanPower = sum / n

	variance := 0.0
	for _, v := range p {
		d := v - f.MeanPower
		variance += d * d
	}
	f.PowerVariance = variance / n

	sorted := slices.Clone(p)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		f.MedianPower = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		f.MedianPower = sorted[mid]
	}

	return f, nil
}
