// Package analysis reduces a single channel of samples to band power.
//
// Two [Analyzer] implementations are provided. [BandpassRMS] removes the
// DC offset, runs a 4th-order Butterworth band-pass and returns the RMS of
// the result. [Welch] estimates the power spectral density with averaged,
// Hann-windowed periodograms and integrates it over the band.
//
// Both are pure: the same input always produces the same output and no
// state survives between calls, so a single value may be shared by
// concurrent readers.
package analysis
