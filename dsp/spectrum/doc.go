// Package spectrum provides FFT-adjacent spectrum-domain utilities.
//
// The package does not implement FFT itself. It converts complex bins
// produced by an FFT backend into power values and maps frequency bands
// onto one-sided bin ranges.
package spectrum
