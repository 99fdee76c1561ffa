// Package biquad runs cascades of second-order IIR sections over sample
// windows. Sections carry no state between calls; every Filter starts from
// rest, which suits windowed band-power analysis. Coefficient design lives
// in dsp/filter/design.
package biquad
