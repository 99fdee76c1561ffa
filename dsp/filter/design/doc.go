// Package design computes biquad coefficients for the Butterworth filters
// used to isolate EEG frequency bands.
//
// Single sections follow the RBJ audio-EQ cookbook. Higher orders are built
// as cascades of second-order sections with Butterworth Q values, plus a
// first-order section for odd orders.
package design
