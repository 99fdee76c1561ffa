// Package synth is a small software synthesizer that implements tone.Sink.
//
// Every claimed voice is an oscillator with a closed [Waveform] kind, tuned
// to its MIDI note. Control values set the oscillator amplitude, which is
// smoothed per sample to avoid zipper noise. A [Synth] is an io.Reader of
// mono float32 little-endian samples, so it can be handed directly to an
// audio device through [Play].
package synth
