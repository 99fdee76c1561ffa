// Package tone turns band power readings into audio control values.
//
// A [Voice] binds one (band, channel) pair of a power source to a voice
// claimed on a [Sink]. Its goroutine reads the current power, normalizes it
// against a running maximum that only ever grows, maps the ratio into a
// [ControlRange] and pushes the control value whenever it changes.
package tone
