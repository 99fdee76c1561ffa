// Package board runs a background acquisition loop over a sensor source and
// publishes per-channel, per-band power readings to any number of
// concurrent consumers.
//
// A [Reader] owns its [sensor.Source] between StartReading and StopReading.
// One goroutine polls the source at a fixed interval and appends new samples
// to a fixed-capacity [RollingSnapshot]. Consumers call
// [Reader.PowerReading]; analysis only runs when new samples arrived since
// the last reading, and it runs outside the lock shared with the polling
// goroutine.
package board
