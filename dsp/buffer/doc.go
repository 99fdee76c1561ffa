// Package buffer provides a growable float64 sample buffer and a pool for
// allocation-friendly streaming. Buffers support append at the tail and
// eviction at the head, which is what sliding analysis windows need: new
// samples arrive at the end, consumed samples leave from the front.
package buffer
