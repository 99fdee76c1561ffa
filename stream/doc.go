// Package stream slices a live multi-channel sample stream into
// overlapping fixed-duration windows.
//
// A [WindowConfig] converts millisecond window and overlap lengths into
// sample counts. A [ChannelBuffer] accumulates incoming chunks, and a
// [WindowStream] pulls chunks from a source and emits one [Window] each time
// enough samples are buffered, evicting stride = window - overlap samples
// after every emission so that consecutive windows share overlap samples.
//
// Transient source errors are logged and retried without limit, because
// physiological sensors are expected to run continuously and hiccups are
// normal. Errors marked with [sensor.Fatal] end the stream.
package stream
