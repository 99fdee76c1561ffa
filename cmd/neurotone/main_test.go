package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/neurotone/analysis"
	"github.com/cwbudde/neurotone/tone"
)

func TestMain(m *testing.M) {
	initLogger(io.Discard, false)
	os.Exit(m.Run())
}

func TestParseVoice(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "alpha:Pz:60", want: "alpha:Pz:60"},
		{in: "Beta:3", want: "beta:3:64"},
		{in: "gamma:F8:127", want: "gamma:F8:127"},
		{in: "alpha", wantErr: true},
		{in: "alpha:Pz:60:1", wantErr: true},
		{in: "mu:Pz", wantErr: true},
		{in: "alpha::60", wantErr: true},
		{in: "alpha:Pz:128", wantErr: true},
		{in: "alpha:Pz:x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := parseVoice(tt.in, 64)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.String())
		})
	}
}

func TestVoiceFlagAssignsNotes(t *testing.T) {
	var o options
	fs := newFlagSet(&o)
	require.NoError(t, fs.Parse([]string{
		"-voice", "alpha:Pz",
		"-voice", "theta:2",
		"-voice", "beta:C4:80",
		"-sink", "synth",
		"-poll", "20ms",
	}))

	require.Len(t, o.voices, 3)
	assert.Equal(t, tone.Notes[0], o.voices[0].note)
	assert.Equal(t, tone.Notes[1], o.voices[1].note)
	assert.EqualValues(t, 80, o.voices[2].note)
	assert.Equal(t, analysis.Theta, o.voices[1].band)
	assert.Equal(t, "alpha:Pz:60,theta:2:62,beta:C4:80", o.voices.String())
	assert.Equal(t, "synth", o.sink)
	assert.Equal(t, 20*time.Millisecond, o.poll)

	require.Error(t, fs.Parse([]string{"-voice", "nope"}))
}

func defaults(t *testing.T) options {
	t.Helper()
	var o options
	require.NoError(t, newFlagSet(&o).Parse(nil))
	return o
}

func TestRunListings(t *testing.T) {
	o := defaults(t)
	o.listBands = true
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), o, &out))
	assert.Contains(t, out.String(), "BAND")
	assert.Regexp(t, `alpha\s+8\s+13\s+-?\d+\.\d\s+-?\d+\.\d\n`, out.String())
	assert.Contains(t, out.String(), "dB @ 250 Hz")

	o = defaults(t)
	o.listScale = "pentatonic"
	out.Reset()
	require.NoError(t, run(context.Background(), o, &out))
	assert.True(t, strings.HasPrefix(out.String(), "0\t425.00 Hz\n"), out.String())

	o.listScale = "lydian"
	require.Error(t, run(context.Background(), o, &out))
}

func TestRunRejectsConfiguration(t *testing.T) {
	tests := map[string]func(*options){
		"source":   func(o *options) { o.source = "serial" },
		"file":     func(o *options) { o.source = "playback" },
		"analyzer": func(o *options) { o.analyzer = "wavelet" },
		"psd":      func(o *options) { o.psdWin = "kaiser" },
		"sink":     func(o *options) { o.sink = "speaker" },
		"window":   func(o *options) { o.poll = time.Second },
		"voice": func(o *options) {
			o.voices = voiceList{{band: analysis.Alpha, channel: tone.ChannelName("T9"), note: 60}}
		},
		"stream": func(o *options) { o.stream, o.overlapMS = true, o.windowMS },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			o := defaults(t)
			o.duration = time.Second
			mutate(&o)
			assert.Error(t, run(context.Background(), o, io.Discard))
		})
	}
}

func TestRunVoicesWithLogSink(t *testing.T) {
	o := defaults(t)
	o.window = 200 * time.Millisecond
	o.poll = 20 * time.Millisecond
	o.print = 100 * time.Millisecond
	o.duration = 500 * time.Millisecond
	o.analyzer = "zerophase"

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), o, &out))
	assert.Contains(t, out.String(), "CHANNEL")
	assert.Contains(t, out.String(), "Pz")
}

func TestRunStreamSynthetic(t *testing.T) {
	o := defaults(t)
	o.stream = true
	o.windowMS = 200
	o.overlapMS = 100
	o.duration = 800 * time.Millisecond
	o.analyzer = "welch"
	o.psdWin = "blackman"

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), o, &out))
	assert.Contains(t, out.String(), "window 1: Fz=")
	assert.Regexp(t, `\n  Fz: peak=\d+\.\dHz alpha/theta=\S+ theta/beta=\S+ alpha/beta=\S+ alpha/delta=\S+\n`, out.String())
}

// writeRecording stores 200ms of a 10 Hz square wave on one channel at
// 250 Hz and returns its path.
func writeRecording(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rec.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	data := make([]int, 50)
	for i := range data {
		if i%25 < 12 {
			data[i] = 8000
		} else {
			data[i] = -8000
		}
	}
	enc := wav.NewEncoder(f, 250, 16, 1, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Data:   data,
		Format: &audio.Format{NumChannels: 1, SampleRate: 250},
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
	return path
}

func TestRunStreamPlaybackEndsCleanly(t *testing.T) {
	o := defaults(t)
	o.source = "playback"
	o.file = writeRecording(t)
	o.stream = true
	o.windowMS = 100
	o.overlapMS = 0
	o.duration = 5 * time.Second

	var out bytes.Buffer
	start := time.Now()
	require.NoError(t, run(context.Background(), o, &out))
	assert.Less(t, time.Since(start), 4*time.Second)
	assert.Contains(t, out.String(), "window 2: 0=")
	assert.Contains(t, out.String(), "  0: peak=")
}

func TestRunVoicesPlaybackEndsCleanly(t *testing.T) {
	o := defaults(t)
	o.source = "playback"
	o.file = writeRecording(t)
	o.window = 100 * time.Millisecond
	o.poll = 10 * time.Millisecond
	o.duration = 5 * time.Second
	require.NoError(t, o.voices.Set("alpha:0:60"))
	require.NoError(t, o.voices.Set("theta:0"))

	start := time.Now()
	require.NoError(t, run(context.Background(), o, io.Discard))
	assert.Less(t, time.Since(start), 4*time.Second)
}
