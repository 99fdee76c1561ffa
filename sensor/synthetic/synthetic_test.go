package synthetic

import (
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/neurotone/analysis"
	"github.com/cwbudde/neurotone/sensor"
)

// manual returns a streaming board whose generator never ticks, so tests
// drive it with produce.
func manual(t *testing.T, opts ...Option) *Source {
	t.Helper()
	opts = append([]Option{WithTick(time.Hour), WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	s := New(opts...)
	require.NoError(t, s.Prepare())
	require.NoError(t, s.BeginStream())
	t.Cleanup(func() { _ = s.Release() })
	return s
}

func TestLifecycleErrors(t *testing.T) {
	s := New(WithLogger(slog.New(slog.DiscardHandler)))

	_, err := s.Pull(0)
	require.Error(t, err)
	assert.True(t, sensor.IsFatal(err))
	assert.ErrorIs(t, err, ErrNotStreaming)

	assert.ErrorIs(t, s.BeginStream(), ErrNotPrepared)
	assert.NoError(t, s.EndStream(), "EndStream on idle board")
	assert.NoError(t, s.Release())
}

func TestPullDrainsWholeFrames(t *testing.T) {
	s := manual(t)
	s.produce(100)

	m, err := s.Pull(30)
	require.NoError(t, err)
	assert.Equal(t, 16, m.Channels())
	assert.Equal(t, 30, m.Samples())

	m, err = s.Pull(0)
	require.NoError(t, err)
	assert.Equal(t, 70, m.Samples())

	m, err = s.Pull(0)
	require.NoError(t, err)
	assert.Equal(t, 16, m.Channels())
	assert.Zero(t, m.Samples())
}

func TestToneFrequencies(t *testing.T) {
	s := manual(t, WithAmplitude(20, 0))
	s.produce(1000)

	m, err := s.Pull(0)
	require.NoError(t, err)
	require.Equal(t, 1000, m.Samples())

	for _, ch := range []int{0, 1, 5} {
		f, err := analysis.SpectralFeatures(analysis.NewWelch(), m[ch], s.SampleRate())
		require.NoError(t, err)
		assert.InDelta(t, s.ToneFrequency(ch), f.PeakFrequency, 1, "channel %d", ch)
	}

	for ch := range m {
		for _, v := range m[ch] {
			require.LessOrEqual(t, math.Abs(v), 30.0+1e-3)
		}
	}
}

func TestToneFrequenciesStayBelowNyquist(t *testing.T) {
	s := New(WithSampleRate(100), WithChannels(20))
	require.Equal(t, 20, s.ChannelCount())
	names := s.ChannelNames()
	assert.Equal(t, "Fz", names[0])
	assert.Equal(t, "F8", names[15])
	assert.Equal(t, "X17", names[16])

	for ch := range s.ChannelCount() {
		f := s.ToneFrequency(ch)
		assert.Greater(t, f, 0.0)
		assert.Less(t, f, 0.45*s.SampleRate(), "channel %d", ch)
	}
}

func TestSeedIsDeterministic(t *testing.T) {
	a := manual(t, WithSeed(7))
	b := manual(t, WithSeed(7))
	a.produce(50)
	b.produce(50)

	ma, err := a.Pull(0)
	require.NoError(t, err)
	mb, err := b.Pull(0)
	require.NoError(t, err)
	assert.Equal(t, ma, mb)
}

func TestOverrunDropsFrames(t *testing.T) {
	// 40ms at 250 Hz holds 10 frames.
	s := manual(t, WithBuffer(40*time.Millisecond))
	s.produce(25)
	assert.EqualValues(t, 15, s.Overruns())

	m, err := s.Pull(0)
	require.NoError(t, err)
	assert.Equal(t, 10, m.Samples())

	s.produce(30)
	m, err = s.Pull(0)
	require.NoError(t, err)
	assert.Equal(t, 5, m.Samples())
}

func TestRealTimeGenerator(t *testing.T) {
	s := New(WithTick(time.Millisecond), WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, s.Prepare())
	require.NoError(t, s.BeginStream())

	total := 0
	require.Eventually(t, func() bool {
		m, err := s.Pull(0)
		if err != nil {
			return false
		}
		total += m.Samples()
		return total >= 25
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, s.EndStream())
	require.NoError(t, s.EndStream())
	require.NoError(t, s.Release())

	_, err := s.Pull(0)
	assert.True(t, sensor.IsFatal(err))
}
