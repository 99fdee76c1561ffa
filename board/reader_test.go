package board

import (
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/neurotone/analysis"
	"github.com/cwbudde/neurotone/internal/testutil"
	"github.com/cwbudde/neurotone/sensor"
)

const (
	waitFor = 2 * time.Second
	tick    = time.Millisecond
)

var (
	quiet      = WithLogger(slog.New(slog.DiscardHandler))
	fastParams = WithParams(Params{Window: 100 * time.Millisecond, Poll: time.Millisecond})
)

type mockAnalyzer struct {
	mock.Mock
}

func (m *mockAnalyzer) BandPower(samples []float64, sampleRate, lowHz, highHz float64) float64 {
	args := m.Called(samples, sampleRate, lowHz, highHz)
	return args.Get(0).(float64)
}

// streamingSource returns a source that produces 10 fresh samples per pull.
func streamingSource(channels int) *testutil.ScriptedSource {
	src := testutil.NewScriptedSource(100, channels)
	src.Next = func(n int) (sensor.Matrix, error) {
		return testutil.Counter(channels, n*10, 10), nil
	}
	return src
}

func countingAnalyzer(calls *atomic.Int64) analysis.Analyzer {
	return analysis.AnalyzerFunc(func(samples []float64, _, _, _ float64) float64 {
		calls.Add(1)
		return float64(len(samples))
	})
}

func TestReaderNotStarted(t *testing.T) {
	r, err := NewReader(streamingSource(1), quiet)
	require.NoError(t, err)

	_, err = r.PowerReading()
	require.ErrorIs(t, err, ErrNotStarted)
	assert.Equal(t, Stopped, r.State())
	assert.NoError(t, r.StopReading(), "stopping a reader that never started is a no-op")
}

func TestReaderCachesUntilNewSamples(t *testing.T) {
	src := testutil.NewScriptedSource(100, 2,
		testutil.Step{Data: testutil.Counter(2, 0, 10)},
	)

	an := new(mockAnalyzer)
	an.On("BandPower", mock.Anything, 100.0, 8.0, 13.0).Return(2.5)
	an.On("BandPower", mock.Anything, 100.0, 13.0, 30.0).Return(1.5)

	r, err := NewReader(src, quiet, fastParams,
		WithAnalyzer(an),
		WithBands(analysis.Alpha, analysis.Beta),
	)
	require.NoError(t, err)
	require.NoError(t, r.StartReading())
	defer r.StopReading()

	require.Eventually(t, func() bool { return r.Stats().Samples == 10 }, waitFor, tick)

	first, err := r.PowerReading()
	require.NoError(t, err)
	second, err := r.PowerReading()
	require.NoError(t, err)

	require.Same(t, first, second, "no new samples: the cached reading must be returned")
	an.AssertNumberOfCalls(t, "BandPower", 4)
	assert.EqualValues(t, 1, r.Stats().Analyses)
	assert.EqualValues(t, 1, first.Generation())

	v, ok := first.ByName("1", analysis.Alpha)
	require.True(t, ok)
	assert.Equal(t, 2.5, v)
	v, ok = first.Power(0, analysis.Beta)
	require.True(t, ok)
	assert.Equal(t, 1.5, v)
	_, ok = first.Power(0, analysis.Gamma)
	assert.False(t, ok)
}

func TestReaderAnalyzesFullSnapshot(t *testing.T) {
	var calls atomic.Int64
	r, err := NewReader(streamingSource(1), quiet, fastParams,
		WithAnalyzer(countingAnalyzer(&calls)),
		WithBands(analysis.Alpha),
	)
	require.NoError(t, err)
	require.NoError(t, r.StartReading())
	defer r.StopReading()

	require.Eventually(t, func() bool { return r.Stats().Samples > 0 }, waitFor, tick)

	reading, err := r.PowerReading()
	require.NoError(t, err)
	v, ok := reading.Power(0, analysis.Alpha)
	require.True(t, ok)
	assert.Equal(t, float64(r.Capacity()), v)
	assert.Equal(t, SnapshotCapacity(100, 100*time.Millisecond), r.Capacity())
}

func TestReaderStopJoins(t *testing.T) {
	before := runtime.NumGoroutine()

	src := streamingSource(2)
	r, err := NewReader(src, quiet, fastParams)
	require.NoError(t, err)

	require.NoError(t, r.StartReading())
	assert.Equal(t, Reading, r.State())
	require.NoError(t, r.StopReading())

	// The source is released before StopReading returns.
	assert.Equal(t, Stopped, r.State())
	assert.EqualValues(t, 1, src.Ended.Load())
	assert.EqualValues(t, 1, src.Released.Load())

	require.NoError(t, r.StopReading())
	assert.EqualValues(t, 1, src.Released.Load(), "double stop must not release twice")

	// Polled from the test goroutine: Eventually would add a goroutine of
	// its own to the count.
	deadline := time.Now().Add(waitFor)
	for runtime.NumGoroutine() > before && time.Now().Before(deadline) {
		time.Sleep(tick)
	}
	assert.LessOrEqual(t, runtime.NumGoroutine(), before, "polling goroutine still running")
}

func TestReaderStartIsIdempotent(t *testing.T) {
	src := streamingSource(1)
	r, err := NewReader(src, quiet, fastParams)
	require.NoError(t, err)

	require.NoError(t, r.StartReading())
	require.NoError(t, r.StartReading())
	assert.EqualValues(t, 1, src.Prepared.Load())
	assert.EqualValues(t, 1, src.Begun.Load())
	require.NoError(t, r.StopReading())

	// A stopped reader can be restarted.
	require.NoError(t, r.StartReading())
	require.NoError(t, r.StopReading())
	assert.EqualValues(t, 2, src.Prepared.Load())
	assert.EqualValues(t, 2, src.Released.Load())
}

func TestReaderRetriesTransientErrors(t *testing.T) {
	hiccup := errors.New("packet lost")
	src := testutil.NewScriptedSource(100, 1,
		testutil.Step{Err: hiccup},
		testutil.Step{Err: sensor.Transient(hiccup)},
		testutil.Step{Err: hiccup},
		testutil.Step{Data: testutil.Counter(1, 0, 10)},
	)

	r, err := NewReader(src, quiet, fastParams)
	require.NoError(t, err)
	require.NoError(t, r.StartReading())
	defer r.StopReading()

	require.Eventually(t, func() bool { return r.Stats().Samples == 10 }, waitFor, tick)
	assert.EqualValues(t, 3, r.Stats().Retries)
	assert.Equal(t, Reading, r.State())
	assert.NoError(t, r.Err())
}

func TestReaderFatalErrorStopsLoop(t *testing.T) {
	gone := errors.New("usb disconnected")
	src := testutil.NewScriptedSource(100, 1,
		testutil.Step{Data: testutil.Counter(1, 0, 10)},
		testutil.Step{Err: sensor.Fatal(gone)},
	)

	r, err := NewReader(src, quiet, fastParams)
	require.NoError(t, err)
	require.NoError(t, r.StartReading())

	require.Eventually(t, func() bool { return r.State() == Stopped }, waitFor, tick)
	assert.EqualValues(t, 1, src.Released.Load())

	_, err = r.PowerReading()
	require.ErrorIs(t, err, gone)

	require.ErrorIs(t, r.StopReading(), gone)
	require.NoError(t, r.StopReading(), "the fatal error is reported once")
	assert.EqualValues(t, 1, src.Released.Load())
}

func TestReaderChannelMismatchIsFatal(t *testing.T) {
	src := testutil.NewScriptedSource(100, 2,
		testutil.Step{Data: testutil.Counter(1, 0, 10)},
	)

	r, err := NewReader(src, quiet, fastParams)
	require.NoError(t, err)
	require.NoError(t, r.StartReading())

	require.Eventually(t, func() bool { return r.State() == Stopped }, waitFor, tick)
	assert.True(t, sensor.IsFatal(r.Err()))
	assert.Error(t, r.StopReading())
}

func TestReaderStartFailureReleases(t *testing.T) {
	src := streamingSource(1)
	src.PrepareErr = errors.New("permission denied")

	r, err := NewReader(src, quiet, fastParams)
	require.NoError(t, err)

	require.ErrorIs(t, r.StartReading(), src.PrepareErr)
	assert.Equal(t, Stopped, r.State())
	assert.EqualValues(t, 1, src.Released.Load())
	assert.EqualValues(t, 0, src.Begun.Load())
}

func TestReaderConcurrentConsumers(t *testing.T) {
	var calls atomic.Int64
	r, err := NewReader(streamingSource(4), quiet, fastParams,
		WithAnalyzer(countingAnalyzer(&calls)),
		WithBands(analysis.Alpha, analysis.Theta),
	)
	require.NoError(t, err)
	require.NoError(t, r.StartReading())

	var wg sync.WaitGroup
	var lastGen [8]uint64
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				reading, err := r.PowerReading()
				if !assert.NoError(t, err) {
					return
				}
				// Each consumer sees generations in non-decreasing order.
				if !assert.GreaterOrEqual(t, reading.Generation(), lastGen[i]) {
					return
				}
				lastGen[i] = reading.Generation()
				time.Sleep(100 * time.Microsecond)
			}
		}()
	}
	wg.Wait()
	require.NoError(t, r.StopReading())

	stats := r.Stats()
	assert.LessOrEqual(t, stats.Analyses, stats.Pulls, "analysis only runs on fresh samples")
	assert.EqualValues(t, int64(stats.Analyses)*4*2, calls.Load())
}

func TestReaderAnalyzesEachGenerationOnce(t *testing.T) {
	var calls atomic.Int64
	r, err := NewReader(streamingSource(8), quiet,
		WithParams(Params{Window: 100 * time.Millisecond, Poll: 0}),
		WithAnalyzer(countingAnalyzer(&calls)),
		WithBands(analysis.Alpha),
	)
	require.NoError(t, err)
	require.NoError(t, r.StartReading())

	var (
		mu   sync.Mutex
		seen = map[uint64]bool{}
		wg   sync.WaitGroup
	)
	stop := time.Now().Add(300 * time.Millisecond)
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(stop) {
				reading, err := r.PowerReading()
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				if g := reading.Generation(); g > 0 {
					seen[g] = true
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.NoError(t, r.StopReading())

	analyses := r.Stats().Analyses
	require.NotZero(t, analyses)
	assert.EqualValues(t, len(seen), analyses, "every analysis must produce a new generation")
}

// namedSource exposes 10-20 names and marks rows 1..3 as EEG.
type namedSource struct {
	*testutil.ScriptedSource
}

func (namedSource) EEGChannels() []int { return []int{1, 2, 3} }

func TestReaderChannelNames(t *testing.T) {
	src := streamingSource(5)
	src.Names = []string{"ts", "F8", "C4", "Pz", "acc"}

	r, err := NewReader(namedSource{src}, quiet, fastParams, WithBands(analysis.Alpha))
	require.NoError(t, err)
	assert.Equal(t, []string{"F8", "C4", "Pz"}, r.ChannelNames())

	require.NoError(t, r.StartReading())
	defer r.StopReading()

	reading, err := r.PowerReading()
	require.NoError(t, err)
	assert.Equal(t, []string{"F8", "C4", "Pz"}, reading.Channels())
	_, ok := reading.ByName("Pz", analysis.Alpha)
	assert.True(t, ok)
	_, ok = reading.ByName("acc", analysis.Alpha)
	assert.False(t, ok)

	r2, err := NewReader(namedSource{src}, quiet, WithChannels(0, 4))
	require.NoError(t, err)
	assert.Equal(t, []string{"ts", "acc"}, r2.ChannelNames())
}

func TestNewReaderRejects(t *testing.T) {
	src := streamingSource(2)

	_, err := NewReader(nil)
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = NewReader(src, WithParams(Params{Window: time.Millisecond, Poll: time.Second}))
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = NewReader(src, WithBands())
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = NewReader(src, WithBands(analysis.Band(99)))
	assert.ErrorIs(t, err, analysis.ErrUnknownBand)

	_, err = NewReader(src, WithChannels(2))
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = NewReader(testutil.NewScriptedSource(0, 1))
	assert.ErrorIs(t, err, ErrInvalidParams)
}
