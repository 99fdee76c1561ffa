// Command neurotone turns a live EEG stream into sound.
//
// A board reader keeps a rolling window of samples and publishes per-band
// power; each voice follows one band of one channel and drives the volume
// of one note on a MIDI port, the built-in synthesizer or the log.
//
// Usage:
//
//	neurotone [flags]
//
// Examples:
//
//	neurotone -sink synth -voice alpha:Pz:60 -voice beta:C4:67
//	neurotone -source playback -file session.wav -sink midi -port 0
//	neurotone -stream -window-ms 2000 -overlap-ms 1000 -psd-window hamming
//	neurotone -list-bands
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/cwbudde/neurotone/analysis"
	"github.com/cwbudde/neurotone/board"
	"github.com/cwbudde/neurotone/dsp/window"
	"github.com/cwbudde/neurotone/sensor"
	"github.com/cwbudde/neurotone/sensor/playback"
	"github.com/cwbudde/neurotone/sensor/synthetic"
	"github.com/cwbudde/neurotone/sink/midi"
	"github.com/cwbudde/neurotone/sink/synth"
	"github.com/cwbudde/neurotone/stream"
	"github.com/cwbudde/neurotone/tone"
)

// logger is replaced by initLogger once flags are parsed.
var logger = slog.Default()

func initLogger(w io.Writer, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	}))
	slog.SetDefault(logger)
}

type options struct {
	source   string
	file     string
	loop     bool
	sink     string
	port     string
	waveform string
	analyzer string
	psdWin   string

	window   time.Duration
	poll     time.Duration
	interval time.Duration
	duration time.Duration
	print    time.Duration
	voices   voiceList

	stream    bool
	windowMS  float64
	overlapMS float64

	listBands bool
	listPorts bool
	listScale string
	debug     bool
}

func newFlagSet(o *options) *flag.FlagSet {
	fs := flag.NewFlagSet("neurotone", flag.ContinueOnError)
	fs.StringVar(&o.source, "source", "synthetic", "sample source: synthetic or playback")
	fs.StringVar(&o.file, "file", "", "WAV recording for -source playback")
	fs.BoolVar(&o.loop, "loop", false, "restart the recording when it ends")
	fs.StringVar(&o.sink, "sink", "log", "tone output: midi, synth or log")
	fs.StringVar(&o.port, "port", "0", "MIDI output port name or number")
	fs.StringVar(&o.waveform, "waveform", "sine", "synth waveform: sine, square, sawtooth or triangle")
	fs.StringVar(&o.analyzer, "analyzer", "bandpass", "band power estimator: bandpass, zerophase or welch")
	fs.StringVar(&o.psdWin, "psd-window", "hann", "Welch segment window: rectangular, hann, hamming or blackman")
	fs.DurationVar(&o.window, "window", board.DefaultWindow, "rolling analysis window")
	fs.DurationVar(&o.poll, "poll", board.DefaultPoll, "sensor poll interval")
	fs.DurationVar(&o.interval, "interval", tone.DefaultInterval, "voice update interval")
	fs.DurationVar(&o.duration, "duration", 0, "stop after this long (0 runs until interrupted)")
	fs.DurationVar(&o.print, "print", 0, "print band power at this interval (0 disables)")
	fs.Var(&o.voices, "voice", "voice as band:channel[:note], repeatable")
	fs.BoolVar(&o.stream, "stream", false, "print per-window relative alpha power, band ratios and spectral peak instead of playing")
	fs.Float64Var(&o.windowMS, "window-ms", 2000, "stream window length in milliseconds")
	fs.Float64Var(&o.overlapMS, "overlap-ms", 1000, "stream window overlap in milliseconds")
	fs.BoolVar(&o.listBands, "list-bands", false, "list frequency bands with filter center gain and exit")
	fs.BoolVar(&o.listPorts, "list-ports", false, "list MIDI output ports and exit")
	fs.StringVar(&o.listScale, "list-scale", "", "print one octave of a scale (pentatonic, major, minor, chromatic) and exit")
	fs.BoolVar(&o.debug, "debug", false, "enable debug logging")
	return fs
}

func main() {
	var o options
	fs := newFlagSet(&o)
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	initLogger(os.Stderr, o.debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, os.Stdout); err != nil {
		logger.Error("neurotone failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, w io.Writer) error {
	switch {
	case o.listBands:
		return printBands(w, synthetic.DefaultSampleRate)
	case o.listPorts:
		for i, name := range midi.OutPorts() {
			fmt.Fprintf(w, "%d\t%s\n", i, name)
		}
		return nil
	case o.listScale != "":
		return printScale(w, o.listScale)
	}

	if o.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.duration)
		defer cancel()
	}

	psdWin, err := window.ParseType(o.psdWin)
	if err != nil {
		return err
	}
	a, err := newAnalyzer(o.analyzer, psdWin)
	if err != nil {
		return err
	}
	src, err := openSource(o)
	if err != nil {
		return err
	}

	if o.stream {
		return runStream(ctx, src, a, analysis.Welch{Window: psdWin}, o, w)
	}
	return runVoices(ctx, src, a, o, w)
}

func newAnalyzer(name string, psdWin window.Type) (analysis.Analyzer, error) {
	switch strings.ToLower(name) {
	case "bandpass":
		return analysis.BandpassRMS{}, nil
	case "zerophase":
		return analysis.BandpassRMS{ZeroPhase: true}, nil
	case "welch":
		return analysis.Welch{Window: psdWin}, nil
	default:
		return nil, fmt.Errorf("unknown analyzer %q", name)
	}
}

func openSource(o options) (sensor.Source, error) {
	switch o.source {
	case "synthetic":
		return synthetic.New(synthetic.WithLogger(logger)), nil
	case "playback":
		if o.file == "" {
			return nil, errors.New("-source playback needs -file")
		}
		return playback.Open(o.file, playback.WithLoop(o.loop), playback.WithLogger(logger))
	default:
		return nil, fmt.Errorf("unknown source %q", o.source)
	}
}

func openSink(o options) (tone.Sink, func() error, error) {
	switch o.sink {
	case "log":
		return tone.NewLogSink(logger), func() error { return nil }, nil
	case "midi":
		s, err := midi.Open(o.port, midi.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "synth":
		wf, err := synth.ParseWaveform(o.waveform)
		if err != nil {
			return nil, nil, err
		}
		s := synth.New(synth.WithWaveform(wf), synth.WithLogger(logger))
		out, err := synth.Play(s)
		if err != nil {
			return nil, nil, err
		}
		return s, out.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown sink %q", o.sink)
	}
}

// finished filters the errors that end a run normally.
func finished(err error) error {
	if errors.Is(err, playback.ErrEndOfRecording) {
		logger.Info("recording finished")
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func runVoices(ctx context.Context, src sensor.Source, a analysis.Analyzer, o options, w io.Writer) (err error) {
	reader, err := board.NewReader(src,
		board.WithParams(board.Params{Window: o.window, Poll: o.poll}),
		board.WithAnalyzer(a),
		board.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	sink, closeSink, err := openSink(o)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, closeSink()) }()

	if err := reader.StartReading(); err != nil {
		return err
	}
	defer func() { err = errors.Join(err, finished(reader.StopReading())) }()

	specs := o.voices
	if len(specs) == 0 {
		specs = defaultVoices()
	}

	voices := make([]*tone.Voice, 0, len(specs))
	defer func() {
		for _, v := range voices {
			err = errors.Join(err, finished(v.Stop()))
		}
	}()

	for _, spec := range specs {
		v, err := tone.NewVoice(reader, sink, spec.band, spec.channel, spec.note,
			tone.WithInterval(o.interval), tone.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("voice %s: %w", spec, err)
		}
		if _, err := v.Start(); err != nil {
			return fmt.Errorf("voice %s: %w", spec, err)
		}
		voices = append(voices, v)
		logger.Info("voice started", "band", spec.band, "channel", v.Channel(), "note", spec.note)
	}

	tick := o.print
	if tick <= 0 {
		tick = 250 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if reader.Err() != nil {
				return nil
			}
			if o.print <= 0 {
				continue
			}
			if pr, err := reader.PowerReading(); err == nil {
				printReading(w, pr)
			}
		}
	}
}

func runStream(ctx context.Context, src sensor.Source, a analysis.Analyzer, psd analysis.Welch, o options, w io.Writer) error {
	cfg, err := stream.NewWindowConfig(o.windowMS, o.overlapMS)
	if err != nil {
		return err
	}

	ws, err := stream.Open(ctx, src, cfg, stream.WithLogger(logger))
	if err != nil {
		return err
	}
	defer ws.Close()

	names := ws.ChannelNames()
	for win, err := range ws.All(ctx) {
		if err != nil {
			return finished(err)
		}

		ratios := stream.ProcessWindow(win, ws.SampleRate(), a)
		parts := make([]string, len(ratios))
		for i, r := range ratios {
			parts[i] = fmt.Sprintf("%s=%.3f/%d", names[i], r, tone.RatioToControl(r))
		}
		fmt.Fprintf(w, "window %d: %s\n", ws.Emitted(), strings.Join(parts, " "))
		printSpectrum(w, names[0], win.Channel(0), ws.SampleRate(), a, psd)
	}
	return nil
}

// printSpectrum summarizes one channel of a window: the Welch peak and the
// band power ratios under a.
func printSpectrum(w io.Writer, name string, samples []float64, rate float64, a analysis.Analyzer, psd analysis.Welch) {
	f, err := analysis.SpectralFeatures(psd, samples, rate)
	if err != nil {
		logger.Debug("spectral features", "channel", name, "err", err)
		return
	}
	r := analysis.ComputeRatios(a, samples, rate)
	fmt.Fprintf(w, "  %s: peak=%.1fHz alpha/theta=%.2f theta/beta=%.2f alpha/beta=%.2f alpha/delta=%.2f\n",
		name, f.PeakFrequency, r.AlphaTheta, r.ThetaBeta, r.AlphaBeta, r.AlphaDelta)
}

// printBands lists the bands with the gain the band-pass analyzers apply
// at each band's geometric center for the given sample rate.
func printBands(w io.Writer, rate float64) error {
	single := analysis.BandpassRMS{}
	double := analysis.BandpassRMS{ZeroPhase: true}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "BAND\tLOW (Hz)\tHIGH (Hz)\tBANDPASS (dB @ %g Hz)\tZEROPHASE (dB)\n", rate)
	for _, b := range analysis.Bands() {
		lo, hi := b.Range()
		center := math.Sqrt(lo * hi)
		fmt.Fprintf(tw, "%s\t%g\t%g\t%.1f\t%.1f\n", b, lo, hi,
			single.GainDB(lo, hi, rate, center), double.GainDB(lo, hi, rate, center))
	}
	return tw.Flush()
}

func printScale(w io.Writer, name string) error {
	s, err := synth.ParseScale(name)
	if err != nil {
		return err
	}
	freqs, err := synth.ScaleFrequencies(s, synth.DefaultBaseA, 0)
	if err != nil {
		return err
	}
	for i, f := range freqs {
		fmt.Fprintf(w, "%d\t%.2f Hz\n", i, f)
	}
	return nil
}

func printReading(w io.Writer, pr *board.PowerReading) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	bands := pr.Bands()

	fmt.Fprint(tw, "CHANNEL\t")
	for _, b := range bands {
		fmt.Fprintf(tw, "%s\t", b)
	}
	fmt.Fprintln(tw)

	for ch, name := range pr.Channels() {
		fmt.Fprintf(tw, "%s\t", name)
		for _, b := range bands {
			p, _ := pr.Power(ch, b)
			fmt.Fprintf(tw, "%.3f\t", p)
		}
		fmt.Fprintln(tw)
	}
	_ = tw.Flush()
}
