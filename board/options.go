package board

import (
	"log/slog"

	"github.com/cwbudde/neurotone/analysis"
)

type config struct {
	params   Params
	analyzer analysis.Analyzer
	bands    []analysis.Band
	channels []int
	logger   *slog.Logger
}

// Option configures a Reader.
type Option func(*config)

// WithParams overrides DefaultParams.
func WithParams(p Params) Option {
	return func(c *config) {
		c.params = p
	}
}

// WithAnalyzer sets the band power analyzer. The default is
// analysis.BandpassRMS.
func WithAnalyzer(a analysis.Analyzer) Option {
	return func(c *config) {
		if a != nil {
			c.analyzer = a
		}
	}
}

// WithBands restricts analysis to the given bands. The default is every
// band in analysis.Bands.
func WithBands(bands ...analysis.Band) Option {
	return func(c *config) {
		c.bands = append([]analysis.Band(nil), bands...)
	}
}

// WithChannels selects the source rows to analyze. The default is the rows
// reported by sensor.EEGChannels.
func WithChannels(rows ...int) Option {
	return func(c *config) {
		c.channels = append([]int(nil), rows...)
	}
}

// WithLogger sets the logger used by the acquisition loop.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
