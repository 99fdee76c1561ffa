package biquad

import "slices"

// Chain is a cascade of sections. It carries no filter state, so a single
// Chain may filter many windows concurrently.
type Chain struct {
	sections []Coefficients
}

// NewChain flattens the coefficient sets into one cascade, in order.
func NewChain(sets ...[]Coefficients) *Chain {
	return &Chain{sections: slices.Concat(sets...)}
}

// Len returns the number of sections.
func (c *Chain) Len() int { return len(c.sections) }

// Stable reports whether every section is stable.
func (c *Chain) Stable() bool {
	for _, s := range c.sections {
		if !s.Stable() {
			return false
		}
	}
	return true
}

// Filter runs buf through the cascade in place.
func (c *Chain) Filter(buf []float64) {
	for _, s := range c.sections {
		s.Run(buf)
	}
}

// FilterZeroPhase filters buf forward and then backward. The result has
// no phase shift and the squared magnitude response of the cascade.
func (c *Chain) FilterZeroPhase(buf []float64) {
	c.Filter(buf)
	slices.Reverse(buf)
	c.Filter(buf)
	slices.Reverse(buf)
}
