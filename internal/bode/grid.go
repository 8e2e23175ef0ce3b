package bode

import (
	"fmt"
	"math"
)

// Grid holds the bin frequencies (Hz) of a one-sided spectrum, strictly increasing.
type Grid []float64

// RFFTFreq returns the n/2+1 bin frequencies of a real transform of length n
// sampled at sampleRate.
func RFFTFreq(n int, sampleRate float64) Grid {
	if n <= 0 {
		return nil
	}

	grid := make(Grid, n/2+1)
	for k := range grid {
		grid[k] = float64(k) * sampleRate / float64(n)
	}

	return grid
}

// Equal reports whether both grids have the same length and bit-identical values.
func (g Grid) Equal(other Grid) bool {
	return g.firstDifference(other) < 0
}

// CheckCompatible returns ErrGridMismatch describing the first difference
// between g and other, or nil if they are identical.
func (g Grid) CheckCompatible(other Grid) error {
	idx := g.firstDifference(other)
	if idx < 0 {
		return nil
	}

	if len(g) != len(other) {
		return fmt.Errorf("%w: %d bins vs %d bins", ErrGridMismatch, len(g), len(other))
	}

	return fmt.Errorf("%w: bin %d is %g Hz vs %g Hz", ErrGridMismatch, idx, g[idx], other[idx])
}

// firstDifference returns the first differing index, len(g) when only the
// lengths differ, or -1 when the grids are identical.
func (g Grid) firstDifference(other Grid) int {
	n := min(len(g), len(other))
	for i := 0; i < n; i++ {
		if math.Float64bits(g[i]) != math.Float64bits(other[i]) {
			return i
		}
	}

	if len(g) != len(other) {
		return n
	}

	return -1
}

// Band is an inclusive frequency band [Lo, Hi] in Hz.
type Band struct {
	Lo float64 `json:"lo" yaml:"lo"`
	Hi float64 `json:"hi" yaml:"hi"`
}

// Contains reports whether f lies inside the band, edges included.
func (b Band) Contains(f float64) bool {
	return f >= b.Lo && f <= b.Hi
}

// Validate checks that the band edges are ordered and finite.
func (b Band) Validate() error {
	if math.IsNaN(b.Lo) || math.IsNaN(b.Hi) || b.Lo < 0 {
		return fmt.Errorf("%w: invalid band [%g, %g]", ErrConfiguration, b.Lo, b.Hi)
	}
	if b.Lo >= b.Hi {
		return fmt.Errorf("%w: band low edge %g must be below high edge %g", ErrConfiguration, b.Lo, b.Hi)
	}
	return nil
}
