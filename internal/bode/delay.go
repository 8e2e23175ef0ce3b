package bode

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/stat"
)

// MinBandBins is the minimum number of in-band, in-mask bins needed to fit a delay.
const MinBandBins = 10

// DelayResult is the outcome of a delay fit and correction.
type DelayResult struct {
	H        []complex128 // corrected response, or the input when nothing was removed
	Tau      float64      // seconds
	Samples  float64      // Tau expressed in samples
	BinsUsed int
	Applied  bool
}

// Unwrap removes 2π jumps from a phase sequence so that consecutive
// differences stay within (−π, π].
func Unwrap(phase []float64) []float64 {
	out := make([]float64, len(phase))
	if len(phase) == 0 {
		return out
	}

	out[0] = phase[0]
	offset := 0.0
	for i := 1; i < len(phase); i++ {
		d := phase[i] - phase[i-1]
		if math.Abs(d) >= math.Pi {
			offset += wrapToPi(d) - d
		}
		out[i] = phase[i] + offset
	}

	return out
}

// wrapToPi maps d into [−π, π), folding −π to π for positive jumps.
func wrapToPi(d float64) float64 {
	w := d - 2*math.Pi*math.Floor((d+math.Pi)/(2*math.Pi))
	if w == -math.Pi && d > 0 {
		return math.Pi
	}
	return w
}

// UnwrapPhase returns the continuous phase of h in radians.
func UnwrapPhase(h []complex128) []float64 {
	phase := make([]float64, len(h))
	for i, v := range h {
		phase[i] = cmplx.Phase(v)
	}
	return Unwrap(phase)
}

// EstimateDelay fits a line to the unwrapped phase of h over the bins of grid
// inside band (and inside mask, when non-nil) and returns the pure delay
// tau = −slope/2π together with the number of bins used. Fewer than
// MinBandBins bins yield tau = 0.
func EstimateDelay(h []complex128, grid Grid, band Band, mask []bool) (float64, int, error) {
	if len(h) != len(grid) {
		return 0, 0, fmt.Errorf("%w: response has %d bins, grid has %d", ErrLengthMismatch, len(h), len(grid))
	}
	if mask != nil && len(mask) != len(grid) {
		return 0, 0, fmt.Errorf("%w: mask has %d bins, grid has %d", ErrLengthMismatch, len(mask), len(grid))
	}

	phase := UnwrapPhase(h)

	freqs := make([]float64, 0, len(grid))
	phases := make([]float64, 0, len(grid))
	for i, f := range grid {
		if !band.Contains(f) {
			continue
		}
		if mask != nil && !mask[i] {
			continue
		}
		freqs = append(freqs, f)
		phases = append(phases, phase[i])
	}

	if len(freqs) < MinBandBins {
		return 0, len(freqs), nil
	}

	_, slope := stat.LinearRegression(freqs, phases, nil, false)
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return 0, len(freqs), nil
	}

	return -slope / (2 * math.Pi), len(freqs), nil
}

// RemoveDelay returns h·exp(i·2π·f·tau) evaluated on every bin of grid.
func RemoveDelay(h []complex128, grid Grid, tau float64) []complex128 {
	out := make([]complex128, len(h))
	for i, v := range h {
		out[i] = v * cmplx.Rect(1, 2*math.Pi*grid[i]*tau)
	}
	return out
}

// CorrectDelay estimates the bulk delay of h inside band and removes it from
// the whole spectrum. When the delay cannot be estimated the input slice is
// returned unchanged with Tau = 0.
func CorrectDelay(h []complex128, grid Grid, sampleRate float64, band Band, mask []bool) (DelayResult, error) {
	tau, used, err := EstimateDelay(h, grid, band, mask)
	if err != nil {
		return DelayResult{H: h}, err
	}

	result := DelayResult{
		H:        h,
		Tau:      tau,
		Samples:  tau * sampleRate,
		BinsUsed: used,
	}

	if tau != 0 {
		result.H = RemoveDelay(h, grid, tau)
		result.Applied = true
	}

	return result, nil
}
