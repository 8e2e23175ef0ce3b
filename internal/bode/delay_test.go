package bode

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pureDelay(grid Grid, gain, tau float64) []complex128 {
	h := make([]complex128, len(grid))
	for i, f := range grid {
		h[i] = cmplx.Rect(gain, -2*math.Pi*f*tau)
	}
	return h
}

func TestUnwrap(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{"empty", []float64{}, []float64{}},
		{"single", []float64{1.5}, []float64{1.5}},
		{"no jumps", []float64{0, 0.5, 1, 1.5}, []float64{0, 0.5, 1, 1.5}},
		{"positive wrap", []float64{0, 3, -3}, []float64{0, 3, -3 + 2*math.Pi}},
		{"negative wrap", []float64{0, -3, 3}, []float64{0, -3, 3 - 2*math.Pi}},
		{"exact pi is kept", []float64{0, math.Pi}, []float64{0, math.Pi}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Unwrap(tt.in)
			require.Len(t, got, len(tt.want))
			for i := range got {
				assert.InDelta(t, tt.want[i], got[i], 1e-12, "index %d", i)
			}
		})
	}
}

func TestUnwrapPhaseOfLinearPhase(t *testing.T) {
	grid := RFFTFreq(512, 512)
	h := pureDelay(grid, 1, 0.01)

	phase := UnwrapPhase(h)
	for i, f := range grid {
		assert.InDelta(t, -2*math.Pi*f*0.01, phase[i], 1e-9, "bin %d", i)
	}
}

func TestCorrectDelayRoundTrip(t *testing.T) {
	const (
		n    = 1024
		fs   = 1000.0
		tau0 = 0.0123
		gain = 0.5
	)

	grid := RFFTFreq(n, fs)
	h := pureDelay(grid, gain, tau0)

	result, err := CorrectDelay(h, grid, fs, Band{Lo: 10, Hi: 400}, nil)
	require.NoError(t, err)

	assert.True(t, result.Applied)
	assert.InDelta(t, tau0, result.Tau, 1e-9)
	assert.InDelta(t, tau0*fs, result.Samples, 1e-6)
	assert.Greater(t, result.BinsUsed, MinBandBins)

	// the correction applies to every bin, not just the fitted band
	for i := range grid {
		assert.InDelta(t, gain, real(result.H[i]), 1e-6, "bin %d", i)
		assert.InDelta(t, 0, imag(result.H[i]), 1e-6, "bin %d", i)
	}
}

func TestCorrectDelayNeedsTenBins(t *testing.T) {
	grid := RFFTFreq(64, 64) // 1 Hz spacing
	h := pureDelay(grid, 1, 0.05)

	// [1, 9] Hz holds exactly nine bins
	result, err := CorrectDelay(h, grid, 64, Band{Lo: 1, Hi: 9}, nil)
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, 0.0, result.Tau)
	assert.Equal(t, 9, result.BinsUsed)
	assert.Equal(t, h, result.H)

	// one more bin is enough
	result, err = CorrectDelay(h, grid, 64, Band{Lo: 1, Hi: 10}, nil)
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, 10, result.BinsUsed)
	assert.InDelta(t, 0.05, result.Tau, 1e-9)
}

func TestEstimateDelayHonoursMask(t *testing.T) {
	grid := RFFTFreq(256, 256)
	h := pureDelay(grid, 1, 0.002)

	// corrupt the upper half; masking it out must leave the fit untouched
	mask := make([]bool, len(grid))
	for i := range grid {
		if i >= 64 {
			h[i] = cmplx.Rect(1, 1.234*float64(i%7))
			continue
		}
		mask[i] = true
	}

	tau, used, err := EstimateDelay(h, grid, Band{Lo: 1, Hi: 128}, mask)
	require.NoError(t, err)
	assert.Equal(t, 63, used)
	assert.InDelta(t, 0.002, tau, 1e-9)
}

func TestEstimateDelayLengthMismatch(t *testing.T) {
	grid := RFFTFreq(16, 16)

	_, _, err := EstimateDelay(make([]complex128, 5), grid, Band{Lo: 0, Hi: 8}, nil)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, _, err = EstimateDelay(make([]complex128, len(grid)), grid, Band{Lo: 0, Hi: 8}, []bool{true})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestRemoveDelayZeroIsIdentity(t *testing.T) {
	grid := RFFTFreq(32, 32)
	h := pureDelay(grid, 2, 0.1)

	out := RemoveDelay(h, grid, 0)
	assert.Equal(t, h, out)
}
