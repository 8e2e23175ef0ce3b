package bode

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDividesValidBins(t *testing.T) {
	grid := RFFTFreq(8, 8)
	h := []complex128{1, 2i, 3, 4, 5}
	ref := &Reference{
		Grid: grid,
		H:    []complex128{1, 2, 1e-13, 2, 0.5i},
		Mask: []bool{false, true, true, true, true},
	}

	bins, err := Normalize(grid, h, ref)
	require.NoError(t, err)
	require.Len(t, bins, 5)

	assert.False(t, bins[0].Valid, "masked out by the reference")
	assert.Equal(t, Bin{Value: 1i, Valid: true}, bins[1])
	assert.False(t, bins[2].Valid, "reference at or below the floor")
	assert.Equal(t, Bin{Value: 2, Valid: true}, bins[3])
	assert.Equal(t, Bin{Value: -10i, Valid: true}, bins[4])
}

func TestNormalizeFloorIsInclusive(t *testing.T) {
	grid := RFFTFreq(2, 2)
	ref := &Reference{Grid: grid, H: []complex128{BaselineFloor, BaselineFloor * 2}}

	bins, err := Normalize(grid, []complex128{1, 1}, ref)
	require.NoError(t, err)
	assert.False(t, bins[0].Valid)
	assert.True(t, bins[1].Valid)
}

func TestNormalizeWrongLengthMaskMeansAllValid(t *testing.T) {
	grid := RFFTFreq(4, 4)
	ref := &Reference{
		Grid: grid,
		H:    []complex128{1, 1, 1},
		Mask: []bool{false},
	}

	bins, err := Normalize(grid, []complex128{3, 4, 5}, ref)
	require.NoError(t, err)
	for i, b := range bins {
		assert.True(t, b.Valid, "bin %d", i)
	}
}

func TestNormalizeGridMismatch(t *testing.T) {
	grid := RFFTFreq(16, 100)
	shifted := append(Grid(nil), grid...)
	shifted[3] = math.Nextafter(shifted[3], math.Inf(1))

	ref := &Reference{Grid: shifted, H: make([]complex128, len(shifted))}
	for i := range ref.H {
		ref.H[i] = 1
	}

	bins, err := Normalize(grid, make([]complex128, len(grid)), ref)
	assert.Nil(t, bins)
	require.ErrorIs(t, err, ErrGridMismatch)
	assert.Contains(t, err.Error(), "bin 3")

	ref.Grid = RFFTFreq(32, 100)
	ref.H = make([]complex128, len(ref.Grid))
	_, err = Normalize(grid, make([]complex128, len(grid)), ref)
	require.ErrorIs(t, err, ErrGridMismatch)
}

func TestNormalizeInvalidReference(t *testing.T) {
	grid := RFFTFreq(4, 4)

	_, err := Normalize(grid, make([]complex128, 3), nil)
	assert.ErrorIs(t, err, ErrInvalidReference)

	_, err = Normalize(grid, make([]complex128, 3), &Reference{Grid: grid})
	assert.ErrorIs(t, err, ErrInvalidReference)

	_, err = Normalize(grid, make([]complex128, 3), &Reference{Grid: grid, H: make([]complex128, 2)})
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestNormalizeResponseLengthMismatch(t *testing.T) {
	grid := RFFTFreq(4, 4)
	ref := &Reference{Grid: grid, H: []complex128{1, 1, 1}}

	_, err := Normalize(grid, make([]complex128, 2), ref)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestNormalizeAgainstItselfIsUnity(t *testing.T) {
	grid := RFFTFreq(64, 64)
	h := pureDelay(grid, 0.3, 0.01)
	ref := &Reference{Grid: grid, H: h}

	bins, err := Normalize(grid, h, ref)
	require.NoError(t, err)

	b := BinsToBode(grid, bins, true)
	for i := range b.Grid {
		require.True(t, b.Valid[i])
		assert.InDelta(t, 0, b.MagnitudeDB[i], 1e-9)
		assert.InDelta(t, 0, b.Phase[i], 1e-9)
	}
}
