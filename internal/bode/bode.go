package bode

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/stat"
)

// MagnitudeFloor is added to |H| before converting to decibels.
const MagnitudeFloor = 1e-12

// Bode is the magnitude/phase view of a response.
type Bode struct {
	Grid        Grid
	MagnitudeDB []float64 // 20·log10(|H|+MagnitudeFloor), zero where invalid
	Phase       []float64 // unwrapped across valid bins, radians, zero where invalid
	Valid       []bool
}

// ToBode converts a fully defined response. With skipDC the first bin is dropped.
func ToBode(grid Grid, h []complex128, skipDC bool) *Bode {
	return BinsToBode(grid, AllValid(h), skipDC)
}

// BinsToBode converts a response with possibly undefined bins. Phase is
// unwrapped over the valid bins only.
func BinsToBode(grid Grid, bins []Bin, skipDC bool) *Bode {
	start := 0
	if skipDC && len(bins) > 0 {
		start = 1
	}
	n := len(bins) - start

	b := &Bode{
		Grid:        grid[start:],
		MagnitudeDB: make([]float64, n),
		Phase:       make([]float64, n),
		Valid:       make([]bool, n),
	}

	validIdx := make([]int, 0, n)
	rawPhase := make([]float64, 0, n)
	for i, bin := range bins[start:] {
		if !bin.Valid {
			continue
		}
		b.Valid[i] = true
		b.MagnitudeDB[i] = 20 * math.Log10(cmplx.Abs(bin.Value)+MagnitudeFloor)
		validIdx = append(validIdx, i)
		rawPhase = append(rawPhase, cmplx.Phase(bin.Value))
	}

	for j, p := range Unwrap(rawPhase) {
		b.Phase[validIdx[j]] = p
	}

	return b
}

// ValidCount returns the number of valid bins.
func (b *Bode) ValidCount() int {
	n := 0
	for _, ok := range b.Valid {
		if ok {
			n++
		}
	}
	return n
}

// BandGain returns the mean magnitude in dB over the valid bins inside band
// and the number of bins averaged. It returns (0, 0) when no bin qualifies.
func (b *Bode) BandGain(band Band) (float64, int) {
	values := make([]float64, 0, len(b.Grid))
	for i, f := range b.Grid {
		if b.Valid[i] && band.Contains(f) {
			values = append(values, b.MagnitudeDB[i])
		}
	}
	if len(values) == 0 {
		return 0, 0
	}
	return stat.Mean(values, nil), len(values)
}
