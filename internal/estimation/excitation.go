package estimation

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Excitation produces the waveform pushed to the signal generator each iteration.
type Excitation interface {
	Generate(n int) []float64
}

// WhiteNoise generates Gaussian noise normalized to unit peak and scaled by
// Amplitude. Every call draws a fresh realization.
type WhiteNoise struct {
	Amplitude float64
	rng       *rand.Rand
}

// NewWhiteNoise creates a seeded white noise source.
func NewWhiteNoise(amplitude float64, seed int64) *WhiteNoise {
	return &WhiteNoise{
		Amplitude: amplitude,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

func (w *WhiteNoise) Generate(n int) []float64 {
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	peak := 0.0
	for i := range out {
		out[i] = w.rng.NormFloat64()
		peak = math.Max(peak, math.Abs(out[i]))
	}

	floats.Scale(w.Amplitude/(peak+1e-12), out)
	return out
}
