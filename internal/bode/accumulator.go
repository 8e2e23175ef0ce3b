package bode

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
)

// Epsilon keeps unexcited bins from dividing by zero in the H1 estimate.
const Epsilon = 1e-30

// DefaultThreshold is the relative excitation power below which a bin is masked.
const DefaultThreshold = 1e-6

// AccumulatorConfig configures a spectral accumulator.
type AccumulatorConfig struct {
	NFFT       int     // transform length in samples
	SampleRate float64 // Hz
	Window     string  // window function name, "" selects Hann
	Backend    string  // FFT backend name, "" selects gonum
}

// Validate checks that the accumulator settings are usable.
func (c AccumulatorConfig) Validate() error {
	if c.NFFT <= 0 {
		return fmt.Errorf("%w: transform length must be positive: %d", ErrConfiguration, c.NFFT)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive: %g", ErrConfiguration, c.SampleRate)
	}
	return nil
}

// Accumulator keeps running means of the excitation auto-spectrum (Sxx) and
// the response/excitation cross-spectrum (Syx) over repeated acquisitions.
// It is not safe for concurrent use.
type Accumulator struct {
	nfft       int
	sampleRate float64
	grid       Grid
	window     []float64
	fft        Transformer

	sxx   []float64
	syx   []complex128
	count int

	// scratch reused between updates
	xw, yw []float64
	xf, yf []complex128
}

// NewAccumulator creates an accumulator with zeroed averages.
func NewAccumulator(cfg AccumulatorConfig) (*Accumulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	window, err := NewWindow(cfg.Window, cfg.NFFT)
	if err != nil {
		return nil, err
	}

	transformer, err := NewTransformer(cfg.Backend, cfg.NFFT)
	if err != nil {
		return nil, err
	}

	grid := RFFTFreq(cfg.NFFT, cfg.SampleRate)

	return &Accumulator{
		nfft:       cfg.NFFT,
		sampleRate: cfg.SampleRate,
		grid:       grid,
		window:     window,
		fft:        transformer,
		sxx:        make([]float64, len(grid)),
		syx:        make([]complex128, len(grid)),
		xw:         make([]float64, cfg.NFFT),
		yw:         make([]float64, cfg.NFFT),
		xf:         make([]complex128, len(grid)),
		yf:         make([]complex128, len(grid)),
	}, nil
}

// Update folds one excitation/response pair into the running averages.
// Only the first NFFT samples of each channel are used.
func (a *Accumulator) Update(excitation, response []float64) error {
	if len(excitation) < a.nfft || len(response) < a.nfft {
		return fmt.Errorf("%w: transform length %d exceeds captured samples (excitation %d, response %d)",
			ErrConfiguration, a.nfft, len(excitation), len(response))
	}

	for i := 0; i < a.nfft; i++ {
		a.xw[i] = excitation[i] * a.window[i]
		a.yw[i] = response[i] * a.window[i]
	}

	a.xf = a.fft.Forward(a.xf, a.xw)
	a.yf = a.fft.Forward(a.yf, a.yw)

	k := float64(a.count)
	for i, x := range a.xf {
		power := real(x)*real(x) + imag(x)*imag(x)
		a.sxx[i] = (a.sxx[i]*k + power) / (k + 1)
		a.syx[i] = (a.syx[i]*complex(k, 0) + a.yf[i]*cmplx.Conj(x)) / complex(k+1, 0)
	}

	a.count++
	return nil
}

// Estimate computes the current response estimate H = Syx/(Sxx+ε) and the
// validity mask Sxx > threshold·max(Sxx). It does not modify the averages.
func (a *Accumulator) Estimate(threshold float64) *Estimate {
	h := make([]complex128, len(a.sxx))
	mask := make([]bool, len(a.sxx))

	limit := threshold * floats.Max(a.sxx)
	for i, sxx := range a.sxx {
		h[i] = a.syx[i] / complex(sxx+Epsilon, 0)
		mask[i] = sxx > limit
	}

	return &Estimate{
		Grid:  a.grid,
		H:     h,
		Mask:  mask,
		Sxx:   a.Sxx(),
		Count: a.count,
	}
}

// Reset zeroes the averages and the acquisition counter.
func (a *Accumulator) Reset() {
	for i := range a.sxx {
		a.sxx[i] = 0
		a.syx[i] = 0
	}
	a.count = 0
}

// Count returns the number of acquisitions folded in so far.
func (a *Accumulator) Count() int { return a.count }

// NFFT returns the transform length.
func (a *Accumulator) NFFT() int { return a.nfft }

// SampleRate returns the sample rate in Hz.
func (a *Accumulator) SampleRate() float64 { return a.sampleRate }

// Grid returns the frequency grid. Callers must not modify it.
func (a *Accumulator) Grid() Grid { return a.grid }

// Sxx returns a copy of the averaged excitation power spectrum.
func (a *Accumulator) Sxx() []float64 {
	return append([]float64(nil), a.sxx...)
}

// Syx returns a copy of the averaged cross-spectrum.
func (a *Accumulator) Syx() []complex128 {
	return append([]complex128(nil), a.syx...)
}

// Estimate is a response estimate computed from the accumulator state.
type Estimate struct {
	Grid  Grid
	H     []complex128
	Mask  []bool
	Sxx   []float64
	Count int
}

// ValidBins returns the number of bins where the mask is set.
func (e *Estimate) ValidBins() int {
	n := 0
	for _, ok := range e.Mask {
		if ok {
			n++
		}
	}
	return n
}
