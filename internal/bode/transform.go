package bode

import (
	"fmt"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// FFT backend names accepted by NewTransformer.
const (
	BackendGonum = "gonum"
	BackendGoDSP = "go-dsp"
)

// Transformer computes the one-sided forward transform of a real sequence.
type Transformer interface {
	// Forward writes the Len()/2+1 coefficients of src into dst and returns it.
	// A nil or wrongly sized dst is replaced by a fresh slice.
	Forward(dst []complex128, src []float64) []complex128

	// Len returns the transform length.
	Len() int
}

// NewTransformer returns a real-input transformer of length n for the named backend.
// An empty backend selects gonum.
func NewTransformer(backend string, n int) (Transformer, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: transform length must be positive: %d", ErrConfiguration, n)
	}

	switch backend {
	case "", BackendGonum:
		return &gonumTransformer{n: n, plan: fourier.NewFFT(n)}, nil
	case BackendGoDSP:
		return &goDSPTransformer{n: n}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// gonumTransformer reuses one FFTPACK plan for every call.
type gonumTransformer struct {
	n    int
	plan *fourier.FFT
}

func (t *gonumTransformer) Forward(dst []complex128, src []float64) []complex128 {
	if len(dst) != t.n/2+1 {
		dst = nil
	}
	return t.plan.Coefficients(dst, src)
}

func (t *gonumTransformer) Len() int { return t.n }

// goDSPTransformer computes the full complex spectrum and keeps the
// non-negative frequencies.
type goDSPTransformer struct {
	n int
}

func (t *goDSPTransformer) Forward(dst []complex128, src []float64) []complex128 {
	if len(dst) != t.n/2+1 {
		dst = make([]complex128, t.n/2+1)
	}
	full := fft.FFTReal(src[:t.n])
	copy(dst, full[:len(dst)])
	return dst
}

func (t *goDSPTransformer) Len() int { return t.n }
