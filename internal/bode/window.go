package bode

import (
	"fmt"
	"slices"
	"strings"

	"github.com/RyanBlaney/sonido-sonar/algorithms/windowing"
)

// Window names accepted by NewWindow.
const (
	WindowHann           = "hann"
	WindowHamming        = "hamming"
	WindowBlackman       = "blackman"
	WindowBlackmanHarris = "blackman-harris"
	WindowBartlett       = "bartlett"
	WindowTukey          = "tukey"
	WindowKaiser         = "kaiser"
	WindowWelch          = "welch"
	WindowRectangular    = "rectangular"
)

const (
	tukeyAlpha = 0.5
	kaiserBeta = 8.6
)

// WindowNames lists the supported window functions.
func WindowNames() []string {
	return []string{
		WindowHann, WindowHamming, WindowBlackman, WindowBlackmanHarris,
		WindowBartlett, WindowTukey, WindowKaiser, WindowWelch, WindowRectangular,
	}
}

// NewWindow returns the symmetric coefficients of the named taper for n samples.
// An empty name selects Hann.
func NewWindow(name string, n int) ([]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: window length must be positive: %d", ErrConfiguration, n)
	}

	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = WindowHann
	}

	// symmetric tapers divide by n-1
	if n == 1 {
		if !slices.Contains(WindowNames(), name) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownWindow, name)
		}
		return []float64{1}, nil
	}

	switch name {
	case WindowHann:
		return windowing.NewHann(n, true).GetCoefficients(), nil
	case WindowHamming:
		return windowing.NewHamming(n, true).GetCoefficients(), nil
	case WindowBlackman:
		return windowing.NewBlackman(n, true).GetCoefficients(), nil
	case WindowBlackmanHarris:
		return windowing.NewBlackmanHarris(n, true).GetCoefficients(), nil
	case WindowBartlett:
		return windowing.NewBartlett(n, true).GetCoefficients(), nil
	case WindowTukey:
		return windowing.NewTukey(n, tukeyAlpha, true).GetCoefficients(), nil
	case WindowKaiser:
		return windowing.NewKaiser(n, kaiserBeta, true).GetCoefficients(), nil
	case WindowWelch:
		return windowing.NewWelch(n).GetCoefficients(), nil
	case WindowRectangular:
		return windowing.NewRectangular(n).GetCoefficients(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownWindow, name)
	}
}

