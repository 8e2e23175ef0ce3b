package baseline

import (
	"time"

	"github.com/RyanBlaney/bode-analyzer/internal/bode"
)

// Metadata describes how a baseline was acquired.
type Metadata struct {
	Host        string            `yaml:"host" json:"host"`
	Instrument  string            `yaml:"instrument" json:"instrument"`
	SampleRate  float64           `yaml:"sample_rate" json:"sample_rate"`
	Descriptors int               `yaml:"descriptors" json:"descriptors"`
	Iterations  int               `yaml:"iterations" json:"iterations"`
	Amplitude   float64           `yaml:"amplitude" json:"amplitude"`
	BandLo      float64           `yaml:"band_lo" json:"band_lo"`
	BandHi      float64           `yaml:"band_hi" json:"band_hi"`
	Threshold   float64           `yaml:"threshold" json:"threshold"`
	RemoveDelay bool              `yaml:"remove_delay" json:"remove_delay"`
	NFFT        int               `yaml:"n_fft" json:"n_fft"`
	Window      string            `yaml:"window,omitempty" json:"window,omitempty"`
	Tau         float64           `yaml:"tau" json:"tau"`
	CreatedAt   time.Time         `yaml:"created_at" json:"created_at"`
	Extra       map[string]string `yaml:"extra,omitempty" json:"extra,omitempty"`
}

// Band returns the delay-fit band the baseline was measured with.
func (m Metadata) Band() bode.Band {
	return bode.Band{Lo: m.BandLo, Hi: m.BandHi}
}

// Record is a stored reference response together with its acquisition metadata.
type Record struct {
	Grid     bode.Grid
	H        []complex128
	Mask     []bool
	Metadata Metadata
}

// Reference returns the record as a normalization reference. The slices are shared.
func (r *Record) Reference() *bode.Reference {
	return &bode.Reference{Grid: r.Grid, H: r.H, Mask: r.Mask}
}

// ValidBins counts the bins set in the stored mask.
func (r *Record) ValidBins() int {
	n := 0
	for _, ok := range r.Mask {
		if ok {
			n++
		}
	}
	return n
}
