package app

import (
	"fmt"
	"io"

	"github.com/RyanBlaney/bode-analyzer/internal/bode"
	"github.com/RyanBlaney/bode-analyzer/internal/estimation"
)

// ConsoleReporter prints one progress line per reported iteration
type ConsoleReporter struct {
	out     io.Writer
	total   int
	band    bode.Band
	metrics *estimation.MetricsCalculator
}

// NewConsoleReporter creates a reporter writing to out
func NewConsoleReporter(out io.Writer, total int, band bode.Band, metrics *estimation.MetricsCalculator) *ConsoleReporter {
	return &ConsoleReporter{
		out:     out,
		total:   total,
		band:    band,
		metrics: metrics,
	}
}

func (r *ConsoleReporter) Report(it *estimation.Iteration) error {
	summary := r.metrics.Summarize(it, r.band)

	label := "raw"
	if it.Normalized {
		label = "normalized"
	}

	_, err := fmt.Fprintf(r.out, "[%d/%d] tau=%.3f ns (%.2f samples) band gain=%.2f dB over %d bins, peak %.2f dB @ %.4g Hz, %d/%d valid (%s)\n",
		it.Index+1, r.total,
		summary.TauNs, summary.TauSamples,
		summary.BandGainDB, summary.BandBins,
		summary.PeakGainDB, summary.PeakFreqHz,
		summary.ValidBins, summary.Bins,
		label,
	)
	return err
}
