package estimation

import (
	"math"
	"slices"

	"github.com/RyanBlaney/bode-analyzer/internal/bode"
	"github.com/RyanBlaney/sonido-sonar/logging"
	"gonum.org/v1/gonum/stat"
)

// MetricsCalculator summarises a run
type MetricsCalculator struct {
	logger logging.Logger
}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator(logger logging.Logger) *MetricsCalculator {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	return &MetricsCalculator{
		logger: logger,
	}
}

// DelayStats represents statistical measures of the fitted delay over iterations, in seconds
type DelayStats struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	P95    float64 `json:"p95" yaml:"p95"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
	Count  int     `json:"count" yaml:"count"`
}

// ResponseSummary condenses one Bode view into a few figures
type ResponseSummary struct {
	Bins         int     `json:"bins" yaml:"bins"`
	ValidBins    int     `json:"valid_bins" yaml:"valid_bins"`
	BandGainDB   float64 `json:"band_gain_db" yaml:"band_gain_db"`
	BandBins     int     `json:"band_bins" yaml:"band_bins"`
	PeakGainDB   float64 `json:"peak_gain_db" yaml:"peak_gain_db"`
	PeakFreqHz   float64 `json:"peak_freq_hz" yaml:"peak_freq_hz"`
	TauNs        float64 `json:"tau_ns" yaml:"tau_ns"`
	TauSamples   float64 `json:"tau_samples" yaml:"tau_samples"`
	DelayApplied bool    `json:"delay_applied" yaml:"delay_applied"`
}

// DelayStats calculates statistical measures for the per-iteration delays.
// Iterations whose fit degraded to zero are included; they are part of the run.
func (mc *MetricsCalculator) DelayStats(taus []float64) *DelayStats {
	if len(taus) == 0 {
		return &DelayStats{Count: 0}
	}

	sorted := slices.Clone(taus)
	slices.Sort(sorted)

	mean, std := stat.PopMeanStdDev(sorted, nil)
	stats := &DelayStats{
		Count:  len(sorted),
		Mean:   mean,
		StdDev: std,
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, sorted, nil),
	}

	return mc.sanitizeStats(stats)
}

// sanitizeStats removes infinite and NaN values to prevent JSON serialization errors
func (mc *MetricsCalculator) sanitizeStats(stats *DelayStats) *DelayStats {
	for _, v := range []*float64{&stats.Mean, &stats.Median, &stats.P95, &stats.Min, &stats.Max, &stats.StdDev} {
		if math.IsInf(*v, 0) || math.IsNaN(*v) {
			mc.logger.Debug("Dropping non-finite delay statistic")
			*v = 0
		}
	}
	return stats
}

// Summarize reduces an iteration to its headline figures. The band gain is
// averaged over band; the peak is taken over all valid bins.
func (mc *MetricsCalculator) Summarize(it *Iteration, band bode.Band) *ResponseSummary {
	if it == nil || it.Bode == nil {
		return &ResponseSummary{}
	}

	b := it.Bode
	summary := &ResponseSummary{
		Bins:         len(b.Grid),
		ValidBins:    b.ValidCount(),
		TauNs:        it.Delay.Tau * 1e9,
		TauSamples:   it.Delay.Samples,
		DelayApplied: it.Delay.Applied,
	}
	summary.BandGainDB, summary.BandBins = b.BandGain(band)

	peak := math.Inf(-1)
	for i, ok := range b.Valid {
		if ok && b.MagnitudeDB[i] > peak {
			peak = b.MagnitudeDB[i]
			summary.PeakGainDB = peak
			summary.PeakFreqHz = b.Grid[i]
		}
	}

	return summary
}
