package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/RyanBlaney/bode-analyzer/internal/bode"
	"github.com/RyanBlaney/bode-analyzer/internal/estimation"
	"github.com/RyanBlaney/bode-analyzer/internal/output"
	"github.com/RyanBlaney/sonido-sonar/logging"
)

// buildReport condenses a run into the output report
func (app *BodeApp) buildReport(result *estimation.Result, outcome *runOutcome) *output.Report {
	cfg := app.config
	band := bode.Band{Lo: cfg.Analysis.BandLo, Hi: cfg.Analysis.BandHi}
	summary := app.metrics.Summarize(result.Final, band)

	report := &output.Report{}
	report.Add("mode", cfg.Baseline.Mode)
	report.Add("instrument", string(outcome.info.Kind))
	report.Add("host", outcome.info.Host)
	report.Add("sample_rate_hz", outcome.info.SampleRate)
	report.Add("n_fft", outcome.nfft)
	report.Add("iterations", result.Iterations)
	report.Add("completed", !outcome.interrupted)
	report.Add("normalized", result.Final != nil && result.Final.Normalized)
	if outcome.reference != nil {
		report.Add("baseline_path", cfg.Baseline.Path)
		report.Add("baseline_created_at", outcome.reference.Metadata.CreatedAt)
	}
	if outcome.savedPath != "" {
		report.Add("baseline_saved", outcome.savedPath)
	}

	report.Add("delay_removed", summary.DelayApplied)
	report.Add("tau_ns", summary.TauNs)
	report.Add("tau_samples", summary.TauSamples)
	if result.Delay != nil && result.Delay.Count > 0 {
		report.Add("tau_mean_ns", result.Delay.Mean*1e9)
		report.Add("tau_std_ns", result.Delay.StdDev*1e9)
		report.Add("tau_p95_ns", result.Delay.P95*1e9)
	}

	report.Add("bins", summary.Bins)
	report.Add("valid_bins", summary.ValidBins)
	report.Add("band_lo_hz", band.Lo)
	report.Add("band_hi_hz", band.Hi)
	report.Add("band_bins", summary.BandBins)
	report.Add("band_gain_db", summary.BandGainDB)
	report.Add("peak_gain_db", summary.PeakGainDB)
	report.Add("peak_freq_hz", summary.PeakFreqHz)
	report.Add("duration_ms", result.Duration.Milliseconds())

	if cfg.Output.Bins && result.Final != nil {
		report.Bins = output.BinsFromBode(result.Final.Bode)
	}

	return report
}

// outputResults handles all result output
func (app *BodeApp) outputResults(result *estimation.Result, outcome *runOutcome) error {
	report := app.buildReport(result, outcome)

	formatter := output.NewFormatter(app.config.OutputFormat, app.config.Output.Precision)
	formattedData, err := formatter.Format(report, true)
	if err != nil {
		return fmt.Errorf("failed to format output data: %w", err)
	}

	// Write to file or stdout
	if app.config.Output.File != "" {
		return app.writeToFile(formattedData)
	}

	_, err = app.ctx.stdout().Write(formattedData)
	return err
}

// writeToFile writes data to the specified output file
func (app *BodeApp) writeToFile(data []byte) error {
	path := app.config.Output.File

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Write file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	app.logger.Debug("Results written to file", logging.Fields{
		"output_file": path,
		"size_bytes":  len(data),
	})

	return nil
}
