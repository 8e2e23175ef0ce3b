package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/bode-analyzer/internal/app"
)

var (
	// Measure command flags
	measureProfile     string
	measureSettings    app.MeasurementSettings
	measureRemoveDelay bool
	measureReportEvery int
	measureThreshold   float64
	measureBandLo      float64
	measureHeadless    bool
	measureBins        bool
)

// measureCmd represents the measure command
var measureCmd = &cobra.Command{
	Use:   "measure [flags]",
	Short: "Measure the frequency response of the signal path",
	Long: `Excite the instrument with white noise, capture the excitation and the
response simultaneously and average the H1 transfer function estimate over
the configured number of iterations.

In baseline mode the final response is stored at the baseline path. In dut
mode a stored baseline, when present, is divided out of every estimate so the
report shows the device under test alone.

Examples:
  # Record a loopback baseline
  bode-analyzer measure --mode baseline --baseline baselines/loopback.zip

  # Measure a device against that baseline
  bode-analyzer measure --instrument sim-dut --baseline baselines/loopback.zip

  # Headless run with per-bin JSON output written to a file
  bode-analyzer measure --headless --bins -o json --output-file results/dut.json

  # Use a run profile and override the iteration count
  bode-analyzer measure --profile profiles/dut-sweep.yaml --iterations 50`,
	Args: cobra.NoArgs,
	RunE: runMeasure,
}

func init() {
	rootCmd.AddCommand(measureCmd)

	flags := measureCmd.Flags()
	s := &measureSettings

	flags.StringVar(&measureProfile, "profile", "", "run profile file (yaml or json)")

	// Instrument
	flags.StringVar(&s.Host, "host", "", "instrument host address")
	flags.StringVar(&s.Instrument, "instrument", "", "instrument kind (sim-loopback, sim-dut)")
	flags.Float64Var(&s.SampleRate, "sample-rate", 0, "instrument sample rate in Hz")

	// Acquisition
	flags.IntVar(&s.Descriptors, "descriptors", 0, "capture descriptors per acquisition (1-256)")
	flags.IntVar(&s.Iterations, "iterations", 0, "number of acquisitions to average")
	flags.Float64Var(&s.Amplitude, "amplitude", 0, "excitation peak amplitude in (0, 1]")
	flags.Int64Var(&s.Seed, "seed", 0, "excitation random seed")
	flags.IntVar(&measureReportEvery, "report-every", 0, "report every N iterations (0 reports first and last only)")
	flags.StringVar(&s.Timeout, "timeout", "", "overall run timeout (e.g. 10m)")

	// Analysis
	flags.IntVar(&s.NFFT, "n-fft", 0, "FFT length (default is the full capture)")
	flags.Float64Var(&measureThreshold, "threshold", 0, "validity threshold relative to the peak excitation power")
	flags.Float64Var(&measureBandLo, "band-lo", 0, "delay fit band low edge in Hz")
	flags.Float64Var(&s.BandHi, "band-hi", 0, "delay fit band high edge in Hz")
	flags.BoolVar(&measureRemoveDelay, "remove-delay", true, "fit and remove the pure delay")
	flags.StringVar(&s.Window, "window", "", "analysis window (hann, hamming, blackman, rectangular, ...)")
	flags.StringVar(&s.FFTBackend, "fft-backend", "", "FFT implementation (gonum, go-dsp)")

	// Baseline
	flags.StringVar(&s.Mode, "mode", "", "measurement mode (baseline, dut)")
	flags.StringVar(&s.BaselinePath, "baseline", "", "baseline archive path (relative paths are under --data-dir)")

	// Output
	flags.StringVar(&s.OutputFile, "output-file", "", "write results to a file instead of stdout (relative paths are under --data-dir)")
	flags.BoolVar(&measureHeadless, "headless", false, "suppress per-iteration progress, print only the final result")
	flags.BoolVar(&measureBins, "bins", false, "include the per-bin response in the output")
}

func runMeasure(cmd *cobra.Command, args []string) error {
	settings := measureSettings

	// Only flags given on the command line override the profile
	flags := cmd.Flags()
	if flags.Changed("remove-delay") {
		settings.RemoveDelay = &measureRemoveDelay
	}
	if flags.Changed("report-every") {
		settings.ReportEvery = &measureReportEvery
	}
	if flags.Changed("threshold") {
		settings.Threshold = &measureThreshold
	}
	if flags.Changed("band-lo") {
		settings.BandLo = &measureBandLo
	}
	if flags.Changed("headless") {
		settings.Headless = &measureHeadless
	}
	if flags.Changed("bins") {
		settings.Bins = &measureBins
	}
	if flags.Changed("output") {
		settings.OutputFormat = outputFormat
	}

	appCtx := &app.Context{
		ProfileFile: measureProfile,
		Verbose:     verbose,
		Settings:    settings,
	}
	if flags.Changed("log-level") {
		appCtx.LogLevel = logLevel
	}

	bodeApp, err := app.NewBodeApp(appCtx)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return measureResult(bodeApp.Run(ctx), os.Stderr)
}

// measureResult maps a run error to the command result. A user interrupt ends
// the run normally since the partial result is already written; a timeout does not.
func measureResult(err error, stderr io.Writer) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		fmt.Fprintf(stderr, "%sinterrupted: %v%s\n", ColorRed, err, ColorReset)
		return nil
	}
	return fmt.Errorf("measurement failed: %w", err)
}
