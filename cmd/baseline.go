package cmd

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/bode-analyzer/internal/baseline"
	"github.com/RyanBlaney/bode-analyzer/internal/bode"
	"github.com/RyanBlaney/bode-analyzer/internal/output"
)

var inspectBins bool

// baselineCmd groups the baseline archive commands
var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Work with stored baseline responses",
}

// baselineInspectCmd prints the metadata and a response summary of a stored baseline
var baselineInspectCmd = &cobra.Command{
	Use:   "inspect <path>",
	Short: "Show the metadata and response summary of a baseline archive",
	Long: `Load a baseline archive and print how it was acquired together with a
summary of the stored response.

Examples:
  bode-analyzer baseline inspect baselines/loopback.zip
  bode-analyzer baseline inspect -o json --bins baselines/loopback.zip`,
	Args: cobra.ExactArgs(1),
	RunE: runBaselineInspect,
}

func init() {
	baselineInspectCmd.Flags().BoolVar(&inspectBins, "bins", false, "include the per-bin response")
	baselineCmd.AddCommand(baselineInspectCmd)
	rootCmd.AddCommand(baselineCmd)
}

func runBaselineInspect(cmd *cobra.Command, args []string) error {
	rec, err := baseline.Load(args[0])
	if err != nil {
		return err
	}

	report := inspectReport(args[0], rec, inspectBins)

	formatter := output.NewFormatter(outputFormat, 3)
	data, err := formatter.Format(report, true)
	if err != nil {
		return fmt.Errorf("failed to format baseline: %w", err)
	}

	_, err = os.Stdout.Write(data)
	return err
}

// inspectReport summarizes a stored baseline
func inspectReport(path string, rec *baseline.Record, withBins bool) *output.Report {
	meta := rec.Metadata
	view := bode.BinsToBode(rec.Grid, maskedBins(rec), true)

	report := &output.Report{}
	report.Add("path", path)
	report.Add("instrument", meta.Instrument)
	report.Add("host", meta.Host)
	report.Add("created_at", meta.CreatedAt.Format(time.RFC3339))
	report.Add("sample_rate_hz", meta.SampleRate)
	report.Add("n_fft", meta.NFFT)
	report.Add("descriptors", meta.Descriptors)
	report.Add("iterations", meta.Iterations)
	report.Add("amplitude", meta.Amplitude)
	report.Add("threshold", meta.Threshold)
	report.Add("window", meta.Window)
	report.Add("remove_delay", meta.RemoveDelay)
	report.Add("tau_ns", meta.Tau*1e9)
	report.Add("band_lo_hz", meta.BandLo)
	report.Add("band_hi_hz", meta.BandHi)
	report.Add("bins", len(rec.H))
	report.Add("valid_bins", rec.ValidBins())

	gain, n := view.BandGain(meta.Band())
	report.Add("band_bins", n)
	report.Add("band_gain_db", gain)

	for _, key := range slices.Sorted(maps.Keys(meta.Extra)) {
		report.Add("extra_"+key, meta.Extra[key])
	}

	if withBins {
		report.Bins = output.BinsFromBode(view)
	}

	return report
}

// maskedBins marks the bins outside the stored mask as undefined
func maskedBins(rec *baseline.Record) []bode.Bin {
	mask := rec.Reference().EffectiveMask()
	bins := make([]bode.Bin, len(rec.H))
	for i, h := range rec.H {
		bins[i] = bode.Bin{Value: h, Valid: mask[i]}
	}
	return bins
}
