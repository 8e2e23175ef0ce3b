package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/bode-analyzer/configs"
	"github.com/RyanBlaney/bode-analyzer/pkg/device"
)

// configTestCmd represents the config test command
var configTestCmd = &cobra.Command{
	Use:   "config-test",
	Short: "Test and display all configuration values",
	Long: `Test configuration loading and display all values to verify proper parsing.

This command loads the configuration and displays all values in a structured format
to help verify that your YAML configuration is being parsed correctly.

Examples:
  # Test with default config file
  bode-analyzer config-test

  # Test with specific config file
  bode-analyzer --config /path/to/config.yaml config-test`,
	RunE: runConfigTest,
}

func init() {
	rootCmd.AddCommand(configTestCmd)
}

func runConfigTest(cmd *cobra.Command, args []string) error {
	fmt.Println("BODE ANALYZER CONFIGURATION TEST")
	fmt.Println(strings.Repeat("=", 80))

	// Load configuration
	config, err := configs.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	printSection("APPLICATION SETTINGS")
	printKeyValue("Verbose", fmt.Sprintf("%t", config.Verbose))
	printKeyValue("Log Level", config.LogLevel)
	printKeyValue("Output Format", config.OutputFormat)
	printKeyValue("Config Directory", config.ConfigDir)
	printKeyValue("Data Directory", config.DataDir)

	printSection("INSTRUMENT CONFIGURATION")
	printKeyValue("Kind", config.Instrument.Kind)
	printKeyValue("Host", config.Instrument.Host)
	printKeyValue("Sample Rate", fmt.Sprintf("%g Hz", config.Instrument.SampleRate))
	kinds := device.NewFactory().SupportedKinds()
	printKeyValue("Supported Kinds", fmt.Sprintf("(%d) %v", len(kinds), kinds))

	sim := config.Instrument.Simulation
	printSubsection("Simulation")
	printKeyValue("  Samples Per Descriptor", fmt.Sprintf("%d", sim.SamplesPerDescriptor))
	printKeyValue("  Delay Samples", fmt.Sprintf("%d", sim.DelaySamples))
	printKeyValue("  Gain", fmt.Sprintf("%g", sim.Gain))
	printKeyValue("  Cutoff", fmt.Sprintf("%g Hz", sim.CutoffHz))
	printKeyValue("  Noise Level", fmt.Sprintf("%g", sim.NoiseLevel))

	printSection("ACQUISITION CONFIGURATION")
	printKeyValue("Descriptors", fmt.Sprintf("%d", config.Acquisition.Descriptors))
	printKeyValue("Iterations", fmt.Sprintf("%d", config.Acquisition.Iterations))
	printKeyValue("Amplitude", fmt.Sprintf("%.3f", config.Acquisition.Amplitude))
	printKeyValue("Seed", fmt.Sprintf("%d", config.Acquisition.Seed))
	printKeyValue("Report Every", fmt.Sprintf("%d", config.Acquisition.ReportEvery))
	printKeyValue("Timeout", config.Acquisition.Timeout.String())

	printSection("ANALYSIS CONFIGURATION")
	nfft := "full capture"
	if config.Analysis.NFFT > 0 {
		nfft = fmt.Sprintf("%d", config.Analysis.NFFT)
	}
	printKeyValue("FFT Size", nfft)
	printKeyValue("FFT Backend", config.Analysis.FFTBackend)
	printKeyValue("Window", config.Analysis.Window)
	printKeyValue("Threshold", fmt.Sprintf("%g", config.Analysis.Threshold))
	printKeyValue("Remove Delay", fmt.Sprintf("%t", config.Analysis.RemoveDelay))
	printKeyValue("Delay Band", fmt.Sprintf("%g - %g Hz", config.Analysis.BandLo, config.Analysis.BandHi))

	printSection("BASELINE CONFIGURATION")
	printKeyValue("Mode", config.Baseline.Mode)
	printKeyValue("Path", config.Baseline.Path)

	printSection("OUTPUT CONFIGURATION")
	printKeyValue("Precision", fmt.Sprintf("%d", config.Output.Precision))
	printKeyValue("File", config.Output.File)
	printKeyValue("Headless", fmt.Sprintf("%t", config.Output.Headless))
	printKeyValue("Bins", fmt.Sprintf("%t", config.Output.Bins))

	printSection("METRICS CONFIGURATION")
	printKeyValue("Enabled", fmt.Sprintf("%t", config.Metrics.Enabled))
	printKeyValue("StatsD Address", config.Metrics.StatsdAddress)
	printKeyValue("Namespace", config.Metrics.Namespace)
	printKeyValue("Tags", fmt.Sprintf("(%d) %v", len(config.Metrics.Tags), config.Metrics.Tags))

	if err := configs.ValidateConfig(config); err != nil {
		fmt.Println()
		fmt.Println(ColorRed + strings.Repeat("-", 80))
		fmt.Printf("CONFIGURATION INVALID: %v\n", err)
		fmt.Println(strings.Repeat("=", 80) + ColorReset)
		return err
	}

	fmt.Println()
	fmt.Println(ColorGreen + strings.Repeat("-", 80))
	fmt.Println("CONFIGURATION TEST COMPLETED SUCCESSFULLY")
	fmt.Printf("Config file: %s\n", getConfigFilePath())
	fmt.Println(strings.Repeat("=", 80) + ColorReset)

	return nil
}

func printSection(title string) {
	fmt.Printf("\n%s%s%s\n", ColorBold, title, ColorReset)
	fmt.Println(strings.Repeat("-", len(title)))
}

func printSubsection(title string) {
	fmt.Printf("\n  %s\n", title)
}

func printKeyValue(key, value string) {
	if value == "" {
		fmt.Printf("%-35s\n", key)
	} else {
		fmt.Printf("%-35s %s\n", key+":", value)
	}
}
