package configs

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets default configuration values for all components
func setDefaults(v *viper.Viper) {
	// Instrument defaults
	if !v.IsSet("instrument.kind") {
		v.Set("instrument.kind", "sim-loopback")
	}
	if !v.IsSet("instrument.host") {
		v.Set("instrument.host", "192.168.1.100")
	}
	if !v.IsSet("instrument.sample_rate") {
		v.Set("instrument.sample_rate", 250e6)
	}
	if !v.IsSet("instrument.simulation.samples_per_descriptor") {
		v.Set("instrument.simulation.samples_per_descriptor", 0)
	}
	if !v.IsSet("instrument.simulation.delay_samples") {
		v.Set("instrument.simulation.delay_samples", 37)
	}
	if !v.IsSet("instrument.simulation.gain") {
		v.Set("instrument.simulation.gain", 0.0)
	}
	if !v.IsSet("instrument.simulation.cutoff_hz") {
		v.Set("instrument.simulation.cutoff_hz", 0.0)
	}
	if !v.IsSet("instrument.simulation.noise_level") {
		v.Set("instrument.simulation.noise_level", 1e-3)
	}

	// Acquisition defaults
	if !v.IsSet("acquisition.descriptors") {
		v.Set("acquisition.descriptors", 1)
	}
	if !v.IsSet("acquisition.iterations") {
		v.Set("acquisition.iterations", 200)
	}
	if !v.IsSet("acquisition.amplitude") {
		v.Set("acquisition.amplitude", 0.9)
	}
	if !v.IsSet("acquisition.seed") {
		v.Set("acquisition.seed", int64(1))
	}
	if !v.IsSet("acquisition.report_every") {
		v.Set("acquisition.report_every", 5)
	}
	if !v.IsSet("acquisition.timeout") {
		v.Set("acquisition.timeout", 30*time.Minute)
	}

	// Analysis defaults
	if !v.IsSet("analysis.n_fft") {
		v.Set("analysis.n_fft", 0)
	}
	if !v.IsSet("analysis.threshold") {
		v.Set("analysis.threshold", 1e-6)
	}
	if !v.IsSet("analysis.band_lo") {
		v.Set("analysis.band_lo", 1e6)
	}
	if !v.IsSet("analysis.band_hi") {
		v.Set("analysis.band_hi", 5e7)
	}
	if !v.IsSet("analysis.remove_delay") {
		v.Set("analysis.remove_delay", true)
	}
	if !v.IsSet("analysis.window") {
		v.Set("analysis.window", "hann")
	}
	if !v.IsSet("analysis.fft_backend") {
		v.Set("analysis.fft_backend", "gonum")
	}

	// Baseline defaults
	if !v.IsSet("baseline.mode") {
		v.Set("baseline.mode", ModeDUT)
	}
	if !v.IsSet("baseline.path") {
		v.Set("baseline.path", "")
	}

	// Output defaults
	if !v.IsSet("output.precision") {
		v.Set("output.precision", 3)
	}
	if !v.IsSet("output.file") {
		v.Set("output.file", "")
	}
	if !v.IsSet("output.headless") {
		v.Set("output.headless", false)
	}
	if !v.IsSet("output.bins") {
		v.Set("output.bins", false)
	}

	// Metrics defaults
	if !v.IsSet("metrics.enabled") {
		v.Set("metrics.enabled", false)
	}
	if !v.IsSet("metrics.statsd_address") {
		v.Set("metrics.statsd_address", "127.0.0.1:8125")
	}
	if !v.IsSet("metrics.namespace") {
		v.Set("metrics.namespace", "bode_analyzer.")
	}
	if !v.IsSet("metrics.tags") {
		v.Set("metrics.tags", []string{})
	}

	// Application defaults
	if !v.IsSet("verbose") {
		v.Set("verbose", false)
	}
	if !v.IsSet("log_level") {
		v.Set("log_level", "info")
	}
	if !v.IsSet("output_format") {
		v.Set("output_format", "table")
	}

	home, _ := os.UserHomeDir()
	if !v.IsSet("config_dir") {
		v.Set("config_dir", filepath.Join(home, ".config", "bode-analyzer"))
	}
	if !v.IsSet("data_dir") {
		v.Set("data_dir", filepath.Join(home, ".local", "share", "bode-analyzer"))
	}
}

// GetDefaultConfig returns a Config struct with all default values set
func GetDefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		Verbose:      false,
		LogLevel:     "info",
		OutputFormat: "table",
		ConfigDir:    filepath.Join(home, ".config", "bode-analyzer"),
		DataDir:      filepath.Join(home, ".local", "share", "bode-analyzer"),
		Instrument:   GetDefaultInstrumentConfig(),
		Acquisition:  GetDefaultAcquisitionConfig(),
		Analysis:     GetDefaultAnalysisConfig(),
		Baseline:     BaselineConfig{Mode: ModeDUT},
		Output:       OutputConfig{Precision: 3},
		Metrics: MetricsConfig{
			StatsdAddress: "127.0.0.1:8125",
			Namespace:     "bode_analyzer.",
			Tags:          []string{},
		},
	}
}

// GetDefaultInstrumentConfig returns default instrument connection settings
func GetDefaultInstrumentConfig() InstrumentConfig {
	return InstrumentConfig{
		Kind:       "sim-loopback",
		Host:       "192.168.1.100",
		SampleRate: 250e6,
		Simulation: SimulationConfig{
			DelaySamples: 37,
			NoiseLevel:   1e-3,
		},
	}
}

// GetDefaultAcquisitionConfig returns default excitation and capture settings
func GetDefaultAcquisitionConfig() AcquisitionConfig {
	return AcquisitionConfig{
		Descriptors: 1,
		Iterations:  200,
		Amplitude:   0.9,
		Seed:        1,
		ReportEvery: 5,
		Timeout:     30 * time.Minute,
	}
}

// GetDefaultAnalysisConfig returns default spectral estimation settings
func GetDefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		NFFT:        0,
		Threshold:   1e-6,
		BandLo:      1e6,
		BandHi:      5e7,
		RemoveDelay: true,
		Window:      "hann",
		FFTBackend:  "gonum",
	}
}
