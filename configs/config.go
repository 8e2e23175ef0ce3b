package configs

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose      bool   `mapstructure:"verbose"`
	LogLevel     string `mapstructure:"log_level"`
	OutputFormat string `mapstructure:"output_format"`
	ConfigDir    string `mapstructure:"config_dir"`
	DataDir      string `mapstructure:"data_dir"`

	// Instrument connection
	Instrument InstrumentConfig `mapstructure:"instrument"`

	// Excitation and capture
	Acquisition AcquisitionConfig `mapstructure:"acquisition"`

	// Spectral estimation
	Analysis AnalysisConfig `mapstructure:"analysis"`

	// Reference response handling
	Baseline BaselineConfig `mapstructure:"baseline"`

	// Output configuration
	Output OutputConfig `mapstructure:"output"`

	// Metrics publishing
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// InstrumentConfig contains instrument connection settings
type InstrumentConfig struct {
	Kind       string           `mapstructure:"kind"`
	Host       string           `mapstructure:"host"`
	SampleRate float64          `mapstructure:"sample_rate"`
	Simulation SimulationConfig `mapstructure:"simulation"`
}

// SimulationConfig describes the signal path of the simulated instruments
type SimulationConfig struct {
	SamplesPerDescriptor int     `mapstructure:"samples_per_descriptor"`
	DelaySamples         int     `mapstructure:"delay_samples"`
	Gain                 float64 `mapstructure:"gain"`
	CutoffHz             float64 `mapstructure:"cutoff_hz"`
	NoiseLevel           float64 `mapstructure:"noise_level"`
}

// AcquisitionConfig contains excitation and capture settings
type AcquisitionConfig struct {
	Descriptors int           `mapstructure:"descriptors"`
	Iterations  int           `mapstructure:"iterations"`
	Amplitude   float64       `mapstructure:"amplitude"`
	Seed        int64         `mapstructure:"seed"`
	ReportEvery int           `mapstructure:"report_every"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// AnalysisConfig contains spectral estimation settings
type AnalysisConfig struct {
	NFFT        int     `mapstructure:"n_fft"`
	Threshold   float64 `mapstructure:"threshold"`
	BandLo      float64 `mapstructure:"band_lo"`
	BandHi      float64 `mapstructure:"band_hi"`
	RemoveDelay bool    `mapstructure:"remove_delay"`
	Window      string  `mapstructure:"window"`
	FFTBackend  string  `mapstructure:"fft_backend"`
}

// BaselineConfig contains reference response settings
type BaselineConfig struct {
	Mode string `mapstructure:"mode"`
	Path string `mapstructure:"path"`
}

// OutputConfig contains output formatting settings
type OutputConfig struct {
	Precision int    `mapstructure:"precision"`
	File      string `mapstructure:"file"`
	Headless  bool   `mapstructure:"headless"`
	Bins      bool   `mapstructure:"bins"`
}

// MetricsConfig contains DogStatsD publishing settings
type MetricsConfig struct {
	Enabled       bool     `mapstructure:"enabled"`
	StatsdAddress string   `mapstructure:"statsd_address"`
	Namespace     string   `mapstructure:"namespace"`
	Tags          []string `mapstructure:"tags"`
}

// Measurement modes
const (
	ModeBaseline = "baseline"
	ModeDUT      = "dut"
)

// OutputFormats lists the accepted output formats
var OutputFormats = []string{"json", "yaml", "csv", "table"}

// LogLevels lists the accepted log levels
var LogLevels = []string{"debug", "info", "warn", "error"}

// LoadConfig loads configuration from the global viper instance
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(viper.GetViper())
}

// LoadConfigFrom loads configuration from v, filling unset keys with defaults
func LoadConfigFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if config.Instrument.SampleRate <= 0 {
		return fmt.Errorf("instrument sample rate must be positive")
	}

	if config.Acquisition.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive")
	}

	if config.Acquisition.Descriptors <= 0 {
		return fmt.Errorf("descriptors must be positive")
	}

	if config.Acquisition.Amplitude <= 0 || config.Acquisition.Amplitude > 1 {
		return fmt.Errorf("amplitude must be in (0, 1]")
	}

	if config.Acquisition.Timeout < 0 {
		return fmt.Errorf("acquisition timeout cannot be negative")
	}

	if config.Acquisition.ReportEvery < 0 {
		return fmt.Errorf("report interval cannot be negative")
	}

	if config.Analysis.NFFT < 0 {
		return fmt.Errorf("n_fft cannot be negative")
	}

	if config.Analysis.Threshold < 0 || config.Analysis.Threshold >= 1 {
		return fmt.Errorf("threshold must be in [0, 1)")
	}

	if config.Analysis.RemoveDelay && config.Analysis.BandLo >= config.Analysis.BandHi {
		return fmt.Errorf("delay band low edge must be below high edge")
	}

	if config.Baseline.Mode != ModeBaseline && config.Baseline.Mode != ModeDUT {
		return fmt.Errorf("mode must be %q or %q, got %q", ModeBaseline, ModeDUT, config.Baseline.Mode)
	}

	if config.Baseline.Mode == ModeBaseline && config.Baseline.Path == "" {
		return fmt.Errorf("baseline mode requires a baseline path")
	}

	if !slices.Contains(OutputFormats, config.OutputFormat) {
		return fmt.Errorf("unsupported output format: %s", config.OutputFormat)
	}

	if !slices.Contains(LogLevels, config.LogLevel) {
		return fmt.Errorf("unsupported log level: %s", config.LogLevel)
	}

	if config.Metrics.Enabled && config.Metrics.StatsdAddress == "" {
		return fmt.Errorf("metrics enabled without a statsd address")
	}

	return nil
}
