package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/RyanBlaney/bode-analyzer/configs"
	"gopkg.in/yaml.v3"
)

// MeasurementSettings are per-run overrides layered over the base configuration.
// Zero values leave the base setting untouched; the pointer fields distinguish
// an explicit false or zero from an unset value.
type MeasurementSettings struct {
	Name        string `yaml:"name,omitempty" json:"name,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	Instrument  string  `yaml:"instrument,omitempty" json:"instrument,omitempty"`
	Host        string  `yaml:"host,omitempty" json:"host,omitempty"`
	SampleRate  float64 `yaml:"sample_rate,omitempty" json:"sample_rate,omitempty"`
	Descriptors int     `yaml:"descriptors,omitempty" json:"descriptors,omitempty"`
	Iterations  int     `yaml:"iterations,omitempty" json:"iterations,omitempty"`
	Amplitude   float64 `yaml:"amplitude,omitempty" json:"amplitude,omitempty"`
	Seed        int64   `yaml:"seed,omitempty" json:"seed,omitempty"`
	ReportEvery *int    `yaml:"report_every,omitempty" json:"report_every,omitempty"`
	Timeout     string  `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	NFFT        int     `yaml:"n_fft,omitempty" json:"n_fft,omitempty"`
	Threshold   *float64 `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	BandLo      *float64 `yaml:"band_lo,omitempty" json:"band_lo,omitempty"`
	BandHi      float64  `yaml:"band_hi,omitempty" json:"band_hi,omitempty"`
	RemoveDelay *bool    `yaml:"remove_delay,omitempty" json:"remove_delay,omitempty"`
	Window      string   `yaml:"window,omitempty" json:"window,omitempty"`
	FFTBackend  string   `yaml:"fft_backend,omitempty" json:"fft_backend,omitempty"`

	Mode         string `yaml:"mode,omitempty" json:"mode,omitempty"`
	BaselinePath string `yaml:"baseline_path,omitempty" json:"baseline_path,omitempty"`

	OutputFormat string `yaml:"output_format,omitempty" json:"output_format,omitempty"`
	OutputFile   string `yaml:"output_file,omitempty" json:"output_file,omitempty"`
	Headless     *bool  `yaml:"headless,omitempty" json:"headless,omitempty"`
	Bins         *bool  `yaml:"bins,omitempty" json:"bins,omitempty"`
}

// loadProfileFromFile loads run settings from a YAML or JSON file
func loadProfileFromFile(filePath string) (*MeasurementSettings, error) {
	// Check if file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("profile file does not exist: %s", filePath)
	}

	ext := filepath.Ext(filePath)
	switch ext {
	case ".yaml", ".yml":
		return loadProfileFromYAML(filePath)
	case ".json":
		return loadProfileFromJSON(filePath)
	default:
		// Try YAML first, then JSON
		if profile, err := loadProfileFromYAML(filePath); err == nil {
			return profile, nil
		}
		return loadProfileFromJSON(filePath)
	}
}

func readProfile(filePath, kind string) ([]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s profile file: %w", kind, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s profile file: %w", kind, err)
	}
	return data, nil
}

// loadProfileFromYAML loads from YAML file
func loadProfileFromYAML(filePath string) (*MeasurementSettings, error) {
	data, err := readProfile(filePath, "YAML")
	if err != nil {
		return nil, err
	}

	var profile MeasurementSettings
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML profile: %w", err)
	}

	return &profile, nil
}

// loadProfileFromJSON loads from JSON file
func loadProfileFromJSON(filePath string) (*MeasurementSettings, error) {
	data, err := readProfile(filePath, "JSON")
	if err != nil {
		return nil, err
	}

	var profile MeasurementSettings
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse JSON profile: %w", err)
	}

	return &profile, nil
}

// resolveDataPaths places relative baseline and output file paths under the data directory
func resolveDataPaths(config *configs.Config) {
	if config.DataDir == "" {
		return
	}
	if config.Baseline.Path != "" && !filepath.IsAbs(config.Baseline.Path) {
		config.Baseline.Path = filepath.Join(config.DataDir, config.Baseline.Path)
	}
	if config.Output.File != "" && !filepath.IsAbs(config.Output.File) {
		config.Output.File = filepath.Join(config.DataDir, config.Output.File)
	}
}

// mergeConfig applies the profile and then the CLI overrides to a copy of the base configuration
func mergeConfig(baseConfig *configs.Config, profile *MeasurementSettings, ctx *Context) (*configs.Config, error) {
	merged := *baseConfig
	merged.Metrics.Tags = append([]string(nil), baseConfig.Metrics.Tags...)

	if profile != nil {
		if err := applySettings(&merged, profile); err != nil {
			return nil, fmt.Errorf("profile: %w", err)
		}
	}
	if err := applySettings(&merged, &ctx.Settings); err != nil {
		return nil, err
	}

	if ctx.Verbose {
		merged.Verbose = true
	}
	if ctx.LogLevel != "" {
		merged.LogLevel = ctx.LogLevel
	}

	return &merged, nil
}

// applySettings overrides every setting that s carries
func applySettings(config *configs.Config, s *MeasurementSettings) error {
	if s.Instrument != "" {
		config.Instrument.Kind = s.Instrument
	}
	if s.Host != "" {
		config.Instrument.Host = s.Host
	}
	if s.SampleRate > 0 {
		config.Instrument.SampleRate = s.SampleRate
	}

	if s.Descriptors > 0 {
		config.Acquisition.Descriptors = s.Descriptors
	}
	if s.Iterations > 0 {
		config.Acquisition.Iterations = s.Iterations
	}
	if s.Amplitude > 0 {
		config.Acquisition.Amplitude = s.Amplitude
	}
	if s.Seed != 0 {
		config.Acquisition.Seed = s.Seed
	}
	if s.ReportEvery != nil {
		config.Acquisition.ReportEvery = *s.ReportEvery
	}
	if s.Timeout != "" {
		timeout, err := time.ParseDuration(s.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", s.Timeout, err)
		}
		config.Acquisition.Timeout = timeout
	}

	if s.NFFT > 0 {
		config.Analysis.NFFT = s.NFFT
	}
	if s.Threshold != nil {
		config.Analysis.Threshold = *s.Threshold
	}
	if s.BandLo != nil {
		config.Analysis.BandLo = *s.BandLo
	}
	if s.BandHi > 0 {
		config.Analysis.BandHi = s.BandHi
	}
	if s.RemoveDelay != nil {
		config.Analysis.RemoveDelay = *s.RemoveDelay
	}
	if s.Window != "" {
		config.Analysis.Window = s.Window
	}
	if s.FFTBackend != "" {
		config.Analysis.FFTBackend = s.FFTBackend
	}

	if s.Mode != "" {
		config.Baseline.Mode = s.Mode
	}
	if s.BaselinePath != "" {
		config.Baseline.Path = s.BaselinePath
	}

	if s.OutputFormat != "" {
		config.OutputFormat = s.OutputFormat
	}
	if s.OutputFile != "" {
		config.Output.File = s.OutputFile
	}
	if s.Headless != nil {
		config.Output.Headless = *s.Headless
	}
	if s.Bins != nil {
		config.Output.Bins = *s.Bins
	}

	return nil
}

// ValidateProfile validates a profile file against the default configuration
func ValidateProfile(profileFile string) error {
	profile, err := loadProfileFromFile(profileFile)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	merged, err := mergeConfig(configs.GetDefaultConfig(), profile, &Context{})
	if err != nil {
		return fmt.Errorf("profile validation failed: %w", err)
	}
	if err := configs.ValidateConfig(merged); err != nil {
		return fmt.Errorf("profile validation failed: %w", err)
	}

	fmt.Printf("✅ Profile is valid: %s\n", profileFile)
	if profile.Name != "" {
		fmt.Printf("   - Name: %s\n", profile.Name)
	}
	fmt.Printf("   - Mode: %s\n", merged.Baseline.Mode)
	fmt.Printf("   - Instrument: %s (%s)\n", merged.Instrument.Kind, merged.Instrument.Host)
	fmt.Printf("   - Iterations: %d\n", merged.Acquisition.Iterations)

	return nil
}

// GenerateExampleProfile writes an example profile file
func GenerateExampleProfile(outputFile string) error {
	removeDelay := true
	reportEvery := 10
	threshold := 1e-6
	bandLo := 1e6
	example := &MeasurementSettings{
		Name:         "dut-sweep",
		Description:  "Measure a device under test against a stored loopback baseline",
		Instrument:   "sim-dut",
		Host:         "192.168.1.100",
		SampleRate:   250e6,
		Descriptors:  1,
		Iterations:   200,
		Amplitude:    0.9,
		Seed:         1,
		ReportEvery:  &reportEvery,
		Timeout:      "30m",
		Threshold:    &threshold,
		BandLo:       &bandLo,
		BandHi:       5e7,
		RemoveDelay:  &removeDelay,
		Window:       "hann",
		Mode:         configs.ModeDUT,
		BaselinePath: "baselines/loopback.zip",
	}

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal example profile: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(outputFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write profile file: %w", err)
	}

	fmt.Printf("✅ Example profile written to: %s\n", outputFile)
	return nil
}
