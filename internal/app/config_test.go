package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RyanBlaney/bode-analyzer/configs"
	"github.com/RyanBlaney/sonido-sonar/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const yamlProfile = `
name: bench
instrument: sim-dut
iterations: 40
report_every: 0
remove_delay: false
band_lo: 20
band_hi: 300
timeout: 2m
mode: baseline
baseline_path: ref.zip
headless: true
`

func TestLoadProfileFromYAML(t *testing.T) {
	profile, err := loadProfileFromFile(writeFile(t, "bench.yaml", yamlProfile))
	require.NoError(t, err)

	assert.Equal(t, "bench", profile.Name)
	assert.Equal(t, "sim-dut", profile.Instrument)
	assert.Equal(t, 40, profile.Iterations)
	require.NotNil(t, profile.ReportEvery)
	assert.Equal(t, 0, *profile.ReportEvery)
	require.NotNil(t, profile.RemoveDelay)
	assert.False(t, *profile.RemoveDelay)
	assert.Nil(t, profile.Bins)
}

func TestLoadProfileFromJSON(t *testing.T) {
	profile, err := loadProfileFromFile(writeFile(t, "bench.json", `{"iterations": 12, "window": "blackman", "headless": false}`))
	require.NoError(t, err)

	assert.Equal(t, 12, profile.Iterations)
	assert.Equal(t, "blackman", profile.Window)
	require.NotNil(t, profile.Headless)
	assert.False(t, *profile.Headless)
}

func TestLoadProfileUnknownExtension(t *testing.T) {
	profile, err := loadProfileFromFile(writeFile(t, "bench.profile", "iterations: 9\n"))
	require.NoError(t, err)
	assert.Equal(t, 9, profile.Iterations)
}

func TestLoadProfileErrors(t *testing.T) {
	_, err := loadProfileFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")

	_, err = loadProfileFromFile(writeFile(t, "broken.json", "{"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse JSON profile")
}

func TestMergeConfigPrecedence(t *testing.T) {
	profile, err := loadProfileFromFile(writeFile(t, "bench.yaml", yamlProfile))
	require.NoError(t, err)

	reportEvery := 0
	headless := false
	ctx := &Context{
		LogLevel: "debug",
		Settings: MeasurementSettings{
			Iterations:  25,
			ReportEvery: &reportEvery,
			Headless:    &headless,
			Host:        "10.0.0.2",
		},
	}

	base := configs.GetDefaultConfig()
	merged, err := mergeConfig(base, profile, ctx)
	require.NoError(t, err)

	// CLI beats profile
	assert.Equal(t, 25, merged.Acquisition.Iterations)
	assert.False(t, merged.Output.Headless)
	assert.Equal(t, "10.0.0.2", merged.Instrument.Host)
	assert.Equal(t, "debug", merged.LogLevel)

	// profile beats base
	assert.Equal(t, "sim-dut", merged.Instrument.Kind)
	assert.False(t, merged.Analysis.RemoveDelay)
	assert.Equal(t, 20.0, merged.Analysis.BandLo)
	assert.Equal(t, 2*time.Minute, merged.Acquisition.Timeout)
	assert.Equal(t, configs.ModeBaseline, merged.Baseline.Mode)
	assert.Equal(t, 0, merged.Acquisition.ReportEvery)

	// base untouched where nobody overrides
	assert.Equal(t, 0.9, merged.Acquisition.Amplitude)
	assert.Equal(t, 200, base.Acquisition.Iterations, "base config is not modified")
}

func TestMergeConfigInvalidTimeout(t *testing.T) {
	_, err := mergeConfig(configs.GetDefaultConfig(), &MeasurementSettings{Timeout: "soon"}, &Context{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timeout")
}

func TestMergeConfigExplicitZeroOverrides(t *testing.T) {
	zero, bandLo, threshold := 0.0, 20.0, 1e-3
	profile := &MeasurementSettings{BandLo: &bandLo, Threshold: &threshold}

	merged, err := mergeConfig(configs.GetDefaultConfig(), profile, &Context{
		Settings: MeasurementSettings{BandLo: &zero, Threshold: &zero},
	})
	require.NoError(t, err)

	assert.Equal(t, 0.0, merged.Analysis.BandLo)
	assert.Equal(t, 0.0, merged.Analysis.Threshold)

	// unset pointers keep the profile values
	merged, err = mergeConfig(configs.GetDefaultConfig(), profile, &Context{})
	require.NoError(t, err)
	assert.Equal(t, 20.0, merged.Analysis.BandLo)
	assert.Equal(t, 1e-3, merged.Analysis.Threshold)
}

func TestNewBodeAppResolvesDataPaths(t *testing.T) {
	dataDir := t.TempDir()
	absOutput := filepath.Join(t.TempDir(), "out.json")

	base := testConfig()
	base.DataDir = dataDir
	base.Baseline.Path = filepath.Join("baselines", "loopback.zip")
	base.Output.File = absOutput

	app, err := NewBodeApp(&Context{BaseConfig: base, Logger: &logging.NoOpLogger{}})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dataDir, "baselines", "loopback.zip"), app.Config().Baseline.Path)
	assert.Equal(t, absOutput, app.Config().Output.File, "absolute paths are kept")
	assert.Equal(t, filepath.Join("baselines", "loopback.zip"), base.Baseline.Path, "base config is not modified")

	base.DataDir = ""
	base.Output.File = "out.json"
	app, err = NewBodeApp(&Context{BaseConfig: base, Logger: &logging.NoOpLogger{}})
	require.NoError(t, err)
	assert.Equal(t, "out.json", app.Config().Output.File)
}

func TestNewBodeAppWithProfile(t *testing.T) {
	profile := writeFile(t, "bench.yaml", "iterations: 3\noutput_format: yaml\n")

	ctx := &Context{
		ProfileFile: profile,
		BaseConfig:  testConfig(),
		Logger:      &logging.NoOpLogger{},
	}
	app, err := NewBodeApp(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, app.Config().Acquisition.Iterations)
	assert.Equal(t, "yaml", app.Config().OutputFormat)
	assert.Equal(t, 3, ctx.Profile.Iterations)
	assert.Same(t, app.Config(), ctx.Config)
}

func TestValidateProfile(t *testing.T) {
	require.NoError(t, ValidateProfile(writeFile(t, "ok.yaml", "mode: dut\niterations: 5\n")))

	err := ValidateProfile(writeFile(t, "bad.yaml", "mode: baseline\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "baseline mode requires a baseline path")
}

func TestGenerateExampleProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles", "example.yaml")
	require.NoError(t, GenerateExampleProfile(path))

	profile, err := loadProfileFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "dut-sweep", profile.Name)
	require.NoError(t, ValidateProfile(path))
}
