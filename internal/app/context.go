package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/RyanBlaney/bode-analyzer/configs"
	"github.com/RyanBlaney/bode-analyzer/internal/baseline"
	"github.com/RyanBlaney/bode-analyzer/internal/bode"
	"github.com/RyanBlaney/bode-analyzer/internal/estimation"
	"github.com/RyanBlaney/bode-analyzer/pkg/device"
	"github.com/RyanBlaney/sonido-sonar/logging"
)

// Context holds the application context and configuration
type Context struct {
	// CLI arguments
	ProfileFile string // Run profile file (optional)
	Verbose     bool
	LogLevel    string
	Settings    MeasurementSettings

	// BaseConfig replaces the global configuration when set
	BaseConfig *configs.Config

	// Stdout receives the formatted results, Stderr the progress lines
	Stdout io.Writer
	Stderr io.Writer

	// Runtime context
	Logger  logging.Logger
	Config  *configs.Config
	Profile *MeasurementSettings
}

func (c *Context) stdout() io.Writer {
	if c.Stdout != nil {
		return c.Stdout
	}
	return os.Stdout
}

func (c *Context) stderr() io.Writer {
	if c.Stderr != nil {
		return c.Stderr
	}
	return os.Stderr
}

// BodeApp handles the measurement application lifecycle
type BodeApp struct {
	ctx     *Context
	config  *configs.Config
	logger  logging.Logger
	metrics *estimation.MetricsCalculator
}

// runOutcome collects what a run produced besides the loop result
type runOutcome struct {
	info        device.Info
	nfft        int
	reference   *baseline.Record
	savedPath   string
	interrupted bool
}

// NewBodeApp creates a new measurement application
func NewBodeApp(ctx *Context) (*BodeApp, error) {
	// Load configuration
	config, err := loadAndMergeConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	ctx.Config = config

	// Set up logging
	logger := setupLogging(ctx, config)
	ctx.Logger = logger

	logger.Debug("Bode application initialized", logging.Fields{
		"profile_file":  ctx.ProfileFile,
		"mode":          config.Baseline.Mode,
		"instrument":    config.Instrument.Kind,
		"host":          config.Instrument.Host,
		"output_format": config.OutputFormat,
		"iterations":    config.Acquisition.Iterations,
	})

	return &BodeApp{
		ctx:     ctx,
		config:  config,
		logger:  logger,
		metrics: estimation.NewMetricsCalculator(logger),
	}, nil
}

// Config returns the merged configuration
func (app *BodeApp) Config() *configs.Config {
	return app.config
}

// Run executes one measurement
func (app *BodeApp) Run(ctx context.Context) error {
	cfg := app.config

	instrument, err := app.openInstrument()
	if err != nil {
		return fmt.Errorf("failed to open instrument: %w", err)
	}
	defer instrument.Close()

	outcome := &runOutcome{info: instrument.Info()}
	captureLength := outcome.info.CaptureLength(cfg.Acquisition.Descriptors)
	outcome.nfft = cfg.Analysis.NFFT
	if outcome.nfft == 0 {
		outcome.nfft = captureLength
	}

	band := bode.Band{Lo: cfg.Analysis.BandLo, Hi: cfg.Analysis.BandHi}

	var reference *bode.Reference
	if cfg.Baseline.Mode == configs.ModeDUT {
		outcome.reference = baseline.LoadOptional(cfg.Baseline.Path, app.logger)
		if outcome.reference != nil {
			reference = outcome.reference.Reference()
		}
	}

	loopConfig := estimation.LoopConfig{
		NFFT:          outcome.nfft,
		SampleRate:    outcome.info.SampleRate,
		Descriptors:   cfg.Acquisition.Descriptors,
		Iterations:    cfg.Acquisition.Iterations,
		Threshold:     cfg.Analysis.Threshold,
		Band:          band,
		RemoveDelay:   cfg.Analysis.RemoveDelay,
		ReportEvery:   cfg.Acquisition.ReportEvery,
		Window:        cfg.Analysis.Window,
		Backend:       cfg.Analysis.FFTBackend,
		CaptureLength: captureLength,
		Baseline:      reference,
		Logger:        app.logger,
	}

	if cfg.Metrics.Enabled {
		publisher, err := app.newPublisher(outcome.info, band)
		if err != nil {
			return err
		}
		defer publisher.Close()
		loopConfig.Publisher = publisher
	}

	excitation := estimation.NewWhiteNoise(cfg.Acquisition.Amplitude, cfg.Acquisition.Seed)
	loop, err := estimation.NewLoop(loopConfig, instrument, instrument, excitation)
	if err != nil {
		return fmt.Errorf("invalid estimation settings: %w", err)
	}

	var reporter estimation.Reporter
	if !cfg.Output.Headless {
		reporter = NewConsoleReporter(app.ctx.stderr(), cfg.Acquisition.Iterations, band, app.metrics)
	}

	runCtx := ctx
	if cfg.Acquisition.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cfg.Acquisition.Timeout)
		defer cancel()
	}

	result, runErr := loop.Run(runCtx, reporter)
	if runErr != nil {
		if !isInterrupt(runErr) {
			return fmt.Errorf("estimation failed: %w", runErr)
		}
		if result.Final == nil {
			return fmt.Errorf("estimation interrupted before the first acquisition: %w", runErr)
		}
		outcome.interrupted = true
	}

	if cfg.Baseline.Mode == configs.ModeBaseline {
		if outcome.interrupted {
			app.logger.Warn("Run interrupted, baseline not saved", logging.Fields{
				"path":       cfg.Baseline.Path,
				"iterations": result.Iterations,
			})
		} else {
			if err := app.saveBaseline(result, outcome); err != nil {
				return fmt.Errorf("failed to save baseline: %w", err)
			}
			outcome.savedPath = cfg.Baseline.Path
		}
	}

	// Output results
	if err := app.outputResults(result, outcome); err != nil {
		return fmt.Errorf("failed to output results: %w", err)
	}

	if outcome.interrupted {
		return fmt.Errorf("estimation interrupted after %d iterations: %w", result.Iterations, runErr)
	}

	return nil
}

// openInstrument connects to the configured instrument
func (app *BodeApp) openInstrument() (device.Instrument, error) {
	cfg := app.config
	sim := cfg.Instrument.Simulation

	return device.Open(device.Kind(cfg.Instrument.Kind), cfg.Instrument.Host, device.Options{
		SampleRate:           cfg.Instrument.SampleRate,
		SamplesPerDescriptor: sim.SamplesPerDescriptor,
		DelaySamples:         sim.DelaySamples,
		Gain:                 sim.Gain,
		CutoffHz:             sim.CutoffHz,
		NoiseLevel:           sim.NoiseLevel,
		Seed:                 cfg.Acquisition.Seed,
		Logger:               app.logger,
	})
}

// newPublisher connects the DogStatsD publisher with the run tags
func (app *BodeApp) newPublisher(info device.Info, band bode.Band) (*estimation.StatsdPublisher, error) {
	cfg := app.config.Metrics

	tags := append([]string(nil), cfg.Tags...)
	tags = append(tags,
		"mode:"+app.config.Baseline.Mode,
		"instrument:"+string(info.Kind),
	)

	publisher, err := estimation.NewStatsdPublisher(cfg.StatsdAddress, cfg.Namespace, tags, band, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics publisher: %w", err)
	}

	app.logger.Debug("Publishing metrics", logging.Fields{
		"address":   cfg.StatsdAddress,
		"namespace": cfg.Namespace,
		"tags":      tags,
	})

	return publisher, nil
}

// saveBaseline stores the final response of a completed run as the reference
func (app *BodeApp) saveBaseline(result *estimation.Result, outcome *runOutcome) error {
	cfg := app.config
	final := result.Final

	rec := &baseline.Record{
		Grid: final.Estimate.Grid,
		H:    final.Delay.H,
		Mask: final.Estimate.Mask,
		Metadata: baseline.Metadata{
			Host:        outcome.info.Host,
			Instrument:  string(outcome.info.Kind),
			SampleRate:  outcome.info.SampleRate,
			Descriptors: cfg.Acquisition.Descriptors,
			Iterations:  result.Iterations,
			Amplitude:   cfg.Acquisition.Amplitude,
			BandLo:      cfg.Analysis.BandLo,
			BandHi:      cfg.Analysis.BandHi,
			Threshold:   cfg.Analysis.Threshold,
			RemoveDelay: cfg.Analysis.RemoveDelay,
			NFFT:        outcome.nfft,
			Window:      cfg.Analysis.Window,
			Tau:         final.Delay.Tau,
			CreatedAt:   time.Now().UTC(),
			Extra: map[string]string{
				"fft_backend": cfg.Analysis.FFTBackend,
				"seed":        strconv.FormatInt(cfg.Acquisition.Seed, 10),
			},
		},
	}

	if err := baseline.Save(cfg.Baseline.Path, rec); err != nil {
		return err
	}

	app.logger.Info("Baseline saved", logging.Fields{
		"path":       cfg.Baseline.Path,
		"bins":       len(rec.H),
		"valid_bins": rec.ValidBins(),
		"tau_ns":     rec.Metadata.Tau * 1e9,
	})

	return nil
}

// setupLogging configures logging based on context
func setupLogging(ctx *Context, config *configs.Config) logging.Logger {
	if ctx.Logger != nil {
		return ctx.Logger
	}

	logger := logging.NewDefaultLogger()
	logger.SetLevel(logLevel(config.LogLevel, config.Verbose))
	return logger
}

// logLevel maps the configured level name onto the logger's levels
func logLevel(name string, verbose bool) logging.Level {
	if verbose {
		return logging.DebugLevel
	}

	switch name {
	case "debug":
		return logging.DebugLevel
	case "warn":
		return logging.WarnLevel
	case "error":
		return logging.ErrorLevel
	default:
		return logging.InfoLevel
	}
}

// loadAndMergeConfig loads configuration and the optional profile and merges in CLI flags
func loadAndMergeConfig(ctx *Context) (*configs.Config, error) {
	// Load base configuration
	baseConfig := ctx.BaseConfig
	if baseConfig == nil {
		var err error
		baseConfig, err = configs.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load base configuration: %w", err)
		}
	}

	// Load run profile from file
	if ctx.ProfileFile != "" {
		profile, err := loadProfileFromFile(ctx.ProfileFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load profile: %w", err)
		}
		ctx.Profile = profile
	}

	// Merge configurations
	merged, err := mergeConfig(baseConfig, ctx.Profile, ctx)
	if err != nil {
		return nil, err
	}
	resolveDataPaths(merged)

	// Validate final configuration
	if err := configs.ValidateConfig(merged); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return merged, nil
}

func isInterrupt(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
