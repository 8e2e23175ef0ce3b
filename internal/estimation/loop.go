package estimation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RyanBlaney/bode-analyzer/internal/bode"
	"github.com/RyanBlaney/bode-analyzer/pkg/device"
	"github.com/RyanBlaney/sonido-sonar/logging"
)

// ErrDone is returned by Step once every configured iteration has run.
var ErrDone = errors.New("estimation: loop finished")

// State is the phase the loop is in.
type State int

const (
	StateInit State = iota
	StateAccumulating
	StateEstimate
	StateDelayCorrect
	StateNormalize
	StateReport
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateAccumulating:
		return "accumulating"
	case StateEstimate:
		return "estimate"
	case StateDelayCorrect:
		return "delay-correct"
	case StateNormalize:
		return "normalize"
	case StateReport:
		return "report"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// LoopConfig contains configuration for the estimation loop
type LoopConfig struct {
	NFFT        int
	SampleRate  float64
	Descriptors int
	Iterations  int
	Threshold   float64
	Band        bode.Band
	RemoveDelay bool
	ReportEvery int
	Window      string
	Backend     string

	// CaptureLength is the per-channel sample count of one capture when known
	// up front. It sizes the excitation and allows rejecting NFFT early.
	CaptureLength int

	Baseline  *bode.Reference
	Publisher Publisher
	Logger    logging.Logger
}

// Validate checks the loop settings before any acquisition.
func (c *LoopConfig) Validate() error {
	if c.NFFT <= 0 {
		return fmt.Errorf("%w: n_fft must be positive: %d", bode.ErrConfiguration, c.NFFT)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive: %g", bode.ErrConfiguration, c.SampleRate)
	}
	if c.Iterations <= 0 {
		return fmt.Errorf("%w: iterations must be positive: %d", bode.ErrConfiguration, c.Iterations)
	}
	if c.Threshold < 0 || c.Threshold >= 1 {
		return fmt.Errorf("%w: threshold must be in [0, 1): %g", bode.ErrConfiguration, c.Threshold)
	}
	if c.ReportEvery < 0 {
		return fmt.Errorf("%w: report interval must not be negative: %d", bode.ErrConfiguration, c.ReportEvery)
	}
	if c.RemoveDelay {
		if err := c.Band.Validate(); err != nil {
			return err
		}
	}
	if c.CaptureLength > 0 && c.NFFT > c.CaptureLength {
		return fmt.Errorf("%w: n_fft %d exceeds %d captured samples", bode.ErrConfiguration, c.NFFT, c.CaptureLength)
	}
	if c.Baseline != nil {
		if err := c.Baseline.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Iteration is the response estimate after one acquisition.
type Iteration struct {
	Index      int // zero-based
	Count      int // acquisitions averaged
	Estimate   *bode.Estimate
	Delay      bode.DelayResult
	Response   []bode.Bin // after delay correction and normalization
	Normalized bool
	Bode       *bode.Bode
	Final      bool
}

// Reporter receives iterations at the configured cadence.
type Reporter interface {
	Report(it *Iteration) error
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(it *Iteration) error

func (f ReporterFunc) Report(it *Iteration) error { return f(it) }

// Result is the outcome of a run.
type Result struct {
	Final      *Iteration    `json:"-"`
	Iterations int           `json:"iterations"`
	Taus       []float64     `json:"taus"`
	Delay      *DelayStats   `json:"delay"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
	Duration   time.Duration `json:"duration"`
}

// Loop drives repeated excite/capture/estimate cycles
type Loop struct {
	config     LoopConfig
	capturer   device.Capturer
	exciter    device.Exciter
	excitation Excitation
	acc        *bode.Accumulator
	logger     logging.Logger
	metrics    *MetricsCalculator

	state     State
	iteration int
	taus      []float64
}

// NewLoop creates a new estimation loop
func NewLoop(config LoopConfig, capturer device.Capturer, exciter device.Exciter, excitation Excitation) (*Loop, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if capturer == nil || exciter == nil || excitation == nil {
		return nil, fmt.Errorf("%w: capturer, exciter and excitation are required", bode.ErrConfiguration)
	}

	logger := config.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	acc, err := bode.NewAccumulator(bode.AccumulatorConfig{
		NFFT:       config.NFFT,
		SampleRate: config.SampleRate,
		Window:     config.Window,
		Backend:    config.Backend,
	})
	if err != nil {
		return nil, err
	}

	return &Loop{
		config:     config,
		capturer:   capturer,
		exciter:    exciter,
		excitation: excitation,
		acc:        acc,
		logger:     logger,
		metrics:    NewMetricsCalculator(logger),
		state:      StateInit,
	}, nil
}

// State returns the phase the loop is in.
func (l *Loop) State() State { return l.state }

// Count returns the number of acquisitions accumulated so far.
func (l *Loop) Count() int { return l.acc.Count() }

// Step runs one acquisition and returns the resulting estimate.
func (l *Loop) Step(ctx context.Context) (*Iteration, error) {
	if l.state == StateDone {
		return nil, ErrDone
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	excitationLength := l.config.CaptureLength
	if excitationLength <= 0 {
		excitationLength = l.config.NFFT
	}

	waveform := l.excitation.Generate(excitationLength)
	if err := l.exciter.Push(ctx, waveform); err != nil {
		return nil, fmt.Errorf("failed to push excitation: %w", err)
	}

	x, y, err := l.capturer.Capture(ctx, l.config.Descriptors)
	if err != nil {
		return nil, fmt.Errorf("failed to capture: %w", err)
	}

	// the first capture settles whether n_fft fits before anything is accumulated
	if l.state == StateInit && (len(x) < l.config.NFFT || len(y) < l.config.NFFT) {
		return nil, fmt.Errorf("%w: n_fft %d exceeds %d captured samples",
			bode.ErrConfiguration, l.config.NFFT, min(len(x), len(y)))
	}

	l.state = StateAccumulating
	if err := l.acc.Update(x, y); err != nil {
		return nil, err
	}

	it, err := l.estimate()
	if err != nil {
		return nil, err
	}

	it.Index = l.iteration
	l.iteration++
	l.taus = append(l.taus, it.Delay.Tau)

	if l.iteration >= l.config.Iterations {
		l.state = StateDone
	}

	return it, nil
}

// estimate turns the current averages into a reportable iteration.
func (l *Loop) estimate() (*Iteration, error) {
	l.state = StateEstimate
	est := l.acc.Estimate(l.config.Threshold)

	it := &Iteration{
		Count:    est.Count,
		Estimate: est,
		Delay:    bode.DelayResult{H: est.H},
	}

	if l.config.RemoveDelay {
		l.state = StateDelayCorrect
		delay, err := bode.CorrectDelay(est.H, est.Grid, l.config.SampleRate, l.config.Band, est.Mask)
		if err != nil {
			return nil, err
		}
		if delay.BinsUsed < bode.MinBandBins {
			l.logger.Debug("Too few bins in delay band, delay not removed", logging.Fields{
				"bins":    delay.BinsUsed,
				"band_lo": l.config.Band.Lo,
				"band_hi": l.config.Band.Hi,
			})
		}
		it.Delay = delay
	}

	it.Response = bode.AllValid(it.Delay.H)
	if l.config.Baseline != nil {
		l.state = StateNormalize
		bins, err := bode.Normalize(est.Grid, it.Delay.H, l.config.Baseline)
		if err != nil {
			return nil, err
		}
		it.Response = bins
		it.Normalized = true
	}

	l.state = StateReport
	it.Bode = bode.BinsToBode(est.Grid, it.Response, true)

	return it, nil
}

// Final recomputes the estimate from everything accumulated so far, with
// delay correction and normalization applied as configured. It returns nil
// before the first acquisition.
func (l *Loop) Final() (*Iteration, error) {
	if l.acc.Count() == 0 {
		return nil, nil
	}

	prev := l.state
	it, err := l.estimate()
	l.state = prev
	if err != nil {
		return nil, err
	}

	it.Index = l.iteration - 1
	it.Final = true
	return it, nil
}

// Run executes the configured number of iterations, reporting at the
// configured cadence, and returns the final estimate. When ctx is cancelled
// the loop stops between iterations and returns what has been accumulated
// together with ctx.Err().
func (l *Loop) Run(ctx context.Context, reporter Reporter) (*Result, error) {
	startTime := time.Now()

	l.logger.Info("Starting estimation", logging.Fields{
		"n_fft":        l.config.NFFT,
		"sample_rate":  l.config.SampleRate,
		"descriptors":  l.config.Descriptors,
		"iterations":   l.config.Iterations,
		"remove_delay": l.config.RemoveDelay,
		"normalized":   l.config.Baseline != nil,
	})

	for l.state != StateDone {
		if err := ctx.Err(); err != nil {
			l.logger.Warn("Estimation interrupted", logging.Fields{"completed": l.iteration})
			return l.result(startTime), err
		}

		it, err := l.Step(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return l.result(startTime), ctxErr
			}
			return l.result(startTime), err
		}

		l.logger.Debug("Iteration complete", logging.Fields{
			"iteration":  it.Index,
			"tau_ns":     it.Delay.Tau * 1e9,
			"valid_bins": it.Estimate.ValidBins(),
		})

		if l.config.Publisher != nil {
			if err := l.config.Publisher.Publish(it); err != nil {
				l.logger.Warn("Failed to publish metrics", logging.Fields{"error": err.Error()})
			}
		}

		if reporter != nil && l.shouldReport(it.Index) {
			if err := reporter.Report(it); err != nil {
				return l.result(startTime), fmt.Errorf("failed to report iteration %d: %w", it.Index, err)
			}
		}
	}

	result := l.result(startTime)
	if result.Final != nil {
		l.logger.Info("Estimation complete", logging.Fields{
			"iterations":  result.Iterations,
			"tau_ns":      result.Final.Delay.Tau * 1e9,
			"tau_samples": result.Final.Delay.Samples,
			"duration_ms": result.Duration.Milliseconds(),
		})
	}

	return result, nil
}

func (l *Loop) shouldReport(index int) bool {
	if index == 0 || index == l.config.Iterations-1 {
		return true
	}
	return l.config.ReportEvery > 0 && index%l.config.ReportEvery == 0
}

// result assembles the run outcome. A failure recomputing the final estimate
// leaves Final nil; the same failure has already surfaced from Step.
func (l *Loop) result(startTime time.Time) *Result {
	final, _ := l.Final()
	endTime := time.Now()

	return &Result{
		Final:      final,
		Iterations: l.iteration,
		Taus:       append([]float64(nil), l.taus...),
		Delay:      l.metrics.DelayStats(l.taus),
		StartTime:  startTime,
		EndTime:    endTime,
		Duration:   endTime.Sub(startTime),
	}
}
