package device

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"github.com/RyanBlaney/sonido-sonar/logging"
)

// SimulatorConfig describes the signal path a Simulator models. The response
// channel sees the excitation delayed by DelaySamples, low-passed by a
// one-pole filter at CutoffHz (0 disables it), scaled by Gain and summed with
// Gaussian noise of standard deviation NoiseLevel.
type SimulatorConfig struct {
	Kind                 Kind
	Host                 string
	SampleRate           float64
	SamplesPerDescriptor int
	MaxDescriptors       int
	DelaySamples         int
	Gain                 float64
	CutoffHz             float64
	NoiseLevel           float64
	Seed                 int64
	Logger               logging.Logger
}

// Simulator is an in-memory instrument. The generator buffer is played in a
// loop, so captures see it periodically extended and delays wrap around.
type Simulator struct {
	config SimulatorConfig
	logger logging.Logger

	mu       sync.Mutex
	waveform []float64
	rng      *rand.Rand
	closed   bool
}

// NewSimulator creates a simulator, filling unset geometry with the digitizer defaults.
func NewSimulator(config SimulatorConfig) *Simulator {
	if config.SampleRate <= 0 {
		config.SampleRate = DefaultSampleRate
	}
	if config.SamplesPerDescriptor <= 0 {
		config.SamplesPerDescriptor = SamplesPerDescriptor
	}
	if config.MaxDescriptors <= 0 {
		config.MaxDescriptors = MaxDescriptors
	}
	if config.Gain == 0 {
		config.Gain = 1
	}
	if config.Kind == "" {
		config.Kind = KindSimLoopback
	}

	logger := config.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	return &Simulator{
		config: config,
		logger: logger.WithFields(logging.Fields{"device": string(config.Kind), "host": config.Host}),
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Push loads waveform into the simulated generator.
func (s *Simulator) Push(ctx context.Context, waveform []float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewDeviceError(s.config.Kind, s.config.Host, ErrCodeClosed, "instrument is closed", nil)
	}
	if len(waveform) == 0 {
		return NewDeviceError(s.config.Kind, s.config.Host, ErrCodePush, "empty waveform", nil)
	}

	clipped, n := ClipWaveform(waveform)
	if n > 0 {
		s.logger.Warn("Waveform exceeds converter range, clipping", logging.Fields{
			"clipped_samples": n,
			"total_samples":   len(waveform),
		})
	}
	s.waveform = clipped

	return nil
}

// Capture returns the looped excitation and the simulated response.
func (s *Simulator) Capture(ctx context.Context, descriptors int) ([]float64, []float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, nil, NewDeviceError(s.config.Kind, s.config.Host, ErrCodeClosed, "instrument is closed", nil)
	}
	if len(s.waveform) == 0 {
		return nil, nil, NewDeviceError(s.config.Kind, s.config.Host, ErrCodeCapture, "no waveform loaded", nil)
	}

	n := ClampDescriptors(descriptors, s.config.MaxDescriptors) * s.config.SamplesPerDescriptor

	excitation := make([]float64, n)
	for i := range excitation {
		excitation[i] = s.waveform[i%len(s.waveform)]
	}

	response := s.respond()
	out := make([]float64, n)
	for i := range out {
		out[i] = response[i%len(response)]
		if s.config.NoiseLevel > 0 {
			out[i] += s.config.NoiseLevel * s.rng.NormFloat64()
		}
	}

	return excitation, out, nil
}

// respond computes one period of the steady-state response to the looped waveform.
func (s *Simulator) respond() []float64 {
	period := len(s.waveform)
	delay := ((s.config.DelaySamples % period) + period) % period

	delayed := make([]float64, period)
	for i := range delayed {
		delayed[i] = s.waveform[(i-delay+period)%period]
	}

	if s.config.CutoffHz > 0 {
		a := math.Exp(-2 * math.Pi * s.config.CutoffHz / s.config.SampleRate)
		state := 0.0
		// the first pass settles the filter on the periodic input
		for pass := 0; pass < 2; pass++ {
			for i, v := range delayed {
				state = a*state + (1-a)*v
				if pass == 1 {
					delayed[i] = state
				}
			}
		}
	}

	for i := range delayed {
		delayed[i] *= s.config.Gain
	}

	return delayed
}

// Info describes the simulated connection.
func (s *Simulator) Info() Info {
	return Info{
		Kind:                 s.config.Kind,
		Host:                 s.config.Host,
		SampleRate:           s.config.SampleRate,
		SamplesPerDescriptor: s.config.SamplesPerDescriptor,
		MaxDescriptors:       s.config.MaxDescriptors,
	}
}

// Close releases the simulator. Further calls fail with ErrCodeClosed.
func (s *Simulator) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.waveform = nil
	return nil
}
