package device

import (
	"fmt"
	"slices"
	"sync"

	"github.com/RyanBlaney/sonido-sonar/logging"
)

// Options carries the connection and simulation settings passed to instrument constructors.
type Options struct {
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

// Constructor opens an instrument of one kind.
type Constructor func(host string, opts Options) (Instrument, error)

// Factory maps instrument kinds to constructors
type Factory struct {
	constructors map[Kind]Constructor
	mu           sync.RWMutex
}

// NewFactory creates a new instrument factory with the simulated instruments registered
func NewFactory() *Factory {
	f := &Factory{
		constructors: make(map[Kind]Constructor),
	}

	f.Register(KindSimLoopback, func(host string, opts Options) (Instrument, error) {
		return newSimulatorFromOptions(KindSimLoopback, host, opts), nil
	})
	f.Register(KindSimDUT, func(host string, opts Options) (Instrument, error) {
		// unset path parameters get a mild low-pass device under test
		if opts.CutoffHz == 0 {
			opts.CutoffHz = opts.sampleRate() / 20
		}
		if opts.Gain == 0 {
			opts.Gain = 0.5
		}
		return newSimulatorFromOptions(KindSimDUT, host, opts), nil
	})

	return f
}

func (o Options) sampleRate() float64 {
	if o.SampleRate > 0 {
		return o.SampleRate
	}
	return DefaultSampleRate
}

func newSimulatorFromOptions(kind Kind, host string, opts Options) *Simulator {
	return NewSimulator(SimulatorConfig{
		Kind:                 kind,
		Host:                 host,
		SampleRate:           opts.SampleRate,
		SamplesPerDescriptor: opts.SamplesPerDescriptor,
		MaxDescriptors:       opts.MaxDescriptors,
		DelaySamples:         opts.DelaySamples,
		Gain:                 opts.Gain,
		CutoffHz:             opts.CutoffHz,
		NoiseLevel:           opts.NoiseLevel,
		Seed:                 opts.Seed,
		Logger:               opts.Logger,
	})
}

// Open creates an instrument of the given kind connected to host
func (f *Factory) Open(kind Kind, host string, opts Options) (Instrument, error) {
	f.mu.RLock()
	constructor, exists := f.constructors[kind]
	f.mu.RUnlock()

	if !exists {
		return nil, NewDeviceError(
			kind, host, ErrCodeUnsupported,
			fmt.Sprintf("unsupported instrument: %s", kind),
			nil,
		)
	}

	return constructor(host, opts)
}

// Register registers a constructor for an instrument kind, replacing any previous one
func (f *Factory) Register(kind Kind, constructor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.constructors[kind] = constructor
}

// SupportedKinds returns the registered instrument kinds in sorted order
func (f *Factory) SupportedKinds() []Kind {
	f.mu.RLock()
	defer f.mu.RUnlock()

	kinds := make([]Kind, 0, len(f.constructors))
	for kind := range f.constructors {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)
	return kinds
}

// Open creates an instrument using the default factory
func Open(kind Kind, host string, opts Options) (Instrument, error) {
	return NewFactory().Open(kind, host, opts)
}
