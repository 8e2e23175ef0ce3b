package device

import (
	"context"
	"errors"
	"testing"

	"github.com/RyanBlaney/sonido-sonar/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockInstrument records calls made through the Instrument interface.
type MockInstrument struct {
	pushed [][]float64
	closed bool
}

func (m *MockInstrument) Capture(ctx context.Context, descriptors int) ([]float64, []float64, error) {
	return make([]float64, descriptors), make([]float64, descriptors), nil
}

func (m *MockInstrument) Push(ctx context.Context, waveform []float64) error {
	m.pushed = append(m.pushed, waveform)
	return nil
}

func (m *MockInstrument) Info() Info   { return Info{Kind: "mock"} }
func (m *MockInstrument) Close() error { m.closed = true; return nil }

// TestNewFactory checks that the simulated instruments are registered by default.
func TestNewFactory(t *testing.T) {
	factory := NewFactory()

	for _, kind := range []Kind{KindSimLoopback, KindSimDUT} {
		inst, err := factory.Open(kind, "localhost", Options{Logger: &logging.NoOpLogger{}})
		require.NoError(t, err, "kind %s", kind)
		require.NotNil(t, inst)
		assert.Equal(t, kind, inst.Info().Kind)
		assert.NoError(t, inst.Close())
	}
}

// TestOpenUnsupported checks the error returned for unknown kinds.
func TestOpenUnsupported(t *testing.T) {
	factory := NewFactory()

	inst, err := factory.Open(KindUnsupported, "10.0.0.1", Options{})
	assert.Nil(t, inst)
	require.Error(t, err)
	assert.Equal(t, "unsupported instrument: unsupported", err.Error())

	var devErr *DeviceError
	require.True(t, errors.As(err, &devErr))
	assert.Equal(t, ErrCodeUnsupported, devErr.Code)
	assert.Equal(t, "10.0.0.1", devErr.Host)
}

// TestRegister checks that custom constructors replace defaults.
func TestRegister(t *testing.T) {
	factory := NewFactory()
	mock := &MockInstrument{}

	factory.Register(KindSimDUT, func(host string, opts Options) (Instrument, error) {
		return mock, nil
	})

	inst, err := factory.Open(KindSimDUT, "", Options{})
	require.NoError(t, err)
	assert.Same(t, mock, inst)

	require.NoError(t, inst.Push(context.Background(), []float64{0.1}))
	assert.Len(t, mock.pushed, 1)
}

// TestSupportedKinds checks that every registered kind is listed.
func TestSupportedKinds(t *testing.T) {
	factory := NewFactory()
	assert.Equal(t, []Kind{KindSimDUT, KindSimLoopback}, factory.SupportedKinds())

	factory.Register("custom", func(host string, opts Options) (Instrument, error) {
		return &MockInstrument{}, nil
	})
	assert.Contains(t, factory.SupportedKinds(), Kind("custom"))
}

// TestSimDUTDefaults checks the path parameters applied to the simulated device under test.
func TestSimDUTDefaults(t *testing.T) {
	inst, err := Open(KindSimDUT, "", Options{
		SampleRate:           1000,
		SamplesPerDescriptor: 64,
		Logger:               &logging.NoOpLogger{},
	})
	require.NoError(t, err)

	sim, ok := inst.(*Simulator)
	require.True(t, ok)
	assert.Equal(t, 50.0, sim.config.CutoffHz)
	assert.Equal(t, 0.5, sim.config.Gain)
	assert.Equal(t, 64, sim.Info().SamplesPerDescriptor)
	assert.Equal(t, MaxDescriptors, sim.Info().MaxDescriptors)
}
