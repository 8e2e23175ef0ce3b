package device

import (
	"context"
	"errors"
	"testing"

	"github.com/RyanBlaney/sonido-sonar/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type SimulatorTestSuite struct {
	suite.Suite
	ctx context.Context
	sim *Simulator
}

func (s *SimulatorTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.sim = NewSimulator(SimulatorConfig{
		Kind:                 KindSimLoopback,
		Host:                 "sim",
		SampleRate:           1000,
		SamplesPerDescriptor: 8,
		MaxDescriptors:       4,
		DelaySamples:         3,
		Gain:                 2,
		Logger:               &logging.NoOpLogger{},
	})
}

func (s *SimulatorTestSuite) TestCaptureBeforePush() {
	_, _, err := s.sim.Capture(s.ctx, 1)

	var devErr *DeviceError
	s.Require().True(errors.As(err, &devErr))
	s.Equal(ErrCodeCapture, devErr.Code)
}

func (s *SimulatorTestSuite) TestCaptureLoopsWaveformAndDelays() {
	waveform := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8}
	s.Require().NoError(s.sim.Push(s.ctx, waveform))

	x, y, err := s.sim.Capture(s.ctx, 2)
	s.Require().NoError(err)
	s.Len(x, 16)
	s.Len(y, 16)

	for i := range x {
		s.Equal(waveform[i%8], x[i])
		s.InDelta(2*waveform[(i-3+8)%8], y[i], 1e-12, "sample %d", i)
	}
}

func (s *SimulatorTestSuite) TestCaptureClampsDescriptors() {
	s.Require().NoError(s.sim.Push(s.ctx, []float64{0.5}))

	x, _, err := s.sim.Capture(s.ctx, 100)
	s.Require().NoError(err)
	s.Len(x, 4*8)

	x, _, err = s.sim.Capture(s.ctx, 0)
	s.Require().NoError(err)
	s.Len(x, 8)

	s.Equal(32, s.sim.Info().CaptureLength(99))
}

func (s *SimulatorTestSuite) TestPushClips() {
	s.Require().NoError(s.sim.Push(s.ctx, []float64{1.5, -2, 0.25}))

	x, _, err := s.sim.Capture(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(DACMax, x[0])
	s.Equal(DACMin, x[1])
	s.Equal(0.25, x[2])
}

func (s *SimulatorTestSuite) TestPushEmpty() {
	err := s.sim.Push(s.ctx, nil)

	var devErr *DeviceError
	s.Require().True(errors.As(err, &devErr))
	s.Equal(ErrCodePush, devErr.Code)
}

func (s *SimulatorTestSuite) TestClosed() {
	s.Require().NoError(s.sim.Close())

	err := s.sim.Push(s.ctx, []float64{0.1})
	var devErr *DeviceError
	s.Require().True(errors.As(err, &devErr))
	s.Equal(ErrCodeClosed, devErr.Code)

	_, _, err = s.sim.Capture(s.ctx, 1)
	s.Require().True(errors.As(err, &devErr))
	s.Equal(ErrCodeClosed, devErr.Code)
}

func (s *SimulatorTestSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	s.ErrorIs(s.sim.Push(ctx, []float64{0.1}), context.Canceled)
	_, _, err := s.sim.Capture(ctx, 1)
	s.ErrorIs(err, context.Canceled)
}

func TestSimulatorSuite(t *testing.T) {
	suite.Run(t, new(SimulatorTestSuite))
}

func TestSimulatorLowPassSettles(t *testing.T) {
	sim := NewSimulator(SimulatorConfig{
		SampleRate:           1000,
		SamplesPerDescriptor: 256,
		CutoffHz:             10,
		Logger:               &logging.NoOpLogger{},
	})

	// a constant input passes a one-pole low-pass at unity gain
	waveform := make([]float64, 256)
	for i := range waveform {
		waveform[i] = 0.5
	}
	require.NoError(t, sim.Push(context.Background(), waveform))

	_, y, err := sim.Capture(context.Background(), 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, y[len(y)-1], 1e-3)
}

func TestSimulatorNoiseIsSeeded(t *testing.T) {
	newSim := func() *Simulator {
		return NewSimulator(SimulatorConfig{
			SamplesPerDescriptor: 16,
			NoiseLevel:           0.1,
			Seed:                 7,
			Logger:               &logging.NoOpLogger{},
		})
	}

	a, b := newSim(), newSim()
	wave := []float64{0.1, -0.1}
	require.NoError(t, a.Push(context.Background(), wave))
	require.NoError(t, b.Push(context.Background(), wave))

	_, ya, err := a.Capture(context.Background(), 1)
	require.NoError(t, err)
	_, yb, err := b.Capture(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, ya, yb)
	assert.NotEqual(t, 0.1, ya[0])
}

func TestClampDescriptors(t *testing.T) {
	assert.Equal(t, 1, ClampDescriptors(0, 256))
	assert.Equal(t, 1, ClampDescriptors(-5, 256))
	assert.Equal(t, 12, ClampDescriptors(12, 256))
	assert.Equal(t, 256, ClampDescriptors(1000, 256))
	assert.Equal(t, MaxDescriptors, ClampDescriptors(1000, 0))
}

func TestClipWaveform(t *testing.T) {
	in := []float64{0, 0.5, 1, -1, -1.01, 0.99997}
	out, n := ClipWaveform(in)

	assert.Equal(t, []float64{0, 0.5, DACMax, -1, -1, DACMax}, out)
	assert.Equal(t, 3, n)
	assert.Equal(t, 1.0, in[2], "input left untouched")
	assert.Equal(t, 0.999969482421875, DACMax)
}
