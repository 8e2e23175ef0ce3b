package device

import "context"

// Kind identifies an instrument implementation.
type Kind string

const (
	KindSimLoopback Kind = "sim-loopback"
	KindSimDUT      Kind = "sim-dut"
	KindUnsupported Kind = "unsupported"
)

// Acquisition geometry of the digitizer the simulator models.
const (
	DefaultSampleRate  = 250e6
	WordsPerDescriptor = 64 * 1024
	SamplesPerWord     = 2
	MaxDescriptors     = 256

	// SamplesPerDescriptor is the number of samples per channel one descriptor yields.
	SamplesPerDescriptor = WordsPerDescriptor * SamplesPerWord
)

// Capturer acquires one simultaneous excitation/response capture.
type Capturer interface {
	// Capture returns descriptors·SamplesPerDescriptor samples per channel.
	// The descriptor count is clamped to [1, MaxDescriptors].
	Capture(ctx context.Context, descriptors int) (excitation, response []float64, err error)
}

// Exciter loads a waveform into the signal generator, which plays it in a loop.
type Exciter interface {
	// Push replaces the generator buffer. Samples outside the converter range
	// are clipped and reported as a warning.
	Push(ctx context.Context, waveform []float64) error
}

// Instrument is a connected capture and excitation device.
type Instrument interface {
	Capturer
	Exciter

	Info() Info
	Close() error
}

// Info describes an instrument connection.
type Info struct {
	Kind                 Kind    `json:"kind" yaml:"kind"`
	Host                 string  `json:"host" yaml:"host"`
	SampleRate           float64 `json:"sample_rate" yaml:"sample_rate"`
	SamplesPerDescriptor int     `json:"samples_per_descriptor" yaml:"samples_per_descriptor"`
	MaxDescriptors       int     `json:"max_descriptors" yaml:"max_descriptors"`
}

// CaptureLength returns the per-channel sample count for a descriptor request,
// after clamping.
func (i Info) CaptureLength(descriptors int) int {
	return ClampDescriptors(descriptors, i.MaxDescriptors) * i.SamplesPerDescriptor
}
