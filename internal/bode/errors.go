package bode

import "errors"

// Errors returned by the estimation core.
var (
	// ErrConfiguration is returned when the transform length cannot be served
	// by the captured record, or an accumulator setting is invalid.
	ErrConfiguration = errors.New("bode: configuration error")

	// ErrGridMismatch is returned when two responses live on different frequency grids.
	ErrGridMismatch = errors.New("bode: frequency grid mismatch")

	ErrLengthMismatch   = errors.New("bode: length mismatch")
	ErrInvalidReference = errors.New("bode: invalid reference response")
	ErrUnknownWindow    = errors.New("bode: unknown window function")
	ErrUnknownBackend   = errors.New("bode: unknown FFT backend")
)
