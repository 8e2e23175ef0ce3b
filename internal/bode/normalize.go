package bode

import (
	"fmt"
	"math/cmplx"
)

// BaselineFloor is the magnitude at or below which a baseline bin cannot divide.
const BaselineFloor = 1e-12

// Bin is one frequency bin of a response whose value may be undefined.
type Bin struct {
	Value complex128
	Valid bool
}

// AllValid wraps every value of h as a valid bin.
func AllValid(h []complex128) []Bin {
	bins := make([]Bin, len(h))
	for i, v := range h {
		bins[i] = Bin{Value: v, Valid: true}
	}
	return bins
}

// Reference is a previously measured response used to normalize later measurements.
type Reference struct {
	Grid Grid
	H    []complex128
	Mask []bool
}

// Validate checks that the reference can be used for normalization.
func (r *Reference) Validate() error {
	if r == nil || len(r.H) == 0 {
		return fmt.Errorf("%w: empty response", ErrInvalidReference)
	}
	if len(r.Grid) != len(r.H) {
		return fmt.Errorf("%w: %d bins on a %d-bin grid", ErrInvalidReference, len(r.H), len(r.Grid))
	}
	return nil
}

// EffectiveMask returns the reference mask, or an all-true mask when the
// stored mask is absent or does not match the response length.
func (r *Reference) EffectiveMask() []bool {
	if len(r.Mask) == len(r.H) {
		return r.Mask
	}

	mask := make([]bool, len(r.H))
	for i := range mask {
		mask[i] = true
	}
	return mask
}

// Normalize divides h by the reference response bin by bin. Bins where the
// reference is masked out or its magnitude is at or below BaselineFloor are
// returned invalid. The grids must be identical; otherwise ErrGridMismatch is
// returned and nothing is computed.
func Normalize(grid Grid, h []complex128, ref *Reference) ([]Bin, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if err := grid.CheckCompatible(ref.Grid); err != nil {
		return nil, err
	}
	if len(h) != len(grid) {
		return nil, fmt.Errorf("%w: response has %d bins, grid has %d", ErrLengthMismatch, len(h), len(grid))
	}

	mask := ref.EffectiveMask()
	out := make([]Bin, len(h))
	for i, v := range h {
		h0 := ref.H[i]
		if !mask[i] || cmplx.Abs(h0) <= BaselineFloor {
			continue
		}
		out[i] = Bin{Value: v / h0, Valid: true}
	}

	return out, nil
}
