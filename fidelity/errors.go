package fidelity

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidParameter reports a non-positive or non-finite input, a
	// threshold count below two, or a degenerate closed-form condition.
	ErrInvalidParameter = errors.New("fidelity: invalid parameter")
	// ErrNumericDegeneracy marks an internal removable singularity that was
	// nudged away. It is only ever attached to a Warning.
	ErrNumericDegeneracy = errors.New("fidelity: numeric degeneracy")
	// ErrIntegration reports a double integral that did not converge.
	ErrIntegration = errors.New("fidelity: integration did not converge")
)

// Warning is a recoverable condition recorded during an ER sweep.
// Index is -1 for conditions that are not tied to one threshold.
type Warning struct {
	Index     int
	Threshold float64
	Err       error
}

func (w Warning) Error() string {
	if w.Index < 0 {
		return w.Err.Error()
	}

	return fmt.Sprintf("threshold %d (%.6g): %v", w.Index, w.Threshold, w.Err)
}

func (w Warning) Unwrap() error { return w.Err }

func requirePositive(name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be > 0 and finite, got %g", ErrInvalidParameter, name, v)
	}

	return nil
}
