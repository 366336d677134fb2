package analog

import (
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-readout/internal/polyroot"
)

// TransferFunction is a rational s-domain transfer function
//
//	H(s) = (B[0]s^M + ... + B[M]) / (A[0]s^N + ... + A[N])
//
// with coefficients in descending power order.
type TransferFunction struct {
	B []float64
	A []float64

	poles []complex128
}

// Order returns the denominator degree.
func (tf TransferFunction) Order() int {
	if len(tf.A) == 0 {
		return 0
	}

	return len(tf.A) - 1
}

// Poles returns a copy of the poles the function was built from. It is nil
// for transfer functions assembled directly from coefficients.
func (tf TransferFunction) Poles() []complex128 {
	if tf.poles == nil {
		return nil
	}

	out := make([]complex128, len(tf.poles))
	copy(out, tf.poles)

	return out
}

// Response computes H(jω) at the angular frequency omega (rad/s).
func (tf TransferFunction) Response(omega float64) complex128 {
	s := complex(0, omega)
	return polyroot.EvalComplex(tf.B, s) / polyroot.EvalComplex(tf.A, s)
}

// Magnitude returns |H(jω)|.
func (tf TransferFunction) Magnitude(omega float64) float64 {
	return cmplx.Abs(tf.Response(omega))
}

// MagnitudeDB returns 20*log10(|H(jω)|).
func (tf TransferFunction) MagnitudeDB(omega float64) float64 {
	return 20 * math.Log10(tf.Magnitude(omega))
}

// Phase returns the phase of H(jω) in radians, in [-pi, pi].
func (tf TransferFunction) Phase(omega float64) float64 {
	return cmplx.Phase(tf.Response(omega))
}
