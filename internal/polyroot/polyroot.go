// Package polyroot converts between root sets and real polynomial
// coefficients for the analog filter models, and evaluates them on the
// imaginary axis.
package polyroot

import (
	"errors"
	"math"
	"math/cmplx"
)

// ErrDegeneratePolynomial is returned when a root set cannot produce a real
// polynomial (a complex root without its conjugate, an empty set, etc.).
var ErrDegeneratePolynomial = errors.New("polyroot: degenerate polynomial")

// ConjugateTol is the relative tolerance for conjugate pair matching.
const ConjugateTol = 1e-7

// ExpandConjugates turns a list of unique poles, where each complex entry
// stands for a conjugate pair and real entries stand alone, into the full
// root set. Complex entries are emitted as (p, conj(p)).
func ExpandConjugates(unique []complex128) []complex128 {
	out := make([]complex128, 0, 2*len(unique))
	for _, p := range unique {
		out = append(out, p)
		if imag(p) != 0 {
			out = append(out, cmplx.Conj(p))
		}
	}

	return out
}

// FromRoots expands prod(x - r_i) into monic polynomial coefficients in
// descending power order. The roots must be closed under conjugation within
// ConjugateTol so the result is real; residual imaginary parts are dropped.
func FromRoots(roots []complex128) ([]float64, error) {
	if len(roots) == 0 || !conjugateClosed(roots) {
		return nil, ErrDegeneratePolynomial
	}

	acc := make([]complex128, 1, len(roots)+1)
	acc[0] = 1

	for _, r := range roots {
		acc = append(acc, 0)
		for i := len(acc) - 1; i > 0; i-- {
			acc[i] -= r * acc[i-1]
		}
	}

	out := make([]float64, len(acc))
	for i, c := range acc {
		out[i] = real(c)
	}

	return out, nil
}

// EvalComplex evaluates a real polynomial at x using Horner's method.
// Coefficients are in descending power order: coeff[0]*x^n + ... + coeff[n].
func EvalComplex(coeff []float64, x complex128) complex128 {
	if len(coeff) == 0 {
		return 0
	}

	v := complex(coeff[0], 0)
	for i := 1; i < len(coeff); i++ {
		v = v*x + complex(coeff[i], 0)
	}

	return v
}

// conjugateClosed reports whether every non-real root in roots can be paired
// with a distinct partner near its conjugate. Real roots need no partner.
func conjugateClosed(roots []complex128) bool {
	used := make([]bool, len(roots))

	for i, r := range roots {
		if used[i] || isReal(r) {
			continue
		}

		used[i] = true
		want := cmplx.Conj(r)
		tol := ConjugateTol * math.Max(1, cmplx.Abs(r))

		paired := false
		for j := i + 1; j < len(roots); j++ {
			if !used[j] && cmplx.Abs(roots[j]-want) <= tol {
				used[j], paired = true, true
				break
			}
		}

		if !paired {
			return false
		}
	}

	return true
}

func isReal(r complex128) bool {
	return math.Abs(imag(r)) <= ConjugateTol*math.Max(1, math.Abs(real(r)))
}
