package analog

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-readout/internal/polyroot"
)

var (
	// ErrInvalidOrder is returned for filter orders outside the supported range.
	ErrInvalidOrder = errors.New("analog: unsupported filter order")
	// ErrInvalidCutoff is returned for non-positive or non-finite cutoffs.
	ErrInvalidCutoff = errors.New("analog: cutoff must be > 0 and finite")
)

// Normalization selects how the Bessel prototype is scaled relative to the
// requested cutoff.
type Normalization int

const (
	// NormPhase scales the delay-normalized poles by ((2N)!/(2^N N!))^(-1/N),
	// so the high-frequency magnitude asymptote (ωc/ω)^N equals that of a
	// Butterworth filter of the same order and cutoff.
	NormPhase Normalization = iota
	// NormDelay gives a group delay of 1/ωc at DC.
	NormDelay
	// NormMag places the -3 dB point at the cutoff.
	NormMag
)

// String returns the normalization name.
func (n Normalization) String() string {
	switch n {
	case NormPhase:
		return "phase"
	case NormDelay:
		return "delay"
	case NormMag:
		return "mag"
	default:
		return fmt.Sprintf("Normalization(%d)", int(n))
	}
}

// MaxBesselOrder is the highest supported Bessel order.
const MaxBesselOrder = 10

// BesselLowpass builds an analog Bessel low-pass transfer function of the
// given order with cutoff cutoffHz (applied as ωc = 2π·cutoffHz rad/s).
// All normalizations have unity DC gain; the numerator is a constant.
func BesselLowpass(order int, cutoffHz float64, norm Normalization) (TransferFunction, error) {
	if order <= 0 || order > MaxBesselOrder {
		return TransferFunction{}, fmt.Errorf("%w: %d", ErrInvalidOrder, order)
	}

	if cutoffHz <= 0 || math.IsNaN(cutoffHz) || math.IsInf(cutoffHz, 0) {
		return TransferFunction{}, fmt.Errorf("%w: %g", ErrInvalidCutoff, cutoffHz)
	}

	var scale float64

	switch norm {
	case NormPhase:
		scale = math.Pow(besselConstantTerm(order), -1/float64(order))
	case NormDelay:
		scale = 1
	case NormMag:
		scale = 1 / besselScaleFactors[order]
	default:
		return TransferFunction{}, fmt.Errorf("analog: unknown normalization %v", norm)
	}

	wc := 2 * math.Pi * cutoffHz * scale

	poles := polyroot.ExpandConjugates(besselDelayPoles[order])
	for i := range poles {
		poles[i] *= complex(wc, 0)
	}

	a, err := polyroot.FromRoots(poles)
	if err != nil {
		return TransferFunction{}, fmt.Errorf("analog: bessel order %d: %w", order, err)
	}

	return TransferFunction{
		B:     []float64{a[len(a)-1]},
		A:     a,
		poles: poles,
	}, nil
}

// besselConstantTerm returns the constant coefficient of the monic reverse
// Bessel polynomial of the given order, (2N)! / (2^N N!). It equals the
// product of the delay-normalized pole magnitudes.
func besselConstantTerm(order int) float64 {
	v := 1.0
	for k := order + 1; k <= 2*order; k++ {
		v *= float64(k) / 2
	}

	return v
}

// besselDelayPoles contains delay-normalized Bessel filter poles for orders 1–10.
// Only the unique pole from each conjugate pair (positive imaginary part) is stored.
// For odd orders, the real pole (zero imaginary part) is listed last.
//
// Source: C.R. Bond, "Bessel Filter Constants", crbond.com/papers/bsf.pdf.
var besselDelayPoles = [MaxBesselOrder + 1][]complex128{
	{},
	{complex(-1.0, 0)},
	{complex(-1.5, 0.8660254038)},
	{complex(-1.8389073227, 1.7543809598), complex(-2.3221853546, 0)},
	{complex(-2.1037893972, 2.6574180419), complex(-2.8962106028, 0.8672341289)},
	{
		complex(-2.3246743032, 3.5710229203),
		complex(-3.3519563992, 1.7426614162),
		complex(-3.6467385953, 0),
	},
	{
		complex(-2.5159322478, 4.4926729537),
		complex(-3.7357083563, 2.6262723114),
		complex(-4.2483593959, 0.8675096732),
	},
	{
		complex(-2.6856768789, 5.4206941307),
		complex(-4.0701391636, 3.5171740477),
		complex(-4.7582905282, 1.7392860613),
		complex(-4.9717868585, 0),
	},
	{
		complex(-2.8389839177, 6.3539112470),
		complex(-4.3682892668, 4.4144425006),
		complex(-5.2048407906, 2.6161751538),
		complex(-5.5878860022, 0.8676144454),
	},
	{
		complex(-2.9792607983, 7.2914651564),
		complex(-4.6384398714, 5.3172716754),
		complex(-5.6044218195, 3.4981415816),
		complex(-6.1293679040, 1.7378483835),
		complex(-6.2970079817, 0),
	},
	{
		complex(-3.1088931555, 8.2324678728),
		complex(-4.8862195924, 6.2249854825),
		complex(-5.9675283089, 4.3849471924),
		complex(-6.6152909655, 2.6115679208),
		complex(-6.9220449048, 0.8676594792),
	},
}

// besselScaleFactors are the -3 dB frequencies of the delay-normalized
// prototypes, used to move poles to magnitude normalization.
//
// Source: C.R. Bond, "Bessel Filter Constants", crbond.com/papers/bsf.pdf.
var besselScaleFactors = [MaxBesselOrder + 1]float64{
	0,
	1.0,
	1.36165412871613,
	1.75567236868121,
	2.11391767490422,
	2.42741070215263,
	2.70339506120292,
	2.95172214703872,
	3.17961723751065,
	3.39169313891166,
	3.59098059456916,
}
