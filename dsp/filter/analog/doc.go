// Package analog provides continuous-time (s-domain) filter models.
//
// A [TransferFunction] holds numerator and denominator coefficients in
// descending powers of s and is evaluated on the imaginary axis, s = jω.
// [BesselLowpass] builds the Bessel (Thomson) low-pass prototypes used to
// model the bandwidth limit of a readout chain. The prototypes stay analog so
// the response can be queried at arbitrary angular frequencies, either
// pointwise or sampled on an FFT grid.
package analog
