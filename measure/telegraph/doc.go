// Package telegraph simulates single-shot spin readout and measures empirical
// fidelities against a threshold grid. A shot is classified excited when its
// peak exceeds the threshold.
//
// Two shot generators are available. ModelChain, the default, draws on the
// effective-sample grid of a fidelity.Chain: round(nr) independent noise
// samples of standard deviation 1/SNR, a truncated exponential tunnel-out
// sample and an exponential dwell, and a pulse that lifts each sample to the
// filtered pulse level with probability L/nr. It is the generative model
// behind fidelity.ERFidelity, so the two agree within Monte Carlo error and
// the simulator cross-checks the quadrature.
//
// ModelTrace samples the raw telegraph trace at the sample rate instead. The
// trace sits low until an exponentially distributed tunnel-out instant,
// high for an exponentially distributed dwell, then low again. White noise
// is added to the whole circular FFT frame and the sum is passed through an
// analog Bessel low-pass, with the noise scaled so its filtered standard
// deviation is 1/SNR. This model describes the physical chain rather than
// the ER approximation and can differ from it markedly when the filter is
// slow.
//
// The result has the same shape as fidelity.ER, so the two can be compared
// threshold by threshold:
//
//	cfg := telegraph.ApplyOptions(params, telegraph.WithShots(2000))
//	sim, err := telegraph.Simulate(cfg, er.Thresholds)
package telegraph
