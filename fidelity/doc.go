// Package fidelity estimates single-shot spin readout fidelities for
// quantum-dot qubits read out by spin-to-charge conversion.
//
// Three estimators are provided:
//
//   - [OptimalReadTime] solves for the readout window that maximizes the
//     ideal fidelity sum for given tunnel-out and relaxation times.
//   - [STCFidelity] and [STCFidelityAt] give the ground and excited state
//     fidelities of an ideal, noiseless single-threshold comparator.
//   - [ERFidelity] gives the electrical fidelities of a band-limited,
//     sampled, noisy readout chain across a sweep of discrimination
//     thresholds, and reports the threshold of maximum visibility.
//
// All time constants are in seconds, rates in hertz. Signal levels are
// normalized so the charge states sit at 0 and 1, and thresholds are
// expressed on that scale.
//
// The electrical estimator memoizes its special-function and sub-integral
// evaluations in tables that belong to a single call; concurrent calls share
// nothing.
package fidelity
