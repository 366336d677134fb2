package fidelity

import "math"

// STC holds ideal single-threshold-comparator fidelities.
type STC struct {
	// ReadoutTime is the window the fidelities were evaluated at.
	ReadoutTime float64
	// Ground is the probability that no tunnel-out event occurs within the
	// window for a ground state spin.
	Ground float64
	// Excited is the probability that a tunnel-out event occurs within the
	// window for an excited state spin, accounting for relaxation.
	Excited float64
}

// Visibility returns Ground + Excited - 1.
func (s STC) Visibility() float64 { return s.Ground + s.Excited - 1 }

// STCFidelity evaluates the ideal fidelities at the window returned by
// OptimalReadTime.
func STCFidelity(tauOE, tauOG, tauR float64) (STC, error) {
	t, err := OptimalReadTime(tauOE, tauOG, tauR)
	if err != nil {
		return STC{}, err
	}

	return STCFidelityAt(tauOE, tauOG, tauR, t)
}

// STCFidelityAt evaluates the ideal fidelities for an explicit readout
// window in seconds.
func STCFidelityAt(tauOE, tauOG, tauR, readoutTime float64) (STC, error) {
	x, err := stcDenominator(tauOE, tauOG, tauR)
	if err != nil {
		return STC{}, err
	}

	if err := requirePositive("readout_time", readoutTime); err != nil {
		return STC{}, err
	}

	t := readoutTime
	stay := math.Exp(-t / tauOG)
	decay := math.Expm1(-(tauR + tauOE) * t / (tauOE * tauR))

	return STC{
		ReadoutTime: t,
		Ground:      stay,
		Excited:     ((1-stay)*tauOG*tauOE + decay*tauR*(tauOE-tauOG)) / x,
	}, nil
}
