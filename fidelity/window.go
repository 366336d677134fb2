package fidelity

import (
	"errors"
	"fmt"
	"math"
)

// OptimalReadTime returns the readout window, in seconds, that maximizes
// the sum of the ideal ground and excited state fidelities.
//
// tauOE and tauOG are the tunnel-out times of the excited and ground spin
// states, tauR the excited state relaxation time. Equal out-times are
// rejected: the two states are then indistinguishable by tunnelling.
func OptimalReadTime(tauOE, tauOG, tauR float64) (float64, error) {
	x, err := stcDenominator(tauOE, tauOG, tauR)
	if err != nil {
		return 0, err
	}

	t := (tauR * tauOG * tauOE / x) * math.Log(tauOG*(tauR+tauOE)/(tauR*tauOE))
	if !(t > 0) || math.IsInf(t, 0) {
		return 0, fmt.Errorf("%w: no positive optimal window for tau_oe=%g tau_og=%g tau_r=%g",
			ErrInvalidParameter, tauOE, tauOG, tauR)
	}

	return t, nil
}

// stcDenominator validates the time constants and returns
// x = tauR*(tauOG - tauOE) + tauOE*tauOG, shared by the window and STC
// closed forms.
func stcDenominator(tauOE, tauOG, tauR float64) (float64, error) {
	if err := errors.Join(
		requirePositive("tau_oe", tauOE),
		requirePositive("tau_og", tauOG),
		requirePositive("tau_r", tauR),
	); err != nil {
		return 0, err
	}

	if tauOE == tauOG {
		return 0, fmt.Errorf("%w: tau_oe and tau_og must differ, both are %g", ErrInvalidParameter, tauOE)
	}

	x := tauR*(tauOG-tauOE) + tauOE*tauOG
	if x == 0 || math.IsInf(x, 0) {
		return 0, fmt.Errorf("%w: degenerate denominator for tau_oe=%g tau_og=%g tau_r=%g",
			ErrInvalidParameter, tauOE, tauOG, tauR)
	}

	return x, nil
}
