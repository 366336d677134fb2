package fidelity

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-readout/dsp/filter/analog"
)

// Chain is the readout chain of an ER estimate in units of samples. The
// window holds EffectiveSamples independent noise samples once the limiting
// filter has narrowed the noise bandwidth; tunnel times are in raw samples.
type Chain struct {
	EffectiveSamples float64
	InSamples        float64
	OutSamples       float64
	// BandwidthFactor is the ratio of effective to raw samples.
	BandwidthFactor float64
	// Sigma is the noise standard deviation on the level scale.
	Sigma float64

	tInv   float64
	filter analog.TransferFunction
}

// NewChain validates p and builds its chain with a Bessel filter of the
// given order.
func NewChain(p Params, filterOrder int) (*Chain, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	dt := 1 / p.SampleRate
	fr := 2 * p.FilterCutoff * dt

	// The filter can only narrow the noise bandwidth.
	tnr := 1.0
	if fr < 1 {
		tnr = 2 * fr / (fr + 1)
	}

	c := &Chain{
		EffectiveSamples: p.ReadoutTime / dt * tnr,
		InSamples:        p.InTimeGround / dt,
		OutSamples:       p.OutTimeExcited / dt,
		BandwidthFactor:  tnr,
		Sigma:            1 / p.SNR,
		tInv:             1 / (tnr * dt),
	}

	if !(c.EffectiveSamples > 2) || math.IsInf(c.EffectiveSamples, 0) {
		return nil, fmt.Errorf("%w: readout window holds %.3g effective samples, need more than 2",
			ErrInvalidParameter, c.EffectiveSamples)
	}

	tf, err := analog.BesselLowpass(filterOrder, p.FilterCutoff, analog.NormPhase)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}

	c.filter = tf

	return c, nil
}

// PulseLevel is the filtered level of a high pulse lasting n effective
// samples: the filter gain at the inverse pulse length.
func (c *Chain) PulseLevel(n float64) float64 {
	return (highLevel-lowLevel)*c.filter.Magnitude(c.tInv/n) + lowLevel
}

// PulseLength returns how many effective samples of the window a pulse
// covers when the spin tunnels out at sample s and dwells n samples. ok is
// false outside the region that ERFidelity integrates: s in [1, nr-1] and
// n in [1, dwellSpan*nh].
func (c *Chain) PulseLength(s, n float64) (length float64, ok bool) {
	nr := c.EffectiveSamples
	if s < 1 || s > nr-1 || n < 1 || n > dwellSpan*c.InSamples {
		return 0, false
	}

	return min(n, nr-s), true
}

// AvgTransitions returns the weight of the multiple-transition regime and
// whether equal rates had to be separated.
func (c *Chain) AvgTransitions() (float64, bool) {
	ri := c.BandwidthFactor / c.InSamples
	ro := c.BandwidthFactor / c.OutSamples

	nudged := ri == ro
	if nudged {
		ro += rateNudge
	}

	return 1 - (math.Expm1((ro-ri)/2)*ro)/(math.Expm1(ro/2)*(ro-ri)), nudged
}
