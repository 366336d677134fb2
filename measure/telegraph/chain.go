package telegraph

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cwbudde/algo-readout/fidelity"
)

// chainSource draws shots on the effective-sample grid of a fidelity.Chain.
// Each of the round(nr) samples carries independent noise; a pulse of
// length L raises each sample to the filtered pulse level with probability
// L/nr.
type chainSource struct {
	chain  *fidelity.Chain
	levels []float64
	buf    []float64

	rng   *rand.Rand
	noise distuv.Normal
	dwell distuv.Exponential
	multi distuv.Bernoulli
}

func newChainSource(cfg Config) (*chainSource, error) {
	c, err := fidelity.NewChain(cfg.Params, cfg.FilterOrder)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	navg, _ := c.AvgTransitions()
	k := int(math.Round(c.EffectiveSamples))
	src := rand.NewPCG(cfg.Seed, 0)

	return &chainSource{
		chain:  c,
		levels: make([]float64, k),
		buf:    make([]float64, k),
		rng:    rand.New(src),
		noise:  distuv.Normal{Mu: 0, Sigma: c.Sigma, Src: src},
		dwell:  distuv.Exponential{Rate: 1 / c.InSamples, Src: src},
		multi:  distuv.Bernoulli{P: navg, Src: src},
	}, nil
}

func (s *chainSource) groundPeak() (float64, error) {
	for i := range s.levels {
		s.levels[i] = lowLevel
	}

	return noisyPeak(s.levels, s.buf, s.noise), nil
}

// escape draws the tunnel-out sample from the exponential density truncated
// to [1, nr+1].
func (s *chainSource) escape() float64 {
	nr, nl := s.chain.EffectiveSamples, s.chain.OutSamples
	u := s.rng.Float64()

	return 1 - nl*math.Log1p(u*math.Expm1(-nr/nl))
}

func (s *chainSource) excitedPeak() (float64, error) {
	// Several transitions within the window read like an empty trace.
	if s.multi.Rand() == 1 {
		return s.groundPeak()
	}

	out := s.escape()
	dwell := 1 + s.dwell.Rand()

	length, ok := s.chain.PulseLength(out, dwell)
	if !ok {
		// ERFidelity leaves this region out of the miss integral, which
		// counts it as detected.
		return math.Inf(1), nil
	}

	level := s.chain.PulseLevel(length)
	high := distuv.Bernoulli{P: length / s.chain.EffectiveSamples, Src: s.noise.Src}

	for i := range s.levels {
		s.levels[i] = lowLevel + (level-lowLevel)*high.Rand()
	}

	return noisyPeak(s.levels, s.buf, s.noise), nil
}
