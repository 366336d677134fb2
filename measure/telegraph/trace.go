package telegraph

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cwbudde/algo-readout/dsp/filter/analog"
)

// traceSource draws raw telegraph traces at the sample rate. Signal and
// white noise pass through the filter together; the noise is scaled so its
// filtered standard deviation is 1/SNR.
type traceSource struct {
	dt    float64
	trace []float64

	filter *traceFilter
	noise  distuv.Normal
	tunnel distuv.Exponential
	dwell  distuv.Exponential
}

func newTraceSource(cfg Config) (*traceSource, error) {
	tf, err := analog.BesselLowpass(cfg.FilterOrder, cfg.FilterCutoff, analog.NormPhase)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	m := cfg.samples()

	f, err := newTraceFilter(tf, m, cfg.SampleRate, cfg.FilterCutoff)
	if err != nil {
		return nil, err
	}

	src := rand.NewPCG(cfg.Seed, 0)

	return &traceSource{
		dt:     1 / cfg.SampleRate,
		trace:  make([]float64, m),
		filter: f,
		noise:  distuv.Normal{Mu: 0, Sigma: 1 / cfg.SNR, Src: src},
		tunnel: distuv.Exponential{Rate: 1 / cfg.OutTimeExcited, Src: src},
		dwell:  distuv.Exponential{Rate: 1 / cfg.InTimeGround, Src: src},
	}, nil
}

func (s *traceSource) groundPeak() (float64, error) {
	for i := range s.trace {
		s.trace[i] = lowLevel
	}

	return s.filteredPeak()
}

// excitedPeak returns the peak of a trace with one telegraph pulse.
func (s *traceSource) excitedPeak() (float64, error) {
	out := s.tunnel.Rand()
	in := out + s.dwell.Rand()

	for i := range s.trace {
		t := float64(i) * s.dt
		if t >= out && t < in {
			s.trace[i] = highLevel
		} else {
			s.trace[i] = lowLevel
		}
	}

	return s.filteredPeak()
}

func (s *traceSource) filteredPeak() (float64, error) {
	if err := s.filter.Apply(s.trace, s.trace, s.noise.Rand); err != nil {
		return 0, err
	}

	return floats.Max(s.trace), nil
}
