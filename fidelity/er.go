package fidelity

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cwbudde/algo-readout/internal/memo"
	"github.com/cwbudde/algo-readout/internal/quad"
)

const (
	// filterOrder is the order of the Bessel model of the readout chain.
	filterOrder = 8

	lowLevel  = 0.0
	highLevel = 1.0

	// dwellSpan is the upper limit of the straddling integral in units of
	// the normalized tunnel-in time; e^-20 of the dwell mass lies beyond.
	dwellSpan = 20

	// rateNudge separates equal tunnel rates in the transition average.
	rateNudge = 1e-4
)

// Params are the physical inputs of the electrical estimator.
type Params struct {
	// OutTimeExcited is the excited state tunnel-out time in seconds.
	OutTimeExcited float64
	// InTimeGround is the ground state tunnel-in time in seconds.
	InTimeGround float64
	// ReadoutTime is the duration of one single-shot window in seconds.
	ReadoutTime float64
	// SNR is the voltage signal-to-noise ratio between the charge states.
	SNR float64
	// SampleRate is in samples per second.
	SampleRate float64
	// FilterCutoff is the cutoff of the limiting filter in hertz.
	FilterCutoff float64
}

// Validate checks that every field is positive and finite.
func (p Params) Validate() error {
	return errors.Join(
		requirePositive("out_time_excited", p.OutTimeExcited),
		requirePositive("in_time_ground", p.InTimeGround),
		requirePositive("readout_time", p.ReadoutTime),
		requirePositive("snr", p.SNR),
		requirePositive("sample_rate", p.SampleRate),
		requirePositive("filter_cutoff", p.FilterCutoff),
	)
}

// ER is the result of an electrical fidelity sweep. All slices are aligned
// with Thresholds.
type ER struct {
	Thresholds []float64
	// GroundFid is the probability that no sample crosses the threshold when
	// no transition occurs.
	GroundFid []float64
	// ExcitedFid is the probability that a transition is detected when one
	// occurs.
	ExcitedFid []float64
	// Vis is GroundFid + ExcitedFid - 1.
	Vis []float64
	// BestIndex is the first index of maximum visibility.
	BestIndex int
	// AvgTransitions is the weight of the multiple-transition regime.
	AvgTransitions float64
	Warnings       []Warning
}

// Best returns the threshold and fidelities at BestIndex.
func (r *ER) Best() (threshold, ground, excited, vis float64) {
	i := r.BestIndex
	return r.Thresholds[i], r.GroundFid[i], r.ExcitedFid[i], r.Vis[i]
}

func (r *ER) warn(l *log.Logger, w Warning) {
	r.Warnings = append(r.Warnings, w)
	if l != nil {
		l.Print(w)
	}
}

// ERFidelity sweeps ThresholdNum discrimination thresholds and computes the
// electrical ground and excited state fidelities at each.
//
// Parameters are validated before any evaluation. A double integral that
// fails to converge keeps its best estimate and is recorded in Warnings;
// with WithStrictIntegration it fails the call instead.
func ERFidelity(p Params, opts ...EROption) (*ER, error) {
	cfg := ApplyEROptions(opts...)

	if err := p.Validate(); err != nil {
		return nil, err
	}

	if cfg.ThresholdNum < 2 {
		return nil, fmt.Errorf("%w: threshold_num must be >= 2, got %d", ErrInvalidParameter, cfg.ThresholdNum)
	}

	m, err := newERModel(p, cfg)
	if err != nil {
		return nil, err
	}

	n := len(m.thresholds)
	res := &ER{Thresholds: m.thresholds}
	ground := make([]float64, n)
	detected := make([]float64, n)

	for j, thr := range m.thresholds {
		ground[j] = math.Pow(m.lowCDF[j], m.nr)

		missed, err := m.missed(j)
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrIntegration, err)
			if cfg.Strict {
				return nil, fmt.Errorf("threshold %d (%g): %w", j, thr, err)
			}

			res.warn(cfg.Logger, Warning{Index: j, Threshold: thr, Err: err})
		}

		detected[j] = 1 - missed
	}

	navg, nudged := m.chain.AvgTransitions()
	if nudged {
		res.warn(cfg.Logger, Warning{
			Index: -1,
			Err:   fmt.Errorf("%w: equal tunnel rates, out rate nudged by %g", ErrNumericDegeneracy, rateNudge),
		})
	}

	excited := make([]float64, n)
	vecmath.ScaleBlock(excited, detected, 1-navg)

	falseHigh := make([]float64, n)
	for i, g := range ground {
		falseHigh[i] = 1 - g
	}

	vecmath.ScaleBlock(falseHigh, falseHigh, navg)
	vecmath.AddBlockInPlace(excited, falseHigh)

	vis := make([]float64, n)
	copy(vis, ground)
	vecmath.AddBlockInPlace(vis, excited)

	for i := range vis {
		vis[i]--
	}

	res.GroundFid = ground
	res.ExcitedFid = excited
	res.Vis = vis
	res.BestIndex = floats.MaxIdx(vis)
	res.AvgTransitions = navg

	return res, nil
}

type cdfKey struct {
	x, mu, sigma float64
}

type missKey struct {
	n, v float64
	j    int
}

type dwellKey struct {
	j    int
	n, s float64
}

// erModel holds the chain and memo tables of one sweep. nr, nh and nl
// mirror the chain's effective sample count and tunnel times.
type erModel struct {
	chain *Chain

	nr, nh, nl float64
	sigma      float64

	thresholds []float64
	lowCDF     []float64

	integ *quad.Integrator

	cdf    *memo.Func[cdfKey, float64]
	gain   *memo.Func[float64, float64]
	escape *memo.Func[float64, float64]
	dwell  *memo.Func[float64, float64]
	miss   *memo.Func[missKey, float64]
	pulse  *memo.Func[dwellKey, float64]
}

func newERModel(p Params, cfg ERConfig) (*erModel, error) {
	c, err := NewChain(p, filterOrder)
	if err != nil {
		return nil, err
	}

	m := &erModel{
		chain: c,
		nr:    c.EffectiveSamples,
		nh:    c.InSamples,
		nl:    c.OutSamples,
		sigma: c.Sigma,
	}

	m.integ = quad.New(cfg.Nodes, quad.Config{
		AbsTol:       cfg.AbsTol,
		RelTol:       cfg.RelTol,
		MaxIntervals: cfg.MaxIntervals,
	})

	limit := cfg.MaxCacheEntries
	m.cdf = memo.NewBounded(func(k cdfKey) float64 {
		return distuv.Normal{Mu: k.mu, Sigma: k.sigma}.CDF(k.x)
	}, cfg.ThresholdNum, limit)
	m.gain = memo.NewBounded(c.PulseLevel, 0, limit)
	m.escape = memo.NewBounded(m.escapeDensity, 0, limit)
	m.dwell = memo.NewBounded(m.dwellDensity, 0, limit)
	m.miss = memo.NewBounded(m.missProbability, 0, limit)
	m.pulse = memo.NewBounded(m.pulseIntegrand, 0, limit)

	m.thresholds = floats.Span(make([]float64, cfg.ThresholdNum), lowLevel, highLevel)
	m.thresholds[len(m.thresholds)-1] = highLevel

	m.lowCDF = make([]float64, len(m.thresholds))
	for i, v := range m.thresholds {
		m.lowCDF[i] = m.cdf.Call(cdfKey{x: v, mu: lowLevel, sigma: m.sigma})
	}

	return m, nil
}

// escapeDensity is the tunnel-out time density over the window, normalized
// to unit mass on [1, nr+1].
func (m *erModel) escapeDensity(s float64) float64 {
	return math.Exp((1-s)/m.nl) / -math.Expm1(-m.nr/m.nl) / m.nl
}

// dwellDensity is the tunnel-in time density.
func (m *erModel) dwellDensity(n float64) float64 {
	return math.Exp((1-n)/m.nh) / m.nh
}

// missProbability is the chance that every sample in the window stays
// below threshold k.v when a high-level pulse of k.n samples is present.
// The pulse reaches the filter output at the chain's pulse level and
// covers a fraction n/nr of the window.
func (m *erModel) missProbability(k missKey) float64 {
	w := k.n / m.nr
	high := m.cdf.Call(cdfKey{x: k.v, mu: m.gain.Call(k.n), sigma: m.sigma})

	return math.Pow(w*high+(1-w)*m.lowCDF[k.j], m.nr)
}

// pulseIntegrand weights the miss probability of the pulse that tunnels
// out at s and dwells n samples.
func (m *erModel) pulseIntegrand(k dwellKey) float64 {
	length, ok := m.chain.PulseLength(k.s, k.n)
	if !ok {
		return 0
	}

	miss := m.miss.Call(missKey{n: length, v: m.thresholds[k.j], j: k.j})

	return m.escape.Call(k.s) * m.dwell.Call(k.n) * miss
}

// missed integrates the miss probability over tunnel-out instant s and
// dwell n for threshold j. The n range is split where the pulse starts to
// straddle the end of the window. Tables keyed by j are dropped afterwards.
func (m *erModel) missed(j int) (float64, error) {
	defer func() {
		m.miss.Reset()
		m.pulse.Reset()
	}()

	f := func(n, s float64) float64 {
		return m.pulse.Call(dwellKey{j: j, n: n, s: s})
	}

	start := func(float64) float64 { return 1 }
	remaining := func(s float64) float64 { return m.nr - s }
	tail := func(float64) float64 { return dwellSpan * m.nh }

	in, errIn := m.integ.Integrate2D(f, 1, m.nr-1, start, remaining)
	out, errOut := m.integ.Integrate2D(f, 1, m.nr-1, remaining, tail)

	return in.Value + out.Value, errors.Join(errIn, errOut)
}
