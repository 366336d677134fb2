package telegraph

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cwbudde/algo-readout/dsp/filter/analog"
)

// ErrInvalidConfig reports an unusable simulation config or threshold grid.
var ErrInvalidConfig = errors.New("telegraph: invalid config")

const (
	lowLevel  = 0.0
	highLevel = 1.0
)

// Result holds empirical fidelities aligned with Thresholds.
type Result struct {
	Thresholds []float64
	// GroundFid is the fraction of ground shots whose peak stays at or
	// below the threshold.
	GroundFid []float64
	// ExcitedFid is the fraction of excited shots whose peak exceeds it.
	ExcitedFid []float64
	// Vis is GroundFid + ExcitedFid - 1.
	Vis []float64
	// BestIndex is the first index of maximum visibility.
	BestIndex int
	// Shots is the number of shots per spin state.
	Shots int
}

// Best returns the threshold and fidelities at BestIndex.
func (r *Result) Best() (threshold, ground, excited, vis float64) {
	i := r.BestIndex
	return r.Thresholds[i], r.GroundFid[i], r.ExcitedFid[i], r.Vis[i]
}

// Validate checks the physical parameters and run settings.
func (c Config) Validate() error {
	if err := c.Params.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if c.Shots <= 0 {
		return fmt.Errorf("%w: shots must be > 0, got %d", ErrInvalidConfig, c.Shots)
	}

	if c.FilterOrder < 1 || c.FilterOrder > analog.MaxBesselOrder {
		return fmt.Errorf("%w: filter order must be in [1, %d], got %d",
			ErrInvalidConfig, analog.MaxBesselOrder, c.FilterOrder)
	}

	if c.Model != ModelChain && c.Model != ModelTrace {
		return fmt.Errorf("%w: unknown model %v", ErrInvalidConfig, c.Model)
	}

	if c.samples() < 1 {
		return fmt.Errorf("%w: readout window %g s is shorter than one sample", ErrInvalidConfig, c.ReadoutTime)
	}

	return nil
}

func (c Config) samples() int {
	return int(math.Round(c.ReadoutTime * c.SampleRate))
}

// shotSource draws the peak of one shot per call from a seeded stream.
type shotSource interface {
	groundPeak() (float64, error)
	excitedPeak() (float64, error)
}

func newShotSource(cfg Config) (shotSource, error) {
	if cfg.Model == ModelTrace {
		return newTraceSource(cfg)
	}

	return newChainSource(cfg)
}

// Simulate runs cfg.Shots ground and cfg.Shots excited shots and classifies
// each against every threshold. Runs with equal configs are identical.
func Simulate(cfg Config, thresholds []float64) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if len(thresholds) == 0 {
		return nil, fmt.Errorf("%w: empty threshold grid", ErrInvalidConfig)
	}

	for i, v := range thresholds {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: threshold %d is %v", ErrInvalidConfig, i, v)
		}
	}

	src, err := newShotSource(cfg)
	if err != nil {
		return nil, err
	}

	groundPeaks := make([]float64, cfg.Shots)
	excitedPeaks := make([]float64, cfg.Shots)

	for i := range groundPeaks {
		if groundPeaks[i], err = src.groundPeak(); err != nil {
			return nil, err
		}
	}

	for i := range excitedPeaks {
		if excitedPeaks[i], err = src.excitedPeak(); err != nil {
			return nil, err
		}
	}

	slices.Sort(groundPeaks)
	slices.Sort(excitedPeaks)

	n := len(thresholds)
	res := &Result{
		Thresholds: slices.Clone(thresholds),
		GroundFid:  make([]float64, n),
		ExcitedFid: make([]float64, n),
		Vis:        make([]float64, n),
		Shots:      cfg.Shots,
	}

	shots := float64(cfg.Shots)
	for j, v := range thresholds {
		res.GroundFid[j] = float64(countAtOrBelow(groundPeaks, v)) / shots
		res.ExcitedFid[j] = float64(cfg.Shots-countAtOrBelow(excitedPeaks, v)) / shots
		res.Vis[j] = res.GroundFid[j] + res.ExcitedFid[j] - 1
	}

	res.BestIndex = floats.MaxIdx(res.Vis)

	return res, nil
}

// countAtOrBelow returns how many values of the sorted slice are <= v.
func countAtOrBelow(sorted []float64, v float64) int {
	return sort.Search(len(sorted), func(i int) bool { return sorted[i] > v })
}

// noisyPeak adds noise drawn from n to levels and returns the peak.
// buf receives the noise and must be as long as levels.
func noisyPeak(levels, buf []float64, n distuv.Normal) float64 {
	for i := range buf {
		buf[i] = n.Rand()
	}

	vecmath.AddBlockInPlace(levels, buf)

	return floats.Max(levels)
}
