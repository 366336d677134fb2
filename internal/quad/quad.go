// Package quad provides adaptive Gauss-Legendre quadrature in one and two
// dimensions.
//
// Nodes and weights come from gonum's Legendre rule. Adaptivity is global
// bisection: the panel with the largest error estimate is split until the
// summed estimate meets the tolerance or the panel budget is spent. A panel's
// error estimate is the difference between its single-panel value and the sum
// of its two halves.
package quad

import (
	"errors"
	"fmt"
	"math"

	gquad "gonum.org/v1/gonum/integrate/quad"
)

// ErrNoConvergence is returned when the tolerance is not met within the
// panel budget or the integrand produced non-finite values. The accompanying
// Result still carries the best available estimate.
var ErrNoConvergence = errors.New("quad: integral did not converge")

// InnerTolScale scales the tolerances of the inner pass of Integrate2D.
const InnerTolScale = 1e-2

// Config controls adaptive integration.
type Config struct {
	AbsTol       float64
	RelTol       float64
	MaxIntervals int
}

// DefaultConfig returns tolerances equal to the QUADPACK defaults used by
// common scientific stacks (1.49e-8 absolute and relative, 50 panels).
func DefaultConfig() Config {
	return Config{
		AbsTol:       1.49e-8,
		RelTol:       1.49e-8,
		MaxIntervals: 50,
	}
}

// Result is the outcome of one integration.
type Result struct {
	Value     float64
	AbsErr    float64
	Intervals int
	Evals     int
}

// Rule is an n-point Gauss-Legendre rule precomputed on [-1, 1].
type Rule struct {
	x []float64
	w []float64
}

// NewRule precomputes an n-point rule. n < 1 is treated as 1.
func NewRule(n int) *Rule {
	if n < 1 {
		n = 1
	}

	r := &Rule{x: make([]float64, n), w: make([]float64, n)}
	gquad.Legendre{}.FixedLocations(r.x, r.w, -1, 1)

	return r
}

// Points returns the number of nodes.
func (r *Rule) Points() int { return len(r.x) }

// Fixed applies the rule once on [a, b].
func (r *Rule) Fixed(f func(float64) float64, a, b float64) float64 {
	half := (b - a) / 2
	mid := (a + b) / 2

	sum := 0.0
	for i, x := range r.x {
		sum += r.w[i] * f(mid+half*x)
	}

	return sum * half
}

// Integrator performs adaptive integration with a fixed rule and config.
// It holds no per-integral state and may be reused sequentially.
type Integrator struct {
	rule *Rule
	cfg  Config
}

// New returns an Integrator using an n-point rule. Zero or negative config
// fields fall back to DefaultConfig values.
func New(nodes int, cfg Config) *Integrator {
	def := DefaultConfig()
	if cfg.AbsTol <= 0 {
		cfg.AbsTol = def.AbsTol
	}

	if cfg.RelTol <= 0 {
		cfg.RelTol = def.RelTol
	}

	if cfg.MaxIntervals <= 0 {
		cfg.MaxIntervals = def.MaxIntervals
	}

	return &Integrator{rule: NewRule(nodes), cfg: cfg}
}

// Config returns the effective configuration.
func (q *Integrator) Config() Config { return q.cfg }

type panel struct {
	a, b  float64
	whole float64
	left  float64
	right float64
	err   float64
}

// Integrate computes the integral of f over [a, b]. Reversed limits give
// the negated integral; equal limits give zero.
func (q *Integrator) Integrate(f func(float64) float64, a, b float64) (Result, error) {
	if a == b {
		return Result{}, nil
	}

	if a > b {
		res, err := q.Integrate(f, b, a)
		res.Value = -res.Value

		return res, err
	}

	evals := 0
	counted := func(x float64) float64 {
		evals++
		return f(x)
	}

	split := func(a, b, whole float64) panel {
		m := (a + b) / 2
		p := panel{a: a, b: b, whole: whole}
		p.left = q.rule.Fixed(counted, a, m)
		p.right = q.rule.Fixed(counted, m, b)
		p.err = math.Abs(p.whole - (p.left + p.right))

		return p
	}

	panels := []panel{split(a, b, q.rule.Fixed(counted, a, b))}

	for {
		value, absErr, worst := 0.0, 0.0, 0
		for i, p := range panels {
			value += p.left + p.right
			absErr += p.err

			if p.err > panels[worst].err {
				worst = i
			}
		}

		res := Result{Value: value, AbsErr: absErr, Intervals: 2 * len(panels), Evals: evals}

		if math.IsNaN(value) || math.IsInf(value, 0) {
			return res, fmt.Errorf("%w: non-finite integrand on [%g, %g]", ErrNoConvergence, a, b)
		}

		if absErr <= math.Max(q.cfg.AbsTol, q.cfg.RelTol*math.Abs(value)) {
			return res, nil
		}

		if res.Intervals >= q.cfg.MaxIntervals {
			return res, fmt.Errorf("%w: error %.3g after %d intervals on [%g, %g]",
				ErrNoConvergence, absErr, res.Intervals, a, b)
		}

		p := panels[worst]
		m := (p.a + p.b) / 2
		panels[worst] = split(p.a, m, p.left)
		panels = append(panels, split(m, p.b, p.right))
	}
}

// Integrate2D computes the iterated integral
//
//	∫_a^b ∫_{lower(x)}^{upper(x)} f(y, x) dy dx
//
// with the inner variable first, as in the usual dblquad convention. Inner
// integrals run at InnerTolScale times the configured tolerances so their
// error does not show up as noise in the outer estimate. The first inner
// failure is reported after the outer integral finishes; an outer failure
// takes precedence.
func (q *Integrator) Integrate2D(
	f func(y, x float64) float64,
	a, b float64,
	lower, upper func(x float64) float64,
) (Result, error) {
	var (
		innerErr   error
		innerEvals int
	)

	inner := &Integrator{rule: q.rule, cfg: Config{
		AbsTol:       q.cfg.AbsTol * InnerTolScale,
		RelTol:       q.cfg.RelTol * InnerTolScale,
		MaxIntervals: q.cfg.MaxIntervals,
	}}

	outer := func(x float64) float64 {
		res, err := inner.Integrate(func(y float64) float64 { return f(y, x) }, lower(x), upper(x))
		innerEvals += res.Evals

		if err != nil && innerErr == nil {
			innerErr = fmt.Errorf("inner integral at x=%g: %w", x, err)
		}

		return res.Value
	}

	res, err := q.Integrate(outer, a, b)
	res.Evals = innerEvals

	if err != nil {
		return res, fmt.Errorf("outer integral: %w", err)
	}

	return res, innerErr
}
