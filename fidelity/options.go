package fidelity

import (
	"log"

	"github.com/cwbudde/algo-readout/internal/quad"
)

// DefaultThresholdNum is the default size of the threshold grid.
const DefaultThresholdNum = 1001

// ERConfig controls the electrical fidelity sweep.
type ERConfig struct {
	// ThresholdNum is the number of evenly spaced thresholds on [0, 1].
	ThresholdNum int
	// AbsTol and RelTol are the quadrature tolerances of every 1-D pass.
	AbsTol float64
	RelTol float64
	// MaxIntervals bounds adaptive subdivision per 1-D integral.
	MaxIntervals int
	// Nodes is the Gauss-Legendre order per panel.
	Nodes int
	// MaxCacheEntries bounds each memo table; 0 means unbounded.
	MaxCacheEntries int
	// Strict makes a non-converging integral fail the call instead of
	// being recorded as a Warning.
	Strict bool
	// Logger receives one line per Warning when non-nil.
	Logger *log.Logger
}

// EROption mutates an ERConfig.
type EROption func(*ERConfig)

// DefaultERConfig returns the default sweep configuration.
func DefaultERConfig() ERConfig {
	q := quad.DefaultConfig()

	return ERConfig{
		ThresholdNum:    DefaultThresholdNum,
		AbsTol:          q.AbsTol,
		RelTol:          q.RelTol,
		MaxIntervals:    200,
		Nodes:           15,
		MaxCacheEntries: 1 << 18,
	}
}

// WithThresholdNum sets the threshold grid size. Unlike the other options
// the value is kept as given and validated by ERFidelity, so n < 2 is
// reported as ErrInvalidParameter rather than ignored.
func WithThresholdNum(n int) EROption {
	return func(cfg *ERConfig) {
		cfg.ThresholdNum = n
	}
}

// WithTolerance sets the absolute and relative quadrature tolerances.
func WithTolerance(abs, rel float64) EROption {
	return func(cfg *ERConfig) {
		if abs > 0 {
			cfg.AbsTol = abs
		}

		if rel > 0 {
			cfg.RelTol = rel
		}
	}
}

// WithMaxIntervals sets the adaptive subdivision budget.
func WithMaxIntervals(n int) EROption {
	return func(cfg *ERConfig) {
		if n > 0 {
			cfg.MaxIntervals = n
		}
	}
}

// WithQuadratureNodes sets the Gauss-Legendre order.
func WithQuadratureNodes(n int) EROption {
	return func(cfg *ERConfig) {
		if n > 0 {
			cfg.Nodes = n
		}
	}
}

// WithCacheLimit bounds each memo table. n <= 0 removes the bound.
func WithCacheLimit(n int) EROption {
	return func(cfg *ERConfig) {
		cfg.MaxCacheEntries = max(n, 0)
	}
}

// WithStrictIntegration makes integration failures fatal.
func WithStrictIntegration() EROption {
	return func(cfg *ERConfig) {
		cfg.Strict = true
	}
}

// WithLogger logs warnings to l.
func WithLogger(l *log.Logger) EROption {
	return func(cfg *ERConfig) {
		cfg.Logger = l
	}
}

// ApplyEROptions applies zero or more options to the default config.
func ApplyEROptions(opts ...EROption) ERConfig {
	cfg := DefaultERConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}
