package telegraph

import (
	"fmt"

	"github.com/cwbudde/algo-readout/fidelity"
)

const (
	// DefaultShots is the number of shots simulated per spin state.
	DefaultShots = 2000
	// DefaultSeed seeds the PCG source.
	DefaultSeed = 42
	// DefaultFilterOrder matches the readout chain model of fidelity.ERFidelity.
	DefaultFilterOrder = 8
)

// Model selects how shots are generated.
type Model int

const (
	// ModelChain draws shots from the effective-sample chain that
	// fidelity.ERFidelity integrates, so the two agree within Monte Carlo
	// error.
	ModelChain Model = iota
	// ModelTrace samples the raw telegraph trace at the sample rate and
	// passes signal and noise through the analog filter.
	ModelTrace
)

// String returns the model name.
func (m Model) String() string {
	switch m {
	case ModelChain:
		return "chain"
	case ModelTrace:
		return "trace"
	default:
		return fmt.Sprintf("Model(%d)", int(m))
	}
}

// Config defines a simulation run.
type Config struct {
	fidelity.Params

	// Shots is the number of shots per spin state.
	Shots int
	// Seed makes runs reproducible.
	Seed uint64
	// FilterOrder is the Bessel order of the simulated readout chain.
	FilterOrder int
	// Model selects the shot generator.
	Model Model
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns a config for p with default run settings.
func DefaultConfig(p fidelity.Params) Config {
	return Config{
		Params:      p,
		Shots:       DefaultShots,
		Seed:        DefaultSeed,
		FilterOrder: DefaultFilterOrder,
	}
}

// WithShots sets the number of shots per state.
func WithShots(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.Shots = n
		}
	}
}

// WithSeed sets the random seed.
func WithSeed(seed uint64) Option {
	return func(cfg *Config) {
		cfg.Seed = seed
	}
}

// WithFilterOrder sets the Bessel order.
func WithFilterOrder(order int) Option {
	return func(cfg *Config) {
		if order > 0 {
			cfg.FilterOrder = order
		}
	}
}

// WithModel selects the shot generator.
func WithModel(m Model) Option {
	return func(cfg *Config) {
		if m == ModelChain || m == ModelTrace {
			cfg.Model = m
		}
	}
}

// ApplyOptions applies zero or more options to DefaultConfig(p).
func ApplyOptions(p fidelity.Params, opts ...Option) Config {
	cfg := DefaultConfig(p)

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}
