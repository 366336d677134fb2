package fidelity

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-readout/internal/testutil"
)

func TestNewChain(t *testing.T) {
	c, err := NewChain(typical(), filterOrder)
	if err != nil {
		t.Fatal(err)
	}

	// fr = 0.2, so the bandwidth factor is 2*0.2/1.2.
	testutil.RequireNearlyEqual(t, "bandwidth", c.BandwidthFactor, 1.0/3, 1e-15)
	testutil.RequireNearlyEqual(t, "effective", c.EffectiveSamples, 1000.0/3, 1e-9)
	testutil.RequireNearlyEqual(t, "in", c.InSamples, 1000, 1e-9)
	testutil.RequireNearlyEqual(t, "out", c.OutSamples, 100, 1e-9)
	testutil.RequireNearlyEqual(t, "sigma", c.Sigma, 0.2, 1e-15)
}

func TestNewChainFullBandwidth(t *testing.T) {
	p := typical()
	p.FilterCutoff = p.SampleRate

	c, err := NewChain(p, filterOrder)
	if err != nil {
		t.Fatal(err)
	}

	if c.BandwidthFactor != 1 {
		t.Fatalf("BandwidthFactor = %v, want 1 for a filter above the sample rate", c.BandwidthFactor)
	}
}

func TestNewChainInvalid(t *testing.T) {
	short := typical()
	short.ReadoutTime = 5e-6

	if _, err := NewChain(short, filterOrder); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("short window: err = %v, want ErrInvalidParameter", err)
	}

	if _, err := NewChain(typical(), 0); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("order 0: err = %v, want ErrInvalidParameter", err)
	}

	bad := typical()
	bad.SNR = math.NaN()

	if _, err := NewChain(bad, filterOrder); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("nan snr: err = %v, want ErrInvalidParameter", err)
	}
}

func TestChainPulseLevel(t *testing.T) {
	c, err := NewChain(typical(), filterOrder)
	if err != nil {
		t.Fatal(err)
	}

	long := c.PulseLevel(c.EffectiveSamples)
	short := c.PulseLevel(1)

	if !(short < long) || long > 1 || short < 0 {
		t.Fatalf("PulseLevel(1) = %v, PulseLevel(nr) = %v", short, long)
	}

	testutil.RequireNearlyEqual(t, "long pulse", c.PulseLevel(1e9), 1, 1e-9)
}

func TestChainPulseLength(t *testing.T) {
	c, err := NewChain(typical(), filterOrder)
	if err != nil {
		t.Fatal(err)
	}

	nr := c.EffectiveSamples

	cases := []struct {
		name   string
		s, n   float64
		want   float64
		inside bool
	}{
		{"inside", 10, 20, 20, true},
		{"straddles end", nr - 5, 20, 5, true},
		{"before first sample", 0.5, 20, 0, false},
		{"in last sample", nr - 0.5, 20, 0, false},
		{"shorter than a sample", 10, 0.5, 0, false},
		{"beyond dwell span", 10, dwellSpan*c.InSamples + 1, 0, false},
	}

	for _, tc := range cases {
		got, ok := c.PulseLength(tc.s, tc.n)
		if ok != tc.inside || got != tc.want {
			t.Fatalf("%s: PulseLength(%v, %v) = %v, %v; want %v, %v", tc.name, tc.s, tc.n, got, ok, tc.want, tc.inside)
		}
	}
}

func TestChainAvgTransitions(t *testing.T) {
	c, err := NewChain(typical(), filterOrder)
	if err != nil {
		t.Fatal(err)
	}

	navg, nudged := c.AvgTransitions()
	if nudged {
		t.Fatal("distinct rates were nudged")
	}

	ri := c.BandwidthFactor / c.InSamples
	ro := c.BandwidthFactor / c.OutSamples
	want := 1 - ((1-math.Exp(ro/2-ri/2))*ro)/((1-math.Exp(ro/2))*(ro-ri))
	testutil.RequireNearlyEqual(t, "navg", navg, want, 1e-12)

	p := typical()
	p.InTimeGround = p.OutTimeExcited

	equal, err := NewChain(p, filterOrder)
	if err != nil {
		t.Fatal(err)
	}

	if navg, nudged := equal.AvgTransitions(); !nudged || math.IsNaN(navg) || math.IsInf(navg, 0) {
		t.Fatalf("equal rates: navg = %v, nudged = %v", navg, nudged)
	}
}
