package telegraph

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-readout/fidelity"
	"github.com/cwbudde/algo-readout/internal/testutil"
)

func typicalParams() fidelity.Params {
	return fidelity.Params{
		OutTimeExcited: 1e-4,
		InTimeGround:   1e-3,
		ReadoutTime:    1e-3,
		SNR:            5,
		SampleRate:     1e6,
		FilterCutoff:   1e5,
	}
}

func grid(n int) []float64 {
	return floats.Span(make([]float64, n), 0, 1)
}

func TestSimulateTypical(t *testing.T) {
	for _, m := range []Model{ModelChain, ModelTrace} {
		t.Run(m.String(), func(t *testing.T) {
			cfg := ApplyOptions(typicalParams(), WithShots(300), WithModel(m))

			r, err := Simulate(cfg, grid(21))
			if err != nil {
				t.Fatalf("Simulate: %v", err)
			}

			if r.Shots != 300 || len(r.Vis) != 21 {
				t.Fatalf("shape: shots %d, len %d", r.Shots, len(r.Vis))
			}

			testutil.RequireInRange(t, r.GroundFid, 0, 1)
			testutil.RequireInRange(t, r.ExcitedFid, 0, 1)
			testutil.RequireNonDecreasing(t, r.GroundFid, 0)

			for i := range r.ExcitedFid[1:] {
				if r.ExcitedFid[i+1] > r.ExcitedFid[i] {
					t.Fatalf("excited fidelity rises at %d", i+1)
				}
			}

			// The maximum of hundreds of noise samples always exceeds zero.
			testutil.RequireNearlyEqual(t, "ground at 0", r.GroundFid[0], 0, 0)
			testutil.RequireNearlyEqual(t, "excited at 0", r.ExcitedFid[0], 1, 0)

			_, _, _, vis := r.Best()
			if vis < 0.9 {
				t.Fatalf("best visibility %v, want > 0.9", vis)
			}
		})
	}
}

func TestSimulateTraceSlowFilter(t *testing.T) {
	p := typicalParams()
	p.InTimeGround = 1e-5
	p.FilterCutoff = 1e3

	r, err := Simulate(ApplyOptions(p, WithShots(200), WithModel(ModelTrace)), grid(21))
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	// Pulses much shorter than the filter response are buried in noise.
	if _, _, _, vis := r.Best(); vis > 0.35 {
		t.Fatalf("best visibility %v, want small", vis)
	}
}

// slowParams puts the filter response far below the dwell time, so ER and
// the chain model both see an attenuated pulse.
func slowParams() fidelity.Params {
	return fidelity.Params{
		OutTimeExcited: 1e-3,
		InTimeGround:   2e-3,
		ReadoutTime:    1e-3,
		SNR:            3,
		SampleRate:     1e6,
		FilterCutoff:   1e4,
	}
}

func requireMatchesER(t *testing.T, p fidelity.Params, shots int, tol float64) {
	t.Helper()

	er, err := fidelity.ERFidelity(p, fidelity.WithThresholdNum(11))
	if err != nil {
		t.Fatalf("ERFidelity: %v", err)
	}

	sim, err := Simulate(ApplyOptions(p, WithShots(shots)), er.Thresholds)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	for i, v := range er.Thresholds {
		if d := math.Abs(sim.GroundFid[i] - er.GroundFid[i]); d > tol {
			t.Errorf("threshold %g: ground sim %v, ER %v", v, sim.GroundFid[i], er.GroundFid[i])
		}

		if d := math.Abs(sim.ExcitedFid[i] - er.ExcitedFid[i]); d > tol {
			t.Errorf("threshold %g: excited sim %v, ER %v", v, sim.ExcitedFid[i], er.ExcitedFid[i])
		}
	}
}

func TestSimulateMatchesERSlowFilter(t *testing.T) {
	if testing.Short() {
		t.Skip("slow ER sweep")
	}

	// At threshold 0.8 ER gives ground 0.724 and excited 0.312, so both
	// fidelities sit well inside (0, 1).
	requireMatchesER(t, slowParams(), 4000, 0.04)
}

func TestSimulateMatchesERFastFilter(t *testing.T) {
	requireMatchesER(t, typicalParams(), 4000, 0.04)
}

func TestSimulateDeterministic(t *testing.T) {
	cfg := ApplyOptions(typicalParams(), WithShots(50), WithSeed(7))

	a, err := Simulate(cfg, grid(11))
	if err != nil {
		t.Fatal(err)
	}

	b, err := Simulate(cfg, grid(11))
	if err != nil {
		t.Fatal(err)
	}

	testutil.RequireSliceNearlyEqual(t, a.Vis, b.Vis, 0)
	testutil.RequireSliceNearlyEqual(t, a.GroundFid, b.GroundFid, 0)
}

func TestSimulateSeedMatters(t *testing.T) {
	thr := grid(41)

	a, err := Simulate(ApplyOptions(typicalParams(), WithShots(200), WithSeed(1)), thr)
	if err != nil {
		t.Fatal(err)
	}

	b, err := Simulate(ApplyOptions(typicalParams(), WithShots(200), WithSeed(2)), thr)
	if err != nil {
		t.Fatal(err)
	}

	// Ground fidelity climbs from 0 to 1 between thresholds 0.5 and 0.7,
	// where the counts depend on the draws.
	interior := false
	for _, g := range a.GroundFid {
		interior = interior || (g > 0 && g < 1)
	}

	if !interior {
		t.Fatalf("no ground fidelity strictly inside (0, 1): %v", a.GroundFid)
	}

	if d, _ := testutil.MaxAbsDiff(a.GroundFid, b.GroundFid); d == 0 {
		t.Fatal("different seeds produced identical ground fidelities")
	}
}

func TestSimulateThresholdsCopied(t *testing.T) {
	thr := grid(3)

	r, err := Simulate(ApplyOptions(typicalParams(), WithShots(10)), thr)
	if err != nil {
		t.Fatal(err)
	}

	thr[0] = 42
	if r.Thresholds[0] != 0 {
		t.Fatal("result aliases the caller's threshold slice")
	}
}

func TestSimulateInvalid(t *testing.T) {
	bad := typicalParams()
	bad.SNR = 0

	short := typicalParams()
	short.ReadoutTime = 1e-7

	cases := []struct {
		name string
		cfg  Config
		thr  []float64
	}{
		{"bad params", DefaultConfig(bad), grid(3)},
		{"window below one sample", DefaultConfig(short), grid(3)},
		{"zero shots", Config{Params: typicalParams(), FilterOrder: 8}, grid(3)},
		{"order too high", Config{Params: typicalParams(), Shots: 1, FilterOrder: 11}, grid(3)},
		{"unknown model", Config{Params: typicalParams(), Shots: 1, FilterOrder: 8, Model: 7}, grid(3)},
		{"empty grid", DefaultConfig(typicalParams()), nil},
		{"nan threshold", DefaultConfig(typicalParams()), []float64{0, math.NaN()}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Simulate(tc.cfg, tc.thr); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestSimulateBadParamsKeepCause(t *testing.T) {
	p := typicalParams()
	p.SampleRate = -1

	if _, err := Simulate(DefaultConfig(p), grid(3)); !errors.Is(err, fidelity.ErrInvalidParameter) {
		t.Fatalf("err = %v, want it to wrap fidelity.ErrInvalidParameter", err)
	}
}

func TestOptions(t *testing.T) {
	cfg := ApplyOptions(typicalParams(), WithShots(0), WithFilterOrder(-1), nil)
	if cfg.Shots != DefaultShots || cfg.FilterOrder != DefaultFilterOrder || cfg.Seed != DefaultSeed {
		t.Fatalf("invalid options changed defaults: %+v", cfg)
	}

	if cfg.Model != ModelChain {
		t.Fatalf("default model = %v, want chain", cfg.Model)
	}

	cfg = ApplyOptions(typicalParams(), WithShots(5), WithFilterOrder(4), WithSeed(9), WithModel(ModelTrace))
	if cfg.Shots != 5 || cfg.FilterOrder != 4 || cfg.Seed != 9 || cfg.Model != ModelTrace {
		t.Fatalf("options not applied: %+v", cfg)
	}

	if cfg = ApplyOptions(typicalParams(), WithModel(Model(-1))); cfg.Model != ModelChain {
		t.Fatalf("unknown model accepted: %v", cfg.Model)
	}
}

func TestModelString(t *testing.T) {
	for _, tc := range []struct {
		m    Model
		want string
	}{{ModelChain, "chain"}, {ModelTrace, "trace"}, {Model(5), "Model(5)"}} {
		if got := tc.m.String(); got != tc.want {
			t.Fatalf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestChainSourceUncoveredRegionIsDetected(t *testing.T) {
	// A readout window a few effective samples long leaves most tunnel-out
	// times past nr-1, outside the integrated region.
	p := typicalParams()
	p.FilterCutoff = 2e3
	p.InTimeGround = 1e-5

	src, err := newChainSource(ApplyOptions(p))
	if err != nil {
		t.Fatal(err)
	}

	inf := 0
	for range 200 {
		peak, err := src.excitedPeak()
		if err != nil {
			t.Fatal(err)
		}

		if math.IsInf(peak, 1) {
			inf++
		}
	}

	if inf == 0 || inf == 200 {
		t.Fatalf("%d of 200 shots fell outside the integrated region", inf)
	}
}

func TestCountAtOrBelow(t *testing.T) {
	sorted := []float64{0.1, 0.2, 0.2, 0.5}
	for _, tc := range []struct {
		v    float64
		want int
	}{{0, 0}, {0.1, 1}, {0.2, 3}, {0.3, 3}, {1, 4}} {
		if got := countAtOrBelow(sorted, tc.v); got != tc.want {
			t.Fatalf("countAtOrBelow(%v) = %d, want %d", tc.v, got, tc.want)
		}
	}
}
