package fidelity

import (
	"log"
	"testing"
)

func TestDefaultERConfig(t *testing.T) {
	cfg := DefaultERConfig()

	if cfg.ThresholdNum != DefaultThresholdNum {
		t.Fatalf("ThresholdNum = %d, want %d", cfg.ThresholdNum, DefaultThresholdNum)
	}

	if cfg.AbsTol != 1.49e-8 || cfg.RelTol != 1.49e-8 {
		t.Fatalf("tolerances = %g, %g", cfg.AbsTol, cfg.RelTol)
	}

	if cfg.MaxIntervals != 200 || cfg.Nodes != 15 {
		t.Fatalf("MaxIntervals = %d, Nodes = %d, want 200, 15", cfg.MaxIntervals, cfg.Nodes)
	}

	if cfg.Strict || cfg.Logger != nil {
		t.Fatal("default config must be lenient and silent")
	}
}

func TestApplyEROptions(t *testing.T) {
	l := log.Default()

	cfg := ApplyEROptions(
		WithThresholdNum(21),
		WithTolerance(1e-10, 1e-9),
		WithMaxIntervals(400),
		WithQuadratureNodes(21),
		WithCacheLimit(1024),
		WithStrictIntegration(),
		WithLogger(l),
		nil,
	)

	if cfg.ThresholdNum != 21 || cfg.AbsTol != 1e-10 || cfg.RelTol != 1e-9 {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	if cfg.MaxIntervals != 400 || cfg.Nodes != 21 || cfg.MaxCacheEntries != 1024 {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	if !cfg.Strict || cfg.Logger != l {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestApplyEROptionsIgnoresInvalid(t *testing.T) {
	def := DefaultERConfig()

	cfg := ApplyEROptions(
		WithTolerance(0, -1),
		WithMaxIntervals(0),
		WithQuadratureNodes(-3),
	)

	if cfg.AbsTol != def.AbsTol || cfg.RelTol != def.RelTol {
		t.Fatalf("tolerances changed: %g, %g", cfg.AbsTol, cfg.RelTol)
	}

	if cfg.MaxIntervals != def.MaxIntervals || cfg.Nodes != def.Nodes {
		t.Fatalf("budget changed: %+v", cfg)
	}
}

func TestWithCacheLimitUnbounded(t *testing.T) {
	if cfg := ApplyEROptions(WithCacheLimit(-5)); cfg.MaxCacheEntries != 0 {
		t.Fatalf("MaxCacheEntries = %d, want 0", cfg.MaxCacheEntries)
	}
}

func TestWithThresholdNumKeepsRawValue(t *testing.T) {
	if cfg := ApplyEROptions(WithThresholdNum(1)); cfg.ThresholdNum != 1 {
		t.Fatalf("ThresholdNum = %d, want 1", cfg.ThresholdNum)
	}
}
