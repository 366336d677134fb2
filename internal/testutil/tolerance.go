// Package testutil holds assertions shared by the numeric tests.
package testutil

import (
	"fmt"
	"math"
	"testing"
)

// RequireNearlyEqual fails t if |got-want| exceeds eps.
func RequireNearlyEqual(t *testing.T, name string, got, want, eps float64) {
	t.Helper()
	if d := math.Abs(got - want); !(d <= eps) {
		t.Fatalf("%s: got %v, want %v (diff %v > eps %v)", name, got, want, d, eps)
	}
}

// RequireSliceNearlyEqual fails t if got and want differ in length or if
// any element pair exceeds eps (absolute tolerance).
func RequireSliceNearlyEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		if d := math.Abs(got[i] - want[i]); !(d <= eps) {
			t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], d, eps)
		}
	}
}

// RequireFinite fails t if any element is NaN or Inf.
func RequireFinite(t *testing.T, data []float64) {
	t.Helper()
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}

// RequireInRange fails t if any element lies outside [lo, hi].
func RequireInRange(t *testing.T, data []float64, lo, hi float64) {
	t.Helper()
	for i, v := range data {
		if !(v >= lo && v <= hi) {
			t.Fatalf("index %d: %v outside [%v, %v]", i, v, lo, hi)
		}
	}
}

// RequireNonDecreasing fails t if data ever drops by more than eps.
func RequireNonDecreasing(t *testing.T, data []float64, eps float64) {
	t.Helper()
	if i, err := firstDecrease(data, eps); err != nil {
		t.Fatalf("index %d: %v", i, err)
	}
}

func firstDecrease(data []float64, eps float64) (int, error) {
	for i := 1; i < len(data); i++ {
		if data[i] < data[i-1]-eps {
			return i, fmt.Errorf("%v < previous %v (eps %v)", data[i], data[i-1], eps)
		}
	}
	return -1, nil
}

// MaxAbsDiff returns the maximum absolute difference between two slices.
// Returns an error if the slices differ in length.
func MaxAbsDiff(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("length mismatch: %d vs %d", len(a), len(b))
	}
	maxDiff := 0.0
	for i := range a {
		maxDiff = math.Max(maxDiff, math.Abs(a[i]-b[i]))
	}
	return maxDiff, nil
}
