package testutil

// Pulse returns length samples at level 0 with samples [start, end) set to
// level. Bounds are clamped to the slice.
func Pulse(length, start, end int, level float64) []float64 {
	out := make([]float64, length)
	start = max(start, 0)
	end = min(end, length)
	for i := start; i < end; i++ {
		out[i] = level
	}
	return out
}

// Step returns length samples that switch from 0 to level at pos.
func Step(length, pos int, level float64) []float64 {
	return Pulse(length, pos, length, level)
}
