package telegraph

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-readout/dsp/filter/analog"
)

// settleCycles is the zero padding after a trace in cutoff periods. It keeps
// the filter tail from wrapping onto the start of the circular convolution.
const settleCycles = 8

// traceFilter applies an analog response to fixed-length traces by
// multiplication on an FFT grid.
type traceFilter struct {
	samples int
	plan    *algofft.Plan[complex128]
	resp    []complex128
	buf     []complex128
	// noiseGain is the RMS gain of the grid response for white input.
	noiseGain float64
}

func newTraceFilter(tf analog.TransferFunction, samples int, sampleRate, cutoff float64) (*traceFilter, error) {
	settle := settleCycles * int(math.Ceil(sampleRate/cutoff))
	size := nextPowerOf2(samples + settle)

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("telegraph: failed to create FFT plan: %w", err)
	}

	f := &traceFilter{
		samples: samples,
		plan:    plan,
		resp:    make([]complex128, size),
		buf:     make([]complex128, size),
	}

	// Bins above size/2 are negative frequencies.
	df := sampleRate / float64(size)
	power := 0.0

	for k := range f.resp {
		bin := k
		if k > size/2 {
			bin = k - size
		}

		f.resp[k] = tf.Response(2 * math.Pi * df * float64(bin))
		power += real(f.resp[k])*real(f.resp[k]) + imag(f.resp[k])*imag(f.resp[k])
	}

	f.noiseGain = math.Sqrt(power / float64(size))

	return f, nil
}

// Apply filters src into dst. Both must hold f.samples values; they may alias.
// A non-nil noise adds white samples over the whole FFT frame, scaled so the
// filtered noise has the standard deviation of the draws. The circular frame
// keeps that noise stationary across the trace.
func (f *traceFilter) Apply(dst, src []float64, noise func() float64) error {
	if len(src) != f.samples || len(dst) != f.samples {
		return fmt.Errorf("telegraph: trace length %d/%d, want %d", len(src), len(dst), f.samples)
	}

	clear(f.buf)

	for i, v := range src {
		f.buf[i] = complex(v, 0)
	}

	if noise != nil {
		scale := 1 / f.noiseGain
		for i := range f.buf {
			f.buf[i] += complex(scale*noise(), 0)
		}
	}

	if err := f.plan.Forward(f.buf, f.buf); err != nil {
		return fmt.Errorf("telegraph: forward FFT failed: %w", err)
	}

	for i := range f.buf {
		f.buf[i] *= f.resp[i]
	}

	if err := f.plan.Inverse(f.buf, f.buf); err != nil {
		return fmt.Errorf("telegraph: inverse FFT failed: %w", err)
	}

	for i := range dst {
		dst[i] = real(f.buf[i])
	}

	return nil
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
