package spectral

import (
	"fmt"
	"math"
)

// biquad holds second-order IIR filter coefficients with a0 normalized to 1.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// notchFilter designs a band-reject biquad centered at freq with the given
// quality factor, matching the standard -3 dB notch design used for mains
// interference suppression.
func notchFilter(freq, q, sampleRate float64) (biquad, error) {
	nyquist := sampleRate / 2
	if freq <= 0 || freq >= nyquist {
		return biquad{}, fmt.Errorf("notch frequency %.1f Hz outside (0, %.1f)", freq, nyquist)
	}
	if q <= 0 {
		return biquad{}, fmt.Errorf("quality factor must be positive, got %.2f", q)
	}

	w0 := math.Pi * freq / nyquist
	bw := w0 / q
	beta := math.Tan(bw / 2)
	gain := 1 / (1 + beta)

	return biquad{
		b0: gain,
		b1: -2 * gain * math.Cos(w0),
		b2: gain,
		a1: -2 * gain * math.Cos(w0),
		a2: 2*gain - 1,
	}, nil
}

// apply runs the filter over x in direct form II transposed, starting from
// the given state. It returns the output and the final state.
func (f biquad) apply(x []float64, z0, z1 float64) ([]float64, float64, float64) {
	y := make([]float64, len(x))
	for n, xn := range x {
		yn := f.b0*xn + z0
		z0 = f.b1*xn + z1 - f.a1*yn
		z1 = f.b2*xn - f.a2*yn
		y[n] = yn
	}
	return y, z0, z1
}

// steadyState returns the filter state that makes the step response start at
// its steady-state value, so transients at the window edges are minimized.
func (f biquad) steadyState() (float64, float64) {
	// Solve (I - A^T) z = B for the direct form II transposed state matrix.
	b0 := f.b1 - f.b0*f.a1
	b1 := f.b2 - f.b0*f.a2
	den := 1 + f.a1 + f.a2
	if den == 0 {
		return 0, 0
	}
	z0 := (b0 + b1) / den
	return z0, b1 - f.a2*z0
}

// filtfilt applies the filter forward and backward so the result has no
// group delay. The input is extended at both ends with an odd reflection to
// suppress startup transients.
func (f biquad) filtfilt(x []float64) ([]float64, error) {
	const padlen = 9 // 3 * (filter order + 1)
	if len(x) <= padlen {
		return nil, fmt.Errorf("input length %d must exceed padding %d", len(x), padlen)
	}

	ext := make([]float64, 0, len(x)+2*padlen)
	for i := padlen; i >= 1; i-- {
		ext = append(ext, 2*x[0]-x[i])
	}
	ext = append(ext, x...)
	for i := len(x) - 2; i >= len(x)-1-padlen; i-- {
		ext = append(ext, 2*x[len(x)-1]-x[i])
	}

	zi0, zi1 := f.steadyState()

	fwd, _, _ := f.apply(ext, zi0*ext[0], zi1*ext[0])
	reverse(fwd)
	bwd, _, _ := f.apply(fwd, zi0*fwd[0], zi1*fwd[0])
	reverse(bwd)

	return bwd[padlen : padlen+len(x)], nil
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
