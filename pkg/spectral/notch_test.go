package spectral

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(freq, sampleRate float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
	}
	return out
}

func energy(x []float64) float64 {
	var e float64
	for _, v := range x {
		e += v * v
	}
	return e
}

func TestNotchFilterDesignValidation(t *testing.T) {
	_, err := notchFilter(50, 30, 512)
	assert.NoError(t, err)

	_, err = notchFilter(0, 30, 512)
	assert.Error(t, err, "frequency at DC")

	_, err = notchFilter(300, 30, 512)
	assert.Error(t, err, "frequency above Nyquist")

	_, err = notchFilter(50, 0, 512)
	assert.Error(t, err, "non-positive Q")
}

func TestFiltfiltRemovesNotchFrequency(t *testing.T) {
	f, err := notchFilter(50, 30, 512)
	require.NoError(t, err)

	in := sine(50, 512, 512)
	out, err := f.filtfilt(in)
	require.NoError(t, err)
	require.Len(t, out, len(in))

	ratio := energy(out) / energy(in)
	assert.Less(t, ratio, 0.05, "50 Hz content must be suppressed, got ratio %g", ratio)
}

func TestFiltfiltPassesOutOfBandFrequency(t *testing.T) {
	f, err := notchFilter(50, 30, 512)
	require.NoError(t, err)

	in := sine(10, 512, 512)
	out, err := f.filtfilt(in)
	require.NoError(t, err)

	ratio := energy(out) / energy(in)
	assert.InDelta(t, 1.0, ratio, 0.05, "10 Hz content must pass nearly unchanged")
}

func TestFiltfiltIsZeroPhase(t *testing.T) {
	f, err := notchFilter(50, 30, 512)
	require.NoError(t, err)

	in := sine(10, 512, 512)
	out, err := f.filtfilt(in)
	require.NoError(t, err)

	// With no group delay the filtered sine stays aligned with the input:
	// away from the window edges each output sample tracks its input sample.
	for i := 100; i < 400; i++ {
		assert.InDelta(t, in[i], out[i], 0.02, "sample %d shifted", i)
	}
}

func TestSteadyStateIsFixedPoint(t *testing.T) {
	f, err := notchFilter(50, 30, 512)
	require.NoError(t, err)

	z0, z1 := f.steadyState()

	// Running the filter from this state over a unit step must hold the
	// state (and the output) at its steady-state value from sample one.
	yss := (f.b0 + f.b1 + f.b2) / (1 + f.a1 + f.a2)
	ones := []float64{1, 1, 1, 1, 1}
	y, nz0, nz1 := f.apply(ones, z0, z1)
	for i, v := range y {
		assert.InDelta(t, yss, v, 1e-12, "output sample %d", i)
	}
	assert.InDelta(t, z0, nz0, 1e-12)
	assert.InDelta(t, z1, nz1, 1e-12)
}

func TestFiltfiltConstantInputUnchanged(t *testing.T) {
	f, err := notchFilter(50, 30, 512)
	require.NoError(t, err)

	in := make([]float64, 512)
	for i := range in {
		in[i] = 100
	}
	out, err := f.filtfilt(in)
	require.NoError(t, err)

	// DC is in the passband and the startup state is exact, so a constant
	// window must come back without edge transients.
	for i, v := range out {
		assert.InDelta(t, 100.0, v, 1e-6, "sample %d", i)
	}
}

func TestFiltfiltRejectsTooShortInput(t *testing.T) {
	f, err := notchFilter(50, 30, 512)
	require.NoError(t, err)

	_, err = f.filtfilt(make([]float64, 9))
	assert.Error(t, err)
}
