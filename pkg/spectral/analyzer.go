// Package spectral derives a power-spectral-density estimate from a window
// of raw waveform samples. It is a secondary, best-effort diagnostic signal
// next to the device's own band powers; consumers must tolerate its absence.
package spectral

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// Config controls the analysis pipeline.
type Config struct {
	SampleRate float64 `mapstructure:"sample_rate"`
	NotchFreq  float64 `mapstructure:"notch_freq"`
	NotchQ     float64 `mapstructure:"notch_q"`
	MinSamples int     `mapstructure:"min_samples"`
	TargetLow  int     `mapstructure:"target_low"`
	TargetHigh int     `mapstructure:"target_high"`
}

// DefaultConfig matches the sensor's 512 Hz raw stream with 50 Hz mains
// suppression and PSD targets at 6-14 Hz.
func DefaultConfig() Config {
	return Config{
		SampleRate: 512,
		NotchFreq:  50,
		NotchQ:     30,
		MinSamples: 512,
		TargetLow:  6,
		TargetHigh: 14,
	}
}

// PowerSpectrum is the analysis result: the full one-sided spectrum plus the
// power extracted at each integer target frequency.
type PowerSpectrum struct {
	Frequencies []float64
	Power       []float64
	Targets     map[int]float64
}

// Analyzer computes power spectra from raw sample windows.
type Analyzer struct {
	cfg    Config
	notch  biquad
	logger *zap.Logger
}

// NewAnalyzer builds an Analyzer; the notch filter design is validated once
// up front so Analyze itself cannot fail on configuration.
func NewAnalyzer(cfg Config, logger *zap.Logger) (*Analyzer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	notch, err := notchFilter(cfg.NotchFreq, cfg.NotchQ, cfg.SampleRate)
	if err != nil {
		return nil, err
	}
	return &Analyzer{cfg: cfg, notch: notch, logger: logger}, nil
}

// Analyze runs the pipeline over one window of samples:
// detrend, zero-phase notch, Hamming window, FFT, one-sided power spectrum,
// nearest-bin extraction at the integer target frequencies.
//
// Windows shorter than MinSamples are not analyzable; ok is false and
// callers should simply omit PSD fields for that record.
func (a *Analyzer) Analyze(samples []float64) (ps *PowerSpectrum, ok bool) {
	n := len(samples)
	if n < a.cfg.MinSamples {
		return nil, false
	}

	// Detrend: remove the DC offset.
	mean := stat.Mean(samples, nil)
	detrended := make([]float64, n)
	for i, s := range samples {
		detrended[i] = s - mean
	}

	// Zero-phase notch so line-noise removal introduces no group delay.
	notched, err := a.notch.filtfilt(detrended)
	if err != nil {
		a.logger.Warn("notch filtering failed", zap.Error(err), zap.Int("samples", n))
		return nil, false
	}

	// Hamming window to reduce spectral leakage.
	for i := range notched {
		notched[i] *= 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}

	spectrum := fft.FFTReal(notched)

	// One-sided spectrum: power at bin k is |X[k]|^2 / N^2.
	half := n / 2
	freqs := make([]float64, half)
	power := make([]float64, half)
	for k := 0; k < half; k++ {
		re := real(spectrum[k])
		im := imag(spectrum[k])
		freqs[k] = float64(k) * a.cfg.SampleRate / float64(n)
		power[k] = (re*re + im*im) / float64(n*n)
	}

	targets := make(map[int]float64, a.cfg.TargetHigh-a.cfg.TargetLow+1)
	for f := a.cfg.TargetLow; f <= a.cfg.TargetHigh; f++ {
		targets[f] = power[nearestBin(freqs, float64(f))]
	}

	return &PowerSpectrum{Frequencies: freqs, Power: power, Targets: targets}, true
}

// TargetFrequencies lists the integer PSD extraction targets in order.
func (a *Analyzer) TargetFrequencies() []int {
	out := make([]int, 0, a.cfg.TargetHigh-a.cfg.TargetLow+1)
	for f := a.cfg.TargetLow; f <= a.cfg.TargetHigh; f++ {
		out = append(out, f)
	}
	return out
}

// nearestBin returns the index of the frequency numerically closest to
// target. Frequencies are monotonically increasing.
func nearestBin(freqs []float64, target float64) int {
	best := 0
	bestDist := math.Abs(freqs[0] - target)
	for i := 1; i < len(freqs); i++ {
		d := math.Abs(freqs[i] - target)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}
