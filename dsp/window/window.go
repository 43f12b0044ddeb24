// Package window generates the analysis/synthesis windows used for STFT
// framing and provides helpers for applying them and for verifying
// overlap-add gain.
package window

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeHamming
	TypeBlackman
	TypeBlackmanHarris
)

var (
	hannCoeffs           = []float64{0.5, -0.5}
	hammingCoeffs        = []float64{0.54, -0.46}
	blackmanCoeffs       = []float64{0.42, -0.5, 0.08}
	blackmanHarrisCoeffs = []float64{0.35875, -0.48829, 0.14128, -0.01168}
)

// Option configures window generation.
type Option func(*config)

type config struct {
	periodic bool
}

// WithPeriodic configures the periodic form (FFT framing) instead of the
// symmetric form.
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

// Generate returns window coefficients of the given length.
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}

	var cfg config

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	out := make([]float64, length)
	for i := range out {
		x := samplePosition(i, length, cfg.periodic)
		out[i] = evalWindow(t, x)
	}

	return out
}

// Apply multiplies buf in-place by the selected window.
func Apply(t Type, buf []float64, opts ...Option) {
	if len(buf) == 0 {
		return
	}

	coeffs := Generate(t, len(buf), opts...)
	vecmath.MulBlockInPlace(buf, coeffs)
}

// ApplyCoefficients multiplies samples with coefficients and returns a new slice.
func ApplyCoefficients(samples, coeffs []float64) ([]float64, error) {
	if len(samples) != len(coeffs) {
		return nil, errMismatchedLength
	}

	out := make([]float64, len(samples))
	vecmath.MulBlock(out, samples, coeffs)

	return out, nil
}

// ApplyCoefficientsInPlace multiplies samples with coefficients in place.
func ApplyCoefficientsInPlace(samples, coeffs []float64) error {
	if len(samples) != len(coeffs) {
		return errMismatchedLength
	}

	vecmath.MulBlockInPlace(samples, coeffs)

	return nil
}

// Hann returns Hann window coefficients.
func Hann(size int, opts ...Option) ([]float64, error) {
	return Generate(TypeHann, size, opts...), validateLength(size)
}

// Hamming returns Hamming window coefficients.
func Hamming(size int, opts ...Option) ([]float64, error) {
	return Generate(TypeHamming, size, opts...), validateLength(size)
}

// Blackman returns Blackman window coefficients.
func Blackman(size int, opts ...Option) ([]float64, error) {
	return Generate(TypeBlackman, size, opts...), validateLength(size)
}

// OverlapGain returns the steady-state sum of squared window values across
// frames shifted by hop samples. Dividing overlap-added grains that were
// windowed twice (analysis and synthesis) by this value restores unity
// gain when the hop divides the window length evenly.
func OverlapGain(coeffs []float64, hop int) (float64, error) {
	if len(coeffs) == 0 {
		return 0, errEmptyCoeffs
	}

	if hop <= 0 || hop > len(coeffs) {
		return 0, errInvalidHop
	}

	// Steady-state value at an arbitrary reference sample; exact when
	// hop divides len(coeffs), a close average otherwise.
	sum := 0.0
	for off := 0; off < len(coeffs); off += hop {
		w := coeffs[off]
		sum += w * w
	}

	if sum == 0 {
		return 0, errZeroOverlapGain
	}

	return sum, nil
}

// EquivalentNoiseBandwidth returns the ENBW in bins for a window.
func EquivalentNoiseBandwidth(coeffs []float64) (float64, error) {
	if len(coeffs) == 0 {
		return 0, errEmptyCoeffs
	}

	sum := 0.0
	sumSquares := 0.0

	for _, c := range coeffs {
		sum += c
		sumSquares += c * c
	}

	if sum == 0 {
		return 0, errZeroCoherentGain
	}

	return float64(len(coeffs)) * sumSquares / (sum * sum), nil
}

func evalWindow(t Type, x float64) float64 {
	switch t {
	case TypeRectangular:
		return 1
	case TypeHann:
		return cosineFromCoeffs(x, hannCoeffs)
	case TypeHamming:
		return cosineFromCoeffs(x, hammingCoeffs)
	case TypeBlackman:
		return cosineFromCoeffs(x, blackmanCoeffs)
	case TypeBlackmanHarris:
		return cosineFromCoeffs(x, blackmanHarrisCoeffs)
	default:
		return 1
	}
}

func cosineFromCoeffs(x float64, coeffs []float64) float64 {
	phase := 2 * math.Pi * x

	sum := 0.0
	for k, c := range coeffs {
		sum += c * math.Cos(float64(k)*phase)
	}

	return sum
}

func samplePosition(n, size int, periodic bool) float64 {
	if size <= 1 {
		return 0
	}

	den := float64(size - 1)
	if periodic {
		den = float64(size)
	}

	return float64(n) / den
}
