package spectrum

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// MagnitudeFromParts computes |X[k]| = sqrt(re[k]^2 + im[k]^2) into dst.
//
// This is the zero-allocation path for callers that keep real and
// imaginary parts in separate slices; it dispatches to SIMD
// implementations where available. All three slices must have the same
// length.
func MagnitudeFromParts(dst, re, im []float64) {
	vecmath.Magnitude(dst, re, im)
}

// PowerFromParts computes |X[k]|^2 = re[k]^2 + im[k]^2 into dst.
func PowerFromParts(dst, re, im []float64) {
	vecmath.Power(dst, re, im)
}

// PhaseFromParts computes atan2(im[k], re[k]) into dst.
func PhaseFromParts(dst, re, im []float64) {
	for i := range dst {
		dst[i] = math.Atan2(im[i], re[i])
	}
}

// SplitComplex unpacks a complex spectrum into separate re/im slices.
// All slices must have the same length.
func SplitComplex(re, im []float64, in []complex128) {
	for i, c := range in {
		re[i] = real(c)
		im[i] = imag(c)
	}
}
