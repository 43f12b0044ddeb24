package window

import (
	"math"
	"testing"
)

func TestGenerateLengths(t *testing.T) {
	if got := Generate(TypeHann, 0); got != nil {
		t.Fatalf("Generate(0) = %v, want nil", got)
	}
	if got := Generate(TypeHann, -3); got != nil {
		t.Fatalf("Generate(-3) = %v, want nil", got)
	}
	if got := Generate(TypeHann, 1); len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got := Generate(TypeHann, 64); len(got) != 64 {
		t.Fatalf("len = %d, want 64", len(got))
	}
}

func TestSymmetricHann(t *testing.T) {
	w := Generate(TypeHann, 65)

	if math.Abs(w[0]) > 1e-15 || math.Abs(w[64]) > 1e-15 {
		t.Fatalf("endpoints = %v, %v, want 0", w[0], w[64])
	}
	if math.Abs(w[32]-1) > 1e-15 {
		t.Fatalf("center = %v, want 1", w[32])
	}

	// Symmetric form mirrors around the center.
	for i := 0; i < 32; i++ {
		if math.Abs(w[i]-w[64-i]) > 1e-15 {
			t.Fatalf("asymmetry at %d: %v vs %v", i, w[i], w[64-i])
		}
	}
}

func TestPeriodicHann(t *testing.T) {
	const n = 64
	w := Generate(TypeHann, n, WithPeriodic())

	if math.Abs(w[0]) > 1e-15 {
		t.Fatalf("w[0] = %v, want 0", w[0])
	}
	if math.Abs(w[n/2]-1) > 1e-15 {
		t.Fatalf("w[N/2] = %v, want 1", w[n/2])
	}

	// Periodic form: w[n] would close the cycle back at zero, so the
	// last sample is strictly above zero.
	if w[n-1] <= 0 {
		t.Fatalf("w[N-1] = %v, want > 0", w[n-1])
	}

	// Constant-overlap-add of the plain window at 2x overlap sums to 1.
	for i := 0; i < n/2; i++ {
		if s := w[i] + w[i+n/2]; math.Abs(s-1) > 1e-12 {
			t.Fatalf("COLA sum at %d = %v, want 1", i, s)
		}
	}
}

func TestRectangular(t *testing.T) {
	for _, v := range Generate(TypeRectangular, 16) {
		if v != 1 {
			t.Fatalf("rectangular value = %v, want 1", v)
		}
	}
}

func TestWindowPeaks(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
		peak float64
	}{
		{name: "hann", typ: TypeHann, peak: 1},
		{name: "hamming", typ: TypeHamming, peak: 1},
		{name: "blackman", typ: TypeBlackman, peak: 1},
		{name: "blackman-harris", typ: TypeBlackmanHarris, peak: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Generate(tt.typ, 129)
			if math.Abs(w[64]-tt.peak) > 1e-4 {
				t.Fatalf("center = %v, want %v", w[64], tt.peak)
			}
			for i, v := range w {
				if v > tt.peak+1e-12 {
					t.Fatalf("w[%d] = %v exceeds peak", i, v)
				}
			}
		})
	}
}

func TestNamedConstructors(t *testing.T) {
	tests := []struct {
		name string
		fn   func(int, ...Option) ([]float64, error)
		typ  Type
	}{
		{name: "Hann", fn: Hann, typ: TypeHann},
		{name: "Hamming", fn: Hamming, typ: TypeHamming},
		{name: "Blackman", fn: Blackman, typ: TypeBlackman},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(64, WithPeriodic())
			if err != nil {
				t.Fatalf("%s(64): %v", tt.name, err)
			}

			want := Generate(tt.typ, 64, WithPeriodic())
			for i := range got {
				if got[i] != want[i] {
					t.Fatalf("coeff %d = %v, want %v", i, got[i], want[i])
				}
			}

			if _, err := tt.fn(0); err == nil {
				t.Fatal("expected error for zero length")
			}
		})
	}
}

func TestApplyCoefficients(t *testing.T) {
	samples := []float64{1, 2, 3, 4}
	coeffs := []float64{0.5, 0.5, 0.5, 0.5}

	out, err := ApplyCoefficients(samples, coeffs)
	if err != nil {
		t.Fatalf("ApplyCoefficients error: %v", err)
	}

	want := []float64{0.5, 1, 1.5, 2}
	for i := range out {
		if out[i] != want[i] {
			t.Fatalf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}

	// Input untouched.
	if samples[0] != 1 {
		t.Fatalf("input modified: %v", samples)
	}

	if _, err := ApplyCoefficients(samples, coeffs[:2]); err == nil {
		t.Fatal("expected error for mismatched lengths")
	}
}

func TestApplyCoefficientsInPlace(t *testing.T) {
	samples := []float64{2, 4}
	if err := ApplyCoefficientsInPlace(samples, []float64{0.5, 0.25}); err != nil {
		t.Fatalf("ApplyCoefficientsInPlace error: %v", err)
	}
	if samples[0] != 1 || samples[1] != 1 {
		t.Fatalf("samples = %v, want [1 1]", samples)
	}

	if err := ApplyCoefficientsInPlace(samples, []float64{1}); err == nil {
		t.Fatal("expected error for mismatched lengths")
	}
}

func TestOverlapGainHannQuarterHop(t *testing.T) {
	const n = 1024
	w := Generate(TypeHann, n, WithPeriodic())

	gain, err := OverlapGain(w, n/4)
	if err != nil {
		t.Fatalf("OverlapGain error: %v", err)
	}

	// Squared periodic Hann at 4x overlap sums to exactly 3/2.
	if math.Abs(gain-1.5) > 1e-12 {
		t.Fatalf("gain = %v, want 1.5", gain)
	}
}

func TestOverlapGainMatchesDirectSum(t *testing.T) {
	const (
		n   = 256
		hop = 64
	)

	w := Generate(TypeHann, n, WithPeriodic())

	gain, err := OverlapGain(w, hop)
	if err != nil {
		t.Fatalf("OverlapGain error: %v", err)
	}

	// Direct steady-state sum at an interior reference sample.
	ref := 0.0
	for off := 0; off < n; off += hop {
		ref += w[off] * w[off]
	}

	if math.Abs(gain-ref) > 1e-15 {
		t.Fatalf("gain = %v, direct sum = %v", gain, ref)
	}
}

func TestOverlapGainErrors(t *testing.T) {
	w := Generate(TypeHann, 64, WithPeriodic())

	if _, err := OverlapGain(nil, 16); err == nil {
		t.Fatal("expected error for empty coefficients")
	}
	if _, err := OverlapGain(w, 0); err == nil {
		t.Fatal("expected error for zero hop")
	}
	if _, err := OverlapGain(w, 65); err == nil {
		t.Fatal("expected error for hop beyond length")
	}
}

func TestEquivalentNoiseBandwidth(t *testing.T) {
	// Rectangular window has ENBW of exactly 1 bin.
	rect := Generate(TypeRectangular, 128)
	enbw, err := EquivalentNoiseBandwidth(rect)
	if err != nil {
		t.Fatalf("EquivalentNoiseBandwidth error: %v", err)
	}
	if math.Abs(enbw-1) > 1e-12 {
		t.Fatalf("rectangular ENBW = %v, want 1", enbw)
	}

	// Periodic Hann has ENBW of exactly 1.5 bins.
	hann := Generate(TypeHann, 1024, WithPeriodic())
	enbw, err = EquivalentNoiseBandwidth(hann)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(enbw-1.5) > 1e-9 {
		t.Fatalf("hann ENBW = %v, want 1.5", enbw)
	}

	if _, err := EquivalentNoiseBandwidth(nil); err == nil {
		t.Fatal("expected error for empty coefficients")
	}
}
