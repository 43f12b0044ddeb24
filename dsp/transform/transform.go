package transform

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Transform computes forward and inverse DFTs over a fixed power-of-two
// size. Forward is unnormalized; Inverse carries the 1/N factor, so
// Inverse(Forward(x)) == x.
//
// dst and src must both have Size elements. Implementations may alias
// dst and src.
type Transform interface {
	Size() int
	Forward(dst, src []complex128) error
	Inverse(dst, src []complex128) error
}

// Factory constructs a Transform for the given size. Engines take a
// Factory so the FFT backend stays an injected capability.
type Factory func(size int) (Transform, error)

func validateSize(size int) error {
	if size < 2 || size&(size-1) != 0 {
		return fmt.Errorf("transform: size must be a power of two >= 2: %d", size)
	}

	return nil
}

// fftTransform wraps an algo-fft plan.
type fftTransform struct {
	size int
	plan *algofft.Plan[complex128]
}

// NewFFT returns a Transform backed by an algo-fft plan. This is the
// default backend.
func NewFFT(size int) (Transform, error) {
	if err := validateSize(size); err != nil {
		return nil, err
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("transform: failed to create FFT plan: %w", err)
	}

	return &fftTransform{size: size, plan: plan}, nil
}

func (t *fftTransform) Size() int { return t.size }

func (t *fftTransform) Forward(dst, src []complex128) error {
	if len(dst) != t.size || len(src) != t.size {
		return fmt.Errorf("transform: buffer length must be %d: dst=%d src=%d", t.size, len(dst), len(src))
	}

	return t.plan.Forward(dst, src)
}

func (t *fftTransform) Inverse(dst, src []complex128) error {
	if len(dst) != t.size || len(src) != t.size {
		return fmt.Errorf("transform: buffer length must be %d: dst=%d src=%d", t.size, len(dst), len(src))
	}

	return t.plan.Inverse(dst, src)
}

// gonumTransform wraps gonum's complex FFT.
type gonumTransform struct {
	size    int
	fft     *fourier.CmplxFFT
	scratch []complex128
}

// NewGonum returns a Transform backed by gonum's dsp/fourier. Gonum's
// inverse is unscaled, so this adapter applies the 1/N factor to match
// the Transform contract.
func NewGonum(size int) (Transform, error) {
	if err := validateSize(size); err != nil {
		return nil, err
	}

	return &gonumTransform{
		size:    size,
		fft:     fourier.NewCmplxFFT(size),
		scratch: make([]complex128, size),
	}, nil
}

func (t *gonumTransform) Size() int { return t.size }

func (t *gonumTransform) Forward(dst, src []complex128) error {
	if len(dst) != t.size || len(src) != t.size {
		return fmt.Errorf("transform: buffer length must be %d: dst=%d src=%d", t.size, len(dst), len(src))
	}

	copy(t.scratch, src)
	t.fft.Coefficients(dst, t.scratch)

	return nil
}

func (t *gonumTransform) Inverse(dst, src []complex128) error {
	if len(dst) != t.size || len(src) != t.size {
		return fmt.Errorf("transform: buffer length must be %d: dst=%d src=%d", t.size, len(dst), len(src))
	}

	copy(t.scratch, src)
	t.fft.Sequence(dst, t.scratch)

	scale := complex(1/float64(t.size), 0)
	for i := range dst {
		dst[i] *= scale
	}

	return nil
}
