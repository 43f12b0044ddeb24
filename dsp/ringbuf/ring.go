package ringbuf

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"
)

// Ring is a single-producer single-consumer circular input store.
//
// Samples are addressed by absolute stream position: the first sample ever
// pushed has position 0, the next position 1, and so on. The ring retains
// the window [Start, End); Drop advances Start, Push advances End.
//
// Ring is not safe for concurrent use.
type Ring struct {
	data []float64
	mask int64
	head int64 // absolute position of the oldest retained sample
	tail int64 // absolute position one past the newest sample
}

// New creates a Ring with at least the requested capacity.
// The capacity is rounded up to a power of two.
func New(capacity int) (*Ring, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("ringbuf: capacity must be > 0: %d", capacity)
	}

	n := nextPowerOf2(capacity)

	return &Ring{
		data: make([]float64, n),
		mask: int64(n - 1),
	}, nil
}

// Capacity returns the allocated capacity in samples.
func (r *Ring) Capacity() int { return len(r.data) }

// Len returns the number of retained samples.
func (r *Ring) Len() int { return int(r.tail - r.head) }

// Free returns how many samples can be pushed without overrun.
func (r *Ring) Free() int { return r.Capacity() - r.Len() }

// Start returns the absolute position of the oldest retained sample.
func (r *Ring) Start() int64 { return r.head }

// End returns the absolute position one past the newest sample.
func (r *Ring) End() int64 { return r.tail }

// Push appends a block of samples. It returns ErrOverrun (pushing nothing)
// if the block does not fit into the free space.
func (r *Ring) Push(samples []float64) error {
	if len(samples) > r.Free() {
		return ErrOverrun
	}

	for _, v := range samples {
		r.data[r.tail&r.mask] = v
		r.tail++
	}

	return nil
}

// CopyWindow copies len(dst) samples starting at absolute position start
// into dst without consuming them. The requested range must lie entirely
// within [Start, End).
func (r *Ring) CopyWindow(dst []float64, start int64) error {
	if start < r.head || start+int64(len(dst)) > r.tail {
		return ErrRange
	}

	for i := range dst {
		dst[i] = r.data[(start+int64(i))&r.mask]
	}

	return nil
}

// CopyWindowed copies a frame like CopyWindow and multiplies it in place
// by the given window coefficients. len(dst) must equal len(coeffs).
func (r *Ring) CopyWindowed(dst []float64, start int64, coeffs []float64) error {
	if len(dst) != len(coeffs) {
		return fmt.Errorf("ringbuf: frame length %d does not match window length %d", len(dst), len(coeffs))
	}

	if err := r.CopyWindow(dst, start); err != nil {
		return err
	}

	vecmath.MulBlockInPlace(dst, coeffs)

	return nil
}

// Drop discards the n oldest samples, advancing Start. Dropping more than
// Len samples discards everything retained.
func (r *Ring) Drop(n int) {
	if n <= 0 {
		return
	}

	if n > r.Len() {
		n = r.Len()
	}

	r.head += int64(n)
}

// Reset discards all samples and rewinds positions to zero.
func (r *Ring) Reset() {
	for i := range r.data {
		r.data[i] = 0
	}

	r.head = 0
	r.tail = 0
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
