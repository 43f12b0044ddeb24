package ringbuf

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"
)

// OverlapRing accumulates windowed synthesis grains into a circular output
// store. Grains are added, never overwritten, so overlapping contributions
// sum as required by overlap-add reconstruction. Pull consumes finished
// samples from the logical start and zeroes the storage behind it so the
// region can be reused after wrap-around.
//
// OverlapRing is not safe for concurrent use.
type OverlapRing struct {
	data []float64
	mask int64
	base int64 // absolute position of the next sample Pull returns
}

// NewOverlap creates an OverlapRing with at least the requested capacity.
// The capacity is rounded up to a power of two.
func NewOverlap(capacity int) (*OverlapRing, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("ringbuf: capacity must be > 0: %d", capacity)
	}

	n := nextPowerOf2(capacity)

	return &OverlapRing{
		data: make([]float64, n),
		mask: int64(n - 1),
	}, nil
}

// Capacity returns the allocated capacity in samples.
func (o *OverlapRing) Capacity() int { return len(o.data) }

// Start returns the absolute position of the next sample Pull returns.
func (o *OverlapRing) Start() int64 { return o.base }

// Accumulate adds frame into the ring starting at absolute position at.
// Positions already consumed by Pull return ErrRange; frames reaching
// beyond Start+Capacity return ErrOverrun. Either way nothing is written.
func (o *OverlapRing) Accumulate(frame []float64, at int64) error {
	if at < o.base {
		return ErrRange
	}

	if at+int64(len(frame)) > o.base+int64(o.Capacity()) {
		return ErrOverrun
	}

	idx := int(at & o.mask)
	n := len(o.data)

	first := len(frame)
	if idx+first > n {
		first = n - idx
	}

	vecmath.AddBlockInPlace(o.data[idx:idx+first], frame[:first])
	if first < len(frame) {
		rest := frame[first:]
		vecmath.AddBlockInPlace(o.data[:len(rest)], rest)
	}

	return nil
}

// AccumulateWindowed multiplies frame by the window coefficients into
// scratch and adds the result at absolute position at. scratch must have
// the same length as frame and coeffs; it is fully overwritten.
func (o *OverlapRing) AccumulateWindowed(frame, coeffs, scratch []float64, at int64) error {
	if len(frame) != len(coeffs) || len(scratch) != len(frame) {
		return fmt.Errorf("ringbuf: frame/window/scratch lengths differ: %d/%d/%d",
			len(frame), len(coeffs), len(scratch))
	}

	vecmath.MulBlock(scratch, frame, coeffs)

	return o.Accumulate(scratch, at)
}

// Pull copies len(dst) samples starting at Start into dst, zeroes the
// consumed storage, and advances Start. Positions that never received a
// grain contribution read as zero.
func (o *OverlapRing) Pull(dst []float64) {
	for i := range dst {
		idx := o.base & o.mask
		dst[i] = o.data[idx]
		o.data[idx] = 0
		o.base++
	}
}

// Skip discards n samples from the logical start, zeroing their storage.
func (o *OverlapRing) Skip(n int) {
	for range n {
		o.data[o.base&o.mask] = 0
		o.base++
	}
}

// Reset zeroes all storage and rewinds the start position to zero.
func (o *OverlapRing) Reset() {
	for i := range o.data {
		o.data[i] = 0
	}

	o.base = 0
}
