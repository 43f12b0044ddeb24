package ringbuf

import "errors"

var (
	// ErrOverrun is returned when a write would exceed the ring capacity.
	ErrOverrun = errors.New("ringbuf: write exceeds capacity")
	// ErrRange is returned when a read or accumulate references positions
	// outside the currently addressable window.
	ErrRange = errors.New("ringbuf: position out of range")
)
