// Package ringbuf provides the circular sample stores used by streaming
// STFT processors: a plain input ring for block accumulation and an
// overlap-add ring that sums windowed synthesis grains at absolute write
// positions.
//
// Both types address samples by absolute, monotonically increasing stream
// positions (int64) and wrap storage internally modulo capacity. This keeps
// hop scheduling arithmetic free of wrap-around special cases.
package ringbuf
