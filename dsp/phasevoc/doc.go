// Package phasevoc implements a streaming phase-vocoder engine for
// pitch-shifting and time-stretching audio with fixed algorithmic latency.
//
// The engine runs a windowed STFT analysis over a fixed analysis hop,
// tracks per-bin phase across hops to estimate true instantaneous
// frequencies, re-scales the spectrum for the requested pitch ratio, and
// reconstructs the signal by overlap-adding synthesis grains whose spacing
// follows a drift-free fractional hop schedule derived from the
// time-stretch ratio.
//
// The forward/inverse FFT is an injected capability (see
// dsp/transform.Transform); this package never computes a transform
// itself.
//
// Real-time behavior: all buffers are allocated at Prepare. Process
// performs no allocation and takes no locks; parameter changes from a
// control goroutine are published lock-free and picked up once per hop.
package phasevoc
